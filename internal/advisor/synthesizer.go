package advisor

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/alexanderramin/agriadvisor/internal/domain"
)

// Synthesizer produces simulated field readings. It has no I/O and cannot
// fail; the only inputs are its clock and random source.
type Synthesizer struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSynthesizer returns a Synthesizer with a reproducible random source.
func NewSynthesizer(seed uint64, now func() time.Time) *Synthesizer {
	if now == nil {
		now = time.Now
	}
	return &Synthesizer{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: now,
	}
}

// NewRandomSynthesizer returns a Synthesizer seeded from the runtime source.
func NewRandomSynthesizer() *Synthesizer {
	return NewSynthesizer(rand.Uint64(), time.Now)
}

// Synthesize returns a fresh snapshot. Temperature and light follow the
// hour of day; every field is clamped to its plausible range.
func (s *Synthesizer) Synthesize() domain.ContextSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now()
	daylight := daylightFactor(t)

	temp := s.between(20, 29) + 7*(daylight-0.5)
	temp = round1(domain.RangeTemperature.Clamp(temp))

	lux := domain.RangeLight.Min + daylight*s.between(55000, 85000)
	lux = math.Round(domain.RangeLight.Clamp(lux))

	snap := domain.ContextSnapshot{
		TakenAt:         t,
		SoilMoisturePct: round1(s.uniform(domain.RangeSoilMoisture)),
		SoilPh:          round1(s.uniform(domain.RangeSoilPh)),
		TemperatureC:    temp,
		HumidityPct:     round1(s.uniform(domain.RangeHumidity)),
		LightLux:        lux,
		NitrogenKgHa:    round1(s.uniform(domain.RangeNitrogen)),
		PhosphorusKgHa:  round1(s.uniform(domain.RangePhosphorus)),
		PotassiumKgHa:   round1(s.uniform(domain.RangePotassium)),
	}

	snap.Weather = domain.WeatherReading{
		TempC:       round1(domain.RangeWeatherTemp.Clamp(temp + s.between(-2, 2))),
		HumidityPct: round1(s.uniform(domain.RangeWeatherHumidity)),
		WindKmh:     round1(s.uniform(domain.RangeWind)),
		Condition:   domain.WeatherConditions[s.rng.IntN(len(domain.WeatherConditions))],
	}
	return snap
}

// MarketQuote is a simulated commodity price.
type MarketQuote struct {
	Crop          string
	PricePerQtl   float64
	WeeklyChgPct  float64
	DemandOutlook string
}

var marketBasePrices = []struct {
	crop string
	base float64
}{
	{"Wheat", 2275},
	{"Rice", 2183},
	{"Maize", 2090},
	{"Soybean", 4600},
	{"Cotton", 6620},
}

// SynthesizeMarket returns simulated mandi prices around fixed base rates.
func (s *Synthesizer) SynthesizeMarket() []MarketQuote {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes := make([]MarketQuote, 0, len(marketBasePrices))
	for _, b := range marketBasePrices {
		chg := round1(s.between(-5, 6))
		outlook := "Steady"
		switch {
		case chg >= 2:
			outlook = "Strong"
		case chg <= -2:
			outlook = "Weak"
		}
		quotes = append(quotes, MarketQuote{
			Crop:          b.crop,
			PricePerQtl:   math.Round(b.base * (1 + chg/100)),
			WeeklyChgPct:  chg,
			DemandOutlook: outlook,
		})
	}
	return quotes
}

func (s *Synthesizer) uniform(r domain.Range) float64 {
	return s.between(r.Min, r.Max)
}

func (s *Synthesizer) between(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// daylightFactor is 0 at night and peaks at 1 around 13:00.
func daylightFactor(t time.Time) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60
	f := math.Sin((h - 6) / 14 * math.Pi)
	if h < 6 || h > 20 || f < 0 {
		return 0
	}
	return f
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
