package domain

import "time"

// WeatherReading is the weather half of a ContextSnapshot.
type WeatherReading struct {
	TempC       float64 `json:"temp_c"`
	HumidityPct float64 `json:"humidity_pct"`
	WindKmh     float64 `json:"wind_kmh"`
	Condition   string  `json:"condition"`
}

// ContextSnapshot is a simulated set of field readings used to ground a
// single answer. It is never persisted or shared between requests.
type ContextSnapshot struct {
	TakenAt         time.Time      `json:"taken_at"`
	SoilMoisturePct float64        `json:"soil_moisture_pct"`
	SoilPh          float64        `json:"soil_ph"`
	TemperatureC    float64        `json:"temperature_c"`
	HumidityPct     float64        `json:"humidity_pct"`
	LightLux        float64        `json:"light_lux"`
	NitrogenKgHa    float64        `json:"nitrogen_kg_ha"`
	PhosphorusKgHa  float64        `json:"phosphorus_kg_ha"`
	PotassiumKgHa   float64        `json:"potassium_kg_ha"`
	Weather         WeatherReading `json:"weather"`
}

// Range is an inclusive bound for a simulated reading.
type Range struct {
	Min, Max float64
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Plausible ranges for every snapshot field.
var (
	RangeSoilMoisture = Range{35, 85}
	RangeSoilPh       = Range{5.5, 7.5}
	RangeTemperature  = Range{15, 38}
	RangeHumidity     = Range{30, 95}
	RangeLight        = Range{5000, 90000}
	RangeNitrogen     = Range{20, 80}
	RangePhosphorus   = Range{10, 50}
	RangePotassium    = Range{80, 250}

	RangeWeatherTemp     = Range{12, 40}
	RangeWeatherHumidity = Range{25, 100}
	RangeWind            = Range{0, 40}
)

// WeatherConditions is the fixed label set for WeatherReading.Condition.
var WeatherConditions = []string{
	"Sunny", "Partly Cloudy", "Cloudy", "Light Rain", "Overcast", "Clear",
}
