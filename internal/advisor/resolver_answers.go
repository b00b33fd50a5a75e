package advisor

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/agriadvisor/internal/domain"
)

// Qualitative labels used by threshold checks.
const (
	labelOptimal   = "Optimal"
	labelLow       = "Low"
	labelHigh      = "High"
	labelAcidic    = "Acidic"
	labelAlkaline  = "Alkaline"
	labelModerate  = "Moderate"
	labelFavorable = "Favorable"
	labelCool      = "Cool"
	labelHot       = "Hot"
	labelStrong    = "Strong"
	labelCalm      = "Calm"
	labelAdequate  = "Adequate"
)

func band(v, lo, hi float64, below, within, above string) string {
	switch {
	case v < lo:
		return below
	case v > hi:
		return above
	default:
		return within
	}
}

func moistureStatus(v float64) string { return band(v, 45, 75, labelLow, labelOptimal, labelHigh) }
func phStatus(v float64) string       { return band(v, 6.0, 7.0, labelAcidic, labelOptimal, labelAlkaline) }
func nitrogenStatus(v float64) string { return band(v, 35, 65, labelLow, labelOptimal, labelHigh) }
func phosphorusStatus(v float64) string {
	return band(v, 20, 40, labelLow, labelOptimal, labelHigh)
}
func potassiumStatus(v float64) string { return band(v, 120, 200, labelLow, labelOptimal, labelHigh) }
func tempStatus(v float64) string      { return band(v, 18, 32, labelCool, labelFavorable, labelHot) }
func humidityStatus(v float64) string  { return band(v, 40, 80, labelLow, labelModerate, labelHigh) }
func windStatus(v float64) string      { return band(v, 5, 25, labelCalm, labelModerate, labelStrong) }
func lightStatus(v float64) string {
	return band(v, 20000, 1e9, labelLow, labelAdequate, labelAdequate)
}

type answerBuilder struct {
	b       strings.Builder
	actions []string
}

func (a *answerBuilder) title(s string) {
	fmt.Fprintf(&a.b, "**%s**\n\n", s)
}

func (a *answerBuilder) headline(format string, args ...any) {
	fmt.Fprintf(&a.b, format, args...)
	a.b.WriteString("\n\n")
}

func (a *answerBuilder) metric(name, value, status string) {
	fmt.Fprintf(&a.b, "- **%s:** %s (%s)\n", name, value, status)
}

func (a *answerBuilder) action(s string) {
	a.actions = append(a.actions, s)
}

func (a *answerBuilder) String() string {
	var out strings.Builder
	out.WriteString(a.b.String())
	if len(a.actions) > 0 {
		out.WriteString("\n**Recommended Actions:**\n")
		for i, act := range a.actions {
			fmt.Fprintf(&out, "%d. %s\n", i+1, act)
		}
	}
	return strings.TrimSpace(out.String())
}

func localAnswer(content string, confidence int, mode domain.TopicalMode) domain.ResolvedAnswer {
	return domain.ResolvedAnswer{
		Content:     content,
		Confidence:  confidence,
		Suggestions: Suggestions(mode),
		Mode:        mode,
	}
}

func answerArithmetic(in ruleInput) domain.ResolvedAnswer {
	expr, _ := parseArithmetic(in.Query)
	result, err := expr.eval()
	var content string
	switch {
	case errors.Is(err, errTooLarge):
		content = fmt.Sprintf("%s is too large to compute.", expr)
	case err != nil:
		content = fmt.Sprintf("%s is undefined: %s.", expr, err)
	default:
		content = fmt.Sprintf("%s = %s", expr, formatNumber(result))
	}
	return localAnswer(content, confidenceArithmetic, in.Mode)
}

func answerSensors(in ruleInput) domain.ResolvedAnswer {
	s := in.Snapshot
	moist := moistureStatus(s.SoilMoisturePct)
	ph := phStatus(s.SoilPh)
	n := nitrogenStatus(s.NitrogenKgHa)
	p := phosphorusStatus(s.PhosphorusKgHa)
	k := potassiumStatus(s.PotassiumKgHa)

	optimal := 0
	for _, st := range []string{moist, ph, n, p, k} {
		if st == labelOptimal {
			optimal++
		}
	}
	overall := "Needs attention"
	switch {
	case optimal == 5:
		overall = "Excellent"
	case optimal >= 3:
		overall = "Good"
	}

	var a answerBuilder
	a.title("Sensor Data Analysis")
	a.headline("Overall soil condition: %s (%d of 5 key readings in the optimal band).", overall, optimal)
	a.metric("Soil Moisture", fmt.Sprintf("%.1f%%", s.SoilMoisturePct), moist)
	a.metric("Soil pH", fmt.Sprintf("%.1f", s.SoilPh), ph)
	a.metric("NPK", fmt.Sprintf("Nitrogen %.1f kg/ha (%s), Phosphorus %.1f kg/ha (%s), Potassium %.1f kg/ha",
		s.NitrogenKgHa, n, s.PhosphorusKgHa, p, s.PotassiumKgHa), k)
	a.metric("Soil Temperature", fmt.Sprintf("%.1f°C", s.TemperatureC), tempStatus(s.TemperatureC))

	switch moist {
	case labelLow:
		a.action("Irrigate within the next 24 hours; moisture is below the 45% threshold.")
	case labelHigh:
		a.action("Pause irrigation and check field drainage to avoid waterlogging.")
	default:
		a.action("Keep the current irrigation schedule.")
	}
	switch ph {
	case labelAcidic:
		a.action("Apply agricultural lime to raise soil pH toward 6.5.")
	case labelAlkaline:
		a.action("Incorporate organic matter or elemental sulfur to lower soil pH.")
	}
	if n == labelLow {
		a.action("Top-dress with a nitrogen fertilizer such as urea in split doses.")
	}
	if p == labelLow {
		a.action("Apply a phosphorus source (DAP or SSP) before the next growth stage.")
	}
	if k == labelLow {
		a.action("Add muriate of potash to correct the potassium deficit.")
	}
	a.action("Re-check sensor readings after 48 hours to confirm the trend.")

	return localAnswer(a.String(), confidenceSensors, in.Mode)
}

func answerCrop(in ruleInput) domain.ResolvedAnswer {
	s := in.Snapshot
	moist := moistureStatus(s.SoilMoisturePct)
	temp := tempStatus(s.TemperatureC)
	n := nitrogenStatus(s.NitrogenKgHa)
	light := lightStatus(s.LightLux)

	score := 100
	if moist != labelOptimal {
		score -= 12
	}
	if temp != labelFavorable {
		score -= 10
	}
	if n != labelOptimal {
		score -= 12
	}
	if light != labelAdequate {
		score -= 6
	}
	health := "Good"
	switch {
	case score >= 90:
		health = "Excellent"
	case score < 75:
		health = "Fair"
	}

	var a answerBuilder
	a.title("Crop Health Analysis")
	a.headline("Crop health index: %d/100 (%s).", score, health)
	a.metric("Water Availability", fmt.Sprintf("%.1f%% soil moisture", s.SoilMoisturePct), moist)
	a.metric("Growing Temperature", fmt.Sprintf("%.1f°C", s.TemperatureC), temp)
	a.metric("Leaf Nitrogen Supply", fmt.Sprintf("%.1f kg/ha", s.NitrogenKgHa), n)
	a.metric("Light for Photosynthesis", fmt.Sprintf("%.0f lux", s.LightLux), light)

	if n == labelLow {
		a.action("Apply nitrogen in split doses to restore leaf vigor.")
	}
	if moist == labelLow {
		a.action("Irrigate at the root zone early in the morning.")
	}
	if temp == labelHot {
		a.action("Use mulch to protect roots from heat stress.")
	}
	a.action("Scout ten random plants per acre for discoloration or stunting.")
	a.action("Record growth stage today to time the next fertilizer application.")

	return localAnswer(a.String(), confidenceCrop, in.Mode)
}

func answerMarket(in ruleInput) domain.ResolvedAnswer {
	quotes := in.Market()
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.WeeklyChgPct > best.WeeklyChgPct {
			best = q
		}
	}

	var a answerBuilder
	a.title("Market Price Update")
	a.headline("Best selling opportunity this week: %s at ₹%.0f/quintal (%+.1f%%).",
		best.Crop, best.PricePerQtl, best.WeeklyChgPct)

	sorted := append([]MarketQuote(nil), quotes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].WeeklyChgPct > sorted[j].WeeklyChgPct })
	for _, q := range sorted[:4] {
		a.metric(q.Crop, fmt.Sprintf("₹%.0f/quintal, %+.1f%% this week", q.PricePerQtl, q.WeeklyChgPct), trendLabel(q.WeeklyChgPct))
	}

	if best.WeeklyChgPct >= 2 {
		a.action(fmt.Sprintf("Consider selling part of your %s stock while prices are rising.", strings.ToLower(best.Crop)))
	} else {
		a.action("Prices are broadly flat; hold stock if storage conditions allow.")
	}
	a.action("Compare rates at two nearby mandis before committing a sale.")
	a.action("Check the current minimum support price before accepting an offer.")

	return localAnswer(a.String(), confidenceMarket, in.Mode)
}

func trendLabel(chg float64) string {
	switch {
	case chg >= 1:
		return "Rising"
	case chg <= -1:
		return "Falling"
	default:
		return "Stable"
	}
}

func answerWeather(in ruleInput) domain.ResolvedAnswer {
	w := in.Snapshot.Weather
	temp := tempStatus(w.TempC)
	hum := humidityStatus(w.HumidityPct)
	wind := windStatus(w.WindKmh)
	moist := moistureStatus(in.Snapshot.SoilMoisturePct)

	var a answerBuilder
	a.title("Weather Impact Analysis")
	a.headline("Current conditions: %s, %.1f°C.", w.Condition, w.TempC)
	a.metric("Temperature", fmt.Sprintf("%.1f°C", w.TempC), temp)
	a.metric("Humidity", fmt.Sprintf("%.1f%%", w.HumidityPct), hum)
	a.metric("Wind", fmt.Sprintf("%.1f km/h", w.WindKmh), wind)
	a.metric("Irrigation Need", fmt.Sprintf("soil moisture %.1f%%", in.Snapshot.SoilMoisturePct), moist)

	if wind == labelStrong {
		a.action("Postpone spraying until wind drops below 15 km/h.")
	} else {
		a.action("Conditions allow spraying; prefer early morning or late evening.")
	}
	if hum == labelHigh {
		a.action("High humidity raises fungal risk; inspect lower leaves.")
	}
	if temp == labelHot {
		a.action("Irrigate in the evening to reduce evaporation losses.")
	}
	if moist == labelLow && !strings.Contains(strings.ToLower(w.Condition), "rain") {
		a.action("No rain in current conditions; schedule irrigation today.")
	}

	return localAnswer(a.String(), confidenceWeather, in.Mode)
}

func answerPest(in ruleInput) domain.ResolvedAnswer {
	s := in.Snapshot
	fungal := labelLow
	switch {
	case s.HumidityPct > 80 && s.TemperatureC >= 20:
		fungal = labelHigh
	case s.HumidityPct > 65:
		fungal = labelModerate
	}
	insect := labelLow
	switch {
	case s.TemperatureC > 28:
		insect = labelHigh
	case s.TemperatureC >= 22:
		insect = labelModerate
	}
	wetness := humidityStatus(s.Weather.HumidityPct)

	var a answerBuilder
	a.title("Pest & Disease Risk Assessment")
	a.headline("Fungal disease risk is %s and insect activity is %s under current conditions.",
		strings.ToLower(fungal), strings.ToLower(insect))
	a.metric("Fungal Risk", fmt.Sprintf("%.1f%% humidity at %.1f°C", s.HumidityPct, s.TemperatureC), fungal)
	a.metric("Insect Activity", fmt.Sprintf("%.1f°C canopy temperature", s.TemperatureC), insect)
	a.metric("Leaf Wetness", fmt.Sprintf("%.1f%% air humidity", s.Weather.HumidityPct), wetness)

	a.action("Inspect the undersides of leaves for eggs, spots or webbing.")
	if fungal != labelLow {
		a.action("Apply a preventive copper or sulfur-based fungicide if spots appear.")
	}
	if insect != labelLow {
		a.action("Set yellow sticky traps and spray neem oil (3-5 ml/L) at dusk.")
	}
	a.action("Remove and destroy infected plant material away from the field.")

	return localAnswer(a.String(), confidencePest, in.Mode)
}

func answerOverview(in ruleInput) domain.ResolvedAnswer {
	var b strings.Builder
	b.WriteString("**How I can help your farm**\n\n")
	b.WriteString("I'm your farming assistant. I can help with:\n\n")
	b.WriteString("- **Crop analysis:** health checks, nutrient needs and yield outlook\n")
	b.WriteString("- **Weather:** how conditions affect irrigation and spraying\n")
	b.WriteString("- **Market:** current commodity prices and when to sell\n")
	b.WriteString("- **Sensors:** soil moisture, pH and NPK interpretation\n")
	b.WriteString("- **Pest detection:** identifying and controlling pests and diseases\n\n")
	b.WriteString("Ask a specific question or switch to one of these modes for focused advice.")
	return localAnswer(b.String(), confidenceOverview, in.Mode)
}
