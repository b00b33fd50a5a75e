package advisor

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/agriadvisor/internal/domain"
)

const advisorPreamble = `You are an expert agricultural advisor for small and mid-size farms.
You can analyze crop health, interpret soil and sensor readings, explain
weather impacts on field work, summarize commodity market conditions and
help identify pests and diseases.

Answer in clear, practical language. Ground every recommendation in the
field readings below, cite the figures you rely on, and finish with a
short numbered list of actions the farmer can take today.`

var modeGuidance = map[domain.TopicalMode]string{
	domain.ModeGeneral:       "Give a concise, well-rounded answer. Point the farmer to a more specific topic when useful.",
	domain.ModeCropAnalysis:  "Focus on crop health, growth stage, nutrient needs and expected yield impact.",
	domain.ModeWeather:       "Focus on how current and expected weather affects irrigation, spraying and field operations.",
	domain.ModeMarket:        "Focus on price movements, demand and the timing of sales. Do not invent exact exchange quotes.",
	domain.ModeSensors:       "Interpret every sensor reading, label each as low, optimal or high, and explain the consequence.",
	domain.ModePestDetection: "Focus on likely pests or diseases given the conditions, how to confirm them and integrated control options.",
}

// BuildAdvisorPrompt composes the single prompt sent to the remote model.
// Snapshot values are embedded verbatim.
func BuildAdvisorPrompt(query string, mode domain.TopicalMode, snap domain.ContextSnapshot) string {
	var b strings.Builder

	b.WriteString(advisorPreamble)
	b.WriteString("\n\n## Current Field Readings\n")
	fmt.Fprintf(&b, "- Soil moisture: %.1f%%\n", snap.SoilMoisturePct)
	fmt.Fprintf(&b, "- Soil pH: %.1f\n", snap.SoilPh)
	fmt.Fprintf(&b, "- Temperature: %.1f°C\n", snap.TemperatureC)
	fmt.Fprintf(&b, "- Humidity: %.1f%%\n", snap.HumidityPct)
	fmt.Fprintf(&b, "- Light: %.0f lux\n", snap.LightLux)
	fmt.Fprintf(&b, "- Nitrogen: %.1f kg/ha\n", snap.NitrogenKgHa)
	fmt.Fprintf(&b, "- Phosphorus: %.1f kg/ha\n", snap.PhosphorusKgHa)
	fmt.Fprintf(&b, "- Potassium: %.1f kg/ha\n", snap.PotassiumKgHa)

	b.WriteString("\n## Current Weather\n")
	fmt.Fprintf(&b, "- Condition: %s\n", snap.Weather.Condition)
	fmt.Fprintf(&b, "- Temperature: %.1f°C\n", snap.Weather.TempC)
	fmt.Fprintf(&b, "- Humidity: %.1f%%\n", snap.Weather.HumidityPct)
	fmt.Fprintf(&b, "- Wind: %.1f km/h\n", snap.Weather.WindKmh)

	b.WriteString("\n## Active Mode\n")
	fmt.Fprintf(&b, "%s (%s)\n", mode, mode.Label())
	if g, ok := modeGuidance[mode]; ok {
		b.WriteString(g)
		b.WriteString("\n")
	}

	b.WriteString("\n## Farmer's Question\n")
	b.WriteString(query)

	return b.String()
}
