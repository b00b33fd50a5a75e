package advisor

import (
	"slices"

	"github.com/alexanderramin/agriadvisor/internal/domain"
)

var modeSuggestions = map[domain.TopicalMode][]string{
	domain.ModeGeneral: {
		"Analyze my crop health",
		"What's the weather forecast?",
		"Show current market prices",
		"Check my sensor readings",
	},
	domain.ModeCropAnalysis: {
		"What fertilizer should I apply?",
		"When is the best time to harvest?",
		"How can I improve my yield?",
		"Which crops suit my field this season?",
	},
	domain.ModeWeather: {
		"Will it rain this week?",
		"Should I irrigate today?",
		"Is there any frost or heat risk?",
		"What is the best day to spray?",
	},
	domain.ModeMarket: {
		"Which crop has the best price now?",
		"When should I sell my harvest?",
		"Show price trends for wheat",
		"How is demand for soybean?",
	},
	domain.ModeSensors: {
		"Show me my sensor data analysis",
		"Is my soil pH balanced?",
		"Do I need to add nitrogen?",
		"When should I irrigate next?",
		"Compare today's readings with last week",
	},
	domain.ModePestDetection: {
		"How do I identify leaf blight?",
		"What are organic pest control options?",
		"Is this damage fungal or insect?",
		"How do I prevent aphid infestation?",
	},
}

var defaultSuggestions = []string{
	"How can you help my farm?",
	"Analyze my crop health",
	"What's the weather forecast?",
}

// Suggestions returns the fixed follow-up prompts for mode. The result
// depends on the mode alone and is a fresh copy on every call.
func Suggestions(mode domain.TopicalMode) []string {
	if s, ok := modeSuggestions[mode]; ok {
		return slices.Clone(s)
	}
	return slices.Clone(defaultSuggestions)
}
