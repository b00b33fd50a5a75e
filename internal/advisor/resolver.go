package advisor

import (
	"regexp"
	"strings"

	"github.com/alexanderramin/agriadvisor/internal/domain"
)

// Fixed local confidences.
const (
	confidenceArithmetic = 100
	confidenceSensors    = 95
	confidenceCrop       = 92
	confidenceWeather    = 90
	confidenceMarket     = 88
	confidencePest       = 87
	confidenceOverview   = 80
)

// Rule names, in priority order.
const (
	RuleArithmetic = "arithmetic"
	RuleSensors    = "sensors"
	RuleCrop       = "crop"
	RuleMarket     = "market"
	RuleWeather    = "weather"
	RulePest       = "pest"
	RuleOverview   = "overview"
)

// ruleInput is what a rule sees: the query (raw and lower-cased), the
// request mode, and the figures to report.
type ruleInput struct {
	Query    string
	Lower    string
	Mode     domain.TopicalMode
	Snapshot domain.ContextSnapshot
	Market   func() []MarketQuote
}

// Rule pairs a predicate with the handler that answers when it matches.
type Rule struct {
	Name   string
	Match  func(in ruleInput) bool
	Answer func(in ruleInput) domain.ResolvedAnswer
}

// DefaultRules returns the rule table in priority order. The first rule
// whose predicate matches answers; order is the tie-break for queries that
// hit several topics.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   RuleArithmetic,
			Match:  func(in ruleInput) bool { _, ok := parseArithmetic(in.Query); return ok },
			Answer: answerArithmetic,
		},
		{
			Name:   RuleSensors,
			Match:  topic(domain.ModeSensors, "sensor", "soil", "moisture", "npk", "nitrogen", "phosphorus", "potassium", "ph"),
			Answer: answerSensors,
		},
		{
			Name:   RuleCrop,
			Match:  topic(domain.ModeCropAnalysis, "crop", "plant", "yield", "harvest", "growth", "sow", "seed", "fertiliz", "fertilis"),
			Answer: answerCrop,
		},
		{
			Name:   RuleMarket,
			Match:  topic(domain.ModeMarket, "market", "price", "sell", "mandi", "msp", "rate", "demand", "buyer", "trade"),
			Answer: answerMarket,
		},
		{
			Name:   RuleWeather,
			Match:  topic(domain.ModeWeather, "weather", "rain", "forecast", "temperature", "wind", "humid", "frost", "storm"),
			Answer: answerWeather,
		},
		{
			Name:   RulePest,
			Match:  topic(domain.ModePestDetection, "pest", "disease", "insect", "fung", "blight", "infest", "aphid", "leaf spot", "mildew", "bug", "worm"),
			Answer: answerPest,
		},
	}
}

// wholeWords are triggers too short to match as a word prefix.
var wholeWords = map[string]bool{"ph": true, "msp": true, "npk": true}

// topic matches when the request mode pre-selects the branch or a trigger
// occurs in the query at the start of a word (case-insensitive). Triggers
// in wholeWords must also end at a word boundary.
func topic(mode domain.TopicalMode, triggers ...string) func(ruleInput) bool {
	alts := make([]string, len(triggers))
	for i, t := range triggers {
		alts[i] = regexp.QuoteMeta(t)
		if wholeWords[t] {
			alts[i] += `\b`
		}
	}
	pattern := regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)`)

	return func(in ruleInput) bool {
		return in.Mode == mode || pattern.MatchString(in.Lower)
	}
}

// Resolver is the deterministic local tier. It performs no I/O and always
// returns an answer.
type Resolver struct {
	rules []Rule
	synth *Synthesizer
}

// NewResolver builds a Resolver over the default rules. synth supplies the
// figures quoted in answers when no snapshot is passed in.
func NewResolver(synth *Synthesizer) *Resolver {
	return NewResolverWithRules(synth, DefaultRules())
}

// NewResolverWithRules builds a Resolver over a custom rule table.
func NewResolverWithRules(synth *Synthesizer, rules []Rule) *Resolver {
	if synth == nil {
		synth = NewRandomSynthesizer()
	}
	return &Resolver{rules: rules, synth: synth}
}

// Resolve answers from freshly synthesized figures.
func (r *Resolver) Resolve(query string, mode domain.TopicalMode) domain.ResolvedAnswer {
	return r.ResolveWith(query, mode, r.synth.Synthesize())
}

// ResolveWith answers using snap for the quoted figures.
func (r *Resolver) ResolveWith(query string, mode domain.TopicalMode, snap domain.ContextSnapshot) domain.ResolvedAnswer {
	in := r.input(query, mode, snap)
	rule, ok := r.match(in)

	var ans domain.ResolvedAnswer
	if ok {
		ans = rule.Answer(in)
	} else {
		ans = answerOverview(in)
	}
	ans.Source = domain.SourceLocal
	ans.Mode = mode
	return ans
}

// Classify reports which rule would answer, or RuleOverview.
func (r *Resolver) Classify(query string, mode domain.TopicalMode) string {
	rule, ok := r.match(r.input(query, mode, domain.ContextSnapshot{}))
	if !ok {
		return RuleOverview
	}
	return rule.Name
}

func (r *Resolver) input(query string, mode domain.TopicalMode, snap domain.ContextSnapshot) ruleInput {
	return ruleInput{
		Query:    query,
		Lower:    strings.ToLower(query),
		Mode:     mode,
		Snapshot: snap,
		Market:   r.synth.SynthesizeMarket,
	}
}

func (r *Resolver) match(in ruleInput) (Rule, bool) {
	for _, rule := range r.rules {
		if rule.Match(in) {
			return rule, true
		}
	}
	return Rule{}, false
}
