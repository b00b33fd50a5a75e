package llm

import "strings"

// CleanText trims model output and removes a single wrapping markdown code
// fence, which some models add around plain prose.
func CleanText(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	last := strings.TrimSpace(lines[len(lines)-1])
	if last != "```" {
		return s
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}
