package parser

import "strings"

func stringField(name string) []matcher[string] {
	return []matcher[string]{{
		variant: name,
		match: func(v any, _ []byte) (string, bool) {
			m, ok := v.(map[string]any)
			if !ok {
				return "", false
			}
			s, ok := m[name].(string)
			if !ok || strings.TrimSpace(s) == "" {
				return "", false
			}
			return s, true
		},
	}}
}

var (
	titleMatchers    = stringField("refinedTitle")
	feedbackMatchers = stringField("feedback")
)

// RefinedTitle returns the model's refinedTitle, or topic unchanged.
func (p *Parser) RefinedTitle(raw, topic string) Result[string] {
	if res, ok := decode(raw, titleMatchers); ok {
		return res
	}
	return fallback(topic)
}

// Feedback returns the model's feedback message, or fallbackText.
func (p *Parser) Feedback(raw, fallbackText string) Result[string] {
	if res, ok := decode(raw, feedbackMatchers); ok {
		return res
	}
	return fallback(fallbackText)
}
