package parser

import (
	"encoding/json"
	"strings"

	"github.com/vnkhanh/koru-backend/models"
)

const maxClarificationCards = 3

func cardsFrom(v any) ([]models.Card, bool) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	cards := make([]models.Card, 0, len(items))
	for _, it := range items {
		c, ok := cardFrom(it)
		if !ok {
			return nil, false
		}
		cards = append(cards, c)
	}
	return cards, true
}

func cardFrom(v any) (models.Card, bool) {
	if !conforms(schemaCard, v) {
		return models.Card{}, false
	}
	m := v.(map[string]any)
	return models.Card{Title: m["title"].(string), Content: m["content"].(string)}, true
}

func explanationMatchers(topic string) []matcher[models.ExplanationResult] {
	return []matcher[models.ExplanationResult]{
		{
			variant: "cards",
			match: func(v any, _ []byte) (models.ExplanationResult, bool) {
				cards, ok := cardsFrom(v)
				if !ok {
					return models.ExplanationResult{}, false
				}
				return models.ExplanationResult{CleanTopic: topic, Cards: cards}, true
			},
		},
		{
			variant: "wrapped",
			match: func(v any, _ []byte) (models.ExplanationResult, bool) {
				m, ok := v.(map[string]any)
				if !ok {
					return models.ExplanationResult{}, false
				}
				cards, ok := cardsFrom(m["cards"])
				if !ok {
					return models.ExplanationResult{}, false
				}
				clean, _ := m["cleanTopic"].(string)
				if strings.TrimSpace(clean) == "" {
					clean = topic
				}
				return models.ExplanationResult{CleanTopic: clean, Cards: cards}, true
			},
		},
		{
			variant: "single",
			match: func(v any, _ []byte) (models.ExplanationResult, bool) {
				c, ok := cardFrom(v)
				if !ok {
					return models.ExplanationResult{}, false
				}
				return models.ExplanationResult{CleanTopic: topic, Cards: []models.Card{c}}, true
			},
		},
	}
}

// Explanation decodes an explanation response for topic.
func (p *Parser) Explanation(raw, topic string) Result[models.ExplanationResult] {
	if res, ok := decode(raw, explanationMatchers(topic)); ok {
		return res
	}
	return fallback(models.ExplanationResult{
		CleanTopic: topic,
		Cards:      []models.Card{{Title: "Explanation", Content: StripFences(raw)}},
	})
}

// HistoryContent decodes a stored history payload. Older rows hold a bare
// card array, newer ones the {cleanTopic, cards} object.
func (p *Parser) HistoryContent(content json.RawMessage, query string) models.ExplanationResult {
	return p.Explanation(string(content), query).Value
}

var clarificationMatchers = []matcher[[]models.Card]{
	{
		variant: "cards",
		match: func(v any, _ []byte) ([]models.Card, bool) {
			cards, ok := cardsFrom(v)
			if !ok {
				return nil, false
			}
			if len(cards) > maxClarificationCards {
				cards = cards[:maxClarificationCards]
			}
			return cards, true
		},
	},
	{
		variant: "single",
		match: func(v any, _ []byte) ([]models.Card, bool) {
			c, ok := cardFrom(v)
			if !ok {
				return nil, false
			}
			return []models.Card{c}, true
		},
	},
}

// Clarification decodes a clarification response into one to three cards.
func (p *Parser) Clarification(raw string) Result[[]models.Card] {
	if res, ok := decode(raw, clarificationMatchers); ok {
		return res
	}
	return fallback([]models.Card{{Title: "Clarification", Content: StripFences(raw)}})
}
