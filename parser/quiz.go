package parser

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/vnkhanh/koru-backend/models"
)

// rawQuestion mirrors a quiz element before ids are settled. ID stays raw
// since models emit numbers, numeric strings or nothing.
type rawQuestion struct {
	ID            json.RawMessage `json:"id"`
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	CorrectAnswer *string         `json:"correctAnswer"`
	SampleAnswer  string          `json:"sampleAnswer"`
	Explanation   string          `json:"explanation"`
}

func (q rawQuestion) id() int {
	raw := strings.Trim(strings.TrimSpace(string(q.ID)), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func questionsFrom(v any, raw []byte) ([]rawQuestion, bool) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	for _, it := range items {
		if !conforms(schemaQuizQuestion, it) {
			return nil, false
		}
	}
	var qs []rawQuestion
	if err := json.Unmarshal(raw, &qs); err != nil {
		return nil, false
	}
	return qs, true
}

var quizMatchers = []matcher[[]rawQuestion]{
	{
		variant: "questions",
		match:   questionsFrom,
	},
	{
		variant: "wrapped",
		match: func(v any, _ []byte) ([]rawQuestion, bool) {
			m, ok := v.(map[string]any)
			if !ok {
				return nil, false
			}
			inner, ok := m["questions"]
			if !ok {
				return nil, false
			}
			raw, err := json.Marshal(inner)
			if err != nil {
				return nil, false
			}
			return questionsFrom(inner, raw)
		},
	},
}

// FallbackQuiz is returned when a quiz response cannot be decoded.
func FallbackQuiz(topic string) []models.QuizQuestion {
	answer := "True"
	return []models.QuizQuestion{{
		ID:            1,
		Question:      "What is the main concept of " + topic + "?",
		Options:       []string{"True", "False"},
		CorrectAnswer: &answer,
		Explanation:   "This is a basic understanding check.",
	}}
}

// Quiz decodes a quiz response. Ids are backfilled by position, duplicate
// ids renumber the whole batch, and four-option questions with a known
// answer get their options shuffled.
func (p *Parser) Quiz(raw, topic string) Result[[]models.QuizQuestion] {
	res, ok := decode(raw, quizMatchers)
	if !ok {
		return fallback(FallbackQuiz(topic))
	}

	out := make([]models.QuizQuestion, len(res.Value))
	seen := make(map[int]bool, len(res.Value))
	dup := false
	for i, rq := range res.Value {
		id := rq.id()
		if id == 0 {
			id = i + 1
		}
		if seen[id] {
			dup = true
		}
		seen[id] = true

		options := rq.Options
		if options == nil {
			options = []string{}
		}
		out[i] = models.QuizQuestion{
			ID:            id,
			Question:      rq.Question,
			Options:       options,
			CorrectAnswer: rq.CorrectAnswer,
			SampleAnswer:  rq.SampleAnswer,
			Explanation:   rq.Explanation,
		}
	}
	if dup {
		for i := range out {
			out[i].ID = i + 1
		}
	}
	for i := range out {
		if len(out[i].Options) == 4 && out[i].CorrectAnswer != nil {
			out[i].Options = p.shuffle(out[i].Options)
		}
	}

	return Result[[]models.QuizQuestion]{Value: out, Variant: res.Variant}
}

// shuffle returns a Fisher-Yates permutation of in; in is not modified.
func (p *Parser) shuffle(in []string) []string {
	out := append([]string(nil), in...)
	for i := len(out) - 1; i > 0; i-- {
		j := p.intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
