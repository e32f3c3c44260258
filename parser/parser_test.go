package parser

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/koru-backend/models"
)

func identity(int) int { return 0 }

func TestExplanationStripsFence(t *testing.T) {
	p := New()
	got := p.Explanation("```json\n[{\"title\":\"A\",\"content\":\"B\"}]\n```", "Gravity")

	assert.False(t, got.Fallback)
	assert.Equal(t, "cards", got.Variant)
	assert.Equal(t, models.ExplanationResult{
		CleanTopic: "Gravity",
		Cards:      []models.Card{{Title: "A", Content: "B"}},
	}, got.Value)
}

func TestFenceStrippingDoesNotChangeResult(t *testing.T) {
	p := NewWithRand(identity)
	inputs := []string{
		`[{"title":"A","content":"B"},{"title":"C","content":"D"}]`,
		`{"cleanTopic":"Gravity 101","cards":[{"title":"A","content":"B"}]}`,
		`[{"id":1,"question":"Q?","options":["a","b","c","d"],"correctAnswer":"a","explanation":"e"}]`,
	}
	for _, in := range inputs {
		fenced := "```json\n" + in + "\n```"
		assert.Equal(t, p.Explanation(in, "t"), p.Explanation(fenced, "t"))
		assert.Equal(t, p.Clarification(in), p.Clarification(fenced))
		assert.Equal(t, p.Quiz(in, "t"), p.Quiz(fenced, "t"))
		assert.Equal(t, p.Quiz(fenced, "t"), p.Quiz("```"+fenced+"```", "t"))
	}
}

func TestExplanationVariants(t *testing.T) {
	p := New()

	tests := []struct {
		name    string
		raw     string
		variant string
		want    models.ExplanationResult
	}{
		{
			name:    "wrapped object keeps clean topic",
			raw:     `Sure! {"cleanTopic":"Photosynthesis","cards":[{"title":"A","content":"B"}]} hope it helps`,
			variant: "wrapped",
			want:    models.ExplanationResult{CleanTopic: "Photosynthesis", Cards: []models.Card{{Title: "A", Content: "B"}}},
		},
		{
			name:    "wrapped object without clean topic",
			raw:     `{"cards":[{"title":"A","content":"B"}]}`,
			variant: "wrapped",
			want:    models.ExplanationResult{CleanTopic: "photo", Cards: []models.Card{{Title: "A", Content: "B"}}},
		},
		{
			name:    "single card object",
			raw:     `{"title":"Only","content":"One"}`,
			variant: "single",
			want:    models.ExplanationResult{CleanTopic: "photo", Cards: []models.Card{{Title: "Only", Content: "One"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Explanation(tt.raw, "photo")
			assert.False(t, got.Fallback)
			assert.Equal(t, tt.variant, got.Variant)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestExplanationFallback(t *testing.T) {
	p := New()
	got := p.Explanation("```\nJust some prose about plants.\n```", "plants")

	assert.True(t, got.Fallback)
	assert.Equal(t, VariantFallback, got.Variant)
	assert.Equal(t, "plants", got.Value.CleanTopic)
	require.Len(t, got.Value.Cards, 1)
	assert.Equal(t, "Explanation", got.Value.Cards[0].Title)
	assert.Equal(t, "Just some prose about plants.", got.Value.Cards[0].Content)
}

func TestNeverPanics(t *testing.T) {
	p := New()
	inputs := []string{
		"",
		"not json at all",
		"[",
		"{}",
		"[]",
		`{"foo": 1}`,
		`[1, 2, 3]`,
		`"just a string"`,
		`null`,
		`[{"title": 5, "content": null}]`,
		"```json```",
		`{"questions": "nope"}`,
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			e := p.Explanation(in, "t")
			assert.NotEmpty(t, e.Value.Cards)
			c := p.Clarification(in)
			assert.NotEmpty(t, c.Value)
			q := p.Quiz(in, "t")
			assert.NotEmpty(t, q.Value)
			_ = p.RefinedTitle(in, "t")
			_ = p.Feedback(in, "ok")
		}, "input %q", in)
	}
}

func TestClarification(t *testing.T) {
	p := New()

	got := p.Clarification(`{"title":"Why","content":"Because"}`)
	assert.Equal(t, "single", got.Variant)
	assert.Equal(t, []models.Card{{Title: "Why", Content: "Because"}}, got.Value)

	got = p.Clarification(`[{"title":"1","content":"a"},{"title":"2","content":"b"},{"title":"3","content":"c"},{"title":"4","content":"d"}]`)
	assert.Equal(t, "cards", got.Variant)
	assert.Len(t, got.Value, 3)

	got = p.Clarification("I am confused too")
	assert.True(t, got.Fallback)
	assert.Equal(t, []models.Card{{Title: "Clarification", Content: "I am confused too"}}, got.Value)
}

func TestQuizFallback(t *testing.T) {
	got := New().Quiz("not json at all", "Rust")

	assert.True(t, got.Fallback)
	require.Len(t, got.Value, 1)
	q := got.Value[0]
	assert.Equal(t, 1, q.ID)
	assert.Equal(t, []string{"True", "False"}, q.Options)
	require.NotNil(t, q.CorrectAnswer)
	assert.Equal(t, "True", *q.CorrectAnswer)
	assert.Equal(t, "What is the main concept of Rust?", q.Question)
}

func TestQuizBackfillsIDs(t *testing.T) {
	raw := `[
		{"question":"Q1","options":["True","False"],"correctAnswer":"True","explanation":"e"},
		{"id":"7","question":"Q2","options":["True","False"],"correctAnswer":"False","explanation":"e"},
		{"id":null,"question":"Q3","options":["True","False"],"correctAnswer":"True","explanation":"e"}
	]`
	got := NewWithRand(identity).Quiz(raw, "t")

	require.False(t, got.Fallback)
	ids := []int{got.Value[0].ID, got.Value[1].ID, got.Value[2].ID}
	assert.Equal(t, []int{1, 7, 3}, ids)
}

func TestQuizRenumbersDuplicateIDs(t *testing.T) {
	raw := `[
		{"id":1,"question":"Q1","options":[],"correctAnswer":null,"sampleAnswer":"s","explanation":"e"},
		{"id":1,"question":"Q2","options":[],"correctAnswer":null,"sampleAnswer":"s","explanation":"e"},
		{"question":"Q3","explanation":"e"}
	]`
	got := New().Quiz(raw, "t")

	require.Len(t, got.Value, 3)
	for i, q := range got.Value {
		assert.Equal(t, i+1, q.ID)
		assert.NotNil(t, q.Options)
		assert.Empty(t, q.Options)
		assert.Nil(t, q.CorrectAnswer)
	}
	assert.Equal(t, "s", got.Value[0].SampleAnswer)
}

func TestQuizShufflePreservesOptions(t *testing.T) {
	raw := `[{"id":1,"question":"Capital of France?","options":["Paris","London","Berlin","Madrid"],"correctAnswer":"Paris","explanation":"e"}]`

	calls := 0
	p := NewWithRand(func(n int) int {
		calls++
		return 0
	})
	got := p.Quiz(raw, "t")

	require.Len(t, got.Value, 1)
	q := got.Value[0]
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"London", "Berlin", "Madrid", "Paris"}, q.Options)
	assert.Equal(t, "Paris", *q.CorrectAnswer)

	for i := 0; i < 50; i++ {
		q := New().Quiz(raw, "t").Value[0]
		sorted := append([]string(nil), q.Options...)
		sort.Strings(sorted)
		assert.Equal(t, []string{"Berlin", "London", "Madrid", "Paris"}, sorted)
		assert.Contains(t, q.Options, *q.CorrectAnswer)
	}
}

func TestQuizSkipsShuffleWithoutAnswer(t *testing.T) {
	raw := `[{"id":1,"question":"Q","options":["a","b","c","d"],"explanation":"e"}]`
	p := NewWithRand(func(int) int { t.Fatal("shuffle should not run"); return 0 })

	got := p.Quiz(raw, "t")
	assert.Equal(t, []string{"a", "b", "c", "d"}, got.Value[0].Options)
}

func TestQuizWrappedObject(t *testing.T) {
	raw := `{"questions":[{"question":"Q","options":["True","False"],"correctAnswer":"True","explanation":"e"}]}`
	got := New().Quiz(raw, "t")

	assert.Equal(t, "wrapped", got.Variant)
	require.Len(t, got.Value, 1)
	assert.Equal(t, 1, got.Value[0].ID)
}

func TestQuizRejectsEmptyArray(t *testing.T) {
	got := New().Quiz("[]", "t")
	assert.True(t, got.Fallback)
}

func TestRefinedTitle(t *testing.T) {
	p := New()

	got := p.RefinedTitle(`{"refinedTitle":"Bitcoin Halving and Its Impact"}`, "apa itu bitcoin halving")
	assert.False(t, got.Fallback)
	assert.Equal(t, "Bitcoin Halving and Its Impact", got.Value)

	got = p.RefinedTitle("{refinedTitle: broken", "apa itu bitcoin halving")
	assert.True(t, got.Fallback)
	assert.Equal(t, "apa itu bitcoin halving", got.Value)

	got = p.RefinedTitle(`{"refinedTitle":"   "}`, "raw topic")
	assert.Equal(t, "raw topic", got.Value)
}

func TestFeedback(t *testing.T) {
	p := New()

	got := p.Feedback("```json\n{\"feedback\":\"Great job!\"}\n```", "Well done")
	assert.Equal(t, "Great job!", got.Value)

	got = p.Feedback("oops", "Well done")
	assert.True(t, got.Fallback)
	assert.Equal(t, "Well done", got.Value)
}

func TestHistoryContent(t *testing.T) {
	p := New()

	legacy := json.RawMessage(`[{"title":"A","content":"B"}]`)
	assert.Equal(t, models.ExplanationResult{CleanTopic: "q", Cards: []models.Card{{Title: "A", Content: "B"}}},
		p.HistoryContent(legacy, "q"))

	current := json.RawMessage(`{"cleanTopic":"Q!","cards":[{"title":"A","content":"B"}]}`)
	assert.Equal(t, "Q!", p.HistoryContent(current, "q").CleanTopic)
}

func TestCandidatesOrder(t *testing.T) {
	assert.Equal(t, []string{`[1]`, `{"a":1}`}, candidates(`[1] {"a":1}`))
	assert.Equal(t, []string{`{"a":[1]}`, `[1]`}, candidates(`{"a":[1]}`))
	assert.Equal(t, []string{"plain"}, candidates("plain"))
	assert.Nil(t, candidates("   "))
}
