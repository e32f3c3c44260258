// Package prompts turns a requested action and its payload into the full
// natural-language prompt sent to the model. Everything here is pure.
package prompts

import (
	"fmt"
	"strings"

	"github.com/vnkhanh/koru-backend/models"
)

type Action string

const (
	ActionExplanation   Action = "explanation"
	ActionClarification Action = "clarification"
	ActionQuiz          Action = "quiz"
	ActionQuizFeedback  Action = "quiz_feedback"
	ActionRefineTitle   Action = "refine_title"
)

const (
	DefaultDifficulty   = models.DifficultyIntermediate
	DefaultNumQuestions = 5
	DefaultQuizType     = models.QuizMultipleChoice
)

// Payload carries every field any action may use. Unused fields are ignored.
type Payload struct {
	Topic              string `json:"topic"`
	Confusion          string `json:"confusion,omitempty"`
	QuizType           string `json:"quizType,omitempty"`
	Difficulty         string `json:"difficulty,omitempty"`
	NumQuestions       int    `json:"numQuestions,omitempty"`
	CustomInstructions string `json:"customInstructions,omitempty"`
	Correct            int    `json:"correct,omitempty"`
	Total              int    `json:"total,omitempty"`
}

// Build returns the prompt for action. Unknown actions get the explanation
// prompt.
func Build(action Action, p Payload) string {
	switch action {
	case ActionClarification:
		return clarification(p)
	case ActionQuiz:
		return quiz(p)
	case ActionQuizFeedback:
		return quizFeedback(p)
	case ActionRefineTitle:
		return refineTitle(p)
	default:
		return explanation(p)
	}
}

const (
	sameLanguageRule = "IMPORTANT: Write the response in the SAME language as the Topic."
	noDualTitlesRule = `Do NOT use dual-language titles (e.g. "Title (Judul)"). Use ONLY the language of the topic.`
)

func quoted(s string) string {
	return `"` + s + `"`
}

func explanation(p Payload) string {
	var b strings.Builder

	b.WriteString("You are an expert teacher explaining " + quoted(p.Topic) + " to a beginner.\n\n")
	b.WriteString("Break down the explanation into 3-5 distinct parts (cards) to make it easy to digest.\n")
	b.WriteString("Each part should have a clear title and a simple explanation.\n")
	b.WriteString(`Use analogies and simple language ("baby language").` + "\n\n")
	b.WriteString(sameLanguageRule + "\n")
	b.WriteString(noDualTitlesRule + "\n\n")
	b.WriteString(`Return ONLY a JSON array of objects.
Example format:
[
  { "title": "Introduction", "content": "..." },
  { "title": "How it works", "content": "..." },
  { "title": "Why it matters", "content": "..." }
]

If you also want to provide a cleaned-up version of the topic, you may instead return
a single JSON object: { "cleanTopic": "...", "cards": [ ...the same array... ] }

DO NOT use markdown formatting like ` + "```json" + `. Just return the raw JSON.`)

	return b.String()
}

func clarification(p Payload) string {
	var b strings.Builder

	b.WriteString("You are an expert tutor explaining concepts to a student who is confused.\n\n")
	b.WriteString("Topic: " + quoted(p.Topic) + "\n")
	b.WriteString("Student's Confusion: " + quoted(p.Confusion) + "\n\n")
	b.WriteString("Provide a clear, simple explanation to clear up the confusion.\n")
	b.WriteString("Break it down into 1-3 bite-sized parts.\n\n")
	b.WriteString("IMPORTANT: Write the response in the SAME language as the Student's Confusion.\n")
	b.WriteString(noDualTitlesRule + "\n\n")
	b.WriteString(`Return ONLY a JSON array of 1 to 3 objects.
Example format:
[
  { "title": "Clarification Part 1", "content": "..." },
  { "title": "Clarification Part 2", "content": "..." }
]

Keep the tone encouraging and simple.
DO NOT use markdown formatting like ` + "```json" + `. Just return the raw JSON array.`)

	return b.String()
}

func quizFeedback(p Payload) string {
	var b strings.Builder

	b.WriteString("The user has just finished a quiz on " + quoted(p.Topic) + ".\n")
	fmt.Fprintf(&b, "They answered %d out of %d correctly.\n\n", p.Correct, p.Total)
	b.WriteString(`Generate a short, encouraging feedback message.
If the score is low, suggest reviewing the material.
If the score is high, congratulate them.

` + sameLanguageRule + `

Return ONLY a JSON object:
{ "feedback": "Your feedback message here" }

DO NOT use markdown formatting like ` + "```json" + `. Just return the raw JSON object.`)

	return b.String()
}

func refineTitle(p Payload) string {
	var b strings.Builder

	b.WriteString("You are a title refinement assistant.\n\n")
	b.WriteString("The user wants to create a quiz about: " + quoted(p.Topic) + "\n\n")
	b.WriteString(`Your task is to create a CLEANER, more CONCISE, and PROFESSIONAL title for this quiz.

Rules:
1. Keep the essence/meaning of the original topic
2. Make it shorter if possible (max 50 characters ideal, max 80 characters absolute)
3. Use proper capitalization (Title Case)
4. Remove unnecessary words like "about", "regarding", "Quiz about", etc.
5. Make it sound like a professional quiz topic title
6. Write in the SAME language as the input
7. If the input is already clean and short, just return it with proper capitalization

Examples:
- "apa itu bitcoin halving dan dampaknya pada pasar" → "Bitcoin Halving dan Dampaknya"
- "machine learning basics and how it works" → "Machine Learning Basics"
- "sejarah panjang kerajaan majapahit di indonesia" → "Sejarah Kerajaan Majapahit"
- "basic javascript programming tutorial" → "JavaScript Programming Basics"

Return ONLY a JSON object with the refined title:
{ "refinedTitle": "Your Refined Title Here" }

DO NOT use markdown formatting. Just return the raw JSON object.`)

	return b.String()
}
