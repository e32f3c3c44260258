package prompts

import (
	"fmt"
	"strings"

	"github.com/vnkhanh/koru-backend/models"
)

var difficultyGuidelines = map[models.Difficulty]string{
	models.DifficultyBeginner:     "Questions should be basic and straightforward, testing fundamental concepts.",
	models.DifficultyIntermediate: "Questions should be moderately challenging, requiring good understanding of the topic.",
	models.DifficultyAdvanced:     "Questions should be complex and challenging, testing deep knowledge and critical thinking.",
}

type quizFormat struct {
	instructions string
	example      string
}

var quizFormats = map[models.QuizType]quizFormat{
	models.QuizMultipleChoice: {
		instructions: `Generate MULTIPLE CHOICE questions.
Each question must have exactly 4 options labeled with actual answers (NOT A, B, C, D placeholders).
Only ONE option should be correct.

IMPORTANT: Do NOT use "True", "False", "Benar", "Salah", or any true/false variations as options.
This is NOT a True/False quiz. Each option should be a unique, meaningful answer choice.`,
		example: `[
  {
    "id": 1,
    "question": "What is the capital of France?",
    "options": ["Paris", "London", "Berlin", "Madrid"],
    "correctAnswer": "Paris",
    "explanation": "Paris is the capital city of France."
  }
]`,
	},
	models.QuizTrueFalse: {
		instructions: `Generate TRUE/FALSE questions.
Each question should be a STATEMENT that is either true or false.
Options must be exactly ["True", "False"] or the equivalent pair in the topic's language (e.g. ["Benar", "Salah"]).`,
		example: `[
  {
    "id": 1,
    "question": "The Earth is the third planet from the Sun.",
    "options": ["True", "False"],
    "correctAnswer": "True",
    "explanation": "Earth is indeed the third planet from the Sun."
  }
]`,
	},
	models.QuizEssay: {
		instructions: `Generate ESSAY/SHORT ANSWER questions.
These are open-ended questions requiring written responses.
No options needed - the options array should be empty [].
Provide a sampleAnswer instead of correctAnswer.`,
		example: `[
  {
    "id": 1,
    "question": "Explain the key concepts of...?",
    "options": [],
    "correctAnswer": null,
    "sampleAnswer": "A well-structured sample answer explaining the topic...",
    "explanation": "This question tests understanding of..."
  }
]`,
	},
}

// QuizSettings resolves the payload's quiz fields, applying defaults.
func QuizSettings(p Payload) (models.QuizType, models.Difficulty, int) {
	quizType := models.QuizType(strings.TrimSpace(p.QuizType))
	if _, ok := quizFormats[quizType]; !ok {
		quizType = DefaultQuizType
	}
	difficulty := models.Difficulty(strings.ToLower(strings.TrimSpace(p.Difficulty)))
	if difficulty == "" {
		difficulty = DefaultDifficulty
	}
	n := p.NumQuestions
	if n <= 0 {
		n = DefaultNumQuestions
	}
	return quizType, difficulty, n
}

func quiz(p Payload) string {
	quizType, difficulty, n := QuizSettings(p)
	format := quizFormats[quizType]

	guideline, ok := difficultyGuidelines[difficulty]
	if !ok {
		guideline = difficultyGuidelines[models.DifficultyIntermediate]
	}

	var b strings.Builder

	b.WriteString("You are an expert quiz generator.\n\n")
	fmt.Fprintf(&b, "Generate exactly %d quiz questions about %s.\n\n", n, quoted(p.Topic))
	fmt.Fprintf(&b, "QUIZ TYPE: %s\n", strings.ToUpper(string(quizType)))
	fmt.Fprintf(&b, "DIFFICULTY: %s\n\n", strings.ToUpper(string(difficulty)))
	b.WriteString(format.instructions + "\n\n")
	b.WriteString("Difficulty Guidelines:\n")
	b.WriteString(guideline + "\n")

	if custom := strings.TrimSpace(p.CustomInstructions); custom != "" {
		b.WriteString("\nUSER'S CUSTOM INSTRUCTIONS (IMPORTANT - Follow these carefully):\n")
		b.WriteString(p.CustomInstructions + "\n")
	}

	b.WriteString(`
IMPORTANT RULES:
1. Write questions in the SAME language as the Topic.
2. Each question must have a unique "id" starting from 1, numbered sequentially.
3. Questions should be clear and unambiguous.
4. Explanations should be concise but informative.
5. Correct answers must be accurate and verifiable.
6. RANDOMIZE the position of the correct answer! Do NOT always put the correct answer as the first option.
   Mix it up - sometimes put correct answer in position 1, sometimes position 2, 3, or 4.

Return ONLY a valid JSON array. NO markdown formatting.

Example format:
`)
	b.WriteString(format.example + "\n\n")
	fmt.Fprintf(&b, "Generate %d questions now:", n)

	return b.String()
}
