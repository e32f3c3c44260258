package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizType string

const (
	QuizMultipleChoice QuizType = "multiple-choice"
	QuizTrueFalse      QuizType = "true-false"
	QuizEssay          QuizType = "essay"
)

// Label is the human readable name stored on saved quizzes.
func (t QuizType) Label() string {
	switch t {
	case QuizTrueFalse:
		return "True/False"
	case QuizEssay:
		return "Essay"
	default:
		return "Multiple Choice"
	}
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Label capitalises the level, e.g. "intermediate" -> "Intermediate".
func (d Difficulty) Label() string {
	s := string(d)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type QuizMode string

const (
	QuizModeStep QuizMode = "step"
	QuizModeFull QuizMode = "full"
)

const (
	QuizStatusCreated   = "created"
	QuizStatusCompleted = "completed"
)

// QuizQuestion covers all three quiz types. Essay questions carry an empty
// Options list, a nil CorrectAnswer and a SampleAnswer.
type QuizQuestion struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *string  `json:"correctAnswer"`
	SampleAnswer  string   `json:"sampleAnswer,omitempty"`
	Explanation   string   `json:"explanation"`
}

// Quiz is a generated question set owned by a user.
type Quiz struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string         `gorm:"size:64;not null;index" json:"user_id"`
	Topic          string         `gorm:"type:text;not null" json:"topic"`
	Type           string         `gorm:"size:32" json:"type"`
	Difficulty     string         `gorm:"size:32" json:"difficulty"`
	Mode           string         `gorm:"size:16" json:"mode"`
	NumQuestions   int            `json:"num_questions"`
	Questions      datatypes.JSON `json:"questions"`
	Status         string         `gorm:"size:20;default:'created'" json:"status"`
	Score          *int           `json:"score"`
	TotalQuestions *int           `json:"total_questions"`
	Answers        datatypes.JSON `json:"answers"`
	Completed      bool           `gorm:"default:false" json:"completed"`
	CompletedAt    *time.Time     `json:"completed_at"`
	ShareURL       string         `gorm:"type:text" json:"share_url,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QuizResult is what the client sends when a quiz is finished.
type QuizResult struct {
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	Answers        datatypes.JSON `json:"answers"`
}
