package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/models"
)

type QuizRepo struct {
	db  *gorm.DB
	log *logger.Logger
	now Clock
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) *QuizRepo {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &QuizRepo{db: db, log: baseLog.With("repo", "QuizRepo"), now: utcNow}
}

func (r *QuizRepo) WithClock(now Clock) *QuizRepo {
	r.now = now
	return r
}

// QuizPatch lists the fields a client may change on a saved quiz. Nil
// fields are left alone.
type QuizPatch struct {
	Topic     *string         `json:"topic"`
	Mode      *string         `json:"mode"`
	Questions *datatypes.JSON `json:"questions"`
	Answers   *datatypes.JSON `json:"answers"`
	Status    *string         `json:"status"`
}

func (p QuizPatch) updates() map[string]any {
	m := map[string]any{}
	if p.Topic != nil {
		m["topic"] = *p.Topic
	}
	if p.Mode != nil {
		m["mode"] = *p.Mode
	}
	if p.Questions != nil {
		m["questions"] = *p.Questions
	}
	if p.Answers != nil {
		m["answers"] = *p.Answers
	}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	return m
}

func (r *QuizRepo) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	now := r.now()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	quiz.UpdatedAt = now
	if quiz.Status == "" {
		quiz.Status = models.QuizStatusCreated
	}
	return r.db.WithContext(ctx).Create(quiz).Error
}

// ListQuizzes returns the user's quizzes, most recently updated first.
func (r *QuizRepo) ListQuizzes(ctx context.Context, userID string) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *QuizRepo) GetQuiz(ctx context.Context, userID string, id uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepo) UpdateQuiz(ctx context.Context, userID string, id uuid.UUID, patch QuizPatch) (*models.Quiz, error) {
	return r.update(ctx, userID, id, patch.updates())
}

// RecordQuizResult stores a finished attempt and marks the quiz completed.
func (r *QuizRepo) RecordQuizResult(ctx context.Context, quizID uuid.UUID, userID string, result models.QuizResult) (*models.Quiz, error) {
	now := r.now()
	answers := result.Answers
	if answers == nil {
		answers = datatypes.JSON("{}")
	}
	return r.update(ctx, userID, quizID, map[string]any{
		"score":           result.Score,
		"total_questions": result.TotalQuestions,
		"answers":         answers,
		"completed":       true,
		"completed_at":    now,
		"status":          models.QuizStatusCompleted,
	})
}

func (r *QuizRepo) SetQuizShareURL(ctx context.Context, userID string, id uuid.UUID, url string) (*models.Quiz, error) {
	return r.update(ctx, userID, id, map[string]any{"share_url": url})
}

func (r *QuizRepo) DeleteQuiz(ctx context.Context, userID string, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&models.Quiz{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *QuizRepo) update(ctx context.Context, userID string, id uuid.UUID, fields map[string]any) (*models.Quiz, error) {
	fields["updated_at"] = r.now()

	res := r.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetQuiz(ctx, userID, id)
}
