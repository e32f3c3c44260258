package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/vnkhanh/koru-backend/apperr"
	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/models"
	"github.com/vnkhanh/koru-backend/parser"
	"github.com/vnkhanh/koru-backend/prompts"
	"github.com/vnkhanh/koru-backend/repository"
	"github.com/vnkhanh/koru-backend/ws"
)

const (
	MinQuizQuestions = 5
	MaxQuizQuestions = 50
)

var ErrEmptyTopic = errors.New("topic is required")

type HistoryStore interface {
	FindHistoryByQuery(ctx context.Context, userID, query string) (*models.HistoryEntry, error)
	UpsertHistory(ctx context.Context, userID, query string, content any) (*models.HistoryEntry, error)
	TrimHistory(ctx context.Context, userID string, maxKept int) (int64, error)
}

type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz *models.Quiz) error
}

type ExplanationCache interface {
	GetExplanation(ctx context.Context, guestID, query string) (models.ExplanationResult, bool, error)
	SetExplanation(ctx context.Context, guestID, query string, res models.ExplanationResult) error
}

// TrialConsumer spends a guest's free generation. It reports false when
// the trial was already used.
type TrialConsumer interface {
	Consume(ctx context.Context, guestID string) (bool, error)
}

type HistoryPublisher interface {
	PublishHistory(userID string, ev ws.HistoryEvent)
}

// Viewer is who a request runs for: a signed-in user or a guest.
type Viewer struct {
	UserID  string
	GuestID string
}

func (v Viewer) Authenticated() bool { return v.UserID != "" }

// Explanation is an explanation plus where it came from.
type Explanation struct {
	models.ExplanationResult
	HistoryID   string `json:"historyId,omitempty"`
	FromHistory bool   `json:"fromHistory"`
	Fallback    bool   `json:"fallback"`
}

type QuizRequest struct {
	Topic              string `json:"topic"`
	QuizType           string `json:"quizType"`
	Difficulty         string `json:"difficulty"`
	NumQuestions       int    `json:"numQuestions"`
	CustomInstructions string `json:"customInstructions"`
	Mode               string `json:"mode"`
}

// GeneratedQuiz is returned for every generation. ID is the stored quiz id,
// or a transient "ai-<millis>" id when the quiz was not saved.
type GeneratedQuiz struct {
	ID           string                `json:"id"`
	Saved        bool                  `json:"saved"`
	Topic        string                `json:"topic"`
	Type         string                `json:"type"`
	Difficulty   string                `json:"difficulty"`
	Mode         string                `json:"mode"`
	NumQuestions int                   `json:"numQuestions"`
	Questions    []models.QuizQuestion `json:"questions"`
	Fallback     bool                  `json:"fallback"`
}

// LearningService runs the generate-parse-persist flows behind the API.
type LearningService struct {
	gen     TextGenerator
	parser  *parser.Parser
	history HistoryStore
	quizzes QuizStore
	guests  ExplanationCache
	trial   TrialConsumer
	events  HistoryPublisher
	log     *logger.Logger
	now     func() time.Time
}

type LearningDeps struct {
	Generator TextGenerator
	Parser    *parser.Parser
	History   HistoryStore
	Quizzes   QuizStore
	Guests    ExplanationCache
	Trial     TrialConsumer
	Events    HistoryPublisher
	Log       *logger.Logger
	Now       func() time.Time
}

func NewLearningService(d LearningDeps) *LearningService {
	s := &LearningService{
		gen:     d.Generator,
		parser:  d.Parser,
		history: d.History,
		quizzes: d.Quizzes,
		guests:  d.Guests,
		trial:   d.Trial,
		events:  d.Events,
		log:     d.Log,
		now:     d.Now,
	}
	if s.parser == nil {
		s.parser = parser.New()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.With("service", "LearningService")
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func validationErr(op string, err error) error {
	return &apperr.Error{Kind: apperr.Validation, Op: op, Err: err}
}

// Explain returns the explanation for topic. Signed-in users read and
// write their history; guests use the short-lived guest cache and spend
// their trial only when the cache misses. Storage failures are logged and
// never fail the request.
func (s *LearningService) Explain(ctx context.Context, viewer Viewer, topic string) (*Explanation, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, validationErr("learning.explain", ErrEmptyTopic)
	}

	if cached, ok := s.lookupExplanation(ctx, viewer, topic); ok {
		return cached, nil
	}
	if err := s.consumeTrial(ctx, viewer); err != nil {
		return nil, err
	}

	raw, err := s.gen.Generate(ctx, prompts.ActionExplanation, prompts.Payload{Topic: topic})
	if err != nil {
		return nil, err
	}
	res := s.parser.Explanation(raw, topic)
	out := &Explanation{ExplanationResult: res.Value, Fallback: res.Fallback}

	if viewer.Authenticated() {
		if id, ok := s.saveHistory(ctx, viewer.UserID, topic, res.Value); ok {
			out.HistoryID = id
		}
	} else if s.guests != nil && viewer.GuestID != "" {
		if err := s.guests.SetExplanation(ctx, viewer.GuestID, topic, res.Value); err != nil {
			s.log.Warn("guest cache write failed", "guest_id", viewer.GuestID, "error", err)
		}
	}
	return out, nil
}

func (s *LearningService) lookupExplanation(ctx context.Context, viewer Viewer, topic string) (*Explanation, bool) {
	if viewer.Authenticated() {
		if s.history == nil {
			return nil, false
		}
		entry, err := s.history.FindHistoryByQuery(ctx, viewer.UserID, topic)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				s.log.Warn("history lookup failed", "user_id", viewer.UserID, "error", err)
			}
			return nil, false
		}
		return &Explanation{
			ExplanationResult: s.parser.HistoryContent(json.RawMessage(entry.Content), topic),
			HistoryID:         entry.ID.String(),
			FromHistory:       true,
		}, true
	}

	if s.guests == nil || viewer.GuestID == "" {
		return nil, false
	}
	res, ok, err := s.guests.GetExplanation(ctx, viewer.GuestID, topic)
	if err != nil {
		s.log.Warn("guest cache read failed", "guest_id", viewer.GuestID, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &Explanation{ExplanationResult: res, FromHistory: true}, true
}

// consumeTrial fails open: a limiter error lets the guest through.
func (s *LearningService) consumeTrial(ctx context.Context, viewer Viewer) error {
	if viewer.Authenticated() || s.trial == nil {
		return nil
	}
	ok, err := s.trial.Consume(ctx, viewer.GuestID)
	if err != nil {
		s.log.Warn("guest trial check failed", "guest_id", viewer.GuestID, "error", err)
		return nil
	}
	if !ok {
		return apperr.GuestTrialError("learning.explain")
	}
	return nil
}

// saveHistory upserts then trims. The two steps are independent writes.
func (s *LearningService) saveHistory(ctx context.Context, userID, topic string, res models.ExplanationResult) (string, bool) {
	if s.history == nil {
		return "", false
	}
	entry, err := s.history.UpsertHistory(ctx, userID, topic, res)
	if err != nil {
		s.log.Error("save history failed", "user_id", userID, "error", err)
		return "", false
	}
	if _, err := s.history.TrimHistory(ctx, userID, repository.MaxHistoryKept); err != nil {
		s.log.Error("trim history failed", "user_id", userID, "error", err)
	}
	if s.events != nil {
		s.events.PublishHistory(userID, ws.HistoryEvent{Type: ws.EventUpdate, ID: entry.ID.String(), Query: topic})
	}
	return entry.ID.String(), true
}

// Clarify answers a follow-up question about topic with one to three cards.
func (s *LearningService) Clarify(ctx context.Context, topic, confusion string) ([]models.Card, error) {
	if strings.TrimSpace(confusion) == "" {
		return nil, validationErr("learning.clarify", errors.New("confusion is required"))
	}
	raw, err := s.gen.Generate(ctx, prompts.ActionClarification, prompts.Payload{Topic: topic, Confusion: confusion})
	if err != nil {
		return nil, err
	}
	return s.parser.Clarification(raw).Value, nil
}

// QuizFeedback returns an encouraging message for a finished quiz. When the
// model output is unusable a plain score summary is returned instead.
func (s *LearningService) QuizFeedback(ctx context.Context, topic string, correct, total int) (string, error) {
	if total <= 0 || correct < 0 || correct > total {
		return "", validationErr("learning.feedback", fmt.Errorf("invalid score %d/%d", correct, total))
	}
	raw, err := s.gen.Generate(ctx, prompts.ActionQuizFeedback, prompts.Payload{Topic: topic, Correct: correct, Total: total})
	if err != nil {
		return "", err
	}
	fallback := fmt.Sprintf("You answered %d out of %d correctly. Keep learning!", correct, total)
	return s.parser.Feedback(raw, fallback).Value, nil
}

// RefineTitle never fails: any error yields topic unchanged.
func (s *LearningService) RefineTitle(ctx context.Context, topic string) string {
	if strings.TrimSpace(topic) == "" {
		return topic
	}
	raw, err := s.gen.Generate(ctx, prompts.ActionRefineTitle, prompts.Payload{Topic: topic})
	if err != nil {
		s.log.Warn("refine title failed, keeping original", "error", err)
		return topic
	}
	return s.parser.RefinedTitle(raw, topic).Value
}

// ClampQuestions keeps a requested question count within the allowed range.
func ClampQuestions(n int) int {
	switch {
	case n <= 0:
		return prompts.DefaultNumQuestions
	case n < MinQuizQuestions:
		return MinQuizQuestions
	case n > MaxQuizQuestions:
		return MaxQuizQuestions
	}
	return n
}

// GenerateQuiz builds a quiz and, for signed-in users, saves it. A failed
// save is logged and the quiz is still returned under a transient id.
func (s *LearningService) GenerateQuiz(ctx context.Context, viewer Viewer, req QuizRequest) (*GeneratedQuiz, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, validationErr("learning.quiz", ErrEmptyTopic)
	}

	payload := prompts.Payload{
		Topic:              topic,
		QuizType:           req.QuizType,
		Difficulty:         req.Difficulty,
		NumQuestions:       ClampQuestions(req.NumQuestions),
		CustomInstructions: req.CustomInstructions,
	}
	quizType, difficulty, n := prompts.QuizSettings(payload)
	payload.QuizType, payload.Difficulty, payload.NumQuestions = string(quizType), string(difficulty), n

	raw, err := s.gen.Generate(ctx, prompts.ActionQuiz, payload)
	if err != nil {
		return nil, err
	}
	res := s.parser.Quiz(raw, topic)

	mode := models.QuizMode(req.Mode)
	if mode != models.QuizModeFull {
		mode = models.QuizModeStep
	}
	out := &GeneratedQuiz{
		ID:           fmt.Sprintf("ai-%d", s.now().UnixMilli()),
		Topic:        topic,
		Type:         quizType.Label(),
		Difficulty:   difficulty.Label(),
		Mode:         string(mode),
		NumQuestions: len(res.Value),
		Questions:    res.Value,
		Fallback:     res.Fallback,
	}

	if viewer.Authenticated() && s.quizzes != nil {
		if id, err := s.saveQuiz(ctx, viewer.UserID, out); err != nil {
			s.log.Error("save quiz failed", "user_id", viewer.UserID, "error", err)
		} else {
			out.ID, out.Saved = id.String(), true
		}
	}
	return out, nil
}

func (s *LearningService) saveQuiz(ctx context.Context, userID string, q *GeneratedQuiz) (uuid.UUID, error) {
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return uuid.Nil, err
	}
	quiz := &models.Quiz{
		UserID:       userID,
		Topic:        q.Topic,
		Type:         q.Type,
		Difficulty:   q.Difficulty,
		Mode:         q.Mode,
		NumQuestions: q.NumQuestions,
		Questions:    datatypes.JSON(questions),
		Status:       models.QuizStatusCreated,
	}
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return uuid.Nil, err
	}
	return quiz.ID, nil
}
