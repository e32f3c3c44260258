package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gosimple/slug"
	storage "github.com/supabase-community/storage-go"

	"github.com/vnkhanh/koru-backend/models"
)

const SharedQuizBucket = "quizzes"

var ErrStorageDisabled = errors.New("storage is not configured")

// ObjectStore is the part of the storage client the exporter needs.
type ObjectStore interface {
	UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage.FileOptions) (storage.FileUploadResponse, error)
	RemoveFile(bucketId string, paths []string) ([]storage.FileUploadResponse, error)
}

// NewStorageClient returns nil when the project URL or key is missing.
func NewStorageClient(supabaseURL, serviceKey string) *storage.Client {
	if supabaseURL == "" || serviceKey == "" {
		return nil
	}
	return storage.NewClient(strings.TrimRight(supabaseURL, "/")+"/storage/v1", serviceKey, nil)
}

// QuizExporter publishes quizzes as JSON documents in Supabase Storage so
// they can be shared by link.
type QuizExporter struct {
	store   ObjectStore
	baseURL string
	bucket  string
}

func NewQuizExporter(store ObjectStore, supabaseURL string) *QuizExporter {
	return &QuizExporter{store: store, baseURL: strings.TrimRight(supabaseURL, "/"), bucket: SharedQuizBucket}
}

func (e *QuizExporter) Enabled() bool { return e != nil && e.store != nil }

type sharedQuiz struct {
	Topic      string          `json:"topic"`
	Type       string          `json:"type"`
	Difficulty string          `json:"difficulty"`
	Questions  json.RawMessage `json:"questions"`
}

// ObjectPath is shared/<topic slug>-<quiz id>.json.
func ObjectPath(quiz *models.Quiz) string {
	s := slug.Make(quiz.Topic)
	if s == "" {
		s = "quiz"
	}
	return fmt.Sprintf("shared/%s-%s.json", s, quiz.ID)
}

// PublicURL is the unauthenticated download link for objectPath.
func (e *QuizExporter) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", e.baseURL, e.bucket, objectPath)
}

// sharedPath recovers the object path from a URL made by PublicURL. The
// topic may have changed after sharing, so the stored link is what records
// where the export lives.
func (e *QuizExporter) sharedPath(shareURL string) (string, bool) {
	marker := "/storage/v1/object/public/" + e.bucket + "/"
	i := strings.Index(shareURL, marker)
	if i < 0 {
		return "", false
	}
	p := shareURL[i+len(marker):]
	return p, p != ""
}

// Export uploads the quiz, replacing any earlier export, and returns its
// public URL. An earlier export under another path is removed once the new
// one is in place.
func (e *QuizExporter) Export(quiz *models.Quiz) (string, error) {
	if !e.Enabled() {
		return "", ErrStorageDisabled
	}
	questions := json.RawMessage(quiz.Questions)
	if len(questions) == 0 {
		questions = json.RawMessage("[]")
	}
	body, err := json.Marshal(sharedQuiz{
		Topic:      quiz.Topic,
		Type:       quiz.Type,
		Difficulty: quiz.Difficulty,
		Questions:  questions,
	})
	if err != nil {
		return "", err
	}

	objectPath := ObjectPath(quiz)
	contentType := "application/json"
	upsert := true
	if _, err := e.store.UploadFile(e.bucket, objectPath, bytes.NewReader(body), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}); err != nil {
		return "", fmt.Errorf("upload shared quiz: %w", err)
	}
	if old, ok := e.sharedPath(quiz.ShareURL); ok && old != objectPath {
		if _, err := e.store.RemoveFile(e.bucket, []string{old}); err != nil {
			return "", fmt.Errorf("remove previous shared quiz: %w", err)
		}
	}
	return e.PublicURL(objectPath), nil
}

// Remove deletes the quiz's export, if it was ever shared.
func (e *QuizExporter) Remove(quiz *models.Quiz) error {
	if !e.Enabled() || quiz.ShareURL == "" {
		return nil
	}
	objectPath, ok := e.sharedPath(quiz.ShareURL)
	if !ok {
		return fmt.Errorf("remove shared quiz: unrecognized share url %q", quiz.ShareURL)
	}
	if _, err := e.store.RemoveFile(e.bucket, []string{objectPath}); err != nil {
		return fmt.Errorf("remove shared quiz: %w", err)
	}
	return nil
}
