package utils

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	storage "github.com/supabase-community/storage-go"
	"gorm.io/datatypes"

	"github.com/vnkhanh/koru-backend/models"
)

type fakeStore struct {
	bucket  string
	path    string
	body    []byte
	opts    storage.FileOptions
	removed []string
	err     error
}

func (f *fakeStore) UploadFile(bucket, path string, data io.Reader, opts ...storage.FileOptions) (storage.FileUploadResponse, error) {
	if f.err != nil {
		return storage.FileUploadResponse{}, f.err
	}
	f.bucket, f.path = bucket, path
	f.body, _ = io.ReadAll(data)
	if len(opts) > 0 {
		f.opts = opts[0]
	}
	return storage.FileUploadResponse{}, nil
}

func (f *fakeStore) RemoveFile(bucket string, paths []string) ([]storage.FileUploadResponse, error) {
	f.bucket = bucket
	f.removed = append(f.removed, paths...)
	return nil, nil
}

func testQuiz() *models.Quiz {
	return &models.Quiz{
		ID:         uuid.MustParse("5f0c8a5e-6a43-4c57-9d38-2f4a1f1f3c11"),
		Topic:      "Sejarah Kerajaan Majapahit!",
		Type:       "Multiple Choice",
		Difficulty: "Beginner",
		Questions:  datatypes.JSON(`[{"id":1,"question":"Q"}]`),
	}
}

func TestObjectPath(t *testing.T) {
	q := testQuiz()
	assert.Equal(t, "shared/sejarah-kerajaan-majapahit-5f0c8a5e-6a43-4c57-9d38-2f4a1f1f3c11.json", ObjectPath(q))

	q.Topic = "!!!"
	assert.Equal(t, "shared/quiz-5f0c8a5e-6a43-4c57-9d38-2f4a1f1f3c11.json", ObjectPath(q))
}

func TestExportUploadsJSON(t *testing.T) {
	store := &fakeStore{}
	e := NewQuizExporter(store, "https://proj.supabase.co/")

	url, err := e.Export(testQuiz())
	require.NoError(t, err)

	assert.Equal(t, SharedQuizBucket, store.bucket)
	assert.Equal(t, ObjectPath(testQuiz()), store.path)
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/public/quizzes/"+store.path, url)
	require.NotNil(t, store.opts.Upsert)
	assert.True(t, *store.opts.Upsert)
	assert.Equal(t, "application/json", *store.opts.ContentType)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(store.body, &doc))
	assert.Equal(t, "Sejarah Kerajaan Majapahit!", doc["topic"])
	assert.Len(t, doc["questions"], 1)
}

func TestExportErrors(t *testing.T) {
	_, err := NewQuizExporter(nil, "https://x").Export(testQuiz())
	assert.ErrorIs(t, err, ErrStorageDisabled)

	boom := errors.New("bucket missing")
	_, err = NewQuizExporter(&fakeStore{err: boom}, "https://x").Export(testQuiz())
	assert.ErrorIs(t, err, boom)
}

func TestRemoveOnlySharedQuizzes(t *testing.T) {
	store := &fakeStore{}
	e := NewQuizExporter(store, "https://x")

	q := testQuiz()
	require.NoError(t, e.Remove(q))
	assert.Empty(t, store.removed)

	q.ShareURL = "https://x/storage/v1/object/public/quizzes/" + ObjectPath(q)
	require.NoError(t, e.Remove(q))
	assert.Equal(t, []string{ObjectPath(q)}, store.removed)
}

func TestRemoveAfterRenameUsesUploadedPath(t *testing.T) {
	store := &fakeStore{}
	e := NewQuizExporter(store, "https://proj.supabase.co")

	q := testQuiz()
	url, err := e.Export(q)
	require.NoError(t, err)
	uploaded := store.path
	q.ShareURL = url

	q.Topic = "Renamed Topic"
	require.NoError(t, e.Remove(q))
	assert.Equal(t, []string{uploaded}, store.removed)
}

func TestReshareAfterRenameDropsOldExport(t *testing.T) {
	store := &fakeStore{}
	e := NewQuizExporter(store, "https://proj.supabase.co")

	q := testQuiz()
	url, err := e.Export(q)
	require.NoError(t, err)
	first := store.path
	q.ShareURL = url

	// same topic: upsert in place, nothing to clean up
	_, err = e.Export(q)
	require.NoError(t, err)
	assert.Empty(t, store.removed)

	q.Topic = "Renamed Topic"
	url, err = e.Export(q)
	require.NoError(t, err)
	assert.Equal(t, "shared/renamed-topic-5f0c8a5e-6a43-4c57-9d38-2f4a1f1f3c11.json", store.path)
	assert.Equal(t, []string{first}, store.removed)
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/public/quizzes/"+store.path, url)
}

func TestRemoveRejectsForeignURL(t *testing.T) {
	store := &fakeStore{}
	q := testQuiz()
	q.ShareURL = "https://elsewhere.example/quiz.json"

	assert.Error(t, NewQuizExporter(store, "https://x").Remove(q))
	assert.Empty(t, store.removed)
}
