package controllers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/vnkhanh/koru-backend/models"
)

func seedQuiz(t *testing.T, a *app, userID, topic string) string {
	t.Helper()
	quiz := &models.Quiz{
		UserID:       userID,
		Topic:        topic,
		Type:         models.QuizMultipleChoice.Label(),
		Difficulty:   models.DifficultyBeginner.Label(),
		Mode:         string(models.QuizModeStep),
		NumQuestions: 1,
		Questions:    datatypes.JSON(`[{"id":1,"question":"Q?","options":["a","b"],"correctAnswer":"a","explanation":""}]`),
	}
	require.NoError(t, a.quizzes.CreateQuiz(t.Context(), quiz))
	return quiz.ID.String()
}

func TestQuizListIsScopedToUser(t *testing.T) {
	a := newApp(t, false)
	seedQuiz(t, a, "u1", "Algebra")
	seedQuiz(t, a, "u1", "Biology")
	seedQuiz(t, a, "u2", "Chemistry")

	w := do(a.router, http.MethodGet, "/api/quizzes", "", user("u1"))

	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Biology", items[0].(map[string]any)["topic"])
}

func TestQuizUpdate(t *testing.T) {
	a := newApp(t, false)
	id := seedQuiz(t, a, "u1", "Algebra")

	w := do(a.router, http.MethodPatch, "/api/quizzes/"+id, `{"topic":"Linear Algebra","mode":"full"}`, user("u1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Linear Algebra", body["topic"])
	assert.Equal(t, "full", body["mode"])

	w = do(a.router, http.MethodPatch, "/api/quizzes/"+id, `{"mode":"sideways"}`, user("u1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(a.router, http.MethodPatch, "/api/quizzes/"+id, `{"topic":"Mine now"}`, user("u2"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuizRecordResult(t *testing.T) {
	a := newApp(t, false)
	id := seedQuiz(t, a, "u1", "Algebra")

	w := do(a.router, http.MethodPost, "/api/quizzes/"+id+"/result", `{"score":6,"totalQuestions":5}`, user("u1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(a.router, http.MethodPost, "/api/quizzes/"+id+"/result", `{"score":4,"totalQuestions":5,"answers":{"1":"a"}}`, user("u1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.EqualValues(t, 4, body["score"])
	assert.EqualValues(t, 5, body["total_questions"])
	assert.Equal(t, true, body["completed"])
	assert.Equal(t, models.QuizStatusCompleted, body["status"])
}

func TestQuizShare(t *testing.T) {
	a := newApp(t, true)
	id := seedQuiz(t, a, "u1", "Sejarah Majapahit")

	w := do(a.router, http.MethodPost, "/api/quizzes/"+id+"/share", "", user("u1"))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	want := "https://proj.supabase.co/storage/v1/object/public/quizzes/shared/sejarah-majapahit-" + id + ".json"
	body := decode(t, w)
	assert.Equal(t, want, body["shareUrl"])
	assert.Equal(t, want, body["quiz"].(map[string]any)["share_url"])
	assert.Equal(t, []string{"shared/sejarah-majapahit-" + id + ".json"}, a.store.paths)
}

func TestQuizShareFailures(t *testing.T) {
	disabled := newApp(t, false)
	id := seedQuiz(t, disabled, "u1", "Algebra")
	w := do(disabled.router, http.MethodPost, "/api/quizzes/"+id+"/share", "", user("u1"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	broken := newApp(t, true)
	broken.store.err = errors.New("bucket missing")
	id = seedQuiz(t, broken, "u1", "Algebra")
	w = do(broken.router, http.MethodPost, "/api/quizzes/"+id+"/share", "", user("u1"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "API", decode(t, w)["code"])
}

func TestQuizDeleteRemovesExport(t *testing.T) {
	a := newApp(t, true)
	id := seedQuiz(t, a, "u1", "Algebra")
	w := do(a.router, http.MethodPost, "/api/quizzes/"+id+"/share", "", user("u1"))
	require.Equal(t, http.StatusOK, w.Code)

	w = do(a.router, http.MethodDelete, "/api/quizzes/"+id, "", user("u2"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(a.router, http.MethodDelete, "/api/quizzes/"+id, "", user("u1"))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"shared/algebra-" + id + ".json"}, a.store.removed)

	w = do(a.router, http.MethodGet, "/api/quizzes/"+id, "", user("u1"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuizDeleteAfterRenameRemovesSharedFile(t *testing.T) {
	a := newApp(t, true)
	id := seedQuiz(t, a, "u1", "Sejarah Kerajaan Majapahit")
	w := do(a.router, http.MethodPost, "/api/quizzes/"+id+"/share", "", user("u1"))
	require.Equal(t, http.StatusOK, w.Code)

	w = do(a.router, http.MethodPatch, "/api/quizzes/"+id, `{"topic":"Renamed Topic"}`, user("u1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(a.router, http.MethodDelete, "/api/quizzes/"+id, "", user("u1"))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"shared/sejarah-kerajaan-majapahit-" + id + ".json"}, a.store.removed)
}
