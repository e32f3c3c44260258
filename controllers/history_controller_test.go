package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/koru-backend/models"
	"github.com/vnkhanh/koru-backend/ws"
)

func seedHistory(t *testing.T, a *app, userID string, n int) []*models.HistoryEntry {
	t.Helper()
	out := make([]*models.HistoryEntry, 0, n)
	for i := 0; i < n; i++ {
		query := fmt.Sprintf("topic %d", i)
		e, err := a.history.UpsertHistory(t.Context(), userID, query, []models.Card{{Title: query, Content: "c"}})
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func TestHistoryRequiresUser(t *testing.T) {
	a := newApp(t, false)

	w := do(a.router, http.MethodGet, "/api/history", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH", decode(t, w)["code"])
}

func TestHistoryListNormalizesContent(t *testing.T) {
	a := newApp(t, false)
	entries := seedHistory(t, a, "u1", 3)
	seedHistory(t, a, "u2", 1)

	w := do(a.router, http.MethodPatch, "/api/history/"+entries[0].ID.String()+"/pin", `{"pinned":true}`, user("u1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(a.router, http.MethodGet, "/api/history", "", user("u1"))
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 3)

	first := items[0].(map[string]any)
	assert.Equal(t, "topic 0", first["query"])
	assert.Equal(t, true, first["is_pinned"])
	content := first["content"].(map[string]any)
	assert.Equal(t, "topic 0", content["cleanTopic"])
	assert.Len(t, content["cards"], 1)

	assert.Equal(t, "topic 2", items[1].(map[string]any)["query"])
	assert.Equal(t, "topic 1", items[2].(map[string]any)["query"])
}

func TestHistoryPinLimit(t *testing.T) {
	a := newApp(t, false)
	entries := seedHistory(t, a, "u1", 6)
	for _, e := range entries[:5] {
		w := do(a.router, http.MethodPatch, "/api/history/"+e.ID.String()+"/pin", `{"pinned":true}`, user("u1"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	headers := user("u1")
	headers["Accept-Language"] = "id"
	w := do(a.router, http.MethodPatch, "/api/history/"+entries[5].ID.String()+"/pin", `{"pinned":true}`, headers)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Maksimal 5 item yang bisa disematkan", decode(t, w)["error"])

	w = do(a.router, http.MethodPatch, "/api/history/"+entries[0].ID.String()+"/pin", `{"pinned":false}`, user("u1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["is_pinned"])
}

func TestHistoryPinValidation(t *testing.T) {
	a := newApp(t, false)
	entries := seedHistory(t, a, "u1", 1)

	w := do(a.router, http.MethodPatch, "/api/history/not-a-uuid/pin", `{"pinned":true}`, user("u1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(a.router, http.MethodPatch, "/api/history/"+entries[0].ID.String()+"/pin", `{}`, user("u1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(a.router, http.MethodPatch, "/api/history/"+uuid.NewString()+"/pin", `{"pinned":true}`, user("u1"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(a.router, http.MethodPatch, "/api/history/"+entries[0].ID.String()+"/pin", `{"pinned":true}`, user("u2"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryDeletePublishesEvent(t *testing.T) {
	a := newApp(t, false)
	entries := seedHistory(t, a, "u1", 2)
	id := entries[1].ID.String()

	w := do(a.router, http.MethodDelete, "/api/history/"+id, "", user("u1"))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(a.router, http.MethodDelete, "/api/history/"+id, "", user("u1"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Len(t, a.events.events, 1)
	assert.Equal(t, publishedEvent{userID: "u1", event: ws.HistoryEvent{Type: ws.EventDelete, ID: id}}, a.events.events[0])

	w = do(a.router, http.MethodGet, "/api/history", "", user("u1"))
	assert.Len(t, decode(t, w)["items"], 1)
}
