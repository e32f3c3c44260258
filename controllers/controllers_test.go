package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/koru-backend/middleware"
	"github.com/vnkhanh/koru-backend/prompts"
	"github.com/vnkhanh/koru-backend/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const headerTestUser = "X-Test-User"

// asUser stands in for the auth middleware: the user id comes straight
// from a test header.
func asUser(c *gin.Context) {
	if id := c.GetHeader(headerTestUser); id != "" {
		c.Set(middleware.CtxUserID, id)
	}
	c.Next()
}

// scriptedGateway replays queued model replies in order.
type scriptedGateway struct {
	mu         sync.Mutex
	configured bool
	replies    []string
	errs       []error
	actions    []prompts.Action
}

func newGateway() *scriptedGateway { return &scriptedGateway{configured: true} }

func (g *scriptedGateway) reply(text string, err error) *scriptedGateway {
	g.replies = append(g.replies, text)
	g.errs = append(g.errs, err)
	return g
}

func (g *scriptedGateway) Configured() bool { return g.configured }

func (g *scriptedGateway) Generate(_ context.Context, action prompts.Action, _ prompts.Payload) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.actions = append(g.actions, action)
	if len(g.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	text, err := g.replies[0], g.errs[0]
	g.replies, g.errs = g.replies[1:], g.errs[1:]
	return text, err
}

type publishedEvent struct {
	userID string
	event  ws.HistoryEvent
}

type eventLog struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (l *eventLog) PublishHistory(userID string, ev ws.HistoryEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, publishedEvent{userID, ev})
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func user(id string) map[string]string {
	return map[string]string{headerTestUser: id}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
