package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/tick"
	"github.com/aretw0/tick/internal/testutils"
	"github.com/aretw0/tick/pkg/adapters/sender"
	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg domain.Configuration, opts ...Option) (*Server, http.Handler) {
	t.Helper()
	eng, err := tick.New(cfg)
	require.NoError(t, err)
	s := NewServer(eng, opts...)
	return s, s.Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestGetHealth(t *testing.T) {
	_, h := newTestServer(t, testutils.GameConfiguration())

	rr := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])
}

func TestGetInfo(t *testing.T) {
	_, h := newTestServer(t, testutils.GameConfiguration(), WithVersion("1.2.3"))

	resp := decode[map[string]string](t, do(t, h, http.MethodGet, "/info", ""))
	assert.Equal(t, "tick-http", resp["app"])
	assert.Equal(t, "1.2.3", resp["version"])
	assert.Equal(t, APIVersion, resp["api_version"])
	assert.Equal(t, "game", resp["story"])
}

func TestConversationLifecycle(t *testing.T) {
	_, h := newTestServer(t, testutils.GameConfiguration())

	rr := do(t, h, http.MethodPost, "/conversations/conv-1/turns", `{"name":"bonjourRobot"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	turn := decode[TurnResponse](t, rr)
	assert.Equal(t, "conv-1", turn.ConversationID)
	assert.False(t, turn.Finished)
	assert.Equal(t, []sender.Message{
		{Kind: sender.KindID, Value: testutils.AnswerBonjour},
		{Kind: sender.KindID, Value: testutils.AnswerVeuxTuJouer},
		{Kind: sender.KindID, Value: testutils.AnswerTicTacToe, End: true},
	}, turn.Messages)
	require.NotNil(t, turn.Session)
	assert.Equal(t, "TIC_TAC_TOE", turn.Session.CurrentState)
	require.NotNil(t, turn.Diff)
	assert.Equal(t, []string{"BONJOUR_HUMAIN", "VEUX_TU_JOUER", "TIC_TAC_TOE"}, turn.Diff.Ran)

	rr = do(t, h, http.MethodGet, "/conversations", "")
	assert.Equal(t, []string{"conv-1"}, decode[map[string][]string](t, rr)["conversations"])

	rr = do(t, h, http.MethodGet, "/conversations/conv-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "TIC_TAC_TOE", decode[domain.Session](t, rr).CurrentState)

	rr = do(t, h, http.MethodPost, "/conversations/conv-1/turns", `{"name":"oui"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[TurnResponse](t, rr).Finished)

	rr = do(t, h, http.MethodDelete, "/conversations/conv-1", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, http.MethodGet, "/conversations/conv-1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rr).Kind)
}

func TestPostTurn_Errors(t *testing.T) {
	_, h := newTestServer(t, testutils.FlatConfiguration())

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{name: "Invalid Body", body: `{`, status: http.StatusBadRequest, kind: "bad_request"},
		{name: "Missing Name", body: `{}`, status: http.StatusBadRequest, kind: "bad_request"},
		{name: "No Transition", body: `{"name":"jump","trigger":true}`, status: http.StatusUnprocessableEntity, kind: "transition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/conversations/conv-1/turns", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, tt.kind, decode[ErrorResponse](t, rr).Kind)
		})
	}
}

func TestPostTurn_Redirect(t *testing.T) {
	cfg := testutils.FlatConfiguration()
	cfg.Actions[1].TargetStory = "billing"
	_, h := newTestServer(t, cfg)

	turn := decode[TurnResponse](t, do(t, h, http.MethodPost, "/conversations/conv-1/turns", `{"name":"save"}`))
	assert.Equal(t, "billing", turn.Redirect)
	assert.Nil(t, turn.Session)
	assert.Nil(t, turn.Diff)
}

func TestGetGraph(t *testing.T) {
	_, h := newTestServer(t, testutils.GameConfiguration())

	rr := do(t, h, http.MethodGet, "/graph", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "graph TD"))

	do(t, h, http.MethodPost, "/conversations/conv-1/turns", `{"name":"bonjourRobot"}`)
	rr = do(t, h, http.MethodGet, "/graph?conversation=conv-1", "")
	assert.Contains(t, rr.Body.String(), "class TIC_TAC_TOE current;")

	rr = do(t, h, http.MethodGet, "/graph?conversation=nobody", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetStory(t *testing.T) {
	_, h := newTestServer(t, testutils.GameConfiguration())

	rr := do(t, h, http.MethodGet, "/story", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "game", decode[domain.Configuration](t, rr).ID)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	m.Turns.WithLabelValues("game", observability.OutcomeOngoing).Inc()

	_, h := newTestServer(t, testutils.GameConfiguration(), WithMetrics(reg))
	rr := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "tick_turns_total")

	_, bare := newTestServer(t, testutils.GameConfiguration())
	assert.Equal(t, http.StatusNotFound, do(t, bare, http.MethodGet, "/metrics", "").Code)
}

func TestSubscribeEvents(t *testing.T) {
	s, h := newTestServer(t, testutils.GameConfiguration())
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?conversation=conv-1", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	// The subscription is registered before the ping is flushed.
	s.Events().Publish(&domain.SessionDiff{ConversationID: "other"})
	do(t, h, http.MethodPost, "/conversations/conv-1/turns", `{"name":"bonjourRobot"}`)

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	var diff domain.SessionDiff
	require.NoError(t, json.Unmarshal([]byte(data), &diff))
	assert.Equal(t, "conv-1", diff.ConversationID)
	assert.NotEmpty(t, diff.Ran)
}

func TestHub(t *testing.T) {
	hub := NewHub()
	all, cancelAll := hub.Subscribe("")
	one, cancelOne := hub.Subscribe("a")

	hub.Publish(&domain.SessionDiff{ConversationID: "a"})
	hub.Publish(&domain.SessionDiff{ConversationID: "b"})

	assert.Len(t, all, 2)
	assert.Len(t, one, 1)

	cancelOne()
	cancelOne()
	_, open := <-drain(one)
	assert.False(t, open)

	// A full subscriber does not block publishers.
	for i := 0; i < subscriberBuffer*2; i++ {
		hub.Publish(&domain.SessionDiff{ConversationID: "a"})
	}
	assert.Len(t, all, subscriberBuffer)

	hub.Close()
	cancelAll()
	late, _ := hub.Subscribe("")
	_, open = <-late
	assert.False(t, open)
}

// drain empties a closed channel and returns it.
func drain(ch <-chan *domain.SessionDiff) <-chan *domain.SessionDiff {
	for len(ch) > 0 {
		<-ch
	}
	return ch
}

func TestPostTurn_Mirror(t *testing.T) {
	mirror := sender.NewRecorder()
	_, h := newTestServer(t, testutils.GameConfiguration(), WithMirror(mirror))

	rr := do(t, h, http.MethodPost, "/conversations/conv-1/turns", `{"name":"bonjourRobot"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	turn := decode[TurnResponse](t, rr)
	assert.Equal(t, turn.Messages, mirror.Messages())
}
