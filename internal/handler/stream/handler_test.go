package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaigi-sim/backend/internal/analysis/roledisplay"
	"github.com/kaigi-sim/backend/internal/model/meeting"
	"github.com/kaigi-sim/backend/internal/model/role"
	simulationService "github.com/kaigi-sim/backend/internal/service/simulation"
)

type fakeSessions map[string]simulationService.Session

func (f fakeSessions) GetSession(_ context.Context, id string) (simulationService.Session, error) {
	s, ok := f[id]
	if !ok {
		return simulationService.Session{}, simulationService.ErrSessionNotFound
	}
	return s, nil
}

func testSessions() fakeSessions {
	first := []meeting.Utterance{{Speaker: "田中", Role: "就労選択支援員", Text: "開会します"}}
	second := []meeting.Utterance{
		{Speaker: "田中", Role: "就労選択支援員", Text: "報告です"},
		{Speaker: "本人", Text: "はい"},
	}
	state := simulationService.SessionState{
		Phase:       simulationService.PhaseStepComplete,
		CurrentStep: 2,
		Utterances:  append(append([]meeting.Utterance{}, first...), second...),
		Completed: []simulationService.CompletedStep{
			{StepID: 1, Utterances: 1},
			{StepID: 2, Utterances: 2},
		},
	}
	step2, _ := meeting.StepByID(2)
	return fakeSessions{
		"abc": {
			ID:       "abc",
			State:    state,
			LastStep: &simulationService.StepResult{Step: step2, Utterances: second},
		},
		"fresh": {ID: "fresh", State: simulationService.SessionState{Phase: simulationService.PhaseIdle}},
	}
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler := New(testSessions(), roledisplay.FromStore(role.NewMemoryStore(role.Seed())), 0)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func readEvents(t *testing.T, url string) []Event {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	var events []Event
	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read event: %v", err)
		}
		events = append(events, ev)
		if ev.Type == EventDone {
			return events
		}
	}
}

func wsURL(server *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + path
}

func TestWebSocketStreamsLastStep(t *testing.T) {
	server := setupServer(t)
	events := readEvents(t, wsURL(server, "/sessions/abc/ws"))

	require.NotEmpty(t, events)
	start := events[0]
	assert.Equal(t, EventUtteranceStart, start.Type)
	assert.Equal(t, 2, start.Step)
	assert.Equal(t, "田中", start.Speaker)
	assert.Equal(t, "🧭", start.Icon)
	assert.Equal(t, "選択支援", start.ShortLabel)

	var deltas []string
	var ends []Event
	for _, ev := range events {
		switch ev.Type {
		case EventDelta:
			if ev.Index == 0 {
				deltas = append(deltas, ev.Delta)
			}
		case EventUtteranceEnd:
			ends = append(ends, ev)
		}
	}
	assert.Equal(t, []string{"報", "告", "で", "す"}, deltas)
	require.Len(t, ends, 2)
	assert.Equal(t, "はい", ends[1].Text)

	done := events[len(events)-1]
	assert.Equal(t, 2, done.Count)
}

func TestWebSocketStreamsRequestedStep(t *testing.T) {
	server := setupServer(t)
	events := readEvents(t, wsURL(server, "/sessions/abc/ws?step=1"))

	done := events[len(events)-1]
	assert.Equal(t, 1, done.Count)
	assert.Equal(t, "開会します", events[len(events)-2].Text)
}

func TestWebSocketWithoutSteps(t *testing.T) {
	server := setupServer(t)
	events := readEvents(t, wsURL(server, "/sessions/fresh/ws"))

	require.Len(t, events, 1)
	assert.Equal(t, EventDone, events[0].Type)
	assert.Equal(t, 0, events[0].Count)
}

func TestWebSocketUnknownSession(t *testing.T) {
	server := setupServer(t)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "/sessions/missing/ws"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSSETyping(t *testing.T) {
	handler := New(testSessions(), roledisplay.FromStore(role.NewMemoryStore(role.Seed())), 0)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/abc/typing", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))
	body := resp.Body.String()
	assert.Contains(t, body, "event: utterance_start\n")
	assert.Contains(t, body, `"speaker":"本人"`)
	assert.True(t, strings.HasSuffix(body, "\n\n"))
	assert.Contains(t, body, "event: done\n")

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/abc/typing?step=x", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
