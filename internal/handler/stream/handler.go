package stream

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/kaigi-sim/backend/internal/analysis/roledisplay"
	"github.com/kaigi-sim/backend/internal/model/meeting"
	simulationService "github.com/kaigi-sim/backend/internal/service/simulation"
	"github.com/kaigi-sim/backend/internal/service/typing"
	"github.com/kaigi-sim/backend/pkg/utils"
	"k8s.io/klog/v2"
)

// Event types sent to the chat view.
const (
	EventUtteranceStart = "utterance_start"
	EventDelta          = "delta"
	EventUtteranceEnd   = "utterance_end"
	EventDone           = "done"
)

const writeWait = 10 * time.Second

// SessionSource looks up simulation sessions.
type SessionSource interface {
	GetSession(ctx context.Context, id string) (simulationService.Session, error)
}

// Event is one envelope of the typing stream.
type Event struct {
	Type       string `json:"type"`
	Index      int    `json:"index"`
	Step       int    `json:"step,omitempty"`
	Speaker    string `json:"speaker,omitempty"`
	Role       string `json:"role,omitempty"`
	Icon       string `json:"icon,omitempty"`
	ShortLabel string `json:"shortLabel,omitempty"`
	Delta      string `json:"delta,omitempty"`
	Text       string `json:"text,omitempty"`
	Count      int    `json:"count,omitempty"`
}

// Handler replays step utterances with a typing animation.
type Handler struct {
	sessions SessionSource
	resolver *roledisplay.Resolver
	interval time.Duration
	upgrader websocket.Upgrader
}

// New creates a stream handler. interval paces the typing slices.
func New(sessions SessionSource, resolver *roledisplay.Resolver, interval time.Duration) *Handler {
	return &Handler{
		sessions: sessions,
		resolver: resolver,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the typing streams.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/ws", h.handleWebSocket)
	r.Get("/sessions/{sessionID}/typing", h.handleSSE)
}

// selectUtterances picks the utterances of ?step=n, or of the most recent step.
func selectUtterances(r *http.Request, session simulationService.Session) (int, []meeting.Utterance, bool) {
	if raw := r.URL.Query().Get("step"); raw != "" {
		step, err := strconv.Atoi(raw)
		if err != nil {
			return 0, nil, false
		}
		return step, session.State.StepUtterances(step), true
	}
	if session.LastStep == nil {
		return 0, nil, true
	}
	return session.LastStep.Step.ID, session.LastStep.Utterances, true
}

// play emits the typing events of utterances through send until done or ctx ends.
func (h *Handler) play(ctx context.Context, step int, utterances []meeting.Utterance, send func(Event) error) error {
	opts := typing.Options{Interval: h.interval}

	for i, u := range utterances {
		display := h.resolver.Resolve(u.Role)
		if err := send(Event{
			Type:       EventUtteranceStart,
			Index:      i,
			Step:       step,
			Speaker:    u.Speaker,
			Role:       u.Role,
			Icon:       display.Icon,
			ShortLabel: display.ShortLabel,
		}); err != nil {
			return err
		}

		for slice := range typing.Stream(ctx, u.Text, opts) {
			if slice.Delta == "" {
				continue
			}
			if err := send(Event{Type: EventDelta, Index: i, Delta: slice.Delta, Text: slice.Text}); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := send(Event{Type: EventUtteranceEnd, Index: i, Text: u.Text}); err != nil {
			return err
		}
	}
	return send(Event{Type: EventDone, Step: step, Count: len(utterances)})
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	step, utterances, ok := selectUtterances(r, session)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "invalid step query parameter")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		klog.Warningf("[stream] websocket upgrade failed: session=%s err=%v", sessionID, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client never sends data; reading detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	klog.Infof("[stream] websocket typing started: session=%s step=%d utterances=%d", sessionID, step, len(utterances))
	err = h.play(ctx, step, utterances, func(ev Event) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return conn.WriteJSON(ev)
	})
	if err != nil {
		klog.V(4).Infof("[stream] websocket typing stopped: session=%s err=%v", sessionID, err)
		return
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(writeWait))
}

func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	step, utterances, ok := selectUtterances(r, session)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "invalid step query parameter")
		return
	}

	utils.SetupSSEHeaders(w)
	err = h.play(r.Context(), step, utterances, func(ev Event) error {
		return utils.SendSSEEvent(w, flusher, ev.Type, ev)
	})
	if err != nil {
		klog.V(4).Infof("[stream] sse typing stopped: session=%s err=%v", sessionID, err)
	}
}
