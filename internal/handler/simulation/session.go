package simulation

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kaigi-sim/backend/internal/model/meeting"
	simulationService "github.com/kaigi-sim/backend/internal/service/simulation"
	"github.com/kaigi-sim/backend/pkg/utils"
	"k8s.io/klog/v2"
)

// sessionView is the client-facing shape of a session.
type sessionView struct {
	ID          string                            `json:"id"`
	Phase       simulationService.Phase           `json:"phase"`
	CurrentStep int                               `json:"currentStep"`
	ActiveStep  int                               `json:"activeStep,omitempty"`
	TotalSteps  int                               `json:"totalSteps"`
	Utterances  []meeting.Utterance               `json:"accumulatedUtterances"`
	Completed   []simulationService.CompletedStep `json:"completedSteps"`
	MeetingLog  string                            `json:"meetingLog,omitempty"`
	LastError   string                            `json:"lastError,omitempty"`
	LastStep    *generationResponse               `json:"lastStep,omitempty"`
	CreatedAt   time.Time                         `json:"createdAt"`
	UpdatedAt   time.Time                         `json:"updatedAt"`
}

func newSessionView(s simulationService.Session) sessionView {
	view := sessionView{
		ID:          s.ID,
		Phase:       s.State.Phase,
		CurrentStep: s.State.CurrentStep,
		ActiveStep:  s.State.ActiveStep,
		TotalSteps:  meeting.FinalStepID,
		Utterances:  s.State.Utterances,
		Completed:   s.State.Completed,
		MeetingLog:  s.State.MeetingLog,
		LastError:   s.State.LastError,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.LastStep != nil {
		last := toGenerationResponse(s.LastStep, true)
		view.LastStep = &last
	}
	return view
}

// actionErrorBody carries the session alongside a failed action so the
// client can offer a retry.
type actionErrorBody struct {
	utils.ErrorBody
	Session *sessionView `json:"session,omitempty"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FormData meeting.FormData `json:"formData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondErrorDetails(w, http.StatusBadRequest, msgBadBody, err)
		return
	}

	session, err := h.svc.CreateSession(r.Context(), payload.FormData)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newSessionView(session))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newSessionView(session))
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionAction func(ctx context.Context, id string) (simulationService.Session, error)

// handleAction blocks until the step resolves and returns the new session view.
func (h *Handler) handleAction(action sessionAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireGenerator(w) {
			return
		}

		session, err := action(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			status, message := statusFor(err)
			body := actionErrorBody{ErrorBody: utils.ErrorBody{Error: message, Details: err.Error()}}
			if session.ID != "" {
				view := newSessionView(session)
				body.Session = &view
			}
			if status >= http.StatusInternalServerError {
				klog.Errorf("[handler] session action failed: status=%d err=%v", status, err)
			}
			respondJSON(w, status, body)
			return
		}
		respondJSON(w, http.StatusOK, newSessionView(session))
	}
}
