package simulation

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaigi-sim/backend/internal/analysis/compliance"
	"github.com/kaigi-sim/backend/internal/model/meeting"
	simulationService "github.com/kaigi-sim/backend/internal/service/simulation"
	"github.com/kaigi-sim/backend/pkg/utils"
)

// Handler serves the generation endpoints and the session state machine.
type Handler struct {
	svc *simulationService.Service
}

// New 创建模拟处理器
func New(svc *simulationService.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the handler under the /api router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/generate-step", h.handleGenerateStep)
	r.Post("/generate-simulation", h.handleGenerateSimulation)
	r.Post("/generate-summary", h.handleGenerateSummary)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Get("/{sessionID}", h.handleGetSession)
		r.Delete("/{sessionID}", h.handleDeleteSession)
		r.Post("/{sessionID}/start", h.handleAction(h.svc.Start))
		r.Post("/{sessionID}/next", h.handleAction(h.svc.Next))
		r.Post("/{sessionID}/retry", h.handleAction(h.svc.Retry))
	})
}

type generationResponse struct {
	Simulation string              `json:"simulation"`
	Utterances []meeting.Utterance `json:"utterances"`
	Validation compliance.Report   `json:"validation"`
	Attempts   int                 `json:"attempts"`
	Step       *meeting.Step       `json:"step,omitempty"`
}

func toGenerationResponse(result *simulationService.StepResult, withStep bool) generationResponse {
	resp := generationResponse{
		Simulation: result.Raw,
		Utterances: result.Utterances,
		Validation: result.Validation,
		Attempts:   result.Attempts,
	}
	if withStep {
		step := result.Step
		resp.Step = &step
	}
	return resp
}

func (h *Handler) requireGenerator(w http.ResponseWriter) bool {
	if h.svc.Orchestrator().Available() {
		return true
	}
	respondError(w, simulationService.ErrGeneratorUnavailable)
	return false
}

// handleGenerateStep runs one agenda step from a client-held transcript.
func (h *Handler) handleGenerateStep(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		StepNumber    int                 `json:"stepNumber"`
		FormData      meeting.FormData    `json:"formData"`
		PreviousSteps []meeting.Utterance `json:"previousSteps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondErrorDetails(w, http.StatusBadRequest, msgBadBody, err)
		return
	}
	if !h.requireGenerator(w) {
		return
	}

	result, err := h.svc.Orchestrator().GenerateStep(r.Context(), payload.StepNumber, payload.FormData, payload.PreviousSteps)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toGenerationResponse(result, true))
}

// handleGenerateSimulation produces the whole meeting in one request.
func (h *Handler) handleGenerateSimulation(w http.ResponseWriter, r *http.Request) {
	var form meeting.FormData
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		utils.RespondErrorDetails(w, http.StatusBadRequest, msgBadBody, err)
		return
	}
	if !h.requireGenerator(w) {
		return
	}

	result, err := h.svc.Orchestrator().GenerateFull(r.Context(), form)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toGenerationResponse(result, false))
}

func (h *Handler) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FormData   meeting.FormData `json:"formData"`
		MeetingLog string           `json:"meetingLog"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondErrorDetails(w, http.StatusBadRequest, msgBadBody, err)
		return
	}
	if !h.requireGenerator(w) {
		return
	}

	summary, err := h.svc.Orchestrator().Summarize(r.Context(), payload.FormData, payload.MeetingLog)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"summary": summary})
}
