package roles

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaigi-sim/backend/internal/analysis/roledisplay"
	"github.com/kaigi-sim/backend/internal/model/meeting"
	"github.com/kaigi-sim/backend/internal/model/role"
	"github.com/kaigi-sim/backend/pkg/utils"
)

// Handler exposes the reference data the form and chat view need.
type Handler struct {
	store    role.Store
	resolver *roledisplay.Resolver
}

// New 创建角色处理器
func New(store role.Store, resolver *roledisplay.Resolver) *Handler {
	if resolver == nil {
		resolver = roledisplay.FromStore(store)
	}
	return &Handler{store: store, resolver: resolver}
}

// RegisterRoutes 注册角色相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/steps", h.handleSteps)
	r.Get("/roles", h.handleRoles)
	r.Get("/roles/display", h.handleDisplay)
	r.Post("/participants/parse", h.handleParseParticipants)
}

func (h *Handler) handleSteps(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, meeting.Steps())
}

func (h *Handler) handleRoles(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) handleDisplay(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("role")
	utils.RespondJSON(w, http.StatusOK, struct {
		Role string `json:"role"`
		roledisplay.Display
	}{Role: label, Display: h.resolver.Resolve(label)})
}

type parsedParticipant struct {
	meeting.Participant
	Display roledisplay.Display `json:"display"`
}

// handleParseParticipants turns the participant textbox into structured entries.
func (h *Handler) handleParseParticipants(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	participants := meeting.ParseParticipants(payload.Text)
	out := make([]parsedParticipant, 0, len(participants))
	for _, p := range participants {
		out = append(out, parsedParticipant{Participant: p, Display: h.resolver.Resolve(p.Role)})
	}

	duplicates := meeting.DuplicateNames(participants)
	if duplicates == nil {
		duplicates = []string{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"participants": out,
		"duplicates":   duplicates,
	})
}
