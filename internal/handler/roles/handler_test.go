package roles

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kaigi-sim/backend/internal/model/meeting"
	"github.com/kaigi-sim/backend/internal/model/role"
)

func setupRouter() *chi.Mux {
	handler := New(role.NewMemoryStore(role.Seed()), nil)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestSteps(t *testing.T) {
	r := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/steps", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var steps []meeting.Step
	if err := json.Unmarshal(resp.Body.Bytes(), &steps); err != nil {
		t.Fatalf("decode steps: %v", err)
	}
	if len(steps) != meeting.FinalStepID {
		t.Fatalf("expected %d steps, got %d", meeting.FinalStepID, len(steps))
	}
}

func TestRoleDisplay(t *testing.T) {
	r := setupRouter()

	cases := []struct {
		role      string
		wantIcon  string
		wantLabel string
	}{
		{role: "相談支援専門員", wantIcon: "📋", wantLabel: "相談支援"},
		{role: "〇〇市 相談支援専門員", wantIcon: "📋", wantLabel: "相談支援"},
		{role: "医師", wantIcon: "👤", wantLabel: ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/roles/display?role="+url.QueryEscape(tc.role), nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		var body struct {
			Role       string `json:"role"`
			Icon       string `json:"icon"`
			ShortLabel string `json:"shortLabel"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode display: %v", err)
		}
		if body.Icon != tc.wantIcon || body.ShortLabel != tc.wantLabel {
			t.Fatalf("role %q: got %s/%s want %s/%s", tc.role, body.Icon, body.ShortLabel, tc.wantIcon, tc.wantLabel)
		}
		if body.Role != tc.role {
			t.Fatalf("expected echoed role %q, got %q", tc.role, body.Role)
		}
	}
}

func TestParseParticipants(t *testing.T) {
	r := setupRouter()
	payload, _ := json.Marshal(map[string]string{"text": "田中（就労選択支援員）\n本人\n\n田中 (保護者)"})

	req := httptest.NewRequest(http.MethodPost, "/participants/parse", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Participants []struct {
			Name    string `json:"name"`
			Role    string `json:"role"`
			Display struct {
				Icon string `json:"icon"`
			} `json:"display"`
		} `json:"participants"`
		Duplicates []string `json:"duplicates"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode participants: %v", err)
	}
	if len(body.Participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(body.Participants))
	}
	if body.Participants[0].Display.Icon != "🧭" {
		t.Fatalf("unexpected icon %q", body.Participants[0].Display.Icon)
	}
	if body.Participants[1].Role != "" || body.Participants[1].Display.Icon != "👤" {
		t.Fatalf("unexpected bare participant %+v", body.Participants[1])
	}
	if len(body.Duplicates) != 1 || body.Duplicates[0] != "田中" {
		t.Fatalf("expected duplicate 田中, got %v", body.Duplicates)
	}
}

func TestParseParticipantsInvalidBody(t *testing.T) {
	r := setupRouter()
	req := httptest.NewRequest(http.MethodPost, "/participants/parse", bytes.NewReader([]byte("{")))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
