package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaigi-sim/backend/internal/service/ai"
	"github.com/kaigi-sim/backend/internal/service/retry"
	simulationService "github.com/kaigi-sim/backend/internal/service/simulation"
)

const formJSON = `{"basicInfo":"18歳 男性","assessmentSummary":"丁寧な作業","observationPoints":"","participants":[{"name":"田中","role":"就労選択支援員"},{"name":"本人","role":""}]}`

func setupRouter(gen ai.TextGenerator) *chi.Mux {
	policy := retry.DefaultPolicy()
	policy.Sleep = func(context.Context, time.Duration) error { return nil }
	o := simulationService.NewOrchestrator(gen, nil, simulationService.WithPolicy(policy))
	handler := New(simulationService.NewService(o, nil))

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func okGenerator() ai.TextGenerator {
	return ai.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "## 会議ログ") {
			return "<h4>支援方針</h4>", nil
		}
		return "田中（就労選択支援員）：始めましょう\n続けて説明します\n\n本人：よろしくお願いします", nil
	})
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), v))
}

func TestGenerateStep(t *testing.T) {
	r := setupRouter(okGenerator())

	resp := do(t, r, http.MethodPost, "/generate-step",
		`{"stepNumber":2,"formData":`+formJSON+`,"previousSteps":[{"speaker":"田中","role":"就労選択支援員","text":"開会します"}]}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body generationResponse
	decode(t, resp, &body)
	assert.Contains(t, body.Simulation, "始めましょう")
	require.Len(t, body.Utterances, 2)
	assert.Equal(t, "始めましょう\n続けて説明します", body.Utterances[0].Text)
	assert.Equal(t, "就労選択支援員", body.Utterances[0].Role)
	require.NotNil(t, body.Step)
	assert.Equal(t, 2, body.Step.ID)
	assert.NotNil(t, body.Validation.Violations)
}

func TestGenerateStepValidation(t *testing.T) {
	r := setupRouter(okGenerator())

	cases := map[string]string{
		"missing basic info": `{"stepNumber":1,"formData":{"assessmentSummary":"x","participants":[{"name":"a"}]}}`,
		"missing step":       `{"formData":` + formJSON + `}`,
		"step out of range":  `{"stepNumber":9,"formData":` + formJSON + `}`,
		"duplicate names":    `{"stepNumber":1,"formData":{"basicInfo":"a","assessmentSummary":"b","participants":[{"name":"田中","role":"教員"},{"name":"田中","role":"保護者"}]}}`,
		"invalid json":       `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := do(t, r, http.MethodPost, "/generate-step", body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)

			var errBody map[string]string
			decode(t, resp, &errBody)
			assert.NotEmpty(t, errBody["error"])
		})
	}
}

func TestGenerateStepProviderErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "timeout", err: &ai.ProviderTimeoutError{Err: context.DeadlineExceeded}, want: http.StatusGatewayTimeout},
		{name: "response", err: &ai.ProviderResponseError{Err: errors.New("status 500")}, want: http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			r := setupRouter(ai.GeneratorFunc(func(context.Context, string) (string, error) {
				calls.Add(1)
				return "", tc.err
			}))

			resp := do(t, r, http.MethodPost, "/generate-step", `{"stepNumber":1,"formData":`+formJSON+`}`)
			assert.Equal(t, tc.want, resp.Code)
			assert.Equal(t, int32(3), calls.Load())

			var errBody map[string]string
			decode(t, resp, &errBody)
			assert.NotEmpty(t, errBody["error"])
			assert.Contains(t, errBody["details"], "3 attempt")
		})
	}
}

func TestGeneratorUnavailable(t *testing.T) {
	r := setupRouter(nil)

	resp := do(t, r, http.MethodPost, "/generate-step", `{"stepNumber":1,"formData":`+formJSON+`}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestGenerateSimulationAndSummary(t *testing.T) {
	r := setupRouter(okGenerator())

	resp := do(t, r, http.MethodPost, "/generate-simulation", formJSON)
	require.Equal(t, http.StatusOK, resp.Code)
	var full generationResponse
	decode(t, resp, &full)
	assert.Len(t, full.Utterances, 2)
	assert.Nil(t, full.Step)

	resp = do(t, r, http.MethodPost, "/generate-summary", `{"formData":`+formJSON+`,"meetingLog":"田中: 以上です"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var summary map[string]string
	decode(t, resp, &summary)
	assert.Equal(t, "<h4>支援方針</h4>", summary["summary"])

	resp = do(t, r, http.MethodPost, "/generate-summary", `{"formData":`+formJSON+`}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSessionLifecycle(t *testing.T) {
	r := setupRouter(okGenerator())

	resp := do(t, r, http.MethodPost, "/sessions", `{"formData":`+formJSON+`}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var view sessionView
	decode(t, resp, &view)
	require.NotEmpty(t, view.ID)
	assert.Equal(t, simulationService.PhaseIdle, view.Phase)
	assert.Equal(t, 6, view.TotalSteps)

	resp = do(t, r, http.MethodPost, "/sessions/"+view.ID+"/next", "")
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = do(t, r, http.MethodPost, "/sessions/"+view.ID+"/start", "")
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp, &view)
	assert.Equal(t, simulationService.PhaseStepComplete, view.Phase)
	assert.Equal(t, 1, view.CurrentStep)
	require.NotNil(t, view.LastStep)
	assert.Len(t, view.LastStep.Utterances, 2)

	for view.Phase != simulationService.PhaseFinished {
		resp = do(t, r, http.MethodPost, "/sessions/"+view.ID+"/next", "")
		require.Equal(t, http.StatusOK, resp.Code)
		view = sessionView{}
		decode(t, resp, &view)
	}

	resp = do(t, r, http.MethodGet, "/sessions/"+view.ID, "")
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp, &view)
	assert.Len(t, view.Utterances, 12)
	assert.Len(t, view.Completed, 6)
	assert.NotEmpty(t, view.MeetingLog)

	resp = do(t, r, http.MethodDelete, "/sessions/"+view.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = do(t, r, http.MethodGet, "/sessions/"+view.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSessionFailedStepCarriesSession(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	gen := ai.GeneratorFunc(func(context.Context, string) (string, error) {
		if fail.Load() {
			return "", &ai.ProviderResponseError{Err: errors.New("status 503")}
		}
		return "本人：はい", nil
	})
	r := setupRouter(gen)

	resp := do(t, r, http.MethodPost, "/sessions", `{"formData":`+formJSON+`}`)
	var view sessionView
	decode(t, resp, &view)

	resp = do(t, r, http.MethodPost, "/sessions/"+view.ID+"/start", "")
	require.Equal(t, http.StatusBadGateway, resp.Code)

	var body actionErrorBody
	decode(t, resp, &body)
	assert.NotEmpty(t, body.Error)
	require.NotNil(t, body.Session)
	assert.Equal(t, simulationService.PhaseError, body.Session.Phase)
	assert.Equal(t, 1, body.Session.ActiveStep)

	fail.Store(false)
	resp = do(t, r, http.MethodPost, "/sessions/"+view.ID+"/retry", "")
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp, &view)
	assert.Equal(t, 1, view.CurrentStep)
}

func TestSessionNotFound(t *testing.T) {
	r := setupRouter(okGenerator())

	resp := do(t, r, http.MethodPost, "/sessions/missing/start", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
