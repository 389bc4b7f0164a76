package simulation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kaigi-sim/backend/internal/metrics"
	"github.com/kaigi-sim/backend/internal/model/meeting"
	"k8s.io/klog/v2"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is a registered simulation run.
type Session struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	State     SessionState `json:"state"`
	// LastStep holds the result of the most recent successful step.
	LastStep *StepResult `json:"lastStep,omitempty"`
}

// Service keeps simulation sessions in memory and serialises the steps of
// each one. Sessions do not share state.
type Service struct {
	orchestrator *Orchestrator
	metrics      *metrics.Metrics

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewService bootstraps the in-memory session registry.
func NewService(orchestrator *Orchestrator, m *metrics.Metrics) *Service {
	return &Service{
		orchestrator: orchestrator,
		metrics:      m,
		sessions:     make(map[string]Session),
	}
}

// Orchestrator exposes the step runner for stateless requests.
func (s *Service) Orchestrator() *Orchestrator {
	return s.orchestrator
}

// CreateSession validates the form and registers an idle session.
func (s *Service) CreateSession(_ context.Context, form meeting.FormData) (Session, error) {
	state, err := NewSessionState(form)
	if err != nil {
		return Session{}, err
	}

	now := time.Now().UTC()
	session := Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		State:     state,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(count)
	klog.Infof("[simulation] session created: id=%s participants=%d", session.ID, len(form.Participants))
	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

// DeleteSession drops a session.
func (s *Service) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetActiveSessions(count)
	return nil
}

// Start runs step 1.
func (s *Service) Start(ctx context.Context, id string) (Session, error) {
	return s.drive(ctx, id, PhaseIdle)
}

// Next runs the step after the last completed one.
func (s *Service) Next(ctx context.Context, id string) (Session, error) {
	return s.drive(ctx, id, PhaseStepComplete)
}

// Retry re-runs the failed step.
func (s *Service) Retry(ctx context.Context, id string) (Session, error) {
	return s.drive(ctx, id, PhaseError)
}

// drive marks the session in flight under the lock, generates outside of it
// and stores the resolved state. A second action while a step is in flight
// fails with InvalidTransitionError.
func (s *Service) drive(ctx context.Context, id string, expect Phase) (Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return Session{}, ErrSessionNotFound
	}
	if session.State.Phase != expect {
		s.mu.Unlock()
		return session, &InvalidTransitionError{From: session.State.Phase, To: PhaseStepInFlight, Step: session.State.CurrentStep + 1}
	}
	inflight, err := s.orchestrator.Begin(session.State)
	if err != nil {
		s.mu.Unlock()
		return session, err
	}
	session.State = inflight
	session.UpdatedAt = time.Now().UTC()
	s.sessions[id] = session
	s.mu.Unlock()

	resolved, result, runErr := s.orchestrator.Run(ctx, inflight)

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[id]
	if !ok {
		// deleted while the step was running
		return Session{}, ErrSessionNotFound
	}
	current.State = resolved
	current.UpdatedAt = time.Now().UTC()
	if result != nil {
		current.LastStep = result
	}
	s.sessions[id] = current
	return current, runErr
}
