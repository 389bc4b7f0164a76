package simulation

import (
	"fmt"

	"github.com/kaigi-sim/backend/internal/analysis/compliance"
	"github.com/kaigi-sim/backend/internal/model/meeting"
	"k8s.io/klog/v2"
)

// Phase is the orchestrator state of a session.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseStepInFlight Phase = "step_in_flight"
	PhaseStepComplete Phase = "step_complete"
	PhaseError        Phase = "error"
	PhaseFinished     Phase = "finished"
)

type transition struct {
	From Phase
	To   Phase
}

// idle -> in_flight(1) -> complete(n) -> in_flight(n+1) ... complete(6) -> finished
// in_flight(n) -> error(n) -> in_flight(n)
var allowedTransitions = map[transition]bool{
	{PhaseIdle, PhaseStepInFlight}:         true,
	{PhaseStepInFlight, PhaseStepComplete}: true,
	{PhaseStepInFlight, PhaseError}:        true,
	{PhaseStepComplete, PhaseStepInFlight}: true,
	{PhaseStepComplete, PhaseFinished}:     true,
	{PhaseError, PhaseStepInFlight}:        true,
}

// InvalidTransitionError rejects a move the state machine does not allow.
type InvalidTransitionError struct {
	From Phase
	To   Phase
	Step int
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid simulation state transition: %s -> %s (step %d)", e.From, e.To, e.Step)
}

func validateTransition(from, to Phase, step int) error {
	if !allowedTransitions[transition{From: from, To: to}] {
		klog.V(6).Infof("[simulation] transition rejected: %s -> %s step=%d", from, to, step)
		return &InvalidTransitionError{From: from, To: to, Step: step}
	}
	return nil
}

// CompletedStep records how many accumulated utterances one step contributed.
type CompletedStep struct {
	StepID     int               `json:"stepId"`
	Utterances int               `json:"utterances"`
	Attempts   int               `json:"attempts"`
	Validation compliance.Report `json:"validation"`
}

// SessionState is the whole state of one simulation run. The orchestrator
// takes it by value and returns the next state; it never keeps a copy.
type SessionState struct {
	Phase Phase `json:"phase"`
	// CurrentStep is the last completed step, 0 before the first one.
	CurrentStep int `json:"currentStep"`
	// ActiveStep is the step being generated, or the one that failed.
	ActiveStep int                 `json:"activeStep,omitempty"`
	FormData   meeting.FormData    `json:"formData"`
	Utterances []meeting.Utterance `json:"accumulatedUtterances"`
	Completed  []CompletedStep     `json:"completedSteps"`
	MeetingLog string              `json:"meetingLog,omitempty"`
	LastError  string              `json:"lastError,omitempty"`
}

// NewSessionState validates the form and returns an idle session.
func NewSessionState(form meeting.FormData) (SessionState, error) {
	if err := form.Validate(); err != nil {
		return SessionState{}, err
	}
	return SessionState{
		Phase:      PhaseIdle,
		FormData:   form,
		Utterances: []meeting.Utterance{},
		Completed:  []CompletedStep{},
	}, nil
}

// StepUtterances returns the utterances contributed by the given step.
func (s SessionState) StepUtterances(stepID int) []meeting.Utterance {
	offset := 0
	for _, c := range s.Completed {
		if c.StepID == stepID {
			return s.Utterances[offset : offset+c.Utterances]
		}
		offset += c.Utterances
	}
	return nil
}

// Finished reports whether every step has completed.
func (s SessionState) Finished() bool {
	return s.Phase == PhaseFinished
}
