package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kaigi-sim/backend/internal/analysis/compliance"
	"github.com/kaigi-sim/backend/internal/analysis/transcript"
	"github.com/kaigi-sim/backend/internal/metrics"
	"github.com/kaigi-sim/backend/internal/model/meeting"
	"github.com/kaigi-sim/backend/internal/service/ai"
	"github.com/kaigi-sim/backend/internal/service/retry"
	"k8s.io/klog/v2"
)

var (
	// ErrNoUtterances is reported when a response parses to no dialogue.
	ErrNoUtterances = errors.New("generated text contained no recognizable utterances")
	// ErrGeneratorUnavailable is returned when no provider credentials were configured.
	ErrGeneratorUnavailable = errors.New("text generator is not configured")
)

// Operation names used for retry logs and metrics.
const (
	OperationStep    = "step"
	OperationFull    = "full"
	OperationSummary = "summary"
)

// Timeouts bounds every provider attempt per operation.
type Timeouts struct {
	Step    time.Duration
	Full    time.Duration
	Summary time.Duration
}

// StepResult is the data produced by one successful step.
type StepResult struct {
	Step       meeting.Step        `json:"step"`
	Raw        string              `json:"simulation"`
	Utterances []meeting.Utterance `json:"utterances"`
	Discarded  []string            `json:"discarded,omitempty"`
	Validation compliance.Report   `json:"validation"`
	Attempts   int                 `json:"attempts"`
}

// Orchestrator drives the agenda steps against a text generator.
type Orchestrator struct {
	generator ai.TextGenerator
	prompts   *ai.PromptBuilder
	policy    retry.Policy
	timeouts  Timeouts
	metrics   *metrics.Metrics
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithPolicy replaces the retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithTimeouts sets per-attempt deadlines.
func WithTimeouts(t Timeouts) Option {
	return func(o *Orchestrator) { o.timeouts = t }
}

// WithMetrics records attempts and step outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator wires a generator and prompt builder.
func NewOrchestrator(generator ai.TextGenerator, prompts *ai.PromptBuilder, opts ...Option) *Orchestrator {
	if prompts == nil {
		prompts = ai.NewPromptBuilder(nil)
	}
	o := &Orchestrator{
		generator: generator,
		prompts:   prompts,
		policy:    retry.DefaultPolicy(),
		timeouts:  Timeouts{Step: 30 * time.Second, Full: 45 * time.Second, Summary: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Available reports whether a text generator is wired.
func (o *Orchestrator) Available() bool {
	return o.generator != nil
}

// Begin moves s into StepInFlight for the step the action targets: step 1
// from idle, the next step after a completed one, or the failed step again
// after an error. The returned state must be passed to Run.
func (o *Orchestrator) Begin(s SessionState) (SessionState, error) {
	next := s.CurrentStep + 1
	switch s.Phase {
	case PhaseIdle:
		next = 1
	case PhaseError:
		next = s.ActiveStep
	case PhaseStepComplete:
		if s.CurrentStep >= meeting.FinalStepID {
			return s, &InvalidTransitionError{From: s.Phase, To: PhaseStepInFlight, Step: next}
		}
	}
	if err := validateTransition(s.Phase, PhaseStepInFlight, next); err != nil {
		return s, err
	}

	if s.Phase == PhaseIdle {
		s.CurrentStep = 0
		s.Utterances = []meeting.Utterance{}
		s.Completed = []CompletedStep{}
		s.MeetingLog = ""
	}
	s.Phase = PhaseStepInFlight
	s.ActiveStep = next
	s.LastError = ""
	return s, nil
}

// Run generates the in-flight step and returns the resolved state: step
// complete (or finished after the final step) on success, error otherwise.
func (o *Orchestrator) Run(ctx context.Context, s SessionState) (SessionState, *StepResult, error) {
	if s.Phase != PhaseStepInFlight {
		return s, nil, &InvalidTransitionError{From: s.Phase, To: PhaseStepComplete, Step: s.ActiveStep}
	}
	step, ok := meeting.StepByID(s.ActiveStep)
	if !ok {
		return s, nil, &meeting.ValidationError{Fields: []string{"stepNumber"}}
	}

	result, err := o.generateStep(ctx, step, s.FormData, s.Utterances, true)
	if err != nil {
		o.metrics.RecordStep(step.ID, outcomeOf(err), 0, 0)
		klog.Errorf("[simulation] step %d failed: %v", step.ID, err)
		s.Phase = PhaseError
		s.LastError = err.Error()
		return s, nil, err
	}

	accumulated := make([]meeting.Utterance, 0, len(s.Utterances)+len(result.Utterances))
	accumulated = append(accumulated, s.Utterances...)
	accumulated = append(accumulated, result.Utterances...)
	s.Utterances = accumulated
	s.Completed = append(append([]CompletedStep(nil), s.Completed...), CompletedStep{
		StepID:     step.ID,
		Utterances: len(result.Utterances),
		Attempts:   result.Attempts,
		Validation: result.Validation,
	})
	s.CurrentStep = step.ID
	s.Phase = PhaseStepComplete
	o.metrics.RecordStep(step.ID, metrics.OutcomeSuccess, len(result.Utterances), len(result.Discarded))
	klog.Infof("[simulation] step %d complete: utterances=%d total=%d attempts=%d",
		step.ID, len(result.Utterances), len(s.Utterances), result.Attempts)

	if step.ID == meeting.FinalStepID {
		if err := validateTransition(s.Phase, PhaseFinished, step.ID); err != nil {
			return s, result, err
		}
		s.Phase = PhaseFinished
		s.MeetingLog = meeting.FlattenLog(s.Utterances)
		klog.Infof("[simulation] meeting finished: utterances=%d", len(s.Utterances))
	}
	return s, result, nil
}

// Start runs step 1 of an idle session.
func (o *Orchestrator) Start(ctx context.Context, s SessionState) (SessionState, *StepResult, error) {
	if s.Phase != PhaseIdle {
		return s, nil, &InvalidTransitionError{From: s.Phase, To: PhaseStepInFlight, Step: 1}
	}
	return o.advance(ctx, s)
}

// Next runs the step after the last completed one.
func (o *Orchestrator) Next(ctx context.Context, s SessionState) (SessionState, *StepResult, error) {
	if s.Phase != PhaseStepComplete {
		return s, nil, &InvalidTransitionError{From: s.Phase, To: PhaseStepInFlight, Step: s.CurrentStep + 1}
	}
	return o.advance(ctx, s)
}

// Retry re-runs the step that failed.
func (o *Orchestrator) Retry(ctx context.Context, s SessionState) (SessionState, *StepResult, error) {
	if s.Phase != PhaseError {
		return s, nil, &InvalidTransitionError{From: s.Phase, To: PhaseStepInFlight, Step: s.ActiveStep}
	}
	return o.advance(ctx, s)
}

// RunAll drives an idle session through every step, stopping at the first failure.
func (o *Orchestrator) RunAll(ctx context.Context, s SessionState, onStep func(SessionState, *StepResult)) (SessionState, error) {
	var err error
	var result *StepResult
	s, result, err = o.Start(ctx, s)
	for {
		if err != nil {
			return s, err
		}
		if onStep != nil {
			onStep(s, result)
		}
		if s.Finished() {
			return s, nil
		}
		s, result, err = o.Next(ctx, s)
	}
}

func (o *Orchestrator) advance(ctx context.Context, s SessionState) (SessionState, *StepResult, error) {
	next, err := o.Begin(s)
	if err != nil {
		return s, nil, err
	}
	return o.Run(ctx, next)
}

// GenerateStep runs one step without a session. It mirrors the stateless
// endpoint: the caller supplies the prior transcript and a response is
// accepted even when it parses to no utterances.
func (o *Orchestrator) GenerateStep(ctx context.Context, stepNumber int, form meeting.FormData, previous []meeting.Utterance) (*StepResult, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	step, ok := meeting.StepByID(stepNumber)
	if !ok {
		return nil, &meeting.ValidationError{Fields: []string{"stepNumber"}}
	}
	return o.generateStep(ctx, step, form, previous, false)
}

func (o *Orchestrator) generateStep(ctx context.Context, step meeting.Step, form meeting.FormData, previous []meeting.Utterance, requireUtterances bool) (*StepResult, error) {
	if !o.Available() {
		return nil, ErrGeneratorUnavailable
	}
	prompt := o.prompts.Step(step, form, previous)
	klog.V(4).Infof("[simulation] step %d prompt_len=%d previous=%d", step.ID, len(prompt), len(previous))

	attempts := 0
	result, err := retry.CallWithRetry(ctx, o.policyFor(OperationStep, o.timeouts.Step, &attempts),
		func(ctx context.Context) (*StepResult, error) {
			text, err := o.generator.GenerateText(ctx, prompt)
			if err != nil {
				return nil, err
			}
			report := parse(text, form.Participants)
			if requireUtterances && len(report.Utterances) == 0 {
				return nil, &ai.ProviderResponseError{Err: ErrNoUtterances}
			}
			return &StepResult{
				Step:       step,
				Raw:        text,
				Utterances: report.Utterances,
				Discarded:  report.Discarded,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	result.Attempts = attempts
	result.Validation = o.validate(result.Raw)
	return result, nil
}

// parse runs the transcript parser and logs the lines it had to drop.
func parse(text string, participants []meeting.Participant) transcript.Report {
	report := transcript.ParseReport(text, participants)
	if report.Utterances == nil {
		report.Utterances = []meeting.Utterance{}
	}
	if len(report.Discarded) > 0 {
		klog.Warningf("[simulation] discarded %d unattributed line(s)", len(report.Discarded))
		klog.V(6).Infof("[simulation] discarded lines: %q", report.Discarded)
	}
	return report
}

func (o *Orchestrator) validate(text string) compliance.Report {
	report := compliance.Validate(text)
	for _, v := range report.Violations {
		o.metrics.RecordViolation(string(v.Type), string(v.Severity))
	}
	if len(report.Violations) > 0 {
		klog.Warningf("[simulation] %d welfare-rule violation(s) detected", len(report.Violations))
	}
	return report
}

func (o *Orchestrator) policyFor(operation string, timeout time.Duration, attempts *int) retry.Policy {
	p := o.policy
	p.Name = fmt.Sprintf("%s generation", operation)
	p.AttemptTimeout = timeout
	observe := p.OnAttempt
	p.OnAttempt = func(attempt int, err error, elapsed time.Duration) {
		*attempts = attempt
		o.metrics.RecordAttempt(operation, outcomeOf(err), elapsed.Seconds())
		if observe != nil {
			observe(attempt, err, elapsed)
		}
	}
	return p
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case ai.IsTimeout(err):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeError
	}
}
