package simulation

import (
	"context"
	"strings"

	"github.com/kaigi-sim/backend/internal/model/meeting"
	"github.com/kaigi-sim/backend/internal/service/retry"
	"k8s.io/klog/v2"
)

// GenerateFull asks the provider for the complete meeting in one request.
func (o *Orchestrator) GenerateFull(ctx context.Context, form meeting.FormData) (*StepResult, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if !o.Available() {
		return nil, ErrGeneratorUnavailable
	}
	prompt := o.prompts.Full(form)

	attempts := 0
	text, err := retry.CallWithRetry(ctx, o.policyFor(OperationFull, o.timeouts.Full, &attempts), func(ctx context.Context) (string, error) {
		return o.generator.GenerateText(ctx, prompt)
	})
	if err != nil {
		klog.Errorf("[simulation] full meeting generation failed: %v", err)
		return nil, err
	}

	report := parse(text, form.Participants)
	klog.Infof("[simulation] full meeting generated: utterances=%d discarded=%d", len(report.Utterances), len(report.Discarded))
	return &StepResult{
		Raw:        text,
		Utterances: report.Utterances,
		Discarded:  report.Discarded,
		Validation: o.validate(text),
		Attempts:   attempts,
	}, nil
}

// Summarize asks for an HTML summary of a finished meeting log.
func (o *Orchestrator) Summarize(ctx context.Context, form meeting.FormData, meetingLog string) (string, error) {
	var fields []string
	if strings.TrimSpace(form.BasicInfo) == "" {
		fields = append(fields, "formData")
	}
	if strings.TrimSpace(meetingLog) == "" {
		fields = append(fields, "meetingLog")
	}
	if len(fields) > 0 {
		return "", &meeting.ValidationError{Fields: fields}
	}
	if !o.Available() {
		return "", ErrGeneratorUnavailable
	}
	prompt := o.prompts.Summary(form, meetingLog)

	attempts := 0
	summary, err := retry.CallWithRetry(ctx, o.policyFor(OperationSummary, o.timeouts.Summary, &attempts), func(ctx context.Context) (string, error) {
		return o.generator.GenerateText(ctx, prompt)
	})
	if err != nil {
		klog.Errorf("[simulation] summary generation failed: %v", err)
		return "", err
	}
	klog.Infof("[simulation] summary generated after %d attempt(s)", attempts)
	return summary, nil
}
