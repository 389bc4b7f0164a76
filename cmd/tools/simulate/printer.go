package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kaigi-sim/backend/internal/analysis/roledisplay"
	"github.com/kaigi-sim/backend/internal/model/meeting"
	"github.com/kaigi-sim/backend/internal/service/simulation"
	"github.com/kaigi-sim/backend/internal/service/typing"
)

var (
	stepStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	speakerStyle = lipgloss.NewStyle().
			Bold(true)
	roleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F5A623"))
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

type printer struct {
	out      io.Writer
	resolver *roledisplay.Resolver
	interval time.Duration
}

func newPrinter(out io.Writer, resolver *roledisplay.Resolver, interval time.Duration) *printer {
	return &printer{out: out, resolver: resolver, interval: interval}
}

func (p *printer) step(ctx context.Context, result *simulation.StepResult) {
	if result == nil {
		return
	}
	fmt.Fprintln(p.out, stepStyle.Render(fmt.Sprintf("■ ステップ%d: %s", result.Step.ID, result.Step.Name)))
	for _, u := range result.Utterances {
		p.utterance(ctx, u)
	}
	for _, v := range result.Validation.Violations {
		fmt.Fprintln(p.out, warnStyle.Render(fmt.Sprintf("⚠ %s (%s): %s", v.Type, v.Severity, v.Message)))
	}
	fmt.Fprintln(p.out)
}

func (p *printer) utterance(ctx context.Context, u meeting.Utterance) {
	d := p.resolver.Resolve(u.Role)
	fmt.Fprintf(p.out, "%s %s %s\n", d.Icon, speakerStyle.Render(u.Speaker), roleStyle.Render("（"+u.Role+"）"))

	fmt.Fprint(p.out, "  ")
	for slice := range typing.Stream(ctx, u.Text, typing.Options{Interval: p.interval}) {
		fmt.Fprint(p.out, slice.Delta)
	}
	fmt.Fprintln(p.out)
}

func (p *printer) finished(total int) {
	fmt.Fprintln(p.out, stepStyle.Render(fmt.Sprintf("会議終了: 発言 %d 件", total)))
}

func (p *printer) summary(html string) {
	fmt.Fprintln(p.out, summaryStyle.Render(html))
}

func (p *printer) failure(err error) {
	fmt.Fprintln(p.out, errorStyle.Render("エラー: "+err.Error()))
}
