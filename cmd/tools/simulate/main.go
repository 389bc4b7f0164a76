// Command simulate runs a whole support meeting from a case file in the terminal.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/kaigi-sim/backend/internal/analysis/roledisplay"
	"github.com/kaigi-sim/backend/internal/config"
	"github.com/kaigi-sim/backend/internal/model/meeting"
	"github.com/kaigi-sim/backend/internal/model/role"
	"github.com/kaigi-sim/backend/internal/service/ai"
	"github.com/kaigi-sim/backend/internal/service/retry"
	"github.com/kaigi-sim/backend/internal/service/simulation"
)

var (
	casePath  string
	interval  time.Duration
	noTyping  bool
	summarize bool
)

var rootCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a six-step support meeting simulation in the terminal",
	Long: `simulate reads a case file (the same JSON body the web form posts as formData),
drives every agenda step against the configured AI provider and prints the
utterances with a typing effect.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&casePath, "case", "c", "", "case file (formData JSON)")
	rootCmd.Flags().DurationVar(&interval, "interval", 30*time.Millisecond, "pause between typed characters")
	rootCmd.Flags().BoolVar(&noTyping, "no-typing", false, "print utterances at once")
	rootCmd.Flags().BoolVar(&summarize, "summary", false, "generate the meeting summary after the last step")
	_ = rootCmd.MarkFlagRequired("case")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		klog.V(2).Infof("no .env file: %v", err)
	}

	form, err := readCase(casePath)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if !cfg.AI.Enabled() {
		return fmt.Errorf("AI provider is not configured (set %s credentials and model)", cfg.AI.Provider)
	}

	roles := role.Seed()
	if cfg.RoleCatalogFile != "" {
		if roles, err = role.LoadFile(cfg.RoleCatalogFile, roles); err != nil {
			return err
		}
	}
	store := role.NewMemoryStore(roles)

	svc, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("init AI service: %w", err)
	}
	orchestrator := simulation.NewOrchestrator(svc, ai.NewPromptBuilder(store),
		simulation.WithPolicy(retry.Policy{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: cfg.Retry.BaseDelay}),
		simulation.WithTimeouts(simulation.Timeouts{
			Step:    cfg.AI.StepTimeout,
			Full:    cfg.AI.FullTimeout,
			Summary: cfg.AI.SummaryTimeout,
		}),
	)

	state, err := simulation.NewSessionState(form)
	if err != nil {
		return err
	}

	p := newPrinter(cmd.OutOrStdout(), roledisplay.FromStore(store), interval)
	if noTyping {
		p.interval = 0
	}

	state, err = orchestrator.RunAll(ctx, state, func(_ simulation.SessionState, result *simulation.StepResult) {
		p.step(ctx, result)
	})
	if err != nil {
		p.failure(err)
		return err
	}
	p.finished(len(state.Utterances))

	if summarize {
		summary, err := orchestrator.Summarize(ctx, state.FormData, state.MeetingLog)
		if err != nil {
			p.failure(err)
			return err
		}
		p.summary(summary)
	}
	return nil
}

func readCase(path string) (meeting.FormData, error) {
	var form meeting.FormData
	data, err := os.ReadFile(path)
	if err != nil {
		return form, fmt.Errorf("read case file: %w", err)
	}
	if err := json.Unmarshal(data, &form); err != nil {
		return form, fmt.Errorf("parse case file %s: %w", path, err)
	}
	return form, form.Validate()
}
