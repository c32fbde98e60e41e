package cli

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"trading-risk-assistant-go/internal/journal"
	"trading-risk-assistant-go/internal/metrics"
	"trading-risk-assistant-go/internal/risk"
	"trading-risk-assistant-go/internal/telegram"
)

// Session runs one interactive assessment from prompts to journal. All
// per-run state (answers, stats, the decision) lives in Run's locals, so
// sessions never leak into each other.
type Session struct {
	assistant *risk.Assistant
	store     *journal.Store
	notifier  telegram.Notifier
	logger    *zap.Logger
	out       io.Writer
}

// NewSession creates an interactive session over the shared components.
func NewSession(assistant *risk.Assistant, store *journal.Store, notifier telegram.Notifier, logger *zap.Logger, out io.Writer) *Session {
	return &Session{
		assistant: assistant,
		store:     store,
		notifier:  notifier,
		logger:    logger,
		out:       out,
	}
}

// Run walks the full flow: stats, answers, evaluation, optional breakdown,
// optional lot sizing (a re-evaluation with the same answers and stats),
// optional journaling and Telegram push.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "👋 Welcome! Let's find out whether you should trade today.")
	fmt.Fprintln(s.out, "\n📊 CURRENT STATS")
	fmt.Fprintln(s.out)

	stats, err := CollectStats()
	if err != nil {
		return err
	}
	answers, err := CollectAnswers(s.assistant.Questions())
	if err != nil {
		return err
	}

	decision, err := s.assistant.Evaluate(answers, stats, nil)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out)
	RenderDecision(s.out, decision)
	metrics.RecordDecision(decision)

	if len(decision.Breakdown) > 0 {
		show, err := askConfirm("Show the detailed breakdown?", false)
		if err != nil {
			return err
		}
		if show {
			fmt.Fprintln(s.out)
			RenderBreakdown(s.out, decision)
		}
	}

	if decision.ShouldTrade {
		size, err := askConfirm("Calculate the lot size for a planned trade?", true)
		if err != nil {
			return err
		}
		if size {
			details, err := CollectTradeDetails()
			if err != nil {
				return err
			}

			// Same answers, same stats: the scores come out identical, only
			// the sizing is new.
			decision, err = s.assistant.Evaluate(answers, stats, details)
			if err != nil {
				fmt.Fprintf(s.out, "❌ %v\n", err)
				return err
			}
			if decision.LotSize != nil {
				fmt.Fprintf(s.out, "\n💰 Lot size: %.2f lots (%.0f%% risk = $%.2f)\n",
					*decision.LotSize, decision.RiskPercent,
					risk.RiskAmount(details.AccountBalance, decision.RiskPercent))
			}
		}
	}

	save, err := askConfirm("Save this session to the journal?", true)
	if err != nil {
		return err
	}
	if save {
		notes, err := CollectNotes()
		if err != nil {
			return err
		}
		if _, err := s.store.Append(answers, stats, decision, notes); err != nil {
			return err
		}
		metrics.SessionsJournaled.Inc()
		fmt.Fprintln(s.out, "✅ Session saved to the journal")
	}

	if err := s.notifier.SendDecision(ctx, decision); err != nil {
		// Outreach is best effort; the session result already stands.
		s.logger.Warn("Failed to push decision to Telegram", zap.Error(err))
	}

	fmt.Fprintln(s.out, "\n👋 Have a good trading day!")
	return nil
}
