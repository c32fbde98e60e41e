package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"trading-risk-assistant-go/internal/coach"
	"trading-risk-assistant-go/internal/config"
	"trading-risk-assistant-go/internal/journal"
	"trading-risk-assistant-go/internal/models"
	"trading-risk-assistant-go/internal/risk"
)

// Score bands for the breakdown icons.
const (
	bandGood = 70.0
	bandWeak = 40.0
)

var categoryTitles = map[string]string{
	config.CategoryPsychology:          "🧠 PSYCHOLOGY",
	config.CategoryMarketConditions:    "📈 MARKET CONDITIONS",
	config.CategoryTechnicalConfluence: "🔍 TECHNICAL CONFLUENCE",
}

// CategoryTitle returns the display heading for a category.
func CategoryTitle(category string) string {
	if title, ok := categoryTitles[category]; ok {
		return title
	}
	return strings.ToUpper(strings.ReplaceAll(category, "_", " "))
}

// RenderDecision writes the evaluation summary table.
func RenderDecision(w io.Writer, decision *risk.Decision) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("TODAY'S DECISION")
	t.SetStyle(table.StyleRounded)

	if !decision.HardStops.Passed {
		t.AppendRow(table.Row{"Decision", "🚫 BLOCKED BY HARD STOPS"})
		for i, check := range decision.HardStops.FailedChecks {
			t.AppendRow(table.Row{fmt.Sprintf("Check %d", i+1), check})
		}
		t.Render()
		fmt.Fprintln(w, "\nNo trading today. The rules caught you before the market did.")
		return
	}

	verdict := "⚠️  NO TRADE — the score is not there"
	if decision.ShouldTrade {
		verdict = fmt.Sprintf("✅ TRADE at %.0f%% risk", decision.RiskPercent)
	}
	t.AppendRows([]table.Row{
		{"Final score", fmt.Sprintf("%.1f / 100", decision.FinalScore)},
		{"Decision", verdict},
	})
	t.AppendSeparator()
	for _, category := range config.Categories() {
		t.AppendRow(table.Row{CategoryTitle(category), fmt.Sprintf("%.1f", decision.CategoryScores[category])})
	}
	if decision.LotSize != nil && decision.TradeDetails != nil {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Lot size", fmt.Sprintf("%.2f lots on %s", *decision.LotSize, decision.TradeDetails.Instrument)},
			{"At risk", fmt.Sprintf("$%.2f (%.0f pips stop)",
				risk.RiskAmount(decision.TradeDetails.AccountBalance, decision.RiskPercent),
				decision.TradeDetails.StopLossPips)},
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 24, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, Align: text.AlignLeft},
	})
	t.Render()
}

// RenderBreakdown writes the per-answer detail tables, one per category.
func RenderBreakdown(w io.Writer, decision *risk.Decision) {
	for _, category := range config.Categories() {
		records := decision.Breakdown[category]
		if len(records) == 0 {
			continue
		}

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle(CategoryTitle(category))
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"", "Question", "Answer", "Score"})

		for _, record := range records {
			icon := "❌"
			switch {
			case record.Normalized >= bandGood:
				icon = "✅"
			case record.Normalized >= bandWeak:
				icon = "⚠️"
			}
			t.AppendRow(table.Row{
				icon,
				record.QuestionText,
				fmt.Sprintf("%v", record.RawValue),
				fmt.Sprintf("%.1f", record.Normalized),
			})
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, WidthMax: 52},
		})
		t.Render()
		fmt.Fprintln(w)
	}
}

// RenderHistory writes the journal listing, newest first.
func RenderHistory(w io.Writer, sessions []models.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "The journal is empty. Run an assessment first.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("JOURNAL")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Date", "Score", "Decision", "Risk %", "Lot", "Instrument", "Notes"})

	for _, session := range sessions {
		decision := "no trade"
		switch {
		case !session.HardStopsPassed:
			decision = "🚫 blocked"
		case session.ShouldTrade:
			decision = "✅ trade"
		}
		lot := ""
		if session.LotSize > 0 {
			lot = fmt.Sprintf("%.2f", session.LotSize)
		}
		t.AppendRow(table.Row{
			time.Unix(session.Timestamp, 0).Format("2006-01-02 15:04"),
			fmt.Sprintf("%.1f", session.FinalScore),
			decision,
			fmt.Sprintf("%.0f", session.RiskPercent),
			lot,
			session.Instrument,
			session.Notes,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 7, WidthMax: 36},
	})
	t.Render()
}

// RenderInsights writes the coach findings as a bullet list.
func RenderInsights(w io.Writer, insights []coach.Insight) {
	if len(insights) == 0 {
		fmt.Fprintln(w, "No patterns worth flagging. Keep journaling.")
		return
	}
	for _, insight := range insights {
		fmt.Fprintf(w, "  • %s\n", insight.Message)
	}
}

// RenderReport writes the weekly report: summary table, insights, motivation.
func RenderReport(w io.Writer, report *coach.Report) {
	RenderSummary(w, report.Summary)
	fmt.Fprintln(w)
	RenderInsights(w, report.Insights)
	fmt.Fprintf(w, "\n💬 %s\n", report.Message)
}

// RenderSummary writes the trailing-window journal numbers.
func RenderSummary(w io.Writer, summary *journal.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("LAST %d DAYS", summary.Days))
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Sessions", summary.TotalSessions},
		{"Trades taken", summary.TradesTaken},
		{"Average score", fmt.Sprintf("%.1f", summary.AvgScore)},
		{"Trade rate", fmt.Sprintf("%.0f%%", summary.TradeRate)},
		{"2% risk sessions", summary.Risk2Count},
		{"3% risk sessions", summary.Risk3Count},
		{"Hard stop blocks", summary.HardStopFails},
	})
	t.Render()
}

// RenderQuestions writes the configured question lists per category.
func RenderQuestions(w io.Writer, questions map[string][]config.QuestionSpec) {
	for _, category := range config.Categories() {
		specs := questions[category]
		if len(specs) == 0 {
			continue
		}

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle(CategoryTitle(category))
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"ID", "Question", "Type", "Range", "Weight"})

		for _, q := range specs {
			rng := ""
			if q.Type != config.QuestionTypeBoolean {
				min, max := q.Bounds()
				rng = fmt.Sprintf("%v-%v", min, max)
			}
			kind := q.Type
			if q.ReverseScore {
				kind += " (reversed)"
			}
			t.AppendRow(table.Row{q.ID, q.Question, kind, rng, fmt.Sprintf("%.1f", q.EffectiveWeight())})
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, WidthMax: 52},
		})
		t.Render()
		fmt.Fprintln(w)
	}
}
