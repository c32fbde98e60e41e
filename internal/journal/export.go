package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// exportColumns are the Sessions sheet headers, in column order.
var exportColumns = []string{
	"Session", "Date", "Score", "Hard Stops", "Decision", "Risk %",
	"Instrument", "Lot Size", "Balance", "SL Pips", "Losses", "Daily Loss %", "Notes",
}

// ExportXLSX writes the whole journal to a styled workbook with a Sessions
// sheet and a 7-day Summary sheet.
func (s *Store) ExportXLSX(path string) error {
	sessions, err := s.Recent(0, false)
	if err != nil {
		return err
	}
	summary, err := s.Stats(7)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const sessionsSheet = "Sessions"
	const summarySheet = "Summary"
	fx.SetSheetName(fx.GetSheetName(0), sessionsSheet)
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	blockedStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "FF0000"},
	})
	if err != nil {
		return fmt.Errorf("failed to create blocked style: %w", err)
	}

	for i, header := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sessionsSheet, cell, header)
		fx.SetCellStyle(sessionsSheet, cell, cell, headerStyle)
	}

	for row, session := range sessions {
		decision := "NO TRADE"
		if session.ShouldTrade {
			decision = "TRADE"
		}
		hardStops := "passed"
		if !session.HardStopsPassed {
			hardStops = "FAILED"
		}

		values := []any{
			session.SessionID,
			time.Unix(session.Timestamp, 0).Format("2006-01-02 15:04"),
			session.FinalScore,
			hardStops,
			decision,
			session.RiskPercent,
			session.Instrument,
			session.LotSize,
			session.AccountBalance,
			session.StopLossPips,
			session.ConsecutiveLosses,
			session.DailyLossPercent,
			session.Notes,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			fx.SetCellValue(sessionsSheet, cell, value)
		}
		if !session.HardStopsPassed {
			first, _ := excelize.CoordinatesToCellName(1, row+2)
			last, _ := excelize.CoordinatesToCellName(len(values), row+2)
			fx.SetCellStyle(sessionsSheet, first, last, blockedStyle)
		}
	}
	fx.SetColWidth(sessionsSheet, "A", "A", 28)
	fx.SetColWidth(sessionsSheet, "B", "B", 18)
	fx.SetColWidth(sessionsSheet, "M", "M", 40)

	summaryRows := [][2]any{
		{"Window (days)", summary.Days},
		{"Total sessions", summary.TotalSessions},
		{"Trades taken", summary.TradesTaken},
		{"Average score", summary.AvgScore},
		{"Trade rate %", summary.TradeRate},
		{"2% risk sessions", summary.Risk2Count},
		{"3% risk sessions", summary.Risk3Count},
		{"Hard stop failures", summary.HardStopFails},
	}
	fx.SetCellValue(summarySheet, "A1", "Metric")
	fx.SetCellValue(summarySheet, "B1", "Value")
	fx.SetCellStyle(summarySheet, "A1", "B1", headerStyle)
	for i, row := range summaryRows {
		fx.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+2), row[0])
		fx.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+2), row[1])
	}
	fx.SetColWidth(summarySheet, "A", "A", 22)

	if err := fx.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	s.logger.Info("Journal exported", zap.String("path", path), zap.Int("sessions", len(sessions)))
	return nil
}
