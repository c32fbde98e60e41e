package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trading-risk-assistant-go/internal/cli"
)

const version = "1.0.0"

// newRootCmd builds the command tree. Components are wired lazily in each
// RunE so flag parsing and --help never touch the config or the database.
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "assistant",
		Short: "Pre-trade risk assistant",
		Long: `A personal risk coach for discretionary traders: answer a structured
self-assessment and get a trade/no-trade decision, a risk tier and a
position size, with hard stops that block bad days outright.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			session := cli.NewSession(a.assistant, a.store, a.notifier, a.log, os.Stdout)
			return session.Run(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs", "directory holding config.yml")

	rootCmd.AddCommand(newHistoryCmd(&configPath))
	rootCmd.AddCommand(newExportCmd(&configPath))
	rootCmd.AddCommand(newCoachCmd(&configPath))
	rootCmd.AddCommand(newReportCmd(&configPath))
	rootCmd.AddCommand(newQuestionsCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int
	var tradedOnly bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent journal sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			sessions, err := a.store.Recent(limit, tradedOnly)
			if err != nil {
				return err
			}
			cli.RenderHistory(os.Stdout, sessions)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum sessions to show (0 shows all)")
	cmd.Flags().BoolVar(&tradedOnly, "traded", false, "only sessions where trading was allowed")
	return cmd
}

func newExportCmd(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the journal to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			if err := a.store.ExportXLSX(out); err != nil {
				return err
			}
			fmt.Printf("✅ Journal exported to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "journal_export.xlsx", "output file path")
	return cmd
}

func newCoachCmd(configPath *string) *cobra.Command {
	var notify bool

	cmd := &cobra.Command{
		Use:   "coach",
		Short: "Show behavioural insights from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			insights, err := a.coach.Insights()
			if err != nil {
				return err
			}
			cli.RenderInsights(os.Stdout, insights)
			fmt.Printf("\n💬 %s\n", a.coach.DailyMotivation())

			if notify && len(insights) > 0 {
				for _, insight := range insights {
					if err := a.notifier.SendMessage(cmd.Context(), insight.Message); err != nil {
						return err
					}
				}
				fmt.Println("✅ Insights sent to Telegram")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&notify, "notify", false, "push the insights to Telegram")
	return cmd
}

func newReportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show the weekly journal report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			report, err := a.coach.WeeklyReport()
			if err != nil {
				return err
			}
			cli.RenderReport(os.Stdout, report)
			return nil
		},
	}
}

func newQuestionsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "Show the configured assessment questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			cli.RenderQuestions(os.Stdout, a.assistant.Questions())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("trading-risk-assistant v%s\n", version)
		},
	}
}
