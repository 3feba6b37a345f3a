package cmds

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/example/webex-cdr-support/internal/report"
)

func GetRunCommand() *cobra.Command {
	var (
		days     int
		startStr string
		endStr   string
		auto     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one CDR report end-to-end and print the aggregated metrics",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			providers := getProviders(ctx, cmd)

			// command-line schedule flags override the configuration.
			if days != 0 {
				providers.Config.ReportDays = days
			}
			if startStr != "" || endStr != "" {
				if startStr == "" || endStr == "" {
					logrus.Fatal("--start and --end must both be set")
				}
				if _, err := time.Parse("2006-01-02", startStr); err != nil {
					logrus.Fatal("invalid value for --start")
				}
				if _, err := time.Parse("2006-01-02", endStr); err != nil {
					logrus.Fatal("invalid value for --end")
				}

				providers.Config.ReportDays = 0
				providers.Config.ReportStartDate = startStr
				providers.Config.ReportEndDate = endStr
			}

			var strategy report.RemediationStrategy = newInteractiveRemediation()
			if auto {
				strategy = report.DeleteOldest{}
			}

			orchestrator := providers.NewOrchestrator(strategy, report.ProgressFunc(func(status report.Status, elapsed time.Duration) {
				fmt.Printf("waiting for report to complete, current status: %s (elapsed %s)\n", status, elapsed.Round(time.Second))
			}))

			outcome := orchestrator.Run(ctx)

			switch outcome.Code {
			case report.OutcomeCompleted:
				printOutcome(outcome)

			case report.OutcomeNoData:
				color.Yellow("no CDR data available for the configured window")

			case report.OutcomeQuotaExceeded:
				color.Red("stored report quota exceeded, run aborted")

			default:
				logrus.Fatalf("report run failed: %s", outcome.Err)
			}
		},
	}

	f := cmd.Flags()
	{
		f.IntVar(&days, "days", 0, "report the last N days (1..31)")
		f.StringVar(&startStr, "start", "", "report start date (YYYY-MM-DD)")
		f.StringVar(&endStr, "end", "", "report end date (YYYY-MM-DD)")
		f.BoolVar(&auto, "auto-remediate", false, "delete the oldest stored report instead of prompting when at the quota ceiling")
	}

	return cmd
}

func printOutcome(outcome report.Outcome) {
	bold := color.New(color.Bold)

	m := outcome.Metrics

	bold.Println("Report run completed")
	fmt.Printf("  raw CSV:        %s\n", outcome.CSVPath)
	fmt.Printf("  total calls:    %d\n", m.TotalCalls)
	fmt.Printf("  connected:      %d\n", m.ConnectedCalls)
	fmt.Printf("  voicemail:      %d\n", m.VoicemailCalls)
	fmt.Printf("  total duration: %ds\n", m.TotalDuration)
	fmt.Printf("  avg response:   %.1fs\n", m.AverageResponseTime())

	printTable := func(title, keyHeader string, rows []report.BucketRow) {
		if len(rows) == 0 {
			return
		}

		bold.Printf("\n%s\n", title)
		fmt.Printf("  %-30s %12s %12s %12s %12s\n", keyHeader, "TotalCalls", "Connected", "Voicemail", "Duration")
		for _, r := range rows {
			fmt.Printf("  %-30s %12d %12d %12d %12d\n", r.Key, r.TotalCalls, r.ConnectedCalls, r.VoicemailCalls, r.TotalDuration)
		}
	}

	printTable("Department Calls Summary", "Department", outcome.Departments)
	printTable("User Calls Summary", "User", outcome.Users)
}
