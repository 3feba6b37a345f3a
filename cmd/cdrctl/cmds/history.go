package cmds

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/example/webex-cdr-support/internal/database"
)

func GetHistoryCommand() *cobra.Command {
	var (
		date    string
		fromStr string
		toStr   string
		outcome string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query stored run summaries",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			providers := getProviders(ctx, cmd)

			if providers.History == nil {
				logrus.Fatal("run history requires a configured MongoDB URL")
			}

			var opts []database.QueryOption

			if date != "" {
				if fromStr != "" || toStr != "" {
					logrus.Fatal("either --date or (--from and --to) may be used")
				}

				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					logrus.Fatal("invalid value for --date")
				}
				opts = append(opts, database.WithDate(parsed))
			}

			if fromStr != "" {
				from, err := time.Parse(time.RFC3339, fromStr)
				if err != nil {
					logrus.Fatal("invalid value for --from")
				}
				opts = append(opts, database.WithFrom(from))
			}

			if toStr != "" {
				to, err := time.Parse(time.RFC3339, toStr)
				if err != nil {
					logrus.Fatal("invalid value for --to")
				}
				opts = append(opts, database.WithTo(to))
			}

			if outcome != "" {
				opts = append(opts, database.WithOutcome(outcome))
			}

			summaries, err := providers.History.Search(ctx, opts...)
			if err != nil {
				logrus.Fatalf("failed to search run history: %s", err)
			}

			if len(summaries) == 0 {
				fmt.Println("no matching runs")
				return
			}

			fmt.Printf("%-20s  %-14s  %8s  %8s  %8s  %10s\n", "Date", "Outcome", "Calls", "Conn", "VM", "Duration")
			for _, s := range summaries {
				fmt.Printf("%-20s  %-14s  %8d  %8d  %8d  %9ds\n",
					s.Date.Format("2006-01-02 15:04"), s.Outcome,
					s.TotalCalls, s.ConnectedCalls, s.VoicemailCalls, s.TotalDuration)
			}
		},
	}

	f := cmd.Flags()
	{
		f.StringVar(&date, "date", "", "runs started on this day (YYYY-MM-DD)")
		f.StringVar(&fromStr, "from", "", "runs started at or after this time (RFC3339)")
		f.StringVar(&toStr, "to", "", "runs started at or before this time (RFC3339)")
		f.StringVar(&outcome, "outcome", "", "filter by terminal outcome")
	}

	return cmd
}
