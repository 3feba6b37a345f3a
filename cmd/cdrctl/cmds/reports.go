package cmds

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func GetReportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect and delete reports stored on the platform",
	}

	cmd.AddCommand(
		getReportsListCommand(),
		getReportsDeleteCommand(),
	)

	return cmd
}

func getReportsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored reports",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			providers := getProviders(ctx, cmd)

			stored, err := providers.Webex.ListReports(ctx)
			if err != nil {
				logrus.Fatalf("failed to list reports: %s", err)
			}

			if len(stored) == 0 {
				fmt.Println("no stored reports")
				return
			}

			fmt.Printf("%-40s  %-30s  %-10s  %-10s  %s\n", "ID", "Title", "Start", "End", "Status")
			for _, r := range stored {
				fmt.Printf("%-40s  %-30s  %-10s  %-10s  %s\n", r.ID, r.Title, r.StartDate, r.EndDate, r.Status)
			}
		},
	}
}

func getReportsDeleteCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "delete [id...]",
		Short: "Delete stored reports by id, or all of them",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			providers := getProviders(ctx, cmd)

			ids := args

			if all {
				stored, err := providers.Webex.ListReports(ctx)
				if err != nil {
					logrus.Fatalf("failed to list reports: %s", err)
				}

				ids = ids[:0]
				for _, r := range stored {
					ids = append(ids, r.ID)
				}
			}

			if len(ids) == 0 {
				logrus.Fatal("either pass report ids or --all")
			}

			errs := new(multierror.Error)
			for _, id := range ids {
				if err := providers.Webex.DeleteReport(ctx, id); err != nil {
					errs = multierror.Append(errs, err)
					continue
				}

				fmt.Printf("deleted report %s\n", id)
			}

			if err := errs.ErrorOrNil(); err != nil {
				logrus.Fatalf("failed to delete some reports: %s", err)
			}
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "delete every stored report")

	return cmd
}
