package cmds

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/example/webex-cdr-support/internal/report"
	"github.com/example/webex-cdr-support/internal/webex"
)

// interactiveRemediation prompts the operator on the terminal when the
// stored-report ceiling is reached: delete one report by id, delete all,
// or abort the run.
type interactiveRemediation struct {
	in  io.Reader
	out io.Writer
}

func newInteractiveRemediation() *interactiveRemediation {
	return &interactiveRemediation{in: os.Stdin, out: os.Stdout}
}

func (r *interactiveRemediation) Decide(_ context.Context, stored []webex.Report) (report.Remediation, error) {
	red := color.New(color.FgRed, color.Bold)
	white := color.New(color.FgWhite, color.Bold)

	red.Fprintf(r.out, "You have reached the maximum number of stored reports (%d).\n", report.ReportCeiling)
	fmt.Fprintf(r.out, "Current number of reports: %d\n\n", len(stored))

	for _, s := range stored {
		fmt.Fprintf(r.out, "  %-40s  %-12s  %s..%s\n", s.ID, s.Title, s.StartDate, s.EndDate)
	}

	white.Fprintln(r.out, "\nOptions:\n1: Delete report by ID\n2: Delete all reports\n3: Exit")

	reader := bufio.NewReader(r.in)

	for {
		fmt.Fprint(r.out, "Enter your choice (1, 2, or 3): ")

		choice, err := reader.ReadString('\n')
		if err != nil {
			return report.Remediation{}, fmt.Errorf("failed to read choice: %w", err)
		}

		switch strings.TrimSpace(choice) {
		case "1":
			fmt.Fprint(r.out, "Enter the report ID to delete: ")

			id, err := reader.ReadString('\n')
			if err != nil {
				return report.Remediation{}, fmt.Errorf("failed to read report id: %w", err)
			}

			return report.Remediation{
				Action:   report.RemediationDeleteOne,
				ReportID: strings.TrimSpace(id),
			}, nil

		case "2":
			return report.Remediation{Action: report.RemediationDeleteAll}, nil

		case "3":
			return report.Remediation{Action: report.RemediationAbort}, nil
		}
	}
}
