package report

import (
	"context"
	"errors"
	"time"

	"github.com/example/webex-cdr-support/internal/webex"
)

// Status enumerates the lifecycle states of a remote report as tracked by
// the poller.
type Status string

const (
	StatusPending  Status = "pending"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
)

// Gateway is the remote report API surface consumed by the poller, the
// quota guard and the orchestrator. *webex.Client implements it.
type Gateway interface {
	// CreateCDRReport requests a new report for the given date window and
	// returns the assigned report id.
	CreateCDRReport(ctx context.Context, start, end time.Time) (string, error)

	// ReportStatus returns the lowercased generation status of a report.
	ReportStatus(ctx context.Context, id string) (string, error)

	// GetReportLines returns the generated report as text lines, header
	// row first.
	GetReportLines(ctx context.Context, id string) ([]string, error)

	// ListReports returns all currently stored reports.
	ListReports(ctx context.Context) ([]webex.Report, error)

	// DeleteReport removes a stored report.
	DeleteReport(ctx context.Context, id string) error
}

// asGatewayError wraps any error coming out of the gateway into a
// *GatewayError, preserving the HTTP status code and message when the
// underlying error carries them.
func asGatewayError(err error) *GatewayError {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr
	}

	ge := &GatewayError{
		Message: err.Error(),
		Err:     err,
	}

	var apiErr *webex.APIError
	if errors.As(err, &apiErr) {
		ge.StatusCode = apiErr.StatusCode
		ge.Message = apiErr.Message
	}

	return ge
}
