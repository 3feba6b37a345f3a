package report

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters is returned when a day-count or date range
	// outside the platform limits reaches the poller.
	ErrInvalidParameters = errors.New("invalid report parameters")

	// ErrReportCreationFailed is returned when the gateway accepted the
	// creation request but did not hand back a report id.
	ErrReportCreationFailed = errors.New("report creation returned no id")

	// ErrPollTimeout is returned when the remote report did not reach the
	// done state within the poll ceiling. The remote report is considered
	// abandoned; deletion is up to the caller.
	ErrPollTimeout = errors.New("timeout reached while waiting for the report")

	// ErrNoScheduleConfigured is returned when neither a day-count nor a
	// start/end date pair is available.
	ErrNoScheduleConfigured = errors.New("no day-count or date range configured for the report")

	// ErrQuotaExceeded marks a run that stopped because the stored-report
	// ceiling could not be freed.
	ErrQuotaExceeded = errors.New("stored report quota exceeded")
)

// GatewayError wraps a transport or HTTP failure reported by the remote
// report gateway. StatusCode is zero when no HTTP response was received.
type GatewayError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway error: %d: %s", e.StatusCode, e.Message)
	}

	return fmt.Sprintf("gateway error: %s", e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// MalformedReportError is returned when the tabular report payload cannot
// be parsed, most notably on a row field-count mismatch.
type MalformedReportError struct {
	Line int
	Err  error
}

func (e *MalformedReportError) Error() string {
	return fmt.Sprintf("malformed report at line %d: %s", e.Line, e.Err)
}

func (e *MalformedReportError) Unwrap() error { return e.Err }
