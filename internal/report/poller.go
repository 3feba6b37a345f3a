package report

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/webex-cdr-support/internal/metrics"
)

const (
	// DefaultPollInterval is the pause between status checks.
	DefaultPollInterval = 30 * time.Second

	// DefaultPollTimeout is the wall-clock ceiling for one report to
	// reach the done state.
	DefaultPollTimeout = 30 * time.Minute
)

// ProgressObserver is notified on every poll tick. Notifications are
// advisory: implementations must return quickly and must not fail.
type ProgressObserver interface {
	PollTick(status Status, elapsed time.Duration)
}

// ProgressFunc adapts a plain function to the ProgressObserver interface.
type ProgressFunc func(status Status, elapsed time.Duration)

func (f ProgressFunc) PollTick(status Status, elapsed time.Duration) { f(status, elapsed) }

// Result is the outcome of a successful or timed-out poll sequence. The
// ReportID is populated as soon as the remote report exists so callers can
// clean it up on any path.
type Result struct {
	ReportID string
	Status   Status
	Lines    []string
}

// NoData reports whether the remote report finished but produced no rows.
func (r Result) NoData() bool {
	return r.Status == StatusDone && len(r.Lines) == 0
}

// Poller drives the creation → poll → ready state machine for a single
// report. Only the timeout governs the poll loop; transport errors are not
// retried.
type Poller struct {
	gateway  Gateway
	interval time.Duration
	timeout  time.Duration
	observer ProgressObserver
	now      func() time.Time
	log      *logrus.Entry
}

type PollerOption func(*Poller)

// WithPollInterval overrides the pause between status checks.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

// WithPollTimeout overrides the wall-clock ceiling.
func WithPollTimeout(d time.Duration) PollerOption {
	return func(p *Poller) { p.timeout = d }
}

// WithObserver installs a progress observer.
func WithObserver(o ProgressObserver) PollerOption {
	return func(p *Poller) { p.observer = o }
}

func NewPoller(gateway Gateway, opts ...PollerOption) *Poller {
	p := &Poller{
		gateway:  gateway,
		interval: DefaultPollInterval,
		timeout:  DefaultPollTimeout,
		now:      time.Now,
		log:      logrus.WithField("component", "poller"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// CreateAndAwait issues the creation request and polls until the report is
// done, the timeout ceiling is exceeded, or the context is cancelled. On
// ErrPollTimeout the returned Result still carries the report id; the
// remote report is abandoned and deletion is the caller's decision.
func (p *Poller) CreateAndAwait(ctx context.Context, params Params) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	start, end := params.Window(p.now())

	id, err := p.gateway.CreateCDRReport(ctx, start, end)
	if err != nil {
		return Result{}, asGatewayError(err)
	}
	if id == "" {
		return Result{}, ErrReportCreationFailed
	}

	result := Result{ReportID: id, Status: StatusPending}
	log := p.log.WithField("reportID", id)
	log.Infof("report created, polling every %s (ceiling %s)", p.interval, p.timeout)

	begin := p.now()
	deadline := begin.Add(p.timeout)
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		if p.now().After(deadline) {
			result.Status = StatusTimedOut
			log.Warn("timeout reached while waiting for the report")

			return result, ErrPollTimeout
		}

		select {
		case <-ctx.Done():
			result.Status = StatusTimedOut

			return result, fmt.Errorf("%w: %w", ErrPollTimeout, ctx.Err())
		case <-timer.C:
		}

		status, err := p.gateway.ReportStatus(ctx, id)
		if err != nil {
			return result, asGatewayError(err)
		}

		metrics.PollTicksTotal.Inc()
		p.notify(Status(status), p.now().Sub(begin))

		log.Debugf("report status: %s", status)

		if status == string(StatusDone) {
			break
		}

		// a remote "failed" status is not terminal on the platform; the
		// report may still finish, so keep polling until the ceiling.
		if status == string(StatusFailed) {
			log.Warnf("report has status %q, continuing to poll", status)
		}

		timer.Reset(p.interval)
	}

	result.Status = StatusDone

	lines, err := p.gateway.GetReportLines(ctx, id)
	if err != nil {
		return result, asGatewayError(err)
	}

	// an empty download is not an error: the caller can short-circuit
	// without writing an empty CSV.
	result.Lines = lines
	log.Infof("report finished with %d lines", len(lines))

	return result, nil
}

func (p *Poller) notify(status Status, elapsed time.Duration) {
	if p.observer == nil {
		return
	}

	p.observer.PollTick(status, elapsed)
}
