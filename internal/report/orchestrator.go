package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/webex-cdr-support/internal/metrics"
)

// OutcomeCode is the terminal state of one report run.
type OutcomeCode string

const (
	OutcomeCompleted     OutcomeCode = "completed"
	OutcomeNoData        OutcomeCode = "no_data"
	OutcomeQuotaExceeded OutcomeCode = "quota_exceeded"
	OutcomeFailed        OutcomeCode = "failed"
)

// Outcome is the result of one orchestrator run. Err is only set for
// OutcomeFailed and OutcomeQuotaExceeded.
type Outcome struct {
	RunID    string
	Code     OutcomeCode
	Err      error
	Params   Params
	ReportID string
	CSVPath  string
	RowCount int
	Metrics  *Snapshot

	Departments []BucketRow
	Users       []BucketRow

	Started  time.Time
	Finished time.Time
}

// Sink persists the raw row sequence, typically to a CSV file, and
// returns the path it wrote to.
type Sink interface {
	Write(columns []string, rows []Row) (string, error)
}

// RunRecorder stores a summary of a finished run. Recording is
// best-effort; failures are logged, never surfaced.
type RunRecorder interface {
	RecordRun(ctx context.Context, outcome Outcome) error
}

// Schedule is the report window configuration: a day-count is preferred
// over a start/end date pair when both are present.
type Schedule struct {
	Days  int
	Start time.Time
	End   time.Time
}

func (s Schedule) params() (Params, error) {
	switch {
	case s.Days != 0:
		return Params{Days: s.Days}, nil
	case !s.Start.IsZero() && !s.End.IsZero():
		return Params{Start: s.Start, End: s.End}, nil
	default:
		return Params{}, ErrNoScheduleConfigured
	}
}

// Orchestrator composes the quota guard, the poller, the aggregator and
// the sink into one end-to-end report run.
type Orchestrator struct {
	gateway    Gateway
	guard      *QuotaGuard
	poller     *Poller
	sink       Sink
	normalizer *NumberNormalizer
	recorder   RunRecorder
	schedule   Schedule
	log        *logrus.Entry
}

type OrchestratorOption func(*Orchestrator)

// WithSink installs the raw-row sink.
func WithSink(s Sink) OrchestratorOption {
	return func(o *Orchestrator) { o.sink = s }
}

// WithNormalizer installs a phone-number normalizer applied after parsing.
func WithNormalizer(n *NumberNormalizer) OrchestratorOption {
	return func(o *Orchestrator) { o.normalizer = n }
}

// WithRunRecorder installs a best-effort run history recorder.
func WithRunRecorder(r RunRecorder) OrchestratorOption {
	return func(o *Orchestrator) { o.recorder = r }
}

func NewOrchestrator(gateway Gateway, guard *QuotaGuard, poller *Poller, schedule Schedule, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		gateway:  gateway,
		guard:    guard,
		poller:   poller,
		schedule: schedule,
		log:      logrus.WithField("component", "orchestrator"),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run executes one report run: quota check, create and poll, parse,
// aggregate, persist, cleanup. It never returns an error or lets a panic
// escape; every failure becomes a terminal Outcome.
//
// Once a report id exists the remote report is ALWAYS deleted, on every
// path including parse failures and poll timeouts. This deliberately
// deviates from only deleting after a fully successful run: stored
// reports are a quota-limited resource and must not leak.
func (o *Orchestrator) Run(ctx context.Context) (outcome Outcome) {
	outcome = Outcome{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}

	log := o.log.WithField("runID", outcome.RunID)

	defer func() {
		if r := recover(); r != nil {
			outcome.Code = OutcomeFailed
			outcome.Err = fmt.Errorf("run panicked: %v", r)
		}

		outcome.Finished = time.Now()

		metrics.ReportRunsTotal.WithLabelValues(string(outcome.Code)).Inc()
		metrics.RunDuration.Observe(outcome.Finished.Sub(outcome.Started).Seconds())

		if outcome.Err != nil {
			log.Errorf("run finished with outcome %s: %s", outcome.Code, outcome.Err)
		} else {
			log.Infof("run finished with outcome %s", outcome.Code)
		}

		o.record(outcome)
	}()

	params, err := o.schedule.params()
	if err != nil {
		outcome.Code = OutcomeFailed
		outcome.Err = err

		return outcome
	}
	outcome.Params = params

	ok, err := o.guard.EnsureCapacity(ctx)
	if err != nil {
		outcome.Code = OutcomeFailed
		outcome.Err = err

		return outcome
	}
	if !ok {
		outcome.Code = OutcomeQuotaExceeded
		outcome.Err = ErrQuotaExceeded

		return outcome
	}

	result, pollErr := o.poller.CreateAndAwait(ctx, params)

	outcome.ReportID = result.ReportID
	if result.ReportID != "" {
		defer o.cleanup(result.ReportID, log)
	}

	if pollErr != nil {
		outcome.Code = OutcomeFailed
		outcome.Err = pollErr

		return outcome
	}

	if result.NoData() {
		outcome.Code = OutcomeNoData

		return outcome
	}

	table, err := ParseLines(result.Lines)
	if err != nil {
		outcome.Code = OutcomeFailed
		outcome.Err = err

		return outcome
	}
	outcome.RowCount = len(table.Rows)

	// a header-only download carries no call records.
	if len(table.Rows) == 0 {
		outcome.Code = OutcomeNoData

		return outcome
	}

	if o.normalizer != nil {
		o.normalizer.Normalize(table.Rows)
	}

	agg := NewAggregator()
	for _, row := range table.Rows {
		agg.Ingest(row)
		metrics.RowsProcessedTotal.Inc()
	}

	outcome.Metrics = agg.Snapshot()
	outcome.Departments = agg.DepartmentTable()
	outcome.Users = agg.UserTable()

	// persist raw rows before the remote report is deleted so the data
	// survives even if cleanup or recording fails.
	if o.sink != nil {
		path, err := o.sink.Write(table.Columns, table.Rows)
		if err != nil {
			outcome.Code = OutcomeFailed
			outcome.Err = fmt.Errorf("failed to persist raw rows: %w", err)

			return outcome
		}
		outcome.CSVPath = path
	}

	outcome.Code = OutcomeCompleted

	return outcome
}

// cleanup deletes the remote report. It runs detached from the run
// context so cancellation cannot leak quota.
func (o *Orchestrator) cleanup(reportID string, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := o.gateway.DeleteReport(ctx, reportID); err != nil {
		log.Errorf("failed to delete remote report %q: %s", reportID, err)

		return
	}

	log.Infof("deleted remote report %q", reportID)
}

func (o *Orchestrator) record(outcome Outcome) {
	if o.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := o.recorder.RecordRun(ctx, outcome); err != nil {
		o.log.Errorf("failed to record run %s: %s", outcome.RunID, err)
	}
}
