package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	path    string
	err     error
	columns []string
	rows    []Row
}

func (s *fakeSink) Write(columns []string, rows []Row) (string, error) {
	s.columns = columns
	s.rows = rows

	return s.path, s.err
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *fakeRecorder) RecordRun(_ context.Context, outcome Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcomes = append(r.outcomes, outcome)

	return nil
}

func newTestOrchestrator(gw Gateway, schedule Schedule, opts ...OrchestratorOption) *Orchestrator {
	return NewOrchestrator(gw, NewQuotaGuard(gw, nil), fastPoller(gw), schedule, opts...)
}

func TestOrchestratorCompletedRun(t *testing.T) {
	gw := &fakeGateway{
		createID: "R1",
		statuses: []string{"pending", "done"},
		lines: []string{
			"Department ID,User,Answered,Duration,Call outcome reason",
			"sales,alice,true,60,",
			"sales,bob,false,0,Voicemail",
			"support,carol,true,30,",
		},
	}

	sink := &fakeSink{path: "/tmp/cdr_output.csv"}
	recorder := &fakeRecorder{}

	o := newTestOrchestrator(gw, Schedule{Days: 7},
		WithSink(sink),
		WithRunRecorder(recorder),
	)

	outcome := o.Run(context.Background())

	require.Equal(t, OutcomeCompleted, outcome.Code)
	require.NoError(t, outcome.Err)

	assert.NotEmpty(t, outcome.RunID)
	assert.Equal(t, "R1", outcome.ReportID)
	assert.Equal(t, "/tmp/cdr_output.csv", outcome.CSVPath)
	assert.Equal(t, 3, outcome.RowCount)

	require.NotNil(t, outcome.Metrics)
	assert.Equal(t, 3, outcome.Metrics.TotalCalls)
	assert.Equal(t, 2, outcome.Metrics.ConnectedCalls)
	assert.Equal(t, 1, outcome.Metrics.VoicemailCalls)
	assert.Equal(t, int64(90), outcome.Metrics.TotalDuration)

	require.Len(t, outcome.Departments, 2)
	assert.Equal(t, "sales", outcome.Departments[0].Key)
	assert.Equal(t, 2, outcome.Departments[0].TotalCalls)
	require.Len(t, outcome.Users, 3)

	// raw rows went to the sink before the remote report was deleted.
	assert.Len(t, sink.rows, 3)
	assert.Equal(t, []string{"R1"}, gw.deletedIDs())

	require.Len(t, recorder.outcomes, 1)
	assert.Equal(t, OutcomeCompleted, recorder.outcomes[0].Code)
}

func TestOrchestratorMalformedReport(t *testing.T) {
	gw := &fakeGateway{
		createID: "R1",
		statuses: []string{"done"},
		lines: []string{
			"Department ID,User",
			"sales,alice",
			"support",
		},
	}

	o := newTestOrchestrator(gw, Schedule{Days: 1})

	outcome := o.Run(context.Background())

	require.Equal(t, OutcomeFailed, outcome.Code)

	var malformedErr *MalformedReportError
	require.True(t, errors.As(outcome.Err, &malformedErr))

	// the remote report is deleted even though the run failed.
	assert.Equal(t, []string{"R1"}, gw.deletedIDs())
}

func TestOrchestratorNoData(t *testing.T) {
	gw := &fakeGateway{
		createID: "R1",
		statuses: []string{"done"},
	}

	sink := &fakeSink{path: "/tmp/never.csv"}
	o := newTestOrchestrator(gw, Schedule{Days: 1}, WithSink(sink))

	outcome := o.Run(context.Background())

	assert.Equal(t, OutcomeNoData, outcome.Code)
	assert.NoError(t, outcome.Err)
	assert.Empty(t, outcome.CSVPath, "no CSV is written for an empty report")
	assert.Equal(t, []string{"R1"}, gw.deletedIDs())
}

func TestOrchestratorHeaderOnlyReportIsNoData(t *testing.T) {
	gw := &fakeGateway{
		createID: "R1",
		statuses: []string{"done"},
		lines:    []string{"Department ID,User,Answered,Duration"},
	}

	sink := &fakeSink{path: "/tmp/never.csv"}
	o := newTestOrchestrator(gw, Schedule{Days: 1}, WithSink(sink))

	outcome := o.Run(context.Background())

	assert.Equal(t, OutcomeNoData, outcome.Code)
	assert.NoError(t, outcome.Err)
	assert.Zero(t, outcome.RowCount)
	assert.Empty(t, outcome.CSVPath)
	assert.Nil(t, sink.rows, "a header-only report must not reach the sink")
	assert.Equal(t, []string{"R1"}, gw.deletedIDs())
}

func TestOrchestratorQuotaExceeded(t *testing.T) {
	gw := &fakeGateway{
		createID: "R1",
		stored:   storedReports(ReportCeiling),
	}

	o := newTestOrchestrator(gw, Schedule{Days: 1})

	outcome := o.Run(context.Background())

	assert.Equal(t, OutcomeQuotaExceeded, outcome.Code)
	assert.ErrorIs(t, outcome.Err, ErrQuotaExceeded)
	assert.Zero(t, gw.createCalls, "no report may be created over quota")
}

func TestOrchestratorPollTimeout(t *testing.T) {
	gw := &fakeGateway{
		createID: "R1",
		statuses: []string{"pending"},
	}

	o := NewOrchestrator(gw, NewQuotaGuard(gw, nil),
		fastPoller(gw, WithPollTimeout(20*time.Millisecond)),
		Schedule{Days: 1})

	outcome := o.Run(context.Background())

	assert.Equal(t, OutcomeFailed, outcome.Code)
	assert.ErrorIs(t, outcome.Err, ErrPollTimeout)

	// the half-finished remote report does not leak quota.
	assert.Equal(t, []string{"R1"}, gw.deletedIDs())
}

func TestOrchestratorNoSchedule(t *testing.T) {
	gw := &fakeGateway{}

	o := newTestOrchestrator(gw, Schedule{})

	outcome := o.Run(context.Background())

	assert.Equal(t, OutcomeFailed, outcome.Code)
	assert.ErrorIs(t, outcome.Err, ErrNoScheduleConfigured)
}

func TestOrchestratorSinkFailure(t *testing.T) {
	gw := &fakeGateway{
		createID: "R1",
		statuses: []string{"done"},
		lines:    []string{"User", "alice"},
	}

	sink := &fakeSink{err: errors.New("disk full")}
	recorder := &fakeRecorder{}

	o := newTestOrchestrator(gw, Schedule{Days: 1}, WithSink(sink), WithRunRecorder(recorder))

	outcome := o.Run(context.Background())

	assert.Equal(t, OutcomeFailed, outcome.Code)
	require.Error(t, outcome.Err)
	assert.Equal(t, []string{"R1"}, gw.deletedIDs())

	require.Len(t, recorder.outcomes, 1)
	assert.Equal(t, OutcomeFailed, recorder.outcomes[0].Code)
}

func TestScheduleParams(t *testing.T) {
	p, err := Schedule{Days: 5}.params()
	require.NoError(t, err)
	assert.Equal(t, 5, p.Days)

	start, end := date("2024-01-01"), date("2024-01-10")
	p, err = Schedule{Start: start, End: end}.params()
	require.NoError(t, err)
	assert.Equal(t, start, p.Start)
	assert.Equal(t, end, p.End)

	_, err = Schedule{}.params()
	assert.ErrorIs(t, err, ErrNoScheduleConfigured)
}
