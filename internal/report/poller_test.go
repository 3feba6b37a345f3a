package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/webex-cdr-support/internal/webex"
)

func fastPoller(gw Gateway, opts ...PollerOption) *Poller {
	base := []PollerOption{
		WithPollInterval(time.Millisecond),
		WithPollTimeout(time.Second),
	}

	return NewPoller(gw, append(base, opts...)...)
}

func TestPollerCreateAndAwait(t *testing.T) {
	gw := &fakeGateway{
		createID: "R1",
		statuses: []string{"pending", "pending", "done"},
		lines:    []string{"a,b", "1,2"},
	}

	var ticks []Status
	p := fastPoller(gw, WithObserver(ProgressFunc(func(status Status, _ time.Duration) {
		ticks = append(ticks, status)
	})))

	result, err := p.CreateAndAwait(context.Background(), Params{Days: 7})
	require.NoError(t, err)

	assert.Equal(t, "R1", result.ReportID)
	assert.Equal(t, StatusDone, result.Status)
	assert.Equal(t, []string{"a,b", "1,2"}, result.Lines)
	assert.False(t, result.NoData())
	assert.Equal(t, []Status{"pending", "pending", "done"}, ticks)
}

func TestPollerKeepsPollingThroughFailedStatus(t *testing.T) {
	gw := &fakeGateway{
		createID: "R1",
		statuses: []string{"pending", "failed", "done"},
		lines:    []string{"a,b", "1,2"},
	}

	var ticks []Status
	p := fastPoller(gw, WithObserver(ProgressFunc(func(status Status, _ time.Duration) {
		ticks = append(ticks, status)
	})))

	result, err := p.CreateAndAwait(context.Background(), Params{Days: 1})
	require.NoError(t, err)

	assert.Equal(t, StatusDone, result.Status)
	assert.Equal(t, []Status{StatusPending, StatusFailed, StatusDone}, ticks)
}

func TestPollerTimeout(t *testing.T) {
	gw := &fakeGateway{
		createID: "R1",
		statuses: []string{"pending"},
	}

	p := fastPoller(gw, WithPollTimeout(20*time.Millisecond))

	result, err := p.CreateAndAwait(context.Background(), Params{Days: 1})
	require.ErrorIs(t, err, ErrPollTimeout)

	// the id survives the timeout so the caller can still delete the
	// abandoned report.
	assert.Equal(t, "R1", result.ReportID)
	assert.Equal(t, StatusTimedOut, result.Status)
}

func TestPollerContextCancelled(t *testing.T) {
	gw := &fakeGateway{
		createID: "R1",
		statuses: []string{"pending"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPoller(gw, WithPollInterval(time.Hour), WithPollTimeout(time.Hour))

	result, err := p.CreateAndAwait(ctx, Params{Days: 1})
	require.ErrorIs(t, err, ErrPollTimeout)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "R1", result.ReportID)
}

func TestPollerEmptyReportID(t *testing.T) {
	gw := &fakeGateway{createID: ""}

	_, err := fastPoller(gw).CreateAndAwait(context.Background(), Params{Days: 1})
	require.ErrorIs(t, err, ErrReportCreationFailed)
}

func TestPollerInvalidParams(t *testing.T) {
	gw := &fakeGateway{createID: "R1"}

	_, err := fastPoller(gw).CreateAndAwait(context.Background(), Params{Days: 40})
	require.ErrorIs(t, err, ErrInvalidParameters)
	assert.Zero(t, gw.createCalls)
}

func TestPollerCreateFailure(t *testing.T) {
	gw := &fakeGateway{
		createErr: &webex.APIError{StatusCode: 403, Message: "forbidden"},
	}

	_, err := fastPoller(gw).CreateAndAwait(context.Background(), Params{Days: 1})

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 403, gwErr.StatusCode)
	assert.Equal(t, "forbidden", gwErr.Message)
}

func TestPollerStatusFailure(t *testing.T) {
	gw := &fakeGateway{
		createID:  "R1",
		statusErr: errors.New("boom"),
	}

	result, err := fastPoller(gw).CreateAndAwait(context.Background(), Params{Days: 1})

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "R1", result.ReportID)
}

func TestResultNoData(t *testing.T) {
	assert.True(t, Result{Status: StatusDone}.NoData())
	assert.False(t, Result{Status: StatusDone, Lines: []string{"a,b"}}.NoData())
	assert.False(t, Result{Status: StatusTimedOut}.NoData())
}
