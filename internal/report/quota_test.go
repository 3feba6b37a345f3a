package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/webex-cdr-support/internal/webex"
)

// strategyFunc adapts a function to the RemediationStrategy interface.
type strategyFunc func(ctx context.Context, stored []webex.Report) (Remediation, error)

func (f strategyFunc) Decide(ctx context.Context, stored []webex.Report) (Remediation, error) {
	return f(ctx, stored)
}

func TestQuotaGuardBelowCeiling(t *testing.T) {
	gw := &fakeGateway{stored: storedReports(ReportCeiling - 1)}

	consulted := false
	guard := NewQuotaGuard(gw, strategyFunc(func(context.Context, []webex.Report) (Remediation, error) {
		consulted = true

		return Remediation{Action: RemediationAbort}, nil
	}))

	ok, err := guard.EnsureCapacity(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, consulted, "strategy must not run below the ceiling")
}

func TestQuotaGuardAbort(t *testing.T) {
	gw := &fakeGateway{stored: storedReports(ReportCeiling)}

	guard := NewQuotaGuard(gw, nil) // defaults to FailFast

	ok, err := guard.EnsureCapacity(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, gw.deletedIDs())
}

func TestQuotaGuardDeleteAll(t *testing.T) {
	gw := &fakeGateway{stored: storedReports(ReportCeiling)}

	guard := NewQuotaGuard(gw, strategyFunc(func(_ context.Context, stored []webex.Report) (Remediation, error) {
		assert.Len(t, stored, ReportCeiling)

		return Remediation{Action: RemediationDeleteAll}, nil
	}))

	ok, err := guard.EnsureCapacity(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, gw.deletedIDs(), ReportCeiling)
}

func TestQuotaGuardDeleteOne(t *testing.T) {
	stored := storedReports(ReportCeiling)
	gw := &fakeGateway{stored: stored}

	guard := NewQuotaGuard(gw, strategyFunc(func(context.Context, []webex.Report) (Remediation, error) {
		return Remediation{Action: RemediationDeleteOne, ReportID: stored[3].ID}, nil
	}))

	ok, err := guard.EnsureCapacity(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{stored[3].ID}, gw.deletedIDs())
}

func TestQuotaGuardRecountDecides(t *testing.T) {
	// deletion fails silently, the recount still sees a full store.
	gw := &fakeGateway{
		stored:    storedReports(ReportCeiling),
		deleteErr: errors.New("boom"),
	}

	guard := NewQuotaGuard(gw, DeleteOldest{})

	ok, err := guard.EnsureCapacity(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuotaGuardStrategyError(t *testing.T) {
	gw := &fakeGateway{stored: storedReports(ReportCeiling)}

	guard := NewQuotaGuard(gw, strategyFunc(func(context.Context, []webex.Report) (Remediation, error) {
		return Remediation{}, errors.New("stdin closed")
	}))

	ok, err := guard.EnsureCapacity(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuotaGuardListFailure(t *testing.T) {
	gw := &fakeGateway{listErr: &webex.APIError{StatusCode: 500, Message: "oops"}}

	ok, err := NewQuotaGuard(gw, nil).EnsureCapacity(context.Background())

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, 500, gwErr.StatusCode)
	assert.False(t, ok)
}

func TestDeleteOldest(t *testing.T) {
	stored := []webex.Report{
		{ID: "b", Created: "2024-02-01"},
		{ID: "a", Created: "2024-01-01"},
		{ID: "c", Created: "2024-03-01"},
	}

	decision, err := DeleteOldest{}.Decide(context.Background(), stored)
	require.NoError(t, err)
	assert.Equal(t, RemediationDeleteOne, decision.Action)
	assert.Equal(t, "a", decision.ReportID)

	decision, err = DeleteOldest{}.Decide(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, RemediationAbort, decision.Action)
}
