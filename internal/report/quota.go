package report

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/example/webex-cdr-support/internal/webex"
)

// ReportCeiling is the platform-imposed maximum number of simultaneously
// stored generated reports.
const ReportCeiling = 50

// RemediationAction is the operator's choice when the stored-report
// ceiling has been reached.
type RemediationAction int

const (
	// RemediationAbort ends the run cleanly without freeing capacity.
	RemediationAbort RemediationAction = iota

	// RemediationDeleteOne deletes the single report named by ReportID.
	RemediationDeleteOne

	// RemediationDeleteAll deletes every stored report.
	RemediationDeleteAll
)

// Remediation is the decision returned by a RemediationStrategy.
type Remediation struct {
	Action   RemediationAction
	ReportID string
}

// RemediationStrategy decides how to free stored-report capacity. The
// guard executes the decision; strategies never delete anything themselves.
type RemediationStrategy interface {
	Decide(ctx context.Context, stored []webex.Report) (Remediation, error)
}

// FailFast aborts whenever the ceiling is reached. It is the default for
// non-interactive hosts.
type FailFast struct{}

func (FailFast) Decide(context.Context, []webex.Report) (Remediation, error) {
	return Remediation{Action: RemediationAbort}, nil
}

// DeleteOldest frees capacity by deleting the stored report with the
// oldest creation date.
type DeleteOldest struct{}

func (DeleteOldest) Decide(_ context.Context, stored []webex.Report) (Remediation, error) {
	if len(stored) == 0 {
		return Remediation{Action: RemediationAbort}, nil
	}

	oldest := stored[0]
	for _, r := range stored[1:] {
		if r.CreatedAt().Before(oldest.CreatedAt()) {
			oldest = r
		}
	}

	return Remediation{Action: RemediationDeleteOne, ReportID: oldest.ID}, nil
}

// QuotaGuard checks the count of stored remote reports against the
// platform ceiling before a new report may be created.
type QuotaGuard struct {
	gateway  Gateway
	strategy RemediationStrategy
	log      *logrus.Entry
}

func NewQuotaGuard(gateway Gateway, strategy RemediationStrategy) *QuotaGuard {
	if strategy == nil {
		strategy = FailFast{}
	}

	return &QuotaGuard{
		gateway:  gateway,
		strategy: strategy,
		log:      logrus.WithField("component", "quota-guard"),
	}
}

// EnsureCapacity returns true when a new report may be created. At the
// ceiling it consults the remediation strategy, executes the decision and
// re-reads the count. Abort and failed remediation are a clean false, not
// an error; only a failure to talk to the gateway is.
func (g *QuotaGuard) EnsureCapacity(ctx context.Context) (bool, error) {
	stored, err := g.gateway.ListReports(ctx)
	if err != nil {
		return false, asGatewayError(err)
	}

	if len(stored) < ReportCeiling {
		return true, nil
	}

	g.log.Warnf("stored report ceiling reached (%d of %d), asking for remediation", len(stored), ReportCeiling)

	decision, err := g.strategy.Decide(ctx, stored)
	if err != nil {
		g.log.Errorf("remediation strategy failed: %s", err)

		return false, nil
	}

	switch decision.Action {
	case RemediationAbort:
		g.log.Info("remediation aborted by operator")

		return false, nil

	case RemediationDeleteOne:
		if err := g.gateway.DeleteReport(ctx, decision.ReportID); err != nil {
			g.log.Errorf("failed to delete report %q: %s", decision.ReportID, err)
		}

	case RemediationDeleteAll:
		errs := new(multierror.Error)
		for _, r := range stored {
			if err := g.gateway.DeleteReport(ctx, r.ID); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("report %q: %w", r.ID, err))
			}
		}
		if err := errs.ErrorOrNil(); err != nil {
			g.log.Errorf("failed to delete all stored reports: %s", err)
		}
	}

	// re-read the count; the recount decides, not the delete results.
	stored, err = g.gateway.ListReports(ctx)
	if err != nil {
		return false, asGatewayError(err)
	}

	return len(stored) < ReportCeiling, nil
}
