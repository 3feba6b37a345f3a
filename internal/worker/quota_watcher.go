// Package worker hosts the background quota watcher.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/example/webex-cdr-support/internal/config"
	"github.com/example/webex-cdr-support/internal/metrics"
	"github.com/example/webex-cdr-support/internal/report"
)

// warnHeadroom is the remaining-capacity threshold below which the
// watcher starts warning.
const warnHeadroom = 5

// StartQuotaWatcher periodically lists the stored reports, exports the
// count, warns when the platform ceiling is near and, when a maximum age
// is configured, deletes stale stored reports.
func StartQuotaWatcher(ctx context.Context, providers *config.Providers) {
	interval := providers.Config.QuotaWatchInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	l := slog.Default().WithGroup("quota-watcher")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			check(ctx, providers, l)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func check(ctx context.Context, providers *config.Providers, l *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	stored, err := providers.Webex.ListReports(ctx)
	if err != nil {
		l.ErrorContext(ctx, "failed to list stored reports", slog.Any("error", err.Error()))
		return
	}

	metrics.StoredReports.Set(float64(len(stored)))

	if len(stored) >= report.ReportCeiling-warnHeadroom {
		l.WarnContext(ctx, "stored reports approaching the platform ceiling",
			slog.Int("stored", len(stored)),
			slog.Int("ceiling", report.ReportCeiling))
	}

	maxAge := providers.Config.StaleReportMaxAge
	if maxAge <= 0 {
		return
	}

	cutoff := time.Now().Add(-maxAge)
	errs := new(multierror.Error)
	deleted := 0

	for _, r := range stored {
		created := r.CreatedAt()
		if created.IsZero() || !created.Before(cutoff) {
			continue
		}

		if err := providers.Webex.DeleteReport(ctx, r.ID); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		l.InfoContext(ctx, "deleted stale stored reports", slog.Int("count", deleted))
	}

	if err := errs.ErrorOrNil(); err != nil {
		l.ErrorContext(ctx, "failed to delete stale stored reports", slog.Any("error", err.Error()))
	}
}
