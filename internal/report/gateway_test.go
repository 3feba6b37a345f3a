package report

import (
	"context"
	"sync"
	"time"

	"github.com/example/webex-cdr-support/internal/webex"
)

// fakeGateway is a scriptable Gateway used across the package tests.
type fakeGateway struct {
	mu sync.Mutex

	createID  string
	createErr error

	statuses  []string
	statusIdx int
	statusErr error

	lines    []string
	linesErr error

	stored  []webex.Report
	listErr error

	deleteErr error
	deleted   []string

	createCalls int
	listCalls   int
}

func (f *fakeGateway) CreateCDRReport(_ context.Context, _, _ time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++

	return f.createID, f.createErr
}

func (f *fakeGateway) ReportStatus(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.statusErr != nil {
		return "", f.statusErr
	}

	if len(f.statuses) == 0 {
		return "done", nil
	}

	status := f.statuses[f.statusIdx]
	if f.statusIdx < len(f.statuses)-1 {
		f.statusIdx++
	}

	return status, nil
}

func (f *fakeGateway) GetReportLines(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lines, f.linesErr
}

func (f *fakeGateway) ListReports(_ context.Context) ([]webex.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++

	if f.listErr != nil {
		return nil, f.listErr
	}

	out := make([]webex.Report, len(f.stored))
	copy(out, f.stored)

	return out, nil
}

func (f *fakeGateway) DeleteReport(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}

	f.deleted = append(f.deleted, id)

	remaining := make([]webex.Report, 0, len(f.stored))
	for _, r := range f.stored {
		if r.ID != id {
			remaining = append(remaining, r)
		}
	}
	f.stored = remaining

	return nil
}

func (f *fakeGateway) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.deleted))
	copy(out, f.deleted)

	return out
}

func storedReports(n int) []webex.Report {
	out := make([]webex.Report, n)
	for i := range out {
		out[i] = webex.Report{
			ID:      "report-" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Created: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02"),
		}
	}

	return out
}
