package report

import (
	"strings"
	"time"
)

// BucketStats holds the four per-bucket counters shared by the global,
// per-department and per-user accumulators.
type BucketStats struct {
	TotalCalls     int   `json:"totalCalls"`
	ConnectedCalls int   `json:"connectedCalls"`
	VoicemailCalls int   `json:"voicemailCalls"`
	TotalDuration  int64 `json:"totalDurationSeconds"`
}

// BucketRow is one entry of a department or user table export.
type BucketRow struct {
	Key string `json:"key"`
	BucketStats
}

// Snapshot is a read-only copy of the accumulated metrics of one run.
type Snapshot struct {
	BucketStats

	// ResponseTimes holds one sample in seconds per row that carried
	// parseable start and answer timestamps. Samples may be negative if
	// the platform data is inconsistent.
	ResponseTimes []float64 `json:"responseTimes"`

	// CallOutcomes counts rows per call-outcome label.
	CallOutcomes map[string]int `json:"callOutcomes"`

	Departments map[string]BucketStats `json:"departments"`
	Users       map[string]BucketStats `json:"users"`
}

// AverageResponseTime returns the mean of the response-time samples in
// seconds, or zero when no sample was collected.
func (s *Snapshot) AverageResponseTime() float64 {
	if len(s.ResponseTimes) == 0 {
		return 0
	}

	var sum float64
	for _, v := range s.ResponseTimes {
		sum += v
	}

	return sum / float64(len(s.ResponseTimes))
}

// Aggregator consumes parsed CDR rows and accumulates running totals.
// It is not safe for concurrent use; one run owns exactly one instance.
type Aggregator struct {
	totals        BucketStats
	responseTimes []float64
	outcomes      map[string]int

	departments     map[string]*BucketStats
	departmentOrder []string

	users     map[string]*BucketStats
	userOrder []string
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		outcomes:    make(map[string]int),
		departments: make(map[string]*BucketStats),
		users:       make(map[string]*BucketStats),
	}
}

// Ingest classifies a single row and updates all counters. Rows are
// independent; a row that fails every field parse still counts toward the
// call totals.
func (a *Aggregator) Ingest(row Row) {
	connected := strings.EqualFold(row.Get(fieldAnswered), "true")
	voicemail := !connected && strings.EqualFold(row.Get(fieldOutcomeReason), "voicemail")
	duration := parseSeconds(row.Get(fieldDuration))

	ingestBucket(&a.totals, connected, voicemail, duration)

	if sample, ok := responseTime(row); ok {
		a.responseTimes = append(a.responseTimes, sample)
	}

	outcome := row.Get(fieldOutcome)
	if outcome == "" {
		outcome = "Unknown"
	}
	a.outcomes[outcome]++

	// department and user buckets are computed independently from the same
	// row, not derived from the global totals.
	dept := a.bucket(a.departments, &a.departmentOrder, row.Get(fieldDepartment))
	ingestBucket(dept, connected, voicemail, duration)

	user := a.bucket(a.users, &a.userOrder, row.Get(fieldUser))
	ingestBucket(user, connected, voicemail, duration)
}

func (a *Aggregator) bucket(m map[string]*BucketStats, order *[]string, key string) *BucketStats {
	if key == "" {
		key = "Unknown"
	}

	b, ok := m[key]
	if !ok {
		b = new(BucketStats)
		m[key] = b
		*order = append(*order, key)
	}

	return b
}

func ingestBucket(b *BucketStats, connected, voicemail bool, duration int64) {
	b.TotalCalls++
	b.TotalDuration += duration

	// first-match-wins: a connected call never counts as voicemail even if
	// the outcome reason would otherwise match.
	switch {
	case connected:
		b.ConnectedCalls++
	case voicemail:
		b.VoicemailCalls++
	}
}

// Snapshot returns a deep copy of the current accumulator state.
func (a *Aggregator) Snapshot() *Snapshot {
	s := &Snapshot{
		BucketStats:   a.totals,
		ResponseTimes: append([]float64(nil), a.responseTimes...),
		CallOutcomes:  make(map[string]int, len(a.outcomes)),
		Departments:   make(map[string]BucketStats, len(a.departments)),
		Users:         make(map[string]BucketStats, len(a.users)),
	}

	for k, v := range a.outcomes {
		s.CallOutcomes[k] = v
	}
	for k, v := range a.departments {
		s.Departments[k] = *v
	}
	for k, v := range a.users {
		s.Users[k] = *v
	}

	return s
}

// DepartmentTable exports the per-department buckets as flat records in
// encounter order.
func (a *Aggregator) DepartmentTable() []BucketRow {
	return exportTable(a.departments, a.departmentOrder)
}

// UserTable exports the per-user buckets as flat records in encounter order.
func (a *Aggregator) UserTable() []BucketRow {
	return exportTable(a.users, a.userOrder)
}

func exportTable(m map[string]*BucketStats, order []string) []BucketRow {
	rows := make([]BucketRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, BucketRow{Key: key, BucketStats: *m[key]})
	}

	return rows
}

// parseSeconds parses a duration field as a non-negative integer if and
// only if it consists entirely of decimal digits; anything else counts as
// zero and never fails.
func parseSeconds(s string) int64 {
	if s == "" {
		return 0
	}

	var v int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		v = v*10 + int64(r-'0')
	}

	return v
}

// timestampLayouts covers the timestamp formats seen in report downloads:
// RFC3339 with and without sub-second precision, and the same without a
// zone designator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// responseTime computes answer-time minus start-time in seconds. The
// sample is only collected when both fields are present and parseable;
// negative values are kept as-is.
func responseTime(row Row) (float64, bool) {
	startStr := row.Get(fieldStartTime)
	answerStr := row.Get(fieldAnswerTime)
	if startStr == "" || answerStr == "" {
		return 0, false
	}

	start, ok := parseTimestamp(startStr)
	if !ok {
		return 0, false
	}

	answer, ok := parseTimestamp(answerStr)
	if !ok {
		return 0, false
	}

	return answer.Sub(start).Seconds(), true
}
