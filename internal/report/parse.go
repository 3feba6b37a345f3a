package report

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// Well-known CDR column names as they appear in the report header.
const (
	fieldDepartment    = "Department ID"
	fieldUser          = "User"
	fieldAnswered      = "Answered"
	fieldDuration      = "Duration"
	fieldOutcome       = "Call outcome"
	fieldOutcomeReason = "Call outcome reason"
	fieldStartTime     = "Start time"
	fieldAnswerTime    = "Answer time"
	fieldCallingNumber = "Calling number"
	fieldCalledNumber  = "Called number"
)

// Row is a single call record, keyed by report column name. Values are
// kept as the raw strings returned by the platform.
type Row map[string]string

// Get returns the value of the named field or the empty string.
func (r Row) Get(field string) string { return r[field] }

// Table is a parsed tabular report: the header columns in report order and
// one Row per data line.
type Table struct {
	Columns []string
	Rows    []Row
}

// ParseLines parses the raw report lines (header row first) into a Table.
// A row whose field count does not match the header fails the parse with a
// *MalformedReportError; rows are never silently dropped.
func ParseLines(lines []string) (*Table, error) {
	if len(lines) == 0 {
		return &Table{}, nil
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))

	header, err := reader.Read()
	if err != nil {
		return nil, malformed(err)
	}

	table := &Table{Columns: header}

	for {
		columns, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}

		row := make(Row, len(header))
		for idx, name := range header {
			row[name] = columns[idx]
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func malformed(err error) *MalformedReportError {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &MalformedReportError{Line: parseErr.Line, Err: err}
	}

	return &MalformedReportError{Err: err}
}
