package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLines(t *testing.T) {
	lines := []string{
		"Department ID,User,Answered,Duration",
		"sales,alice,true,120",
		`support,"bob,the builder",false,30`,
	}

	table, err := ParseLines(lines)
	require.NoError(t, err)

	assert.Equal(t, []string{"Department ID", "User", "Answered", "Duration"}, table.Columns)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, "sales", table.Rows[0].Get(fieldDepartment))
	assert.Equal(t, "120", table.Rows[0].Get(fieldDuration))
	assert.Equal(t, "bob,the builder", table.Rows[1].Get(fieldUser))
	assert.Equal(t, "", table.Rows[1].Get("No Such Column"))
}

func TestParseLinesEmpty(t *testing.T) {
	table, err := ParseLines(nil)
	require.NoError(t, err)
	assert.Empty(t, table.Columns)
	assert.Empty(t, table.Rows)
}

func TestParseLinesHeaderOnly(t *testing.T) {
	table, err := ParseLines([]string{"Department ID,User"})
	require.NoError(t, err)
	assert.Len(t, table.Columns, 2)
	assert.Empty(t, table.Rows)
}

func TestParseLinesFieldCountMismatch(t *testing.T) {
	lines := []string{
		"Department ID,User,Answered",
		"sales,alice,true",
		"support,bob",
	}

	_, err := ParseLines(lines)

	var malformedErr *MalformedReportError
	require.True(t, errors.As(err, &malformedErr))
	assert.Equal(t, 3, malformedErr.Line)
}

func TestParseLinesBrokenQuoting(t *testing.T) {
	_, err := ParseLines([]string{
		"Department ID,User",
		`sales,"unterminated`,
	})

	var malformedErr *MalformedReportError
	require.True(t, errors.As(err, &malformedErr))
}
