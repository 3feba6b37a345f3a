package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/webex-cdr-support/internal/report"
)

func TestWriterWrite(t *testing.T) {
	dir := t.TempDir()

	w := NewWriter(filepath.Join(dir, "out"))
	w.now = func() time.Time {
		return time.Date(2024, 6, 15, 13, 45, 30, 0, time.UTC)
	}

	columns := []string{"User", "Duration", "Answered"}
	rows := []report.Row{
		{"User": "alice", "Duration": "60", "Answered": "true"},
		{"User": "bob, the builder", "Duration": "30"},
	}

	path, err := w.Write(columns, rows)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out", "cdr_output_20240615_134530.csv"), path)

	blob, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t,
		"User,Duration,Answered\n"+
			"alice,60,true\n"+
			"\"bob, the builder\",30,\n",
		string(blob))
}

func TestWriterRefusesEmptyRows(t *testing.T) {
	w := NewWriter(t.TempDir())

	_, err := w.Write([]string{"User"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data")
}
