package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberNormalizer(t *testing.T) {
	rows := []Row{
		{
			fieldCallingNumber: "4155552671",
			fieldCalledNumber:  "+14155552672",
		},
		{
			fieldCallingNumber: "Anonymous",
			fieldCalledNumber:  "",
		},
		{
			fieldCallingNumber: "not a number",
			fieldUser:          "alice",
		},
	}

	NewNumberNormalizer("US", nil).Normalize(rows)

	assert.Equal(t, "+1 415-555-2671", rows[0].Get(fieldCallingNumber))
	assert.Equal(t, "+1 415-555-2672", rows[0].Get(fieldCalledNumber))

	// anonymous and empty values are left alone
	assert.Equal(t, "Anonymous", rows[1].Get(fieldCallingNumber))
	assert.Equal(t, "", rows[1].Get(fieldCalledNumber))

	// unparseable values survive untouched
	assert.Equal(t, "not a number", rows[2].Get(fieldCallingNumber))
	assert.Equal(t, "alice", rows[2].Get(fieldUser))
}
