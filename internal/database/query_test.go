package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func buildQuery(opts ...QueryOption) bson.M {
	q := new(query)
	for _, opt := range opts {
		opt(q)
	}

	return q.build()
}

func TestQueryBuild(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		N string
		O []QueryOption
		E bson.M
	}{
		{
			"empty",
			nil,
			bson.M{},
		},
		{
			"outcome",
			[]QueryOption{WithOutcome("completed")},
			bson.M{"outcome": "completed"},
		},
		{
			"date",
			[]QueryOption{WithDate(from)},
			bson.M{"datestr": "2024-01-01"},
		},
		{
			"from only",
			[]QueryOption{WithFrom(from)},
			bson.M{"date": bson.M{"$gte": from}},
		},
		{
			"range with outcome",
			[]QueryOption{WithFrom(from), WithTo(to), WithOutcome("failed")},
			bson.M{
				"outcome": "failed",
				"date":    bson.M{"$gte": from, "$lte": to},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.N, func(t *testing.T) {
			assert.Equal(t, c.E, buildQuery(c.O...))
		})
	}
}
