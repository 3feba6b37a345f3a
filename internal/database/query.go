package database

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

type QueryOption func(*query)

type query struct {
	from    *time.Time
	to      *time.Time
	date    *string
	outcome *string
}

func WithFrom(t time.Time) QueryOption {
	return func(q *query) {
		q.from = &t
	}
}

func WithTo(t time.Time) QueryOption {
	return func(q *query) {
		q.to = &t
	}
}

// WithDate restricts the search to runs started on the given day.
func WithDate(t time.Time) QueryOption {
	return func(q *query) {
		s := t.Format("2006-01-02")
		q.date = &s
	}
}

func WithOutcome(outcome string) QueryOption {
	return func(q *query) {
		q.outcome = &outcome
	}
}

func (q *query) build() bson.M {
	result := bson.M{}

	if q.outcome != nil {
		result["outcome"] = *q.outcome
	}

	if q.date != nil {
		result["datestr"] = *q.date
	}

	date := bson.M{}

	if q.from != nil {
		date["$gte"] = *q.from
	}

	if q.to != nil {
		date["$lte"] = *q.to
	}

	if len(date) > 0 {
		result["date"] = date
	}

	return result
}
