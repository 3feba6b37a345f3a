// Package database stores summaries of finished report runs in MongoDB.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/webex-cdr-support/internal/report"
)

// BucketSummary is one department or user aggregate row of a stored run.
type BucketSummary struct {
	Key            string `json:"key" bson:"key"`
	TotalCalls     int    `json:"totalCalls" bson:"totalCalls"`
	ConnectedCalls int    `json:"connectedCalls" bson:"connectedCalls"`
	VoicemailCalls int    `json:"voicemailCalls" bson:"voicemailCalls"`
	TotalDuration  int64  `json:"totalDurationSeconds" bson:"totalDurationSeconds"`
}

// RunSummary is the persisted record of one orchestrator run.
type RunSummary struct {
	ID primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`

	RunID string `json:"runId" bson:"runId"`

	// Date holds the time the run started. DateStr holds the
	// YYYY-MM-DD representation for indexing.
	Date    time.Time `json:"date" bson:"date"`
	DateStr string    `json:"datestr" bson:"datestr"`

	Outcome string `json:"outcome" bson:"outcome"`
	Error   string `json:"error,omitempty" bson:"error,omitempty"`

	ReportID string `json:"reportId,omitempty" bson:"reportId,omitempty"`
	CSVPath  string `json:"csvPath,omitempty" bson:"csvPath,omitempty"`

	Days      int    `json:"days,omitempty" bson:"days,omitempty"`
	StartDate string `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty" bson:"endDate,omitempty"`

	TotalCalls             int            `json:"totalCalls" bson:"totalCalls"`
	ConnectedCalls         int            `json:"connectedCalls" bson:"connectedCalls"`
	VoicemailCalls         int            `json:"voicemailCalls" bson:"voicemailCalls"`
	TotalDuration          int64          `json:"totalDurationSeconds" bson:"totalDurationSeconds"`
	AverageResponseSeconds float64        `json:"averageResponseSeconds" bson:"averageResponseSeconds"`
	CallOutcomes           map[string]int `json:"callOutcomes,omitempty" bson:"callOutcomes,omitempty"`

	Departments []BucketSummary `json:"departments,omitempty" bson:"departments,omitempty"`
	Users       []BucketSummary `json:"users,omitempty" bson:"users,omitempty"`
}

// History supports storing and retrieving of run summaries.
type History interface {
	// RecordRun stores the summary of a finished run.
	RecordRun(ctx context.Context, outcome report.Outcome) error

	// Search returns all summaries matching the query, newest first.
	Search(ctx context.Context, opts ...QueryOption) ([]RunSummary, error)
}

type history struct {
	collection *mongo.Collection
}

// New creates a new run history store.
func New(ctx context.Context, dbName string, cli *mongo.Client) (History, error) {
	h := &history{
		collection: cli.Database(dbName).Collection("reportruns"),
	}

	if err := h.setup(ctx); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *history) setup(ctx context.Context) error {
	_, err := h.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "datestr", Value: 1}},
			Options: options.Index().SetSparse(false),
		},
		{
			Keys:    bson.D{{Key: "outcome", Value: 1}},
			Options: options.Index().SetSparse(false),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func (h *history) RecordRun(ctx context.Context, outcome report.Outcome) error {
	summary := summaryFromOutcome(outcome)

	if _, err := h.collection.InsertOne(ctx, summary); err != nil {
		return fmt.Errorf("failed to insert run summary: %w", err)
	}

	return nil
}

func (h *history) Search(ctx context.Context, opts ...QueryOption) ([]RunSummary, error) {
	q := new(query)
	for _, opt := range opts {
		opt(q)
	}

	findOpts := options.Find().SetSort(bson.M{"date": -1})

	cursor, err := h.collection.Find(ctx, q.build(), findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve documents: %w", err)
	}
	defer cursor.Close(ctx)

	var all []RunSummary
	if err := cursor.All(ctx, &all); err != nil {
		return nil, fmt.Errorf("failed to decode run summaries: %w", err)
	}

	return all, nil
}

func summaryFromOutcome(outcome report.Outcome) RunSummary {
	summary := RunSummary{
		ID:       primitive.NewObjectID(),
		RunID:    outcome.RunID,
		Date:     outcome.Started,
		DateStr:  outcome.Started.Format("2006-01-02"),
		Outcome:  string(outcome.Code),
		ReportID: outcome.ReportID,
		CSVPath:  outcome.CSVPath,
		Days:     outcome.Params.Days,
	}

	if outcome.Err != nil {
		summary.Error = outcome.Err.Error()
	}

	if !outcome.Params.Start.IsZero() {
		summary.StartDate = outcome.Params.Start.Format("2006-01-02")
		summary.EndDate = outcome.Params.End.Format("2006-01-02")
	}

	if m := outcome.Metrics; m != nil {
		summary.TotalCalls = m.TotalCalls
		summary.ConnectedCalls = m.ConnectedCalls
		summary.VoicemailCalls = m.VoicemailCalls
		summary.TotalDuration = m.TotalDuration
		summary.AverageResponseSeconds = m.AverageResponseTime()
		summary.CallOutcomes = m.CallOutcomes
	}

	summary.Departments = bucketSummaries(outcome.Departments)
	summary.Users = bucketSummaries(outcome.Users)

	return summary
}

func bucketSummaries(rows []report.BucketRow) []BucketSummary {
	if len(rows) == 0 {
		return nil
	}

	out := make([]BucketSummary, len(rows))
	for idx, r := range rows {
		out[idx] = BucketSummary{
			Key:            r.Key,
			TotalCalls:     r.TotalCalls,
			ConnectedCalls: r.ConnectedCalls,
			VoicemailCalls: r.VoicemailCalls,
			TotalDuration:  r.TotalDuration,
		}
	}

	return out
}
