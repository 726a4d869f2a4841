// Package store persists analysis runs.
//
// A [Report] is the outcome of one analysis run: the strategy, the
// family formula if any, one entry per configuration and the run's
// statistics. Two backends implement [Store]:
//   - [FileStore] for CLI usage, one JSON file per run under a directory
//   - [MongoStore] for keeping the run history of a team in MongoDB
//
// Reports are identified by a random UUID assigned by [NewReport].
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/reana/pkg/analysis"
	"github.com/matzehuels/reana/pkg/errors"
)

// Store is the interface for run storage backends.
type Store interface {
	// Save stores a report, replacing any report with the same ID.
	Save(ctx context.Context, r *Report) error

	// Get retrieves a report by ID. A missing report yields a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Report, error)

	// List returns up to limit reports, newest first. A limit of zero or
	// less returns all reports.
	List(ctx context.Context, limit int) ([]*Report, error)

	// Delete removes a report. Deleting a missing report is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases resources held by the store.
	Close() error
}

// Report is a stored analysis run.
type Report struct {
	ID           string        `json:"id" bson:"_id"`
	Key          string        `json:"key,omitempty" bson:"key,omitempty"`
	Strategy     string        `json:"strategy" bson:"strategy"`
	Mode         string        `json:"mode,omitempty" bson:"mode,omitempty"`
	GraphHash    string        `json:"graph_hash,omitempty" bson:"graphHash,omitempty"`
	FeatureModel string        `json:"feature_model,omitempty" bson:"featureModel,omitempty"`
	Formula      string        `json:"formula,omitempty" bson:"formula,omitempty"`
	CreatedAt    time.Time     `json:"created_at" bson:"createdAt"`
	Duration     time.Duration `json:"duration" bson:"duration"`
	Entries      []Entry       `json:"entries" bson:"entries"`
	Stats        Stats         `json:"stats" bson:"stats"`
}

// Entry is the result of one configuration.
type Entry struct {
	Configuration []string `json:"configuration" bson:"configuration"`
	Reliability   *float64 `json:"reliability,omitempty" bson:"reliability,omitempty"`
	Error         string   `json:"error,omitempty" bson:"error,omitempty"`
	Code          string   `json:"code,omitempty" bson:"code,omitempty"`
}

// Stats mirrors [analysis.Stats].
type Stats struct {
	Configurations   int   `json:"configurations" bson:"configurations"`
	Failures         int   `json:"failures" bson:"failures"`
	SolvedFormulas   int64 `json:"solved_formulas" bson:"solvedFormulas"`
	CheckerCalls     int64 `json:"checker_calls" bson:"checkerCalls"`
	CheckerCacheHits int64 `json:"checker_cache_hits" bson:"checkerCacheHits"`
	DerivedModels    int64 `json:"derived_models" bson:"derivedModels"`
	ReusedSubResults int64 `json:"reused_sub_results" bson:"reusedSubResults"`
}

// NewReport builds a report from analysis results. Lazy results are solved
// for every input configuration. The caller fills in the run metadata.
func NewReport(res *analysis.Results) *Report {
	r := &Report{
		ID:        uuid.NewString(),
		Strategy:  res.Strategy().String(),
		CreatedAt: time.Now().UTC(),
	}
	r.Formula, _ = res.Formula()

	for _, e := range res.Entries() {
		re := Entry{Configuration: e.Configuration.Features()}
		if re.Configuration == nil {
			re.Configuration = []string{}
		}
		if e.Err != nil {
			re.Error = errors.UserMessage(e.Err)
			re.Code = string(errors.GetCode(e.Err))
		} else {
			v := e.Reliability
			re.Reliability = &v
		}
		r.Entries = append(r.Entries, re)
	}

	s := res.Stats()
	r.Stats = Stats{
		Configurations:   s.Configurations,
		Failures:         s.Failures,
		SolvedFormulas:   s.SolvedFormulas,
		CheckerCalls:     s.CheckerCalls,
		CheckerCacheHits: s.CheckerCacheHits,
		DerivedModels:    s.DerivedModels,
		ReusedSubResults: s.ReusedSubResults,
	}
	return r
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "report %q not found", id)
}
