// Package archive stores elite genomes across runs so a run's best
// networks can be inspected or reseeded later.
package archive

import (
	"context"
	"errors"
)

// ErrNotInitialized is returned by archive operations invoked before Init.
var ErrNotInitialized = errors.New("archive is not initialized")

// Record is one archived elite genome. Genome holds the JSON gene lists.
type Record struct {
	ID         string
	RunID      string
	Generation int
	Rank       int
	Fitness    float64
	Genome     []byte
}

// Archive persists elite records.
type Archive interface {
	Init(ctx context.Context) error
	Put(ctx context.Context, record Record) error
	Get(ctx context.Context, id string) (Record, bool, error)
	// ListGeneration returns the records of one generation of a run ordered
	// by rank.
	ListGeneration(ctx context.Context, runID string, generation int) ([]Record, error)
	Close() error
}
