package storage

import (
	"context"

	"nanoalloy/internal/model"
)

// ResultKey identifies one optimization cell: a metal pair on a shaped
// skeleton of a given size, at one composition. Metal1 sorts alphabetically
// before Metal2.
type ResultKey struct {
	Metal1   string
	Metal2   string
	Shape    string
	NumAtoms int
	NMetal1  int
}

// ResultFilter selects result rows for listing. Zero-valued fields match
// everything.
type ResultFilter struct {
	Metal1   string
	Metal2   string
	Shape    string
	NumAtoms int
}

// Store defines persistence operations for optimization results, skeleton
// topologies, and run logs. Lookups report absence as (zero, false, nil)
// rather than an error.
type Store interface {
	Init(ctx context.Context) error
	UpsertMinResult(ctx context.Context, result model.Result) (bool, error)
	GetResult(ctx context.Context, key ResultKey) (model.Result, bool, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]model.Result, error)
	SaveNanoparticle(ctx context.Context, np model.Nanoparticle) error
	GetNanoparticle(ctx context.Context, shape string, numAtoms int) (model.Nanoparticle, bool, error)
	SaveRunLog(ctx context.Context, log model.RunLog) error
	ListRunLogs(ctx context.Context, limit int) ([]model.RunLog, error)
}

// KeyOf extracts the store key of a result row.
func KeyOf(r model.Result) ResultKey {
	return ResultKey{
		Metal1:   r.Metal1,
		Metal2:   r.Metal2,
		Shape:    r.Shape,
		NumAtoms: r.NumAtoms,
		NMetal1:  r.NMetal1,
	}
}

func (f ResultFilter) matches(r model.Result) bool {
	if f.Metal1 != "" && f.Metal1 != r.Metal1 {
		return false
	}
	if f.Metal2 != "" && f.Metal2 != r.Metal2 {
		return false
	}
	if f.Shape != "" && f.Shape != r.Shape {
		return false
	}
	if f.NumAtoms != 0 && f.NumAtoms != r.NumAtoms {
		return false
	}
	return true
}
