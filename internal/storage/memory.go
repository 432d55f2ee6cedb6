package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"nanoalloy/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	results     map[ResultKey]model.Result
	particles   map[string]model.Nanoparticle
	runLogs     []model.RunLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.results = make(map[ResultKey]model.Result)
	s.particles = make(map[string]model.Nanoparticle)
	s.runLogs = nil
	return nil
}

// UpsertMinResult stores the result unless an existing row for the same key
// already has an equal or lower cohesive energy. Returns whether the row was
// written.
func (s *MemoryStore) UpsertMinResult(_ context.Context, result model.Result) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := KeyOf(result)
	if existing, ok := s.results[key]; ok && existing.CE <= result.CE {
		return false, nil
	}
	s.results[key] = result
	return true, nil
}

func (s *MemoryStore) GetResult(_ context.Context, key ResultKey) (model.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[key]
	return result, ok, nil
}

// ListResults returns matching rows ordered by (metal1, metal2, shape,
// num_atoms, n_metal1), mirroring the sqlite backend's ordering.
func (s *MemoryStore) ListResults(_ context.Context, filter ResultFilter) ([]model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]model.Result, 0, len(s.results))
	for _, result := range s.results {
		if filter.matches(result) {
			results = append(results, result)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Metal1 != b.Metal1 {
			return a.Metal1 < b.Metal1
		}
		if a.Metal2 != b.Metal2 {
			return a.Metal2 < b.Metal2
		}
		if a.Shape != b.Shape {
			return a.Shape < b.Shape
		}
		if a.NumAtoms != b.NumAtoms {
			return a.NumAtoms < b.NumAtoms
		}
		return a.NMetal1 < b.NMetal1
	})
	return results, nil
}

func particleKey(shape string, numAtoms int) string {
	return fmt.Sprintf("%s/%d", shape, numAtoms)
}

func (s *MemoryStore) SaveNanoparticle(_ context.Context, np model.Nanoparticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := np
	copied.Bonds = append([][2]int(nil), np.Bonds...)
	copied.Positions = append([][3]float64(nil), np.Positions...)
	s.particles[particleKey(np.Shape, np.NumAtoms)] = copied
	return nil
}

func (s *MemoryStore) GetNanoparticle(_ context.Context, shape string, numAtoms int) (model.Nanoparticle, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	np, ok := s.particles[particleKey(shape, numAtoms)]
	if !ok {
		return model.Nanoparticle{}, false, nil
	}
	np.Bonds = append([][2]int(nil), np.Bonds...)
	np.Positions = append([][3]float64(nil), np.Positions...)
	return np, true, nil
}

func (s *MemoryStore) SaveRunLog(_ context.Context, log model.RunLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runLogs = append(s.runLogs, log)
	return nil
}

// ListRunLogs returns run logs newest first. A non-positive limit returns
// all of them.
func (s *MemoryStore) ListRunLogs(_ context.Context, limit int) ([]model.RunLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]model.RunLog, 0, len(s.runLogs))
	for i := len(s.runLogs) - 1; i >= 0; i-- {
		logs = append(logs, s.runLogs[i])
		if limit > 0 && len(logs) == limit {
			break
		}
	}
	return logs, nil
}
