package archive

import (
	"context"
	"sort"
	"sync"
)

type MemoryArchive struct {
	mu          sync.RWMutex
	initialized bool
	records     map[string]Record
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{}
}

func (a *MemoryArchive) Init(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.initialized = true
	a.records = make(map[string]Record)
	return nil
}

func (a *MemoryArchive) Put(_ context.Context, record Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return ErrNotInitialized
	}
	record.Genome = append([]byte(nil), record.Genome...)
	a.records[record.ID] = record
	return nil
}

func (a *MemoryArchive) Get(_ context.Context, id string) (Record, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.initialized {
		return Record{}, false, ErrNotInitialized
	}
	record, ok := a.records[id]
	return record, ok, nil
}

func (a *MemoryArchive) ListGeneration(_ context.Context, runID string, generation int) ([]Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.initialized {
		return nil, ErrNotInitialized
	}
	out := make([]Record, 0)
	for _, record := range a.records {
		if record.RunID == runID && record.Generation == generation {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (a *MemoryArchive) Close() error {
	return nil
}
