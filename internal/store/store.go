package store

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
)

// DefaultCapacity bounds a Store created with a non-positive capacity.
const DefaultCapacity = 100

// Record summarizes one finished run.
type Record struct {
	RunID       string                     `json:"run_id"`
	Workflow    string                     `json:"workflow"`
	Query       string                     `json:"query"`
	Termination workflow.TerminationReason `json:"termination"`
	Path        []string                   `json:"path"`
	Error       string                     `json:"error,omitempty"`
	StartedAt   time.Time                  `json:"started_at"`
	Duration    time.Duration              `json:"duration_ns"`
	State       *state.State               `json:"state,omitempty"`
}

// NewRecord builds a record from a run result.
func NewRecord(res *workflow.Result[state.State], startedAt time.Time) Record {
	rec := Record{
		RunID:       res.RunID,
		Workflow:    res.WorkflowName,
		Termination: res.Termination,
		Path:        slices.Clone(res.Path),
		StartedAt:   startedAt,
		Duration:    res.Duration,
	}
	if res.State != nil {
		rec.Query = res.State.UserQuery
		rec.State = res.State.Clone()
	}
	if res.Error != nil {
		rec.Error = res.Error.Error()
	}
	return rec
}

// Store is a bounded, thread-safe collection of run records.
type Store struct {
	mu       sync.RWMutex
	adapter  Adapter
	capacity int
	records  map[string]Record
}

// New creates a store. A nil adapter keeps records in memory only.
func New(adapter Adapter, capacity int) *Store {
	if adapter == nil {
		adapter = NewMemoryAdapter()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		adapter:  adapter,
		capacity: capacity,
		records:  make(map[string]Record),
	}
}

// Put adds or replaces a record, evicting the oldest when full.
func (s *Store) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.RunID] = rec
	s.evict()
}

// Get returns the record for runID.
func (s *Store) Get(runID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[runID]
	if !ok {
		return Record{}, ErrRunNotFound
	}
	return rec, nil
}

// List returns records newest first. A non-empty workflowName filters by
// workflow; limit <= 0 returns all matches.
func (s *Store) List(workflowName string, limit int) []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if workflowName == "" || rec.Workflow == workflowName {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Record) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.RunID, b.RunID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Sync persists the records to the adapter.
func (s *Store) Sync(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make(map[string]json.RawMessage, len(s.records))
	for id, rec := range s.records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return &SerializationError{Key: id, Err: err}
		}
		data[id] = raw
	}
	return s.adapter.Save(ctx, data)
}

// Reload replaces the records with those held by the adapter.
func (s *Store) Reload(ctx context.Context) error {
	data, err := s.adapter.Load(ctx)
	if err != nil {
		return err
	}

	records := make(map[string]Record, len(data))
	for id, raw := range data {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return &SerializationError{Key: id, Err: err}
		}
		records[id] = rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.evict()
	return nil
}

// Adapter returns the underlying adapter.
func (s *Store) Adapter() Adapter {
	return s.adapter
}

// evict drops the oldest records beyond capacity. Callers hold mu.
func (s *Store) evict() {
	for len(s.records) > s.capacity {
		var oldest string
		var at time.Time
		for id, rec := range s.records {
			if oldest == "" || rec.StartedAt.Before(at) || (rec.StartedAt.Equal(at) && id < oldest) {
				oldest, at = id, rec.StartedAt
			}
		}
		delete(s.records, oldest)
	}
}
