package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store for CLI and embedded
// use. It does not persist data between runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore creates a new in-memory cost store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make([]Record, 0)}
}

// Append saves a cost record in memory.
func (s *MemoryStore) Append(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	s.records = append(s.records, record)
	return nil
}

// GetByExecutionID retrieves all records for one execution, in append order.
func (s *MemoryStore) GetByExecutionID(ctx context.Context, executionID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, r := range s.records {
		if r.ExecutionID == executionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// AggregateByModel returns aggregates grouped by model ID.
func (s *MemoryStore) AggregateByModel(ctx context.Context) (map[string]Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.groupBy(func(r Record) string { return r.Model }), nil
}

// AggregateByStrategy returns aggregates grouped by strategy name.
func (s *MemoryStore) AggregateByStrategy(ctx context.Context) (map[string]Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.groupBy(func(r Record) string { return r.Strategy }), nil
}

// Total returns the aggregate over all records.
func (s *MemoryStore) Total(ctx context.Context) (Aggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var agg Aggregate
	for _, r := range s.records {
		accumulate(&agg, r)
	}
	return agg, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// groupBy aggregates records keyed by the given function.
// Callers must hold at least a read lock.
func (s *MemoryStore) groupBy(key func(Record) string) map[string]Aggregate {
	out := make(map[string]Aggregate)
	for _, r := range s.records {
		agg := out[key(r)]
		accumulate(&agg, r)
		out[key(r)] = agg
	}
	return out
}

func accumulate(agg *Aggregate, r Record) {
	agg.TotalCostUSD += r.CostUSD
	agg.TotalTokensIn += int64(r.TokensIn)
	agg.TotalTokensOut += int64(r.TokensOut)
	agg.InvocationCount++
}
