// Package ledger records per-execution cost entries. The orchestrator
// appends one record per runner invocation; callers aggregate them for
// reporting. The execute path only ever writes, so the ledger never feeds
// back into strategy decisions.
package ledger

import (
	"context"
	"time"
)

// Record is one runner invocation's cost accounting entry.
type Record struct {
	// ID uniquely identifies this record.
	ID string

	// ExecutionID correlates all records from one Execute call.
	ExecutionID string

	// Strategy is the strategy that issued the invocation.
	Strategy string

	// Model is the model that handled the invocation.
	Model string

	// TokensIn is the input token count.
	TokensIn int

	// TokensOut is the output token count.
	TokensOut int

	// CostUSD is the invocation cost in USD.
	CostUSD float64

	// Timestamp is when the invocation completed.
	Timestamp time.Time
}

// Aggregate holds summed cost statistics over a set of records.
type Aggregate struct {
	// TotalCostUSD is the summed cost.
	TotalCostUSD float64

	// TotalTokensIn is the summed input token count.
	TotalTokensIn int64

	// TotalTokensOut is the summed output token count.
	TotalTokensOut int64

	// InvocationCount is the number of records aggregated.
	InvocationCount int
}

// Store defines the interface for cost record storage.
type Store interface {
	// Append saves a cost record.
	Append(ctx context.Context, record Record) error

	// GetByExecutionID retrieves all records for one execution, in append order.
	GetByExecutionID(ctx context.Context, executionID string) ([]Record, error)

	// AggregateByModel returns aggregates grouped by model ID.
	AggregateByModel(ctx context.Context) (map[string]Aggregate, error)

	// AggregateByStrategy returns aggregates grouped by strategy name.
	AggregateByStrategy(ctx context.Context) (map[string]Aggregate, error)

	// Total returns the aggregate over all records.
	Total(ctx context.Context) (Aggregate, error)

	// Close closes the store and releases resources.
	Close() error
}
