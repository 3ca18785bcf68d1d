package ledger

import (
	"context"
	"time"
)

// TransactionRepository defines persistence operations for transactions
type TransactionRepository interface {
	// Create persists a new transaction
	Create(ctx context.Context, transaction *Transaction) error

	// FindByID retrieves a transaction by its ID
	FindByID(ctx context.Context, id TransactionID) (*Transaction, error)

	// List retrieves transactions with optional filtering
	List(ctx context.Context, opts QueryOptions) ([]*Transaction, error)

	// Count returns the count of transactions matching the criteria
	Count(ctx context.Context, opts QueryOptions) (int, error)

	// Summarize aggregates amounts and quantities per transaction type
	Summarize(ctx context.Context, opts QueryOptions) ([]TypeSummary, error)
}

// TypeSummary is one row of an aggregated ledger report
type TypeSummary struct {
	TransactionType TransactionType
	Count           int
	TotalAmount     float64
	TotalTons       float64
}

// QueryOptions defines filtering and pagination options for transaction queries
type QueryOptions struct {
	// Date range filtering
	StartDate *time.Time
	EndDate   *time.Time

	// Category filtering
	Category *Category

	// Transaction type filtering
	TransactionType *TransactionType

	// Vessel filtering
	VesselID *int64

	// Pagination
	Limit  int
	Offset int

	// Sorting
	OrderBy string // "timestamp ASC" or "timestamp DESC" (default DESC)
}

// DefaultQueryOptions returns default query options
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Limit:   50,
		Offset:  0,
		OrderBy: "timestamp DESC",
	}
}
