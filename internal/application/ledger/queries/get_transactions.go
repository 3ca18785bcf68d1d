package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
)

// GetTransactionsQuery represents a query to retrieve transactions
type GetTransactionsQuery struct {
	StartDate       *time.Time
	EndDate         *time.Time
	Category        *string
	TransactionType *string
	VesselID        *int64
	Limit           int
	Offset          int
	OrderBy         string
}

// GetTransactionsResponse represents the result of the query
type GetTransactionsResponse struct {
	Transactions []*TransactionDTO
	Total        int
}

// TransactionDTO represents a transaction data transfer object
type TransactionDTO struct {
	ID           string                 `json:"id"`
	Timestamp    time.Time              `json:"timestamp"`
	Type         string                 `json:"type"`
	Category     string                 `json:"category"`
	Amount       float64                `json:"amount"`
	QuantityTons float64                `json:"quantity_tons,omitempty"`
	UnitPrice    float64                `json:"unit_price,omitempty"`
	VesselID     int64                  `json:"vessel_id,omitempty"`
	VesselName   string                 `json:"vessel_name,omitempty"`
	CycleID      string                 `json:"cycle_id,omitempty"`
	Description  string                 `json:"description"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// GetTransactionsHandler handles the GetTransactions query
type GetTransactionsHandler struct {
	transactionRepo ledger.TransactionRepository
}

// NewGetTransactionsHandler creates a new GetTransactionsHandler
func NewGetTransactionsHandler(transactionRepo ledger.TransactionRepository) *GetTransactionsHandler {
	return &GetTransactionsHandler{
		transactionRepo: transactionRepo,
	}
}

// Handle executes the GetTransactions query
func (h *GetTransactionsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetTransactionsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetTransactionsQuery")
	}

	opts, err := buildQueryOptions(query.StartDate, query.EndDate, query.Category, query.TransactionType)
	if err != nil {
		return nil, err
	}
	opts.VesselID = query.VesselID
	if query.Limit > 0 {
		opts.Limit = query.Limit
	}
	if query.Offset > 0 {
		opts.Offset = query.Offset
	}
	if query.OrderBy != "" {
		opts.OrderBy = query.OrderBy
	}

	transactions, err := h.transactionRepo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	total, err := h.transactionRepo.Count(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	dtos := make([]*TransactionDTO, len(transactions))
	for i, tx := range transactions {
		dtos[i] = toDTO(tx)
	}

	return &GetTransactionsResponse{
		Transactions: dtos,
		Total:        total,
	}, nil
}

func buildQueryOptions(start, end *time.Time, category, txType *string) (ledger.QueryOptions, error) {
	opts := ledger.DefaultQueryOptions()
	opts.StartDate = start
	opts.EndDate = end

	if category != nil {
		c, err := ledger.ParseCategory(*category)
		if err != nil {
			return opts, fmt.Errorf("invalid category: %w", err)
		}
		opts.Category = &c
	}

	if txType != nil {
		t, err := ledger.ParseTransactionType(*txType)
		if err != nil {
			return opts, fmt.Errorf("invalid transaction type: %w", err)
		}
		opts.TransactionType = &t
	}

	return opts, nil
}

func toDTO(tx *ledger.Transaction) *TransactionDTO {
	return &TransactionDTO{
		ID:           tx.ID().String(),
		Timestamp:    tx.Timestamp(),
		Type:         tx.TransactionType().String(),
		Category:     tx.Category().String(),
		Amount:       tx.Amount(),
		QuantityTons: tx.QuantityTons(),
		UnitPrice:    tx.UnitPrice(),
		VesselID:     tx.VesselID(),
		VesselName:   tx.VesselName(),
		CycleID:      tx.CycleID(),
		Description:  tx.Description(),
		Metadata:     tx.Metadata(),
	}
}
