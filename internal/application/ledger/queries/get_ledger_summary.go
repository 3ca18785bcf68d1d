package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
)

// GetLedgerSummaryQuery aggregates the persisted ledger over an optional date range
type GetLedgerSummaryQuery struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// LedgerSummaryRow is one transaction type's aggregate
type LedgerSummaryRow struct {
	Type        string  `json:"type"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
	TotalTons   float64 `json:"total_tons"`
}

// GetLedgerSummaryResponse carries per-type rows plus the net result
type GetLedgerSummaryResponse struct {
	Rows        []LedgerSummaryRow `json:"rows"`
	TotalIncome float64            `json:"total_income"`
	TotalSpend  float64            `json:"total_spend"`
	Net         float64            `json:"net"`
}

// GetLedgerSummaryHandler handles the GetLedgerSummary query
type GetLedgerSummaryHandler struct {
	transactionRepo ledger.TransactionRepository
}

// NewGetLedgerSummaryHandler creates a new GetLedgerSummaryHandler
func NewGetLedgerSummaryHandler(transactionRepo ledger.TransactionRepository) *GetLedgerSummaryHandler {
	return &GetLedgerSummaryHandler{transactionRepo: transactionRepo}
}

// Handle executes the GetLedgerSummary query
func (h *GetLedgerSummaryHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetLedgerSummaryQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetLedgerSummaryQuery")
	}

	opts, err := buildQueryOptions(query.StartDate, query.EndDate, nil, nil)
	if err != nil {
		return nil, err
	}

	summaries, err := h.transactionRepo.Summarize(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize ledger: %w", err)
	}

	resp := &GetLedgerSummaryResponse{Rows: make([]LedgerSummaryRow, 0, len(summaries))}
	for _, s := range summaries {
		resp.Rows = append(resp.Rows, LedgerSummaryRow{
			Type:        s.TransactionType.String(),
			Count:       s.Count,
			TotalAmount: s.TotalAmount,
			TotalTons:   s.TotalTons,
		})
		if s.TotalAmount >= 0 {
			resp.TotalIncome += s.TotalAmount
		} else {
			resp.TotalSpend += -s.TotalAmount
		}
	}
	resp.Net = resp.TotalIncome - resp.TotalSpend

	return resp, nil
}
