package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/bunker"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// RecordPurchaseCommand books an executed bunker purchase
type RecordPurchaseCommand struct {
	Plan      bunker.PurchasePlan
	CycleID   string
	Timestamp *time.Time // Optional: if provided, use this timestamp; otherwise use current time
}

// RecordDepartureCommand books the income of a successful departure
type RecordDepartureCommand struct {
	Outcome fleet.DepartureOutcome
	CycleID string
}

// RecordTransactionResponse represents the result of recording a transaction
type RecordTransactionResponse struct {
	TransactionID string
	Timestamp     time.Time
}

// RecordTransactionHandler handles both record commands
type RecordTransactionHandler struct {
	transactionRepo ledger.TransactionRepository
	clock           shared.Clock
}

// NewRecordTransactionHandler creates a new RecordTransactionHandler
func NewRecordTransactionHandler(
	transactionRepo ledger.TransactionRepository,
	clock shared.Clock,
) *RecordTransactionHandler {
	// Default to real clock if not provided
	if clock == nil {
		clock = shared.NewRealClock()
	}

	return &RecordTransactionHandler{
		transactionRepo: transactionRepo,
		clock:           clock,
	}
}

// Handle executes a RecordPurchase or RecordDeparture command
func (h *RecordTransactionHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	var (
		transaction *ledger.Transaction
		err         error
	)

	switch cmd := request.(type) {
	case *RecordPurchaseCommand:
		transaction, err = h.purchase(cmd)
	case *RecordDepartureCommand:
		timestamp := cmd.Outcome.DepartedAt
		if timestamp.IsZero() {
			timestamp = h.clock.Now()
		}
		transaction, err = ledger.NewDepartureTransaction(timestamp, cmd.Outcome, cmd.CycleID)
	default:
		return nil, fmt.Errorf("invalid request type: expected *RecordPurchaseCommand or *RecordDepartureCommand")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := h.transactionRepo.Create(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to persist transaction: %w", err)
	}

	return &RecordTransactionResponse{
		TransactionID: transaction.ID().String(),
		Timestamp:     transaction.Timestamp(),
	}, nil
}

func (h *RecordTransactionHandler) purchase(cmd *RecordPurchaseCommand) (*ledger.Transaction, error) {
	timestamp := h.clock.Now()
	if cmd.Timestamp != nil {
		timestamp = *cmd.Timestamp
	}

	txType := ledger.TransactionTypeFuelPurchase
	if cmd.Plan.Commodity == bunker.CommodityCO2 {
		txType = ledger.TransactionTypeCO2Purchase
	}

	return ledger.NewPurchaseTransaction(timestamp, txType, cmd.Plan.AmountTons, cmd.Plan.UnitPrice, cmd.CycleID)
}
