package ledger

import (
	"fmt"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
)

// Transaction is the aggregate root representing one booked purchase or departure.
// Transactions are immutable once created.
type Transaction struct {
	id              TransactionID
	timestamp       time.Time
	transactionType TransactionType
	category        Category
	amount          float64 // Positive for income, negative for expenses
	quantityTons    float64
	unitPrice       float64
	vesselID        int64
	vesselName      string
	cycleID         string
	description     string
	metadata        map[string]interface{}
}

// NewTransaction creates a new transaction with validation
func NewTransaction(
	timestamp time.Time,
	transactionType TransactionType,
	amount float64,
	quantityTons float64,
	unitPrice float64,
	vesselID int64,
	vesselName string,
	cycleID string,
	description string,
	metadata map[string]interface{},
) (*Transaction, error) {
	if !transactionType.IsValid() {
		return nil, &ErrInvalidTransaction{
			Field:  "transaction_type",
			Reason: fmt.Sprintf("invalid transaction type: %s", transactionType),
		}
	}

	category, err := transactionType.ToCategory()
	if err != nil {
		return nil, &ErrInvalidTransaction{
			Field:  "category",
			Reason: err.Error(),
		}
	}

	t := &Transaction{
		id:              NewTransactionID(),
		timestamp:       timestamp,
		transactionType: transactionType,
		category:        category,
		amount:          amount,
		quantityTons:    quantityTons,
		unitPrice:       unitPrice,
		vesselID:        vesselID,
		vesselName:      vesselName,
		cycleID:         cycleID,
		description:     description,
		metadata:        metadata,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// NewPurchaseTransaction books a bunker purchase as an expense
func NewPurchaseTransaction(timestamp time.Time, transactionType TransactionType, tons int64, unitPrice float64, cycleID string) (*Transaction, error) {
	if !transactionType.IsPurchase() {
		return nil, &ErrInvalidTransaction{
			Field:  "transaction_type",
			Reason: fmt.Sprintf("%s is not a purchase", transactionType),
		}
	}

	cost := float64(tons) * unitPrice
	return NewTransaction(
		timestamp,
		transactionType,
		-cost,
		float64(tons),
		unitPrice,
		0,
		"",
		cycleID,
		fmt.Sprintf("Bought %dt @ $%.0f/t", tons, unitPrice),
		nil,
	)
}

// NewDepartureTransaction books the income of a successful departure
func NewDepartureTransaction(timestamp time.Time, outcome fleet.DepartureOutcome, cycleID string) (*Transaction, error) {
	if !outcome.Success {
		return nil, &ErrInvalidTransaction{
			Field:  "outcome",
			Reason: "only successful departures are booked",
		}
	}

	return NewTransaction(
		timestamp,
		TransactionTypeVesselDeparture,
		outcome.Income,
		0,
		0,
		outcome.VesselID,
		outcome.VesselName,
		cycleID,
		fmt.Sprintf("%s departed", outcome.VesselName),
		map[string]interface{}{
			"fuel_used_tons": outcome.FuelUsedTons,
			"co2_used_tons":  outcome.CO2UsedTons,
			"harbor_fee":     outcome.HarborFee,
		},
	)
}

// ReconstructTransaction reconstructs a transaction from persistence
// This bypasses validation and is used by the repository
func ReconstructTransaction(
	id TransactionID,
	timestamp time.Time,
	transactionType TransactionType,
	category Category,
	amount float64,
	quantityTons float64,
	unitPrice float64,
	vesselID int64,
	vesselName string,
	cycleID string,
	description string,
	metadata map[string]interface{},
) *Transaction {
	return &Transaction{
		id:              id,
		timestamp:       timestamp,
		transactionType: transactionType,
		category:        category,
		amount:          amount,
		quantityTons:    quantityTons,
		unitPrice:       unitPrice,
		vesselID:        vesselID,
		vesselName:      vesselName,
		cycleID:         cycleID,
		description:     description,
		metadata:        metadata,
	}
}

// Validate checks that the transaction satisfies all invariants
func (t *Transaction) Validate() error {
	if t.category.IsIncome() && t.amount < 0 {
		return &ErrInvalidTransaction{
			Field:  "amount",
			Reason: "income cannot be negative",
		}
	}

	if t.category.IsExpense() && t.amount > 0 {
		return &ErrInvalidTransaction{
			Field:  "amount",
			Reason: "expense cannot be positive",
		}
	}

	if t.transactionType.IsPurchase() && t.quantityTons <= 0 {
		return &ErrInvalidTransaction{
			Field:  "quantity_tons",
			Reason: "purchase quantity must be positive",
		}
	}

	if t.transactionType == TransactionTypeVesselDeparture && t.vesselID == 0 {
		return &ErrInvalidTransaction{
			Field:  "vessel_id",
			Reason: "departure must reference a vessel",
		}
	}

	// Timestamp cannot be in the future (allow 1 minute buffer for clock skew)
	now := time.Now().Add(1 * time.Minute)
	if t.timestamp.After(now) {
		return &ErrInvalidTransaction{
			Field:  "timestamp",
			Reason: fmt.Sprintf("timestamp cannot be in the future: %s", t.timestamp),
		}
	}

	return nil
}

// Getters (all fields are immutable)

func (t *Transaction) ID() TransactionID {
	return t.id
}

func (t *Transaction) Timestamp() time.Time {
	return t.timestamp
}

func (t *Transaction) TransactionType() TransactionType {
	return t.transactionType
}

func (t *Transaction) Category() Category {
	return t.category
}

func (t *Transaction) Amount() float64 {
	return t.amount
}

func (t *Transaction) QuantityTons() float64 {
	return t.quantityTons
}

func (t *Transaction) UnitPrice() float64 {
	return t.unitPrice
}

func (t *Transaction) VesselID() int64 {
	return t.vesselID
}

func (t *Transaction) VesselName() string {
	return t.vesselName
}

func (t *Transaction) CycleID() string {
	return t.cycleID
}

func (t *Transaction) Description() string {
	return t.description
}

func (t *Transaction) Metadata() map[string]interface{} {
	// Return a copy to prevent external modification
	if t.metadata == nil {
		return nil
	}
	copy := make(map[string]interface{}, len(t.metadata))
	for k, v := range t.metadata {
		copy[k] = v
	}
	return copy
}

// IsIncome returns true if the transaction represents income
func (t *Transaction) IsIncome() bool {
	return t.amount > 0
}

// IsExpense returns true if the transaction represents an expense
func (t *Transaction) IsExpense() bool {
	return t.amount < 0
}

// String provides a human-readable representation
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction[%s, type=%s, amount=%.0f]",
		t.id.String(), t.transactionType, t.amount)
}
