package ledger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// transactionIDPrefix keeps ledger IDs distinct from cycle IDs in logs
const transactionIDPrefix = "txn-"

// TransactionID identifies one ledger entry: "txn-" followed by a UUID
type TransactionID struct {
	value string
}

// NewTransactionID generates a fresh ID
func NewTransactionID() TransactionID {
	return TransactionID{value: transactionIDPrefix + uuid.New().String()}
}

// NewTransactionIDFromString parses a stored ID
func NewTransactionIDFromString(id string) (TransactionID, error) {
	if id == "" {
		return TransactionID{}, fmt.Errorf("transaction_id cannot be empty")
	}
	raw, ok := strings.CutPrefix(id, transactionIDPrefix)
	if !ok {
		return TransactionID{}, fmt.Errorf("invalid transaction_id %q: missing %s prefix", id, transactionIDPrefix)
	}
	if _, err := uuid.Parse(raw); err != nil {
		return TransactionID{}, fmt.Errorf("invalid transaction_id format: %w", err)
	}
	return TransactionID{value: id}, nil
}

func (t TransactionID) String() string {
	return t.value
}

// IsZero reports an uninitialised ID
func (t TransactionID) IsZero() bool {
	return t.value == ""
}
