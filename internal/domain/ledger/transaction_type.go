package ledger

import "fmt"

// TransactionType represents the type of financial transaction
type TransactionType string

const (
	// TransactionTypeFuelPurchase represents an automatic bunker fuel purchase
	TransactionTypeFuelPurchase TransactionType = "FUEL_PURCHASE"

	// TransactionTypeCO2Purchase represents an automatic CO2 allowance purchase
	TransactionTypeCO2Purchase TransactionType = "CO2_PURCHASE"

	// TransactionTypeVesselDeparture represents income booked when a vessel departs
	TransactionTypeVesselDeparture TransactionType = "VESSEL_DEPARTURE"
)

// AllTransactionTypes returns all valid transaction types
func AllTransactionTypes() []TransactionType {
	return []TransactionType{
		TransactionTypeFuelPurchase,
		TransactionTypeCO2Purchase,
		TransactionTypeVesselDeparture,
	}
}

// String returns the string representation of the TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeFuelPurchase,
		TransactionTypeCO2Purchase,
		TransactionTypeVesselDeparture:
		return true
	default:
		return false
	}
}

// IsPurchase returns true for bunker purchases
func (t TransactionType) IsPurchase() bool {
	return t == TransactionTypeFuelPurchase || t == TransactionTypeCO2Purchase
}

// ToCategory maps the transaction type to its category
func (t TransactionType) ToCategory() (Category, error) {
	category, exists := TypeToCategoryMap[t]
	if !exists {
		return "", fmt.Errorf("unknown transaction type: %s", t)
	}
	return category, nil
}

// ParseTransactionType parses a string into a TransactionType
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
	return t, nil
}
