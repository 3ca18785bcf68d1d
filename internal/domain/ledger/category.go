package ledger

import "fmt"

// Category represents the cash flow category for financial reporting
type Category string

const (
	// CategoryBunkerCosts represents fuel and CO2 expenses
	CategoryBunkerCosts Category = "BUNKER_COSTS"

	// CategoryRouteIncome represents income from departures
	CategoryRouteIncome Category = "ROUTE_INCOME"
)

// AllCategories returns all valid categories
func AllCategories() []Category {
	return []Category{
		CategoryBunkerCosts,
		CategoryRouteIncome,
	}
}

// TypeToCategoryMap maps transaction types to their categories
var TypeToCategoryMap = map[TransactionType]Category{
	TransactionTypeFuelPurchase:    CategoryBunkerCosts,
	TransactionTypeCO2Purchase:     CategoryBunkerCosts,
	TransactionTypeVesselDeparture: CategoryRouteIncome,
}

// String returns the string representation of the Category
func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is valid
func (c Category) IsValid() bool {
	switch c {
	case CategoryBunkerCosts, CategoryRouteIncome:
		return true
	default:
		return false
	}
}

// IsIncome returns true if the category represents income
func (c Category) IsIncome() bool {
	return c == CategoryRouteIncome
}

// IsExpense returns true if the category represents an expense
func (c Category) IsExpense() bool {
	return !c.IsIncome()
}

// ParseCategory parses a string into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return c, nil
}
