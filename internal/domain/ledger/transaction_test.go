package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/fleet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPurchaseTransaction(t *testing.T) {
	tx, err := NewPurchaseTransaction(time.Now(), TransactionTypeFuelPurchase, 900, 400, "scheduled-1")

	require.NoError(t, err)
	assert.Equal(t, -360_000.0, tx.Amount())
	assert.Equal(t, 900.0, tx.QuantityTons())
	assert.Equal(t, CategoryBunkerCosts, tx.Category())
	assert.Equal(t, "scheduled-1", tx.CycleID())
	assert.True(t, tx.IsExpense())
	assert.False(t, tx.ID().IsZero())
}

func TestNewPurchaseTransaction_RejectsDepartureType(t *testing.T) {
	_, err := NewPurchaseTransaction(time.Now(), TransactionTypeVesselDeparture, 1, 1, "")

	var invalid *ErrInvalidTransaction
	assert.ErrorAs(t, err, &invalid)
}

func TestNewPurchaseTransaction_ZeroTons(t *testing.T) {
	_, err := NewPurchaseTransaction(time.Now(), TransactionTypeCO2Purchase, 0, 8, "")

	assert.Error(t, err)
}

func TestNewDepartureTransaction(t *testing.T) {
	outcome := fleet.DepartureOutcome{
		VesselID:     7,
		VesselName:   "Aurora",
		Success:      true,
		Income:       150_000,
		FuelUsedTons: 12,
		CO2UsedTons:  3,
		HarborFee:    2_000,
	}

	tx, err := NewDepartureTransaction(time.Now(), outcome, "manual-1")

	require.NoError(t, err)
	assert.Equal(t, 150_000.0, tx.Amount())
	assert.Equal(t, CategoryRouteIncome, tx.Category())
	assert.Equal(t, int64(7), tx.VesselID())
	assert.Equal(t, "Aurora departed", tx.Description())
	assert.Equal(t, 2_000.0, tx.Metadata()["harbor_fee"])
}

func TestNewDepartureTransaction_FailedOutcome(t *testing.T) {
	_, err := NewDepartureTransaction(time.Now(), fleet.DepartureOutcome{VesselID: 7}, "")

	assert.Error(t, err)
}

func TestNewTransaction_FutureTimestamp(t *testing.T) {
	_, err := NewPurchaseTransaction(time.Now().Add(time.Hour), TransactionTypeFuelPurchase, 1, 1, "")

	assert.Error(t, err)
}

func TestParseTransactionType(t *testing.T) {
	tt, err := ParseTransactionType("CO2_PURCHASE")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeCO2Purchase, tt)

	_, err = ParseTransactionType("REFUEL")
	assert.Error(t, err)
}

func TestTransactionID_RoundTrip(t *testing.T) {
	id := NewTransactionID()
	assert.True(t, strings.HasPrefix(id.String(), "txn-"))

	parsed, err := NewTransactionIDFromString(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestTransactionID_RejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "3f2b8c1e-0b7a-4c57-9a51-2d5f3f0e9c11", "txn-not-a-uuid", "cyc-3f2b8c1e-0b7a-4c57-9a51-2d5f3f0e9c11"} {
		_, err := NewTransactionIDFromString(raw)
		assert.Error(t, err, raw)
	}
}
