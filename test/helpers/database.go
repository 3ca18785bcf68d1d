package helpers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andrescamacho/shippingmanager-go/internal/adapters/persistence"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
	"github.com/andrescamacho/shippingmanager-go/internal/infrastructure/database"
)

// NewTestDB opens an in-memory database with the transaction and status log
// tables migrated. It is closed when the test ends.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewTestConnection()
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// NewTestLedger returns a transaction repository on a fresh test database,
// already holding the given transactions
func NewTestLedger(t testing.TB, transactions ...*ledger.Transaction) *persistence.GormTransactionRepository {
	t.Helper()
	repo := persistence.NewGormTransactionRepository(NewTestDB(t))
	for _, tx := range transactions {
		require.NoError(t, repo.Create(context.Background(), tx))
	}
	return repo
}
