package ledger

import (
	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	"github.com/andrescamacho/shippingmanager-go/internal/application/ledger/commands"
	"github.com/andrescamacho/shippingmanager-go/internal/application/ledger/queries"
	domainLedger "github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
	"github.com/andrescamacho/shippingmanager-go/internal/domain/shared"
)

// RegisterHandlers wires the ledger commands and queries into the mediator
func RegisterHandlers(m common.Mediator, repo domainLedger.TransactionRepository, clock shared.Clock) error {
	record := commands.NewRecordTransactionHandler(repo, clock)

	if err := common.RegisterHandler[*commands.RecordPurchaseCommand](m, record); err != nil {
		return err
	}
	if err := common.RegisterHandler[*commands.RecordDepartureCommand](m, record); err != nil {
		return err
	}
	if err := common.RegisterHandler[*queries.GetTransactionsQuery](m, queries.NewGetTransactionsHandler(repo)); err != nil {
		return err
	}
	return common.RegisterHandler[*queries.GetLedgerSummaryQuery](m, queries.NewGetLedgerSummaryHandler(repo))
}
