package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/ledger"
	"gorm.io/gorm"
)

// Compile-time interface check
var _ ledger.TransactionRepository = (*GormTransactionRepository)(nil)

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GORM transaction repository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create persists a new transaction
func (r *GormTransactionRepository) Create(ctx context.Context, transaction *ledger.Transaction) error {
	model, err := r.transactionToModel(transaction)
	if err != nil {
		return fmt.Errorf("failed to convert transaction to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// FindByID retrieves a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	var model TransactionModel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&model)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, &ledger.ErrTransactionNotFound{ID: id.String()}
		}
		return nil, fmt.Errorf("failed to find transaction: %w", result.Error)
	}

	return r.modelToTransaction(&model)
}

// List retrieves transactions with optional filtering
func (r *GormTransactionRepository) List(ctx context.Context, opts ledger.QueryOptions) ([]*ledger.Transaction, error) {
	query := r.applyFilters(r.db.WithContext(ctx), opts)
	query = query.Order(orderClause(opts.OrderBy))

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var models []TransactionModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find transactions: %w", err)
	}

	transactions := make([]*ledger.Transaction, len(models))
	for i := range models {
		tx, err := r.modelToTransaction(&models[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert transaction model: %w", err)
		}
		transactions[i] = tx
	}

	return transactions, nil
}

// Count returns the count of transactions matching the criteria
func (r *GormTransactionRepository) Count(ctx context.Context, opts ledger.QueryOptions) (int, error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&TransactionModel{}), opts)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return int(count), nil
}

// Summarize aggregates amount and tonnage per transaction type.
// Pagination and ordering in opts are ignored.
func (r *GormTransactionRepository) Summarize(ctx context.Context, opts ledger.QueryOptions) ([]ledger.TypeSummary, error) {
	var rows []struct {
		TransactionType string
		Count           int
		TotalAmount     float64
		TotalTons       float64
	}

	query := r.applyFilters(r.db.WithContext(ctx).Model(&TransactionModel{}), opts)
	err := query.
		Select("transaction_type, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount, COALESCE(SUM(quantity_tons), 0) AS total_tons").
		Group("transaction_type").
		Order("transaction_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transactions: %w", err)
	}

	summaries := make([]ledger.TypeSummary, 0, len(rows))
	for _, row := range rows {
		transactionType, err := ledger.ParseTransactionType(row.TransactionType)
		if err != nil {
			return nil, fmt.Errorf("invalid transaction type in database: %w", err)
		}
		summaries = append(summaries, ledger.TypeSummary{
			TransactionType: transactionType,
			Count:           row.Count,
			TotalAmount:     row.TotalAmount,
			TotalTons:       row.TotalTons,
		})
	}

	return summaries, nil
}

// applyFilters applies query options to a GORM query
func (r *GormTransactionRepository) applyFilters(query *gorm.DB, opts ledger.QueryOptions) *gorm.DB {
	if opts.StartDate != nil {
		query = query.Where("timestamp >= ?", *opts.StartDate)
	}
	if opts.EndDate != nil {
		query = query.Where("timestamp <= ?", *opts.EndDate)
	}
	if opts.Category != nil {
		query = query.Where("category = ?", opts.Category.String())
	}
	if opts.TransactionType != nil {
		query = query.Where("transaction_type = ?", opts.TransactionType.String())
	}
	if opts.VesselID != nil {
		query = query.Where("vessel_id = ?", *opts.VesselID)
	}

	return query
}

// orderClause only lets the two supported orderings through to SQL
func orderClause(orderBy string) string {
	switch orderBy {
	case "timestamp ASC", "timestamp asc":
		return "timestamp ASC"
	default:
		return "timestamp DESC"
	}
}

// modelToTransaction converts database model to domain entity
func (r *GormTransactionRepository) modelToTransaction(model *TransactionModel) (*ledger.Transaction, error) {
	id, err := ledger.NewTransactionIDFromString(model.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction ID in database: %w", err)
	}

	transactionType, err := ledger.ParseTransactionType(model.TransactionType)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type in database: %w", err)
	}

	category, err := ledger.ParseCategory(model.Category)
	if err != nil {
		return nil, fmt.Errorf("invalid category in database: %w", err)
	}

	var metadata map[string]interface{}
	if model.Metadata != "" {
		if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
			metadata = nil
		}
	}

	return ledger.ReconstructTransaction(
		id,
		model.Timestamp,
		transactionType,
		category,
		model.Amount,
		model.QuantityTons,
		model.UnitPrice,
		model.VesselID,
		model.VesselName,
		model.CycleID,
		model.Description,
		metadata,
	), nil
}

// transactionToModel converts domain entity to database model
func (r *GormTransactionRepository) transactionToModel(tx *ledger.Transaction) (*TransactionModel, error) {
	var metadataJSON string
	if tx.Metadata() != nil {
		bytes, err := json.Marshal(tx.Metadata())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = string(bytes)
	}

	return &TransactionModel{
		ID:              tx.ID().String(),
		Timestamp:       tx.Timestamp(),
		TransactionType: tx.TransactionType().String(),
		Category:        tx.Category().String(),
		Amount:          tx.Amount(),
		QuantityTons:    tx.QuantityTons(),
		UnitPrice:       tx.UnitPrice(),
		VesselID:        tx.VesselID(),
		VesselName:      tx.VesselName(),
		CycleID:         tx.CycleID(),
		Description:     tx.Description(),
		Metadata:        metadataJSON,
	}, nil
}
