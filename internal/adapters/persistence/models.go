package persistence

import (
	"time"
)

// TransactionModel represents the transactions table
type TransactionModel struct {
	ID              string    `gorm:"column:id;primaryKey;not null"`
	Timestamp       time.Time `gorm:"column:timestamp;not null;index:idx_transactions_timestamp"`
	TransactionType string    `gorm:"column:transaction_type;not null;index:idx_transactions_type"`
	Category        string    `gorm:"column:category;not null"`
	Amount          float64   `gorm:"column:amount;not null"`
	QuantityTons    float64   `gorm:"column:quantity_tons;not null;default:0"`
	UnitPrice       float64   `gorm:"column:unit_price;not null;default:0"`
	VesselID        int64     `gorm:"column:vessel_id;index:idx_transactions_vessel"`
	VesselName      string    `gorm:"column:vessel_name"`
	CycleID         string    `gorm:"column:cycle_id;index:idx_transactions_cycle"`
	Description     string    `gorm:"column:description;type:text"`
	Metadata        string    `gorm:"column:metadata;type:text"` // JSON stored as string
	CreatedAt       time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (TransactionModel) TableName() string {
	return "transactions"
}

// StatusLogModel represents the status_logs table
type StatusLogModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	CycleID   string    `gorm:"column:cycle_id;index:idx_status_logs_cycle"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_status_logs_timestamp"`
	Level     string    `gorm:"column:level;not null;default:'INFO'"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Metadata  string    `gorm:"column:metadata;type:text"`
}

func (StatusLogModel) TableName() string {
	return "status_logs"
}

// AllModels lists every table the daemon owns, in migration order
func AllModels() []interface{} {
	return []interface{}{
		&TransactionModel{},
		&StatusLogModel{},
	}
}
