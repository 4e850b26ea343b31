// Package domain contains persistence models for recorded payments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Receipt is one recorded payment applied to a single fee period.
// Receipts are immutable once created; corrections are new receipts.
type Receipt struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	FeePeriodID   snowflake.ID  `gorm:"not null;index" json:"fee_period_id"`
	BatchID       *snowflake.ID `gorm:"index" json:"batch_id,omitempty"`
	Amount        float64       `gorm:"type:decimal(12,2);not null" json:"amount"`
	ReceiptNumber *string       `gorm:"type:text" json:"receipt_number,omitempty"`
	PaidAt        time.Time     `gorm:"type:date;not null" json:"paid_at"`
	Notes         *string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Receipt) TableName() string { return "receipts" }

// ReceiptBatch is the audit header linking the receipts created by one
// pay-forward call, recording the covered month range.
type ReceiptBatch struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	StudentID     snowflake.ID      `gorm:"not null;index" json:"student_id"`
	TotalAmount   float64           `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	FromMonth     int               `gorm:"not null" json:"from_month"`
	FromYear      int               `gorm:"not null" json:"from_year"`
	ToMonth       int               `gorm:"not null" json:"to_month"`
	ToYear        int               `gorm:"not null" json:"to_year"`
	ReceiptNumber string            `gorm:"type:text;not null" json:"receipt_number"`
	PaidAt        time.Time         `gorm:"type:date;not null" json:"paid_at"`
	Notes         *string           `gorm:"type:text" json:"notes,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ReceiptBatch) TableName() string { return "receipt_batches" }
