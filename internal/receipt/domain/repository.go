package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, receipt *Receipt) error
	InsertBatch(ctx context.Context, db *gorm.DB, batch *ReceiptBatch) error
	ListByPeriod(ctx context.Context, db *gorm.DB, periodID snowflake.ID) ([]*Receipt, error)
	ListByPeriodIDs(ctx context.Context, db *gorm.DB, periodIDs []snowflake.ID) ([]*Receipt, error)
}
