package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maktab/internal/receipt/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, receipt *domain.Receipt) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO receipts (
			id, fee_period_id, batch_id, amount, receipt_number, paid_at, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID,
		receipt.FeePeriodID,
		receipt.BatchID,
		receipt.Amount,
		receipt.ReceiptNumber,
		receipt.PaidAt,
		receipt.Notes,
		receipt.CreatedAt,
	).Error
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, batch *domain.ReceiptBatch) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO receipt_batches (
			id, student_id, total_amount, from_month, from_year, to_month, to_year,
			receipt_number, paid_at, notes, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID,
		batch.StudentID,
		batch.TotalAmount,
		batch.FromMonth,
		batch.FromYear,
		batch.ToMonth,
		batch.ToYear,
		batch.ReceiptNumber,
		batch.PaidAt,
		batch.Notes,
		batch.Metadata,
		batch.CreatedAt,
	).Error
}

func (r *repo) ListByPeriod(ctx context.Context, db *gorm.DB, periodID snowflake.ID) ([]*domain.Receipt, error) {
	var receipts []*domain.Receipt
	err := db.WithContext(ctx).
		Model(&domain.Receipt{}).
		Where("fee_period_id = ?", periodID).
		Order("paid_at asc, id asc").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *repo) ListByPeriodIDs(ctx context.Context, db *gorm.DB, periodIDs []snowflake.ID) ([]*domain.Receipt, error) {
	if len(periodIDs) == 0 {
		return nil, nil
	}
	var receipts []*domain.Receipt
	err := db.WithContext(ctx).
		Model(&domain.Receipt{}).
		Where("fee_period_id IN ?", periodIDs).
		Order("paid_at asc, id asc").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}
