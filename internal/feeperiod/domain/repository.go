package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, period *FeePeriod) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FeePeriod, error)
	FindByStudentMonth(ctx context.Context, db *gorm.DB, studentID snowflake.ID, month, year int) (*FeePeriod, error)
	// AddPayment increments amount_paid only while the payment cap
	// (amount_paid <= total_due - discount) holds; it reports whether the
	// guarded update took effect.
	AddPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, amount float64, at time.Time) (bool, error)
	AddDiscount(ctx context.Context, db *gorm.DB, id snowflake.ID, amount float64, at time.Time) error
	UpdateDueDate(ctx context.Context, db *gorm.DB, id snowflake.ID, date *time.Time, at time.Time) error
}
