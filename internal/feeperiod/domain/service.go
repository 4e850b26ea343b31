package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CreateBulkResult reports a best-effort bulk assessment run.
type CreateBulkResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type Service interface {
	// CreateSingle assesses one student for one month, folding in the
	// previous month's unpaid remainder.
	CreateSingle(ctx context.Context, studentID snowflake.ID, month, year int) (*FeePeriod, error)
	// CreateBulk assesses every billable student lacking a period for the
	// month. One failure does not abort the batch.
	CreateBulk(ctx context.Context, month, year int) (CreateBulkResult, error)
	// EnsurePeriod is the idempotent get-or-create used by the allocator.
	// It runs against the caller's transaction handle and never recomputes
	// carry-over for a pre-existing period.
	EnsurePeriod(ctx context.Context, tx *gorm.DB, studentID snowflake.ID, month, year int) (*FeePeriod, error)
	// SetDueDate updates period metadata only; nil clears the date.
	SetDueDate(ctx context.Context, periodID snowflake.ID, date *time.Time) (*FeePeriod, error)
	GetByID(ctx context.Context, periodID snowflake.ID) (*FeePeriod, error)
	// IsSettlementLocked reports whether the period's debt already migrated
	// into the following month.
	IsSettlementLocked(ctx context.Context, tx *gorm.DB, period *FeePeriod) (bool, error)
}

var (
	ErrNotFound          = errors.New("fee_period_not_found")
	ErrNotBillable       = errors.New("student_not_billable")
	ErrConflict          = errors.New("fee_period_exists")
	ErrInvalidMonth      = errors.New("invalid_month")
	ErrInvalidYear       = errors.New("invalid_year")
	ErrStudentOutOfScope = errors.New("student_out_of_scope")
)

// ValidateMonthYear rejects malformed assessment coordinates before they
// reach the ledger.
func ValidateMonthYear(month, year int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	if year < 2000 || year > 2100 {
		return ErrInvalidYear
	}
	return nil
}
