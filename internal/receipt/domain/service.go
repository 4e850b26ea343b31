package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// RecordReceiptRequest captures one direct payment against a period.
type RecordReceiptRequest struct {
	PeriodID      snowflake.ID
	Amount        float64
	PaidAt        time.Time
	ReceiptNumber *string
	Notes         *string
}

type Service interface {
	// RecordReceipt inserts the receipt and increments the period's
	// amount_paid in one atomic transaction.
	RecordReceipt(ctx context.Context, req RecordReceiptRequest) (*Receipt, error)
	ListByPeriod(ctx context.Context, periodID snowflake.ID) ([]*Receipt, error)
}

var (
	ErrLocked        = errors.New("fee_period_settlement_locked")
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrInvalidDate   = errors.New("invalid_date")
)

// OverpaymentError carries the exact capacity left so the caller can
// correct the amount without guessing.
type OverpaymentError struct {
	Remaining float64
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("overpayment: remaining balance is %.2f", e.Remaining)
}
