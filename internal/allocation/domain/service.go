// Package domain defines the multi-target payment allocation contracts:
// pay-forward across months and pay-by-parent across siblings.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MonthRef names one calendar month of one year.
type MonthRef struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// PayForwardRequest settles a contiguous month range with one lump sum.
type PayForwardRequest struct {
	StudentID     snowflake.ID
	FromMonth     int
	FromYear      int
	ToMonth       int
	ToYear        int
	TotalAmount   float64
	PaidAt        time.Time
	ReceiptNumber *string
	Notes         *string
}

type PayForwardResult struct {
	BatchID       snowflake.ID `json:"batch_id"`
	ReceiptNumber string       `json:"receipt_number"`
	Created       int          `json:"created"`
	Months        []MonthRef   `json:"months"`
	Skipped       []MonthRef   `json:"skipped"`
}

// PayByParentRequest splits one lump sum across a parent's billable
// children for a single month, with an optional discount.
type PayByParentRequest struct {
	ParentID      snowflake.ID
	Month         int
	Year          int
	TotalAmount   float64
	Discount      float64
	PaidAt        time.Time
	ReceiptNumber *string
	Notes         *string
	TeacherID     *snowflake.ID
}

// ChildAllocation reports what one child received from the split.
type ChildAllocation struct {
	StudentID snowflake.ID  `json:"student_id"`
	PeriodID  snowflake.ID  `json:"period_id"`
	Amount    float64       `json:"amount"`
	Discount  float64       `json:"discount"`
	ReceiptID *snowflake.ID `json:"receipt_id,omitempty"`
}

type PayByParentResult struct {
	TotalAmount float64           `json:"total_amount"`
	Created     int               `json:"created"`
	Allocations []ChildAllocation `json:"allocations"`
}

type Service interface {
	// PayForward walks the range chronologically, settling each open month
	// in full under one receipt batch. All-or-nothing.
	PayForward(ctx context.Context, req PayForwardRequest) (*PayForwardResult, error)
	// PayByParent splits the sum across siblings proportionally to their
	// remaining balances. All-or-nothing.
	PayByParent(ctx context.Context, req PayByParentRequest) (*PayByParentResult, error)
}

var (
	ErrInvalidRange      = errors.New("invalid_month_range")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidDiscount   = errors.New("invalid_discount")
	ErrInvalidDate       = errors.New("invalid_date")
	ErrNoPayableChildren = errors.New("no_payable_children")
)

// AmountMismatchError reports the exact total a pay-forward call must
// supply so the caller can correct input without guessing.
type AmountMismatchError struct {
	Expected float64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch: expected total is %.2f", e.Expected)
}

// OverpaymentError reports the maximum a pay-by-parent call may supply.
type OverpaymentError struct {
	Allowed float64
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("overpayment: at most %.2f can be allocated", e.Allowed)
}
