// Package domain contains persistence models for the monthly fee ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maktab/pkg/money"
)

// PeriodStatus represents settlement states of a fee period.
type PeriodStatus string

const (
	PeriodStatusUnpaid  PeriodStatus = "unpaid"
	PeriodStatusPartial PeriodStatus = "partial"
	PeriodStatusPaid    PeriodStatus = "paid"
)

// FeePeriod is one student's tuition obligation for one calendar month.
// TotalDue is fixed at creation (fee + carry-over); only discount,
// amount_paid and balance_due_date mutate afterwards.
type FeePeriod struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	StudentID          snowflake.ID `gorm:"not null;index;uniqueIndex:ux_fee_periods_student_month,priority:1" json:"student_id"`
	Year               int          `gorm:"not null;uniqueIndex:ux_fee_periods_student_month,priority:2" json:"year"`
	Month              int          `gorm:"not null;uniqueIndex:ux_fee_periods_student_month,priority:3" json:"month"`
	FeeAmount          float64      `gorm:"type:decimal(12,2);not null" json:"fee_amount"`
	BalanceCarriedOver float64      `gorm:"type:decimal(12,2);not null;default:0" json:"balance_carried_over"`
	TotalDue           float64      `gorm:"type:decimal(12,2);not null" json:"total_due"`
	Discount           float64      `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	AmountPaid         float64      `gorm:"type:decimal(12,2);not null;default:0" json:"amount_paid"`
	BalanceDueDate     *time.Time   `gorm:"type:date" json:"balance_due_date,omitempty"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (FeePeriod) TableName() string { return "fee_periods" }

// AmountDue is the collectible total after discount.
func (p FeePeriod) AmountDue() float64 {
	return money.Round2(p.TotalDue - p.Discount)
}

// RemainingBalance never goes below zero.
func (p FeePeriod) RemainingBalance() float64 {
	remaining := money.Round2(p.AmountDue() - p.AmountPaid)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (p FeePeriod) Status() PeriodStatus {
	if money.IsZero(p.RemainingBalance()) {
		return PeriodStatusPaid
	}
	if p.AmountPaid <= 0 {
		return PeriodStatusUnpaid
	}
	return PeriodStatusPartial
}

// NextMonth returns the calendar month following this period, wrapping
// December into January of the next year.
func (p FeePeriod) NextMonth() (month, year int) {
	if p.Month == 12 {
		return 1, p.Year + 1
	}
	return p.Month + 1, p.Year
}

// PreviousMonth wraps January back into December of the prior year.
func PreviousMonth(month, year int) (int, int) {
	if month == 1 {
		return 12, year - 1
	}
	return month - 1, year
}

// LockedBy reports whether next locks this period: the debt has already
// migrated forward, so the period can no longer accept direct receipts.
func (p FeePeriod) LockedBy(next *FeePeriod) bool {
	if next == nil {
		return false
	}
	return p.RemainingBalance() > 0 && next.BalanceCarriedOver > 0
}

// MonthStart is midnight UTC on the first day of the period's month.
func (p FeePeriod) MonthStart() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// DefaultDueDate is the last calendar day of the period's month.
func (p FeePeriod) DefaultDueDate() time.Time {
	return p.MonthStart().AddDate(0, 1, -1)
}

// DueDate is the explicit balance due date when set, otherwise the
// end-of-month default.
func (p FeePeriod) DueDate() time.Time {
	if p.BalanceDueDate != nil {
		return *p.BalanceDueDate
	}
	return p.DefaultDueDate()
}
