package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeePeriod_Status(t *testing.T) {
	period := FeePeriod{TotalDue: 500}
	assert.Equal(t, PeriodStatusUnpaid, period.Status())

	period.AmountPaid = 200
	assert.Equal(t, PeriodStatusPartial, period.Status())

	period.AmountPaid = 500
	assert.Equal(t, PeriodStatusPaid, period.Status())

	// Within the cent tolerance the period counts as settled.
	period.AmountPaid = 499.996
	assert.Equal(t, PeriodStatusPaid, period.Status())
}

func TestFeePeriod_AmountDueAfterDiscount(t *testing.T) {
	period := FeePeriod{TotalDue: 500, Discount: 50, AmountPaid: 450}
	assert.Equal(t, 450.0, period.AmountDue())
	assert.Equal(t, 0.0, period.RemainingBalance())
	assert.Equal(t, PeriodStatusPaid, period.Status())
}

func TestFeePeriod_RemainingNeverNegative(t *testing.T) {
	period := FeePeriod{TotalDue: 500, AmountPaid: 600}
	assert.Equal(t, 0.0, period.RemainingBalance())
}

func TestFeePeriod_NextMonthWrapsYear(t *testing.T) {
	period := FeePeriod{Month: 12, Year: 2024}
	month, year := period.NextMonth()
	assert.Equal(t, 1, month)
	assert.Equal(t, 2025, year)

	month, year = PreviousMonth(1, 2025)
	assert.Equal(t, 12, month)
	assert.Equal(t, 2024, year)
}

func TestFeePeriod_DueDate(t *testing.T) {
	period := FeePeriod{Month: 2, Year: 2024}
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), period.DueDate())

	override := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	period.BalanceDueDate = &override
	assert.Equal(t, override, period.DueDate())
}

func TestFeePeriod_LockedBy(t *testing.T) {
	period := FeePeriod{TotalDue: 500, AmountPaid: 200}
	assert.False(t, period.LockedBy(nil))

	next := &FeePeriod{BalanceCarriedOver: 300}
	assert.True(t, period.LockedBy(next))

	// A settled period is never locked, whatever the next month carries.
	settled := FeePeriod{TotalDue: 500, AmountPaid: 500}
	assert.False(t, settled.LockedBy(next))

	// A next month assessed with no carry does not lock the previous one.
	assert.False(t, period.LockedBy(&FeePeriod{}))
}
