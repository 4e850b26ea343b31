package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maktab/internal/feeperiod/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, period *domain.FeePeriod) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO fee_periods (
			id, student_id, year, month, fee_amount, balance_carried_over,
			total_due, discount, amount_paid, balance_due_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		period.ID,
		period.StudentID,
		period.Year,
		period.Month,
		period.FeeAmount,
		period.BalanceCarriedOver,
		period.TotalDue,
		period.Discount,
		period.AmountPaid,
		period.BalanceDueDate,
		period.CreatedAt,
		period.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FeePeriod, error) {
	var period domain.FeePeriod
	err := db.WithContext(ctx).Raw(
		`SELECT id, student_id, year, month, fee_amount, balance_carried_over,
			total_due, discount, amount_paid, balance_due_date, created_at, updated_at
		 FROM fee_periods WHERE id = ?`,
		id,
	).Scan(&period).Error
	if err != nil {
		return nil, err
	}
	if period.ID == 0 {
		return nil, nil
	}
	return &period, nil
}

func (r *repo) FindByStudentMonth(ctx context.Context, db *gorm.DB, studentID snowflake.ID, month, year int) (*domain.FeePeriod, error) {
	var period domain.FeePeriod
	err := db.WithContext(ctx).Raw(
		`SELECT id, student_id, year, month, fee_amount, balance_carried_over,
			total_due, discount, amount_paid, balance_due_date, created_at, updated_at
		 FROM fee_periods WHERE student_id = ? AND year = ? AND month = ?`,
		studentID,
		year,
		month,
	).Scan(&period).Error
	if err != nil {
		return nil, err
	}
	if period.ID == 0 {
		return nil, nil
	}
	return &period, nil
}

// AddPayment relies on the conditional WHERE rather than a row lock so a
// concurrent increment can never push amount_paid past the cap on any of
// the supported dialects. The 0.005 slack absorbs float column rounding.
func (r *repo) AddPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, amount float64, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE fee_periods
		 SET amount_paid = amount_paid + ?, updated_at = ?
		 WHERE id = ? AND amount_paid + ? <= total_due - discount + 0.005`,
		amount,
		at,
		id,
		amount,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) AddDiscount(ctx context.Context, db *gorm.DB, id snowflake.ID, amount float64, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE fee_periods
		 SET discount = discount + ?, updated_at = ?
		 WHERE id = ?`,
		amount,
		at,
		id,
	).Error
}

func (r *repo) UpdateDueDate(ctx context.Context, db *gorm.DB, id snowflake.ID, date *time.Time, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE fee_periods
		 SET balance_due_date = ?, updated_at = ?
		 WHERE id = ?`,
		date,
		at,
		id,
	).Error
}
