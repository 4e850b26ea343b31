package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	allocationdomain "github.com/smallbiznis/maktab/internal/allocation/domain"
	"github.com/smallbiznis/maktab/internal/authctx"
	"github.com/smallbiznis/maktab/internal/clock"
	feeperioddomain "github.com/smallbiznis/maktab/internal/feeperiod/domain"
	receiptdomain "github.com/smallbiznis/maktab/internal/receipt/domain"
	studentdomain "github.com/smallbiznis/maktab/internal/student/domain"
	"github.com/smallbiznis/maktab/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Ledger   feeperioddomain.Service
	Periods  feeperioddomain.Repository
	Receipts receiptdomain.Repository
	Students studentdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	ledger   feeperioddomain.Service
	periods  feeperioddomain.Repository
	receipts receiptdomain.Repository
	students studentdomain.Repository
}

func NewService(p Params) allocationdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("allocation.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		ledger:   p.Ledger,
		periods:  p.Periods,
		receipts: p.Receipts,
		students: p.Students,
	}
}

// plannedSettlement is one month's pending receipt inside a pay-forward walk.
type plannedSettlement struct {
	period *feeperioddomain.FeePeriod
	amount float64
}

func (s *Service) PayForward(ctx context.Context, req allocationdomain.PayForwardRequest) (*allocationdomain.PayForwardResult, error) {
	if err := feeperioddomain.ValidateMonthYear(req.FromMonth, req.FromYear); err != nil {
		return nil, err
	}
	if err := feeperioddomain.ValidateMonthYear(req.ToMonth, req.ToYear); err != nil {
		return nil, err
	}
	if monthIndex(req.FromMonth, req.FromYear) > monthIndex(req.ToMonth, req.ToYear) {
		return nil, allocationdomain.ErrInvalidRange
	}
	total := money.Round2(req.TotalAmount)
	if total <= 0 {
		return nil, allocationdomain.ErrInvalidAmount
	}
	if req.PaidAt.IsZero() {
		return nil, allocationdomain.ErrInvalidDate
	}

	student, err := s.students.FindByID(ctx, s.db, req.StudentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, studentdomain.ErrNotFound
	}
	if err := requireStudentInScope(ctx, student); err != nil {
		return nil, err
	}

	receiptNumber := uuid.NewString()
	if req.ReceiptNumber != nil && *req.ReceiptNumber != "" {
		receiptNumber = *req.ReceiptNumber
	}

	var result *allocationdomain.PayForwardResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			planned []plannedSettlement
			settled []allocationdomain.MonthRef
			skipped []allocationdomain.MonthRef
		)

		// Each month is settled before the next one is ensured, so a month
		// created during the walk carries over nothing from a month this
		// same batch just cleared.
		expected := 0.0
		now := s.clock.Now()
		for month, year := req.FromMonth, req.FromYear; monthIndex(month, year) <= monthIndex(req.ToMonth, req.ToYear); month, year = nextMonth(month, year) {
			period, err := s.ledger.EnsurePeriod(ctx, tx, req.StudentID, month, year)
			if err != nil {
				return err
			}

			remaining := period.RemainingBalance()
			if remaining <= 0 {
				skipped = append(skipped, allocationdomain.MonthRef{Month: month, Year: year})
				continue
			}

			locked, err := s.ledger.IsSettlementLocked(ctx, tx, period)
			if err != nil {
				return err
			}
			if locked {
				// The month's debt already lives in the next period's
				// carry-over; paying it here would double-count.
				skipped = append(skipped, allocationdomain.MonthRef{Month: month, Year: year})
				continue
			}

			applied, err := s.periods.AddPayment(ctx, tx, period.ID, remaining, now)
			if err != nil {
				return err
			}
			if !applied {
				return fmt.Errorf("settle period %s: payment cap violated", period.ID)
			}

			planned = append(planned, plannedSettlement{period: period, amount: remaining})
			settled = append(settled, allocationdomain.MonthRef{Month: month, Year: year})
			expected = money.Round2(expected + remaining)
		}

		if !money.Equal(total, expected) {
			return &allocationdomain.AmountMismatchError{Expected: expected}
		}

		batch := &receiptdomain.ReceiptBatch{
			ID:            s.genID.Generate(),
			StudentID:     req.StudentID,
			TotalAmount:   total,
			FromMonth:     req.FromMonth,
			FromYear:      req.FromYear,
			ToMonth:       req.ToMonth,
			ToYear:        req.ToYear,
			ReceiptNumber: receiptNumber,
			PaidAt:        req.PaidAt,
			Notes:         req.Notes,
			Metadata: datatypes.JSONMap{
				"settled_months": len(settled),
				"skipped_months": len(skipped),
			},
			CreatedAt: now,
		}
		if err := s.receipts.InsertBatch(ctx, tx, batch); err != nil {
			return err
		}

		for _, plan := range planned {
			receipt := &receiptdomain.Receipt{
				ID:            s.genID.Generate(),
				FeePeriodID:   plan.period.ID,
				BatchID:       &batch.ID,
				Amount:        plan.amount,
				ReceiptNumber: &receiptNumber,
				PaidAt:        req.PaidAt,
				Notes:         req.Notes,
				CreatedAt:     now,
			}
			if err := s.receipts.Insert(ctx, tx, receipt); err != nil {
				return err
			}
		}

		result = &allocationdomain.PayForwardResult{
			BatchID:       batch.ID,
			ReceiptNumber: receiptNumber,
			Created:       len(planned),
			Months:        settled,
			Skipped:       skipped,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("pay forward settled",
		zap.String("student_id", req.StudentID.String()),
		zap.String("batch_id", result.BatchID.String()),
		zap.Int("months", result.Created),
		zap.Float64("total", total))
	return result, nil
}

func (s *Service) PayByParent(ctx context.Context, req allocationdomain.PayByParentRequest) (*allocationdomain.PayByParentResult, error) {
	if err := feeperioddomain.ValidateMonthYear(req.Month, req.Year); err != nil {
		return nil, err
	}
	total := money.Round2(req.TotalAmount)
	if total <= 0 {
		return nil, allocationdomain.ErrInvalidAmount
	}
	discount := money.Round2(req.Discount)
	if discount < 0 {
		return nil, allocationdomain.ErrInvalidDiscount
	}
	if req.PaidAt.IsZero() {
		return nil, allocationdomain.ErrInvalidDate
	}

	teacherID := req.TeacherID
	if caller, ok := authctx.CallerFromContext(ctx); ok {
		if scoped, restricted := caller.ScopedTeacherID(); restricted {
			teacherID = &scoped
		}
	}

	children, err := s.students.ListChildren(ctx, s.db, req.ParentID, teacherID)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, allocationdomain.ErrNoPayableChildren
	}

	var result *allocationdomain.PayByParentResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Children arrive ordered by id; that fixed order decides who
		// absorbs the rounding remainder.
		var (
			included []*studentdomain.Student
			periods  []*feeperioddomain.FeePeriod
			balances []float64
		)
		for _, child := range children {
			period, err := s.ledger.EnsurePeriod(ctx, tx, child.ID, req.Month, req.Year)
			if err != nil {
				return err
			}
			remaining := period.RemainingBalance()
			if remaining <= 0 {
				continue
			}
			locked, err := s.ledger.IsSettlementLocked(ctx, tx, period)
			if err != nil {
				return err
			}
			if locked {
				continue
			}
			included = append(included, child)
			periods = append(periods, period)
			balances = append(balances, remaining)
		}
		if len(included) == 0 {
			return allocationdomain.ErrNoPayableChildren
		}

		expectedTotal := 0.0
		for _, balance := range balances {
			expectedTotal = money.Round2(expectedTotal + balance)
		}
		amountAfterDiscount := money.Round2(expectedTotal - discount)
		if amountAfterDiscount < 0 {
			amountAfterDiscount = 0
		}
		if money.GreaterThan(total, amountAfterDiscount) {
			return &allocationdomain.OverpaymentError{Allowed: amountAfterDiscount}
		}

		// Discount only lands when the cash settles everything left after
		// it; a true partial payment allocates cash alone.
		applyDiscount := discount > 0 && total >= amountAfterDiscount-money.Tolerance

		cashTargets := balances
		var discountShares []float64
		if applyDiscount {
			discountShares = splitProportional(discount, balances)
			adjusted := make([]float64, len(balances))
			for i, balance := range balances {
				adjusted[i] = money.Round2(balance - discountShares[i])
			}
			cashTargets = adjusted
		}
		cashShares := splitProportional(total, cashTargets)

		now := s.clock.Now()
		allocations := make([]allocationdomain.ChildAllocation, 0, len(included))
		created := 0
		for i, period := range periods {
			child := included[i]
			cash := cashShares[i]
			childDiscount := 0.0
			if applyDiscount {
				childDiscount = discountShares[i]
			}

			if childDiscount > 0 {
				if err := s.periods.AddDiscount(ctx, tx, period.ID, childDiscount, now); err != nil {
					return err
				}
			}

			allocation := allocationdomain.ChildAllocation{
				StudentID: child.ID,
				PeriodID:  period.ID,
				Amount:    cash,
				Discount:  childDiscount,
			}

			// Children whose share rounds to nothing produce no receipt.
			if cash > 0 {
				applied, err := s.periods.AddPayment(ctx, tx, period.ID, cash, now)
				if err != nil {
					return err
				}
				if !applied {
					return fmt.Errorf("allocate to period %s: payment cap violated", period.ID)
				}

				receipt := &receiptdomain.Receipt{
					ID:            s.genID.Generate(),
					FeePeriodID:   period.ID,
					Amount:        cash,
					ReceiptNumber: req.ReceiptNumber,
					PaidAt:        req.PaidAt,
					Notes:         req.Notes,
					CreatedAt:     now,
				}
				if err := s.receipts.Insert(ctx, tx, receipt); err != nil {
					return err
				}
				allocation.ReceiptID = &receipt.ID
				created++
			}

			allocations = append(allocations, allocation)
		}

		result = &allocationdomain.PayByParentResult{
			TotalAmount: total,
			Created:     created,
			Allocations: allocations,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("pay by parent settled",
		zap.String("parent_id", req.ParentID.String()),
		zap.Int("receipts", result.Created),
		zap.Float64("total", total),
		zap.Float64("discount", discount))
	return result, nil
}

func monthIndex(month, year int) int {
	return year*12 + (month - 1)
}

func nextMonth(month, year int) (int, int) {
	if month == 12 {
		return 1, year + 1
	}
	return month + 1, year
}

func requireStudentInScope(ctx context.Context, student *studentdomain.Student) error {
	caller, ok := authctx.CallerFromContext(ctx)
	if !ok {
		return nil
	}
	teacherID, scoped := caller.ScopedTeacherID()
	if !scoped {
		return nil
	}
	if student.TeacherID == nil || *student.TeacherID != teacherID {
		return feeperioddomain.ErrStudentOutOfScope
	}
	return nil
}
