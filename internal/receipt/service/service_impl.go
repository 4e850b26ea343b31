package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maktab/internal/authctx"
	"github.com/smallbiznis/maktab/internal/clock"
	feeperioddomain "github.com/smallbiznis/maktab/internal/feeperiod/domain"
	receiptdomain "github.com/smallbiznis/maktab/internal/receipt/domain"
	studentdomain "github.com/smallbiznis/maktab/internal/student/domain"
	"github.com/smallbiznis/maktab/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     receiptdomain.Repository
	Periods  feeperioddomain.Repository
	Ledger   feeperioddomain.Service
	Students studentdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     receiptdomain.Repository
	periods  feeperioddomain.Repository
	ledger   feeperioddomain.Service
	students studentdomain.Repository
}

func NewService(p Params) receiptdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("receipt.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		periods:  p.Periods,
		ledger:   p.Ledger,
		students: p.Students,
	}
}

func (s *Service) RecordReceipt(ctx context.Context, req receiptdomain.RecordReceiptRequest) (*receiptdomain.Receipt, error) {
	amount := money.Round2(req.Amount)
	if amount <= 0 {
		return nil, receiptdomain.ErrInvalidAmount
	}
	if req.PaidAt.IsZero() {
		return nil, receiptdomain.ErrInvalidDate
	}

	var created *receiptdomain.Receipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		period, err := s.periods.FindByID(ctx, tx, req.PeriodID)
		if err != nil {
			return err
		}
		if period == nil {
			return feeperioddomain.ErrNotFound
		}
		if err := s.requirePeriodInScope(ctx, tx, period); err != nil {
			return err
		}

		locked, err := s.ledger.IsSettlementLocked(ctx, tx, period)
		if err != nil {
			return err
		}
		if locked {
			return receiptdomain.ErrLocked
		}

		if money.GreaterThan(period.AmountPaid+amount, period.AmountDue()) {
			return &receiptdomain.OverpaymentError{Remaining: period.RemainingBalance()}
		}

		now := s.clock.Now()
		receipt := &receiptdomain.Receipt{
			ID:            s.genID.Generate(),
			FeePeriodID:   period.ID,
			Amount:        amount,
			ReceiptNumber: req.ReceiptNumber,
			PaidAt:        req.PaidAt,
			Notes:         req.Notes,
			CreatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, receipt); err != nil {
			return err
		}

		applied, err := s.periods.AddPayment(ctx, tx, period.ID, amount, now)
		if err != nil {
			return err
		}
		if !applied {
			// A concurrent receipt consumed the capacity between the read
			// and the guarded update.
			return &receiptdomain.OverpaymentError{Remaining: period.RemainingBalance()}
		}

		created = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("receipt recorded",
		zap.String("receipt_id", created.ID.String()),
		zap.String("period_id", req.PeriodID.String()),
		zap.Float64("amount", amount))
	return created, nil
}

func (s *Service) ListByPeriod(ctx context.Context, periodID snowflake.ID) ([]*receiptdomain.Receipt, error) {
	period, err := s.periods.FindByID(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, feeperioddomain.ErrNotFound
	}
	if err := s.requirePeriodInScope(ctx, s.db, period); err != nil {
		return nil, err
	}
	return s.repo.ListByPeriod(ctx, s.db, periodID)
}

func (s *Service) requirePeriodInScope(ctx context.Context, tx *gorm.DB, period *feeperioddomain.FeePeriod) error {
	caller, ok := authctx.CallerFromContext(ctx)
	if !ok {
		return nil
	}
	teacherID, scoped := caller.ScopedTeacherID()
	if !scoped {
		return nil
	}
	student, err := s.students.FindByID(ctx, tx, period.StudentID)
	if err != nil {
		return err
	}
	if student == nil {
		return studentdomain.ErrNotFound
	}
	if student.TeacherID == nil || *student.TeacherID != teacherID {
		return feeperioddomain.ErrStudentOutOfScope
	}
	return nil
}
