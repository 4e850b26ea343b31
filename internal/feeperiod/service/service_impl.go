package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maktab/internal/authctx"
	"github.com/smallbiznis/maktab/internal/clock"
	feeperioddomain "github.com/smallbiznis/maktab/internal/feeperiod/domain"
	studentdomain "github.com/smallbiznis/maktab/internal/student/domain"
	"github.com/smallbiznis/maktab/pkg/db"
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
	Repo     feeperioddomain.Repository
	Students studentdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     feeperioddomain.Repository
	students studentdomain.Repository
}

func NewService(p Params) feeperioddomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("feeperiod.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		students: p.Students,
	}
}

func (s *Service) CreateSingle(ctx context.Context, studentID snowflake.ID, month, year int) (*feeperioddomain.FeePeriod, error) {
	if err := feeperioddomain.ValidateMonthYear(month, year); err != nil {
		return nil, err
	}

	student, err := s.students.FindByID(ctx, s.db, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, studentdomain.ErrNotFound
	}
	if err := requireStudentInScope(ctx, student); err != nil {
		return nil, err
	}
	if !student.Billable() {
		return nil, feeperioddomain.ErrNotBillable
	}

	var created *feeperioddomain.FeePeriod
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByStudentMonth(ctx, tx, studentID, month, year)
		if err != nil {
			return err
		}
		if existing != nil {
			return feeperioddomain.ErrConflict
		}

		created, err = s.insertPeriod(ctx, tx, student, month, year)
		return err
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, feeperioddomain.ErrConflict
		}
		return nil, err
	}
	return created, nil
}

func (s *Service) CreateBulk(ctx context.Context, month, year int) (feeperioddomain.CreateBulkResult, error) {
	var result feeperioddomain.CreateBulkResult
	if err := feeperioddomain.ValidateMonthYear(month, year); err != nil {
		return result, err
	}

	students, err := s.students.ListBillable(ctx, s.db)
	if err != nil {
		return result, err
	}

	for _, student := range students {
		if err := requireStudentInScope(ctx, student); err != nil {
			result.Skipped++
			continue
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := s.repo.FindByStudentMonth(ctx, tx, student.ID, month, year)
			if err != nil {
				return err
			}
			if existing != nil {
				return feeperioddomain.ErrConflict
			}
			_, err = s.insertPeriod(ctx, tx, student, month, year)
			return err
		})
		switch {
		case err == nil:
			result.Created++
		case err == feeperioddomain.ErrConflict || db.IsDuplicateKeyErr(err):
			result.Skipped++
		default:
			// Best effort: one failing student must not abort the batch.
			s.log.Warn("bulk assessment failed for student",
				zap.String("student_id", student.ID.String()),
				zap.Int("month", month),
				zap.Int("year", year),
				zap.Error(err))
			result.Skipped++
		}
	}

	return result, nil
}

func (s *Service) EnsurePeriod(ctx context.Context, tx *gorm.DB, studentID snowflake.ID, month, year int) (*feeperioddomain.FeePeriod, error) {
	if err := feeperioddomain.ValidateMonthYear(month, year); err != nil {
		return nil, err
	}
	if tx == nil {
		tx = s.db
	}

	existing, err := s.repo.FindByStudentMonth(ctx, tx, studentID, month, year)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	student, err := s.students.FindByID(ctx, tx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, studentdomain.ErrNotFound
	}
	if !student.Billable() {
		return nil, feeperioddomain.ErrNotBillable
	}

	created, err := s.insertPeriod(ctx, tx, student, month, year)
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost a creation race. The winner's row may be invisible to
			// this snapshot (repeatable read) or the tx may already be
			// aborted (postgres), so a failed re-fetch is a conflict, not
			// a missing period.
			winner, ferr := s.repo.FindByStudentMonth(ctx, tx, studentID, month, year)
			if ferr != nil || winner == nil {
				return nil, feeperioddomain.ErrConflict
			}
			return winner, nil
		}
		return nil, err
	}
	return created, nil
}

func (s *Service) SetDueDate(ctx context.Context, periodID snowflake.ID, date *time.Time) (*feeperioddomain.FeePeriod, error) {
	period, err := s.repo.FindByID(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, feeperioddomain.ErrNotFound
	}
	if err := s.requirePeriodInScope(ctx, period); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.repo.UpdateDueDate(ctx, s.db, periodID, date, now); err != nil {
		return nil, err
	}
	period.BalanceDueDate = date
	period.UpdatedAt = now
	return period, nil
}

func (s *Service) GetByID(ctx context.Context, periodID snowflake.ID) (*feeperioddomain.FeePeriod, error) {
	period, err := s.repo.FindByID(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, feeperioddomain.ErrNotFound
	}
	if err := s.requirePeriodInScope(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

func (s *Service) IsSettlementLocked(ctx context.Context, tx *gorm.DB, period *feeperioddomain.FeePeriod) (bool, error) {
	if tx == nil {
		tx = s.db
	}
	if period.RemainingBalance() <= 0 {
		return false, nil
	}
	nextMonth, nextYear := period.NextMonth()
	next, err := s.repo.FindByStudentMonth(ctx, tx, period.StudentID, nextMonth, nextYear)
	if err != nil {
		return false, err
	}
	return period.LockedBy(next), nil
}

// insertPeriod creates the period row with the carry-over evaluated against
// the ledger as it stands right now. The carry is fixed here and never
// recomputed, even if a late receipt later changes the earlier month.
func (s *Service) insertPeriod(ctx context.Context, tx *gorm.DB, student *studentdomain.Student, month, year int) (*feeperioddomain.FeePeriod, error) {
	prevMonth, prevYear := feeperioddomain.PreviousMonth(month, year)
	prev, err := s.repo.FindByStudentMonth(ctx, tx, student.ID, prevMonth, prevYear)
	if err != nil {
		return nil, err
	}

	carry := 0.0
	if prev != nil {
		carry = prev.RemainingBalance()
	}

	now := s.clock.Now()
	fee := money.Round2(*student.MonthlyFee)
	period := &feeperioddomain.FeePeriod{
		ID:                 s.genID.Generate(),
		StudentID:          student.ID,
		Year:               year,
		Month:              month,
		FeeAmount:          fee,
		BalanceCarriedOver: carry,
		TotalDue:           money.Round2(fee + carry),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Insert(ctx, tx, period); err != nil {
		return nil, err
	}

	s.log.Info("fee period created",
		zap.String("period_id", period.ID.String()),
		zap.String("student_id", student.ID.String()),
		zap.Int("month", month),
		zap.Int("year", year),
		zap.Float64("carry_over", carry))
	return period, nil
}

func (s *Service) requirePeriodInScope(ctx context.Context, period *feeperioddomain.FeePeriod) error {
	student, err := s.students.FindByID(ctx, s.db, period.StudentID)
	if err != nil {
		return err
	}
	if student == nil {
		return studentdomain.ErrNotFound
	}
	return requireStudentInScope(ctx, student)
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
