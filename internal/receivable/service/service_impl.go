package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maktab/internal/authctx"
	"github.com/smallbiznis/maktab/internal/clock"
	feeperioddomain "github.com/smallbiznis/maktab/internal/feeperiod/domain"
	receiptdomain "github.com/smallbiznis/maktab/internal/receipt/domain"
	receivabledomain "github.com/smallbiznis/maktab/internal/receivable/domain"
	studentdomain "github.com/smallbiznis/maktab/internal/student/domain"
	"github.com/smallbiznis/maktab/pkg/db/pagination"
	"github.com/smallbiznis/maktab/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// outstandingCond keeps float column rounding from resurrecting settled
// periods in the receivable scans.
const outstandingCond = "(fee_periods.total_due - fee_periods.discount - fee_periods.amount_paid) > 0.005"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Periods  feeperioddomain.Repository
	Receipts receiptdomain.Repository
	Students studentdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	periods  feeperioddomain.Repository
	receipts receiptdomain.Repository
	students studentdomain.Repository
}

func NewService(p Params) receivabledomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("receivable.service"),
		clock:    p.Clock,
		periods:  p.Periods,
		receipts: p.Receipts,
		students: p.Students,
	}
}

func (s *Service) Summary(ctx context.Context, periodID snowflake.ID) (*receivabledomain.Summary, error) {
	period, err := s.periods.FindByID(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, feeperioddomain.ErrNotFound
	}
	if err := s.requireStudentScope(ctx, period.StudentID); err != nil {
		return nil, err
	}

	summary := buildSummary(*period, s.clock.Now())
	return &summary, nil
}

type listRow struct {
	ID                 snowflake.ID `gorm:"column:id"`
	StudentID          snowflake.ID `gorm:"column:student_id"`
	Year               int          `gorm:"column:year"`
	Month              int          `gorm:"column:month"`
	FeeAmount          float64      `gorm:"column:fee_amount"`
	BalanceCarriedOver float64      `gorm:"column:balance_carried_over"`
	TotalDue           float64      `gorm:"column:total_due"`
	Discount           float64      `gorm:"column:discount"`
	AmountPaid         float64      `gorm:"column:amount_paid"`
	BalanceDueDate     *time.Time   `gorm:"column:balance_due_date"`
	FirstName          string       `gorm:"column:first_name"`
	LastName           string       `gorm:"column:last_name"`
}

func (row listRow) period() feeperioddomain.FeePeriod {
	return feeperioddomain.FeePeriod{
		ID:                 row.ID,
		StudentID:          row.StudentID,
		Year:               row.Year,
		Month:              row.Month,
		FeeAmount:          row.FeeAmount,
		BalanceCarriedOver: row.BalanceCarriedOver,
		TotalDue:           row.TotalDue,
		Discount:           row.Discount,
		AmountPaid:         row.AmountPaid,
		BalanceDueDate:     row.BalanceDueDate,
	}
}

func (s *Service) List(ctx context.Context, filter receivabledomain.ListFilter, page pagination.Pagination) (*receivabledomain.ListResponse, error) {
	page = page.Normalize()

	// Outstanding restriction first, status filter second; both stages
	// share one WHERE so the count and the page always agree.
	build := func() *gorm.DB {
		stmt := s.db.WithContext(ctx).
			Table("fee_periods").
			Joins("JOIN students ON students.id = fee_periods.student_id").
			Where(outstandingCond)
		if filter.StudentID != nil {
			stmt = stmt.Where("fee_periods.student_id = ?", *filter.StudentID)
		}
		if filter.Month != nil {
			stmt = stmt.Where("fee_periods.month = ?", *filter.Month)
		}
		if filter.Year != nil {
			stmt = stmt.Where("fee_periods.year = ?", *filter.Year)
		}
		if filter.Search != "" {
			stmt = stmt.Where("lower("+studentNameExpr(s.db.Dialector.Name())+") LIKE lower(?)", "%"+filter.Search+"%")
		}
		if filter.Status != nil {
			switch *filter.Status {
			case feeperioddomain.PeriodStatusUnpaid:
				stmt = stmt.Where("fee_periods.amount_paid <= 0")
			case feeperioddomain.PeriodStatusPartial:
				stmt = stmt.Where("fee_periods.amount_paid > 0")
			}
		}
		if teacherID, scoped := scopedTeacher(ctx); scoped {
			stmt = stmt.Where("students.teacher_id = ?", teacherID)
		}
		return stmt
	}

	var totalCount int64
	if err := build().Count(&totalCount).Error; err != nil {
		return nil, err
	}

	var rows []listRow
	err := build().
		Select("fee_periods.*, students.first_name, students.last_name").
		Order("fee_periods.year asc, fee_periods.month asc, fee_periods.id asc").
		Offset(page.Offset()).
		Limit(page.PerPage).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	items := make([]receivabledomain.ListItem, 0, len(rows))
	for _, row := range rows {
		period := row.period()
		items = append(items, receivabledomain.ListItem{
			Summary: buildSummary(period, now),
			StudentName: studentdomain.Student{
				FirstName: row.FirstName,
				LastName:  row.LastName,
			}.FullName(),
		})
	}

	return &receivabledomain.ListResponse{
		PageInfo: pagination.BuildPageInfo(page, totalCount),
		Items:    items,
	}, nil
}

func (s *Service) ByStudent(ctx context.Context, studentID snowflake.ID) (*receivabledomain.StudentReceivables, error) {
	student, err := s.students.FindByID(ctx, s.db, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, studentdomain.ErrNotFound
	}
	if teacherID, scoped := scopedTeacher(ctx); scoped {
		if student.TeacherID == nil || *student.TeacherID != teacherID {
			return nil, feeperioddomain.ErrStudentOutOfScope
		}
	}

	var periods []feeperioddomain.FeePeriod
	err = s.db.WithContext(ctx).
		Model(&feeperioddomain.FeePeriod{}).
		Where("student_id = ?", studentID).
		Order("year asc, month asc").
		Find(&periods).Error
	if err != nil {
		return nil, err
	}

	periodIDs := make([]snowflake.ID, 0, len(periods))
	for _, period := range periods {
		periodIDs = append(periodIDs, period.ID)
	}
	receipts, err := s.receipts.ListByPeriodIDs(ctx, s.db, periodIDs)
	if err != nil {
		return nil, err
	}
	receiptsByPeriod := make(map[snowflake.ID][]*receiptdomain.Receipt, len(periods))
	for _, receipt := range receipts {
		receiptsByPeriod[receipt.FeePeriodID] = append(receiptsByPeriod[receipt.FeePeriodID], receipt)
	}

	now := s.clock.Now()
	out := &receivabledomain.StudentReceivables{
		StudentID:   student.ID,
		StudentName: student.FullName(),
	}
	for _, period := range periods {
		remaining := period.RemainingBalance()
		out.History = append(out.History, receivabledomain.PeriodHistory{
			Period:           period,
			Status:           period.Status(),
			RemainingBalance: remaining,
			Receipts:         receiptsByPeriod[period.ID],
		})
		if remaining > 0 {
			out.Outstanding = append(out.Outstanding, buildSummary(period, now))
			out.TotalOutstanding = money.Round2(out.TotalOutstanding + remaining)
		}
	}
	return out, nil
}

func (s *Service) Dashboard(ctx context.Context) (*receivabledomain.Dashboard, error) {
	stmt := s.db.WithContext(ctx).
		Model(&feeperioddomain.FeePeriod{}).
		Where(outstandingCond)
	if teacherID, scoped := scopedTeacher(ctx); scoped {
		stmt = stmt.
			Joins("JOIN students ON students.id = fee_periods.student_id").
			Where("students.teacher_id = ?", teacherID)
	}

	var periods []feeperioddomain.FeePeriod
	if err := stmt.Find(&periods).Error; err != nil {
		return nil, err
	}

	now := s.clock.Now()
	today := dateOf(now)
	dash := &receivabledomain.Dashboard{}

	// Trend window: the 12 calendar months ending with the current one.
	trendStart := today.AddDate(0, -11, 0)
	trendStart = time.Date(trendStart.Year(), trendStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	trendTotals := make(map[int]float64)

	debtors := make(map[snowflake.ID]struct{})
	for _, period := range periods {
		remaining := period.RemainingBalance()
		if remaining <= 0 {
			continue
		}

		dash.TotalOutstandingBalance = money.Round2(dash.TotalOutstandingBalance + remaining)
		debtors[period.StudentID] = struct{}{}

		dueDate := dateOf(period.DueDate())
		if dueDate.Before(today) {
			dash.TotalOverdueAmount = money.Round2(dash.TotalOverdueAmount + remaining)
			days := daysBetween(dueDate, today)
			switch {
			case days <= 30:
				dash.Aging.Days0To30 = money.Round2(dash.Aging.Days0To30 + remaining)
			case days <= 60:
				dash.Aging.Days31To60 = money.Round2(dash.Aging.Days31To60 + remaining)
			default:
				dash.Aging.Days61Plus = money.Round2(dash.Aging.Days61Plus + remaining)
			}
		}

		monthStart := period.MonthStart()
		if !monthStart.Before(trendStart) && !monthStart.After(today) {
			key := period.Year*12 + (period.Month - 1)
			trendTotals[key] = money.Round2(trendTotals[key] + remaining)
		}
	}
	dash.StudentsWithBalance = len(debtors)

	for cursor := trendStart; !cursor.After(today); cursor = cursor.AddDate(0, 1, 0) {
		key := cursor.Year()*12 + (int(cursor.Month()) - 1)
		dash.Trend = append(dash.Trend, receivabledomain.TrendPoint{
			Year:        cursor.Year(),
			Month:       int(cursor.Month()),
			Outstanding: trendTotals[key],
		})
	}

	return dash, nil
}

func buildSummary(period feeperioddomain.FeePeriod, now time.Time) receivabledomain.Summary {
	today := dateOf(now)
	dueDate := dateOf(period.DueDate())
	remaining := period.RemainingBalance()

	overdue := dueDate.Before(today) && remaining > 0
	daysOverdue := 0
	if overdue {
		daysOverdue = daysBetween(dueDate, today)
	}

	return receivabledomain.Summary{
		PeriodID:         period.ID,
		StudentID:        period.StudentID,
		Month:            period.Month,
		Year:             period.Year,
		AmountDue:        period.AmountDue(),
		AmountPaid:       period.AmountPaid,
		RemainingBalance: remaining,
		Status:           period.Status(),
		DueDate:          dueDate,
		IsOverdue:        overdue,
		DaysOverdue:      daysOverdue,
	}
}

func (s *Service) requireStudentScope(ctx context.Context, studentID snowflake.ID) error {
	teacherID, scoped := scopedTeacher(ctx)
	if !scoped {
		return nil
	}
	student, err := s.students.FindByID(ctx, s.db, studentID)
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

func scopedTeacher(ctx context.Context) (snowflake.ID, bool) {
	caller, ok := authctx.CallerFromContext(ctx)
	if !ok {
		return 0, false
	}
	return caller.ScopedTeacherID()
}

// studentNameExpr builds the full-name expression for the search filter.
// MySQL's default SQL mode reads || as logical OR, so it gets concat().
func studentNameExpr(dialect string) string {
	if dialect == "mysql" {
		return "concat(students.first_name, ' ', students.last_name)"
	}
	return "students.first_name || ' ' || students.last_name"
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
