package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/maktab/internal/authctx"
	"github.com/smallbiznis/maktab/internal/clock"
	feeperioddomain "github.com/smallbiznis/maktab/internal/feeperiod/domain"
	feeperiodrepo "github.com/smallbiznis/maktab/internal/feeperiod/repository"
	receiptdomain "github.com/smallbiznis/maktab/internal/receipt/domain"
	receiptrepo "github.com/smallbiznis/maktab/internal/receipt/repository"
	receivabledomain "github.com/smallbiznis/maktab/internal/receivable/domain"
	studentdomain "github.com/smallbiznis/maktab/internal/student/domain"
	studentrepo "github.com/smallbiznis/maktab/internal/student/repository"
	"github.com/smallbiznis/maktab/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	service receivabledomain.Service
}

func newFixture(t *testing.T, now time.Time) *fixture {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&studentdomain.Student{},
		&feeperioddomain.FeePeriod{},
		&receiptdomain.Receipt{},
	))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	fc := clock.NewFakeClock(now)
	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    fc,
		Periods:  feeperiodrepo.Provide(),
		Receipts: receiptrepo.Provide(),
		Students: studentrepo.Provide(),
	})

	return &fixture{db: db, node: node, clock: fc, service: svc}
}

func (f *fixture) seedStudent(t *testing.T, first, last string, teacherID *snowflake.ID) *studentdomain.Student {
	fee := 500.0
	student := &studentdomain.Student{
		ID:         f.node.Generate(),
		FirstName:  first,
		LastName:   last,
		MonthlyFee: &fee,
		TeacherID:  teacherID,
		Active:     true,
	}
	assert.NoError(t, f.db.Create(student).Error)
	return student
}

func (f *fixture) seedPeriod(t *testing.T, studentID snowflake.ID, month, year int, totalDue, paid float64) *feeperioddomain.FeePeriod {
	period := &feeperioddomain.FeePeriod{
		ID:         f.node.Generate(),
		StudentID:  studentID,
		Year:       year,
		Month:      month,
		FeeAmount:  totalDue,
		TotalDue:   totalDue,
		AmountPaid: paid,
		CreatedAt:  f.clock.Now(),
		UpdatedAt:  f.clock.Now(),
	}
	assert.NoError(t, f.db.Create(period).Error)
	return period
}

func TestSummary_Overdue(t *testing.T) {
	// Two days past the end-of-January default due date.
	f := newFixture(t, time.Date(2024, 2, 2, 15, 0, 0, 0, time.UTC))
	student := f.seedStudent(t, "Aisha", "Khan", nil)
	period := f.seedPeriod(t, student.ID, 1, 2024, 500, 200)

	summary, err := f.service.Summary(context.Background(), period.ID)
	assert.NoError(t, err)
	assert.Equal(t, 500.0, summary.AmountDue)
	assert.Equal(t, 300.0, summary.RemainingBalance)
	assert.Equal(t, feeperioddomain.PeriodStatusPartial, summary.Status)
	assert.True(t, summary.IsOverdue)
	assert.Equal(t, 2, summary.DaysOverdue)
}

func TestSummary_NotOverdueBeforeDueDate(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	student := f.seedStudent(t, "Aisha", "Khan", nil)
	period := f.seedPeriod(t, student.ID, 1, 2024, 500, 0)

	summary, err := f.service.Summary(context.Background(), period.ID)
	assert.NoError(t, err)
	assert.False(t, summary.IsOverdue)
	assert.Equal(t, 0, summary.DaysOverdue)
}

func TestSummary_NotFound(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))

	_, err := f.service.Summary(context.Background(), f.node.Generate())
	assert.ErrorIs(t, err, feeperioddomain.ErrNotFound)
}

func TestSummary_TeacherScope(t *testing.T) {
	f := newFixture(t, time.Date(2024, 2, 2, 15, 0, 0, 0, time.UTC))
	ownTeacher := f.node.Generate()
	otherTeacher := f.node.Generate()
	student := f.seedStudent(t, "Zainab", "Ali", &ownTeacher)
	period := f.seedPeriod(t, student.ID, 1, 2024, 1500, 500)

	// Another teacher must not learn the balance.
	ctx := authctx.WithCaller(context.Background(), authctx.Caller{
		ID:        f.node.Generate(),
		Role:      authctx.RoleTeacher,
		TeacherID: otherTeacher,
	})
	_, err := f.service.Summary(ctx, period.ID)
	assert.ErrorIs(t, err, feeperioddomain.ErrStudentOutOfScope)

	ctx = authctx.WithCaller(context.Background(), authctx.Caller{
		ID:        f.node.Generate(),
		Role:      authctx.RoleTeacher,
		TeacherID: ownTeacher,
	})
	summary, err := f.service.Summary(ctx, period.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1000.0, summary.RemainingBalance)
}

func TestStudentNameExpr(t *testing.T) {
	assert.Equal(t, "concat(students.first_name, ' ', students.last_name)", studentNameExpr("mysql"))
	assert.Equal(t, "students.first_name || ' ' || students.last_name", studentNameExpr("postgres"))
	assert.Equal(t, "students.first_name || ' ' || students.last_name", studentNameExpr("sqlite"))
}

func TestList_OnlyOutstanding(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	first := f.seedStudent(t, "Aisha", "Khan", nil)
	second := f.seedStudent(t, "Bilal", "Yusuf", nil)

	f.seedPeriod(t, first.ID, 1, 2024, 500, 500) // settled, excluded
	f.seedPeriod(t, first.ID, 2, 2024, 500, 200)
	f.seedPeriod(t, second.ID, 2, 2024, 400, 0)

	resp, err := f.service.List(context.Background(), receivabledomain.ListFilter{}, pagination.Pagination{})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), resp.TotalCount)
	assert.Len(t, resp.Items, 2)
}

func TestList_StatusAndSearchFilters(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	first := f.seedStudent(t, "Aisha", "Khan", nil)
	second := f.seedStudent(t, "Bilal", "Yusuf", nil)

	f.seedPeriod(t, first.ID, 2, 2024, 500, 200)
	f.seedPeriod(t, second.ID, 2, 2024, 400, 0)

	unpaid := feeperioddomain.PeriodStatusUnpaid
	resp, err := f.service.List(context.Background(), receivabledomain.ListFilter{Status: &unpaid}, pagination.Pagination{})
	assert.NoError(t, err)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, "Bilal Yusuf", resp.Items[0].StudentName)

	resp, err = f.service.List(context.Background(), receivabledomain.ListFilter{Search: "aisha"}, pagination.Pagination{})
	assert.NoError(t, err)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, "Aisha Khan", resp.Items[0].StudentName)
}

func TestList_Pagination(t *testing.T) {
	f := newFixture(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	student := f.seedStudent(t, "Aisha", "Khan", nil)
	for month := 1; month <= 5; month++ {
		f.seedPeriod(t, student.ID, month, 2024, 500, 0)
	}

	resp, err := f.service.List(context.Background(), receivabledomain.ListFilter{}, pagination.Pagination{Page: 2, PerPage: 2})
	assert.NoError(t, err)
	assert.Equal(t, int64(5), resp.TotalCount)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Len(t, resp.Items, 2)
	// Ordered chronologically, so page 2 holds March and April.
	assert.Equal(t, 3, resp.Items[0].Month)
	assert.Equal(t, 4, resp.Items[1].Month)
}

func TestList_TeacherScope(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	teacherID := f.node.Generate()
	mine := f.seedStudent(t, "Aisha", "Khan", &teacherID)
	other := f.seedStudent(t, "Bilal", "Yusuf", nil)

	f.seedPeriod(t, mine.ID, 2, 2024, 500, 0)
	f.seedPeriod(t, other.ID, 2, 2024, 400, 0)

	ctx := authctx.WithCaller(context.Background(), authctx.Caller{
		ID:        f.node.Generate(),
		Role:      authctx.RoleTeacher,
		TeacherID: teacherID,
	})
	resp, err := f.service.List(ctx, receivabledomain.ListFilter{}, pagination.Pagination{})
	assert.NoError(t, err)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, mine.ID, resp.Items[0].StudentID)
}

func TestByStudent_HistoryAndOutstanding(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	student := f.seedStudent(t, "Aisha", "Khan", nil)

	paid := f.seedPeriod(t, student.ID, 1, 2024, 500, 500)
	f.seedPeriod(t, student.ID, 2, 2024, 500, 200)

	receipt := &receiptdomain.Receipt{
		ID:          f.node.Generate(),
		FeePeriodID: paid.ID,
		Amount:      500,
		PaidAt:      time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		CreatedAt:   f.clock.Now(),
	}
	assert.NoError(t, f.db.Create(receipt).Error)

	resp, err := f.service.ByStudent(context.Background(), student.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Aisha Khan", resp.StudentName)
	assert.Equal(t, 300.0, resp.TotalOutstanding)
	assert.Len(t, resp.Outstanding, 1)
	assert.Len(t, resp.History, 2)
	assert.Equal(t, feeperioddomain.PeriodStatusPaid, resp.History[0].Status)
	assert.Len(t, resp.History[0].Receipts, 1)
}

func TestByStudent_NotFound(t *testing.T) {
	f := newFixture(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))

	_, err := f.service.ByStudent(context.Background(), f.node.Generate())
	assert.ErrorIs(t, err, studentdomain.ErrNotFound)
}

func TestDashboard_AgingAndTotals(t *testing.T) {
	// Fixed "today" so bucket boundaries stay deterministic.
	f := newFixture(t, time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC))
	first := f.seedStudent(t, "Aisha", "Khan", nil)
	second := f.seedStudent(t, "Bilal", "Yusuf", nil)

	// Due Mar 31 → 10 days overdue.
	f.seedPeriod(t, first.ID, 3, 2024, 500, 0)
	// Due Feb 29 → 41 days overdue.
	f.seedPeriod(t, first.ID, 2, 2024, 400, 100)
	// Due Jan 31 → 70 days overdue.
	f.seedPeriod(t, second.ID, 1, 2024, 600, 0)
	// Due Apr 30 → current, not overdue.
	f.seedPeriod(t, second.ID, 4, 2024, 500, 0)

	dash, err := f.service.Dashboard(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1900.0, dash.TotalOutstandingBalance)
	assert.Equal(t, 1400.0, dash.TotalOverdueAmount)
	assert.Equal(t, 2, dash.StudentsWithBalance)

	assert.Equal(t, 500.0, dash.Aging.Days0To30)
	assert.Equal(t, 300.0, dash.Aging.Days31To60)
	assert.Equal(t, 600.0, dash.Aging.Days61Plus)

	// Twelve points ending with the current month.
	assert.Len(t, dash.Trend, 12)
	last := dash.Trend[len(dash.Trend)-1]
	assert.Equal(t, 4, last.Month)
	assert.Equal(t, 2024, last.Year)
	assert.Equal(t, 500.0, last.Outstanding)
}
