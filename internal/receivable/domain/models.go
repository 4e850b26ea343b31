// Package domain contains the read-only receivable projections derived
// from the fee ledger. Nothing here is materialized; every view scans the
// periods on request.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	feeperioddomain "github.com/smallbiznis/maktab/internal/feeperiod/domain"
	receiptdomain "github.com/smallbiznis/maktab/internal/receipt/domain"
	"github.com/smallbiznis/maktab/pkg/db/pagination"
)

// Summary is the settlement view of one fee period.
type Summary struct {
	PeriodID         snowflake.ID                `json:"period_id"`
	StudentID        snowflake.ID                `json:"student_id"`
	Month            int                         `json:"month"`
	Year             int                         `json:"year"`
	AmountDue        float64                     `json:"amount_due"`
	AmountPaid       float64                     `json:"amount_paid"`
	RemainingBalance float64                     `json:"remaining_balance"`
	Status           feeperioddomain.PeriodStatus `json:"status"`
	DueDate          time.Time                   `json:"due_date"`
	IsOverdue        bool                        `json:"is_overdue"`
	DaysOverdue      int                         `json:"days_overdue"`
}

// ListFilter narrows the outstanding-balance listing.
type ListFilter struct {
	StudentID *snowflake.ID
	Month     *int
	Year      *int
	// Status may be unpaid or partial; paid periods never appear in the
	// receivable list at all.
	Status *feeperioddomain.PeriodStatus
	Search string
}

// ListItem is one outstanding period with its student attached.
type ListItem struct {
	Summary
	StudentName string `json:"student_name"`
}

type ListResponse struct {
	pagination.PageInfo
	Items []ListItem `json:"items"`
}

// PeriodHistory pairs one period with every receipt recorded against it.
type PeriodHistory struct {
	Period           feeperioddomain.FeePeriod    `json:"period"`
	Status           feeperioddomain.PeriodStatus `json:"status"`
	RemainingBalance float64                      `json:"remaining_balance"`
	Receipts         []*receiptdomain.Receipt     `json:"receipts"`
}

// StudentReceivables is the per-student drill-down: open balances plus the
// full payment history.
type StudentReceivables struct {
	StudentID        snowflake.ID    `json:"student_id"`
	StudentName      string          `json:"student_name"`
	TotalOutstanding float64         `json:"total_outstanding"`
	Outstanding      []Summary       `json:"outstanding"`
	History          []PeriodHistory `json:"history"`
}

// TrendPoint is one month of the outstanding-balance trend.
type TrendPoint struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Outstanding float64 `json:"outstanding"`
}

// AgingBuckets groups overdue amounts by how long they have been overdue.
type AgingBuckets struct {
	Days0To30  float64 `json:"days_0_to_30"`
	Days31To60 float64 `json:"days_31_to_60"`
	Days61Plus float64 `json:"days_61_plus"`
}

type Dashboard struct {
	TotalOutstandingBalance float64      `json:"total_outstanding_balance"`
	TotalOverdueAmount      float64      `json:"total_overdue_amount"`
	StudentsWithBalance     int          `json:"students_with_balance"`
	Trend                   []TrendPoint `json:"trend"`
	Aging                   AgingBuckets `json:"aging"`
}

type Service interface {
	Summary(ctx context.Context, periodID snowflake.ID) (*Summary, error)
	List(ctx context.Context, filter ListFilter, page pagination.Pagination) (*ListResponse, error)
	ByStudent(ctx context.Context, studentID snowflake.ID) (*StudentReceivables, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}
