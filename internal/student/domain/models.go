// Package domain contains the student directory models consumed by the
// tuition ledger. The directory itself is owned by the enrollment system;
// this side only reads it.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Student is one enrolled student as the directory exposes it.
type Student struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	FirstName  string        `gorm:"type:text;not null" json:"first_name"`
	LastName   string        `gorm:"type:text;not null" json:"last_name"`
	MonthlyFee *float64      `gorm:"type:decimal(12,2)" json:"monthly_fee,omitempty"`
	ParentID   *snowflake.ID `gorm:"index" json:"parent_id,omitempty"`
	TeacherID  *snowflake.ID `gorm:"index" json:"teacher_id,omitempty"`
	Active     bool          `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Student) TableName() string { return "students" }

// Billable reports whether the student carries a monthly fee assessment.
func (s Student) Billable() bool {
	return s.Active && s.MonthlyFee != nil
}

// FullName joins the directory name parts for projections.
func (s Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

var (
	ErrNotFound = errors.New("student_not_found")
)
