package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Student, error)
	// ListBillable returns active students with a monthly fee set.
	ListBillable(ctx context.Context, db *gorm.DB) ([]*Student, error)
	// ListChildren returns the billable children of a parent, optionally
	// restricted to one teacher's students. Ordered by id so allocation
	// order is deterministic.
	ListChildren(ctx context.Context, db *gorm.DB, parentID snowflake.ID, teacherID *snowflake.ID) ([]*Student, error)
}
