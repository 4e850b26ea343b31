package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/maktab/internal/student/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Student, error) {
	var student domain.Student
	err := db.WithContext(ctx).Raw(
		`SELECT id, first_name, last_name, monthly_fee, parent_id, teacher_id, active, created_at, updated_at
		 FROM students WHERE id = ?`,
		id,
	).Scan(&student).Error
	if err != nil {
		return nil, err
	}
	if student.ID == 0 {
		return nil, nil
	}
	return &student, nil
}

func (r *repo) ListBillable(ctx context.Context, db *gorm.DB) ([]*domain.Student, error) {
	var students []*domain.Student
	err := db.WithContext(ctx).Raw(
		`SELECT id, first_name, last_name, monthly_fee, parent_id, teacher_id, active, created_at, updated_at
		 FROM students
		 WHERE active = ? AND monthly_fee IS NOT NULL
		 ORDER BY id ASC`,
		true,
	).Scan(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *repo) ListChildren(ctx context.Context, db *gorm.DB, parentID snowflake.ID, teacherID *snowflake.ID) ([]*domain.Student, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Student{}).
		Where("parent_id = ?", parentID).
		Where("active = ?", true).
		Where("monthly_fee IS NOT NULL")
	if teacherID != nil && *teacherID != 0 {
		stmt = stmt.Where("teacher_id = ?", *teacherID)
	}

	var students []*domain.Student
	if err := stmt.Order("id asc").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}
