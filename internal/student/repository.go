package student

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"student-roster/internal/metrics"

	"github.com/uptrace/bun"
)

// Repository is the storage capability the service depends on. GetByID
// returns ErrStudentNotFound when no row carries the id.
type Repository interface {
	Create(ctx context.Context, student *Student) error
	GetAll(ctx context.Context) ([]Student, error)
	GetByID(ctx context.Context, id string) (*Student, error)
	Update(ctx context.Context, student *Student) error
	SoftDelete(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db      bun.IDB
	metrics *metrics.Metrics
}

func NewRepository(db bun.IDB, m *metrics.Metrics) Repository {
	if m == nil {
		m = metrics.NewMock()
	}
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, student *Student) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(student).Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "students", time.Since(start), err)

	return err
}

func (r *repository) GetAll(ctx context.Context) ([]Student, error) {
	start := time.Now()
	students := make([]Student, 0)
	err := r.db.NewSelect().
		Model(&students).
		OrderExpr("full_name ASC, student_id ASC").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	return students, err
}

func (r *repository) GetByID(ctx context.Context, id string) (*Student, error) {
	start := time.Now()
	student := new(Student)
	err := r.db.NewSelect().Model(student).Where("student_id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

// Update replaces every column except student_id and date_added.
func (r *repository) Update(ctx context.Context, student *Student) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(student).
		Column("full_name", "programme", "level", "gpa", "email", "phone_number", "status").
		WherePK().
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "students", time.Since(start), err)

	return affectedOne(result, err)
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model((*Student)(nil)).
		Set("status = ?", StatusInactive).
		Where("student_id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "students", time.Since(start), err)

	return affectedOne(result, err)
}

// Delete removes the row outright. Normal application flow never calls it.
func (r *repository) Delete(ctx context.Context, id string) error {
	start := time.Now()
	student := &Student{ID: id}
	result, err := r.db.NewDelete().Model(student).WherePK().Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "students", time.Since(start), err)

	return affectedOne(result, err)
}

func affectedOne(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}
