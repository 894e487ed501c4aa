package student

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"student-roster/internal/metrics"
	"student-roster/internal/validation"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrInvalidInput    = validation.ErrInvalid
	ErrDuplicateID     = errors.New("Student ID already exists")
)

type Service interface {
	AddStudent(ctx context.Context, student *Student) error
	UpdateStudent(ctx context.Context, student *Student) error
	GetStudentByID(ctx context.Context, id string) (*Student, error)
	GetAllStudents(ctx context.Context) ([]Student, error)
	DeleteStudent(ctx context.Context, id string) error

	Search(ctx context.Context, filter Filter) ([]Student, error)
	StudentsByStatus(ctx context.Context, status string) ([]Student, error)
	Stats(ctx context.Context) (Stats, error)
	TopPerformers(ctx context.Context, programme *string, level *int, limit int) ([]Student, error)
	AtRisk(ctx context.Context, threshold float64) ([]Student, error)
	GPADistribution(ctx context.Context) ([]Band, error)
	ProgrammeSummary(ctx context.Context) ([]ProgrammeStats, error)

	ImportCSV(ctx context.Context, path string) ImportResult
	ImportReader(ctx context.Context, r io.Reader) ImportResult
}

type service struct {
	repo      Repository
	validator *validation.Validator
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(repo Repository, validator *validation.Validator, logger *slog.Logger, m *metrics.Metrics) Service {
	if validator == nil {
		validator = validation.New(validation.DefaultRules())
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewMock()
	}
	return &service{
		repo:      repo,
		validator: validator,
		logger:    logger,
		metrics:   m,
	}
}

func (s *service) AddStudent(ctx context.Context, student *Student) error {
	if student == nil {
		return ErrInvalidInput
	}
	normalize(student)

	if err := s.validator.Check(student.record()); err != nil {
		return err
	}

	if err := s.ensureAbsent(ctx, student.ID); err != nil {
		return err
	}

	if student.DateAdded.IsZero() {
		student.DateAdded = Now()
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return fmt.Errorf("insert student %s: %w", student.ID, err)
	}

	s.metrics.Roster.RecordStudentAdded(ctx)
	s.logger.InfoContext(ctx, "student added", "student_id", student.ID)
	return nil
}

// UpdateStudent replaces every field but the id and date added. The caller
// supplies the full record; nothing is merged from the stored row.
func (s *service) UpdateStudent(ctx context.Context, student *Student) error {
	if student == nil {
		return ErrInvalidInput
	}
	normalize(student)

	if err := s.validator.Check(student.record()); err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, student.ID); err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			return fmt.Errorf("%w: %s", ErrStudentNotFound, student.ID)
		}
		return fmt.Errorf("lookup student %s: %w", student.ID, err)
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return fmt.Errorf("update student %s: %w", student.ID, err)
	}

	s.logger.InfoContext(ctx, "student updated", "student_id", student.ID, "status", student.Status)
	return nil
}

func (s *service) GetStudentByID(ctx context.Context, id string) (*Student, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetAllStudents(ctx context.Context) ([]Student, error) {
	return s.repo.GetAll(ctx)
}

// DeleteStudent marks the student Inactive; the row stays in the store.
func (s *service) DeleteStudent(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			return fmt.Errorf("%w: %s", ErrStudentNotFound, id)
		}
		return fmt.Errorf("deactivate student %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "student deactivated", "student_id", id)
	return nil
}

func (s *service) ensureAbsent(ctx context.Context, id string) error {
	_, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return duplicateIDError(id)
	case errors.Is(err, ErrStudentNotFound):
		return nil
	default:
		return fmt.Errorf("lookup student %s: %w", id, err)
	}
}

// duplicateIDError is shared by the service and the import ledger so both
// report a clash with the same text.
func duplicateIDError(id string) error {
	return fmt.Errorf("%w: %s", ErrDuplicateID, id)
}

func normalize(s *Student) {
	s.ID = strings.TrimSpace(s.ID)
	s.FullName = strings.TrimSpace(s.FullName)
	s.Programme = strings.TrimSpace(s.Programme)
	s.Email = strings.TrimSpace(s.Email)
	s.PhoneNumber = strings.TrimSpace(s.PhoneNumber)
	s.Status = strings.TrimSpace(s.Status)
}
