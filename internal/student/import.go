package student

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"student-roster/internal/validation"

	"github.com/google/uuid"
)

// ImportColumns is the positional layout of an import row.
var ImportColumns = [...]string{
	"id", "full_name", "programme", "level", "gpa", "email", "phone", "date_added", "status",
}

// ImportResult is the per-file ledger of an import. ErrorCount always equals
// len(Errors).
type ImportResult struct {
	BatchID      string   `json:"batchId"`
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}

func (r *ImportResult) fail(msg string) {
	r.Errors = append(r.Errors, msg)
	r.ErrorCount = len(r.Errors)
}

// ImportCSV imports the file at path. An unreadable file yields a single
// error and no successes.
func (s *service) ImportCSV(ctx context.Context, path string) ImportResult {
	f, err := os.Open(path)
	if err != nil {
		res := newImportResult()
		res.fail(fmt.Sprintf("Failed to read file: %v", err))
		s.finishImport(ctx, res)
		return res
	}
	defer f.Close()

	return s.ImportReader(ctx, f)
}

// maxImportLine bounds a single physical line of an import file.
const maxImportLine = 1 << 20

// ImportReader treats the first non-blank line as a header and imports every
// following line independently; a failing row is recorded and skipped. Each
// line is parsed on its own, so an unterminated quote only affects its row.
func (s *service) ImportReader(ctx context.Context, r io.Reader) ImportResult {
	res := newImportResult()
	defer func() { s.finishImport(ctx, res) }()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)

	line := 0
	headerSeen := false
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}

		if err := ctx.Err(); err != nil {
			res.fail(fmt.Sprintf("Line %d: Import cancelled: %v", line, err))
			return res
		}

		row, err := parseImportLine(text)
		if err != nil {
			res.fail(fmt.Sprintf("Line %d: Malformed row: %v", line, err))
			continue
		}

		if msg := s.importRow(ctx, row); msg != "" {
			res.fail(fmt.Sprintf("Line %d: %s", line, msg))
			continue
		}
		res.SuccessCount++
	}

	if err := scanner.Err(); err != nil {
		res.fail(fmt.Sprintf("Failed to read file: %v", err))
	}
	return res
}

// parseImportLine splits one physical line, honouring quoted fields.
func parseImportLine(text string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	row, err := reader.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, parseErr.Err
		}
		return nil, err
	}
	return row, nil
}

// importRow returns an empty string on success, otherwise the reason the row
// was rejected.
func (s *service) importRow(ctx context.Context, row []string) string {
	if len(row) < len(ImportColumns) {
		return fmt.Sprintf("Insufficient fields (expected %d, got %d)", len(ImportColumns), len(row))
	}
	if len(row) > len(ImportColumns) {
		return fmt.Sprintf("Too many fields (expected %d, got %d)", len(ImportColumns), len(row))
	}

	f := make([]string, len(row))
	for i := range row {
		f[i] = strings.TrimSpace(row[i])
	}

	level, err := strconv.Atoi(f[3])
	if err != nil {
		return fmt.Sprintf("Invalid level %q: must be a whole number", f[3])
	}
	gpa, err := strconv.ParseFloat(f[4], 64)
	if err != nil {
		return fmt.Sprintf("Invalid GPA %q: must be a number", f[4])
	}
	dateAdded, err := ParseLocalDateTime(f[7])
	if err != nil {
		return fmt.Sprintf("Invalid date %q: must be an ISO-8601 local date-time", f[7])
	}

	status := f[8]
	if normalized, ok := validation.NormalizeStatus(status); ok {
		status = normalized
	}

	switch _, err := s.repo.GetByID(ctx, f[0]); {
	case err == nil:
		return duplicateIDError(f[0]).Error()
	case !errors.Is(err, ErrStudentNotFound):
		return fmt.Sprintf("Lookup failed for %s: %v", f[0], err)
	}

	student := &Student{
		ID:          f[0],
		FullName:    f[1],
		Programme:   f[2],
		Level:       level,
		GPA:         gpa,
		Email:       f[5],
		PhoneNumber: f[6],
		DateAdded:   dateAdded,
		Status:      status,
	}

	if result := s.validator.ValidateRecord(student.record()); !result.Valid() {
		return result.String()
	}

	if err := s.AddStudent(ctx, student); err != nil {
		return err.Error()
	}
	return ""
}

func (s *service) finishImport(ctx context.Context, res ImportResult) {
	s.metrics.Roster.RecordImport(ctx, res.SuccessCount, res.ErrorCount)
	s.logger.InfoContext(ctx, "import completed",
		"batch_id", res.BatchID,
		"success_count", res.SuccessCount,
		"error_count", res.ErrorCount,
	)
}

func newImportResult() ImportResult {
	return ImportResult{
		BatchID: uuid.NewString(),
		Errors:  []string{},
	}
}
