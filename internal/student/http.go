package student

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"student-roster/internal/export"
	"student-roster/internal/httputil"
	"student-roster/internal/logger"
	"student-roster/internal/metrics"

	"github.com/go-chi/chi/v5"
)

type HandlerOptions struct {
	DataDir            string
	AtRiskThreshold    float64
	TopPerformersLimit int
	MaxUploadBytes     int64
}

type Handler struct {
	service  Service
	activity *logger.Activity
	logger   *slog.Logger
	metrics  *metrics.Metrics
	opts     HandlerOptions
	now      func() time.Time
}

func NewHandler(service Service, activity *logger.Activity, log *slog.Logger, m *metrics.Metrics, opts HandlerOptions) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.NewMock()
	}
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.TopPerformersLimit <= 0 {
		opts.TopPerformersLimit = 10
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		service:  service,
		activity: activity,
		logger:   log,
		metrics:  m,
		opts:     opts,
		now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/api/students", func(r chi.Router) {
		r.Post("/", h.CreateStudent)
		r.Get("/", h.ListStudents)
		r.Get("/{id}", h.GetStudent)
		r.Put("/{id}", h.UpdateStudent)
		r.Delete("/{id}", h.DeleteStudent)
	})

	router.Route("/api/reports", func(r chi.Router) {
		r.Get("/stats", h.Stats)
		r.Get("/top-performers", h.TopPerformers)
		r.Get("/at-risk", h.AtRisk)
		r.Get("/gpa-distribution", h.GPADistribution)
		r.Get("/programme-summary", h.ProgrammeSummary)
	})

	router.Post("/api/import", h.Import)

	router.Route("/api/export", func(r chi.Router) {
		r.Get("/students", h.ExportStudents)
		r.Get("/top-performers", h.ExportTopPerformers)
		r.Get("/at-risk", h.ExportAtRisk)
		r.Get("/programme-summary", h.ExportProgrammeSummary)
	})
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var student Student
	if err := json.NewDecoder(r.Body).Decode(&student); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.service.AddStudent(r.Context(), &student); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, student)
}

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Query:     q.Get("q"),
		Programme: q.Get("programme"),
		Status:    q.Get("status"),
	}
	if raw := q.Get("level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondWithError(w, http.StatusBadRequest, "Invalid level")
			return
		}
		filter.Level = level
	}

	students, err := h.service.Search(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, students)
}

func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.service.GetStudentByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, student)
}

// UpdateStudent takes the id from the path; an id in the body is ignored.
func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var student Student
	if err := json.NewDecoder(r.Body).Decode(&student); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	student.ID = chi.URLParam(r, "id")

	if err := h.service.UpdateStudent(r.Context(), &student); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	updated, err := h.service.GetStudentByID(r.Context(), student.ID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteStudent(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *Handler) TopPerformers(w http.ResponseWriter, r *http.Request) {
	students, ok := h.topPerformers(w, r)
	if !ok {
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, students)
}

func (h *Handler) AtRisk(w http.ResponseWriter, r *http.Request) {
	students, ok := h.atRisk(w, r)
	if !ok {
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, students)
}

func (h *Handler) GPADistribution(w http.ResponseWriter, r *http.Request) {
	bands, err := h.service.GPADistribution(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, bands)
}

func (h *Handler) ProgrammeSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ProgrammeSummary(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, summary)
}

type importResponse struct {
	ImportResult
	ErrorReport string `json:"errorReport,omitempty"`
}

// Import reads the multipart "file" field as CSV. When rows fail, the
// errors are also saved as a report under the data directory.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	log := logger.FromContext(r.Context(), h.logger)
	log.Info("importing students", "filename", header.Filename, "size", header.Size)

	result := h.service.ImportReader(r.Context(), file)
	resp := importResponse{ImportResult: result}

	if result.ErrorCount > 0 {
		path, err := h.saveErrorReport(result.Errors)
		if err != nil {
			log.Error("failed to save import error report", "error", err)
		} else {
			resp.ErrorReport = path
		}
	}
	h.activity.Import(r.Context(), result.BatchID, result.SuccessCount, result.ErrorCount)

	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) saveErrorReport(errs []string) (string, error) {
	if err := os.MkdirAll(h.opts.DataDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(h.opts.DataDir, export.FileName("import_errors", export.FormatCSV, h.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if err := export.WriteImportErrors(f, errs); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// ExportStudents serves ?status=all|active|inactive as csv or xlsx.
func (h *Handler) ExportStudents(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFormat(w, r)
	if !ok {
		return
	}

	label := strings.ToLower(r.URL.Query().Get("status"))
	var status string
	switch label {
	case "", "all":
		label = "all"
	case "active":
		status = StatusActive
	case "inactive":
		status = StatusInactive
	default:
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid status: must be all, active or inactive")
		return
	}

	students, err := h.service.StudentsByStatus(r.Context(), status)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeExport(w, r, "students_"+label, format, StudentsTable(students))
}

func (h *Handler) ExportTopPerformers(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFormat(w, r)
	if !ok {
		return
	}
	students, ok := h.topPerformers(w, r)
	if !ok {
		return
	}

	h.writeExport(w, r, "top_performers", format, TopPerformersTable(students))
}

func (h *Handler) ExportAtRisk(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFormat(w, r)
	if !ok {
		return
	}
	students, ok := h.atRisk(w, r)
	if !ok {
		return
	}

	h.writeExport(w, r, "at_risk", format, AtRiskTable(students))
}

func (h *Handler) ExportProgrammeSummary(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFormat(w, r)
	if !ok {
		return
	}
	summary, err := h.service.ProgrammeSummary(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeExport(w, r, "programme_summary", format, ProgrammeSummaryTable(summary))
}

func (h *Handler) writeExport(w http.ResponseWriter, r *http.Request, kind, format string, table export.Table) {
	var buf bytes.Buffer
	var err error
	if format == export.FormatXLSX {
		err = export.WriteXLSX(&buf, table)
	} else {
		err = export.WriteCSV(&buf, table)
	}
	if err != nil {
		h.handleServiceError(w, r, fmt.Errorf("export %s: %w", kind, err))
		return
	}

	h.metrics.Roster.RecordExport(r.Context(), kind)
	h.activity.Export(r.Context(), kind, len(table.Rows))

	httputil.RespondWithAttachment(w, export.ContentType(format), export.FileName(kind, format, h.now()), &buf)
}

func (h *Handler) topPerformers(w http.ResponseWriter, r *http.Request) ([]Student, bool) {
	q := r.URL.Query()

	var programme *string
	if p := q.Get("programme"); p != "" {
		programme = &p
	}

	var level *int
	if raw := q.Get("level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondWithError(w, http.StatusBadRequest, "Invalid level")
			return nil, false
		}
		level = &n
	}

	limit := h.opts.TopPerformersLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return nil, false
		}
		limit = n
	}

	students, err := h.service.TopPerformers(r.Context(), programme, level, limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return nil, false
	}
	return students, true
}

func (h *Handler) atRisk(w http.ResponseWriter, r *http.Request) ([]Student, bool) {
	threshold := h.opts.AtRiskThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || t < 0 || t > 4 {
			httputil.RespondWithError(w, http.StatusBadRequest, "Invalid threshold: must be between 0.0 and 4.0")
			return nil, false
		}
		threshold = t
	}

	students, err := h.service.AtRisk(r.Context(), threshold)
	if err != nil {
		h.handleServiceError(w, r, err)
		return nil, false
	}
	return students, true
}

func exportFormat(w http.ResponseWriter, r *http.Request) (string, bool) {
	switch f := strings.ToLower(r.URL.Query().Get("format")); f {
	case "", export.FormatCSV:
		return export.FormatCSV, true
	case export.FormatXLSX:
		return export.FormatXLSX, true
	default:
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid format: must be csv or xlsx")
		return "", false
	}
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), h.logger)

	switch {
	case errors.Is(err, ErrStudentNotFound):
		log.Info("student not found", "error", err)
		httputil.RespondWithError(w, http.StatusNotFound, "Student not found")
	case errors.Is(err, ErrDuplicateID):
		log.Info("duplicate student", "error", err)
		httputil.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput):
		log.Info("invalid input", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		log.Warn("request cancelled", "error", err)
		httputil.RespondWithError(w, http.StatusServiceUnavailable, "Request cancelled")
	default:
		log.Error("internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
