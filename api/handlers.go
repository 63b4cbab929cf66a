/*
handlers.go - HTTP API handlers for the employee directory

PURPOSE:
  Exposes the directory service via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the
  directory.Service.

ENDPOINTS:
  Employees:
    GET    /employee                    List all employees
    POST   /employee                    Create employee (201 + Location)
    GET    /employee/{id}               Get employee (?expand=directReports,compensation)
    PUT    /employee/{id}               Replace employee

  Structure:
    GET    /employee/{id}/structure     Reporting structure
                                        ?maxDepth=1..10 (default 5)
                                        ?includeStructure=bool (default false)

  Compensation:
    GET    /employee/{id}/compensation  Latest compensation
    PUT    /employee/{id}/compensation  Upsert by effective date

  The same routes are mounted under /api as well.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call the directory service
  4. Project to DTOs and serialize
  5. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Employee or compensation not found
  - 500: Integrity violations in stored data, internal errors

  Two messages are plain text so that clients can compare the body
  verbatim: the maxDepth range message and the "compensation
  negotiations have failed" 404.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Seed scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/employee-directory/directory"
	"go.uber.org/zap"
)

// MsgCompensationMissing is the 404 body for an employee without compensation.
const MsgCompensationMissing = "Employee exists, but compensation negotiations have failed."

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *directory.Service
	Logger  *zap.Logger

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler around svc. A nil logger discards output.
func NewHandler(svc *directory.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service: svc,
		Logger:  logger,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to list employees", err)
		return
	}

	dtos := make([]*EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates a new employee. Any employeeId in the body is ignored.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.Logger.Debug("employee create request received",
		zap.String("first_name", req.FirstName),
		zap.String("last_name", req.LastName),
	)

	created, err := h.Service.Create(r.Context(), req.toDomain())
	if err != nil {
		h.writeServiceError(w, r, "Failed to create employee", err)
		return
	}

	h.Logger.Info("employee created", zap.String("employee_id", created.ID))

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+created.ID)
	writeJSON(w, http.StatusCreated, toEmployeeDTO(created))
}

// GetEmployee returns one employee, optionally expanding relations.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields := directory.ParseFields(r.URL.Query().Get("expand"))

	h.Logger.Debug("employee request received", zap.String("employee_id", id))

	emp, err := h.Service.GetByID(r.Context(), id, fields...)
	if err != nil {
		h.writeServiceError(w, r, "Employee not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// UpdateEmployee replaces an employee. The id comes from the path.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.Logger.Debug("employee update request received", zap.String("employee_id", id))

	updated, err := h.Service.Update(r.Context(), id, req.toDomain())
	if err != nil {
		h.writeServiceError(w, r, "Failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(updated))
}

// =============================================================================
// STRUCTURE HANDLER
// =============================================================================

// GetReportingStructure counts the reports under an employee.
func (h *Handler) GetReportingStructure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	query := r.URL.Query()

	if strings.TrimSpace(id) == "" {
		writeText(w, http.StatusBadRequest, directory.ErrIDRequired.Error())
		return
	}

	maxDepth := directory.DefaultDepth
	if raw := query.Get("maxDepth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeText(w, http.StatusBadRequest, directory.ErrInvalidMaxDepth.Error())
			return
		}
		maxDepth = parsed
	}

	includeStructure := false
	if raw := query.Get("includeStructure"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeText(w, http.StatusBadRequest, "includeStructure must be true or false.")
			return
		}
		includeStructure = parsed
	}

	h.Logger.Debug("reporting structure request received",
		zap.String("employee_id", id),
		zap.Int("max_depth", maxDepth),
		zap.Bool("include_structure", includeStructure),
	)

	rs, err := h.Service.ReportingStructure(r.Context(), id, maxDepth, includeStructure)
	if err != nil {
		observeStructureError(err)
		if directory.IsClientError(err) {
			writeText(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeServiceError(w, r, "Employee not found", err)
		return
	}

	observeStructure(rs)
	writeJSON(w, http.StatusOK, toReportingStructureDTO(rs))
}

// =============================================================================
// COMPENSATION HANDLERS
// =============================================================================

// GetCompensation returns the latest compensation for an employee.
func (h *Handler) GetCompensation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	comp, err := h.Service.CurrentCompensation(r.Context(), id)
	if errors.Is(err, directory.ErrCompensationNotFound) {
		writeText(w, http.StatusNotFound, MsgCompensationMissing)
		return
	}
	if err != nil {
		h.writeServiceError(w, r, "Employee not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompensationDTO(comp))
}

// PutCompensation adds or overwrites the compensation for one effective date.
func (h *Handler) PutCompensation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		writeText(w, http.StatusBadRequest, directory.ErrIDRequired.Error())
		return
	}

	var req *CompensationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "compensation is required", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req == nil {
		writeError(w, http.StatusBadRequest, "compensation is required", nil)
		return
	}

	comp, err := req.toDomain(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid compensation", err)
		return
	}

	stored, err := h.Service.AddOrUpdateCompensation(r.Context(), comp)
	if err != nil {
		h.writeServiceError(w, r, "Failed to store compensation", err)
		return
	}

	h.Logger.Info("compensation stored",
		zap.String("employee_id", id),
		zap.String("effective_date", stored.EffectiveDate.Format(DateLayout)),
	)
	writeJSON(w, http.StatusOK, toCompensationDTO(stored))
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the store answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Service.Store().(directory.Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			h.Logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// writeServiceError maps a service error to a status code. message is
// used for 404s and 500s; client errors report their own text.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case directory.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case directory.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case directory.IsIntegrityViolation(err):
		h.Logger.Error("reporting structure integrity violation",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Stored reporting lines are inconsistent", err)
	default:
		h.Logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, message)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
