/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Output projection without back-edges

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:
    EmployeeDTO (also the create/replace request body)

  Compensation:
    CompensationDTO, CompensationRequest

  Structure:
    ReportingStructureDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

PROJECTION:
  Domain entities are never serialized directly. Compensation carries a
  back-reference to its employee; the DTOs drop it (inside an employee's
  compensation list) or project the employee without its compensation
  (on the compensation endpoint), so no cycle can reach the encoder and
  no entity is mutated for output.

NULL vs. EMPTY:
  directReports is null when the relation was not loaded and [] when it
  was loaded and is empty. compensation is omitted unless expanded.

SEE ALSO:
  - handlers.go: Uses these types
  - directory/types.go: Domain types
*/
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/employee-directory/directory"
)

// DateLayout is the wire format for effective dates.
const DateLayout = "2006-01-02"

// =============================================================================
// EMPLOYEE DTOs
// =============================================================================

// EmployeeDTO is the JSON form of an employee.
type EmployeeDTO struct {
	EmployeeID    string             `json:"employeeId"`
	FirstName     string             `json:"firstName"`
	LastName      string             `json:"lastName"`
	Position      string             `json:"position"`
	Department    string             `json:"department"`
	DirectReports []*EmployeeDTO     `json:"directReports"`
	Compensation  *[]CompensationDTO `json:"compensation,omitempty"`
}

// toDomain converts a request body. Direct reports are reduced to ids.
func (d *EmployeeDTO) toDomain() *directory.Employee {
	emp := &directory.Employee{
		ID:         d.EmployeeID,
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		Position:   d.Position,
		Department: d.Department,
	}
	if d.DirectReports != nil {
		emp.DirectReports = make([]*directory.Employee, 0, len(d.DirectReports))
		for _, r := range d.DirectReports {
			if r == nil {
				emp.DirectReports = append(emp.DirectReports, nil)
				continue
			}
			emp.DirectReports = append(emp.DirectReports, &directory.Employee{ID: r.EmployeeID})
		}
	}
	return emp
}

func toEmployeeDTO(e *directory.Employee) *EmployeeDTO {
	if e == nil {
		return nil
	}

	dto := &EmployeeDTO{
		EmployeeID: e.ID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Position:   e.Position,
		Department: e.Department,
	}

	if e.DirectReports != nil {
		dto.DirectReports = make([]*EmployeeDTO, len(e.DirectReports))
		for i, r := range e.DirectReports {
			dto.DirectReports[i] = toEmployeeDTO(r)
		}
	}

	if e.Compensation != nil {
		comps := make([]CompensationDTO, len(e.Compensation))
		for i, c := range e.Compensation {
			comps[i] = CompensationDTO{
				EffectiveDate: c.EffectiveDate.Format(DateLayout),
				Salary:        c.Salary,
			}
		}
		dto.Compensation = &comps
	}

	return dto
}

// =============================================================================
// COMPENSATION DTOs
// =============================================================================

// CompensationDTO is the JSON form of a compensation record.
type CompensationDTO struct {
	Employee      *EmployeeDTO    `json:"employee,omitempty"`
	EffectiveDate string          `json:"effectiveDate"`
	Salary        decimal.Decimal `json:"salary"`
}

// CompensationRequest is the body of PUT /employee/{id}/compensation.
// Salary accepts a JSON number or a quoted decimal string.
type CompensationRequest struct {
	EffectiveDate string           `json:"effectiveDate"`
	Salary        *decimal.Decimal `json:"salary"`
}

func (r *CompensationRequest) toDomain(employeeID string) (directory.Compensation, error) {
	if r.Salary == nil {
		return directory.Compensation{}, fmt.Errorf("salary is required")
	}
	date, err := parseDate(r.EffectiveDate)
	if err != nil {
		return directory.Compensation{}, err
	}
	return directory.Compensation{
		EmployeeID:    employeeID,
		EffectiveDate: date,
		Salary:        *r.Salary,
	}, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty means zero (today,
// decided by the service).
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("effectiveDate must be YYYY-MM-DD or RFC 3339: %q", s)
	}
	return t, nil
}

// toCompensationDTO projects c with its employee, minus the employee's
// own compensation list.
func toCompensationDTO(c *directory.Compensation) CompensationDTO {
	dto := CompensationDTO{
		EffectiveDate: c.EffectiveDate.Format(DateLayout),
		Salary:        c.Salary,
	}
	if c.Employee != nil {
		emp := toEmployeeDTO(c.Employee)
		emp.Compensation = nil
		dto.Employee = emp
	}
	return dto
}

// =============================================================================
// STRUCTURE DTOs
// =============================================================================

// ReportingStructureDTO is the response of GET /employee/{id}/structure.
type ReportingStructureDTO struct {
	Employee        *EmployeeDTO `json:"employee"`
	NumberOfReports int          `json:"numberOfReports"`
	IsTruncated     bool         `json:"isTruncated"`
}

func toReportingStructureDTO(rs directory.ReportingStructure) ReportingStructureDTO {
	return ReportingStructureDTO{
		Employee:        toEmployeeDTO(rs.Employee),
		NumberOfReports: rs.NumberOfReports,
		IsTruncated:     rs.IsTruncated,
	}
}

// =============================================================================
// SCENARIO & ERROR DTOs
// =============================================================================

// ScenarioDTO represents a seed scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Employees   int    `json:"employees"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
