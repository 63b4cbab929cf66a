/*
service.go - Employee directory operations

PURPOSE:
  The single entry point the API uses: employee CRUD, compensation
  upsert/lookup, and reporting-structure queries. Validates input before
  touching the store and translates "no such row" into the directory's
  sentinel errors.

OPERATIONS:
  GetByID                  Load one employee, optionally with relations
  List                     All employees, sorted by name
  Create                   Persist a new employee with a store-assigned id
  Replace / Update         Overwrite an employee's fields and reports
  AddOrUpdateCompensation  Upsert keyed on (employee, effective date)
  CurrentCompensation      Latest compensation by effective date
  ReportingStructure       Bounded subtree count (see structure.go)

SEE ALSO:
  - store.go: Persistence contract
  - structure.go: The reporting-structure walk
*/
package directory

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Service implements the directory operations on top of a Store.
type Service struct {
	store      Store
	calculator *StructureCalculator
	now        func() time.Time
}

// NewService creates a service backed by store.
func NewService(store Store) *Service {
	return &Service{
		store:      store,
		calculator: NewStructureCalculator(store),
		now:        time.Now,
	}
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// GetByID loads the employee with the requested relations.
func (s *Service) GetByID(ctx context.Context, id string, fields ...Field) (*Employee, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrIDRequired
	}
	return s.store.GetEmployee(ctx, id, fields...)
}

// List returns all employees ordered by last name, then first name.
func (s *Service) List(ctx context.Context) ([]*Employee, error) {
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(employees, func(i, j int) bool {
		if employees[i].LastName != employees[j].LastName {
			return employees[i].LastName < employees[j].LastName
		}
		return employees[i].FirstName < employees[j].FirstName
	})
	return employees, nil
}

// Create persists emp under a new id. Any id on emp is discarded.
// Entries in emp.DirectReports are matched by id only.
func (s *Service) Create(ctx context.Context, emp *Employee) (*Employee, error) {
	emp.ID = ""
	if err := s.checkReports(ctx, "", emp.DirectReports); err != nil {
		return nil, err
	}
	if err := s.store.CreateEmployee(ctx, emp); err != nil {
		return nil, err
	}
	if emp.DirectReports == nil {
		return emp, nil
	}
	return s.store.GetEmployee(ctx, emp.ID, FieldDirectReports)
}

// Update loads the employee with id and replaces it with replacement.
func (s *Service) Update(ctx context.Context, id string, replacement *Employee) (*Employee, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Replace(ctx, existing, replacement)
}

// Replace copies replacement's fields onto existing and persists the
// result under existing's id. A nil replacement.DirectReports keeps the
// current reports.
func (s *Service) Replace(ctx context.Context, existing, replacement *Employee) (*Employee, error) {
	if existing == nil || strings.TrimSpace(existing.ID) == "" {
		return nil, ErrIDRequired
	}
	if err := s.checkReports(ctx, existing.ID, replacement.DirectReports); err != nil {
		return nil, err
	}

	updated := &Employee{
		ID:            existing.ID,
		FirstName:     replacement.FirstName,
		LastName:      replacement.LastName,
		Position:      replacement.Position,
		Department:    replacement.Department,
		DirectReports: replacement.DirectReports,
	}
	if err := s.store.ReplaceEmployee(ctx, updated); err != nil {
		return nil, err
	}

	if updated.DirectReports == nil {
		return updated, nil
	}
	return s.store.GetEmployee(ctx, updated.ID, FieldDirectReports)
}

// checkReports validates a report list for the employee selfID. selfID is
// empty on create.
func (s *Service) checkReports(ctx context.Context, selfID string, reports []*Employee) error {
	seen := make(map[string]bool, len(reports))
	for _, r := range reports {
		if r == nil || strings.TrimSpace(r.ID) == "" {
			return &ReportError{Err: ErrUnknownReport}
		}
		if selfID != "" && r.ID == selfID {
			return &ReportError{ReportID: r.ID, Err: ErrSelfReport}
		}
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		if _, err := s.store.GetEmployee(ctx, r.ID); err != nil {
			if IsNotFound(err) {
				return &ReportError{ReportID: r.ID, Err: ErrUnknownReport}
			}
			return err
		}

		if selfID == "" {
			continue
		}
		above, err := s.manages(ctx, r.ID, selfID)
		if err != nil {
			return err
		}
		if above {
			return &ReportError{ReportID: r.ID, Err: ErrReportingCycle}
		}
	}
	return nil
}

// manages reports whether targetID is anywhere in managerID's subtree.
// Ids already seen are skipped, so stored loops do not stall the search.
func (s *Service) manages(ctx context.Context, managerID, targetID string) (bool, error) {
	visited := make(map[string]bool)
	pending := []string{managerID}
	for len(pending) > 0 {
		id := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		emp, err := s.store.GetEmployee(ctx, id, FieldDirectReports)
		if err != nil {
			return false, err
		}
		for _, r := range emp.DirectReports {
			if r.ID == targetID {
				return true, nil
			}
			pending = append(pending, r.ID)
		}
	}
	return false, nil
}

// =============================================================================
// COMPENSATION
// =============================================================================

// AddOrUpdateCompensation upserts comp. A zero effective date means today.
// The returned record carries the employee back-reference.
func (s *Service) AddOrUpdateCompensation(ctx context.Context, comp Compensation) (*Compensation, error) {
	if strings.TrimSpace(comp.EmployeeID) == "" {
		return nil, ErrIDRequired
	}
	if comp.Salary.IsNegative() {
		return nil, ErrInvalidSalary
	}

	emp, err := s.store.GetEmployee(ctx, comp.EmployeeID)
	if err != nil {
		return nil, err
	}

	if comp.EffectiveDate.IsZero() {
		comp.EffectiveDate = s.now()
	}
	comp.EffectiveDate = NormalizeDate(comp.EffectiveDate)
	comp.Employee = nil

	if err := s.store.UpsertCompensation(ctx, comp); err != nil {
		return nil, err
	}

	comp.Employee = emp
	return &comp, nil
}

// CurrentCompensation returns the compensation with the latest effective date.
func (s *Service) CurrentCompensation(ctx context.Context, id string) (*Compensation, error) {
	emp, err := s.GetByID(ctx, id, FieldCompensation)
	if err != nil {
		return nil, err
	}
	current := emp.CurrentCompensation()
	if current == nil {
		return nil, ErrCompensationNotFound
	}
	return current, nil
}

// =============================================================================
// REPORTING STRUCTURE
// =============================================================================

// ValidateDepth returns ErrInvalidMaxDepth unless MinDepth <= maxDepth <= MaxDepth.
func ValidateDepth(maxDepth int) error {
	if maxDepth < MinDepth || maxDepth > MaxDepth {
		return ErrInvalidMaxDepth
	}
	return nil
}

// ReportingStructure counts the reports under id down to maxDepth.
// Arguments are validated before the store is consulted.
func (s *Service) ReportingStructure(ctx context.Context, id string, maxDepth int, includeStructure bool) (ReportingStructure, error) {
	if strings.TrimSpace(id) == "" {
		return ReportingStructure{}, ErrIDRequired
	}
	if err := ValidateDepth(maxDepth); err != nil {
		return ReportingStructure{}, err
	}

	root, err := s.store.GetEmployee(ctx, id, FieldDirectReports)
	if err != nil {
		return ReportingStructure{}, err
	}
	return s.calculator.Compute(ctx, root, maxDepth, includeStructure)
}
