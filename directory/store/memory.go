// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/employee-directory/directory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	employees    map[string]*record
	order        []string
	compensation map[string]map[time.Time]decimal.Decimal
}

type record struct {
	FirstName  string
	LastName   string
	Position   string
	Department string
	ManagerID  string
}

var _ directory.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		employees:    make(map[string]*record),
		compensation: make(map[string]map[time.Time]decimal.Decimal),
	}
}

func (m *Memory) GetEmployee(_ context.Context, id string, fields ...directory.Field) (*directory.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.employees[id]
	if !ok {
		return nil, directory.ErrEmployeeNotFound
	}
	emp := toEmployee(id, rec)

	if directory.HasField(fields, directory.FieldDirectReports) {
		emp.DirectReports = []*directory.Employee{}
		for _, childID := range m.order {
			if child := m.employees[childID]; child.ManagerID == id {
				emp.DirectReports = append(emp.DirectReports, toEmployee(childID, child))
			}
		}
	}

	if directory.HasField(fields, directory.FieldCompensation) {
		emp.Compensation = []*directory.Compensation{}
		for date, salary := range m.compensation[id] {
			emp.Compensation = append(emp.Compensation, &directory.Compensation{
				EmployeeID:    id,
				EffectiveDate: date,
				Salary:        salary,
				Employee:      emp,
			})
		}
		sort.Slice(emp.Compensation, func(i, j int) bool {
			return emp.Compensation[i].EffectiveDate.Before(emp.Compensation[j].EffectiveDate)
		})
	}

	return emp, nil
}

// ListEmployees returns employees in insertion order.
func (m *Memory) ListEmployees(_ context.Context) ([]*directory.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*directory.Employee, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, toEmployee(id, m.employees[id]))
	}
	return result, nil
}

func (m *Memory) CreateEmployee(_ context.Context, emp *directory.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	if _, exists := m.employees[emp.ID]; exists {
		return directory.ErrEmployeeExists
	}
	if err := m.checkReportsLocked(emp.DirectReports); err != nil {
		return err
	}

	m.employees[emp.ID] = fromEmployee(emp)
	m.order = append(m.order, emp.ID)
	m.assignReportsLocked(emp.ID, emp.DirectReports)
	return nil
}

func (m *Memory) ReplaceEmployee(_ context.Context, emp *directory.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.employees[emp.ID]
	if !ok {
		return directory.ErrEmployeeNotFound
	}
	if err := m.checkReportsLocked(emp.DirectReports); err != nil {
		return err
	}

	rec := fromEmployee(emp)
	rec.ManagerID = existing.ManagerID
	m.employees[emp.ID] = rec

	if emp.DirectReports != nil {
		for _, r := range m.employees {
			if r.ManagerID == emp.ID {
				r.ManagerID = ""
			}
		}
		m.assignReportsLocked(emp.ID, emp.DirectReports)
	}
	return nil
}

func (m *Memory) UpsertCompensation(_ context.Context, comp directory.Compensation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[comp.EmployeeID]; !ok {
		return directory.ErrEmployeeNotFound
	}
	history, ok := m.compensation[comp.EmployeeID]
	if !ok {
		history = make(map[time.Time]decimal.Decimal)
		m.compensation[comp.EmployeeID] = history
	}
	history[directory.NormalizeDate(comp.EffectiveDate)] = comp.Salary
	return nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.employees = make(map[string]*record)
	m.order = nil
	m.compensation = make(map[string]map[time.Time]decimal.Decimal)
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(_ context.Context) error {
	return nil
}

func (m *Memory) checkReportsLocked(reports []*directory.Employee) error {
	for _, r := range reports {
		if _, ok := m.employees[r.ID]; !ok {
			return &directory.ReportError{ReportID: r.ID, Err: directory.ErrUnknownReport}
		}
	}
	return nil
}

func (m *Memory) assignReportsLocked(managerID string, reports []*directory.Employee) {
	for _, r := range reports {
		m.employees[r.ID].ManagerID = managerID
	}
}

func toEmployee(id string, rec *record) *directory.Employee {
	return &directory.Employee{
		ID:         id,
		FirstName:  rec.FirstName,
		LastName:   rec.LastName,
		Position:   rec.Position,
		Department: rec.Department,
	}
}

func fromEmployee(emp *directory.Employee) *record {
	return &record{
		FirstName:  emp.FirstName,
		LastName:   emp.LastName,
		Position:   emp.Position,
		Department: emp.Department,
	}
}
