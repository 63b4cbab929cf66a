/*
types.go - Core domain types for the employee directory

PURPOSE:
  Defines the entities the directory works with: employees, their
  compensation history, and the reporting-structure result computed
  over the direct-report tree.

LOADED vs. EMPTY:
  Employee.DirectReports and Employee.Compensation distinguish between
  "not loaded" and "loaded, but empty":

    nil         the relation was not fetched from the store
    []*T{}      the relation was fetched and has no entries

  The reporting-structure walk relies on this to decide whether it has to
  go back to the store for the next level of the tree.

REPORTING LINES:
  Direct-report edges form a forest: every employee has at most one
  manager and the edges never loop. The relational stores persist the edge
  as a manager reference on the report, so "two managers" cannot be
  written. Loops can still be introduced through replace and are caught
  by the walk (see structure.go).

SEE ALSO:
  - store.go: Persistence contract and expansion fields
  - structure.go: Reporting-structure calculation
  - service.go: Operations over these types
*/
package directory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is a person in the directory.
type Employee struct {
	ID         string
	FirstName  string
	LastName   string
	Position   string
	Department string

	// DirectReports is nil when not loaded.
	DirectReports []*Employee

	// Compensation is nil when not loaded. Ordered by effective date, oldest first.
	Compensation []*Compensation
}

// FullName returns "First Last".
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// ReportsLoaded reports whether DirectReports has been fetched.
func (e *Employee) ReportsLoaded() bool {
	return e.DirectReports != nil
}

// ReportIDs returns the ids of the loaded direct reports.
func (e *Employee) ReportIDs() []string {
	ids := make([]string, 0, len(e.DirectReports))
	for _, r := range e.DirectReports {
		ids = append(ids, r.ID)
	}
	return ids
}

// CurrentCompensation returns the entry with the latest effective date,
// or nil if the compensation list is empty or not loaded.
func (e *Employee) CurrentCompensation() *Compensation {
	var current *Compensation
	for _, c := range e.Compensation {
		if current == nil || c.EffectiveDate.After(current.EffectiveDate) {
			current = c
		}
	}
	return current
}

// =============================================================================
// COMPENSATION
// =============================================================================

// Compensation is one salary record. Identity is (EmployeeID, EffectiveDate).
type Compensation struct {
	EmployeeID    string
	EffectiveDate time.Time
	Salary        decimal.Decimal

	// Employee is a back-reference filled by the store. Output only.
	Employee *Employee
}

// NormalizeDate truncates t to midnight UTC. Compensation dates are days,
// so two records on the same calendar day share an identity.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// REPORTING STRUCTURE
// =============================================================================

// ReportingStructure is the result of walking an employee's subtree.
type ReportingStructure struct {
	Employee        *Employee
	NumberOfReports int
	IsTruncated     bool
}

// =============================================================================
// EXPANSION FIELDS
// =============================================================================

// Field names a relation that the store can load alongside an employee.
type Field int

const (
	FieldDirectReports Field = iota + 1
	FieldCompensation
)

func (f Field) String() string {
	switch f {
	case FieldDirectReports:
		return "directReports"
	case FieldCompensation:
		return "compensation"
	default:
		return "unknown"
	}
}

// ParseField maps a field name to a Field. Matching ignores case.
// The boolean is false for names that are not recognized.
func ParseField(name string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "directreports":
		return FieldDirectReports, true
	case "compensation":
		return FieldCompensation, true
	default:
		return 0, false
	}
}

// ParseFields parses a comma-separated list, dropping unknown names and
// duplicates.
func ParseFields(list string) []Field {
	var fields []Field
	seen := make(map[Field]bool)
	for _, part := range strings.Split(list, ",") {
		f, ok := ParseField(part)
		if !ok || seen[f] {
			continue
		}
		seen[f] = true
		fields = append(fields, f)
	}
	return fields
}

// HasField reports whether want is among fields.
func HasField(fields []Field, want Field) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}
