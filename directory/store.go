package directory

import "context"

// Store is the persistence contract for the directory.
//
// GetEmployee loads one employee. Relations are loaded only when their
// Field is requested:
//   - FieldDirectReports: DirectReports is non-nil and holds the immediate
//     reports, each with DirectReports left nil (one level only).
//   - FieldCompensation: Compensation is non-nil, ordered by effective
//     date ascending, and each entry's Employee points at the result.
//
// Unknown ids yield ErrEmployeeNotFound from every method.
type Store interface {
	GetEmployee(ctx context.Context, id string, fields ...Field) (*Employee, error)
	ListEmployees(ctx context.Context) ([]*Employee, error)

	// CreateEmployee persists emp, assigning a new id when emp.ID is
	// empty. The ids in emp.DirectReports become its reports.
	CreateEmployee(ctx context.Context, emp *Employee) error

	// ReplaceEmployee overwrites the scalar fields of emp.ID. A nil
	// DirectReports leaves the reporting lines untouched; a non-nil one
	// becomes the exact report list.
	ReplaceEmployee(ctx context.Context, emp *Employee) error

	// UpsertCompensation inserts or overwrites the record keyed by
	// (EmployeeID, EffectiveDate).
	UpsertCompensation(ctx context.Context, comp Compensation) error

	// Reset removes every record. Development scenarios only.
	Reset(ctx context.Context) error
}

// Pinger is implemented by stores that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}
