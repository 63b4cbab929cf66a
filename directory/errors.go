/*
errors.go - Centralized error types for the directory

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stores return these sentinels; the API maps them to status codes with
  the helpers at the bottom of this file.

ERROR CATEGORIES:
  1. Not found - the employee or its compensation does not exist
  2. Validation - the caller sent something unusable (400)
  3. Integrity - stored data breaks the reporting-line invariants (500)

USAGE:
    if directory.IsNotFound(err) {
        // 404
    }

SEE ALSO:
  - structure.go: Produces integrity errors
  - api/handlers.go: Status mapping
*/
package directory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when no employee has the given id.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrCompensationNotFound is returned when the employee exists but has
	// no compensation records.
	ErrCompensationNotFound = errors.New("compensation not found")

	// ErrEmployeeExists is returned when creating an employee under an id
	// that is already taken.
	ErrEmployeeExists = errors.New("employee already exists")

	// ErrIDRequired is returned for a blank employee id.
	ErrIDRequired = errors.New("id is required")

	// ErrInvalidMaxDepth is returned when maxDepth is outside [MinDepth, MaxDepth].
	ErrInvalidMaxDepth = fmt.Errorf("maxDepth must be between %d and %d, inclusive.", MinDepth, MaxDepth)

	// ErrSelfReport is returned when an employee is listed as its own report.
	ErrSelfReport = errors.New("employee cannot report to itself")

	// ErrReportingCycle is returned when a listed direct report is already
	// above the employee in its reporting chain.
	ErrReportingCycle = errors.New("direct report is above the employee in the reporting chain")

	// ErrUnknownReport is returned when a listed direct report does not exist.
	ErrUnknownReport = errors.New("direct report does not exist")

	// ErrInvalidSalary is returned for a negative salary.
	ErrInvalidSalary = errors.New("salary must not be negative")

	// ErrIntegrityViolation is returned when stored reporting lines are
	// inconsistent: a dangling report id or a loop.
	ErrIntegrityViolation = errors.New("reporting structure integrity violation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnresolvedReportError is returned when a direct report listed for an
// employee cannot be loaded from the store.
type UnresolvedReportError struct {
	EmployeeID string
}

func (e *UnresolvedReportError) Error() string {
	return fmt.Sprintf("direct report %s could not be resolved", e.EmployeeID)
}

func (e *UnresolvedReportError) Unwrap() error {
	return ErrIntegrityViolation
}

// CycleError is returned when the walk reaches an employee it has
// already visited.
type CycleError struct {
	EmployeeID string
	Depth      int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("reporting cycle detected at employee %s (depth %d)", e.EmployeeID, e.Depth)
}

func (e *CycleError) Unwrap() error {
	return ErrIntegrityViolation
}

// ReportError wraps a replace-time validation failure with the offending id.
type ReportError struct {
	ReportID string
	Err      error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.ReportID)
}

func (e *ReportError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrCompensationNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrIDRequired) ||
		errors.Is(err, ErrInvalidMaxDepth) ||
		errors.Is(err, ErrSelfReport) ||
		errors.Is(err, ErrUnknownReport) ||
		errors.Is(err, ErrReportingCycle) ||
		errors.Is(err, ErrInvalidSalary) ||
		errors.Is(err, ErrEmployeeExists)
}

// IsIntegrityViolation returns true if stored data is inconsistent.
func IsIntegrityViolation(err error) bool {
	return errors.Is(err, ErrIntegrityViolation)
}
