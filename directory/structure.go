/*
structure.go - Reporting-structure calculation

PURPOSE:
  Counts every direct and indirect report under an employee, down to a
  depth limit, and says whether the limit cut anything off. Optionally
  leaves the walked tree attached to the result.

ALGORITHM:
  Depth-first walk, depth is 1-based (the root is depth 1):

    countSubtree(e, depth):
      count = 1                          // e itself
      if depth > maxDepth:
          return count, truncated=true   // no load, no recursion
      if e.DirectReports not loaded:
          load them from the store
      for each report r:
          n, t = countSubtree(r, depth+1)
          count += n; truncated |= t
      if !includeStructure: unload e.DirectReports
      return count, truncated

  NumberOfReports is the root's count minus one.

BOUNDARY:
  Reports of an employee at exactly maxDepth are still visited one level
  down, and visiting them marks the result truncated even when they have
  no reports themselves. With maxDepth=2 on a three-level tree the count
  is complete but IsTruncated is true: the walk stopped before it could
  prove there was nothing more below.

LAZY LOADING:
  Only employees within the limit are loaded, one store call per employee
  whose reports are not already loaded. A report id that the store cannot
  resolve is an integrity error, not a 404.

LOOPS:
  Every visited id is remembered for the duration of one walk. Seeing an
  id twice returns CycleError instead of recursing forever.

SEE ALSO:
  - service.go: Input validation and root loading
  - errors.go: CycleError, UnresolvedReportError
*/
package directory

import (
	"context"
	"errors"
)

// Depth limits accepted by the service.
const (
	MinDepth     = 1
	MaxDepth     = 10
	DefaultDepth = 5
)

// StructureCalculator walks reporting lines through a Store.
type StructureCalculator struct {
	store Store
}

// NewStructureCalculator creates a calculator that loads missing reports from store.
func NewStructureCalculator(store Store) *StructureCalculator {
	return &StructureCalculator{store: store}
}

// Compute walks root's subtree down to maxDepth. root is modified in
// place: its DirectReports are populated when includeStructure is true
// and cleared otherwise.
func (c *StructureCalculator) Compute(ctx context.Context, root *Employee, maxDepth int, includeStructure bool) (ReportingStructure, error) {
	if maxDepth < MinDepth {
		return ReportingStructure{}, ErrInvalidMaxDepth
	}

	w := &walk{
		ctx:              ctx,
		store:            c.store,
		maxDepth:         maxDepth,
		includeStructure: includeStructure,
		visited:          make(map[string]struct{}),
	}

	count, truncated, err := w.countSubtree(root, 1)
	if err != nil {
		return ReportingStructure{}, err
	}

	if !includeStructure {
		root.DirectReports = nil
	}

	return ReportingStructure{
		Employee:        root,
		NumberOfReports: count - 1,
		IsTruncated:     truncated,
	}, nil
}

// walk is the state of one Compute call.
type walk struct {
	ctx              context.Context
	store            Store
	maxDepth         int
	includeStructure bool
	visited          map[string]struct{}
}

func (w *walk) countSubtree(emp *Employee, depth int) (int, bool, error) {
	if _, seen := w.visited[emp.ID]; seen {
		return 0, false, &CycleError{EmployeeID: emp.ID, Depth: depth}
	}
	w.visited[emp.ID] = struct{}{}

	if depth > w.maxDepth {
		return 1, true, nil
	}

	if !emp.ReportsLoaded() {
		if err := w.loadReports(emp); err != nil {
			return 0, false, err
		}
	}

	count, truncated := 1, false
	for _, report := range emp.DirectReports {
		n, t, err := w.countSubtree(report, depth+1)
		if err != nil {
			return 0, false, err
		}
		count += n
		truncated = truncated || t
	}

	if !w.includeStructure {
		emp.DirectReports = nil
	}
	return count, truncated, nil
}

func (w *walk) loadReports(emp *Employee) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	loaded, err := w.store.GetEmployee(w.ctx, emp.ID, FieldDirectReports)
	if errors.Is(err, ErrEmployeeNotFound) {
		return &UnresolvedReportError{EmployeeID: emp.ID}
	}
	if err != nil {
		return err
	}

	emp.DirectReports = loaded.DirectReports
	if emp.DirectReports == nil {
		emp.DirectReports = []*Employee{}
	}
	return nil
}
