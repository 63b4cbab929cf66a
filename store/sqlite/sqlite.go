/*
Package sqlite provides a SQLite-backed implementation of directory.Store.

PURPOSE:
  Default runtime store. Persists employees, their reporting lines and
  their compensation history in a single SQLite file. The PostgreSQL
  store (store/postgres) implements the same contract with the same
  schema shape.

KEY TABLES:
  employees:     One row per employee. manager_id points at the manager,
                 so an employee can never have two managers.
  compensation:  Salary history, primary key (employee_id, effective_date).

REPORTING LINES:
  Direct reports of X are the rows with manager_id = X, returned in
  insertion order (rowid). Replacing an employee with an explicit report
  list first detaches its current reports, then attaches the listed ones,
  all in one transaction.

MONEY:
  Salaries are stored as TEXT and parsed with shopspring/decimal, so no
  value ever passes through float64.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/directory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := directory.NewService(store)

MIGRATION:
  Schema is auto-migrated on New(). PostgreSQL uses versioned migrations
  under migrations/postgres instead (see cmd/migrate).

SEE ALSO:
  - directory/store.go: Interface definition
  - directory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/employee-directory/directory"
)

// dateLayout is the storage format for effective dates.
const dateLayout = "2006-01-02"

// Store implements directory.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ directory.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to ":memory:" is its own database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		manager_id TEXT REFERENCES employees(id) ON DELETE SET NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Direct-report lookups (hot path of the structure walk)
	CREATE INDEX IF NOT EXISTS idx_employees_manager
		ON employees(manager_id);

	CREATE INDEX IF NOT EXISTS idx_employees_name
		ON employees(last_name, first_name);

	CREATE TABLE IF NOT EXISTS compensation (
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		effective_date TEXT NOT NULL,
		salary TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, effective_date)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = "id, first_name, last_name, position, department"

// GetEmployee returns an employee with the requested relations.
func (s *Store) GetEmployee(ctx context.Context, id string, fields ...directory.Field) (*directory.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, err := scanEmployee(s.db.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = ?", id,
	))
	if err != nil {
		return nil, err
	}

	if directory.HasField(fields, directory.FieldDirectReports) {
		emp.DirectReports, err = s.queryEmployees(ctx,
			"SELECT "+employeeColumns+" FROM employees WHERE manager_id = ? ORDER BY rowid", id,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load direct reports: %w", err)
		}
	}

	if directory.HasField(fields, directory.FieldCompensation) {
		emp.Compensation, err = s.loadCompensation(ctx, emp)
		if err != nil {
			return nil, fmt.Errorf("failed to load compensation: %w", err)
		}
	}

	return emp, nil
}

// ListEmployees returns all employees without relations.
func (s *Store) ListEmployees(ctx context.Context) ([]*directory.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEmployees(ctx,
		"SELECT "+employeeColumns+" FROM employees ORDER BY last_name, first_name, rowid",
	)
}

// CreateEmployee inserts emp and attaches its listed reports.
func (s *Store) CreateEmployee(ctx context.Context, emp *directory.Employee) error {
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM employees WHERE id = ?", emp.ID).Scan(&exists)
		if err == nil {
			return directory.ErrEmployeeExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		now := time.Now().UTC().Format(time.RFC3339)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO employees (id, first_name, last_name, position, department, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, emp.ID, emp.FirstName, emp.LastName, emp.Position, emp.Department, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert employee: %w", err)
		}

		return attachReports(ctx, tx, emp.ID, emp.DirectReports)
	})
}

// ReplaceEmployee overwrites emp.ID's fields and, if given, its reports.
func (s *Store) ReplaceEmployee(ctx context.Context, emp *directory.Employee) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE employees
			   SET first_name = ?, last_name = ?, position = ?, department = ?, updated_at = ?
			 WHERE id = ?
		`, emp.FirstName, emp.LastName, emp.Position, emp.Department,
			time.Now().UTC().Format(time.RFC3339), emp.ID)
		if err != nil {
			return fmt.Errorf("failed to update employee: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return directory.ErrEmployeeNotFound
		}

		if emp.DirectReports == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE employees SET manager_id = NULL WHERE manager_id = ?", emp.ID,
		); err != nil {
			return fmt.Errorf("failed to detach reports: %w", err)
		}
		return attachReports(ctx, tx, emp.ID, emp.DirectReports)
	})
}

func attachReports(ctx context.Context, tx *sql.Tx, managerID string, reports []*directory.Employee) error {
	for _, r := range reports {
		res, err := tx.ExecContext(ctx,
			"UPDATE employees SET manager_id = ? WHERE id = ?", managerID, r.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to attach report %s: %w", r.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &directory.ReportError{ReportID: r.ID, Err: directory.ErrUnknownReport}
		}
	}
	return nil
}

// =============================================================================
// COMPENSATION
// =============================================================================

// UpsertCompensation inserts or overwrites the (employee, date) record.
func (s *Store) UpsertCompensation(ctx context.Context, comp directory.Compensation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM employees WHERE id = ?", comp.EmployeeID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return directory.ErrEmployeeNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO compensation (employee_id, effective_date, salary, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(employee_id, effective_date) DO UPDATE SET
				salary = excluded.salary,
				updated_at = excluded.updated_at
		`, comp.EmployeeID,
			directory.NormalizeDate(comp.EffectiveDate).Format(dateLayout),
			comp.Salary.String(),
			time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to upsert compensation: %w", err)
		}
		return nil
	})
}

func (s *Store) loadCompensation(ctx context.Context, emp *directory.Employee) ([]*directory.Compensation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT effective_date, salary FROM compensation
		 WHERE employee_id = ?
		 ORDER BY effective_date
	`, emp.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*directory.Compensation{}
	for rows.Next() {
		var date, salary string
		if err := rows.Scan(&date, &salary); err != nil {
			return nil, err
		}

		c := &directory.Compensation{EmployeeID: emp.ID, Employee: emp}
		if c.EffectiveDate, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("bad effective date %q: %w", date, err)
		}
		if c.Salary, err = decimal.NewFromString(salary); err != nil {
			return nil, fmt.Errorf("bad salary %q: %w", salary, err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data (for development/testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"compensation", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// withTx runs fn in a write transaction under the store lock.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]*directory.Employee, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []*directory.Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*directory.Employee, error) {
	var emp directory.Employee
	err := row.Scan(&emp.ID, &emp.FirstName, &emp.LastName, &emp.Position, &emp.Department)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, directory.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}
