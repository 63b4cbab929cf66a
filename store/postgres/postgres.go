/*
Package postgres provides a PostgreSQL-backed implementation of directory.Store.

PURPOSE:
  Production store selected with DB_DRIVER=postgres. Same contract and
  the same table shape as store/sqlite; the schema is owned by the
  versioned migrations in migrations/postgres and applied with
  cmd/migrate, not created at startup.

DRIVER:
  jackc/pgx v5 through a pgxpool.Pool. The store only depends on the DB
  interface below, which both *pgxpool.Pool and pgxmock's pool satisfy.

MONEY:
  salary is NUMERIC. It is written from decimal.Decimal's string form and
  read back with salary::text, so no value passes through float64.

SEE ALSO:
  - migrations/postgres: Schema
  - store/sqlite/sqlite.go: SQLite counterpart
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/warp/employee-directory/directory"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Store implements directory.Store on PostgreSQL.
type Store struct {
	db DB
}

var _ directory.Store = (*Store)(nil)

// PoolConfig holds connection settings.
type PoolConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// NewPool creates a pgxpool.Pool and checks connectivity.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// New creates a store on top of db.
func New(db DB) *Store {
	return &Store{db: db}
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = "id, first_name, last_name, position, department"

// GetEmployee returns an employee with the requested relations.
func (s *Store) GetEmployee(ctx context.Context, id string, fields ...directory.Field) (*directory.Employee, error) {
	emp, err := scanEmployee(s.db.QueryRow(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = $1", id,
	))
	if err != nil {
		return nil, translatePgError(err)
	}

	if directory.HasField(fields, directory.FieldDirectReports) {
		emp.DirectReports, err = s.queryEmployees(ctx,
			"SELECT "+employeeColumns+" FROM employees WHERE manager_id = $1 ORDER BY seq", id,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: load direct reports: %w", err)
		}
	}

	if directory.HasField(fields, directory.FieldCompensation) {
		emp.Compensation, err = s.loadCompensation(ctx, emp)
		if err != nil {
			return nil, fmt.Errorf("postgres: load compensation: %w", err)
		}
	}

	return emp, nil
}

// ListEmployees returns all employees without relations.
func (s *Store) ListEmployees(ctx context.Context) ([]*directory.Employee, error) {
	return s.queryEmployees(ctx,
		"SELECT "+employeeColumns+" FROM employees ORDER BY last_name, first_name, seq",
	)
}

// CreateEmployee inserts emp and attaches its listed reports.
func (s *Store) CreateEmployee(ctx context.Context, emp *directory.Employee) error {
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO employees (id, first_name, last_name, position, department)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, emp.ID, emp.FirstName, emp.LastName, emp.Position, emp.Department)
		if err != nil {
			return translatePgError(err)
		}
		if tag.RowsAffected() == 0 {
			return directory.ErrEmployeeExists
		}
		return attachReports(ctx, tx, emp.ID, emp.DirectReports)
	})
}

// ReplaceEmployee overwrites emp.ID's fields and, if given, its reports.
func (s *Store) ReplaceEmployee(ctx context.Context, emp *directory.Employee) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE employees
			   SET first_name = $1, last_name = $2, position = $3, department = $4, updated_at = now()
			 WHERE id = $5
		`, emp.FirstName, emp.LastName, emp.Position, emp.Department, emp.ID)
		if err != nil {
			return translatePgError(err)
		}
		if tag.RowsAffected() == 0 {
			return directory.ErrEmployeeNotFound
		}

		if emp.DirectReports == nil {
			return nil
		}
		if _, err := tx.Exec(ctx,
			"UPDATE employees SET manager_id = NULL WHERE manager_id = $1", emp.ID,
		); err != nil {
			return fmt.Errorf("postgres: detach reports: %w", err)
		}
		return attachReports(ctx, tx, emp.ID, emp.DirectReports)
	})
}

func attachReports(ctx context.Context, tx pgx.Tx, managerID string, reports []*directory.Employee) error {
	for _, r := range reports {
		tag, err := tx.Exec(ctx,
			"UPDATE employees SET manager_id = $1 WHERE id = $2", managerID, r.ID,
		)
		if err != nil {
			return fmt.Errorf("postgres: attach report %s: %w", r.ID, err)
		}
		if tag.RowsAffected() == 0 {
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
	_, err := s.db.Exec(ctx, `
		INSERT INTO compensation (employee_id, effective_date, salary)
		VALUES ($1, $2, $3::numeric)
		ON CONFLICT (employee_id, effective_date) DO UPDATE
		   SET salary = EXCLUDED.salary, updated_at = now()
	`, comp.EmployeeID, directory.NormalizeDate(comp.EffectiveDate), comp.Salary.String())
	if err != nil {
		return translatePgError(err)
	}
	return nil
}

func (s *Store) loadCompensation(ctx context.Context, emp *directory.Employee) ([]*directory.Compensation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT effective_date, salary::text FROM compensation
		 WHERE employee_id = $1
		 ORDER BY effective_date
	`, emp.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*directory.Compensation{}
	for rows.Next() {
		var (
			date   time.Time
			salary string
		)
		if err := rows.Scan(&date, &salary); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(salary)
		if err != nil {
			return nil, fmt.Errorf("postgres: bad salary %q: %w", salary, err)
		}
		result = append(result, &directory.Compensation{
			EmployeeID:    emp.ID,
			EffectiveDate: directory.NormalizeDate(date),
			Salary:        amount,
			Employee:      emp,
		})
	}
	return result, rows.Err()
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data (for development/testing).
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.Exec(ctx, "TRUNCATE compensation, employees")
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite})
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]*directory.Employee, error) {
	rows, err := s.db.Query(ctx, query, args...)
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

func scanEmployee(row pgx.Row) (*directory.Employee, error) {
	var emp directory.Employee
	if err := row.Scan(&emp.ID, &emp.FirstName, &emp.LastName, &emp.Position, &emp.Department); err != nil {
		return nil, err
	}
	return &emp, nil
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return directory.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return directory.ErrEmployeeExists
		case foreignKeyViolationCode:
			return directory.ErrEmployeeNotFound
		}
	}
	return err
}
