// Package postgres implements storage.Storage on PostgreSQL through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/registration-api/internal/config"
	"github.com/aanand-mishra/registration-api/internal/storage"
	"github.com/aanand-mishra/registration-api/internal/types"
)

// uniqueViolationCode is the SQLSTATE for unique_violation.
const uniqueViolationCode = "23505"

// constraintFields maps unique constraint names to the field they guard.
var constraintFields = map[string]string{
	"students_reg_no_key": types.FieldRegNo,
	"students_email_key":  types.FieldEmail,
}

const schema = `
CREATE TABLE IF NOT EXISTS students (
	id         UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
	name       TEXT        NOT NULL,
	reg_no     TEXT        NOT NULL,
	email      TEXT        NOT NULL,
	phone      TEXT        NOT NULL,
	department TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT students_reg_no_key UNIQUE (reg_no),
	CONSTRAINT students_email_key  UNIQUE (email)
);
CREATE INDEX IF NOT EXISTS students_department_idx ON students (department);
`

// Storage is the PostgreSQL implementation of storage.Storage.
type Storage struct {
	pool *pgxpool.Pool
}

var (
	_ storage.Storage         = (*Storage)(nil)
	_ storage.GuardedInserter = (*Storage)(nil)
)

// New connects to cfg.PostgresDSN, verifies the connection and makes sure
// the students table exists.
func New(ctx context.Context, cfg config.Storage) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		if err := conn.Ping(ctx); err != nil {
			slog.Warn("unhealthy connection detected", slog.String("error", err.Error()))
			return false
		}
		return true
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: create table: %w", err)
	}

	return &Storage{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Storage) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Storage) CountByDepartment(ctx context.Context, department string) (int, error) {
	return countByDepartment(ctx, s.pool, department)
}

func countByDepartment(ctx context.Context, q querier, department string) (int, error) {
	const query = `SELECT COUNT(*) FROM students WHERE department = $1`

	var count int
	if err := q.QueryRow(ctx, query, department).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountByDepartment: %w", err)
	}
	return count, nil
}

func (s *Storage) CreateStudent(ctx context.Context, student types.NewStudent) (types.Student, error) {
	return insert(ctx, s.pool, student)
}

func insert(ctx context.Context, q querier, student types.NewStudent) (types.Student, error) {
	const query = `
        INSERT INTO students (name, reg_no, email, phone, department)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id::text, name, reg_no, email, phone, department, created_at;
    `

	var record types.Student
	err := q.QueryRow(ctx, query,
		student.Name, student.RegNo, student.Email, student.Phone, student.Department,
	).Scan(
		&record.ID, &record.Name, &record.RegNo, &record.Email,
		&record.Phone, &record.Department, &record.CreatedAt,
	)
	if err != nil {
		if uv := uniqueViolation(err); uv != nil {
			return types.Student{}, uv
		}
		return types.Student{}, fmt.Errorf("CreateStudent: %w", err)
	}

	return record, nil
}

// InsertWithinCapacity takes a transaction-scoped advisory lock keyed on the
// department, so concurrent guarded inserts into the same department run one
// at a time and each sees the count left by the previous one.
func (s *Storage) InsertWithinCapacity(ctx context.Context, student types.NewStudent, limit int) (types.Student, error) {
	var record types.Student

	err := s.withTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, student.Department); err != nil {
			return fmt.Errorf("InsertWithinCapacity: lock: %w", err)
		}

		count, err := countByDepartment(ctx, tx, student.Department)
		if err != nil {
			return err
		}
		if count >= limit {
			return storage.ErrCapacityExceeded
		}

		record, err = insert(ctx, tx, student)
		return err
	})
	if err != nil {
		return types.Student{}, err
	}

	return record, nil
}

func (s *Storage) withTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.Error("failed to rollback transaction", slog.String("error", rbErr.Error()))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Storage) ListDepartments(ctx context.Context) ([]string, error) {
	const query = `SELECT department FROM students ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListDepartments: query: %w", err)
	}

	departments, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("ListDepartments: collect: %w", err)
	}
	if departments == nil {
		departments = make([]string, 0)
	}
	return departments, nil
}

// uniqueViolation maps a 23505 error onto storage.UniqueViolationError,
// naming the field from the constraint, or from the detail text
// ("Key (email)=(...) already exists.") for constraints created elsewhere.
func uniqueViolation(err error) *storage.UniqueViolationError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return nil
	}

	if field, ok := constraintFields[pgErr.ConstraintName]; ok {
		return &storage.UniqueViolationError{Field: field, Err: err}
	}

	for _, field := range storage.UniqueFields {
		if strings.Contains(pgErr.Detail, "("+field+")") || strings.Contains(pgErr.ConstraintName, field) {
			return &storage.UniqueViolationError{Field: field, Err: err}
		}
	}

	return &storage.UniqueViolationError{Err: err}
}
