// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk: no network, no separate
// server process. It is the default backend for local runs and tests.
//
// Importing go-sqlite3 registers the "sqlite3" driver with database/sql;
// the package is also used directly to classify constraint errors.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/registration-api/internal/config"
	"github.com/aanand-mishra/registration-api/internal/storage"
	"github.com/aanand-mishra/registration-api/internal/types"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB

	// now is swapped in tests to get deterministic timestamps.
	now func() time.Time
}

var (
	_ storage.Storage         = (*SQLite)(nil)
	_ storage.GuardedInserter = (*SQLite)(nil)
)

// New opens the SQLite database at cfg.SQLitePath, creates the students
// table if it does not already exist, and returns a ready-to-use *SQLite.
//
// _txlock=immediate makes every transaction take the write lock at BEGIN,
// which is what serialises InsertWithinCapacity across connections.
func New(cfg config.Storage) (*SQLite, error) {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	dsn := cfg.SQLitePath + "?_txlock=immediate&_busy_timeout=5000"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// reg_no and email carry the unique constraints the registration core
	// relies on for duplicate detection. The department index keeps the
	// capacity count cheap.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id         TEXT     PRIMARY KEY,
			name       TEXT     NOT NULL,
			reg_no     TEXT     NOT NULL,
			email      TEXT     NOT NULL,
			phone      TEXT     NOT NULL,
			department TEXT     NOT NULL,
			created_at DATETIME NOT NULL,
			CONSTRAINT students_reg_no_key UNIQUE (reg_no),
			CONSTRAINT students_email_key  UNIQUE (email)
		);
		CREATE INDEX IF NOT EXISTS students_department_idx ON students (department);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db, now: time.Now}, nil
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// CountByDepartment runs a COUNT(*) so no row data is fetched.
func (s *SQLite) CountByDepartment(ctx context.Context, department string) (int, error) {
	return countByDepartment(ctx, s.Db, department)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func countByDepartment(ctx context.Context, q queryer, department string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM students WHERE department = ?", department,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountByDepartment: scan: %w", err)
	}
	return count, nil
}

// CreateStudent inserts a new row into the students table.
//
// Placeholders (?) keep user input out of the SQL text: the driver sends the
// statement and the values separately.
func (s *SQLite) CreateStudent(ctx context.Context, student types.NewStudent) (types.Student, error) {
	return s.insert(ctx, s.Db, student)
}

func (s *SQLite) insert(ctx context.Context, q queryer, student types.NewStudent) (types.Student, error) {
	record := types.Student{
		ID:         uuid.NewString(),
		Name:       student.Name,
		RegNo:      student.RegNo,
		Email:      student.Email,
		Phone:      student.Phone,
		Department: student.Department,
		CreatedAt:  s.now().UTC(),
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO students (id, name, reg_no, email, phone, department, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Name, record.RegNo, record.Email,
		record.Phone, record.Department, record.CreatedAt,
	)
	if err != nil {
		if uv := uniqueViolation(err); uv != nil {
			return types.Student{}, uv
		}
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return record, nil
}

// InsertWithinCapacity counts and inserts inside one immediate transaction.
func (s *SQLite) InsertWithinCapacity(ctx context.Context, student types.NewStudent, limit int) (types.Student, error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return types.Student{}, fmt.Errorf("InsertWithinCapacity: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	count, err := countByDepartment(ctx, tx, student.Department)
	if err != nil {
		return types.Student{}, err
	}
	if count >= limit {
		return types.Student{}, storage.ErrCapacityExceeded
	}

	record, err := s.insert(ctx, tx, student)
	if err != nil {
		return types.Student{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("InsertWithinCapacity: commit: %w", err)
	}
	return record, nil
}

// ListDepartments returns the department column of every row.
func (s *SQLite) ListDepartments(ctx context.Context) ([]string, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT department FROM students ORDER BY created_at, rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("ListDepartments: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListDepartments: query: %w", err)
	}
	defer rows.Close()

	departments := make([]string, 0)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("ListDepartments: scan row: %w", err)
		}
		departments = append(departments, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDepartments: rows iteration: %w", err)
	}

	return departments, nil
}

// uniqueViolation maps a driver error onto storage.UniqueViolationError.
// SQLite reports the column as "UNIQUE constraint failed: students.reg_no".
func uniqueViolation(err error) *storage.UniqueViolationError {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return nil
	}

	msg := sqliteErr.Error()
	for _, field := range storage.UniqueFields {
		if strings.Contains(msg, "students."+field) {
			return &storage.UniqueViolationError{Field: field, Err: err}
		}
	}
	return &storage.UniqueViolationError{Err: err}
}
