package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/registration-api/internal/config"
	"github.com/aanand-mishra/registration-api/internal/storage"
	"github.com/aanand-mishra/registration-api/internal/types"
)

func TestUniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantNil   bool
		wantField string
	}{
		{
			name:      "reg_no constraint",
			err:       &pgconn.PgError{Code: "23505", ConstraintName: "students_reg_no_key"},
			wantField: types.FieldRegNo,
		},
		{
			name:      "email constraint wrapped",
			err:       fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "students_email_key"}),
			wantField: types.FieldEmail,
		},
		{
			name:      "unknown constraint named in detail",
			err:       &pgconn.PgError{Code: "23505", ConstraintName: "uq_1", Detail: "Key (email)=(jo@x.com) already exists."},
			wantField: types.FieldEmail,
		},
		{
			name:      "unattributable",
			err:       &pgconn.PgError{Code: "23505", ConstraintName: "uq_1"},
			wantField: "",
		},
		{
			name:    "other sqlstate",
			err:     &pgconn.PgError{Code: "23502"},
			wantNil: true,
		},
		{
			name:    "not a pg error",
			err:     errors.New("boom"),
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uniqueViolation(tt.err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantField, got.Field)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

// TestStorage_Integration runs against a real database when
// TEST_POSTGRES_DSN is set.
func TestStorage_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := New(ctx, config.Storage{PostgresDSN: dsn, MaxConns: 4})
	require.NoError(t, err)
	defer s.Close()

	// unique department per run so reruns against the same database stay isolated
	department := "IT-" + uuid.NewString()
	suffix := uuid.NewString()[:8]

	newStudent := func(n int) types.NewStudent {
		return types.NewStudent{
			Name:       "Jo Lee",
			RegNo:      fmt.Sprintf("R%d-%s", n, suffix),
			Email:      fmt.Sprintf("jo%d-%s@x.com", n, suffix),
			Phone:      "9876543210",
			Department: department,
		}
	}

	created, err := s.CreateStudent(ctx, newStudent(1))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	dup := newStudent(2)
	dup.Email = created.Email
	_, err = s.CreateStudent(ctx, dup)
	uv, ok := storage.AsUniqueViolation(err)
	require.True(t, ok)
	assert.Equal(t, types.FieldEmail, uv.Field)

	_, err = s.InsertWithinCapacity(ctx, newStudent(3), 2)
	require.NoError(t, err)
	_, err = s.InsertWithinCapacity(ctx, newStudent(4), 2)
	assert.ErrorIs(t, err, storage.ErrCapacityExceeded)

	count, err := s.CountByDepartment(ctx, department)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	departments, err := s.ListDepartments(ctx)
	require.NoError(t, err)
	assert.Contains(t, departments, department)
}
