package registrations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/registration-api/internal/config"
	"github.com/aanand-mishra/registration-api/internal/registration"
	"github.com/aanand-mishra/registration-api/internal/storage"
	"github.com/aanand-mishra/registration-api/internal/storage/sqlite"
	"github.com/aanand-mishra/registration-api/internal/types"
	"github.com/aanand-mishra/registration-api/internal/utils/response"
)

const validBody = `{"name":"Jo Lee","reg_no":"R100","email":"jo@x.com","phone":"9876543210","department":"TECHNICAL"}`

func newStore(t *testing.T) *sqlite.SQLite {
	t.Helper()
	s, err := sqlite.New(config.Storage{SQLitePath: filepath.Join(t.TempDir(), "students.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func post(t *testing.T, h http.HandlerFunc, body string) (int, response.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/registrations", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestNew_Created(t *testing.T) {
	h := New(registration.NewCoordinator(newStore(t), registration.DefaultRules()))

	code, resp := post(t, h, validBody)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, response.StatusOK, resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "R100", data["reg_no"])
	assert.NotEmpty(t, data["id"])
}

func TestNew_BadBodies(t *testing.T) {
	h := New(registration.NewCoordinator(newStore(t), registration.DefaultRules()))

	code, resp := post(t, h, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "request body is empty", resp.Error)

	code, _ = post(t, h, "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestNew_ValidationErrors(t *testing.T) {
	h := New(registration.NewCoordinator(newStore(t), registration.DefaultRules()))

	code, resp := post(t, h, `{"name":"J","reg_no":"R100","email":"a@b","phone":"123-456-7890","department":"TECHNICAL"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]string{
		types.FieldName:  "Name must be at least 2 characters long",
		types.FieldEmail: "Please enter a valid email address",
	}, resp.Fields)
}

func TestNew_Duplicates(t *testing.T) {
	h := New(registration.NewCoordinator(newStore(t), registration.DefaultRules()))

	code, _ := post(t, h, validBody)
	require.Equal(t, http.StatusCreated, code)

	code, resp := post(t, h, `{"name":"Ann Lee","reg_no":"R100","email":"ann@x.com","phone":"9876543210","department":"DESIGN"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, map[string]string{types.FieldRegNo: registration.MsgRegNoTaken}, resp.Fields)

	code, resp = post(t, h, `{"name":"Ann Lee","reg_no":"R200","email":"jo@x.com","phone":"9876543210","department":"DESIGN"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, map[string]string{types.FieldEmail: registration.MsgEmailRegistered}, resp.Fields)
}

func TestNew_LogsOmitStudentIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := New(registration.NewCoordinator(newStore(t), registration.DefaultRules()))

	code, _ := post(t, h, validBody)
	require.Equal(t, http.StatusCreated, code)
	code, _ = post(t, h, validBody)
	require.Equal(t, http.StatusConflict, code)
	code, _ = post(t, h, `{"name":"J","reg_no":"R777","email":"jo@x.com","phone":"9876543210","department":"TECHNICAL"}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)

	logs := buf.String()
	assert.Contains(t, logs, "registration submitted")
	assert.Contains(t, logs, "department=TECHNICAL")
	assert.NotContains(t, logs, "reg_no=")
	assert.NotContains(t, logs, "R100")
	assert.NotContains(t, logs, "R777")
}

func TestNew_DepartmentFull(t *testing.T) {
	rules := registration.Rules{Capacity: 1, Departments: []string{"TECHNICAL"}}
	h := New(registration.NewCoordinator(newStore(t), rules))

	code, _ := post(t, h, validBody)
	require.Equal(t, http.StatusCreated, code)

	code, resp := post(t, h, `{"name":"Ann Lee","reg_no":"R200","email":"ann@x.com","phone":"9876543210","department":"TECHNICAL"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, map[string]string{
		types.FieldDepartment: "This department has reached the limit of 1 students.",
	}, resp.Fields)
}

// brokenStore fails every call.
type brokenStore struct{}

var _ storage.Storage = brokenStore{}

func (brokenStore) CountByDepartment(context.Context, string) (int, error) {
	return 0, errors.New("connection refused")
}

func (brokenStore) CreateStudent(context.Context, types.NewStudent) (types.Student, error) {
	return types.Student{}, errors.New("connection refused")
}

func (brokenStore) ListDepartments(context.Context) ([]string, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Close() error { return nil }

func TestNew_StoreFailureIsGeneric(t *testing.T) {
	h := New(registration.NewCoordinator(brokenStore{}, registration.DefaultRules()))

	code, resp := post(t, h, validBody)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, registration.AlertCapacityCheck, resp.Error)
	assert.Empty(t, resp.Fields)
}

func TestDepartments(t *testing.T) {
	store := newStore(t)
	rules := registration.Rules{Capacity: 2, Departments: []string{"TECHNICAL", "DESIGN"}}
	c := registration.NewCoordinator(store, rules)

	code, _ := post(t, New(c), validBody)
	require.Equal(t, http.StatusCreated, code)

	h := Departments(registration.NewCountsService(store, rules, nil), rules)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/departments", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string       `json:"status"`
		Data   []Department `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, []Department{
		{Name: "TECHNICAL", Count: 1, Capacity: 2, Remaining: 1},
		{Name: "DESIGN", Count: 0, Capacity: 2, Remaining: 2},
	}, body.Data)
}

func TestDepartments_StoreFailure(t *testing.T) {
	rules := registration.DefaultRules()
	h := Departments(registration.NewCountsService(brokenStore{}, rules, nil), rules)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/departments", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), AlertCounts)
}
