package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/project"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/timesheet"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/user"
	"github.com/ogurasousui/codex-timesheet-api/internal/platform/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testEnv struct {
	router     http.Handler
	tokens     *auth.TokenManager
	timesheets *stubTimesheets
	entries    *stubEntries
	approvals  *stubApprovals
	employees  *stubEmployees
	clients    *stubClients
	projects   *stubProjects
	users      *stubUsers
	pingErr    error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		tokens:     auth.NewTokenManager(testSecret, "timesheet-api", time.Hour),
		timesheets: &stubTimesheets{},
		entries:    &stubEntries{},
		approvals:  &stubApprovals{},
		employees:  &stubEmployees{},
		clients:    &stubClients{},
		projects:   &stubProjects{},
		users:      &stubUsers{},
	}
	env.router = NewRouter(Dependencies{
		Timesheets: env.timesheets,
		Entries:    env.entries,
		Approvals:  env.approvals,
		Employees:  env.employees,
		Clients:    env.clients,
		Projects:   env.projects,
		Users:      env.users,
		Tokens:     env.tokens,
		Pinger:     pingerFunc(func(context.Context) error { return env.pingErr }),
		Metrics:    middleware.NewMetrics(prometheus.NewRegistry()),
		Logger:     zerolog.Nop(),
	})
	return env
}

func (e *testEnv) token(t *testing.T, roles ...user.Role) string {
	t.Helper()
	token, err := e.tokens.Issue(auth.Principal{UserID: 1, EmployeeID: 42, Username: "alice", Roles: roles})
	require.NoError(t, err)
	return token.Value
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) respond.ErrorDetail {
	t.Helper()
	var body respond.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	env.pingErr = errors.New("connection refused")
	rec = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "STORE_FAILURE", errorCode(t, rec).Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/timesheets/user", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListTimesheets_RoleGuard(t *testing.T) {
	env := newTestEnv(t)
	env.timesheets.list = []*timesheet.Timesheet{{ID: 1, Status: timesheet.StatusDraft, TotalHours: 750}}

	rec := env.do(t, http.MethodGet, "/api/timesheets", env.token(t, user.RoleEmployee), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/timesheets", env.token(t, user.RoleManager), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, 7.5, body[0]["total_hours"])
	assert.Equal(t, "DRAFT", body[0]["status"])
}

func TestListMine_UsesCallerEmployee(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/timesheets/user", env.token(t, user.RoleEmployee), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.timesheets.byEmployee)
	assert.Equal(t, int64(42), env.timesheets.byEmployee.EmployeeID)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListByEmployee_Period(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, user.RoleAdmin)

	rec := env.do(t, http.MethodGet, "/api/timesheets/employee/5?start=2024-01-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/timesheets/employee/5?start=2024-01-01&end=2024-01-31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.timesheets.byPeriod)
	assert.Equal(t, int64(5), env.timesheets.byPeriod.EmployeeID)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), env.timesheets.byPeriod.End)

	rec = env.do(t, http.MethodGet, "/api/timesheets/employee/5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.timesheets.byEmployee)
	assert.Equal(t, int64(5), env.timesheets.byEmployee.EmployeeID)
}

func TestCreateWithEntries_DecodesPayload(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/timesheets/with-entries", env.token(t, user.RoleEmployee), `{
		"employee_id": 42,
		"period_start": "2024-03-04",
		"period_end": "2024-03-10",
		"entries": [
			{"project_id": 1, "date": "2024-03-04", "description": "design", "hours_worked": 3.5},
			{"project_id": 1, "task_id": 9, "date": "2024-03-05", "hours_worked": "2.25"}
		]
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	in := env.timesheets.created
	require.NotNil(t, in)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), in.PeriodStart)
	require.Len(t, in.Entries, 2)
	assert.Equal(t, int64(350), in.Entries[0].HoursWorked.Hundredths())
	require.NotNil(t, in.Entries[1].TaskID)
	assert.Equal(t, int64(9), *in.Entries[1].TaskID)
	assert.Nil(t, in.TotalHours)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-03-04", body["period_start"])
	assert.Equal(t, 5.75, body["total_hours"])
}

func TestCreateWithEntries_RejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, user.RoleEmployee)

	cases := map[string]string{
		"bad date":          `{"employee_id": 1, "period_start": "04/03/2024", "period_end": "2024-03-10"}`,
		"unknown field":     `{"employee_id": 1, "colour": "blue"}`,
		"bad hours":         `{"employee_id": 1, "period_start": "2024-03-04", "period_end": "2024-03-10", "entries": [{"project_id": 1, "date": "2024-03-04", "hours_worked": "lots"}]}`,
		"overflowing hours": `{"employee_id": 1, "period_start": "2024-03-04", "period_end": "2024-03-10", "entries": [{"project_id": 1, "date": "2024-03-04", "hours_worked": 1e300}]}`,
		"overflowing total": `{"employee_id": 1, "period_start": "2024-03-04", "period_end": "2024-03-10", "total_hours": "-1e17"}`,
		"empty":             ``,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/timesheets/with-entries", token, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestDeleteTimesheet_NotDraft(t *testing.T) {
	env := newTestEnv(t)
	env.timesheets.deleteErr = fmt.Errorf("%w: only DRAFT timesheets may be deleted, current status is SUBMITTED", timesheet.ErrNotDraft)

	rec := env.do(t, http.MethodDelete, "/api/timesheets/3", env.token(t, user.RoleEmployee), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/timesheets/3", env.token(t, user.RoleManager), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	detail := errorCode(t, rec)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", detail.Code)
	assert.Contains(t, detail.Message, "SUBMITTED")
	assert.Equal(t, int64(3), env.timesheets.deletedID)
}

func TestGetTimesheet_NotFoundAndBadID(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, user.RoleEmployee)

	rec := env.do(t, http.MethodGet, "/api/timesheets/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.timesheets.getErr = timesheet.ErrTimesheetNotFound
	rec = env.do(t, http.MethodGet, "/api/timesheets/99", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec).Code)
}

func TestGetTimesheetDetail(t *testing.T) {
	env := newTestEnv(t)
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	env.timesheets.detail = &timesheet.Detail{
		Timesheet: &timesheet.Timesheet{ID: 1, PeriodStart: day, PeriodEnd: day, Status: timesheet.StatusDraft, TotalHours: 9900},
		Entries: []*timesheet.Entry{
			{ID: 1, TimesheetID: 1, ProjectID: 2, Date: day, HoursWorked: 350},
			{ID: 2, TimesheetID: 1, ProjectID: 2, Date: day, HoursWorked: 150},
		},
		CalculatedTotalHours: 500,
	}

	rec := env.do(t, http.MethodGet, "/api/timesheets/1/detail", env.token(t, user.RoleEmployee), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Timesheet            map[string]any   `json:"timesheet"`
		Entries              []map[string]any `json:"entries"`
		CalculatedTotalHours float64          `json:"calculated_total_hours"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 5.0, body.CalculatedTotalHours)
	assert.Equal(t, 99.0, body.Timesheet["total_hours"])
	assert.Len(t, body.Entries, 2)
}

func TestDeleteEntry(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, user.RoleEmployee)

	rec := env.do(t, http.MethodDelete, "/api/timesheet-entries/8", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(8), env.entries.deletedID)

	env.entries.deleteErr = fmt.Errorf("%w: only DRAFT timesheets may have entries deleted, current status is APPROVED", timesheet.ErrNotDraft)
	rec = env.do(t, http.MethodDelete, "/api/timesheet-entries/8", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, errorCode(t, rec).Message, "APPROVED")
}

func TestCreateApproval(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, user.RoleManager)

	rec := env.do(t, http.MethodPost, "/api/approvals", token, map[string]any{
		"timesheet_id": 3, "approver_id": 7, "status": "approved",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "APPROVED", body["status"])

	rec = env.do(t, http.MethodPost, "/api/approvals", token, map[string]any{
		"timesheet_id": 3, "approver_id": 7, "status": "MAYBE",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/approvals", env.token(t, user.RoleEmployee), map[string]any{
		"timesheet_id": 3, "approver_id": 7,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListMyApprovals(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/approvals/my-approvals", env.token(t, user.RoleEmployee), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.approvals.byApprover)
	assert.Equal(t, int64(42), env.approvals.byApprover.ApproverID)
}

func TestUpdateEmployee_DistinguishesNullFromAbsent(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, user.RoleAdmin)

	rec := env.do(t, http.MethodPut, "/api/employees/4", token, `{"department_id": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.employees.updated.DepartmentIDSet)
	assert.Nil(t, env.employees.updated.DepartmentID)
	assert.False(t, env.employees.updated.ManagerIDSet)

	rec = env.do(t, http.MethodPut, "/api/employees/4", token, `{"department_id": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.employees.updated.DepartmentID)
	assert.Equal(t, int64(2), *env.employees.updated.DepartmentID)

	rec = env.do(t, http.MethodPut, "/api/employees/4", env.token(t, user.RoleManager), `{"first_name": "x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"username": "alice", "password": "s3cretpass", "employee_id": 42, "roles": []string{"ADMIN"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, env.users.signedUp)

	rec = env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"username": "alice", "password": "s3cretpass", "employee_id": 42,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Equal(t, int64(42), env.users.signedUp.EmployeeID)

	rec = env.do(t, http.MethodPost, "/api/users", env.token(t, user.RoleAdmin), map[string]any{
		"username": "bob", "password": "s3cretpass", "employee_id": 43, "roles": []string{"MANAGER"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"MANAGER"}, env.users.signedUp.Roles)
}

func TestLogin_IssuesUsableToken(t *testing.T) {
	env := newTestEnv(t)
	env.users.account = &user.User{ID: 1, Username: "alice", EmployeeID: 42, Roles: []user.Role{user.RoleEmployee}, Status: user.StatusActive}

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "alice", "password": "s3cretpass"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Bearer", body.TokenType)

	rec = env.do(t, http.MethodGet, "/api/timesheets/user", body.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.users.authErr = user.ErrInvalidCredentials
	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/healthz", "", nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `timesheet_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestClients(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/clients", env.token(t, user.RoleEmployee), map[string]any{"name": "Acme", "code": "acme"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/clients", env.token(t, user.RoleManager), map[string]any{"name": "Acme", "code": "acme", "contact_email": "a@acme.example"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":3,"name":"Acme","code":"acme","status":"active","contact_email":"a@acme.example","created_at":"0001-01-01T00:00:00Z","updated_at":"0001-01-01T00:00:00Z"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/clients?page_size=1&status=active", env.token(t, user.RoleEmployee), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, env.clients.listed)
	assert.Equal(t, 1, env.clients.listed.PageSize)
	require.NotNil(t, env.clients.listed.Status)
	assert.Equal(t, "active", *env.clients.listed.Status)
	assert.Contains(t, rec.Body.String(), `"next_page_token":"1"`)

	rec = env.do(t, http.MethodGet, "/api/clients?page_size=many", env.token(t, user.RoleEmployee), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec).Code)

	rec = env.do(t, http.MethodDelete, "/api/clients/3", env.token(t, user.RoleManager), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/clients/3", env.token(t, user.RoleAdmin), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, rec).Code)
	assert.Equal(t, int64(3), env.clients.deleted)
}

func TestTasks(t *testing.T) {
	env := newTestEnv(t)
	employeeToken := env.token(t, user.RoleEmployee)
	managerToken := env.token(t, user.RoleManager)

	rec := env.do(t, http.MethodGet, "/api/tasks/100", employeeToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":100,"project_id":10,"name":"On-call","description":null,"created_at":"0001-01-01T00:00:00Z","updated_at":"0001-01-01T00:00:00Z"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/tasks/101", employeeToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/tasks/100", employeeToken, map[string]any{"name": "Review"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/tasks/100", managerToken, map[string]any{"name": "Review", "description": "weekly"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, env.projects.updated)
	assert.Equal(t, int64(100), env.projects.updated.ID)
	assert.Contains(t, rec.Body.String(), `"description":"weekly"`)

	env.projects.deleteErr = project.ErrTaskInUse
	rec = env.do(t, http.MethodDelete, "/api/tasks/100", managerToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, rec).Code)

	env.projects.deleteErr = nil
	rec = env.do(t, http.MethodDelete, "/api/tasks/100", managerToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(100), env.projects.deletedID)
}
