package handler

import (
	"time"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/approval"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/client"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/department"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/project"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/timesheet"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/user"
)

type timesheetResponse struct {
	ID             int64           `json:"id"`
	EmployeeID     int64           `json:"employee_id"`
	PeriodStart    Date            `json:"period_start"`
	PeriodEnd      Date            `json:"period_end"`
	Status         string          `json:"status"`
	SubmissionDate *time.Time      `json:"submission_date"`
	TotalHours     timesheet.Hours `json:"total_hours"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type entryResponse struct {
	ID          int64           `json:"id"`
	TimesheetID int64           `json:"timesheet_id"`
	ProjectID   int64           `json:"project_id"`
	TaskID      *int64          `json:"task_id"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	HoursWorked timesheet.Hours `json:"hours_worked"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type timesheetDetailResponse struct {
	Timesheet            timesheetResponse `json:"timesheet"`
	Entries              []entryResponse   `json:"entries"`
	CalculatedTotalHours timesheet.Hours   `json:"calculated_total_hours"`
}

type approvalResponse struct {
	ID          int64      `json:"id"`
	TimesheetID int64      `json:"timesheet_id"`
	ApproverID  int64      `json:"approver_id"`
	Status      string     `json:"status"`
	DecidedAt   *time.Time `json:"decided_at"`
	Comments    *string    `json:"comments"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type employeeResponse struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Position     *string   `json:"position"`
	DepartmentID *int64    `json:"department_id"`
	ManagerID    *int64    `json:"manager_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type departmentResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type clientResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	Status       string    `json:"status"`
	ContactEmail *string   `json:"contact_email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type projectResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	ClientID    *int64    `json:"client_id"`
	ManagerID   *int64    `json:"manager_id"`
	StartDate   *Date     `json:"start_date"`
	EndDate     *Date     `json:"end_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type taskResponse struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type userResponse struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	EmployeeID  int64      `json:"employee_id"`
	Roles       []string   `json:"roles"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        userResponse `json:"user"`
}

func toTimesheetResponse(ts *timesheet.Timesheet) timesheetResponse {
	return timesheetResponse{
		ID:             ts.ID,
		EmployeeID:     ts.EmployeeID,
		PeriodStart:    toDate(ts.PeriodStart),
		PeriodEnd:      toDate(ts.PeriodEnd),
		Status:         string(ts.Status),
		SubmissionDate: ts.SubmissionDate,
		TotalHours:     ts.TotalHours,
		CreatedAt:      ts.CreatedAt,
		UpdatedAt:      ts.UpdatedAt,
	}
}

func toTimesheetResponses(list []*timesheet.Timesheet) []timesheetResponse {
	out := make([]timesheetResponse, 0, len(list))
	for _, ts := range list {
		out = append(out, toTimesheetResponse(ts))
	}
	return out
}

func toEntryResponse(e *timesheet.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		TimesheetID: e.TimesheetID,
		ProjectID:   e.ProjectID,
		TaskID:      e.TaskID,
		Date:        toDate(e.Date),
		Description: e.Description,
		HoursWorked: e.HoursWorked,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toEntryResponses(list []*timesheet.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toEntryResponse(e))
	}
	return out
}

func toApprovalResponse(a *approval.Approval) approvalResponse {
	return approvalResponse{
		ID:          a.ID,
		TimesheetID: a.TimesheetID,
		ApproverID:  a.ApproverID,
		Status:      string(a.Status),
		DecidedAt:   a.DecidedAt,
		Comments:    a.Comments,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toApprovalResponses(list []*approval.Approval) []approvalResponse {
	out := make([]approvalResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toApprovalResponse(a))
	}
	return out
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	return employeeResponse{
		ID:           e.ID,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Email:        e.Email,
		Position:     e.Position,
		DepartmentID: e.DepartmentID,
		ManagerID:    e.ManagerID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func toDepartmentResponse(d *department.Department) departmentResponse {
	return departmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toClientResponse(c *client.Client) clientResponse {
	return clientResponse{
		ID:           c.ID,
		Name:         c.Name,
		Code:         c.Code,
		Status:       string(c.Status),
		ContactEmail: c.ContactEmail,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func toProjectResponse(p *project.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ClientID:    p.ClientID,
		ManagerID:   p.ManagerID,
		StartDate:   toDatePtr(p.StartDate),
		EndDate:     toDatePtr(p.EndDate),
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toTaskResponse(t *project.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toUserResponse(u *user.User) userResponse {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		EmployeeID:  u.EmployeeID,
		Roles:       roles,
		Status:      string(u.Status),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
