package handler

import (
	"context"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/approval"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/client"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/employee"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/project"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/timesheet"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/user"
)

type stubTimesheets struct {
	timesheet.UseCase

	created    *timesheet.CreateTimesheetWithEntriesInput
	byEmployee *timesheet.ListByEmployeeInput
	byPeriod   *timesheet.FindByEmployeeAndPeriodInput
	list       []*timesheet.Timesheet
	detail     *timesheet.Detail
	deleteErr  error
	getErr     error
	deletedID  int64
}

func (s *stubTimesheets) CreateTimesheetWithEntries(_ context.Context, in timesheet.CreateTimesheetWithEntriesInput) (*timesheet.Timesheet, error) {
	s.created = &in
	return &timesheet.Timesheet{
		ID:          10,
		EmployeeID:  in.EmployeeID,
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,
		Status:      timesheet.StatusDraft,
		TotalHours:  timesheet.SumHours(entriesOf(in.Entries)),
	}, nil
}

func (s *stubTimesheets) ListTimesheets(context.Context) ([]*timesheet.Timesheet, error) {
	return s.list, nil
}

func (s *stubTimesheets) ListByEmployee(_ context.Context, in timesheet.ListByEmployeeInput) ([]*timesheet.Timesheet, error) {
	s.byEmployee = &in
	return s.list, nil
}

func (s *stubTimesheets) FindByEmployeeAndPeriod(_ context.Context, in timesheet.FindByEmployeeAndPeriodInput) ([]*timesheet.Timesheet, error) {
	s.byPeriod = &in
	return s.list, nil
}

func (s *stubTimesheets) GetTimesheet(_ context.Context, in timesheet.GetTimesheetInput) (*timesheet.Timesheet, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &timesheet.Timesheet{ID: in.ID, Status: timesheet.StatusDraft}, nil
}

func (s *stubTimesheets) GetTimesheetDetail(context.Context, timesheet.GetTimesheetInput) (*timesheet.Detail, error) {
	return s.detail, nil
}

func (s *stubTimesheets) DeleteTimesheet(_ context.Context, in timesheet.DeleteTimesheetInput) error {
	s.deletedID = in.ID
	return s.deleteErr
}

func entriesOf(inputs []timesheet.EntryInput) []*timesheet.Entry {
	out := make([]*timesheet.Entry, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, &timesheet.Entry{HoursWorked: in.HoursWorked})
	}
	return out
}

type stubEntries struct {
	timesheet.EntryUseCase

	deleteErr error
	deletedID int64
}

func (s *stubEntries) DeleteEntry(_ context.Context, in timesheet.DeleteEntryInput) error {
	s.deletedID = in.ID
	return s.deleteErr
}

type stubApprovals struct {
	approval.UseCase

	created    *approval.CreateApprovalInput
	byApprover *approval.ListByApproverInput
}

func (s *stubApprovals) CreateApproval(_ context.Context, in approval.CreateApprovalInput) (*approval.Approval, error) {
	s.created = &in
	status := approval.StatusPending
	if in.Status != nil {
		parsed, err := approval.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}
	return &approval.Approval{ID: 1, TimesheetID: in.TimesheetID, ApproverID: in.ApproverID, Status: status}, nil
}

func (s *stubApprovals) ListByApprover(_ context.Context, in approval.ListByApproverInput) ([]*approval.Approval, error) {
	s.byApprover = &in
	return []*approval.Approval{}, nil
}

type stubEmployees struct {
	employee.UseCase

	updated *employee.UpdateEmployeeInput
}

func (s *stubEmployees) UpdateEmployee(_ context.Context, in employee.UpdateEmployeeInput) (*employee.Employee, error) {
	s.updated = &in
	return &employee.Employee{ID: in.ID, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", DepartmentID: in.DepartmentID}, nil
}

type stubClients struct {
	client.UseCase

	listed  *client.ListClientsInput
	deleted int64
}

func (s *stubClients) CreateClient(_ context.Context, in client.CreateClientInput) (*client.Client, error) {
	return &client.Client{ID: 3, Name: in.Name, Code: in.Code, Status: client.StatusActive, ContactEmail: in.ContactEmail}, nil
}

func (s *stubClients) ListClients(_ context.Context, in client.ListClientsInput) (*client.ListClientsResult, error) {
	s.listed = &in
	return &client.ListClientsResult{
		Clients:       []*client.Client{{ID: 3, Name: "Acme", Code: "acme", Status: client.StatusActive}},
		NextPageToken: "1",
	}, nil
}

func (s *stubClients) DeleteClient(_ context.Context, in client.DeleteClientInput) error {
	s.deleted = in.ID
	return client.ErrClientInUse
}

type stubProjects struct {
	project.UseCase

	updated   *project.UpdateTaskInput
	deletedID int64
	deleteErr error
}

func (s *stubProjects) GetTask(_ context.Context, id int64) (*project.Task, error) {
	if id != 100 {
		return nil, project.ErrTaskNotFound
	}
	return &project.Task{ID: 100, ProjectID: 10, Name: "On-call"}, nil
}

func (s *stubProjects) UpdateTask(_ context.Context, in project.UpdateTaskInput) (*project.Task, error) {
	s.updated = &in
	return &project.Task{ID: in.ID, ProjectID: 10, Name: *in.Name, Description: in.Description}, nil
}

func (s *stubProjects) DeleteTask(_ context.Context, id int64) error {
	s.deletedID = id
	return s.deleteErr
}

type stubUsers struct {
	user.UseCase

	signedUp *user.SignupInput
	account  *user.User
	authErr  error
}

func (s *stubUsers) Signup(_ context.Context, in user.SignupInput) (*user.User, error) {
	s.signedUp = &in
	return &user.User{ID: 1, Username: in.Username, EmployeeID: in.EmployeeID, Roles: []user.Role{user.RoleEmployee}, Status: user.StatusActive}, nil
}

func (s *stubUsers) Authenticate(context.Context, user.AuthenticateInput) (*user.User, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	return s.account, nil
}
