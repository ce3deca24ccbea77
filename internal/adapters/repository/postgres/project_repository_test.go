package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/project"
)

var projectRowColumns = []string{"id", "name", "description", "client_id", "manager_id", "start_date", "end_date", "status", "created_at", "updated_at"}

func TestProjectRepository_List_WithStatus(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewProjectRepository(mock)
	now := time.Now().UTC()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	status := project.StatusActive

	mock.ExpectQuery(regexp.QuoteMeta(`FROM projects WHERE status = $1 ORDER BY name, id`)).
		WithArgs("ACTIVE").
		WillReturnRows(pgxmock.NewRows(projectRowColumns).
			AddRow(int64(10), "Billing", nil, nil, int64(1), start, nil, "ACTIVE", now, now))

	list, err := repo.List(context.Background(), project.ListProjectsFilter{Status: &status})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 project, got %d", len(list))
	}
	p := list[0]
	if p.StartDate == nil || !p.StartDate.Equal(start) || p.EndDate != nil || p.ClientID != nil {
		t.Fatalf("unexpected project: %+v", p)
	}
	if p.ManagerID == nil || *p.ManagerID != 1 {
		t.Fatalf("expected manager 1, got %+v", p.ManagerID)
	}
}

func TestProjectRepository_TaskProjectID(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewProjectRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT project_id FROM tasks WHERE id = $1`)).
		WithArgs(int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"project_id"}).AddRow(int64(10)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT project_id FROM tasks WHERE id = $1`)).
		WithArgs(int64(101)).
		WillReturnRows(pgxmock.NewRows([]string{"project_id"}))

	projectID, ok, err := repo.TaskProjectID(context.Background(), 100)
	if err != nil || !ok || projectID != 10 {
		t.Fatalf("expected project 10, got %d %v (%v)", projectID, ok, err)
	}

	_, ok, err = repo.TaskProjectID(context.Background(), 101)
	if err != nil || ok {
		t.Fatalf("expected missing task, got %v (%v)", ok, err)
	}
}

func TestProjectRepository_Delete_InUse(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewProjectRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM projects WHERE id = $1`)).
		WithArgs(int64(10)).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "timesheet_entries_project_id_fkey"})

	if err := repo.Delete(context.Background(), 10); !errors.Is(err, project.ErrProjectInUse) {
		t.Fatalf("expected ErrProjectInUse, got %v", err)
	}
}

func TestProjectRepository_CreateTask_UnknownProject(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewProjectRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO tasks`)).
		WithArgs(int64(99), "Design", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "tasks_project_id_fkey"})

	_, err := repo.CreateTask(context.Background(), &project.Task{ProjectID: 99, Name: "Design"})
	if !errors.Is(err, project.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

var taskRowColumns = []string{"id", "project_id", "name", "description", "created_at", "updated_at"}

func TestProjectRepository_UpdateTask(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewProjectRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tasks`)).
		WithArgs("Review", pgxmock.AnyArg(), now, int64(100)).
		WillReturnRows(pgxmock.NewRows(taskRowColumns).
			AddRow(int64(100), int64(10), "Review", nil, now, now))

	updated, err := repo.UpdateTask(context.Background(), &project.Task{ID: 100, ProjectID: 10, Name: "Review", UpdatedAt: now})
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if updated.ProjectID != 10 || updated.Name != "Review" || updated.Description != nil {
		t.Fatalf("unexpected task: %+v", updated)
	}
}

func TestProjectRepository_FindTaskByID_NotFound(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewProjectRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1`)).
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows(taskRowColumns))

	if _, err := repo.FindTaskByID(context.Background(), 404); !errors.Is(err, project.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestProjectRepository_DeleteTask(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewProjectRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = $1`)).
		WithArgs(int64(100)).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "timesheet_entries_task_id_fkey"})
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = $1`)).
		WithArgs(int64(101)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.DeleteTask(context.Background(), 100); !errors.Is(err, project.ErrTaskInUse) {
		t.Fatalf("expected ErrTaskInUse, got %v", err)
	}
	if err := repo.DeleteTask(context.Background(), 101); !errors.Is(err, project.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestProjectRepository_Update_ConstraintMapping(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewProjectRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE projects`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: checkViolationCode, ConstraintName: "projects_schedule_check"})
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE projects`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "projects_client_id_fkey"})
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE projects`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(projectRowColumns))

	p := &project.Project{ID: 10, Name: "Billing", Status: project.StatusActive}
	if _, err := repo.Update(context.Background(), p); !errors.Is(err, project.ErrInvalidSchedule) {
		t.Fatalf("expected ErrInvalidSchedule, got %v", err)
	}
	if _, err := repo.Update(context.Background(), p); !errors.Is(err, project.ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
	if _, err := repo.Update(context.Background(), p); !errors.Is(err, project.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}
