package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/department"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"
)

var departmentRowColumns = []string{"id", "name", "description", "created_at", "updated_at"}

func TestDepartmentRepository_CreateAndList(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewDepartmentRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO departments`)).
		WithArgs("Engineering", pgxmock.AnyArg(), now, now).
		WillReturnRows(pgxmock.NewRows(departmentRowColumns).AddRow(int64(1), "Engineering", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM departments ORDER BY name, id`)).
		WillReturnRows(pgxmock.NewRows(departmentRowColumns).
			AddRow(int64(1), "Engineering", nil, now, now).
			AddRow(int64(2), "Sales", "field sales", now, now))

	created, err := repo.Create(context.Background(), &department.Department{Name: "Engineering", CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != 1 || created.Description != nil {
		t.Fatalf("unexpected department: %+v", created)
	}

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(list) != 2 || list[1].Description == nil || *list[1].Description != "field sales" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestDepartmentRepository_Create_Duplicate(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewDepartmentRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO departments`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "departments_name_key"})

	_, err := repo.Create(context.Background(), &department.Department{Name: "Engineering"})
	if !errors.Is(err, department.ErrNameAlreadyExists) || !errors.Is(err, errkind.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDepartmentRepository_Delete(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewDepartmentRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM departments WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "employees_department_id_fkey"})
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM departments WHERE id = $1`)).
		WithArgs(int64(2)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), 1); !errors.Is(err, department.ErrDepartmentInUse) {
		t.Fatalf("expected ErrDepartmentInUse, got %v", err)
	}
	if err := repo.Delete(context.Background(), 2); !errors.Is(err, department.ErrDepartmentNotFound) {
		t.Fatalf("expected ErrDepartmentNotFound, got %v", err)
	}
}
