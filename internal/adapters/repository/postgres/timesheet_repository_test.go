package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/timesheet"
)

var timesheetRowColumns = []string{"id", "employee_id", "period_start", "period_end", "status", "submission_date", "total_hours", "created_at", "updated_at"}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})
	return mock
}

func TestTimesheetRepository_Create(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewTimesheetRepository(mock)

	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO timesheets`)).
		WithArgs(int64(1), start, end, "DRAFT", pgxmock.AnyArg(), int64(3750), now, now).
		WillReturnRows(pgxmock.NewRows(timesheetRowColumns).
			AddRow(int64(42), int64(1), start, end, "DRAFT", nil, int64(3750), now, now))

	created, err := repo.Create(context.Background(), &timesheet.Timesheet{
		EmployeeID:  1,
		PeriodStart: start.Add(13 * time.Hour),
		PeriodEnd:   end,
		Status:      timesheet.StatusDraft,
		TotalHours:  timesheet.Hours(3750),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created.ID != 42 || created.TotalHours.String() != "37.50" {
		t.Fatalf("unexpected timesheet: %+v", created)
	}
	if created.SubmissionDate != nil {
		t.Fatalf("expected nil submission date, got %v", created.SubmissionDate)
	}
}

func TestTimesheetRepository_Create_CheckViolation(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewTimesheetRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO timesheets`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: checkViolationCode, ConstraintName: "timesheets_period_check"})

	_, err := repo.Create(context.Background(), &timesheet.Timesheet{EmployeeID: 1, Status: timesheet.StatusDraft})
	if !errors.Is(err, timesheet.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestTimesheetRepository_FindByIDForUpdate(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewTimesheetRepository(mock)

	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	submitted := time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM timesheets WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(timesheetRowColumns).
			AddRow(int64(5), int64(2), start, start.AddDate(0, 0, 6), "SUBMITTED", submitted, int64(800), submitted, submitted))

	ts, err := repo.FindByIDForUpdate(context.Background(), 5)
	if err != nil {
		t.Fatalf("FindByIDForUpdate returned error: %v", err)
	}
	if ts.Status != timesheet.StatusSubmitted || ts.SubmissionDate == nil || !ts.SubmissionDate.Equal(submitted) {
		t.Fatalf("unexpected timesheet: %+v", ts)
	}
}

func TestTimesheetRepository_FindByID_NotFound(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewTimesheetRepository(mock)

	mock.ExpectQuery(`FROM timesheets WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows(timesheetRowColumns))

	if _, err := repo.FindByID(context.Background(), 404); !errors.Is(err, timesheet.ErrTimesheetNotFound) {
		t.Fatalf("expected ErrTimesheetNotFound, got %v", err)
	}
}

func TestTimesheetRepository_FindByEmployeeAndPeriod(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewTimesheetRepository(mock)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE employee_id = $1 AND period_start BETWEEN $2 AND $3`)).
		WithArgs(int64(3), from, to).
		WillReturnRows(pgxmock.NewRows(timesheetRowColumns).
			AddRow(int64(1), int64(3), from, from.AddDate(0, 0, 6), "DRAFT", nil, int64(0), now, now).
			AddRow(int64(2), int64(3), from.AddDate(0, 0, 7), from.AddDate(0, 0, 13), "APPROVED", now, int64(4000), now, now))

	found, err := repo.FindByEmployeeAndPeriod(context.Background(), 3, from, to.Add(20*time.Hour))
	if err != nil {
		t.Fatalf("FindByEmployeeAndPeriod returned error: %v", err)
	}
	if len(found) != 2 || found[1].TotalHours.String() != "40.00" {
		t.Fatalf("unexpected result: %+v", found)
	}
}

func TestTimesheetRepository_UpdateTotalHours(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewTimesheetRepository(mock)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE timesheets SET total_hours = $1::numeric / 100`)).
		WithArgs(int64(1225), now, int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE timesheets SET total_hours`)).
		WithArgs(int64(0), now, int64(10)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.UpdateTotalHours(context.Background(), 9, timesheet.Hours(1225), now); err != nil {
		t.Fatalf("UpdateTotalHours returned error: %v", err)
	}
	if err := repo.UpdateTotalHours(context.Background(), 10, 0, now); !errors.Is(err, timesheet.ErrTimesheetNotFound) {
		t.Fatalf("expected ErrTimesheetNotFound, got %v", err)
	}
}

func TestTimesheetRepository_TimesheetExists(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewTimesheetRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM timesheets WHERE id = $1)`)).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.TimesheetExists(context.Background(), 7)
	if err != nil || !ok {
		t.Fatalf("expected timesheet to exist, got %v (%v)", ok, err)
	}
}
