package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/timesheet"
	pgdb "github.com/ogurasousui/codex-timesheet-api/internal/platform/db/postgres"
)

// total_hours は NUMERIC(7,2) で保持し、アプリケーション側では 1/100 時間単位の整数で扱います。
const timesheetColumns = `id, employee_id, period_start, period_end, status, submission_date, (total_hours * 100)::bigint, created_at, updated_at`

var timesheetErrors = pgErrorMapping{
	notFound:   timesheet.ErrTimesheetNotFound,
	foreignKey: map[string]error{"timesheets_employee_id_fkey": timesheet.ErrEmployeeNotFound},
	check:      map[string]error{"timesheets_period_check": timesheet.ErrInvalidPeriod},
}

// TimesheetRepository は PostgreSQL を利用したタイムシート永続化の実装です。
type TimesheetRepository struct {
	pool pgdb.Queryer
}

// NewTimesheetRepository は TimesheetRepository を生成します。
func NewTimesheetRepository(pool pgdb.Queryer) *TimesheetRepository {
	return &TimesheetRepository{pool: pool}
}

// Create はタイムシートを作成します。
func (r *TimesheetRepository) Create(ctx context.Context, ts *timesheet.Timesheet) (*timesheet.Timesheet, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO timesheets (employee_id, period_start, period_end, status, submission_date, total_hours, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6::numeric / 100, $7, $8)
        RETURNING `+timesheetColumns,
		ts.EmployeeID,
		truncateDate(ts.PeriodStart),
		truncateDate(ts.PeriodEnd),
		string(ts.Status),
		ts.SubmissionDate,
		ts.TotalHours.Hundredths(),
		ts.CreatedAt,
		ts.UpdatedAt,
	)

	created, err := scanTimesheet(row)
	if err != nil {
		return nil, timesheetErrors.translate("timesheet: create", err)
	}
	return created, nil
}

// Update はタイムシートのヘッダ項目を更新します。
func (r *TimesheetRepository) Update(ctx context.Context, ts *timesheet.Timesheet) (*timesheet.Timesheet, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE timesheets
           SET employee_id = $1,
               period_start = $2,
               period_end = $3,
               status = $4,
               submission_date = $5,
               total_hours = $6::numeric / 100,
               updated_at = $7
         WHERE id = $8
        RETURNING `+timesheetColumns,
		ts.EmployeeID,
		truncateDate(ts.PeriodStart),
		truncateDate(ts.PeriodEnd),
		string(ts.Status),
		ts.SubmissionDate,
		ts.TotalHours.Hundredths(),
		ts.UpdatedAt,
		ts.ID,
	)

	updated, err := scanTimesheet(row)
	if err != nil {
		return nil, timesheetErrors.translate("timesheet: update", err)
	}
	return updated, nil
}

// Delete はタイムシートを削除します。明細と承認記録は呼び出し側で先に削除します。
func (r *TimesheetRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM timesheets WHERE id = $1`, id)
	if err != nil {
		return timesheetErrors.translate("timesheet: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return timesheet.ErrTimesheetNotFound
	}
	return nil
}

// FindByID は ID でタイムシートを取得します。
func (r *TimesheetRepository) FindByID(ctx context.Context, id int64) (*timesheet.Timesheet, error) {
	return r.findOne(ctx, "timesheet: find by id", `SELECT `+timesheetColumns+` FROM timesheets WHERE id = $1`, id)
}

// FindByIDForUpdate は行ロックを取得してタイムシートを返します。
func (r *TimesheetRepository) FindByIDForUpdate(ctx context.Context, id int64) (*timesheet.Timesheet, error) {
	return r.findOne(ctx, "timesheet: lock", `SELECT `+timesheetColumns+` FROM timesheets WHERE id = $1 FOR UPDATE`, id)
}

// List はすべてのタイムシートを期間の新しい順で返します。
func (r *TimesheetRepository) List(ctx context.Context) ([]*timesheet.Timesheet, error) {
	return r.findMany(ctx, "timesheet: list", `SELECT `+timesheetColumns+` FROM timesheets ORDER BY period_start DESC, id DESC`)
}

// ListByEmployee は社員のタイムシートを期間の新しい順で返します。
func (r *TimesheetRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]*timesheet.Timesheet, error) {
	return r.findMany(ctx, "timesheet: list by employee",
		`SELECT `+timesheetColumns+` FROM timesheets WHERE employee_id = $1 ORDER BY period_start DESC, id DESC`,
		employeeID,
	)
}

// FindByEmployeeAndPeriod は期間開始日が [start, end] に含まれるタイムシートを返します。
func (r *TimesheetRepository) FindByEmployeeAndPeriod(ctx context.Context, employeeID int64, start, end time.Time) ([]*timesheet.Timesheet, error) {
	return r.findMany(ctx, "timesheet: find by employee and period",
		`SELECT `+timesheetColumns+` FROM timesheets WHERE employee_id = $1 AND period_start BETWEEN $2 AND $3 ORDER BY period_start, id`,
		employeeID, truncateDate(start), truncateDate(end),
	)
}

// UpdateTotalHours は合計時間のみを更新します。
func (r *TimesheetRepository) UpdateTotalHours(ctx context.Context, id int64, total timesheet.Hours, updatedAt time.Time) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx,
		`UPDATE timesheets SET total_hours = $1::numeric / 100, updated_at = $2 WHERE id = $3`,
		total.Hundredths(), updatedAt, id,
	)
	if err != nil {
		return timesheetErrors.translate("timesheet: update total hours", err)
	}
	if tag.RowsAffected() == 0 {
		return timesheet.ErrTimesheetNotFound
	}
	return nil
}

// TimesheetExists はタイムシートの存在を確認します。
func (r *TimesheetRepository) TimesheetExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, pgdb.QueryerFromContext(ctx, r.pool), "timesheet: exists", `SELECT EXISTS (SELECT 1 FROM timesheets WHERE id = $1)`, id)
}

func (r *TimesheetRepository) findOne(ctx context.Context, op, query string, args ...any) (*timesheet.Timesheet, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanTimesheet(exec.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, timesheetErrors.translate(op, err)
	}
	return found, nil
}

func (r *TimesheetRepository) findMany(ctx context.Context, op, query string, args ...any) ([]*timesheet.Timesheet, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, timesheetErrors.translate(op, err)
	}
	defer rows.Close()

	result := make([]*timesheet.Timesheet, 0)
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, timesheetErrors.translate(op, err)
		}
		result = append(result, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, timesheetErrors.translate(op, err)
	}
	return result, nil
}

func scanTimesheet(row pgx.Row) (*timesheet.Timesheet, error) {
	var (
		ts             timesheet.Timesheet
		status         string
		submissionDate sql.NullTime
		totalHours     int64
	)

	if err := row.Scan(
		&ts.ID,
		&ts.EmployeeID,
		&ts.PeriodStart,
		&ts.PeriodEnd,
		&status,
		&submissionDate,
		&totalHours,
		&ts.CreatedAt,
		&ts.UpdatedAt,
	); err != nil {
		return nil, err
	}

	ts.PeriodStart = truncateDate(ts.PeriodStart.UTC())
	ts.PeriodEnd = truncateDate(ts.PeriodEnd.UTC())
	ts.Status = timesheet.Status(status)
	ts.SubmissionDate = timePtr(submissionDate)
	ts.TotalHours = timesheet.Hours(totalHours)
	return &ts, nil
}
