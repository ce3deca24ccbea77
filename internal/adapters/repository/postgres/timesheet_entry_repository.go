package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/timesheet"
	pgdb "github.com/ogurasousui/codex-timesheet-api/internal/platform/db/postgres"
)

const entryColumns = `id, timesheet_id, project_id, task_id, entry_date, description, (hours_worked * 100)::bigint, created_at, updated_at`

var entryErrors = pgErrorMapping{
	notFound: timesheet.ErrEntryNotFound,
	foreignKey: map[string]error{
		"timesheet_entries_timesheet_id_fkey": timesheet.ErrTimesheetNotFound,
		"timesheet_entries_project_id_fkey":   timesheet.ErrProjectNotFound,
		"timesheet_entries_task_id_fkey":      timesheet.ErrTaskNotFound,
	},
}

// TimesheetEntryRepository は PostgreSQL を利用した明細永続化の実装です。
type TimesheetEntryRepository struct {
	pool pgdb.Queryer
}

// NewTimesheetEntryRepository は TimesheetEntryRepository を生成します。
func NewTimesheetEntryRepository(pool pgdb.Queryer) *TimesheetEntryRepository {
	return &TimesheetEntryRepository{pool: pool}
}

// Create は明細を作成します。
func (r *TimesheetEntryRepository) Create(ctx context.Context, e *timesheet.Entry) (*timesheet.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO timesheet_entries (timesheet_id, project_id, task_id, entry_date, description, hours_worked, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6::numeric / 100, $7, $8)
        RETURNING `+entryColumns,
		e.TimesheetID,
		e.ProjectID,
		e.TaskID,
		truncateDate(e.Date),
		e.Description,
		e.HoursWorked.Hundredths(),
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEntry(row)
	if err != nil {
		return nil, entryErrors.translate("timesheet entry: create", err)
	}
	return created, nil
}

// Update は明細を更新します。
func (r *TimesheetEntryRepository) Update(ctx context.Context, e *timesheet.Entry) (*timesheet.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE timesheet_entries
           SET timesheet_id = $1,
               project_id = $2,
               task_id = $3,
               entry_date = $4,
               description = $5,
               hours_worked = $6::numeric / 100,
               updated_at = $7
         WHERE id = $8
        RETURNING `+entryColumns,
		e.TimesheetID,
		e.ProjectID,
		e.TaskID,
		truncateDate(e.Date),
		e.Description,
		e.HoursWorked.Hundredths(),
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEntry(row)
	if err != nil {
		return nil, entryErrors.translate("timesheet entry: update", err)
	}
	return updated, nil
}

// Delete は明細を削除します。
func (r *TimesheetEntryRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM timesheet_entries WHERE id = $1`, id)
	if err != nil {
		return entryErrors.translate("timesheet entry: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return timesheet.ErrEntryNotFound
	}
	return nil
}

// DeleteByTimesheet はタイムシートに属する明細をすべて削除し、削除件数を返します。
func (r *TimesheetEntryRepository) DeleteByTimesheet(ctx context.Context, timesheetID int64) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM timesheet_entries WHERE timesheet_id = $1`, timesheetID)
	if err != nil {
		return 0, entryErrors.translate("timesheet entry: delete by timesheet", err)
	}
	return tag.RowsAffected(), nil
}

// FindByID は ID で明細を取得します。
func (r *TimesheetEntryRepository) FindByID(ctx context.Context, id int64) (*timesheet.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanEntry(exec.QueryRow(ctx, `SELECT `+entryColumns+` FROM timesheet_entries WHERE id = $1`, id))
	if err != nil {
		return nil, entryErrors.translate("timesheet entry: find by id", err)
	}
	return found, nil
}

// List はすべての明細を返します。
func (r *TimesheetEntryRepository) List(ctx context.Context) ([]*timesheet.Entry, error) {
	return r.findMany(ctx, "timesheet entry: list", `SELECT `+entryColumns+` FROM timesheet_entries ORDER BY entry_date, id`)
}

// ListByTimesheet はタイムシートの明細を日付順で返します。
func (r *TimesheetEntryRepository) ListByTimesheet(ctx context.Context, timesheetID int64) ([]*timesheet.Entry, error) {
	return r.findMany(ctx, "timesheet entry: list by timesheet",
		`SELECT `+entryColumns+` FROM timesheet_entries WHERE timesheet_id = $1 ORDER BY entry_date, id`,
		timesheetID,
	)
}

// SumHours は明細の作業時間の合計を返します。明細がなければ 0 です。
func (r *TimesheetEntryRepository) SumHours(ctx context.Context, timesheetID int64) (timesheet.Hours, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var total int64
	if err := exec.QueryRow(ctx,
		`SELECT (COALESCE(SUM(hours_worked), 0) * 100)::bigint FROM timesheet_entries WHERE timesheet_id = $1`,
		timesheetID,
	).Scan(&total); err != nil {
		return 0, entryErrors.translate("timesheet entry: sum hours", err)
	}
	return timesheet.Hours(total), nil
}

func (r *TimesheetEntryRepository) findMany(ctx context.Context, op, query string, args ...any) ([]*timesheet.Entry, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, entryErrors.translate(op, err)
	}
	defer rows.Close()

	result := make([]*timesheet.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, entryErrors.translate(op, err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, entryErrors.translate(op, err)
	}
	return result, nil
}

func scanEntry(row pgx.Row) (*timesheet.Entry, error) {
	var (
		e           timesheet.Entry
		taskID      sql.NullInt64
		description sql.NullString
		hours       int64
	)

	if err := row.Scan(
		&e.ID,
		&e.TimesheetID,
		&e.ProjectID,
		&taskID,
		&e.Date,
		&description,
		&hours,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.TaskID = int64Ptr(taskID)
	e.Date = truncateDate(e.Date.UTC())
	e.Description = description.String
	e.HoursWorked = timesheet.Hours(hours)
	return &e, nil
}
