package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/approval"
	pgdb "github.com/ogurasousui/codex-timesheet-api/internal/platform/db/postgres"
)

const approvalColumns = `id, timesheet_id, approver_id, status, decided_at, comments, created_at, updated_at`

var approvalErrors = pgErrorMapping{
	notFound: approval.ErrApprovalNotFound,
	foreignKey: map[string]error{
		"approvals_timesheet_id_fkey": approval.ErrTimesheetNotFound,
		"approvals_approver_id_fkey":  approval.ErrApproverNotFound,
	},
}

// ApprovalRepository は PostgreSQL を利用した承認記録永続化の実装です。
type ApprovalRepository struct {
	pool pgdb.Queryer
}

// NewApprovalRepository は ApprovalRepository を生成します。
func NewApprovalRepository(pool pgdb.Queryer) *ApprovalRepository {
	return &ApprovalRepository{pool: pool}
}

// Create は承認記録を作成します。
func (r *ApprovalRepository) Create(ctx context.Context, a *approval.Approval) (*approval.Approval, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO approvals (timesheet_id, approver_id, status, decided_at, comments, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+approvalColumns,
		a.TimesheetID,
		a.ApproverID,
		string(a.Status),
		a.DecidedAt,
		a.Comments,
		a.CreatedAt,
		a.UpdatedAt,
	)

	created, err := scanApproval(row)
	if err != nil {
		return nil, approvalErrors.translate("approval: create", err)
	}
	return created, nil
}

// Update は承認記録を更新します。
func (r *ApprovalRepository) Update(ctx context.Context, a *approval.Approval) (*approval.Approval, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE approvals
           SET timesheet_id = $1,
               approver_id = $2,
               status = $3,
               decided_at = $4,
               comments = $5,
               updated_at = $6
         WHERE id = $7
        RETURNING `+approvalColumns,
		a.TimesheetID,
		a.ApproverID,
		string(a.Status),
		a.DecidedAt,
		a.Comments,
		a.UpdatedAt,
		a.ID,
	)

	updated, err := scanApproval(row)
	if err != nil {
		return nil, approvalErrors.translate("approval: update", err)
	}
	return updated, nil
}

// Delete は承認記録を削除します。
func (r *ApprovalRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM approvals WHERE id = $1`, id)
	if err != nil {
		return approvalErrors.translate("approval: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return approval.ErrApprovalNotFound
	}
	return nil
}

// DeleteByTimesheet はタイムシートに紐付く承認記録をすべて削除します。
func (r *ApprovalRepository) DeleteByTimesheet(ctx context.Context, timesheetID int64) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM approvals WHERE timesheet_id = $1`, timesheetID)
	if err != nil {
		return 0, approvalErrors.translate("approval: delete by timesheet", err)
	}
	return tag.RowsAffected(), nil
}

// FindByID は ID で承認記録を取得します。
func (r *ApprovalRepository) FindByID(ctx context.Context, id int64) (*approval.Approval, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanApproval(exec.QueryRow(ctx, `SELECT `+approvalColumns+` FROM approvals WHERE id = $1`, id))
	if err != nil {
		return nil, approvalErrors.translate("approval: find by id", err)
	}
	return found, nil
}

// List はすべての承認記録を新しい順で返します。
func (r *ApprovalRepository) List(ctx context.Context) ([]*approval.Approval, error) {
	return r.findMany(ctx, "approval: list", `SELECT `+approvalColumns+` FROM approvals ORDER BY created_at DESC, id DESC`)
}

// ListByApprover は承認者の承認記録を返します。
func (r *ApprovalRepository) ListByApprover(ctx context.Context, approverID int64) ([]*approval.Approval, error) {
	return r.findMany(ctx, "approval: list by approver",
		`SELECT `+approvalColumns+` FROM approvals WHERE approver_id = $1 ORDER BY created_at DESC, id DESC`,
		approverID,
	)
}

// ListByTimesheet はタイムシートの承認記録を返します。
func (r *ApprovalRepository) ListByTimesheet(ctx context.Context, timesheetID int64) ([]*approval.Approval, error) {
	return r.findMany(ctx, "approval: list by timesheet",
		`SELECT `+approvalColumns+` FROM approvals WHERE timesheet_id = $1 ORDER BY created_at DESC, id DESC`,
		timesheetID,
	)
}

func (r *ApprovalRepository) findMany(ctx context.Context, op, query string, args ...any) ([]*approval.Approval, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, approvalErrors.translate(op, err)
	}
	defer rows.Close()

	result := make([]*approval.Approval, 0)
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, approvalErrors.translate(op, err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, approvalErrors.translate(op, err)
	}
	return result, nil
}

func scanApproval(row pgx.Row) (*approval.Approval, error) {
	var (
		a         approval.Approval
		status    string
		decidedAt sql.NullTime
		comments  sql.NullString
	)

	if err := row.Scan(
		&a.ID,
		&a.TimesheetID,
		&a.ApproverID,
		&status,
		&decidedAt,
		&comments,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.Status = approval.Status(status)
	a.DecidedAt = timePtr(decidedAt)
	a.Comments = stringPtr(comments)
	return &a, nil
}

// ApprovalReferences は承認記録が参照するタイムシートと社員の存在確認をまとめます。
type ApprovalReferences struct {
	Timesheets *TimesheetRepository
	Employees  *EmployeeRepository
}

// TimesheetExists はタイムシートの存在を確認します。
func (r ApprovalReferences) TimesheetExists(ctx context.Context, id int64) (bool, error) {
	return r.Timesheets.TimesheetExists(ctx, id)
}

// EmployeeExists は承認者となる社員の存在を確認します。
func (r ApprovalReferences) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	return r.Employees.EmployeeExists(ctx, id)
}
