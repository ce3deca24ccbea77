package postgres

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/department"
	pgdb "github.com/ogurasousui/codex-timesheet-api/internal/platform/db/postgres"
)

const departmentColumns = `id, name, description, created_at, updated_at`

var departmentErrors = pgErrorMapping{
	notFound:   department.ErrDepartmentNotFound,
	unique:     map[string]error{"": department.ErrNameAlreadyExists},
	foreignKey: map[string]error{"": department.ErrDepartmentInUse},
}

// DepartmentRepository は PostgreSQL を利用した部署永続化の実装です。
type DepartmentRepository struct {
	pool pgdb.Queryer
}

// NewDepartmentRepository は DepartmentRepository を生成します。
func NewDepartmentRepository(pool pgdb.Queryer) *DepartmentRepository {
	return &DepartmentRepository{pool: pool}
}

// Create は部署を新規作成します。
func (r *DepartmentRepository) Create(ctx context.Context, d *department.Department) (*department.Department, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO departments (name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        RETURNING `+departmentColumns,
		d.Name, d.Description, d.CreatedAt, d.UpdatedAt,
	)

	created, err := scanDepartment(row)
	if err != nil {
		return nil, departmentErrors.translate("department: create", err)
	}
	return created, nil
}

// Update は部署情報を更新します。
func (r *DepartmentRepository) Update(ctx context.Context, d *department.Department) (*department.Department, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE departments
           SET name = $1,
               description = $2,
               updated_at = $3
         WHERE id = $4
        RETURNING `+departmentColumns,
		d.Name, d.Description, d.UpdatedAt, d.ID,
	)

	updated, err := scanDepartment(row)
	if err != nil {
		return nil, departmentErrors.translate("department: update", err)
	}
	return updated, nil
}

// Delete は部署を削除します。所属社員がいる場合は外部キー制約で失敗します。
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return departmentErrors.translate("department: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return department.ErrDepartmentNotFound
	}
	return nil
}

// FindByID は ID で部署を取得します。
func (r *DepartmentRepository) FindByID(ctx context.Context, id int64) (*department.Department, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id = $1`, id)

	found, err := scanDepartment(row)
	if err != nil {
		return nil, departmentErrors.translate("department: find by id", err)
	}
	return found, nil
}

// FindByName は大文字小文字を区別せずに部署名で検索します。
func (r *DepartmentRepository) FindByName(ctx context.Context, name string) (*department.Department, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+departmentColumns+` FROM departments WHERE lower(name) = lower($1) LIMIT 1`, name)

	found, err := scanDepartment(row)
	if err != nil {
		return nil, departmentErrors.translate("department: find by name", err)
	}
	return found, nil
}

// List は部署を名前順で返します。
func (r *DepartmentRepository) List(ctx context.Context) ([]*department.Department, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY name, id`)
	if err != nil {
		return nil, departmentErrors.translate("department: list", err)
	}
	defer rows.Close()

	var result []*department.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, departmentErrors.translate("department: list", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, departmentErrors.translate("department: list", err)
	}
	return result, nil
}

// DepartmentExists は部署の存在を確認します。
func (r *DepartmentRepository) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, pgdb.QueryerFromContext(ctx, r.pool), "department: exists", `SELECT EXISTS (SELECT 1 FROM departments WHERE id = $1)`, id)
}

func scanDepartment(row pgx.Row) (*department.Department, error) {
	var (
		d           department.Department
		description sql.NullString
	)
	if err := row.Scan(&d.ID, &d.Name, &description, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Description = stringPtr(description)
	return &d, nil
}
