package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/employee"
	pgdb "github.com/ogurasousui/codex-timesheet-api/internal/platform/db/postgres"
)

const employeeColumns = `id, first_name, last_name, email, position, department_id, manager_id, created_at, updated_at`

var (
	employeeErrors = pgErrorMapping{
		notFound: employee.ErrEmployeeNotFound,
		unique:   map[string]error{"": employee.ErrEmailAlreadyExists},
		foreignKey: map[string]error{
			"employees_department_id_fkey": employee.ErrDepartmentNotFound,
			"employees_manager_id_fkey":    employee.ErrManagerNotFound,
		},
	}
	// 削除時の外部キー違反は他テーブルからの参照を意味します。
	employeeDeleteErrors = pgErrorMapping{
		notFound:   employee.ErrEmployeeNotFound,
		foreignKey: map[string]error{"": employee.ErrEmployeeReferenced},
	}
)

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (first_name, last_name, email, position, department_id, manager_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+employeeColumns,
		e.FirstName,
		e.LastName,
		e.Email,
		e.Position,
		e.DepartmentID,
		e.ManagerID,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, employeeErrors.translate("employee: create", err)
	}
	return created, nil
}

// Update は社員情報を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET first_name = $1,
               last_name = $2,
               email = $3,
               position = $4,
               department_id = $5,
               manager_id = $6,
               updated_at = $7
         WHERE id = $8
        RETURNING `+employeeColumns,
		e.FirstName,
		e.LastName,
		e.Email,
		e.Position,
		e.DepartmentID,
		e.ManagerID,
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, employeeErrors.translate("employee: update", err)
	}
	return updated, nil
}

// Delete は社員を削除します。
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return employeeDeleteErrors.translate("employee: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, employeeErrors.translate("employee: find by id", err)
	}
	return found, nil
}

// FindByEmail はメールアドレスで社員を検索します。
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = $1 LIMIT 1`, email)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, employeeErrors.translate("employee: find by email", err)
	}
	return found, nil
}

// List は社員の一覧を取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 4)
	conditions := make([]string, 0, 2)

	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		conditions = append(conditions, "department_id = $"+strconv.Itoa(len(args)))
	}
	if filter.ManagerID != nil {
		args = append(args, *filter.ManagerID)
		conditions = append(conditions, "manager_id = $"+strconv.Itoa(len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limitWithBuffer)
	limitPlaceholder := "$" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	offsetPlaceholder := "$" + strconv.Itoa(len(args))

	query := `SELECT ` + employeeColumns + ` FROM employees` + whereClause +
		` ORDER BY last_name, first_name, id LIMIT ` + limitPlaceholder + ` OFFSET ` + offsetPlaceholder

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", employeeErrors.translate("employee: list", err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, "", employeeErrors.translate("employee: list", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, "", employeeErrors.translate("employee: list", err)
	}

	var nextToken string
	if len(employees) == limitWithBuffer {
		employees = employees[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return employees, nextToken, nil
}

// EmployeeExists は社員の存在を確認します。
func (r *EmployeeRepository) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, pgdb.QueryerFromContext(ctx, r.pool), "employee: exists", `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, id)
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e            employee.Employee
		position     sql.NullString
		departmentID sql.NullInt64
		managerID    sql.NullInt64
	)

	if err := row.Scan(
		&e.ID,
		&e.FirstName,
		&e.LastName,
		&e.Email,
		&position,
		&departmentID,
		&managerID,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.Position = stringPtr(position)
	e.DepartmentID = int64Ptr(departmentID)
	e.ManagerID = int64Ptr(managerID)
	return &e, nil
}
