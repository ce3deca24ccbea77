package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/project"
	pgdb "github.com/ogurasousui/codex-timesheet-api/internal/platform/db/postgres"
)

const (
	projectColumns = `id, name, description, client_id, manager_id, start_date, end_date, status, created_at, updated_at`
	taskColumns    = `id, project_id, name, description, created_at, updated_at`
)

var (
	projectErrors = pgErrorMapping{
		notFound: project.ErrProjectNotFound,
		foreignKey: map[string]error{
			"projects_manager_id_fkey": project.ErrManagerNotFound,
			"projects_client_id_fkey":  project.ErrClientNotFound,
		},
		check: map[string]error{"": project.ErrInvalidSchedule},
	}
	projectDeleteErrors = pgErrorMapping{
		notFound:   project.ErrProjectNotFound,
		foreignKey: map[string]error{"": project.ErrProjectInUse},
	}
	taskErrors = pgErrorMapping{
		notFound:   project.ErrTaskNotFound,
		foreignKey: map[string]error{"": project.ErrProjectNotFound},
	}
	taskDeleteErrors = pgErrorMapping{
		notFound:   project.ErrTaskNotFound,
		foreignKey: map[string]error{"": project.ErrTaskInUse},
	}
)

// ProjectRepository は PostgreSQL を利用したプロジェクトとタスクの永続化実装です。
type ProjectRepository struct {
	pool pgdb.Queryer
}

// NewProjectRepository は ProjectRepository を生成します。
func NewProjectRepository(pool pgdb.Queryer) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Create はプロジェクトを作成します。
func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO projects (name, description, client_id, manager_id, start_date, end_date, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+projectColumns,
		p.Name,
		p.Description,
		p.ClientID,
		p.ManagerID,
		nullableDate(p.StartDate),
		nullableDate(p.EndDate),
		string(p.Status),
		p.CreatedAt,
		p.UpdatedAt,
	)

	created, err := scanProject(row)
	if err != nil {
		return nil, projectErrors.translate("project: create", err)
	}
	return created, nil
}

// Update はプロジェクトを更新します。
func (r *ProjectRepository) Update(ctx context.Context, p *project.Project) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE projects
           SET name = $1,
               description = $2,
               client_id = $3,
               manager_id = $4,
               start_date = $5,
               end_date = $6,
               status = $7,
               updated_at = $8
         WHERE id = $9
        RETURNING `+projectColumns,
		p.Name,
		p.Description,
		p.ClientID,
		p.ManagerID,
		nullableDate(p.StartDate),
		nullableDate(p.EndDate),
		string(p.Status),
		p.UpdatedAt,
		p.ID,
	)

	updated, err := scanProject(row)
	if err != nil {
		return nil, projectErrors.translate("project: update", err)
	}
	return updated, nil
}

// Delete はプロジェクトを削除します。
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return projectDeleteErrors.translate("project: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}

// FindByID は ID でプロジェクトを取得します。
func (r *ProjectRepository) FindByID(ctx context.Context, id int64) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)

	found, err := scanProject(row)
	if err != nil {
		return nil, projectErrors.translate("project: find by id", err)
	}
	return found, nil
}

// List はプロジェクトを名前順で返します。
func (r *ProjectRepository) List(ctx context.Context, filter project.ListProjectsFilter) ([]*project.Project, error) {
	args := make([]any, 0, 2)
	conditions := make([]string, 0, 2)

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.ManagerID != nil {
		args = append(args, *filter.ManagerID)
		conditions = append(conditions, "manager_id = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + projectColumns + ` FROM projects`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY name, id`

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, projectErrors.translate("project: list", err)
	}
	defer rows.Close()

	var result []*project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, projectErrors.translate("project: list", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, projectErrors.translate("project: list", err)
	}
	return result, nil
}

// CreateTask はタスクを作成します。
func (r *ProjectRepository) CreateTask(ctx context.Context, t *project.Task) (*project.Task, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO tasks (project_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+taskColumns,
		t.ProjectID, t.Name, t.Description, t.CreatedAt, t.UpdatedAt,
	)

	created, err := scanTask(row)
	if err != nil {
		return nil, taskErrors.translate("project: create task", err)
	}
	return created, nil
}

// ListTasks はプロジェクト配下のタスクを返します。
func (r *ProjectRepository) ListTasks(ctx context.Context, projectID int64) ([]*project.Task, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY name, id`, projectID)
	if err != nil {
		return nil, taskErrors.translate("project: list tasks", err)
	}
	defer rows.Close()

	var result []*project.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, taskErrors.translate("project: list tasks", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, taskErrors.translate("project: list tasks", err)
	}
	return result, nil
}

// FindTaskByID は ID でタスクを取得します。
func (r *ProjectRepository) FindTaskByID(ctx context.Context, id int64) (*project.Task, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)

	found, err := scanTask(row)
	if err != nil {
		return nil, taskErrors.translate("project: find task", err)
	}
	return found, nil
}

// UpdateTask はタスクの名称と説明を更新します。
func (r *ProjectRepository) UpdateTask(ctx context.Context, t *project.Task) (*project.Task, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE tasks
           SET name = $1,
               description = $2,
               updated_at = $3
         WHERE id = $4
        RETURNING `+taskColumns,
		t.Name, t.Description, t.UpdatedAt, t.ID,
	)

	updated, err := scanTask(row)
	if err != nil {
		return nil, taskErrors.translate("project: update task", err)
	}
	return updated, nil
}

// DeleteTask はタスクを削除します。
func (r *ProjectRepository) DeleteTask(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return taskDeleteErrors.translate("project: delete task", err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrTaskNotFound
	}
	return nil
}

// ProjectExists はプロジェクトの存在を確認します。
func (r *ProjectRepository) ProjectExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, pgdb.QueryerFromContext(ctx, r.pool), "project: exists", `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, id)
}

// TaskProjectID はタスクが属するプロジェクト ID を返します。
func (r *ProjectRepository) TaskProjectID(ctx context.Context, taskID int64) (int64, bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var projectID int64
	err := exec.QueryRow(ctx, `SELECT project_id FROM tasks WHERE id = $1`, taskID).Scan(&projectID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errkind.Store("project: task project id", err)
	}
	return projectID, true, nil
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var (
		p           project.Project
		description sql.NullString
		clientID    sql.NullInt64
		managerID   sql.NullInt64
		startDate   sql.NullTime
		endDate     sql.NullTime
		status      string
	)

	if err := row.Scan(
		&p.ID,
		&p.Name,
		&description,
		&clientID,
		&managerID,
		&startDate,
		&endDate,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Description = stringPtr(description)
	p.ClientID = int64Ptr(clientID)
	p.ManagerID = int64Ptr(managerID)
	p.StartDate = datePtr(startDate)
	p.EndDate = datePtr(endDate)
	p.Status = project.Status(status)
	return &p, nil
}

func scanTask(row pgx.Row) (*project.Task, error) {
	var (
		t           project.Task
		description sql.NullString
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Name, &description, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Description = stringPtr(description)
	return &t, nil
}
