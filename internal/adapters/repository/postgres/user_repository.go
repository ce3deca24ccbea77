package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/user"
	pgdb "github.com/ogurasousui/codex-timesheet-api/internal/platform/db/postgres"
)

const userColumns = `u.id, u.username, u.password_hash, u.employee_id, u.status, u.last_login_at, u.created_at, u.updated_at,
       ARRAY(SELECT r.name FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = u.id ORDER BY r.name)`

var userErrors = pgErrorMapping{
	notFound:   user.ErrUserNotFound,
	unique:     map[string]error{"": user.ErrUsernameAlreadyExists},
	foreignKey: map[string]error{"users_employee_id_fkey": user.ErrEmployeeNotFound},
}

// UserRepository は PostgreSQL を利用したアカウント永続化の実装です。
type UserRepository struct {
	pool pgdb.Queryer
}

// NewUserRepository は UserRepository を生成します。
func NewUserRepository(pool pgdb.Queryer) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create はアカウントとロール割り当てを保存します。トランザクション内で呼び出してください。
func (r *UserRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var id int64
	if err := exec.QueryRow(ctx, `
        INSERT INTO users (username, password_hash, employee_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `, u.Username, u.PasswordHash, u.EmployeeID, string(u.Status), u.CreatedAt, u.UpdatedAt).Scan(&id); err != nil {
		return nil, userErrors.translate("user: create", err)
	}

	roles := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		roles[i] = string(role)
	}

	tag, err := exec.Exec(ctx, `
        INSERT INTO user_roles (user_id, role_id)
        SELECT $1, id FROM roles WHERE name = ANY($2)
    `, id, roles)
	if err != nil {
		return nil, userErrors.translate("user: assign roles", err)
	}
	if tag.RowsAffected() != int64(len(roles)) {
		return nil, fmt.Errorf("roles %v are not seeded: %w", roles, user.ErrInvalidRole)
	}

	return r.FindByID(ctx, id)
}

// FindByID は ID でアカウントを取得します。
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanUser(exec.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	if err != nil {
		return nil, userErrors.translate("user: find by id", err)
	}
	return found, nil
}

// FindByUsername はユーザー名でアカウントを取得します。
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanUser(exec.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.username = $1`, username))
	if err != nil {
		return nil, userErrors.translate("user: find by username", err)
	}
	return found, nil
}

// UpdateStatus はアカウントの状態を更新します。
func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status user.Status, updatedAt time.Time) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `UPDATE users SET status = $1, updated_at = $2 WHERE id = $3`, string(status), updatedAt, id)
	if err != nil {
		return userErrors.translate("user: update status", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin は最終ログイン日時を記録します。
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return userErrors.translate("user: update last login", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u         user.User
		status    string
		lastLogin sql.NullTime
		roles     []string
	)

	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.EmployeeID,
		&status,
		&lastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
		&roles,
	); err != nil {
		return nil, err
	}

	u.Status = user.Status(status)
	u.LastLoginAt = timePtr(lastLogin)
	u.Roles = make([]user.Role, len(roles))
	for i, r := range roles {
		u.Roles[i] = user.Role(r)
	}
	return &u, nil
}
