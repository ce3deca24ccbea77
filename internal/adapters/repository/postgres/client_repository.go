package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/client"
	pgdb "github.com/ogurasousui/codex-timesheet-api/internal/platform/db/postgres"
)

const clientColumns = `id, name, code, status, contact_email, created_at, updated_at`

var (
	clientErrors = pgErrorMapping{
		notFound: client.ErrClientNotFound,
		unique:   map[string]error{"clients_code_key": client.ErrCodeAlreadyExists},
		check:    map[string]error{"": client.ErrInvalidStatus},
	}
	clientDeleteErrors = pgErrorMapping{
		notFound:   client.ErrClientNotFound,
		foreignKey: map[string]error{"": client.ErrClientInUse},
	}
)

// ClientRepository は PostgreSQL を利用した取引先永続化の実装です。
type ClientRepository struct {
	pool pgdb.Queryer
}

// NewClientRepository は ClientRepository を生成します。
func NewClientRepository(pool pgdb.Queryer) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// Create は取引先を新規作成します。
func (r *ClientRepository) Create(ctx context.Context, c *client.Client) (*client.Client, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO clients (name, code, status, contact_email, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+clientColumns,
		c.Name, c.Code, string(c.Status), c.ContactEmail, c.CreatedAt, c.UpdatedAt,
	)

	created, err := scanClient(row)
	if err != nil {
		return nil, clientErrors.translate("client: create", err)
	}
	return created, nil
}

// Update は取引先情報を更新します。
func (r *ClientRepository) Update(ctx context.Context, c *client.Client) (*client.Client, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE clients
           SET name = $1,
               code = $2,
               status = $3,
               contact_email = $4,
               updated_at = $5
         WHERE id = $6
        RETURNING `+clientColumns,
		c.Name, c.Code, string(c.Status), c.ContactEmail, c.UpdatedAt, c.ID,
	)

	updated, err := scanClient(row)
	if err != nil {
		return nil, clientErrors.translate("client: update", err)
	}
	return updated, nil
}

// Delete は取引先を削除します。
func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return clientDeleteErrors.translate("client: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return client.ErrClientNotFound
	}
	return nil
}

// FindByID は ID で取引先を取得します。
func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*client.Client, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)

	found, err := scanClient(row)
	if err != nil {
		return nil, clientErrors.translate("client: find by id", err)
	}
	return found, nil
}

// FindByCode はコードで取引先を取得します。
func (r *ClientRepository) FindByCode(ctx context.Context, code string) (*client.Client, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE code = $1`, code)

	found, err := scanClient(row)
	if err != nil {
		return nil, clientErrors.translate("client: find by code", err)
	}
	return found, nil
}

// List は取引先を名称順に返します。次のページがある場合はオフセットをトークンとして返します。
func (r *ClientRepository) List(ctx context.Context, filter client.ListClientsFilter) ([]*client.Client, string, error) {
	if filter.Limit <= 0 {
		return nil, "", client.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", client.ErrInvalidPageToken
	}

	args := make([]any, 0, 3)
	conditions := make([]string, 0, 1)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit+1)
	limitPlaceholder := "$" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	offsetPlaceholder := "$" + strconv.Itoa(len(args))

	query := `SELECT ` + clientColumns + ` FROM clients` + whereClause +
		` ORDER BY name, id LIMIT ` + limitPlaceholder + ` OFFSET ` + offsetPlaceholder

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", clientErrors.translate("client: list", err)
	}
	defer rows.Close()

	clients := make([]*client.Client, 0, filter.Limit)
	for rows.Next() {
		found, err := scanClient(rows)
		if err != nil {
			return nil, "", clientErrors.translate("client: list", err)
		}
		clients = append(clients, found)
	}
	if err := rows.Err(); err != nil {
		return nil, "", clientErrors.translate("client: list", err)
	}

	var nextToken string
	if len(clients) > filter.Limit {
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
		clients = clients[:filter.Limit]
	}
	return clients, nextToken, nil
}

func scanClient(row pgx.Row) (*client.Client, error) {
	var (
		c            client.Client
		status       string
		contactEmail sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Code, &status, &contactEmail, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = client.Status(status)
	c.ContactEmail = stringPtr(contactEmail)
	return &c, nil
}
