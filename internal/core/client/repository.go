package client

import "context"

// Repository は取引先の永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, c *Client) (*Client, error)
	Update(ctx context.Context, c *Client) (*Client, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Client, error)
	FindByCode(ctx context.Context, code string) (*Client, error)
	List(ctx context.Context, filter ListClientsFilter) ([]*Client, string, error)
}

// ListClientsFilter は一覧取得時の検索条件を表します。
type ListClientsFilter struct {
	Limit  int
	Offset int
	Status *Status
}
