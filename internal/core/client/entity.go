package client

import "time"

// Status は取引先の状態を表します。
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Client はプロジェクトの発注元となる取引先です。
type Client struct {
	ID           int64
	Name         string
	Code         string
	Status       Status
	ContactEmail *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
