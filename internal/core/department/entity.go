package department

import "time"

// Department は部署エンティティです。社員が任意で所属します。
type Department struct {
	ID          int64
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
