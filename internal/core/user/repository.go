package user

import (
	"context"
	"time"
)

// Repository はアカウントの永続化を行うインターフェースです。
// Create はロールの割り当ても同一トランザクションで保存します。
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	UpdateStatus(ctx context.Context, id int64, status Status, updatedAt time.Time) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// EmployeeDirectory は紐付け先社員の存在確認に利用します。
type EmployeeDirectory interface {
	EmployeeExists(ctx context.Context, id int64) (bool, error)
}

// PasswordHasher はパスワードのハッシュ化と照合を行います。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
