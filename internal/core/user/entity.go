package user

import (
	"strings"
	"time"
)

// Status はアカウントの状態を表します。
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Role はアカウントに付与される権限ロールです。
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// ParseRole は大文字小文字を区別せずにロール名を解釈します。
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(raw))); r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

// User はログインアカウントです。必ず社員に紐付きます。
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	EmployeeID   int64
	Roles        []Role
	Status       Status
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole は指定ロールを保持しているか判定します。
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
