package auth

import (
	"context"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/user"
)

// Principal は認証済みの呼び出し元を表します。
type Principal struct {
	UserID     int64
	EmployeeID int64
	Username   string
	Roles      []user.Role
}

// PrincipalFromUser はアカウントから Principal を組み立てます。
func PrincipalFromUser(u *user.User) Principal {
	return Principal{
		UserID:     u.ID,
		EmployeeID: u.EmployeeID,
		Username:   u.Username,
		Roles:      append([]user.Role(nil), u.Roles...),
	}
}

// HasRole は指定ロールを保持しているか判定します。
func (p Principal) HasRole(role user.Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole はいずれかのロールを保持しているか判定します。
func (p Principal) HasAnyRole(roles ...user.Role) bool {
	for _, role := range roles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal は Principal をコンテキストに格納します。
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom はコンテキストから Principal を取り出します。
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
