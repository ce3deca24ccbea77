// Package middleware は HTTP ハンドラ共通の認証・ロール判定・アクセスログ・メトリクスを提供します。
package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/user"
	"github.com/ogurasousui/codex-timesheet-api/internal/platform/auth"
)

var (
	// ErrMissingToken は Authorization ヘッダが無いか Bearer 形式でないことを表します。
	ErrMissingToken = errkind.Wrap(errkind.ErrUnauthenticated, "auth: bearer token is required")
	// ErrInsufficientRole は必要なロールを保持していないことを表します。
	ErrInsufficientRole = errkind.Wrap(errkind.ErrForbidden, "auth: insufficient role")
)

// TokenVerifier はアクセストークンを検証して Principal を返します。
type TokenVerifier interface {
	Verify(raw string) (auth.Principal, error)
}

// Authenticator は Bearer トークンを検証し、Principal をリクエストのコンテキストに格納します。
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				respond.Error(w, r, ErrMissingToken)
				return
			}

			principal, err := verifier.Verify(raw)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Int64("user_id", principal.UserID)
			})

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole は指定ロールのいずれかを保持する呼び出し元のみ通します。
// Authenticator の内側で使います。
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				respond.Error(w, r, ErrMissingToken)
				return
			}
			if !principal.HasAnyRole(roles...) {
				respond.Error(w, r, ErrInsufficientRole)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
