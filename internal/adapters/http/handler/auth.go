package handler

import (
	"net/http"
	"strings"

	"github.com/ogurasousui/codex-timesheet-api/internal/adapters/http/respond"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/user"
	"github.com/ogurasousui/codex-timesheet-api/internal/platform/auth"
)

// ErrElevatedRoles は公開サインアップで EMPLOYEE 以外のロールを要求したことを表します。
var ErrElevatedRoles = errkind.Wrap(errkind.ErrForbidden, "auth: only EMPLOYEE accounts may be created by signup")

// TokenIssuer は認証済みの呼び出し元に対してアクセストークンを発行します。
type TokenIssuer interface {
	Issue(p auth.Principal) (auth.Token, error)
}

// AuthHandler はサインアップとログインを扱います。
type AuthHandler struct {
	users  user.UseCase
	tokens TokenIssuer
}

// NewAuthHandler は AuthHandler を生成します。
func NewAuthHandler(users user.UseCase, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type signupRequest struct {
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	EmployeeID int64    `json:"employee_id"`
	Roles      []string `json:"roles"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup は社員に紐付く EMPLOYEE アカウントを作成します。
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	for _, role := range req.Roles {
		if !strings.EqualFold(strings.TrimSpace(role), string(user.RoleEmployee)) {
			respond.Error(w, r, ErrElevatedRoles)
			return
		}
	}
	h.signup(w, r, req)
}

// CreateUser は任意のロールでアカウントを作成します。ADMIN 専用のルートに割り当てます。
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	h.signup(w, r, req)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request, req signupRequest) {
	created, err := h.users.Signup(r.Context(), user.SignupInput{
		Username:   req.Username,
		Password:   req.Password,
		EmployeeID: req.EmployeeID,
		Roles:      req.Roles,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toUserResponse(created))
}

// Login は資格情報を検証してアクセストークンを発行します。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	authenticated, err := h.users.Authenticate(r.Context(), user.AuthenticateInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	token, err := h.tokens.Issue(auth.PrincipalFromUser(authenticated))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, tokenResponse{
		AccessToken: token.Value,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt,
		User:        toUserResponse(authenticated),
	})
}
