package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"
	"github.com/ogurasousui/codex-timesheet-api/internal/core/user"
)

var (
	// ErrInvalidToken は署名や形式が不正なトークンに返却されます。
	ErrInvalidToken = errkind.Wrap(errkind.ErrUnauthenticated, "auth: invalid token")
	// ErrExpiredToken は有効期限切れのトークンに返却されます。
	ErrExpiredToken = errkind.Wrap(errkind.ErrUnauthenticated, "auth: token has expired")
)

// Claims はアクセストークンのペイロードです。
type Claims struct {
	EmployeeID int64    `json:"employee_id"`
	Username   string   `json:"username"`
	Roles      []string `json:"roles"`
	jwt.RegisteredClaims
}

// Token は発行済みトークンと有効期限です。
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenManager は HS256 のアクセストークンを発行・検証します。
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager は TokenManager を生成します。
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue は Principal に対するアクセストークンを発行します。
func (m *TokenManager) Issue(p Principal) (Token, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = string(r)
	}

	claims := Claims{
		EmployeeID: p.EmployeeID,
		Username:   p.Username,
		Roles:      roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(p.UserID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

// Verify はトークンを検証して Principal を復元します。
func (m *TokenManager) Verify(raw string) (Principal, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrExpiredToken
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Principal{}, ErrInvalidToken
	}

	roles := make([]user.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		role, err := user.ParseRole(r)
		if err != nil {
			return Principal{}, ErrInvalidToken
		}
		roles = append(roles, role)
	}

	return Principal{
		UserID:     userID,
		EmployeeID: claims.EmployeeID,
		Username:   claims.Username,
		Roles:      roles,
	}, nil
}
