package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{3,50}$`)

// Service はアカウントに関するユースケースをまとめます。
type Service struct {
	repo      Repository
	employees EmployeeDirectory
	hasher    PasswordHasher
	clock     Clock
	tx        TransactionManager
	logger    zerolog.Logger
}

// UseCase はアカウントユースケースの公開インターフェースです。
type UseCase interface {
	Signup(ctx context.Context, in SignupInput) (*User, error)
	Authenticate(ctx context.Context, in AuthenticateInput) (*User, error)
	GetUser(ctx context.Context, in GetUserInput) (*User, error)
	UpdateStatus(ctx context.Context, in UpdateStatusInput) (*User, error)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithLogger はサービスのロガーを設定します。
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger.With().Str("usecase", "user").Logger()
	}
}

// NewService は Service を生成します。
func NewService(repo Repository, employees EmployeeDirectory, hasher PasswordHasher, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	s := &Service{
		repo:      repo,
		employees: employees,
		hasher:    hasher,
		clock:     clock,
		tx:        tx,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignupInput はアカウント登録時の入力です。
type SignupInput struct {
	Username   string
	Password   string
	EmployeeID int64
	Roles      []string
}

// AuthenticateInput はログイン時の入力です。
type AuthenticateInput struct {
	Username string
	Password string
}

// GetUserInput はアカウント取得時の入力です。
type GetUserInput struct {
	ID int64
}

// UpdateStatusInput はアカウントの有効化・無効化の入力です。
type UpdateStatusInput struct {
	ID     int64
	Status Status
}

// Signup は社員に紐付くアカウントを作成します。ロール未指定時は EMPLOYEE を付与します。
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	username := strings.TrimSpace(in.Username)
	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if in.EmployeeID <= 0 {
		return nil, fmt.Errorf("employee id: %w", ErrInvalidID)
	}
	roles, err := normalizeRoles(in.Roles)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("user: hash password: %w", err)
	}

	var created *User
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		exists, err := s.employees.EmployeeExists(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("employee %d: %w", in.EmployeeID, ErrEmployeeNotFound)
		}

		if err := s.ensureUsernameNotExists(txCtx, username); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &User{
			Username:     username,
			PasswordHash: hash,
			EmployeeID:   in.EmployeeID,
			Roles:        roles,
			Status:       StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("account created")
	return created, nil
}

// Authenticate は資格情報を検証し、成功時に最終ログイン日時を更新します。
func (s *Service) Authenticate(ctx context.Context, in AuthenticateInput) (*User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	var authenticated *User
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		u, err := s.repo.FindByUsername(txCtx, username)
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}
		if u.Status != StatusActive {
			return ErrInvalidCredentials
		}
		if err := s.hasher.Compare(u.PasswordHash, in.Password); err != nil {
			return ErrInvalidCredentials
		}

		now := s.clock.Now()
		if err := s.repo.UpdateLastLogin(txCtx, u.ID, now); err != nil {
			return err
		}
		u.LastLoginAt = &now
		authenticated = u
		return nil
	}); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.Warn().Str("username", username).Msg("authentication failed")
		}
		return nil, err
	}

	return authenticated, nil
}

// GetUser は ID でアカウントを取得します。
func (s *Service) GetUser(ctx context.Context, in GetUserInput) (*User, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}

	var found *User
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		u, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		found = u
		return nil
	}); err != nil {
		return nil, err
	}
	return found, nil
}

// UpdateStatus はアカウントを有効化または無効化します。
func (s *Service) UpdateStatus(ctx context.Context, in UpdateStatusInput) (*User, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}
	if !isValidStatus(in.Status) {
		return nil, ErrInvalidStatus
	}

	var updated *User
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		u, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := s.repo.UpdateStatus(txCtx, in.ID, in.Status, now); err != nil {
			return err
		}
		u.Status = in.Status
		u.UpdatedAt = now
		updated = u
		return nil
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) ensureUsernameNotExists(ctx context.Context, username string) error {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if u != nil {
		return fmt.Errorf("%q: %w", username, ErrUsernameAlreadyExists)
	}
	return nil
}

func normalizeRoles(raw []string) ([]Role, error) {
	if len(raw) == 0 {
		return []Role{RoleEmployee}, nil
	}
	seen := make(map[Role]struct{}, len(raw))
	roles := make([]Role, 0, len(raw))
	for _, r := range raw {
		role, err := ParseRole(r)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", r, err)
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles, nil
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}
