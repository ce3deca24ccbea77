package client

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
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
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
	maxCodeLength       = 50
)

var codePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Service は取引先に関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase は取引先ユースケースの公開インターフェースです。
type UseCase interface {
	CreateClient(ctx context.Context, in CreateClientInput) (*Client, error)
	GetClient(ctx context.Context, in GetClientInput) (*Client, error)
	ListClients(ctx context.Context, in ListClientsInput) (*ListClientsResult, error)
	UpdateClient(ctx context.Context, in UpdateClientInput) (*Client, error)
	DeleteClient(ctx context.Context, in DeleteClientInput) error
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// CreateClientInput は取引先作成時の入力です。
type CreateClientInput struct {
	Name         string
	Code         string
	ContactEmail *string
}

// UpdateClientInput は取引先更新時の入力です。nil の項目は変更しません。
// ContactEmail に空文字を渡すと連絡先を外します。
type UpdateClientInput struct {
	ID           int64
	Name         *string
	Code         *string
	Status       *string
	ContactEmail *string
}

// DeleteClientInput は取引先削除時の入力です。
type DeleteClientInput struct {
	ID int64
}

// GetClientInput は取引先取得時の入力です。
type GetClientInput struct {
	ID int64
}

// ListClientsInput は一覧取得時の入力です。
type ListClientsInput struct {
	PageSize  int
	PageToken string
	Status    *string
}

// ListClientsResult は一覧取得結果を表します。
type ListClientsResult struct {
	Clients       []*Client
	NextPageToken string
}

// CreateClient は新しい取引先を作成します。
func (s *Service) CreateClient(ctx context.Context, in CreateClientInput) (*Client, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	code, err := normalizeCode(in.Code)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.ContactEmail)
	if err != nil {
		return nil, err
	}

	var created *Client
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureCodeNotExists(txCtx, code); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Client{
			Name:         name,
			Code:         code,
			Status:       StatusActive,
			ContactEmail: email,
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

	return created, nil
}

// UpdateClient は取引先を部分更新します。
func (s *Service) UpdateClient(ctx context.Context, in UpdateClientInput) (*Client, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Client
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if in.Name != nil {
			if existing.Name, err = normalizeName(*in.Name); err != nil {
				return err
			}
		}
		if in.Code != nil {
			code, err := normalizeCode(*in.Code)
			if err != nil {
				return err
			}
			if code != existing.Code {
				if err := s.ensureCodeNotExists(txCtx, code); err != nil {
					return err
				}
				existing.Code = code
			}
		}
		if in.Status != nil {
			status, err := ParseStatus(*in.Status)
			if err != nil {
				return err
			}
			existing.Status = status
		}
		if in.ContactEmail != nil {
			if existing.ContactEmail, err = normalizeEmail(in.ContactEmail); err != nil {
				return err
			}
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteClient は取引先を削除します。プロジェクトから参照されている場合は失敗します。
func (s *Service) DeleteClient(ctx context.Context, in DeleteClientInput) error {
	if in.ID <= 0 {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, in.ID)
	})
}

// GetClient は ID で取引先を取得します。
func (s *Service) GetClient(ctx context.Context, in GetClientInput) (*Client, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var found *Client
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		found = result
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// ListClients は取引先の一覧を取得します。
func (s *Service) ListClients(ctx context.Context, in ListClientsInput) (*ListClientsResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}
	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	filter := ListClientsFilter{Limit: limit, Offset: offset}
	if in.Status != nil && strings.TrimSpace(*in.Status) != "" {
		status, err := ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	var (
		clients   []*Client
		nextToken string
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, token, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		clients = found
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListClientsResult{Clients: clients, NextPageToken: nextToken}, nil
}

func (s *Service) ensureCodeNotExists(ctx context.Context, code string) error {
	found, err := s.repo.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, ErrClientNotFound) {
		return err
	}
	if found != nil {
		return ErrCodeAlreadyExists
	}
	return nil
}

// ParseStatus は大文字小文字を区別せずにステータスを解釈します。
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	default:
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidStatus)
	}
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || len(trimmed) > 100 {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

func normalizeCode(raw string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" || len(lower) > maxCodeLength || !codePattern.MatchString(lower) {
		return "", ErrInvalidCode
	}
	return lower, nil
}

func normalizeEmail(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, nil
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return nil, ErrInvalidEmail
	}
	email := strings.ToLower(addr.Address)
	return &email, nil
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}
	return offset, nil
}
