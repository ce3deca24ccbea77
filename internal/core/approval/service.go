package approval

import (
	"context"
	"fmt"
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

type options struct {
	log zerolog.Logger
}

// Option はサービスの任意設定です。
type Option func(*options)

// WithLogger は判断の記録に使うロガーを設定します。
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Service は承認記録に関するユースケースをまとめます。
// 承認の状態を変更してもタイムシートの状態は変更しません。
type Service struct {
	repo  Repository
	refs  References
	clock Clock
	tx    TransactionManager
	log   zerolog.Logger
}

// UseCase は承認ユースケースの公開インターフェースです。
type UseCase interface {
	CreateApproval(ctx context.Context, in CreateApprovalInput) (*Approval, error)
	UpdateApproval(ctx context.Context, in UpdateApprovalInput) (*Approval, error)
	DeleteApproval(ctx context.Context, in DeleteApprovalInput) error
	GetApproval(ctx context.Context, in GetApprovalInput) (*Approval, error)
	ListApprovals(ctx context.Context) ([]*Approval, error)
	ListByApprover(ctx context.Context, in ListByApproverInput) ([]*Approval, error)
	ListByTimesheet(ctx context.Context, in ListByTimesheetInput) ([]*Approval, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, refs References, clock Clock, tx TransactionManager, opts ...Option) *Service {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		repo:  repo,
		refs:  refs,
		clock: clock,
		tx:    tx,
		log:   o.log.With().Str("usecase", "approval").Logger(),
	}
}

// CreateApprovalInput は承認記録作成時の入力です。Status が nil の場合は PENDING です。
type CreateApprovalInput struct {
	TimesheetID int64
	ApproverID  int64
	Status      *string
	Comments    *string
}

// UpdateApprovalInput は承認記録更新時の入力です。nil の項目は変更しません。
type UpdateApprovalInput struct {
	ID          int64
	TimesheetID int64
	ApproverID  int64
	Status      *string
	Comments    *string
}

// DeleteApprovalInput は承認記録削除時の入力です。
type DeleteApprovalInput struct {
	ID int64
}

// GetApprovalInput は承認記録取得時の入力です。
type GetApprovalInput struct {
	ID int64
}

// ListByApproverInput は承認者単位の一覧取得の入力です。
type ListByApproverInput struct {
	ApproverID int64
}

// ListByTimesheetInput はタイムシート単位の一覧取得の入力です。
type ListByTimesheetInput struct {
	TimesheetID int64
}

// CreateApproval は承認記録を作成します。
// APPROVED または REJECTED で作成した場合は判断日時を記録します。
func (s *Service) CreateApproval(ctx context.Context, in CreateApprovalInput) (*Approval, error) {
	if err := validateRefs(in.TimesheetID, in.ApproverID); err != nil {
		return nil, err
	}

	status := StatusPending
	if in.Status != nil {
		parsed, err := ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	var created *Approval
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureReferences(txCtx, in.TimesheetID, in.ApproverID); err != nil {
			return err
		}

		now := s.clock.Now()
		a := &Approval{
			TimesheetID: in.TimesheetID,
			ApproverID:  in.ApproverID,
			Status:      status,
			Comments:    normalizeComments(in.Comments),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if status.IsDecision() {
			decided := now
			a.DecidedAt = &decided
		}

		result, err := s.repo.Create(txCtx, a)
		if err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("approval_id", created.ID).
		Int64("timesheet_id", created.TimesheetID).
		Str("status", string(created.Status)).
		Msg("approval recorded")
	return created, nil
}

// UpdateApproval は承認記録を更新します。
// 状態が APPROVED または REJECTED に変わった場合のみ判断日時を現在時刻で記録します。
func (s *Service) UpdateApproval(ctx context.Context, in UpdateApprovalInput) (*Approval, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	if err := validateRefs(in.TimesheetID, in.ApproverID); err != nil {
		return nil, err
	}

	var status *Status
	if in.Status != nil {
		parsed, err := ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		status = &parsed
	}

	var updated *Approval
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		if err := s.ensureReferences(txCtx, in.TimesheetID, in.ApproverID); err != nil {
			return err
		}

		now := s.clock.Now()
		existing.TimesheetID = in.TimesheetID
		existing.ApproverID = in.ApproverID
		if status != nil && *status != existing.Status {
			existing.Status = *status
			if status.IsDecision() {
				decided := now
				existing.DecidedAt = &decided
			}
		}
		if in.Comments != nil {
			existing.Comments = normalizeComments(in.Comments)
		}
		existing.UpdatedAt = now

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

// DeleteApproval は承認記録を削除します。
func (s *Service) DeleteApproval(ctx context.Context, in DeleteApprovalInput) error {
	if in.ID <= 0 {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, in.ID)
	})
}

// GetApproval は承認記録を取得します。
func (s *Service) GetApproval(ctx context.Context, in GetApprovalInput) (*Approval, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Approval
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListApprovals はすべての承認記録を返します。
func (s *Service) ListApprovals(ctx context.Context) ([]*Approval, error) {
	return s.list(ctx, s.repo.List)
}

// ListByApprover は承認者の承認記録を返します。
func (s *Service) ListByApprover(ctx context.Context, in ListByApproverInput) ([]*Approval, error) {
	if in.ApproverID <= 0 {
		return nil, ErrInvalidApproverID
	}
	return s.list(ctx, func(txCtx context.Context) ([]*Approval, error) {
		return s.repo.ListByApprover(txCtx, in.ApproverID)
	})
}

// ListByTimesheet はタイムシートに対する承認記録を返します。
func (s *Service) ListByTimesheet(ctx context.Context, in ListByTimesheetInput) ([]*Approval, error) {
	if in.TimesheetID <= 0 {
		return nil, ErrInvalidTimesheetID
	}
	return s.list(ctx, func(txCtx context.Context) ([]*Approval, error) {
		return s.repo.ListByTimesheet(txCtx, in.TimesheetID)
	})
}

func (s *Service) list(ctx context.Context, fetch func(context.Context) ([]*Approval, error)) ([]*Approval, error) {
	var result []*Approval
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := fetch(txCtx)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) ensureReferences(ctx context.Context, timesheetID, approverID int64) error {
	ok, err := s.refs.TimesheetExists(ctx, timesheetID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("timesheet %d: %w", timesheetID, ErrTimesheetNotFound)
	}

	ok, err = s.refs.EmployeeExists(ctx, approverID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("employee %d: %w", approverID, ErrApproverNotFound)
	}
	return nil
}

func validateRefs(timesheetID, approverID int64) error {
	if timesheetID <= 0 {
		return ErrInvalidTimesheetID
	}
	if approverID <= 0 {
		return ErrInvalidApproverID
	}
	return nil
}

func normalizeComments(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
