package timesheet

import (
	"context"
	"fmt"
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

// WithLogger は状態変更を記録するロガーを設定します。
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func buildOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Service はタイムシート集約のユースケースをまとめます。
// 集約の作成・置換・削除は 1 つのトランザクション内で完結させます。
type Service struct {
	repo      Repository
	entries   *EntryService
	employees EmployeeDirectory
	approvals ApprovalRemover
	clock     Clock
	tx        TransactionManager
	log       zerolog.Logger
}

// UseCase はタイムシートユースケースの公開インターフェースです。
type UseCase interface {
	CreateTimesheet(ctx context.Context, in CreateTimesheetInput) (*Timesheet, error)
	CreateTimesheetWithEntries(ctx context.Context, in CreateTimesheetWithEntriesInput) (*Timesheet, error)
	GetTimesheet(ctx context.Context, in GetTimesheetInput) (*Timesheet, error)
	GetTimesheetDetail(ctx context.Context, in GetTimesheetInput) (*Detail, error)
	ListTimesheets(ctx context.Context) ([]*Timesheet, error)
	ListByEmployee(ctx context.Context, in ListByEmployeeInput) ([]*Timesheet, error)
	FindByEmployeeAndPeriod(ctx context.Context, in FindByEmployeeAndPeriodInput) ([]*Timesheet, error)
	UpdateTimesheet(ctx context.Context, in UpdateTimesheetInput) (*Timesheet, error)
	UpdateTimesheetWithEntries(ctx context.Context, in UpdateTimesheetWithEntriesInput) (*Timesheet, error)
	DeleteTimesheet(ctx context.Context, in DeleteTimesheetInput) error
}

// NewService は Service を生成します。明細の作成と削除は entries に委譲します。
func NewService(repo Repository, entries *EntryService, employees EmployeeDirectory, approvals ApprovalRemover, clock Clock, tx TransactionManager, opts ...Option) *Service {
	o := buildOptions(opts)
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		repo:      repo,
		entries:   entries,
		employees: employees,
		approvals: approvals,
		clock:     clock,
		tx:        tx,
		log:       o.log.With().Str("usecase", "timesheet").Logger(),
	}
}

// CreateTimesheetInput はタイムシート作成時の入力です。
type CreateTimesheetInput struct {
	EmployeeID  int64
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// CreateTimesheetWithEntriesInput は明細付きタイムシート作成時の入力です。
// TotalHours が nil の場合は明細の合計を使います。Status が空の場合は DRAFT です。
type CreateTimesheetWithEntriesInput struct {
	EmployeeID     int64
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Status         string
	SubmissionDate *time.Time
	TotalHours     *Hours
	Entries        []EntryInput
}

// UpdateTimesheetInput はタイムシート更新時の入力です。
// 状態遷移の妥当性は検証しません。
type UpdateTimesheetInput struct {
	ID             int64
	EmployeeID     int64
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Status         *string
	SubmissionDate *time.Time
	TotalHours     *Hours
}

// UpdateTimesheetWithEntriesInput は明細を丸ごと置き換える更新の入力です。
type UpdateTimesheetWithEntriesInput struct {
	ID int64
	CreateTimesheetWithEntriesInput
}

// GetTimesheetInput はタイムシート取得時の入力です。
type GetTimesheetInput struct {
	ID int64
}

// DeleteTimesheetInput はタイムシート削除時の入力です。
type DeleteTimesheetInput struct {
	ID int64
}

// ListByEmployeeInput は社員単位の一覧取得の入力です。
type ListByEmployeeInput struct {
	EmployeeID int64
}

// FindByEmployeeAndPeriodInput は期間指定の検索条件です。
type FindByEmployeeAndPeriodInput struct {
	EmployeeID int64
	Start      time.Time
	End        time.Time
}

// CreateTimesheet は DRAFT 状態の空のタイムシートを作成します。
// 同じ社員・期間のタイムシートとの重複は検査しません。
func (s *Service) CreateTimesheet(ctx context.Context, in CreateTimesheetInput) (*Timesheet, error) {
	if in.EmployeeID <= 0 {
		return nil, ErrInvalidEmployeeID
	}
	start, end, err := normalizePeriod(in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return nil, err
	}

	var created *Timesheet
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmployeeExists(txCtx, in.EmployeeID); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Timesheet{
			EmployeeID:  in.EmployeeID,
			PeriodStart: start,
			PeriodEnd:   end,
			Status:      StatusDraft,
			TotalHours:  0,
			CreatedAt:   now,
			UpdatedAt:   now,
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

// CreateTimesheetWithEntries はタイムシートと明細を 1 つのトランザクションで作成します。
// いずれかの明細の参照解決に失敗した場合はタイムシートも作成されません。
func (s *Service) CreateTimesheetWithEntries(ctx context.Context, in CreateTimesheetWithEntriesInput) (*Timesheet, error) {
	draft, entries, err := s.prepareAggregate(in)
	if err != nil {
		return nil, err
	}

	var created *Timesheet
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmployeeExists(txCtx, draft.EmployeeID); err != nil {
			return err
		}

		now := s.clock.Now()
		draft.CreatedAt = now
		draft.UpdatedAt = now
		stampSubmission(draft, now)

		result, err := s.repo.Create(txCtx, draft)
		if err != nil {
			return err
		}

		for i, entry := range entries {
			if _, err := s.entries.create(txCtx, result.ID, entry); err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.log.Info().Int64("timesheet_id", created.ID).Int("entries", len(entries)).Msg("timesheet created with entries")
	return created, nil
}

// UpdateTimesheet はタイムシートの属性を更新します。状態に関わらず更新できます。
func (s *Service) UpdateTimesheet(ctx context.Context, in UpdateTimesheetInput) (*Timesheet, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	if in.EmployeeID <= 0 {
		return nil, ErrInvalidEmployeeID
	}
	start, end, err := normalizePeriod(in.PeriodStart, in.PeriodEnd)
	if err != nil {
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
	if in.TotalHours != nil && !in.TotalHours.InRange() {
		return nil, fmt.Errorf("%w: total %s out of range", ErrInvalidHours, *in.TotalHours)
	}

	var updated *Timesheet
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}
		if err := s.ensureEmployeeExists(txCtx, in.EmployeeID); err != nil {
			return err
		}

		existing.EmployeeID = in.EmployeeID
		existing.PeriodStart = start
		existing.PeriodEnd = end
		if status != nil {
			existing.Status = *status
		}
		if in.SubmissionDate != nil {
			existing.SubmissionDate = cloneTime(in.SubmissionDate)
		}
		if in.TotalHours != nil {
			existing.TotalHours = *in.TotalHours
		}

		now := s.clock.Now()
		existing.UpdatedAt = now
		stampSubmission(existing, now)

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

// UpdateTimesheetWithEntries は DRAFT のタイムシートの属性と明細を丸ごと置き換えます。
func (s *Service) UpdateTimesheetWithEntries(ctx context.Context, in UpdateTimesheetWithEntriesInput) (*Timesheet, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	replacement, entries, err := s.prepareAggregate(in.CreateTimesheetWithEntriesInput)
	if err != nil {
		return nil, err
	}

	var updated *Timesheet
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}
		if !existing.IsDraft() {
			return notDraftError("be edited", existing.Status)
		}
		if err := s.ensureEmployeeExists(txCtx, replacement.EmployeeID); err != nil {
			return err
		}

		if _, err := s.entries.DeleteAllForTimesheet(txCtx, existing.ID); err != nil {
			return err
		}
		for i, entry := range entries {
			if _, err := s.entries.create(txCtx, existing.ID, entry); err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
		}

		existing.EmployeeID = replacement.EmployeeID
		existing.PeriodStart = replacement.PeriodStart
		existing.PeriodEnd = replacement.PeriodEnd
		existing.Status = replacement.Status
		existing.TotalHours = replacement.TotalHours
		if replacement.SubmissionDate != nil {
			existing.SubmissionDate = replacement.SubmissionDate
		}

		now := s.clock.Now()
		existing.UpdatedAt = now
		stampSubmission(existing, now)

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

// DeleteTimesheet は DRAFT のタイムシートを承認記録・明細とともに削除します。
// 削除順は承認記録、明細、タイムシート本体です。
func (s *Service) DeleteTimesheet(ctx context.Context, in DeleteTimesheetInput) error {
	if in.ID <= 0 {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	var approvals, entries int64
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}
		if !existing.IsDraft() {
			return notDraftError("be deleted", existing.Status)
		}

		if approvals, err = s.approvals.DeleteByTimesheet(txCtx, existing.ID); err != nil {
			return err
		}
		if entries, err = s.entries.DeleteAllForTimesheet(txCtx, existing.ID); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, existing.ID)
	}); err != nil {
		return err
	}

	s.log.Info().
		Int64("timesheet_id", in.ID).
		Int64("approvals_deleted", approvals).
		Int64("entries_deleted", entries).
		Msg("timesheet deleted")
	return nil
}

// GetTimesheet はタイムシートを取得します。
func (s *Service) GetTimesheet(ctx context.Context, in GetTimesheetInput) (*Timesheet, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Timesheet
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

// GetTimesheetDetail はタイムシートと明細を返します。
// CalculatedTotalHours は保存済みの合計ではなく現在の明細から毎回計算します。
func (s *Service) GetTimesheetDetail(ctx context.Context, in GetTimesheetInput) (*Detail, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var detail *Detail
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		ts, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		entries, err := s.entries.entries.ListByTimesheet(txCtx, ts.ID)
		if err != nil {
			return err
		}
		detail = &Detail{
			Timesheet:            ts,
			Entries:              entries,
			CalculatedTotalHours: SumHours(entries),
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return detail, nil
}

// ListTimesheets はすべてのタイムシートを返します。
func (s *Service) ListTimesheets(ctx context.Context) ([]*Timesheet, error) {
	var result []*Timesheet
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx)
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

// ListByEmployee は社員のタイムシートを返します。
func (s *Service) ListByEmployee(ctx context.Context, in ListByEmployeeInput) ([]*Timesheet, error) {
	if in.EmployeeID <= 0 {
		return nil, ErrInvalidEmployeeID
	}

	var result []*Timesheet
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.ListByEmployee(txCtx, in.EmployeeID)
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

// FindByEmployeeAndPeriod は期間開始日が指定範囲に含まれる社員のタイムシートを返します。
func (s *Service) FindByEmployeeAndPeriod(ctx context.Context, in FindByEmployeeAndPeriodInput) ([]*Timesheet, error) {
	if in.EmployeeID <= 0 {
		return nil, ErrInvalidEmployeeID
	}
	start, end, err := normalizePeriod(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	var result []*Timesheet
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByEmployeeAndPeriod(txCtx, in.EmployeeID, start, end)
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

// prepareAggregate は入力を検証し、保存前のタイムシートと正規化済みの明細を返します。
func (s *Service) prepareAggregate(in CreateTimesheetWithEntriesInput) (*Timesheet, []EntryInput, error) {
	if in.EmployeeID <= 0 {
		return nil, nil, ErrInvalidEmployeeID
	}
	start, end, err := normalizePeriod(in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return nil, nil, err
	}

	status := StatusDraft
	if in.Status != "" {
		if status, err = ParseStatus(in.Status); err != nil {
			return nil, nil, err
		}
	}

	entries := make([]EntryInput, 0, len(in.Entries))
	var sum Hours
	for i, raw := range in.Entries {
		entry, err := normalizeEntryInput(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("entry %d: %w", i, err)
		}
		sum += entry.HoursWorked
		if !sum.InRange() {
			return nil, nil, fmt.Errorf("%w: entry total exceeds %s", ErrInvalidHours, MaxHours)
		}
		entries = append(entries, entry)
	}

	total := sum
	if in.TotalHours != nil {
		if !in.TotalHours.InRange() {
			return nil, nil, fmt.Errorf("%w: total %s out of range", ErrInvalidHours, *in.TotalHours)
		}
		total = *in.TotalHours
	}

	return &Timesheet{
		EmployeeID:     in.EmployeeID,
		PeriodStart:    start,
		PeriodEnd:      end,
		Status:         status,
		SubmissionDate: cloneTime(in.SubmissionDate),
		TotalHours:     total,
	}, entries, nil
}

func (s *Service) ensureEmployeeExists(ctx context.Context, id int64) error {
	ok, err := s.employees.EmployeeExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("employee %d: %w", id, ErrEmployeeNotFound)
	}
	return nil
}

// stampSubmission は提出日時の無い SUBMITTED のタイムシートに現在時刻を設定します。
func stampSubmission(ts *Timesheet, now time.Time) {
	if ts.Status == StatusSubmitted && ts.SubmissionDate == nil {
		stamped := now
		ts.SubmissionDate = &stamped
	}
}

func normalizePeriod(start, end time.Time) (time.Time, time.Time, error) {
	s, ok := normalizeDate(start)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("period start: %w", ErrInvalidPeriod)
	}
	e, ok := normalizeDate(end)
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("period end: %w", ErrInvalidPeriod)
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("period end precedes start: %w", ErrInvalidPeriod)
	}
	return s, e, nil
}

// normalizeDate は時刻を切り捨てて UTC の日付にします。ゼロ値は不正です。
func normalizeDate(t time.Time) (time.Time, bool) {
	if t.IsZero() {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
