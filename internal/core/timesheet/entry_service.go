package timesheet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EntryService はタイムシート明細に関するユースケースをまとめます。
// 明細の追加・更新・削除の後は親タイムシートの合計時間を明細から再計算します。
type EntryService struct {
	entries    EntryRepository
	timesheets Repository
	projects   ProjectCatalog
	clock      Clock
	tx         TransactionManager
	log        zerolog.Logger
}

// EntryUseCase は明細ユースケースの公開インターフェースです。
type EntryUseCase interface {
	CreateEntry(ctx context.Context, in CreateEntryInput) (*Entry, error)
	GetEntry(ctx context.Context, in GetEntryInput) (*Entry, error)
	ListEntries(ctx context.Context) ([]*Entry, error)
	ListByTimesheet(ctx context.Context, in ListByTimesheetInput) ([]*Entry, error)
	UpdateEntry(ctx context.Context, in UpdateEntryInput) (*Entry, error)
	DeleteEntry(ctx context.Context, in DeleteEntryInput) error
	DeleteAllForTimesheet(ctx context.Context, timesheetID int64) (int64, error)
}

// NewEntryService は EntryService を生成します。
func NewEntryService(entries EntryRepository, timesheets Repository, projects ProjectCatalog, clock Clock, tx TransactionManager, opts ...Option) *EntryService {
	o := buildOptions(opts)
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &EntryService{
		entries:    entries,
		timesheets: timesheets,
		projects:   projects,
		clock:      clock,
		tx:         tx,
		log:        o.log.With().Str("usecase", "timesheet_entry").Logger(),
	}
}

// EntryInput はタイムシートに紐づける前の明細内容です。
type EntryInput struct {
	ProjectID   int64
	TaskID      *int64
	Date        time.Time
	Description string
	HoursWorked Hours
}

// CreateEntryInput は明細作成時の入力です。
type CreateEntryInput struct {
	TimesheetID int64
	EntryInput
}

// UpdateEntryInput は明細更新時の入力です。全項目を置き換えます。
type UpdateEntryInput struct {
	ID          int64
	TimesheetID int64
	EntryInput
}

// GetEntryInput は明細取得時の入力です。
type GetEntryInput struct {
	ID int64
}

// DeleteEntryInput は明細削除時の入力です。
type DeleteEntryInput struct {
	ID int64
}

// ListByTimesheetInput はタイムシート単位の明細一覧取得の入力です。
type ListByTimesheetInput struct {
	TimesheetID int64
}

// CreateEntry は明細を追加し、親タイムシートの合計時間を更新します。
// 親の状態は問いません。
func (s *EntryService) CreateEntry(ctx context.Context, in CreateEntryInput) (*Entry, error) {
	if in.TimesheetID <= 0 {
		return nil, fmt.Errorf("timesheet id: %w", ErrInvalidID)
	}
	normalized, err := normalizeEntryInput(in.EntryInput)
	if err != nil {
		return nil, err
	}

	var created *Entry
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.timesheets.FindByIDForUpdate(txCtx, in.TimesheetID); err != nil {
			return err
		}

		result, err := s.create(txCtx, in.TimesheetID, normalized)
		if err != nil {
			return err
		}

		if err := s.recalculate(txCtx, in.TimesheetID); err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateEntry は明細を置き換え、関係するタイムシートの合計時間を更新します。
func (s *EntryService) UpdateEntry(ctx context.Context, in UpdateEntryInput) (*Entry, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	if in.TimesheetID <= 0 {
		return nil, fmt.Errorf("timesheet id: %w", ErrInvalidID)
	}
	normalized, err := normalizeEntryInput(in.EntryInput)
	if err != nil {
		return nil, err
	}

	var updated *Entry
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.entries.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		affected := lockOrder(existing.TimesheetID, in.TimesheetID)
		for _, id := range affected {
			if _, err := s.timesheets.FindByIDForUpdate(txCtx, id); err != nil {
				return err
			}
		}

		if err := s.resolveReferences(txCtx, normalized); err != nil {
			return err
		}

		existing.TimesheetID = in.TimesheetID
		existing.ProjectID = normalized.ProjectID
		existing.TaskID = cloneID(normalized.TaskID)
		existing.Date = normalized.Date
		existing.Description = normalized.Description
		existing.HoursWorked = normalized.HoursWorked
		existing.UpdatedAt = s.clock.Now()

		result, err := s.entries.Update(txCtx, existing)
		if err != nil {
			return err
		}

		for _, id := range affected {
			if err := s.recalculate(txCtx, id); err != nil {
				return err
			}
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteEntry は DRAFT のタイムシートに属する明細を削除し、残りの明細から合計時間を再計算します。
func (s *EntryService) DeleteEntry(ctx context.Context, in DeleteEntryInput) error {
	if in.ID <= 0 {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		entry, err := s.entries.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		parent, err := s.timesheets.FindByIDForUpdate(txCtx, entry.TimesheetID)
		if err != nil {
			return err
		}
		if !parent.IsDraft() {
			return notDraftError("have entries deleted", parent.Status)
		}

		if err := s.entries.Delete(txCtx, entry.ID); err != nil {
			return err
		}

		if err := s.recalculate(txCtx, parent.ID); err != nil {
			return err
		}

		s.log.Info().Int64("entry_id", entry.ID).Int64("timesheet_id", parent.ID).Msg("timesheet entry deleted")
		return nil
	})
}

// DeleteAllForTimesheet はタイムシートの明細を一括削除します。合計時間は呼び出し側で更新します。
func (s *EntryService) DeleteAllForTimesheet(ctx context.Context, timesheetID int64) (int64, error) {
	if timesheetID <= 0 {
		return 0, fmt.Errorf("timesheet id: %w", ErrInvalidID)
	}

	var deleted int64
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		n, err := s.entries.DeleteByTimesheet(txCtx, timesheetID)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	}); err != nil {
		return 0, err
	}

	return deleted, nil
}

// GetEntry は明細を取得します。
func (s *EntryService) GetEntry(ctx context.Context, in GetEntryInput) (*Entry, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Entry
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.entries.FindByID(txCtx, in.ID)
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

// ListEntries はすべての明細を返します。
func (s *EntryService) ListEntries(ctx context.Context) ([]*Entry, error) {
	var result []*Entry
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.entries.List(txCtx)
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

// ListByTimesheet はタイムシートに属する明細を返します。該当が無ければ空です。
func (s *EntryService) ListByTimesheet(ctx context.Context, in ListByTimesheetInput) ([]*Entry, error) {
	if in.TimesheetID <= 0 {
		return nil, fmt.Errorf("timesheet id: %w", ErrInvalidID)
	}

	var result []*Entry
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.entries.ListByTimesheet(txCtx, in.TimesheetID)
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

// create は参照を解決して明細を保存します。合計時間には触れません。
func (s *EntryService) create(ctx context.Context, timesheetID int64, in EntryInput) (*Entry, error) {
	if err := s.resolveReferences(ctx, in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return s.entries.Create(ctx, &Entry{
		TimesheetID: timesheetID,
		ProjectID:   in.ProjectID,
		TaskID:      cloneID(in.TaskID),
		Date:        in.Date,
		Description: in.Description,
		HoursWorked: in.HoursWorked,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *EntryService) resolveReferences(ctx context.Context, in EntryInput) error {
	ok, err := s.projects.ProjectExists(ctx, in.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("project %d: %w", in.ProjectID, ErrProjectNotFound)
	}

	if in.TaskID == nil {
		return nil
	}
	projectID, ok, err := s.projects.TaskProjectID(ctx, *in.TaskID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("task %d: %w", *in.TaskID, ErrTaskNotFound)
	}
	if projectID != in.ProjectID {
		return fmt.Errorf("task %d: %w", *in.TaskID, ErrTaskProjectMismatch)
	}
	return nil
}

// recalculate は明細の合計をタイムシートへ書き戻します。
func (s *EntryService) recalculate(ctx context.Context, timesheetID int64) error {
	total, err := s.entries.SumHours(ctx, timesheetID)
	if err != nil {
		return err
	}
	if !total.InRange() {
		return fmt.Errorf("%w: timesheet %d total exceeds %s", ErrInvalidHours, timesheetID, MaxHours)
	}
	return s.timesheets.UpdateTotalHours(ctx, timesheetID, total, s.clock.Now())
}

func normalizeEntryInput(in EntryInput) (EntryInput, error) {
	if in.ProjectID <= 0 {
		return EntryInput{}, ErrInvalidProjectID
	}
	if in.TaskID != nil && *in.TaskID <= 0 {
		return EntryInput{}, fmt.Errorf("task id: %w", ErrInvalidID)
	}
	date, ok := normalizeDate(in.Date)
	if !ok {
		return EntryInput{}, ErrInvalidEntryDate
	}
	if !in.HoursWorked.InRange() {
		return EntryInput{}, fmt.Errorf("%w: %s out of range", ErrInvalidHours, in.HoursWorked)
	}
	return EntryInput{
		ProjectID:   in.ProjectID,
		TaskID:      cloneID(in.TaskID),
		Date:        date,
		Description: strings.TrimSpace(in.Description),
		HoursWorked: in.HoursWorked,
	}, nil
}

// lockOrder は行ロックを取る順序を ID の昇順に揃え、重複を取り除きます。
func lockOrder(a, b int64) []int64 {
	switch {
	case a == b:
		return []int64{a}
	case a < b:
		return []int64{a, b}
	default:
		return []int64{b, a}
	}
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
