package project

import (
	"context"
	"fmt"
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
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Service はプロジェクトカタログのユースケースをまとめます。
type Service struct {
	repo      Repository
	employees EmployeeDirectory
	clock     Clock
	tx        TransactionManager
}

// UseCase はプロジェクトユースケースの公開インターフェースです。
type UseCase interface {
	CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error)
	UpdateProject(ctx context.Context, in UpdateProjectInput) (*Project, error)
	DeleteProject(ctx context.Context, id int64) error
	GetProject(ctx context.Context, id int64) (*Project, error)
	ListProjects(ctx context.Context, in ListProjectsInput) ([]*Project, error)
	CreateTask(ctx context.Context, in CreateTaskInput) (*Task, error)
	ListTasks(ctx context.Context, projectID int64) ([]*Task, error)
	GetTask(ctx context.Context, id int64) (*Task, error)
	UpdateTask(ctx context.Context, in UpdateTaskInput) (*Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// NewService は Service を生成します。
func NewService(repo Repository, employees EmployeeDirectory, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, employees: employees, clock: clock, tx: tx}
}

// CreateProjectInput はプロジェクト作成時の入力です。
type CreateProjectInput struct {
	Name        string
	Description *string
	ClientID    *int64
	ManagerID   *int64
	StartDate   *time.Time
	EndDate     *time.Time
	Status      string
}

// UpdateProjectInput はプロジェクト更新時の入力です。nil のフィールドは変更しません。
type UpdateProjectInput struct {
	ID          int64
	Name        *string
	Description *string
	ManagerID   *int64
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *string
}

// ListProjectsInput はプロジェクト一覧取得時の入力です。
type ListProjectsInput struct {
	Status    *string
	ManagerID *int64
}

// CreateTaskInput はタスク作成時の入力です。
type CreateTaskInput struct {
	ProjectID   int64
	Name        string
	Description *string
}

// UpdateTaskInput はタスク更新時の入力です。nil のフィールドは変更しません。
// 所属プロジェクトは変更できません。
type UpdateTaskInput struct {
	ID          int64
	Name        *string
	Description *string
}

// CreateProject はプロジェクトを作成します。
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	status, err := ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	if in.ClientID != nil && *in.ClientID <= 0 {
		return nil, ErrInvalidID
	}
	start, end := normalizeDate(in.StartDate), normalizeDate(in.EndDate)
	if err := checkSchedule(start, end); err != nil {
		return nil, err
	}

	var created *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureManagerExists(txCtx, in.ManagerID); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Project{
			Name:        name,
			Description: normalizeText(in.Description),
			ClientID:    in.ClientID,
			ManagerID:   in.ManagerID,
			StartDate:   start,
			EndDate:     end,
			Status:      status,
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

// UpdateProject はプロジェクトを部分更新します。
func (s *Service) UpdateProject(ctx context.Context, in UpdateProjectInput) (*Project, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}

	var updated *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if in.Name != nil {
			name, err := normalizeName(*in.Name)
			if err != nil {
				return err
			}
			existing.Name = name
		}
		if in.Description != nil {
			existing.Description = normalizeText(in.Description)
		}
		if in.ManagerID != nil {
			if err := s.ensureManagerExists(txCtx, in.ManagerID); err != nil {
				return err
			}
			existing.ManagerID = in.ManagerID
		}
		if in.StartDate != nil {
			existing.StartDate = normalizeDate(in.StartDate)
		}
		if in.EndDate != nil {
			existing.EndDate = normalizeDate(in.EndDate)
		}
		if err := checkSchedule(existing.StartDate, existing.EndDate); err != nil {
			return err
		}
		if in.Status != nil {
			status, err := ParseStatus(*in.Status)
			if err != nil {
				return err
			}
			existing.Status = status
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

// DeleteProject はプロジェクトを削除します。
func (s *Service) DeleteProject(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}

// GetProject はプロジェクトを取得します。
func (s *Service) GetProject(ctx context.Context, id int64) (*Project, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	var found *Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		p, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		found = p
		return nil
	}); err != nil {
		return nil, err
	}
	return found, nil
}

// ListProjects はプロジェクト一覧を返します。
func (s *Service) ListProjects(ctx context.Context, in ListProjectsInput) ([]*Project, error) {
	filter := ListProjectsFilter{ManagerID: in.ManagerID}
	if in.Status != nil && strings.TrimSpace(*in.Status) != "" {
		status, err := ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	var result []*Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, filter)
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

// CreateTask はプロジェクトにタスクを追加します。
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*Task, error) {
	if in.ProjectID <= 0 {
		return nil, ErrInvalidID
	}
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var created *Task
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, in.ProjectID); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repo.CreateTask(txCtx, &Task{
			ProjectID:   in.ProjectID,
			Name:        name,
			Description: normalizeText(in.Description),
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

// ListTasks はプロジェクト配下のタスクを返します。
func (s *Service) ListTasks(ctx context.Context, projectID int64) ([]*Task, error) {
	if projectID <= 0 {
		return nil, ErrInvalidID
	}

	var result []*Task
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, projectID); err != nil {
			return err
		}
		found, err := s.repo.ListTasks(txCtx, projectID)
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

// GetTask はタスクを取得します。
func (s *Service) GetTask(ctx context.Context, id int64) (*Task, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	var found *Task
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		t, err := s.repo.FindTaskByID(txCtx, id)
		if err != nil {
			return err
		}
		found = t
		return nil
	}); err != nil {
		return nil, err
	}
	return found, nil
}

// UpdateTask はタスクの名称と説明を更新します。
func (s *Service) UpdateTask(ctx context.Context, in UpdateTaskInput) (*Task, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}
	var name string
	if in.Name != nil {
		normalized, err := normalizeName(*in.Name)
		if err != nil {
			return nil, err
		}
		name = normalized
	}

	var updated *Task
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindTaskByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			existing.Name = name
		}
		if in.Description != nil {
			existing.Description = normalizeText(in.Description)
		}
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.UpdateTask(txCtx, existing)
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

// DeleteTask はタスクを削除します。工数明細から参照されている場合は ErrTaskInUse です。
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteTask(txCtx, id)
	})
}

func (s *Service) ensureManagerExists(ctx context.Context, managerID *int64) error {
	if managerID == nil {
		return nil
	}
	if *managerID <= 0 {
		return ErrInvalidID
	}
	if s.employees == nil {
		return nil
	}
	ok, err := s.employees.EmployeeExists(ctx, *managerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("manager %d: %w", *managerID, ErrManagerNotFound)
	}
	return nil
}

func checkSchedule(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidSchedule
	}
	return nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || len(trimmed) > 200 {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

func normalizeText(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	y, m, d := t.Date()
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}
