package project

import "context"

// Repository はプロジェクトとタスクの永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, project *Project) (*Project, error)
	Update(ctx context.Context, project *Project) (*Project, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context, filter ListProjectsFilter) ([]*Project, error)
	CreateTask(ctx context.Context, task *Task) (*Task, error)
	ListTasks(ctx context.Context, projectID int64) ([]*Task, error)
	FindTaskByID(ctx context.Context, id int64) (*Task, error)
	UpdateTask(ctx context.Context, task *Task) (*Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// EmployeeDirectory はマネージャーの存在確認に利用します。
type EmployeeDirectory interface {
	EmployeeExists(ctx context.Context, id int64) (bool, error)
}

// ListProjectsFilter はプロジェクト一覧取得時の条件です。
type ListProjectsFilter struct {
	Status    *Status
	ManagerID *int64
}
