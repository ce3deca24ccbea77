package timesheet

import (
	"context"
	"time"
)

// Repository はタイムシート永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, ts *Timesheet) (*Timesheet, error)
	Update(ctx context.Context, ts *Timesheet) (*Timesheet, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Timesheet, error)
	// FindByIDForUpdate は同じタイムシートに対する並行更新を直列化するため行ロックを取得します。
	FindByIDForUpdate(ctx context.Context, id int64) (*Timesheet, error)
	List(ctx context.Context) ([]*Timesheet, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*Timesheet, error)
	// FindByEmployeeAndPeriod は期間開始日が [start, end] に含まれるタイムシートを返します。
	FindByEmployeeAndPeriod(ctx context.Context, employeeID int64, start, end time.Time) ([]*Timesheet, error)
	UpdateTotalHours(ctx context.Context, id int64, total Hours, updatedAt time.Time) error
}

// EntryRepository は明細永続化の抽象です。
type EntryRepository interface {
	Create(ctx context.Context, entry *Entry) (*Entry, error)
	Update(ctx context.Context, entry *Entry) (*Entry, error)
	Delete(ctx context.Context, id int64) error
	DeleteByTimesheet(ctx context.Context, timesheetID int64) (int64, error)
	FindByID(ctx context.Context, id int64) (*Entry, error)
	List(ctx context.Context) ([]*Entry, error)
	ListByTimesheet(ctx context.Context, timesheetID int64) ([]*Entry, error)
	SumHours(ctx context.Context, timesheetID int64) (Hours, error)
}

// EmployeeDirectory は社員の存在確認を提供します。
type EmployeeDirectory interface {
	EmployeeExists(ctx context.Context, id int64) (bool, error)
}

// ProjectCatalog はプロジェクトとタスクの参照解決を提供します。
type ProjectCatalog interface {
	ProjectExists(ctx context.Context, id int64) (bool, error)
	// TaskProjectID はタスクが属するプロジェクトを返します。存在しなければ ok は false です。
	TaskProjectID(ctx context.Context, taskID int64) (projectID int64, ok bool, err error)
}

// ApprovalRemover はタイムシート削除時に承認記録を取り除きます。
type ApprovalRemover interface {
	DeleteByTimesheet(ctx context.Context, timesheetID int64) (int64, error)
}
