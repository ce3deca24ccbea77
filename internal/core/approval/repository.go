package approval

import "context"

// Repository は承認記録永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, approval *Approval) (*Approval, error)
	Update(ctx context.Context, approval *Approval) (*Approval, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Approval, error)
	List(ctx context.Context) ([]*Approval, error)
	ListByApprover(ctx context.Context, approverID int64) ([]*Approval, error)
	ListByTimesheet(ctx context.Context, timesheetID int64) ([]*Approval, error)
}

// References は承認記録が参照するタイムシートと社員の存在確認です。
type References interface {
	TimesheetExists(ctx context.Context, id int64) (bool, error)
	EmployeeExists(ctx context.Context, id int64) (bool, error)
}
