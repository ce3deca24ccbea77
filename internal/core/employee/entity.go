package employee

import "time"

// Employee は社員エンティティです。タイムシート・承認・プロジェクトから参照されます。
type Employee struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Position     *string
	DepartmentID *int64
	ManagerID    *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName は姓名を連結した表示名を返します。
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
