package timesheet

import (
	"fmt"
	"strings"
	"time"
)

// Status はタイムシートの状態を表します。
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// ParseStatus は大文字小文字を区別せずに状態文字列を解釈します。
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusSubmitted:
		return StatusSubmitted, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// Timesheet は社員の一定期間の勤務時間を集約するエンティティです。
type Timesheet struct {
	ID             int64
	EmployeeID     int64
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Status         Status
	SubmissionDate *time.Time
	TotalHours     Hours
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsDraft は明細の削除やタイムシート自体の削除が許される状態かを返します。
func (t *Timesheet) IsDraft() bool {
	return t.Status == StatusDraft
}

// Entry はタイムシートに属する 1 日分の作業明細です。
type Entry struct {
	ID          int64
	TimesheetID int64
	ProjectID   int64
	TaskID      *int64
	Date        time.Time
	Description string
	HoursWorked Hours
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Detail はタイムシートと現在の明細、および明細から再計算した合計時間です。
type Detail struct {
	Timesheet            *Timesheet
	Entries              []*Entry
	CalculatedTotalHours Hours
}
