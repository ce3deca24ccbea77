package approval

import (
	"fmt"
	"strings"
	"time"
)

// Status は承認判断の状態を表します。タイムシート側の状態とは連動しません。
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus は大文字小文字を区別せずに状態文字列を解釈します。
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// IsDecision は判断日時を記録すべき状態かを返します。
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Approval はタイムシートに対する承認者の判断記録です。
type Approval struct {
	ID          int64
	TimesheetID int64
	ApproverID  int64
	Status      Status
	DecidedAt   *time.Time
	Comments    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
