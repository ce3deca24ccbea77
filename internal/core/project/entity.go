package project

import (
	"strings"
	"time"
)

// Status はプロジェクトの進行状態です。
type Status string

const (
	// StatusActive は稼働中のプロジェクトです。
	StatusActive Status = "ACTIVE"
	// StatusOnHold は一時停止中のプロジェクトです。
	StatusOnHold Status = "ON_HOLD"
	// StatusCompleted は完了済みのプロジェクトです。
	StatusCompleted Status = "COMPLETED"
)

// ParseStatus は大文字小文字を区別せずにステータス文字列を解釈します。
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", StatusActive:
		return StatusActive, nil
	case StatusOnHold:
		return StatusOnHold, nil
	case StatusCompleted:
		return StatusCompleted, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Project は工数の計上先となるプロジェクトです。
type Project struct {
	ID          int64
	Name        string
	Description *string
	ClientID    *int64
	ManagerID   *int64
	StartDate   *time.Time
	EndDate     *time.Time
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Task はプロジェクト配下の作業単位です。
type Task struct {
	ID          int64
	ProjectID   int64
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
