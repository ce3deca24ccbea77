package timesheet

import (
	"fmt"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"
)

var (
	ErrInvalidID           = errkind.Wrap(errkind.ErrValidation, "timesheet: invalid id")
	ErrInvalidEmployeeID   = errkind.Wrap(errkind.ErrValidation, "timesheet: invalid employee id")
	ErrInvalidPeriod       = errkind.Wrap(errkind.ErrValidation, "timesheet: invalid period")
	ErrInvalidStatus       = errkind.Wrap(errkind.ErrValidation, "timesheet: invalid status")
	ErrInvalidHours        = errkind.Wrap(errkind.ErrValidation, "timesheet: invalid hours")
	ErrInvalidEntryDate    = errkind.Wrap(errkind.ErrValidation, "timesheet: invalid entry date")
	ErrInvalidProjectID    = errkind.Wrap(errkind.ErrValidation, "timesheet: invalid project id")
	ErrTaskProjectMismatch = errkind.Wrap(errkind.ErrValidation, "timesheet: task does not belong to project")
	ErrTimesheetNotFound   = errkind.Wrap(errkind.ErrNotFound, "timesheet: not found")
	ErrEntryNotFound       = errkind.Wrap(errkind.ErrNotFound, "timesheet: entry not found")
	ErrEmployeeNotFound    = errkind.Wrap(errkind.ErrNotFound, "timesheet: employee not found")
	ErrProjectNotFound     = errkind.Wrap(errkind.ErrNotFound, "timesheet: project not found")
	ErrTaskNotFound        = errkind.Wrap(errkind.ErrNotFound, "timesheet: task not found")
	ErrNotDraft            = errkind.Wrap(errkind.ErrBusinessRule, "timesheet: not in DRAFT status")
)

// notDraftError は現在の状態を含む業務ルール違反を返します。
func notDraftError(action string, status Status) error {
	return fmt.Errorf("%w: only DRAFT timesheets may %s, current status is %s", ErrNotDraft, action, status)
}
