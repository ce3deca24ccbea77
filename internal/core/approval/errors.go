package approval

import "github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"

var (
	ErrInvalidID          = errkind.Wrap(errkind.ErrValidation, "approval: invalid id")
	ErrInvalidTimesheetID = errkind.Wrap(errkind.ErrValidation, "approval: invalid timesheet id")
	ErrInvalidApproverID  = errkind.Wrap(errkind.ErrValidation, "approval: invalid approver id")
	ErrInvalidStatus      = errkind.Wrap(errkind.ErrValidation, "approval: invalid status")
	ErrApprovalNotFound   = errkind.Wrap(errkind.ErrNotFound, "approval: not found")
	ErrTimesheetNotFound  = errkind.Wrap(errkind.ErrNotFound, "approval: timesheet not found")
	ErrApproverNotFound   = errkind.Wrap(errkind.ErrNotFound, "approval: approver not found")
)
