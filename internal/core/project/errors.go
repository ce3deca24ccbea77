package project

import "github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"

var (
	// ErrProjectNotFound はプロジェクトが存在しない場合に返却されます。
	ErrProjectNotFound = errkind.Wrap(errkind.ErrNotFound, "project: not found")
	// ErrTaskNotFound はタスクが存在しない場合に返却されます。
	ErrTaskNotFound = errkind.Wrap(errkind.ErrNotFound, "project: task not found")
	// ErrManagerNotFound は指定されたマネージャーが存在しない場合に返却されます。
	ErrManagerNotFound = errkind.Wrap(errkind.ErrNotFound, "project: manager not found")
	// ErrClientNotFound は指定された取引先が存在しない場合に返却されます。
	ErrClientNotFound = errkind.Wrap(errkind.ErrNotFound, "project: client not found")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errkind.Wrap(errkind.ErrValidation, "project: invalid id")
	// ErrInvalidName は名称が不正な場合に返却されます。
	ErrInvalidName = errkind.Wrap(errkind.ErrValidation, "project: invalid name")
	// ErrInvalidStatus はステータスが不正な場合に返却されます。
	ErrInvalidStatus = errkind.Wrap(errkind.ErrValidation, "project: invalid status")
	// ErrInvalidSchedule は終了日が開始日より前の場合に返却されます。
	ErrInvalidSchedule = errkind.Wrap(errkind.ErrValidation, "project: end date precedes start date")
	// ErrProjectInUse は工数やタスクから参照されているプロジェクトの削除時に返却されます。
	ErrProjectInUse = errkind.Wrap(errkind.ErrConflict, "project: still referenced")
	// ErrTaskInUse は工数明細から参照されているタスクの削除時に返却されます。
	ErrTaskInUse = errkind.Wrap(errkind.ErrConflict, "project: task still referenced")
)
