package department

import "github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"

var (
	// ErrDepartmentNotFound は部署が存在しない場合に返却されます。
	ErrDepartmentNotFound = errkind.Wrap(errkind.ErrNotFound, "department: not found")
	// ErrNameAlreadyExists は部署名重複時に返却されます。
	ErrNameAlreadyExists = errkind.Wrap(errkind.ErrConflict, "department: name already exists")
	// ErrDepartmentInUse は所属社員がいる部署を削除しようとした場合に返却されます。
	ErrDepartmentInUse = errkind.Wrap(errkind.ErrConflict, "department: still has employees")
	// ErrInvalidName は部署名が不正な場合に返却されます。
	ErrInvalidName = errkind.Wrap(errkind.ErrValidation, "department: invalid name")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errkind.Wrap(errkind.ErrValidation, "department: invalid id")
)
