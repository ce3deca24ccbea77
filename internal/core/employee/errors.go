package employee

import "github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"

var (
	ErrInvalidID          = errkind.Wrap(errkind.ErrValidation, "employee: invalid id")
	ErrInvalidEmail       = errkind.Wrap(errkind.ErrValidation, "employee: invalid email")
	ErrInvalidLastName    = errkind.Wrap(errkind.ErrValidation, "employee: invalid last name")
	ErrInvalidFirstName   = errkind.Wrap(errkind.ErrValidation, "employee: invalid first name")
	ErrInvalidManager     = errkind.Wrap(errkind.ErrValidation, "employee: employee cannot manage themselves")
	ErrInvalidPageSize    = errkind.Wrap(errkind.ErrValidation, "employee: invalid page size")
	ErrInvalidPageToken   = errkind.Wrap(errkind.ErrValidation, "employee: invalid page token")
	ErrEmployeeNotFound   = errkind.Wrap(errkind.ErrNotFound, "employee: not found")
	ErrDepartmentNotFound = errkind.Wrap(errkind.ErrNotFound, "employee: department not found")
	ErrManagerNotFound    = errkind.Wrap(errkind.ErrNotFound, "employee: manager not found")
	ErrEmailAlreadyExists = errkind.Wrap(errkind.ErrConflict, "employee: email already exists")
	ErrEmployeeReferenced = errkind.Wrap(errkind.ErrConflict, "employee: still referenced")
)
