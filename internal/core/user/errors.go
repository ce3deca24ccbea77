package user

import "github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"

var (
	// ErrUserNotFound はアカウントが存在しない場合に返却されます。
	ErrUserNotFound = errkind.Wrap(errkind.ErrNotFound, "user: not found")
	// ErrEmployeeNotFound は紐付け先の社員が存在しない場合に返却されます。
	ErrEmployeeNotFound = errkind.Wrap(errkind.ErrNotFound, "user: employee not found")
	// ErrUsernameAlreadyExists はユーザー名重複時に返却されます。
	ErrUsernameAlreadyExists = errkind.Wrap(errkind.ErrConflict, "user: username already exists")
	// ErrInvalidUsername はユーザー名が不正な場合に返却されます。
	ErrInvalidUsername = errkind.Wrap(errkind.ErrValidation, "user: invalid username")
	// ErrWeakPassword はパスワードが短すぎる場合に返却されます。
	ErrWeakPassword = errkind.Wrap(errkind.ErrValidation, "user: password must be at least 8 characters")
	// ErrInvalidRole はロールが不正な場合に返却されます。
	ErrInvalidRole = errkind.Wrap(errkind.ErrValidation, "user: invalid role")
	// ErrInvalidStatus はステータスが不正な場合に返却されます。
	ErrInvalidStatus = errkind.Wrap(errkind.ErrValidation, "user: invalid status")
	// ErrInvalidID はIDが不正な場合に返却されます。
	ErrInvalidID = errkind.Wrap(errkind.ErrValidation, "user: invalid id")
	// ErrInvalidCredentials は認証失敗時に返却されます。原因は区別しません。
	ErrInvalidCredentials = errkind.Wrap(errkind.ErrUnauthenticated, "user: invalid username or password")
)
