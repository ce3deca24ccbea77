package client

import "github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"

var (
	// ErrClientNotFound は取引先が存在しない場合に返却されます。
	ErrClientNotFound = errkind.Wrap(errkind.ErrNotFound, "client: not found")
	// ErrCodeAlreadyExists はコード重複時に返却されます。
	ErrCodeAlreadyExists = errkind.Wrap(errkind.ErrConflict, "client: code already exists")
	// ErrClientInUse はプロジェクトから参照されている取引先の削除時に返却されます。
	ErrClientInUse = errkind.Wrap(errkind.ErrConflict, "client: still referenced")
	// ErrInvalidName は取引先名が不正な場合に返却されます。
	ErrInvalidName = errkind.Wrap(errkind.ErrValidation, "client: invalid name")
	// ErrInvalidCode は取引先コードが不正な場合に返却されます。
	ErrInvalidCode = errkind.Wrap(errkind.ErrValidation, "client: invalid code")
	// ErrInvalidEmail は連絡先メールアドレスが不正な場合に返却されます。
	ErrInvalidEmail = errkind.Wrap(errkind.ErrValidation, "client: invalid contact email")
	// ErrInvalidStatus はステータスが不正な場合に返却されます。
	ErrInvalidStatus = errkind.Wrap(errkind.ErrValidation, "client: invalid status")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errkind.Wrap(errkind.ErrValidation, "client: invalid id")
	// ErrInvalidPageSize は一覧取得時のページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = errkind.Wrap(errkind.ErrValidation, "client: invalid page size")
	// ErrInvalidPageToken は一覧取得時のページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = errkind.Wrap(errkind.ErrValidation, "client: invalid page token")
)
