// Package errkind はドメイン横断のエラー分類を定義します。
// 各ドメインパッケージのセンチネルエラーはいずれか一つの分類を %w で包みます。
package errkind

import "errors"

var (
	// ErrNotFound は参照先のレコードが存在しないことを表します。
	ErrNotFound = errors.New("not found")
	// ErrValidation は入力値が受け付けられないことを表します。
	ErrValidation = errors.New("validation failed")
	// ErrBusinessRule は現在の状態では操作が許可されないことを表します。
	ErrBusinessRule = errors.New("business rule violation")
	// ErrStore はストアへの到達や制約違反などの永続化失敗を表します。
	ErrStore = errors.New("store failure")
	// ErrConflict は一意制約違反です。ErrStore の一種として扱われます。
	ErrConflict = Wrap(ErrStore, "conflict")
	// ErrUnauthenticated は呼び出し元を認証できないことを表します。
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden は呼び出し元に権限がないことを表します。
	ErrForbidden = errors.New("forbidden")
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// Wrap は kind に分類される新しいセンチネルエラーを作ります。
// メッセージには kind の文言を含めません。
func Wrap(kind error, msg string) error {
	return &kindError{msg: msg, kind: kind}
}

// Of は err が属する分類を返します。該当しない場合は nil です。
// ErrConflict は ErrStore より先に判定します。
func Of(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrNotFound, ErrValidation, ErrBusinessRule, ErrConflict, ErrStore, ErrUnauthenticated, ErrForbidden} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Store はストア由来の予期しないエラーを ErrStore に分類します。
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &storeError{op: op, err: err}
}

type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string { return e.op + ": " + e.err.Error() }

func (e *storeError) Unwrap() []error { return []error{ErrStore, e.err} }
