package respond

import (
	"net/http"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"
)

// Status はエラー分類を HTTP ステータスとエラーコードに対応付けます。
func Status(err error) (int, string) {
	switch errkind.Of(err) {
	case errkind.ErrNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case errkind.ErrValidation:
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errkind.ErrBusinessRule:
		return http.StatusConflict, "BUSINESS_RULE_VIOLATION"
	case errkind.ErrConflict:
		return http.StatusConflict, "CONFLICT"
	case errkind.ErrUnauthenticated:
		return http.StatusUnauthorized, "UNAUTHENTICATED"
	case errkind.ErrForbidden:
		return http.StatusForbidden, "FORBIDDEN"
	case errkind.ErrStore:
		return http.StatusInternalServerError, "STORE_FAILURE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
