// Package respond は JSON レスポンスとエラー本文の書き出しをまとめます。
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"
)

// ErrorBody はエラーレスポンスの本文です。
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail はエラーの分類コードとメッセージです。
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON は v を JSON としてステータス付きで書き出します。
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	// ヘッダ送信後のため失敗しても書き直せない
	_ = json.NewEncoder(w).Encode(v)
}

// NoContent は 204 を返します。
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error は err を分類に応じたステータスとエラー本文に変換して書き出します。
// 500 系の詳細はログにのみ残し、本文には含めません。
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Status(err)
	message := err.Error()

	logger := hlog.FromRequest(r)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", code).Msg("request failed")
		message = http.StatusText(status)
	} else {
		logger.Debug().Err(err).Str("code", code).Int("status", status).Msg("request rejected")
	}

	JSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}
