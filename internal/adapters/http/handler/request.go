package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"
	"github.com/ogurasousui/codex-timesheet-api/internal/platform/auth"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 1 << 20
)

var (
	// ErrInvalidBody はリクエスト本文を JSON として解釈できないことを表します。
	ErrInvalidBody = errkind.Wrap(errkind.ErrValidation, "request: invalid body")
	// ErrInvalidPathParam はパスパラメータが正の整数でないことを表します。
	ErrInvalidPathParam = errkind.Wrap(errkind.ErrValidation, "request: invalid path parameter")
	// ErrInvalidQueryParam はクエリパラメータを解釈できないことを表します。
	ErrInvalidQueryParam = errkind.Wrap(errkind.ErrValidation, "request: invalid query parameter")
	// ErrNoPrincipal は認証済みの呼び出し元がコンテキストに無いことを表します。
	ErrNoPrincipal = errkind.Wrap(errkind.ErrUnauthenticated, "request: caller is not authenticated")
)

// Date は "2006-01-02" 形式の日付です。
type Date struct {
	time.Time
}

// MarshalJSON は日付部分のみを出力します。
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON は "2006-01-02" 形式の文字列を受け付けます。
func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("date %q must be formatted as %s", raw, dateLayout)
	}
	d.Time = parsed
	return nil
}

func toDate(t time.Time) Date {
	return Date{Time: t}
}

func toDatePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := Date{Time: *t}
	return &d
}

func fromDatePtr(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: body is required", ErrInvalidBody)
		}
		if kind := errkind.Of(err); kind != nil {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidPathParam, name, raw)
	}
	return id, nil
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be formatted as %s", ErrInvalidQueryParam, name, dateLayout)
	}
	return &t, nil
}

func queryID(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidQueryParam, name, raw)
	}
	return &id, nil
}

// queryPageSize は page_size を読み取ります。省略時は 0 を返し、既定値の判断はユースケースに任せます。
func queryPageSize(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("page_size"))
	if raw == "" {
		return 0, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: page_size=%q", ErrInvalidQueryParam, raw)
	}
	return size, nil
}

func queryString(r *http.Request, name string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	return &raw
}

func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		return auth.Principal{}, ErrNoPrincipal
	}
	return p, nil
}
