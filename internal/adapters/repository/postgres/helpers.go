package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/codex-timesheet-api/internal/core/errkind"
	pgdb "github.com/ogurasousui/codex-timesheet-api/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// pgErrorMapping は PostgreSQL のエラーをドメインのセンチネルエラーへ対応付けます。
// 制約名が見つからない場合は空文字キーの値を使います。
type pgErrorMapping struct {
	notFound   error
	unique     map[string]error
	foreignKey map[string]error
	check      map[string]error
}

func (m pgErrorMapping) translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) && m.notFound != nil {
		return m.notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			if mapped := lookupConstraint(m.unique, pgErr.ConstraintName); mapped != nil {
				return mapped
			}
			return fmt.Errorf("%s: %w: %s", op, errkind.ErrConflict, pgErr.ConstraintName)
		case foreignKeyViolationCode:
			if mapped := lookupConstraint(m.foreignKey, pgErr.ConstraintName); mapped != nil {
				return mapped
			}
		case checkViolationCode:
			if mapped := lookupConstraint(m.check, pgErr.ConstraintName); mapped != nil {
				return mapped
			}
		}
	}

	return errkind.Store(op, err)
}

func lookupConstraint(m map[string]error, constraint string) error {
	if m == nil {
		return nil
	}
	if mapped, ok := m[constraint]; ok {
		return mapped
	}
	return m[""]
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return truncateDate(*value)
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	d := truncateDate(value.Time.UTC())
	return &d
}

func timePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time
	return &t
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func int64Ptr(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}

func exists(ctx context.Context, exec pgdb.Queryer, op, query string, args ...any) (bool, error) {
	var ok bool
	if err := exec.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, errkind.Store(op, err)
	}
	return ok, nil
}
