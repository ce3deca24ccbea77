package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// ErrReadOnlyTransaction は読み取り専用トランザクション内で書き込みを開始しようとした場合のエラーです。
var ErrReadOnlyTransaction = errors.New("postgres: read-write work requested inside a read-only transaction")

type txContextKey struct{}

// txState はコンテキストに載せるトランザクションとそのアクセスモードです。
type txState struct {
	tx       pgx.Tx
	readOnly bool
}

type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TransactionManager は pgx を用いたトランザクション制御を提供します。
// 集約の作成やカスケード削除など複数の文をまたぐ処理は必ずこの中で実行します。
type TransactionManager struct {
	pool     txStarter
	isoLevel pgx.TxIsoLevel
	log      zerolog.Logger
}

// Option は TransactionManager の挙動を調整します。
type Option func(*TransactionManager)

// WithIsolationLevel は読み書きトランザクションの分離レベルを設定します。
// 空文字はサーバーの既定値を使います。
func WithIsolationLevel(level string) Option {
	return func(m *TransactionManager) {
		m.isoLevel = ParseIsolationLevel(level)
	}
}

// WithLogger はロールバック失敗などを記録するロガーを設定します。
func WithLogger(log zerolog.Logger) Option {
	return func(m *TransactionManager) {
		m.log = log.With().Str("component", "tx").Logger()
	}
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(pool txStarter, opts ...Option) *TransactionManager {
	if pool == nil {
		return nil
	}
	m := &TransactionManager{pool: pool, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ParseIsolationLevel は設定値を pgx の分離レベルへ変換します。
func ParseIsolationLevel(level string) pgx.TxIsoLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "read_committed":
		return pgx.ReadCommitted
	case "repeatable_read":
		return pgx.RepeatableRead
	case "serializable":
		return pgx.Serializable
	default:
		return ""
	}
}

// WithinReadOnly は読み取り専用トランザクションを開始し、fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

// WithinReadWrite は読み書きトランザクションを開始し、fn を実行します。
// 既に読み書きトランザクションがあればそれに参加します。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, pgx.TxOptions{IsoLevel: m.isoLevel, AccessMode: pgx.ReadWrite}, fn)
}

func (m *TransactionManager) within(ctx context.Context, opts pgx.TxOptions, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("postgres: transaction function is required")
	}

	readOnly := opts.AccessMode == pgx.ReadOnly
	if current, ok := stateFromContext(ctx); ok {
		if current.readOnly && !readOnly {
			return ErrReadOnlyTransaction
		}
		return fn(ctx)
	}

	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				m.log.Error().Err(rbErr).Msg("rollback after panic failed")
			}
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txContextKey{}, txState{tx: tx, readOnly: readOnly})); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("postgres: rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func stateFromContext(ctx context.Context) (txState, bool) {
	if ctx == nil {
		return txState{}, false
	}
	st, ok := ctx.Value(txContextKey{}).(txState)
	return st, ok
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	st, ok := stateFromContext(ctx)
	return st.tx, ok
}

// InTransaction はコンテキストにトランザクションが紐づいているかを返します。
func InTransaction(ctx context.Context) bool {
	_, ok := stateFromContext(ctx)
	return ok
}

// QueryerFromContext はコンテキスト内にトランザクションが存在すればそれを返し、存在しなければ fallback を返します。
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// Queryer は pgx.Tx および pgxpool.Pool と互換性のあるクエリ実行インターフェースです。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
