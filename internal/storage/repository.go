// Package storage implements the ledger store on SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"walletstats/internal/core"
	"walletstats/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ledger.Store  = (*SQLiteRepository)(nil)
	_ ledger.Writer = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// toCents converts an amount with at most two decimals to integer cents.
func toCents(amount decimal.Decimal) (int64, error) {
	if err := core.CheckAmountScale(amount); err != nil {
		return 0, err
	}
	return amount.Shift(core.AmountDecimals).IntPart(), nil
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Insert stores a transaction and returns its ID.
func (r *SQLiteRepository) Insert(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	cents, err := toCents(tx.Amount)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO wallet_transactions (wallet_id, user_id, source, amount_cents, type, category, description, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.WalletID, tx.UserID, tx.Source, cents, string(tx.Type), tx.Category, tx.Description, tx.Timestamp.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert transaction id: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"user_id", tx.UserID,
		"amount_cents", cents,
		"type", tx.Type)

	return id, nil
}

func (r *SQLiteRepository) SumAndCount(ctx context.Context, q ledger.Query) (core.Aggregate, error) {
	var b strings.Builder
	b.WriteString(`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*) FROM wallet_transactions
		WHERE user_id = ? AND occurred_at >= ? AND occurred_at < ?`)
	args := []any{q.UserID, q.Window.Start.UnixMilli(), q.Window.End.UnixMilli()}
	if q.Type != "" {
		b.WriteString(" AND type = ?")
		args = append(args, string(q.Type))
	}
	if q.Category != nil {
		b.WriteString(" AND category = ?")
		args = append(args, *q.Category)
	}

	var cents, count int64
	if err := r.db.QueryRowContext(ctx, b.String(), args...).Scan(&cents, &count); err != nil {
		return core.Aggregate{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.Aggregate{Sum: fromCents(cents), Count: count}, nil
}

func (r *SQLiteRepository) TopCategoriesBySum(ctx context.Context, userID string, typ core.TransactionType, w core.Window, limit int) ([]core.CategorySum, error) {
	if limit <= 0 {
		return []core.CategorySum{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) AS total FROM wallet_transactions
		 WHERE user_id = ? AND type = ? AND occurred_at >= ? AND occurred_at < ?
		 GROUP BY category
		 HAVING SUM(amount_cents) > 0
		 ORDER BY total DESC, category ASC
		 LIMIT ?`,
		userID, string(typ), w.Start.UnixMilli(), w.End.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("rank categories: %w", err)
	}
	return scanCategorySums(rows)
}

func (r *SQLiteRepository) SumByCategories(ctx context.Context, userID string, typ core.TransactionType, w core.Window, categories []string) ([]core.CategorySum, error) {
	if len(categories) == 0 {
		return []core.CategorySum{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(categories)), ",")
	args := []any{userID, string(typ), w.Start.UnixMilli(), w.End.UnixMilli()}
	for _, c := range categories {
		args = append(args, c)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) FROM wallet_transactions
		 WHERE user_id = ? AND type = ? AND occurred_at >= ? AND occurred_at < ?
		   AND category IN (`+placeholders+`)
		 GROUP BY category
		 ORDER BY category ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sum categories: %w", err)
	}
	return scanCategorySums(rows)
}

func scanCategorySums(rows *sql.Rows) ([]core.CategorySum, error) {
	defer rows.Close()
	out := []core.CategorySum{}
	for rows.Next() {
		var (
			category string
			cents    int64
		)
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, core.CategorySum{Category: category, Sum: fromCents(cents)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category sums: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, q ledger.ListQuery) ([]core.Transaction, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wallet_transactions WHERE user_id = ?`, q.UserID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	order := "DESC"
	if q.Order == ledger.OrderAsc {
		order = "ASC"
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, wallet_id, user_id, source, amount_cents, type, category, description, occurred_at
		 FROM wallet_transactions WHERE user_id = ?
		 ORDER BY occurred_at `+order+`, id `+order+`
		 LIMIT ? OFFSET ?`,
		q.UserID, q.PageSize, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			tx       core.Transaction
			cents    int64
			typ      string
			occurred int64
		)
		if err := rows.Scan(&tx.ID, &tx.WalletID, &tx.UserID, &tx.Source, &cents, &typ,
			&tx.Category, &tx.Description, &occurred); err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Amount = fromCents(cents)
		tx.Type = core.TransactionType(typ)
		tx.Timestamp = time.UnixMilli(occurred).UTC()
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, total, nil
}

// sqliteTimeLayout matches CURRENT_TIMESTAMP, the default of wallets.created_at.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// parseSQLiteTime reads a DATETIME column scanned as text. The driver may already
// have converted it to a time, which database/sql then formats as RFC 3339.
func parseSQLiteTime(s string) (time.Time, error) {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// InsertWallet stores a wallet and returns its ID.
func (r *SQLiteRepository) InsertWallet(ctx context.Context, w core.Wallet) (int64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	createdAt := w.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	active := 0
	if w.IsActive {
		active = 1
	}

	var (
		res sql.Result
		err error
	)
	if w.ID != 0 {
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO wallets (id, user_id, provider, source, label, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.UserID, w.Provider, w.Source, w.Label, active, createdAt.UTC().Format(sqliteTimeLayout))
	} else {
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO wallets (user_id, provider, source, label, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			w.UserID, w.Provider, w.Source, w.Label, active, createdAt.UTC().Format(sqliteTimeLayout))
	}
	if err != nil {
		return 0, fmt.Errorf("insert wallet: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert wallet id: %w", err)
	}

	slog.DebugContext(ctx, "Wallet saved to SQLite", "id", id, "user_id", w.UserID, "provider", w.Provider)
	return id, nil
}

func (r *SQLiteRepository) ListWallets(ctx context.Context, q ledger.ListQuery) ([]core.Wallet, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wallets WHERE user_id = ?`, q.UserID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wallets: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, provider, source, label, is_active, created_at
		 FROM wallets WHERE user_id = ?
		 ORDER BY id ASC
		 LIMIT ? OFFSET ?`,
		q.UserID, q.PageSize, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	out := []core.Wallet{}
	for rows.Next() {
		var (
			w         core.Wallet
			active    int64
			createdAt string
		)
		if err := rows.Scan(&w.ID, &w.UserID, &w.Provider, &w.Source, &w.Label, &active, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("scan wallet: %w", err)
		}
		if w.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
			return nil, 0, fmt.Errorf("scan wallet %d: %w", w.ID, err)
		}
		w.IsActive = active != 0
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate wallets: %w", err)
	}
	return out, total, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
