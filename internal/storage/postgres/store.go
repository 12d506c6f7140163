// Package postgres implements the ledger store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"

	"walletstats/internal/core"
	"walletstats/internal/ledger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	db *sql.DB
}

var (
	_ ledger.Store  = (*Store)(nil)
	_ ledger.Writer = (*Store)(nil)
)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// RunMigrations brings the schema behind db up to date.
func RunMigrations(db *sql.DB) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", d, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Insert stores a transaction and returns its ID. Validate rejects amounts with
// more than two decimals, which the NUMERIC(14,2) column would round.
func (p *Store) Insert(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	const query = `INSERT INTO wallet_transactions (wallet_id, user_id, source, amount, type, category, description, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	var id int64
	err := p.db.QueryRowContext(ctx, query,
		tx.WalletID, tx.UserID, tx.Source, tx.Amount, string(tx.Type), tx.Category, tx.Description, tx.Timestamp).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (p *Store) SumAndCount(ctx context.Context, q ledger.Query) (core.Aggregate, error) {
	var b strings.Builder
	b.WriteString(`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM wallet_transactions
	WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3`)
	args := []any{q.UserID, q.Window.Start, q.Window.End}
	if q.Type != "" {
		args = append(args, string(q.Type))
		b.WriteString(" AND type = $" + strconv.Itoa(len(args)))
	}
	if q.Category != nil {
		args = append(args, *q.Category)
		b.WriteString(" AND category = $" + strconv.Itoa(len(args)))
	}

	var agg core.Aggregate
	if err := p.db.QueryRowContext(ctx, b.String(), args...).Scan(&agg.Sum, &agg.Count); err != nil {
		return core.Aggregate{}, fmt.Errorf("sum transactions: %w", err)
	}
	return agg, nil
}

func (p *Store) TopCategoriesBySum(ctx context.Context, userID string, typ core.TransactionType, w core.Window, limit int) ([]core.CategorySum, error) {
	if limit <= 0 {
		return []core.CategorySum{}, nil
	}
	// COLLATE "C" keeps tie-breaking byte-ordered like the other stores.
	const query = `SELECT category, SUM(amount) AS total FROM wallet_transactions
	WHERE user_id = $1 AND type = $2 AND occurred_at >= $3 AND occurred_at < $4
	GROUP BY category
	HAVING SUM(amount) > 0
	ORDER BY total DESC, category COLLATE "C" ASC
	LIMIT $5`

	rows, err := p.db.QueryContext(ctx, query, userID, string(typ), w.Start, w.End, limit)
	if err != nil {
		return nil, fmt.Errorf("rank categories: %w", err)
	}
	return scanCategorySums(rows)
}

func (p *Store) SumByCategories(ctx context.Context, userID string, typ core.TransactionType, w core.Window, categories []string) ([]core.CategorySum, error) {
	if len(categories) == 0 {
		return []core.CategorySum{}, nil
	}
	const query = `SELECT category, SUM(amount) FROM wallet_transactions
	WHERE user_id = $1 AND type = $2 AND occurred_at >= $3 AND occurred_at < $4
	  AND category = ANY($5)
	GROUP BY category
	ORDER BY category COLLATE "C" ASC`

	rows, err := p.db.QueryContext(ctx, query, userID, string(typ), w.Start, w.End, pq.Array(categories))
	if err != nil {
		return nil, fmt.Errorf("sum categories: %w", err)
	}
	return scanCategorySums(rows)
}

func scanCategorySums(rows *sql.Rows) ([]core.CategorySum, error) {
	defer rows.Close()
	out := []core.CategorySum{}
	for rows.Next() {
		var cs core.CategorySum
		if err := rows.Scan(&cs.Category, &cs.Sum); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category sums: %w", err)
	}
	return out, nil
}

func (p *Store) ListTransactions(ctx context.Context, q ledger.ListQuery) ([]core.Transaction, int64, error) {
	var total int64
	if err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wallet_transactions WHERE user_id = $1`, q.UserID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	order := "DESC"
	if q.Order == ledger.OrderAsc {
		order = "ASC"
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, wallet_id, user_id, source, amount, type, category, description, occurred_at
		FROM wallet_transactions WHERE user_id = $1
		ORDER BY occurred_at `+order+`, id `+order+`
		LIMIT $2 OFFSET $3`,
		q.UserID, q.PageSize, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			tx  core.Transaction
			typ string
		)
		if err := rows.Scan(&tx.ID, &tx.WalletID, &tx.UserID, &tx.Source, &tx.Amount, &typ,
			&tx.Category, &tx.Description, &tx.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TransactionType(typ)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, total, nil
}

// InsertWallet stores a wallet and returns its ID.
func (p *Store) InsertWallet(ctx context.Context, w core.Wallet) (int64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	createdAt := w.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int64
	var err error
	if w.ID != 0 {
		err = p.db.QueryRowContext(ctx,
			`INSERT INTO wallets (id, user_id, provider, source, label, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			w.ID, w.UserID, w.Provider, w.Source, w.Label, w.IsActive, createdAt).Scan(&id)
		if err == nil {
			// Explicit IDs bypass the sequence; move it past them.
			_, err = p.db.ExecContext(ctx,
				`SELECT setval(pg_get_serial_sequence('wallets', 'id'), (SELECT MAX(id) FROM wallets))`)
		}
	} else {
		err = p.db.QueryRowContext(ctx,
			`INSERT INTO wallets (user_id, provider, source, label, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			w.UserID, w.Provider, w.Source, w.Label, w.IsActive, createdAt).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("insert wallet: %w", err)
	}
	return id, nil
}

func (p *Store) ListWallets(ctx context.Context, q ledger.ListQuery) ([]core.Wallet, int64, error) {
	var total int64
	if err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wallets WHERE user_id = $1`, q.UserID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wallets: %w", err)
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT id, user_id, provider, source, label, is_active, created_at
		FROM wallets WHERE user_id = $1
		ORDER BY id ASC
		LIMIT $2 OFFSET $3`,
		q.UserID, q.PageSize, q.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	out := []core.Wallet{}
	for rows.Next() {
		var w core.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Provider, &w.Source, &w.Label, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan wallet: %w", err)
		}
		w.CreatedAt = w.CreatedAt.UTC()
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate wallets: %w", err)
	}
	return out, total, nil
}

func (p *Store) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
