// Package memory is an in-process ledger used for development, tests and the
// memory backend.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"walletstats/internal/core"
	"walletstats/internal/ledger"
)

type Store struct {
	mu           sync.Mutex
	nextID       int64
	items        []core.Transaction
	nextWalletID int64
	wallets      []core.Wallet
}

var (
	_ ledger.Store  = (*Store)(nil)
	_ ledger.Writer = (*Store)(nil)
)

// New returns a store holding txs. Transactions without an ID get one assigned.
func New(txs ...core.Transaction) *Store {
	s := &Store{}
	for _, tx := range txs {
		s.add(tx)
	}
	return s
}

// Seed is the content of a seed file.
type Seed struct {
	Wallets      []core.Wallet
	Transactions []core.Transaction
}

// seedRecord is the on-disk shape of a seeded transaction.
type seedRecord struct {
	ID          int64           `json:"id"`
	WalletID    int64           `json:"walletId"`
	UserID      string          `json:"userId"`
	Source      string          `json:"source"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
}

type walletRecord struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Provider  string    `json:"provider"`
	Source    string    `json:"source"`
	Label     string    `json:"label"`
	IsActive  *bool     `json:"isActive"` // absent means active
	CreatedAt time.Time `json:"createdAt"`
}

type seedDocument struct {
	Wallets      []walletRecord `json:"wallets"`
	Transactions []seedRecord   `json:"transactions"`
}

// NewFromFile seeds a store from a seed file. An empty path yields an empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(), nil
	}
	seed, err := ReadSeedFile(path)
	if err != nil {
		return nil, err
	}
	s := New()
	ctx := context.Background()
	for i, w := range seed.Wallets {
		if _, err := s.InsertWallet(ctx, w); err != nil {
			return nil, fmt.Errorf("seed wallet %d: %w", i, err)
		}
	}
	for i, tx := range seed.Transactions {
		if _, err := s.Insert(ctx, tx); err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
	}
	return s, nil
}

// ReadSeedFile parses either a JSON array of transactions or an object with
// "wallets" and "transactions" arrays. Records are type-checked but not
// validated; inserting them validates.
func ReadSeedFile(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}

	var doc seedDocument
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &doc.Transactions)
	} else {
		err = json.Unmarshal(raw, &doc)
	}
	if err != nil {
		return Seed{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	seed := Seed{
		Wallets:      make([]core.Wallet, 0, len(doc.Wallets)),
		Transactions: make([]core.Transaction, 0, len(doc.Transactions)),
	}
	for _, r := range doc.Wallets {
		seed.Wallets = append(seed.Wallets, core.Wallet{
			ID:        r.ID,
			UserID:    r.UserID,
			Provider:  r.Provider,
			Source:    r.Source,
			Label:     r.Label,
			IsActive:  r.IsActive == nil || *r.IsActive,
			CreatedAt: r.CreatedAt,
		})
	}
	for i, r := range doc.Transactions {
		typ, err := core.ParseTransactionType(r.Type)
		if err != nil {
			return Seed{}, fmt.Errorf("seed record %d: %w", i, err)
		}
		seed.Transactions = append(seed.Transactions, core.Transaction{
			ID:          r.ID,
			WalletID:    r.WalletID,
			UserID:      r.UserID,
			Source:      r.Source,
			Amount:      r.Amount,
			Type:        typ,
			Category:    r.Category,
			Description: r.Description,
			Timestamp:   r.Timestamp,
		})
	}
	return seed, nil
}

// InsertWallet validates and stores a wallet, returning its ID. A zero CreatedAt
// is set to the current time.
func (s *Store) InsertWallet(ctx context.Context, w core.Wallet) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := w.Validate(); err != nil {
		return 0, err
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == 0 {
		s.nextWalletID++
		w.ID = s.nextWalletID
	} else if w.ID > s.nextWalletID {
		s.nextWalletID = w.ID
	}
	s.wallets = append(s.wallets, w)
	return w.ID, nil
}

// Insert validates and stores a transaction, returning its ID.
func (s *Store) Insert(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(tx), nil
}

func (s *Store) add(tx core.Transaction) int64 {
	if tx.ID == 0 {
		s.nextID++
		tx.ID = s.nextID
	} else if tx.ID > s.nextID {
		s.nextID = tx.ID
	}
	s.items = append(s.items, tx)
	return tx.ID
}

func (s *Store) SumAndCount(ctx context.Context, q ledger.Query) (core.Aggregate, error) {
	if err := ctx.Err(); err != nil {
		return core.Aggregate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	agg := core.Aggregate{Sum: decimal.Zero}
	for _, tx := range s.items {
		if tx.UserID != q.UserID || !q.Window.Contains(tx.Timestamp) {
			continue
		}
		if q.Type != "" && tx.Type != q.Type {
			continue
		}
		if q.Category != nil && tx.Category != *q.Category {
			continue
		}
		agg.Sum = agg.Sum.Add(tx.Amount)
		agg.Count++
	}
	return agg, nil
}

func (s *Store) TopCategoriesBySum(ctx context.Context, userID string, typ core.TransactionType, w core.Window, limit int) ([]core.CategorySum, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []core.CategorySum{}, nil
	}
	out := s.sums(userID, typ, w, nil)
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Sum.Cmp(out[j].Sum); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})

	ranked := out[:0]
	for _, cs := range out {
		if cs.Sum.IsPositive() {
			ranked = append(ranked, cs)
		}
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *Store) SumByCategories(ctx context.Context, userID string, typ core.TransactionType, w core.Window, categories []string) ([]core.CategorySum, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return []core.CategorySum{}, nil
	}
	want := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		want[c] = struct{}{}
	}
	out := s.sums(userID, typ, w, want)
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// sums groups matching transactions by category, restricted to only when non-nil.
func (s *Store) sums(userID string, typ core.TransactionType, w core.Window, only map[string]struct{}) []core.CategorySum {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := map[string]decimal.Decimal{}
	for _, tx := range s.items {
		if tx.UserID != userID || tx.Type != typ || !w.Contains(tx.Timestamp) {
			continue
		}
		if only != nil {
			if _, ok := only[tx.Category]; !ok {
				continue
			}
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
	}
	out := make([]core.CategorySum, 0, len(totals))
	for c, sum := range totals {
		out = append(out, core.CategorySum{Category: c, Sum: sum})
	}
	return out
}

func (s *Store) ListTransactions(ctx context.Context, q ledger.ListQuery) ([]core.Transaction, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	var mine []core.Transaction
	for _, tx := range s.items {
		if tx.UserID == q.UserID {
			mine = append(mine, tx)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(mine, func(i, j int) bool {
		a, b := mine[i], mine[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			if q.Order == ledger.OrderAsc {
				return a.Timestamp.Before(b.Timestamp)
			}
			return a.Timestamp.After(b.Timestamp)
		}
		if q.Order == ledger.OrderAsc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	total := int64(len(mine))
	off := q.Offset()
	if off >= len(mine) {
		return []core.Transaction{}, total, nil
	}
	end := len(mine)
	if q.PageSize > 0 && off+q.PageSize < end {
		end = off + q.PageSize
	}
	return mine[off:end], total, nil
}

func (s *Store) ListWallets(ctx context.Context, q ledger.ListQuery) ([]core.Wallet, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	var mine []core.Wallet
	for _, w := range s.wallets {
		if w.UserID == q.UserID {
			mine = append(mine, w)
		}
	}
	s.mu.Unlock()

	sort.Slice(mine, func(i, j int) bool { return mine[i].ID < mine[j].ID })

	total := int64(len(mine))
	off := q.Offset()
	if off >= len(mine) {
		return []core.Wallet{}, total, nil
	}
	end := len(mine)
	if q.PageSize > 0 && off+q.PageSize < end {
		end = off + q.PageSize
	}
	return mine[off:end], total, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
