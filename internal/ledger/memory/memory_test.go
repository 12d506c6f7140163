package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"walletstats/internal/core"
	"walletstats/internal/ledger"
)

var jan = core.MonthWindow(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))

func tx(user string, typ core.TransactionType, amount, category string, day int) core.Transaction {
	return core.Transaction{
		UserID:    user,
		Amount:    decimal.RequireFromString(amount),
		Type:      typ,
		Category:  category,
		Timestamp: time.Date(2025, 1, day, 12, 0, 0, 0, time.UTC),
	}
}

func TestSumAndCountFilters(t *testing.T) {
	s := New(
		tx("1", core.Debit, "10.50", "food", 2),
		tx("1", core.Debit, "4.50", "food", 3),
		tx("1", core.Credit, "100", "salary", 1),
		tx("2", core.Debit, "99", "food", 2),
		core.Transaction{UserID: "1", Amount: decimal.NewFromInt(7), Type: core.Debit, Category: "food",
			Timestamp: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
	)
	ctx := context.Background()

	agg, err := s.SumAndCount(ctx, ledger.Query{UserID: "1", Type: core.Debit, Window: jan})
	if err != nil {
		t.Fatalf("SumAndCount: %v", err)
	}
	if !agg.Sum.Equal(decimal.RequireFromString("15")) || agg.Count != 2 {
		t.Fatalf("debit aggregate = %v/%d", agg.Sum, agg.Count)
	}

	all, _ := s.SumAndCount(ctx, ledger.Query{UserID: "1", Window: jan})
	if all.Count != 3 {
		t.Fatalf("count all types = %d, want 3", all.Count)
	}

	none, _ := s.SumAndCount(ctx, ledger.Query{UserID: "nobody", Window: jan})
	if !none.Sum.IsZero() || none.Count != 0 {
		t.Fatalf("expected zero aggregate, got %v", none)
	}

	cat := "salary"
	one, _ := s.SumAndCount(ctx, ledger.Query{UserID: "1", Category: &cat, Window: jan})
	if one.Count != 1 {
		t.Fatalf("category filter count = %d", one.Count)
	}
}

func TestTopCategoriesBySumRanksAndLimits(t *testing.T) {
	s := New(
		tx("1", core.Debit, "30", "food", 2),
		tx("1", core.Debit, "30", "books", 2),
		tx("1", core.Debit, "50", "rent", 2),
		tx("1", core.Debit, "5", "", 2),
		tx("1", core.Credit, "500", "salary", 2),
	)
	got, err := s.TopCategoriesBySum(context.Background(), "1", core.Debit, jan, 3)
	if err != nil {
		t.Fatalf("TopCategoriesBySum: %v", err)
	}
	want := []string{"rent", "books", "food"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i, name := range want {
		if got[i].Category != name {
			t.Fatalf("rank %d = %q, want %q (%v)", i, got[i].Category, name, got)
		}
	}
}

func TestSumByCategoriesOmitsMissing(t *testing.T) {
	s := New(tx("1", core.Debit, "12", "food", 4), tx("1", core.Debit, "3", "fun", 4))
	got, err := s.SumByCategories(context.Background(), "1", core.Debit, jan, []string{"food", "travel"})
	if err != nil {
		t.Fatalf("SumByCategories: %v", err)
	}
	if len(got) != 1 || got[0].Category != "food" {
		t.Fatalf("unexpected sums %v", got)
	}
}

func TestListTransactionsPaginates(t *testing.T) {
	var txs []core.Transaction
	for day := 1; day <= 7; day++ {
		txs = append(txs, tx("1", core.Debit, "1", "x", day))
	}
	s := New(txs...)

	page, total, err := s.ListTransactions(context.Background(), ledger.ListQuery{UserID: "1", Page: 2, PageSize: 3, Order: ledger.OrderDesc})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if total != 7 || len(page) != 3 {
		t.Fatalf("total=%d len=%d", total, len(page))
	}
	if page[0].Timestamp.Day() != 4 {
		t.Fatalf("first of page 2 desc = day %d", page[0].Timestamp.Day())
	}

	page, _, _ = s.ListTransactions(context.Background(), ledger.ListQuery{UserID: "1", Page: 3, PageSize: 3, Order: ledger.OrderAsc})
	if len(page) != 1 || page[0].Timestamp.Day() != 7 {
		t.Fatalf("last asc page = %v", page)
	}

	page, _, _ = s.ListTransactions(context.Background(), ledger.ListQuery{UserID: "1", Page: 9, PageSize: 3})
	if len(page) != 0 {
		t.Fatalf("expected empty page")
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	seed := `[
  {"userId":"1","amount":"12.30","type":"debit","category":"food","timestamp":"2025-01-03T10:00:00Z"},
  {"userId":"1","amount":1000,"type":"CREDIT","category":"salary","timestamp":"2025-01-01T09:00:00Z"}
]`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	agg, _ := s.SumAndCount(context.Background(), ledger.Query{UserID: "1", Window: jan})
	if agg.Count != 2 || !agg.Sum.Equal(decimal.RequireFromString("1012.30")) {
		t.Fatalf("seeded aggregate = %v/%d", agg.Sum, agg.Count)
	}

	if err := os.WriteFile(path, []byte(`[{"userId":"1","amount":"-1","type":"debit","timestamp":"2025-01-01T00:00:00Z"}]`), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected invalid amount to be rejected")
	}

	empty, err := NewFromFile("")
	if err != nil || empty == nil {
		t.Fatalf("empty path: %v", err)
	}
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().SumAndCount(ctx, ledger.Query{UserID: "1", Window: jan}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestInsertAssignsIDsAndValidates(t *testing.T) {
	s := New(core.Transaction{ID: 40, UserID: "1", Amount: decimal.NewFromInt(1), Type: core.Credit, Timestamp: jan.Start})
	ctx := context.Background()

	id, err := s.Insert(ctx, tx("1", core.Debit, "3.00", "food", 3))
	if err != nil || id != 41 {
		t.Fatalf("Insert = %d, %v; want 41", id, err)
	}

	bad := tx("1", core.Debit, "-3.00", "food", 3)
	if _, err := s.Insert(ctx, bad); err == nil {
		t.Fatalf("negative amount accepted")
	}
	subCent := tx("1", core.Debit, "3.005", "food", 3)
	if _, err := s.Insert(ctx, subCent); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("sub-cent amount: got %v, want ErrInvalidAmount", err)
	}

	agg, err := s.SumAndCount(ctx, ledger.Query{UserID: "1", Window: jan})
	if err != nil || agg.Count != 2 {
		t.Fatalf("count = %d, %v; want 2", agg.Count, err)
	}
}

func wallet(user, label string) core.Wallet {
	return core.Wallet{UserID: user, Provider: "bank", Source: "acct-" + label, Label: label, IsActive: true}
}

func TestListWalletsPaginates(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, label := range []string{"a", "b", "c", "d"} {
		if _, err := s.InsertWallet(ctx, wallet("1", label)); err != nil {
			t.Fatalf("InsertWallet: %v", err)
		}
	}
	if _, err := s.InsertWallet(ctx, wallet("2", "other")); err != nil {
		t.Fatalf("InsertWallet: %v", err)
	}

	page, total, err := s.ListWallets(ctx, ledger.ListQuery{UserID: "1", Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("ListWallets: %v", err)
	}
	if total != 4 || len(page) != 1 || page[0].Label != "d" {
		t.Fatalf("page 2 = %v (total %d)", page, total)
	}
	if page[0].CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}

	page, _, _ = s.ListWallets(ctx, ledger.ListQuery{UserID: "1", Page: 1, PageSize: 10, Order: ledger.OrderDesc})
	if len(page) != 4 || page[0].Label != "a" {
		t.Fatalf("wallets must be listed in ID order regardless of Order: %v", page)
	}

	page, total, _ = s.ListWallets(ctx, ledger.ListQuery{UserID: "nobody", Page: 1, PageSize: 10})
	if total != 0 || len(page) != 0 {
		t.Fatalf("expected no wallets, got %v", page)
	}

	if _, err := s.InsertWallet(ctx, core.Wallet{UserID: "1", Provider: "bank"}); !errors.Is(err, core.ErrInvalidWallet) {
		t.Fatalf("incomplete wallet: got %v", err)
	}
}

func TestNewFromFileWithWallets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `{
  "wallets": [
    {"id":7,"userId":"1","provider":"bank","source":"IT60X","label":"Main","createdAt":"2025-01-01T00:00:00Z"},
    {"userId":"1","provider":"card","source":"4242","label":"Travel","isActive":false}
  ],
  "transactions": [
    {"walletId":7,"userId":"1","amount":"9.99","type":"debit","category":"food","timestamp":"2025-01-03T10:00:00Z"}
  ]
}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	wallets, total, err := s.ListWallets(context.Background(), ledger.ListQuery{UserID: "1", Page: 1, PageSize: 10})
	if err != nil || total != 2 {
		t.Fatalf("ListWallets = %d, %v", total, err)
	}
	if wallets[0].ID != 7 || !wallets[0].IsActive || wallets[1].ID != 8 || wallets[1].IsActive {
		t.Fatalf("unexpected wallets %+v", wallets)
	}

	agg, _ := s.SumAndCount(context.Background(), ledger.Query{UserID: "1", Window: jan})
	if agg.Count != 1 {
		t.Fatalf("seeded transactions = %d, want 1", agg.Count)
	}
}
