package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"walletstats/internal/config"
	"walletstats/internal/ledger"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range Types() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Error("sheets should not be a valid backend")
	}
	if got := TypeNames(); len(got) != 3 || got[0] != "memory" {
		t.Errorf("TypeNames() = %v", got)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", PostgresDSN: "postgres://x"})
	if err != nil {
		t.Fatalf("FromAppConfig() = %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.PostgresDSN != "postgres://x" {
		t.Errorf("unexpected backend config: %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory without seed", Config{Type: MemoryBackend}, false},
		{"sqlite with path", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"unknown type", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateMemoryBackend(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	body := `[{"userId":"u1","amount":"12.50","type":"debit","category":"food","timestamp":"2025-01-10T10:00:00Z"}]`
	if err := os.WriteFile(seed, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, MemorySeedFile: seed})
	if err != nil {
		t.Fatalf("CreateBackend() = %v", err)
	}
	defer res.Close()

	if err := res.Backend.Ping(context.Background()); err != nil {
		t.Errorf("Ping() = %v", err)
	}
	if _, total, err := res.Backend.ListTransactions(context.Background(), ledger.ListQuery{UserID: "u1", Page: 1, PageSize: 10, Order: ledger.OrderDesc}); err != nil || total != 1 {
		t.Errorf("ListTransactions total = %d, %v; want 1", total, err)
	}
}

func TestFactory_CreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walletstats.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend() = %v", err)
	}
	if err := res.Backend.Ping(context.Background()); err != nil {
		t.Errorf("Ping() = %v", err)
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestFactory_RejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: PostgresBackend}); err == nil {
		t.Error("expected error for postgres without DSN")
	}
}
