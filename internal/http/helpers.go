package http

import (
	"encoding/json"
	"time"

	"walletstats/internal/core"
)

// transactionJSON is a ledger row as the listing returns it.
type transactionJSON struct {
	ID          int64       `json:"id"`
	WalletID    int64       `json:"wallet_id"`
	UserID      string      `json:"user_id"`
	Source      string      `json:"source"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Timestamp   time.Time   `json:"timestamp"`
}

func toTransactionJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionJSON{
			ID:          tx.ID,
			WalletID:    tx.WalletID,
			UserID:      tx.UserID,
			Source:      tx.Source,
			Amount:      json.Number(tx.Amount.StringFixed(2)),
			Type:        tx.Type.String(),
			Category:    tx.Category,
			Description: tx.Description,
			Timestamp:   tx.Timestamp.UTC(),
		})
	}
	return out
}

type walletJSON struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Provider  string    `json:"provider"`
	Source    string    `json:"source"`
	Label     string    `json:"label"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toWalletJSON(wallets []core.Wallet) []walletJSON {
	out := make([]walletJSON, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, walletJSON{
			ID:        w.ID,
			UserID:    w.UserID,
			Provider:  w.Provider,
			Source:    w.Source,
			Label:     w.Label,
			IsActive:  w.IsActive,
			CreatedAt: w.CreatedAt.UTC(),
		})
	}
	return out
}
