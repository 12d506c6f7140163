package http

import (
	"context"
	"net/http"

	"walletstats/internal/core"
	applog "walletstats/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports whether the ledger store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.slogger.LogError(ctx, "Ledger store not ready", err, applog.ErrorTypeCollaborator, applog.OpReadyCheck, nil)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleStats serves the month-over-month report, from the cache when possible.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDParam(r)
	if err := core.ValidateUserID(userID); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Rejected stats request", applog.FieldError, err, applog.FieldOperation, applog.OpParseRequest)
		writeError(w, err)
		return
	}

	if s.cache != nil {
		if report, ok := s.cache.Get(userID, core.MonthWindow(s.reports.Now())); ok {
			writeJSON(w, http.StatusOK, reportEnvelope(report))
			return
		}
	}

	// The service logs its own failures.
	report, err := s.reports.Report(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	if s.cache != nil {
		s.cache.Set(userID, report)
	}
	writeJSON(w, http.StatusOK, reportEnvelope(report))
}

// handleTransactions serves one page of the user's transactions.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDParam(r)
	if err := core.ValidateUserID(userID); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Rejected transactions request", applog.FieldError, err, applog.FieldOperation, applog.OpParseRequest)
		writeError(w, err)
		return
	}

	q := ParseListQuery(userID, r.URL.Query(), defaultTransactionPageSize)
	txs, total, err := s.store.ListTransactions(ctx, q)
	if err != nil {
		fields := applog.NewFields()
		fields[applog.FieldUserID] = userID
		s.slogger.LogError(ctx, "Failed to list transactions", err, applog.ErrorTypeCollaborator, applog.OpList, fields)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Data: toTransactionJSON(txs),
		Meta: Meta{Pagination: NewPagination(q.Page, q.PageSize, total)},
	})
}

// handleWallets serves one page of the user's wallets.
func (s *Server) handleWallets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDParam(r)
	if err := core.ValidateUserID(userID); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Rejected wallets request", applog.FieldError, err, applog.FieldOperation, applog.OpParseRequest)
		writeError(w, err)
		return
	}

	q := ParseListQuery(userID, r.URL.Query(), defaultWalletPageSize)
	wallets, total, err := s.store.ListWallets(ctx, q)
	if err != nil {
		fields := applog.NewFields()
		fields[applog.FieldUserID] = userID
		s.slogger.LogError(ctx, "Failed to list wallets", err, applog.ErrorTypeCollaborator, applog.OpList, fields)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Data: toWalletJSON(wallets),
		Meta: Meta{Pagination: NewPagination(q.Page, q.PageSize, total)},
	})
}
