package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"walletstats/internal/ledger"
)

const (
	defaultPage                = 1
	defaultTransactionPageSize = 5
	defaultWalletPageSize      = 10
	maxPageSize                = 100
)

// userIDParam returns the {userID} path segment decoded once. chi matches on the
// decoded path unless the request carried an escaped form that differs from it.
func userIDParam(r *http.Request) string {
	raw := chi.URLParam(r, "userID")
	if r.URL.RawPath == "" {
		return raw
	}
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

// ParseListQuery reads page, pageSize and orderBy. Missing or malformed values
// fall back to page 1, pageSize per page, newest first; pageSize is capped at 100.
func ParseListQuery(userID string, query url.Values, pageSize int) ledger.ListQuery {
	q := ledger.ListQuery{
		UserID:   userID,
		Page:     positiveInt(query.Get("page"), defaultPage),
		PageSize: positiveInt(query.Get("pageSize"), pageSize),
		Order:    ledger.ParseOrder(query.Get("orderBy")),
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q
}

func positiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
