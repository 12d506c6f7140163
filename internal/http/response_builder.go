package http

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"walletstats/internal/core"
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	PageCount int64 `json:"pageCount"`
}

// NewPagination derives PageCount from total and pageSize.
func NewPagination(page, pageSize int, total int64) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.PageCount = int64(math.Ceil(float64(total) / float64(pageSize)))
	}
	return p
}

type Meta struct {
	Pagination Pagination `json:"pagination"`
}

// Envelope wraps every successful response body.
type Envelope struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// reportEnvelope is the fixed envelope of a stats report, which is not paginated.
func reportEnvelope(report core.StatsReport) Envelope {
	return Envelope{Data: report, Meta: Meta{Pagination: NewPagination(1, 10, 0)}}
}

type messageBody struct {
	Message string `json:"message"`
}

const (
	msgUserIDRequired = "User ID is required"
	msgInternal       = "Internal server error"
)

// statusFor maps an engine error to its HTTP status and public message. Details
// never reach the client.
func statusFor(err error) (int, string) {
	if errors.Is(err, core.ErrInvalidInput) {
		return http.StatusBadRequest, msgUserIDRequired
	}
	return http.StatusInternalServerError, msgInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"message":"` + msgInternal + `"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageBody{Message: message})
}

func writeError(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	writeMessage(w, status, message)
}
