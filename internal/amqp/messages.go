package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"walletstats/internal/core"
)

// LedgerChangedMessage announces that a user's ledger gained or lost transactions.
// Consumers only need the user; the full transactions stay in the ledger store.
type LedgerChangedMessage struct {
	MessageID  string    `json:"message_id,omitempty"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewLedgerChangedMessage(userID string, occurredAt time.Time) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		MessageID:  uuid.NewString(),
		UserID:     userID,
		OccurredAt: occurredAt.UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate rejects messages that cannot identify a user.
func (m *LedgerChangedMessage) Validate() error {
	if err := core.ValidateUserID(m.UserID); err != nil {
		return err
	}
	if m.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at is required", core.ErrInvalidInput)
	}
	return nil
}

// LedgerChangedMessageFromJSON decodes and validates a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: decode ledger change: %v", core.ErrInvalidInput, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
