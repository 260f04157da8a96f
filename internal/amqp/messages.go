package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"weekbudget/internal/core"
)

var ErrInvalidMessage = errors.New("invalid week archived message")

// WeekArchivedMessage is published once a week has been closed and added to
// the history. It carries the full summary so consumers need no access to the
// ledger's store.
type WeekArchivedMessage struct {
	WeekID    string           `json:"weekId"`
	Summary   core.WeekSummary `json:"summary"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewWeekArchivedMessage(summary core.WeekSummary, at time.Time) *WeekArchivedMessage {
	return &WeekArchivedMessage{
		WeekID:    summary.ID,
		Summary:   summary,
		Timestamp: at.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *WeekArchivedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate checks that the message names a well-formed week matching its summary.
func (m *WeekArchivedMessage) Validate() error {
	if _, err := core.ParseWeekKey(m.WeekID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if m.Summary.ID != m.WeekID {
		return fmt.Errorf("%w: summary id %q does not match week %q", ErrInvalidMessage, m.Summary.ID, m.WeekID)
	}
	return nil
}

// WeekArchivedMessageFromJSON creates a message from JSON bytes
func WeekArchivedMessageFromJSON(data []byte) (*WeekArchivedMessage, error) {
	var msg WeekArchivedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
