package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionRecorded = "recorded"
	ActionDeleted  = "deleted"
)

// MovementEvent carries one ledger change over the bus. The payload is the
// full wire row so the mirror worker needs no access to the primary store.
type MovementEvent struct {
	Action      string    `json:"action"`
	Owner       string    `json:"owner,omitempty"`
	Date        string    `json:"date"`
	Kind        string    `json:"kind"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m *MovementEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MovementEventFromJSON(data []byte) (*MovementEvent, error) {
	var msg MovementEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
