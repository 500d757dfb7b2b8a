package types

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/plasa/shopper-settlement/pkg/enums"
	"github.com/plasa/shopper-settlement/pkg/outbox"
)

// Envelope is a settlement event as received from Pub/Sub.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	Version       int                       `json:"version"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Actor         *outbox.ActorRef          `json:"actor,omitempty"`
	Payload       json.RawMessage           `json:"payload"`
}

// Data returns the payload, substituting an empty object when it is blank.
func (e Envelope) Data() json.RawMessage {
	if len(bytes.TrimSpace(e.Payload)) == 0 {
		return json.RawMessage(`{}`)
	}
	return e.Payload
}
