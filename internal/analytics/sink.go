package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plasa/shopper-settlement/internal/analytics/types"
	"github.com/plasa/shopper-settlement/internal/analytics/writer"
	"github.com/plasa/shopper-settlement/pkg/enums"
	"github.com/plasa/shopper-settlement/pkg/outbox/payloads"
	"github.com/plasa/shopper-settlement/pkg/outbox/registry"
)

// ErrUnsupportedEventType marks events the sink does not record. The worker
// acks them without retrying.
var ErrUnsupportedEventType = errors.New("unsupported settlement event type")

type rowInserter interface {
	InsertSettlement(ctx context.Context, row types.SettlementEventRow) error
}

// PayloadDecoder decodes an event payload for a given schema version.
type PayloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

// Sink maps settlement envelopes to BigQuery rows.
type Sink struct {
	writer   rowInserter
	decoders PayloadDecoder
}

// NewSink builds a sink that decodes payloads with decoders and streams rows
// through w.
func NewSink(w rowInserter, decoders PayloadDecoder) (*Sink, error) {
	if w == nil {
		return nil, errors.New("analytics writer required")
	}
	if decoders == nil {
		return nil, errors.New("payload decoders required")
	}
	return &Sink{writer: w, decoders: decoders}, nil
}

// Handle records one settlement event.
func (s *Sink) Handle(ctx context.Context, envelope types.Envelope) error {
	row, err := BuildRow(s.decoders, envelope)
	if err != nil {
		return err
	}
	return s.writer.InsertSettlement(ctx, row)
}

// BuildRow flattens the event payload into the settlement_events columns.
// Events without a decoder for their version are unsupported.
func BuildRow(decoders PayloadDecoder, envelope types.Envelope) (types.SettlementEventRow, error) {
	payloadJSON, err := writer.EncodeJSON([]byte(envelope.Payload))
	if err != nil {
		return types.SettlementEventRow{}, err
	}
	row := types.SettlementEventRow{
		EventID:       envelope.EventID,
		EventType:     string(envelope.EventType),
		AggregateType: string(envelope.AggregateType),
		AggregateID:   envelope.AggregateID,
		OccurredAt:    envelope.OccurredAt.UTC(),
		Payload:       payloadJSON,
	}
	if envelope.Actor != nil {
		row.ActorUserID = uuidString(envelope.Actor.UserID)
		row.ActorRole = str(envelope.Actor.Role)
	}

	version := envelope.Version
	if version <= 0 {
		version = 1
	}
	decoded, err := decoders.Decode(envelope.EventType, version, envelope.Data())
	if errors.Is(err, registry.ErrDecoderNotRegistered) {
		return row, fmt.Errorf("%w: %s@v%d", ErrUnsupportedEventType, envelope.EventType, version)
	}
	if err != nil {
		return row, fmt.Errorf("decode %s: %w", envelope.EventType, err)
	}

	switch p := decoded.(type) {
	case *payloads.OrderStatusChangedEvent:
		row.OrderID = uuidString(p.OrderID)
		row.OrderKind = str(string(p.OrderKind))
		row.ShopperID = uuidString(p.ShopperID)
		row.Status = str(string(p.Status))
	case *payloads.WalletReservedEvent:
		row.OrderID = uuidString(p.OrderID)
		row.OrderKind = str(string(p.OrderKind))
		row.ShopperID = uuidString(p.ShopperID)
		row.WalletID = uuidString(p.WalletID)
		row.Amount = rat(p.Amount)
	case *payloads.WalletPaidOutEvent:
		row.OrderID = uuidString(p.OrderID)
		row.OrderKind = str(string(p.OrderKind))
		row.ShopperID = uuidString(p.ShopperID)
		row.WalletID = uuidString(p.WalletID)
		row.Amount = rat(p.Earnings)
	case *payloads.WalletRefundedEvent:
		row.OrderID = uuidString(p.OrderID)
		row.OrderKind = str(string(p.OrderKind))
		row.ShopperID = uuidString(p.ShopperID)
		if p.WalletID != nil {
			row.WalletID = uuidString(*p.WalletID)
		}
		row.Amount = rat(p.Amount)
	case *payloads.RevenueRecognizedEvent:
		row.OrderID = uuidString(p.OrderID)
		row.OrderKind = str(string(p.OrderKind))
		if p.ShopperID != nil {
			row.ShopperID = uuidString(*p.ShopperID)
		}
		row.RevenueType = str(string(p.Type))
		row.Amount = rat(p.Amount)
	default:
		return row, fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	return row, nil
}

func str(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func uuidString(id uuid.UUID) *string {
	if id == uuid.Nil {
		return nil
	}
	return str(id.String())
}

func rat(d decimal.Decimal) *big.Rat {
	return d.Rat()
}
