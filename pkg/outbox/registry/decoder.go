package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/plasa/shopper-settlement/pkg/enums"
)

// ErrDecoderNotRegistered is returned for event type and version pairs that
// have no decoder.
var ErrDecoderNotRegistered = errors.New("decoder not registered")

type decoderFunc func(payload json.RawMessage) (interface{}, error)

type registryKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry stores versioned payload decoders for consumers.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	registry map[registryKey]decoderFunc
}

// NewDecoderRegistry builds an empty decoder registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{registry: make(map[registryKey]decoderFunc)}
}

// NewSettlementDecoders registers v1 decoders for every settlement event,
// reusing the publisher-side payload factories.
func NewSettlementDecoders(events *EventRegistry) *DecoderRegistry {
	reg := NewDecoderRegistry()
	for eventType, desc := range events.entries {
		factory := desc.PayloadFactory
		reg.Register(eventType, 1, func(payload json.RawMessage) (interface{}, error) {
			out := factory()
			if err := json.Unmarshal(payload, out); err != nil {
				return nil, err
			}
			return out, nil
		})
	}
	return reg
}

// Register stores a decoder for the given event type and version.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder decoderFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.registry[registryKey{eventType: eventType, version: version}] = decoder
}

// Decode runs the decoder registered for the event type and version.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if decoder, ok := r.registry[registryKey{eventType: eventType, version: version}]; ok {
		return decoder(payload)
	}
	return nil, fmt.Errorf("%w for %s@v%d", ErrDecoderNotRegistered, eventType, version)
}
