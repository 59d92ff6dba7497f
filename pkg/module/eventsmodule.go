package module

import (
	"github.com/ledgerkernel/engine/pkg/events"
	"github.com/ledgerkernel/engine/pkg/frame"
	"github.com/ledgerkernel/engine/pkg/id"
)

// EventRecord is one event collected during a transaction, in emission
// order: either a user emit_event call or a kernel lifecycle event.
type EventRecord struct {
	Actor   frame.Actor
	Type    events.EventType
	Schema  string
	Payload []byte
}

// EventsModule collects kernel and user-emitted events in program order —
// "the order of emitted events matches the program order of emit_event
// calls" — and optionally republishes them on a Broker for external
// subscribers, reusing this repository's pub/sub mechanics.
type EventsModule struct {
	Base

	broker  *events.Broker
	records []EventRecord
}

// NewEventsModule returns an events module. broker may be nil, in which
// case events are only collected for the receipt and never published.
func NewEventsModule(broker *events.Broker) *EventsModule {
	return &EventsModule{broker: broker}
}

func (m *EventsModule) Name() string { return "events" }

// RecordUserEvent records one emit_event client-API call, keyed by the
// current actor and a caller-supplied schema name.
func (m *EventsModule) RecordUserEvent(actor frame.Actor, schema string, payload []byte) {
	m.record(actor, events.EventUserEmitted, schema, payload)
}

func (m *EventsModule) AfterCreateNode(_ Context, node id.NodeID, ok bool) error {
	if ok {
		m.record(frame.Actor{}, events.EventNodeCreated, node.String(), nil)
	}
	return nil
}

func (m *EventsModule) AfterDropNode(_ Context, ok bool) error {
	if ok {
		m.record(frame.Actor{}, events.EventNodeDropped, "", nil)
	}
	return nil
}

func (m *EventsModule) record(actor frame.Actor, typ events.EventType, schema string, payload []byte) {
	rec := EventRecord{Actor: actor, Type: typ, Schema: schema, Payload: payload}
	m.records = append(m.records, rec)
	if m.broker != nil {
		m.broker.Publish(&events.Event{
			Type:    typ,
			Message: schema,
			Metadata: map[string]string{
				"blueprint": actor.Blueprint,
				"ident":     actor.Ident,
			},
		})
	}
}

// Events returns a snapshot of every event recorded so far, in emission
// order.
func (m *EventsModule) Events() []EventRecord {
	return append([]EventRecord(nil), m.records...)
}
