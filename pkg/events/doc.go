/*
Package events provides an in-memory event broker for the engine's pub/sub
notifications.

The events package implements a lightweight event bus for broadcasting
kernel-lifecycle events to interested subscribers, with asynchronous,
non-blocking delivery. pkg/module's EventsModule publishes user.emitted,
node.created and node.dropped; the node.globalized and
invocation.completed types are defined but nothing in the engine publishes
them.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │              Event Broker                   │          │
	│  │  - In-memory message bus                    │          │
	│  │  - Topic-agnostic (all events broadcast)    │          │
	│  │  - Non-blocking publish                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          Event Distribution                 │          │
	│  │                                              │          │
	│  │  Publisher → Event Channel (buffer: 100)    │          │
	│  │       ↓                                      │          │
	│  │  Broadcast Loop                              │          │
	│  │       ↓                                      │          │
	│  │  Subscriber Channels (buffer: 50 each)      │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Event Types                       │          │
	│  │                                              │          │
	│  │    user.emitted                             │          │
	│  │    node.created                             │          │
	│  │    node.dropped                             │          │
	│  │    node.globalized                          │          │
	│  │    invocation.completed                     │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────────┘

Publish never blocks the kernel: an event published while the event channel
is full is dropped, and a subscriber whose buffer is full silently misses
events, rather than stalling a transaction.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("[%s] %s: %s\n", event.Timestamp.Format("15:04:05"), event.Type, event.Message)
		}
	}()

	broker.Publish(&events.Event{Type: events.EventNodeCreated, Message: "node created"})

# Integration Points

This package is driven by pkg/module's EventsModule, which records kernel
lifecycle hooks and user emit_event calls in program order and optionally
republishes them here for external subscribers (a CLI watch command, a
metrics exporter).
*/
package events
