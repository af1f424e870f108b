package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Relay forwards negotiation payloads between two specific
// participants. It is stateless: the registry resolves the destination,
// the payload is never inspected.
type Relay struct {
	sessions *Registry
	send     Sender
}

func NewRelay(sessions *Registry, send Sender) *Relay {
	return &Relay{sessions: sessions, send: send}
}

// Relay unicasts the payload to the target connection, stamped with the
// source id. A missing target is an expected race with disconnect and
// is dropped silently; the sender is not informed.
func (r *Relay) Relay(from, to string, signal json.RawMessage) {
	if _, ok := r.sessions.Lookup(to); !ok {
		log.Debug().Str("module", "app.relay").Str("from", from).Str("to", to).Msg("target gone, dropping signal")
		return
	}
	if err := r.send.Send(to, EventSignal, SignalEvent{UserID: from, Signal: signal}); err != nil {
		log.Debug().Err(err).Str("module", "app.relay").Str("to", to).Msg("signal send dropped")
	}
}
