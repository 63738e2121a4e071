package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	KindSnapshot      Kind = "snapshot"
	KindActionRequest Kind = "action_request"
	KindActionResult  Kind = "action_result"
	KindStatusUpdate  Kind = "status_update"
	KindHeartbeat     Kind = "heartbeat"
	KindDeckManifest  Kind = "deck_manifest"
)

// Envelope is transport-agnostic framing for every message exchanged with the
// controller. Sequence numbers increase independently per direction; readers
// ignore unknown fields.
type Envelope struct {
	Kind      Kind      `json:"kind" msgpack:"kind"`
	Sequence  uint64    `json:"sequence" msgpack:"sequence"`
	MessageID string    `json:"message_id" msgpack:"message_id"`
	Source    string    `json:"source" msgpack:"source"`
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
	Payload   any       `json:"payload" msgpack:"payload"`
}

// Minimal returns a payload-free copy of the envelope. Used as the fallback
// document when the full payload cannot be serialized.
func (e Envelope) Minimal() Envelope {
	return Envelope{
		Kind:      e.Kind,
		Sequence:  e.Sequence,
		MessageID: e.MessageID,
		Source:    e.Source,
		Timestamp: e.Timestamp,
	}
}

// DecodePayload re-marshals a decoded envelope payload (a generic map after
// transport decoding) into a concrete type.
func DecodePayload(payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
