package model

import "time"

// CoreState is the fixed scalar section present in every snapshot.
type CoreState struct {
	Ante         int    `json:"ante" msgpack:"ante"`
	Round        int    `json:"round" msgpack:"round"`
	Money        int    `json:"money" msgpack:"money"`
	Chips        int    `json:"chips" msgpack:"chips"`
	HandsLeft    int    `json:"hands_left" msgpack:"hands_left"`
	DiscardsLeft int    `json:"discards_left" msgpack:"discards_left"`
	Phase        string `json:"phase" msgpack:"phase"`
}

// Snapshot is a composite, versioned document describing host state at one
// instant. Fragments are produced independently; a fragment that failed to
// extract is present under its name with a default value.
type Snapshot struct {
	Version    string         `json:"version" msgpack:"version"`
	CapturedAt time.Time      `json:"captured_at" msgpack:"captured_at"`
	Core       CoreState      `json:"core" msgpack:"core"`
	Fragments  map[string]any `json:"fragments" msgpack:"fragments"`
}

// Card is one entry in the deck manifest.
type Card struct {
	ID          string `json:"id" msgpack:"id"`
	Rank        string `json:"rank" msgpack:"rank"`
	Suit        string `json:"suit" msgpack:"suit"`
	Enhancement string `json:"enhancement,omitempty" msgpack:"enhancement,omitempty"`
	Edition     string `json:"edition,omitempty" msgpack:"edition,omitempty"`
	Seal        string `json:"seal,omitempty" msgpack:"seal,omitempty"`
}

// DeckManifest is the auxiliary full-deck listing. It is published as a
// companion document on its own cadence to keep the primary snapshot small.
type DeckManifest struct {
	CapturedAt time.Time `json:"captured_at" msgpack:"captured_at"`
	Count      int       `json:"count" msgpack:"count"`
	Cards      []Card    `json:"cards" msgpack:"cards"`
}

// Heartbeat reports bridge liveness to the controller.
type Heartbeat struct {
	Version      string `json:"version" msgpack:"version"`
	UptimeMillis int64  `json:"uptime_ms" msgpack:"uptime_ms"`
}
