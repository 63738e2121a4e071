package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SettleDelays maps action categories to the time the host needs to finish
// propagating an action's consequences (animations, deferred effects) before
// a snapshot is worth taking. The values are empirically tuned configuration
// data, never computed.
type SettleDelays struct {
	Default time.Duration
	Actions map[string]time.Duration
}

// DelayFor returns the settle delay for an action category.
func (d SettleDelays) DelayFor(action string) time.Duration {
	if v, ok := d.Actions[action]; ok {
		return v
	}
	return d.Default
}

// DefaultSettleDelays returns the built-in delay table.
func DefaultSettleDelays() SettleDelays {
	return SettleDelays{
		Default: 300 * time.Millisecond,
		Actions: map[string]time.Duration{
			"play_hand":      800 * time.Millisecond,
			"discard":        400 * time.Millisecond,
			"buy_item":       500 * time.Millisecond,
			"sell_item":      300 * time.Millisecond,
			"reroll_shop":    500 * time.Millisecond,
			"use_consumable": 600 * time.Millisecond,
			"select_blind":   700 * time.Millisecond,
			"skip_blind":     300 * time.Millisecond,
			"cash_out":       900 * time.Millisecond,
		},
	}
}

type settleDelaysFile struct {
	Default string            `yaml:"default"`
	Actions map[string]string `yaml:"actions"`
}

// LoadSettleDelays merges a YAML delay table over the built-in defaults. An
// empty path returns the defaults unchanged.
func LoadSettleDelays(path string) (SettleDelays, error) {
	delays := DefaultSettleDelays()
	if path == "" {
		return delays, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return SettleDelays{}, fmt.Errorf("read settle delays: %w", err)
	}
	var file settleDelaysFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return SettleDelays{}, fmt.Errorf("parse settle delays: %w", err)
	}
	if file.Default != "" {
		d, err := time.ParseDuration(file.Default)
		if err != nil {
			return SettleDelays{}, fmt.Errorf("settle delay default: %w", err)
		}
		delays.Default = d
	}
	for action, v := range file.Actions {
		d, err := time.ParseDuration(v)
		if err != nil {
			return SettleDelays{}, fmt.Errorf("settle delay for %s: %w", action, err)
		}
		delays.Actions[action] = d
	}
	return delays, nil
}
