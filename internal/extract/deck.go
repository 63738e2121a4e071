package extract

import (
	"fmt"
	"time"

	"sim-bridge/internal/host"
	"sim-bridge/internal/model"
)

// BuildDeckManifest reads the exhaustive deck listing. It is kept out of the
// snapshot fragment set so the primary document stays small; the bridge
// publishes it as a companion message on its own cadence.
func BuildDeckManifest(src host.StateSource, now time.Time) (model.DeckManifest, error) {
	rows, err := src.Table("deck.cards")
	if err != nil {
		return model.DeckManifest{}, fmt.Errorf("read deck: %w", err)
	}
	cards := make([]model.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, model.Card{
			ID:          stringField(row, "id"),
			Rank:        stringField(row, "rank"),
			Suit:        stringField(row, "suit"),
			Enhancement: stringField(row, "enhancement"),
			Edition:     stringField(row, "edition"),
			Seal:        stringField(row, "seal"),
		})
	}
	return model.DeckManifest{CapturedAt: now, Count: len(cards), Cards: cards}, nil
}

func stringField(row map[string]any, key string) string {
	s, _ := row[key].(string)
	return s
}
