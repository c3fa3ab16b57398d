// Package collection holds the user's collection records and the pure
// transformations run over them: valuation, grouping by series, spend over
// time and the catalog enrichment join.
package collection

import (
	"errors"

	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
)

// ErrDuplicateCard is returned when a card is already in the collection.
var ErrDuplicateCard = errors.New("card already in collection")

// Entry is one owned card as stored by the collection backend.
type Entry struct {
	ID          int64            `json:"id"`
	CardID      string           `json:"pokemon_card_id"`
	CreatedAt   string           `json:"created_at"`
	Series      string           `json:"series,omitempty"`
	MarketPrice pokemontcg.Price `json:"market_price"`
}

// EnrichedEntry joins an Entry with its catalog card. Card is nil when the
// catalog lookup failed.
type EnrichedEntry struct {
	Entry
	Card *pokemontcg.Card `json:"card,omitempty"`
}

// IDSet is the set of catalog card IDs present in a collection.
type IDSet map[string]struct{}

// CollectedIDs builds the collected-card set for entries.
func CollectedIDs(entries []Entry) IDSet {
	set := make(IDSet, len(entries))
	for _, e := range entries {
		set[e.CardID] = struct{}{}
	}
	return set
}

// Contains reports whether cardID is collected.
func (s IDSet) Contains(cardID string) bool {
	_, ok := s[cardID]
	return ok
}

// Entries strips the catalog detail from enriched entries.
func Entries(enriched []EnrichedEntry) []Entry {
	out := make([]Entry, len(enriched))
	for i, e := range enriched {
		out[i] = e.Entry
	}
	return out
}
