package collection

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
)

// FilterCards returns the cards whose name fuzzy-matches pattern, best
// match first. An empty pattern returns cards unchanged.
func FilterCards(cards []pokemontcg.Card, pattern string) []pokemontcg.Card {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return cards
	}

	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.Name
	}

	matches := fuzzy.Find(pattern, names)
	out := make([]pokemontcg.Card, len(matches))
	for i, m := range matches {
		out[i] = cards[m.Index]
	}
	return out
}
