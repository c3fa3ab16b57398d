package companion

import (
	"context"
	"strings"

	"github.com/ramonehamilton/PTCG-Companion/internal/collection"
	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
)

// CatalogFacade browses sets and cards.
type CatalogFacade struct {
	services *Services
}

// NewCatalogFacade creates a new CatalogFacade with the given services.
func NewCatalogFacade(services *Services) *CatalogFacade {
	return &CatalogFacade{services: services}
}

// CardDetail is a card ready for the detail view.
type CardDetail struct {
	Card        *pokemontcg.Card `json:"card"`
	MarketPrice *float64         `json:"marketPrice"`
}

// ListSets returns every set.
func (f *CatalogFacade) ListSets(ctx context.Context) ([]pokemontcg.Set, error) {
	sets, err := f.services.Catalog.GetSets(ctx)
	if err != nil {
		return nil, catalogError("load sets", err)
	}
	return sets, nil
}

// SetCards returns the cards of a set, fuzzy-filtered by name when filter
// is not empty.
func (f *CatalogFacade) SetCards(ctx context.Context, setID, filter string) ([]pokemontcg.Card, error) {
	if strings.TrimSpace(setID) == "" {
		return nil, validationError("A set is required.")
	}

	cards, err := f.services.Catalog.GetCardsBySet(ctx, setID)
	if err != nil {
		return nil, catalogError("load cards", err)
	}
	return collection.FilterCards(cards, filter), nil
}

// SearchCards finds cards by name.
func (f *CatalogFacade) SearchCards(ctx context.Context, name string) ([]pokemontcg.Card, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationError("Please enter a card name.")
	}

	cards, err := f.services.Catalog.SearchCards(ctx, name)
	if err != nil {
		return nil, catalogError("search cards", err)
	}
	return cards, nil
}

// CardDetail returns one card. A card without a large image cannot be
// shown and is reported as an error.
func (f *CatalogFacade) CardDetail(ctx context.Context, cardID string) (*CardDetail, error) {
	if strings.TrimSpace(cardID) == "" {
		return nil, validationError("A card is required.")
	}

	card, err := f.services.Enricher.Card(ctx, cardID)
	if err != nil {
		return nil, catalogError("load card", err)
	}

	if err := card.ValidateForDisplay(); err != nil {
		return nil, &AppError{Message: "This card has no image available.", Err: err}
	}

	detail := &CardDetail{Card: card}
	if price, ok := collection.MarketPrice(card.Prices()); ok {
		detail.MarketPrice = &price
	}
	return detail, nil
}
