package companion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
)

func TestCatalogFacade_CardDetail(t *testing.T) {
	f := newFixture(t)

	detail, err := f.catalogs.CardDetail(context.Background(), "xy1-1")
	if err != nil {
		t.Fatalf("CardDetail failed: %v", err)
	}
	if detail.MarketPrice == nil || *detail.MarketPrice != 10.0 {
		t.Errorf("Expected market price 10, got %v", detail.MarketPrice)
	}

	// second lookup is served from the cache
	if _, err := f.catalogs.CardDetail(context.Background(), "xy1-1"); err != nil {
		t.Fatalf("CardDetail failed: %v", err)
	}
	if f.catalog.calls != 1 {
		t.Errorf("Expected 1 catalog call, got %d", f.catalog.calls)
	}
}

func TestCatalogFacade_CardDetailMissingImage(t *testing.T) {
	f := newFixture(t)
	f.catalog.cards["noimg"] = &pokemontcg.Card{ID: "noimg", Name: "Ghost"}

	_, err := f.catalogs.CardDetail(context.Background(), "noimg")
	if !errors.Is(err, pokemontcg.ErrMissingImage) {
		t.Errorf("Expected ErrMissingImage, got %v", err)
	}
}

func TestCatalogFacade_CardDetailNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalogs.CardDetail(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCatalogFacade_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.catalog.err = errors.New("connection refused")

	_, err := f.catalogs.ListSets(context.Background())

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected *AppError, got %T", err)
	}
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
	if strings.Contains(appErr.Message, "connection refused") {
		t.Errorf("Transport detail leaked into message: %s", appErr.Message)
	}
}

func TestCatalogFacade_SetCardsFilter(t *testing.T) {
	f := newFixture(t)
	f.catalog.cards["base1-4"].Name = "Charizard"

	cards, err := f.catalogs.SetCards(context.Background(), "set-Base", "chz")
	if err != nil {
		t.Fatalf("SetCards failed: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != "base1-4" {
		t.Errorf("Expected only base1-4, got %+v", cards)
	}

	if _, err := f.catalogs.SetCards(context.Background(), " ", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for blank set, got %v", err)
	}
}

func TestCatalogFacade_SearchCards(t *testing.T) {
	f := newFixture(t)

	if _, err := f.catalogs.SearchCards(context.Background(), ""); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for empty query, got %v", err)
	}

	cards, err := f.catalogs.SearchCards(context.Background(), "Card xy1-1")
	if err != nil {
		t.Fatalf("SearchCards failed: %v", err)
	}
	if len(cards) != 1 {
		t.Errorf("Expected 1 card, got %d", len(cards))
	}
}
