package pokemontcg

import (
	"errors"
	"fmt"
)

// TCGplayer price variant keys, in the order used to value a card.
const (
	VariantNormal               = "normal"
	VariantHolofoil             = "holofoil"
	VariantReverseHolofoil      = "reverseHolofoil"
	VariantFirstEditionHolofoil = "1stEditionHolofoil"
)

// Set represents a card set (expansion).
type Set struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Series       string    `json:"series"`
	PrintedTotal int       `json:"printedTotal"`
	Total        int       `json:"total"`
	PtcgoCode    string    `json:"ptcgoCode,omitempty"`
	ReleaseDate  string    `json:"releaseDate"`
	UpdatedAt    string    `json:"updatedAt,omitempty"`
	Images       SetImages `json:"images"`
}

// SetImages contains the set symbol and logo URLs.
type SetImages struct {
	Symbol string `json:"symbol"`
	Logo   string `json:"logo"`
}

// Card represents a single card print.
type Card struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Supertype  string     `json:"supertype"`
	Subtypes   []string   `json:"subtypes,omitempty"`
	HP         string     `json:"hp,omitempty"`
	Types      []string   `json:"types,omitempty"`
	Set        Set        `json:"set"`
	Number     string     `json:"number"`
	Artist     string     `json:"artist,omitempty"`
	Rarity     string     `json:"rarity,omitempty"`
	FlavorText string     `json:"flavorText,omitempty"`
	Images     CardImages `json:"images"`
	TCGPlayer  *TCGPlayer `json:"tcgplayer,omitempty"`
}

// CardImages contains the card image URLs.
type CardImages struct {
	Small string `json:"small"`
	Large string `json:"large"`
}

// TCGPlayer holds TCGplayer market data for a card.
type TCGPlayer struct {
	URL       string                `json:"url"`
	UpdatedAt string                `json:"updatedAt"`
	Prices    map[string]PriceRange `json:"prices,omitempty"`
}

// PriceRange is the price block for one print variant.
type PriceRange struct {
	Low       Price `json:"low"`
	Mid       Price `json:"mid"`
	High      Price `json:"high"`
	Market    Price `json:"market"`
	DirectLow Price `json:"directLow"`
}

// Prices returns the variant price map, or nil when the card has no
// market data.
func (c *Card) Prices() map[string]PriceRange {
	if c == nil || c.TCGPlayer == nil {
		return nil
	}
	return c.TCGPlayer.Prices
}

// ErrMissingImage is returned for cards that cannot be shown in detail.
var ErrMissingImage = errors.New("card has no large image")

// ValidateForDisplay checks the fields a detail view depends on.
func (c *Card) ValidateForDisplay() error {
	if c.Images.Large == "" {
		return fmt.Errorf("%w: %s", ErrMissingImage, c.ID)
	}
	return nil
}

// setList is the envelope of GET /sets.
type setList struct {
	Data       []Set `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Count      int   `json:"count"`
	TotalCount int   `json:"totalCount"`
}

// cardList is the envelope of GET /cards.
type cardList struct {
	Data       []Card `json:"data"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	Count      int    `json:"count"`
	TotalCount int    `json:"totalCount"`
}

// cardEnvelope is the envelope of GET /cards/{id}.
type cardEnvelope struct {
	Data Card `json:"data"`
}

// APIError represents an error response from the catalog API.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Code       int    `json:"code"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("catalog API error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("catalog API error (HTTP %d)", e.StatusCode)
}

// NotFoundError represents a 404 error from the API.
type NotFoundError struct {
	URL string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
