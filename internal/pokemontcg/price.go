package pokemontcg

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Price is a monetary amount that may be absent. The catalog reports
// numbers, but snapshots and older payloads carry numeric strings such as
// "4.50"; anything that is not a finite number decodes as absent instead
// of failing the whole response.
type Price struct {
	value float64
	valid bool
}

// NewPrice returns a present price.
func NewPrice(v float64) Price {
	return Price{value: v, valid: true}
}

// Value returns the amount and whether it is present.
func (p Price) Value() (float64, bool) {
	return p.value, p.valid
}

// Valid reports whether the price is present.
func (p Price) Valid() bool {
	return p.valid
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Price) UnmarshalJSON(data []byte) error {
	*p = Price{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
	} else {
		raw = string(data)
	}

	raw = strings.TrimSpace(raw)
	if isHexFloat(raw) {
		return nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	*p = NewPrice(v)
	return nil
}

// isHexFloat reports a 0x-prefixed literal. ParseFloat accepts those; prices
// are decimal only.
func isHexFloat(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// MarshalJSON implements json.Marshaler. Absent prices encode as null.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}
