package collection

import "github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"

// VariantPriority is the order in which price variants are consulted.
// The first variant with a market price wins.
var VariantPriority = []string{
	pokemontcg.VariantNormal,
	pokemontcg.VariantHolofoil,
	pokemontcg.VariantReverseHolofoil,
	pokemontcg.VariantFirstEditionHolofoil,
}

// MarketPrice selects exactly one market price from a variant price map.
// It returns false when no variant in VariantPriority has one.
func MarketPrice(prices map[string]pokemontcg.PriceRange) (float64, bool) {
	for _, variant := range VariantPriority {
		p, ok := prices[variant]
		if !ok {
			continue
		}
		if v, ok := p.Market.Value(); ok {
			return v, true
		}
	}
	return 0, false
}

// EntryValue is the market value of one entry, 0 without catalog pricing.
func EntryValue(e EnrichedEntry) float64 {
	v, _ := MarketPrice(e.Card.Prices())
	return v
}

// TotalValue sums the market value of entries at full precision.
func TotalValue(entries []EnrichedEntry) float64 {
	var total float64
	for _, e := range entries {
		total += EntryValue(e)
	}
	return total
}
