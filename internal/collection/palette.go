package collection

import "sort"

// Palette is the cycle of colors assigned to series in charts.
var Palette = []string{
	"#FFCB05", "#FF0000", "#0046BE", "#3BA272", "#9A60B4",
	"#FC8452", "#73C0DE", "#6D4C41", "#EA7CCC", "#171925",
}

// SeriesColors assigns one color per distinct series. Names are sorted
// first so the same input always yields the same colors.
func SeriesColors(series []string) map[string]string {
	names := make([]string, 0, len(series))
	seen := make(map[string]bool, len(series))
	for _, s := range series {
		if !seen[s] {
			seen[s] = true
			names = append(names, s)
		}
	}
	sort.Strings(names)

	colors := make(map[string]string, len(names))
	for i, name := range names {
		colors[name] = Palette[i%len(Palette)]
	}
	return colors
}
