package collection

import (
	"sort"
	"strings"
	"time"
)

// UnknownSeries groups entries whose series cannot be determined.
const UnknownSeries = "Unknown"

// DateLayout is the calendar-date format used for spend buckets.
const DateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	DateLayout,
}

// SeriesCount is the number of entries in one series.
type SeriesCount struct {
	Series string `json:"series"`
	Count  int    `json:"count"`
}

// DayAmount is the spend recorded for one calendar date.
type DayAmount struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// SeriesOf returns the series an entry belongs to: the catalog card's set
// series, then the entry's own series, then UnknownSeries.
func SeriesOf(e EnrichedEntry) string {
	if e.Card != nil {
		if s := strings.TrimSpace(e.Card.Set.Series); s != "" {
			return s
		}
	}
	if s := strings.TrimSpace(e.Series); s != "" {
		return s
	}
	return UnknownSeries
}

// GroupBySeries counts entries per series. Every entry lands in exactly
// one group.
func GroupBySeries(entries []EnrichedEntry) map[string]int {
	groups := make(map[string]int)
	for _, e := range entries {
		groups[SeriesOf(e)]++
	}
	return groups
}

// SeriesCounts returns GroupBySeries as a list ordered by count descending,
// then series name.
func SeriesCounts(entries []EnrichedEntry) []SeriesCount {
	groups := GroupBySeries(entries)
	counts := make([]SeriesCount, 0, len(groups))
	for series, n := range groups {
		counts = append(counts, SeriesCount{Series: series, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Series < counts[j].Series
	})
	return counts
}

// EntryDate returns the UTC calendar date of a creation timestamp.
func EntryDate(createdAt string) (string, bool) {
	createdAt = strings.TrimSpace(createdAt)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, createdAt); err == nil {
			return t.UTC().Format(DateLayout), true
		}
	}
	return "", false
}

// DailySpend sums each entry's snapshot market price per creation date,
// sorted by date ascending. Entries with an unparseable timestamp are
// skipped; entries without a snapshot price add 0 to their day.
func DailySpend(entries []EnrichedEntry) []DayAmount {
	buckets := make(map[string]float64)
	for _, e := range entries {
		day, ok := EntryDate(e.CreatedAt)
		if !ok {
			continue
		}
		v, _ := e.MarketPrice.Value()
		buckets[day] += v
	}

	days := make([]DayAmount, 0, len(buckets))
	for day, amount := range buckets {
		days = append(days, DayAmount{Date: day, Amount: amount})
	}
	// ISO dates sort lexically
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// CumulativeSpend is DailySpend as a running total.
func CumulativeSpend(entries []EnrichedEntry) []DayAmount {
	days := DailySpend(entries)
	var running float64
	for i := range days {
		running += days[i].Amount
		days[i].Amount = running
	}
	return days
}
