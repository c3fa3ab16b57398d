// Package export writes the collection as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ramonehamilton/PTCG-Companion/internal/collection"
)

// Format represents the export format.
type Format string

const (
	// FormatCSV represents CSV export format.
	FormatCSV Format = "csv"
	// FormatJSON represents JSON export format.
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json", case-insensitive. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// Row is one exported collection entry. MarketPrice is the price the
// backend recorded for the entry; CatalogPrice is the live catalog market
// price that valuation uses.
type Row struct {
	EntryID      int64    `json:"entryId"`
	CardID       string   `json:"cardId"`
	Name         string   `json:"name"`
	Set          string   `json:"set"`
	Series       string   `json:"series"`
	Number       string   `json:"number"`
	Rarity       string   `json:"rarity"`
	MarketPrice  *float64 `json:"marketPrice"`
	CatalogPrice *float64 `json:"catalogPrice"`
	Added        string   `json:"added"`
}

var csvHeader = []string{"entry_id", "card_id", "name", "set", "series", "number", "rarity", "market_price", "catalog_price", "added"}

// Rows flattens enriched entries. Entries without catalog detail keep
// their IDs and the backend's denormalized fields.
func Rows(entries []collection.EnrichedEntry) []Row {
	rows := make([]Row, len(entries))
	for i, e := range entries {
		row := Row{
			EntryID: e.ID,
			CardID:  e.CardID,
			Series:  collection.SeriesOf(e),
		}
		if e.Card != nil {
			row.Name = e.Card.Name
			row.Set = e.Card.Set.Name
			row.Number = e.Card.Number
			row.Rarity = e.Card.Rarity
			if v, ok := collection.MarketPrice(e.Card.Prices()); ok {
				row.CatalogPrice = &v
			}
		}
		if v, ok := e.MarketPrice.Value(); ok {
			row.MarketPrice = &v
		}
		if day, ok := collection.EntryDate(e.CreatedAt); ok {
			row.Added = day
		}
		rows[i] = row
	}
	return rows
}

// Write encodes rows to w. An empty collection still produces a CSV
// header or an empty JSON array.
func Write(w io.Writer, format Format, rows []Row) error {
	switch format {
	case FormatJSON:
		if rows == nil {
			rows = []Row{}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatCSV:
		return writeCSV(w, rows)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func writeCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, r := range rows {
		record := []string{
			strconv.FormatInt(r.EntryID, 10), r.CardID, r.Name, r.Set,
			r.Series, r.Number, r.Rarity, formatPrice(r.MarketPrice),
			formatPrice(r.CatalogPrice), r.Added,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

// WriteFile exports rows to path, creating parent directories. An
// existing file is only replaced when overwrite is set.
func WriteFile(path string, format Format, rows []Row, overwrite bool) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if _, statErr := os.Stat(path); statErr == nil && !overwrite {
		return fmt.Errorf("file already exists: %s (use overwrite option to replace)", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return Write(file, format, rows)
}
