// Package display prints catalog and collection data as terminal tables.
package display

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/ramonehamilton/PTCG-Companion/internal/collection"
	"github.com/ramonehamilton/PTCG-Companion/internal/companion"
	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
	"github.com/ramonehamilton/PTCG-Companion/internal/session"
)

const noPrice = "-"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

// Sets prints the set list.
func Sets(w io.Writer, sets []pokemontcg.Set) error {
	if len(sets) == 0 {
		_, err := fmt.Fprintln(w, "No sets found.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSERIES\tCARDS\tRELEASED")
	for _, s := range sets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Series, s.Total, s.ReleaseDate)
	}
	return tw.Flush()
}

// Cards prints catalog cards with their market price.
func Cards(w io.Writer, cards []pokemontcg.Card, collected collection.IDSet) error {
	if len(cards) == 0 {
		_, err := fmt.Fprintln(w, "No cards found.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tSET\tRARITY\tMARKET\t")
	for i := range cards {
		c := &cards[i]
		price := noPrice
		if v, ok := collection.MarketPrice(c.Prices()); ok {
			price = money(v)
		}
		owned := ""
		if collected.Contains(c.ID) {
			owned = "owned"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Set.Name, c.Rarity, price, owned)
	}
	return tw.Flush()
}

// Collection prints the enriched collection followed by its total value.
func Collection(w io.Writer, snap *companion.Snapshot) error {
	if snap == nil || len(snap.Entries) == 0 {
		_, err := fmt.Fprintln(w, "Your collection is empty.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ENTRY\tCARD\tNAME\tSERIES\tADDED\tVALUE")
	for _, e := range snap.Entries {
		name := "(unavailable)"
		if e.Card != nil {
			name = e.Card.Name
		}
		value := noPrice
		if v, ok := collection.MarketPrice(e.Card.Prices()); ok {
			value = money(v)
		}
		added, _ := collection.EntryDate(e.CreatedAt)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.CardID, name, collection.SeriesOf(e), added, value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d cards, total value %s\n", len(snap.Entries), money(snap.TotalValue))
	return err
}

// Value prints the collection value summary.
func Value(w io.Writer, v *companion.ValueSummary) error {
	_, err := fmt.Fprintf(w, "Collection value: $%s (%d cards)\n", v.Display, v.Count)
	return err
}

// Series prints cards per series.
func Series(w io.Writer, series []companion.SeriesSummary) error {
	if len(series) == 0 {
		_, err := fmt.Fprintln(w, "No series to show.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "SERIES\tCARDS")
	for _, s := range series {
		fmt.Fprintf(tw, "%s\t%d\n", s.Series, s.Count)
	}
	return tw.Flush()
}

// Spend prints money spent per day.
func Spend(w io.Writer, days []collection.DayAmount) error {
	if len(days) == 0 {
		_, err := fmt.Fprintln(w, "No purchases recorded.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tAMOUNT")
	for _, d := range days {
		fmt.Fprintf(tw, "%s\t%s\n", d.Date, money(d.Amount))
	}
	return tw.Flush()
}

// Session prints who is logged in.
func Session(w io.Writer, state session.State) error {
	if !state.Authenticated {
		_, err := fmt.Fprintln(w, "Not logged in.")
		return err
	}

	name, email := "unknown user", ""
	if state.User != nil {
		name, email = state.User.Name, state.User.Email
	}
	if email != "" {
		_, err := fmt.Fprintf(w, "Logged in as %s <%s> (avatar %d)\n", name, email, state.Avatar)
		return err
	}
	_, err := fmt.Fprintf(w, "Logged in as %s (avatar %d)\n", name, state.Avatar)
	return err
}
