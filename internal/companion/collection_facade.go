package companion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ramonehamilton/PTCG-Companion/internal/backend"
	"github.com/ramonehamilton/PTCG-Companion/internal/charts"
	"github.com/ramonehamilton/PTCG-Companion/internal/collection"
	"github.com/ramonehamilton/PTCG-Companion/internal/events"
	"github.com/ramonehamilton/PTCG-Companion/internal/export"
	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
	"github.com/ramonehamilton/PTCG-Companion/internal/session"
)

// Spend modes.
const (
	SpendDaily      = "daily"
	SpendCumulative = "cumulative"
)

// Snapshot is the enriched collection as of the last refresh.
type Snapshot struct {
	Entries     []collection.EnrichedEntry `json:"entries"`
	TotalValue  float64                    `json:"totalValue"`
	RefreshedAt time.Time                  `json:"refreshedAt"`
}

// ValueSummary is the collection's market value.
type ValueSummary struct {
	Total   float64 `json:"total"`
	Display string  `json:"display"`
	Count   int     `json:"count"`
}

// SeriesSummary is one slice of the cards-per-series chart.
type SeriesSummary struct {
	Series string `json:"series"`
	Count  int    `json:"count"`
	Color  string `json:"color"`
}

// Profile is the user's profile page.
type Profile struct {
	User        backend.User `json:"user"`
	MemberSince string       `json:"memberSince,omitempty"`
	Avatar      int          `json:"avatar"`
}

// CollectionFacade manages the user's collection. It keeps the enriched
// snapshot of the last refresh in memory and drops it whenever the
// session changes hands.
type CollectionFacade struct {
	services *Services

	mu       sync.RWMutex
	snapshot *Snapshot
	// generation counts session transitions; a refresh started under an
	// older generation is not stored.
	generation uint64
}

// NewCollectionFacade creates a new CollectionFacade with the given services.
func NewCollectionFacade(services *Services) *CollectionFacade {
	return &CollectionFacade{services: services}
}

func (f *CollectionFacade) requireSession() error {
	if !f.services.Session.IsAuthenticated() {
		return notAuthenticated()
	}
	return nil
}

// Refresh reloads the collection from the backend and enriches every
// entry with fresh catalog data.
func (f *CollectionFacade) Refresh(ctx context.Context) (*Snapshot, error) {
	if err := f.requireSession(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	generation := f.generation
	f.mu.RUnlock()

	entries, err := f.services.Backend.ListCollection(ctx)
	if err != nil {
		return nil, f.services.backendError(ctx, "load your collection", err)
	}

	f.services.Enricher.Reset()
	enriched := f.services.Enricher.Enrich(ctx, entries)

	snap := &Snapshot{
		Entries:     enriched,
		TotalValue:  collection.TotalValue(enriched),
		RefreshedAt: time.Now().UTC(),
	}

	f.mu.Lock()
	if f.generation == generation {
		f.snapshot = snap
	}
	f.mu.Unlock()

	log.Printf("[Collection] Refreshed %d entries", len(enriched))
	f.services.dispatch(ctx, events.CollectionUpdated, events.CollectionUpdatedEvent{
		Action:     events.ActionRefresh,
		Count:      len(enriched),
		TotalValue: snap.TotalValue,
	})
	return snap.copy(), nil
}

// Snapshot returns the current snapshot, refreshing if there is none.
func (f *CollectionFacade) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := f.requireSession(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	snap := f.snapshot
	f.mu.RUnlock()

	if snap == nil {
		return f.Refresh(ctx)
	}
	return snap.copy(), nil
}

// Add puts a card in the collection. A card already in the snapshot is
// rejected without contacting the backend.
func (f *CollectionFacade) Add(ctx context.Context, cardID string) (*collection.EnrichedEntry, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, validationError("A card is required.")
	}

	snap, err := f.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if collection.CollectedIDs(collection.Entries(snap.Entries)).Contains(cardID) {
		return nil, duplicateError(cardID)
	}

	entry, err := f.services.Backend.AddCard(ctx, cardID)
	if err != nil {
		if errors.Is(err, backend.ErrConflict) {
			return nil, duplicateError(cardID)
		}
		return nil, f.services.backendError(ctx, "add the card", err)
	}

	enriched := f.services.Enricher.Enrich(ctx, []collection.Entry{*entry})[0]

	f.mu.Lock()
	if f.snapshot != nil {
		f.snapshot.Entries = append(f.snapshot.Entries, enriched)
		f.snapshot.TotalValue = collection.TotalValue(f.snapshot.Entries)
	}
	count, total := f.countAndTotalLocked()
	f.mu.Unlock()

	log.Printf("[Collection] Added %s", cardID)
	f.services.dispatch(ctx, events.CollectionUpdated, events.CollectionUpdatedEvent{
		Action:     events.ActionAdd,
		CardID:     cardID,
		Count:      count,
		TotalValue: total,
	})
	return &enriched, nil
}

// Remove deletes a collection entry.
func (f *CollectionFacade) Remove(ctx context.Context, entryID int64) error {
	if err := f.requireSession(); err != nil {
		return err
	}

	if err := f.services.Backend.DeleteEntry(ctx, entryID); err != nil {
		return f.services.backendError(ctx, "remove the card", err)
	}

	var cardID string
	f.mu.Lock()
	if f.snapshot != nil {
		kept := f.snapshot.Entries[:0:0]
		for _, e := range f.snapshot.Entries {
			if e.ID == entryID {
				cardID = e.CardID
				continue
			}
			kept = append(kept, e)
		}
		f.snapshot.Entries = kept
		f.snapshot.TotalValue = collection.TotalValue(kept)
	}
	count, total := f.countAndTotalLocked()
	f.mu.Unlock()

	log.Printf("[Collection] Removed entry %d", entryID)
	f.services.dispatch(ctx, events.CollectionUpdated, events.CollectionUpdatedEvent{
		Action:     events.ActionRemove,
		CardID:     cardID,
		Count:      count,
		TotalValue: total,
	})
	return nil
}

func (f *CollectionFacade) countAndTotalLocked() (int, float64) {
	if f.snapshot == nil {
		return 0, 0
	}
	return len(f.snapshot.Entries), f.snapshot.TotalValue
}

// Value returns the collection's market value.
func (f *CollectionFacade) Value(ctx context.Context) (*ValueSummary, error) {
	snap, err := f.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &ValueSummary{
		Total:   snap.TotalValue,
		Display: fmt.Sprintf("%.2f", snap.TotalValue),
		Count:   len(snap.Entries),
	}, nil
}

// Series returns the number of cards per series with a chart color each.
func (f *CollectionFacade) Series(ctx context.Context) ([]SeriesSummary, error) {
	snap, err := f.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return seriesSummaries(snap.Entries), nil
}

func seriesSummaries(entries []collection.EnrichedEntry) []SeriesSummary {
	counts := collection.SeriesCounts(entries)

	names := make([]string, len(counts))
	for i, c := range counts {
		names[i] = c.Series
	}
	colors := collection.SeriesColors(names)

	out := make([]SeriesSummary, len(counts))
	for i, c := range counts {
		out[i] = SeriesSummary{Series: c.Series, Count: c.Count, Color: colors[c.Series]}
	}
	return out
}

// Spend returns money spent per day, or as a running total with
// mode "cumulative".
func (f *CollectionFacade) Spend(ctx context.Context, mode string) ([]collection.DayAmount, error) {
	spend, err := spendFunc(mode)
	if err != nil {
		return nil, err
	}
	snap, err := f.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return spend(snap.Entries), nil
}

func spendFunc(mode string) (func([]collection.EnrichedEntry) []collection.DayAmount, error) {
	switch mode {
	case "", SpendDaily:
		return collection.DailySpend, nil
	case SpendCumulative:
		return collection.CumulativeSpend, nil
	default:
		return nil, validationError(fmt.Sprintf("Unknown spend mode %q.", mode))
	}
}

// RenderSeriesChart writes the cards-per-series pie chart to w.
func (f *CollectionFacade) RenderSeriesChart(ctx context.Context, w io.Writer) error {
	series, err := f.Series(ctx)
	if err != nil {
		return err
	}

	points := make([]charts.DataPoint, len(series))
	for i, s := range series {
		points[i] = charts.DataPoint{Label: s.Series, Value: float64(s.Count), Color: s.Color}
	}

	config := charts.DefaultChartConfig()
	config.Title = "Cards per series"
	if err := charts.RenderPieChart(w, points, config); err != nil {
		return &AppError{Message: "Failed to render chart.", Err: err}
	}
	return nil
}

// RenderSpendChart writes the spend-over-time line chart to w.
func (f *CollectionFacade) RenderSpendChart(ctx context.Context, w io.Writer, mode string) error {
	days, err := f.Spend(ctx, mode)
	if err != nil {
		return err
	}

	points := make([]charts.DataPoint, len(days))
	for i, d := range days {
		points[i] = charts.DataPoint{Label: d.Date, Value: d.Amount}
	}

	config := charts.DefaultChartConfig()
	config.Title = "Money spent over time"
	name := "Daily spend"
	if mode == SpendCumulative {
		name = "Total spend"
	}
	if err := charts.RenderLineChart(w, points, name, config); err != nil {
		return &AppError{Message: "Failed to render chart.", Err: err}
	}
	return nil
}

// Export writes the collection to w in the given format ("csv" or "json")
// and returns the resolved format.
func (f *CollectionFacade) Export(ctx context.Context, w io.Writer, format string) (export.Format, error) {
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return "", validationError(fmt.Sprintf("Unknown export format %q.", format))
	}
	snap, err := f.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	if err := export.Write(w, parsed, export.Rows(snap.Entries)); err != nil {
		return "", &AppError{Message: "Failed to export collection.", Err: err}
	}
	return parsed, nil
}

// Profile fetches the user's profile and refreshes the cached copy.
func (f *CollectionFacade) Profile(ctx context.Context) (*Profile, error) {
	if err := f.requireSession(); err != nil {
		return nil, err
	}

	user, err := f.services.Backend.GetProfile(ctx)
	if err != nil {
		return nil, f.services.backendError(ctx, "load your profile", err)
	}

	if err := f.services.Session.SetUser(ctx, *user); err != nil && !errors.Is(err, session.ErrNotAuthenticated) {
		log.Printf("[Session] Profile not persisted: %v", err)
	}

	profile := &Profile{User: *user, Avatar: f.services.Session.Avatar()}
	if since, ok := user.MemberSince(); ok {
		profile.MemberSince = since.Format(collection.DateLayout)
	}
	return profile, nil
}

// OnEvent drops the snapshot on every session transition, so a login over
// an existing session never sees the previous user's collection.
func (f *CollectionFacade) OnEvent(event events.Event) error {
	if _, ok := events.DataAs[events.SessionChangedEvent](event); !ok {
		return nil
	}
	f.mu.Lock()
	f.snapshot = nil
	f.generation++
	f.mu.Unlock()
	return nil
}

// GetName returns the observer's name.
func (f *CollectionFacade) GetName() string {
	return "CollectionFacade"
}

// ShouldHandle accepts session:changed.
func (f *CollectionFacade) ShouldHandle(eventType string) bool {
	return eventType == events.SessionChanged
}

func duplicateError(cardID string) *AppError {
	return &AppError{
		Message: "This card is already in your collection.",
		Err:     fmt.Errorf("%w: %s", collection.ErrDuplicateCard, cardID),
	}
}

func (s *Snapshot) copy() *Snapshot {
	c := *s
	c.Entries = append([]collection.EnrichedEntry(nil), s.Entries...)
	return &c
}

var (
	_ events.Observer = (*CollectionFacade)(nil)
	_ Catalog         = (*pokemontcg.Client)(nil)
	_ Backend         = (*backend.Client)(nil)
)
