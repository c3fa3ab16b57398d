package collection

import (
	"context"
	"fmt"
	"log"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
)

// DefaultCacheSize bounds the in-memory card cache.
const DefaultCacheSize = 512

// DefaultWorkers caps concurrent catalog lookups during enrichment.
const DefaultWorkers = 4

// CardFetcher retrieves catalog card detail.
type CardFetcher interface {
	GetCard(ctx context.Context, id string) (*pokemontcg.Card, error)
}

// Enricher joins collection entries with catalog detail. Request spacing
// is the fetcher's concern; the catalog client enforces it.
type Enricher struct {
	fetcher CardFetcher
	cache   *lru.Cache
	workers int
}

// NewEnricher creates an enricher with a bounded card cache.
func NewEnricher(fetcher CardFetcher, cacheSize, workers int) (*Enricher, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create card cache: %w", err)
	}
	return &Enricher{fetcher: fetcher, cache: cache, workers: workers}, nil
}

// Card returns catalog detail for id, from the cache when possible.
func (e *Enricher) Card(ctx context.Context, id string) (*pokemontcg.Card, error) {
	if v, ok := e.cache.Get(id); ok {
		return v.(*pokemontcg.Card), nil
	}
	card, err := e.fetcher.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	e.cache.Add(id, card)
	return card, nil
}

// Reset drops every cached card.
func (e *Enricher) Reset() {
	e.cache.Purge()
}

// Enrich resolves the catalog card of every entry. Lookups for distinct
// card IDs run concurrently and each ID is fetched once. The result keeps
// the order of entries. A failed lookup leaves Card nil and is logged.
func (e *Enricher) Enrich(ctx context.Context, entries []Entry) []EnrichedEntry {
	out := make([]EnrichedEntry, len(entries))
	pending := make(map[string][]int)
	for i, entry := range entries {
		out[i].Entry = entry
		if entry.CardID == "" {
			continue
		}
		if v, ok := e.cache.Get(entry.CardID); ok {
			out[i].Card = v.(*pokemontcg.Card)
			continue
		}
		pending[entry.CardID] = append(pending[entry.CardID], i)
	}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for id, indexes := range pending {
		id, indexes := id, indexes
		g.Go(func() error {
			card, err := e.Card(ctx, id)
			if err != nil {
				log.Printf("[Enricher] Catalog lookup for %s failed: %v", id, err)
				return nil
			}
			// indexes are disjoint between goroutines
			for _, i := range indexes {
				out[i].Card = card
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}
