// Package handlers implements the HTTP handlers of the local API.
package handlers

import (
	"context"
	"io"

	"github.com/ramonehamilton/PTCG-Companion/internal/collection"
	"github.com/ramonehamilton/PTCG-Companion/internal/companion"
	"github.com/ramonehamilton/PTCG-Companion/internal/export"
	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
	"github.com/ramonehamilton/PTCG-Companion/internal/session"
)

// SessionService is the session operations used by SessionHandler.
type SessionService interface {
	State() session.State
	Login(ctx context.Context, email, password string) (session.State, error)
	Register(ctx context.Context, input companion.RegisterInput) (string, error)
	Logout(ctx context.Context) session.State
	SetAvatar(ctx context.Context, index int) (session.State, error)
}

// CatalogService is the catalog operations used by CatalogHandler.
type CatalogService interface {
	ListSets(ctx context.Context) ([]pokemontcg.Set, error)
	SetCards(ctx context.Context, setID, filter string) ([]pokemontcg.Card, error)
	SearchCards(ctx context.Context, name string) ([]pokemontcg.Card, error)
	CardDetail(ctx context.Context, cardID string) (*companion.CardDetail, error)
}

// CollectionService is the collection operations used by CollectionHandler.
type CollectionService interface {
	Snapshot(ctx context.Context) (*companion.Snapshot, error)
	Refresh(ctx context.Context) (*companion.Snapshot, error)
	Add(ctx context.Context, cardID string) (*collection.EnrichedEntry, error)
	Remove(ctx context.Context, entryID int64) error
	Value(ctx context.Context) (*companion.ValueSummary, error)
	Series(ctx context.Context) ([]companion.SeriesSummary, error)
	Spend(ctx context.Context, mode string) ([]collection.DayAmount, error)
	RenderSeriesChart(ctx context.Context, w io.Writer) error
	RenderSpendChart(ctx context.Context, w io.Writer, mode string) error
	Export(ctx context.Context, w io.Writer, format string) (export.Format, error)
	Profile(ctx context.Context) (*companion.Profile, error)
}

var (
	_ SessionService    = (*companion.SessionFacade)(nil)
	_ CatalogService    = (*companion.CatalogFacade)(nil)
	_ CollectionService = (*companion.CollectionFacade)(nil)
)
