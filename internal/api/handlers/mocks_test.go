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

// mockSessionFacade is a mock implementation of SessionService for testing.
type mockSessionFacade struct {
	state      session.State
	message    string
	err        error
	lastEmail  string
	lastInput  companion.RegisterInput
	lastAvatar int
	loggedOut  bool
}

func (m *mockSessionFacade) State() session.State { return m.state }

func (m *mockSessionFacade) Login(_ context.Context, email, _ string) (session.State, error) {
	m.lastEmail = email
	if m.err != nil {
		return session.State{}, m.err
	}
	m.state.Authenticated = true
	return m.state, nil
}

func (m *mockSessionFacade) Register(_ context.Context, input companion.RegisterInput) (string, error) {
	m.lastInput = input
	return m.message, m.err
}

func (m *mockSessionFacade) Logout(_ context.Context) session.State {
	m.loggedOut = true
	m.state.Authenticated = false
	m.state.User = nil
	return m.state
}

func (m *mockSessionFacade) SetAvatar(_ context.Context, index int) (session.State, error) {
	m.lastAvatar = index
	if m.err != nil {
		return session.State{}, m.err
	}
	m.state.Avatar = index
	return m.state, nil
}

// mockCatalogFacade is a mock implementation of CatalogService for testing.
type mockCatalogFacade struct {
	sets       []pokemontcg.Set
	cards      []pokemontcg.Card
	detail     *companion.CardDetail
	err        error
	lastSet    string
	lastFilter string
	lastName   string
}

func (m *mockCatalogFacade) ListSets(_ context.Context) ([]pokemontcg.Set, error) {
	return m.sets, m.err
}

func (m *mockCatalogFacade) SetCards(_ context.Context, setID, filter string) ([]pokemontcg.Card, error) {
	m.lastSet, m.lastFilter = setID, filter
	return m.cards, m.err
}

func (m *mockCatalogFacade) SearchCards(_ context.Context, name string) ([]pokemontcg.Card, error) {
	m.lastName = name
	return m.cards, m.err
}

func (m *mockCatalogFacade) CardDetail(_ context.Context, _ string) (*companion.CardDetail, error) {
	return m.detail, m.err
}

// mockCollectionFacade is a mock implementation of CollectionService for testing.
type mockCollectionFacade struct {
	snapshot  *companion.Snapshot
	entry     *collection.EnrichedEntry
	value     *companion.ValueSummary
	series    []companion.SeriesSummary
	spend     []collection.DayAmount
	profile   *companion.Profile
	chart     string
	err       error
	refreshed bool
	added     string
	removed   int64
	lastMode  string
}

func (m *mockCollectionFacade) Snapshot(_ context.Context) (*companion.Snapshot, error) {
	return m.snapshot, m.err
}

func (m *mockCollectionFacade) Refresh(_ context.Context) (*companion.Snapshot, error) {
	m.refreshed = true
	return m.snapshot, m.err
}

func (m *mockCollectionFacade) Add(_ context.Context, cardID string) (*collection.EnrichedEntry, error) {
	m.added = cardID
	return m.entry, m.err
}

func (m *mockCollectionFacade) Remove(_ context.Context, entryID int64) error {
	m.removed = entryID
	return m.err
}

func (m *mockCollectionFacade) Value(_ context.Context) (*companion.ValueSummary, error) {
	return m.value, m.err
}

func (m *mockCollectionFacade) Series(_ context.Context) ([]companion.SeriesSummary, error) {
	return m.series, m.err
}

func (m *mockCollectionFacade) Spend(_ context.Context, mode string) ([]collection.DayAmount, error) {
	m.lastMode = mode
	return m.spend, m.err
}

func (m *mockCollectionFacade) RenderSeriesChart(_ context.Context, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, m.chart)
	return err
}

func (m *mockCollectionFacade) RenderSpendChart(_ context.Context, w io.Writer, mode string) error {
	m.lastMode = mode
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, m.chart)
	return err
}

func (m *mockCollectionFacade) Export(_ context.Context, w io.Writer, format string) (export.Format, error) {
	if m.err != nil {
		return "", m.err
	}
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return "", err
	}
	_, err = io.WriteString(w, m.chart)
	return parsed, err
}

func (m *mockCollectionFacade) Profile(_ context.Context) (*companion.Profile, error) {
	return m.profile, m.err
}
