package companion

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/ramonehamilton/PTCG-Companion/internal/backend"
	"github.com/ramonehamilton/PTCG-Companion/internal/collection"
	"github.com/ramonehamilton/PTCG-Companion/internal/events"
	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
	"github.com/ramonehamilton/PTCG-Companion/internal/session"
)

type memStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func (s *memStore) Lookup(_ context.Context, key string, target interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, target)
}

func (s *memStore) Save(_ context.Context, values map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		s.values[k] = raw
	}
	return nil
}

func (s *memStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

type fakeCatalog struct {
	mu    sync.Mutex
	cards map[string]*pokemontcg.Card
	sets  []pokemontcg.Set
	err   error
	calls int
}

func (c *fakeCatalog) GetSets(context.Context) ([]pokemontcg.Set, error) {
	return c.sets, c.err
}

func (c *fakeCatalog) SearchCards(_ context.Context, query string) ([]pokemontcg.Card, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []pokemontcg.Card
	for _, card := range c.cards {
		if card.Name == query {
			out = append(out, *card)
		}
	}
	return out, nil
}

func (c *fakeCatalog) GetCardsBySet(_ context.Context, setID string) ([]pokemontcg.Card, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []pokemontcg.Card
	for _, card := range c.cards {
		if card.Set.ID == setID {
			out = append(out, *card)
		}
	}
	return out, nil
}

func (c *fakeCatalog) GetCard(_ context.Context, id string) (*pokemontcg.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	card, ok := c.cards[id]
	if !ok {
		return nil, &pokemontcg.NotFoundError{URL: "/cards/" + id}
	}
	return card, nil
}

type fakeBackend struct {
	mu sync.Mutex

	entries   []collection.Entry
	nextID    int64
	loginErr  error
	listErr   error
	addErr    error
	deleteErr error
	regErr    error
	user      backend.User

	listCalls int
	addCalls  int

	// onList runs while a listing is in flight
	onList func()
}

func (b *fakeBackend) Login(_ context.Context, email, _ string) (*backend.LoginResult, error) {
	if b.loginErr != nil {
		return nil, b.loginErr
	}
	return &backend.LoginResult{Token: "tok-" + email, User: b.user}, nil
}

func (b *fakeBackend) Register(context.Context, backend.RegisterRequest) (string, error) {
	if b.regErr != nil {
		return "", b.regErr
	}
	return "User created", nil
}

func (b *fakeBackend) ListCollection(context.Context) ([]collection.Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	if b.onList != nil {
		b.onList()
	}
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]collection.Entry(nil), b.entries...), nil
}

func (b *fakeBackend) AddCard(_ context.Context, cardID string) (*collection.Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addCalls++
	if b.addErr != nil {
		return nil, b.addErr
	}
	b.nextID++
	entry := collection.Entry{ID: 100 + b.nextID, CardID: cardID, CreatedAt: "2024-03-05T10:00:00Z"}
	b.entries = append(b.entries, entry)
	return &entry, nil
}

func (b *fakeBackend) DeleteEntry(_ context.Context, entryID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	for i, e := range b.entries {
		if e.ID == entryID {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return nil
		}
	}
	return &backend.StatusError{StatusCode: 404}
}

func (b *fakeBackend) GetProfile(context.Context) (*backend.User, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	u := b.user
	return &u, nil
}

func pricedCard(t *testing.T, id, series, prices string) *pokemontcg.Card {
	t.Helper()
	var card pokemontcg.Card
	data := `{"id":"` + id + `","name":"Card ` + id + `","set":{"id":"set-` + series + `","series":"` + series + `"},` +
		`"images":{"large":"https://images.example/` + id + `.png"},"tcgplayer":{"prices":` + prices + `}}`
	if err := json.Unmarshal([]byte(data), &card); err != nil {
		t.Fatalf("Failed to decode card: %v", err)
	}
	return &card
}

type fixture struct {
	services   *Services
	catalog    *fakeCatalog
	backend    *fakeBackend
	dispatcher *events.EventDispatcher
	sessions   *SessionFacade
	catalogs   *CatalogFacade
	collection *CollectionFacade
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := &fakeCatalog{cards: map[string]*pokemontcg.Card{
		"base1-4":  pricedCard(t, "base1-4", "Base", `{"normal":{"market":"4.50"}}`),
		"base2-1":  pricedCard(t, "base2-1", "Base", `{"holofoil":{"market":"12.00"}}`),
		"jungle-7": pricedCard(t, "jungle-7", "Jungle", `{}`),
		"xy1-1":    pricedCard(t, "xy1-1", "XY", `{"holofoil":{"market":10},"reverseHolofoil":{"market":5}}`),
	}}
	remote := &fakeBackend{user: backend.User{ID: 1, Name: "Ash", Email: "ash@example.com", CreatedAt: "2023-05-04T12:00:00Z"}}

	dispatcher := events.NewEventDispatcher()
	sess := session.NewManager(&memStore{values: map[string][]byte{}}, session.Options{Dispatcher: dispatcher})

	services, err := NewServices(sess, catalog, remote, dispatcher)
	if err != nil {
		t.Fatalf("NewServices failed: %v", err)
	}

	f := &fixture{
		services:   services,
		catalog:    catalog,
		backend:    remote,
		dispatcher: dispatcher,
		sessions:   NewSessionFacade(services),
		catalogs:   NewCatalogFacade(services),
		collection: NewCollectionFacade(services),
	}
	dispatcher.Register(f.collection)
	return f
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	if _, err := f.sessions.Login(context.Background(), "ash@example.com", "pikachu"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}
