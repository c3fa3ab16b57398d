// Package companion composes the session, catalog and collection
// components into the operations the front-end calls. Every failure leaves
// a facade as an *AppError carrying a user-facing message.
package companion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/ramonehamilton/PTCG-Companion/internal/backend"
	"github.com/ramonehamilton/PTCG-Companion/internal/collection"
	"github.com/ramonehamilton/PTCG-Companion/internal/events"
	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
	"github.com/ramonehamilton/PTCG-Companion/internal/session"
)

var (
	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing card, set or collection entry.
	ErrNotFound = errors.New("not found")

	// ErrUpstream marks a failure of the catalog or backend API.
	ErrUpstream = errors.New("upstream request failed")
)

// Catalog is the read-only card catalog.
type Catalog interface {
	GetSets(ctx context.Context) ([]pokemontcg.Set, error)
	SearchCards(ctx context.Context, query string) ([]pokemontcg.Card, error)
	GetCardsBySet(ctx context.Context, setID string) ([]pokemontcg.Card, error)
	GetCard(ctx context.Context, id string) (*pokemontcg.Card, error)
}

// Backend is the remote collection and account API.
type Backend interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResult, error)
	Register(ctx context.Context, req backend.RegisterRequest) (string, error)
	ListCollection(ctx context.Context) ([]collection.Entry, error)
	AddCard(ctx context.Context, cardID string) (*collection.Entry, error)
	DeleteEntry(ctx context.Context, entryID int64) error
	GetProfile(ctx context.Context) (*backend.User, error)
}

// Services holds the dependencies shared by the facades.
type Services struct {
	Session    *session.Manager
	Catalog    Catalog
	Backend    Backend
	Enricher   *collection.Enricher
	Dispatcher events.Dispatcher
}

// NewServices wires the shared dependencies. The enricher resolves cards
// through catalog.
func NewServices(sess *session.Manager, catalog Catalog, remote Backend, dispatcher events.Dispatcher) (*Services, error) {
	enricher, err := collection.NewEnricher(catalog, collection.DefaultCacheSize, collection.DefaultWorkers)
	if err != nil {
		return nil, err
	}
	return &Services{
		Session:    sess,
		Catalog:    catalog,
		Backend:    remote,
		Enricher:   enricher,
		Dispatcher: dispatcher,
	}, nil
}

func (s *Services) dispatch(ctx context.Context, eventType string, data any) {
	if s.Dispatcher != nil {
		s.Dispatcher.Dispatch(events.NewEvent(ctx, eventType, data))
	}
}

// AppError represents an application error with a user-friendly message.
type AppError struct {
	Message string `json:"message"`
	Err     error  `json:"-"` // Wrapped error for errors.Is/As chain
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

func validationError(message string) *AppError {
	return &AppError{Message: message, Err: ErrValidation}
}

func notAuthenticated() *AppError {
	return &AppError{Message: "Please log in first.", Err: session.ErrNotAuthenticated}
}

// backendError converts a backend failure into an AppError. A rejected
// token ends the session so the user is asked to log in again.
func (s *Services) backendError(ctx context.Context, action string, err error) *AppError {
	var statusErr *backend.StatusError

	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		log.Printf("[Session] Backend rejected the session token during %s", action)
		if lerr := s.Session.Expire(ctx); lerr != nil {
			log.Printf("[Session] %v", lerr)
		}
		return &AppError{Message: "Your session has expired. Please log in again.", Err: err}

	case errors.Is(err, backend.ErrMissingToken):
		return &AppError{Message: "Please log in first.", Err: fmt.Errorf("%w: %w", session.ErrNotAuthenticated, err)}

	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return &AppError{Message: fmt.Sprintf("Failed to %s: not found.", action), Err: fmt.Errorf("%w: %w", ErrNotFound, err)}

	default:
		log.Printf("[Backend] Failed to %s: %v", action, err)
		return &AppError{Message: fmt.Sprintf("Failed to %s. Please try again.", action), Err: fmt.Errorf("%w: %w", ErrUpstream, err)}
	}
}

// catalogError converts a catalog failure into an AppError.
func catalogError(action string, err error) *AppError {
	if pokemontcg.IsNotFound(err) {
		return &AppError{Message: fmt.Sprintf("Failed to %s: not found.", action), Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	}
	log.Printf("[Catalog] Failed to %s: %v", action, err)
	return &AppError{Message: fmt.Sprintf("Failed to %s. Please try again.", action), Err: fmt.Errorf("%w: %w", ErrUpstream, err)}
}
