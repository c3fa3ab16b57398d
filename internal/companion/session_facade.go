package companion

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/ramonehamilton/PTCG-Companion/internal/backend"
	"github.com/ramonehamilton/PTCG-Companion/internal/session"
)

// SessionFacade handles login, registration and logout.
type SessionFacade struct {
	services *Services
}

// NewSessionFacade creates a new SessionFacade with the given services.
func NewSessionFacade(services *Services) *SessionFacade {
	return &SessionFacade{services: services}
}

// RegisterInput is the account creation form.
type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// State returns the current session.
func (f *SessionFacade) State() session.State {
	return f.services.Session.Snapshot()
}

// Login authenticates against the backend and starts a session.
func (f *SessionFacade) Login(ctx context.Context, email, password string) (session.State, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return session.State{}, validationError("Please enter your email and password.")
	}

	result, err := f.services.Backend.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, backend.ErrInvalidCredentials) {
			return session.State{}, &AppError{Message: "Invalid email or password.", Err: err}
		}
		return session.State{}, f.services.backendError(ctx, "log in", err)
	}

	if err := f.services.Session.Login(ctx, result.Token, result.User); err != nil {
		// The session is live in memory; only the durable copy failed.
		log.Printf("[Session] Login not persisted: %v", err)
	}
	log.Printf("[Session] Logged in as %s", result.User.Name)
	return f.services.Session.Snapshot(), nil
}

// Register creates an account. It does not log in.
func (f *SessionFacade) Register(ctx context.Context, input RegisterInput) (string, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" ||
		input.Password == "" || input.Password != input.ConfirmPassword {
		return "", validationError("Please fill in every field and make sure the passwords match.")
	}

	message, err := f.services.Backend.Register(ctx, backend.RegisterRequest{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.TrimSpace(input.Email),
		Password: input.Password,
	})
	if err != nil {
		var regErr *backend.RegistrationError
		if errors.As(err, &regErr) {
			return "", &AppError{Message: regErr.Error(), Err: errors.Join(ErrValidation, regErr)}
		}
		return "", f.services.backendError(ctx, "register", err)
	}

	if message == "" {
		message = "Registration successful."
	}
	return message, nil
}

// Logout ends the session locally.
func (f *SessionFacade) Logout(ctx context.Context) session.State {
	if err := f.services.Session.Logout(ctx); err != nil {
		log.Printf("[Session] Logout not persisted: %v", err)
	}
	return f.services.Session.Snapshot()
}

// SetAvatar selects the profile avatar.
func (f *SessionFacade) SetAvatar(ctx context.Context, index int) (session.State, error) {
	if err := f.services.Session.SetAvatar(ctx, index); err != nil {
		if errors.Is(err, session.ErrInvalidAvatar) {
			return session.State{}, validationError("Avatar index must not be negative.")
		}
		log.Printf("[Session] Avatar not persisted: %v", err)
	}
	return f.services.Session.Snapshot(), nil
}
