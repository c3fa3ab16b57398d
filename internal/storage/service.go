package storage

import (
	"context"
	"errors"

	"github.com/ramonehamilton/PTCG-Companion/internal/storage/repository"
)

// Service is the durable local key/value store used by the session layer.
type Service struct {
	db       *DB
	settings repository.SettingsRepository
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:       db,
		settings: repository.NewSettingsRepository(db.Conn()),
	}
}

// Lookup decodes the value stored under key into target.
// found is false when the key is absent.
func (s *Service) Lookup(ctx context.Context, key string, target interface{}) (found bool, err error) {
	err = s.settings.GetTyped(ctx, key, target)
	if errors.Is(err, repository.ErrSettingNotFound) {
		return false, nil
	}
	if err != nil {
		return true, err
	}
	return true, nil
}

// Save stores all values in one transaction.
func (s *Service) Save(ctx context.Context, values map[string]interface{}) error {
	return s.settings.SetMany(ctx, values)
}

// Delete removes every key in one transaction.
func (s *Service) Delete(ctx context.Context, keys ...string) error {
	return s.settings.Delete(ctx, keys...)
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}
