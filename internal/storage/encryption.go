package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// SealedPrefix marks a persisted value as encrypted
	SealedPrefix = "PTCGENC1:"

	// Argon2id defaults from RFC 9106
	defaultArgon2Time    = 1
	defaultArgon2Memory  = 64 * 1024 // 64 MB
	defaultArgon2Threads = 4
	defaultArgon2KeyLen  = 32 // 256 bits for AES-256

	saltLength = 32
)

// EncryptionConfig holds the passphrase and Argon2id cost parameters used
// to derive the AES-256 key.
type EncryptionConfig struct {
	Password string

	Argon2Time    uint32 // iterations, default 1
	Argon2Memory  uint32 // KiB, default 64 MiB
	Argon2Threads uint8  // default 4
}

// DefaultEncryptionConfig returns encryption config with secure defaults.
func DefaultEncryptionConfig(password string) *EncryptionConfig {
	return &EncryptionConfig{
		Password:      password,
		Argon2Time:    defaultArgon2Time,
		Argon2Memory:  defaultArgon2Memory,
		Argon2Threads: defaultArgon2Threads,
	}
}

// newGCM derives the key for salt with Argon2id and wraps it in AES-GCM.
func newGCM(salt []byte, config *EncryptionConfig) (cipher.AEAD, error) {
	key := argon2.IDKey(
		[]byte(config.Password),
		salt,
		config.Argon2Time,
		config.Argon2Memory,
		config.Argon2Threads,
		defaultArgon2KeyLen,
	)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// EncryptData encrypts data using AES-256-GCM with a fresh random salt.
// Layout: salt || nonce || ciphertext+tag.
func EncryptData(plaintext []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, fmt.Errorf("encryption config with password required")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(salt, config)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	result := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	result = append(result, salt...)
	result = append(result, nonce...)
	return gcm.Seal(result, nonce, plaintext, nil), nil
}

// DecryptData decrypts data that was encrypted with EncryptData.
func DecryptData(encrypted []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, fmt.Errorf("encryption config with password required")
	}

	// salt + 12 byte nonce + 16 byte tag
	if len(encrypted) < saltLength+12+16 {
		return nil, fmt.Errorf("encrypted data too short")
	}

	gcm, err := newGCM(encrypted[:saltLength], config)
	if err != nil {
		return nil, err
	}

	rest := encrypted[saltLength:]
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong password or corrupted data): %w", err)
	}
	return plaintext, nil
}

// Seal encrypts a short secret (the auth token) for storage and returns
// it as SealedPrefix followed by base64 ciphertext.
func Seal(plaintext string, config *EncryptionConfig) (string, error) {
	encrypted, err := EncryptData([]byte(plaintext), config)
	if err != nil {
		return "", err
	}
	return SealedPrefix + base64.StdEncoding.EncodeToString(encrypted), nil
}

// Unseal reverses Seal.
func Unseal(sealed string, config *EncryptionConfig) (string, error) {
	if !IsSealed(sealed) {
		return "", fmt.Errorf("value is not sealed")
	}

	encrypted, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, SealedPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed value: %w", err)
	}

	plaintext, err := DecryptData(encrypted, config)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// IsSealed reports whether value was produced by Seal.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SealedPrefix)
}
