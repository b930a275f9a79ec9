/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - API Tokens
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package auth protects the HTTP surface with bearer tokens. Only the
// SHA-256 hash of each token is stored on disk.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"kiosk-assistant/internal/filewatch"
)

// ErrTokenExpired is returned when a known token is past its expiry
var ErrTokenExpired = errors.New("token has expired")

// Token represents an API token issued to a kiosk client
type Token struct {
	Hash       string     `yaml:"hash"`       // SHA256 hash of the token
	ExpiresAt  *time.Time `yaml:"expires_at"` // Expiry date (null for indefinite)
	Annotation string     `yaml:"annotation"` // e.g. the kiosk location
	CreatedAt  time.Time  `yaml:"created_at"`
}

// TokenStore manages API tokens
type TokenStore struct {
	mu      sync.RWMutex
	Tokens  map[string]*Token `yaml:"tokens"` // key is the client ID
	path    string
	watcher *filewatch.Watcher
}

// TokenInfo is a display-friendly representation of a token
type TokenInfo struct {
	ID         string
	HashPrefix string
	ExpiresAt  *time.Time
	Annotation string
	CreatedAt  time.Time
	Expired    bool
}

// GenerateToken creates a new random API token
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// HashToken creates a SHA256 hash of the token
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// NewTokenStore creates an empty token store bound to path
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{
		Tokens: make(map[string]*Token),
		path:   path,
	}
}

// LoadTokenStore loads tokens from a YAML file
func LoadTokenStore(path string) (*TokenStore, error) {
	tokens, err := readTokens(path)
	if err != nil {
		return nil, err
	}
	return &TokenStore{Tokens: tokens, path: path}, nil
}

// LoadOrCreateTokenStore loads path, or returns an empty store bound to it
// when the file does not exist yet
func LoadOrCreateTokenStore(path string) (*TokenStore, error) {
	store, err := LoadTokenStore(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewTokenStore(path), nil
	}
	return store, err
}

func readTokens(path string) (map[string]*Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Tokens map[string]*Token `yaml:"tokens"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if file.Tokens == nil {
		file.Tokens = make(map[string]*Token)
	}
	return file.Tokens, nil
}

// Path returns the token file path
func (s *TokenStore) Path() string {
	return s.path
}

// Reload reloads the token store from disk
func (s *TokenStore) Reload() error {
	if s.path == "" {
		return fmt.Errorf("no path set for token store")
	}

	tokens, err := readTokens(s.path)
	if err != nil {
		return fmt.Errorf("failed to reload token file: %w", err)
	}

	s.mu.Lock()
	s.Tokens = tokens
	s.mu.Unlock()
	return nil
}

// Save writes the store to its path with owner-only permissions
func (s *TokenStore) Save() error {
	if s.path == "" {
		return fmt.Errorf("no path set for token store")
	}

	s.mu.RLock()
	data, err := yaml.Marshal(struct {
		Tokens map[string]*Token `yaml:"tokens"`
	}{s.Tokens})
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// AddToken adds a token hash for a client
func (s *TokenStore) AddToken(clientID, hash, annotation string, expiresAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clientID == "" {
		return fmt.Errorf("client ID is required")
	}
	if _, exists := s.Tokens[clientID]; exists {
		return fmt.Errorf("token with ID '%s' already exists", clientID)
	}

	s.Tokens[clientID] = &Token{
		Hash:       hash,
		ExpiresAt:  expiresAt,
		Annotation: annotation,
		CreatedAt:  time.Now().UTC(),
	}
	return nil
}

// RemoveToken removes a token by client ID or by a hash prefix of at
// least 8 characters
func (s *TokenStore) RemoveToken(identifier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.Tokens[identifier]; exists {
		delete(s.Tokens, identifier)
		return true
	}

	if len(identifier) < 8 {
		return false
	}
	for id, token := range s.Tokens {
		if len(token.Hash) >= len(identifier) && token.Hash[:len(identifier)] == identifier {
			delete(s.Tokens, id)
			return true
		}
	}
	return false
}

// Authenticate returns the client ID owning token. Unknown tokens yield
// an empty ID and no error; expired ones ErrTokenExpired.
func (s *TokenStore) Authenticate(token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hash := HashToken(token)
	for id, stored := range s.Tokens {
		if stored.Hash != hash {
			continue
		}
		if stored.ExpiresAt != nil && stored.ExpiresAt.Before(time.Now()) {
			return "", ErrTokenExpired
		}
		return id, nil
	}
	return "", nil
}

// ListTokens returns all tokens sorted by client ID
func (s *TokenStore) ListTokens() []TokenInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	result := make([]TokenInfo, 0, len(s.Tokens))
	for id, token := range s.Tokens {
		prefix := token.Hash
		if len(prefix) > 12 {
			prefix = prefix[:12]
		}
		result = append(result, TokenInfo{
			ID:         id,
			HashPrefix: prefix,
			ExpiresAt:  token.ExpiresAt,
			Annotation: token.Annotation,
			CreatedAt:  token.CreatedAt,
			Expired:    token.ExpiresAt != nil && token.ExpiresAt.Before(now),
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// StartWatching reloads the store whenever its file changes
func (s *TokenStore) StartWatching() error {
	if s.path == "" {
		return fmt.Errorf("no path set for token store")
	}

	watcher, err := filewatch.New(s.path, s.Reload)
	if err != nil {
		return err
	}

	s.watcher = watcher
	s.watcher.Start()
	return nil
}

// StopWatching stops watching the token file
func (s *TokenStore) StopWatching() {
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
}
