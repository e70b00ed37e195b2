// Package settings keeps quote provider credentials in an encrypted file so
// keys do not have to live in the environment.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"portfolio-manager/config"
	"portfolio-manager/observability"
)

// Providers that take stored credentials
const (
	ProviderMarketstack = "marketstack"
	ProviderAlpaca      = "alpaca"
)

const fileName = "credentials.enc"

var (
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrCredentialNotFound = errors.New("credential not found")
)

var knownProviders = []string{ProviderAlpaca, ProviderMarketstack}

// Credential is the stored secret material for one provider
type Credential struct {
	Provider  string    `json:"provider"`
	APIKey    string    `json:"api_key"`
	APISecret string    `json:"api_secret,omitempty"`
	BaseURL   string    `json:"base_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Masked returns a copy safe to print
func (c Credential) Masked() Credential {
	c.APIKey = maskString(c.APIKey)
	c.APISecret = maskString(c.APISecret)
	return c
}

func (c *Credential) validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if !slices.Contains(knownProviders, c.Provider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: api key is required", ErrInvalidCredential)
	}
	if c.Provider == ProviderAlpaca && c.APISecret == "" {
		return fmt.Errorf("%w: alpaca needs an api secret", ErrInvalidCredential)
	}
	return nil
}

// Store manages the encrypted credentials file
type Store struct {
	mu          sync.RWMutex
	filePath    string
	credentials map[string]Credential
	crypto      *Crypto
	now         func() time.Time
}

// NewStore opens the store in dataDir, creating the directory if needed.
// A missing file is an empty store; a file that cannot be decrypted is an
// error.
func NewStore(dataDir, passphrase string) (*Store, error) {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".portfolio-manager")
	}

	crypto, err := NewCrypto(passphrase)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	s := &Store{
		filePath:    filepath.Join(dataDir, fileName),
		credentials: make(map[string]Credential),
		crypto:      crypto,
		now:         time.Now,
	}
	if err := s.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	plaintext, err := s.crypto.Decrypt(data)
	if err != nil {
		return fmt.Errorf("failed to decrypt %s: %w", s.filePath, err)
	}

	var creds []Credential
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range creds {
		s.credentials[c.Provider] = c
	}
	return nil
}

// save writes the store; callers hold mu.
func (s *Store) save() error {
	data, err := json.Marshal(s.listLocked())
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	encrypted, err := s.crypto.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	if err := os.WriteFile(s.filePath, encrypted, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// Get returns the credential for provider
func (s *Store) Get(provider string) (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credentials[strings.ToLower(provider)]
	return c, ok
}

// Set validates and stores c, replacing any previous credential
func (s *Store) Set(c Credential) error {
	if err := c.validate(); err != nil {
		return err
	}
	c.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[c.Provider] = c
	return s.save()
}

// Delete removes the credential for provider
func (s *Store) Delete(provider string) error {
	provider = strings.ToLower(provider)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[provider]; !ok {
		return fmt.Errorf("%w: %s", ErrCredentialNotFound, provider)
	}
	delete(s.credentials, provider)
	return s.save()
}

// List returns masked credentials ordered by provider
func (s *Store) List() []Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.listLocked()
	for i := range out {
		out[i] = out[i].Masked()
	}
	return out
}

func (s *Store) listLocked() []Credential {
	out := make([]Credential, 0, len(s.credentials))
	for _, p := range knownProviders {
		if c, ok := s.credentials[p]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Apply fills provider settings the environment left empty. It returns
// the providers that were taken from the store.
func (s *Store) Apply(cfg *config.Config) []string {
	var applied []string

	if c, ok := s.Get(ProviderMarketstack); ok && cfg.Marketstack.APIKey == "" {
		cfg.Marketstack.APIKey = c.APIKey
		if c.BaseURL != "" {
			cfg.Marketstack.BaseURL = c.BaseURL
		}
		applied = append(applied, ProviderMarketstack)
	}
	if c, ok := s.Get(ProviderAlpaca); ok && cfg.Alpaca.APIKey == "" {
		cfg.Alpaca.APIKey = c.APIKey
		cfg.Alpaca.APISecret = c.APISecret
		applied = append(applied, ProviderAlpaca)
	}

	if len(applied) > 0 {
		observability.Info("provider credentials loaded from settings", "providers", applied)
	}
	return applied
}

// maskString masks a string showing only last 4 characters
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
