package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned by FileTokenStore.Load when no token is cached
var ErrNoToken = errors.New("no cached Google OAuth token")

// FileTokenStore keeps one OAuth token as JSON in a file
type FileTokenStore struct {
	Path string
}

// NewFileTokenStore creates a store for the token file at path
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: path}
}

// HasToken reports whether a token file exists
func (s *FileTokenStore) HasToken() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Load reads the cached token
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.Path, err)
	}
	return tok, nil
}

// Save writes tok, creating the parent directory when needed
func (s *FileTokenStore) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(s.Path, b, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// PersistingTokenSource writes every new token from its base source to a store
type PersistingTokenSource struct {
	base  oauth2.TokenSource
	store *FileTokenStore

	mu   sync.Mutex
	last string
}

// NewPersistingTokenSource wraps base. current is the token already stored.
func NewPersistingTokenSource(base oauth2.TokenSource, store *FileTokenStore, current *oauth2.Token) *PersistingTokenSource {
	ts := &PersistingTokenSource{base: base, store: store}
	if current != nil {
		ts.last = current.AccessToken
	}
	return ts
}

// Token returns a token from the base source, saving it when it changed
func (ts *PersistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := ts.base.Token()
	if err != nil {
		return nil, err
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if tok.AccessToken != ts.last {
		if err := ts.store.Save(tok); err != nil {
			return nil, err
		}
		ts.last = tok.AccessToken
	}
	return tok, nil
}
