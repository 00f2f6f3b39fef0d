package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/yutashop/storefront/internal/domain/auth"
)

// storedSession is the on-disk shape. The token and user keys are fixed;
// a restart reads them back to seed the session.
type storedSession struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// FileStore persists the auth session to a local JSON file. It is the only
// durable state in the system; everything else resets on reload.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (auth.Session, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return auth.Session{}, nil
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("session: load: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return auth.Session{}, fmt.Errorf("session: load: decode: %w", err)
	}
	return auth.Session{Token: stored.Token, User: stored.User}, nil
}

func (s *FileStore) Save(ctx context.Context, session auth.Session) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(storedSession{Token: session.Token, User: session.User})
	if err != nil {
		return fmt.Errorf("session: save: encode: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("session: save: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}
