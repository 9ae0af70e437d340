package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileState is the on-disk layout of the credential file.
type fileState struct {
	CartKey   string `json:"cart_key,omitempty"`
	AuthToken string `json:"auth_token,omitempty"`
}

// FileStore persists credentials to a JSON file so cart sessions and logins
// survive process restarts. The file is created with 0600 permissions.
type FileStore struct {
	mu    sync.Mutex
	path  string
	state fileState
}

// NewFileStore opens or creates a credential file at path.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("session: read %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &fs.state); err != nil {
			// A corrupt file is treated as empty rather than fatal; the
			// credentials it held are unusable anyway.
			fs.state = fileState{}
		}
	}
	fs.state.CartKey = NormalizeCartKey(fs.state.CartKey)
	return fs, nil
}

func (f *FileStore) CartKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return NormalizeCartKey(f.state.CartKey)
}

func (f *FileStore) SetCartKey(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.CartKey = NormalizeCartKey(key)
	return f.flush()
}

func (f *FileStore) ClearCartKey() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.CartKey = ""
	return f.flush()
}

func (f *FileStore) AuthToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.AuthToken
}

func (f *FileStore) SetAuthToken(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.AuthToken = token
	return f.flush()
}

func (f *FileStore) ClearAuthToken() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.AuthToken = ""
	return f.flush()
}

// flush writes the current state. Caller must hold the lock.
func (f *FileStore) flush() error {
	data, err := json.MarshalIndent(f.state, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal state: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("session: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", f.path, err)
	}
	return nil
}
