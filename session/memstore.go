package session

import "sync"

// MemStore is an in-memory Store. Used in tests and when no session file is
// configured.
type MemStore struct {
	mu        sync.Mutex
	cartKey   string
	authToken string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) CartKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NormalizeCartKey(m.cartKey)
}

func (m *MemStore) SetCartKey(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cartKey = NormalizeCartKey(key)
	return nil
}

func (m *MemStore) ClearCartKey() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cartKey = ""
	return nil
}

func (m *MemStore) AuthToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authToken
}

func (m *MemStore) SetAuthToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authToken = token
	return nil
}

func (m *MemStore) ClearAuthToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authToken = ""
	return nil
}
