package files

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/amingeek/task-manager/internal/crypto"
)

const (
	sessionFileName          = "session.json"
	encryptedSessionFileName = "session.json.enc"
)

// ErrNoSession is returned by Load when nothing has been persisted.
var ErrNoSession = errors.New("no persisted session")

// SessionFile is what survives a restart: the token and the numeric user id.
// The cached profile is deliberately not persisted.
type SessionFile struct {
	Token   string    `json:"token"`
	UserID  uint      `json:"user_id"`
	SavedAt time.Time `json:"saved_at"`
}

// Store persists a SessionFile.
type Store interface {
	Load() (*SessionFile, error)
	Save(s *SessionFile) error
	Clear() error
}

// FileStore keeps the session in a JSON file, AES-GCM encrypted when a key is set.
type FileStore struct {
	path string
	key  []byte
	mu   sync.RWMutex
}

// NewFileStore creates a FileStore under dir. A nil key stores plaintext JSON.
func NewFileStore(dir string, key []byte) *FileStore {
	name := sessionFileName
	if key != nil {
		name = encryptedSessionFileName
	}
	return &FileStore{path: filepath.Join(dir, name), key: key}
}

// Path returns the file backing the store.
func (s *FileStore) Path() string { return s.path }

// Load reads the persisted session.
func (s *FileStore) Load() (*SessionFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if s.key != nil {
		blob, err = crypto.DecryptAESGCM(s.key, blob)
		if err != nil {
			return nil, fmt.Errorf("decrypt session file: %w", err)
		}
	}
	var sf SessionFile
	if err := json.Unmarshal(blob, &sf); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if sf.Token == "" {
		return nil, ErrNoSession
	}
	return &sf, nil
}

// Save writes the session with 0600 permissions.
func (s *FileStore) Save(sf *SessionFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sf.SavedAt.IsZero() {
		sf.SavedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	if s.key != nil {
		data, err = crypto.EncryptAESGCM(s.key, data)
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Clear removes the session file. A missing file is not an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu sync.Mutex
	sf *SessionFile
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load() (*SessionFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sf == nil {
		return nil, ErrNoSession
	}
	cp := *m.sf
	return &cp, nil
}

func (m *MemoryStore) Save(sf *SessionFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sf
	m.sf = &cp
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sf = nil
	return nil
}
