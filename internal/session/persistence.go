package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sekolah/surat/internal/model"
)

// FileName is the name of the persisted identity file inside the data dir.
const FileName = "admin_user.json"

// Persistence is a single slot holding the serialized identity.
// Read returns nil, nil when the slot is empty.
type Persistence interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Remove() error
}

// FileStore keeps the identity in one JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore for FileName under dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName)}
}

// Path returns the file location.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Read() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (f *FileStore) Write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	return os.WriteFile(f.path, data, 0600)
}

func (f *FileStore) Remove() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore is a Persistence that lives only as long as the process.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func (m *MemoryStore) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStore) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// ErrCorrupt is returned by Load when the slot holds something that is not
// a usable identity.
var ErrCorrupt = errors.New("persisted identity is corrupt")

// Load reads the persisted identity. It returns nil, nil when nothing is
// stored and ErrCorrupt when the stored value cannot be used.
func Load(p Persistence) (*model.Identity, error) {
	data, err := p.Read()
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var id model.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if id.ID == "" || id.Email == "" {
		return nil, fmt.Errorf("%w: missing id or email", ErrCorrupt)
	}
	return &id, nil
}

// Save serializes id into the slot, replacing what was there.
func Save(p Persistence, id model.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := p.Write(data); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	return nil
}

// Clear empties the slot.
func Clear(p Persistence) error {
	if err := p.Remove(); err != nil {
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}
