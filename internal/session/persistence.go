package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	credentialFile = "credential"
	userFile       = "user.json"
)

// Persistence is the durable mirror of the session: two entries, the
// opaque credential and the serialized user record. Implementations are
// dumb storage; the store owns the rules about when the pair is valid.
type Persistence interface {
	// Load returns whichever entries are present. A missing entry comes
	// back as the zero value with no error.
	Load() (credential string, user *User, err error)

	// Save writes both entries together.
	Save(credential string, user User) error

	// Clear erases both entries together.
	Clear() error
}

// FileStore persists the session under a directory, one file per entry.
// It stands in for the browser-local storage the embedding UI would use.
type FileStore struct {
	dir string
}

// NewFileStore creates the state directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("state directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Load() (string, *User, error) {
	credential, err := os.ReadFile(filepath.Join(f.dir, credentialFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", nil, fmt.Errorf("failed to read credential: %w", err)
	}

	raw, err := os.ReadFile(filepath.Join(f.dir, userFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return string(credential), nil, nil
		}
		return "", nil, fmt.Errorf("failed to read user record: %w", err)
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return "", nil, fmt.Errorf("failed to decode user record: %w", err)
	}
	return string(credential), &user, nil
}

func (f *FileStore) Save(credential string, user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(f.dir, userFile), raw, 0o600); err != nil {
		return fmt.Errorf("failed to write user record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(f.dir, credentialFile), []byte(credential), 0o600); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	for _, name := range []string{credentialFile, userFile} {
		if err := os.Remove(filepath.Join(f.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}
