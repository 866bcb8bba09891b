package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
)

// fileRecord is the on-disk layout. Keys match the names the web client
// used for its local storage.
type fileRecord struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	UserRole     string `json:"user_role,omitempty"`
}

// File persists credentials as a JSON document readable only by the owner.
// The parent directory is created with mode 0700 on first write.
type File struct {
	mu   sync.Mutex
	path string
}

var _ ports.CredentialStore = (*File)(nil)

// NewFile returns a store writing to path.
func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/clientx/credentials.json, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "clientx-credentials.json")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "clientx", "credentials.json")
}

// Path returns the file the store writes to.
func (f *File) Path() string {
	return f.path
}

func (f *File) Save(_ context.Context, cred domain.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, err := f.read()
	if err != nil {
		return err
	}
	rec.AccessToken = cred.AccessToken
	if cred.RenewalToken != "" {
		rec.RefreshToken = cred.RenewalToken
	}
	return f.write(rec)
}

func (f *File) Load(_ context.Context) (domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, err := f.read()
	if err != nil {
		return domain.Credential{}, err
	}
	return domain.Credential{AccessToken: rec.AccessToken, RenewalToken: rec.RefreshToken}, nil
}

func (f *File) SaveRole(_ context.Context, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, err := f.read()
	if err != nil {
		return err
	}
	rec.UserRole = string(role)
	return f.write(rec)
}

func (f *File) Role(_ context.Context) (domain.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, err := f.read()
	if err != nil {
		return "", err
	}
	return domain.Role(rec.UserRole), nil
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("credstore: remove %s: %w", f.path, err)
	}
	return nil
}

func (f *File) read() (fileRecord, error) {
	var rec fileRecord
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rec, nil
		}
		return rec, fmt.Errorf("credstore: read %s: %w", f.path, err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return fileRecord{}, fmt.Errorf("credstore: parse %s: %w", f.path, err)
	}
	return rec, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (f *File) write(rec fileRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("credstore: encode: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("credstore: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("credstore: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("credstore: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("credstore: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credstore: close: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("credstore: rename into %s: %w", f.path, err)
	}
	return nil
}
