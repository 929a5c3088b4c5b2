package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/idilsaglam/tada/internal/config"
)

// JSON-backed preferences. Single file, human-readable, owner-only.
// Holds UI choices that outlive a run, never remote data.

const dataFileName = "prefs.json"

// Prefs are the persisted UI preferences.
type Prefs struct {
	Tenant    string    `json:"tenant,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Store reads and writes Prefs at Path.
type Store struct {
	Path string
}

// Default returns the store at ~/.tada/prefs.json.
func Default() (*Store, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return &Store{Path: filepath.Join(dir, dataFileName)}, nil
}

// Load returns zero Prefs when the file does not exist yet.
func (s *Store) Load() (Prefs, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Prefs{}, nil
		}
		return Prefs{}, fmt.Errorf("read file: %w", err)
	}
	var p Prefs
	if err := json.Unmarshal(b, &p); err != nil {
		return Prefs{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return p, nil
}

func (s *Store) Save(p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	p.UpdatedAt = time.Now().UTC()
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.Path, b, 0o600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// SetTenant remembers tenant for later runs.
func (s *Store) SetTenant(tenant string) error {
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		return fmt.Errorf("empty tenant")
	}
	p, err := s.Load()
	if err != nil {
		return err
	}
	p.Tenant = tenant
	return s.Save(p)
}

// ClearTenant forgets the saved tenant.
func (s *Store) ClearTenant() error {
	p, err := s.Load()
	if err != nil {
		return err
	}
	if p.Tenant == "" {
		return nil
	}
	p.Tenant = ""
	return s.Save(p)
}
