package preset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a named preset does not exist in the store.
var ErrNotFound = errors.New("preset not found")

const presetExt = ".yaml"

// DefaultDir returns the per-user preset directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "algo-upscale", "presets"), nil
}

// Store reads and writes presets as one YAML file per preset in a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. An empty dir selects [DefaultDir].
// The directory is created on first save, not here.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	return &Store{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+presetExt)
}

// Save validates and writes a preset, overwriting any previous version.
func (s *Store) Save(p *Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preset %q: %w", p.Name, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create preset dir: %w", err)
	}

	if err := os.WriteFile(s.path(p.Name), data, 0o644); err != nil {
		return fmt.Errorf("write preset %q: %w", p.Name, err)
	}

	return nil
}

// Load reads and validates a named preset.
func (s *Store) Load(name string) (*Preset, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read preset %q: %w", name, err)
	}

	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse preset %q: %w", name, err)
	}

	if p.Name == "" {
		p.Name = name
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

// List returns the names of all stored presets in sorted order. A missing
// store directory is an empty store.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list presets: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), presetExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), presetExt))
	}

	sort.Strings(names)

	return names, nil
}

// Delete removes a named preset.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("delete preset %q: %w", name, err)
	}
	return nil
}

// Info describes a stored preset together with its file metadata.
type Info struct {
	Preset
	Path    string
	ModTime time.Time
}

// Info loads a preset and its file metadata.
func (s *Store) Info(name string) (*Info, error) {
	p, err := s.Load(name)
	if err != nil {
		return nil, err
	}

	path := s.path(name)

	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat preset %q: %w", name, err)
	}

	return &Info{Preset: *p, Path: path, ModTime: st.ModTime()}, nil
}
