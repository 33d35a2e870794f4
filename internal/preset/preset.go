// Package preset loads named output selections from TOML.
//
// Built-in presets ship embedded in the binary and merge with the
// user presets file (~/.config/forge/presets.toml); user entries win
// by name.
package preset

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/tryforce-dev/forge/internal/paths"
	"github.com/tryforce-dev/forge/internal/selection"
)

// Source values recorded on loaded presets.
const (
	SourceBuiltin = "builtin"
	SourceUser    = "user"
)

//go:embed builtin.toml
var builtinTOML []byte

// Preset names an output selection and an optional requirement
// template the studio seeds its text input with.
type Preset struct {
	Kinds       []string `toml:"kinds"`
	Requirement string   `toml:"requirement,omitempty"`

	// Source records where the entry came from. Not part of the file.
	Source string `toml:"-"`
}

// file is the on-disk shape: one [preset.<name>] table per entry.
type file struct {
	Presets map[string]Preset `toml:"preset"`
}

// Load returns the built-in presets merged with the user presets file.
func Load() (map[string]Preset, error) {
	path, err := paths.PresetsFile()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom merges the built-in presets with the file at path. Entries
// in the file win by name; a missing file is not an error.
func LoadFrom(path string) (map[string]Preset, error) {
	merged, err := decodePresets(builtinTOML, SourceBuiltin)
	if err != nil {
		return nil, fmt.Errorf("parse built-in presets: %w", err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path from paths package or test
	if errors.Is(err, os.ErrNotExist) {
		return merged, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}

	user, err := decodePresets(data, SourceUser)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for name, p := range user {
		merged[name] = p
	}

	return merged, nil
}

// Get finds one preset by name in the merged set.
func Get(name string) (Preset, error) {
	presets, err := Load()
	if err != nil {
		return Preset{}, err
	}

	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("preset %q not found", name)
	}

	return p, nil
}

// Names returns preset names sorted alphabetically.
func Names(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Save upserts a named preset into the user presets file, creating
// the file and its directory when missing. Built-in entries stay
// embedded; saving under a built-in name shadows it.
func Save(path, name string, p Preset) error {
	if name == "" {
		return errors.New("preset name is required")
	}

	if err := p.validate(); err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}

	var f file

	data, err := os.ReadFile(path) //nolint:gosec // G304: path from paths package or test
	switch {
	case errors.Is(err, os.ErrNotExist):
		// first save creates the file
	case err != nil:
		return fmt.Errorf("read presets: %w", err)
	default:
		if decErr := decodeStrict(data, &f); decErr != nil {
			return fmt.Errorf("parse %s: %w", path, decErr)
		}
	}

	if f.Presets == nil {
		f.Presets = map[string]Preset{}
	}

	p.Source = ""
	f.Presets[name] = p

	out, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal presets: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write presets: %w", err)
	}

	return nil
}

// Selection builds the output selection the preset names.
func (p Preset) Selection() (*selection.Selection, error) {
	s := selection.New()

	for _, name := range p.Kinds {
		if err := s.Set(name, true); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// validate checks every kind name against the selection grid so a bad
// entry fails naming the offender instead of silently doing nothing.
func (p Preset) validate() error {
	if len(p.Kinds) == 0 {
		return errors.New("no output kinds")
	}

	for _, name := range p.Kinds {
		if _, ok := selection.Lookup(name); !ok {
			return fmt.Errorf("unknown output kind %q", name)
		}
	}

	return nil
}

func decodePresets(data []byte, source string) (map[string]Preset, error) {
	var f file

	if err := decodeStrict(data, &f); err != nil {
		return nil, err
	}

	out := make(map[string]Preset, len(f.Presets))

	for name, p := range f.Presets {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}

		p.Source = source
		out[name] = p
	}

	return out, nil
}

func decodeStrict(data []byte, dst *file) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	return dec.Decode(dst)
}
