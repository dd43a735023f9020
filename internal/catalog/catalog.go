// internal/catalog/catalog.go
//
// Card catalog: the named sets a deck is dealt from.
//
// Sources:
//   - Static: a fixed list (the embedded default catalog).
//   - File:   a JSON or YAML file on disk.
//   - HTTP:   a remote JSON endpoint returning [{set, card1?, card2?}].
//
// New (remote.go) picks one:
//   1. CATALOG_URL set  → HTTP
//   2. CATALOG_FILE set → File
//   3. otherwise        → embedded default
//
// Loaded catalogs must name every set, and each name only once.

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/memory/assets"
)

// CardSet is one matchable category. When both Card1 and Card2 are set the
// pair shows two different faces; otherwise both cards show the set name.
type CardSet struct {
	Set   string `json:"set" yaml:"set"`
	Card1 string `json:"card1,omitempty" yaml:"card1,omitempty"`
	Card2 string `json:"card2,omitempty" yaml:"card2,omitempty"`
}

// Faces returns the two face names dealt for the set.
func (cs CardSet) Faces() (string, string) {
	if cs.Card1 != "" && cs.Card2 != "" {
		return cs.Card1, cs.Card2
	}
	return cs.Set, cs.Set
}

// Source yields the catalog.
type Source interface {
	Sets(ctx context.Context) ([]CardSet, error)
}

var (
	ErrEmptySetName = errors.New("catalog: set without name")
	ErrDuplicateSet = errors.New("catalog: duplicate set name")
)

// Static is a fixed in-memory catalog.
type Static []CardSet

// Sets returns a copy of the list.
func (s Static) Sets(context.Context) ([]CardSet, error) {
	return append([]CardSet(nil), s...), nil
}

// Default returns the embedded catalog.
func Default() (Static, error) {
	raw, err := assets.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	sets, err := decodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return Static(sets), nil
}

// File reads the catalog from a path on every call.
type File string

// Sets parses the file as YAML when it ends in .yaml/.yml, else as JSON.
func (f File) Sets(context.Context) ([]CardSet, error) {
	raw, err := os.ReadFile(string(f))
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(string(f))) {
	case ".yaml", ".yml":
		var sets []CardSet
		if err := yaml.Unmarshal(raw, &sets); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		if err := validate(sets); err != nil {
			return nil, err
		}
		return sets, nil
	default:
		return decodeJSON(raw)
	}
}

func decodeJSON(raw []byte) ([]CardSet, error) {
	var sets []CardSet
	if err := json.Unmarshal(raw, &sets); err != nil {
		return nil, err
	}
	if err := validate(sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func validate(sets []CardSet) error {
	seen := make(map[string]int, len(sets))
	for i, s := range sets {
		if strings.TrimSpace(s.Set) == "" {
			return fmt.Errorf("%w at %d", ErrEmptySetName, i)
		}
		if j, ok := seen[s.Set]; ok {
			return fmt.Errorf("%w: %q at %d and %d", ErrDuplicateSet, s.Set, j, i)
		}
		seen[s.Set] = i
	}
	return nil
}
