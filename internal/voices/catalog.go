// Package voices holds read-only voice catalogs used to resolve a user's
// voice selection into a vendor voice id.
package voices

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownVoice is returned when a selection matches no voice.
	ErrUnknownVoice = errors.New("unknown voice")
	// ErrEmptyCatalog is returned when a catalog would contain no voices.
	ErrEmptyCatalog = errors.New("voice catalog is empty")
	// ErrDuplicateVoice is returned when two voices share a name.
	ErrDuplicateVoice = errors.New("duplicate voice name")
)

// idPrefix marks a selection that is already a vendor voice id.
const idPrefix = "s3://"

// Voice describes one vendor voice.
type Voice struct {
	Name   string `yaml:"name" json:"name"`
	ID     string `yaml:"id" json:"id"`
	Accent string `yaml:"accent" json:"accent"`
	Gender string `yaml:"gender" json:"gender"`
	Age    string `yaml:"age" json:"age"`
	Style  string `yaml:"style" json:"style"`
}

// Label renders the voice as "Name (accent, gender, age, style)".
func (v Voice) Label() string {
	return fmt.Sprintf("%s (%s, %s, %s, %s)", v.Name, v.Accent, v.Gender, v.Age, v.Style)
}

// Catalog is an immutable, ordered name → voice table.
type Catalog struct {
	order  []string
	voices map[string]Voice
}

// NewCatalog builds a catalog from vs, keeping their order.
func NewCatalog(vs ...Voice) (*Catalog, error) {
	if len(vs) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		order:  make([]string, 0, len(vs)),
		voices: make(map[string]Voice, len(vs)),
	}
	for _, v := range vs {
		if v.Name == "" || v.ID == "" {
			return nil, fmt.Errorf("voice %q: name and id are required", v.Name)
		}
		if _, ok := c.voices[v.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVoice, v.Name)
		}
		c.voices[v.Name] = v
		c.order = append(c.order, v.Name)
	}
	return c, nil
}

type catalogFile struct {
	Voices []Voice `yaml:"voices"`
}

// LoadFile reads a YAML catalog of the form `voices: [{name, id, ...}]`.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read voice catalog: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse voice catalog %s: %w", path, err)
	}
	return NewCatalog(f.Voices...)
}

// Lookup returns the voice with the given name.
func (c *Catalog) Lookup(name string) (Voice, bool) {
	v, ok := c.voices[name]
	return v, ok
}

// Default returns the first voice in the catalog.
func (c *Catalog) Default() Voice {
	return c.voices[c.order[0]]
}

// Len returns the number of voices.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Names returns voice names in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Voices returns a copy of all voices in catalog order.
func (c *Catalog) Voices() []Voice {
	out := make([]Voice, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.voices[name])
	}
	return out
}

// Labels returns display labels in catalog order.
func (c *Catalog) Labels() []string {
	out := make([]string, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.voices[name].Label())
	}
	return out
}

// Resolve maps a selection to a voice. A selection may be a voice name, a
// display label, or a raw s3:// voice id, which is returned as-is.
func (c *Catalog) Resolve(selection string) (Voice, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return c.Default(), nil
	}
	if strings.HasPrefix(selection, idPrefix) {
		for _, v := range c.voices {
			if v.ID == selection {
				return v, nil
			}
		}
		return Voice{ID: selection}, nil
	}

	name, _, _ := strings.Cut(selection, " (")
	if v, ok := c.voices[name]; ok {
		return v, nil
	}
	return Voice{}, fmt.Errorf("%w: %s", ErrUnknownVoice, name)
}
