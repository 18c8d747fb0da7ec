// Package catalog loads static card content.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/holoocg/holo-server-go/internal/game/rules"
	"gopkg.in/yaml.v3"
)

type cardFile struct {
	Cards []cardEntry `yaml:"cards"`
}

type cardEntry struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Text      string         `yaml:"text"`
	Abilities []abilityEntry `yaml:"abilities"`
}

type abilityEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// Catalog is an immutable set of card definitions keyed by card id.
type Catalog struct {
	cards map[string]*rules.CardDefinition
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document of the form
//
//	cards:
//	  - id: hSD01-001
//	    name: Tokino Sora
//	    abilities:
//	      - id: deal_damage
//	        name: Dream Live
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file cardFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(file.toDefinitions()...)
}

func (f cardFile) toDefinitions() []*rules.CardDefinition {
	defs := make([]*rules.CardDefinition, 0, len(f.Cards))
	for _, entry := range f.Cards {
		def := &rules.CardDefinition{
			CardID:    strings.TrimSpace(entry.ID),
			Name:      entry.Name,
			RulesText: entry.Text,
		}
		for _, a := range entry.Abilities {
			def.Abilities = append(def.Abilities, rules.AbilityDefinition{
				AbilityID: strings.TrimSpace(a.ID),
				Name:      a.Name,
				RulesText: a.Text,
			})
		}
		defs = append(defs, def)
	}
	return defs
}

// New builds a catalog from definitions. Card ids must be unique and every
// card and ability needs an id.
func New(defs ...*rules.CardDefinition) (*Catalog, error) {
	c := &Catalog{cards: make(map[string]*rules.CardDefinition, len(defs))}
	for i, def := range defs {
		if def == nil {
			return nil, fmt.Errorf("card %d: nil definition", i)
		}
		if def.CardID == "" {
			return nil, fmt.Errorf("card %d (%s): id is required", i, def.Name)
		}
		if _, dup := c.cards[def.CardID]; dup {
			return nil, fmt.Errorf("duplicate card id %q", def.CardID)
		}
		for j, a := range def.Abilities {
			if a.AbilityID == "" {
				return nil, fmt.Errorf("card %s: ability %d: id is required", def.CardID, j)
			}
		}
		c.cards[def.CardID] = def
	}
	return c, nil
}

// Card returns the definition for id.
func (c *Catalog) Card(id string) (*rules.CardDefinition, bool) {
	def, ok := c.cards[id]
	return def, ok
}

// Len returns the number of cards
func (c *Catalog) Len() int {
	return len(c.cards)
}

// IDs returns every card id in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.cards))
	for id := range c.cards {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AbilityIDs returns the distinct ability ids referenced by the catalog.
func (c *Catalog) AbilityIDs() []string {
	seen := map[string]bool{}
	for _, def := range c.cards {
		for _, a := range def.Abilities {
			seen[a.AbilityID] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
