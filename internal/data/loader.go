package data

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"

	"github.com/tatianab/truth-eroder/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

// Catalog is the static game data consumed by the combat core and the run host.
type Catalog struct {
	Words      []models.WordToken
	Identities []models.Identity
	Enemies    map[models.Region][]models.EnemyTemplate
	Bosses     map[models.Region]models.EnemyTemplate
	Items      []models.Item
	Combos     []models.Combo
	Events     []models.Event
}

// Load reads the catalog embedded in the binary.
func Load() (*Catalog, error) {
	return LoadFS(catalogFS, "catalog")
}

// LoadDir reads a catalog from a directory with the same file layout.
func LoadDir(dir string) (*Catalog, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// LoadFS reads every catalog file below root and validates the result.
func LoadFS(fsys fs.FS, root string) (*Catalog, error) {
	var enemies struct {
		Regions map[models.Region][]models.EnemyTemplate `yaml:"regions"`
		Bosses  map[models.Region]models.EnemyTemplate   `yaml:"bosses"`
	}
	c := &Catalog{}

	files := []struct {
		name string
		v    any
	}{
		{"words.yaml", &c.Words},
		{"identities.yaml", &c.Identities},
		{"enemies.yaml", &enemies},
		{"items.yaml", &c.Items},
		{"combos.yaml", &c.Combos},
		{"events.yaml", &c.Events},
	}
	for _, f := range files {
		raw, err := fs.ReadFile(fsys, path.Join(root, f.name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.name, err)
		}
		if err := yaml.Unmarshal(raw, f.v); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.name, err)
		}
	}
	c.Enemies = enemies.Regions
	c.Bosses = enemies.Bosses

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks structural consistency. Region coverage is checked later,
// when an encounter actually needs a template.
func (c *Catalog) Validate() error {
	var errs []error

	glyphs := map[string]bool{}
	ids := map[string]bool{}
	for _, w := range c.Words {
		if ids[w.ID] {
			errs = append(errs, fmt.Errorf("word %q: duplicate id", w.ID))
		}
		ids[w.ID] = true
		glyphs[w.Text] = true
	}

	keys := map[string]bool{}
	for _, cb := range c.Combos {
		key := cb.Key()
		if n := len(cb.Pattern); n < 2 || n > 4 {
			errs = append(errs, fmt.Errorf("combo %q: pattern length %d outside 2-4", key, n))
		}
		if keys[key] {
			errs = append(errs, fmt.Errorf("combo %q: duplicate pattern", key))
		}
		keys[key] = true
		for _, g := range cb.Pattern {
			if !glyphs[g] {
				errs = append(errs, fmt.Errorf("combo %q: unknown glyph %q", key, g))
			}
		}
		if len(cb.Ops) == 0 {
			errs = append(errs, fmt.Errorf("combo %q: no ops", key))
		}
	}

	itemIDs := map[models.ItemID]bool{}
	for _, it := range c.Items {
		if itemIDs[it.ID] {
			errs = append(errs, fmt.Errorf("item %q: duplicate id", it.ID))
		}
		itemIDs[it.ID] = true
		if it.Kind != models.ItemPassive && it.Kind != models.ItemConsumable {
			errs = append(errs, fmt.Errorf("item %q: unknown kind %q", it.ID, it.Kind))
		}
	}

	for _, ev := range c.Events {
		if len(ev.Options) == 0 {
			errs = append(errs, fmt.Errorf("event %q: no options", ev.ID))
		}
		for _, opt := range ev.Options {
			if opt.GrantItem != "" && !itemIDs[opt.GrantItem] {
				errs = append(errs, fmt.Errorf("event %q: unknown item %q", ev.ID, opt.GrantItem))
			}
			if opt.GrantGlyph != "" && !glyphs[opt.GrantGlyph] {
				errs = append(errs, fmt.Errorf("event %q: unknown glyph %q", ev.ID, opt.GrantGlyph))
			}
		}
	}

	if len(c.Identities) == 0 {
		errs = append(errs, errors.New("no identities defined"))
	}
	return errors.Join(errs...)
}

// Identity finds an identity template by id.
func (c *Catalog) Identity(id string) (models.Identity, bool) {
	i := slices.IndexFunc(c.Identities, func(v models.Identity) bool { return v.ID == id })
	if i < 0 {
		return models.Identity{}, false
	}
	return c.Identities[i], true
}

// Item finds an item definition by id.
func (c *Catalog) Item(id models.ItemID) (models.Item, bool) {
	i := slices.IndexFunc(c.Items, func(v models.Item) bool { return v.ID == id })
	if i < 0 {
		return models.Item{}, false
	}
	return c.Items[i], true
}

// Word finds the pool entry for a glyph.
func (c *Catalog) Word(text string) (models.WordToken, bool) {
	i := slices.IndexFunc(c.Words, func(v models.WordToken) bool { return v.Text == text })
	if i < 0 {
		return models.WordToken{}, false
	}
	return c.Words[i], true
}

// Event finds an event by id.
func (c *Catalog) Event(id string) (models.Event, bool) {
	i := slices.IndexFunc(c.Events, func(v models.Event) bool { return v.ID == id })
	if i < 0 {
		return models.Event{}, false
	}
	return c.Events[i], true
}
