package models

import (
	"slices"
	"strings"
)

// Category classifies a word token.
type Category string

const (
	CategoryAttack    Category = "attack"
	CategoryDefense   Category = "defense"
	CategoryStrategy  Category = "strategy"
	CategoryForbidden Category = "forbidden"
)

// Region is one stage of a run, in the order the player crosses them.
type Region string

const (
	RegionSenses Region = "SENSES"
	RegionLogic  Region = "LOGIC"
	RegionTruth  Region = "TRUTH"
)

// Regions lists every region in progression order.
var Regions = []Region{RegionSenses, RegionLogic, RegionTruth}

// Next returns the region after r and false when r is the last one.
func (r Region) Next() (Region, bool) {
	i := slices.Index(Regions, r)
	if i < 0 || i+1 >= len(Regions) {
		return r, false
	}
	return Regions[i+1], true
}

// WordToken is a single glyph the player can place into a chain.
type WordToken struct {
	ID       string   `yaml:"id"`
	Text     string   `yaml:"text"`
	Category Category `yaml:"category"`
	Power    int      `yaml:"power"`
	Cost     int      `yaml:"cost,omitempty"` // set on shop offers only
}

// ChainKey concatenates glyphs in submission order.
func ChainKey(chain []WordToken) string {
	var b strings.Builder
	for _, w := range chain {
		b.WriteString(w.Text)
	}
	return b.String()
}

// ItemID is the stable identifier passive behaviour is bound to.
type ItemID string

// ItemKind separates persistent items from ones that remove themselves after firing.
type ItemKind string

const (
	ItemPassive    ItemKind = "passive"
	ItemConsumable ItemKind = "consumable"
)

// Item is an entry in the player's passive item set.
type Item struct {
	ID          ItemID   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Kind        ItemKind `yaml:"kind"`
	Rarity      string   `yaml:"rarity"`
	// OnAcquire runs once against the player whenever the item is gained.
	OnAcquire   []Op     `yaml:"on_acquire,omitempty"`
}

// Consumable reports whether the item is removed after it fires.
func (i Item) Consumable() bool { return i.Kind == ItemConsumable }

// Coord is a grid position.
type Coord struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Manhattan returns the taxicab distance between two coordinates.
func (c Coord) Manhattan(o Coord) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// PlayerState is the whole mutable side of a run that combat reads and returns.
type PlayerState struct {
	Resource         int         `yaml:"resource"`
	MaxResource      int         `yaml:"max_resource"`
	Sanity           int         `yaml:"sanity"`
	MaxSanity        int         `yaml:"max_sanity"`
	Shield           int         `yaml:"shield"`
	Burn             int         `yaml:"burn"`
	Inventory        []WordToken `yaml:"inventory"`
	Items            []Item      `yaml:"items"`
	DiscoveredCombos []string    `yaml:"discovered_combos"`
	Statuses         Statuses    `yaml:"statuses"`
	Region           Region      `yaml:"region"`
	Day              int         `yaml:"day"`
	NodesCleared     int         `yaml:"nodes_cleared"`
	Pos              Coord       `yaml:"pos"`
}

// Clone returns a deep copy so resolution steps never share slices or maps.
func (p PlayerState) Clone() PlayerState {
	p.Inventory = slices.Clone(p.Inventory)
	p.Items = slices.Clone(p.Items)
	p.DiscoveredCombos = slices.Clone(p.DiscoveredCombos)
	p.Statuses = p.Statuses.Clone()
	return p
}

// HasDiscovered reports whether a combo key is already known.
func (p PlayerState) HasDiscovered(key string) bool {
	return slices.Contains(p.DiscoveredCombos, key)
}

// Discover records key; recording a known key is a no-op.
func (p PlayerState) Discover(key string) PlayerState {
	if p.HasDiscovered(key) {
		return p
	}
	p.DiscoveredCombos = append(slices.Clone(p.DiscoveredCombos), key)
	return p
}

// HasItem reports whether the player carries an item with the given id.
func (p PlayerState) HasItem(id ItemID) bool {
	return slices.ContainsFunc(p.Items, func(it Item) bool { return it.ID == id })
}

// RemoveItem drops the first item with the given id.
func (p PlayerState) RemoveItem(id ItemID) PlayerState {
	i := slices.IndexFunc(p.Items, func(it Item) bool { return it.ID == id })
	if i < 0 {
		return p
	}
	p.Items = slices.Delete(slices.Clone(p.Items), i, i+1)
	return p
}

// TokenByID finds an inventory token.
func (p PlayerState) TokenByID(id string) (WordToken, bool) {
	i := slices.IndexFunc(p.Inventory, func(w WordToken) bool { return w.ID == id })
	if i < 0 {
		return WordToken{}, false
	}
	return p.Inventory[i], true
}

// Clamp forces every pool back into its bounds.
func (p PlayerState) Clamp() PlayerState {
	p.MaxResource = max(p.MaxResource, 1)
	p.MaxSanity = max(p.MaxSanity, 1)
	p.Resource = clamp(p.Resource, 0, p.MaxResource)
	p.Sanity = clamp(p.Sanity, 0, p.MaxSanity)
	p.Shield = max(p.Shield, 0)
	p.Burn = max(p.Burn, 0)
	return p
}

// IntentKind is the category of an enemy's telegraphed action.
type IntentKind string

const (
	IntentAttack  IntentKind = "ATTACK"
	IntentDefend  IntentKind = "DEFEND"
	IntentDistort IntentKind = "DISTORT"
	IntentHeal    IntentKind = "HEAL"
	IntentUnknown IntentKind = "UNKNOWN"
)

// Intent is the enemy's next action, always visible to the player.
type Intent struct {
	Kind        IntentKind `yaml:"kind"`
	Value       int        `yaml:"value"`
	Description string     `yaml:"description"`
}

// EnemyTemplate is catalog data an Enemy is instantiated from.
type EnemyTemplate struct {
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	HP            int    `yaml:"hp"`
	MaxCorrection int    `yaml:"max_correction"`
	Attack        int    `yaml:"attack"`
	Distortion    int    `yaml:"distortion"`
	IsBoss        bool   `yaml:"boss"`
}

// Enemy is the opponent of one encounter.
type Enemy struct {
	Name          string   `yaml:"name"`
	Flavor        string   `yaml:"flavor"` // opaque text from the narrative provider
	HP            int      `yaml:"hp"`
	MaxHP         int      `yaml:"max_hp"`
	Correction    int      `yaml:"correction"`
	MaxCorrection int      `yaml:"max_correction"`
	Attack        int      `yaml:"attack"`
	Distortion    int      `yaml:"distortion"`
	Burn          int      `yaml:"burn"`
	Statuses      Statuses `yaml:"statuses"`
	TurnCount     int      `yaml:"turn_count"`
	IsBoss        bool     `yaml:"boss"`
	Intent        Intent   `yaml:"intent"`
}

// Clone returns a deep copy of the enemy.
func (e Enemy) Clone() Enemy {
	e.Statuses = e.Statuses.Clone()
	return e
}

// Clamp forces hp and correction back into their bounds.
func (e Enemy) Clamp() Enemy {
	e.MaxHP = max(e.MaxHP, 1)
	e.MaxCorrection = max(e.MaxCorrection, 1)
	e.HP = clamp(e.HP, 0, e.MaxHP)
	e.Correction = clamp(e.Correction, 0, e.MaxCorrection)
	e.Burn = max(e.Burn, 0)
	e.Attack = max(e.Attack, 1)
	e.Distortion = max(e.Distortion, 0)
	return e
}

// Defeated reports whether either victory condition holds.
func (e Enemy) Defeated() bool {
	return e.HP <= 0 || e.Correction >= e.MaxCorrection
}

// Identity is a starting template for a run.
type Identity struct {
	ID              string      `yaml:"id"`
	Name            string      `yaml:"name"`
	Description     string      `yaml:"description"`
	StartingWords   []WordToken `yaml:"starting_words"`
	InitialSanity   int         `yaml:"initial_sanity"`
	InitialResource int         `yaml:"initial_resource"`
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
