package models

import "strings"

// OpKind names a typed combo operation.
type OpKind string

const (
	OpDamage          OpKind = "damage"           // enemy hp, through multipliers and confusion
	OpCorrection      OpKind = "correction"       // enemy correction, through confusion
	OpShield          OpKind = "shield"           // player shield, through shield multipliers
	OpHeal            OpKind = "heal"             // player resource, blocked by sealed_healing
	OpResource        OpKind = "resource"         // raw resource delta
	OpSanity          OpKind = "sanity"           // raw sanity delta
	OpBurn            OpKind = "burn"             // player burn delta
	OpEnemyBurn       OpKind = "enemy_burn"       // enemy burn delta
	OpEnemyBurnScale  OpKind = "enemy_burn_scale" // enemy burn *= factor
	OpEnemyHPScale    OpKind = "enemy_hp_scale"   // enemy hp *= factor
	OpSetEnemyHP      OpKind = "set_enemy_hp"
	OpStatus          OpKind = "status"       // player status += amount
	OpEnemyStatus     OpKind = "enemy_status" // enemy status += amount
	OpEnemyAttack     OpKind = "enemy_attack"
	OpEnemyDistortion OpKind = "enemy_distortion"
	OpSetResource     OpKind = "set_resource"
	OpSetSanity       OpKind = "set_sanity"
	OpSetShield       OpKind = "set_shield"
	OpFillResource    OpKind = "fill_resource"
	OpFillSanity      OpKind = "fill_sanity"
	OpMaxResource     OpKind = "max_resource"
	OpMaxSanity       OpKind = "max_sanity"
	OpScaleResource   OpKind = "scale_resource" // resource *= factor, at least 1
	OpScaleSanity     OpKind = "scale_sanity"
	OpSwapRatio       OpKind = "swap_ratio" // swap player resource ratio with enemy hp ratio
)

// Op is one step of a combo or event effect.
type Op struct {
	Kind   OpKind     `yaml:"op"`
	Amount int        `yaml:"amount,omitempty"`
	Factor float64    `yaml:"factor,omitempty"`
	Status StatusKind `yaml:"status,omitempty"`
	When   string     `yaml:"when,omitempty"` // optional CEL guard over player and enemy
}

// Combo binds an exact ordered glyph pattern to a list of operations.
type Combo struct {
	Pattern     []string `yaml:"pattern"`
	Description string   `yaml:"description"`
	Log         string   `yaml:"log"`
	Backfire    bool     `yaml:"backfire,omitempty"`
	Ops         []Op     `yaml:"ops"`
}

// Key is the concatenated pattern.
func (c Combo) Key() string {
	return strings.Join(c.Pattern, "")
}

// Event is a narrative node whose options are gated by owned glyphs.
type Event struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Options     []EventOption `yaml:"options"`
}

// EventOption is one choice of an event.
type EventOption struct {
	Label         string `yaml:"label"`
	RequiredGlyph string `yaml:"required_glyph,omitempty"`
	Log           string `yaml:"log"`
	Ops           []Op   `yaml:"ops,omitempty"`
	GrantItem     ItemID `yaml:"grant_item,omitempty"`
	GrantGlyph    string `yaml:"grant_glyph,omitempty"`
	StartCombat   bool   `yaml:"start_combat,omitempty"`
}
