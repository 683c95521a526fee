package models

import (
	"maps"
	"slices"
)

// StatusKind names a status marker. Its counter lives in Statuses.
type StatusKind string

const (
	// One-turn markers, decremented at every status tick.
	StatusEvasive    StatusKind = "evasive"
	StatusReflect    StatusKind = "reflect"
	StatusInvincible StatusKind = "invincible"

	// Combat-scoped markers, cleared when a new encounter begins.
	StatusSealedHealing    StatusKind = "sealed_healing"
	StatusCausalRepairUsed StatusKind = "causal_repair_used"
	StatusEmber            StatusKind = "ember"

	// Enemy markers.
	StatusStunned     StatusKind = "stunned"
	StatusNoBurnDecay StatusKind = "no_burn_decay"

	// Run-scoped charges.
	StatusChisel StatusKind = "chisel"
)

// TurnScoped are the markers that expire one step per status tick.
var TurnScoped = []StatusKind{StatusEvasive, StatusReflect, StatusInvincible}

// CombatScoped are the markers reset at the start of every encounter.
var CombatScoped = []StatusKind{
	StatusEvasive, StatusReflect, StatusInvincible,
	StatusSealedHealing, StatusCausalRepairUsed, StatusEmber,
}

// Statuses maps a status kind to its remaining counter. Absent means zero.
type Statuses map[StatusKind]int

// Clone copies the map; a nil map stays nil.
func (s Statuses) Clone() Statuses {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

// Has reports whether kind has a positive counter.
func (s Statuses) Has(kind StatusKind) bool {
	return s[kind] > 0
}

// With returns a copy with delta added to kind. Counters never go below zero
// and zeroed entries are removed.
func (s Statuses) With(kind StatusKind, delta int) Statuses {
	out := s.Clone()
	if out == nil {
		out = Statuses{}
	}
	n := out[kind] + delta
	if n <= 0 {
		delete(out, kind)
	} else {
		out[kind] = n
	}
	return out
}

// Without returns a copy with the given kinds removed.
func (s Statuses) Without(kinds ...StatusKind) Statuses {
	out := s.Clone()
	for _, k := range kinds {
		delete(out, k)
	}
	return out
}

// Decay returns a copy with each of kinds decremented by one.
func (s Statuses) Decay(kinds ...StatusKind) Statuses {
	out := s
	for _, k := range kinds {
		if out.Has(k) {
			out = out.With(k, -1)
		}
	}
	return out
}

// Kinds lists present kinds in a stable order.
func (s Statuses) Kinds() []StatusKind {
	ks := slices.Collect(maps.Keys(s))
	slices.Sort(ks)
	return ks
}
