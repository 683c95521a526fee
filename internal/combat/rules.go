// Package combat resolves word-chain exchanges between the player and one enemy.
//
// Every step takes a PlayerState and an Enemy by value and returns new values;
// nothing in this package mutates shared state, so a Session only needs the
// single re-entry guard it carries.
package combat

// Rand is the random source every roll draws from. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// IntentWeights are cumulative-band widths. HEAL takes whatever is left.
type IntentWeights struct {
	Attack  float64 `yaml:"attack"`
	Defend  float64 `yaml:"defend"`
	Distort float64 `yaml:"distort"`
}

// Rules are the balance constants of combat.
type Rules struct {
	MaxChain int `yaml:"max_chain"`

	ConfusionThreshold int `yaml:"confusion_threshold"`
	ConfusionBase      int `yaml:"confusion_base"`
	ConfusionStep      int `yaml:"confusion_step"`

	CollapseResource int `yaml:"collapse_resource"`
	CollapseSanity   int `yaml:"collapse_sanity"`

	SingleCorrection int      `yaml:"single_correction"`
	HealingGlyphs    []string `yaml:"healing_glyphs"`

	Intent                   IntentWeights `yaml:"intent"`
	DefendHPFraction         float64       `yaml:"defend_hp_fraction"`
	DefendFlat               int           `yaml:"defend_flat"`
	DefendCorrectionRollback int           `yaml:"defend_correction_rollback"`
	HealFlat                 int           `yaml:"heal_flat"`
	HealMaxHPFraction        float64       `yaml:"heal_max_hp_fraction"`
	WeakDistortFactor        float64       `yaml:"weak_distort_factor"`
	WeakDistortMin           int           `yaml:"weak_distort_min"`

	BurnDecay float64 `yaml:"burn_decay"`

	CausalRepairFraction float64 `yaml:"causal_repair_fraction"`
	EmberCharges         int     `yaml:"ember_charges"`

	RewardDraft int `yaml:"reward_draft"`
}

// DefaultRules returns the shipped balance.
func DefaultRules() Rules {
	return Rules{
		MaxChain:                 4,
		ConfusionThreshold:       80,
		ConfusionBase:            3,
		ConfusionStep:            5,
		CollapseResource:         25,
		CollapseSanity:           15,
		SingleCorrection:         1,
		HealingGlyphs:            []string{"安", "息"},
		Intent:                   IntentWeights{Attack: 0.5, Defend: 0.2, Distort: 0.15},
		DefendHPFraction:         0.1,
		DefendFlat:               8,
		DefendCorrectionRollback: 5,
		HealFlat:                 20,
		HealMaxHPFraction:        0.05,
		WeakDistortFactor:        0.75,
		WeakDistortMin:           5,
		BurnDecay:                0.66,
		CausalRepairFraction:     0.5,
		EmberCharges:             2,
		RewardDraft:              3,
	}
}
