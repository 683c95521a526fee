package combat

import (
	"fmt"
	"slices"

	"github.com/tatianab/truth-eroder/internal/models"
)

// Trigger is the moment a passive hook runs.
type Trigger string

const (
	OnCombatStart Trigger = "ON_COMBAT_START"
	OnTurnStart   Trigger = "ON_TURN_START"
	OnDamageTaken Trigger = "ON_DAMAGE_TAKEN"
	OnDamageDealt Trigger = "ON_DAMAGE_DEALT"
	OnStatusTick  Trigger = "ON_STATUS_TICK"
	OnDeath       Trigger = "ON_DEATH"
)

// Item ids with built-in behaviour.
const (
	ItemCausalRepair models.ItemID = "art_palanquin"
	ItemMirror       models.ItemID = "art_mirror"
	ItemCandle       models.ItemID = "art_candle"
	ItemRationality  models.ItemID = "art_rationality"
	ItemChisel       models.ItemID = "itm_chisel"
	ItemLastEmber    models.ItemID = "itm_rational_ember"
	ItemVoidHeart    models.ItemID = "itm_void_heart"
	ItemAltarShard   models.ItemID = "itm_altar_shard"
	ItemEcho         models.ItemID = "itm_echo"
	ItemNostalgia    models.ItemID = "itm_nostalgia"
	ItemInked        models.ItemID = "itm_inked"
	ItemFluid        models.ItemID = "itm_fluid"
	ItemEmbers       models.ItemID = "itm_embers"
	ItemAnchor       models.ItemID = "itm_anchor"
	ItemSpine        models.ItemID = "itm_spine"
	ItemThorn        models.ItemID = "itm_thorn"
	ItemTeeth        models.ItemID = "itm_teeth"
	ItemInkFlask     models.ItemID = "itm_ink_flask"
)

// Pair is the value every resolution step receives and returns.
type Pair struct {
	Player models.PlayerState
	Enemy  models.Enemy
}

// Clone deep-copies both sides.
func (s Pair) Clone() Pair {
	return Pair{Player: s.Player.Clone(), Enemy: s.Enemy.Clone()}
}

// HookInput carries trigger-specific data into an effect.
type HookInput struct {
	Amount int // damage dealt or taken, when relevant
	Rules  Rules
	Rand   Rand
}

// Effect is a pure transform. fired=false means the hook did not apply and
// a consumable owner must not be spent.
type Effect func(in HookInput, s Pair) (out Pair, log string, fired bool)

// Multipliers scale the numeric deltas of the resolver.
type Multipliers struct {
	Attack     float64
	Heal       float64
	Shield     float64
	AttackFlat int
	ShieldFlat int
}

func baseMultipliers() Multipliers {
	return Multipliers{Attack: 1, Heal: 1, Shield: 1}
}

func (m Multipliers) damage(base int) int {
	return max(0, int(float64(base)*m.Attack)+m.AttackFlat)
}

func (m Multipliers) shield(base int) int {
	return max(0, int(float64(base)*m.Shield)+m.ShieldFlat)
}

func (m Multipliers) heal(base int) int {
	return max(0, int(float64(base)*m.Heal))
}

// Modifier adjusts multipliers for the current pair.
type Modifier func(s Pair, m Multipliers) Multipliers

type hook struct {
	trigger Trigger
	effect  Effect
	seq     int
}

// Unbound keys hooks that run whatever the player holds, such as rules
// driven purely by a status.
const Unbound models.ItemID = ""

// Registry binds item ids to hooks and modifiers.
type Registry struct {
	hooks       map[models.ItemID][]hook
	modifiers   map[models.ItemID]Modifier
	keepsShield map[models.ItemID]bool
	seq         int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks:       map[models.ItemID][]hook{},
		modifiers:   map[models.ItemID]Modifier{},
		keepsShield: map[models.ItemID]bool{},
	}
}

// On binds an effect to a trigger for the given item. OnDeath hooks form a
// chain tried in registration order.
func (r *Registry) On(id models.ItemID, t Trigger, e Effect) *Registry {
	r.hooks[id] = append(r.hooks[id], hook{trigger: t, effect: e, seq: r.seq})
	r.seq++
	return r
}

// Modify binds a multiplier modifier to the given item.
func (r *Registry) Modify(id models.ItemID, m Modifier) *Registry {
	r.modifiers[id] = m
	return r
}

// PersistShield marks an item that stops shield expiry at the status tick.
func (r *Registry) PersistShield(id models.ItemID) *Registry {
	r.keepsShield[id] = true
	return r
}

// owned returns the player's items in ascending id order, led by the
// Unbound pseudo-item.
func owned(p models.PlayerState) []models.Item {
	items := slices.Clone(p.Items)
	slices.SortStableFunc(items, func(a, b models.Item) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return append([]models.Item{{ID: Unbound}}, items...)
}

// spend removes id from the player when it is a consumable they hold.
func spend(p models.PlayerState, id models.ItemID) models.PlayerState {
	for _, it := range p.Items {
		if it.ID == id && it.Consumable() {
			return p.RemoveItem(id)
		}
	}
	return p
}

// Fire runs every hook bound to t for the items the player owns, in item-id
// order. Consumables that fired are removed afterwards.
func (r *Registry) Fire(t Trigger, in HookInput, s Pair) (Pair, []string) {
	var logs []string
	for _, it := range owned(s.Player) {
		fired := false
		for _, h := range r.hooks[it.ID] {
			if h.trigger != t {
				continue
			}
			next, line, ok := h.effect(in, s)
			if !ok {
				continue
			}
			s, fired = next, true
			if line != "" {
				logs = append(logs, line)
			}
		}
		if fired {
			s.Player = spend(s.Player, it.ID)
		}
	}
	s.Player = s.Player.Clamp()
	s.Enemy = s.Enemy.Clamp()
	return s, logs
}

// Multipliers folds every owned item's modifier over the base multipliers.
func (r *Registry) Multipliers(s Pair) Multipliers {
	m := baseMultipliers()
	for _, it := range owned(s.Player) {
		if mod, ok := r.modifiers[it.ID]; ok {
			m = mod(s, m)
		}
	}
	return m
}

// KeepsShield reports whether an owned item persists shield across ticks.
func (r *Registry) KeepsShield(p models.PlayerState) bool {
	for _, it := range p.Items {
		if r.keepsShield[it.ID] {
			return true
		}
	}
	return false
}

// PreventDeath walks the OnDeath hooks of owned items in registration order;
// the first that fires wins and a consumable owner is spent. ok=false means
// nothing applied and the player is dead.
func (r *Registry) PreventDeath(s Pair, rules Rules) (out Pair, log string, ok bool) {
	type bound struct {
		id models.ItemID
		h  hook
	}
	var chain []bound
	for _, it := range owned(s.Player) {
		for _, h := range r.hooks[it.ID] {
			if h.trigger == OnDeath {
				chain = append(chain, bound{id: it.ID, h: h})
			}
		}
	}
	slices.SortFunc(chain, func(a, b bound) int { return a.h.seq - b.h.seq })

	in := HookInput{Rules: rules}
	for _, b := range chain {
		next, line, fired := b.h.effect(in, s)
		if !fired {
			continue
		}
		next.Player = spend(next.Player, b.id).Clamp()
		return next, line, true
	}
	return s, "", false
}

// DefaultRegistry wires the behaviour of every shipped item.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Death prevention, highest priority first.
	r.On(ItemCausalRepair, OnDeath, func(in HookInput, s Pair) (Pair, string, bool) {
		p := s.Player
		if p.Statuses.Has(models.StatusCausalRepairUsed) {
			return s, "", false
		}
		p.Resource = int(float64(p.MaxResource) * in.Rules.CausalRepairFraction)
		p.Sanity = 1
		p.Statuses = p.Statuses.With(models.StatusCausalRepairUsed, 1)
		s.Player = p
		return s, "【因果缝补】：红缎缠住了正在崩解的你，意志回流，理智几近熄灭。", true
	})
	r.On(ItemLastEmber, OnDeath, func(in HookInput, s Pair) (Pair, string, bool) {
		p := s.Player
		p.Resource = 1
		p.Statuses = p.Statuses.Without(models.StatusEmber).With(models.StatusEmber, in.Rules.EmberCharges)
		s.Player = p
		return s, fmt.Sprintf("【理性余烬】：余烬点燃，你以1点意志强行续行（剩余%d次）。", in.Rules.EmberCharges), true
	})
	r.On(Unbound, OnDeath, func(_ HookInput, s Pair) (Pair, string, bool) {
		p := s.Player
		if !p.Statuses.Has(models.StatusEmber) {
			return s, "", false
		}
		p.Resource = 1
		p.Statuses = p.Statuses.With(models.StatusEmber, -1)
		s.Player = p
		return s, fmt.Sprintf("【余烬】：最后的火光支撑着你（剩余%d次）。", p.Statuses[models.StatusEmber]), true
	})

	r.On(ItemChisel, OnCombatStart, func(_ HookInput, s Pair) (Pair, string, bool) {
		if !s.Player.Statuses.Has(models.StatusChisel) {
			return s, "", false
		}
		s.Player.Statuses = s.Player.Statuses.With(models.StatusChisel, -1)
		s.Enemy.Statuses = s.Enemy.Statuses.With(models.StatusStunned, 1)
		return s, "【刻刀】：观测者被刻进了现实，暂时无法行动。", true
	})
	r.On(ItemAnchor, OnCombatStart, func(_ HookInput, s Pair) (Pair, string, bool) {
		s.Player.Shield += 15
		return s, "【生锈锚】：第一道防线落下，护盾+15。", true
	})
	r.On(ItemInkFlask, OnCombatStart, func(_ HookInput, s Pair) (Pair, string, bool) {
		s.Player.Shield += 20
		return s, "【墨瓶】：墨水凝成屏障后碎裂，护盾+20。", true
	})

	r.On(ItemMirror, OnTurnStart, func(in HookInput, s Pair) (Pair, string, bool) {
		if in.Rand.Float64() >= 0.3 {
			return s, "", false
		}
		s.Player.Statuses = s.Player.Statuses.With(models.StatusReflect, 1)
		return s, "【菱镜】：镜面偏转，本回合的冲击将被反弹。", true
	})
	r.On(ItemVoidHeart, OnTurnStart, func(_ HookInput, s Pair) (Pair, string, bool) {
		if s.Player.Shield > 0 {
			return s, "", false
		}
		s.Player.Shield += 5
		return s, "【虚无之心】：虚无中浮现5点护盾。", true
	})
	r.On(ItemEmbers, OnTurnStart, func(_ HookInput, s Pair) (Pair, string, bool) {
		s.Enemy.Burn += 3
		return s, "【逻辑余烬】：观测者身上燃起3点焚烧。", true
	})

	r.On(ItemThorn, OnDamageTaken, func(in HookInput, s Pair) (Pair, string, bool) {
		if in.Amount <= 0 {
			return s, "", false
		}
		s.Enemy.HP -= 3
		return s, "【铁荆棘】：倒钩反刺，观测者受到3点损耗。", true
	})
	r.On(ItemInked, OnDamageDealt, func(in HookInput, s Pair) (Pair, string, bool) {
		if in.Amount <= 0 {
			return s, "", false
		}
		s.Enemy.Burn += 2
		return s, "【墨染】：墨迹渗入伤口，焚烧+2。", true
	})

	r.On(ItemFluid, OnStatusTick, func(_ HookInput, s Pair) (Pair, string, bool) {
		s.Enemy.Correction += 3
		return s, "【修正流体】：修正进度+3。", true
	})
	r.On(ItemSpine, OnStatusTick, func(_ HookInput, s Pair) (Pair, string, bool) {
		p := s.Player
		if p.Resource*10 >= p.MaxResource*3 || p.Resource <= 0 {
			return s, "", false
		}
		s.Player.Resource += 4
		return s, "【一段脊椎】：脉动回流，意志+4。", true
	})

	r.Modify(ItemCandle, func(s Pair, m Multipliers) Multipliers {
		if s.Player.Sanity > 50 {
			m.Shield *= 1.5
		}
		return m
	})
	r.Modify(ItemAltarShard, func(_ Pair, m Multipliers) Multipliers {
		m.ShieldFlat += 3
		return m
	})
	r.Modify(ItemEcho, func(s Pair, m Multipliers) Multipliers {
		if s.Player.Resource*20 < s.Player.MaxResource {
			m.Attack *= 2
		}
		return m
	})
	r.Modify(ItemNostalgia, func(s Pair, m Multipliers) Multipliers {
		if s.Player.Resource*10 < s.Player.MaxResource*3 {
			m.Heal *= 1.5
			m.Shield *= 1.5
		}
		return m
	})
	r.Modify(ItemTeeth, func(_ Pair, m Multipliers) Multipliers {
		m.AttackFlat += 2
		return m
	})

	r.PersistShield(ItemRationality)
	return r
}
