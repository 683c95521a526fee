package combat

import (
	"fmt"
	"slices"

	"github.com/tatianab/truth-eroder/internal/models"
)

// ComboInfo describes what a multi-glyph chain matched.
type ComboInfo struct {
	Key         string
	Description string
	Backfire    bool
	Collapse    bool // no pattern matched
	New         bool // first time this run
}

// Resolution is the result of resolving one chain.
type Resolution struct {
	Pair
	Logs  []string
	Combo *ComboInfo
}

// Resolver evaluates chains against the combo table and item registry.
type Resolver struct {
	rules    Rules
	combos   *ComboTable
	registry *Registry
}

// NewResolver wires a resolver. A nil registry means no items have behaviour.
func NewResolver(rules Rules, combos *ComboTable, registry *Registry) *Resolver {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Resolver{rules: rules, combos: combos, registry: registry}
}

// Rules returns the balance the resolver was built with.
func (r *Resolver) Rules() Rules { return r.rules }

// Registry returns the item registry.
func (r *Resolver) Registry() *Registry { return r.registry }

// Combos returns the combo table.
func (r *Resolver) Combos() *ComboTable { return r.combos }

func (r *Resolver) context(s Pair, rng Rand) opContext {
	return opContext{
		rules: r.rules,
		rng:   rng,
		mult:  r.registry.Multipliers(s),
		conds: r.combos.Conditions(),
	}
}

// Resolve applies chain to s. The chain is assumed validated by the caller.
func (r *Resolver) Resolve(chain []models.WordToken, s Pair, rng Rand) Resolution {
	s = s.Clone()
	var res Resolution
	var dealt int
	switch len(chain) {
	case 0:
		res.Pair = s
		return res
	case 1:
		s, dealt, res.Logs = r.single(chain[0], s, rng)
	default:
		s, dealt, res.Logs, res.Combo = r.combo(chain, s, rng)
	}

	if dealt > 0 {
		var hookLogs []string
		s, hookLogs = r.registry.Fire(OnDamageDealt, HookInput{Amount: dealt, Rules: r.rules, Rand: rng}, s)
		res.Logs = append(res.Logs, hookLogs...)
	}
	res.Pair = s
	return res
}

func (r *Resolver) single(tok models.WordToken, s Pair, rng Rand) (Pair, int, []string) {
	ctx := r.context(s, rng)
	switch tok.Category {
	case models.CategoryAttack:
		before := s.Enemy.Correction
		var dmg int
		s, dmg = ctx.hitEnemy(s, tok.Power)
		s = ctx.raiseCorrection(s, r.rules.SingleCorrection)
		line := fmt.Sprintf("执行 [%s]：造成 %d 损耗，修正+%d。", tok.Text, dmg, s.Enemy.Correction-before)
		return s, dmg, []string{line}

	case models.CategoryDefense:
		if slices.Contains(r.rules.HealingGlyphs, tok.Text) {
			if s.Player.Statuses.Has(models.StatusSealedHealing) {
				return s, 0, []string{fmt.Sprintf("执行 [%s]：生机已被封印，回复无效。", tok.Text)}
			}
			gain := ctx.mult.heal(tok.Power)
			s.Player.Resource += gain
			s.Player = s.Player.Clamp()
			return s, 0, []string{fmt.Sprintf("执行 [%s]：意志回复 %d。", tok.Text, gain)}
		}
		gain := ctx.mult.shield(tok.Power)
		s.Player.Shield += gain
		return s, 0, []string{fmt.Sprintf("执行 [%s]：获得 %d 护盾。", tok.Text, gain)}
	}
	return s, 0, []string{fmt.Sprintf("执行 [%s]：字符悬浮于空中，没有回响。", tok.Text)}
}

func (r *Resolver) combo(chain []models.WordToken, s Pair, rng Rand) (Pair, int, []string, *ComboInfo) {
	key := models.ChainKey(chain)
	cb, ok := r.combos.Lookup(key)
	if !ok {
		s.Player.Resource = max(0, s.Player.Resource-r.rules.CollapseResource)
		s.Player.Sanity = max(0, s.Player.Sanity-r.rules.CollapseSanity)
		logs := []string{
			fmt.Sprintf("【逻辑坍缩】：[%s] 无法构成定义，文字在指间崩解。", key),
			fmt.Sprintf("意志-%d，理智-%d。", r.rules.CollapseResource, r.rules.CollapseSanity),
		}
		return s, 0, logs, &ComboInfo{Key: key, Collapse: true, Description: "逻辑坍缩"}
	}

	info := &ComboInfo{
		Key:         key,
		Description: cb.Description,
		Backfire:    cb.Backfire,
		New:         !s.Player.HasDiscovered(key),
	}
	s.Player = s.Player.Discover(key)

	s, out := r.context(s, rng).applyOps(s, cb.Ops)
	logs := []string{cb.Log}
	if info.New {
		logs = append(logs, fmt.Sprintf("发现新组合：%s", key))
	}
	logs = append(logs, out.notes...)
	return s, out.dealt, logs, info
}

// ApplyPlayerOps runs ops outside combat, against a placeholder enemy.
// Only the player side of the result is meaningful.
func (r *Resolver) ApplyPlayerOps(p models.PlayerState, ops []models.Op, rng Rand) (models.PlayerState, []string) {
	s := Pair{Player: p.Clone(), Enemy: models.Enemy{HP: 1, MaxHP: 1, MaxCorrection: 1, Attack: 1}}
	s, out := r.context(s, rng).applyOps(s, ops)
	return s.Player, out.notes
}
