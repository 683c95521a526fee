package combat

import (
	"fmt"

	"github.com/tatianab/truth-eroder/internal/models"
)

// EnemyAct resolves the enemy's current intent against the player.
func EnemyAct(s Pair, rules Rules, registry *Registry, rng Rand) (Pair, []string) {
	s = s.Clone()
	p, e := s.Player, s.Enemy
	in := e.Intent

	if p.Statuses.Has(models.StatusInvincible) {
		return s, []string{fmt.Sprintf("%s 的行动穿过了你，没有留下痕迹。", e.Name)}
	}

	var logs []string
	switch in.Kind {
	case models.IntentAttack:
		v := in.Value
		if p.Statuses.Has(models.StatusEvasive) {
			v /= 2
			logs = append(logs, "【闪避】：冲击偏离了一半。")
		}
		if p.Statuses.Has(models.StatusReflect) {
			e.HP = max(0, e.HP-v)
			s.Player, s.Enemy = p, e
			return s, append(logs, fmt.Sprintf("【反弹】：%d 点冲击原路返回，%s 受到损耗。", v, e.Name))
		}
		dmg := confused(v, p.Sanity, rules, rng)
		var absorbed int
		p, absorbed = damagePlayer(p, dmg)
		logs = append(logs, fmt.Sprintf("%s 发动冲击：护盾吸收 %d，意志-%d。", e.Name, absorbed, dmg-absorbed))
		s.Player, s.Enemy = p, e
		if dmg > 0 && registry != nil {
			var hookLogs []string
			s, hookLogs = registry.Fire(OnDamageTaken, HookInput{Amount: dmg, Rules: rules, Rand: rng}, s)
			logs = append(logs, hookLogs...)
		}
		return s, logs

	case models.IntentDefend:
		e.HP = min(e.MaxHP, e.HP+in.Value)
		e.Correction = max(0, e.Correction-rules.DefendCorrectionRollback)
		logs = append(logs, fmt.Sprintf("%s 加固了定义：稳定性+%d，修正-%d。", e.Name, in.Value, rules.DefendCorrectionRollback))

	case models.IntentDistort:
		p.Sanity = max(0, p.Sanity-in.Value)
		logs = append(logs, fmt.Sprintf("%s 扭曲了你的认知：理智-%d。", e.Name, in.Value))

	case models.IntentHeal:
		e.HP = min(e.MaxHP, e.HP+in.Value)
		logs = append(logs, fmt.Sprintf("%s 修补了自身：稳定性+%d。", e.Name, in.Value))

	default:
		logs = append(logs, fmt.Sprintf("%s 犹豫不决。", e.Name))
	}
	s.Player, s.Enemy = p, e
	return s, logs
}

// StatusTick runs burn on both sides, expires shield and one-turn markers,
// then fires ON_STATUS_TICK hooks.
func StatusTick(s Pair, rules Rules, registry *Registry, rng Rand) (Pair, []string) {
	s = s.Clone()
	p, e := s.Player, s.Enemy
	var logs []string

	if p.Burn > 0 {
		p.Resource = max(0, p.Resource-p.Burn)
		logs = append(logs, fmt.Sprintf("焚烧灼伤了你：意志-%d。", p.Burn))
		p.Burn = decayBurn(p.Burn, rules)
	}

	if e.Burn > 0 {
		e.HP = max(0, e.HP-e.Burn)
		logs = append(logs, fmt.Sprintf("%s 在焚烧中崩解：稳定性-%d。", e.Name, e.Burn))
		if e.Statuses.Has(models.StatusNoBurnDecay) {
			e.Statuses = e.Statuses.With(models.StatusNoBurnDecay, -1)
		} else {
			e.Burn = decayBurn(e.Burn, rules)
		}
	}

	if registry == nil || !registry.KeepsShield(p) {
		p.Shield = 0
	}
	p.Statuses = p.Statuses.Decay(models.TurnScoped...)

	s.Player, s.Enemy = p, e
	if registry != nil {
		var hookLogs []string
		s, hookLogs = registry.Fire(OnStatusTick, HookInput{Rules: rules, Rand: rng}, s)
		logs = append(logs, hookLogs...)
	}
	return s, logs
}

func decayBurn(burn int, rules Rules) int {
	next := int(float64(burn) * rules.BurnDecay)
	if next <= 1 {
		return 0
	}
	return next
}

// StartTurn advances the enemy's turn counter and fires ON_TURN_START hooks.
func StartTurn(s Pair, rules Rules, registry *Registry, rng Rand) (Pair, []string) {
	s = s.Clone()
	s.Enemy.TurnCount++
	if registry == nil {
		return s, nil
	}
	return registry.Fire(OnTurnStart, HookInput{Rules: rules, Rand: rng}, s)
}
