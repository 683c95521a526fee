package combat

import (
	"fmt"

	"github.com/tatianab/truth-eroder/internal/logger"
	"github.com/tatianab/truth-eroder/internal/models"
)

var knownOps = map[models.OpKind]bool{
	models.OpDamage: true, models.OpCorrection: true, models.OpShield: true,
	models.OpHeal: true, models.OpResource: true, models.OpSanity: true,
	models.OpBurn: true, models.OpEnemyBurn: true, models.OpEnemyBurnScale: true,
	models.OpEnemyHPScale: true, models.OpSetEnemyHP: true, models.OpStatus: true,
	models.OpEnemyStatus: true, models.OpEnemyAttack: true, models.OpEnemyDistortion: true,
	models.OpSetResource: true, models.OpSetSanity: true, models.OpSetShield: true,
	models.OpFillResource: true, models.OpFillSanity: true, models.OpMaxResource: true,
	models.OpMaxSanity: true, models.OpScaleResource: true, models.OpScaleSanity: true,
	models.OpSwapRatio: true,
}

// ValidateOps checks a list of data-driven ops before it is ever applied.
func ValidateOps(ops []models.Op) error {
	for i, op := range ops {
		if err := validateOp(op); err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
	}
	return nil
}

// validateOp rejects ops the evaluator cannot run.
func validateOp(op models.Op) error {
	if !knownOps[op.Kind] {
		return fmt.Errorf("unknown op %q", op.Kind)
	}
	switch op.Kind {
	case models.OpStatus, models.OpEnemyStatus:
		if op.Status == "" {
			return fmt.Errorf("op %q needs a status", op.Kind)
		}
	case models.OpEnemyBurnScale, models.OpEnemyHPScale, models.OpScaleResource, models.OpScaleSanity:
		if op.Factor <= 0 {
			return fmt.Errorf("op %q needs a positive factor", op.Kind)
		}
	}
	return nil
}

// opContext is everything an op needs besides the pair it transforms.
type opContext struct {
	rules Rules
	rng   Rand
	mult  Multipliers
	conds *Conditions
}

// opOutcome accumulates side information while ops run.
type opOutcome struct {
	dealt int
	notes []string
}

// applyOps folds ops over s in order. Pools are clamped after every op.
func (c opContext) applyOps(s Pair, ops []models.Op) (Pair, opOutcome) {
	var out opOutcome
	for _, op := range ops {
		if op.When != "" && c.conds != nil {
			ok, err := c.conds.Eval(op.When, s)
			if err != nil {
				logger.Log.WithError(err).WithField("op", op.Kind).Warn("Op guard failed, skipping op")
				continue
			}
			if !ok {
				continue
			}
		}
		s = c.applyOp(s, op, &out)
		s.Player = s.Player.Clamp()
		s.Enemy = s.Enemy.Clamp()
	}
	return s, out
}

func (c opContext) applyOp(s Pair, op models.Op, out *opOutcome) Pair {
	p, e := s.Player, s.Enemy
	switch op.Kind {
	case models.OpDamage:
		var dmg int
		s, dmg = c.hitEnemy(s, op.Amount)
		out.dealt += dmg
		return s
	case models.OpCorrection:
		return c.raiseCorrection(s, op.Amount)
	case models.OpShield:
		p.Shield += c.mult.shield(op.Amount)
	case models.OpHeal:
		if p.Statuses.Has(models.StatusSealedHealing) {
			out.notes = append(out.notes, "生机已被封印，回复无效。")
			break
		}
		p.Resource += c.mult.heal(op.Amount)
	case models.OpResource:
		p.Resource += op.Amount
	case models.OpSanity:
		p.Sanity += op.Amount
	case models.OpBurn:
		p.Burn += op.Amount
	case models.OpEnemyBurn:
		e.Burn += op.Amount
	case models.OpEnemyBurnScale:
		e.Burn = int(float64(e.Burn) * op.Factor)
	case models.OpEnemyHPScale:
		e.HP = int(float64(e.HP) * op.Factor)
	case models.OpSetEnemyHP:
		e.HP = op.Amount
	case models.OpStatus:
		p.Statuses = p.Statuses.With(op.Status, op.Amount)
	case models.OpEnemyStatus:
		e.Statuses = e.Statuses.With(op.Status, op.Amount)
	case models.OpEnemyAttack:
		e.Attack += op.Amount
	case models.OpEnemyDistortion:
		e.Distortion += op.Amount
	case models.OpSetResource:
		p.Resource = op.Amount
	case models.OpSetSanity:
		p.Sanity = op.Amount
	case models.OpSetShield:
		p.Shield = op.Amount
	case models.OpFillResource:
		p.Resource = p.MaxResource
	case models.OpFillSanity:
		p.Sanity = p.MaxSanity
	case models.OpMaxResource:
		p.MaxResource += op.Amount
	case models.OpMaxSanity:
		p.MaxSanity += op.Amount
	case models.OpScaleResource:
		p.Resource = max(1, int(float64(p.Resource)*op.Factor))
	case models.OpScaleSanity:
		p.Sanity = max(1, int(float64(p.Sanity)*op.Factor))
	case models.OpSwapRatio:
		pr := float64(p.Resource) / float64(max(p.MaxResource, 1))
		er := float64(e.HP) / float64(max(e.MaxHP, 1))
		p.Resource = max(1, int(er*float64(p.MaxResource)))
		e.HP = max(1, int(pr*float64(e.MaxHP)))
	default:
		logger.Log.WithField("op", op.Kind).Warn("Unknown op ignored")
	}
	s.Player, s.Enemy = p, e
	return s
}

// hitEnemy applies multipliers and confusion to base and subtracts the result
// from enemy hp. It returns the damage actually rolled.
func (c opContext) hitEnemy(s Pair, base int) (Pair, int) {
	dmg := confused(c.mult.damage(base), s.Player.Sanity, c.rules, c.rng)
	s.Enemy.HP = max(0, s.Enemy.HP-dmg)
	return s, dmg
}

// raiseCorrection adds a confused gain to the enemy's correction. Negative
// amounts are applied as-is.
func (c opContext) raiseCorrection(s Pair, base int) Pair {
	gain := base
	if base > 0 {
		gain = confused(base, s.Player.Sanity, c.rules, c.rng)
	}
	s.Enemy.Correction = min(max(0, s.Enemy.Correction+gain), s.Enemy.MaxCorrection)
	return s
}

// damagePlayer drains shield first, then resource, flooring both at zero.
func damagePlayer(p models.PlayerState, amount int) (out models.PlayerState, absorbed int) {
	absorbed = min(p.Shield, amount)
	p.Shield -= absorbed
	p.Resource = max(0, p.Resource-(amount-absorbed))
	return p, absorbed
}
