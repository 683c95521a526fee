package combat

import (
	"fmt"

	"github.com/tatianab/truth-eroder/internal/models"
)

// GenerateIntent rolls the enemy's next telegraphed action.
// DISTORT is reserved for bosses; a regular enemy that rolls it gets a
// weakened attack instead.
func GenerateIntent(e models.Enemy, rules Rules, rng Rand) models.Intent {
	roll := rng.Float64()
	w := rules.Intent
	switch {
	case roll < w.Attack:
		return models.Intent{
			Kind:        models.IntentAttack,
			Value:       e.Attack,
			Description: fmt.Sprintf("准备发动冲击（%d）", e.Attack),
		}
	case roll < w.Attack+w.Defend:
		v := int(float64(e.HP)*rules.DefendHPFraction) + rules.DefendFlat
		return models.Intent{
			Kind:        models.IntentDefend,
			Value:       v,
			Description: fmt.Sprintf("正在加固定义（+%d）", v),
		}
	case roll < w.Attack+w.Defend+w.Distort:
		if e.IsBoss {
			return models.Intent{
				Kind:        models.IntentDistort,
				Value:       e.Distortion,
				Description: fmt.Sprintf("正在扭曲认知（理智-%d）", e.Distortion),
			}
		}
		v := max(rules.WeakDistortMin, int(float64(e.Attack)*rules.WeakDistortFactor))
		return models.Intent{
			Kind:        models.IntentAttack,
			Value:       v,
			Description: fmt.Sprintf("发出混乱的低语（%d）", v),
		}
	default:
		v := rules.HealFlat + int(float64(e.MaxHP)*rules.HealMaxHPFraction)
		return models.Intent{
			Kind:        models.IntentHeal,
			Value:       v,
			Description: fmt.Sprintf("正在修补自身（+%d）", v),
		}
	}
}
