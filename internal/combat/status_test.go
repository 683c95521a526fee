package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tatianab/truth-eroder/internal/models"
)

func TestStatusTickBurn(t *testing.T) {
	rules := DefaultRules()
	s := Pair{Player: testPlayer(), Enemy: testEnemy()}
	s.Player.Burn = 10
	s.Enemy.Burn = 2

	out, logs := StatusTick(s, rules, DefaultRegistry(), fixedRand{})
	assert.Equal(t, 90, out.Player.Resource)
	assert.Equal(t, 6, out.Player.Burn)
	assert.Equal(t, 38, out.Enemy.HP)
	assert.Zero(t, out.Enemy.Burn, "burn of 1 or less decays to zero")
	assert.Len(t, logs, 2)
}

func TestStatusTickNoBurnDecay(t *testing.T) {
	s := Pair{Player: testPlayer(), Enemy: testEnemy()}
	s.Enemy.Burn = 10
	s.Enemy.Statuses = models.Statuses{models.StatusNoBurnDecay: 1}

	out, _ := StatusTick(s, DefaultRules(), DefaultRegistry(), fixedRand{})
	assert.Equal(t, 30, out.Enemy.HP)
	assert.Equal(t, 10, out.Enemy.Burn)
	assert.False(t, out.Enemy.Statuses.Has(models.StatusNoBurnDecay))

	out, _ = StatusTick(out, DefaultRules(), DefaultRegistry(), fixedRand{})
	assert.Equal(t, 20, out.Enemy.HP)
	assert.Equal(t, 6, out.Enemy.Burn)
}

func TestStatusTickExpiresShieldAndTurnMarkers(t *testing.T) {
	s := Pair{Player: testPlayer(), Enemy: testEnemy()}
	s.Player.Shield = 12
	s.Player.Statuses = models.Statuses{
		models.StatusEvasive:       1,
		models.StatusReflect:       2,
		models.StatusSealedHealing: 1,
	}

	out, _ := StatusTick(s, DefaultRules(), DefaultRegistry(), fixedRand{})
	assert.Zero(t, out.Player.Shield)
	assert.False(t, out.Player.Statuses.Has(models.StatusEvasive))
	assert.Equal(t, 1, out.Player.Statuses[models.StatusReflect])
	assert.True(t, out.Player.Statuses.Has(models.StatusSealedHealing))

	s.Player.Items = []models.Item{item(ItemRationality, models.ItemPassive)}
	out, _ = StatusTick(s, DefaultRules(), DefaultRegistry(), fixedRand{})
	assert.Equal(t, 12, out.Player.Shield)
}

func TestStatusTickHooks(t *testing.T) {
	s := Pair{Player: testPlayer(), Enemy: testEnemy()}
	s.Player.Resource = 20
	s.Player.Items = []models.Item{item(ItemFluid, models.ItemPassive), item(ItemSpine, models.ItemPassive)}

	out, _ := StatusTick(s, DefaultRules(), DefaultRegistry(), fixedRand{})
	assert.Equal(t, 3, out.Enemy.Correction)
	assert.Equal(t, 24, out.Player.Resource)
}

func TestEnemyActAttack(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name       string
		statuses   models.Statuses
		shield     int
		wantRes    int
		wantShield int
		wantEnemy  int
	}{
		{"plain", nil, 0, 90, 0, 40},
		{"shield first", nil, 4, 94, 0, 40},
		{"evasive halves", models.Statuses{models.StatusEvasive: 1}, 0, 95, 0, 40},
		{"reflect", models.Statuses{models.StatusReflect: 1}, 0, 100, 0, 30},
		{"invincible", models.Statuses{models.StatusInvincible: 1}, 0, 100, 0, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Pair{Player: testPlayer(), Enemy: testEnemy()}
			s.Player.Statuses = tt.statuses
			s.Player.Shield = tt.shield
			s.Enemy.Intent = models.Intent{Kind: models.IntentAttack, Value: 10}

			out, logs := EnemyAct(s, rules, DefaultRegistry(), fixedRand{})
			assert.Equal(t, tt.wantRes, out.Player.Resource)
			assert.Equal(t, tt.wantShield, out.Player.Shield)
			assert.Equal(t, tt.wantEnemy, out.Enemy.HP)
			assert.NotEmpty(t, logs)
		})
	}
}

func TestEnemyActThornFiresOnDamageTaken(t *testing.T) {
	s := Pair{Player: testPlayer(), Enemy: testEnemy()}
	s.Player.Items = []models.Item{item(ItemThorn, models.ItemPassive)}
	s.Enemy.Intent = models.Intent{Kind: models.IntentAttack, Value: 10}

	out, _ := EnemyAct(s, DefaultRules(), DefaultRegistry(), fixedRand{})
	assert.Equal(t, 37, out.Enemy.HP)
}

func TestEnemyActNonAttack(t *testing.T) {
	rules := DefaultRules()

	s := Pair{Player: testPlayer(), Enemy: testEnemy()}
	s.Enemy.HP = 20
	s.Enemy.Correction = 12
	s.Enemy.Intent = models.Intent{Kind: models.IntentDefend, Value: 10}
	out, _ := EnemyAct(s, rules, nil, fixedRand{})
	assert.Equal(t, 30, out.Enemy.HP)
	assert.Equal(t, 7, out.Enemy.Correction)

	s.Enemy.Correction = 3
	out, _ = EnemyAct(s, rules, nil, fixedRand{})
	assert.Zero(t, out.Enemy.Correction)

	s.Enemy.Intent = models.Intent{Kind: models.IntentHeal, Value: 100}
	out, _ = EnemyAct(s, rules, nil, fixedRand{})
	assert.Equal(t, 40, out.Enemy.HP)

	s.Enemy.Intent = models.Intent{Kind: models.IntentDistort, Value: 30}
	out, _ = EnemyAct(s, rules, nil, fixedRand{})
	assert.Equal(t, 70, out.Player.Sanity)
}

func TestStartTurn(t *testing.T) {
	s := Pair{Player: testPlayer(), Enemy: testEnemy()}
	s.Player.Items = []models.Item{
		item(ItemMirror, models.ItemPassive),
		item(ItemVoidHeart, models.ItemPassive),
		item(ItemEmbers, models.ItemPassive),
	}

	out, logs := StartTurn(s, DefaultRules(), DefaultRegistry(), fixedRand{f: 0.1})
	assert.Equal(t, 1, out.Enemy.TurnCount)
	assert.True(t, out.Player.Statuses.Has(models.StatusReflect))
	assert.Equal(t, 5, out.Player.Shield)
	assert.Equal(t, 3, out.Enemy.Burn)
	assert.Len(t, logs, 3)

	out, _ = StartTurn(s, DefaultRules(), DefaultRegistry(), fixedRand{f: 0.9})
	assert.False(t, out.Player.Statuses.Has(models.StatusReflect))
}
