package combat

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/truth-eroder/internal/models"
)

// attackRand makes every intent roll land in the ATTACK band.
var attackRand = fixedRand{f: 0.1}

func newTestSession(t *testing.T, rng Rand, p models.PlayerState, e models.Enemy) *Session {
	t.Helper()
	deps := Deps{
		Resolver: newTestResolver(t, DefaultRegistry()),
		Rand:     rng,
		Pool:     []models.WordToken{tokJi, tokZhan, tokWu, tokAn, tokJian},
	}
	s, logs, err := NewSession(context.Background(), deps, p, e)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	return s
}

func TestNewSessionStartsCombat(t *testing.T) {
	p := testPlayer()
	p.Shield = 9
	p.Statuses = models.Statuses{models.StatusSealedHealing: 1, models.StatusChisel: 2}

	s := newTestSession(t, attackRand, p, testEnemy())
	assert.Equal(t, StateAwaitingInput, s.State())
	assert.Equal(t, models.IntentAttack, s.Enemy().Intent.Kind)
	assert.Zero(t, s.Player().Shield)
	assert.False(t, s.Player().Statuses.Has(models.StatusSealedHealing))
	assert.Equal(t, 2, s.Player().Statuses[models.StatusChisel], "run-scoped charges survive")
}

func TestSubmitScenarioTurn(t *testing.T) {
	e := testEnemy()
	s := newTestSession(t, attackRand, testPlayer(), e)

	res, err := s.Submit(context.Background(), []string{tokJi.ID, tokZhan.ID})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOngoing, res.Outcome)
	assert.Equal(t, 28, res.Enemy.HP)
	assert.Equal(t, 2, res.Enemy.Correction)
	assert.Equal(t, 90, res.Player.Resource, "enemy attacked for 10")
	assert.Equal(t, 1, res.Enemy.TurnCount)
	assert.Equal(t, StateAwaitingInput, s.State())
	assert.Equal(t, 1, s.Turns())
	require.NotNil(t, res.Combo)
	assert.True(t, res.Combo.New)
}

func TestSubmitWinsByEitherCondition(t *testing.T) {
	tests := []struct {
		name  string
		enemy func() models.Enemy
	}{
		{"hp", func() models.Enemy {
			e := testEnemy()
			e.HP = 12
			return e
		}},
		{"correction", func() models.Enemy {
			e := testEnemy()
			e.HP, e.MaxHP = 500, 500
			e.MaxCorrection = 2
			return e
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, attackRand, testPlayer(), tt.enemy())
			res, err := s.Submit(context.Background(), []string{tokJi.ID, tokZhan.ID})
			require.NoError(t, err)
			assert.Equal(t, OutcomeWon, res.Outcome)
			assert.Equal(t, StateCombatWon, s.State())
			assert.Equal(t, 100, res.Player.Resource, "enemy never acts after losing")
			assert.Len(t, res.Reward, DefaultRules().RewardDraft)
			assert.Equal(t, res.Reward, s.Reward())

			_, err = s.Submit(context.Background(), []string{tokJi.ID})
			assert.ErrorIs(t, err, ErrSessionOver)
		})
	}
}

func TestSubmitGameOver(t *testing.T) {
	p := testPlayer()
	p.Resource = 5
	s := newTestSession(t, attackRand, p, testEnemy())

	res, err := s.Submit(context.Background(), []string{tokWu.ID})
	require.NoError(t, err)
	assert.Equal(t, OutcomeLost, res.Outcome)
	assert.Zero(t, res.Player.Resource)
	assert.Equal(t, StateGameOver, s.State())
	assert.True(t, s.Over())
	assert.Empty(t, res.Reward)
}

func TestSubmitDeathPrevented(t *testing.T) {
	p := testPlayer()
	p.Resource = 5
	p.Items = []models.Item{item(ItemCausalRepair, models.ItemPassive)}
	s := newTestSession(t, attackRand, p, testEnemy())

	res, err := s.Submit(context.Background(), []string{tokWu.ID})
	require.NoError(t, err)
	assert.Equal(t, OutcomeOngoing, res.Outcome)
	assert.Equal(t, 50, res.Player.Resource)
	assert.Equal(t, 1, res.Player.Sanity)
}

func TestSubmitBurnKillWinsAtStatusTick(t *testing.T) {
	e := testEnemy()
	e.HP = 5
	e.Burn = 10
	s := newTestSession(t, attackRand, testPlayer(), e)

	res, err := s.Submit(context.Background(), []string{tokWu.ID})
	require.NoError(t, err)
	assert.Equal(t, OutcomeWon, res.Outcome)
	assert.Equal(t, 90, res.Player.Resource, "enemy acted before burning out")
}

func TestSubmitStunnedEnemySkipsTurn(t *testing.T) {
	s := newTestSession(t, attackRand, testPlayer(), testEnemy())

	res, err := s.Submit(context.Background(), []string{tokFeng.ID, tokJi.ID})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Player.Resource)
	assert.False(t, res.Enemy.Statuses.Has(models.StatusStunned))

	res, err = s.Submit(context.Background(), []string{tokWu.ID})
	require.NoError(t, err)
	assert.Equal(t, 90, res.Player.Resource)
}

func TestSubmitRejectsBadChains(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want error
	}{
		{"empty", nil, ErrEmptyChain},
		{"too long", []string{"t1", "t2", "t3", "t4", "t5"}, ErrChainTooLong},
		{"duplicate", []string{"t1", "t1"}, ErrDuplicateToken},
		{"not owned", []string{"t1", "nope"}, ErrUnknownToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, attackRand, testPlayer(), testEnemy())
			before := s.Player()
			_, err := s.Submit(context.Background(), tt.ids)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, StateAwaitingInput, s.State())
			assert.Equal(t, before, s.Player())
			assert.Zero(t, s.Turns())
		})
	}
}

func TestSubmitRejectsReentry(t *testing.T) {
	s := newTestSession(t, attackRand, testPlayer(), testEnemy())
	s.busy.Store(true)
	_, err := s.Submit(context.Background(), []string{tokWu.ID})
	assert.ErrorIs(t, err, ErrBusy)
	s.busy.Store(false)

	_, err = s.Submit(context.Background(), []string{tokWu.ID})
	assert.NoError(t, err)
}

func TestSubmitIgnoresCancellation(t *testing.T) {
	s := newTestSession(t, attackRand, testPlayer(), testEnemy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Submit(ctx, []string{tokWu.ID})
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingInput, s.State())
}

func TestSessionPlaysOutWithSeededRand(t *testing.T) {
	// Every seed must end in a terminal state without errors.
	for seed := int64(1); seed <= 20; seed++ {
		s := newTestSession(t, rand.New(rand.NewSource(seed)), testPlayer(), testEnemy())
		for i := 0; i < 200 && !s.Over(); i++ {
			_, err := s.Submit(context.Background(), []string{tokJi.ID, tokZhan.ID})
			require.NoError(t, err)
		}
		assert.True(t, s.Over(), "seed %d", seed)
	}
}

func TestSpawnScalesRegularEnemies(t *testing.T) {
	tmpl := models.EnemyTemplate{Name: "x", HP: 100, MaxCorrection: 100, Attack: 10, Distortion: 3}
	e := Spawn(tmpl, 5, "flavor")
	assert.Equal(t, 150, e.HP)
	assert.Equal(t, 150, e.MaxHP)
	assert.Equal(t, 15, e.Attack)
	assert.Equal(t, "flavor", e.Flavor)

	tmpl.IsBoss = true
	b := Spawn(tmpl, 5, "")
	assert.Equal(t, 100, b.HP)
	assert.True(t, b.IsBoss)
}
