package game

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/truth-eroder/internal/combat"
	"github.com/tatianab/truth-eroder/internal/data"
	"github.com/tatianab/truth-eroder/internal/engine"
	"github.com/tatianab/truth-eroder/internal/models"
)

func newTestRun(t *testing.T, seed int64) *Run {
	t.Helper()
	return newTestRunWith(t, seed, nil)
}

// newTestRunWith lets edit trim the catalog before the run is built.
func newTestRunWith(t *testing.T, seed int64, edit func(*data.Catalog)) *Run {
	t.Helper()
	c, err := data.Load()
	require.NoError(t, err)
	if edit != nil {
		edit(c)
	}
	deps, err := NewDeps(c, engine.Static{}, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	r, err := NewRun(deps, DefaultOptions(), "id_scribe", seed)
	require.NoError(t, err)
	return r
}

// setNode overwrites the cell at c.
func setNode(r *Run, c models.Coord, typ models.NodeType, content models.Content) {
	g := r.Grid.Clone()
	n := &g.Nodes[g.Index(c)]
	n.Type, n.Content, n.Revealed, n.NeighborMines = typ, content, false, 0
	r.Grid = g
}

func TestNewRun(t *testing.T) {
	r := newTestRun(t, 1)
	assert.Equal(t, PhaseMap, r.Phase)
	assert.Equal(t, models.Coord{X: 3, Y: 3}, r.Player.Pos)
	assert.Equal(t, models.RegionSenses, r.Player.Region)
	assert.Len(t, r.Player.Inventory, 4)
	assert.Equal(t, 120, r.Player.Resource)
	assert.Equal(t, 7, r.Grid.Size)
	assert.Len(t, r.Movable(), 4)

	_, err := NewRun(r.deps, DefaultOptions(), "nobody", 1)
	assert.ErrorIs(t, err, ErrUnknownIdentity)
}

func TestNewDepsRejectsBadAcquireOps(t *testing.T) {
	c, err := data.Load()
	require.NoError(t, err)
	c.Items = append(c.Items, models.Item{
		ID:        "itm_broken",
		Kind:      models.ItemPassive,
		OnAcquire: []models.Op{{Kind: "teleport"}},
	})
	_, err = NewDeps(c, engine.Static{}, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "itm_broken")
}

func TestMoveRejectsUnreachableCells(t *testing.T) {
	r := newTestRun(t, 1)
	err := r.Move(context.Background(), models.Coord{X: 5, Y: 3})
	assert.ErrorIs(t, err, ErrInvalidMove)
	assert.Zero(t, r.Player.NodesCleared)

	r.Phase = PhaseRest
	err = r.Move(context.Background(), models.Coord{X: 4, Y: 3})
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestMoveOntoMineStartsCombat(t *testing.T) {
	r := newTestRun(t, 2)
	target := models.Coord{X: 4, Y: 3}
	setNode(r, target, models.NodeMine, models.ContentNone)

	require.NoError(t, r.Move(context.Background(), target))
	assert.Equal(t, PhaseCombat, r.Phase)
	require.NotNil(t, r.Session)
	assert.False(t, r.Session.Enemy().IsBoss)
	assert.NotEmpty(t, r.Session.Enemy().Flavor)
	assert.Equal(t, 1, r.Player.NodesCleared)
	assert.Equal(t, target, r.Player.Pos)
}

func TestMoveIntoContent(t *testing.T) {
	tests := []struct {
		content models.Content
		want    Phase
	}{
		{models.ContentShop, PhaseShop},
		{models.ContentRest, PhaseRest},
		{models.ContentEvent, PhaseEvent},
		{models.ContentTreasure, PhaseMap},
		{models.ContentRoller, PhaseMap},
	}
	for _, tt := range tests {
		t.Run(string(tt.content), func(t *testing.T) {
			r := newTestRun(t, 3)
			target := models.Coord{X: 3, Y: 2}
			setNode(r, target, models.NodeSafe, tt.content)
			r.Grid.Danger = 0

			require.NoError(t, r.Move(context.Background(), target))
			assert.Equal(t, tt.want, r.Phase)
			n, _ := r.Grid.Node(target)
			assert.Equal(t, models.ContentNone, n.Content, "content is spent")

			switch tt.content {
			case models.ContentShop:
				assert.Len(t, r.Shop, 4)
				for _, w := range r.Shop {
					assert.GreaterOrEqual(t, w.Cost, 15)
					assert.Less(t, w.Cost, 30)
				}
			case models.ContentEvent:
				assert.NotNil(t, r.Event)
			case models.ContentTreasure:
				assert.Len(t, r.Player.Items, 1)
			}
		})
	}
}

func TestTreasureChiselStunsNextEncounter(t *testing.T) {
	r := newTestRunWith(t, 3, func(c *data.Catalog) {
		chisel, ok := c.Item(combat.ItemChisel)
		require.True(t, ok)
		c.Items = []models.Item{chisel}
	})
	r.Grid.Danger = 0

	treasure := models.Coord{X: 3, Y: 2}
	setNode(r, treasure, models.NodeSafe, models.ContentTreasure)
	require.NoError(t, r.Move(context.Background(), treasure))
	require.True(t, r.Player.HasItem(combat.ItemChisel))
	assert.Equal(t, 3, r.Player.Statuses[models.StatusChisel])

	mine := models.Coord{X: 3, Y: 1}
	setNode(r, mine, models.NodeMine, models.ContentNone)
	require.NoError(t, r.Move(context.Background(), mine))
	require.Equal(t, PhaseCombat, r.Phase)
	assert.True(t, r.Session.Enemy().Statuses.Has(models.StatusStunned))
	assert.Equal(t, 2, r.Player.Statuses[models.StatusChisel])
}

func TestMoveIntoDeadEndCallsBoss(t *testing.T) {
	r := newTestRun(t, 4)
	target := models.Coord{X: 3, Y: 2}
	setNode(r, target, models.NodeSafe, models.ContentNone)
	for _, c := range []models.Coord{{X: 3, Y: 1}, {X: 2, Y: 2}, {X: 4, Y: 2}} {
		r.Grid.Nodes[r.Grid.Index(c)].Revealed = true
	}
	r.Grid.Danger = 0

	require.NoError(t, r.Move(context.Background(), target))
	assert.Equal(t, PhaseCombat, r.Phase)
	require.NotNil(t, r.Session)
	assert.True(t, r.Session.Enemy().IsBoss)
	assert.False(t, r.Stranded())
}

func TestConfront(t *testing.T) {
	r := newTestRun(t, 4)
	assert.False(t, r.Stranded())
	assert.ErrorIs(t, r.Confront(context.Background()), ErrNotStranded)

	// A rest site at a dead end leaves the player stranded once closed.
	for _, c := range r.Movable() {
		r.Grid.Nodes[r.Grid.Index(c)].Revealed = true
	}
	r.Phase = PhaseRest
	assert.False(t, r.Stranded())
	assert.ErrorIs(t, r.Confront(context.Background()), ErrWrongPhase)

	require.NoError(t, r.Rest())
	require.True(t, r.Stranded())
	require.NoError(t, r.Confront(context.Background()))
	assert.Equal(t, PhaseCombat, r.Phase)
	assert.True(t, r.Session.Enemy().IsBoss)
}

func TestMoveDangerTriggersBoss(t *testing.T) {
	r := newTestRun(t, 4)
	target := models.Coord{X: 2, Y: 3}
	setNode(r, target, models.NodeSafe, models.ContentNone)
	r.Grid.Nodes[r.Grid.Index(target)].NeighborMines = 2
	r.Grid.Danger = 14

	require.NoError(t, r.Move(context.Background(), target))
	assert.Equal(t, PhaseCombat, r.Phase)
	assert.True(t, r.Session.Enemy().IsBoss)
	assert.Zero(t, r.Grid.Danger)
}

func TestRest(t *testing.T) {
	r := newTestRun(t, 1)
	r.Phase = PhaseRest
	r.Player.Resource = 50
	r.Player.Sanity = 90

	require.NoError(t, r.Rest())
	assert.Equal(t, 86, r.Player.Resource)
	assert.Equal(t, 100, r.Player.Sanity)
	assert.Equal(t, PhaseMap, r.Phase)
	assert.ErrorIs(t, r.Rest(), ErrWrongPhase)
}

func TestBuy(t *testing.T) {
	r := newTestRun(t, 1)
	r.Phase = PhaseShop
	r.Shop = []models.WordToken{
		{ID: "w_fen", Text: "焚", Category: models.CategoryAttack, Power: 5, Cost: 20},
		{ID: "w_yu", Text: "御", Category: models.CategoryDefense, Power: 5, Cost: 200},
	}

	require.NoError(t, r.Buy(0))
	assert.Equal(t, 100, r.Player.Resource)
	assert.Len(t, r.Player.Inventory, 5)
	assert.True(t, r.HasGlyph("焚"))
	assert.Len(t, r.Shop, 1)
	assert.Equal(t, PhaseShop, r.Phase)

	assert.ErrorIs(t, r.Buy(0), ErrCannotAfford)
	assert.ErrorIs(t, r.Buy(5), ErrInvalidChoice)
	require.NoError(t, r.Leave())
	assert.Equal(t, PhaseMap, r.Phase)
}

func TestRewardOverCapacityNeedsDiscard(t *testing.T) {
	r := newTestRun(t, 1)
	for len(r.Player.Inventory) < 8 {
		r.Player.Inventory = append(r.Player.Inventory, models.WordToken{ID: r.freshID(), Text: "击", Category: models.CategoryAttack, Power: 3})
	}
	r.Phase = PhaseReward
	r.Reward = []models.WordToken{{ID: "w_sha", Text: "杀", Category: models.CategoryAttack, Power: 4}}

	require.NoError(t, r.ChooseReward(0))
	assert.Equal(t, PhaseDiscard, r.Phase)
	assert.Len(t, r.Player.Inventory, 9)

	assert.ErrorIs(t, r.Discard(9), ErrInvalidChoice)
	require.NoError(t, r.Discard(0))
	assert.Equal(t, PhaseMap, r.Phase)
	assert.Len(t, r.Player.Inventory, 8)

	ids := map[string]bool{}
	for _, w := range r.Player.Inventory {
		assert.False(t, ids[w.ID], "inventory ids are unique")
		ids[w.ID] = true
	}
}

func TestSkipReward(t *testing.T) {
	r := newTestRun(t, 1)
	r.Phase = PhaseReward
	r.Reward = []models.WordToken{{ID: "w_sha", Text: "杀"}}
	require.NoError(t, r.ChooseReward(-1))
	assert.Equal(t, PhaseMap, r.Phase)
	assert.Len(t, r.Player.Inventory, 4)
}

func TestChooseEventGlyphGate(t *testing.T) {
	r := newTestRun(t, 1)
	ev, ok := r.deps.Catalog.Event("e_naming_ceremony")
	require.True(t, ok)
	r.Event, r.Phase = &ev, PhaseEvent

	err := r.ChooseEvent(context.Background(), 1)
	assert.ErrorIs(t, err, ErrMissingGlyph, "scribe starts without 封")
	assert.Equal(t, PhaseEvent, r.Phase)

	require.NoError(t, r.ChooseEvent(context.Background(), 0))
	assert.Equal(t, 95, r.Player.Sanity)
	assert.Equal(t, PhaseMap, r.Phase)
	assert.Nil(t, r.Event)
}

func TestChooseEventGrantsItemOnce(t *testing.T) {
	r := newTestRun(t, 1)
	r.Player.Inventory = append(r.Player.Inventory, models.WordToken{ID: "inv_feng", Text: "封", Category: models.CategoryStrategy})
	ev, ok := r.deps.Catalog.Event("e_naming_ceremony")
	require.True(t, ok)
	r.Event, r.Phase = &ev, PhaseEvent

	require.NoError(t, r.ChooseEvent(context.Background(), 1))
	assert.True(t, r.Player.HasItem(combat.ItemChisel))
	assert.Equal(t, 3, r.Player.Statuses[models.StatusChisel])
}

func TestShadowTradesResourceForSanity(t *testing.T) {
	r := newTestRun(t, 1)
	r.Player.Inventory = append(r.Player.Inventory, models.WordToken{ID: "inv_yi", Text: "移", Category: models.CategoryStrategy})
	r.Player.Sanity = 60
	ev, ok := r.deps.Catalog.Event("e_shadow_trial")
	require.True(t, ok)
	r.Event, r.Phase = &ev, PhaseEvent

	require.NoError(t, r.ChooseEvent(context.Background(), 1))
	assert.True(t, r.Player.HasItem("itm_shadow"))
	assert.Equal(t, 80, r.Player.MaxResource)
	assert.Equal(t, 80, r.Player.Resource)
	assert.Equal(t, 130, r.Player.MaxSanity)
	assert.Equal(t, 130, r.Player.Sanity)
	assert.Equal(t, PhaseMap, r.Phase)
}

func TestChooseEventCanEndRun(t *testing.T) {
	r := newTestRun(t, 1)
	r.Event = &models.Event{ID: "x", Options: []models.EventOption{{
		Label: "drain",
		Ops:   []models.Op{{Kind: models.OpResource, Amount: -500}},
	}}}
	r.Phase = PhaseEvent

	require.NoError(t, r.ChooseEvent(context.Background(), 0))
	assert.Equal(t, PhaseGameOver, r.Phase)
	assert.True(t, r.Meta.GameOver)
	assert.True(t, r.Over())
}

func bossSession(t *testing.T, r *Run) {
	t.Helper()
	deps := combat.Deps{Resolver: r.deps.Resolver, Rand: r.deps.Rand, Pool: r.deps.Catalog.Words}
	boss := models.Enemy{Name: "boss", HP: 1, MaxHP: 1, MaxCorrection: 100, Attack: 1, IsBoss: true}
	s, _, err := combat.NewSession(context.Background(), deps, r.Player, boss)
	require.NoError(t, err)
	r.Session, r.bossFight, r.Phase = s, true, PhaseCombat
}

func TestBossWinAdvancesRegion(t *testing.T) {
	r := newTestRun(t, 5)
	bossSession(t, r)

	res, err := r.Submit(context.Background(), []string{r.Player.Inventory[1].ID})
	require.NoError(t, err)
	assert.Equal(t, combat.OutcomeWon, res.Outcome)
	assert.Equal(t, models.RegionLogic, r.Player.Region)
	assert.Equal(t, 2, r.Player.Day)
	assert.Equal(t, PhaseReward, r.Phase)
	assert.Equal(t, models.Coord{X: 3, Y: 3}, r.Grid.Pos)
	assert.Zero(t, r.Grid.Explored)
	assert.Nil(t, r.Session)
}

func TestFinalBossWinsRun(t *testing.T) {
	r := newTestRun(t, 5)
	r.Player.Region = models.RegionTruth
	bossSession(t, r)

	_, err := r.Submit(context.Background(), []string{r.Player.Inventory[1].ID})
	require.NoError(t, err)
	assert.Equal(t, PhaseVictory, r.Phase)
	assert.True(t, r.Meta.Victory)
}

func TestSaveAndResume(t *testing.T) {
	models.SaveDir = t.TempDir()
	r := newTestRun(t, 6)
	r.Player.Resource = 77

	require.NoError(t, r.Save("slot"))
	snap, err := models.LoadRun("slot")
	require.NoError(t, err)

	back, err := Resume(r.deps, DefaultOptions(), snap)
	require.NoError(t, err)
	assert.Equal(t, PhaseMap, back.Phase)
	assert.Equal(t, 77, back.Player.Resource)
	assert.Equal(t, r.Grid.Nodes, back.Grid.Nodes)

	r.Phase = PhaseCombat
	assert.ErrorIs(t, r.Save("slot"), ErrWrongPhase)
}

func TestRandomRunsTerminateOrProgress(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		r := newTestRun(t, seed)
		rng := rand.New(rand.NewSource(seed))
		for step := 0; step < 500 && !r.Over(); step++ {
			require.NoError(t, autoplay(context.Background(), r, rng), "seed %d step %d", seed, step)
		}
	}
}

// autoplay takes one arbitrary legal action.
func autoplay(ctx context.Context, r *Run, rng *rand.Rand) error {
	switch r.Phase {
	case PhaseMap:
		if r.Stranded() {
			return r.Confront(ctx)
		}
		moves := r.Movable()
		return r.Move(ctx, moves[rng.Intn(len(moves))])
	case PhaseCombat:
		inv := r.Player.Inventory
		_, err := r.Submit(ctx, []string{inv[rng.Intn(len(inv))].ID})
		return err
	case PhaseReward:
		return r.ChooseReward(0)
	case PhaseDiscard:
		return r.Discard(0)
	case PhaseRest:
		return r.Rest()
	case PhaseShop, PhaseEvent:
		return r.Leave()
	}
	return nil
}
