package combat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tatianab/truth-eroder/internal/models"
)

// fixedRand always returns the same draws.
type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Intn(n int) int { return r.n % n }
func (r fixedRand) Float64() float64 { return r.f }

var (
	tokJi   = models.WordToken{ID: "t1", Text: "击", Category: models.CategoryAttack, Power: 3}
	tokZhan = models.WordToken{ID: "t2", Text: "斩", Category: models.CategoryAttack, Power: 4}
	tokWu   = models.WordToken{ID: "t3", Text: "无", Category: models.CategoryStrategy}
	tokAn   = models.WordToken{ID: "t4", Text: "安", Category: models.CategoryDefense, Power: 2}
	tokJian = models.WordToken{ID: "t5", Text: "坚", Category: models.CategoryDefense, Power: 3}
	tokFeng = models.WordToken{ID: "t6", Text: "封", Category: models.CategoryDefense, Power: 5}
)

func testCombos() []models.Combo {
	return []models.Combo{
		{
			Pattern: []string{"击", "斩"},
			Log:     "【击斩】精准命中。",
			Ops:     []models.Op{{Kind: models.OpDamage, Amount: 12}, {Kind: models.OpCorrection, Amount: 2}},
		},
		{
			Pattern: []string{"坚", "安"},
			Log:     "【坚安】",
			Ops: []models.Op{
				{Kind: models.OpShield, Amount: 10},
				{Kind: models.OpSanity, Amount: 5, When: "player.sanity < 50"},
			},
		},
		{
			Pattern: []string{"封", "击"},
			Log:     "【封击】",
			Ops:     []models.Op{{Kind: models.OpEnemyStatus, Status: models.StatusStunned, Amount: 1}},
		},
	}
}

func newTestResolver(t *testing.T, reg *Registry) *Resolver {
	t.Helper()
	table, err := NewComboTable(testCombos(), nil)
	require.NoError(t, err)
	return NewResolver(DefaultRules(), table, reg)
}

func testPlayer() models.PlayerState {
	return models.PlayerState{
		Resource:    100,
		MaxResource: 100,
		Sanity:      100,
		MaxSanity:   100,
		Inventory:   []models.WordToken{tokJi, tokZhan, tokWu, tokAn, tokJian, tokFeng},
	}
}

func testEnemy() models.Enemy {
	return models.Enemy{
		Name:          "回声之影",
		HP:            40,
		MaxHP:         40,
		MaxCorrection: 100,
		Attack:        10,
		Distortion:    5,
	}
}

func item(id models.ItemID, kind models.ItemKind) models.Item {
	return models.Item{ID: id, Name: string(id), Kind: kind}
}
