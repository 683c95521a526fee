// Package sim plays runs headlessly with a simple greedy policy. It is used
// for balance checks and as a smoke test of the whole run loop.
package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/tatianab/truth-eroder/internal/game"
	"github.com/tatianab/truth-eroder/internal/models"
)

// Summary is how one simulated run ended.
type Summary struct {
	Seed     int64
	Victory  bool
	Region   models.Region
	Nodes    int
	Steps    int
	Combos   int
	Resource int
}

// Bot picks actions for a run.
type Bot struct {
	rng *rand.Rand
}

func NewBot(seed int64) *Bot {
	return &Bot{rng: rand.New(rand.NewSource(seed))}
}

// Step takes one action in whatever phase the run is in.
func (b *Bot) Step(ctx context.Context, r *game.Run, combos ComboLookup) error {
	switch r.Phase {
	case game.PhaseMap:
		if r.Stranded() {
			return r.Confront(ctx)
		}
		moves := r.Movable()
		return r.Move(ctx, moves[b.rng.Intn(len(moves))])

	case game.PhaseCombat:
		_, err := r.Submit(ctx, b.chain(r.Player, combos))
		return err

	case game.PhaseReward:
		return r.ChooseReward(strongest(r.Reward))

	case game.PhaseDiscard:
		return r.Discard(weakest(r.Player.Inventory))

	case game.PhaseShop:
		if len(r.Shop) > 0 && r.Player.Resource*10 > r.Player.MaxResource*6 {
			i := cheapest(r.Shop)
			if r.Player.Resource > r.Shop[i].Cost {
				return r.Buy(i)
			}
		}
		return r.Leave()

	case game.PhaseRest:
		return r.Rest()

	case game.PhaseEvent:
		for i, opt := range r.Event.Options {
			if opt.RequiredGlyph == "" || r.HasGlyph(opt.RequiredGlyph) {
				return r.ChooseEvent(ctx, i)
			}
		}
		return r.Leave()
	}
	return nil
}

// ComboLookup reports whether a chain key is a known, non-backfiring combo.
type ComboLookup func(key string) bool

// chain prefers a two-glyph combo, then a defensive glyph when low, then the
// strongest attack.
func (b *Bot) chain(p models.PlayerState, combos ComboLookup) []string {
	inv := p.Inventory
	if combos != nil {
		for i := range inv {
			for j := range inv {
				if i != j && combos(inv[i].Text+inv[j].Text) {
					return []string{inv[i].ID, inv[j].ID}
				}
			}
		}
	}
	want := models.CategoryAttack
	if p.Resource*10 < p.MaxResource*3 {
		want = models.CategoryDefense
	}
	best := -1
	for i, w := range inv {
		if w.Category == want && (best < 0 || w.Power > inv[best].Power) {
			best = i
		}
	}
	if best < 0 {
		best = b.rng.Intn(len(inv))
	}
	return []string{inv[best].ID}
}

func strongest(ws []models.WordToken) int {
	if len(ws) == 0 {
		return -1
	}
	i := 0
	for j, w := range ws {
		if w.Power > ws[i].Power {
			i = j
		}
	}
	return i
}

func weakest(ws []models.WordToken) int {
	i := 0
	for j, w := range ws {
		if w.Power < ws[i].Power {
			i = j
		}
	}
	return i
}

func cheapest(ws []models.WordToken) int {
	i := 0
	for j, w := range ws {
		if w.Cost < ws[i].Cost {
			i = j
		}
	}
	return i
}

// Play runs one game to the end or until maxSteps actions.
func Play(ctx context.Context, deps game.Deps, opts game.Options, identity string, seed int64, maxSteps int) (Summary, error) {
	r, err := game.NewRun(deps, opts, identity, seed)
	if err != nil {
		return Summary{}, err
	}
	lookup := func(key string) bool {
		cb, ok := deps.Resolver.Combos().Lookup(key)
		return ok && !cb.Backfire
	}
	bot := NewBot(seed)

	sum := Summary{Seed: seed}
	for sum.Steps < maxSteps && !r.Over() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := bot.Step(ctx, r, lookup); err != nil {
			return sum, fmt.Errorf("seed %d step %d (%s): %w", seed, sum.Steps, r.Phase, err)
		}
		sum.Steps++
	}
	sum.Victory = r.Phase == game.PhaseVictory
	sum.Region = r.Player.Region
	sum.Nodes = r.Player.NodesCleared
	sum.Combos = len(r.Player.DiscoveredCombos)
	sum.Resource = r.Player.Resource
	return sum, nil
}

// DepsFunc builds independent dependencies for one seed. Runs in a batch
// never share a random source.
type DepsFunc func(seed int64) (game.Deps, error)

// Batch plays one run per seed on up to workers goroutines.
func Batch(ctx context.Context, newDeps DepsFunc, opts game.Options, identity string, seeds []int64, workers, maxSteps int, bar *progressbar.ProgressBar) ([]Summary, error) {
	out := make([]Summary, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, seed := range seeds {
		g.Go(func() error {
			deps, err := newDeps(seed)
			if err != nil {
				return err
			}
			s, err := Play(gctx, deps, opts, identity, seed, maxSteps)
			if err != nil {
				return err
			}
			out[i] = s
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats aggregates a batch.
type Stats struct {
	Runs      int
	Victories int
	ByRegion  map[models.Region]int
	AvgNodes  float64
}

func Aggregate(sums []Summary) Stats {
	st := Stats{Runs: len(sums), ByRegion: map[models.Region]int{}}
	nodes := 0
	for _, s := range sums {
		if s.Victory {
			st.Victories++
		}
		st.ByRegion[s.Region]++
		nodes += s.Nodes
	}
	if len(sums) > 0 {
		st.AvgNodes = float64(nodes) / float64(len(sums))
	}
	return st
}

// Regions returns the regions present in st in progression order.
func (st Stats) Regions() []models.Region {
	var out []models.Region
	for _, r := range models.Regions {
		if st.ByRegion[r] > 0 {
			out = append(out, r)
		}
	}
	return out
}
