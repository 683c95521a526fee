// Package game hosts a run: it moves the player across the map, hands
// encounters to the combat core and applies rewards, shops, rests and events
// between fights.
package game

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/tatianab/truth-eroder/internal/combat"
	"github.com/tatianab/truth-eroder/internal/data"
	"github.com/tatianab/truth-eroder/internal/engine"
	"github.com/tatianab/truth-eroder/internal/logger"
	"github.com/tatianab/truth-eroder/internal/mapgen"
	"github.com/tatianab/truth-eroder/internal/models"
)

// Phase is what the run is waiting for.
type Phase string

const (
	PhaseMap      Phase = "MAP"
	PhaseCombat   Phase = "COMBAT"
	PhaseReward   Phase = "REWARD"
	PhaseDiscard  Phase = "DISCARD"
	PhaseShop     Phase = "SHOP"
	PhaseRest     Phase = "REST"
	PhaseEvent    Phase = "EVENT"
	PhaseVictory  Phase = "VICTORY"
	PhaseGameOver Phase = "GAME_OVER"
)

var (
	ErrMissingTemplate = errors.New("missing enemy template")
	ErrUnknownIdentity = errors.New("unknown identity")
	ErrWrongPhase      = errors.New("action not available in this phase")
	ErrInvalidMove     = errors.New("cell cannot be revealed from here")
	ErrInvalidChoice   = errors.New("no such choice")
	ErrCannotAfford    = errors.New("not enough resource")
	ErrMissingGlyph    = errors.New("required glyph not in inventory")
	ErrNotStranded     = errors.New("reachable cells remain")
)

// FlavorSource supplies opaque encounter text.
type FlavorSource interface {
	Flavor(ctx context.Context, req engine.FlavorRequest) (engine.Flavor, error)
}

// Rand is the run's random source.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Options are the run-level rules.
type Options struct {
	Map          mapgen.Config
	Start        models.Coord
	InventoryCap int
	ShopSize     int
	ShopBaseCost int
	ShopCostSpan int
	RestFraction float64
	RestSanity   int
}

// DefaultOptions starts in the middle of a 7x7 map.
func DefaultOptions() Options {
	return Options{
		Map:          mapgen.DefaultConfig(),
		Start:        models.Coord{X: 3, Y: 3},
		InventoryCap: 8,
		ShopSize:     4,
		ShopBaseCost: 15,
		ShopCostSpan: 15,
		RestFraction: 0.3,
		RestSanity:   20,
	}
}

// Deps are the collaborators a run needs.
type Deps struct {
	Catalog  *data.Catalog
	Resolver *combat.Resolver
	Flavor   FlavorSource
	Rand     Rand
}

// NewDeps builds a resolver over the catalog's combos with the default item
// behaviour.
func NewDeps(catalog *data.Catalog, flavor FlavorSource, rng Rand) (Deps, error) {
	table, err := combat.NewComboTable(catalog.Combos, nil)
	if err != nil {
		return Deps{}, fmt.Errorf("combo table: %w", err)
	}
	var errs []error
	for _, it := range catalog.Items {
		if err := combat.ValidateOps(it.OnAcquire); err != nil {
			errs = append(errs, fmt.Errorf("item %q: %w", it.ID, err))
		}
	}
	for _, ev := range catalog.Events {
		for i, opt := range ev.Options {
			if err := combat.ValidateOps(opt.Ops); err != nil {
				errs = append(errs, fmt.Errorf("event %q option %d: %w", ev.ID, i, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Deps{}, err
	}
	return Deps{
		Catalog:  catalog,
		Resolver: combat.NewResolver(combat.DefaultRules(), table, combat.DefaultRegistry()),
		Flavor:   flavor,
		Rand:     rng,
	}, nil
}

// Run is one playthrough. It is not safe for concurrent use.
type Run struct {
	deps Deps
	opts Options

	Meta   models.RunMeta
	Player models.PlayerState
	Grid   models.Grid
	Phase  Phase

	Session   *combat.Session
	Narration string
	Log       []string
	Reward    []models.WordToken
	Shop      []models.WordToken
	Event     *models.Event

	bossFight   bool
	afterChoice Phase
	nextID      int
}

// NewRun starts a fresh run with the given identity.
func NewRun(deps Deps, opts Options, identityID string, seed int64) (*Run, error) {
	id, ok := deps.Catalog.Identity(identityID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentity, identityID)
	}
	p := models.PlayerState{
		Resource:    id.InitialResource,
		MaxResource: id.InitialResource,
		Sanity:      id.InitialSanity,
		MaxSanity:   id.InitialSanity,
		Inventory:   slices.Clone(id.StartingWords),
		Region:      models.RegionSenses,
		Day:         1,
		Pos:         opts.Start,
	}
	r := &Run{
		deps:   deps,
		opts:   opts,
		Meta:   models.RunMeta{Identity: id.ID, Seed: seed},
		Player: p,
		Phase:  PhaseMap,
	}
	if err := r.newMap(); err != nil {
		return nil, err
	}
	r.logf("你以【%s】的身份醒来。区域：%s", id.Name, p.Region)
	return r, nil
}

// Resume rebuilds a run from a snapshot taken on the map.
func Resume(deps Deps, opts Options, snap *models.RunSnapshot) (*Run, error) {
	if _, ok := deps.Catalog.Identity(snap.Meta.Identity); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentity, snap.Meta.Identity)
	}
	r := &Run{
		deps:   deps,
		opts:   opts,
		Meta:   snap.Meta,
		Player: snap.Player.Clone(),
		Grid:   snap.Grid.Clone(),
		Phase:  PhaseMap,
	}
	switch {
	case snap.Meta.Victory:
		r.Phase = PhaseVictory
	case snap.Meta.GameOver:
		r.Phase = PhaseGameOver
	}
	return r, nil
}

// Snapshot captures the run for saving.
func (r *Run) Snapshot() *models.RunSnapshot {
	return &models.RunSnapshot{Meta: r.Meta, Player: r.Player.Clone(), Grid: r.Grid.Clone()}
}

// Save writes the run under name. Only map-phase and terminal runs can be
// saved; combat and pending choices are not persisted.
func (r *Run) Save(name string) error {
	if r.Phase != PhaseMap && !r.Over() {
		return fmt.Errorf("save: %w: %s", ErrWrongPhase, r.Phase)
	}
	return r.Snapshot().Save(name)
}

// Over reports whether the run has ended.
func (r *Run) Over() bool { return r.Phase == PhaseVictory || r.Phase == PhaseGameOver }

// Movable lists the cells the player can reveal next.
func (r *Run) Movable() []models.Coord { return mapgen.Movable(r.Grid) }

func (r *Run) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

func (r *Run) expect(p Phase) error {
	if r.Phase != p {
		return fmt.Errorf("%w: want %s, in %s", ErrWrongPhase, p, r.Phase)
	}
	return nil
}

func (r *Run) newMap() error {
	g, err := mapgen.Create(r.opts.Map, r.opts.Start, r.deps.Rand)
	if err != nil {
		return fmt.Errorf("create map: %w", err)
	}
	r.Grid = g
	r.Player.Pos = g.Pos
	return nil
}

// Move reveals pos and reacts to whatever is there.
func (r *Run) Move(ctx context.Context, pos models.Coord) error {
	if err := r.expect(PhaseMap); err != nil {
		return err
	}
	g, trig := mapgen.Reveal(r.Grid, pos, r.opts.Map)
	if g.Explored == r.Grid.Explored {
		return fmt.Errorf("%w: %v", ErrInvalidMove, pos)
	}
	r.Grid = g
	r.Player.Pos = g.Pos
	r.Player.NodesCleared++

	logger.Log.WithFields(logrus.Fields{
		"pos":     pos,
		"trigger": trig.Kind,
		"content": trig.Content,
		"danger":  g.Danger,
	}).Debug("Cell revealed")

	switch trig.Kind {
	case mapgen.TriggerEncounter:
		r.logf("踩中了逻辑陷阱，观测对象浮现。")
		return r.startEncounter(ctx, false)
	case mapgen.TriggerBoss:
		r.logf("危险累积到了极限，区域领主注意到了你。")
		return r.startEncounter(ctx, true)
	case mapgen.TriggerContent:
		if err := r.enterContent(trig.Content); err != nil {
			return err
		}
	}
	if r.Stranded() {
		return r.Confront(ctx)
	}
	return nil
}

// Stranded reports whether the run is on the map with no cell left to reveal.
func (r *Run) Stranded() bool {
	return r.Phase == PhaseMap && len(r.Movable()) == 0
}

// Confront sends the region boss after a stranded player.
func (r *Run) Confront(ctx context.Context) error {
	if err := r.expect(PhaseMap); err != nil {
		return err
	}
	if !r.Stranded() {
		return ErrNotStranded
	}
	logger.Log.WithField("pos", r.Player.Pos).Info("No cells left to reveal, calling region boss")
	r.logf("四周已无路可走，区域领主循着你的足迹而来。")
	return r.startEncounter(ctx, true)
}

func (r *Run) enterContent(c models.Content) error {
	r.Grid = mapgen.ClearContent(r.Grid, r.Player.Pos)
	switch c {
	case models.ContentShop:
		r.Shop = r.stockShop()
		r.Phase = PhaseShop
		r.logf("真理黑市向你敞开。")
	case models.ContentRest:
		r.Phase = PhaseRest
		r.logf("你找到了一处逻辑篝火。")
	case models.ContentEvent:
		if len(r.deps.Catalog.Events) == 0 {
			return nil
		}
		ev := r.deps.Catalog.Events[r.deps.Rand.Intn(len(r.deps.Catalog.Events))]
		r.Event = &ev
		r.Phase = PhaseEvent
		r.logf("%s %s", ev.Title, ev.Description)
	case models.ContentTreasure:
		r.grantRandomItem()
	case models.ContentRoller:
		r.Grid = mapgen.Reroll(r.Grid, r.opts.Map, r.deps.Rand)
		r.logf("【逻辑重塑】：未知区域的内容被重新书写。")
	}
	return nil
}

func (r *Run) grantRandomItem() {
	var pool []models.Item
	for _, it := range r.deps.Catalog.Items {
		if !r.Player.HasItem(it.ID) {
			pool = append(pool, it)
		}
	}
	if len(pool) == 0 {
		r.logf("宝箱里空无一物。")
		return
	}
	it := pool[r.deps.Rand.Intn(len(pool))]
	r.logf("获得遗物【%s】：%s", it.Name, it.Description)
	r.acquire(it)
}

// acquire adds it to the player's items and applies its acquisition ops.
func (r *Run) acquire(it models.Item) {
	r.Player.Items = append(slices.Clone(r.Player.Items), it)
	if len(it.OnAcquire) == 0 {
		return
	}
	var notes []string
	r.Player, notes = r.deps.Resolver.ApplyPlayerOps(r.Player, it.OnAcquire, r.deps.Rand)
	r.Log = append(r.Log, notes...)
	logger.Log.WithFields(logrus.Fields{
		"item": it.ID,
		"ops":  len(it.OnAcquire),
	}).Debug("Item acquired")
}

func (r *Run) template(boss bool) (models.EnemyTemplate, error) {
	region := r.Player.Region
	if boss {
		tmpl, ok := r.deps.Catalog.Bosses[region]
		if !ok {
			return models.EnemyTemplate{}, fmt.Errorf("%w: no boss for region %s", ErrMissingTemplate, region)
		}
		tmpl.IsBoss = true
		return tmpl, nil
	}
	pool := r.deps.Catalog.Enemies[region]
	if len(pool) == 0 {
		return models.EnemyTemplate{}, fmt.Errorf("%w: no enemies for region %s", ErrMissingTemplate, region)
	}
	return pool[r.deps.Rand.Intn(len(pool))], nil
}

func (r *Run) startEncounter(ctx context.Context, boss bool) error {
	tmpl, err := r.template(boss)
	if err != nil {
		return err
	}

	flavor := engine.Flavor{Enemy: tmpl.Description}
	if r.deps.Flavor != nil {
		f, err := r.deps.Flavor.Flavor(ctx, engine.FlavorRequest{
			Region:      r.Player.Region,
			EnemyName:   tmpl.Name,
			Description: tmpl.Description,
			IsBoss:      tmpl.IsBoss,
			Sanity:      r.Player.Sanity,
			Resource:    r.Player.Resource,
		})
		if err != nil {
			logger.Log.WithError(err).Warn("Flavor unavailable, using template text")
		} else {
			flavor = f
		}
	}

	deps := combat.Deps{Resolver: r.deps.Resolver, Rand: r.deps.Rand, Pool: r.deps.Catalog.Words}
	s, logs, err := combat.StartCombat(ctx, deps, r.Player, tmpl, r.Player.NodesCleared, flavor.Enemy)
	if err != nil {
		return fmt.Errorf("start combat: %w", err)
	}
	r.Session = s
	r.Player = s.Player()
	r.Narration = flavor.Narration
	r.bossFight = tmpl.IsBoss
	r.Phase = PhaseCombat
	r.Log = append(r.Log, logs...)
	return nil
}

// Submit plays a chain in the current encounter.
func (r *Run) Submit(ctx context.Context, ids []string) (combat.Result, error) {
	if err := r.expect(PhaseCombat); err != nil {
		return combat.Result{}, err
	}
	res, err := r.Session.Submit(ctx, ids)
	if err != nil {
		return res, err
	}
	r.Player = res.Player
	r.Log = append(r.Log, res.Logs...)

	switch res.Outcome {
	case combat.OutcomeWon:
		r.Session = nil
		if r.bossFight {
			if next, ok := r.Player.Region.Next(); ok {
				r.Player.Region = next
				r.Player.Day++
				if err := r.newMap(); err != nil {
					return res, err
				}
				r.logf("领主崩解。你跨入了新的区域：%s", next)
			} else {
				r.Meta.Victory = true
				r.Phase = PhaseVictory
				r.logf("最初的定义被你改写。余晖褪尽，你找回了真实。")
				return res, nil
			}
		}
		r.Reward = res.Reward
		r.Phase = PhaseReward
	case combat.OutcomeLost:
		r.Session = nil
		r.Meta.GameOver = true
		r.Phase = PhaseGameOver
	}
	return res, nil
}

// ChooseReward adds the chosen draft token; a negative index skips.
func (r *Run) ChooseReward(i int) error {
	if err := r.expect(PhaseReward); err != nil {
		return err
	}
	if i >= len(r.Reward) {
		return fmt.Errorf("%w: reward %d", ErrInvalidChoice, i)
	}
	if i >= 0 {
		r.addToken(r.Reward[i], PhaseMap)
	} else {
		r.Phase = PhaseMap
	}
	r.Reward = nil
	return nil
}

// addToken appends tok with a fresh inventory id, then moves to next or to
// the discard phase when over capacity.
func (r *Run) addToken(tok models.WordToken, next Phase) {
	tok.ID = r.freshID()
	tok.Cost = 0
	r.Player.Inventory = append(slices.Clone(r.Player.Inventory), tok)
	r.logf("获得字符 [%s]。", tok.Text)
	if len(r.Player.Inventory) > r.opts.InventoryCap {
		r.afterChoice = next
		r.Phase = PhaseDiscard
		return
	}
	r.Phase = next
}

func (r *Run) freshID() string {
	for {
		r.nextID++
		id := fmt.Sprintf("inv_%d", r.nextID)
		if _, taken := r.Player.TokenByID(id); !taken {
			return id
		}
	}
}

// Discard drops an inventory token while over capacity.
func (r *Run) Discard(i int) error {
	if err := r.expect(PhaseDiscard); err != nil {
		return err
	}
	if i < 0 || i >= len(r.Player.Inventory) {
		return fmt.Errorf("%w: token %d", ErrInvalidChoice, i)
	}
	r.logf("丢弃字符 [%s]。", r.Player.Inventory[i].Text)
	r.Player.Inventory = slices.Delete(slices.Clone(r.Player.Inventory), i, i+1)
	if len(r.Player.Inventory) <= r.opts.InventoryCap {
		r.Phase = r.afterChoice
	}
	return nil
}

func (r *Run) stockShop() []models.WordToken {
	offers := pick(r.deps.Rand, r.deps.Catalog.Words, r.opts.ShopSize)
	for i := range offers {
		offers[i].Cost = r.opts.ShopBaseCost + r.deps.Rand.Intn(max(r.opts.ShopCostSpan, 1))
	}
	return offers
}

// Buy pays for a shop offer with resource.
func (r *Run) Buy(i int) error {
	if err := r.expect(PhaseShop); err != nil {
		return err
	}
	if i < 0 || i >= len(r.Shop) {
		return fmt.Errorf("%w: offer %d", ErrInvalidChoice, i)
	}
	offer := r.Shop[i]
	if r.Player.Resource <= offer.Cost {
		return fmt.Errorf("%w: %d needed, %d held", ErrCannotAfford, offer.Cost, r.Player.Resource)
	}
	r.Player.Resource -= offer.Cost
	r.Shop = slices.Delete(slices.Clone(r.Shop), i, i+1)
	r.addToken(offer, PhaseShop)
	return nil
}

// Rest restores part of resource and some sanity.
func (r *Run) Rest() error {
	if err := r.expect(PhaseRest); err != nil {
		return err
	}
	gain := int(float64(r.Player.MaxResource) * r.opts.RestFraction)
	r.Player.Resource += gain
	r.Player.Sanity += r.opts.RestSanity
	r.Player = r.Player.Clamp()
	r.logf("篝火边的短暂安宁：意志+%d，理智+%d。", gain, r.opts.RestSanity)
	r.Phase = PhaseMap
	return nil
}

// Leave closes a shop, rest site or event without acting.
func (r *Run) Leave() error {
	switch r.Phase {
	case PhaseShop, PhaseRest, PhaseEvent:
		r.Shop, r.Event = nil, nil
		r.Phase = PhaseMap
		return nil
	}
	return fmt.Errorf("leave: %w: %s", ErrWrongPhase, r.Phase)
}

// HasGlyph reports whether any inventory token carries text.
func (r *Run) HasGlyph(text string) bool {
	return slices.ContainsFunc(r.Player.Inventory, func(w models.WordToken) bool { return w.Text == text })
}

// ChooseEvent resolves an event option.
func (r *Run) ChooseEvent(ctx context.Context, i int) error {
	if err := r.expect(PhaseEvent); err != nil {
		return err
	}
	if i < 0 || i >= len(r.Event.Options) {
		return fmt.Errorf("%w: option %d", ErrInvalidChoice, i)
	}
	opt := r.Event.Options[i]
	if opt.RequiredGlyph != "" && !r.HasGlyph(opt.RequiredGlyph) {
		return fmt.Errorf("%w: [%s]", ErrMissingGlyph, opt.RequiredGlyph)
	}

	r.Event = nil
	r.Phase = PhaseMap
	if opt.Log != "" {
		r.logf("%s", opt.Log)
	}
	if len(opt.Ops) > 0 {
		var notes []string
		r.Player, notes = r.deps.Resolver.ApplyPlayerOps(r.Player, opt.Ops, r.deps.Rand)
		r.Log = append(r.Log, notes...)
	}
	if opt.GrantItem != "" {
		if it, ok := r.deps.Catalog.Item(opt.GrantItem); ok && !r.Player.HasItem(it.ID) {
			r.logf("获得遗物【%s】。", it.Name)
			r.acquire(it)
		}
	}
	if r.Player.Resource <= 0 {
		r.Meta.GameOver = true
		r.Phase = PhaseGameOver
		r.logf("意志耗尽。你的定义被彻底抹除。")
		return nil
	}
	if opt.GrantGlyph != "" {
		if w, ok := r.deps.Catalog.Word(opt.GrantGlyph); ok {
			r.addToken(w, PhaseMap)
		}
	}
	if opt.StartCombat && r.Phase == PhaseMap {
		return r.startEncounter(ctx, false)
	}
	if r.Stranded() {
		return r.Confront(ctx)
	}
	return nil
}

// pick draws n distinct elements with a partial Fisher-Yates shuffle.
func pick[T any](rng Rand, xs []T, n int) []T {
	out := slices.Clone(xs)
	n = min(n, len(out))
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(out)-i)
		out[i], out[j] = out[j], out[i]
	}
	return out[:n]
}
