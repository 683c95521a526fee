package combat

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"

	"github.com/tatianab/truth-eroder/internal/logger"
	"github.com/tatianab/truth-eroder/internal/models"
)

// Orchestrator states.
const (
	StateAwaitingInput      = "AWAITING_INPUT"
	StatePlayerResolution   = "PLAYER_RESOLUTION"
	StateWinCheck           = "WIN_CHECK"
	StateEnemyResolution    = "ENEMY_RESOLUTION"
	StateStatusTick         = "STATUS_TICK"
	StateDeathCheck         = "DEATH_CHECK"
	StateStartTurnTick      = "START_TURN_TICK"
	StateIntentRegeneration = "INTENT_REGENERATION"
	StateCombatWon          = "COMBAT_WON"
	StateGameOver           = "GAME_OVER"
)

const (
	evSubmit      = "submit"
	evResolved    = "resolved"
	evWon         = "won"
	evEnemyTurn   = "enemy_turn"
	evSkipEnemy   = "skip_enemy"
	evEnemyDone   = "enemy_done"
	evTicked      = "ticked"
	evSurvived    = "survived"
	evDied        = "died"
	evTurnStarted = "turn_started"
	evIntentReady = "intent_ready"
)

// Outcome is how a submission left the encounter.
type Outcome string

const (
	OutcomeOngoing Outcome = "ONGOING"
	OutcomeWon     Outcome = "COMBAT_WON"
	OutcomeLost    Outcome = "GAME_OVER"
)

var (
	ErrBusy           = errors.New("a chain is already being resolved")
	ErrSessionOver    = errors.New("combat has already ended")
	ErrEmptyChain     = errors.New("chain is empty")
	ErrChainTooLong   = errors.New("chain is too long")
	ErrDuplicateToken = errors.New("token used twice in one chain")
	ErrUnknownToken   = errors.New("token not in inventory")
)

// Deps are the collaborators a session resolves against.
type Deps struct {
	Resolver *Resolver
	Rand     Rand
	// Pool is the full token pool reward drafts are drawn from.
	Pool []models.WordToken
}

// Result is the outcome of one submitted chain.
type Result struct {
	Player  models.PlayerState
	Enemy   models.Enemy
	Logs    []string
	Outcome Outcome
	Combo   *ComboInfo
	Reward  []models.WordToken
}

// turn is the value folded through the state machine for one submission.
type turn struct {
	Pair
	chain []models.WordToken
	logs  []string
	combo *ComboInfo
}

type step func(t turn) (turn, string)

// Session runs one encounter between a player and an enemy.
type Session struct {
	deps    Deps
	rules   Rules
	machine *fsm.FSM
	steps   map[string]step
	busy    atomic.Bool

	state  Pair
	turns  int
	reward []models.WordToken
}

// StartCombat instantiates tmpl for the given progress and starts a session.
func StartCombat(ctx context.Context, deps Deps, player models.PlayerState, tmpl models.EnemyTemplate, progress int, flavor string) (*Session, []string, error) {
	return NewSession(ctx, deps, player, Spawn(tmpl, progress, flavor))
}

// Spawn builds an Enemy from a template. Regular enemies grow 10% stronger
// per cleared node; bosses are fixed.
func Spawn(tmpl models.EnemyTemplate, progress int, flavor string) models.Enemy {
	scale := 1.0
	if !tmpl.IsBoss {
		scale += 0.1 * float64(max(progress, 0))
	}
	hp := int(float64(tmpl.HP) * scale)
	return models.Enemy{
		Name:          tmpl.Name,
		Flavor:        flavor,
		HP:            hp,
		MaxHP:         hp,
		MaxCorrection: tmpl.MaxCorrection,
		Attack:        int(float64(tmpl.Attack) * scale),
		Distortion:    tmpl.Distortion,
		IsBoss:        tmpl.IsBoss,
	}.Clamp()
}

// NewSession starts combat: clears combat-scoped statuses, fires
// ON_COMBAT_START hooks and rolls the first intent.
func NewSession(_ context.Context, deps Deps, player models.PlayerState, enemy models.Enemy) (*Session, []string, error) {
	if deps.Resolver == nil {
		return nil, nil, errors.New("session needs a resolver")
	}
	if deps.Rand == nil {
		return nil, nil, errors.New("session needs a random source")
	}
	s := &Session{deps: deps, rules: deps.Resolver.Rules()}

	p := player.Clone()
	p.Statuses = p.Statuses.Without(models.CombatScoped...)
	p.Shield = 0
	p.Burn = 0
	pair := Pair{Player: p.Clamp(), Enemy: enemy.Clone().Clamp()}

	logs := []string{fmt.Sprintf("博弈开始。观测对象：%s", pair.Enemy.Name)}
	var hookLogs []string
	pair, hookLogs = deps.Resolver.Registry().Fire(OnCombatStart, HookInput{Rules: s.rules, Rand: deps.Rand}, pair)
	logs = append(logs, hookLogs...)
	pair.Enemy.Intent = GenerateIntent(pair.Enemy, s.rules, deps.Rand)
	s.state = pair

	s.machine = fsm.NewFSM(StateAwaitingInput, fsm.Events{
		{Name: evSubmit, Src: []string{StateAwaitingInput}, Dst: StatePlayerResolution},
		{Name: evResolved, Src: []string{StatePlayerResolution}, Dst: StateWinCheck},
		{Name: evWon, Src: []string{StateWinCheck, StateStatusTick}, Dst: StateCombatWon},
		{Name: evEnemyTurn, Src: []string{StateWinCheck}, Dst: StateEnemyResolution},
		{Name: evSkipEnemy, Src: []string{StateWinCheck}, Dst: StateStatusTick},
		{Name: evEnemyDone, Src: []string{StateEnemyResolution}, Dst: StateStatusTick},
		{Name: evTicked, Src: []string{StateStatusTick}, Dst: StateDeathCheck},
		{Name: evSurvived, Src: []string{StateDeathCheck}, Dst: StateStartTurnTick},
		{Name: evDied, Src: []string{StateDeathCheck}, Dst: StateGameOver},
		{Name: evTurnStarted, Src: []string{StateStartTurnTick}, Dst: StateIntentRegeneration},
		{Name: evIntentReady, Src: []string{StateIntentRegeneration}, Dst: StateAwaitingInput},
	}, fsm.Callbacks{})

	s.steps = map[string]step{
		StatePlayerResolution:   s.resolvePlayer,
		StateWinCheck:           s.checkWin,
		StateEnemyResolution:    s.resolveEnemy,
		StateStatusTick:         s.tick,
		StateDeathCheck:         s.checkDeath,
		StateStartTurnTick:      s.startTurn,
		StateIntentRegeneration: s.regenerateIntent,
	}

	logger.Log.WithFields(logrus.Fields{
		"enemy":  pair.Enemy.Name,
		"boss":   pair.Enemy.IsBoss,
		"intent": pair.Enemy.Intent.Kind,
	}).Debug("Combat started")
	return s, logs, nil
}

// Player returns a copy of the current player state.
func (s *Session) Player() models.PlayerState { return s.state.Player.Clone() }

// Enemy returns a copy of the current enemy.
func (s *Session) Enemy() models.Enemy { return s.state.Enemy.Clone() }

// State is the orchestrator's current state.
func (s *Session) State() string { return s.machine.Current() }

// Turns counts resolved submissions.
func (s *Session) Turns() int { return s.turns }

// Over reports whether the session reached a terminal state.
func (s *Session) Over() bool {
	cur := s.machine.Current()
	return cur == StateCombatWon || cur == StateGameOver
}

// Reward is the draft emitted on victory, empty otherwise.
func (s *Session) Reward() []models.WordToken { return s.reward }

// Submit resolves one chain of inventory tokens, identified by id, through a
// full turn. A chain that passes validation always runs to AWAITING_INPUT,
// COMBAT_WON or GAME_OVER.
func (s *Session) Submit(ctx context.Context, ids []string) (Result, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer s.busy.Store(false)

	if s.Over() {
		return Result{}, ErrSessionOver
	}
	chain, err := s.validate(ids)
	if err != nil {
		return Result{}, err
	}

	// Cancellation must not strand the machine between states.
	ctx = context.WithoutCancel(ctx)
	if err := s.machine.Event(ctx, evSubmit); err != nil {
		return Result{}, fmt.Errorf("submit: %w", err)
	}

	t := turn{Pair: s.state.Clone(), chain: chain}
	for {
		cur := s.machine.Current()
		if cur == StateAwaitingInput || cur == StateCombatWon || cur == StateGameOver {
			break
		}
		next, ev := s.steps[cur](t)
		if err := s.machine.Event(ctx, ev); err != nil {
			return Result{}, fmt.Errorf("%s -> %s: %w", cur, ev, err)
		}
		t = next
	}

	s.state = t.Pair
	s.turns++
	res := Result{
		Player:  t.Player.Clone(),
		Enemy:   t.Enemy.Clone(),
		Logs:    t.logs,
		Outcome: OutcomeOngoing,
		Combo:   t.combo,
	}
	switch s.machine.Current() {
	case StateCombatWon:
		s.reward = s.draft()
		res.Outcome, res.Reward = OutcomeWon, s.reward
	case StateGameOver:
		res.Outcome = OutcomeLost
	}

	logger.Log.WithFields(logrus.Fields{
		"turn":   s.turns,
		"chain":  models.ChainKey(chain),
		"state":  s.machine.Current(),
		"hp":     t.Enemy.HP,
		"fix":    t.Enemy.Correction,
		"will":   t.Player.Resource,
		"sanity": t.Player.Sanity,
	}).Debug("Turn resolved")
	return res, nil
}

func (s *Session) validate(ids []string) ([]models.WordToken, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyChain
	}
	if len(ids) > s.rules.MaxChain {
		return nil, fmt.Errorf("%w: %d > %d", ErrChainTooLong, len(ids), s.rules.MaxChain)
	}
	seen := mapset.New[string]()
	chain := make([]models.WordToken, 0, len(ids))
	for _, id := range ids {
		if seen.Has(id) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateToken, id)
		}
		seen.Put(id)
		tok, ok := s.state.Player.TokenByID(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownToken, id)
		}
		chain = append(chain, tok)
	}
	return chain, nil
}

func (s *Session) resolvePlayer(t turn) (turn, string) {
	res := s.deps.Resolver.Resolve(t.chain, t.Pair, s.deps.Rand)
	t.Pair = res.Pair
	t.logs = append(t.logs, res.Logs...)
	t.combo = res.Combo
	return t, evResolved
}

func (s *Session) checkWin(t turn) (turn, string) {
	if t.Enemy.Defeated() {
		t.logs = append(t.logs, victoryLine(t.Enemy))
		return t, evWon
	}
	if t.Enemy.Statuses.Has(models.StatusStunned) {
		t.Enemy.Statuses = t.Enemy.Statuses.With(models.StatusStunned, -1)
		t.logs = append(t.logs, fmt.Sprintf("%s 被定住了，无法行动。", t.Enemy.Name))
		return t, evSkipEnemy
	}
	return t, evEnemyTurn
}

func (s *Session) resolveEnemy(t turn) (turn, string) {
	var logs []string
	t.Pair, logs = EnemyAct(t.Pair, s.rules, s.deps.Resolver.Registry(), s.deps.Rand)
	t.logs = append(t.logs, logs...)
	return t, evEnemyDone
}

func (s *Session) tick(t turn) (turn, string) {
	var logs []string
	t.Pair, logs = StatusTick(t.Pair, s.rules, s.deps.Resolver.Registry(), s.deps.Rand)
	t.logs = append(t.logs, logs...)
	if t.Enemy.Defeated() {
		t.logs = append(t.logs, victoryLine(t.Enemy))
		return t, evWon
	}
	return t, evTicked
}

func (s *Session) checkDeath(t turn) (turn, string) {
	if t.Player.Resource > 0 {
		return t, evSurvived
	}
	pair, line, ok := s.deps.Resolver.Registry().PreventDeath(t.Pair, s.rules)
	if !ok {
		t.logs = append(t.logs, "意志耗尽。你的定义被彻底抹除。")
		return t, evDied
	}
	t.Pair = pair
	t.logs = append(t.logs, line)
	return t, evSurvived
}

func (s *Session) startTurn(t turn) (turn, string) {
	var logs []string
	t.Pair, logs = StartTurn(t.Pair, s.rules, s.deps.Resolver.Registry(), s.deps.Rand)
	t.logs = append(t.logs, logs...)
	return t, evTurnStarted
}

func (s *Session) regenerateIntent(t turn) (turn, string) {
	t.Enemy.Intent = GenerateIntent(t.Enemy, s.rules, s.deps.Rand)
	return t, evIntentReady
}

func victoryLine(e models.Enemy) string {
	if e.HP <= 0 {
		return fmt.Sprintf("%s 的稳定性归零，崩解了。", e.Name)
	}
	return fmt.Sprintf("%s 被彻底修正，回归了定义。", e.Name)
}

// draft picks distinct pool entries with a partial Fisher-Yates shuffle.
func (s *Session) draft() []models.WordToken {
	pool := append([]models.WordToken(nil), s.deps.Pool...)
	n := min(s.rules.RewardDraft, len(pool))
	for i := 0; i < n; i++ {
		j := i + s.deps.Rand.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
