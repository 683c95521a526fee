package combat

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/tatianab/truth-eroder/internal/models"
)

// Conditions compiles and caches the CEL guards attached to ops.
// Guards see two integer maps, player and enemy, keyed in snake_case.
type Conditions struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewConditions builds the CEL environment shared by every guard.
func NewConditions() (*Conditions, error) {
	env, err := cel.NewEnv(
		cel.Variable("player", cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable("enemy", cel.MapType(cel.StringType, cel.IntType)),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	return &Conditions{env: env, programs: map[string]cel.Program{}}, nil
}

// Compile checks expr and caches its program.
func (c *Conditions) Compile(expr string) error {
	_, err := c.program(expr)
	return err
}

func (c *Conditions) program(expr string) (cel.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prg, ok := c.programs[expr]; ok {
		return prg, nil
	}
	ast, iss := c.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, iss.Err())
	}
	prg, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	c.programs[expr] = prg
	return prg, nil
}

// Eval reports whether expr holds for the pair. An empty expr always holds.
func (c *Conditions) Eval(expr string, s Pair) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := c.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{
		"player": playerVars(s.Player),
		"enemy":  enemyVars(s.Enemy),
	})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", expr, err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("eval %q: result is %T, not bool", expr, out.Value())
	}
	return ok, nil
}

func playerVars(p models.PlayerState) map[string]int64 {
	return map[string]int64{
		"resource":     int64(p.Resource),
		"max_resource": int64(p.MaxResource),
		"sanity":       int64(p.Sanity),
		"max_sanity":   int64(p.MaxSanity),
		"shield":       int64(p.Shield),
		"burn":         int64(p.Burn),
	}
}

func enemyVars(e models.Enemy) map[string]int64 {
	return map[string]int64{
		"hp":             int64(e.HP),
		"max_hp":         int64(e.MaxHP),
		"correction":     int64(e.Correction),
		"max_correction": int64(e.MaxCorrection),
		"attack":         int64(e.Attack),
		"burn":           int64(e.Burn),
		"turn":           int64(e.TurnCount),
	}
}
