package combat

import (
	"errors"
	"fmt"

	"github.com/tatianab/truth-eroder/internal/models"
)

// ComboTable indexes combos by their concatenated pattern.
type ComboTable struct {
	byKey map[string]models.Combo
	order []string
	conds *Conditions
}

// NewComboTable validates every op and compiles every guard up front, so a
// bad table fails at load time rather than mid-combat.
func NewComboTable(combos []models.Combo, conds *Conditions) (*ComboTable, error) {
	if conds == nil {
		var err error
		if conds, err = NewConditions(); err != nil {
			return nil, err
		}
	}
	t := &ComboTable{byKey: make(map[string]models.Combo, len(combos)), conds: conds}

	var errs []error
	for _, cb := range combos {
		key := cb.Key()
		if _, dup := t.byKey[key]; dup {
			errs = append(errs, fmt.Errorf("combo %q: duplicate pattern", key))
			continue
		}
		for i, op := range cb.Ops {
			if err := validateOp(op); err != nil {
				errs = append(errs, fmt.Errorf("combo %q op %d: %w", key, i, err))
			}
			if op.When != "" {
				if err := conds.Compile(op.When); err != nil {
					errs = append(errs, fmt.Errorf("combo %q op %d: %w", key, i, err))
				}
			}
		}
		t.byKey[key] = cb
		t.order = append(t.order, key)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup returns the combo whose pattern concatenates to key.
func (t *ComboTable) Lookup(key string) (models.Combo, bool) {
	cb, ok := t.byKey[key]
	return cb, ok
}

// Len is the number of combos in the table.
func (t *ComboTable) Len() int { return len(t.order) }

// All returns the combos in table order.
func (t *ComboTable) All() []models.Combo {
	out := make([]models.Combo, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.byKey[k])
	}
	return out
}

// Conditions is the guard cache shared with event ops.
func (t *ComboTable) Conditions() *Conditions { return t.conds }
