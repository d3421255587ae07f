package sss

import (
	"fmt"

	"nickandperla.net/sss/life"
)

// Oracle is the simulation service the engine drives. Only one pattern is
// active at a time.
type Oracle interface {
	SetRule(rule string) error
	Rule() string
	PlacePattern(cells []life.Cell)
	ClearActiveRegion()
	Step(n int)
	LiveCells() []life.Cell
	BoundingBox() (life.Rect, bool)
	Population() int
	StateCount() int
}

// lease places cells under rule on a cleared oracle and runs fn. The oracle
// is cleared and its previous rule restored on every exit path.
func lease(o Oracle, cells []life.Cell, rule string, fn func() error) (err error) {
	previous := o.Rule()
	o.ClearActiveRegion()
	defer func() {
		o.ClearActiveRegion()
		if rerr := o.SetRule(previous); rerr != nil && err == nil {
			err = fmt.Errorf("Failed to restore rule %s: %w", previous, rerr)
		}
	}()

	if err := o.SetRule(rule); err != nil {
		return err
	}
	if n := o.StateCount(); n != 2 {
		return fmt.Errorf("%w: rule %s has %d states", ErrInvalidRule, rule, n)
	}
	o.PlacePattern(cells)
	return fn()
}
