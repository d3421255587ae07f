// Package life is a sparse, unbounded two-state universe for isotropic rules.
package life

import (
	"errors"
	"fmt"
	"sort"

	"nickandperla.net/sss/hensel"
)

var ErrB0Rule error = errors.New("B0 rules are not supported")

const DefaultRule = "B3/S23"

type Cell struct {
	X, Y int
}

// Rect is a bounding box. W and H are at least 1 for a non-empty pattern.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Area() int {
	return r.W * r.H
}

// Universe holds one active pattern and the rule it evolves under.
type Universe struct {
	rule       hensel.Rule
	cells      map[Cell]struct{}
	generation uint
}

func NewUniverse() *Universe {
	rule, _ := hensel.ParseRule(DefaultRule)
	return &Universe{rule: rule, cells: make(map[Cell]struct{})}
}

func (u *Universe) SetRule(rule string) error {
	r, err := hensel.ParseRule(rule)
	if err != nil {
		return err
	}
	return u.SetParsedRule(r)
}

func (u *Universe) SetParsedRule(r hensel.Rule) error {
	if zero, _ := hensel.Lookup("0"); r.Birth.Has(zero) {
		return fmt.Errorf("Failed to set rule %s: %w", r, ErrB0Rule)
	}
	u.rule = r
	return nil
}

// Rule returns the active rule in canonical form.
func (u *Universe) Rule() string {
	return u.rule.String()
}

func (u *Universe) ParsedRule() hensel.Rule {
	return u.rule
}

// StateCount is always 2.
func (u *Universe) StateCount() int {
	return 2
}

// PlacePattern adds cells to the active pattern.
func (u *Universe) PlacePattern(cells []Cell) {
	for _, c := range cells {
		u.cells[c] = struct{}{}
	}
}

// ClearActiveRegion removes every live cell and resets the generation count.
func (u *Universe) ClearActiveRegion() {
	u.cells = make(map[Cell]struct{})
	u.generation = 0
}

func (u *Universe) Generation() uint {
	return u.generation
}

func (u *Universe) Population() int {
	return len(u.cells)
}

// Step advances n generations.
func (u *Universe) Step(n int) {
	zero, _ := hensel.Lookup("0")
	isolatedSurvive := u.rule.Survival.Has(zero)
	for i := 0; i < n; i++ {
		masks := make(map[Cell]uint8, len(u.cells)*4)
		for c := range u.cells {
			for b, o := range hensel.Offsets {
				nb := Cell{c.X + o[0], c.Y + o[1]}
				// c sits in the opposite direction as seen from nb
				masks[nb] |= 1 << (7 - b)
			}
		}
		next := make(map[Cell]struct{}, len(u.cells))
		for c, m := range masks {
			t := hensel.Classify(m)
			if _, alive := u.cells[c]; alive {
				if u.rule.Survival.Has(t) {
					next[c] = struct{}{}
				}
			} else if u.rule.Birth.Has(t) {
				next[c] = struct{}{}
			}
		}
		if isolatedSurvive {
			for c := range u.cells {
				if _, seen := masks[c]; !seen {
					next[c] = struct{}{}
				}
			}
		}
		u.cells = next
		u.generation++
	}
}

// LiveCells returns the live cells ordered by row and then column.
func (u *Universe) LiveCells() []Cell {
	out := make([]Cell, 0, len(u.cells))
	for c := range u.cells {
		out = append(out, c)
	}
	SortCells(out)
	return out
}

// BoundingBox returns false when the universe is empty.
func (u *Universe) BoundingBox() (Rect, bool) {
	var r rectBuilder
	for c := range u.cells {
		r.add(c)
	}
	return r.rect()
}

func SortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})
}

// BoundingBox returns false for an empty slice.
func BoundingBox(cells []Cell) (Rect, bool) {
	var r rectBuilder
	for _, c := range cells {
		r.add(c)
	}
	return r.rect()
}

type rectBuilder struct {
	seen                   bool
	minX, minY, maxX, maxY int
}

func (r *rectBuilder) add(c Cell) {
	if !r.seen {
		r.minX, r.maxX, r.minY, r.maxY = c.X, c.X, c.Y, c.Y
		r.seen = true
		return
	}
	r.minX, r.maxX = min(r.minX, c.X), max(r.maxX, c.X)
	r.minY, r.maxY = min(r.minY, c.Y), max(r.maxY, c.Y)
}

func (r *rectBuilder) rect() (Rect, bool) {
	if !r.seen {
		return Rect{}, false
	}
	return Rect{X: r.minX, Y: r.minY, W: r.maxX - r.minX + 1, H: r.maxY - r.minY + 1}, true
}

// Transform maps every cell through x' = a*x + b*y, y' = c*x + d*y.
func Transform(cells []Cell, a, b, c, d int) []Cell {
	out := make([]Cell, len(cells))
	for i, cell := range cells {
		out[i] = Cell{a*cell.X + b*cell.Y, c*cell.X + d*cell.Y}
	}
	return out
}
