package sss

import (
	"fmt"
	"strings"

	"nickandperla.net/sss/hensel"
	"nickandperla.net/sss/life"
)

// RenderCells draws cells inside their bounding box, one text row per
// lattice row, 'o' for live and '.' for dead cells.
func RenderCells(cells []life.Cell) string {
	box, ok := life.BoundingBox(cells)
	if !ok {
		return ""
	}
	grid := make([][]byte, box.H)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(".", box.W))
	}
	for _, c := range cells {
		grid[c.Y-box.Y][c.X-box.X] = 'o'
	}
	var sb strings.Builder
	for _, row := range grid {
		sb.Write(row)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Viewer steps through the ships of a collection one at a time.
type Viewer struct {
	Ships    []*Ship
	Index    int
	Universe *life.Universe
}

func NewViewer(ships []*Ship) *Viewer {
	return &Viewer{Ships: ships, Universe: life.NewUniverse()}
}

// Load places ship i at generation 0.
func (v *Viewer) Load(i int) error {
	if i < 0 || i >= len(v.Ships) {
		return fmt.Errorf("No ship %d in a collection of %d", i+1, len(v.Ships))
	}
	ship := v.Ships[i]
	rule, err := hensel.ParseRule(ship.Rule)
	if err != nil {
		return err
	}
	cells, err := DecodeRLE(ship.RLE)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	v.Universe.ClearActiveRegion()
	if err := v.Universe.SetParsedRule(rule); err != nil {
		return err
	}
	v.Universe.PlacePattern(cells)
	v.Index = i
	return nil
}

func (v *Viewer) Next() error {
	return v.Load(min(v.Index+1, len(v.Ships)-1))
}

func (v *Viewer) Previous() error {
	return v.Load(max(v.Index-1, 0))
}

func (v *Viewer) Step(n int) {
	v.Universe.Step(n)
}

func (v *Viewer) Status() string {
	if len(v.Ships) == 0 {
		return "No ships"
	}
	s := v.Ships[v.Index]
	return fmt.Sprintf("Pattern %d of %d, speed is (%d, %d)/%d, generation %d, population %d",
		v.Index+1, len(v.Ships), s.DX, s.DY, s.Period, v.Universe.Generation(), v.Universe.Population())
}

func (v *Viewer) Frame() string {
	return RenderCells(v.Universe.LiveCells())
}
