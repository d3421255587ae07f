package sss

import (
	"fmt"
	"sort"

	"nickandperla.net/sss/life"
)

// ShipAnalysis describes one period of a ship or oscillator.
type ShipAnalysis struct {
	MinPop int
	// Signed displacement per period.
	DX, DY int
	Period int
	// MaxArea is the widest width times the tallest height seen.
	MaxArea int
	// Phase is the canonical phase: minimum population, then minimum
	// bounding box area, then smallest encoding.
	Phase []life.Cell
	// Candidates are all phases tied on population and area.
	Candidates [][]life.Cell
}

func (a *ShipAnalysis) Speed() Speed {
	return NormalizeSpeed(a.DX, a.DY, a.Period)
}

// AnalyzeShip runs cells under rule until the start shape reappears,
// for at most maxGen generations. The oracle is cleared afterwards.
func AnalyzeShip(o Oracle, cells []life.Cell, rule string, maxGen int) (*ShipAnalysis, error) {
	if len(cells) == 0 {
		return nil, ErrEmptyPattern
	}
	var a *ShipAnalysis
	err := lease(o, cells, rule, func() error {
		startBox, _ := o.BoundingBox()
		startPop := o.Population()
		startRLE := EncodeRLE(o.LiveCells())
		minPop := startPop
		maxW, maxH := startBox.W, startBox.H

		for gen := 1; gen <= maxGen; gen++ {
			o.Step(1)
			box, ok := o.BoundingBox()
			if !ok {
				return fmt.Errorf("%w: pattern died at generation %d", ErrNotPeriodic, gen)
			}
			pop := o.Population()
			minPop = min(minPop, pop)
			maxW, maxH = max(maxW, box.W), max(maxH, box.H)

			if pop != startPop {
				continue
			}
			switch {
			case box.W == startBox.W && box.H == startBox.H:
				if EncodeRLE(o.LiveCells()) != startRLE {
					continue
				}
				a = &ShipAnalysis{DX: box.X - startBox.X, DY: box.Y - startBox.Y, Period: gen}
			case box.W == startBox.H && box.H == startBox.W && minPop == 2:
				a = &ShipAnalysis{Period: 2 * gen}
			default:
				continue
			}
			a.MaxArea = maxW * maxH
			a.Candidates = canonicalPhases(o, a.Period)
			a.Phase = a.Candidates[0]
			a.MinPop = len(a.Phase)
			return nil
		}
		return fmt.Errorf("%w: no period within %d generations", ErrSimulationDivergence, maxGen)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// canonicalPhases walks one period from the current generation and returns
// the phases with minimum population and minimum bounding box area, smallest
// encoding first.
func canonicalPhases(o Oracle, period int) [][]life.Cell {
	type phase struct {
		cells []life.Cell
		area  int
		rle   string
	}
	var best []phase
	for i := 0; i < period; i++ {
		if i > 0 {
			o.Step(1)
		}
		cells := o.LiveCells()
		box, _ := o.BoundingBox()
		p := phase{cells: cells, area: box.Area(), rle: EncodeRLE(cells)}
		switch {
		case len(best) == 0 || len(cells) < len(best[0].cells) ||
			(len(cells) == len(best[0].cells) && p.area < best[0].area):
			best = []phase{p}
		case len(cells) == len(best[0].cells) && p.area == best[0].area:
			best = append(best, p)
		}
	}
	sort.SliceStable(best, func(i, j int) bool { return best[i].rle < best[j].rle })
	out := make([][]life.Cell, len(best))
	for i := range best {
		out[i] = best[i].cells
	}
	return out
}
