package sss

import (
	"nickandperla.net/sss/life"
)

type ClassifierConfig struct {
	StabilizeGenerations int `toml:"stabilize_generations" yaml:"stabilize_generations"`
	StabCheckPeriod      int `toml:"stab_check_period" yaml:"stab_check_period"`
	MaxGenerations       int `toml:"max_generations" yaml:"max_generations"`
	// MinPopulation 0 picks 2 when oscillators are selected and 3 otherwise.
	MinPopulation int `toml:"min_population" yaml:"min_population"`
	MaxPopulation int `toml:"max_population" yaml:"max_population"`
	// 0 disables the expansion check.
	MaxDimension int `toml:"max_dimension" yaml:"max_dimension"`
}

type ClassState uint8

const (
	Stabilizing ClassState = iota
	Testing
	Classified
	Died
	Expanded
	Exhausted
	Rejected
)

func (s ClassState) String() string {
	switch s {
	case Stabilizing:
		return "stabilizing"
	case Testing:
		return "testing"
	case Classified:
		return "classified"
	case Died:
		return "died"
	case Expanded:
		return "expanded"
	case Exhausted:
		return "exhausted"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Terminal reports whether the classifier stops in state s.
func (s ClassState) Terminal() bool {
	return s >= Classified
}

type Classification struct {
	State  ClassState
	Speed  Speed
	Kind   Kind
	Reason SelectFailReason
	// Generations simulated after stabilization.
	Generations int
}

type Classifier struct {
	Config   *ClassifierConfig
	Selector *Selector
}

func NewClassifier(config *ClassifierConfig, selector *Selector) *Classifier {
	return &Classifier{Config: config, Selector: selector}
}

// MinPopulation is the smallest population a pattern may reach before it
// counts as dead.
func (c *Classifier) MinPopulation() int {
	if c.Config.MinPopulation > 0 {
		return c.Config.MinPopulation
	}
	if c.Selector != nil && c.Selector.Config != nil && c.Selector.Config.Oscillators {
		return 2
	}
	return 3
}

type snapshot struct {
	pop int
	box life.Rect
	rle string
}

func take(o Oracle) snapshot {
	box, _ := o.BoundingBox()
	return snapshot{pop: o.Population(), box: box, rle: EncodeRLE(o.LiveCells())}
}

// classifyRun carries the state of one classification.
type classifyRun struct {
	c      *Classifier
	o      Oracle
	state  ClassState
	ref    snapshot
	stab   snapshot
	minPop int
	gen    int
	result Classification
}

// Classify drives the pattern already placed in o until it reaches a
// terminal state. A Classified result leaves o on the generation where the
// reference shape reappeared.
func (c *Classifier) Classify(o Oracle) Classification {
	run := &classifyRun{c: c, o: o, state: Stabilizing}
	for !run.state.Terminal() {
		switch run.state {
		case Stabilizing:
			run.stabilize()
		case Testing:
			run.test()
		}
	}
	run.result.State = run.state
	run.result.Generations = run.gen
	return run.result
}

func (r *classifyRun) inBounds(pop int) bool {
	return pop > 0 && pop >= r.c.MinPopulation() && pop <= r.c.Config.MaxPopulation
}

func (r *classifyRun) stabilize() {
	if r.c.Config.StabilizeGenerations > 0 {
		r.o.Step(r.c.Config.StabilizeGenerations)
	}
	if !r.inBounds(r.o.Population()) {
		r.state = Died
		return
	}
	r.ref = take(r.o)
	r.stab = r.ref
	r.minPop = r.ref.pop
	r.state = Testing
}

// test advances one generation and applies the transition predicates.
func (r *classifyRun) test() {
	if r.gen >= r.c.Config.MaxGenerations {
		r.state = Exhausted
		return
	}
	r.o.Step(1)
	r.gen++

	pop := r.o.Population()
	if !r.inBounds(pop) {
		r.state = Died
		return
	}
	r.minPop = min(r.minPop, pop)

	if pop == r.ref.pop {
		box, _ := r.o.BoundingBox()
		switch {
		case box.W == r.ref.box.W && box.H == r.ref.box.H:
			if EncodeRLE(r.o.LiveCells()) == r.ref.rle {
				r.finish(NormalizeSpeed(box.X-r.ref.box.X, box.Y-r.ref.box.Y, r.gen))
				return
			}
		case box.W == r.ref.box.H && box.H == r.ref.box.W && r.minPop == 2:
			r.finish(Speed{Period: 2 * r.gen})
			return
		}
	}

	if check := r.c.Config.StabCheckPeriod; check > 0 && (r.gen-1)%check == 0 {
		cur := take(r.o)
		if limit := r.c.Config.MaxDimension; limit > 0 && (cur.box.W > limit || cur.box.H > limit) {
			r.state = Expanded
			return
		}
		if cur.pop == r.stab.pop && cur.rle == r.stab.rle {
			r.state = Rejected
			r.result.Reason = FailedStable
			return
		}
		r.stab = cur
	}
}

func (r *classifyRun) finish(sp Speed) {
	r.result.Speed = sp
	r.result.Kind = sp.Kind()
	if r.c.Selector != nil {
		r.result.Reason = r.c.Selector.Select(sp)
	}
	if r.result.Reason != 0 {
		r.state = Rejected
		return
	}
	r.state = Classified
}
