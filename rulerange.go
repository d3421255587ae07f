package sss

import (
	"nickandperla.net/sss/hensel"
	"nickandperla.net/sss/life"
)

type RangeMode uint8

const (
	RangeMin RangeMode = 1 << iota
	RangeMax
	RangeMinMax = RangeMin | RangeMax
)

// RuleRange bounds the rules under which a pattern evolves identically.
// Needed is always a subset of Allowed.
type RuleRange struct {
	Needed  hensel.Rule
	Allowed hensel.Rule
}

// Optional are the transitions that may be present or absent.
func (rr RuleRange) Optional() hensel.Rule {
	return rr.Allowed.Minus(rr.Needed)
}

func (rr RuleRange) String() string {
	return rr.Needed.String() + " - " + rr.Allowed.String()
}

type frame struct {
	box life.Rect
	rle string
}

// trajectory records every generation after the start, compared by position
// and encoding.
func trajectory(o Oracle, cells []life.Cell, rule hensel.Rule, generations int) ([]frame, error) {
	out := make([]frame, 0, generations)
	err := lease(o, cells, rule.String(), func() error {
		for i := 0; i < generations; i++ {
			o.Step(1)
			box, _ := o.BoundingBox()
			out = append(out, frame{box: box, rle: EncodeRLE(o.LiveCells())})
		}
		return nil
	})
	return out, err
}

func sameTrajectory(a, b []frame) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ComputeRuleRange tests every transition on its own against the baseline
// trajectory of cells under rule. The minimal pass drops each transition of
// rule that is not needed; the maximal pass adds each absent transition that
// changes nothing. Decisions made earlier in a pass stay fixed for the rest
// of that pass. B0 is never allowed.
func ComputeRuleRange(o Oracle, cells []life.Cell, rule hensel.Rule, generations int, mode RangeMode) (RuleRange, error) {
	base, err := trajectory(o, cells, rule, generations)
	if err != nil {
		return RuleRange{}, err
	}
	matches := func(r hensel.Rule) (bool, error) {
		got, err := trajectory(o, cells, r, generations)
		if err != nil {
			return false, err
		}
		return sameTrajectory(base, got), nil
	}

	rr := RuleRange{Needed: rule, Allowed: rule}
	if mode&RangeMin != 0 {
		for _, t := range rule.Birth.Transitions() {
			trial := rr.Needed
			trial.Birth = trial.Birth.Without(t)
			ok, err := matches(trial)
			if err != nil {
				return RuleRange{}, err
			}
			if ok {
				rr.Needed = trial
			}
		}
		for _, t := range rule.Survival.Transitions() {
			trial := rr.Needed
			trial.Survival = trial.Survival.Without(t)
			ok, err := matches(trial)
			if err != nil {
				return RuleRange{}, err
			}
			if ok {
				rr.Needed = trial
			}
		}
	}

	if mode&RangeMax != 0 {
		zero, _ := hensel.Lookup("0")
		for _, t := range hensel.All().Minus(rule.Birth).Without(zero).Transitions() {
			trial := hensel.Rule{Birth: rr.Allowed.Birth.With(t), Survival: rule.Survival}
			ok, err := matches(trial)
			if err != nil {
				return RuleRange{}, err
			}
			if ok {
				rr.Allowed.Birth = trial.Birth
			}
		}
		for _, t := range hensel.All().Minus(rule.Survival).Transitions() {
			trial := rr.Allowed
			trial.Survival = trial.Survival.With(t)
			ok, err := matches(trial)
			if err != nil {
				return RuleRange{}, err
			}
			if ok {
				rr.Allowed = trial
			}
		}
	}
	return rr, nil
}

// MinimalRule is the smallest rule that reproduces the trajectory of cells
// under rule for the given number of generations.
func MinimalRule(o Oracle, cells []life.Cell, rule hensel.Rule, generations int) (hensel.Rule, error) {
	rr, err := ComputeRuleRange(o, cells, rule, generations, RangeMin)
	if err != nil {
		return hensel.Rule{}, err
	}
	return rr.Needed, nil
}
