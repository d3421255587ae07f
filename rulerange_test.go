package sss

import (
	test "testing"

	"nickandperla.net/sss/hensel"
	"nickandperla.net/sss/life"
)

func mustRule(t *test.T, rule string) hensel.Rule {
	t.Helper()
	r, err := hensel.ParseRule(rule)
	if err != nil {
		t.Fatalf("Failed to parse rule %s: %v", rule, err)
	}
	return r
}

func mustCells(t *test.T, rle string) []life.Cell {
	t.Helper()
	cells, err := DecodeRLE(rle)
	if err != nil {
		t.Fatalf("Failed to decode %s: %v", rle, err)
	}
	return cells
}

func TestComputeRuleRangeGlider(t *test.T) {
	u := life.NewUniverse()
	glider := mustCells(t, "bo$2bo$3o!")

	rr, err := ComputeRuleRange(u, glider, mustRule(t, "B3/S23"), 4, RangeMinMax)
	if err != nil {
		t.Fatalf("Unexpected error computing rule range: %v", err)
	}
	if rr.Needed.String() != "B3aijn/S2ae3jnr" {
		t.Errorf("Needed rule [%s] isn't [B3aijn/S2ae3jnr]", rr.Needed)
	}
	if rr.Allowed.String() != "B2ikn34-r5-n678/S0234-k5678" {
		t.Errorf("Allowed rule [%s] isn't [B2ikn34-r5-n678/S0234-k5678]", rr.Allowed)
	}
	if !rr.Allowed.Contains(rr.Needed) {
		t.Errorf("Needed rule is not a subset of the allowed rule")
	}
	opt := rr.Optional()
	if opt.Birth.Len() != 39 || opt.Survival.Len() != 43 {
		t.Errorf("Optional transitions B%d/S%d, expected B39/S43", opt.Birth.Len(), opt.Survival.Len())
	}

	if u.Population() != 0 || u.Rule() != "B3/S23" {
		t.Errorf("Oracle left with %d cells in %s", u.Population(), u.Rule())
	}
}

func TestComputeRuleRangeSoundness(t *test.T) {
	u := life.NewUniverse()
	glider := mustCells(t, "bo$2bo$3o!")
	const gens = 4

	rr, err := ComputeRuleRange(u, glider, mustRule(t, "B3/S23"), gens, RangeMinMax)
	if err != nil {
		t.Fatalf("Unexpected error computing rule range: %v", err)
	}
	base, _ := trajectory(u, glider, mustRule(t, "B3/S23"), gens)

	for _, r := range []hensel.Rule{rr.Needed, rr.Allowed} {
		got, _ := trajectory(u, glider, r, gens)
		if !sameTrajectory(base, got) {
			t.Errorf("Trajectory under %s differs from B3/S23", r)
		}
	}

	for _, tr := range rr.Needed.Birth.Transitions() {
		r := rr.Needed
		r.Birth = r.Birth.Without(tr)
		if got, _ := trajectory(u, glider, r, gens); sameTrajectory(base, got) {
			t.Errorf("Birth transition %s was kept but is not needed", tr)
		}
	}
	for _, tr := range rr.Needed.Survival.Transitions() {
		r := rr.Needed
		r.Survival = r.Survival.Without(tr)
		if got, _ := trajectory(u, glider, r, gens); sameTrajectory(base, got) {
			t.Errorf("Survival transition %s was kept but is not needed", tr)
		}
	}

	zero, _ := hensel.Lookup("0")
	for _, tr := range hensel.All().Minus(rr.Allowed.Birth).Without(zero).Transitions() {
		r := rr.Allowed
		r.Birth = r.Birth.With(tr)
		if got, _ := trajectory(u, glider, r, gens); sameTrajectory(base, got) {
			t.Errorf("Birth transition %s was forbidden but changes nothing", tr)
		}
	}
	for _, tr := range hensel.All().Minus(rr.Allowed.Survival).Transitions() {
		r := rr.Allowed
		r.Survival = r.Survival.With(tr)
		if got, _ := trajectory(u, glider, r, gens); sameTrajectory(base, got) {
			t.Errorf("Survival transition %s was forbidden but changes nothing", tr)
		}
	}
}

func TestMinimalRuleBlock(t *test.T) {
	u := life.NewUniverse()
	r, err := MinimalRule(u, mustCells(t, "2o$2o!"), mustRule(t, "B3/S23"), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if r.String() != "B/S3a" {
		t.Errorf("Minimal rule for the block is [%s], expected [B/S3a]", r)
	}
}

func TestComputeRuleRangeRejectsB0(t *test.T) {
	u := life.NewUniverse()
	if _, err := ComputeRuleRange(u, mustCells(t, "o!"), mustRule(t, "B0/S8"), 1, RangeMin); err == nil {
		t.Errorf("Expected an error for a B0 rule")
	}
	if u.Rule() != "B3/S23" {
		t.Errorf("Oracle rule changed to %s", u.Rule())
	}
}

func TestRuleIteratorOrder(t *test.T) {
	b1, _ := hensel.Lookup("3a")
	b2, _ := hensel.Lookup("3c")
	s1, _ := hensel.Lookup("2e")
	rs := RuleSpace{Birth: []hensel.Transition{b1, b2}, Survival: []hensel.Transition{s1}}

	if rs.Bits() != 3 || rs.Size().Int64() != 8 {
		t.Fatalf("Rule space has %d bits and size %v, expected 3 and 8", rs.Bits(), rs.Size())
	}

	expected := []int64{5, 0, 7, 2, 1, 4, 3, 6}
	seen := make(map[string]bool)
	it := rs.Iterate(1)
	for i, want := range expected {
		r, ok := it.Next()
		if !ok {
			t.Fatalf("Iterator stopped after %d rules", i)
		}
		if got := it.State().Int64(); got != want {
			t.Errorf("State %d is %d, expected %d", i, got, want)
		}
		if r.Survival.Has(s1) != (want&1 == 1) || r.Birth.Has(b1) != (want&2 == 2) || r.Birth.Has(b2) != (want&4 == 4) {
			t.Errorf("Rule %s does not match state %d", r, want)
		}
		seen[r.String()] = true
	}
	if _, ok := it.Next(); ok {
		t.Errorf("Iterator produced more than 8 rules")
	}
	if len(seen) != 8 {
		t.Errorf("Iterator produced %d distinct rules, expected 8", len(seen))
	}
	if it.Index() != 8 {
		t.Errorf("Index is %d, expected 8", it.Index())
	}
}

func TestRuleIteratorEmptySpace(t *test.T) {
	rs := RuleSpace{Needed: hensel.Rule{Birth: hensel.Full(3)}}
	it := rs.Iterate(42)
	r, ok := it.Next()
	if !ok || r.String() != "B3/S" {
		t.Errorf("Empty rule space produced %s, %v", r, ok)
	}
	if _, ok := it.Next(); ok {
		t.Errorf("Empty rule space produced a second rule")
	}
}

func TestRuleIteratorLargeSpace(t *test.T) {
	u := life.NewUniverse()
	rr, err := ComputeRuleRange(u, mustCells(t, "bo$2bo$3o!"), mustRule(t, "B3/S23"), 4, RangeMinMax)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rs := NewRuleSpace(rr)
	if rs.Bits() != 82 {
		t.Errorf("Glider rule space has %d bits, expected 82", rs.Bits())
	}
	it := rs.Iterate(7)
	for i := 0; i < 100; i++ {
		r, ok := it.Next()
		if !ok {
			t.Fatalf("Iterator stopped early")
		}
		if !rr.Allowed.Contains(r) || !r.Contains(rr.Needed) {
			t.Errorf("Rule %s lies outside %s", r, rr)
		}
	}
}
