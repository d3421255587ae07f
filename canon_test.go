package sss

import (
	"errors"
	test "testing"

	"nickandperla.net/sss/life"
)

func TestAnalyzeShipGlider(t *test.T) {
	u := life.NewUniverse()
	a, err := AnalyzeShip(u, mustCells(t, "bo$2bo$3o!"), "B3/S23", DefaultAnalyzeMaxGen)
	if err != nil {
		t.Fatalf("Unexpected error analysing glider: %v", err)
	}
	if a.DX != 1 || a.DY != 1 || a.Period != 4 || a.MinPop != 5 {
		t.Errorf("Glider analysed as dx=%d dy=%d p=%d pop=%d", a.DX, a.DY, a.Period, a.MinPop)
	}
	if a.MaxArea != 9 {
		t.Errorf("Glider max area %d isn't 9", a.MaxArea)
	}
	if len(a.Candidates) != 4 {
		t.Errorf("Glider has %d tied phases, expected 4", len(a.Candidates))
	}
	if rle := EncodeRLE(a.Phase); rle != "2bo$obo$b2o!" {
		t.Errorf("Glider canonical phase [%s] isn't [2bo$obo$b2o!]", rle)
	}
	if u.Population() != 0 {
		t.Errorf("Oracle left holding %d cells", u.Population())
	}
}

func TestAnalyzeShipFailures(t *test.T) {
	u := life.NewUniverse()
	if _, err := AnalyzeShip(u, nil, "B3/S23", 10); !errors.Is(err, ErrEmptyPattern) {
		t.Errorf("Empty pattern returned %v", err)
	}
	if _, err := AnalyzeShip(u, mustCells(t, "o!"), "B3/S23", 10); !errors.Is(err, ErrNotPeriodic) {
		t.Errorf("Dying pattern returned %v", err)
	}
	if _, err := AnalyzeShip(u, mustCells(t, "bo$2bo$3o!"), "B3/S23", 3); !errors.Is(err, ErrSimulationDivergence) {
		t.Errorf("Glider with a 3 generation cap returned %v", err)
	}
	if _, err := AnalyzeShip(u, mustCells(t, "bo$2bo$3o!"), "B3/S23/3", 10); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("Generations rule returned %v", err)
	}
}

func TestAnalyzeShipOscillator(t *test.T) {
	u := life.NewUniverse()
	a, err := AnalyzeShip(u, mustCells(t, "3o!"), "B3/S23", 10)
	if err != nil {
		t.Fatalf("Unexpected error analysing blinker: %v", err)
	}
	if a.Speed() != (Speed{Period: 2}) {
		t.Errorf("Blinker speed %s isn't (0, 0, 2)", a.Speed())
	}
}

func TestCanonicalizeGlider(t *test.T) {
	c := NewCanonicalizer(life.NewUniverse(), DefaultAnalyzeMaxGen, nil)
	want := Ship{MinPop: 5, Rule: "B3aijn/S2ae3jnr", DX: 1, DY: 1, Period: 4, RLE: "2bo$obo$b2o!"}

	for _, in := range []Ship{
		{MinPop: 5, Rule: "B3/S23", DX: 1, DY: 1, Period: 4, RLE: "bo$2bo$3o!"},
		{MinPop: 5, Rule: "B3/S23", DX: 0, DY: 0, Period: 0, RLE: "3o$2bo$bo!"},
	} {
		got, err := c.Canonicalize(in)
		if err != nil {
			t.Fatalf("Unexpected error canonicalizing %s: %v", in.String(), err)
		}
		if *got != want {
			t.Errorf("Canonical glider [%s] isn't [%s]", got.String(), want.String())
		}
	}
}

func TestCanonicalizeIdempotent(t *test.T) {
	c := NewCanonicalizer(life.NewUniverse(), DefaultAnalyzeMaxGen, nil)
	for _, in := range []Ship{
		{MinPop: 5, Rule: "B3/S23", DX: 1, DY: 1, Period: 4, RLE: "bo$2bo$3o!"},
		{MinPop: 9, Rule: "B3/S23", DX: 2, DY: 0, Period: 4, RLE: "bo2bo$o4b$o3bo$4o!"},
	} {
		once, err := c.Canonicalize(in)
		if err != nil {
			t.Fatalf("Unexpected error canonicalizing %s: %v", in.String(), err)
		}
		twice, err := c.Canonicalize(*once)
		if err != nil {
			t.Fatalf("Unexpected error re-canonicalizing %s: %v", once.String(), err)
		}
		if *once != *twice {
			t.Errorf("Canonicalization not idempotent: [%s] then [%s]", once.String(), twice.String())
		}
	}
}

func TestCanonicalizeLWSS(t *test.T) {
	c := NewCanonicalizer(life.NewUniverse(), DefaultAnalyzeMaxGen, nil)
	got, err := c.Canonicalize(Ship{MinPop: 9, Rule: "B3/S23", DX: 0, DY: 2, Period: 4, RLE: "bo2bo$o4b$o3bo$4o!"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := Ship{MinPop: 9, Rule: "B3aij/S2eik3aijnr", DX: 2, DY: 0, Period: 4, RLE: "b4o$o3bo$4bo$o2bo!"}
	if *got != want {
		t.Errorf("Canonical LWSS [%s] isn't [%s]", got.String(), want.String())
	}
	if c.Oracle.Population() != 0 || c.Oracle.Rule() != "B3/S23" {
		t.Errorf("Oracle left with %d cells in %s", c.Oracle.Population(), c.Oracle.Rule())
	}
}

func TestCanonicalizeInvalid(t *test.T) {
	c := NewCanonicalizer(life.NewUniverse(), 50, nil)
	if _, err := c.Canonicalize(Ship{MinPop: 5, Rule: "23/3", Period: 4, RLE: "bo$2bo$3o!"}); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("Invalid rule returned %v", err)
	}
	if _, err := c.Canonicalize(Ship{MinPop: 5, Rule: "B3/S23", Period: 4, RLE: "2o$2q!"}); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("Bad encoding returned %v", err)
	}
	if _, err := c.Canonicalize(Ship{MinPop: 1, Rule: "B3/S23", Period: 4, RLE: "o!"}); !errors.Is(err, ErrNotPeriodic) {
		t.Errorf("Dying pattern returned %v", err)
	}
}
