package sss

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"nickandperla.net/sss/hensel"
	"nickandperla.net/sss/life"
)

const defaultCanonCacheSize = 4096

// Canonicalizer rewrites ships so they travel towards +x (and +y), carry the
// minimal rule supporting them and show their canonical phase.
type Canonicalizer struct {
	Oracle         Oracle
	MaxGenerations int
	Log            logrus.FieldLogger
	cache          *lru.Cache[string, Ship]
}

func NewCanonicalizer(o Oracle, maxGen int, log logrus.FieldLogger) *Canonicalizer {
	cache, _ := lru.New[string, Ship](defaultCanonCacheSize)
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Canonicalizer{Oracle: o, MaxGenerations: maxGen, Log: log, cache: cache}
}

// orientations lists the lattice symmetries that take (dx, dy) to
// (max(|dx|,|dy|), min(|dx|,|dy|)).
func orientations(dx, dy int) [][4]int {
	sp := NormalizeSpeed(dx, dy, 1)
	var out [][4]int
	for _, m := range hensel.Symmetries {
		if m[0]*dx+m[1]*dy == sp.DX && m[2]*dx+m[3]*dy == sp.DY {
			out = append(out, m)
		}
	}
	return out
}

// Canonicalize analyses ship from its own encoding and rule. Among the
// orientations and tied phases the smallest encoding wins, so applying it
// twice changes nothing.
func (c *Canonicalizer) Canonicalize(ship Ship) (*Ship, error) {
	key := ship.String()
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return &cached, nil
		}
	}

	rule, err := hensel.ParseRule(ship.Rule)
	if err != nil {
		return nil, err
	}
	cells, err := DecodeRLE(ship.RLE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	a, err := AnalyzeShip(c.Oracle, cells, rule.String(), c.MaxGenerations)
	if err != nil {
		return nil, fmt.Errorf("Failed to analyse %s: %w", key, err)
	}

	var bestRLE string
	var bestCells []life.Cell
	for _, m := range orientations(a.DX, a.DY) {
		for _, phase := range a.Candidates {
			t := life.Transform(phase, m[0], m[1], m[2], m[3])
			if rle := EncodeRLE(t); bestCells == nil || rle < bestRLE {
				bestRLE, bestCells = rle, t
			}
		}
	}

	minimal, err := MinimalRule(c.Oracle, bestCells, rule, a.Period)
	if err != nil {
		return nil, fmt.Errorf("Failed to find the minimal rule for %s: %w", key, err)
	}

	sp := a.Speed()
	out := Ship{
		MinPop: a.MinPop,
		Rule:   minimal.String(),
		DX:     sp.DX,
		DY:     sp.DY,
		Period: sp.Period,
		RLE:    bestRLE,
	}
	c.Log.WithFields(logrus.Fields{"in": key, "out": out.String()}).Debug("Canonicalized ship")
	if c.cache != nil {
		c.cache.Add(key, out)
	}
	return &out, nil
}
