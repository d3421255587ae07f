package sss

import (
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/xrash/smetrics"
)

// CanonFunc rewrites a ship before it is stored.
type CanonFunc func(Ship) (*Ship, error)

// Collection keeps the best known ship for each speed.
type Collection struct {
	Kind  Kind
	Ships map[Speed]*Ship
	Log   logrus.FieldLogger
}

func NewCollection(kind Kind, log logrus.FieldLogger) *Collection {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Collection{Kind: kind, Ships: make(map[Speed]*Ship), Log: log}
}

// Load stores ships as they are. A later ship for the same speed only wins
// if it improves on the earlier one.
func (c *Collection) Load(ships []*Ship) {
	for _, s := range ships {
		sp := s.Speed()
		if inc, ok := c.Ships[sp]; ok && !Improves(s, inc) {
			c.Log.WithField("speed", sp.String()).Warn("Duplicate speed in collection, keeping the better ship")
			continue
		}
		c.Ships[sp] = s
	}
}

// Accepts reports whether a ship of speed sp belongs in the collection.
// A collection with Kind 0 takes every moving ship.
func (c *Collection) Accepts(sp Speed) bool {
	k := sp.Kind()
	if k == KindOscillator {
		return false
	}
	return c.Kind == 0 || c.Kind == k
}

type MergeResult struct {
	New      []Speed
	Improved []Speed
}

func (r MergeResult) Changed() bool {
	return len(r.New) > 0 || len(r.Improved) > 0
}

// Merge folds candidates into the collection in order. A speed first seen in
// this batch is new for the rest of the batch even when later candidates
// replace its ship. Candidates are canonicalized only when they are stored.
func (c *Collection) Merge(candidates []Ship, canon CanonFunc) MergeResult {
	newSpeeds := make(map[Speed]bool)
	improved := make(map[Speed]bool)

	for i := range candidates {
		cand := candidates[i]
		sp := NormalizeSpeed(cand.DX, cand.DY, cand.Period)
		if !c.Accepts(sp) {
			continue
		}
		cand.DX, cand.DY = sp.DX, sp.DY

		inc, exists := c.Ships[sp]
		if exists && !Improves(&cand, inc) {
			continue
		}

		stored := &cand
		if canon != nil {
			out, err := canon(cand)
			if err != nil {
				c.Log.WithError(err).WithField("ship", cand.String()).Warn("Skipping ship that failed canonicalization")
				continue
			}
			if out.Speed() != sp {
				c.Log.WithFields(logrus.Fields{"ship": cand.String(), "canonical": out.String()}).Warn("Skipping ship whose speed changed on canonicalization")
				continue
			}
			if exists && !Improves(out, inc) {
				continue
			}
			stored = out
		}

		if !exists {
			newSpeeds[sp] = true
		} else {
			if !newSpeeds[sp] {
				improved[sp] = true
			}
			c.Log.WithFields(logrus.Fields{
				"speed":    sp.String(),
				"old_pop":  inc.MinPop,
				"new_pop":  stored.MinPop,
				"distance": smetrics.WagnerFischer(inc.RLE, stored.RLE, 1, 1, 2),
			}).Info("Improved ship")
		}
		c.Ships[sp] = stored
	}

	return MergeResult{New: sortedSpeeds(newSpeeds), Improved: sortedSpeeds(improved)}
}

func sortedSpeeds(set map[Speed]bool) []Speed {
	out := make([]Speed, 0, len(set))
	for sp := range set {
		out = append(out, sp)
	}
	SortChangelogSpeeds(out)
	return out
}

// Sorted lists the ships by period, then decreasing dx, then decreasing dy.
func (c *Collection) Sorted() []*Ship {
	out := make([]*Ship, 0, len(c.Ships))
	for _, s := range c.Ships {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return collectionLess(out[i].Speed(), out[j].Speed())
	})
	return out
}

func collectionLess(a, b Speed) bool {
	if a.Period != b.Period {
		return a.Period < b.Period
	}
	if a.DX != b.DX {
		return a.DX > b.DX
	}
	return a.DY > b.DY
}

// SortChangelogSpeeds orders speeds by dx, then decreasing period, then
// decreasing dy. This differs from the collection order.
func SortChangelogSpeeds(speeds []Speed) {
	sort.Slice(speeds, func(i, j int) bool {
		a, b := speeds[i], speeds[j]
		if a.DX != b.DX {
			return a.DX < b.DX
		}
		if a.Period != b.Period {
			return a.Period > b.Period
		}
		return a.DY > b.DY
	})
}
