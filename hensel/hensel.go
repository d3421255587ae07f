// Package hensel implements Hensel notation for isotropic two-state
// cellular automaton rules: the 51 neighbourhood classes, sets of them, and
// the B/S rule string grammar.
package hensel

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// ErrInvalidRule is returned for rule strings that are not isotropic
// two-state B/S rules.
var ErrInvalidRule = errors.New("invalid isotropic rule")

// NumTransitions is the number of isotropic neighbourhood classes.
const NumTransitions = 51

// Neighbour bit positions within an 8-bit neighbourhood mask.
const (
	NW = iota
	N
	NE
	W
	E
	SW
	S
	SE
)

// Offsets holds the (dx, dy) of each neighbour bit. y grows downward.
var Offsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

var letters = [9]string{"", "ce", "aceikn", "aceijknqry", "aceijknqrtwyz", "aceijknqry", "aceikn", "ce", ""}

// One neighbourhood per letter for counts 1 to 4. Counts 5 to 7 are the
// complements of counts 3 to 1.
var representatives = map[string][]int{
	"1c": {NW},
	"1e": {N},
	"2c": {NW, NE},
	"2e": {W, N},
	"2a": {NW, N},
	"2i": {W, E},
	"2k": {NW, E},
	"2n": {SW, NE},
	"3c": {NW, SW, NE},
	"3e": {W, N, E},
	"3a": {NW, W, N},
	"3i": {NW, N, NE},
	"3k": {SW, N, E},
	"3n": {NW, W, NE},
	"3j": {W, N, NE},
	"3q": {SW, N, NE},
	"3r": {NW, W, E},
	"3y": {NW, SW, E},
	"4c": {NW, SW, NE, SE},
	"4e": {W, N, S, E},
	"4a": {NW, W, N, NE},
	"4i": {NW, W, NE, E},
	"4k": {NW, SW, N, E},
	"4n": {NW, SW, N, NE},
	"4j": {W, SW, N, E},
	"4q": {SW, N, NE, E},
	"4r": {NW, W, N, E},
	"4y": {NW, SW, NE, E},
	"4t": {NW, W, SW, E},
	"4w": {W, SW, N, NE},
	"4z": {W, SW, NE, E},
}

// The eight symmetries of the square lattice as (a, b, c, d) with
// x' = a*x + b*y, y' = c*x + d*y.
var Symmetries = [8][4]int{
	{1, 0, 0, 1}, {-1, 0, 0, 1}, {1, 0, 0, -1}, {-1, 0, 0, -1},
	{0, 1, 1, 0}, {0, -1, 1, 0}, {0, 1, -1, 0}, {0, -1, -1, 0},
}

// Transition indexes one isotropic neighbourhood class, ordered by
// neighbour count and then letter.
type Transition uint8

var (
	codes  [NumTransitions]string
	lookup = make(map[string]Transition, NumTransitions)
	// first[n] is the first transition with n neighbours; first[9] closes the range.
	first [10]Transition
	table [256]Transition
)

func init() {
	idx := 0
	for n := 0; n <= 8; n++ {
		first[n] = Transition(idx)
		if letters[n] == "" {
			codes[idx] = fmt.Sprint(n)
			idx++
			continue
		}
		for _, l := range letters[n] {
			codes[idx] = fmt.Sprintf("%d%c", n, l)
			idx++
		}
	}
	first[9] = Transition(idx)
	for i, c := range codes {
		lookup[c] = Transition(i)
	}

	var filled [256]bool
	for code, rep := range representatives {
		t := lookup[code]
		for _, sym := range Symmetries {
			var mask uint8
			for _, b := range rep {
				dx, dy := Offsets[b][0], Offsets[b][1]
				mask |= 1 << bitOf(sym[0]*dx+sym[1]*dy, sym[2]*dx+sym[3]*dy)
			}
			table[mask] = t
			filled[mask] = true
		}
	}
	for m := 0; m < 256; m++ {
		count := bits.OnesCount8(uint8(m))
		switch {
		case count == 0:
			table[m] = lookup["0"]
		case count == 8:
			table[m] = lookup["8"]
		case count >= 5:
			comp := table[^uint8(m)]
			table[m] = lookup[fmt.Sprintf("%d%c", count, comp.Letter())]
		case !filled[m]:
			panic(fmt.Sprintf("hensel: neighbourhood %08b has no class", m))
		}
	}
}

func bitOf(dx, dy int) int {
	for i, o := range Offsets {
		if o[0] == dx && o[1] == dy {
			return i
		}
	}
	panic(fmt.Sprintf("hensel: (%d, %d) is not a neighbour offset", dx, dy))
}

// Classify returns the transition for an 8-bit neighbourhood mask.
func Classify(mask uint8) Transition {
	return table[mask]
}

// Lookup returns the transition for a code such as "3a" or "0".
func Lookup(code string) (Transition, bool) {
	t, ok := lookup[code]
	return t, ok
}

func (t Transition) String() string {
	return codes[t]
}

// Count is the number of live neighbours in the class.
func (t Transition) Count() int {
	return int(codes[t][0] - '0')
}

// Letter is the Hensel letter, or 0 for counts 0 and 8.
func (t Transition) Letter() byte {
	if len(codes[t]) < 2 {
		return 0
	}
	return codes[t][1]
}

// Set is a set of transitions.
type Set uint64

// Full returns every transition with n neighbours.
func Full(n int) Set {
	var s Set
	for t := first[n]; t < first[n+1]; t++ {
		s = s.With(t)
	}
	return s
}

// All returns every transition.
func All() Set {
	return Set(1)<<NumTransitions - 1
}

func (s Set) Has(t Transition) bool { return s&(1<<t) != 0 }
func (s Set) With(t Transition) Set { return s | 1<<t }
func (s Set) Without(t Transition) Set { return s &^ (1 << t) }
func (s Set) Union(o Set) Set { return s | o }
func (s Set) Minus(o Set) Set { return s &^ o }
func (s Set) Len() int { return bits.OnesCount64(uint64(s)) }
func (s Set) IsSuperset(o Set) bool { return s&o == o }
func (s Set) Intersect(o Set) Set { return s & o }
func (s Set) Equal(o Set) bool { return s == o }
func (s Set) Empty() bool { return s == 0 }

// Transitions lists the members in ascending order.
func (s Set) Transitions() []Transition {
	out := make([]Transition, 0, s.Len())
	for t := Transition(0); t < NumTransitions; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// String writes the set as a rule fragment. Complete counts collapse to the
// bare digit; a count uses "-" negation when that is strictly shorter.
func (s Set) String() string {
	var sb strings.Builder
	for n := 0; n <= 8; n++ {
		full := Full(n)
		have := s.Intersect(full)
		switch {
		case have.Empty():
			continue
		case have == full:
			sb.WriteByte(byte('0' + n))
			continue
		}
		var pos, neg strings.Builder
		pos.WriteByte(byte('0' + n))
		neg.WriteByte(byte('0' + n))
		neg.WriteByte('-')
		for t := first[n]; t < first[n+1]; t++ {
			if have.Has(t) {
				pos.WriteByte(t.Letter())
			} else {
				neg.WriteByte(t.Letter())
			}
		}
		if neg.Len() < pos.Len() {
			sb.WriteString(neg.String())
		} else {
			sb.WriteString(pos.String())
		}
	}
	return sb.String()
}

// ParseTransitions interprets a birth or survival fragment. A bare digit
// means every class for that count, letters select classes, and a "-" after
// the digit removes the following letters from the full count.
func ParseTransitions(fragment string) (Set, error) {
	var s Set
	if fragment == "" {
		return s, nil
	}
	if !isDigit(fragment[0]) || fragment[0] == '9' {
		return 0, fmt.Errorf("%w: fragment %q must start with a neighbour count", ErrInvalidRule, fragment)
	}
	context := int(fragment[0] - '0')
	nonTotalistic, negate := false, false
	for _, ch := range fragment[1:] {
		switch {
		case ch >= '0' && ch <= '8':
			if !nonTotalistic {
				s = s.Union(Full(context))
			}
			context = int(ch - '0')
			nonTotalistic, negate = false, false
		case ch == '-':
			if negate || nonTotalistic {
				return 0, fmt.Errorf("%w: misplaced '-' in %q", ErrInvalidRule, fragment)
			}
			negate = true
			s = s.Union(Full(context))
		default:
			t, ok := lookup[fmt.Sprintf("%d%c", context, ch)]
			if !ok {
				return 0, fmt.Errorf("%w: no transition %d%c in %q", ErrInvalidRule, context, ch, fragment)
			}
			nonTotalistic = true
			if negate {
				s = s.Without(t)
			} else {
				s = s.With(t)
			}
		}
	}
	if !nonTotalistic {
		s = s.Union(Full(context))
	}
	return s, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Rule is an isotropic two-state rule.
type Rule struct {
	Birth    Set
	Survival Set
}

// ParseRule reads "B<transitions>/S<transitions>". "_" is accepted as the
// separator, letter case of B and S is ignored and a ":" topology suffix is
// dropped. Generations rules and S/B ordering are rejected.
func ParseRule(rule string) (Rule, error) {
	r := strings.TrimSpace(rule)
	if i := strings.IndexByte(r, ':'); i >= 0 {
		r = r[:i]
	}
	if len(r) < 2 || (r[0] != 'B' && r[0] != 'b') {
		return Rule{}, fmt.Errorf("%w: %q has no birth part", ErrInvalidRule, rule)
	}
	sep := strings.IndexAny(r, "/_")
	if sep < 0 || sep+1 >= len(r) || (r[sep+1] != 'S' && r[sep+1] != 's') {
		return Rule{}, fmt.Errorf("%w: %q has no survival part", ErrInvalidRule, rule)
	}
	if strings.ContainsAny(r[sep+1:], "/_") {
		return Rule{}, fmt.Errorf("%w: %q is not a two-state rule", ErrInvalidRule, rule)
	}
	birth, err := ParseTransitions(r[1:sep])
	if err != nil {
		return Rule{}, err
	}
	survival, err := ParseTransitions(r[sep+2:])
	if err != nil {
		return Rule{}, err
	}
	return Rule{Birth: birth, Survival: survival}, nil
}

func (r Rule) String() string {
	return "B" + r.Birth.String() + "/S" + r.Survival.String()
}

// Contains reports whether every transition of o is also in r.
func (r Rule) Contains(o Rule) bool {
	return r.Birth.IsSuperset(o.Birth) && r.Survival.IsSuperset(o.Survival)
}

// Minus removes the transitions of o from r.
func (r Rule) Minus(o Rule) Rule {
	return Rule{Birth: r.Birth.Minus(o.Birth), Survival: r.Survival.Minus(o.Survival)}
}

// Len counts the birth and survival transitions together.
func (r Rule) Len() int {
	return r.Birth.Len() + r.Survival.Len()
}

// Normalize rewrites a rule string with complete letter groups collapsed to
// their digit. Strings that do not parse are returned unchanged.
func Normalize(rule string) string {
	r, err := ParseRule(rule)
	if err != nil {
		return rule
	}
	return r.String()
}
