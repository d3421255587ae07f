package sss

import (
	"math/big"

	"nickandperla.net/sss/hensel"
)

const (
	lcgMultiplier = 5
	lcgIncrement  = 7
	lcgWarmup     = 3
)

// RuleSpace is every rule made of Needed plus any subset of the optional
// birth and survival transitions.
type RuleSpace struct {
	Needed   hensel.Rule
	Birth    []hensel.Transition
	Survival []hensel.Transition
}

func NewRuleSpace(rr RuleRange) RuleSpace {
	optional := rr.Optional()
	return RuleSpace{
		Needed:   rr.Needed,
		Birth:    optional.Birth.Transitions(),
		Survival: optional.Survival.Transitions(),
	}
}

func (rs RuleSpace) Bits() int {
	return len(rs.Birth) + len(rs.Survival)
}

// Size is 2^Bits.
func (rs RuleSpace) Size() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(rs.Bits()))
}

// Rule builds the rule selected by a state: the low bits pick survival
// transitions and the bits above them pick birth transitions.
func (rs RuleSpace) Rule(state *big.Int) hensel.Rule {
	r := rs.Needed
	for i, t := range rs.Survival {
		if state.Bit(i) == 1 {
			r.Survival = r.Survival.With(t)
		}
	}
	for i, t := range rs.Birth {
		if state.Bit(len(rs.Survival)+i) == 1 {
			r.Birth = r.Birth.With(t)
		}
	}
	return r
}

// Iterate visits every rule of the space once, in an order fixed by seed.
func (rs RuleSpace) Iterate(seed int64) *RuleIterator {
	it := &RuleIterator{
		space:     rs,
		modulus:   rs.Size(),
		state:     big.NewInt(seed),
		remaining: rs.Size(),
	}
	it.state.Mod(it.state, it.modulus)
	for i := 0; i < lcgWarmup; i++ {
		it.advance()
	}
	return it
}

// RuleIterator walks a RuleSpace with a full-period linear congruential
// generator modulo the size of the space.
type RuleIterator struct {
	space     RuleSpace
	modulus   *big.Int
	state     *big.Int
	remaining *big.Int
	index     uint64
}

func (it *RuleIterator) advance() {
	it.state.Mul(it.state, big.NewInt(lcgMultiplier))
	it.state.Add(it.state, big.NewInt(lcgIncrement))
	it.state.Mod(it.state, it.modulus)
}

// Next returns false once every rule has been produced.
func (it *RuleIterator) Next() (hensel.Rule, bool) {
	if it.remaining.Sign() == 0 {
		return hensel.Rule{}, false
	}
	it.remaining.Sub(it.remaining, big.NewInt(1))
	it.advance()
	it.index++
	return it.space.Rule(it.state), true
}

// Index is the number of rules produced so far.
func (it *RuleIterator) Index() uint64 {
	return it.index
}

// State is a copy of the generator state after the last rule produced.
func (it *RuleIterator) State() *big.Int {
	return new(big.Int).Set(it.state)
}
