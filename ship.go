package sss

import (
	"fmt"
	"strconv"
	"strings"

	"nickandperla.net/sss/life"
)

// Ship is one record of an sss file: minimum population, minimal rule,
// displacement per period, period and the encoding of the canonical phase.
type Ship struct {
	MinPop int
	Rule   string
	DX     int
	DY     int
	Period int
	RLE    string
}

// Speed keys a collection. Oscillators have DX = DY = 0.
type Speed struct {
	DX     int
	DY     int
	Period int
}

type Kind byte

const (
	KindOscillator Kind = 'p'
	KindOrthogonal Kind = 'o'
	KindDiagonal   Kind = 'd'
	KindOblique    Kind = 'k'
)

func (k Kind) String() string {
	switch k {
	case KindOscillator:
		return "oscillator"
	case KindOrthogonal:
		return "orthogonal"
	case KindDiagonal:
		return "diagonal"
	case KindOblique:
		return "oblique"
	}
	return "unknown"
}

// ParseKind accepts the one letter collection codes and the long names.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p", "osc", "oscillator":
		return KindOscillator, nil
	case "o", "orthogonal":
		return KindOrthogonal, nil
	case "d", "diagonal":
		return KindDiagonal, nil
	case "k", "oblique", "knight":
		return KindOblique, nil
	}
	return 0, fmt.Errorf("Unknown ship kind %q", s)
}

// NormalizeSpeed folds a signed displacement into DX >= DY >= 0.
func NormalizeSpeed(dx, dy, period int) Speed {
	dx, dy = abs(dx), abs(dy)
	if dy > dx {
		dx, dy = dy, dx
	}
	return Speed{DX: dx, DY: dy, Period: period}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (s Speed) Kind() Kind {
	switch {
	case s.DX == 0 && s.DY == 0:
		return KindOscillator
	case s.DY == 0 || s.DX == 0:
		return KindOrthogonal
	case s.DX == s.DY:
		return KindDiagonal
	}
	return KindOblique
}

func (s Speed) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.DX, s.DY, s.Period)
}

// Describe is the human readable form used in progress output.
func (s Speed) Describe() string {
	switch s.Kind() {
	case KindOscillator:
		return fmt.Sprintf("oscillator with period = %d", s.Period)
	case KindOrthogonal:
		return fmt.Sprintf("orthogonal spaceship with speed = %dc/%d", s.DX, s.Period)
	case KindDiagonal:
		return fmt.Sprintf("diagonal spaceship with speed = %dc/%d", s.DX, s.Period)
	}
	return fmt.Sprintf("knightship with speed = (%d, %d)c/%d", s.DX, s.DY, s.Period)
}

func (s *Ship) Speed() Speed {
	return Speed{DX: s.DX, DY: s.DY, Period: s.Period}
}

func (s *Ship) Kind() Kind {
	return s.Speed().Kind()
}

func (s *Ship) String() string {
	return fmt.Sprintf("%d, %s, %d, %d, %d, %s", s.MinPop, s.Rule, s.DX, s.DY, s.Period, s.RLE)
}

// BoundingBoxArea decodes the encoding and measures it. Undecodable or empty
// encodings report 0.
func (s *Ship) BoundingBoxArea() int {
	cells, err := DecodeRLE(s.RLE)
	if err != nil {
		return 0
	}
	box, ok := life.BoundingBox(cells)
	if !ok {
		return 0
	}
	return box.Area()
}

// ParseShip reads "minPop, rule, dx, dy, period, rle". A line that does not
// start with a non-zero digit is not a record and yields ErrMalformedRecord
// wrapped with the reason.
func ParseShip(line string) (*Ship, error) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] < '1' || line[0] > '9' {
		return nil, fmt.Errorf("%w: %q is not a ship record", ErrMalformedRecord, line)
	}
	fields := strings.Split(line, ",")
	if len(fields) != 6 {
		return nil, fmt.Errorf("%w: %q has %d fields, expected 6", ErrMalformedRecord, line, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var nums [4]int
	for i, idx := range []int{0, 2, 3, 4} {
		n, err := strconv.Atoi(fields[idx])
		if err != nil {
			return nil, fmt.Errorf("%w: field %d of %q: %v", ErrMalformedRecord, idx+1, line, err)
		}
		nums[i] = n
	}
	if fields[1] == "" || fields[5] == "" {
		return nil, fmt.Errorf("%w: %q has an empty rule or pattern", ErrMalformedRecord, line)
	}
	if nums[3] < 1 {
		return nil, fmt.Errorf("%w: %q has period %d", ErrMalformedRecord, line, nums[3])
	}
	return &Ship{
		MinPop: nums[0],
		Rule:   fields[1],
		DX:     nums[1],
		DY:     nums[2],
		Period: nums[3],
		RLE:    fields[5],
	}, nil
}
