package sss

import (
	"fmt"
	"strconv"
	"strings"

	"nickandperla.net/sss/life"
)

// EncodeRLE writes cells as a run-length string anchored at the top row and
// leftmost column, so translated copies of a pattern encode identically.
// The empty set encodes to "!".
func EncodeRLE(cells []life.Cell) string {
	if len(cells) == 0 {
		return "!"
	}
	sorted := make([]life.Cell, len(cells))
	copy(sorted, cells)
	life.SortCells(sorted)
	box, _ := life.BoundingBox(sorted)

	var sb strings.Builder
	run := func(n int, tag byte) {
		if n > 1 {
			sb.WriteString(strconv.Itoa(n))
		}
		sb.WriteByte(tag)
	}

	y, x := sorted[0].Y, box.X
	for i := 0; i < len(sorted); {
		c := sorted[i]
		if c.Y != y {
			run(c.Y-y, '$')
			y, x = c.Y, box.X
		}
		j := i
		for j+1 < len(sorted) && sorted[j+1].Y == c.Y && sorted[j+1].X <= sorted[j].X+1 {
			j++
		}
		if gap := c.X - x; gap > 0 {
			run(gap, 'b')
		}
		end := sorted[j].X + 1
		run(end-c.X, 'o')
		x = end
		i = j + 1
	}
	sb.WriteByte('!')
	return sb.String()
}

// DecodeRLE reads a run-length pattern body. Whitespace is ignored and
// anything after "!" is dropped. The top left of the pattern is (0, 0).
func DecodeRLE(rle string) ([]life.Cell, error) {
	var cells []life.Cell
	x, y, count := 0, 0, 0
	for i := 0; i < len(rle); i++ {
		ch := rle[i]
		switch {
		case ch >= '0' && ch <= '9':
			count = count*10 + int(ch-'0')
			continue
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			continue
		}
		n := max(count, 1)
		count = 0
		switch ch {
		case 'b', '.':
			x += n
		case 'o', 'A':
			for k := 0; k < n; k++ {
				cells = append(cells, life.Cell{X: x + k, Y: y})
			}
			x += n
		case '$':
			y += n
			x = 0
		case '!':
			return cells, nil
		default:
			return nil, fmt.Errorf("Failed to decode pattern: unexpected %q at offset %d", ch, i)
		}
	}
	return cells, nil
}
