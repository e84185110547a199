// Package layout splits screen rectangles into stacked regions.
package layout

import (
	uv "github.com/charmbracelet/ultraviolet"
)

type kind int

const (
	fixed kind = iota
	fill
)

// Spec sizes one region of a split.
type Spec struct {
	kind  kind
	value int
}

// Fixed is exactly n cells, or what is left when the rectangle is smaller.
func Fixed(n int) Spec { return Spec{kind: fixed, value: max(n, 0)} }

// Fill shares the space left by fixed regions, in proportion to weight.
func Fill(weight int) Spec { return Spec{kind: fill, value: max(weight, 1)} }

// V splits r into rows, top to bottom.
func V(r uv.Rectangle, specs ...Spec) []uv.Rectangle {
	sizes := distribute(r.Dy(), specs)
	out := make([]uv.Rectangle, len(sizes))
	y := r.Min.Y
	for i, size := range sizes {
		out[i] = uv.Rect(r.Min.X, y, r.Dx(), size)
		y += size
	}
	return out
}

// H splits r into columns, left to right.
func H(r uv.Rectangle, specs ...Spec) []uv.Rectangle {
	sizes := distribute(r.Dx(), specs)
	out := make([]uv.Rectangle, len(sizes))
	x := r.Min.X
	for i, size := range sizes {
		out[i] = uv.Rect(x, r.Min.Y, size, r.Dy())
		x += size
	}
	return out
}

// distribute gives fixed regions their size first, in order, and splits the
// rest between fill regions. The last fill region takes the rounding.
func distribute(total int, specs []Spec) []int {
	sizes := make([]int, len(specs))
	remaining := max(total, 0)
	weights, lastFill := 0, -1
	for i, s := range specs {
		switch s.kind {
		case fixed:
			sizes[i] = min(s.value, remaining)
			remaining -= sizes[i]
		case fill:
			weights += s.value
			lastFill = i
		}
	}
	if weights == 0 {
		return sizes
	}
	left := remaining
	for i, s := range specs {
		if s.kind != fill {
			continue
		}
		if i == lastFill {
			sizes[i] = left
			break
		}
		sizes[i] = remaining * s.value / weights
		left -= sizes[i]
	}
	return sizes
}
