package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis-aligned box. The zero value is the point at the
// origin; use EmptyBounds for a box that contains nothing.
type Bounds struct {
	Min, Max mgl32.Vec3
}

// EmptyBounds returns a box that Extend grows from nothing.
func EmptyBounds() Bounds {
	inf := float32(math.Inf(1))
	return Bounds{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Empty reports whether b contains no point.
func (b Bounds) Empty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows b to contain p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// Union grows b to contain o.
func (b *Bounds) Union(o Bounds) {
	if o.Empty() {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// Center returns the centre of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Diagonal returns the length of the box diagonal.
func (b Bounds) Diagonal() float32 {
	if b.Empty() {
		return 0
	}
	return b.Max.Sub(b.Min).Len()
}
