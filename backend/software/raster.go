package software

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt/gpu"
)

const (
	// subpixelBits is the fixed-point precision of window coordinates.
	subpixelBits = 8
	subpixel     = 1 << subpixelBits
	halfPixel    = subpixel / 2

	// maxCoord bounds window coordinates so edge products fit in int64.
	maxCoord = 1 << 22

	// bandRows is the number of rows rasterized per work item.
	bandRows = 32
)

// shaded is a vertex after the vertex shader and viewport transform.
type shaded struct {
	x, y  int64   // fixed-point window position
	z     float32 // depth in [0,1] when visible
	invW  float32
	vary  []float32
	valid bool
}

// drawTriangles runs the bound pipeline over a triangle list.
func (b *Backend) drawTriangles(st *passState, indices []uint32) {
	if st.pipeline == nil {
		b.fail(fmt.Errorf("software: draw without pipeline in %q", st.label))
		return
	}
	desc := &st.pipeline.desc
	ref := desc.Reference
	binds := &drawBindings{b: b, groups: st.groups}
	useDepth := st.depth != nil && desc.DepthFormat != gputypes.TextureFormatUndefined

	maxLoc := uint32(0)
	for _, s := range desc.VertexStreams {
		for _, a := range s.Attributes {
			maxLoc = max(maxLoc, a.Location+1)
		}
	}

	w, h := st.color.desc.Width, st.color.desc.Height
	cache := make(map[uint32]*shaded, len(indices))
	attribs := make([][4]float32, maxLoc)

	shade := func(i uint32) (*shaded, error) {
		if v, ok := cache[i]; ok {
			return v, nil
		}
		for s, stream := range desc.VertexStreams {
			vb := st.vertex[s]
			if vb.buf == nil {
				return nil, fmt.Errorf("software: vertex stream %d not bound", s)
			}
			base := vb.offset + uint64(i)*stream.Stride
			for _, a := range stream.Attributes {
				v, err := fetchAttribute(vb.buf.data, base+a.Offset, a.Format)
				if err != nil {
					return nil, fmt.Errorf("vertex %d location %d: %w", i, a.Location, err)
				}
				attribs[a.Location] = v
			}
		}
		out := make([]float32, ref.Varyings)
		clip := ref.Vertex(binds, attribs, out)
		v := &shaded{vary: out}
		if clip[3] > 0 {
			inv := 1 / clip[3]
			sx := (clip[0]*inv*0.5 + 0.5) * float32(w)
			sy := (0.5 - clip[1]*inv*0.5) * float32(h)
			if math32.Abs(sx) < maxCoord && math32.Abs(sy) < maxCoord {
				v.x = int64(math32.Round(sx * subpixel))
				v.y = int64(math32.Round(sy * subpixel))
				v.z = clip[2] * inv
				v.invW = inv
				v.valid = true
			}
		}
		cache[i] = v
		return v, nil
	}

	for t := 0; t+2 < len(indices); t += 3 {
		var tri [3]*shaded
		for k := range tri {
			v, err := shade(indices[t+k])
			if err != nil {
				b.fail(err)
				return
			}
			tri[k] = v
		}
		if !tri[0].valid || !tri[1].valid || !tri[2].valid {
			// Primitives crossing the w=0 plane are not clipped.
			continue
		}
		b.rasterize(st, desc, binds, useDepth, tri)
	}
}

// edge is twice the signed area of (a, b, p) in fixed point.
func edge(ax, ay, bx, by, px, py int64) int64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// topLeft reports whether edge a->b of a positively oriented triangle is a
// top or left edge, whose samples belong to the triangle.
func topLeft(ax, ay, bx, by int64) bool {
	dx, dy := bx-ax, by-ay
	return (dy == 0 && dx > 0) || dy < 0
}

func inside(e int64, tl bool) bool {
	return e > 0 || (e == 0 && tl)
}

func (b *Backend) rasterize(st *passState, desc *gpu.PipelineDescriptor, binds *drawBindings, useDepth bool, tri [3]*shaded) {
	v0, v1, v2 := tri[0], tri[1], tri[2]
	area := edge(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area == 0 {
		return
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	w, h := st.color.desc.Width, st.color.desc.Height
	minX := max(0, int(floorDiv(min(v0.x, v1.x, v2.x), subpixel)))
	maxX := min(w-1, int(floorDiv(max(v0.x, v1.x, v2.x), subpixel)))
	minY := max(0, int(floorDiv(min(v0.y, v1.y, v2.y), subpixel)))
	maxY := min(h-1, int(floorDiv(max(v0.y, v1.y, v2.y), subpixel)))
	if minX > maxX || minY > maxY {
		return
	}

	tl0 := topLeft(v1.x, v1.y, v2.x, v2.y)
	tl1 := topLeft(v2.x, v2.y, v0.x, v0.y)
	tl2 := topLeft(v0.x, v0.y, v1.x, v1.y)
	invArea := 1 / float32(area)
	nv := len(v0.vary)
	ref := desc.Reference

	band := func(y0, y1 int) {
		in := make([]float32, nv)
		for y := y0; y <= y1; y++ {
			py := int64(y)*subpixel + halfPixel
			for x := minX; x <= maxX; x++ {
				px := int64(x)*subpixel + halfPixel
				e0 := edge(v1.x, v1.y, v2.x, v2.y, px, py)
				e1 := edge(v2.x, v2.y, v0.x, v0.y, px, py)
				e2 := edge(v0.x, v0.y, v1.x, v1.y, px, py)
				if !inside(e0, tl0) || !inside(e1, tl1) || !inside(e2, tl2) {
					continue
				}
				l0 := float32(e0) * invArea
				l1 := float32(e1) * invArea
				l2 := 1 - l0 - l1

				z := l0*v0.z + l1*v1.z + l2*v2.z
				if z < 0 || z > 1 {
					continue
				}
				di := y*w + x
				if useDepth {
					if !depthPasses(desc.DepthCompare, z, st.depth.depth[di]) {
						continue
					}
				}

				p0, p1, p2 := l0*v0.invW, l1*v1.invW, l2*v2.invW
				norm := 1 / (p0 + p1 + p2)
				for k := range in {
					in[k] = (p0*v0.vary[k] + p1*v1.vary[k] + p2*v2.vary[k]) * norm
				}

				c := ref.Fragment(binds, in)
				if useDepth && desc.DepthWrite {
					st.depth.depth[di] = z
				}
				writeColor(st.color, di, c, desc.Blend)
			}
		}
	}

	rows := maxY - minY + 1
	if b.pool == nil || rows <= 2*bandRows {
		band(minY, maxY)
		return
	}
	work := make([]func(), 0, rows/bandRows+1)
	for y := minY; y <= maxY; y += bandRows {
		y0, y1 := y, min(y+bandRows-1, maxY)
		work = append(work, func() { band(y0, y1) })
	}
	b.pool.ExecuteAll(work)
}

func floorDiv(a, d int64) int64 {
	q := a / d
	if a%d != 0 && a < 0 {
		q--
	}
	return q
}

func depthPasses(cmp gputypes.CompareFunction, z, stored float32) bool {
	switch cmp {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return z < stored
	case gputypes.CompareFunctionLessEqual:
		return z <= stored
	case gputypes.CompareFunctionGreater:
		return z > stored
	case gputypes.CompareFunctionGreaterEqual:
		return z >= stored
	case gputypes.CompareFunctionEqual:
		return z == stored
	case gputypes.CompareFunctionNotEqual:
		return z != stored
	default:
		return true
	}
}

func unorm8(c float32) uint8 {
	return uint8(math32.Min(math32.Max(c, 0), 1)*255 + 0.5)
}

func writeColor(t *texture, i int, c [4]float32, mode gpu.BlendMode) {
	px := t.color[4*i : 4*i+4]
	ri, bi := 0, 2
	if t.bgra {
		ri, bi = 2, 0
	}
	if mode == gpu.BlendPremultiplied {
		inv := 1 - math32.Min(math32.Max(c[3], 0), 1)
		c[0] += float32(px[ri]) / 255 * inv
		c[1] += float32(px[1]) / 255 * inv
		c[2] += float32(px[bi]) / 255 * inv
		c[3] += float32(px[3]) / 255 * inv
	}
	px[ri] = unorm8(c[0])
	px[1] = unorm8(c[1])
	px[bi] = unorm8(c[2])
	px[3] = unorm8(c[3])
}

func fetchAttribute(data []byte, off uint64, format gputypes.VertexFormat) ([4]float32, error) {
	v := [4]float32{0, 0, 0, 1}
	var n int
	switch format {
	case gputypes.VertexFormatFloat32:
		n = 1
	case gputypes.VertexFormatFloat32x2:
		n = 2
	case gputypes.VertexFormatFloat32x3:
		n = 3
	case gputypes.VertexFormatFloat32x4:
		n = 4
	default:
		return v, fmt.Errorf("%w: vertex format %v", gpu.ErrUnsupportedFormat, format)
	}
	if off+uint64(4*n) > uint64(len(data)) {
		return v, fmt.Errorf("software: attribute at %d outside vertex buffer", off)
	}
	for k := 0; k < n; k++ {
		v[k] = math.Float32frombits(binary.LittleEndian.Uint32(data[off+uint64(4*k):]))
	}
	return v, nil
}
