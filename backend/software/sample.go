package software

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/rtt/gpu"
)

// drawBindings resolves the bind groups of a draw for reference shaders.
// It is read concurrently by rasterization bands and never written.
type drawBindings struct {
	b      *Backend
	groups [maxBindGroups]*bindGroup
}

func (d *drawBindings) entry(group, binding uint32) (gpu.BindGroupEntry, bool) {
	if group >= maxBindGroups || d.groups[group] == nil {
		return gpu.BindGroupEntry{}, false
	}
	for _, e := range d.groups[group].entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return gpu.BindGroupEntry{}, false
}

// Uniform implements gpu.Bindings.
func (d *drawBindings) Uniform(group, binding uint32) []byte {
	e, ok := d.entry(group, binding)
	if !ok || e.Buffer == nil {
		return nil
	}
	buf, err := d.b.buffer(e.Buffer)
	if err != nil {
		return nil
	}
	return buf.data
}

// Sample implements gpu.Bindings. Unbound textures read as transparent
// black.
func (d *drawBindings) Sample(group, tex, smp uint32, u, v float32) [4]float32 {
	te, ok := d.entry(group, tex)
	if !ok || te.View == nil {
		return [4]float32{}
	}
	se, ok := d.entry(group, smp)
	if !ok || se.Sampler == nil {
		return [4]float32{}
	}
	view, err := d.b.view(te.View)
	if err != nil || view.tex.color == nil {
		return [4]float32{}
	}
	s, err := d.b.sampler(se.Sampler)
	if err != nil {
		return [4]float32{}
	}
	return view.tex.sample(&s.desc, u, v)
}

func address(i, n int, mode gpu.AddressMode) int {
	if mode == gpu.AddressRepeat {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	return min(max(i, 0), n-1)
}

func (t *texture) texel(x, y int) [4]float32 {
	i := 4 * (y*t.desc.Width + x)
	p := t.color[i : i+4]
	c := [4]float32{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
	if t.bgra {
		c[0], c[2] = c[2], c[0]
	}
	return c
}

// sample filters mip level 0. The minification filter is used when the
// sampler's filters differ; without mip levels they cannot be told apart.
func (t *texture) sample(s *gpu.SamplerDescriptor, u, v float32) [4]float32 {
	w, h := t.desc.Width, t.desc.Height
	if s.MagFilter == gpu.FilterNearest && s.MinFilter == gpu.FilterNearest {
		x := address(int(math32.Floor(u*float32(w))), w, s.AddressModeU)
		y := address(int(math32.Floor(v*float32(h))), h, s.AddressModeV)
		return t.texel(x, y)
	}

	fx := u*float32(w) - 0.5
	fy := v*float32(h) - 0.5
	x0f, y0f := math32.Floor(fx), math32.Floor(fy)
	ax, ay := fx-x0f, fy-y0f
	x0, y0 := int(x0f), int(y0f)
	xa, xb := address(x0, w, s.AddressModeU), address(x0+1, w, s.AddressModeU)
	ya, yb := address(y0, h, s.AddressModeV), address(y0+1, h, s.AddressModeV)

	c00, c10 := t.texel(xa, ya), t.texel(xb, ya)
	c01, c11 := t.texel(xa, yb), t.texel(xb, yb)
	var out [4]float32
	for k := range out {
		top := c00[k] + (c10[k]-c00[k])*ax
		bot := c01[k] + (c11[k]-c01[k])*ax
		out[k] = top + (bot-top)*ay
	}
	return out
}
