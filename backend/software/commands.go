package software

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/recording"
)

const (
	maxBindGroups    = 4
	maxVertexStreams = 8
)

type vertexBinding struct {
	buf    *buffer
	offset uint64
}

type passState struct {
	label string
	color *texture
	depth *texture

	pipeline *pipeline
	groups   [maxBindGroups]*bindGroup
	vertex   [maxVertexStreams]vertexBinding
	index    *buffer
	format   gputypes.IndexFormat
	ioffset  uint64
}

// WriteBuffer implements recording.Backend.
func (b *Backend) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	bf, err := b.buffer(buf)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > uint64(len(bf.data)) {
		return fmt.Errorf("software: write of %d bytes at %d overflows buffer %q (%d bytes)",
			len(data), offset, bf.desc.Label, len(bf.data))
	}
	copy(bf.data[offset:], data)
	return nil
}

// WriteTexture implements recording.Backend. data holds rows in the
// texture's own format.
func (b *Backend) WriteTexture(tex gpu.Texture, data []byte, bytesPerRow uint32) error {
	t, err := b.texture(tex)
	if err != nil {
		return err
	}
	if t.color == nil {
		return fmt.Errorf("%w: write to depth texture %q", gpu.ErrUnsupportedFormat, t.desc.Label)
	}
	row := 4 * t.desc.Width
	if int(bytesPerRow) < row || len(data) < int(bytesPerRow)*(t.desc.Height-1)+row {
		return fmt.Errorf("software: texture %q upload of %d bytes with %d bytes per row is too small",
			t.desc.Label, len(data), bytesPerRow)
	}
	for y := 0; y < t.desc.Height; y++ {
		src := y * int(bytesPerRow)
		copy(t.color[y*row:(y+1)*row], data[src:src+row])
	}
	return nil
}

// Barrier implements recording.Backend. Execution is sequential, so
// barriers only need to be well formed.
func (b *Backend) Barrier(barriers []recording.TextureBarrier) {
	for _, br := range barriers {
		t, err := b.texture(br.Texture)
		if err != nil {
			b.fail(err)
			return
		}
		if !br.To.Allows(t.desc.Usage) {
			b.fail(fmt.Errorf("%w: texture %q cannot enter %v", gpu.ErrInvalidDescriptor, t.desc.Label, br.To))
			return
		}
	}
}

// BeginRenderPass implements recording.Backend.
func (b *Backend) BeginRenderPass(pass *recording.RenderPass) error {
	if !b.encoding {
		return errNotEncoding
	}
	if b.pass != nil {
		return fmt.Errorf("%w: %q", errPassActive, b.pass.label)
	}
	cv, err := b.view(pass.Color.View)
	if err != nil {
		return fmt.Errorf("color attachment: %w", err)
	}
	st := &passState{label: pass.Label, color: cv.tex}
	if cv.tex.color == nil {
		return fmt.Errorf("%w: color attachment %q is not a color texture", gpu.ErrUnsupportedFormat, cv.tex.desc.Label)
	}
	if pass.Color.Load == gputypes.LoadOpClear {
		clearColor(cv.tex, pass.Color.Clear)
	}
	if pass.Depth != nil {
		dv, err := b.view(pass.Depth.View)
		if err != nil {
			return fmt.Errorf("depth attachment: %w", err)
		}
		if dv.tex.depth == nil {
			return fmt.Errorf("%w: depth attachment %q is not a depth texture", gpu.ErrUnsupportedFormat, dv.tex.desc.Label)
		}
		if dv.tex.desc.Width != cv.tex.desc.Width || dv.tex.desc.Height != cv.tex.desc.Height {
			return fmt.Errorf("%w: pass %q attachment extents differ", gpu.ErrInvalidDescriptor, pass.Label)
		}
		st.depth = dv.tex
		if pass.Depth.Load == gputypes.LoadOpClear {
			for i := range dv.tex.depth {
				dv.tex.depth[i] = pass.Depth.Clear
			}
		}
	}
	b.pass = st
	return nil
}

// EndRenderPass implements recording.Backend.
func (b *Backend) EndRenderPass() {
	if b.pass == nil {
		b.fail(fmt.Errorf("software: end of render pass without begin"))
		return
	}
	b.pass = nil
}

func (b *Backend) activePass(op string) *passState {
	if b.pass == nil {
		b.fail(fmt.Errorf("software: %s outside render pass", op))
	}
	return b.pass
}

// SetPipeline implements recording.Backend.
func (b *Backend) SetPipeline(p gpu.Pipeline) {
	st := b.activePass("SetPipeline")
	if st == nil {
		return
	}
	pl, err := b.pipeline(p)
	if err != nil {
		b.fail(err)
		return
	}
	if pl.desc.ColorFormat != st.color.desc.Format {
		b.fail(fmt.Errorf("%w: pipeline %q targets %v, pass %q has %v",
			gpu.ErrInvalidDescriptor, pl.desc.Label, pl.desc.ColorFormat, st.label, st.color.desc.Format))
		return
	}
	st.pipeline = pl
}

// SetBindGroup implements recording.Backend.
func (b *Backend) SetBindGroup(index uint32, g gpu.BindGroup) {
	st := b.activePass("SetBindGroup")
	if st == nil {
		return
	}
	bg, err := b.bindGroup(g)
	if err != nil {
		b.fail(err)
		return
	}
	if index >= maxBindGroups {
		b.fail(fmt.Errorf("software: bind group index %d out of range", index))
		return
	}
	st.groups[index] = bg
}

// SetVertexBuffer implements recording.Backend.
func (b *Backend) SetVertexBuffer(slot uint32, buf gpu.Buffer, offset uint64) {
	st := b.activePass("SetVertexBuffer")
	if st == nil {
		return
	}
	bf, err := b.buffer(buf)
	if err != nil {
		b.fail(err)
		return
	}
	if slot >= maxVertexStreams {
		b.fail(fmt.Errorf("software: vertex slot %d out of range", slot))
		return
	}
	st.vertex[slot] = vertexBinding{buf: bf, offset: offset}
}

// SetIndexBuffer implements recording.Backend.
func (b *Backend) SetIndexBuffer(buf gpu.Buffer, format gputypes.IndexFormat, offset uint64) {
	st := b.activePass("SetIndexBuffer")
	if st == nil {
		return
	}
	bf, err := b.buffer(buf)
	if err != nil {
		b.fail(err)
		return
	}
	st.index, st.format, st.ioffset = bf, format, offset
}

// Draw implements recording.Backend.
func (b *Backend) Draw(vertexCount, instanceCount, firstVertex, _ uint32) {
	st := b.activePass("Draw")
	if st == nil || instanceCount == 0 {
		return
	}
	idx := make([]uint32, vertexCount)
	for i := range idx {
		idx[i] = firstVertex + uint32(i)
	}
	b.drawTriangles(st, idx)
}

// DrawIndexed implements recording.Backend.
func (b *Backend) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, _ uint32) {
	st := b.activePass("DrawIndexed")
	if st == nil || instanceCount == 0 {
		return
	}
	if st.index == nil {
		b.fail(fmt.Errorf("software: DrawIndexed without index buffer"))
		return
	}
	size := uint64(2)
	if st.format == gputypes.IndexFormatUint32 {
		size = 4
	}
	start := st.ioffset + uint64(firstIndex)*size
	if start+uint64(indexCount)*size > uint64(len(st.index.data)) {
		b.fail(fmt.Errorf("software: %d indices at %d overflow index buffer %q", indexCount, firstIndex, st.index.desc.Label))
		return
	}
	idx := make([]uint32, indexCount)
	data := st.index.data[start:]
	for i := range idx {
		var v uint32
		if size == 2 {
			v = uint32(data[2*i]) | uint32(data[2*i+1])<<8
		} else {
			v = uint32(data[4*i]) | uint32(data[4*i+1])<<8 | uint32(data[4*i+2])<<16 | uint32(data[4*i+3])<<24
		}
		idx[i] = uint32(int64(v) + int64(baseVertex))
	}
	b.drawTriangles(st, idx)
}

func clearColor(t *texture, c gputypes.Color) {
	px := [4]uint8{unorm8(float32(c.R)), unorm8(float32(c.G)), unorm8(float32(c.B)), unorm8(float32(c.A))}
	if t.bgra {
		px[0], px[2] = px[2], px[0]
	}
	for i := 0; i < len(t.color); i += 4 {
		copy(t.color[i:i+4], px[:])
	}
}
