// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/recording"
)

// WriteBuffer implements recording.Backend. The write goes through the
// queue and lands before the next Submit executes.
func (b *Backend) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) (err error) {
	defer b.failOnError(&err)
	bf, err := b.buffer(buf)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > bf.desc.Size {
		return fmt.Errorf("wgpu: write of %d bytes at %d overflows buffer %q (%d bytes)",
			len(data), offset, bf.desc.Label, bf.desc.Size)
	}
	b.queue.WriteBuffer(bf.raw, offset, data)
	return nil
}

// WriteTexture implements recording.Backend. The texture is left in the
// copy destination usage.
func (b *Backend) WriteTexture(tex gpu.Texture, data []byte, bytesPerRow uint32) (err error) {
	defer b.failOnError(&err)
	t, err := b.texture(tex)
	if err != nil {
		return err
	}
	if t.raw == nil || t.desc.Usage&gputypes.TextureUsageCopyDst == 0 {
		return fmt.Errorf("%w: texture %q is not a copy destination", gpu.ErrUnsupportedFormat, t.desc.Label)
	}
	w, h := uint32(t.desc.Width), uint32(t.desc.Height) //nolint:gosec // validated positive at creation
	if bytesPerRow < 4*w || uint64(len(data)) < uint64(bytesPerRow)*uint64(h-1)+uint64(4*w) {
		return fmt.Errorf("wgpu: texture %q upload of %d bytes with %d bytes per row is too small",
			t.desc.Label, len(data), bytesPerRow)
	}
	b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.raw, MipLevel: 0},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: bytesPerRow, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	b.setUsage(t, gputypes.TextureUsageCopyDst)
	return nil
}

func (b *Backend) usageOf(t *texture) gputypes.TextureUsage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.usage[t]
}

func (b *Backend) setUsage(t *texture, u gputypes.TextureUsage) {
	b.mu.Lock()
	b.usage[t] = u
	b.mu.Unlock()
}

// transition encodes a single barrier from the tracked usage to u and
// returns the tracked usage it replaced.
func (b *Backend) transition(t *texture, u gputypes.TextureUsage) gputypes.TextureUsage {
	prev := b.usageOf(t)
	if prev == u {
		return prev
	}
	b.encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.raw,
		Usage:   hal.TextureUsageTransition{OldUsage: prev, NewUsage: u},
	}})
	b.setUsage(t, u)
	return prev
}

// Barrier implements recording.Backend.
func (b *Backend) Barrier(barriers []recording.TextureBarrier) {
	if b.encoder == nil {
		b.fail(errNotEncoding)
		return
	}
	hb := make([]hal.TextureBarrier, 0, len(barriers))
	for _, br := range barriers {
		t, err := b.texture(br.Texture)
		if err != nil {
			b.fail(err)
			return
		}
		if !br.To.Allows(t.desc.Usage) {
			b.fail(fmt.Errorf("wgpu: barrier to %v on texture %q created without that usage", br.To, t.desc.Label))
			return
		}
		to := br.To.TextureUsage()
		if t.raw == nil || to == 0 {
			continue
		}
		prev := b.usageOf(t)
		if prev == to {
			continue
		}
		hb = append(hb, hal.TextureBarrier{
			Texture: t.raw,
			Usage:   hal.TextureUsageTransition{OldUsage: prev, NewUsage: to},
		})
		b.setUsage(t, to)
	}
	if len(hb) > 0 {
		b.encoder.TransitionTextures(hb)
	}
}

// BeginRenderPass implements recording.Backend. Attachments are in the
// render attachment usage once the pass has begun.
func (b *Backend) BeginRenderPass(pass *recording.RenderPass) (err error) {
	if b.encoder == nil {
		return errNotEncoding
	}
	if b.pass != nil {
		return errPassActive
	}
	defer b.failOnError(&err)
	cv, err := b.view(pass.Color.View)
	if err != nil {
		return err
	}
	desc := &hal.RenderPassDescriptor{
		Label: pass.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       cv.raw,
			LoadOp:     pass.Color.Load,
			StoreOp:    pass.Color.Store,
			ClearValue: pass.Color.Clear,
		}},
	}
	attached := []*texture{cv.tex}
	if d := pass.Depth; d != nil {
		v, err := b.view(d.View)
		if err != nil {
			return err
		}
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              v.raw,
			DepthLoadOp:       d.Load,
			DepthStoreOp:      d.Store,
			DepthClearValue:   d.Clear,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		}
		attached = append(attached, v.tex)
	}
	b.pass = b.encoder.BeginRenderPass(desc)
	for _, t := range attached {
		if t.raw != nil {
			b.setUsage(t, gputypes.TextureUsageRenderAttachment)
		}
	}
	return nil
}

// EndRenderPass implements recording.Backend.
func (b *Backend) EndRenderPass() {
	if b.pass == nil {
		b.fail(recording.ErrNoRenderPass)
		return
	}
	b.pass.End()
	b.pass = nil
}

// inPass reports whether a pass is active, recording an error if not.
func (b *Backend) inPass() bool {
	if b.pass == nil {
		b.fail(recording.ErrNoRenderPass)
		return false
	}
	return true
}

// SetPipeline implements recording.Backend.
func (b *Backend) SetPipeline(p gpu.Pipeline) {
	if !b.inPass() {
		return
	}
	pl, err := b.pipeline(p)
	if err != nil {
		b.fail(err)
		return
	}
	b.pass.SetPipeline(pl.raw)
}

// SetBindGroup implements recording.Backend.
func (b *Backend) SetBindGroup(index uint32, g gpu.BindGroup) {
	if !b.inPass() {
		return
	}
	bg, err := b.bindGroup(g)
	if err != nil {
		b.fail(err)
		return
	}
	b.pass.SetBindGroup(index, bg.raw, nil)
}

// SetVertexBuffer implements recording.Backend.
func (b *Backend) SetVertexBuffer(slot uint32, buf gpu.Buffer, offset uint64) {
	if !b.inPass() {
		return
	}
	bf, err := b.buffer(buf)
	if err != nil {
		b.fail(err)
		return
	}
	b.pass.SetVertexBuffer(slot, bf.raw, offset)
}

// SetIndexBuffer implements recording.Backend.
func (b *Backend) SetIndexBuffer(buf gpu.Buffer, format gputypes.IndexFormat, offset uint64) {
	if !b.inPass() {
		return
	}
	bf, err := b.buffer(buf)
	if err != nil {
		b.fail(err)
		return
	}
	b.pass.SetIndexBuffer(bf.raw, format, offset)
}

// Draw implements recording.Backend.
func (b *Backend) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !b.inPass() {
		return
	}
	b.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawIndexed implements recording.Backend.
func (b *Backend) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if !b.inPass() {
		return
	}
	b.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}
