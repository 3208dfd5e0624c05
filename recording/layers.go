package recording

import (
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt/gpu"
)

// Layers selects the debug layers put around a Backend.
type Layers struct {
	// Validation tracks texture usage and logs every hazard at Warn.
	Validation bool
	// APIDump logs every command at Info as it is played back.
	APIDump bool
}

// Wrap returns b inside the enabled layers, or b itself when none is
// enabled. The dump layer is outermost so commands are logged before
// they are validated. A nil log discards the output.
func (l Layers) Wrap(b Backend, log *slog.Logger) Backend {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if l.Validation {
		b = NewValidator(b, WithHazardCallback(func(h Hazard) {
			log.Warn("validation: hazard",
				"kind", h.Kind.String(),
				"texture", h.Texture,
				"command_buffer", h.Buffer,
				"tracked", h.Tracked.String())
		}))
	}
	if l.APIDump {
		b = NewDump(b, log)
	}
	return b
}

// Dump is a Backend decorator that logs every command before forwarding
// it to the wrapped Backend.
type Dump struct {
	Backend
	log *slog.Logger
}

// NewDump wraps b.
func NewDump(b Backend, log *slog.Logger) *Dump {
	return &Dump{Backend: b, log: log}
}

func (d *Dump) call(name string, args ...any) {
	d.log.Info("api: "+name, args...)
}

func label(r interface{ Label() string }) string {
	if r == nil {
		return ""
	}
	return r.Label()
}

// Begin implements Backend.
func (d *Dump) Begin(name string) error {
	d.call("Begin", "label", name)
	return d.Backend.Begin(name)
}

// End implements Backend.
func (d *Dump) End() error {
	d.call("End")
	return d.Backend.End()
}

// WriteBuffer implements Backend.
func (d *Dump) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	d.call(CmdWriteBuffer.String(), "buffer", label(buf), "offset", offset, "bytes", len(data))
	return d.Backend.WriteBuffer(buf, offset, data)
}

// WriteTexture implements Backend.
func (d *Dump) WriteTexture(tex gpu.Texture, data []byte, bytesPerRow uint32) error {
	d.call(CmdWriteTexture.String(), "texture", label(tex), "bytes", len(data), "bytes_per_row", bytesPerRow)
	return d.Backend.WriteTexture(tex, data, bytesPerRow)
}

// Barrier implements Backend.
func (d *Dump) Barrier(barriers []TextureBarrier) {
	for _, br := range barriers {
		d.call(CmdBarrier.String(), "texture", label(br.Texture), "from", br.From.String(), "to", br.To.String())
	}
	d.Backend.Barrier(barriers)
}

// BeginRenderPass implements Backend.
func (d *Dump) BeginRenderPass(pass *RenderPass) error {
	args := []any{"label", pass.Label, "color", label(pass.Color.View)}
	if pass.Depth != nil {
		args = append(args, "depth", label(pass.Depth.View))
	}
	d.call(CmdBeginRenderPass.String(), args...)
	return d.Backend.BeginRenderPass(pass)
}

// EndRenderPass implements Backend.
func (d *Dump) EndRenderPass() {
	d.call(CmdEndRenderPass.String())
	d.Backend.EndRenderPass()
}

// SetPipeline implements Backend.
func (d *Dump) SetPipeline(p gpu.Pipeline) {
	d.call(CmdSetPipeline.String(), "pipeline", label(p))
	d.Backend.SetPipeline(p)
}

// SetBindGroup implements Backend.
func (d *Dump) SetBindGroup(index uint32, g gpu.BindGroup) {
	d.call(CmdSetBindGroup.String(), "index", index, "group", label(g))
	d.Backend.SetBindGroup(index, g)
}

// SetVertexBuffer implements Backend.
func (d *Dump) SetVertexBuffer(slot uint32, buf gpu.Buffer, offset uint64) {
	d.call(CmdSetVertexBuffer.String(), "slot", slot, "buffer", label(buf), "offset", offset)
	d.Backend.SetVertexBuffer(slot, buf, offset)
}

// SetIndexBuffer implements Backend.
func (d *Dump) SetIndexBuffer(buf gpu.Buffer, format gputypes.IndexFormat, offset uint64) {
	d.call(CmdSetIndexBuffer.String(), "buffer", label(buf), "offset", offset)
	d.Backend.SetIndexBuffer(buf, format, offset)
}

// Draw implements Backend.
func (d *Dump) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	d.call(CmdDraw.String(), "vertices", vertexCount, "instances", instanceCount)
	d.Backend.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawIndexed implements Backend.
func (d *Dump) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	d.call(CmdDrawIndexed.String(), "indices", indexCount, "instances", instanceCount)
	d.Backend.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}
