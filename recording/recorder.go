package recording

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt/gpu"
)

// Structural errors reported by Recorder.Finish.
var (
	ErrNoRenderPass  = errors.New("recording: command requires an active render pass")
	ErrPassActive    = errors.New("recording: render pass already active")
	ErrPassNotEnded  = errors.New("recording: render pass not ended")
	ErrFinished      = errors.New("recording: recorder already finished")
	ErrNoPipeline    = errors.New("recording: draw without pipeline")
	ErrNilCommandArg = errors.New("recording: nil resource")
)

// Recorder captures GPU commands for one command buffer. Use Finish to
// obtain an immutable Recording that can be played back into a Backend.
//
//	rec := recording.NewRecorder("offscreen")
//	rec.Barrier(recording.TextureBarrier{Texture: color, From: gpu.UsageTextureBinding, To: gpu.UsageRenderAttachment})
//	rec.BeginRenderPass(pass)
//	rec.SetPipeline(pipeline)
//	rec.DrawIndexed(12, 1, 0, 0, 0)
//	rec.EndRenderPass()
//	r, err := rec.Finish()
//
// Structural mistakes (a draw outside a pass, a pass left open) do not
// panic. The first one is kept and returned by Finish.
//
// The Recorder is not safe for concurrent use. Distinct recorders may be
// used from distinct goroutines.
type Recorder struct {
	label    string
	commands []Command
	uploads  []Command

	inPass      bool
	hasPipeline bool
	finished    bool
	err         error
}

// NewRecorder creates an empty Recorder.
func NewRecorder(label string) *Recorder {
	return &Recorder{
		label:    label,
		commands: make([]Command, 0, 32),
	}
}

// Label returns the label given to NewRecorder.
func (r *Recorder) Label() string {
	return r.label
}

// InPass reports whether a render pass is active.
func (r *Recorder) InPass() bool {
	return r.inPass
}

// Len returns the number of recorded commands, uploads included.
func (r *Recorder) Len() int {
	return len(r.commands) + len(r.uploads)
}

func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Recorder) add(cmd Command) {
	if r.finished {
		r.fail(ErrFinished)
		return
	}
	r.commands = append(r.commands, cmd)
}

func (r *Recorder) requirePass(cmd CommandType) bool {
	if !r.inPass {
		r.fail(fmt.Errorf("%w: %v", ErrNoRenderPass, cmd))
		return false
	}
	return true
}

// --------------------------------------------------------------------------
// Uploads
// --------------------------------------------------------------------------

// WriteBuffer stages an upload of data into buf. The data is copied.
func (r *Recorder) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) {
	if buf == nil {
		r.fail(fmt.Errorf("%w: %v", ErrNilCommandArg, CmdWriteBuffer))
		return
	}
	r.uploads = append(r.uploads, WriteBufferCommand{
		Buffer: buf,
		Offset: offset,
		Data:   append([]byte(nil), data...),
	})
}

// WriteTexture stages an upload of tightly packed rows into tex. The data
// is copied.
func (r *Recorder) WriteTexture(tex gpu.Texture, data []byte, bytesPerRow uint32) {
	if tex == nil {
		r.fail(fmt.Errorf("%w: %v", ErrNilCommandArg, CmdWriteTexture))
		return
	}
	r.uploads = append(r.uploads, WriteTextureCommand{
		Texture:     tex,
		Data:        append([]byte(nil), data...),
		BytesPerRow: bytesPerRow,
	})
}

// --------------------------------------------------------------------------
// Synchronization
// --------------------------------------------------------------------------

// Barrier records texture transitions. Barriers are not allowed inside a
// render pass.
func (r *Recorder) Barrier(barriers ...TextureBarrier) {
	if r.inPass {
		r.fail(fmt.Errorf("%w: %v", ErrPassActive, CmdBarrier))
		return
	}
	if len(barriers) == 0 {
		return
	}
	for _, b := range barriers {
		if b.Texture == nil {
			r.fail(fmt.Errorf("%w: %v", ErrNilCommandArg, CmdBarrier))
			return
		}
	}
	r.add(BarrierCommand{Barriers: append([]TextureBarrier(nil), barriers...)})
}

// --------------------------------------------------------------------------
// Pass
// --------------------------------------------------------------------------

// BeginRenderPass begins a render pass. Passes do not nest.
func (r *Recorder) BeginRenderPass(pass RenderPass) {
	if r.inPass {
		r.fail(fmt.Errorf("%w: %s", ErrPassActive, pass.Label))
		return
	}
	if pass.Color.View == nil || (pass.Depth != nil && pass.Depth.View == nil) {
		r.fail(fmt.Errorf("%w: pass %q attachment", ErrNilCommandArg, pass.Label))
		return
	}
	if pass.Depth != nil {
		d := *pass.Depth
		pass.Depth = &d
	}
	r.inPass = true
	r.hasPipeline = false
	r.add(BeginRenderPassCommand{Pass: pass})
}

// EndRenderPass ends the active render pass.
func (r *Recorder) EndRenderPass() {
	if !r.requirePass(CmdEndRenderPass) {
		return
	}
	r.inPass = false
	r.add(EndRenderPassCommand{})
}

// --------------------------------------------------------------------------
// State
// --------------------------------------------------------------------------

// SetPipeline binds a render pipeline for subsequent draws.
func (r *Recorder) SetPipeline(p gpu.Pipeline) {
	if !r.requirePass(CmdSetPipeline) {
		return
	}
	if p == nil {
		r.fail(fmt.Errorf("%w: %v", ErrNilCommandArg, CmdSetPipeline))
		return
	}
	r.hasPipeline = true
	r.add(SetPipelineCommand{Pipeline: p})
}

// SetBindGroup binds g at index.
func (r *Recorder) SetBindGroup(index uint32, g gpu.BindGroup) {
	if !r.requirePass(CmdSetBindGroup) {
		return
	}
	if g == nil {
		r.fail(fmt.Errorf("%w: %v", ErrNilCommandArg, CmdSetBindGroup))
		return
	}
	r.add(SetBindGroupCommand{Index: index, Group: g})
}

// SetVertexBuffer binds buf to vertex stream slot.
func (r *Recorder) SetVertexBuffer(slot uint32, buf gpu.Buffer, offset uint64) {
	if !r.requirePass(CmdSetVertexBuffer) {
		return
	}
	if buf == nil {
		r.fail(fmt.Errorf("%w: %v", ErrNilCommandArg, CmdSetVertexBuffer))
		return
	}
	r.add(SetVertexBufferCommand{Slot: slot, Buffer: buf, Offset: offset})
}

// SetIndexBuffer binds the index buffer.
func (r *Recorder) SetIndexBuffer(buf gpu.Buffer, format gputypes.IndexFormat, offset uint64) {
	if !r.requirePass(CmdSetIndexBuffer) {
		return
	}
	if buf == nil {
		r.fail(fmt.Errorf("%w: %v", ErrNilCommandArg, CmdSetIndexBuffer))
		return
	}
	r.add(SetIndexBufferCommand{Buffer: buf, Format: format, Offset: offset})
}

// --------------------------------------------------------------------------
// Drawing
// --------------------------------------------------------------------------

// Draw draws non-indexed primitives.
func (r *Recorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !r.requirePass(CmdDraw) {
		return
	}
	if !r.hasPipeline {
		r.fail(ErrNoPipeline)
		return
	}
	r.add(DrawCommand{
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
		FirstVertex:   firstVertex,
		FirstInstance: firstInstance,
	})
}

// DrawIndexed draws indexed primitives.
func (r *Recorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if !r.requirePass(CmdDrawIndexed) {
		return
	}
	if !r.hasPipeline {
		r.fail(ErrNoPipeline)
		return
	}
	r.add(DrawIndexedCommand{
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
		FirstIndex:    firstIndex,
		BaseVertex:    baseVertex,
		FirstInstance: firstInstance,
	})
}

// Finish returns an immutable Recording containing all recorded commands,
// or the first structural error. After Finish the Recorder must not be
// used again.
func (r *Recorder) Finish() (*Recording, error) {
	if r.finished {
		return nil, ErrFinished
	}
	r.finished = true
	if r.err == nil && r.inPass {
		r.err = ErrPassNotEnded
	}
	if r.err != nil {
		return nil, fmt.Errorf("recording %q: %w", r.label, r.err)
	}
	return &Recording{
		label:    r.label,
		commands: r.commands,
		uploads:  r.uploads,
	}, nil
}

// Recording is an immutable container for recorded GPU commands.
// It can be replayed to any Backend implementation.
type Recording struct {
	label    string
	commands []Command
	uploads  []Command
}

// Label returns the recorder's label.
func (r *Recording) Label() string {
	return r.label
}

// Commands returns the encoded commands in record order.
func (r *Recording) Commands() []Command {
	return r.commands
}

// Uploads returns the staged uploads in record order.
func (r *Recording) Uploads() []Command {
	return r.uploads
}

// abandon closes the command buffer left open by a failed Playback so the
// backend can begin the next one. Backends discard a buffer whose upload or
// pass failed, so End only reports err again.
func (r *Recording) abandon(backend Backend, err error) error {
	_ = backend.End()
	return err
}

// Playback replays the recording into one command buffer of backend.
// Uploads are applied first, in record order, then the commands are
// encoded. The command buffer runs at the next backend.Submit.
func (r *Recording) Playback(backend Backend) error {
	if err := backend.Begin(r.label); err != nil {
		return fmt.Errorf("begin %q: %w", r.label, err)
	}

	for _, cmd := range r.uploads {
		var err error
		switch c := cmd.(type) {
		case WriteBufferCommand:
			err = backend.WriteBuffer(c.Buffer, c.Offset, c.Data)
		case WriteTextureCommand:
			err = backend.WriteTexture(c.Texture, c.Data, c.BytesPerRow)
		}
		if err != nil {
			return r.abandon(backend, fmt.Errorf("%v in %q: %w", cmd.Type(), r.label, err))
		}
	}

	for _, cmd := range r.commands {
		switch c := cmd.(type) {
		case BarrierCommand:
			backend.Barrier(c.Barriers)
		case BeginRenderPassCommand:
			pass := c.Pass
			if err := backend.BeginRenderPass(&pass); err != nil {
				return r.abandon(backend, fmt.Errorf("begin pass %q: %w", c.Pass.Label, err))
			}
		case EndRenderPassCommand:
			backend.EndRenderPass()
		case SetPipelineCommand:
			backend.SetPipeline(c.Pipeline)
		case SetBindGroupCommand:
			backend.SetBindGroup(c.Index, c.Group)
		case SetVertexBufferCommand:
			backend.SetVertexBuffer(c.Slot, c.Buffer, c.Offset)
		case SetIndexBufferCommand:
			backend.SetIndexBuffer(c.Buffer, c.Format, c.Offset)
		case DrawCommand:
			backend.Draw(c.VertexCount, c.InstanceCount, c.FirstVertex, c.FirstInstance)
		case DrawIndexedCommand:
			backend.DrawIndexed(c.IndexCount, c.InstanceCount, c.FirstIndex, c.BaseVertex, c.FirstInstance)
		}
	}

	if err := backend.End(); err != nil {
		return fmt.Errorf("end %q: %w", r.label, err)
	}
	return nil
}
