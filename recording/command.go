package recording

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt/gpu"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	// Synchronization
	CmdBarrier CommandType = iota // Transition textures between usages

	// Pass commands
	CmdBeginRenderPass // Begin a render pass
	CmdEndRenderPass   // End the current render pass

	// State commands
	CmdSetPipeline     // Bind a render pipeline
	CmdSetBindGroup    // Bind a resource group
	CmdSetVertexBuffer // Bind a vertex stream
	CmdSetIndexBuffer  // Bind the index buffer

	// Drawing commands
	CmdDraw        // Draw non-indexed primitives
	CmdDrawIndexed // Draw indexed primitives

	// Uploads. These are staged and applied before the encoded commands.
	CmdWriteBuffer  // Upload buffer contents
	CmdWriteTexture // Upload texture contents
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdBarrier:         "Barrier",
	CmdBeginRenderPass: "BeginRenderPass",
	CmdEndRenderPass:   "EndRenderPass",
	CmdSetPipeline:     "SetPipeline",
	CmdSetBindGroup:    "SetBindGroup",
	CmdSetVertexBuffer: "SetVertexBuffer",
	CmdSetIndexBuffer:  "SetIndexBuffer",
	CmdDraw:            "Draw",
	CmdDrawIndexed:     "DrawIndexed",
	CmdWriteBuffer:     "WriteBuffer",
	CmdWriteTexture:    "WriteTexture",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// --------------------------------------------------------------------------
// Synchronization
// --------------------------------------------------------------------------

// TextureBarrier moves one texture from usage From to usage To. Commands
// after the barrier that use the texture as To wait for commands before it
// that used it as From.
type TextureBarrier struct {
	Texture gpu.Texture
	From    gpu.Usage
	To      gpu.Usage
}

// BarrierCommand records a set of texture transitions.
type BarrierCommand struct {
	Barriers []TextureBarrier
}

// Type implements Command.
func (BarrierCommand) Type() CommandType { return CmdBarrier }

// --------------------------------------------------------------------------
// Pass Commands
// --------------------------------------------------------------------------

// ColorAttachment is the color target of a render pass.
type ColorAttachment struct {
	View  gpu.TextureView
	Load  gputypes.LoadOp
	Store gputypes.StoreOp
	Clear gputypes.Color
}

// DepthAttachment is the depth target of a render pass.
type DepthAttachment struct {
	View  gpu.TextureView
	Load  gputypes.LoadOp
	Store gputypes.StoreOp
	Clear float32
}

// RenderPass describes the attachments of one render pass instance.
type RenderPass struct {
	Label string
	Color ColorAttachment
	// Depth is nil for passes without a depth attachment.
	Depth *DepthAttachment
}

// Views returns the attachment views of the pass, color first.
func (p *RenderPass) Views() []gpu.TextureView {
	views := []gpu.TextureView{p.Color.View}
	if p.Depth != nil {
		views = append(views, p.Depth.View)
	}
	return views
}

// BeginRenderPassCommand begins a render pass.
type BeginRenderPassCommand struct {
	Pass RenderPass
}

// Type implements Command.
func (BeginRenderPassCommand) Type() CommandType { return CmdBeginRenderPass }

// EndRenderPassCommand ends the current render pass.
type EndRenderPassCommand struct{}

// Type implements Command.
func (EndRenderPassCommand) Type() CommandType { return CmdEndRenderPass }

// --------------------------------------------------------------------------
// State Commands
// --------------------------------------------------------------------------

// SetPipelineCommand binds a render pipeline.
type SetPipelineCommand struct {
	Pipeline gpu.Pipeline
}

// Type implements Command.
func (SetPipelineCommand) Type() CommandType { return CmdSetPipeline }

// SetBindGroupCommand binds Group at index Index.
type SetBindGroupCommand struct {
	Index uint32
	Group gpu.BindGroup
}

// Type implements Command.
func (SetBindGroupCommand) Type() CommandType { return CmdSetBindGroup }

// SetVertexBufferCommand binds Buffer to vertex stream Slot.
type SetVertexBufferCommand struct {
	Slot   uint32
	Buffer gpu.Buffer
	Offset uint64
}

// Type implements Command.
func (SetVertexBufferCommand) Type() CommandType { return CmdSetVertexBuffer }

// SetIndexBufferCommand binds the index buffer.
type SetIndexBufferCommand struct {
	Buffer gpu.Buffer
	Format gputypes.IndexFormat
	Offset uint64
}

// Type implements Command.
func (SetIndexBufferCommand) Type() CommandType { return CmdSetIndexBuffer }

// --------------------------------------------------------------------------
// Drawing Commands
// --------------------------------------------------------------------------

// DrawCommand draws VertexCount vertices starting at FirstVertex.
type DrawCommand struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// DrawIndexedCommand draws IndexCount indices starting at FirstIndex.
type DrawIndexedCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

// Type implements Command.
func (DrawIndexedCommand) Type() CommandType { return CmdDrawIndexed }

// --------------------------------------------------------------------------
// Uploads
// --------------------------------------------------------------------------

// WriteBufferCommand uploads Data into Buffer at Offset.
type WriteBufferCommand struct {
	Buffer gpu.Buffer
	Offset uint64
	Data   []byte
}

// Type implements Command.
func (WriteBufferCommand) Type() CommandType { return CmdWriteBuffer }

// WriteTextureCommand uploads tightly packed rows into mip level 0 of
// Texture.
type WriteTextureCommand struct {
	Texture     gpu.Texture
	Data        []byte
	BytesPerRow uint32
}

// Type implements Command.
func (WriteTextureCommand) Type() CommandType { return CmdWriteTexture }
