package recording

import (
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt/gpu"
)

// Backend executes recordings on a device.
//
// A Backend is a gpu.Device that also accepts the commands of a Recording.
// Recording.Playback drives one command buffer from Begin to End; Submit
// then hands every command buffer ended since the last Submit to the queue,
// in the order they were ended, and waits for them.
//
// Backends are created via the registry using NewBackend(name) and
// registered via Register() in their init() functions.
//
// # Implementation Contract
//
// Each backend must:
//  1. Register in init() using recording.Register()
//  2. Apply WriteBuffer and WriteTexture before the commands of the command
//     buffer they were staged for
//  3. Keep execution order equal to End order across Submit
//
// Command methods are called from a single goroutine.
type Backend interface {
	gpu.Device

	// Lifecycle methods

	// Begin starts a command buffer.
	Begin(label string) error

	// End finishes the current command buffer and queues it for Submit.
	End() error

	// Submit executes all ended command buffers and waits for completion.
	Submit() error

	// WaitIdle blocks until the device has finished all submitted work.
	WaitIdle() error

	// Close releases the device. The backend must not be used afterwards.
	Close() error

	// Uploads

	WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error
	WriteTexture(tex gpu.Texture, data []byte, bytesPerRow uint32) error

	// Synchronization

	Barrier(barriers []TextureBarrier)

	// Pass methods

	BeginRenderPass(pass *RenderPass) error
	EndRenderPass()

	// State methods

	SetPipeline(p gpu.Pipeline)
	SetBindGroup(index uint32, g gpu.BindGroup)
	SetVertexBuffer(slot uint32, buf gpu.Buffer, offset uint64)
	SetIndexBuffer(buf gpu.Buffer, format gputypes.IndexFormat, offset uint64)

	// Drawing methods

	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)

	// Readback

	// ReadTexture copies the contents of an RGBA8 or BGRA8 texture created
	// with CopySrc usage to an image. It submits and waits for all pending
	// work first. Pixels are returned in RGBA order.
	ReadTexture(tex gpu.Texture) (*image.RGBA, error)
}
