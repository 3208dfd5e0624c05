// Package gpu defines the backend-neutral GPU resource model used by the
// render package: opaque handles for textures, views, samplers, buffers,
// pipelines and bind groups, their descriptors, and the Device interface
// that creates and destroys them.
//
// Two implementations exist:
//
//	import "github.com/gogpu/rtt/backend/wgpu"     // gogpu/wgpu HAL (Vulkan, noop)
//	import "github.com/gogpu/rtt/backend/software" // CPU reference rasterizer
//
// Handles are only meaningful to the Device that created them. Passing a
// handle from one device to another returns ErrForeignHandle.
package gpu

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Errors returned by Device implementations.
var (
	// ErrForeignHandle is returned when a handle created by another device
	// (or a nil handle) is passed to a Device method.
	ErrForeignHandle = errors.New("gpu: handle does not belong to this device")

	// ErrUnsupportedFormat is returned when a texture format cannot be used
	// with the requested usage.
	ErrUnsupportedFormat = errors.New("gpu: unsupported texture format for usage")

	// ErrInvalidDescriptor is returned for descriptors with zero sizes or
	// missing required fields.
	ErrInvalidDescriptor = errors.New("gpu: invalid descriptor")

	// ErrDeviceLost is returned by submission after the device was lost
	// or destroyed.
	ErrDeviceLost = errors.New("gpu: device lost")
)

// Resource is implemented by every handle.
type Resource interface {
	// Label returns the debug label given at creation.
	Label() string
}

// Texture is an owned GPU image.
type Texture interface {
	Resource
	// Descriptor returns the descriptor the texture was created with.
	Descriptor() TextureDescriptor
}

// TextureView is a view of a Texture usable as an attachment or binding.
type TextureView interface {
	Resource
	// Texture returns the viewed texture.
	Texture() Texture
}

// Sampler describes how a shader reads a texture.
type Sampler interface {
	Resource
}

// Buffer is a GPU buffer.
type Buffer interface {
	Resource
	// Size returns the buffer size in bytes.
	Size() uint64
}

// Pipeline is a compiled render pipeline.
type Pipeline interface {
	Resource
	// Descriptor returns the descriptor the pipeline was created with.
	Descriptor() *PipelineDescriptor
}

// BindGroup binds resources to one group of a pipeline.
type BindGroup interface {
	Resource
	// Entries returns the bound resources in descriptor order.
	Entries() []BindGroupEntry
}

// Device creates and destroys GPU resources.
//
// Create methods return ErrInvalidDescriptor, ErrUnsupportedFormat or a
// backend error; callers in the render package wrap these as
// rtt.ErrResourceCreation. Destroy methods accept nil and foreign handles
// and ignore them.
//
// Device methods are safe for concurrent use.
type Device interface {
	// Name identifies the backend, e.g. "wgpu" or "software".
	Name() string

	// SupportsFormat reports whether format can be used with usage.
	SupportsFormat(format gputypes.TextureFormat, usage gputypes.TextureUsage) bool

	CreateTexture(desc *TextureDescriptor) (Texture, error)
	CreateTextureView(tex Texture, desc *TextureViewDescriptor) (TextureView, error)
	CreateSampler(desc *SamplerDescriptor) (Sampler, error)

	// CreateBuffer creates a buffer. If contents is non-nil it is uploaded
	// before the buffer is first used.
	CreateBuffer(desc *BufferDescriptor, contents []byte) (Buffer, error)

	CreatePipeline(desc *PipelineDescriptor) (Pipeline, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)

	DestroyTexture(Texture)
	DestroyTextureView(TextureView)
	DestroySampler(Sampler)
	DestroyBuffer(Buffer)
	DestroyPipeline(Pipeline)
	DestroyBindGroup(BindGroup)
}
