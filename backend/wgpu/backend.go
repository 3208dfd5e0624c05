// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/recording"
)

// Name is the registry name of the backend.
const Name = "wgpu"

// submitTimeout bounds the wait for one Submit.
const submitTimeout = 5 * time.Second

func init() {
	recording.Register(Name, func() (recording.Backend, error) {
		return Open(Options{})
	})
}

var (
	errNotEncoding = errors.New("wgpu: no command buffer is being encoded")
	errEncoding    = errors.New("wgpu: command buffer already being encoded")
	errPassActive  = errors.New("wgpu: render pass still active")
)

// Options configures Open.
type Options struct {
	// Backend selects the HAL backend. Zero means Vulkan.
	Backend gputypes.Backend
	// Debug enables the driver's debug and validation layers.
	Debug bool
}

// Backend is the HAL implementation of recording.Backend.
type Backend struct {
	device hal.Device
	queue  hal.Queue

	// instance is set when the backend owns the device.
	instance hal.Instance
	adapter  string

	mu     sync.Mutex
	live   int
	closed bool
	usage  map[*texture]gputypes.TextureUsage

	// Command buffer state, touched only by the playback goroutine.
	encoder hal.CommandEncoder
	label   string
	pass    hal.RenderPassEncoder
	pending []hal.CommandBuffer
	err     error
}

// Open creates a standalone device.
func Open(opts Options) (*Backend, error) {
	kind := opts.Backend
	if kind == 0 {
		kind = gputypes.BackendVulkan
	}
	api, ok := hal.GetBackend(kind)
	if !ok {
		return nil, fmt.Errorf("wgpu: HAL backend %v not available", kind)
	}
	var flags gputypes.InstanceFlags
	if opts.Debug {
		flags |= gputypes.InstanceFlagsDebug
	}
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: flags})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: no GPU adapters found")
	}
	selected := &adapters[0]
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		found := false
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				selected = &adapters[i]
				found = true
				break
			}
		}
		if found {
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	b := NewFromHAL(openDev.Device, openDev.Queue)
	b.instance = instance
	b.adapter = selected.Info.Name
	rtt.Logger().Info("wgpu: device opened", "adapter", selected.Info.Name, "type", selected.Info.DeviceType, "debug", opts.Debug)
	return b, nil
}

// NewFromHAL wraps an existing device and queue. Close does not destroy
// them.
func NewFromHAL(device hal.Device, queue hal.Queue) *Backend {
	return &Backend{
		device: device,
		queue:  queue,
		usage:  make(map[*texture]gputypes.TextureUsage),
	}
}

// Name implements gpu.Device.
func (b *Backend) Name() string { return Name }

// Adapter returns the adapter name for devices opened by Open.
func (b *Backend) Adapter() string { return b.adapter }

// Live returns the number of resources created and not yet destroyed.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

func (b *Backend) track(delta int) {
	b.mu.Lock()
	b.live += delta
	b.mu.Unlock()
}

// Begin implements recording.Backend.
func (b *Backend) Begin(label string) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return gpu.ErrDeviceLost
	}
	if b.encoder != nil {
		return fmt.Errorf("%w: %q", errEncoding, b.label)
	}
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	b.encoder = encoder
	b.label = label
	b.err = nil
	return nil
}

// End implements recording.Backend.
func (b *Backend) End() error {
	if b.encoder == nil {
		return errNotEncoding
	}
	encoder := b.encoder
	b.encoder = nil
	if b.pass != nil {
		b.pass.End()
		b.pass = nil
		encoder.DiscardEncoding()
		return fmt.Errorf("%w in %q", errPassActive, b.label)
	}
	if b.err != nil {
		encoder.DiscardEncoding()
		return b.err
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	b.pending = append(b.pending, cmdBuf)
	return nil
}

// Submit implements recording.Backend.
func (b *Backend) Submit() error {
	if b.encoder != nil {
		return fmt.Errorf("%w: %q", errEncoding, b.label)
	}
	if len(b.pending) == 0 {
		return nil
	}
	bufs := b.pending
	b.pending = nil
	defer func() {
		for _, cb := range bufs {
			b.device.FreeCommandBuffer(cb)
		}
	}()

	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit(bufs, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, submitTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	rtt.Logger().Debug("wgpu: submitted", "command_buffers", len(bufs))
	return nil
}

// WaitIdle implements recording.Backend. Submit already waits for its
// fence, so an idle queue only needs the pending buffers flushed.
func (b *Backend) WaitIdle() error {
	if b.encoder != nil {
		return nil
	}
	return b.Submit()
}

// Close implements recording.Backend. Devices passed to NewFromHAL are
// left alive.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	for _, cb := range b.pending {
		b.device.FreeCommandBuffer(cb)
	}
	b.pending = nil
	if b.instance != nil {
		b.device.Destroy()
		b.instance.Destroy()
		b.instance = nil
	}
	return nil
}

func (b *Backend) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// failOnError marks the open command buffer as failed so End discards it.
func (b *Backend) failOnError(err *error) {
	if *err != nil && b.encoder != nil {
		b.fail(*err)
	}
}

// copyPitchAlignment is the WebGPU row alignment for texture copies.
const copyPitchAlignment = 256

// ReadTexture implements recording.Backend.
func (b *Backend) ReadTexture(tex gpu.Texture) (*image.RGBA, error) {
	t, err := b.texture(tex)
	if err != nil {
		return nil, err
	}
	if t.raw == nil {
		return nil, fmt.Errorf("%w: texture %q is not owned by the backend", gpu.ErrUnsupportedFormat, t.desc.Label)
	}
	bgra := t.desc.Format == gputypes.TextureFormatBGRA8Unorm
	if !bgra && t.desc.Format != gputypes.TextureFormatRGBA8Unorm {
		return nil, fmt.Errorf("%w: read %v texture %q", gpu.ErrUnsupportedFormat, t.desc.Format, t.desc.Label)
	}
	if err := b.Submit(); err != nil {
		return nil, err
	}

	w, h := uint32(t.desc.Width), uint32(t.desc.Height) //nolint:gosec // validated positive at creation
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: t.desc.Label + "_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	if err := b.Begin(t.desc.Label + "_readback"); err != nil {
		return nil, err
	}
	prev := b.transition(t, gputypes.TextureUsageCopySrc)
	b.encoder.CopyTextureToBuffer(t.raw, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.raw, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	if prev != 0 {
		b.transition(t, prev)
	}
	if err := b.End(); err != nil {
		return nil, err
	}
	if err := b.Submit(); err != nil {
		return nil, err
	}

	readback := make([]byte, stagingSize)
	if err := b.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, t.desc.Width, t.desc.Height))
	for row := uint32(0); row < h; row++ {
		src := readback[row*alignedBytesPerRow : row*alignedBytesPerRow+bytesPerRow]
		copy(img.Pix[row*bytesPerRow:], src)
	}
	if bgra {
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		}
	}
	return img, nil
}
