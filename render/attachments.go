// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
)

// ColorAttachment is the shader-readable color image of an AttachmentSet.
type ColorAttachment struct {
	Texture gpu.Texture
	View    gpu.TextureView
	Sampler gpu.Sampler
	Format  gputypes.TextureFormat
}

// DepthAttachment is the depth image of an AttachmentSet. It is never
// sampled.
type DepthAttachment struct {
	Texture gpu.Texture
	View    gpu.TextureView
	Format  gputypes.TextureFormat
}

// AttachmentSet owns the color and depth images of one offscreen target.
type AttachmentSet struct {
	dev    gpu.Device
	width  int
	height int

	Color ColorAttachment
	Depth DepthAttachment
}

type attachmentOptions struct {
	label       string
	colorFormat gputypes.TextureFormat
	depthFormat gputypes.TextureFormat
}

// AttachmentOption configures NewAttachmentSet.
type AttachmentOption func(*attachmentOptions)

// WithAttachmentLabel prefixes the debug labels of the created resources.
func WithAttachmentLabel(label string) AttachmentOption {
	return func(o *attachmentOptions) { o.label = label }
}

// WithColorFormat overrides the color format (default RGBA8Unorm).
func WithColorFormat(f gputypes.TextureFormat) AttachmentOption {
	return func(o *attachmentOptions) { o.colorFormat = f }
}

// WithDepthFormat overrides the depth format (default Depth32Float).
func WithDepthFormat(f gputypes.TextureFormat) AttachmentOption {
	return func(o *attachmentOptions) { o.depthFormat = f }
}

// ColorUsage is the usage of the color texture: rendered to, sampled by
// the quads, and copied out for screenshots and tests.
const ColorUsage = gputypes.TextureUsageRenderAttachment |
	gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageCopySrc

// NewAttachmentSet creates the color texture, its view and sampler, and the
// depth texture and view, all w×h. On failure the resources created so far
// are destroyed in reverse order and the error wraps
// rtt.ErrResourceCreation.
func NewAttachmentSet(dev gpu.Device, w, h int, opts ...AttachmentOption) (*AttachmentSet, error) {
	o := attachmentOptions{
		label:       "offscreen",
		colorFormat: gputypes.TextureFormatRGBA8Unorm,
		depthFormat: gputypes.TextureFormatDepth32Float,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if w <= 0 || h <= 0 {
		return nil, rtt.Errorf(rtt.ErrResourceCreation, "create attachments", "extent %dx%d", w, h)
	}
	if !dev.SupportsFormat(o.colorFormat, ColorUsage) {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create color attachment",
			fmt.Errorf("%w: %v", gpu.ErrUnsupportedFormat, o.colorFormat))
	}
	if !dev.SupportsFormat(o.depthFormat, gputypes.TextureUsageRenderAttachment) {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create depth attachment",
			fmt.Errorf("%w: %v", gpu.ErrUnsupportedFormat, o.depthFormat))
	}

	s := &AttachmentSet{dev: dev, width: w, height: h}
	var err error
	defer func() {
		if err != nil {
			s.Destroy()
		}
	}()

	s.Color.Format = o.colorFormat
	s.Color.Texture, err = dev.CreateTexture(&gpu.TextureDescriptor{
		Label:  o.label + "_color",
		Width:  w,
		Height: h,
		Format: o.colorFormat,
		Usage:  ColorUsage,
	})
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create color attachment", err)
	}
	s.Color.View, err = dev.CreateTextureView(s.Color.Texture, &gpu.TextureViewDescriptor{
		Label:  o.label + "_color_view",
		Aspect: gputypes.TextureAspectAll,
	})
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create color view", err)
	}
	s.Color.Sampler, err = dev.CreateSampler(&gpu.SamplerDescriptor{
		Label:         o.label + "_sampler",
		AddressModeU:  gpu.AddressClampToEdge,
		AddressModeV:  gpu.AddressClampToEdge,
		AddressModeW:  gpu.AddressClampToEdge,
		MagFilter:     gpu.FilterLinear,
		MinFilter:     gpu.FilterLinear,
		MipmapFilter:  gpu.FilterLinear,
		LodMinClamp:   0,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create color sampler", err)
	}

	s.Depth.Format = o.depthFormat
	s.Depth.Texture, err = dev.CreateTexture(&gpu.TextureDescriptor{
		Label:  o.label + "_depth",
		Width:  w,
		Height: h,
		Format: o.depthFormat,
		Usage:  gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create depth attachment", err)
	}
	s.Depth.View, err = dev.CreateTextureView(s.Depth.Texture, &gpu.TextureViewDescriptor{
		Label:  o.label + "_depth_view",
		Aspect: gputypes.TextureAspectDepthOnly,
	})
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create depth view", err)
	}

	rtt.Logger().Debug("attachments created", "label", o.label, "width", w, "height", h)
	return s, nil
}

// Width returns the attachment width in pixels.
func (s *AttachmentSet) Width() int { return s.width }

// Height returns the attachment height in pixels.
func (s *AttachmentSet) Height() int { return s.height }

// SampledLayout is the layout the color image is in when a later pass
// samples it. It equals the final layout of the offscreen color
// attachment.
func (s *AttachmentSet) SampledLayout() Layout { return LayoutShaderReadOnly }

// Destroy releases every resource in reverse creation order. It is safe to
// call on a partially built set and more than once.
func (s *AttachmentSet) Destroy() {
	if s == nil || s.dev == nil {
		return
	}
	if s.Depth.View != nil {
		s.dev.DestroyTextureView(s.Depth.View)
		s.Depth.View = nil
	}
	if s.Depth.Texture != nil {
		s.dev.DestroyTexture(s.Depth.Texture)
		s.Depth.Texture = nil
	}
	if s.Color.Sampler != nil {
		s.dev.DestroySampler(s.Color.Sampler)
		s.Color.Sampler = nil
	}
	if s.Color.View != nil {
		s.dev.DestroyTextureView(s.Color.View)
		s.Color.View = nil
	}
	if s.Color.Texture != nil {
		s.dev.DestroyTexture(s.Color.Texture)
		s.Color.Texture = nil
	}
}
