// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render builds the two passes of a render-to-texture frame.
//
// The offscreen pass draws into an AttachmentSet: a color texture that is
// later sampled and a depth texture. Its RenderPassDescriptor carries a
// DependencyPair that brackets the pass:
//
//	before: sampled by fragment shaders → written as color attachment
//	after:  written as color attachment → sampled by fragment shaders
//
// OffscreenTarget records the barriers of both dependencies around the
// pass. OnscreenTarget draws into the acquired swapchain image, where
// Quads sample the offscreen color texture.
//
// Content is added to a target as Drawables:
//
//	set, _ := render.NewAttachmentSet(dev, 1024, 1024)
//	desc, _ := render.NewOffscreenRenderPass(set.Color.Format, set.Depth.Format, 1)
//	fb, _ := render.NewFramebuffer(desc, set)
//	offscreen, _ := render.NewOffscreenTarget(fb)
//	offscreen.Add(overlay)
//
// Depth follows a DepthConvention. The default, DepthReversed, clears to
// 0 and keeps fragments with greater depth; cameras built with the same
// convention produce matching depth values.
package render
