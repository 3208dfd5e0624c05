// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wgpu implements recording.Backend on a gogpu/wgpu HAL device.
//
// Open creates a standalone Vulkan device, preferring discrete GPUs over
// integrated ones:
//
//	b, err := wgpu.Open(wgpu.Options{})
//	if err != nil {
//	    return err
//	}
//	defer b.Close()
//
// NewFromHAL wraps a device that is owned elsewhere, such as the device of
// a gogpu window or the noop device used in tests:
//
//	b := wgpu.NewFromHAL(device, queue)
//
// # Synchronization
//
// The backend tracks the usage every texture is actually in. A recorded
// barrier is encoded as a transition from the tracked usage to the
// requested one, so the first transition of a texture whose contents were
// never written starts from the undefined layout. Render passes leave their
// attachments in the render attachment usage. No other transitions are
// inserted: a missing barrier in a recording is a missing barrier on the
// GPU.
//
// # Submission
//
// Every Begin/End pair encodes one HAL command buffer. Submit hands all of
// them to the queue in End order with a single fence and waits up to five
// seconds for it.
package wgpu
