// Package rtt renders a scene into an offscreen color+depth target and
// samples that target as a texture on an on-screen scene of textured quads,
// with an immediate-mode GUI overlay drawn into the offscreen pass.
//
// The root package holds only what every sub-package shares: the module
// logger and the error taxonomy. The work is split as follows:
//
//   - gpu: backend-neutral resource handles and the Device interface
//   - recording: typed GPU commands, recorder, backend registry, hazard validator
//   - backend/wgpu: gogpu/wgpu HAL backend (Vulkan, noop in tests)
//   - backend/software: deterministic CPU reference backend
//   - render: attachments, the offscreen render pass, render target roots,
//     textured quads, GUI overlay and scene meshes
//   - graph: command graph composition (combined or separate streams)
//   - viewer: frame driver state machine and application setup
//   - gui: immediate-mode GUI rasterized with gogpu/gg
//   - scene: YAML mesh files and bounds
//   - assets: shader and font lookup, WGSL compilation
//   - config: TOML configuration for cmd/rttdemo
//   - integration/gogpuwindow: the viewer in a gogpu window
//
// # Logging
//
// Nothing is logged by default. Enable it with [SetLogger]:
//
//	rtt.SetLogger(slog.Default())
//
// # Errors
//
// Failures match one of [ErrResourceCreation], [ErrShaderLoad],
// [ErrSceneLoad] or [ErrPresentation] with errors.Is.
package rtt
