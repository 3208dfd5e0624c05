// Package viewer runs the render-to-texture demo frame by frame.
//
// Setup builds the offscreen attachments and pass, the GUI overlay, the
// optional scene meshes and the onscreen quads that sample the offscreen
// image, then composes them into command graph nodes. A FrameDriver then
// cycles through its states once per frame:
//
//	Idle → EventPolling → Updating → Recording → Submitting → Presenting → Idle
//
// and enters Terminated when the window closes, Escape is pressed, the
// frame limit is reached or Run's context is done.
//
// With multithreading on, the command graph nodes are recorded in
// parallel, each into its own recorder, and joined before submission,
// which always happens in node order.
//
// # Usage
//
//	backend := software.New()
//	win, _ := viewer.NewHeadlessWindow(backend, 1280, 720, 2)
//	d, err := viewer.Setup(backend, win, viewer.WithMode(graph.ModeSeparate))
//	if err != nil {
//	    return err
//	}
//	defer d.Close()
//	return d.Run(ctx)
package viewer
