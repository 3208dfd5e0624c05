// Package gui is a small immediate-mode GUI rasterized on the CPU with
// gogpu/gg.
//
// A Callback is invoked once per frame with a Context and the Params it
// edits. Widgets are declared inside Begin/End window blocks and report
// interaction through their return values:
//
//	func(ui *gui.Context, p *gui.Params) bool {
//		if ui.Begin("Settings", nil) {
//			ui.Checkbox("Show", &p.ShowSecondWindow)
//			if ui.Button("Reset") {
//				p.Counter = 0
//			}
//		}
//		ui.End()
//		return true
//	}
//
// The rasterized frame is read with Pixels in premultiplied RGBA order.
package gui
