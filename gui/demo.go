package gui

// Demo is the demo GUI: a "Hello, world!" window editing Params and a
// closable "Another Window".
func Demo(ui *Context, p *Params) bool {
	visible := false

	if p.ShowGui {
		ui.Begin("Hello, world!", nil)
		ui.Text("Some useful message here.")
		ui.Checkbox("Another Window", &p.ShowSecondWindow)
		ui.SliderFloat("float", &p.Dist, 0, 1)
		ui.ColorEdit3("clear color", &p.ClearColor)
		if ui.Button("Button") {
			p.Counter++
		}
		ui.SameLine()
		ui.Text("counter = %d", p.Counter)
		if fps := ui.Framerate(); fps > 0 {
			ui.Text("Application average %.3f ms/frame (%.1f FPS)", 1000/fps, fps)
		} else {
			ui.Text("Application average - ms/frame")
		}
		ui.Text("Frame %d", p.FrameIndex)
		p.FrameIndex++
		ui.End()
		visible = true
	}

	if p.ShowSecondWindow {
		ui.Begin("Another Window", &p.ShowSecondWindow)
		ui.Text("Hello from another window!")
		if ui.Button("Close Me") {
			p.ShowSecondWindow = false
		}
		ui.End()
		visible = true
	}

	return visible
}

var _ Callback = Demo
