package gui

// Params is the state edited by the demo GUI. The frame driver owns it and
// passes it to the callback, which is its only writer.
type Params struct {
	ShowGui          bool
	ShowSecondWindow bool

	// ClearColor is the clear color of the onscreen pass.
	ClearColor [3]float32

	Counter int
	Dist    float32

	// FrameIndex is incremented by the demo once per drawn frame.
	FrameIndex uint64
}

// DefaultParams returns the initial demo state.
func DefaultParams() *Params {
	return &Params{
		ShowGui:          true,
		ShowSecondWindow: true,
		ClearColor:       [3]float32{0.2, 0.2, 0.4},
	}
}

// Callback draws one GUI frame and reports whether anything is visible.
type Callback func(ui *Context, p *Params) bool
