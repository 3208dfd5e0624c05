package gui

import (
	"errors"
	"testing"

	"github.com/gogpu/rtt/assets"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	c, err := NewContext(320, 240)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return c
}

// firstWidget returns a point inside the first widget of the first window.
func firstWidget(c *Context) (x, y float64) {
	return 2*c.pad + 1, c.pad + c.lh + 2*c.pad + 1
}

func TestNewContextInvalidSize(t *testing.T) {
	for _, sz := range [][2]int{{0, 10}, {10, 0}, {-1, -1}} {
		if _, err := NewContext(sz[0], sz[1]); err == nil {
			t.Errorf("NewContext(%d, %d) succeeded", sz[0], sz[1])
		}
	}
}

func TestButtonClickOnce(t *testing.T) {
	c := newTestContext(t)
	x, y := firstWidget(c)

	clicks := 0
	frame := func(in Input) {
		c.BeginFrame(in)
		c.Begin("w", nil)
		if c.Button("press") {
			clicks++
		}
		c.End()
	}
	frame(Input{X: x, Y: y})
	frame(Input{X: x, Y: y, Down: true})
	frame(Input{X: x, Y: y, Down: true})
	frame(Input{X: x, Y: y})
	if clicks != 1 {
		t.Errorf("clicks = %d, want 1", clicks)
	}
	frame(Input{X: x, Y: y, Down: true})
	if clicks != 2 {
		t.Errorf("clicks = %d after second press, want 2", clicks)
	}
}

func TestCheckboxToggles(t *testing.T) {
	c := newTestContext(t)
	x, y := firstWidget(c)
	v := false
	for i, in := range []Input{{X: x, Y: y}, {X: x, Y: y, Down: true}, {X: x, Y: y}, {X: x, Y: y, Down: true}} {
		c.BeginFrame(in)
		c.Begin("w", nil)
		c.Checkbox("flag", &v)
		c.End()
		want := i >= 1 && i < 3
		if v != want {
			t.Errorf("frame %d: v = %v, want %v", i, v, want)
		}
	}
}

func TestSliderDrag(t *testing.T) {
	c := newTestContext(t)
	x, y := firstWidget(c)
	v := float32(0)
	frame := func(in Input) bool {
		c.BeginFrame(in)
		c.Begin("w", nil)
		changed := c.SliderFloat("float", &v, 0, 1)
		c.End()
		return changed
	}
	frame(Input{X: x, Y: y})
	frame(Input{X: x, Y: y, Down: true})
	start := v
	// Dragging past the right edge clamps to the maximum.
	if !frame(Input{X: 10000, Y: y, Down: true}) {
		t.Fatal("drag did not change the value")
	}
	if v != 1 {
		t.Errorf("v = %v after dragging past the end, want 1", v)
	}
	if start > 0.1 {
		t.Errorf("v = %v at the left edge", start)
	}
	frame(Input{X: 0, Y: 0})
	if frame(Input{X: 0, Y: 0}) {
		t.Error("value changed without input")
	}
}

func TestHiddenWindowDrawsNothing(t *testing.T) {
	c := newTestContext(t)
	open := false
	c.BeginFrame(Input{})
	if c.Begin("closed", &open) {
		t.Error("Begin returned true for a closed window")
	}
	c.Text("ignored")
	if c.Button("ignored") {
		t.Error("button in a closed window reported a click")
	}
	c.End()
	if c.Drawn() {
		t.Error("Drawn() = true")
	}
	for i, b := range c.Pixels() {
		if b != 0 {
			t.Fatalf("byte %d = %d, want a transparent image", i, b)
		}
	}
}

func TestPixelsPremultiplied(t *testing.T) {
	c := newTestContext(t)
	c.BeginFrame(Input{})
	Demo(c, DefaultParams())
	pix := c.Pixels()
	if len(pix) != 4*320*240 {
		t.Fatalf("len(Pixels()) = %d", len(pix))
	}
	opaque := 0
	for i := 0; i < len(pix); i += 4 {
		a := pix[i+3]
		if pix[i] > a || pix[i+1] > a || pix[i+2] > a {
			t.Fatalf("pixel %d = %v is not premultiplied", i/4, pix[i:i+4])
		}
		if a > 0 {
			opaque++
		}
	}
	if opaque == 0 {
		t.Error("demo drew nothing")
	}
}

func TestFonts(t *testing.T) {
	finder := assets.NewFinderFS(nil, t.TempDir())

	if _, err := OpenFace(finder, "missing.ttf", 12); !errors.Is(err, ErrFont) {
		t.Errorf("OpenFace(missing) error = %v, want ErrFont", err)
	}
	face, err := LoadFace(finder, "missing.ttf", 12)
	if err != nil || face == nil {
		t.Errorf("LoadFace(missing) = %v, %v; want the fallback face", face, err)
	}
	face, err = LoadFace(finder, "", 0)
	if err != nil || face == nil {
		t.Errorf("LoadFace(\"\") = %v, %v", face, err)
	}
}
