package gui

import (
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/draw"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Input is the pointer state of one frame in GUI pixel coordinates.
type Input struct {
	X, Y float64
	// Down is true while the primary button is held.
	Down bool
}

type options struct {
	face text.Face
	lang language.Tag
}

// Option configures NewContext.
type Option func(*options)

// WithFace sets the font face. The default is Go Regular at
// DefaultFontSize.
func WithFace(face text.Face) Option {
	return func(o *options) { o.face = face }
}

// WithLanguage sets the language used to format numbers in labels.
func WithLanguage(tag language.Tag) Option {
	return func(o *options) { o.lang = tag }
}

// Theme colors, straight RGBA.
var (
	colorWindow  = [4]float64{0.06, 0.06, 0.09, 0.94}
	colorTitle   = [4]float64{0.16, 0.29, 0.48, 1}
	colorFrame   = [4]float64{0.16, 0.29, 0.48, 0.54}
	colorActive  = [4]float64{0.26, 0.59, 0.98, 1}
	colorText    = [4]float64{1, 1, 1, 1}
	colorButton  = [4]float64{0.26, 0.59, 0.98, 0.4}
	colorPressed = [4]float64{0.06, 0.53, 0.98, 1}
)

type window struct {
	title  string
	hidden bool
	x, y   float64
	w, h   float64

	// layout cursor
	cy        float64
	lastX     float64
	lastY     float64
	lastRight float64
	sameLine  bool

	ops []func(dc *gg.Context)
}

// Context lays out and rasterizes one GUI frame. It is not safe for
// concurrent use.
type Context struct {
	dc      *gg.Context
	width   int
	height  int
	face    text.Face
	lh      float64
	pad     float64
	printer *message.Printer

	in, prev Input
	active   string

	placed map[string][2]float64
	nextY  float64
	cur    *window
	drawn  bool

	frameTime time.Duration
	pixels    []byte
}

// NewContext returns a Context rasterizing into a w×h image.
func NewContext(w, h int, opts ...Option) (*Context, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("gui: invalid size %dx%d", w, h)
	}
	o := options{lang: language.English}
	for _, opt := range opts {
		opt(&o)
	}
	if o.face == nil {
		face, err := DefaultFace(DefaultFontSize)
		if err != nil {
			return nil, err
		}
		o.face = face
	}
	c := &Context{
		dc:      gg.NewContext(w, h),
		width:   w,
		height:  h,
		face:    o.face,
		printer: message.NewPrinter(o.lang),
		placed:  make(map[string][2]float64),
	}
	c.dc.SetFont(o.face)
	_, c.lh = c.dc.MeasureString("Mg")
	if c.lh <= 0 {
		c.lh = DefaultFontSize
	}
	c.pad = c.lh * 0.3
	return c, nil
}

// Width returns the image width.
func (c *Context) Width() int { return c.width }

// Height returns the image height.
func (c *Context) Height() int { return c.height }

// Sprintf formats with the context's language.
func (c *Context) Sprintf(format string, args ...any) string {
	return c.printer.Sprintf(format, args...)
}

// SetFrameTime records the duration of the previous frame for Framerate.
func (c *Context) SetFrameTime(d time.Duration) { c.frameTime = d }

// Framerate returns frames per second derived from the last frame time.
func (c *Context) Framerate() float64 {
	if c.frameTime <= 0 {
		return 0
	}
	return float64(time.Second) / float64(c.frameTime)
}

// FrameTime returns the duration passed to SetFrameTime.
func (c *Context) FrameTime() time.Duration { return c.frameTime }

// BeginFrame clears the image and latches the input for this frame.
func (c *Context) BeginFrame(in Input) {
	c.prev, c.in = c.in, in
	if !in.Down {
		c.active = ""
	}
	c.nextY = c.pad
	c.drawn = false
	c.cur = nil
	c.pixels = nil
	c.dc.Clear()
}

// Drawn reports whether any window was drawn since BeginFrame.
func (c *Context) Drawn() bool { return c.drawn }

func (c *Context) clicked(x, y, w, h float64) bool {
	return c.in.Down && !c.prev.Down && c.hover(x, y, w, h)
}

func (c *Context) hover(x, y, w, h float64) bool {
	return c.in.X >= x && c.in.X < x+w && c.in.Y >= y && c.in.Y < y+h
}

// Begin starts a window. It returns false, and draws nothing, when open
// points to false. End must be called either way.
func (c *Context) Begin(title string, open *bool) bool {
	if c.cur != nil {
		panic("gui: Begin inside another window")
	}
	c.cur = &window{title: title}
	if open != nil && !*open {
		c.cur.hidden = true
		return false
	}
	pos, ok := c.placed[title]
	if !ok {
		pos = [2]float64{c.pad, c.nextY}
		c.placed[title] = pos
	}
	w := c.cur
	w.x, w.y = pos[0], pos[1]
	w.cy = w.y + c.lh + 2*c.pad
	w.lastRight = w.x
	titleW, _ := c.dc.MeasureString(title)
	w.w = titleW + 2*c.pad
	return true
}

// End finishes the current window and rasterizes it.
func (c *Context) End() {
	w := c.cur
	if w == nil {
		panic("gui: End without Begin")
	}
	c.cur = nil
	if w.hidden {
		return
	}
	w.h = w.cy - w.y + c.pad
	dc := c.dc
	fill(dc, colorWindow)
	dc.DrawRoundedRectangle(w.x, w.y, w.w, w.h, c.pad)
	dc.Fill()
	fill(dc, colorTitle)
	dc.DrawRectangle(w.x, w.y, w.w, c.lh+c.pad)
	dc.Fill()
	fill(dc, colorText)
	dc.DrawString(w.title, w.x+c.pad, w.y+c.lh*0.85)
	for _, op := range w.ops {
		op(dc)
	}
	c.drawn = true
	if bottom := w.y + w.h + c.pad; bottom > c.nextY {
		c.nextY = bottom
	}
}

// SameLine places the next widget to the right of the previous one.
func (c *Context) SameLine() {
	if c.cur != nil {
		c.cur.sameLine = true
	}
}

// place reserves a w×h cell and returns its top-left corner.
func (c *Context) place(w, h float64) (x, y float64) {
	win := c.cur
	if win.sameLine {
		x, y = win.lastRight+c.pad, win.lastY
		win.sameLine = false
	} else {
		x, y = win.x+c.pad, win.cy
	}
	win.lastX, win.lastY, win.lastRight = x, y, x+w
	win.cy = max(win.cy, y+h+c.pad)
	win.w = max(win.w, x+w+c.pad-win.x)
	return x, y
}

func (c *Context) live() bool { return c.cur != nil && !c.cur.hidden }

func (c *Context) id(label string) string { return c.cur.title + "##" + label }

// Text draws a line of text formatted with the context's language.
func (c *Context) Text(format string, args ...any) {
	if !c.live() {
		return
	}
	s := c.printer.Sprintf(format, args...)
	tw, _ := c.dc.MeasureString(s)
	x, y := c.place(tw, c.lh)
	c.cur.ops = append(c.cur.ops, func(dc *gg.Context) {
		fill(dc, colorText)
		dc.DrawString(s, x, y+c.lh*0.8)
	})
}

// Button draws a button and reports whether it was clicked this frame.
func (c *Context) Button(label string) bool {
	if !c.live() {
		return false
	}
	tw, _ := c.dc.MeasureString(label)
	bw, bh := tw+2*c.pad, c.lh+c.pad
	x, y := c.place(bw, bh)
	pressed := c.clicked(x, y, bw, bh)
	col := colorButton
	if pressed {
		col = colorPressed
	}
	c.cur.ops = append(c.cur.ops, func(dc *gg.Context) {
		fill(dc, col)
		dc.DrawRoundedRectangle(x, y, bw, bh, c.pad/2)
		dc.Fill()
		fill(dc, colorText)
		dc.DrawString(label, x+c.pad, y+c.lh*0.85)
	})
	return pressed
}

// Checkbox draws a check box bound to v and reports whether it toggled.
func (c *Context) Checkbox(label string, v *bool) bool {
	if !c.live() {
		return false
	}
	box := c.lh
	tw, _ := c.dc.MeasureString(label)
	x, y := c.place(box+c.pad+tw, box)
	changed := c.clicked(x, y, box, box)
	if changed {
		*v = !*v
	}
	checked := *v
	c.cur.ops = append(c.cur.ops, func(dc *gg.Context) {
		fill(dc, colorFrame)
		dc.DrawRectangle(x, y, box, box)
		dc.Fill()
		if checked {
			fill(dc, colorActive)
			dc.DrawRectangle(x+box/4, y+box/4, box/2, box/2)
			dc.Fill()
		}
		fill(dc, colorText)
		dc.DrawString(label, x+box+c.pad, y+c.lh*0.8)
	})
	return changed
}

// slider handles a horizontal drag region and returns the new fraction.
func (c *Context) slider(id string, x, y, w, h, frac float64) (float64, bool) {
	if c.clicked(x, y, w, h) {
		c.active = id
	}
	if c.active != id || !c.in.Down {
		return frac, false
	}
	f := min(max((c.in.X-x)/w, 0), 1)
	return f, f != frac
}

// SliderFloat draws a slider bound to v in [lo, hi] and reports whether
// the value changed.
func (c *Context) SliderFloat(label string, v *float32, lo, hi float32) bool {
	if !c.live() || hi <= lo {
		return false
	}
	sw, sh := c.lh*8, c.lh
	tw, _ := c.dc.MeasureString(label)
	x, y := c.place(sw+c.pad+tw, sh)
	frac := float64((*v - lo) / (hi - lo))
	frac, changed := c.slider(c.id(label), x, y, sw, sh, frac)
	if changed {
		*v = lo + float32(frac)*(hi-lo)
	}
	val := c.printer.Sprintf("%.3f", *v)
	c.cur.ops = append(c.cur.ops, func(dc *gg.Context) {
		fill(dc, colorFrame)
		dc.DrawRectangle(x, y, sw, sh)
		dc.Fill()
		fill(dc, colorActive)
		dc.DrawRectangle(x+frac*(sw-sh/2), y, sh/2, sh)
		dc.Fill()
		fill(dc, colorText)
		dc.DrawStringAnchored(val, x+sw/2, y+sh/2, 0.5, 0.35)
		dc.DrawString(label, x+sw+c.pad, y+c.lh*0.8)
	})
	return changed
}

// ColorEdit3 draws one slider per channel and a swatch, and reports
// whether the color changed.
func (c *Context) ColorEdit3(label string, col *[3]float32) bool {
	if !c.live() {
		return false
	}
	cw, sh := c.lh*3, c.lh
	tw, _ := c.dc.MeasureString(label)
	total := 3*(cw+c.pad) + sh + c.pad + tw
	x, y := c.place(total, sh)
	changed := false
	var texts [3]string
	for i := range col {
		cx := x + float64(i)*(cw+c.pad)
		f, ch := c.slider(c.id(label)+"#"+"RGB"[i:i+1], cx, y, cw, sh, float64(col[i]))
		if ch {
			col[i] = float32(f)
			changed = true
		}
		texts[i] = c.printer.Sprintf("%c:%d", "RGB"[i], int(col[i]*255+0.5))
	}
	swatch := *col
	c.cur.ops = append(c.cur.ops, func(dc *gg.Context) {
		for i := range 3 {
			cx := x + float64(i)*(cw+c.pad)
			fill(dc, colorFrame)
			dc.DrawRectangle(cx, y, cw, sh)
			dc.Fill()
			fill(dc, colorText)
			dc.DrawStringAnchored(texts[i], cx+cw/2, y+sh/2, 0.5, 0.35)
		}
		sx := x + 3*(cw+c.pad)
		dc.SetRGBA(float64(swatch[0]), float64(swatch[1]), float64(swatch[2]), 1)
		dc.DrawRectangle(sx, y, sh, sh)
		dc.Fill()
		fill(dc, colorText)
		dc.DrawString(label, sx+sh+c.pad, y+c.lh*0.8)
	})
	return changed
}

// Pixels returns the current image as premultiplied RGBA rows of
// 4*Width bytes. The slice is reused until the next BeginFrame.
func (c *Context) Pixels() []byte {
	if c.pixels != nil {
		return c.pixels
	}
	img := c.dc.Image()
	rgba, ok := img.(*image.RGBA)
	if ok && rgba.Stride == 4*c.width {
		// gg stores straight alpha.
		pix := rgba.Pix
		for i := 0; i+3 < len(pix); i += 4 {
			a := uint32(pix[i+3])
			pix[i] = uint8((uint32(pix[i])*a + 127) / 255)
			pix[i+1] = uint8((uint32(pix[i+1])*a + 127) / 255)
			pix[i+2] = uint8((uint32(pix[i+2])*a + 127) / 255)
		}
		c.pixels = pix
		return pix
	}
	dst := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	c.pixels = dst.Pix
	return dst.Pix
}

func fill(dc *gg.Context, c [4]float64) {
	dc.SetRGBA(c[0], c[1], c[2], c[3])
}
