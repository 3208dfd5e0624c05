package gui

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/assets"
)

// DefaultFontSize is the font size in pixels when none is configured.
const DefaultFontSize = 30

// ErrFont is returned by OpenFace for fonts that cannot be read or parsed.
var ErrFont = errors.New("gui: font load failed")

var goRegular = sync.OnceValues(func() (*text.FontSource, error) {
	return text.NewFontSource(goregular.TTF)
})

// DefaultFace returns Go Regular at size.
func DefaultFace(size float64) (text.Face, error) {
	src, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("%w: go regular: %v", ErrFont, err)
	}
	return src.Face(size), nil
}

// OpenFace loads the font name through finder at size.
func OpenFace(finder *assets.Finder, name string, size float64) (text.Face, error) {
	if size <= 0 {
		size = DefaultFontSize
	}
	data, origin, err := finder.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFont, err)
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFont, origin, err)
	}
	return src.Face(size), nil
}

// LoadFace is OpenFace with a fallback: an empty name gives Go Regular,
// and a font that fails to load logs a warning and gives Go Regular.
func LoadFace(finder *assets.Finder, name string, size float64) (text.Face, error) {
	if size <= 0 {
		size = DefaultFontSize
	}
	if name != "" {
		face, err := OpenFace(finder, name, size)
		if err == nil {
			return face, nil
		}
		rtt.Logger().Warn("gui: using fallback font", "font", name, "err", err)
	}
	return DefaultFace(size)
}
