package viewer

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
)

// ErrNothingPresented is returned by Screenshot before the first frame.
var ErrNothingPresented = errors.New("viewer: no frame presented")

// Snapshot reads back the most recently presented image. The window's
// images must be readable, which holds for HeadlessWindow.
func (d *FrameDriver) Snapshot() (*image.RGBA, error) {
	if d.presented == nil {
		return nil, ErrNothingPresented
	}
	img, err := d.backend.ReadTexture(d.presented.Texture())
	if err != nil {
		return nil, fmt.Errorf("viewer: read presented image: %w", err)
	}
	return img, nil
}

// Screenshot writes the most recently presented image to path as PNG.
func (d *FrameDriver) Screenshot(path string) error {
	img, err := d.Snapshot()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("viewer: create screenshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("viewer: encode screenshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("viewer: write screenshot: %w", err)
	}
	return nil
}
