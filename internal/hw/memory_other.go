//go:build !tinygo

package hw

import (
	"image/color"

	"github.com/colorlight/penlight/internal/penlight"
)

// memoryWriter retains the last transmitted frame instead of driving
// hardware, so the controller and striptest run on a development
// machine with no LEDs attached.
type memoryWriter struct {
	last []color.RGBA
}

func (w *memoryWriter) WriteColors(buf []color.RGBA) error {
	w.last = append(w.last[:0], buf...)
	return nil
}

func NewPixelWriter(pin int) penlight.PixelWriter {
	return &memoryWriter{}
}
