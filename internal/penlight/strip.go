package penlight

import "image/color"

// PixelWriter transmits a frame of pixel colors to an addressable LED
// chain. tinygo.org/x/drivers/ws2812.Device satisfies it; tests use an
// in-memory implementation.
type PixelWriter interface {
	WriteColors(buf []color.RGBA) error
}

// Strip is one physically contiguous run of LEDs on a single GPIO
// output. The pin and length are fixed at construction.
type Strip struct {
	pin    int
	pixels []color.RGBA
	writer PixelWriter
}

func NewStrip(pin, numLEDs int, writer PixelWriter) *Strip {
	return &Strip{
		pin:    pin,
		pixels: make([]color.RGBA, numLEDs),
		writer: writer,
	}
}

func (s *Strip) Pin() int {
	return s.pin
}

func (s *Strip) Len() int {
	return len(s.pixels)
}

// Fill sets every LED on the strip to c and flushes to hardware.
func (s *Strip) Fill(c Color) error {
	rgba := c.RGBA()
	for i := range s.pixels {
		s.pixels[i] = rgba
	}
	return s.writer.WriteColors(s.pixels)
}

// SetPixel stages a single LED color without flushing.
func (s *Strip) SetPixel(i int, c Color) {
	if i < 0 || i >= len(s.pixels) {
		return
	}
	s.pixels[i] = c.RGBA()
}

// Flush transmits the staged pixel buffer.
func (s *Strip) Flush() error {
	return s.writer.WriteColors(s.pixels)
}
