//go:build tinygo

package hw

import (
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"github.com/colorlight/penlight/internal/penlight"
)

// NewPixelWriter configures the GPIO pin for output and returns a
// ws2812 driver bound to it.
func NewPixelWriter(pin int) penlight.PixelWriter {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return ws2812.New(p)
}
