// Command striptest is a wiring diagnostic for the LED strips. It
// steps through solid colors and a per-pixel chase on every configured
// strip so that a miswired pin or a dead segment is obvious before the
// controller proper is flashed.
package main

import (
	"time"

	"github.com/caarlos0/env"
	"go.uber.org/zap"

	"github.com/colorlight/penlight/internal/hw"
	"github.com/colorlight/penlight/internal/logging"
	"github.com/colorlight/penlight/internal/penlight"
)

var (
	logger = logging.New("striptest")
	config = StripTestConfig{}
)

type StripTestConfig struct {
	StripPins    []int         `env:"STRIP_PINS" envDefault:"6,7" envSeparator:","`
	StripLengths []int         `env:"STRIP_LENGTHS" envDefault:"8,8" envSeparator:","`
	StepDelay    time.Duration `env:"STEP_DELAY" envDefault:"2s"`
	ChaseDelay   time.Duration `env:"CHASE_DELAY" envDefault:"200ms"`
}

func main() {
	defer logger.Sync()

	if err := env.Parse(&config); err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to parse environment variables")
	}
	if len(config.StripPins) == 0 || len(config.StripPins) != len(config.StripLengths) {
		logger.Fatalf("STRIP_PINS and STRIP_LENGTHS must be non-empty and the same length, got %v / %v",
			config.StripPins, config.StripLengths)
	}

	strips := make([]*penlight.Strip, 0, len(config.StripPins))
	for i, pin := range config.StripPins {
		strips = append(strips, penlight.NewStrip(pin, config.StripLengths[i], hw.NewPixelWriter(pin)))
		logger.With(zap.Int("pin", pin), zap.Int("leds", config.StripLengths[i])).Info("Initialized LED strip")
	}

	steps := []struct {
		name  string
		color penlight.Color
	}{
		{"red", penlight.Color{R: 255}},
		{"green", penlight.Color{G: 255}},
		{"blue", penlight.Color{B: 255}},
		{"white", penlight.Color{R: 255, G: 255, B: 255}},
		{"low white (wiring check)", penlight.Color{R: 10, G: 10, B: 10}},
	}
	for _, step := range steps {
		logger.With(zap.String("color", step.name)).Info("All strips")
		fillAll(strips, step.color)
		time.Sleep(config.StepDelay)
	}

	logger.Info("Chase: one pixel at a time per strip")
	for si, strip := range strips {
		for i := 0; i < strip.Len(); i++ {
			fillAll(strips, penlight.Black)
			strip.SetPixel(i, penlight.Color{R: 255, G: 255, B: 255})
			if err := strip.Flush(); err != nil {
				logger.With(zap.Int("strip", si), zap.Int("pixel", i), zap.Error(err)).Error("Write failed")
			}
			time.Sleep(config.ChaseDelay)
		}
	}

	fillAll(strips, penlight.Black)
	logger.Info("Strip test complete")
}

func fillAll(strips []*penlight.Strip, c penlight.Color) {
	for i, strip := range strips {
		if err := strip.Fill(c); err != nil {
			logger.With(zap.Int("strip", i), zap.Error(err)).Error("Write failed")
		}
	}
}
