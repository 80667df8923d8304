package penlight

import (
	"errors"
	"sync"
)

// Pattern numbers as used on the wire by the AUTO:<n> command.
const (
	PatternCycle     = 1 // seven colors in sequence, 1s apart
	PatternBlink     = 2 // seven colors, lit then dark, 1s apart
	PatternRainbow   = 3 // 96-step hue sweep, 0.5s apart
	PatternAlternate = 4 // strips lit alternately, 1s apart
)

var ErrUnknownPattern = errors.New("penlight: unknown pattern number")

const (
	rainbowIntervalMS = 500
	defaultIntervalMS = 1000
)

// Engine owns the LED strips and the animation state machine. Every
// public operation leaves the physical LEDs consistent with the
// engine's state before it returns.
//
// All state is guarded by one mutex so that BLE event callbacks and
// the polling loop serialize against each other.
type Engine struct {
	mu sync.Mutex

	strips     []*Strip
	current    Color
	autoMode   bool
	pattern    int
	index      uint32
	lastUpdate uint32
	brightness uint8

	palette  []Color
	gradient []Color
}

func NewEngine(strips []*Strip) *Engine {
	return &Engine{
		strips:     strips,
		pattern:    PatternCycle,
		brightness: 255,
		palette:    Palette,
		gradient:   RainbowGradient(GradientSteps),
	}
}

func (e *Engine) StripCount() int {
	return len(e.strips)
}

// SetColor writes c to every LED of every strip and records it as the
// current whole-device color.
func (e *Engine) SetColor(c Color) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setColorLocked(c)
}

// SetStripColor writes c to every LED of the strip at index i, leaving
// the other strips and the whole-device current color alone. An index
// outside [0, StripCount) is a no-op.
func (e *Engine) SetStripColor(i int, c Color) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setStripColorLocked(i, c)
}

// Clear turns every LED off.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setColorLocked(Black)
}

// StartAutoMode arms the animation state machine with the given
// pattern. Nothing is rendered until the pattern's interval has
// elapsed on a subsequent Advance. Pattern numbers outside the known
// set are rejected and leave the engine untouched.
func (e *Engine) StartAutoMode(pattern int, now uint32) error {
	if pattern < PatternCycle || pattern > PatternAlternate {
		return ErrUnknownPattern
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoMode = true
	e.pattern = pattern
	e.index = 0
	e.lastUpdate = now
	return nil
}

// StopAutoMode disarms the animation and turns all LEDs off. Safe to
// call when auto mode is already off.
func (e *Engine) StopAutoMode() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoMode = false
	return e.setColorLocked(Black)
}

// SetBrightness scales subsequent hardware writes by b/255. The
// current color reported to readers stays the unscaled RGB value.
func (e *Engine) SetBrightness(b uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.brightness = b
}

// Advance performs at most one pattern step. It is a no-op unless auto
// mode is on and the pattern's interval has elapsed since the last
// step, measured with wraparound-safe tick arithmetic.
func (e *Engine) Advance(now uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.autoMode {
		return nil
	}

	interval := int32(defaultIntervalMS)
	if e.pattern == PatternRainbow {
		interval = rainbowIntervalMS
	}
	if TicksDiff(now, e.lastUpdate) < interval {
		return nil
	}

	var err error
	switch e.pattern {
	case PatternCycle:
		err = e.setColorLocked(e.palette[e.index])
		e.index = (e.index + 1) % uint32(len(e.palette))
	case PatternBlink:
		if e.index%2 == 0 {
			err = e.setColorLocked(e.palette[(e.index/2)%uint32(len(e.palette))])
		} else {
			err = e.setColorLocked(Black)
		}
		e.index++
	case PatternRainbow:
		err = e.setColorLocked(e.gradient[e.index])
		e.index = (e.index + 1) % uint32(len(e.gradient))
	case PatternAlternate:
		c := e.palette[(e.index/2)%uint32(len(e.palette))]
		for i := range e.strips {
			var stripErr error
			if (e.index+uint32(i))%2 == 0 {
				stripErr = e.setStripColorLocked(i, c)
			} else {
				stripErr = e.setStripColorLocked(i, Black)
			}
			if err == nil {
				err = stripErr
			}
		}
		e.index++
	}

	e.lastUpdate = now
	return err
}

func (e *Engine) CurrentColor() Color {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Engine) AutoMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoMode
}

func (e *Engine) PatternType() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pattern
}

func (e *Engine) setColorLocked(c Color) error {
	e.current = c
	scaled := c.Scale(e.brightness)
	var err error
	for _, strip := range e.strips {
		if fillErr := strip.Fill(scaled); fillErr != nil && err == nil {
			err = fillErr
		}
	}
	return err
}

func (e *Engine) setStripColorLocked(i int, c Color) error {
	if i < 0 || i >= len(e.strips) {
		return nil
	}
	return e.strips[i].Fill(c.Scale(e.brightness))
}
