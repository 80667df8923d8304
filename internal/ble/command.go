package ble

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a decoded control-characteristic command. The variants
// below are the full grammar accepted from the client app.
type Command interface {
	isCommand()
}

// AutoCommand starts the animation with the given pattern number.
// Wire form: "AUTO:<n>".
type AutoCommand struct {
	Pattern int
}

// StopCommand stops the animation. Wire form: "STOP".
type StopCommand struct{}

// ClearCommand stops the animation and turns the LEDs off. Wire form:
// "CLEAR".
type ClearCommand struct{}

// MusicCommand sets the output brightness, clamped to [0,255]. Wire
// form: "MUSIC:<n>".
type MusicCommand struct {
	Brightness uint8
}

func (AutoCommand) isCommand()  {}
func (StopCommand) isCommand()  {}
func (ClearCommand) isCommand() {}
func (MusicCommand) isCommand() {}

// ParseCommand decodes a trimmed control payload. Unknown verbs and
// malformed integer arguments come back as errors; the caller decides
// what to do with them (the service logs and ignores).
func ParseCommand(s string) (Command, error) {
	s = strings.TrimSpace(s)

	switch {
	case s == "STOP":
		return StopCommand{}, nil
	case s == "CLEAR":
		return ClearCommand{}, nil
	case strings.HasPrefix(s, "AUTO:"):
		arg := strings.TrimPrefix(s, "AUTO:")
		pattern, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("AUTO: bad pattern number %q: %w", arg, err)
		}
		return AutoCommand{Pattern: pattern}, nil
	case strings.HasPrefix(s, "MUSIC:"):
		arg := strings.TrimPrefix(s, "MUSIC:")
		brightness, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("MUSIC: bad brightness %q: %w", arg, err)
		}
		if brightness < 0 {
			brightness = 0
		} else if brightness > 255 {
			brightness = 255
		}
		return MusicCommand{Brightness: uint8(brightness)}, nil
	}

	return nil, fmt.Errorf("unknown command %q", s)
}
