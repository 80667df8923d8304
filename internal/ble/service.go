package ble

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/colorlight/penlight/internal/logging"
	"github.com/colorlight/penlight/internal/penlight"
)

var logger = logging.New("ble")

var (
	serviceUUID = mustUUID("12345678-1234-1234-1234-123456789abc")
	colorUUID   = mustUUID("12345678-1234-1234-1234-123456789abd")
	controlUUID = mustUUID("12345678-1234-1234-1234-123456789abe")
)

func mustUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic("ble: bad UUID literal " + s + ": " + err.Error())
	}
	return u
}

// Idle blink phases: mostly dark with a short blue flash, so an
// unconnected, idle penlight is findable without draining the battery.
const (
	blinkDarkMS = 4900
	blinkLitMS  = 100
)

var blinkColor = penlight.Color{B: 255}

type Config struct {
	DeviceName string
	DeviceID   int
}

// Service is the GATT peripheral: one custom service with a color
// characteristic (raw RGB bytes) and a control characteristic (ASCII
// commands). It owns the connection set and the idle blink, and it is
// the only caller of the engine besides the polling loop.
type Service struct {
	cfg    Config
	engine *penlight.Engine

	adapter   *bluetooth.Adapter
	adv       *bluetooth.Advertisement
	colorChar bluetooth.Characteristic
	ctrlChar  bluetooth.Characteristic

	mu          sync.Mutex
	connections map[string]struct{}
	blinkLit    bool
	lastToggle  uint32
}

func NewService(engine *penlight.Engine, cfg Config) *Service {
	return &Service{
		cfg:         cfg,
		engine:      engine,
		connections: make(map[string]struct{}),
	}
}

// Start brings up the BLE stack, registers the GATT service and begins
// advertising. The adapter callbacks feed Handle, so after Start
// returns the peripheral is live.
func (s *Service) Start(adapter *bluetooth.Adapter) error {
	s.adapter = adapter

	adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		addr := device.Address.String()
		if connected {
			s.Handle(Connected{Addr: addr})
		} else {
			s.Handle(Disconnected{Addr: addr})
		}
	})

	if err := adapter.Enable(); err != nil {
		return fmt.Errorf("enable BLE stack: %w", err)
	}

	err := adapter.AddService(&bluetooth.Service{
		UUID: serviceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &s.colorChar,
				UUID:   colorUUID,
				Value:  []byte{0, 0, 0},
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicWritePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					if offset != 0 {
						return
					}
					s.Handle(Written{Char: CharColor, Data: value})
				},
			},
			{
				Handle: &s.ctrlChar,
				UUID:   controlUUID,
				Value:  []byte{},
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicWritePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					if offset != 0 {
						return
					}
					s.Handle(Written{Char: CharControl, Data: value})
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("add GATT service: %w", err)
	}

	s.adv = adapter.DefaultAdvertisement()
	if err := s.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    s.localName(),
		ServiceUUIDs: []bluetooth.UUID{serviceUUID},
		Interval:     bluetooth.NewDuration(100 * time.Millisecond),
	}); err != nil {
		return fmt.Errorf("configure advertisement: %w", err)
	}
	if err := s.adv.Start(); err != nil {
		return fmt.Errorf("start advertising: %w", err)
	}

	s.mu.Lock()
	s.lastToggle = penlight.Ticks()
	s.mu.Unlock()

	logger.With(zap.String("localName", s.localName())).Info("Advertising")
	return nil
}

// Stop ends advertising. LED cleanup is the loop's job.
func (s *Service) Stop() {
	if s.adv == nil {
		return
	}
	if err := s.adv.Stop(); err != nil {
		logger.With(zap.Error(err)).Warn("Failed to stop advertising")
	}
}

func (s *Service) localName() string {
	return fmt.Sprintf("%s-%d", s.cfg.DeviceName, s.cfg.DeviceID)
}

// Handle dispatches one BLE host event. Events and blink ticks
// serialize on the service mutex, so at most one of them mutates state
// at a time.
func (s *Service) Handle(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev := ev.(type) {
	case Connected:
		s.connections[ev.Addr] = struct{}{}
		// Whatever the idle blink left lit goes dark now.
		if err := s.engine.Clear(); err != nil {
			logger.With(zap.Error(err)).Error("Failed to clear LEDs on connect")
		}
		logger.With(zap.String("addr", ev.Addr)).Info("Device connected")

	case Disconnected:
		delete(s.connections, ev.Addr)
		logger.With(zap.String("addr", ev.Addr)).Info("Device disconnected")
		if len(s.connections) == 0 {
			if err := s.engine.StopAutoMode(); err != nil {
				logger.With(zap.Error(err)).Error("Failed to stop auto mode on disconnect")
			}
		}
		s.readvertise()

	case Written:
		switch ev.Char {
		case CharColor:
			s.handleColorWrite(ev.Data)
		case CharControl:
			s.handleControlWrite(ev.Data)
		}
	}
}

func (s *Service) handleColorWrite(value []byte) {
	// Shorter payloads are silently ignored.
	if len(value) < 3 {
		return
	}
	c := penlight.Color{R: value[0], G: value[1], B: value[2]}

	// Stop first so the next pattern tick cannot overwrite the manual
	// color.
	if err := s.engine.StopAutoMode(); err != nil {
		logger.With(zap.Error(err)).Error("Failed to stop auto mode")
	}
	if err := s.engine.SetColor(c); err != nil {
		logger.With(zap.Error(err)).Error("Failed to set color")
		return
	}
	logger.With(zap.Uint8("r", c.R), zap.Uint8("g", c.G), zap.Uint8("b", c.B)).Info("Color set")
}

func (s *Service) handleControlWrite(value []byte) {
	cmd, err := ParseCommand(string(value))
	if err != nil {
		logger.With(zap.Error(err)).Warn("Ignoring malformed command")
		return
	}
	s.apply(cmd)
}

func (s *Service) apply(cmd Command) {
	switch cmd := cmd.(type) {
	case AutoCommand:
		if err := s.engine.StartAutoMode(cmd.Pattern, penlight.Ticks()); err != nil {
			logger.With(zap.Int("pattern", cmd.Pattern), zap.Error(err)).Warn("Rejecting auto mode request")
			return
		}
		logger.With(zap.Int("pattern", cmd.Pattern)).Info("Auto mode started")

	case StopCommand:
		if err := s.engine.StopAutoMode(); err != nil {
			logger.With(zap.Error(err)).Error("Failed to stop auto mode")
			return
		}
		logger.Info("Auto mode stopped")

	case ClearCommand:
		if err := s.engine.StopAutoMode(); err != nil {
			logger.With(zap.Error(err)).Error("Failed to stop auto mode")
		}
		if err := s.engine.Clear(); err != nil {
			logger.With(zap.Error(err)).Error("Failed to clear LEDs")
			return
		}
		logger.Info("LEDs cleared")

	case MusicCommand:
		if err := s.engine.StopAutoMode(); err != nil {
			logger.With(zap.Error(err)).Error("Failed to stop auto mode")
		}
		s.engine.SetBrightness(cmd.Brightness)
		logger.With(zap.Uint8("brightness", cmd.Brightness)).Info("Music mode brightness set")
	}
}

// readvertise restarts advertising after a disconnect. Advertising is
// cheap, so it is restarted even while other centrals remain attached;
// the app may reconnect with a fresh handle at any time.
func (s *Service) readvertise() {
	if s.adv == nil {
		return
	}
	if err := s.adv.Start(); err != nil {
		logger.With(zap.Error(err)).Warn("Failed to restart advertising")
	}
}

// Connected reports whether at least one central is attached.
func (s *Service) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections) > 0
}

// ConnectionCount returns the number of attached centrals.
func (s *Service) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// AdvanceBlink runs the idle indicator: while unconnected and not
// animating, flash blue for 100ms out of every 5s. A no-op otherwise.
func (s *Service) AdvanceBlink(now uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.connections) > 0 || s.engine.AutoMode() {
		return nil
	}

	if s.blinkLit {
		if penlight.TicksDiff(now, s.lastToggle) >= blinkLitMS {
			s.blinkLit = false
			s.lastToggle = now
			return s.engine.Clear()
		}
		return nil
	}

	if penlight.TicksDiff(now, s.lastToggle) >= blinkDarkMS {
		s.blinkLit = true
		s.lastToggle = now
		return s.engine.SetColor(blinkColor)
	}
	return nil
}
