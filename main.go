package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"tinygo.org/x/bluetooth"

	"github.com/colorlight/penlight/internal/ble"
	"github.com/colorlight/penlight/internal/hw"
	"github.com/colorlight/penlight/internal/logging"
	"github.com/colorlight/penlight/internal/penlight"
)

var (
	logger = logging.New("main")
	config = PenlightConfig{}
)

type PenlightConfig struct {
	StripPins    []int         `env:"STRIP_PINS" envDefault:"6,7" envSeparator:","`
	StripLengths []int         `env:"STRIP_LENGTHS" envDefault:"8,8" envSeparator:","`
	DeviceName   string        `env:"DEVICE_NAME" envDefault:"Colorlight"`
	DeviceID     int           `env:"DEVICE_ID" envDefault:"1"`
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"100ms"`
	SelfTest     bool          `env:"SELF_TEST" envDefault:"true"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	defer logger.Sync()

	err := env.Parse(&config)
	if err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to parse environment variables")
	}
	if level, levelErr := zapcore.ParseLevel(config.LogLevel); levelErr == nil {
		logging.SetAllLevels(level)
	} else {
		logger.With(zap.String("LOG_LEVEL", config.LogLevel)).Warn("Unknown log level, staying at info")
	}
	if len(config.StripPins) == 0 || len(config.StripPins) != len(config.StripLengths) {
		logger.Fatalf("STRIP_PINS and STRIP_LENGTHS must be non-empty and the same length, got %v / %v",
			config.StripPins, config.StripLengths)
	}
	if config.DeviceID < 1 || config.DeviceID > 99 {
		logger.Fatalf("DEVICE_ID must be between 1 and 99, got %d", config.DeviceID)
	}

	logger.With(zap.Any("config", config)).Info("Starting penlight controller")
	logger.Info("Adjust STRIP_PINS / STRIP_LENGTHS to match the wired LED strips.")
	logger.Info("Adjust DEVICE_ID (1-99) so multiple penlights advertise distinct names.")
	logger.Info("Press Ctrl+C to stop")

	strips := make([]*penlight.Strip, 0, len(config.StripPins))
	for i, pin := range config.StripPins {
		strips = append(strips, penlight.NewStrip(pin, config.StripLengths[i], hw.NewPixelWriter(pin)))
		logger.With(zap.Int("pin", pin), zap.Int("leds", config.StripLengths[i])).Info("Initialized LED strip")
	}

	engine := penlight.NewEngine(strips)
	if err := engine.Clear(); err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to clear LED strips")
	}

	if config.SelfTest {
		selfTest(engine)
	} else {
		logger.Warn("SELF_TEST=false, skipping startup LED test")
	}

	service := ble.NewService(engine, ble.Config{
		DeviceName: config.DeviceName,
		DeviceID:   config.DeviceID,
	})
	if err := service.Start(bluetooth.DefaultAdapter); err != nil {
		logger.With(zap.Error(err)).Fatal("Failed to start BLE service")
	}
	logger.Info("Ready for connections")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		run(ctx, engine, service, config.TickInterval)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	logger.Info("Shutting down")
	cancel()
	<-done
	service.Stop()
}

// run is the cooperative loop. Each iteration the idle blink advances
// first, then the animation; a fault from either logs and backs off
// for a second instead of killing the loop. The LEDs are cleared on
// the way out.
func run(ctx context.Context, engine *penlight.Engine, service *ble.Service, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			if err := engine.Clear(); err != nil {
				logger.With(zap.Error(err)).Error("Failed to clear LEDs during shutdown")
			}
			return
		default:
			now := penlight.Ticks()
			if err := service.AdvanceBlink(now); err != nil {
				logger.With(zap.Error(err)).Error("Idle blink tick failed")
				time.Sleep(time.Second)
				continue
			}
			if err := engine.Advance(now); err != nil {
				logger.With(zap.Error(err)).Error("Pattern tick failed")
				time.Sleep(time.Second)
				continue
			}
			time.Sleep(interval)
		}
	}
}

// selfTest runs the fixed startup sequence: all strips red, green,
// blue, then each strip white on its own, then off. It proves the
// wiring before the radio comes up.
func selfTest(engine *penlight.Engine) {
	logger.Info("Testing all strips together")
	for _, c := range []penlight.Color{{R: 255}, {G: 255}, {B: 255}} {
		if err := engine.SetColor(c); err != nil {
			logger.With(zap.Error(err)).Error("Self-test color write failed")
		}
		time.Sleep(500 * time.Millisecond)
	}

	logger.Info("Testing each strip individually")
	for i := 0; i < engine.StripCount(); i++ {
		if err := engine.Clear(); err != nil {
			logger.With(zap.Error(err)).Error("Self-test clear failed")
		}
		if err := engine.SetStripColor(i, penlight.Color{R: 255, G: 255, B: 255}); err != nil {
			logger.With(zap.Int("strip", i), zap.Error(err)).Error("Self-test strip write failed")
		}
		time.Sleep(500 * time.Millisecond)
	}

	if err := engine.Clear(); err != nil {
		logger.With(zap.Error(err)).Error("Self-test final clear failed")
	}
}
