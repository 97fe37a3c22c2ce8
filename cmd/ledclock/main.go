// Command ledclock shows the time on a chain of MAX7219 LED modules,
// synchronised over NTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/flavioheleno/max7219"
	"github.com/flavioheleno/max7219/clock"
	"github.com/flavioheleno/max7219/compositor"
	"github.com/flavioheleno/max7219/internal/config"
	"github.com/flavioheleno/max7219/internal/logging"
	"github.com/flavioheleno/max7219/ntp"
	"github.com/flavioheleno/max7219/preview"
	"github.com/flavioheleno/max7219/provision"
	"github.com/flavioheleno/max7219/settings"
	"github.com/flavioheleno/max7219/timekeeper"
)

var (
	configPath = flag.String("config", "", "Path to the YAML config file")
	previewOn  = flag.Bool("preview", false, "Draw on the terminal instead of the LED matrix")
)

// display is a matrix that can be switched off on exit.
type display interface {
	clock.Matrix
	Halt() error
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledclock: %v\n", err)
		os.Exit(2)
	}
	if *previewOn {
		cfg.Display.Preview = true
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err := run(cfg, logger); err != nil {
		logger.Error("ledclock failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := &settings.FileStore{Path: cfg.Settings.Path}
	rs, err := settings.Load(store, logger)
	if err != nil {
		logger.Warn("could not write default settings", "error", err)
	}

	pctx, cancel := context.WithTimeout(ctx, cfg.Provision.Timeout)
	rs, err = provision.Run(pctx, provision.Static{Params: cfg.Provision.Params}, provision.NewSession(store, logger), rs)
	cancel()
	if err != nil {
		return err
	}
	logger.Info("runtime settings", "settings", rs)

	dev, closeBus, err := openDisplay(cfg.Display, logger)
	if err != nil {
		return err
	}
	defer closeBus.Close()
	defer func() {
		if err := dev.Halt(); err != nil {
			logger.Warn("halt display", "error", err)
		}
	}()

	ticks := timekeeper.NewMonotonic()
	keeper := timekeeper.New(ticks)
	source := ntp.New(cfg.NTP.Server, cfg.NTP.Timeout)

	bopts := clock.DefaultBootstrapOptions()
	bopts.Attempts = cfg.NTP.Attempts
	bopts.Deadline = cfg.NTP.Bootstrap
	if err := clock.Bootstrap(ctx, keeper, source, bopts, logger); err != nil {
		return err
	}

	opts := clock.Options{
		FrameDelay:     cfg.Loop.FrameDelay,
		Blink:          cfg.Loop.Blink,
		StatusInterval: cfg.Loop.StatusInterval,
		ScrollStep:     cfg.Loop.ScrollStep,
		StatusHold:     cfg.Loop.StatusHold,
		ResyncEvery:    cfg.Loop.ResyncEvery,
	}
	width := cfg.Display.Panels * 8
	st := clock.NewState(rs, keeper, compositor.New(cfg.Display.Panels, compositor.DefaultLayout(width)), opts, ticks.Millis())
	// Bootstrap took the first anchor.
	st.ResyncCountdown = opts.ResyncEvery

	return clock.NewLoop(st, dev, source, ticks, opts, logger).Run(ctx)
}

// openDisplay returns the terminal preview or the SPI chain. The returned
// closer releases the bus.
func openDisplay(cfg config.DisplayConfig, logger *slog.Logger) (display, io.Closer, error) {
	if cfg.Preview {
		logger.Info("using terminal preview")
		return preview.New(os.Stdout), portCloser{}, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("initialize periph.io: %w", err)
	}
	b, err := spireg.Open(cfg.SPI)
	if err != nil {
		return nil, nil, fmt.Errorf("open SPI bus: %w", err)
	}

	opts := &max7219.Opts{Panels: cfg.Panels, Rotated: cfg.Rotated}
	if cfg.CS != "" {
		pin := gpioreg.ByName(cfg.CS)
		if pin == nil {
			b.Close()
			return nil, nil, errors.New("chip select pin " + cfg.CS + " not found")
		}
		opts.CS = gpio.PinOut(pin)
	}

	dev, err := max7219.NewSPI(b, opts)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	logger.Info("display initialized", "device", dev.String(), "bus", b.String())
	return dev, portCloser{b}, nil
}

type portCloser struct{ p spi.PortCloser }

func (c portCloser) Close() error {
	if c.p == nil {
		return nil
	}
	return c.p.Close()
}
