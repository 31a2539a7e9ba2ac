package app

import (
	"fmt"
	"image"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/shakaar/internal/config"
	"github.com/relabs-tech/shakaar/internal/telemetry"
)

const (
	displayW = 128
	displayH = 64
)

// RunDisplay shows the drive status on the robot's SSD1306 panel.
func RunDisplay() error {
	cfg := config.Get()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.With("display")

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(&addrBus{Bus: bus, addr: cfg.DisplayI2CAddr}, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Infof("display initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := draw(dev, splashLines()); err != nil {
		log.Warnf("error showing splash: %v", err)
	}

	var (
		mu   sync.RWMutex
		last telemetry.Sample
		have bool
	)
	client, err := telemetry.Subscribe(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, cfg.TopicTelemetry, log,
		func(s telemetry.Sample) {
			mu.Lock()
			last, have = s, true
			mu.Unlock()
		})
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Infof("starting update loop")
	for {
		select {
		case <-sigCh:
			log.Infof("shutting down")
			return dev.Halt()
		case <-ticker.C:
		}
		mu.RLock()
		s, ok := last, have
		mu.RUnlock()
		if err := draw(dev, statusLines(s, ok)); err != nil {
			log.Warnf("error updating display: %v", err)
		}
	}
}

// addrBus sends every transaction to one fixed address. The ssd1306 driver
// always talks to 0x3C; panels strapped to 0x3D need the rewrite.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b *addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

func splashLines() []string {
	return []string{"", "  Shakaar", "  waiting for", "  controller"}
}

// statusLines is what the panel shows for one sample; four rows of
// basicfont fit the 64-pixel height.
func statusLines(s telemetry.Sample, have bool) []string {
	if !have {
		return []string{"Drive", "Waiting..."}
	}
	mode := "INERT"
	if s.State.Live {
		mode = "LIVE"
	}
	switch s.Event {
	case telemetry.EventTerminate:
		mode = "STOPPED"
	case telemetry.EventDisconnect:
		mode = "NO PAD"
	}
	return []string{
		fmt.Sprintf("%s %s", s.Variant, mode),
		fmt.Sprintf("G L%5.2f R%5.2f", s.State.LeftGain, s.State.RightGain),
		fmt.Sprintf("P L%5.1f R%5.1f", s.GearedLeft, s.GearedRight),
		s.Sink,
	}
}

func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawBytes([]byte(line))
	}
	return img
}

func draw(dev *ssd1306.Dev, lines []string) error {
	return dev.Draw(dev.Bounds(), renderLines(lines), image.Point{})
}
