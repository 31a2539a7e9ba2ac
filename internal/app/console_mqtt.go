package app

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/relabs-tech/shakaar/internal/config"
	"github.com/relabs-tech/shakaar/internal/telemetry"
)

func RunConsoleMQTT() error {
	cfg := config.Get()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.With("console")

	client, err := telemetry.Subscribe(cfg.MQTTBroker, cfg.MQTTClientIDConsole, cfg.TopicTelemetry, log,
		func(s telemetry.Sample) {
			fmt.Println(formatSample(s))
		})
	if err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Infof("shutting down")
	client.Disconnect(250)
	return nil
}

func formatSample(s telemetry.Sample) string {
	mode := "INERT"
	if s.State.Live {
		mode = "LIVE "
	}
	line := fmt.Sprintf(
		"[%s] %s yaw=%5.2f thr=%5.2f  raw=%4d %4d  out=%7.2f %7.2f  gain=%5.2f %5.2f",
		s.Variant, mode, s.Yaw, s.Throttle, s.Raw.Left, s.Raw.Right,
		s.GearedLeft, s.GearedRight, s.State.LeftGain, s.State.RightGain,
	)
	if len(s.Fired) > 0 {
		line += "  fired=" + strings.Join(s.Fired, ",")
	}
	if s.Event != "" {
		line += "  event=" + s.Event
	}
	return line
}
