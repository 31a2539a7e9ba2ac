// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/shakaar/internal/config"
	"github.com/relabs-tech/shakaar/internal/controller"
	"github.com/relabs-tech/shakaar/internal/drive"
	"github.com/relabs-tech/shakaar/internal/host"
	"github.com/relabs-tech/shakaar/internal/logging"
	"github.com/relabs-tech/shakaar/internal/motor"
	"github.com/relabs-tech/shakaar/internal/telemetry"
	"github.com/relabs-tech/shakaar/internal/teleop"
)

// RunDrive is the robot's control loop: joystick in, motor board out.
func RunDrive() error {
	cfg := config.Get()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.With("drive")

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	log.Infof("variant %s, gains left %.2f right %.2f, live %v",
		policy.Name, policy.InitialLeft, policy.InitialRight, policy.StartLive || !policy.SafetyMode)
	for _, b := range policy.Bindings {
		log.Debugf("binding %s", b)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := motor.Open(ctx, cfg.ActuatorOrder(), cfg, policy.FullScale(), logger.With("motor"))
	if err != nil {
		return fmt.Errorf("motor: %w", err)
	}
	defer sink.Close()

	pub := openPublisher(cfg, cfg.MQTTClientIDDrive, logger)
	defer pub.Close()

	cmd := host.NewExec(cfg.ShutdownCommand, cfg.RebootCommand, logger.With("host"))

	zones := controller.Zones{Dead: cfg.DeadZone, Hot: cfg.HotZone}
	open := func() (controller.Provider, error) {
		var js *controller.Joystick
		var err error
		if cfg.JoystickIndex >= 0 {
			js, err = controller.Open(cfg.JoystickIndex, cfg.ControllerMapping, zones)
		} else {
			js, err = controller.Find(cfg.JoystickScan, cfg.ControllerMapping, zones)
		}
		if err != nil {
			return nil, err
		}
		return js, nil
	}

	loop := teleop.New(loopConfig(cfg, policy), drive.NewTrim(policy), sink, cmd, pub, log)
	res, err := loop.Run(ctx, open)
	if err != nil {
		return err
	}
	switch {
	case res.Terminated:
		log.Infof("terminated from controller after %d ticks", res.Ticks)
	case res.Cancelled:
		log.Infof("interrupted after %d ticks", res.Ticks)
	}
	return nil
}

func loopConfig(cfg *config.Config, p drive.Policy) teleop.Config {
	return teleop.Config{
		YawAxis:      cfg.YawAxis,
		ThrottleAxis: cfg.ThrottleAxis,
		MaxPower:     p.MaxPower,
		Tick:         time.Duration(cfg.TickInterval) * time.Millisecond,
		RetryDelay:   time.Duration(cfg.RetryInterval) * time.Millisecond,
	}
}

// openPublisher returns an MQTT publisher when a broker is configured. A
// broker that cannot be reached disables telemetry; it never stops driving.
func openPublisher(cfg *config.Config, clientID string, logger *logging.Logger) telemetry.Publisher {
	if cfg.MQTTBroker == "" {
		return telemetry.Nop{}
	}
	log := logger.With("telemetry")
	pub, err := telemetry.NewMQTT(cfg.MQTTBroker, clientID, cfg.TopicTelemetry,
		time.Duration(cfg.TelemetryInterval)*time.Millisecond, log)
	if err != nil {
		log.Warnf("telemetry disabled: %v", err)
		return telemetry.Nop{}
	}
	return pub
}
