// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motor

import (
	"context"
	"errors"
	"fmt"

	"github.com/relabs-tech/shakaar/internal/config"
	"github.com/relabs-tech/shakaar/internal/logging"
)

// Opener opens one named backend.
type Opener func(ctx context.Context, cfg *config.Config, scale float64) (Sink, error)

// Backends maps actuator names (the ACTUATORS config key) to openers.
var Backends = map[string]Opener{
	"thunderborg": func(_ context.Context, cfg *config.Config, scale float64) (Sink, error) {
		return OpenThunderBorg(cfg.ThunderBorgI2CBus, cfg.ThunderBorgI2CAddr, scale)
	},
	"redboard": func(_ context.Context, cfg *config.Config, scale float64) (Sink, error) {
		return OpenRedBoard(RedBoardPins{
			M1PWM: cfg.RedBoardM1PWMPin, M1Dir: cfg.RedBoardM1DirPin,
			M2PWM: cfg.RedBoardM2PWMPin, M2Dir: cfg.RedBoardM2DirPin,
		}, cfg.RedBoardPWMFreqHz, scale)
	},
	"sabertooth": func(_ context.Context, cfg *config.Config, scale float64) (Sink, error) {
		return OpenSabertooth(cfg.SabertoothSerialPort, cfg.SabertoothBaudRate, cfg.SabertoothAddress, scale)
	},
	"canbus": func(ctx context.Context, cfg *config.Config, scale float64) (Sink, error) {
		return OpenCANBus(ctx, cfg.CANInterface, cfg.CANFrameID, scale)
	},
}

// Open tries each named backend in order and returns the first that
// answers. A board that is absent is skipped; any other failure aborts.
// If nothing answers, or the name "log" is reached, the log sink is used.
func Open(ctx context.Context, names []string, cfg *config.Config, scale float64, log *logging.Logger) (Sink, error) {
	return open(ctx, names, Backends, cfg, scale, log)
}

func open(ctx context.Context, names []string, backends map[string]Opener, cfg *config.Config, scale float64, log *logging.Logger) (Sink, error) {
	for _, name := range names {
		if name == "log" {
			break
		}
		opener, ok := backends[name]
		if !ok {
			return nil, fmt.Errorf("motor: unknown actuator %q", name)
		}
		sink, err := opener(ctx, cfg, scale)
		if err == nil {
			log.Infof("using %s motor driver", sink.Name())
			return sink, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		log.Warnf("%v", err)
	}
	log.Warnf("no motor driver found, printing motor commands instead")
	return NewLogSink(log), nil
}
