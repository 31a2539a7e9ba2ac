// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/shakaar/internal/config"
	"github.com/relabs-tech/shakaar/internal/controller"
	"github.com/relabs-tech/shakaar/internal/drive"
	"github.com/relabs-tech/shakaar/internal/host"
	"github.com/relabs-tech/shakaar/internal/motor"
	"github.com/relabs-tech/shakaar/internal/teleop"
)

// RunMockConsole drives a scripted session against the log sink, so the
// whole loop can be watched on a bench without a controller or a motor
// board. Samples are published when a broker is configured.
func RunMockConsole() error {
	cfg := config.Get()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.With("console")

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub := openPublisher(cfg, cfg.MQTTClientIDConsole, logger)
	defer pub.Close()

	script := controller.NewScripted(demoScript(policy, cfg.YawAxis, cfg.ThrottleAxis)...)
	loop := teleop.New(loopConfig(cfg, policy), drive.NewTrim(policy),
		motor.NewLogSink(logger.With("motor")), host.Nop{Log: logger.With("host")}, pub, log)

	res, err := loop.Drive(ctx, script)
	if err != nil {
		return err
	}
	st := loop.Trim().State()
	log.Infof("session over after %d ticks (terminated %v), gains left %.2f right %.2f",
		res.Ticks, res.Terminated, st.LeftGain, st.RightGain)
	return nil
}

// demoScript exercises the policy's own bindings: go live if needed,
// drive forward, trim up, turn, trim down, reverse, then terminate. The
// sticks are written to the configured yaw and throttle axes.
func demoScript(p drive.Policy, yawAxis, throttleAxis string) []controller.Frame {
	combo := func(e drive.Effect) []string {
		for _, b := range p.Bindings {
			if b.Effect == e {
				return b.Buttons
			}
		}
		return nil
	}
	hold := func(n int, yaw, throttle float64) []controller.Frame {
		out := make([]controller.Frame, n)
		for i := range out {
			out[i] = controller.Frame{Axes: map[string]float64{yawAxis: yaw, throttleAxis: throttle}}
		}
		return out
	}
	press := func(e drive.Effect, yaw, throttle float64) controller.Frame {
		f := hold(1, yaw, throttle)[0]
		f.Presses = combo(e)
		return f
	}

	var frames []controller.Frame
	if p.SafetyMode && !p.StartLive {
		frames = append(frames, press(drive.EffectToggleLive, 0, 0))
	}
	frames = append(frames, hold(10, 0, 1)...)
	frames = append(frames, press(drive.EffectTrimUp, 0, 1))
	frames = append(frames, hold(10, 0.5, 0.5)...)
	frames = append(frames, press(drive.EffectTrimDown, 0, 0))
	frames = append(frames, hold(10, 0, -1)...)
	frames = append(frames, press(drive.EffectTerminate, 0, 0))
	return frames
}
