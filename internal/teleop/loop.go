// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package teleop runs the control loop: sample the controller, mix the
// sticks into wheel power, apply the gearbox and drive the motors, then act
// on button combinations.
package teleop

import (
	"context"
	"errors"
	"time"

	"github.com/relabs-tech/shakaar/internal/controller"
	"github.com/relabs-tech/shakaar/internal/drive"
	"github.com/relabs-tech/shakaar/internal/host"
	"github.com/relabs-tech/shakaar/internal/logging"
	"github.com/relabs-tech/shakaar/internal/motor"
	"github.com/relabs-tech/shakaar/internal/telemetry"
)

type Config struct {
	YawAxis      string
	ThrottleAxis string
	MaxPower     int
	Tick         time.Duration
	RetryDelay   time.Duration
}

// Opener binds a controller. It returns controller.ErrUnavailable (or any
// other error) when none is present yet.
type Opener func() (controller.Provider, error)

// Result describes why Run or Drive returned.
type Result struct {
	Terminated bool
	Cancelled  bool
	Ticks      int
}

type Loop struct {
	cfg  Config
	trim *drive.Trim
	sink motor.Sink
	host host.Commander
	pub  telemetry.Publisher
	log  *logging.Logger

	// halted is set once the motors have been stopped and cleared by the
	// next power command, so every exit path stops them exactly once.
	halted bool
}

func New(cfg Config, trim *drive.Trim, sink motor.Sink, cmd host.Commander, pub telemetry.Publisher, log *logging.Logger) *Loop {
	if pub == nil {
		pub = telemetry.Nop{}
	}
	return &Loop{cfg: cfg, trim: trim, sink: sink, host: cmd, pub: pub, log: log}
}

func (l *Loop) Trim() *drive.Trim { return l.trim }

// Run binds a controller and drives until a terminate binding fires or ctx
// is cancelled. A lost controller stops the motors, then Run waits
// RetryDelay and tries to bind again.
func (l *Loop) Run(ctx context.Context, open Opener) (Result, error) {
	var total Result
	waiting := false
	for {
		if ctx.Err() != nil {
			l.halt("cancelled")
			total.Cancelled = true
			return total, nil
		}

		p, err := open()
		if err != nil {
			if !waiting {
				l.log.Infof("no controller found, retrying every %v: %v", l.cfg.RetryDelay, err)
				waiting = true
			} else {
				l.log.Debugf("still no controller: %v", err)
			}
			select {
			case <-ctx.Done():
			case <-time.After(l.cfg.RetryDelay):
			}
			continue
		}
		waiting = false

		l.log.Infof("bound to controller %s", p.Name())
		l.publish(p.Name(), 0, 0, drive.PowerPair{}, 0, 0, nil, drive.Outcome{}, telemetry.EventConnect)
		res, err := l.Drive(ctx, p)
		p.Close()
		total.Ticks += res.Ticks

		switch {
		case res.Terminated:
			total.Terminated = true
			return total, nil
		case res.Cancelled:
			total.Cancelled = true
			return total, nil
		case errors.Is(err, controller.ErrDisconnected):
			l.log.Warnf("controller disconnected, waiting for it to come back")
		case err != nil:
			return total, err
		}
	}
}

// Drive runs ticks against a bound controller until it disconnects, a
// terminate binding fires or ctx is cancelled. The motors are stopped once
// on every exit.
func (l *Loop) Drive(ctx context.Context, p controller.Provider) (Result, error) {
	var res Result
	ticker := time.NewTicker(l.cfg.Tick)
	defer ticker.Stop()

	for {
		if err := p.Poll(); err != nil {
			l.halt("controller lost")
			l.publish(p.Name(), 0, 0, drive.PowerPair{}, 0, 0, nil, drive.Outcome{}, telemetry.EventDisconnect)
			return res, err
		}

		out := l.Step(ctx, p)
		res.Ticks++
		if out.Terminate {
			l.stop("terminate")
			res.Terminated = true
			return res, nil
		}

		select {
		case <-ctx.Done():
			l.halt("cancelled")
			res.Cancelled = true
			return res, nil
		case <-ticker.C:
		}
	}
}

// Step runs one tick on an already polled controller and returns the
// outcome of the button bindings.
func (l *Loop) Step(ctx context.Context, p controller.Provider) drive.Outcome {
	yaw, throttle := p.Axes(l.cfg.YawAxis, l.cfg.ThrottleAxis)
	raw := drive.Mix(yaw, throttle, l.cfg.MaxPower)
	left, right := l.trim.ApplyGain(raw)

	if l.trim.Live() {
		if err := l.sink.SetPower(left, right); err != nil {
			l.log.Errorf("set power: %v", err)
		}
		l.halted = false
	} else {
		l.log.Debugf("inert: would set power left %.3f right %.3f", left, right)
	}

	presses := p.Presses()
	if len(presses) > 0 {
		l.log.Debugf("presses: %v", presses.Names())
	}
	wasLive := l.trim.Live()
	out := l.trim.HandleEvents(presses)
	if wasLive && !l.trim.Live() && !out.Terminate {
		l.halt("inert")
	}
	for _, e := range out.Fired {
		l.log.Debugf("binding fired: %s", e)
	}
	if len(out.Fired) > 0 {
		st := l.trim.State()
		l.log.Infof("gains left %.2f right %.2f live %v", st.LeftGain, st.RightGain, st.Live)
	}

	event := ""
	if out.Terminate {
		event = telemetry.EventTerminate
	}
	for _, r := range out.Requests {
		if r == drive.EffectStopMotors {
			event = telemetry.EventStop
		}
		l.request(ctx, r)
	}
	l.publish(p.Name(), yaw, throttle, raw, left, right, presses.Names(), out, event)
	return out
}

func (l *Loop) request(ctx context.Context, e drive.Effect) {
	var err error
	switch e {
	case drive.EffectStopMotors:
		l.log.Infof("stop motors requested")
		err = l.sink.Stop()
	case drive.EffectShutdown:
		l.log.Infof("shutdown requested")
		err = l.host.Shutdown(ctx)
	case drive.EffectReboot:
		l.log.Infof("reboot requested")
		err = l.host.Reboot(ctx)
	default:
		l.log.Warnf("ignoring request %s", e)
	}
	if err != nil {
		l.log.Errorf("%s: %v", e, err)
	}
}

// halt stops the motors unless nothing has been sent since the last stop.
func (l *Loop) halt(reason string) {
	if l.halted {
		return
	}
	l.stop(reason)
}

// stop always reaches the sink. Terminate uses it so the final stop is
// issued even when the motors are believed to be idle.
func (l *Loop) stop(reason string) {
	l.halted = true
	l.log.Infof("stopping motors: %s", reason)
	if err := l.sink.Stop(); err != nil {
		l.log.Errorf("stop motors: %v", err)
	}
}

func (l *Loop) publish(ctrl string, yaw, throttle float64, raw drive.PowerPair, left, right float64, presses []string, out drive.Outcome, event string) {
	s := telemetry.Sample{
		Variant:     l.trim.Policy().Name,
		Controller:  ctrl,
		Sink:        l.sink.Name(),
		Yaw:         yaw,
		Throttle:    throttle,
		Raw:         raw,
		GearedLeft:  left,
		GearedRight: right,
		State:       l.trim.State(),
		Presses:     presses,
		Event:       event,
	}
	for _, e := range out.Fired {
		s.Fired = append(s.Fired, e.String())
	}
	l.pub.Publish(s)
}
