// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package host runs the power commands bound to controller buttons.
package host

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/relabs-tech/shakaar/internal/logging"
)

// Commander shuts down or reboots the machine the robot runs on.
type Commander interface {
	Shutdown(ctx context.Context) error
	Reboot(ctx context.Context) error
}

// runner executes one command line and returns its combined output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Exec runs configured command lines such as
// "/usr/bin/sudo /sbin/shutdown -h now".
type Exec struct {
	ShutdownCommand string
	RebootCommand   string

	log *logging.Logger
	run runner
}

func NewExec(shutdownCmd, rebootCmd string, log *logging.Logger) *Exec {
	return &Exec{
		ShutdownCommand: shutdownCmd,
		RebootCommand:   rebootCmd,
		log:             log,
		run:             execRunner,
	}
}

func (e *Exec) Shutdown(ctx context.Context) error {
	return e.invoke(ctx, "shutdown", e.ShutdownCommand)
}
func (e *Exec) Reboot(ctx context.Context) error { return e.invoke(ctx, "reboot", e.RebootCommand) }

func (e *Exec) invoke(ctx context.Context, what, command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("host: %s: no command configured", what)
	}
	e.log.Infof("%s: running %q", what, command)
	out, err := e.run(ctx, fields[0], fields[1:]...)
	if len(out) > 0 {
		e.log.Infof("%s: %s", what, strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("host: %s: %w", what, err)
	}
	return nil
}

// Nop logs requests without acting on them, for bench sessions.
type Nop struct {
	Log *logging.Logger
}

func (n Nop) Shutdown(context.Context) error {
	n.Log.Infof("shutdown requested (ignored)")
	return nil
}

func (n Nop) Reboot(context.Context) error {
	n.Log.Infof("reboot requested (ignored)")
	return nil
}
