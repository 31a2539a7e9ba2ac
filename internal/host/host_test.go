package host

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/relabs-tech/shakaar/internal/logging"
)

func TestExecSplitsCommand(t *testing.T) {
	var gotName string
	var gotArgs []string
	e := NewExec("/usr/bin/sudo /sbin/shutdown -h now", "/usr/bin/sudo  /sbin/shutdown -r now", logging.Discard())
	e.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte("ok\n"), nil
	}

	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotName != "/usr/bin/sudo" || !reflect.DeepEqual(gotArgs, []string{"/sbin/shutdown", "-h", "now"}) {
		t.Errorf("shutdown: got %s %v", gotName, gotArgs)
	}

	if err := e.Reboot(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gotArgs, []string{"/sbin/shutdown", "-r", "now"}) {
		t.Errorf("reboot: got %v", gotArgs)
	}
}

func TestExecErrors(t *testing.T) {
	boom := errors.New("exit status 1")
	e := NewExec("", "reboot", logging.Discard())
	e.run = func(context.Context, string, ...string) ([]byte, error) { return nil, boom }

	if err := e.Shutdown(context.Background()); err == nil {
		t.Error("expected error for empty command")
	}
	if err := e.Reboot(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
