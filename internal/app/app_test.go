package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/shakaar/internal/controller"
	"github.com/relabs-tech/shakaar/internal/drive"
	"github.com/relabs-tech/shakaar/internal/host"
	"github.com/relabs-tech/shakaar/internal/logging"
	"github.com/relabs-tech/shakaar/internal/motor"
	"github.com/relabs-tech/shakaar/internal/telemetry"
	"github.com/relabs-tech/shakaar/internal/teleop"
)

func TestDemoScriptTerminates(t *testing.T) {
	for _, p := range []drive.Policy{drive.ThunderBorgPolicy(), drive.RedBoardPolicy()} {
		frames := demoScript(p, "rx", "ly")
		sink := motor.NewLogSink(logging.Discard())
		loop := teleop.New(teleop.Config{
			YawAxis:      "rx",
			ThrottleAxis: "ly",
			MaxPower:     p.MaxPower,
			Tick:         time.Millisecond,
		}, drive.NewTrim(p), sink, host.Nop{Log: logging.Discard()}, nil, logging.Discard())

		res, err := loop.Drive(context.Background(), controller.NewScripted(frames...))
		if err != nil {
			t.Fatalf("%s: %v", p.Name, err)
		}
		if !res.Terminated || res.Ticks != len(frames) {
			t.Errorf("%s: expected terminate on the last of %d frames, got %+v", p.Name, len(frames), res)
		}
		if !loop.Trim().Live() {
			t.Errorf("%s: expected the script to go live", p.Name)
		}
		if sink.Stops() != 1 {
			t.Errorf("%s: expected one stop, got %d", p.Name, sink.Stops())
		}
	}
}

func TestDemoScriptUsesConfiguredAxes(t *testing.T) {
	p := drive.ThunderBorgPolicy()
	sink := motor.NewLogSink(logging.Discard())
	loop := teleop.New(teleop.Config{
		YawAxis:      "lx",
		ThrottleAxis: "ry",
		MaxPower:     p.MaxPower,
		Tick:         time.Millisecond,
	}, drive.NewTrim(p), sink, host.Nop{Log: logging.Discard()}, nil, logging.Discard())

	script := controller.NewScripted(demoScript(p, "lx", "ry")...)
	if err := script.Poll(); err != nil {
		t.Fatal(err)
	}
	loop.Step(context.Background(), script)

	// Full throttle on the first frame at the default gains.
	if l, r := sink.Last(); l != -0.5 || r != 0.5 {
		t.Errorf("expected -0.5 0.5 on lx/ry, got %v %v", l, r)
	}
}

func TestFormatSample(t *testing.T) {
	s := telemetry.Sample{
		Variant: "redboard",
		Raw:     drive.PowerPair{Left: 100, Right: 33},
		State:   drive.State{LeftGain: 0.25, RightGain: 0.25},
		Fired:   []string{"toggle_live"},
	}
	line := formatSample(s)
	for _, want := range []string{"[redboard]", "INERT", " 100   33", "fired=toggle_live"} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in %q", want, line)
		}
	}
}

func TestStatusLines(t *testing.T) {
	if got := statusLines(telemetry.Sample{}, false); got[1] != "Waiting..." {
		t.Errorf("expected waiting screen, got %v", got)
	}
	s := telemetry.Sample{Variant: "thunderborg", Sink: "log", State: drive.State{Live: true}}
	if got := statusLines(s, true); got[0] != "thunderborg LIVE" || got[3] != "log" {
		t.Errorf("unexpected status %v", got)
	}
	s.Event = telemetry.EventTerminate
	if got := statusLines(s, true); got[0] != "thunderborg STOPPED" {
		t.Errorf("unexpected status %v", got)
	}
}

func TestRenderLinesDrawsPixels(t *testing.T) {
	img := renderLines([]string{"LIVE"})
	lit := 0
	for _, b := range img.Pix {
		if b != 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("expected text to light some pixels")
	}
	if blank := renderLines(nil); blank.Bounds().Dx() != displayW || blank.Bounds().Dy() != displayH {
		t.Errorf("unexpected bounds %v", blank.Bounds())
	}
}

type recordingBus struct {
	addrs []uint16
}

func (b *recordingBus) String() string                  { return "fake" }
func (b *recordingBus) SetSpeed(physic.Frequency) error { return nil }

func (b *recordingBus) Tx(addr uint16, w, r []byte) error {
	b.addrs = append(b.addrs, addr)
	return nil
}

func TestAddrBusRewritesAddress(t *testing.T) {
	inner := &recordingBus{}
	bus := &addrBus{Bus: inner, addr: 0x3D}
	bus.Tx(0x3C, []byte{0x00, 0xAE}, nil)
	bus.Tx(0x3C, []byte{0x40, 0xFF}, nil)

	if len(inner.addrs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(inner.addrs))
	}
	for i, a := range inner.addrs {
		if a != 0x3D {
			t.Errorf("tx %d: expected 0x3D, got 0x%02X", i, a)
		}
	}
	if bus.String() != "fake" {
		t.Errorf("expected the wrapped bus name, got %s", bus.String())
	}
}

func TestSampleHub(t *testing.T) {
	hub := newSampleHub()

	rec := httptest.NewRecorder()
	hub.handleLatest(rec, httptest.NewRequest(http.MethodGet, "/api/drive", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before data, got %d", rec.Code)
	}

	ch := hub.join()
	hub.update(telemetry.Sample{Variant: "redboard", GearedLeft: 25})
	select {
	case s := <-ch:
		if s.GearedLeft != 25 {
			t.Errorf("expected 25, got %v", s.GearedLeft)
		}
	default:
		t.Error("expected a sample on the client channel")
	}
	hub.leave(ch)

	rec = httptest.NewRecorder()
	hub.handleLatest(rec, httptest.NewRequest(http.MethodGet, "/api/drive", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"geared_left":25`) {
		t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
