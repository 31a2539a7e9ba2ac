package motor

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"go.einride.tech/can"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/shakaar/internal/config"
	"github.com/relabs-tech/shakaar/internal/logging"
)

type fakeI2C struct {
	writes [][]byte
	reply  []byte
	err    error
}

func (f *fakeI2C) Tx(w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, append([]byte(nil), w...))
	copy(r, f.reply)
	return nil
}

func TestThunderBorgProbe(t *testing.T) {
	ok := newThunderBorg(&fakeI2C{reply: []byte{tbGetID, tbID}}, nil, 1)
	if err := ok.probe(); err != nil {
		t.Errorf("expected probe ok, got %v", err)
	}
	bad := newThunderBorg(&fakeI2C{reply: []byte{tbGetID, 0x42}}, nil, 1)
	if err := bad.probe(); err == nil {
		t.Error("expected probe error for wrong ID")
	}
}

func TestThunderBorgSetPower(t *testing.T) {
	dev := &fakeI2C{}
	tb := newThunderBorg(dev, nil, 1)
	if err := tb.SetPower(-0.5, 1.2); err != nil {
		t.Fatal(err)
	}
	want := [][]byte{{tbSetARev, 127}, {tbSetBFwd, 255}}
	if len(dev.writes) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(dev.writes))
	}
	for i := range want {
		if !bytes.Equal(dev.writes[i], want[i]) {
			t.Errorf("write %d: expected % X, got % X", i, want[i], dev.writes[i])
		}
	}

	tb.Stop()
	if last := dev.writes[len(dev.writes)-1]; !bytes.Equal(last, []byte{tbAllOff, 0}) {
		t.Errorf("stop: expected all off, got % X", last)
	}
}

func TestThunderBorgScale(t *testing.T) {
	dev := &fakeI2C{}
	tb := newThunderBorg(dev, nil, 100)
	tb.SetPower(100, -100)
	if dev.writes[0][1] != 255 || dev.writes[1][0] != tbSetBRev {
		t.Errorf("unexpected writes % X", dev.writes)
	}
}

type fakePin struct {
	level gpio.Level
	duty  gpio.Duty
	freq  physic.Frequency
}

func (p *fakePin) Out(l gpio.Level) error { p.level = l; return nil }

func (p *fakePin) PWM(d gpio.Duty, f physic.Frequency) error {
	p.duty, p.freq = d, f
	return nil
}

func TestRedBoard(t *testing.T) {
	m1p, m1d, m2p, m2d := &fakePin{}, &fakePin{}, &fakePin{}, &fakePin{}
	rb := &RedBoard{
		m1:    hbridge{pwm: m1p, dir: m1d},
		m2:    hbridge{pwm: m2p, dir: m2d},
		freq:  1000 * physic.Hertz,
		scale: 100,
	}
	if err := rb.SetPower(50, -25); err != nil {
		t.Fatal(err)
	}
	if m2d.level != gpio.High || m2p.duty != gpio.DutyMax/2 {
		t.Errorf("M2: expected forward half, got %v %v", m2d.level, m2p.duty)
	}
	if m1d.level != gpio.Low || m1p.duty != gpio.DutyMax/4 {
		t.Errorf("M1: expected reverse quarter, got %v %v", m1d.level, m1p.duty)
	}
	if m1p.freq != 1000*physic.Hertz {
		t.Errorf("expected 1kHz, got %v", m1p.freq)
	}
	rb.Stop()
	if m1p.duty != 0 || m2p.duty != 0 {
		t.Errorf("expected zero duty after stop, got %v %v", m1p.duty, m2p.duty)
	}
}

type fakePort struct {
	bytes.Buffer
	closed bool
}

func (p *fakePort) Close() error { p.closed = true; return nil }

func TestSabertooth(t *testing.T) {
	port := &fakePort{}
	s, err := newSabertooth(port, 128, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Autobaud byte then a stop of both motors.
	preamble := []byte{0xAA, 128, 0, 0, 0, 128, 4, 0, 4}
	if got := port.Next(len(preamble)); !bytes.Equal(got, preamble) {
		t.Fatalf("init: expected % X, got % X", preamble, got)
	}

	s.SetPower(1, -0.5)
	want := []byte{128, 0, 127, (128 + 0 + 127) & 0x7F, 128, 5, 63, (128 + 5 + 63) & 0x7F}
	if got := port.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("expected % X, got % X", want, got)
	}

	s.Close()
	if !port.closed {
		t.Error("expected port closed")
	}
}

type fakeTransmitter struct {
	frames []can.Frame
}

func (f *fakeTransmitter) TransmitFrame(_ context.Context, fr can.Frame) error {
	f.frames = append(f.frames, fr)
	return nil
}

func TestCANBusFrame(t *testing.T) {
	tx := &fakeTransmitter{}
	c := newCANBus(tx, nil, 0x200, 100)
	if err := c.SetPower(50, -100); err != nil {
		t.Fatal(err)
	}
	f := tx.frames[0]
	if f.ID != 0x200 || f.Length != 4 {
		t.Fatalf("expected id 0x200 len 4, got 0x%X %d", f.ID, f.Length)
	}
	l := int16(binary.LittleEndian.Uint16(f.Data[0:2]))
	r := int16(binary.LittleEndian.Uint16(f.Data[2:4]))
	if l != 500 || r != -1000 {
		t.Errorf("expected 500 -1000, got %d %d", l, r)
	}
}

func TestLogSink(t *testing.T) {
	s := NewLogSink(logging.Discard())
	s.SetPower(0.3, -0.2)
	if l, r := s.Last(); l != 0.3 || r != -0.2 {
		t.Errorf("expected 0.3 -0.2, got %v %v", l, r)
	}
	s.Stop()
	if l, r := s.Last(); l != 0 || r != 0 || s.Stops() != 1 {
		t.Errorf("expected stopped, got %v %v stops=%d", l, r, s.Stops())
	}
}

func TestOpenFallback(t *testing.T) {
	missing := func(context.Context, *config.Config, float64) (Sink, error) {
		return nil, ErrNotFound
	}
	broken := func(context.Context, *config.Config, float64) (Sink, error) {
		return nil, errors.New("permission denied")
	}
	found := func(context.Context, *config.Config, float64) (Sink, error) {
		return NewLogSink(logging.Discard()), nil
	}
	backends := map[string]Opener{"a": missing, "b": broken, "c": found}
	cfg := config.Defaults()
	log := logging.Discard()
	ctx := context.Background()

	s, err := open(ctx, []string{"a", "c"}, backends, cfg, 1, log)
	if err != nil || s == nil {
		t.Fatalf("expected sink from c, got %v", err)
	}

	s, err = open(ctx, []string{"a"}, backends, cfg, 1, log)
	if err != nil || s.Name() != "log" {
		t.Errorf("expected log fallback, got %v %v", s, err)
	}

	if _, err := open(ctx, []string{"b", "c"}, backends, cfg, 1, log); err == nil {
		t.Error("expected hard failure to abort")
	}

	if _, err := open(ctx, []string{"nope"}, backends, cfg, 1, log); err == nil {
		t.Error("expected unknown actuator error")
	}

	s, _ = open(ctx, []string{"log", "c"}, backends, cfg, 1, log)
	if s.Name() != "log" {
		t.Errorf("expected log to stop the search, got %s", s.Name())
	}
}
