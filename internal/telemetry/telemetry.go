// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry publishes per-tick drive samples for the console, the
// web dashboard and the status display.
package telemetry

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/shakaar/internal/drive"
	"github.com/relabs-tech/shakaar/internal/logging"
)

// Events carried in Sample.Event. Samples with an event are never dropped
// by the rate limit.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
	EventTerminate  = "terminate"
	EventStop       = "stop"
)

// Sample is the JSON schema we publish.
// Raw is mixer output in [-max_power, max_power]; geared values are what
// the motor driver was (or, when inert, would have been) given.
type Sample struct {
	Time        string          `json:"time"`
	Variant     string          `json:"variant"`
	Controller  string          `json:"controller,omitempty"`
	Sink        string          `json:"sink"`
	Yaw         float64         `json:"yaw"`
	Throttle    float64         `json:"throttle"`
	Raw         drive.PowerPair `json:"raw"`
	GearedLeft  float64         `json:"geared_left"`
	GearedRight float64         `json:"geared_right"`
	State       drive.State     `json:"state"`
	Presses     []string        `json:"presses,omitempty"`
	Fired       []string        `json:"fired,omitempty"`
	Event       string          `json:"event,omitempty"`
}

func Decode(payload []byte) (Sample, error) {
	var s Sample
	if err := json.Unmarshal(payload, &s); err != nil {
		return Sample{}, fmt.Errorf("telemetry: decode: %w", err)
	}
	return s, nil
}

// Publisher takes samples from the control loop. Publish must not block
// the loop for long; failures are logged, not returned.
type Publisher interface {
	Publish(s Sample)
	Close()
}

// Nop drops every sample.
type Nop struct{}

func (Nop) Publish(Sample) {}
func (Nop) Close()         {}

// limiter passes at most one sample per interval, plus any sample that
// carries an event.
type limiter struct {
	interval time.Duration
	last     time.Time
}

func (l *limiter) allow(now time.Time, force bool) bool {
	if force || l.last.IsZero() || now.Sub(l.last) >= l.interval {
		l.last = now
		return true
	}
	return false
}

const (
	publishTimeout = 100 * time.Millisecond
	queueLen       = 16
)

// MQTT publishes retained samples to one topic. Publish only queues the
// sample; a background goroutine talks to the broker so a slow or
// reconnecting broker never stretches a control tick.
type MQTT struct {
	client mqtt.Client
	topic  string
	log    *logging.Logger

	mu  sync.Mutex
	lim limiter

	queue chan Sample
	done  chan struct{}
	send  func(payload []byte) error
}

func NewMQTT(broker, clientID, topic string, interval time.Duration, log *logging.Logger) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: mqtt connect %s: %w", broker, token.Error())
	}
	log.Infof("connected to MQTT broker at %s, publishing %s", broker, topic)

	m := newQueued(topic, interval, log, func(payload []byte) error {
		token := client.Publish(topic, 0, true, payload)
		if token.WaitTimeout(publishTimeout) && token.Error() != nil {
			return token.Error()
		}
		return nil
	})
	m.client = client
	return m, nil
}

func newQueued(topic string, interval time.Duration, log *logging.Logger, send func([]byte) error) *MQTT {
	m := &MQTT{
		topic: topic,
		log:   log,
		lim:   limiter{interval: interval},
		queue: make(chan Sample, queueLen),
		done:  make(chan struct{}),
		send:  send,
	}
	go m.run()
	return m
}

func (m *MQTT) run() {
	defer close(m.done)
	for s := range m.queue {
		payload, err := json.Marshal(s)
		if err != nil {
			m.log.Warnf("json marshal error: %v", err)
			continue
		}
		if err := m.send(payload); err != nil {
			m.log.Warnf("MQTT publish error (%s): %v", m.topic, err)
		}
	}
}

// Publish never blocks: when the queue is full the sample is dropped.
func (m *MQTT) Publish(s Sample) {
	m.mu.Lock()
	ok := m.lim.allow(time.Now(), s.Event != "")
	m.mu.Unlock()
	if !ok {
		return
	}
	if s.Time == "" {
		s.Time = time.Now().Format(time.RFC3339Nano)
	}
	select {
	case m.queue <- s:
	default:
		m.log.Debugf("telemetry queue full, dropping sample")
	}
}

// Close flushes queued samples and disconnects.
func (m *MQTT) Close() {
	close(m.queue)
	<-m.done
	if m.client != nil {
		m.client.Disconnect(250)
	}
}

// Subscribe connects to the broker and calls fn for every decodable sample.
// The caller disconnects the returned client.
func Subscribe(broker, clientID, topic string, log *logging.Logger, fn func(Sample)) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: mqtt connect %s: %w", broker, token.Error())
	}
	log.Infof("connected to MQTT broker at %s", broker)

	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s, err := Decode(msg.Payload())
		if err != nil {
			log.Warnf("%v", err)
			return
		}
		fn(s)
	})
	token.Wait()
	if token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("telemetry: subscribe %s: %w", topic, token.Error())
	}
	log.Infof("subscribed to MQTT topic %s", topic)
	return client, nil
}
