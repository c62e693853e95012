package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neura/fraudshield/internal/domain/alerts"
	domain "github.com/neura/fraudshield/internal/domain/scans"
)

type captureSink struct {
	name     string
	received chan *alerts.Alert
	err      error
}

func newCaptureSink(name string) *captureSink {
	return &captureSink{name: name, received: make(chan *alerts.Alert, 16)}
}

func (s *captureSink) Name() string { return s.name }

func (s *captureSink) Deliver(ctx context.Context, a *alerts.Alert) error {
	s.received <- a
	return s.err
}

func (s *captureSink) Close(context.Context) error { return nil }

func testAlert() *alerts.Alert {
	return &alerts.Alert{
		Kind:                  domain.KindSMS,
		Result:                domain.Result{IsFraud: true, Confidence: 0.9, RiskLevel: domain.RiskHigh, Message: "scam"},
		OriginatingIdentifier: "+15551234",
		ReceivedAt:            time.UnixMilli(1700000000000),
	}
}

func waitDelivery(t *testing.T, s *captureSink) *alerts.Alert {
	t.Helper()
	select {
	case a := <-s.received:
		return a
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for delivery to %s", s.name)
		return nil
	}
}

func TestEmitterDeliversToEverySink(t *testing.T) {
	first := newCaptureSink("first")
	second := newCaptureSink("second")
	em := NewEmitter(EmitterConfig{}, []alerts.Sink{first, second})
	defer em.Close(context.Background())

	em.Emit(context.Background(), testAlert())

	waitDelivery(t, first)
	waitDelivery(t, second)

	m := em.MetricsSnapshot()
	if m["alerts_enqueued"] != 1 {
		t.Errorf("enqueued = %d, want 1", m["alerts_enqueued"])
	}
	if m["sink_success:first"] != 1 || m["sink_success:second"] != 1 {
		t.Errorf("success counters = %v", m)
	}
}

func TestEmitterFailingSinkDoesNotBlockOthers(t *testing.T) {
	broken := newCaptureSink("broken")
	broken.err = errors.New("sink down")
	working := newCaptureSink("working")
	em := NewEmitter(EmitterConfig{}, []alerts.Sink{broken, working})
	defer em.Close(context.Background())

	em.Emit(context.Background(), testAlert())

	waitDelivery(t, broken)
	waitDelivery(t, working)

	m := em.MetricsSnapshot()
	if m["sink_failure:broken"] != 1 {
		t.Errorf("failure counter = %d, want 1", m["sink_failure:broken"])
	}
	if m["sink_success:working"] != 1 {
		t.Errorf("success counter = %d, want 1", m["sink_success:working"])
	}
}

func TestEmitterDropsAfterClose(t *testing.T) {
	sink := newCaptureSink("sink")
	em := NewEmitter(EmitterConfig{}, []alerts.Sink{sink})
	em.Close(context.Background())

	em.Emit(context.Background(), testAlert())

	m := em.MetricsSnapshot()
	if m["alerts_dropped"] != 1 {
		t.Errorf("dropped = %d, want 1", m["alerts_dropped"])
	}
}

func TestEmitterNilAlertIgnored(t *testing.T) {
	sink := newCaptureSink("sink")
	em := NewEmitter(EmitterConfig{}, []alerts.Sink{sink})
	defer em.Close(context.Background())

	em.Emit(context.Background(), nil)

	m := em.MetricsSnapshot()
	if m["alerts_enqueued"] != 0 {
		t.Errorf("enqueued = %d, want 0", m["alerts_enqueued"])
	}
}
