package connectivity

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pilebones/go-udev/netlink"
)

type fakeDialer struct {
	up    atomic.Bool
	calls atomic.Int32
}

func (f *fakeDialer) dial(ctx context.Context, network, address string) (net.Conn, error) {
	f.calls.Add(1)
	if !f.up.Load() {
		return nil, errors.New("connection refused")
	}
	client, server := net.Pipe()
	_ = server.Close()
	return client, nil
}

func newTestMonitor(d *fakeDialer, interval time.Duration) *Monitor {
	return New(Options{Address: "omdb.test:443", Timeout: time.Second, Interval: interval, Dial: d.dial})
}

func TestStaticChecker(t *testing.T) {
	if !Static(true).Online() || Static(false).Online() {
		t.Fatal("Static should report its value")
	}
}

func TestProbeTransitionsSignalRestoredOnce(t *testing.T) {
	d := &fakeDialer{}
	m := newTestMonitor(d, 0)
	ctx := context.Background()

	if !m.Online() {
		t.Fatal("monitor should start optimistic")
	}
	if m.Probe(ctx) {
		t.Fatal("probe should fail while dialer is down")
	}
	if m.Online() {
		t.Fatal("expected offline after failed probe")
	}
	select {
	case <-m.Restored():
		t.Fatal("going offline must not signal restored")
	default:
	}

	d.up.Store(true)
	if !m.Probe(ctx) || !m.Online() {
		t.Fatal("expected online after successful probe")
	}
	// A second successful probe is not a transition.
	m.Probe(ctx)

	select {
	case <-m.Restored():
	default:
		t.Fatal("expected restored signal")
	}
	select {
	case <-m.Restored():
		t.Fatal("expected exactly one restored signal")
	default:
	}
}

func TestRestoredCoalesces(t *testing.T) {
	d := &fakeDialer{}
	m := newTestMonitor(d, 0)
	ctx := context.Background()
	for range 3 {
		d.up.Store(false)
		m.Probe(ctx)
		d.up.Store(true)
		m.Probe(ctx)
	}
	<-m.Restored()
	select {
	case <-m.Restored():
		t.Fatal("unread signals should coalesce")
	default:
	}
}

func TestStartProbesAndTriggerReprobes(t *testing.T) {
	d := &fakeDialer{}
	m := newTestMonitor(d, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()
	if !m.Running() {
		t.Fatal("expected running")
	}
	if m.Online() {
		t.Fatal("initial probe should have marked offline")
	}

	d.up.Store(true)
	m.Trigger()
	select {
	case <-m.Restored():
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not re-probe")
	}
	if !m.Online() {
		t.Fatal("expected online after trigger")
	}
}

func TestIntervalReprobes(t *testing.T) {
	d := &fakeDialer{}
	m := newTestMonitor(d, 10*time.Millisecond)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	d.up.Store(true)
	select {
	case <-m.Restored():
	case <-time.After(2 * time.Second):
		t.Fatal("interval probe did not notice recovery")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	m := newTestMonitor(&fakeDialer{}, 0)
	m.Stop()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	m.Stop()
	m.Stop()
	if m.Running() {
		t.Fatal("expected stopped")
	}
}

func TestInterfaceMatcher(t *testing.T) {
	matcher := interfaceMatcher()
	if matcher == nil {
		t.Fatal("expected non-nil matcher")
	}
	netEvent := netlink.UEvent{
		Action: netlink.ADD,
		KObj:   "/devices/virtual/net/wlan0",
		Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wlan0"},
	}
	if !matcher.Evaluate(netEvent) {
		t.Fatal("expected net add event to match")
	}
	blockEvent := netlink.UEvent{
		Action: netlink.ADD,
		KObj:   "/devices/block/sr0",
		Env:    map[string]string{"SUBSYSTEM": "block"},
	}
	if matcher.Evaluate(blockEvent) {
		t.Fatal("block events must not match")
	}
}
