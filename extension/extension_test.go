package extension

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.zx2c4.com/wireguard/tun"

	"github.com/acornvpn/tunex/exttypes"
)

// A memDevice is a tun.Device that discards packets, for lifecycle tests.
type memDevice struct {
	name   string
	mtu    int
	events chan tun.Event

	closed chan struct{}
}

func newMemDevice(name string, mtu int) *memDevice {
	return &memDevice{
		name:   name,
		mtu:    mtu,
		events: make(chan tun.Event, 1),
		closed: make(chan struct{}),
	}
}

var _ tun.Device = &memDevice{}

func (d *memDevice) File() *os.File { return nil }

func (d *memDevice) Read(_ [][]byte, _ []int, _ int) (int, error) {
	<-d.closed
	return 0, os.ErrClosed
}

func (d *memDevice) Write(bufs [][]byte, _ int) (int, error) { return len(bufs), nil }

func (d *memDevice) MTU() (int, error) { return d.mtu, nil }

func (d *memDevice) Name() (string, error) { return d.name, nil }

func (d *memDevice) Events() <-chan tun.Event { return d.events }

func (d *memDevice) BatchSize() int { return 1 }

func (d *memDevice) Close() error {
	close(d.closed)
	return nil
}

// runnerFunc adapts a function to the Runner interface.
type runnerFunc func(ctx context.Context, dev tun.Device) error

func (f runnerFunc) Run(ctx context.Context, dev tun.Device) error { return f(ctx, dev) }

func testTunnelConfig(t *testing.T) exttypes.TunnelConfig {
	t.Helper()

	secret, err := exttypes.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	return exttypes.TunnelConfig{
		Endpoint: "vpn.example.com:51820",
		Secret:   secret,
		MTU:      1420,
	}
}

// testExtension returns an Extension whose device opener hands out
// in-memory devices.
func testExtension(t *testing.T, cfg Config, runner Runner) (*Extension, *memDevice) {
	t.Helper()

	e, err := New(cfg, runner)
	if err != nil {
		t.Fatalf("failed to create extension: %v", err)
	}

	dev := newMemDevice("utun3", 1420)
	e.openDevice = func(fd, mtu int) (tun.Device, error) {
		return dev, nil
	}

	return e, dev
}

func TestExtensionLifecycle(t *testing.T) {
	gotDevice := make(chan tun.Device, 1)
	e, dev := testExtension(t, Config{}, runnerFunc(func(ctx context.Context, dev tun.Device) error {
		gotDevice <- dev
		<-ctx.Done()
		return nil
	}))
	defer e.Close()

	if e.Running() {
		t.Fatal("expected extension to start idle")
	}

	if err := e.Start(context.Background(), 3, testTunnelConfig(t)); err != nil {
		t.Fatalf("failed to start tunnel: %v", err)
	}
	if !e.Running() {
		t.Fatal("expected tunnel to be running after start")
	}

	select {
	case got := <-gotDevice:
		if got != tun.Device(dev) {
			t.Fatal("runner received a different device than the extension opened")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the runner to receive the device")
	}

	if err := e.Stop(); err != nil {
		t.Fatalf("failed to stop tunnel: %v", err)
	}
	if e.Running() {
		t.Fatal("expected tunnel to be stopped after stop")
	}

	select {
	case <-dev.closed:
	default:
		t.Fatal("expected the device to be closed after stop")
	}
}

func TestExtensionStartWhileRunning(t *testing.T) {
	e, _ := testExtension(t, Config{}, nil)
	defer e.Close()

	if err := e.Start(context.Background(), 3, testTunnelConfig(t)); err != nil {
		t.Fatalf("failed to start tunnel: %v", err)
	}

	if err := e.Start(context.Background(), 3, testTunnelConfig(t)); !errors.Is(err, ErrRunning) {
		t.Fatalf("expected ErrRunning on second start, got: %v", err)
	}
}

func TestExtensionStopWhileStopped(t *testing.T) {
	e, _ := testExtension(t, Config{}, nil)
	defer e.Close()

	if err := e.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got: %v", err)
	}
}

func TestExtensionStartInvalidConfig(t *testing.T) {
	e, _ := testExtension(t, Config{}, nil)
	defer e.Close()

	if err := e.Start(context.Background(), 3, exttypes.TunnelConfig{}); err == nil {
		t.Fatal("expected an error, but none occurred")
	}
	if e.Running() {
		t.Fatal("expected tunnel to remain stopped after invalid start")
	}
}

func TestExtensionStopReturnsEngineError(t *testing.T) {
	errEngine := errors.New("engine exploded")
	e, _ := testExtension(t, Config{}, runnerFunc(func(ctx context.Context, _ tun.Device) error {
		<-ctx.Done()
		return errEngine
	}))
	defer e.Close()

	if err := e.Start(context.Background(), 3, testTunnelConfig(t)); err != nil {
		t.Fatalf("failed to start tunnel: %v", err)
	}

	if err := e.Stop(); !errors.Is(err, errEngine) {
		t.Fatalf("expected engine error from stop, got: %v", err)
	}
}

func TestExtensionRestart(t *testing.T) {
	e, _ := testExtension(t, Config{}, nil)
	defer e.Close()

	for i := 0; i < 3; i++ {
		e.openDevice = func(fd, mtu int) (tun.Device, error) {
			return newMemDevice("utun3", mtu), nil
		}

		if err := e.Start(context.Background(), 3, testTunnelConfig(t)); err != nil {
			t.Fatalf("failed to start tunnel on iteration %d: %v", i, err)
		}
		if err := e.Stop(); err != nil {
			t.Fatalf("failed to stop tunnel on iteration %d: %v", i, err)
		}
	}
}

// powerRunner records power-state hints forwarded to the engine.
type powerRunner struct {
	NopRunner

	mu    sync.Mutex
	modes []string
}

func (r *powerRunner) SetPowerMode(mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes = append(r.modes, mode)
}

func TestExtensionSetPowerMode(t *testing.T) {
	runner := &powerRunner{}
	e, _ := testExtension(t, Config{}, runner)
	defer e.Close()

	if err := e.SetPowerMode("low"); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning before start, got: %v", err)
	}

	if err := e.Start(context.Background(), 3, testTunnelConfig(t)); err != nil {
		t.Fatalf("failed to start tunnel: %v", err)
	}

	if err := e.SetPowerMode("low"); err != nil {
		t.Fatalf("failed to set power mode: %v", err)
	}

	runner.mu.Lock()
	modes := append([]string(nil), runner.modes...)
	runner.mu.Unlock()

	if diff := cmp.Diff([]string{"low"}, modes); diff != "" {
		t.Fatalf("unexpected power modes (-want +got):\n%s", diff)
	}
}

func TestExtensionRejectsBadLogLevel(t *testing.T) {
	if _, err := New(Config{LogLevel: "loud"}, nil); err == nil {
		t.Fatal("expected an error, but none occurred")
	}
}
