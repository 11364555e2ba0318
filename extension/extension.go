// Package extension implements the Go half of a packet tunnel provider: it
// receives the tunnel descriptor from the host, hands the wrapped device to
// a packet engine, tracks the network settings the host should apply, and
// routes the extension's log stream to the unified log.
package extension

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.zx2c4.com/wireguard/tun"

	"github.com/acornvpn/tunex/exttypes"
	"github.com/acornvpn/tunex/oslog"
)

var (
	// ErrRunning is returned by Start when the tunnel is already running.
	ErrRunning = errors.New("extension: tunnel already running")

	// ErrNotRunning is returned by Stop when there is nothing to stop.
	ErrNotRunning = errors.New("extension: tunnel not running")
)

const (
	defaultSubsystem = "com.acornvpn.tunex"
	defaultCategory  = "extension"
)

// A Runner drives packets through the tunnel device. The packet engine is
// supplied by the program embedding this package; the extension only
// manages the handover and lifecycle.
type Runner interface {
	// Run blocks until ctx is canceled or the engine fails. The device is
	// owned by the extension and closed after Run returns.
	Run(ctx context.Context, dev tun.Device) error
}

// NopRunner holds the tunnel device open until canceled. It stands in when
// no packet engine is linked, for example on diagnostic hosts.
type NopRunner struct{}

// Run implements Runner.
func (NopRunner) Run(ctx context.Context, _ tun.Device) error {
	<-ctx.Done()
	return nil
}

// Config carries the host-provided initialization parameters. The JSON
// field names are part of the extension boundary contract and must not
// change.
type Config struct {
	Subsystem     string `json:"subsystem,omitempty"`
	Category      string `json:"category,omitempty"`
	LogLevel      string `json:"logLevel,omitempty"`
	EnableControl bool   `json:"enableAPI,omitempty"`
	ControlPath   string `json:"socketPath,omitempty"`
	Version       string `json:"version,omitempty"`
	Agent         string `json:"agent,omitempty"`
}

// An Extension is the Go side of a packet tunnel provider.
type Extension struct {
	cfg      config
	runner   Runner
	log      *zap.Logger
	settings *Settings

	// openDevice wraps a host descriptor in a tun.Device. Swapped out in
	// tests; the default is the platform implementation.
	openDevice func(fd, mtu int) (tun.Device, error)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
	ctl     *controlServer
}

// config is Config after defaults and validation.
type config struct {
	Config
	level oslog.Level
}

// New validates cfg, opens the log context, and returns an Extension ready
// to start. When runner is nil the extension falls back to NopRunner.
func New(cfg Config, runner Runner) (*Extension, error) {
	if runner == nil {
		runner = NopRunner{}
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = defaultSubsystem
	}
	if cfg.Category == "" {
		cfg.Category = defaultCategory
	}

	level := oslog.LevelInfo
	if cfg.LogLevel != "" {
		var err error
		if level, err = oslog.ParseLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}

	base, err := oslog.Open(cfg.Subsystem, cfg.Category)
	if err != nil {
		return nil, fmt.Errorf("extension: failed to open log context: %w", err)
	}

	e := &Extension{
		cfg:        config{Config: cfg, level: level},
		runner:     runner,
		log:        zap.New(oslog.NewCore(base, level.ZapLevel())),
		settings:   NewSettings(),
		openDevice: openDevice,
	}

	if cfg.EnableControl {
		if err := e.startControl(cfg.ControlPath); err != nil {
			return nil, err
		}
	}

	e.log.Info("extension initialized",
		zap.String("version", cfg.Version),
		zap.String("agent", cfg.Agent),
	)

	return e, nil
}

// Settings returns the network settings store shared with the host.
func (e *Extension) Settings() *Settings {
	return e.settings
}

// Start wraps the tunnel descriptor received from the host and hands it to
// the packet engine. Starting while a tunnel is running returns ErrRunning.
func (e *Extension) Start(ctx context.Context, fd int, tc exttypes.TunnelConfig) error {
	if err := tc.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrRunning
	}

	dev, err := e.openDevice(fd, tc.MTU)
	if err != nil {
		return fmt.Errorf("extension: failed to wrap tunnel descriptor %d: %w", fd, err)
	}

	e.log.Info("starting tunnel",
		zap.String("endpoint", tc.Endpoint),
		zap.String("identity", tc.Secret.PublicKey().String()),
		zap.Int("mtu", tc.MTU),
	)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	e.running = true
	e.cancel = cancel
	e.done = done
	e.lastErr = nil

	go func() {
		defer close(done)

		err := e.runner.Run(runCtx, dev)
		if err != nil {
			e.log.Error("tunnel engine failed", zap.Error(err))
		}
		err = multierr.Append(err, dev.Close())

		e.mu.Lock()
		e.running = false
		e.lastErr = err
		e.mu.Unlock()

		e.log.Info("tunnel stopped")
	}()

	return nil
}

// Stop cancels the packet engine, waits for it to wind down, and returns
// any engine or device shutdown error. Stopping a stopped tunnel returns
// ErrNotRunning.
func (e *Extension) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	cancel()
	<-done

	e.mu.Lock()
	err := e.lastErr
	e.lastErr = nil
	e.mu.Unlock()

	return err
}

// SetPowerMode forwards a host power-state hint to the packet engine, for
// example when the device enters low-power mode. Setting a mode on a
// stopped tunnel returns ErrNotRunning; engines without a power-mode hook
// accept and ignore the hint.
func (e *Extension) SetPowerMode(mode string) error {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		return ErrNotRunning
	}

	type powerModeSetter interface {
		SetPowerMode(mode string)
	}

	if r, ok := e.runner.(powerModeSetter); ok {
		r.SetPowerMode(mode)
	}
	e.log.Info("power mode set", zap.String("mode", mode))

	return nil
}

// Running reports whether a tunnel is currently running.
func (e *Extension) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Close stops a running tunnel and shuts down the control socket.
func (e *Extension) Close() error {
	var err error
	if stopErr := e.Stop(); stopErr != nil && !errors.Is(stopErr, ErrNotRunning) {
		err = multierr.Append(err, stopErr)
	}
	if e.ctl != nil {
		err = multierr.Append(err, e.ctl.Close())
	}

	return err
}
