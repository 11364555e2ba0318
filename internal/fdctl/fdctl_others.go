//go:build !darwin

package fdctl

import (
	"fmt"
	"runtime"
)

// errUnimplemented is returned by all functions on platforms without utun
// kernel controls.
var errUnimplemented = fmt.Errorf("fdctl: not implemented on %s/%s",
	runtime.GOOS, runtime.GOARCH)

// A Probe is unimplemented on non-Apple systems.
type Probe struct{}

// New always returns an error.
func New() (*Probe, error)                        { return nil, errUnimplemented }
func (p *Probe) Close() error                     { return errUnimplemented }
func (p *Probe) TunnelFD() (int, error)           { return -1, errUnimplemented }
func (p *Probe) TunnelName(_ int) (string, error) { return "", errUnimplemented }
