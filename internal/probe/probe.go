// Package probe defines the tunnel descriptor probe interface shared by the
// OS-specific discovery packages.
package probe

import (
	"fmt"
	"io"
	"runtime"
)

// A Probe is a type which can locate the tunnel file descriptor handed to a
// process by its network-extension host.
type Probe interface {
	io.Closer
	// TunnelFD returns the descriptor number of the active tunnel socket.
	// When no descriptor is present, the error can be checked using
	// os.IsNotExist.
	TunnelFD() (int, error)
	// TunnelName returns the interface name behind a discovered
	// descriptor.
	TunnelName(fd int) (string, error)
}

var _ Probe = &unimplementedProbe{}

// An unimplementedProbe is a Probe which always returns an error.
type unimplementedProbe struct {
	err error
}

// Unimplemented creates a Probe that returns a descriptive error when any
// of its methods are invoked.
func Unimplemented(pkg, info string) Probe {
	return &unimplementedProbe{
		err: fmt.Errorf("%s: not implemented on %s/%s: %s",
			pkg, runtime.GOOS, runtime.GOARCH, info),
	}
}

func (p *unimplementedProbe) Close() error                     { return p.err }
func (p *unimplementedProbe) TunnelFD() (int, error)           { return -1, p.err }
func (p *unimplementedProbe) TunnelName(_ int) (string, error) { return "", p.err }
