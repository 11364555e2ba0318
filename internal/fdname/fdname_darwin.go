//go:build darwin

package fdname

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	// sysprotoControl and utunOptIfname are absent from x/sys/unix.
	sysprotoControl = 2 // SYSPROTO_CONTROL
	utunOptIfname   = 2 // UTUN_OPT_IFNAME
)

// maxScanFD bounds the descriptor scan when the file limit is unbounded.
const maxScanFD = 1024

// A Probe identifies the tunnel descriptor by interface name.
type Probe struct{}

// New creates a Probe.
func New() (*Probe, error) { return &Probe{}, nil }

// Close implements probe.Probe.
func (p *Probe) Close() error { return nil }

// TunnelFD scans this process's descriptors for a kernel-control socket
// that reports a utun interface name. Non-socket and non-utun descriptors
// fail the getsockopt and are skipped.
func (p *Probe) TunnelFD() (int, error) {
	limit := maxScanFD
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err == nil && int(rlim.Cur) < limit {
		limit = int(rlim.Cur)
	}

	for fd := 0; fd <= limit; fd++ {
		name, err := ifName(fd)
		if err != nil {
			continue
		}
		if strings.HasPrefix(name, "utun") {
			return fd, nil
		}
	}

	return -1, os.ErrNotExist
}

// TunnelName returns the interface name reported by a utun descriptor.
func (p *Probe) TunnelName(fd int) (string, error) {
	name, err := ifName(fd)
	if err != nil || !strings.HasPrefix(name, "utun") {
		return "", os.ErrNotExist
	}

	return name, nil
}

// ifName queries UTUN_OPT_IFNAME on a kernel-control socket.
func ifName(fd int) (string, error) {
	return unix.GetsockoptString(fd, sysprotoControl, utunOptIfname)
}
