//go:build darwin

package fdctl

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// utunControlName is the kernel control behind every utun interface.
const utunControlName = "com.apple.net.utun_control"

const (
	// sysprotoControl and utunOptIfname are absent from x/sys/unix.
	sysprotoControl = 2 // SYSPROTO_CONTROL
	utunOptIfname   = 2 // UTUN_OPT_IFNAME
)

// maxScanFD bounds the descriptor scan when the file limit is unbounded.
const maxScanFD = 1024

// A Probe matches candidate descriptors against the utun kernel-control ID.
type Probe struct {
	utunID uint32
}

// New resolves the utun kernel-control ID and creates a Probe.
func New() (*Probe, error) {
	id, err := resolveControlID()
	if err != nil {
		return nil, err
	}

	return &Probe{utunID: id}, nil
}

// Close implements probe.Probe.
func (p *Probe) Close() error { return nil }

// TunnelFD scans this process's descriptors in ascending order for a socket
// whose peer is the utun control, and returns the first match. The host
// connects the tunnel socket before the extension starts, so the descriptor
// is already present when we look.
func (p *Probe) TunnelFD() (int, error) {
	limit := maxScanFD
	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err == nil && int(rlim.Cur) < limit {
		limit = int(rlim.Cur)
	}

	for fd := 0; fd <= limit; fd++ {
		if !isSocket(fd) {
			continue
		}
		ctl, err := peerControl(fd)
		if err != nil {
			continue
		}
		if ctl.ID == p.utunID {
			return fd, nil
		}
	}

	return -1, os.ErrNotExist
}

// TunnelName returns the interface name for a discovered descriptor.
func (p *Probe) TunnelName(fd int) (string, error) {
	ctl, err := peerControl(fd)
	if err != nil || ctl.ID != p.utunID {
		return "", os.ErrNotExist
	}

	// The socket reports its own name; derive it from the control unit
	// only when the getsockopt is denied. Units are one-based while
	// interface numbering starts at zero.
	if name, err := unix.GetsockoptString(fd, sysprotoControl, utunOptIfname); err == nil {
		return name, nil
	}
	if ctl.Unit == 0 {
		return "", fmt.Errorf("fdctl: descriptor %d has no utun unit", fd)
	}

	return fmt.Sprintf("utun%d", ctl.Unit-1), nil
}

// resolveControlID asks the kernel-control registry for the ID assigned to
// the utun control. IDs are allocated dynamically at boot and must be
// looked up at run time.
func resolveControlID() (uint32, error) {
	s, err := unix.Socket(unix.AF_SYSTEM, unix.SOCK_DGRAM, sysprotoControl)
	if err != nil {
		return 0, fmt.Errorf("fdctl: failed to open system control socket: %w", err)
	}
	defer unix.Close(s)

	info := &unix.CtlInfo{}
	copy(info.Name[:], utunControlName)
	if err := unix.IoctlCtlInfo(s, info); err != nil {
		return 0, fmt.Errorf("fdctl: failed to resolve control %q: %w", utunControlName, err)
	}

	return info.Id, nil
}

// peerControl queries the peer address of fd and returns it if the peer is
// a kernel control.
func peerControl(fd int) (*unix.SockaddrCtl, error) {
	sa, err := unix.Getpeername(fd)
	if err != nil {
		return nil, err
	}

	ctl, ok := sa.(*unix.SockaddrCtl)
	if !ok {
		return nil, os.ErrNotExist
	}

	return ctl, nil
}

func isSocket(fd int) bool {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return false
	}

	return st.Mode&unix.S_IFMT == unix.S_IFSOCK
}
