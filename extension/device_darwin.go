//go:build darwin

package extension

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.zx2c4.com/wireguard/tun"
)

// openDevice wraps the utun descriptor received from the host in a
// tun.Device. The descriptor is handed over blocking; the device layer
// requires non-blocking I/O.
func openDevice(fd, mtu int) (tun.Device, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("failed to set descriptor non-blocking: %w", err)
	}

	file := os.NewFile(uintptr(fd), "/dev/net/utun")
	dev, err := tun.CreateTUNFromFile(file, mtu)
	if err != nil {
		return nil, err
	}

	return dev, nil
}
