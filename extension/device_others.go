//go:build !darwin

package extension

import (
	"fmt"
	"runtime"

	"golang.zx2c4.com/wireguard/tun"
)

func openDevice(_, _ int) (tun.Device, error) {
	return nil, fmt.Errorf("tunnel descriptors are provided by Apple network-extension hosts, not implemented on %s/%s",
		runtime.GOOS, runtime.GOARCH)
}
