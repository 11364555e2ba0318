//go:build darwin

package tunex

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// TunnelFile duplicates the discovered tunnel descriptor and wraps it in an
// *os.File owned by the caller. Closing the file does not invalidate the
// descriptor held by the extension host.
func (c *Client) TunnelFile() (*os.File, error) {
	fd, err := c.TunnelFD()
	if err != nil {
		return nil, err
	}

	name, err := c.TunnelName(fd)
	if err != nil {
		return nil, err
	}

	dup, err := unix.Dup(fd)
	if err != nil {
		return nil, fmt.Errorf("tunex: failed to duplicate tunnel descriptor %d: %w", fd, err)
	}
	unix.CloseOnExec(dup)

	return os.NewFile(uintptr(dup), name), nil
}
