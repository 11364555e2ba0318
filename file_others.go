//go:build !darwin

package tunex

import "os"

// TunnelFile is unavailable without an Apple network-extension host; the
// configured probes report the descriptive error.
func (c *Client) TunnelFile() (*os.File, error) {
	if _, err := c.TunnelFD(); err != nil {
		return nil, err
	}

	return nil, os.ErrNotExist
}
