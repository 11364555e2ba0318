package tunex

import (
	"os"

	"github.com/acornvpn/tunex/internal/probe"
)

// Expose an identical interface to the underlying packages.
var _ probe.Probe = &Client{}

// A Client locates the tunnel file descriptor that the network-extension
// host has already associated with this process.
type Client struct {
	// Seamlessly use different probe implementations to locate the
	// descriptor, preferring the first probe that finds one.
	ps []probe.Probe
}

// New creates a new Client.
func New() (*Client, error) {
	ps, err := newProbes()
	if err != nil {
		return nil, err
	}

	return &Client{
		ps: ps,
	}, nil
}

// Close releases resources used by a Client.
func (c *Client) Close() error {
	for _, p := range c.ps {
		if err := p.Close(); err != nil {
			return err
		}
	}

	return nil
}

// TunnelFD returns the file descriptor number of the tunnel socket handed
// to this process by its host. The scan is deterministic: repeated calls
// within one process lifetime return the same descriptor.
//
// If no tunnel descriptor is present, an error is returned which can be
// checked using os.IsNotExist.
func (c *Client) TunnelFD() (int, error) {
	for _, p := range c.ps {
		fd, err := p.TunnelFD()
		switch {
		case err == nil:
			return fd, nil
		case os.IsNotExist(err):
			continue
		default:
			return -1, err
		}
	}

	return -1, os.ErrNotExist
}

// TunnelName returns the interface name behind a discovered tunnel
// descriptor, such as "utun3".
//
// If fd is not a tunnel descriptor, an error is returned which can be
// checked using os.IsNotExist.
func (c *Client) TunnelName(fd int) (string, error) {
	for _, p := range c.ps {
		name, err := p.TunnelName(fd)
		switch {
		case err == nil:
			return name, nil
		case os.IsNotExist(err):
			continue
		default:
			return "", err
		}
	}

	return "", os.ErrNotExist
}
