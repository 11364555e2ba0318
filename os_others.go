//go:build !darwin

package tunex

import "github.com/acornvpn/tunex/internal/probe"

// newProbes configures probes for systems without an Apple
// network-extension host.
func newProbes() ([]probe.Probe, error) {
	return []probe.Probe{
		probe.Unimplemented("tunex", "tunnel descriptors are provided by Apple network-extension hosts"),
	}, nil
}
