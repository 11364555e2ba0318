//go:build darwin

package tunex

import (
	"github.com/acornvpn/tunex/internal/fdctl"
	"github.com/acornvpn/tunex/internal/fdname"
	"github.com/acornvpn/tunex/internal/probe"
)

// newProbes configures probes for Apple systems.
func newProbes() ([]probe.Probe, error) {
	// The kernel-control probe matches descriptors against the utun
	// control ID and is authoritative.
	cp, err := fdctl.New()
	if err != nil {
		return nil, err
	}

	// The interface-name probe only needs a getsockopt per candidate and
	// covers hosts where the control registry lookup is denied.
	np, err := fdname.New()
	if err != nil {
		return nil, err
	}

	return []probe.Probe{cp, np}, nil
}
