package extension

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/acornvpn/tunex/exttypes"
)

// Settings is the network settings store shared between the packet engine
// and the extension host. The engine writes the configuration it learns
// from its peer; the host polls the version counter and applies a fresh
// snapshot whenever it changes.
type Settings struct {
	mu      sync.RWMutex
	ns      exttypes.NetworkSettings
	version int64
}

// NewSettings returns an empty store at version 0.
func NewSettings() *Settings {
	return &Settings{}
}

// Version returns the current settings version. The counter starts at 0
// and increases by one on every successful mutation.
func (s *Settings) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a deep copy of the current settings.
func (s *Settings) Snapshot() exttypes.NetworkSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySettings(s.ns)
}

// JSON returns the current settings serialized for the extension host. An
// empty store serializes as "{}".
func (s *Settings) JSON() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := json.Marshal(s.ns)
	if err != nil {
		return "", fmt.Errorf("extension: failed to marshal network settings: %w", err)
	}

	return string(b), nil
}

// SetTunnelRemoteAddress records the remote tunnel endpoint address.
func (s *Settings) SetTunnelRemoteAddress(addr string) error {
	if net.ParseIP(addr) == nil {
		return fmt.Errorf("extension: invalid tunnel remote address %q", addr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ns.TunnelRemoteAddress = addr
	s.version++
	return nil
}

// SetMTU records the tunnel interface MTU.
func (s *Settings) SetMTU(mtu int) error {
	if mtu <= 0 {
		return fmt.Errorf("extension: invalid MTU %d", mtu)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := mtu
	s.ns.MTU = &v
	s.version++
	return nil
}

// SetDNSServers records the resolvers the host should install.
func (s *Settings) SetDNSServers(servers []string) error {
	for _, srv := range servers {
		if net.ParseIP(srv) == nil {
			return fmt.Errorf("extension: invalid DNS server address %q", srv)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ns.DNSServers = append([]string(nil), servers...)
	s.version++
	return nil
}

// SetIPv4 records the interface's IPv4 addresses and subnet masks. The two
// slices are applied pairwise and must be the same length.
func (s *Settings) SetIPv4(addrs, masks []string) error {
	if len(addrs) != len(masks) {
		return fmt.Errorf("extension: %d IPv4 addresses but %d subnet masks", len(addrs), len(masks))
	}
	for i := range addrs {
		if ip := net.ParseIP(addrs[i]); ip == nil || ip.To4() == nil {
			return fmt.Errorf("extension: invalid IPv4 address %q", addrs[i])
		}
		if ip := net.ParseIP(masks[i]); ip == nil || ip.To4() == nil {
			return fmt.Errorf("extension: invalid IPv4 subnet mask %q", masks[i])
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ns.IPv4Addresses = append([]string(nil), addrs...)
	s.ns.IPv4SubnetMasks = append([]string(nil), masks...)
	s.version++
	return nil
}

// SetIPv6 records the interface's IPv6 addresses and network prefixes.
func (s *Settings) SetIPv6(addrs, prefixes []string) error {
	if len(addrs) != len(prefixes) {
		return fmt.Errorf("extension: %d IPv6 addresses but %d network prefixes", len(addrs), len(prefixes))
	}
	for i := range addrs {
		if ip := net.ParseIP(addrs[i]); ip == nil || ip.To4() != nil {
			return fmt.Errorf("extension: invalid IPv6 address %q", addrs[i])
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ns.IPv6Addresses = append([]string(nil), addrs...)
	s.ns.IPv6NetworkPrefixes = append([]string(nil), prefixes...)
	s.version++
	return nil
}

// SetIPv4IncludedRoutes records the IPv4 destinations routed through the
// tunnel. Routes are sorted so snapshots are stable across runs.
func (s *Settings) SetIPv4IncludedRoutes(routes []exttypes.IPv4Route) error {
	rs := append([]exttypes.IPv4Route(nil), routes...)
	if err := exttypes.SortIPv4Routes(rs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ns.IPv4IncludedRoutes = rs
	s.version++
	return nil
}

// SetIPv4ExcludedRoutes records the IPv4 destinations routed around the
// tunnel.
func (s *Settings) SetIPv4ExcludedRoutes(routes []exttypes.IPv4Route) error {
	rs := append([]exttypes.IPv4Route(nil), routes...)
	if err := exttypes.SortIPv4Routes(rs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ns.IPv4ExcludedRoutes = rs
	s.version++
	return nil
}

// SetIPv6IncludedRoutes records the IPv6 destinations routed through the
// tunnel.
func (s *Settings) SetIPv6IncludedRoutes(routes []exttypes.IPv6Route) error {
	rs := append([]exttypes.IPv6Route(nil), routes...)
	if err := exttypes.SortIPv6Routes(rs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ns.IPv6IncludedRoutes = rs
	s.version++
	return nil
}

// SetIPv6ExcludedRoutes records the IPv6 destinations routed around the
// tunnel.
func (s *Settings) SetIPv6ExcludedRoutes(routes []exttypes.IPv6Route) error {
	rs := append([]exttypes.IPv6Route(nil), routes...)
	if err := exttypes.SortIPv6Routes(rs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ns.IPv6ExcludedRoutes = rs
	s.version++
	return nil
}

// Clear resets the store to empty settings and bumps the version so the
// host tears down any applied configuration.
func (s *Settings) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ns = exttypes.NetworkSettings{}
	s.version++
}

func copySettings(ns exttypes.NetworkSettings) exttypes.NetworkSettings {
	out := ns
	if ns.MTU != nil {
		v := *ns.MTU
		out.MTU = &v
	}
	out.DNSServers = append([]string(nil), ns.DNSServers...)
	out.IPv4Addresses = append([]string(nil), ns.IPv4Addresses...)
	out.IPv4SubnetMasks = append([]string(nil), ns.IPv4SubnetMasks...)
	out.IPv4IncludedRoutes = append([]exttypes.IPv4Route(nil), ns.IPv4IncludedRoutes...)
	out.IPv4ExcludedRoutes = append([]exttypes.IPv4Route(nil), ns.IPv4ExcludedRoutes...)
	out.IPv6Addresses = append([]string(nil), ns.IPv6Addresses...)
	out.IPv6NetworkPrefixes = append([]string(nil), ns.IPv6NetworkPrefixes...)
	out.IPv6IncludedRoutes = append([]exttypes.IPv6Route(nil), ns.IPv6IncludedRoutes...)
	out.IPv6ExcludedRoutes = append([]exttypes.IPv6Route(nil), ns.IPv6ExcludedRoutes...)
	return out
}
