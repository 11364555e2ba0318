package exttypes

import (
	"fmt"
	"net"
	"sort"

	"github.com/mikioh/ipaddr"
)

// NetworkSettings mirrors the network configuration a host applies to the
// tunnel interface. The JSON field names are part of the extension boundary
// contract and must not change.
type NetworkSettings struct {
	TunnelRemoteAddress string      `json:"tunnel_remote_address,omitempty"`
	MTU                 *int        `json:"mtu,omitempty"`
	DNSServers          []string    `json:"dns_servers,omitempty"`
	IPv4Addresses       []string    `json:"ipv4_addresses,omitempty"`
	IPv4SubnetMasks     []string    `json:"ipv4_subnet_masks,omitempty"`
	IPv4IncludedRoutes  []IPv4Route `json:"ipv4_included_routes,omitempty"`
	IPv4ExcludedRoutes  []IPv4Route `json:"ipv4_excluded_routes,omitempty"`
	IPv6Addresses       []string    `json:"ipv6_addresses,omitempty"`
	IPv6NetworkPrefixes []string    `json:"ipv6_network_prefixes,omitempty"`
	IPv6IncludedRoutes  []IPv6Route `json:"ipv6_included_routes,omitempty"`
	IPv6ExcludedRoutes  []IPv6Route `json:"ipv6_excluded_routes,omitempty"`
}

// An IPv4Route describes one IPv4 destination routed through (or around)
// the tunnel.
type IPv4Route struct {
	DestinationAddress string `json:"destination_address"`
	SubnetMask         string `json:"subnet_mask,omitempty"`
	GatewayAddress     string `json:"gateway_address,omitempty"`
	IsDefault          bool   `json:"is_default,omitempty"`
}

// An IPv6Route describes one IPv6 destination routed through (or around)
// the tunnel.
type IPv6Route struct {
	DestinationAddress  string `json:"destination_address"`
	NetworkPrefixLength int    `json:"network_prefix_length,omitempty"`
	GatewayAddress      string `json:"gateway_address,omitempty"`
	IsDefault           bool   `json:"is_default,omitempty"`
}

// Prefix returns the route destination as a normalized prefix. A route with
// IsDefault set is 0.0.0.0/0 regardless of its other fields; a route with
// no subnet mask is a host route.
func (r IPv4Route) Prefix() (*ipaddr.Prefix, error) {
	if r.IsDefault {
		return ipaddr.NewPrefix(&net.IPNet{
			IP:   net.IPv4zero.To4(),
			Mask: net.CIDRMask(0, 32),
		}), nil
	}

	ip := net.ParseIP(r.DestinationAddress)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("exttypes: invalid IPv4 destination %q", r.DestinationAddress)
	}

	mask := net.CIDRMask(32, 32)
	if r.SubnetMask != "" {
		mip := net.ParseIP(r.SubnetMask)
		if mip == nil || mip.To4() == nil {
			return nil, fmt.Errorf("exttypes: invalid IPv4 subnet mask %q", r.SubnetMask)
		}
		mask = net.IPMask(mip.To4())
		if ones, bits := mask.Size(); ones == 0 && bits == 0 {
			return nil, fmt.Errorf("exttypes: non-contiguous IPv4 subnet mask %q", r.SubnetMask)
		}
	}

	return ipaddr.NewPrefix(&net.IPNet{
		IP:   ip.To4().Mask(mask),
		Mask: mask,
	}), nil
}

// Prefix returns the route destination as a normalized prefix. A route with
// IsDefault set is ::/0 regardless of its other fields; a route with no
// prefix length is a host route.
func (r IPv6Route) Prefix() (*ipaddr.Prefix, error) {
	if r.IsDefault {
		return ipaddr.NewPrefix(&net.IPNet{
			IP:   net.IPv6zero,
			Mask: net.CIDRMask(0, 128),
		}), nil
	}

	ip := net.ParseIP(r.DestinationAddress)
	if ip == nil || ip.To4() != nil {
		return nil, fmt.Errorf("exttypes: invalid IPv6 destination %q", r.DestinationAddress)
	}

	length := r.NetworkPrefixLength
	if length == 0 {
		length = 128
	}
	if length < 0 || length > 128 {
		return nil, fmt.Errorf("exttypes: invalid IPv6 prefix length %d", length)
	}
	mask := net.CIDRMask(length, 128)

	return ipaddr.NewPrefix(&net.IPNet{
		IP:   ip.Mask(mask),
		Mask: mask,
	}), nil
}

// SortIPv4Routes orders routes deterministically (by network address, then
// prefix length) so settings snapshots are stable across runs. Routes that
// fail to parse are reported rather than silently dropped.
func SortIPv4Routes(routes []IPv4Route) error {
	prefixes := make([]*ipaddr.Prefix, len(routes))
	for i := range routes {
		p, err := routes[i].Prefix()
		if err != nil {
			return err
		}
		prefixes[i] = p
	}

	sort.Sort(&routeSorter{
		len:  len(routes),
		less: func(i, j int) bool { return ipaddr.Compare(prefixes[i], prefixes[j]) < 0 },
		swap: func(i, j int) {
			routes[i], routes[j] = routes[j], routes[i]
			prefixes[i], prefixes[j] = prefixes[j], prefixes[i]
		},
	})

	return nil
}

// SortIPv6Routes is the IPv6 counterpart of SortIPv4Routes.
func SortIPv6Routes(routes []IPv6Route) error {
	prefixes := make([]*ipaddr.Prefix, len(routes))
	for i := range routes {
		p, err := routes[i].Prefix()
		if err != nil {
			return err
		}
		prefixes[i] = p
	}

	sort.Sort(&routeSorter{
		len:  len(routes),
		less: func(i, j int) bool { return ipaddr.Compare(prefixes[i], prefixes[j]) < 0 },
		swap: func(i, j int) {
			routes[i], routes[j] = routes[j], routes[i]
			prefixes[i], prefixes[j] = prefixes[j], prefixes[i]
		},
	})

	return nil
}

// routeSorter sorts a route slice and its parsed prefixes in lockstep.
type routeSorter struct {
	len  int
	less func(i, j int) bool
	swap func(i, j int)
}

func (s *routeSorter) Len() int           { return s.len }
func (s *routeSorter) Less(i, j int) bool { return s.less(i, j) }
func (s *routeSorter) Swap(i, j int)      { s.swap(i, j) }
