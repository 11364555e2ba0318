package exttypes_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/acornvpn/tunex/exttypes"
)

func TestIPv4RoutePrefix(t *testing.T) {
	tests := []struct {
		name  string
		route exttypes.IPv4Route
		want  string
		fail  bool
	}{
		{
			name:  "default route",
			route: exttypes.IPv4Route{IsDefault: true},
			want:  "0.0.0.0/0",
		},
		{
			name:  "host route without mask",
			route: exttypes.IPv4Route{DestinationAddress: "10.1.2.3"},
			want:  "10.1.2.3/32",
		},
		{
			name: "subnet route",
			route: exttypes.IPv4Route{
				DestinationAddress: "192.168.1.0",
				SubnetMask:         "255.255.255.0",
			},
			want: "192.168.1.0/24",
		},
		{
			name: "unaligned destination is normalized",
			route: exttypes.IPv4Route{
				DestinationAddress: "192.168.1.77",
				SubnetMask:         "255.255.255.0",
			},
			want: "192.168.1.0/24",
		},
		{
			name:  "invalid destination",
			route: exttypes.IPv4Route{DestinationAddress: "bogus"},
			fail:  true,
		},
		{
			name: "invalid mask",
			route: exttypes.IPv4Route{
				DestinationAddress: "10.0.0.0",
				SubnetMask:         "255.0.255.0",
			},
			fail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.route.Prefix()
			if tt.fail {
				if err == nil {
					t.Fatal("expected an error, but none occurred")
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to parse route: %v", err)
			}

			if diff := cmp.Diff(tt.want, p.String()); diff != "" {
				t.Fatalf("unexpected prefix (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIPv6RoutePrefix(t *testing.T) {
	tests := []struct {
		name  string
		route exttypes.IPv6Route
		want  string
		fail  bool
	}{
		{
			name:  "default route",
			route: exttypes.IPv6Route{IsDefault: true},
			want:  "::/0",
		},
		{
			name:  "host route without length",
			route: exttypes.IPv6Route{DestinationAddress: "fd00::1"},
			want:  "fd00::1/128",
		},
		{
			name: "prefix route",
			route: exttypes.IPv6Route{
				DestinationAddress:  "fd00:abcd::",
				NetworkPrefixLength: 64,
			},
			want: "fd00:abcd::/64",
		},
		{
			name:  "IPv4 destination rejected",
			route: exttypes.IPv6Route{DestinationAddress: "10.0.0.1"},
			fail:  true,
		},
		{
			name: "prefix length out of range",
			route: exttypes.IPv6Route{
				DestinationAddress:  "fd00::",
				NetworkPrefixLength: 129,
			},
			fail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.route.Prefix()
			if tt.fail {
				if err == nil {
					t.Fatal("expected an error, but none occurred")
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to parse route: %v", err)
			}

			if diff := cmp.Diff(tt.want, p.String()); diff != "" {
				t.Fatalf("unexpected prefix (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortIPv4Routes(t *testing.T) {
	routes := []exttypes.IPv4Route{
		{DestinationAddress: "192.168.0.0", SubnetMask: "255.255.0.0"},
		{DestinationAddress: "10.0.0.0", SubnetMask: "255.0.0.0"},
		{DestinationAddress: "10.0.0.0", SubnetMask: "255.255.0.0"},
	}

	if err := exttypes.SortIPv4Routes(routes); err != nil {
		t.Fatalf("failed to sort routes: %v", err)
	}

	want := []exttypes.IPv4Route{
		{DestinationAddress: "10.0.0.0", SubnetMask: "255.0.0.0"},
		{DestinationAddress: "10.0.0.0", SubnetMask: "255.255.0.0"},
		{DestinationAddress: "192.168.0.0", SubnetMask: "255.255.0.0"},
	}

	if diff := cmp.Diff(want, routes); diff != "" {
		t.Fatalf("unexpected route order (-want +got):\n%s", diff)
	}
}

func TestSortIPv4RoutesReportsInvalid(t *testing.T) {
	routes := []exttypes.IPv4Route{
		{DestinationAddress: "10.0.0.0", SubnetMask: "255.0.0.0"},
		{DestinationAddress: "bogus"},
	}

	if err := exttypes.SortIPv4Routes(routes); err == nil {
		t.Fatal("expected an error, but none occurred")
	}
}
