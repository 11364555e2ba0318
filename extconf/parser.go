// Package extconf loads tunnel extension configuration from INI files.
package extconf

import (
	"fmt"
	"strings"

	"github.com/gookit/ini/v2"

	"github.com/acornvpn/tunex/extension"
	"github.com/acornvpn/tunex/exttypes"
	"github.com/acornvpn/tunex/oslog"
)

// Defaults applied when the file leaves a key unset.
const (
	defaultMTU          = 1420
	defaultPingInterval = 30
	defaultPingTimeout  = 10
)

// A File is a fully parsed configuration file.
type File struct {
	Extension extension.Config
	Tunnel    exttypes.TunnelConfig
}

// Load reads and parses the configuration file at path.
func Load(path string) (*File, error) {
	c := ini.New()
	if err := c.LoadFiles(path); err != nil {
		return nil, fmt.Errorf("extconf: failed to load %q: %w", path, err)
	}

	return parse(c)
}

// LoadString parses configuration from an INI string.
func LoadString(s string) (*File, error) {
	c := ini.New()
	if err := c.LoadStrings(s); err != nil {
		return nil, fmt.Errorf("extconf: failed to parse configuration: %w", err)
	}

	return parse(c)
}

func parse(c *ini.Ini) (*File, error) {
	var f File

	secret, err := exttypes.ParseKey(c.String("tunnel.secret"))
	if err != nil {
		return nil, fmt.Errorf("extconf: invalid tunnel secret: %w", err)
	}

	f.Tunnel = exttypes.TunnelConfig{
		Endpoint:            c.String("tunnel.endpoint"),
		ID:                  c.String("tunnel.id"),
		Secret:              secret,
		MTU:                 c.Int("tunnel.mtu", defaultMTU),
		DNS:                 c.String("tunnel.dns"),
		Holepunch:           c.Bool("tunnel.holepunch"),
		PingIntervalSeconds: c.Int("tunnel.ping_interval_seconds", defaultPingInterval),
		PingTimeoutSeconds:  c.Int("tunnel.ping_timeout_seconds", defaultPingTimeout),
		UpstreamDNS:         splitList(c.String("tunnel.upstream_dns")),
		OverrideDNS:         c.Bool("tunnel.override_dns"),
		TunnelDNS:           c.Bool("tunnel.tunnel_dns"),
	}

	if level := c.String("logging.level"); level != "" {
		if _, err := oslog.ParseLevel(level); err != nil {
			return nil, err
		}
		f.Extension.LogLevel = level
	}

	f.Extension.Subsystem = c.String("logging.subsystem")
	f.Extension.Category = c.String("logging.category")
	f.Extension.EnableControl = c.Bool("control.enabled")
	f.Extension.ControlPath = c.String("control.socket")
	f.Extension.Version = c.String("agent.version")
	f.Extension.Agent = c.String("agent.name")

	if err := f.Tunnel.Validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

// splitList splits a comma-separated value into its trimmed elements.
func splitList(s string) []string {
	if s == "" {
		return nil
	}

	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}

	return out
}
