// Package exttypes provides shared types for the tunex family of packages.
package exttypes

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/crypto/curve25519"
)

const keyLen = 32

// A Key is a tunnel credential: a public, private, or pre-shared secret
// key. The Key constructor functions in this package can be used to create
// Keys suitable for each of these applications.
type Key [keyLen]byte

// GenerateKey generates a Key suitable for use as a pre-shared secret key
// from a cryptographically safe source.
//
// The output Key should not be used as a private key; use
// GeneratePrivateKey instead.
func GenerateKey() (Key, error) {
	b := make([]byte, keyLen)
	if _, err := rand.Read(b); err != nil {
		return Key{}, fmt.Errorf("exttypes: failed to read random bytes: %v", err)
	}

	return NewKey(b)
}

// GeneratePrivateKey generates a Key suitable for use as a private key from
// a cryptographically safe source.
func GeneratePrivateKey() (Key, error) {
	key, err := GenerateKey()
	if err != nil {
		return Key{}, err
	}

	// Modify random bytes using algorithm described at:
	// https://cr.yp.to/ecdh.html.
	key[0] &= 248
	key[31] &= 127
	key[31] |= 64

	return key, nil
}

// NewKey creates a Key from an existing byte slice. The byte slice must be
// exactly 32 bytes in length.
func NewKey(b []byte) (Key, error) {
	if len(b) != keyLen {
		return Key{}, fmt.Errorf("exttypes: incorrect key size: %d", len(b))
	}

	var k Key
	copy(k[:], b)

	return k, nil
}

// ParseKey parses a base64-encoded key string.
func ParseKey(s string) (Key, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("exttypes: failed to parse base64-encoded key: %v", err)
	}

	return NewKey(b)
}

// IsZero reports whether k is the all-zero key, which is never a valid
// credential.
func (k Key) IsZero() bool {
	return k == Key{}
}

// PublicKey computes a public key from the private key k.
//
// PublicKey should only be called when k is a private key.
func (k Key) PublicKey() Key {
	var (
		pub  [keyLen]byte
		priv = [keyLen]byte(k)
	)

	// ScalarBaseMult uses the correct base value per https://cr.yp.to/ecdh.html,
	// so no need to specify it.
	curve25519.ScalarBaseMult(&pub, &priv)

	return Key(pub)
}

// String returns the base64 string representation of a Key.
func (k Key) String() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

// MarshalText implements encoding.TextMarshaler, so keys embed naturally in
// the JSON payloads exchanged across the extension boundary.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}

	copy(k[:], parsed[:])
	return nil
}

// A TunnelConfig carries the parameters a host passes when starting the
// tunnel. The JSON field names are part of the extension boundary contract
// and must not change. The identity and posture fields are opaque here and
// pass through to the packet engine untouched.
type TunnelConfig struct {
	Endpoint            string                 `json:"endpoint"`
	ID                  string                 `json:"id"`
	Secret              Key                    `json:"secret"`
	MTU                 int                    `json:"mtu"`
	DNS                 string                 `json:"dns"`
	Holepunch           bool                   `json:"holepunch"`
	PingIntervalSeconds int                    `json:"pingIntervalSeconds"`
	PingTimeoutSeconds  int                    `json:"pingTimeoutSeconds"`
	UserToken           string                 `json:"userToken"`
	OrgID               string                 `json:"orgId"`
	UpstreamDNS         []string               `json:"upstreamDNS,omitempty"`
	OverrideDNS         bool                   `json:"overrideDNS"`
	TunnelDNS           bool                   `json:"tunnelDNS"`
	Fingerprint         map[string]interface{} `json:"fingerprint,omitempty"`
	Postures            map[string]interface{} `json:"postures,omitempty"`
}

// PingInterval returns the keepalive probe interval.
func (c TunnelConfig) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalSeconds) * time.Second
}

// PingTimeout returns the keepalive probe timeout.
func (c TunnelConfig) PingTimeout() time.Duration {
	return time.Duration(c.PingTimeoutSeconds) * time.Second
}

// Validate checks the fields a tunnel cannot start without.
func (c TunnelConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("exttypes: tunnel endpoint is required")
	}
	if c.Secret.IsZero() {
		return fmt.Errorf("exttypes: tunnel secret key is required")
	}
	if c.MTU <= 0 {
		return fmt.Errorf("exttypes: invalid tunnel MTU %d", c.MTU)
	}
	if c.PingIntervalSeconds < 0 || c.PingTimeoutSeconds < 0 {
		return fmt.Errorf("exttypes: ping interval and timeout must not be negative")
	}

	return nil
}
