//go:build !darwin

package extension

var defaultControlPath = "/var/run/tunex.sock"
