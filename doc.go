// Package tunex provides access to the platform facilities available to Go
// code hosted inside an Apple packet tunnel provider: discovery of the
// tunnel file descriptor the network-extension host has attached to the
// process, and (via the oslog subpackage) the unified logging system.
//
// Users are encouraged to use this package directly rather than the
// internal probe packages, as it provides an abstracted interface that
// degrades gracefully on non-Apple operating systems.
package tunex
