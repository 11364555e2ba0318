// Package fdname locates the tunnel file descriptor by asking each
// candidate socket for the interface name of its backing utun control. It
// needs one getsockopt per candidate and no registry lookup, which makes it
// a useful fallback inside tightly sandboxed extension hosts.
package fdname
