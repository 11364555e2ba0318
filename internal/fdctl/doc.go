// Package fdctl locates the tunnel file descriptor by inspecting the peer
// address of candidate sockets: a descriptor whose peer is the utun kernel
// control is the data channel the network-extension host attached to this
// process.
package fdctl
