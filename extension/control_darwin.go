//go:build darwin

package extension

import (
	"os"
	"path/filepath"
)

// netExtAppID is the app group container the host shares with the
// extension. The control socket must live inside it to survive sandboxing.
const netExtAppID = "com.acornvpn.tunex.network-extension"

var defaultControlPath = func() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "/var/run/tunex.sock"
	}

	return filepath.Join(homeDir, "Library", "Containers", netExtAppID, "Data", "tunex.sock")
}()
