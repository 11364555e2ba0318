// Command libtunex builds the C archive linked into the packet tunnel
// provider. The exported functions are the extension boundary: the host
// calls them from Swift, so their names, signatures and return conventions
// must not change. Functions returning *C.char hand ownership of the
// string to the caller; failures are reported as strings prefixed with
// "Error:".
package main

// #include <stdlib.h>
import "C"

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/acornvpn/tunex"
	"github.com/acornvpn/tunex/extension"
	"github.com/acornvpn/tunex/exttypes"
	"github.com/acornvpn/tunex/oslog"
)

// runner is the packet engine handed to the extension. Builds that link a
// real engine swap this out in their own main package.
var runner extension.Runner = extension.NopRunner{}

var (
	extMu sync.Mutex
	ext   *extension.Extension
)

//export initOSLogBridge
func initOSLogBridge(subsystem, category *C.char) {
	// Best-effort: logging must never take the extension down.
	_ = oslog.Init(C.GoString(subsystem), C.GoString(category))
}

// logToOSLog accepts the host's legacy four-level scale where 0 is debug,
// 1 is info, 2 is warning and 3 is error.
//
//export logToOSLog
func logToOSLog(level C.int, message *C.char) {
	oslog.Log(oslog.LevelFromLegacy(int(level)), C.GoString(message))
}

// goLogToOSLog logs with an explicit subsystem and category on the native
// five-level scale where 0 is debug, 1 is info, 2 is default, 3 is error
// and 4 is fault.
//
//export goLogToOSLog
func goLogToOSLog(subsystem, category *C.char, level C.int, message *C.char) {
	logger, err := oslog.Open(C.GoString(subsystem), C.GoString(category))
	if err != nil {
		return
	}

	logger.Log(oslog.Level(level), C.GoString(message))
}

// findTunnelFileDescriptor locates the utun descriptor the host opened for
// this process. It returns -1 when no descriptor can be found.
//
//export findTunnelFileDescriptor
func findTunnelFileDescriptor() C.int {
	client, err := tunex.New()
	if err != nil {
		return -1
	}
	defer client.Close()

	fd, err := client.TunnelFD()
	if err != nil {
		return -1
	}

	return C.int(fd)
}

//export initTunnelExtension
func initTunnelExtension(configJSON *C.char) *C.char {
	var cfg extension.Config
	if s := C.GoString(configJSON); s != "" {
		if err := json.Unmarshal([]byte(s), &cfg); err != nil {
			return C.CString(fmt.Sprintf("Error: failed to parse config JSON: %v", err))
		}
	}

	e, err := extension.New(cfg, runner)
	if err != nil {
		return C.CString(fmt.Sprintf("Error: failed to initialize extension: %v", err))
	}

	extMu.Lock()
	defer extMu.Unlock()

	if ext != nil {
		_ = ext.Close()
	}
	ext = e

	return C.CString("Init completed successfully")
}

//export startTunnel
func startTunnel(fd C.int, configJSON *C.char) *C.char {
	extMu.Lock()
	e := ext
	extMu.Unlock()
	if e == nil {
		return C.CString("Error: extension has not been initialized yet")
	}

	var tc exttypes.TunnelConfig
	if err := json.Unmarshal([]byte(C.GoString(configJSON)), &tc); err != nil {
		return C.CString(fmt.Sprintf("Error: failed to parse tunnel config JSON: %v", err))
	}

	if err := e.Start(context.Background(), int(fd), tc); err != nil {
		return C.CString(fmt.Sprintf("Error: failed to start tunnel: %v", err))
	}

	return C.CString("Tunnel started")
}

//export stopTunnel
func stopTunnel() *C.char {
	extMu.Lock()
	e := ext
	extMu.Unlock()
	if e == nil {
		return C.CString("Error: extension has not been initialized yet")
	}

	if err := e.Stop(); err != nil {
		return C.CString(fmt.Sprintf("Error: failed to stop tunnel: %v", err))
	}

	return C.CString("Tunnel stopped")
}

// getNetworkSettings returns the current network settings as JSON. An
// uninitialized extension reports empty settings.
//
//export getNetworkSettings
func getNetworkSettings() *C.char {
	extMu.Lock()
	e := ext
	extMu.Unlock()
	if e == nil {
		return C.CString("{}")
	}

	s, err := e.Settings().JSON()
	if err != nil {
		return C.CString("{}")
	}

	return C.CString(s)
}

//export getNetworkSettingsVersion
func getNetworkSettingsVersion() C.long {
	extMu.Lock()
	e := ext
	extMu.Unlock()
	if e == nil {
		return 0
	}

	return C.long(e.Settings().Version())
}

//export setPowerMode
func setPowerMode(mode *C.char) *C.char {
	extMu.Lock()
	e := ext
	extMu.Unlock()
	if e == nil {
		return C.CString("Error: extension has not been initialized yet")
	}

	m := C.GoString(mode)
	if err := e.SetPowerMode(m); err != nil {
		return C.CString("Error: Tunnel not running")
	}

	return C.CString(fmt.Sprintf("Power mode set to: %s", m))
}

// rebindSocket nudges the engine after a path change, for example when the
// host reports a new default network. With no engine linked it is a no-op.
//
//export rebindSocket
func rebindSocket() *C.char {
	type rebinder interface {
		Rebind()
	}

	if r, ok := runner.(rebinder); ok {
		r.Rebind()
	}

	return C.CString("Socket rebind requested")
}

func main() {}
