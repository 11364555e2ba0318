//go:build darwin

package oslog

/*
#include <os/log.h>
#include <stdlib.h>

// os_log_create cannot be called through cgo's function pointer rules and
// os_log_with_type is a macro, so both go through static shims. The message
// is formatted with a public specifier so the host log shows it unredacted.
static os_log_t tunex_os_log_create(const char *subsystem, const char *category) {
	return os_log_create(subsystem, category);
}

static void tunex_os_log(os_log_t log, uint8_t type, const char *msg) {
	os_log_with_type(log, (os_log_type_t)type, "%{public}s", msg);
}
*/
import "C"

import "unsafe"

// osLogSink delivers messages to the unified logging system.
type osLogSink struct {
	log C.os_log_t
}

// osLogTypes maps Level values to OS_LOG_TYPE_* constants.
var osLogTypes = [...]C.uint8_t{
	LevelDebug:   C.OS_LOG_TYPE_DEBUG,
	LevelInfo:    C.OS_LOG_TYPE_INFO,
	LevelDefault: C.OS_LOG_TYPE_DEFAULT,
	LevelError:   C.OS_LOG_TYPE_ERROR,
	LevelFault:   C.OS_LOG_TYPE_FAULT,
}

// newSink creates the os_log handle for a subsystem/category pair. Handles
// live for the process lifetime; the system never requires them to be
// released.
func newSink(subsystem, category string) (sink, error) {
	csub := C.CString(subsystem)
	defer C.free(unsafe.Pointer(csub))
	ccat := C.CString(category)
	defer C.free(unsafe.Pointer(ccat))

	return &osLogSink{log: C.tunex_os_log_create(csub, ccat)}, nil
}

func (s *osLogSink) emit(level Level, msg string) {
	cmsg := C.CString(msg)
	C.tunex_os_log(s.log, osLogTypes[level], cmsg)
	C.free(unsafe.Pointer(cmsg))
}
