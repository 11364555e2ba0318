package probe

import (
	"runtime"
	"strings"
	"testing"
)

func TestUnimplementedErrors(t *testing.T) {
	p := Unimplemented("fdtest", "requires an Apple host")

	if _, err := p.TunnelFD(); err == nil {
		t.Fatal("expected an error from TunnelFD, but none occurred")
	}

	_, err := p.TunnelName(3)
	if err == nil {
		t.Fatal("expected an error from TunnelName, but none occurred")
	}

	for _, want := range []string{"fdtest", runtime.GOOS, "requires an Apple host"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}
}
