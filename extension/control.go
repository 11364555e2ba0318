package extension

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// The control socket speaks a line-oriented key=value protocol in the
// style of userspace tunnel implementations: a client sends a command
// line followed by a blank line, the server replies with key=value lines
// and finishes with errno=<n> and a blank line. errno=0 indicates success;
// anything else matches definitions from errno.h.

// A Status is the state reported over the control socket.
type Status struct {
	Running         bool
	SettingsVersion int64
	Settings        string
}

// controlServer serves Status queries on a UNIX socket.
type controlServer struct {
	ext *Extension
	l   net.Listener
	wg  sync.WaitGroup
}

// startControl binds the control socket and begins accepting queries. An
// empty path falls back to the platform default.
func (e *Extension) startControl(path string) error {
	if path == "" {
		path = defaultControlPath
	}

	// A previous run may have left its socket file behind.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("extension: failed to remove stale control socket: %w", err)
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("extension: failed to listen on control socket: %w", err)
	}

	srv := &controlServer{ext: e, l: l}
	srv.wg.Add(1)
	go srv.serve()

	e.ctl = srv
	e.log.Info("control socket listening", zap.String("path", path))

	return nil
}

// Close stops accepting queries and waits for in-flight handlers.
func (s *controlServer) Close() error {
	err := s.l.Close()
	s.wg.Wait()
	return err
}

func (s *controlServer) serve() {
	defer s.wg.Done()

	for {
		c, err := s.l.Accept()
		if err != nil {
			// Listener closed; shut down.
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer c.Close()

			if err := s.handle(c); err != nil {
				s.ext.log.Error("control query failed", zap.Error(err))
			}
		}()
	}
}

func (s *controlServer) handle(c net.Conn) error {
	br := bufio.NewReader(c)
	cmd, err := br.ReadString('\n')
	if err != nil {
		return err
	}

	if strings.TrimSpace(cmd) != "get=1" {
		_, err = fmt.Fprintf(c, "errno=22\n\n")
		return err
	}

	settings, err := s.ext.settings.JSON()
	if err != nil {
		_, werr := fmt.Fprintf(c, "errno=5\n\n")
		if werr != nil {
			return werr
		}
		return err
	}

	running := 0
	if s.ext.Running() {
		running = 1
	}

	_, err = fmt.Fprintf(c, "running=%d\nsettings_version=%d\nsettings=%s\nerrno=0\n\n",
		running, s.ext.settings.Version(), settings)
	return err
}

// QueryControl connects to the control socket at path and returns the
// extension's current status.
func QueryControl(path string) (*Status, error) {
	if path == "" {
		path = defaultControlPath
	}

	c, err := net.Dial("unix", path)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if _, err := fmt.Fprintf(c, "get=1\n\n"); err != nil {
		return nil, err
	}

	return parseStatus(bufio.NewReader(c))
}

func parseStatus(br *bufio.Reader) (*Status, error) {
	var st Status
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}

		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("extension: malformed control reply line %q", line)
		}

		switch k {
		case "running":
			st.Running = v == "1"
		case "settings_version":
			ver, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("extension: invalid settings version %q", v)
			}
			st.SettingsVersion = ver
		case "settings":
			st.Settings = v
		case "errno":
			if v != "0" {
				return nil, os.NewSyscallError("read", fmt.Errorf("extension: errno=%s", v))
			}
			return &st, nil
		}
	}

	return nil, fmt.Errorf("extension: control reply ended without errno")
}
