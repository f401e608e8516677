// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package wayland

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/wneessen/backdrop/internal/logger"
)

// Highest interface versions the session understands. Advertised versions
// above these are capped rather than rejected.
const (
	compositorVersion = 4
	shmVersion        = 1
	outputVersion     = 3
	layerShellVersion = 4
)

// Session is a bound connection to a Wayland compositor, holding the
// globals the backdrop needs. All methods except Wake must be called from
// the dispatch thread.
type Session struct {
	client     *Client
	log        *logger.Logger
	registry   *Registry
	compositor *Compositor
	shm        *Shm
	layerShell *LayerShell
	outputs    []*Output
}

// Connect resolves the display socket from WAYLAND_DISPLAY and
// XDG_RUNTIME_DIR and establishes the connection.
func Connect(log *logger.Logger) (*Session, error) {
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	if !filepath.IsAbs(display) {
		runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
		if runtimeDir == "" {
			return nil, fmt.Errorf("%w: XDG_RUNTIME_DIR is not set", ErrConnection)
		}
		display = filepath.Join(runtimeDir, display)
	}

	client, err := newClient(display, log)
	if err != nil {
		return nil, err
	}
	return newSession(client, log)
}

// newSession wires a session on top of an existing client and performs the
// registry handshake.
func newSession(client *Client, log *logger.Logger) (*Session, error) {
	session := &Session{client: client, log: log}
	registry, err := client.GetRegistry()
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	session.registry = registry
	registry.SetListener(session)

	// First roundtrip delivers the globals, second one the attribute
	// bursts of the outputs bound during the first.
	if err = client.roundTrip(); err != nil {
		_ = client.Close()
		return nil, err
	}
	if err = client.roundTrip(); err != nil {
		_ = client.Close()
		return nil, err
	}

	if err = session.checkGlobals(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return session, nil
}

// Global binds the advertised global if the session has a use for it.
func (s *Session) Global(name uint32, iface string, version uint32) {
	var err error
	switch iface {
	case InterfaceCompositor:
		s.compositor, err = s.registry.BindCompositor(name, capVersion(version, compositorVersion))
	case InterfaceShm:
		s.shm, err = s.registry.BindShm(name, capVersion(version, shmVersion))
	case InterfaceLayerShell:
		s.layerShell, err = s.registry.BindLayerShell(name, capVersion(version, layerShellVersion))
	case InterfaceOutput:
		var output *Output
		if output, err = s.registry.BindOutput(name, capVersion(version, outputVersion)); err == nil {
			s.outputs = append(s.outputs, output)
		}
	}
	if err != nil {
		s.log.Error("failed to bind global", slog.String("interface", iface), logger.Err(err))
	}
}

// GlobalRemove releases an output that went away. The other globals the
// session binds are singletons that outlive the session.
func (s *Session) GlobalRemove(name uint32) {
	for i, output := range s.outputs {
		if output.GlobalName() == name {
			output.release()
			s.outputs = append(s.outputs[:i], s.outputs[i+1:]...)
			s.log.Debug("output removed", slog.Uint64("name", uint64(name)))
			return
		}
	}
}

func (s *Session) checkGlobals() error {
	switch {
	case s.compositor == nil:
		return fmt.Errorf("%w: compositor does not advertise %s", ErrProtocol, InterfaceCompositor)
	case s.shm == nil:
		return fmt.Errorf("%w: compositor does not advertise %s", ErrProtocol, InterfaceShm)
	case s.layerShell == nil:
		return fmt.Errorf("%w: compositor does not advertise %s", ErrProtocol, InterfaceLayerShell)
	}
	return nil
}

// Output returns the first display the session saw, or nil when the
// compositor should pick one.
func (s *Session) Output() *Output {
	if len(s.outputs) == 0 {
		return nil
	}
	return s.outputs[0]
}

// CreateSurface creates a plain surface.
func (s *Session) CreateSurface() (*Surface, error) {
	return s.compositor.CreateSurface()
}

// CreateLayerSurface puts the given surface on the requested shell layer.
func (s *Session) CreateLayerSurface(surface *Surface, layer uint32, namespace string) (*LayerSurface, error) {
	return s.layerShell.GetLayerSurface(surface, s.Output(), layer, namespace)
}

// CreateBuffer allocates a shared-memory buffer of the given size.
func (s *Session) CreateBuffer(width, height int32, format uint32) (*Buffer, error) {
	return createShmBuffer(s.shm, width, height, format)
}

// RoundTrip blocks until the compositor processed all previous requests.
func (s *Session) RoundTrip() error {
	return s.client.roundTrip()
}

// DispatchBlocking waits up to maxWait for compositor events and processes
// everything that arrived. Returns nil on timeout or wake.
func (s *Session) DispatchBlocking(maxWait time.Duration) error {
	return s.client.dispatchOnce(maxWait)
}

// Wake interrupts a blocking dispatch wait. Safe to call from any goroutine.
func (s *Session) Wake() {
	s.client.Wake()
}

// Close tears down the connection.
func (s *Session) Close() error {
	return s.client.Close()
}

func capVersion(advertised, supported uint32) uint32 {
	if advertised < supported {
		return advertised
	}
	return supported
}
