// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package wayland

import "fmt"

// Request opcodes sent by the client and event opcodes received from the
// compositor, per protocol object.
const (
	opDisplaySync        uint16 = 0
	opDisplayGetRegistry uint16 = 1
	evDisplayError       uint16 = 0
	evDisplayDeleteID    uint16 = 1

	opRegistryBind         uint16 = 0
	evRegistryGlobal       uint16 = 0
	evRegistryGlobalRemove uint16 = 1

	evCallbackDone uint16 = 0

	opCompositorCreateSurface uint16 = 0

	opSurfaceDestroy        uint16 = 0
	opSurfaceAttach         uint16 = 1
	opSurfaceDamage         uint16 = 2
	opSurfaceCommit         uint16 = 6
	opSurfaceSetBufferScale uint16 = 8

	opShmCreatePool uint16 = 0
	evShmFormat     uint16 = 0

	opShmPoolCreateBuffer uint16 = 0
	opShmPoolDestroy      uint16 = 1

	opBufferDestroy uint16 = 0
	evBufferRelease uint16 = 0

	opOutputRelease  uint16 = 0
	evOutputGeometry uint16 = 0
	evOutputMode     uint16 = 1
	evOutputDone     uint16 = 2
	evOutputScale    uint16 = 3

	opLayerShellGetLayerSurface uint16 = 0

	opLayerSurfaceSetSize          uint16 = 0
	opLayerSurfaceSetAnchor        uint16 = 1
	opLayerSurfaceSetExclusiveZone uint16 = 2
	opLayerSurfaceAckConfigure     uint16 = 6
	opLayerSurfaceDestroy          uint16 = 7
	evLayerSurfaceConfigure        uint16 = 0
	evLayerSurfaceClosed           uint16 = 1
)

// modeCurrent is the wl_output.mode flag marking the active mode.
const modeCurrent uint32 = 1

// RegistryListener receives global advertisement and removal events.
type RegistryListener interface {
	Global(name uint32, iface string, version uint32)
	GlobalRemove(name uint32)
}

// Registry is the wl_registry singleton listing the compositor's globals.
type Registry struct {
	idv      uint32
	client   *Client
	listener RegistryListener
}

// GetRegistry creates the registry object. The compositor answers with one
// Global event per available global.
func (c *Client) GetRegistry() (*Registry, error) {
	registry := &Registry{client: c}
	registry.idv = c.register(registry)
	if err := c.sendRequest(displayID, opDisplayGetRegistry, nil, registry.idv); err != nil {
		return nil, err
	}
	return registry, nil
}

// SetListener registers the handler for global advertisements.
func (r *Registry) SetListener(listener RegistryListener) {
	r.listener = listener
}

func (r *Registry) objectID() uint32 { return r.idv }

func (r *Registry) dispatch(opcode uint16, ev *eventReader) {
	if r.listener == nil {
		return
	}
	switch opcode {
	case evRegistryGlobal:
		name := ev.uint32()
		iface := ev.string()
		version := ev.uint32()
		if !ev.bad {
			r.listener.Global(name, iface, version)
		}
	case evRegistryGlobalRemove:
		name := ev.uint32()
		if !ev.bad {
			r.listener.GlobalRemove(name)
		}
	}
}

// bind registers obj under a fresh ID and binds it to the advertised global.
func (r *Registry) bind(name uint32, iface string, version uint32, register func() uint32) error {
	id := register()
	return r.client.sendRequest(r.idv, opRegistryBind, nil, name, iface, version, id)
}

// BindCompositor binds the advertised wl_compositor global.
func (r *Registry) BindCompositor(name, version uint32) (*Compositor, error) {
	compositor := &Compositor{client: r.client}
	err := r.bind(name, InterfaceCompositor, version, func() uint32 {
		compositor.idv = r.client.register(compositor)
		return compositor.idv
	})
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", InterfaceCompositor, err)
	}
	return compositor, nil
}

// BindShm binds the advertised wl_shm global.
func (r *Registry) BindShm(name, version uint32) (*Shm, error) {
	shm := &Shm{client: r.client}
	err := r.bind(name, InterfaceShm, version, func() uint32 {
		shm.idv = r.client.register(shm)
		return shm.idv
	})
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", InterfaceShm, err)
	}
	return shm, nil
}

// BindLayerShell binds the advertised zwlr_layer_shell_v1 global.
func (r *Registry) BindLayerShell(name, version uint32) (*LayerShell, error) {
	shell := &LayerShell{client: r.client}
	err := r.bind(name, InterfaceLayerShell, version, func() uint32 {
		shell.idv = r.client.register(shell)
		return shell.idv
	})
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", InterfaceLayerShell, err)
	}
	return shell, nil
}

// BindOutput binds an advertised wl_output global.
func (r *Registry) BindOutput(name, version uint32) (*Output, error) {
	output := &Output{client: r.client, globalName: name, scale: 1}
	err := r.bind(name, InterfaceOutput, version, func() uint32 {
		output.idv = r.client.register(output)
		return output.idv
	})
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", InterfaceOutput, err)
	}
	return output, nil
}

// Callback is a wl_callback; the compositor destroys it after firing done.
type Callback struct {
	idv    uint32
	client *Client
	onDone func(serial uint32)
}

func (cb *Callback) objectID() uint32 { return cb.idv }

func (cb *Callback) dispatch(opcode uint16, ev *eventReader) {
	if opcode == evCallbackDone {
		serial := ev.uint32()
		cb.client.unregister(cb.idv)
		if cb.onDone != nil {
			cb.onDone(serial)
		}
	}
}

// Compositor is the wl_compositor global, the factory for surfaces.
type Compositor struct {
	idv    uint32
	client *Client
}

func (c *Compositor) objectID() uint32              { return c.idv }
func (c *Compositor) dispatch(uint16, *eventReader) {}

// CreateSurface creates a new wl_surface.
func (c *Compositor) CreateSurface() (*Surface, error) {
	surface := &Surface{client: c.client}
	surface.idv = c.client.register(surface)
	if err := c.client.sendRequest(c.idv, opCompositorCreateSurface, nil, surface.idv); err != nil {
		return nil, fmt.Errorf("failed to create surface: %w", err)
	}
	return surface, nil
}

// Surface is a wl_surface, the drawable the backdrop content is committed to.
type Surface struct {
	idv    uint32
	client *Client
}

func (s *Surface) objectID() uint32 { return s.idv }

// enter/leave events carry no state the backdrop needs.
func (s *Surface) dispatch(uint16, *eventReader) {}

// Attach sets the given buffer as the surface's pending content. A nil
// buffer detaches the current content.
func (s *Surface) Attach(buffer *Buffer, x, y int32) error {
	var bufID uint32
	if buffer != nil {
		bufID = buffer.idv
	}
	return s.client.sendRequest(s.idv, opSurfaceAttach, nil, bufID, x, y)
}

// Damage marks the given region as needing repaint on the next commit.
func (s *Surface) Damage(x, y, width, height int32) error {
	return s.client.sendRequest(s.idv, opSurfaceDamage, nil, x, y, width, height)
}

// Commit atomically applies the pending surface state.
func (s *Surface) Commit() error {
	return s.client.sendRequest(s.idv, opSurfaceCommit, nil)
}

// SetBufferScale declares the scale factor the attached buffers are
// rendered at. Requires wl_compositor version 3.
func (s *Surface) SetBufferScale(scale int32) error {
	return s.client.sendRequest(s.idv, opSurfaceSetBufferScale, nil, scale)
}

// Destroy removes the surface.
func (s *Surface) Destroy() error {
	err := s.client.sendRequest(s.idv, opSurfaceDestroy, nil)
	s.client.unregister(s.idv)
	return err
}

// Shm is the wl_shm global, the factory for shared-memory pools.
type Shm struct {
	idv    uint32
	client *Client
}

func (s *Shm) objectID() uint32 { return s.idv }

// format advertisement events are informational; ARGB8888 support is mandatory.
func (s *Shm) dispatch(uint16, *eventReader) {}

// CreatePool shares size bytes of the memory behind fd with the compositor.
func (s *Shm) CreatePool(fd int, size int32) (*ShmPool, error) {
	pool := &ShmPool{client: s.client}
	pool.idv = s.client.register(pool)
	if err := s.client.sendRequest(s.idv, opShmCreatePool, []int{fd}, pool.idv, size); err != nil {
		return nil, fmt.Errorf("failed to create shm pool: %w", err)
	}
	return pool, nil
}

// ShmPool is a wl_shm_pool carved into displayable buffers.
type ShmPool struct {
	idv    uint32
	client *Client
}

func (p *ShmPool) objectID() uint32              { return p.idv }
func (p *ShmPool) dispatch(uint16, *eventReader) {}

// CreateBuffer registers a buffer of the given geometry inside the pool.
func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format uint32) (*Buffer, error) {
	buffer := &Buffer{client: p.client, width: width, height: height, stride: stride}
	buffer.idv = p.client.register(buffer)
	err := p.client.sendRequest(p.idv, opShmPoolCreateBuffer, nil,
		buffer.idv, offset, width, height, stride, format)
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer: %w", err)
	}
	return buffer, nil
}

// Destroy removes the pool. Buffers created from it stay valid.
func (p *ShmPool) Destroy() error {
	err := p.client.sendRequest(p.idv, opShmPoolDestroy, nil)
	p.client.unregister(p.idv)
	return err
}

// BufferListener receives the compositor's release notification.
type BufferListener interface {
	Release(buffer *Buffer)
}

// Buffer is a wl_buffer backed by mmapped shared memory.
type Buffer struct {
	idv      uint32
	client   *Client
	data     []byte
	width    int32
	height   int32
	stride   int32
	listener BufferListener
}

func (b *Buffer) objectID() uint32 { return b.idv }

func (b *Buffer) dispatch(opcode uint16, _ *eventReader) {
	if opcode == evBufferRelease && b.listener != nil {
		b.listener.Release(b)
	}
}

// SetListener registers the handler for release events.
func (b *Buffer) SetListener(listener BufferListener) {
	b.listener = listener
}

// Bytes returns the buffer's pixel memory.
func (b *Buffer) Bytes() []byte { return b.data }

// Size returns the buffer's dimensions in pixels.
func (b *Buffer) Size() (width, height int32) { return b.width, b.height }

// Stride returns the buffer's bytes per row.
func (b *Buffer) Stride() int32 { return b.stride }

// Destroy removes the buffer and unmaps its memory.
func (b *Buffer) Destroy() error {
	err := b.client.sendRequest(b.idv, opBufferDestroy, nil)
	b.client.unregister(b.idv)
	if b.data != nil {
		if merr := munmap(b.data); merr != nil && err == nil {
			err = merr
		}
		b.data = nil
	}
	return err
}

// Output is a wl_output describing one physical display. Its attributes
// arrive as a burst of events finished by done.
type Output struct {
	idv        uint32
	client     *Client
	globalName uint32
	width      int32
	height     int32
	scale      int32
	done       bool
}

func (o *Output) objectID() uint32 { return o.idv }

func (o *Output) dispatch(opcode uint16, ev *eventReader) {
	switch opcode {
	case evOutputGeometry:
		// x, y, physical size, subpixel, make, model, transform: unused
	case evOutputMode:
		flags := ev.uint32()
		width := ev.int32()
		height := ev.int32()
		if !ev.bad && flags&modeCurrent != 0 {
			o.width = width
			o.height = height
		}
	case evOutputScale:
		if factor := ev.int32(); !ev.bad && factor > 0 {
			o.scale = factor
		}
	case evOutputDone:
		o.done = true
	}
}

// GlobalName returns the registry name the output was advertised under.
func (o *Output) GlobalName() uint32 { return o.globalName }

// Ready returns true once the output's attribute burst completed.
func (o *Output) Ready() bool { return o.done }

// Scale returns the output's integer scale factor.
func (o *Output) Scale() int32 { return o.scale }

// Mode returns the output's current mode size in physical pixels.
func (o *Output) Mode() (width, height int32) { return o.width, o.height }

// LogicalSize returns the output's size in scale-adjusted logical pixels.
func (o *Output) LogicalSize() (width, height int32) {
	if o.scale <= 0 {
		return o.width, o.height
	}
	return o.width / o.scale, o.height / o.scale
}

// release detaches the client-side object after the global was removed.
func (o *Output) release() {
	_ = o.client.sendRequest(o.idv, opOutputRelease, nil)
	o.client.unregister(o.idv)
}

// LayerShell is the zwlr_layer_shell_v1 global, the factory for layer surfaces.
type LayerShell struct {
	idv    uint32
	client *Client
}

func (l *LayerShell) objectID() uint32              { return l.idv }
func (l *LayerShell) dispatch(uint16, *eventReader) {}

// GetLayerSurface assigns the given surface to a layer. A nil output lets
// the compositor choose one.
func (l *LayerShell) GetLayerSurface(surface *Surface, output *Output, layer uint32,
	namespace string,
) (*LayerSurface, error) {
	layerSurface := &LayerSurface{client: l.client}
	layerSurface.idv = l.client.register(layerSurface)
	var outputID uint32
	if output != nil {
		outputID = output.idv
	}
	err := l.client.sendRequest(l.idv, opLayerShellGetLayerSurface, nil,
		layerSurface.idv, surface.idv, outputID, layer, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create layer surface: %w", err)
	}
	return layerSurface, nil
}

// LayerSurfaceListener receives configure proposals and the closed event.
type LayerSurfaceListener interface {
	Configure(serial, width, height uint32)
	Closed()
}

// LayerSurface is a zwlr_layer_surface_v1 controlling the backdrop's
// placement on the background layer.
type LayerSurface struct {
	idv      uint32
	client   *Client
	listener LayerSurfaceListener
}

func (l *LayerSurface) objectID() uint32 { return l.idv }

func (l *LayerSurface) dispatch(opcode uint16, ev *eventReader) {
	if l.listener == nil {
		return
	}
	switch opcode {
	case evLayerSurfaceConfigure:
		serial := ev.uint32()
		width := ev.uint32()
		height := ev.uint32()
		if !ev.bad {
			l.listener.Configure(serial, width, height)
		}
	case evLayerSurfaceClosed:
		l.listener.Closed()
	}
}

// SetListener registers the handler for configure and closed events.
func (l *LayerSurface) SetListener(listener LayerSurfaceListener) {
	l.listener = listener
}

// SetSize proposes a surface size; zero lets the compositor assign the
// anchored dimension.
func (l *LayerSurface) SetSize(width, height uint32) error {
	return l.client.sendRequest(l.idv, opLayerSurfaceSetSize, nil, width, height)
}

// SetAnchor anchors the surface to the given edges.
func (l *LayerSurface) SetAnchor(anchor uint32) error {
	return l.client.sendRequest(l.idv, opLayerSurfaceSetAnchor, nil, anchor)
}

// SetExclusiveZone requests exclusive space; -1 for surfaces that ignore
// other exclusive zones, as a background does.
func (l *LayerSurface) SetExclusiveZone(zone int32) error {
	return l.client.sendRequest(l.idv, opLayerSurfaceSetExclusiveZone, nil, zone)
}

// AckConfigure acknowledges the configure event with the given serial.
func (l *LayerSurface) AckConfigure(serial uint32) error {
	return l.client.sendRequest(l.idv, opLayerSurfaceAckConfigure, nil, serial)
}

// Destroy removes the layer surface.
func (l *LayerSurface) Destroy() error {
	err := l.client.sendRequest(l.idv, opLayerSurfaceDestroy, nil)
	l.client.unregister(l.idv)
	return err
}
