// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"log/slog"

	"github.com/wneessen/backdrop/internal/logger"
)

// State is the controller's position in the surface life cycle.
type State int

const (
	// StateUninitialized is the state before the layer surface was set up.
	StateUninitialized State = iota
	// StateConfiguring means the initial commit was sent and the first
	// configure event is awaited.
	StateConfiguring
	// StateReady means a configure was acked and the surface can be drawn.
	StateReady
	// StateResizing means a configure with new dimensions is being applied.
	StateResizing
	// StateDestroyed is terminal; the compositor closed the surface.
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfiguring:
		return "configuring"
	case StateReady:
		return "ready"
	case StateResizing:
		return "resizing"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Canvas is the drawable surface the controller commits buffers to.
type Canvas interface {
	Attach(buffer ShmBuffer, x, y int32) error
	Damage(x, y, width, height int32) error
	Commit() error
	SetBufferScale(scale int32) error
}

// LayerControl is the layer-shell role the controller negotiates size with.
type LayerControl interface {
	SetSize(width, height uint32) error
	SetAnchor(anchor uint32) error
	SetExclusiveZone(zone int32) error
	AckConfigure(serial uint32) error
}

// Painter fills a buffer's pixel memory for the given physical size.
type Painter func(pixels []byte, width, height int32)

// Controller drives a background layer surface through its configure and
// redraw life cycle.
type Controller struct {
	canvas         Canvas
	layer          LayerControl
	pool           *Pool
	log            *logger.Logger
	painter        Painter
	state          State
	width          int32 // logical
	height         int32
	fallbackWidth  int32
	fallbackHeight int32
	scale          int32
	scaleSet       bool
}

// NewController creates a controller over the given surface role objects.
// The fallback size is used when the compositor proposes 0x0, typically the
// bound output's logical size. Scale is the output's integer scale factor.
func NewController(canvas Canvas, layer LayerControl, pool *Pool, fallbackWidth, fallbackHeight,
	scale int32, painter Painter, log *logger.Logger,
) *Controller {
	if scale < 1 {
		scale = 1
	}
	return &Controller{
		canvas:         canvas,
		layer:          layer,
		pool:           pool,
		log:            log,
		painter:        painter,
		fallbackWidth:  fallbackWidth,
		fallbackHeight: fallbackHeight,
		scale:          scale,
	}
}

// Init anchors the surface to all four edges on the background layer and
// performs the initial bare commit that solicits the first configure event.
func (c *Controller) Init(anchor uint32) error {
	if c.state != StateUninitialized {
		return fmt.Errorf("%w: surface already initialized (state %s)", ErrInvalidState, c.state)
	}
	if err := c.layer.SetSize(0, 0); err != nil {
		return fmt.Errorf("failed to set layer surface size: %w", err)
	}
	if err := c.layer.SetAnchor(anchor); err != nil {
		return fmt.Errorf("failed to anchor layer surface: %w", err)
	}
	if err := c.layer.SetExclusiveZone(-1); err != nil {
		return fmt.Errorf("failed to set exclusive zone: %w", err)
	}
	if err := c.canvas.Commit(); err != nil {
		return fmt.Errorf("failed to commit layer surface role: %w", err)
	}
	c.state = StateConfiguring
	return nil
}

// HandleConfigure acks the compositor's size proposal and redraws when the
// dimensions changed. A 0x0 proposal falls back to the output's logical
// size.
func (c *Controller) HandleConfigure(serial, width, height uint32) error {
	switch c.state {
	case StateConfiguring, StateReady, StateResizing:
	default:
		return fmt.Errorf("%w: configure in state %s", ErrInvalidState, c.state)
	}

	logicalWidth, logicalHeight := int32(width), int32(height)
	if logicalWidth == 0 || logicalHeight == 0 {
		logicalWidth, logicalHeight = c.fallbackWidth, c.fallbackHeight
	}
	if err := c.layer.AckConfigure(serial); err != nil {
		return fmt.Errorf("failed to ack configure: %w", err)
	}

	first := c.state == StateConfiguring
	changed := logicalWidth != c.width || logicalHeight != c.height
	if !first && !changed {
		return nil
	}
	if !first {
		c.state = StateResizing
		c.log.Debug("surface resize", slog.Int("width", int(logicalWidth)),
			slog.Int("height", int(logicalHeight)))
	}
	c.width, c.height = logicalWidth, logicalHeight
	c.pool.Resize(c.width*c.scale, c.height*c.scale)
	c.state = StateReady
	return c.Redraw()
}

// Redraw paints a fresh buffer and commits it. Returns ErrInvalidState
// before the first acked configure and ErrOutOfBuffers when the compositor
// still holds every buffer; the caller skips the frame and retries on the
// next tick.
func (c *Controller) Redraw() error {
	if c.state != StateReady {
		return fmt.Errorf("%w: redraw in state %s", ErrInvalidState, c.state)
	}
	physWidth, physHeight := c.width*c.scale, c.height*c.scale
	buffer, err := c.pool.Acquire(physWidth, physHeight)
	if err != nil {
		return err
	}
	c.painter(buffer.Bytes(), physWidth, physHeight)
	return c.commit(buffer, physWidth, physHeight)
}

func (c *Controller) commit(buffer ShmBuffer, width, height int32) error {
	if !c.scaleSet && c.scale > 1 {
		if err := c.canvas.SetBufferScale(c.scale); err != nil {
			return fmt.Errorf("failed to set buffer scale: %w", err)
		}
		c.scaleSet = true
	}
	if err := c.canvas.Attach(buffer, 0, 0); err != nil {
		return fmt.Errorf("failed to attach buffer: %w", err)
	}
	if err := c.canvas.Damage(0, 0, width, height); err != nil {
		return fmt.Errorf("failed to damage surface: %w", err)
	}
	if err := c.canvas.Commit(); err != nil {
		return fmt.Errorf("failed to commit surface: %w", err)
	}
	return nil
}

// HandleRelease returns a buffer the compositor is done with to the pool.
func (c *Controller) HandleRelease(buffer ShmBuffer) {
	c.pool.Release(buffer)
}

// HandleClosed marks the surface destroyed; no further drawing is allowed.
func (c *Controller) HandleClosed() {
	c.state = StateDestroyed
}

// State returns the controller's current life cycle state.
func (c *Controller) State() State {
	return c.state
}

// Size returns the surface's logical dimensions.
func (c *Controller) Size() (width, height int32) {
	return c.width, c.height
}

// Close releases the pool's buffers and terminates the life cycle.
func (c *Controller) Close() {
	c.pool.Close()
	c.state = StateDestroyed
}
