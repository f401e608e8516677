// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"

	"github.com/wneessen/backdrop/internal/logger"
	"github.com/wneessen/backdrop/internal/surface"
	"github.com/wneessen/backdrop/internal/wayland"
)

// bufferAllocator adapts the session's shm buffer creation to the pool's
// allocator interface and feeds compositor release events back to it.
type bufferAllocator struct {
	session   *wayland.Session
	onRelease func(surface.ShmBuffer)
}

func (a *bufferAllocator) CreateBuffer(width, height int32) (surface.ShmBuffer, error) {
	buffer, err := a.session.CreateBuffer(width, height, wayland.FormatARGB8888)
	if err != nil {
		return nil, err
	}
	buffer.SetListener(a)
	return buffer, nil
}

func (a *bufferAllocator) Release(buffer *wayland.Buffer) {
	if a.onRelease != nil {
		a.onRelease(buffer)
	}
}

// surfaceCanvas adapts a wl_surface to the controller's canvas interface.
type surfaceCanvas struct {
	surface *wayland.Surface
}

func (c *surfaceCanvas) Attach(buffer surface.ShmBuffer, x, y int32) error {
	wlBuffer, ok := buffer.(*wayland.Buffer)
	if !ok {
		return fmt.Errorf("unexpected buffer type %T", buffer)
	}
	return c.surface.Attach(wlBuffer, x, y)
}

func (c *surfaceCanvas) Damage(x, y, width, height int32) error {
	return c.surface.Damage(x, y, width, height)
}

func (c *surfaceCanvas) Commit() error {
	return c.surface.Commit()
}

func (c *surfaceCanvas) SetBufferScale(scale int32) error {
	return c.surface.SetBufferScale(scale)
}

// layerEvents forwards layer surface events to the controller.
type layerEvents struct {
	service *Service
}

func (l *layerEvents) Configure(serial, width, height uint32) {
	if err := l.service.controller.HandleConfigure(serial, width, height); err != nil {
		l.service.logger.Error("failed to apply configure", logger.Err(err))
	}
}

func (l *layerEvents) Closed() {
	l.service.controller.HandleClosed()
}
