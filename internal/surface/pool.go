// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package surface manages the backdrop's displayable buffers and the
// layer surface life cycle. It owns a small pool of shared-memory buffers
// and rotates them so the client never scribbles on pixels the compositor
// is still reading.
package surface

import (
	"errors"
	"fmt"
)

// maxBuffers bounds the pool. Two buffers are enough for a backdrop: one
// on screen, one being painted.
const maxBuffers = 2

var (
	// ErrOutOfBuffers is returned when every pool buffer is still held by
	// the compositor. The redraw should be skipped, not retried in a loop.
	ErrOutOfBuffers = errors.New("all buffers are in use by the compositor")

	// ErrInvalidState is returned for operations that require a configured
	// surface.
	ErrInvalidState = errors.New("surface is not in a valid state for this operation")
)

// ShmBuffer is the slice of buffer behaviour the pool depends on.
type ShmBuffer interface {
	Bytes() []byte
	Size() (width, height int32)
	Destroy() error
}

// Allocator creates new displayable buffers on demand.
type Allocator interface {
	CreateBuffer(width, height int32) (ShmBuffer, error)
}

type poolEntry struct {
	buffer ShmBuffer
	busy   bool
}

// Pool hands out paintable buffers of the current surface size. Buffers
// handed to the compositor stay busy until released; buffers of a stale
// size are destroyed as soon as they come back.
type Pool struct {
	alloc   Allocator
	width   int32
	height  int32
	entries []*poolEntry
}

// NewPool creates an empty pool allocating buffers of the given size.
func NewPool(alloc Allocator, width, height int32) *Pool {
	return &Pool{alloc: alloc, width: width, height: height}
}

// Acquire returns a free buffer of the given size, allocating one when the
// pool is not full yet. A size change is treated as a resize. Returns
// ErrOutOfBuffers when every buffer is held by the compositor.
func (p *Pool) Acquire(width, height int32) (ShmBuffer, error) {
	if width != p.width || height != p.height {
		p.Resize(width, height)
	}
	for _, entry := range p.entries {
		if !entry.busy {
			entry.busy = true
			return entry.buffer, nil
		}
	}
	if len(p.entries) >= maxBuffers {
		return nil, ErrOutOfBuffers
	}
	buffer, err := p.alloc.CreateBuffer(p.width, p.height)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate pool buffer: %w", err)
	}
	p.entries = append(p.entries, &poolEntry{buffer: buffer, busy: true})
	return buffer, nil
}

// Release returns a buffer to the pool. Buffers that no longer match the
// pool size are destroyed instead of being reused.
func (p *Pool) Release(buffer ShmBuffer) {
	for i, entry := range p.entries {
		if entry.buffer != buffer {
			continue
		}
		if width, height := buffer.Size(); width != p.width || height != p.height {
			_ = buffer.Destroy()
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return
		}
		entry.busy = false
		return
	}
}

// Resize changes the pool's buffer size. Free buffers of the old size are
// destroyed immediately; busy ones are drained as the compositor releases
// them.
func (p *Pool) Resize(width, height int32) {
	if width == p.width && height == p.height {
		return
	}
	p.width = width
	p.height = height
	kept := p.entries[:0]
	for _, entry := range p.entries {
		if entry.busy {
			kept = append(kept, entry)
			continue
		}
		_ = entry.buffer.Destroy()
	}
	p.entries = kept
}

// Size returns the pool's current buffer size.
func (p *Pool) Size() (width, height int32) {
	return p.width, p.height
}

// Close destroys every buffer the pool still tracks.
func (p *Pool) Close() {
	for _, entry := range p.entries {
		_ = entry.buffer.Destroy()
	}
	p.entries = nil
}
