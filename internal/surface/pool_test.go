// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"testing"
)

type fakeBuffer struct {
	width     int32
	height    int32
	data      []byte
	destroyed bool
}

func (b *fakeBuffer) Bytes() []byte        { return b.data }
func (b *fakeBuffer) Size() (int32, int32) { return b.width, b.height }
func (b *fakeBuffer) Destroy() error       { b.destroyed = true; return nil }

type fakeAllocator struct {
	created []*fakeBuffer
	err     error
}

func (a *fakeAllocator) CreateBuffer(width, height int32) (ShmBuffer, error) {
	if a.err != nil {
		return nil, a.err
	}
	buffer := &fakeBuffer{width: width, height: height, data: make([]byte, width*height*4)}
	a.created = append(a.created, buffer)
	return buffer, nil
}

func TestPoolAcquire(t *testing.T) {
	t.Run("first acquire should allocate a buffer", func(t *testing.T) {
		alloc := &fakeAllocator{}
		pool := NewPool(alloc, 100, 50)
		buffer, err := pool.Acquire(100, 50)
		if err != nil {
			t.Fatalf("failed to acquire buffer: %s", err)
		}
		if buffer == nil {
			t.Fatal("expected a buffer, got nil")
		}
		if len(alloc.created) != 1 {
			t.Errorf("expected 1 allocation, got %d", len(alloc.created))
		}
	})
	t.Run("third concurrent acquire should fail with ErrOutOfBuffers", func(t *testing.T) {
		alloc := &fakeAllocator{}
		pool := NewPool(alloc, 100, 50)
		if _, err := pool.Acquire(100, 50); err != nil {
			t.Fatalf("failed to acquire first buffer: %s", err)
		}
		if _, err := pool.Acquire(100, 50); err != nil {
			t.Fatalf("failed to acquire second buffer: %s", err)
		}
		_, err := pool.Acquire(100, 50)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.Is(err, ErrOutOfBuffers) {
			t.Errorf("expected ErrOutOfBuffers, got %s", err)
		}
	})
	t.Run("released buffer should be reused instead of reallocated", func(t *testing.T) {
		alloc := &fakeAllocator{}
		pool := NewPool(alloc, 100, 50)
		first, err := pool.Acquire(100, 50)
		if err != nil {
			t.Fatalf("failed to acquire buffer: %s", err)
		}
		pool.Release(first)
		second, err := pool.Acquire(100, 50)
		if err != nil {
			t.Fatalf("failed to reacquire buffer: %s", err)
		}
		if first != second {
			t.Error("expected the released buffer to be reused")
		}
		if len(alloc.created) != 1 {
			t.Errorf("expected 1 allocation, got %d", len(alloc.created))
		}
	})
	t.Run("allocation failure should be wrapped", func(t *testing.T) {
		alloc := &fakeAllocator{err: errors.New("no memory")}
		pool := NewPool(alloc, 100, 50)
		if _, err := pool.Acquire(100, 50); err == nil {
			t.Error("expected allocation error, got nil")
		}
	})
}

func TestPoolResize(t *testing.T) {
	t.Run("free buffers of the old size should be destroyed immediately", func(t *testing.T) {
		alloc := &fakeAllocator{}
		pool := NewPool(alloc, 1920, 1080)
		buffer, err := pool.Acquire(1920, 1080)
		if err != nil {
			t.Fatalf("failed to acquire buffer: %s", err)
		}
		pool.Release(buffer)
		pool.Resize(2560, 1440)
		if !alloc.created[0].destroyed {
			t.Error("expected stale free buffer to be destroyed on resize")
		}
	})
	t.Run("busy buffers should be drained on release, not destroyed mid-flight", func(t *testing.T) {
		alloc := &fakeAllocator{}
		pool := NewPool(alloc, 1920, 1080)
		pending, err := pool.Acquire(1920, 1080)
		if err != nil {
			t.Fatalf("failed to acquire buffer: %s", err)
		}
		pool.Resize(2560, 1440)
		if alloc.created[0].destroyed {
			t.Fatal("expected busy buffer to survive the resize")
		}
		pool.Release(pending)
		if !alloc.created[0].destroyed {
			t.Error("expected stale buffer to be destroyed on release")
		}
	})
	t.Run("acquire after resize should allocate at the new size", func(t *testing.T) {
		alloc := &fakeAllocator{}
		pool := NewPool(alloc, 1920, 1080)
		pending, err := pool.Acquire(1920, 1080)
		if err != nil {
			t.Fatalf("failed to acquire buffer: %s", err)
		}
		pool.Resize(2560, 1440)
		buffer, err := pool.Acquire(2560, 1440)
		if err != nil {
			t.Fatalf("failed to acquire resized buffer: %s", err)
		}
		if width, height := buffer.Size(); width != 2560 || height != 1440 {
			t.Errorf("expected 2560x1440 buffer, got %dx%d", width, height)
		}
		pool.Release(pending)
		pool.Release(buffer)
		if !alloc.created[0].destroyed {
			t.Error("expected stale buffer to be destroyed")
		}
		if alloc.created[1].destroyed {
			t.Error("expected current-size buffer to be kept")
		}
	})
	t.Run("resize to the same size should be a no-op", func(t *testing.T) {
		alloc := &fakeAllocator{}
		pool := NewPool(alloc, 1920, 1080)
		buffer, err := pool.Acquire(1920, 1080)
		if err != nil {
			t.Fatalf("failed to acquire buffer: %s", err)
		}
		pool.Release(buffer)
		pool.Resize(1920, 1080)
		if alloc.created[0].destroyed {
			t.Error("expected buffer to survive a same-size resize")
		}
	})
}

func TestPoolClose(t *testing.T) {
	t.Run("close should destroy every tracked buffer", func(t *testing.T) {
		alloc := &fakeAllocator{}
		pool := NewPool(alloc, 100, 50)
		if _, err := pool.Acquire(100, 50); err != nil {
			t.Fatalf("failed to acquire buffer: %s", err)
		}
		second, err := pool.Acquire(100, 50)
		if err != nil {
			t.Fatalf("failed to acquire buffer: %s", err)
		}
		pool.Release(second)
		pool.Close()
		for i, buffer := range alloc.created {
			if !buffer.destroyed {
				t.Errorf("expected buffer %d to be destroyed on close", i)
			}
		}
	})
}
