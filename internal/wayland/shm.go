// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package wayland

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const bytesPerPixel = 4

// createShmBuffer backs a new wl_buffer with an anonymous memfd that is
// shared with the compositor. Each buffer gets its own single-buffer pool,
// so resizing one buffer never disturbs another. The pool object is
// destroyed right away; the buffer keeps the memory alive.
func createShmBuffer(shm *Shm, width, height int32, format uint32) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid buffer size %dx%d", width, height)
	}
	stride := width * bytesPerPixel
	size := int(stride) * int(height)

	fd, err := unix.MemfdCreate("backdrop-shm", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("failed to create shm memfd: %w", err)
	}
	if err = unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to size shm memfd: %w", err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to map shm memfd: %w", err)
	}

	pool, err := shm.CreatePool(fd, int32(size))
	if err != nil {
		_ = munmap(data)
		_ = unix.Close(fd)
		return nil, err
	}
	buffer, err := pool.CreateBuffer(0, width, height, stride, format)
	if err != nil {
		_ = pool.Destroy()
		_ = munmap(data)
		_ = unix.Close(fd)
		return nil, err
	}
	buffer.data = data

	// The compositor keeps its own reference to the pool memory.
	if err = pool.Destroy(); err != nil {
		_ = buffer.Destroy()
		_ = unix.Close(fd)
		return nil, err
	}
	if err = unix.Close(fd); err != nil {
		_ = buffer.Destroy()
		return nil, fmt.Errorf("failed to close shm memfd: %w", err)
	}
	return buffer, nil
}

func munmap(data []byte) error {
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("failed to unmap shm buffer: %w", err)
	}
	return nil
}
