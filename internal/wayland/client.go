// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package wayland

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"github.com/wneessen/backdrop/internal/logger"
)

const (
	// displayID is the fixed object ID of the wl_display singleton.
	displayID uint32 = 1
	// maxMessageSize is the wire format's message size limit (16 bit length field).
	maxMessageSize = 0xffff

	roundTripTimeout = time.Second * 5
)

// byteOrder is the wire byte order. The wire format uses the host's byte
// order; all platforms this applet targets are little-endian.
var byteOrder = binary.LittleEndian

// object is implemented by every client-side protocol object. Events are
// delivered to the object owning the target ID, which decodes the payload
// and forwards it to its registered listener.
type object interface {
	objectID() uint32
	dispatch(opcode uint16, ev *eventReader)
}

// Client is a low-level connection to a Wayland compositor. It owns the
// display socket, the object table and the inbound byte stream. All methods
// except Wake must be called from the dispatch thread.
type Client struct {
	fd      int
	wakeR   int
	wakeW   int
	nextID  uint32
	objects map[uint32]object
	pending []byte
	recvFds []int
	log     *logger.Logger
	closed  bool
	fatal   error
}

// newClient connects to the compositor socket at the given path.
func newClient(path string, log *logger.Logger) (*Client, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create socket: %s", ErrConnection, err)
	}
	if err = unix.Connect(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: failed to connect to %s: %s", ErrConnection, path, err)
	}

	var pipeFds [2]int
	if err = unix.Pipe2(pipeFds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: failed to create wake pipe: %s", ErrConnection, err)
	}

	client := &Client{
		fd:      fd,
		wakeR:   pipeFds[0],
		wakeW:   pipeFds[1],
		nextID:  2, // 1 is reserved for wl_display
		objects: make(map[uint32]object),
		log:     log,
	}
	client.objects[displayID] = &display{client: client}
	return client, nil
}

// newClientFromFd wraps an already connected socket. Used by tests with a
// socketpair standing in for the compositor.
func newClientFromFd(fd int, log *logger.Logger) (*Client, error) {
	var pipeFds [2]int
	if err := unix.Pipe2(pipeFds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, fmt.Errorf("%w: failed to create wake pipe: %s", ErrConnection, err)
	}
	client := &Client{
		fd:      fd,
		wakeR:   pipeFds[0],
		wakeW:   pipeFds[1],
		nextID:  2,
		objects: make(map[uint32]object),
		log:     log,
	}
	client.objects[displayID] = &display{client: client}
	return client, nil
}

// Close shuts down the connection and the wake pipe.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	_ = unix.Close(c.wakeR)
	_ = unix.Close(c.wakeW)
	if err := unix.Close(c.fd); err != nil {
		return fmt.Errorf("failed to close display socket: %w", err)
	}
	return nil
}

// Wake interrupts a blocking dispatch wait. Safe to call from any goroutine.
func (c *Client) Wake() {
	_, _ = unix.Write(c.wakeW, []byte{0})
}

// register adds the given object to the object table under a fresh ID.
func (c *Client) register(obj object) uint32 {
	id := c.nextID
	c.nextID++
	c.objects[id] = obj
	return id
}

// unregister drops the given ID from the object table.
func (c *Client) unregister(id uint32) {
	delete(c.objects, id)
}

// sendRequest marshals and sends a single request. File descriptor arguments
// are carried exclusively as SCM_RIGHTS ancillary data.
func (c *Client) sendRequest(objID uint32, opcode uint16, fds []int, args ...any) error {
	buf := make([]byte, 8, 64)
	byteOrder.PutUint32(buf[0:4], objID)
	var err error
	for _, arg := range args {
		if buf, err = appendArg(buf, arg); err != nil {
			return fmt.Errorf("failed to marshal request argument: %w", err)
		}
	}
	if len(buf) > maxMessageSize {
		return fmt.Errorf("%w: request exceeds maximum message size: %d bytes", ErrProtocol, len(buf))
	}
	byteOrder.PutUint32(buf[4:8], uint32(len(buf))<<16|uint32(opcode))

	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}
	if err = unix.Sendmsg(c.fd, buf, oob, nil, 0); err != nil {
		return fmt.Errorf("%w: failed to send request: %s", ErrConnection, err)
	}
	return nil
}

// appendArg appends a single wire-format argument to buf. Arguments are
// 32-bit aligned, strings are NUL-terminated and padded.
func appendArg(buf []byte, arg any) ([]byte, error) {
	switch v := arg.(type) {
	case uint32:
		return byteOrder.AppendUint32(buf, v), nil
	case int32:
		return byteOrder.AppendUint32(buf, uint32(v)), nil
	case string:
		strlen := len(v) + 1 // including NUL terminator
		buf = byteOrder.AppendUint32(buf, uint32(strlen))
		buf = append(buf, v...)
		buf = append(buf, 0)
		for len(buf)%4 != 0 {
			buf = append(buf, 0)
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("unsupported argument type: %T", arg)
	}
}

// poll waits for the display socket or the wake pipe to become readable.
// A negative timeout blocks indefinitely. Returns true when the display
// socket has data available.
func (c *Client) poll(timeout time.Duration) (bool, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
		if ms == 0 && timeout > 0 {
			ms = 1
		}
	}

	fds := []unix.PollFd{
		{Fd: int32(c.fd), Events: unix.POLLIN},
		{Fd: int32(c.wakeR), Events: unix.POLLIN},
	}
	n, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to poll display socket: %s", ErrConnection, err)
	}
	if n == 0 {
		return false, nil
	}
	if fds[1].Revents&unix.POLLIN != 0 {
		c.drainWakePipe()
	}
	if fds[0].Revents&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
		return false, fmt.Errorf("%w: display connection closed by compositor", ErrConnection)
	}
	return fds[0].Revents&unix.POLLIN != 0, nil
}

func (c *Client) drainWakePipe() {
	buf := make([]byte, 16)
	for {
		n, err := unix.Read(c.wakeR, buf)
		if n <= 0 || err != nil {
			return
		}
	}
}

// readOnce reads available bytes (and any ancillary file descriptors) from
// the display socket into the inbound buffer without blocking.
func (c *Client) readOnce() error {
	buf := make([]byte, 4096)
	oob := make([]byte, 256)
	n, oobn, _, _, err := unix.Recvmsg(c.fd, buf, oob, unix.MSG_DONTWAIT|unix.MSG_CMSG_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("%w: failed to read from display socket: %s", ErrConnection, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: display connection closed by compositor", ErrConnection)
	}
	if oobn > 0 {
		cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err == nil {
			for _, cmsg := range cmsgs {
				if fds, err := unix.ParseUnixRights(&cmsg); err == nil {
					c.recvFds = append(c.recvFds, fds...)
				}
			}
		}
	}
	c.pending = append(c.pending, buf[:n]...)
	return nil
}

// dispatchPending decodes every complete message in the inbound buffer and
// delivers it to its target object. Events for unknown objects are ignored;
// the compositor may still send events for objects we already destroyed.
func (c *Client) dispatchPending() int {
	count := 0
	for len(c.pending) >= 8 {
		objID := byteOrder.Uint32(c.pending[0:4])
		sizeOpcode := byteOrder.Uint32(c.pending[4:8])
		size := int(sizeOpcode >> 16)
		opcode := uint16(sizeOpcode & 0xffff)
		if size < 8 {
			c.log.Error("ignoring malformed event with undersized header",
				slog.Uint64("object", uint64(objID)), logger.Err(ErrProtocol))
			c.pending = nil
			return count
		}
		if len(c.pending) < size {
			break
		}
		body := c.pending[8:size]
		c.pending = c.pending[size:]

		obj, ok := c.objects[objID]
		if !ok {
			c.log.Debug("ignoring event for unknown object", slog.Uint64("object", uint64(objID)),
				slog.Uint64("opcode", uint64(opcode)))
			count++
			continue
		}
		ev := &eventReader{data: body}
		obj.dispatch(opcode, ev)
		if ev.bad {
			c.log.Error("ignoring malformed event payload", slog.Uint64("object", uint64(objID)),
				slog.Uint64("opcode", uint64(opcode)), logger.Err(ErrProtocol))
		}
		count++
	}
	return count
}

// dispatchOnce waits up to maxWait for events and processes everything that
// arrived. A nil error with zero processed events means the wait timed out.
func (c *Client) dispatchOnce(maxWait time.Duration) error {
	readable, err := c.poll(maxWait)
	if err != nil {
		return err
	}
	if !readable {
		return nil
	}
	if err = c.readOnce(); err != nil {
		return err
	}
	c.dispatchPending()
	return c.fatal
}

// roundTrip sends a wl_display.sync and dispatches events until the
// compositor answers it, guaranteeing all previous requests were processed.
func (c *Client) roundTrip() error {
	done := false
	callback := &Callback{client: c, onDone: func(uint32) { done = true }}
	callback.idv = c.register(callback)
	if err := c.sendRequest(displayID, opDisplaySync, nil, callback.idv); err != nil {
		return err
	}

	deadline := time.Now().Add(roundTripTimeout)
	for !done {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: roundtrip timed out after %s", ErrProtocol, roundTripTimeout)
		}
		if err := c.dispatchOnce(remaining); err != nil {
			return err
		}
	}
	return nil
}

// display handles events on the wl_display singleton.
type display struct {
	client *Client
}

func (d *display) objectID() uint32 { return displayID }

func (d *display) dispatch(opcode uint16, ev *eventReader) {
	switch opcode {
	case evDisplayError:
		objID := ev.uint32()
		code := ev.uint32()
		message := ev.string()
		d.client.log.Error("compositor reported a protocol error", slog.Uint64("object", uint64(objID)),
			slog.Uint64("code", uint64(code)), slog.String("message", message), logger.Err(ErrProtocol))
		d.client.fatal = fmt.Errorf("%w: compositor error on object %d (code %d): %s",
			ErrProtocol, objID, code, message)
	case evDisplayDeleteID:
		d.client.unregister(ev.uint32())
	}
}

// eventReader decodes wire-format event payloads. Out-of-bounds reads mark
// the reader bad and yield zero values instead of panicking.
type eventReader struct {
	data []byte
	off  int
	bad  bool
}

func (r *eventReader) uint32() uint32 {
	if r.off+4 > len(r.data) {
		r.bad = true
		return 0
	}
	v := byteOrder.Uint32(r.data[r.off : r.off+4])
	r.off += 4
	return v
}

func (r *eventReader) int32() int32 {
	return int32(r.uint32())
}

func (r *eventReader) string() string {
	length := int(r.uint32())
	if r.bad || length == 0 {
		return ""
	}
	if r.off+length > len(r.data) {
		r.bad = true
		return ""
	}
	s := string(r.data[r.off : r.off+length-1]) // strip NUL terminator
	r.off += length
	if pad := r.off % 4; pad != 0 {
		r.off += 4 - pad
	}
	return s
}
