// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package wayland implements the client side of the Wayland wire protocol
// for the small object surface the backdrop needs: the registry, wl_compositor,
// wl_shm, wl_output and the zwlr_layer_shell_v1 extension. Messages are
// exchanged over the compositor's unix socket, file descriptors travel as
// SCM_RIGHTS ancillary data and never appear in a message body.
package wayland

import "errors"

// Protocol interface names of the globals the backdrop binds.
const (
	InterfaceCompositor = "wl_compositor"
	InterfaceShm        = "wl_shm"
	InterfaceOutput     = "wl_output"
	InterfaceLayerShell = "zwlr_layer_shell_v1"
)

// wl_shm pixel formats
const (
	FormatARGB8888 uint32 = 0
	FormatXRGB8888 uint32 = 1
)

// zwlr_layer_shell_v1 layers
const (
	LayerBackground uint32 = 0
	LayerBottom     uint32 = 1
	LayerTop        uint32 = 2
	LayerOverlay    uint32 = 3
)

// zwlr_layer_surface_v1 anchor bits
const (
	AnchorTop    uint32 = 1
	AnchorBottom uint32 = 2
	AnchorLeft   uint32 = 4
	AnchorRight  uint32 = 8
)

var (
	// ErrConnection indicates the display socket is unreachable, undesignated
	// or the connection to the compositor was lost. It is always fatal.
	ErrConnection = errors.New("wayland connection error")
	// ErrProtocol indicates the compositor violated protocol expectations.
	// It is fatal while required globals are bound, otherwise the triggering
	// event is logged and ignored.
	ErrProtocol = errors.New("wayland protocol error")
)
