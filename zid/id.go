// SPDX-License-Identifier: Unlicense OR MIT

// Package zid implements the opaque, process-lifetime identifiers shared
// by every other package: widgets, windows and input devices.
package zid

import "sync/atomic"

// WidgetId identifies a widget instance for the lifetime of the process.
// The zero value never identifies a real widget.
type WidgetId uint64

// WindowId identifies a platform window for the lifetime of the process.
type WindowId uint64

// DeviceId identifies an input device (pointer, keyboard) for the lifetime
// of the process. DeviceId(0) is reserved for synthetic events that have
// no originating device (see the "is_widget_move" case in package pointer).
type DeviceId uint64

var (
	nextWidget uint64
	nextWindow uint64
	nextDevice uint64
)

// NewWidgetId returns a fresh, never-before-issued WidgetId.
func NewWidgetId() WidgetId {
	return WidgetId(atomic.AddUint64(&nextWidget, 1))
}

// NewWindowId returns a fresh, never-before-issued WindowId.
func NewWindowId() WindowId {
	return WindowId(atomic.AddUint64(&nextWindow, 1))
}

// NewDeviceId returns a fresh, never-before-issued DeviceId.
func NewDeviceId() DeviceId {
	return DeviceId(atomic.AddUint64(&nextDevice, 1))
}
