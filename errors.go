// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfxcore

import "errors"

// Core errors.
var (
	// ErrNilDevice is returned when a Core is created without a device or queue.
	ErrNilDevice = errors.New("gfxcore: device or queue is nil")

	// ErrNoHALAccess is returned by FromProvider when the provider does not
	// expose its HAL device and queue.
	ErrNoHALAccess = errors.New("gfxcore: provider does not expose HAL types")

	// ErrClosed is returned when a closed Core is used.
	ErrClosed = errors.New("gfxcore: core is closed")
)
