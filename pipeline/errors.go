// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import "errors"

// Pipeline errors.
var (
	// ErrNilDevice is returned when a pipeline is requested without a device.
	ErrNilDevice = errors.New("pipeline: device is nil")

	// ErrInvalidMaterial is returned when a material has no type tag or shader source.
	ErrInvalidMaterial = errors.New("pipeline: invalid material")

	// ErrInvalidShader is returned for empty or unparsable WGSL, or an empty entry point.
	ErrInvalidShader = errors.New("pipeline: invalid shader")

	// ErrEntryPointNotFound is returned when the requested entry point is not
	// declared in the source for the expected stage.
	ErrEntryPointNotFound = errors.New("pipeline: entry point not found")
)
