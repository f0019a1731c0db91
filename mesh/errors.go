// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import "errors"

var (
	// ErrNilDevice is returned when a Cache has no device or queue.
	ErrNilDevice = errors.New("mesh: nil device or queue")

	// ErrInvalidDrawable is returned for a nil drawable, a nil material or
	// a nil pipeline.
	ErrInvalidDrawable = errors.New("mesh: invalid drawable")

	// ErrMissingLayout is returned when the pipeline has no bind group
	// layout for a group the material needs.
	ErrMissingLayout = errors.New("mesh: pipeline has no bind group layout")

	// ErrMissingInstanceLayout is returned when an instanced drawable is
	// drawn with a pipeline that declares no instance storage group.
	ErrMissingInstanceLayout = errors.New("mesh: pipeline has no instance bind group layout")
)
