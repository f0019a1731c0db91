// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import "errors"

// Compute errors.
var (
	// ErrNilDevice is returned when a compute object is created without a device or queue.
	ErrNilDevice = errors.New("compute: device or queue is nil")

	// ErrNilPipeline is returned when a pass is created without a pipeline.
	ErrNilPipeline = errors.New("compute: pipeline is nil")

	// ErrNoBindGroups is returned when a dispatch has no bind groups.
	ErrNoBindGroups = errors.New("compute: at least one bind group is required")

	// ErrWorkgroupCountZero is returned when any workgroup dimension is zero.
	ErrWorkgroupCountZero = errors.New("compute: workgroup count must be greater than zero")

	// ErrInvalidWorkgroups is returned when a dispatch has no or more than
	// three workgroup dimensions.
	ErrInvalidWorkgroups = errors.New("compute: workgroup counts must have 1 to 3 dimensions")

	// ErrInvalidEntry is returned when a batch entry has neither a shader nor a pipeline.
	ErrInvalidEntry = errors.New("compute: entry needs a shader or a pipeline")

	// ErrInvalidGroupKey is returned when a bind group key is not a
	// canonical non-negative integer.
	ErrInvalidGroupKey = errors.New("compute: invalid bind group index")

	// ErrDuplicateGroup is returned when a bind group index is supplied both
	// as raw entries and as a built bind group.
	ErrDuplicateGroup = errors.New("compute: bind group index supplied twice")

	// ErrProfilerAmbiguous is returned when a profiler is attached to a
	// per-dispatch batch holding more than one entry.
	ErrProfilerAmbiguous = errors.New("compute: profiler needs single-pass mode or exactly one entry")

	// ErrMissingBindGroupLayout is returned when raw entries target a group
	// the pipeline has no layout for.
	ErrMissingBindGroupLayout = errors.New("compute: pipeline has no bind group layout")

	// ErrBufferRange is returned when a write falls outside the buffer or
	// starts at an offset that is not 4-byte aligned.
	ErrBufferRange = errors.New("compute: write out of buffer range")

	// ErrBufferDestroyed is returned when a destroyed Buffer is used.
	ErrBufferDestroyed = errors.New("compute: buffer destroyed")

	// ErrTimestampsNotRequested is returned by ResolveAsync when no pass
	// requested timestamp writes.
	ErrTimestampsNotRequested = errors.New("compute: timestamps were not requested")

	// ErrTimestampsNotResolved is returned by ResolveAsync when timestamps
	// were requested but never resolved into the readback buffer.
	ErrTimestampsNotResolved = errors.New("compute: timestamps were not resolved")
)
