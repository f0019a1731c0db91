// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/wgpu/hal"
)

// ReadMapped maps size bytes of a MapRead buffer, copies them out and
// unmaps. The buffer must not be in use by pending GPU work.
func ReadMapped(device hal.Device, buf hal.Buffer, size uint64) ([]byte, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	mapping, err := device.MapBuffer(buf, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map buffer: %w", err)
	}
	out := make([]byte, size)
	if size > 0 && mapping.Ptr != nil {
		copy(out, unsafe.Slice((*byte)(mapping.Ptr), size)) //nolint:gosec // mapped range is size bytes
	}
	if err := device.UnmapBuffer(buf); err != nil {
		return nil, fmt.Errorf("unmap buffer: %w", err)
	}
	return out, nil
}
