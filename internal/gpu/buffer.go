// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	// MinBufferSize is the smallest buffer the helpers allocate. Zero-sized
	// buffers are rejected by every backend, and a 4-byte buffer is the
	// smallest that satisfies copy alignment.
	MinBufferSize = 4

	// CopyAlignment is the required alignment for buffer sizes, copy offsets
	// and queue writes.
	CopyAlignment = 4
)

// ErrNilDevice is returned when a helper is called without a device.
var ErrNilDevice = errors.New("gpu: device is nil")

// ErrNilQueue is returned when a helper that uploads data has no queue.
var ErrNilQueue = errors.New("gpu: queue is nil")

// AlignUp rounds v up to the next multiple of align. align must be a power of two.
func AlignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}

// BufferSize returns the allocation size for a payload of n bytes:
// at least MinBufferSize and a multiple of CopyAlignment.
func BufferSize(n uint64) uint64 {
	if n < MinBufferSize {
		n = MinBufferSize
	}
	return AlignUp(n, CopyAlignment)
}

// CreateBuffer creates a GPU buffer with a minimum size guarantee.
func CreateBuffer(device hal.Device, label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	size = BufferSize(size)
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q (%d bytes): %w", label, size, err)
	}
	return buf, nil
}

// CreateBufferInit creates a buffer sized for data and uploads it.
//
// The upload always covers the full aligned allocation: data is zero padded
// to BufferSize(len(data)), so an empty payload still writes a 4-byte
// placeholder. CopyDst is added to usage.
func CreateBufferInit(device hal.Device, queue hal.Queue, label string, usage gputypes.BufferUsage, data []byte) (hal.Buffer, error) {
	if queue == nil {
		return nil, ErrNilQueue
	}
	buf, err := CreateBuffer(device, label, uint64(len(data)), usage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	if err := queue.WriteBuffer(buf, 0, PadBytes(data)); err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload buffer %q: %w", label, err)
	}
	return buf, nil
}

// PadBytes returns data zero padded to BufferSize(len(data)).
// data is returned unchanged when it is already a valid upload size.
func PadBytes(data []byte) []byte {
	size := BufferSize(uint64(len(data)))
	if uint64(len(data)) == size {
		return data
	}
	padded := make([]byte, size)
	copy(padded, data)
	return padded
}

// Float32Bytes reinterprets a float32 slice as its little-endian bytes
// without copying.
func Float32Bytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(f))), len(f)*4) //nolint:gosec // float32 slice view
}

// Uint32Bytes reinterprets a uint32 slice as its bytes without copying.
func Uint32Bytes(u []uint32) []byte {
	if len(u) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(u))), len(u)*4) //nolint:gosec // uint32 slice view
}

// Uint16Bytes reinterprets a uint16 slice as its bytes without copying.
func Uint16Bytes(u []uint16) []byte {
	if len(u) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(u))), len(u)*2) //nolint:gosec // uint16 slice view
}

// DestroyBuffers destroys every non-nil buffer.
func DestroyBuffers(device hal.Device, bufs ...hal.Buffer) {
	for _, b := range bufs {
		if b != nil {
			device.DestroyBuffer(b)
		}
	}
}

// DestroyBindGroups destroys every non-nil bind group.
func DestroyBindGroups(device hal.Device, groups ...hal.BindGroup) {
	for _, g := range groups {
		if g != nil {
			device.DestroyBindGroup(g)
		}
	}
}
