// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gfxcore/internal/gpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BufferOption configures a Buffer.
type BufferOption func(*Buffer)

// WithBufferLabel sets the debug label of the storage buffer.
func WithBufferLabel(label string) BufferOption {
	return func(b *Buffer) { b.label = label }
}

// WithBufferUsage adds usage flags to the storage buffer, for example
// gputypes.BufferUsageVertex to draw from compute output.
func WithBufferUsage(usage gputypes.BufferUsage) BufferOption {
	return func(b *Buffer) { b.usage |= usage }
}

// Buffer is a storage buffer that compute passes read and write, with a
// staging buffer for reading the contents back. The staging buffer is
// created on the first read.
type Buffer struct {
	device  hal.Device
	queue   hal.Queue
	label   string
	size    uint64
	usage   gputypes.BufferUsage
	buf     hal.Buffer
	staging hal.Buffer
}

// NewBuffer creates a zeroed storage buffer of size bytes.
func NewBuffer(device hal.Device, queue hal.Queue, size uint64, opts ...BufferOption) (*Buffer, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	b := &Buffer{
		device: device,
		queue:  queue,
		label:  "compute_buffer",
		size:   size,
		usage:  gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	}
	for _, opt := range opts {
		opt(b)
	}
	buf, err := gpu.CreateBuffer(device, b.label, size, b.usage)
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	b.buf = buf
	return b, nil
}

// Size returns the requested size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Buffer returns the storage buffer, or nil after Destroy.
func (b *Buffer) Buffer() hal.Buffer { return b.buf }

// Binding returns a bind group entry that binds the whole buffer at
// binding.
func (b *Buffer) Binding(binding uint32) gputypes.BindGroupEntry {
	var handle uintptr
	if b.buf != nil {
		handle = b.buf.NativeHandle()
	}
	return gputypes.BindGroupEntry{
		Binding: binding,
		Resource: gputypes.BufferBinding{
			Buffer: handle,
			Offset: 0,
			Size:   gpu.BufferSize(b.size),
		},
	}
}

// Write uploads data at offset. offset must be 4-byte aligned and the data
// must fit in the buffer. A write that does not end on a 4-byte boundary
// zeroes the rest of its last word.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if b.buf == nil {
		return ErrBufferDestroyed
	}
	if offset%gpu.CopyAlignment != 0 || offset > b.size || uint64(len(data)) > b.size-offset {
		return fmt.Errorf("%w: %d bytes at %d in %d", ErrBufferRange, len(data), offset, b.size)
	}
	if len(data) == 0 {
		return nil
	}
	if err := b.queue.WriteBuffer(b.buf, offset, gpu.PadBytes(data)); err != nil {
		return fmt.Errorf("compute: write %s: %w", b.label, err)
	}
	return nil
}

// WriteFloat32s uploads values at offset.
func (b *Buffer) WriteFloat32s(offset uint64, values []float32) error {
	return b.Write(offset, gpu.Float32Bytes(values))
}

// ReadAsync copies the buffer into the staging buffer, waits for the copy
// and returns the contents.
func (b *Buffer) ReadAsync(ctx context.Context) ([]byte, error) {
	if b.buf == nil {
		return nil, ErrBufferDestroyed
	}
	if b.staging == nil {
		staging, err := gpu.CreateBuffer(b.device, b.label+"_staging", b.size,
			gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
		if err != nil {
			return nil, fmt.Errorf("compute: %w", err)
		}
		b.staging = staging
	}

	encoder, err := gpu.BeginEncoder(b.device, b.label+"_readback")
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	encoder.CopyBufferToBuffer(b.buf, b.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: gpu.BufferSize(b.size)},
	})
	index, err := gpu.Submit(b.device, b.queue, encoder)
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	if err := gpu.Wait(ctx, b.queue, index); err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	data, err := gpu.ReadMapped(b.device, b.staging, b.size)
	if err != nil {
		return nil, fmt.Errorf("compute: read %s: %w", b.label, err)
	}
	return data, nil
}

// ReadFloat32sAsync reads the buffer as little-endian float32 values.
func (b *Buffer) ReadFloat32sAsync(ctx context.Context) ([]float32, error) {
	data, err := b.ReadAsync(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out, nil
}

// Destroy releases both buffers. It is safe to call more than once.
func (b *Buffer) Destroy() {
	gpu.DestroyBuffers(b.device, b.buf, b.staging)
	b.buf, b.staging = nil, nil
}
