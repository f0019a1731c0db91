// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"fmt"
	"sync"

	"github.com/gogpu/gfxcore/internal/gpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/math/f32"
)

// InstanceMode selects the per-instance data layout of an InstancedMesh.
type InstanceMode uint8

const (
	// InstanceFullTransform stores a 4x4 transform and an RGBA color:
	// 80 bytes per instance.
	InstanceFullTransform InstanceMode = iota

	// InstancePositionOnly stores a position padded to vec4 and an RGBA
	// color: 32 bytes per instance.
	InstancePositionOnly
)

func (m InstanceMode) String() string {
	switch m {
	case InstanceFullTransform:
		return "full-transform"
	case InstancePositionOnly:
		return "position-only"
	default:
		return fmt.Sprintf("InstanceMode(%d)", m)
	}
}

// floats per instance
const (
	fullTransformStride = 16 + 4
	positionOnlyStride  = 4 + 4
)

// BytesPerInstance returns the storage buffer stride for mode.
func BytesPerInstance(mode InstanceMode) uint64 {
	return uint64(stride(mode)) * 4
}

func stride(mode InstanceMode) int {
	switch mode {
	case InstanceFullTransform:
		return fullTransformStride
	case InstancePositionOnly:
		return positionOnlyStride
	default:
		panic(fmt.Sprintf("mesh: unknown instance mode %d", mode))
	}
}

// InstancedMesh holds per-instance data for drawing one geometry many
// times. The CPU copy is authoritative; the GPU storage buffer is created
// lazily and refreshed with UpdateStorageBuffer while the mesh is dirty.
//
// Matrices are row-major in the API and column-major in the buffer, which
// is what WGSL's mat4x4<f32> expects.
type InstancedMesh struct {
	mu     sync.Mutex
	mode   InstanceMode
	count  int
	data   []float32
	dirty  bool
	buffer hal.Buffer
}

// NewInstancedMesh allocates count instances. Every instance starts with
// an identity transform (or the origin) and opaque white.
// It panics on a negative count or an unknown mode.
func NewInstancedMesh(count int, mode InstanceMode) *InstancedMesh {
	if count < 0 {
		panic(fmt.Sprintf("mesh: negative instance count %d", count))
	}
	s := stride(mode)
	m := &InstancedMesh{mode: mode, count: count, data: make([]float32, count*s), dirty: true}
	for i := 0; i < count; i++ {
		base := i * s
		if mode == InstanceFullTransform {
			m.data[base+0] = 1
			m.data[base+5] = 1
			m.data[base+10] = 1
			m.data[base+15] = 1
		}
		c := m.data[base+s-4 : base+s]
		c[0], c[1], c[2], c[3] = 1, 1, 1, 1
	}
	return m
}

// Count returns the number of instances.
func (m *InstancedMesh) Count() int { return m.count }

// Mode returns the data layout chosen at construction.
func (m *InstancedMesh) Mode() InstanceMode { return m.mode }

// Dirty reports whether the CPU copy has changes not yet uploaded.
func (m *InstancedMesh) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Data returns the packed instance data. The slice aliases internal
// storage and must not be modified.
func (m *InstancedMesh) Data() []float32 { return m.data }

func (m *InstancedMesh) offset(i int) int {
	if i < 0 || i >= m.count {
		panic(fmt.Sprintf("mesh: instance index %d out of range [0,%d)", i, m.count))
	}
	return i * stride(m.mode)
}

func (m *InstancedMesh) requireMode(want InstanceMode, op string) {
	if m.mode != want {
		panic(fmt.Sprintf("mesh: %s requires %s mode, mesh is %s", op, want, m.mode))
	}
}

// SetMatrixAt sets the row-major transform of instance i.
func (m *InstancedMesh) SetMatrixAt(i int, mat f32.Mat4) {
	m.requireMode(InstanceFullTransform, "SetMatrixAt")
	base := m.offset(i)
	m.mu.Lock()
	defer m.mu.Unlock()
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			m.data[base+col*4+row] = mat[row*4+col]
		}
	}
	m.dirty = true
}

// MatrixAt returns the row-major transform of instance i.
func (m *InstancedMesh) MatrixAt(i int) f32.Mat4 {
	m.requireMode(InstanceFullTransform, "MatrixAt")
	base := m.offset(i)
	m.mu.Lock()
	defer m.mu.Unlock()
	var mat f32.Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			mat[row*4+col] = m.data[base+col*4+row]
		}
	}
	return mat
}

// SetPositionAt sets the position of instance i.
func (m *InstancedMesh) SetPositionAt(i int, x, y, z float32) {
	m.requireMode(InstancePositionOnly, "SetPositionAt")
	base := m.offset(i)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[base], m.data[base+1], m.data[base+2] = x, y, z
	m.dirty = true
}

// PositionAt returns the position of instance i.
func (m *InstancedMesh) PositionAt(i int) f32.Vec3 {
	m.requireMode(InstancePositionOnly, "PositionAt")
	base := m.offset(i)
	m.mu.Lock()
	defer m.mu.Unlock()
	return f32.Vec3{m.data[base], m.data[base+1], m.data[base+2]}
}

// SetColorAt sets the RGBA color of instance i.
func (m *InstancedMesh) SetColorAt(i int, c f32.Vec4) {
	base := m.offset(i) + stride(m.mode) - 4
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.data[base:base+4], c[:])
	m.dirty = true
}

// ColorAt returns the RGBA color of instance i.
func (m *InstancedMesh) ColorAt(i int) f32.Vec4 {
	base := m.offset(i) + stride(m.mode) - 4
	m.mu.Lock()
	defer m.mu.Unlock()
	var c f32.Vec4
	copy(c[:], m.data[base:base+4])
	return c
}

// StorageBuffer returns the GPU copy of the instance data, creating and
// uploading it on first use.
func (m *InstancedMesh) StorageBuffer(device hal.Device, queue hal.Queue) (hal.Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buffer != nil {
		return m.buffer, nil
	}
	buf, err := gpu.CreateBufferInit(device, queue, "instances",
		gputypes.BufferUsageStorage, gpu.Float32Bytes(m.data))
	if err != nil {
		return nil, fmt.Errorf("mesh: instance buffer: %w", err)
	}
	m.buffer = buf
	m.dirty = false
	return buf, nil
}

// UpdateStorageBuffer uploads the instance data when it changed since the
// last upload. It reports whether a write was issued. Nothing happens
// before StorageBuffer has created the buffer.
func (m *InstancedMesh) UpdateStorageBuffer(queue hal.Queue) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buffer == nil || !m.dirty {
		return false, nil
	}
	if err := queue.WriteBuffer(m.buffer, 0, gpu.PadBytes(gpu.Float32Bytes(m.data))); err != nil {
		return false, fmt.Errorf("mesh: update instance buffer: %w", err)
	}
	m.dirty = false
	return true, nil
}

// storage returns the current storage buffer without creating one.
func (m *InstancedMesh) storage() hal.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffer
}

// Dispose destroys the storage buffer. The CPU data is kept, so a later
// StorageBuffer call recreates it.
func (m *InstancedMesh) Dispose(device hal.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buffer != nil {
		device.DestroyBuffer(m.buffer)
		m.buffer = nil
		m.dirty = true
	}
}
