// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"errors"
	"testing"

	"github.com/gogpu/gfxcore/internal/gputest"
	"golang.org/x/image/math/f32"
)

func TestNewInstancedMeshDefaults(t *testing.T) {
	full := NewInstancedMesh(2, InstanceFullTransform)
	identity := f32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	if got := full.MatrixAt(1); got != identity {
		t.Errorf("MatrixAt(1) = %v, want identity", got)
	}
	if got := full.ColorAt(0); got != (f32.Vec4{1, 1, 1, 1}) {
		t.Errorf("ColorAt(0) = %v, want opaque white", got)
	}
	if len(full.Data()) != 2*20 {
		t.Errorf("len(Data()) = %d, want 40", len(full.Data()))
	}

	pos := NewInstancedMesh(3, InstancePositionOnly)
	if got := pos.PositionAt(2); got != (f32.Vec3{}) {
		t.Errorf("PositionAt(2) = %v, want origin", got)
	}
	if len(pos.Data()) != 3*8 {
		t.Errorf("len(Data()) = %d, want 24", len(pos.Data()))
	}
	if !pos.Dirty() {
		t.Error("new mesh must be dirty")
	}
}

func TestBytesPerInstance(t *testing.T) {
	if got := BytesPerInstance(InstanceFullTransform); got != 80 {
		t.Errorf("BytesPerInstance(full) = %d, want 80", got)
	}
	if got := BytesPerInstance(InstancePositionOnly); got != 32 {
		t.Errorf("BytesPerInstance(position) = %d, want 32", got)
	}
}

func TestInstancedMeshMatrixLayout(t *testing.T) {
	m := NewInstancedMesh(2, InstanceFullTransform)
	// Row-major translation by (5, 6, 7).
	translate := f32.Mat4{
		1, 0, 0, 5,
		0, 1, 0, 6,
		0, 0, 1, 7,
		0, 0, 0, 1,
	}
	m.SetMatrixAt(1, translate)

	if got := m.MatrixAt(1); got != translate {
		t.Errorf("MatrixAt(1) = %v, want %v", got, translate)
	}
	// Column-major storage puts the translation in the fourth column.
	data := m.Data()[20:]
	if data[12] != 5 || data[13] != 6 || data[14] != 7 || data[15] != 1 {
		t.Errorf("column 3 = %v, want [5 6 7 1]", data[12:16])
	}
	if m.MatrixAt(0)[3] != 0 {
		t.Error("SetMatrixAt(1) must not touch instance 0")
	}
}

func TestInstancedMeshPositionAndColor(t *testing.T) {
	m := NewInstancedMesh(2, InstancePositionOnly)
	m.SetPositionAt(0, 1, 2, 3)
	m.SetColorAt(0, f32.Vec4{0.5, 0.25, 0, 1})

	if got := m.PositionAt(0); got != (f32.Vec3{1, 2, 3}) {
		t.Errorf("PositionAt(0) = %v", got)
	}
	if got := m.ColorAt(0); got != (f32.Vec4{0.5, 0.25, 0, 1}) {
		t.Errorf("ColorAt(0) = %v", got)
	}
	want := []float32{1, 2, 3, 0, 0.5, 0.25, 0, 1}
	for i, v := range want {
		if m.Data()[i] != v {
			t.Errorf("Data()[%d] = %v, want %v", i, m.Data()[i], v)
		}
	}
}

func TestInstancedMeshPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"negative count", func() { NewInstancedMesh(-1, InstancePositionOnly) }},
		{"unknown mode", func() { NewInstancedMesh(1, InstanceMode(9)) }},
		{"index out of range", func() { NewInstancedMesh(2, InstancePositionOnly).SetPositionAt(2, 0, 0, 0) }},
		{"negative index", func() { NewInstancedMesh(2, InstancePositionOnly).ColorAt(-1) }},
		{"matrix on position mesh", func() { NewInstancedMesh(1, InstancePositionOnly).SetMatrixAt(0, f32.Mat4{}) }},
		{"position on matrix mesh", func() { NewInstancedMesh(1, InstanceFullTransform).PositionAt(0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestInstancedMeshUpload(t *testing.T) {
	dev, queue := gputest.New(t)
	m := NewInstancedMesh(3, InstanceFullTransform)

	if wrote, err := m.UpdateStorageBuffer(queue); wrote || err != nil {
		t.Errorf("UpdateStorageBuffer() before creation = %v, %v; want false, nil", wrote, err)
	}

	buf, err := m.StorageBuffer(dev, queue)
	if err != nil {
		t.Fatalf("StorageBuffer() error = %v", err)
	}
	if m.Dirty() {
		t.Error("StorageBuffer() must clear the dirty flag")
	}
	again, err := m.StorageBuffer(dev, queue)
	if err != nil || again != buf {
		t.Error("StorageBuffer() must return the existing buffer")
	}
	if n := dev.Created(gputest.KindBuffer); n != 1 {
		t.Errorf("buffers created = %d, want 1", n)
	}

	if wrote, _ := m.UpdateStorageBuffer(queue); wrote {
		t.Error("clean mesh must not upload")
	}
	m.SetColorAt(1, f32.Vec4{1, 0, 0, 1})
	wrote, err := m.UpdateStorageBuffer(queue)
	if !wrote || err != nil {
		t.Errorf("UpdateStorageBuffer() = %v, %v; want true, nil", wrote, err)
	}
	if n := queue.Writes(buf); n != 2 {
		t.Errorf("writes = %d, want 2", n)
	}

	m.SetColorAt(2, f32.Vec4{})
	queue.FailWrite = errors.New("lost")
	if _, err := m.UpdateStorageBuffer(queue); err == nil {
		t.Error("UpdateStorageBuffer() must report a failed write")
	}
	if !m.Dirty() {
		t.Error("failed upload must keep the mesh dirty")
	}

	m.Dispose(dev)
	if n := dev.Live(gputest.KindBuffer); n != 0 {
		t.Errorf("live buffers after Dispose = %d", n)
	}
}
