// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"slices"
	"testing"
)

func TestWireframeEdges(t *testing.T) {
	tests := []struct {
		name      string
		triangles []uint32
		want      []uint32
	}{
		{"empty", nil, []uint32{}},
		{"triangle", []uint32{0, 1, 2}, []uint32{0, 1, 1, 2, 0, 2}},
		{"quad", []uint32{0, 1, 2, 0, 2, 3}, []uint32{0, 1, 1, 2, 0, 2, 2, 3, 0, 3}},
		{"partial triangle ignored", []uint32{0, 1, 2, 3}, []uint32{0, 1, 1, 2, 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WireframeEdges(tt.triangles); !slices.Equal(got, tt.want) {
				t.Errorf("WireframeEdges() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestObjectHandles(t *testing.T) {
	a := NewObject(nil, 3, nil, nil)
	b := NewObject(nil, 3, nil, nil)
	if a.Handle() == 0 || a.Handle() == b.Handle() {
		t.Errorf("handles %d and %d must be distinct and non-zero", a.Handle(), b.Handle())
	}
}

func TestObjectWireframeCache(t *testing.T) {
	o := NewObject(make([]float32, 12), 3, []uint32{0, 1, 2}, nil)
	w1 := o.WireframeIndices()
	w2 := o.WireframeIndices()
	if &w1[0] != &w2[0] {
		t.Error("wireframe indices must be derived once")
	}
	o.SetGeometry(make([]float32, 12), 3, []uint32{0, 1, 2, 0, 2, 3})
	if n := len(o.WireframeIndices()); n != 10 {
		t.Errorf("len(WireframeIndices()) = %d after SetGeometry, want 10", n)
	}
	if o.VertexCount() != 4 {
		t.Errorf("VertexCount() = %d, want 4", o.VertexCount())
	}
}

func TestObjectSetInstances(t *testing.T) {
	o := NewObject(nil, 3, nil, nil)
	im := NewInstancedMesh(1, InstancePositionOnly)
	o.SetInstances(im)
	if !o.NeedsRebuild() {
		t.Error("attaching instances must mark for rebuild")
	}
	o.ClearRebuild()
	o.SetInstances(im)
	if o.NeedsRebuild() {
		t.Error("attaching the same instances must not mark for rebuild")
	}
	if o.Instances() != im {
		t.Error("Instances() must return the attached mesh")
	}
}
