// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import "sync"

// Object is a ready-made Drawable holding its geometry and material.
//
// Object is safe for concurrent use.
type Object struct {
	handle Handle

	mu          sync.Mutex
	vertices    []float32
	vertexCount int
	indices     []uint32
	wireframe   []uint32
	material    Material
	instances   *InstancedMesh
	rebuild     bool
}

// NewObject returns an object with interleaved vertices of stride floats
// each, optional triangle indices and a material.
func NewObject(vertices []float32, stride int, indices []uint32, m Material) *Object {
	o := &Object{handle: NewHandle(), material: m}
	o.setGeometry(vertices, stride, indices)
	return o
}

func (o *Object) setGeometry(vertices []float32, stride int, indices []uint32) {
	o.vertices = vertices
	o.vertexCount = 0
	if stride > 0 {
		o.vertexCount = len(vertices) / stride
	}
	o.indices = indices
	o.wireframe = nil
}

// Handle implements Drawable.
func (o *Object) Handle() Handle { return o.handle }

// Vertices implements Drawable.
func (o *Object) Vertices() []float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vertices
}

// VertexCount implements Drawable.
func (o *Object) VertexCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vertexCount
}

// Indices implements Drawable.
func (o *Object) Indices() []uint32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.indices
}

// WireframeIndices returns one line per unique triangle edge. It is derived
// from Indices on first use and cached until the geometry changes.
func (o *Object) WireframeIndices() []uint32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.wireframe == nil && len(o.indices) > 0 {
		o.wireframe = WireframeEdges(o.indices)
	}
	return o.wireframe
}

// Material implements Drawable.
func (o *Object) Material() Material {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.material
}

// SetMaterial replaces the material. A material with a different type tag
// or topology causes the cache to rebuild on the next draw.
func (o *Object) SetMaterial(m Material) {
	o.mu.Lock()
	o.material = m
	o.mu.Unlock()
}

// SetGeometry replaces the geometry and marks the object for rebuild.
func (o *Object) SetGeometry(vertices []float32, stride int, indices []uint32) {
	o.mu.Lock()
	o.setGeometry(vertices, stride, indices)
	o.rebuild = true
	o.mu.Unlock()
}

// Instances returns the instance data, or nil for a single draw.
func (o *Object) Instances() *InstancedMesh {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.instances
}

// SetInstances attaches per-instance data. Attaching a different mesh
// marks the object for rebuild.
func (o *Object) SetInstances(im *InstancedMesh) {
	o.mu.Lock()
	if o.instances != im {
		o.rebuild = true
	}
	o.instances = im
	o.mu.Unlock()
}

// NeedsRebuild implements Drawable.
func (o *Object) NeedsRebuild() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rebuild
}

// ClearRebuild implements Drawable.
func (o *Object) ClearRebuild() {
	o.mu.Lock()
	o.rebuild = false
	o.mu.Unlock()
}

// WireframeEdges converts a triangle list into a line list containing each
// undirected edge once, in first-seen order.
func WireframeEdges(triangles []uint32) []uint32 {
	type edge struct{ a, b uint32 }
	seen := make(map[edge]struct{}, len(triangles))
	lines := make([]uint32, 0, len(triangles)*2)
	add := func(a, b uint32) {
		if a > b {
			a, b = b, a
		}
		e := edge{a, b}
		if _, dup := seen[e]; dup {
			return
		}
		seen[e] = struct{}{}
		lines = append(lines, a, b)
	}
	for i := 0; i+2 < len(triangles); i += 3 {
		a, b, c := triangles[i], triangles[i+1], triangles[i+2]
		add(a, b)
		add(b, c)
		add(c, a)
	}
	return lines
}
