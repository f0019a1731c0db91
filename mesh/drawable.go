// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import "sync/atomic"

// Handle identifies a drawable for the lifetime of its GPU resources.
type Handle uint64

var nextHandle atomic.Uint64

// NewHandle returns a process-unique, non-zero handle.
func NewHandle() Handle {
	return Handle(nextHandle.Add(1))
}

// Drawable is anything the cache can build GPU resources for.
//
// Vertices are interleaved in the layout the material's VertexLayout
// describes. WireframeIndices is used instead of Indices when the material
// draws a line list.
type Drawable interface {
	Handle() Handle
	Vertices() []float32
	VertexCount() int
	Indices() []uint32
	WireframeIndices() []uint32
	Material() Material

	// NeedsRebuild reports that geometry changed and every buffer must be
	// recreated. The cache calls ClearRebuild once it has dropped the old
	// resources.
	NeedsRebuild() bool
	ClearRebuild()
}

// Instanced is implemented by drawables rendered as many instances.
type Instanced interface {
	Instances() *InstancedMesh
}
