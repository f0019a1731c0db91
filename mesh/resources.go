// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package mesh

import (
	"fmt"

	"github.com/gogpu/gfxcore/internal/gpu"
	"github.com/gogpu/gfxcore/pipeline"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// uniformAlignment is the granularity of uniform buffer sizes.
const uniformAlignment = 16

// Resources are the GPU objects a Cache owns for one drawable.
//
// The instance storage buffer belongs to the drawable's InstancedMesh and
// is not destroyed with the other buffers.
type Resources struct {
	Handle          Handle
	TypeTag         string
	Topology        gputypes.PrimitiveTopology
	BindingRevision uint64

	VertexBuffer  hal.Buffer
	IndexBuffer   hal.Buffer
	UniformBuffer hal.Buffer
	UniformSize   uint64

	BindGroup         hal.BindGroup
	IBLBindGroup      hal.BindGroup
	InstanceBindGroup hal.BindGroup
	InstanceGroup     uint32

	IndexCount    uint32
	IndexFormat   gputypes.IndexFormat
	VertexCount   uint32
	InstanceCount uint32

	instances      *InstancedMesh
	instanceBuffer hal.Buffer
	scratch        []byte
}

// UniformBufferSize returns the allocation size of a uniform block of n
// bytes: rounded up to 16 with a minimum of 16.
func UniformBufferSize(n uint64) uint64 {
	if n < uniformAlignment {
		return uniformAlignment
	}
	return gpu.AlignUp(n, uniformAlignment)
}

// WriteUniforms packs m's uniform block for fc and uploads it.
func (r *Resources) WriteUniforms(queue hal.Queue, m Material, fc *FrameContext) error {
	if r.UniformBuffer == nil {
		return fmt.Errorf("mesh: write uniforms: %w", ErrInvalidDrawable)
	}
	if uint64(cap(r.scratch)) < r.UniformSize {
		r.scratch = make([]byte, r.UniformSize)
	}
	dst := r.scratch[:r.UniformSize]
	clear(dst)
	n := m.UniformSize()
	if n > r.UniformSize {
		n = r.UniformSize
	}
	m.WriteUniforms(dst[:n], fc)
	if err := queue.WriteBuffer(r.UniformBuffer, 0, dst); err != nil {
		return fmt.Errorf("mesh: write uniforms %s: %w", r.TypeTag, err)
	}
	return nil
}

// Draw records the commands that render the drawable with p: pipeline,
// bind groups, vertex and index buffers, then DrawIndexed, or Draw when
// there are no indices.
func (r *Resources) Draw(pass hal.RenderPassEncoder, p *pipeline.RenderPipeline) {
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, r.BindGroup, nil)
	if r.IBLBindGroup != nil {
		pass.SetBindGroup(1, r.IBLBindGroup, nil)
	}
	if r.InstanceBindGroup != nil {
		pass.SetBindGroup(r.InstanceGroup, r.InstanceBindGroup, nil)
	}
	pass.SetVertexBuffer(0, r.VertexBuffer, 0)

	instances := r.InstanceCount
	if instances == 0 {
		instances = 1
	}
	if r.IndexCount > 0 {
		pass.SetIndexBuffer(r.IndexBuffer, r.IndexFormat, 0)
		pass.DrawIndexed(r.IndexCount, instances, 0, 0, 0)
		return
	}
	pass.Draw(r.VertexCount, instances, 0, 0)
}

func (r *Resources) destroyBindGroups(device hal.Device) {
	gpu.DestroyBindGroups(device, r.BindGroup, r.IBLBindGroup, r.InstanceBindGroup)
	r.BindGroup, r.IBLBindGroup, r.InstanceBindGroup = nil, nil, nil
}

func (r *Resources) destroy(device hal.Device) {
	r.destroyBindGroups(device)
	gpu.DestroyBuffers(device, r.VertexBuffer, r.IndexBuffer, r.UniformBuffer)
	r.VertexBuffer, r.IndexBuffer, r.UniformBuffer = nil, nil, nil
	r.instances, r.instanceBuffer = nil, nil
}

// packIndices returns indices as uint16 when every value fits, otherwise
// as uint32.
func packIndices(indices []uint32) ([]byte, gputypes.IndexFormat) {
	for _, i := range indices {
		if i > 0xFFFF {
			return gpu.Uint32Bytes(indices), gputypes.IndexFormatUint32
		}
	}
	short := make([]uint16, len(indices))
	for i, v := range indices {
		short[i] = uint16(v)
	}
	return gpu.Uint16Bytes(short), gputypes.IndexFormatUint16
}
