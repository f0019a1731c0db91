// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gputest

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Encoder records the commands issued through a noop command encoder.
// CopyBufferToBuffer and ResolveQuerySet are simulated on the noop buffers'
// backing memory, so readback paths observe real data.
type Encoder struct {
	hal.CommandEncoder
	device *Device

	Label        string
	Ended        bool
	Discarded    bool
	ComputePass  []*ComputePass
	RenderPass   []*RenderPass
	Copies       []hal.BufferCopy
	Resolves     int
	ResolveCount uint32
}

func (e *Encoder) BeginEncoding(label string) error {
	e.Label = label
	if err := e.device.FailBeginEncoding; err != nil {
		return err
	}
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *Encoder) EndEncoding() (hal.CommandBuffer, error) {
	if err := e.device.FailEndEncoding; err != nil {
		return nil, err
	}
	e.Ended = true
	return e.CommandEncoder.EndEncoding()
}

func (e *Encoder) DiscardEncoding() {
	e.Discarded = true
	e.CommandEncoder.DiscardEncoding()
}

func (e *Encoder) CopyBufferToBuffer(src, dst hal.Buffer, regions []hal.BufferCopy) {
	e.Copies = append(e.Copies, regions...)
	for _, r := range regions {
		if data := e.device.readBuffer(src, r.SrcOffset, r.Size); data != nil {
			e.device.writeBuffer(dst, r.DstOffset, data)
		}
	}
}

func (e *Encoder) ResolveQuerySet(_ hal.QuerySet, first, count uint32, dst hal.Buffer, offset uint64) {
	e.Resolves++
	e.ResolveCount = count
	e.device.resolveQueries(first, count, dst, offset)
}

func (e *Encoder) BeginComputePass(desc *hal.ComputePassDescriptor) hal.ComputePassEncoder {
	p := &ComputePass{Desc: desc, BindGroups: make(map[uint32]hal.BindGroup)}
	e.ComputePass = append(e.ComputePass, p)
	return p
}

func (e *Encoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	p := &RenderPass{Desc: desc, BindGroups: make(map[uint32]hal.BindGroup)}
	e.RenderPass = append(e.RenderPass, p)
	return p
}

// ComputePass records one compute pass.
type ComputePass struct {
	Desc       *hal.ComputePassDescriptor
	Pipeline   hal.ComputePipeline
	BindGroups map[uint32]hal.BindGroup
	Dispatches [][3]uint32
	Ended      bool
}

func (p *ComputePass) End()                                { p.Ended = true }
func (p *ComputePass) SetPipeline(pl hal.ComputePipeline)   { p.Pipeline = pl }
func (p *ComputePass) DispatchIndirect(hal.Buffer, uint64) {}

func (p *ComputePass) SetBindGroup(index uint32, g hal.BindGroup, _ []uint32) {
	p.BindGroups[index] = g
}

func (p *ComputePass) Dispatch(x, y, z uint32) {
	p.Dispatches = append(p.Dispatches, [3]uint32{x, y, z})
}

// RenderPass records one render pass.
type RenderPass struct {
	noop.RenderPassEncoder

	Desc          *hal.RenderPassDescriptor
	Pipeline      hal.RenderPipeline
	BindGroups    map[uint32]hal.BindGroup
	VertexBuffers map[uint32]hal.Buffer
	IndexBuffer   hal.Buffer
	IndexFormat   gputypes.IndexFormat
	Draws         [][4]uint32
	DrawsIndexed  [][2]uint32
	Ended         bool
}

func (p *RenderPass) End()                             { p.Ended = true }
func (p *RenderPass) SetPipeline(pl hal.RenderPipeline) { p.Pipeline = pl }

func (p *RenderPass) SetBindGroup(index uint32, g hal.BindGroup, _ []uint32) {
	p.BindGroups[index] = g
}

func (p *RenderPass) SetVertexBuffer(slot uint32, b hal.Buffer, _ uint64) {
	if p.VertexBuffers == nil {
		p.VertexBuffers = make(map[uint32]hal.Buffer)
	}
	p.VertexBuffers[slot] = b
}

func (p *RenderPass) SetIndexBuffer(b hal.Buffer, format gputypes.IndexFormat, _ uint64) {
	p.IndexBuffer = b
	p.IndexFormat = format
}

func (p *RenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.Draws = append(p.Draws, [4]uint32{vertexCount, instanceCount, firstVertex, firstInstance})
}

func (p *RenderPass) DrawIndexed(indexCount, instanceCount, _ uint32, _ int32, _ uint32) {
	p.DrawsIndexed = append(p.DrawsIndexed, [2]uint32{indexCount, instanceCount})
}
