// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"context"
	"fmt"

	"github.com/gogpu/gfxcore/internal/gpu"
	"github.com/gogpu/gfxcore/pipeline"
	"github.com/gogpu/wgpu/hal"
)

// PassOption configures a Pass.
type PassOption func(*Pass)

// WithPassLabel sets the debug label of the encoded passes.
func WithPassLabel(label string) PassOption {
	return func(p *Pass) { p.label = label }
}

// WithPassProfiler times every dispatch with profiler.
func WithPassProfiler(profiler *Profiler) PassOption {
	return func(p *Pass) { p.profiler = profiler }
}

// Pass dispatches one compute pipeline with a persistent set of bind
// groups. Each Dispatch encodes and submits its own command buffer.
//
// Pass is not safe for concurrent use.
type Pass struct {
	device   hal.Device
	queue    hal.Queue
	pipeline *pipeline.ComputePipeline
	label    string
	profiler *Profiler
	groups   map[uint32]hal.BindGroup
}

// NewPass returns a pass for p.
func NewPass(device hal.Device, queue hal.Queue, p *pipeline.ComputePipeline, opts ...PassOption) (*Pass, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if p == nil || p.Pipeline == nil {
		return nil, ErrNilPipeline
	}
	pass := &Pass{
		device:   device,
		queue:    queue,
		pipeline: p,
		label:    p.Label + "_pass",
		groups:   make(map[uint32]hal.BindGroup),
	}
	for _, opt := range opts {
		opt(pass)
	}
	return pass, nil
}

// SetBindGroup sets the bind group at index. A nil group removes it.
func (p *Pass) SetBindGroup(index uint32, g hal.BindGroup) *Pass {
	if g == nil {
		delete(p.groups, index)
		return p
	}
	p.groups[index] = g
	return p
}

// ClearBindGroups removes every bind group.
func (p *Pass) ClearBindGroups() *Pass {
	clear(p.groups)
	return p
}

// Pipeline returns the dispatched pipeline.
func (p *Pass) Pipeline() *pipeline.ComputePipeline { return p.pipeline }

// Dispatch encodes a pass that binds the pipeline and every bind group in
// index order, dispatches x*y*z workgroups and submits it. y and z default
// to 1.
func (p *Pass) Dispatch(x uint32, yz ...uint32) error {
	_, err := p.dispatch(x, yz)
	return err
}

// DispatchAsync is Dispatch followed by waiting for the submission to
// complete.
func (p *Pass) DispatchAsync(ctx context.Context, x uint32, yz ...uint32) error {
	index, err := p.dispatch(x, yz)
	if err != nil {
		return err
	}
	if err := gpu.Wait(ctx, p.queue, index); err != nil {
		return fmt.Errorf("compute: %w", err)
	}
	return nil
}

func (p *Pass) dispatch(x uint32, yz []uint32) (uint64, error) {
	if len(p.groups) == 0 {
		return 0, ErrNoBindGroups
	}
	wg, err := workgroupCounts(x, yz)
	if err != nil {
		return 0, err
	}
	d := dispatch{
		pipeline:   p.pipeline.Pipeline,
		groups:     sortedGroups(p.groups),
		workgroups: wg,
	}
	index, err := encodeAndSubmit(p.device, p.queue, p.label, p.profiler, [][]dispatch{{d}})
	if err != nil {
		return 0, err
	}
	gpu.Logger().Debug("compute: dispatched", "label", p.label, "workgroups", wg, "submission", index)
	return index, nil
}
