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

// PassMode selects how a Batch groups its dispatches into compute passes.
type PassMode int

const (
	// PassModeSingle encodes every dispatch into one pass. A profiler
	// measures the whole batch.
	PassModeSingle PassMode = iota

	// PassModePerDispatch encodes one pass per dispatch.
	PassModePerDispatch
)

// String returns the string representation of PassMode.
func (m PassMode) String() string {
	switch m {
	case PassModeSingle:
		return "single"
	case PassModePerDispatch:
		return "perDispatch"
	default:
		return fmt.Sprintf("PassMode(%d)", int(m))
	}
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithPassMode sets the pass mode. The default is PassModeSingle.
func WithPassMode(mode PassMode) BatchOption {
	return func(b *Batch) { b.mode = mode }
}

// WithProfiler times submitted passes with profiler.
func WithProfiler(profiler *Profiler) BatchOption {
	return func(b *Batch) { b.profiler = profiler }
}

// WithBatchLabel sets the debug label of the encoder and passes.
func WithBatchLabel(label string) BatchOption {
	return func(b *Batch) { b.label = label }
}

// Batch queues compute dispatches and submits them in one command buffer.
// Pipelines for shader entries come from a ComputePipelineCache; bind
// groups built from raw entries live until the batch is submitted.
//
// Batch is not safe for concurrent use.
type Batch struct {
	device    hal.Device
	queue     hal.Queue
	pipelines *pipeline.ComputePipelineCache
	mode      PassMode
	profiler  *Profiler
	label     string

	entries []*queued
}

// NewBatch returns an empty batch. pipelines may be nil when every entry
// carries a compiled pipeline.
func NewBatch(device hal.Device, queue hal.Queue, pipelines *pipeline.ComputePipelineCache, opts ...BatchOption) *Batch {
	b := &Batch{
		device:    device,
		queue:     queue,
		pipelines: pipelines,
		label:     "compute_batch",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add validates e and queues it.
func (b *Batch) Add(e Entry) error {
	q, err := e.validate()
	if err != nil {
		return err
	}
	if q.pipeline == nil && b.pipelines == nil {
		return fmt.Errorf("%w: shader entry needs a pipeline cache", ErrInvalidEntry)
	}
	b.entries = append(b.entries, q)
	return nil
}

// Len returns the number of queued entries.
func (b *Batch) Len() int { return len(b.entries) }

// Mode returns the pass mode.
func (b *Batch) Mode() PassMode { return b.mode }

// Clear drops every queued entry without submitting.
func (b *Batch) Clear() { b.entries = nil }

// Submit encodes and submits every queued entry and clears the queue.
// Bind groups the batch built are released right after submission; the
// backend defers their destruction until the GPU is done with them.
//
// On failure nothing is submitted and the queue is kept.
func (b *Batch) Submit() error {
	s, err := b.submit()
	if err != nil {
		return err
	}
	s.release(b.device)
	return nil
}

// SubmitAsync is Submit followed by waiting for the GPU to finish.
// Built bind groups are released after completion.
func (b *Batch) SubmitAsync(ctx context.Context) error {
	s, err := b.submit()
	if err != nil {
		return err
	}
	defer s.release(b.device)
	if err := gpu.Wait(ctx, b.queue, s.index); err != nil {
		return fmt.Errorf("compute: %w", err)
	}
	return nil
}

// submission holds what one submit created and must release.
type submission struct {
	index     uint64
	groups    []hal.BindGroup
	pipelines []*pipeline.ComputePipeline
}

func (s *submission) release(device hal.Device) {
	gpu.DestroyBindGroups(device, s.groups...)
	for _, p := range s.pipelines {
		p.Destroy(device)
	}
	s.groups, s.pipelines = nil, nil
}

func (b *Batch) submit() (*submission, error) {
	if b.device == nil || b.queue == nil {
		return nil, ErrNilDevice
	}
	if len(b.entries) == 0 {
		return &submission{}, nil
	}
	if b.profiler != nil && b.mode == PassModePerDispatch && len(b.entries) > 1 {
		return nil, fmt.Errorf("%w: %d entries", ErrProfilerAmbiguous, len(b.entries))
	}

	s := &submission{}
	dispatches := make([]dispatch, 0, len(b.entries))
	for _, q := range b.entries {
		d, err := b.prepare(q, s)
		if err != nil {
			s.release(b.device)
			return nil, err
		}
		dispatches = append(dispatches, d)
	}

	var passes [][]dispatch
	if b.mode == PassModePerDispatch {
		for _, d := range dispatches {
			passes = append(passes, []dispatch{d})
		}
	} else {
		passes = [][]dispatch{dispatches}
	}

	index, err := encodeAndSubmit(b.device, b.queue, b.label, b.profiler, passes)
	if err != nil {
		s.release(b.device)
		return nil, err
	}
	s.index = index
	gpu.Logger().Debug("compute: batch submitted",
		"label", b.label, "entries", len(b.entries), "passes", len(passes), "mode", b.mode, "submission", index)
	b.entries = nil
	return s, nil
}

// prepare resolves the pipeline of q and builds its raw bind groups. Every
// object created is recorded in s.
func (b *Batch) prepare(q *queued, s *submission) (dispatch, error) {
	p := q.pipeline
	if p == nil {
		var err error
		p, err = b.pipelines.GetOrCreate(b.device, q.shader.Source, q.shader.Layout, q.shader.Label, q.entryPoint())
		if err != nil {
			return dispatch{}, fmt.Errorf("compute: %s: %w", q.label, err)
		}
		if q.shader.Layout != nil {
			s.pipelines = append(s.pipelines, p)
		}
	}

	groups := make(map[uint32]hal.BindGroup, len(q.raw)+len(q.groups))
	for idx, g := range q.groups {
		groups[idx] = g
	}
	for _, idx := range sortedKeys(q.raw) {
		entries := q.raw[idx]
		layout, ok := p.BindGroupLayout(int(idx))
		if !ok {
			return dispatch{}, fmt.Errorf("%w: %s group %d", ErrMissingBindGroupLayout, q.label, idx)
		}
		g, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   fmt.Sprintf("%s_group_%d", q.label, idx),
			Layout:  layout,
			Entries: entries,
		})
		if err != nil {
			return dispatch{}, fmt.Errorf("compute: %s group %d: %w", q.label, idx, err)
		}
		s.groups = append(s.groups, g)
		groups[idx] = g
	}
	return dispatch{
		pipeline:   p.Pipeline,
		groups:     sortedGroups(groups),
		workgroups: q.workgroups,
	}, nil
}
