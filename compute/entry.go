// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"fmt"
	"strconv"

	"github.com/gogpu/gfxcore/pipeline"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DefaultEntryPoint is used when a Shader names no entry point.
const DefaultEntryPoint = "main"

// Shader is WGSL compute source resolved through a ComputePipelineCache.
type Shader struct {
	Source     string
	EntryPoint string
	Label      string

	// Layout, when set, compiles an uncached pipeline against an explicit
	// layout. The batch destroys that pipeline after submitting.
	Layout *pipeline.ExplicitLayout
}

// Entry is one dispatch queued on a Batch.
//
// Bind groups are keyed by their group index written in decimal ("0",
// "1", ...). Entries holds raw binding lists that the batch turns into bind
// groups with the pipeline's layout; BindGroups holds groups the caller
// built. An index may appear in only one of the two.
type Entry struct {
	// Shader is compiled through the batch's pipeline cache when Pipeline
	// is nil.
	Shader   *Shader
	Pipeline *pipeline.ComputePipeline

	// Workgroups holds 1 to 3 workgroup counts; missing dimensions are 1.
	Workgroups []uint32

	Entries    map[string][]gputypes.BindGroupEntry
	BindGroups map[string]hal.BindGroup
	Label      string
}

// queued is a validated Entry with parsed group indices.
type queued struct {
	shader     *Shader
	pipeline   *pipeline.ComputePipeline
	workgroups [3]uint32
	raw        map[uint32][]gputypes.BindGroupEntry
	groups     map[uint32]hal.BindGroup
	label      string
}

func (e *Entry) validate() (*queued, error) {
	if e.Pipeline == nil && (e.Shader == nil || e.Shader.Source == "") {
		return nil, ErrInvalidEntry
	}
	if len(e.Workgroups) == 0 {
		return nil, fmt.Errorf("%w: got 0", ErrInvalidWorkgroups)
	}
	wg, err := workgroupCounts(e.Workgroups[0], e.Workgroups[1:])
	if err != nil {
		return nil, err
	}

	q := &queued{
		shader:     e.Shader,
		pipeline:   e.Pipeline,
		workgroups: wg,
		raw:        make(map[uint32][]gputypes.BindGroupEntry, len(e.Entries)),
		groups:     make(map[uint32]hal.BindGroup, len(e.BindGroups)),
		label:      e.Label,
	}
	for key, entries := range e.Entries {
		idx, err := parseGroupKey(key)
		if err != nil {
			return nil, err
		}
		q.raw[idx] = entries
	}
	for key, g := range e.BindGroups {
		idx, err := parseGroupKey(key)
		if err != nil {
			return nil, err
		}
		if _, dup := q.raw[idx]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateGroup, idx)
		}
		if g == nil {
			return nil, fmt.Errorf("%w: group %d is nil", ErrInvalidEntry, idx)
		}
		q.groups[idx] = g
	}
	if len(q.raw)+len(q.groups) == 0 {
		return nil, ErrNoBindGroups
	}
	if q.label == "" {
		q.label = q.defaultLabel()
	}
	return q, nil
}

func (q *queued) defaultLabel() string {
	if q.pipeline != nil {
		return q.pipeline.Label
	}
	if q.shader.Label != "" {
		return q.shader.Label
	}
	return q.entryPoint()
}

func (q *queued) entryPoint() string {
	if q.shader == nil || q.shader.EntryPoint == "" {
		return DefaultEntryPoint
	}
	return q.shader.EntryPoint
}

// parseGroupKey accepts only canonical decimal indices: "0", "12", but not
// "-1", "01", "+1" or "x".
func parseGroupKey(key string) (uint32, error) {
	v, err := strconv.ParseUint(key, 10, 32)
	if err != nil || strconv.FormatUint(v, 10) != key {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGroupKey, key)
	}
	return uint32(v), nil
}
