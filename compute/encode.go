// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"fmt"

	"github.com/gogpu/gfxcore/internal/gpu"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// boundGroup is a bind group at its group index.
type boundGroup struct {
	index uint32
	group hal.BindGroup
}

// dispatch is one recorded Dispatch call.
type dispatch struct {
	pipeline   hal.ComputePipeline
	groups     []boundGroup
	workgroups [3]uint32
}

// sortedGroups returns the groups of m in ascending index order.
func sortedGroups(m map[uint32]hal.BindGroup) []boundGroup {
	keys := sortedKeys(m)
	out := make([]boundGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, boundGroup{index: k, group: m[k]})
	}
	return out
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// workgroupCounts expands x and up to two more dimensions to a full
// (x, y, z), defaulting missing dimensions to 1.
func workgroupCounts(x uint32, yz []uint32) ([3]uint32, error) {
	if len(yz) > 2 {
		return [3]uint32{}, fmt.Errorf("%w: got %d", ErrInvalidWorkgroups, 1+len(yz))
	}
	wg := [3]uint32{x, 1, 1}
	copy(wg[1:], yz)
	for i, n := range wg {
		if n == 0 {
			return [3]uint32{}, fmt.Errorf("%w: dimension %d", ErrWorkgroupCountZero, i)
		}
	}
	return wg, nil
}

// encodeAndSubmit records passes, each a sequence of dispatches, into one
// command buffer and submits it. The profiler, when set, brackets the first
// pass and is resolved after the last one.
func encodeAndSubmit(device hal.Device, queue hal.Queue, label string, profiler *Profiler, passes [][]dispatch) (uint64, error) {
	encoder, err := gpu.BeginEncoder(device, label+"_encoder")
	if err != nil {
		return 0, fmt.Errorf("compute: %w", err)
	}
	for i, ds := range passes {
		desc := &hal.ComputePassDescriptor{Label: label}
		if len(passes) > 1 {
			desc.Label = fmt.Sprintf("%s_%d", label, i)
		}
		if profiler != nil && i == 0 {
			desc.TimestampWrites = profiler.TimestampWrites()
		}
		pass := encoder.BeginComputePass(desc)
		for _, d := range ds {
			pass.SetPipeline(d.pipeline)
			for _, g := range d.groups {
				pass.SetBindGroup(g.index, g.group, nil)
			}
			pass.Dispatch(d.workgroups[0], d.workgroups[1], d.workgroups[2])
		}
		pass.End()
	}
	if profiler != nil {
		profiler.Resolve(encoder)
	}
	index, err := gpu.Submit(device, queue, encoder)
	if err != nil {
		if profiler != nil {
			profiler.Reset()
		}
		return 0, fmt.Errorf("compute: %w", err)
	}
	if profiler != nil {
		profiler.submitted(index)
	}
	return index, nil
}
