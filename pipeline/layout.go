// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ExplicitLayout is a pipeline layout together with the bind group layouts
// it was built from. Group i of the pipeline uses Groups[i].
type ExplicitLayout struct {
	Layout hal.PipelineLayout
	Groups []hal.BindGroupLayout
}

// NewExplicitLayout creates one bind group layout per entry of groups and a
// pipeline layout over them. An empty inner slice yields an empty layout.
// On error every object created so far is destroyed.
func NewExplicitLayout(device hal.Device, label string, groups [][]gputypes.BindGroupLayoutEntry) (*ExplicitLayout, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	l := &ExplicitLayout{Groups: make([]hal.BindGroupLayout, 0, len(groups))}
	for i, entries := range groups {
		bgl, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s_group%d", label, i),
			Entries: entries,
		})
		if err != nil {
			l.Destroy(device)
			return nil, fmt.Errorf("create bind group layout %d: %w", i, err)
		}
		l.Groups = append(l.Groups, bgl)
	}
	layout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_layout",
		BindGroupLayouts: l.Groups,
	})
	if err != nil {
		l.Destroy(device)
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	l.Layout = layout
	return l, nil
}

// BindGroupLayout returns the layout of group i.
func (l *ExplicitLayout) BindGroupLayout(i int) (hal.BindGroupLayout, bool) {
	if l == nil || i < 0 || i >= len(l.Groups) {
		return nil, false
	}
	return l.Groups[i], true
}

// Destroy releases the pipeline layout and every bind group layout.
// It is safe to call more than once.
func (l *ExplicitLayout) Destroy(device hal.Device) {
	if l == nil || device == nil {
		return
	}
	if l.Layout != nil {
		device.DestroyPipelineLayout(l.Layout)
		l.Layout = nil
	}
	for _, g := range l.Groups {
		if g != nil {
			device.DestroyBindGroupLayout(g)
		}
	}
	l.Groups = nil
}
