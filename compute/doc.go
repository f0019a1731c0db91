// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compute encodes and submits compute work.
//
// A [Pass] is a persistent dispatch unit: one pipeline plus a set of bind
// groups, where every Dispatch is its own encode-submit cycle. A [Batch]
// accumulates dispatch entries and submits them together, either in one
// compute pass or in one pass per entry. A [Profiler] brackets a pass with
// GPU timestamp queries when the device supports them and degrades to a
// no-op when it does not. A [Buffer] is a storage buffer with a staging
// copy for reading results back.
//
// Example:
//
//	batch := compute.NewBatch(device, queue, pipelines)
//	err := batch.Add(compute.Entry{
//		Shader:     &compute.Shader{Source: src, EntryPoint: "main"},
//		Workgroups: []uint32{64},
//		Entries: map[string][]gputypes.BindGroupEntry{
//			"0": {data.Binding(0)},
//		},
//	})
//	if err != nil {
//		return err
//	}
//	if err := batch.SubmitAsync(ctx); err != nil {
//		return err
//	}
//	out, err := data.ReadFloat32sAsync(ctx)
package compute
