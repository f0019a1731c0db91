// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipeline compiles and memoizes GPU pipelines.
//
// # Render pipelines
//
// [PipelineCache] keys render pipelines by (material type tag, primitive
// topology). The first request for a key compiles the material's WGSL,
// reflects its bindings into bind group layouts and creates the pipeline;
// every later request returns the same *[RenderPipeline] without touching
// the device. The number of pipelines is bounded by the distinct
// (type, topology) pairs in use, so there is no eviction; [PipelineCache.Clear]
// releases everything on teardown or device loss.
//
// # Compute pipelines
//
// [ComputePipelineCache] keys compute pipelines per device by
// [HashSource](source) + ":" + entry point. Pipelines requested with an
// [ExplicitLayout] are always compiled fresh and never stored, so two call
// sites can never share a pipeline whose layout only one of them expects.
//
// # Automatic layouts
//
// When no explicit layout is given, bind group layouts come from [Reflect],
// which parses WGSL with github.com/gogpu/naga and maps every
// @group/@binding global to a gputypes.BindGroupLayoutEntry. Groups are
// dense: a shader that only declares @group(1) still gets an empty layout
// for group 0.
package pipeline
