// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gfxcore manages the lifecycle of GPU resources for a real-time
// renderer built on gogpu/wgpu's HAL.
//
// # Overview
//
// gfxcore turns material, mesh and compute descriptions into GPU objects
// once per logical change, reuses them across frames and tears them down
// without leaking. Each concern lives in its own package:
//
//   - pipeline: render pipelines keyed by (type tag, topology) and compute
//     pipelines keyed by a content hash of the WGSL source plus entry point
//   - mesh: per-drawable vertex, index and uniform buffers and bind groups,
//     invalidated by geometry changes, topology changes and material binding
//     revisions; InstancedMesh holds per-instance data uploaded on demand
//   - target: depth and MSAA attachments that follow the window size and
//     keep the last good pair when a resize fails
//   - compute: single-dispatch passes, multi-dispatch batches, timestamp
//     profiling and storage buffers with readback
//
// Core bundles the caches for one device.
//
// # Quick Start
//
//	core, err := gfxcore.New(device, queue, gfxcore.WithSampleCount(4))
//	if err != nil {
//		return err
//	}
//	defer core.Close()
//
//	targets, err := core.NewRenderTargets(surface, window)
//	if err != nil {
//		return err
//	}
//	defer targets.Dispose()
//
//	// Per frame:
//	pass, err := targets.BeginRenderPass(encoder, gputypes.Color{A: 1})
//	if err != nil {
//		return err
//	}
//	for _, obj := range scene {
//		res, p, err := core.Prepare(obj)
//		if err != nil {
//			return err
//		}
//		res.Draw(pass, p)
//	}
//	pass.End()
//
// # Logging
//
// gfxcore is silent by default. SetLogger installs a *slog.Logger that
// every sub-package logs through.
//
// # Thread Safety
//
// The caches are safe for concurrent use. Passes, batches and render
// passes are recorded from one goroutine at a time.
package gfxcore
