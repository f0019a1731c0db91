// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu holds the low-level helpers shared by the gfxcore packages:
// the package logger, buffer creation and upload with size guarantees,
// submission and completion waiting, and mapped buffer readback.
//
// Everything here talks to github.com/gogpu/wgpu/hal directly. Higher level
// packages (pipeline, mesh, target, compute) never create raw buffers or
// wait on the queue themselves; they go through these helpers so the
// alignment and cleanup rules live in one place.
package gpu
