// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package mesh owns the per-drawable GPU resources of a renderer.
//
// A [Cache] creates vertex, index and uniform buffers plus bind groups for
// each [Drawable] the first time it is drawn and reuses them across frames.
// Entries are keyed by the drawable's [Handle], not by value, and are
// invalidated by three triggers:
//
//   - the material's type tag or topology changed, or the drawable asked for
//     a rebuild: every buffer and bind group is recreated;
//   - the material's binding revision changed: only the bind groups are
//     rebuilt, over the existing uniform buffer;
//   - an instanced drawable's instance data changed: the storage buffer is
//     re-uploaded.
//
// [InstancedMesh] holds per-instance transforms or positions plus colors on
// the CPU and mirrors them into a storage buffer on demand.
package mesh
