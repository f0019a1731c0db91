// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"cmp"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"golang.org/x/exp/slices"
)

// EntryPoint describes one shader entry point found by Reflect.
type EntryPoint struct {
	Name      string
	Stage     gputypes.ShaderStage
	Workgroup [3]uint32
}

// Reflection is the binding interface of a WGSL module.
type Reflection struct {
	// Groups holds the layout entries per bind group index, sorted by
	// binding. It is dense from 0 to the highest declared group.
	Groups [][]gputypes.BindGroupLayoutEntry

	// EntryPoints lists every entry point in declaration order.
	EntryPoints []EntryPoint
}

// Reflect parses WGSL source and derives bind group layout entries for
// every global with a @group/@binding attribute. Each entry is visible to
// the given shader stages.
func Reflect(source string, visibility gputypes.ShaderStages) (*Reflection, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: empty source", ErrInvalidShader)
	}
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidShader, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidShader, err)
	}

	byGroup := make(map[uint32][]gputypes.BindGroupLayoutEntry)
	maxGroup := -1
	for i := range module.GlobalVariables {
		gv := &module.GlobalVariables[i]
		if gv.Binding == nil {
			continue
		}
		entry, ok := layoutEntry(module, gv, visibility)
		if !ok {
			continue
		}
		byGroup[gv.Binding.Group] = append(byGroup[gv.Binding.Group], entry)
		if int(gv.Binding.Group) > maxGroup {
			maxGroup = int(gv.Binding.Group)
		}
	}

	r := &Reflection{Groups: make([][]gputypes.BindGroupLayoutEntry, maxGroup+1)}
	for g, entries := range byGroup {
		slices.SortFunc(entries, func(a, b gputypes.BindGroupLayoutEntry) int {
			return cmp.Compare(a.Binding, b.Binding)
		})
		r.Groups[g] = entries
	}
	for _, ep := range module.EntryPoints {
		r.EntryPoints = append(r.EntryPoints, EntryPoint{
			Name:      ep.Name,
			Stage:     shaderStage(ep.Stage),
			Workgroup: ep.Workgroup,
		})
	}
	return r, nil
}

// EntryPoint returns the entry point called name declared for stage.
func (r *Reflection) EntryPoint(name string, stage gputypes.ShaderStage) (EntryPoint, bool) {
	for _, ep := range r.EntryPoints {
		if ep.Name == name && ep.Stage == stage {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

// Merge combines two reflections of the stages of one pipeline. Entries
// with the same group and binding are merged by OR-ing their visibility;
// the receiver's resource description wins.
func (r *Reflection) Merge(other *Reflection) *Reflection {
	if other == nil {
		return r
	}
	n := max(len(r.Groups), len(other.Groups))
	out := &Reflection{
		Groups:      make([][]gputypes.BindGroupLayoutEntry, n),
		EntryPoints: append(append([]EntryPoint{}, r.EntryPoints...), other.EntryPoints...),
	}
	for g := 0; g < n; g++ {
		var merged []gputypes.BindGroupLayoutEntry
		if g < len(r.Groups) {
			merged = append(merged, r.Groups[g]...)
		}
		if g < len(other.Groups) {
		next:
			for _, e := range other.Groups[g] {
				for i := range merged {
					if merged[i].Binding == e.Binding {
						merged[i].Visibility |= e.Visibility
						continue next
					}
				}
				merged = append(merged, e)
			}
		}
		slices.SortFunc(merged, func(a, b gputypes.BindGroupLayoutEntry) int {
			return cmp.Compare(a.Binding, b.Binding)
		})
		out.Groups[g] = merged
	}
	return out
}

// layoutEntry maps one bound global to its layout entry.
func layoutEntry(module *ir.Module, gv *ir.GlobalVariable, visibility gputypes.ShaderStages) (gputypes.BindGroupLayoutEntry, bool) {
	entry := gputypes.BindGroupLayoutEntry{
		Binding:    gv.Binding.Binding,
		Visibility: visibility,
	}
	switch gv.Space {
	case ir.SpaceUniform:
		entry.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
		return entry, true
	case ir.SpaceStorage:
		t := gputypes.BufferBindingTypeStorage
		if gv.Access == ir.StorageRead {
			t = gputypes.BufferBindingTypeReadOnlyStorage
		}
		entry.Buffer = &gputypes.BufferBindingLayout{Type: t}
		return entry, true
	case ir.SpaceHandle:
	default:
		return entry, false
	}

	if int(gv.Type) >= len(module.Types) {
		return entry, false
	}
	inner := module.Types[gv.Type].Inner
	if arr, ok := inner.(ir.BindingArrayType); ok && int(arr.Base) < len(module.Types) {
		inner = module.Types[arr.Base].Inner
	}

	switch t := inner.(type) {
	case ir.SamplerType:
		st := gputypes.SamplerBindingTypeFiltering
		if t.Comparison {
			st = gputypes.SamplerBindingTypeComparison
		}
		entry.Sampler = &gputypes.SamplerBindingLayout{Type: st}
		return entry, true
	case ir.ImageType:
		dim := viewDimension(t.Dim, t.Arrayed)
		switch t.Class {
		case ir.ImageClassStorage:
			entry.StorageTexture = &gputypes.StorageTextureBindingLayout{
				Access:        storageAccess(t.StorageAccess),
				Format:        storageFormat(t.StorageFormat),
				ViewDimension: dim,
			}
		case ir.ImageClassDepth:
			entry.Texture = &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeDepth,
				ViewDimension: dim,
				Multisampled:  t.Multisampled,
			}
		default:
			entry.Texture = &gputypes.TextureBindingLayout{
				SampleType:    sampleType(t.SampledKind),
				ViewDimension: dim,
				Multisampled:  t.Multisampled,
			}
		}
		return entry, true
	}
	return entry, false
}

func shaderStage(s ir.ShaderStage) gputypes.ShaderStage {
	switch s {
	case ir.StageVertex:
		return gputypes.ShaderStageVertex
	case ir.StageFragment:
		return gputypes.ShaderStageFragment
	case ir.StageCompute:
		return gputypes.ShaderStageCompute
	default:
		return gputypes.ShaderStageNone
	}
}

func viewDimension(d ir.ImageDimension, arrayed bool) gputypes.TextureViewDimension {
	switch d {
	case ir.Dim1D:
		return gputypes.TextureViewDimension1D
	case ir.Dim3D:
		return gputypes.TextureViewDimension3D
	case ir.DimCube:
		if arrayed {
			return gputypes.TextureViewDimensionCubeArray
		}
		return gputypes.TextureViewDimensionCube
	default:
		if arrayed {
			return gputypes.TextureViewDimension2DArray
		}
		return gputypes.TextureViewDimension2D
	}
}

func sampleType(k ir.ScalarKind) gputypes.TextureSampleType {
	switch k {
	case ir.ScalarSint:
		return gputypes.TextureSampleTypeSint
	case ir.ScalarUint:
		return gputypes.TextureSampleTypeUint
	default:
		return gputypes.TextureSampleTypeFloat
	}
}

func storageAccess(a ir.StorageAccess) gputypes.StorageTextureAccess {
	switch a {
	case ir.StorageAccessRead:
		return gputypes.StorageTextureAccessReadOnly
	case ir.StorageAccessReadWrite, ir.StorageAccessAtomic:
		return gputypes.StorageTextureAccessReadWrite
	default:
		return gputypes.StorageTextureAccessWriteOnly
	}
}

// storageFormat covers the storage formats WGSL guarantees.
// Anything else maps to Undefined and is rejected by the backend.
func storageFormat(f ir.StorageFormat) gputypes.TextureFormat {
	switch f {
	case ir.StorageFormatRgba8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	case ir.StorageFormatRgba8Snorm:
		return gputypes.TextureFormatRGBA8Snorm
	case ir.StorageFormatRgba8Uint:
		return gputypes.TextureFormatRGBA8Uint
	case ir.StorageFormatRgba8Sint:
		return gputypes.TextureFormatRGBA8Sint
	case ir.StorageFormatBgra8Unorm:
		return gputypes.TextureFormatBGRA8Unorm
	case ir.StorageFormatRgba16Uint:
		return gputypes.TextureFormatRGBA16Uint
	case ir.StorageFormatRgba16Sint:
		return gputypes.TextureFormatRGBA16Sint
	case ir.StorageFormatRgba16Float:
		return gputypes.TextureFormatRGBA16Float
	case ir.StorageFormatR32Uint:
		return gputypes.TextureFormatR32Uint
	case ir.StorageFormatR32Sint:
		return gputypes.TextureFormatR32Sint
	case ir.StorageFormatR32Float:
		return gputypes.TextureFormatR32Float
	case ir.StorageFormatRg32Float:
		return gputypes.TextureFormatRG32Float
	case ir.StorageFormatRgba32Uint:
		return gputypes.TextureFormatRGBA32Uint
	case ir.StorageFormatRgba32Sint:
		return gputypes.TextureFormatRGBA32Sint
	case ir.StorageFormatRgba32Float:
		return gputypes.TextureFormatRGBA32Float
	default:
		return gputypes.TextureFormatUndefined
	}
}
