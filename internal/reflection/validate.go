// Package reflection turns spirv-cross reflection JSON into a validated
// shader.ResourceTable. All problems are collected before failing.
package reflection

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"shaderpipe/internal/glsl"
	"shaderpipe/internal/shader"
)

// MaxSet is the highest descriptor set the runtime binds.
const MaxSet = 1

type validator struct {
	doc    document
	table  *shader.ResourceTable
	issues []string
	// typeIndex maps a reflection type key to its slot in table.Types.
	typeIndex map[string]int32
	resolving map[string]bool
	// slots[set][binding] lists resource names in declaration order.
	slots map[uint32]map[uint32][]string
}

// Validate parses reflection data for one stage.
func Validate(data []byte, stage shader.Stage) (*shader.ResourceTable, error) {
	v := &validator{
		table:     &shader.ResourceTable{},
		typeIndex: make(map[string]int32),
		resolving: make(map[string]bool),
		slots:     make(map[uint32]map[uint32][]string),
	}
	if err := json.Unmarshal(data, &v.doc); err != nil {
		return nil, &Error{Stage: stage, Messages: []string{fmt.Sprintf("malformed reflection data: %v", err)}}
	}

	v.stageVars(v.doc.Inputs, "input", &v.table.Inputs)
	v.stageVars(v.doc.Outputs, "output", &v.table.Outputs)
	for _, ubo := range v.doc.UBOs {
		v.uniformBlock(ubo)
	}
	for _, ssbo := range v.doc.SSBOs {
		v.storageBlock(ssbo)
	}
	v.opaque(v.doc.Textures, "texture sampler", isSampler)
	v.opaque(v.doc.SeparateImages, "texture", func(dt shader.DataType) bool { return dt == shader.DataTypeTexture2D })
	v.opaque(v.doc.SeparateSamplers, "sampler", func(dt shader.DataType) bool { return dt == shader.DataTypeSampler })
	v.opaque(v.doc.Images, "image", func(dt shader.DataType) bool {
		return dt == shader.DataTypeImage2D || dt == shader.DataTypeUImage2D
	})
	v.duplicateBindings()

	if len(v.issues) > 0 {
		return nil, &Error{Stage: stage, Messages: v.issues}
	}
	byBinding := func(a, b shader.ResourceBinding) int { return cmp.Compare(a.Binding, b.Binding) }
	slices.SortStableFunc(v.table.Inputs, byBinding)
	slices.SortStableFunc(v.table.Outputs, byBinding)
	slices.SortStableFunc(v.table.Resources, byBinding)
	return v.table, nil
}

func (v *validator) addf(format string, args ...any) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
}

func isSampler(dt shader.DataType) bool {
	switch dt {
	case shader.DataTypeSampler2D, shader.DataTypeSampler3D, shader.DataTypeSamplerCube, shader.DataTypeSampler2DArray:
		return true
	}
	return false
}

// plainType accepts scalar, vector and matrix types.
func plainType(name string) (shader.DataType, bool) {
	dt, ok := shader.ParseDataType(name)
	if !ok || dt.IsOpaque() {
		return shader.DataTypeUnknown, false
	}
	return dt, true
}

// elementCount multiplies array dimensions; a non-array counts as one and
// a runtime-sized array as zero.
func (v *validator) elementCount(name string, dims []int64) uint32 {
	n := int64(1)
	for _, d := range dims {
		n *= d
	}
	c, err := safecast.Conv[uint32](n)
	if err != nil {
		v.addf("Unsupported array size for '%s'", name)
		return 1
	}
	return c
}

func (v *validator) u32(what, name string, n int64) uint32 {
	c, err := safecast.Conv[uint32](n)
	if err != nil {
		v.addf("Invalid %s %d for '%s'", what, n, name)
	}
	return c
}

func (v *validator) stageVars(vars []stageVar, kind string, out *[]shader.ResourceBinding) {
	for _, sv := range vars {
		dt, ok := plainType(sv.Type)
		if !ok {
			v.addf("Unsupported type '%s' for %s '%s'", sv.Type, kind, sv.Name)
			continue
		}
		*out = append(*out, shader.ResourceBinding{
			Name:         sv.Name,
			NameHash:     shader.NameHash(sv.Name),
			Type:         dt,
			TypeIndex:    shader.NoType,
			Binding:      v.u32("location", sv.Name, sv.Location),
			ElementCount: v.elementCount(sv.Name, sv.Array),
		})
	}
}

// slot validates the set and records (set, binding) for the duplicate check.
func (v *validator) slot(r resource, label string) (set, binding uint32, ok bool) {
	set = v.u32("set", r.Name, r.Set)
	binding = v.u32("binding", r.Name, r.Binding)
	if set > MaxSet {
		v.addf("Unsupported set value for %s '%s', expected <= %d but found %d", label, r.Name, MaxSet, set)
		return set, binding, false
	}
	if v.slots[set] == nil {
		v.slots[set] = make(map[uint32][]string)
	}
	v.slots[set][binding] = append(v.slots[set][binding], r.Name)
	return set, binding, true
}

func (v *validator) uniformBlock(ubo resource) {
	decl, found := v.doc.Types[ubo.Type]
	if !found || len(decl.Members) == 0 {
		v.addf("No uniforms found in uniform block '%s'", ubo.Name)
		return
	}
	before := len(v.issues)
	members := make([]shader.ResourceMember, 0, len(decl.Members))
	for _, m := range decl.Members {
		dt, ok := plainType(m.Type)
		if !ok {
			v.addf("Unsupported type '%s' for uniform '%s'", m.Type, m.Name)
			continue
		}
		members = append(members, shader.ResourceMember{
			Name:         m.Name,
			NameHash:     shader.NameHash(m.Name),
			Type:         dt,
			TypeIndex:    shader.NoType,
			ElementCount: v.elementCount(m.Name, m.Array),
			Offset:       v.u32("offset", m.Name, m.Offset),
		})
	}
	set, binding, ok := v.slot(ubo, "uniform")
	if !ok || len(v.issues) > before {
		return
	}

	b := shader.ResourceBinding{
		Set:          set,
		Binding:      binding,
		BlockSize:    v.u32("block size", ubo.Name, ubo.BlockSize),
		ElementCount: v.elementCount(ubo.Name, ubo.Array),
	}
	if strings.HasPrefix(ubo.Name, glsl.GeneratedPrefix) && len(members) == 1 {
		// блок, созданный нормализатором: наружу видна только переменная
		m := members[0]
		b.Name, b.Type, b.TypeIndex, b.ElementCount = m.Name, m.Type, shader.NoType, m.ElementCount
	} else {
		b.Name = ubo.Name
		b.Type = shader.DataTypeUniformBuffer
		b.TypeIndex = v.addType(ubo.Type, decl.Name, members)
	}
	b.NameHash = shader.NameHash(b.Name)
	v.table.Resources = append(v.table.Resources, b)
}

func (v *validator) storageBlock(ssbo resource) {
	decl, found := v.doc.Types[ssbo.Type]
	if !found || len(decl.Members) == 0 {
		v.addf("No members found in storage block '%s'", ssbo.Name)
		return
	}
	before := len(v.issues)
	idx := v.resolveType(ssbo.Type)
	set, binding, ok := v.slot(ssbo, "storage block")
	if !ok || len(v.issues) > before {
		return
	}
	v.table.Resources = append(v.table.Resources, shader.ResourceBinding{
		Name:         ssbo.Name,
		NameHash:     shader.NameHash(ssbo.Name),
		Type:         shader.DataTypeStorageBuffer,
		TypeIndex:    idx,
		Set:          set,
		Binding:      binding,
		BlockSize:    v.u32("block size", ssbo.Name, ssbo.BlockSize),
		ElementCount: v.elementCount(ssbo.Name, ssbo.Array),
	})
}

// resolveType registers a struct type and, depth first, the struct types of
// its members. Member types that are neither plain nor declared are errors.
func (v *validator) resolveType(key string) int32 {
	if idx, ok := v.typeIndex[key]; ok {
		return idx
	}
	decl := v.doc.Types[key]
	if v.resolving[key] {
		v.addf("Recursive struct type '%s'", decl.Name)
		return shader.NoType
	}
	v.resolving[key] = true
	defer delete(v.resolving, key)

	members := make([]shader.ResourceMember, 0, len(decl.Members))
	for _, m := range decl.Members {
		rm := shader.ResourceMember{
			Name:         m.Name,
			NameHash:     shader.NameHash(m.Name),
			TypeIndex:    shader.NoType,
			ElementCount: v.elementCount(m.Name, m.Array),
			Offset:       v.u32("offset", m.Name, m.Offset),
		}
		if dt, ok := plainType(m.Type); ok {
			rm.Type = dt
		} else if _, declared := v.doc.Types[m.Type]; declared {
			rm.Type = shader.DataTypeStruct
			rm.TypeIndex = v.resolveType(m.Type)
		} else {
			v.addf("Unsupported type '%s' for storage block member '%s'", m.Type, m.Name)
			continue
		}
		members = append(members, rm)
	}
	return v.addType(key, decl.Name, members)
}

func (v *validator) addType(key, name string, members []shader.ResourceMember) int32 {
	if idx, ok := v.typeIndex[key]; ok {
		return idx
	}
	idx, err := safecast.Conv[int32](len(v.table.Types))
	if err != nil {
		v.addf("Too many types in reflection data")
		return shader.NoType
	}
	v.table.Types = append(v.table.Types, shader.ResourceType{
		Name:     name,
		NameHash: shader.NameHash(name),
		Members:  members,
	})
	v.typeIndex[key] = idx
	return idx
}

func (v *validator) opaque(list []resource, label string, accept func(shader.DataType) bool) {
	for _, r := range list {
		dt, _ := shader.ParseDataType(r.Type)
		if !accept(dt) {
			v.addf("Unsupported type '%s' for %s '%s'", r.Type, label, r.Name)
			continue
		}
		set, binding, ok := v.slot(r, label)
		if !ok {
			continue
		}
		v.table.Resources = append(v.table.Resources, shader.ResourceBinding{
			Name:         r.Name,
			NameHash:     shader.NameHash(r.Name),
			Type:         dt,
			TypeIndex:    shader.NoType,
			Set:          set,
			Binding:      binding,
			ElementCount: v.elementCount(r.Name, r.Array),
		})
	}
}

func (v *validator) duplicateBindings() {
	sets := make([]uint32, 0, len(v.slots))
	for s := range v.slots {
		sets = append(sets, s)
	}
	slices.Sort(sets)
	for _, s := range sets {
		bindings := make([]uint32, 0, len(v.slots[s]))
		for b := range v.slots[s] {
			bindings = append(bindings, b)
		}
		slices.Sort(bindings)
		for _, b := range bindings {
			if names := v.slots[s][b]; len(names) > 1 {
				v.addf("Uniforms '%s' from set %d have the same binding %d", strings.Join(names, ", "), s, b)
			}
		}
	}
}
