package shader

import "hash/fnv"

// NoType marks a binding or member without a composite type.
const NoType int32 = -1

// NameHash is the runtime lookup key of a resource name.
func NameHash(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}

// ResourceBinding is one binding slot (or stage input/output location).
type ResourceBinding struct {
	Name             string   `msgpack:"name"`
	NameHash         uint64   `msgpack:"name_hash"`
	Type             DataType `msgpack:"type"`
	TypeIndex        int32    `msgpack:"type_index"`
	Set              uint32   `msgpack:"set"`
	Binding          uint32   `msgpack:"binding"`
	ElementCount     uint32   `msgpack:"element_count"`
	BlockSize        uint32   `msgpack:"block_size,omitempty"`
	NameIndirections []uint64 `msgpack:"name_indirections,omitempty"`
}

// ResourceMember is a member of a composite type.
type ResourceMember struct {
	Name         string   `msgpack:"name"`
	NameHash     uint64   `msgpack:"name_hash"`
	Type         DataType `msgpack:"type"`
	TypeIndex    int32    `msgpack:"type_index"`
	ElementCount uint32   `msgpack:"element_count"`
	Offset       uint32   `msgpack:"offset"`
}

// ResourceType is the member layout of a block or struct.
type ResourceType struct {
	Name     string           `msgpack:"name"`
	NameHash uint64           `msgpack:"name_hash"`
	Members  []ResourceMember `msgpack:"members"`
}

// ResourceTable is the validated reflection of one stage.
// Inputs, Outputs and Resources are sorted by Binding.
type ResourceTable struct {
	Inputs    []ResourceBinding `msgpack:"inputs"`
	Outputs   []ResourceBinding `msgpack:"outputs"`
	Resources []ResourceBinding `msgpack:"resources"`
	Types     []ResourceType    `msgpack:"types"`
}

// Resource returns the resource binding with the given name.
func (t *ResourceTable) Resource(name string) (*ResourceBinding, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.Resources {
		if t.Resources[i].Name == name {
			return &t.Resources[i], true
		}
	}
	return nil, false
}

// StageReflection attaches a resource table to the stage it describes.
type StageReflection struct {
	Stage Stage          `msgpack:"stage"`
	Table *ResourceTable `msgpack:"table"`
}
