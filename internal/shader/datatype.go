package shader

// DataType is the engine's closed set of resource and member types.
type DataType uint8

const (
	DataTypeUnknown DataType = iota
	DataTypeInt
	DataTypeUint
	DataTypeFloat
	DataTypeVec2
	DataTypeVec3
	DataTypeVec4
	DataTypeIVec2
	DataTypeIVec3
	DataTypeIVec4
	DataTypeUVec2
	DataTypeUVec3
	DataTypeUVec4
	DataTypeMat2
	DataTypeMat3
	DataTypeMat4
	DataTypeSampler2D
	DataTypeSampler3D
	DataTypeSamplerCube
	DataTypeSampler2DArray
	DataTypeImage2D
	DataTypeUImage2D
	DataTypeTexture2D
	DataTypeSampler
	// composite kinds; TypeIndex points into ResourceTable.Types
	DataTypeStruct
	DataTypeUniformBuffer
	DataTypeStorageBuffer
)

var dataTypeNames = map[string]DataType{
	"int":            DataTypeInt,
	"uint":           DataTypeUint,
	"float":          DataTypeFloat,
	"vec2":           DataTypeVec2,
	"vec3":           DataTypeVec3,
	"vec4":           DataTypeVec4,
	"ivec2":          DataTypeIVec2,
	"ivec3":          DataTypeIVec3,
	"ivec4":          DataTypeIVec4,
	"uvec2":          DataTypeUVec2,
	"uvec3":          DataTypeUVec3,
	"uvec4":          DataTypeUVec4,
	"mat2":           DataTypeMat2,
	"mat3":           DataTypeMat3,
	"mat4":           DataTypeMat4,
	"sampler2D":      DataTypeSampler2D,
	"sampler3D":      DataTypeSampler3D,
	"samplerCube":    DataTypeSamplerCube,
	"sampler2DArray": DataTypeSampler2DArray,
	"image2D":        DataTypeImage2D,
	"uimage2D":       DataTypeUImage2D,
	"texture2D":      DataTypeTexture2D,
	"sampler":        DataTypeSampler,
}

// ParseDataType maps a GLSL type name as reported by the reflector.
// Composite kinds are never returned.
func ParseDataType(name string) (DataType, bool) {
	dt, ok := dataTypeNames[name]
	return dt, ok
}

func (t DataType) String() string {
	switch t {
	case DataTypeStruct:
		return "struct"
	case DataTypeUniformBuffer:
		return "uniform_buffer"
	case DataTypeStorageBuffer:
		return "storage_buffer"
	}
	for name, dt := range dataTypeNames {
		if dt == t {
			return name
		}
	}
	return "unknown"
}

// IsOpaque reports whether the type is a sampler, texture or image.
func (t DataType) IsOpaque() bool {
	return t >= DataTypeSampler2D && t <= DataTypeSampler
}

// IsComposite reports whether the binding refers to ResourceTable.Types.
func (t DataType) IsComposite() bool {
	return t >= DataTypeStruct
}
