package drawcore

import "github.com/gogpu/gputypes"

// SrcType describes the on-buffer representation of one attribute: the
// element type the vertex fetch hardware reads from a vertex or instance
// buffer.
//
// The numeric value of each constant is also its 8-bit wire code in the
// structural key (see KeyBuilder). The mapping is append-only: reordering or
// renumbering existing constants is a wire-format break that invalidates
// every previously cached program.
type SrcType uint8

const (
	SrcTypeFloat SrcType = iota
	SrcTypeFloat2
	SrcTypeFloat3
	SrcTypeFloat4
	SrcTypeHalf2
	SrcTypeHalf4
	SrcTypeInt2
	SrcTypeInt3
	SrcTypeInt4
	SrcTypeByte2
	SrcTypeByte4
	SrcTypeUByte2
	SrcTypeUByte4
	SrcTypeUByte4Norm
	SrcTypeShort2
	SrcTypeShort4
	SrcTypeUShort2
	SrcTypeUShort2Norm
	SrcTypeUShort4Norm
	SrcTypeInt
	SrcTypeUInt

	srcTypeLast = SrcTypeUInt
)

// Size returns the byte size of one element of this type in the buffer.
// For matrix-typed destinations this is the size of a single column; the
// full per-attribute footprint is Attribute.Stride.
func (t SrcType) Size() int {
	switch t {
	case SrcTypeFloat:
		return 4
	case SrcTypeFloat2:
		return 8
	case SrcTypeFloat3:
		return 12
	case SrcTypeFloat4:
		return 16
	case SrcTypeHalf2:
		return 4
	case SrcTypeHalf4:
		return 8
	case SrcTypeInt2:
		return 8
	case SrcTypeInt3:
		return 12
	case SrcTypeInt4:
		return 16
	case SrcTypeByte2:
		return 2
	case SrcTypeByte4:
		return 4
	case SrcTypeUByte2:
		return 2
	case SrcTypeUByte4:
		return 4
	case SrcTypeUByte4Norm:
		return 4
	case SrcTypeShort2:
		return 4
	case SrcTypeShort4:
		return 8
	case SrcTypeUShort2:
		return 4
	case SrcTypeUShort2Norm:
		return 4
	case SrcTypeUShort4Norm:
		return 8
	case SrcTypeInt:
		return 4
	case SrcTypeUInt:
		return 4
	}
	panic("drawcore: unknown source type")
}

// VertexFormat lowers the source type to the corresponding wgpu vertex
// format, used when converting an AttributeLayout to a
// gputypes.VertexBufferLayout for pipeline creation.
func (t SrcType) VertexFormat() gputypes.VertexFormat {
	switch t {
	case SrcTypeFloat:
		return gputypes.VertexFormatFloat32
	case SrcTypeFloat2:
		return gputypes.VertexFormatFloat32x2
	case SrcTypeFloat3:
		return gputypes.VertexFormatFloat32x3
	case SrcTypeFloat4:
		return gputypes.VertexFormatFloat32x4
	case SrcTypeHalf2:
		return gputypes.VertexFormatFloat16x2
	case SrcTypeHalf4:
		return gputypes.VertexFormatFloat16x4
	case SrcTypeInt2:
		return gputypes.VertexFormatSint32x2
	case SrcTypeInt3:
		return gputypes.VertexFormatSint32x3
	case SrcTypeInt4:
		return gputypes.VertexFormatSint32x4
	case SrcTypeByte2:
		return gputypes.VertexFormatSint8x2
	case SrcTypeByte4:
		return gputypes.VertexFormatSint8x4
	case SrcTypeUByte2:
		return gputypes.VertexFormatUint8x2
	case SrcTypeUByte4:
		return gputypes.VertexFormatUint8x4
	case SrcTypeUByte4Norm:
		return gputypes.VertexFormatUnorm8x4
	case SrcTypeShort2:
		return gputypes.VertexFormatSint16x2
	case SrcTypeShort4:
		return gputypes.VertexFormatSint16x4
	case SrcTypeUShort2:
		return gputypes.VertexFormatUint16x2
	case SrcTypeUShort2Norm:
		return gputypes.VertexFormatUnorm16x2
	case SrcTypeUShort4Norm:
		return gputypes.VertexFormatUnorm16x4
	case SrcTypeInt:
		return gputypes.VertexFormatSint32
	case SrcTypeUInt:
		return gputypes.VertexFormatUint32
	}
	panic("drawcore: unknown source type")
}

// String returns the name of the source type for diagnostics.
func (t SrcType) String() string {
	names := [...]string{
		"float", "float2", "float3", "float4",
		"half2", "half4",
		"int2", "int3", "int4",
		"byte2", "byte4", "ubyte2", "ubyte4", "ubyte4_norm",
		"short2", "short4", "ushort2", "ushort2_norm", "ushort4_norm",
		"int", "uint",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// SLType describes the in-shader representation of a value: the type an
// attribute, varying, or uniform has in generated shader code.
//
// As with SrcType, the numeric value is the 8-bit wire code in the
// structural key and the mapping is append-only.
type SLType uint8

const (
	SLTypeVoid SLType = iota
	SLTypeFloat
	SLTypeFloat2
	SLTypeFloat3
	SLTypeFloat4
	SLTypeInt
	SLTypeInt2
	SLTypeInt3
	SLTypeInt4
	SLTypeMat2
	SLTypeMat3
	SLTypeMat4

	slTypeLast = SLTypeMat4
)

// LocationCount returns the number of shader input locations the type
// consumes. Matrix types occupy one location per column; void occupies none.
func (t SLType) LocationCount() int {
	switch t {
	case SLTypeVoid:
		return 0
	case SLTypeMat2:
		return 2
	case SLTypeMat3:
		return 3
	case SLTypeMat4:
		return 4
	case SLTypeFloat, SLTypeFloat2, SLTypeFloat3, SLTypeFloat4,
		SLTypeInt, SLTypeInt2, SLTypeInt3, SLTypeInt4:
		return 1
	}
	panic("drawcore: unknown shader type")
}

// WGSL returns the WGSL spelling of the type. Void has no spelling and
// returns the empty string.
func (t SLType) WGSL() string {
	switch t {
	case SLTypeVoid:
		return ""
	case SLTypeFloat:
		return "f32"
	case SLTypeFloat2:
		return "vec2<f32>"
	case SLTypeFloat3:
		return "vec3<f32>"
	case SLTypeFloat4:
		return "vec4<f32>"
	case SLTypeInt:
		return "i32"
	case SLTypeInt2:
		return "vec2<i32>"
	case SLTypeInt3:
		return "vec3<i32>"
	case SLTypeInt4:
		return "vec4<i32>"
	case SLTypeMat2:
		return "mat2x2<f32>"
	case SLTypeMat3:
		return "mat3x3<f32>"
	case SLTypeMat4:
		return "mat4x4<f32>"
	}
	panic("drawcore: unknown shader type")
}

// String returns the name of the shader type for diagnostics.
func (t SLType) String() string {
	names := [...]string{
		"void",
		"float", "float2", "float3", "float4",
		"int", "int2", "int3", "int4",
		"mat2", "mat3", "mat4",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}
