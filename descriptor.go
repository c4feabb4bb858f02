package drawcore

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"
)

// GeometryDescriptor represents one kind of geometric primitive: the shape
// of its vertex and instance data and whatever immutable, kind-specific
// state its shading needs. Descriptors are immutable after construction and
// safe to read from any number of draw-encoding goroutines.
//
// Concrete kinds embed DescriptorCore, which carries the attribute state and
// implements everything except the three kind-specific methods:
// PrimitiveType, AddToKey, and MakeProgramBinding.
type GeometryDescriptor interface {
	// PrimitiveType returns the hardware topology this descriptor draws.
	PrimitiveType() gputypes.PrimitiveTopology

	// NumVertexAttributes returns the number of active per-vertex
	// attributes. A matrix-typed attribute counts as one.
	NumVertexAttributes() int

	// NumInstanceAttributes returns the number of active per-instance
	// attributes.
	NumInstanceAttributes() int

	// VertexStride returns the resolved per-vertex stride, or 0 when no
	// vertex layout was set.
	VertexStride() int

	// InstanceStride returns the resolved per-instance stride, or 0 when no
	// instance layout was set.
	InstanceStride() int

	// VertexAttributes iterates the active per-vertex attributes with
	// resolved offsets. Safe to call when no layout was set.
	VertexAttributes() *AttrIter

	// InstanceAttributes iterates the active per-instance attributes with
	// resolved offsets.
	InstanceAttributes() *AttrIter

	// NumTextureSamplers returns the number of texture bindings required.
	NumTextureSamplers() int

	// TextureSamplerState describes sampler i. Indexing a descriptor with
	// no samplers is a programming error and panics.
	TextureSamplerState(i int) SamplerState

	// TextureSamplerSwizzle returns the channel swizzle for sampler i.
	TextureSamplerSwizzle(i int) Swizzle

	// AttributeKey appends the vertex-layout and instance-layout key
	// contributions, in that order.
	AttributeKey(b *KeyBuilder)

	// AddToKey appends the kind-specific key bits: anything beyond the
	// attribute layouts that varies the generated code. The contribution
	// must be deterministic and side-effect-free.
	AddToKey(b *KeyBuilder)

	// MakeProgramBinding returns a new program binding for this descriptor
	// kind. The program cache calls it exactly once per distinct structural
	// key; it must not mutate the descriptor. Capability flags that affect
	// the generated code must also be folded into the key by the caller, or
	// cache collisions will occur.
	MakeProgramBinding(caps ShaderCaps) ProgramBinding
}

// DescriptorCore holds a descriptor's vertex and instance attribute state:
// at most one layout+mask pair for each, set once during construction of the
// concrete kind and never reassigned.
//
// The zero value is a descriptor with no attributes.
type DescriptorCore struct {
	vertexAttrs   *AttributeLayout
	instanceAttrs *AttributeLayout
	vertexMask    uint32
	instanceMask  uint32
}

// SetVertexAttributes installs the shared per-vertex layout and the mask
// selecting which of its slots this descriptor activates. The mask is
// clamped to the layout's slot count; it may be zero.
//
// Callable at most once, during construction of the concrete kind. Calling
// it twice or with a nil layout is a programming error and panics.
func (d *DescriptorCore) SetVertexAttributes(layout *AttributeLayout, mask uint32) {
	if d.vertexAttrs != nil {
		panic("drawcore: vertex attributes already set")
	}
	if layout == nil {
		panic("drawcore: vertex attribute layout is nil")
	}
	d.vertexAttrs = layout
	d.vertexMask = layout.clampMask(mask)
}

// SetInstanceAttributes installs the shared per-instance layout and mask.
// Same contract as SetVertexAttributes.
func (d *DescriptorCore) SetInstanceAttributes(layout *AttributeLayout, mask uint32) {
	if d.instanceAttrs != nil {
		panic("drawcore: instance attributes already set")
	}
	if layout == nil {
		panic("drawcore: instance attribute layout is nil")
	}
	d.instanceAttrs = layout
	d.instanceMask = layout.clampMask(mask)
}

// NumVertexAttributes returns the number of active per-vertex attributes.
func (d *DescriptorCore) NumVertexAttributes() int {
	return bits.OnesCount32(d.vertexMask)
}

// NumInstanceAttributes returns the number of active per-instance attributes.
func (d *DescriptorCore) NumInstanceAttributes() int {
	return bits.OnesCount32(d.instanceMask)
}

// NumVertexLocations returns the number of shader input locations the
// active per-vertex attributes consume. A matrix-typed attribute counts
// once per column.
func (d *DescriptorCore) NumVertexLocations() int {
	return d.vertexAttrs.LocationCount(d.vertexMask)
}

// NumInstanceLocations returns the number of shader input locations the
// active per-instance attributes consume.
func (d *DescriptorCore) NumInstanceLocations() int {
	return d.instanceAttrs.LocationCount(d.instanceMask)
}

// HasVertexAttributes reports whether any per-vertex attribute is active.
func (d *DescriptorCore) HasVertexAttributes() bool { return d.vertexMask != 0 }

// HasInstanceAttributes reports whether any per-instance attribute is active.
func (d *DescriptorCore) HasInstanceAttributes() bool { return d.instanceMask != 0 }

// VertexStride returns the resolved per-vertex byte stride, or 0 when no
// layout was set. When vertex memory is populated as an implicit array of
// structs, this should equal the struct size.
func (d *DescriptorCore) VertexStride() int {
	return d.vertexAttrs.Stride(d.vertexMask)
}

// InstanceStride returns the resolved per-instance byte stride, or 0 when
// no layout was set.
func (d *DescriptorCore) InstanceStride() int {
	return d.instanceAttrs.Stride(d.instanceMask)
}

// VertexAttributes iterates the active per-vertex attributes in declaration
// order, each with a resolved offset.
func (d *DescriptorCore) VertexAttributes() *AttrIter {
	return d.vertexAttrs.Iter(d.vertexMask)
}

// InstanceAttributes iterates the active per-instance attributes.
func (d *DescriptorCore) InstanceAttributes() *AttrIter {
	return d.instanceAttrs.Iter(d.instanceMask)
}

// VertexBufferLayout lowers the active per-vertex attributes to wgpu vertex
// buffer state with locations starting at 0.
func (d *DescriptorCore) VertexBufferLayout() gputypes.VertexBufferLayout {
	return d.vertexAttrs.BufferLayout(d.vertexMask, gputypes.VertexStepModeVertex, 0)
}

// InstanceBufferLayout lowers the active per-instance attributes to wgpu
// vertex buffer state, with locations following the vertex locations.
func (d *DescriptorCore) InstanceBufferLayout() gputypes.VertexBufferLayout {
	return d.instanceAttrs.BufferLayout(d.instanceMask, gputypes.VertexStepModeInstance, d.NumVertexLocations())
}

// AttributeKey appends the vertex-layout contribution then the
// instance-layout contribution to the structural key. Layouts that were
// never set contribute the fixed record of an empty layout so every
// descriptor key keeps the same shape.
func (d *DescriptorCore) AttributeKey(b *KeyBuilder) {
	b.AppendComment("vertex attributes")
	d.vertexAttrs.addToKey(b, d.vertexMask)
	b.AppendComment("instance attributes")
	d.instanceAttrs.addToKey(b, d.instanceMask)
}

// NumTextureSamplers returns 0; kinds that sample textures override it.
func (d *DescriptorCore) NumTextureSamplers() int { return 0 }

// TextureSamplerState panics: the default descriptor has no samplers.
func (d *DescriptorCore) TextureSamplerState(i int) SamplerState {
	panic(fmt.Sprintf("drawcore: sampler index %d on a descriptor with no samplers", i))
}

// TextureSamplerSwizzle panics: the default descriptor has no samplers.
func (d *DescriptorCore) TextureSamplerSwizzle(i int) Swizzle {
	panic(fmt.Sprintf("drawcore: sampler index %d on a descriptor with no samplers", i))
}

// DescriptorKey builds the full structural key of a descriptor: the
// attribute contributions followed by the kind-specific bits. Backend
// capability flags that vary the generated code are the caller's
// responsibility to fold in before finishing the key.
func DescriptorKey(desc GeometryDescriptor) Key {
	b := NewKeyBuilder()
	desc.AttributeKey(b)
	desc.AddToKey(b)
	return b.Finish()
}

// MakeColorAttribute returns a correctly configured color attribute for
// kinds that carry per-vertex or per-instance colors: 8-bit normalized RGBA
// by default, full float RGBA when wideColor is set. Either way the shader
// sees a float4.
func MakeColorAttribute(name string, wideColor bool) Attribute {
	src := SrcTypeUByte4Norm
	if wideColor {
		src = SrcTypeFloat4
	}
	return NewAttribute(name, src, SLTypeFloat4)
}

// ShaderCaps carries the backend capability flags that code generation may
// consult. Capability differences that change the generated code must also
// be folded into the structural key by whoever builds it.
type ShaderCaps struct {
	// NoPerspectiveInterpolation reports whether the backend supports the
	// no-perspective varying interpolation hint.
	NoPerspectiveInterpolation bool

	// ReducedShaderMode requests simpler generated code at some quality
	// cost, for constrained backends.
	ReducedShaderMode bool
}

// SamplerState describes the fixed sampling configuration a descriptor
// requires for one texture binding.
type SamplerState struct {
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
}

// DefaultSamplerState returns bilinear filtering with edge clamping.
func DefaultSamplerState() SamplerState {
	return SamplerState{
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
	}
}

// Swizzle packs a 4-channel texture swizzle, one nibble per output channel
// in R, G, B, A order from the low bits. Nibble values 0-3 select the input
// R, G, B, A channels.
type Swizzle uint16

// SwizzleRGBA is the identity swizzle.
const SwizzleRGBA Swizzle = 0x3210

// String spells the swizzle as four channel letters.
func (s Swizzle) String() string {
	const lanes = "rgba"
	var out [4]byte
	for i := 0; i < 4; i++ {
		sel := (s >> uint(i*4)) & 0xF
		if sel > 3 {
			return fmt.Sprintf("swizzle(%#04x)", uint16(s))
		}
		out[i] = lanes[sel]
	}
	return string(out[:])
}
