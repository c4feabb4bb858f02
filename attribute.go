package drawcore

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// ImplicitOffset marks an attribute whose byte offset is derived from the
// types and ordering of the attributes around it rather than authored
// explicitly.
const ImplicitOffset = -1

// MaxLayoutAttributes is the maximum number of attributes one layout may
// declare, bounded by the width of the per-descriptor attribute mask.
const MaxLayoutAttributes = 32

// maxStride is the largest representable resolved stride. Offsets and
// strides are encoded as 16-bit fields in the structural key, with 0xFFFF
// reserved for unused slots.
const maxStride = 0xFFFF

// align4 rounds n up to the next multiple of 4. Attribute offsets and
// strides must be 4-byte aligned for all types.
func align4(n int) int {
	return (n + 3) &^ 3
}

// Attribute describes one named per-vertex or per-instance input channel:
// its on-buffer representation, its in-shader representation, and optionally
// an explicit byte offset.
//
// Attribute values are immutable. Construction panics on invariant
// violations; a malformed attribute would silently corrupt structural keys,
// so these are treated as programming errors rather than recoverable ones.
type Attribute struct {
	name    string
	srcType SrcType
	dstType SLType
	offset  int
}

// NewAttribute makes an attribute whose offset will be implicitly determined
// by the types and ordering of the attributes in its layout.
//
// The name must be non-empty and must not begin with "_"; that prefix is
// reserved for variables synthesized during code generation.
func NewAttribute(name string, srcType SrcType, dstType SLType) Attribute {
	validateAttribute(name, srcType, dstType)
	return Attribute{name: name, srcType: srcType, dstType: dstType, offset: ImplicitOffset}
}

// NewAttributeAt makes an attribute with an explicit byte offset. The offset
// must be 4-byte aligned.
func NewAttributeAt(name string, srcType SrcType, dstType SLType, offset int) Attribute {
	validateAttribute(name, srcType, dstType)
	if offset < 0 || align4(offset) != offset {
		panic(fmt.Sprintf("drawcore: attribute %q offset %d is not 4-byte aligned", name, offset))
	}
	return Attribute{name: name, srcType: srcType, dstType: dstType, offset: offset}
}

func validateAttribute(name string, srcType SrcType, dstType SLType) {
	if name == "" {
		panic("drawcore: attribute name must not be empty")
	}
	if strings.HasPrefix(name, "_") {
		panic(fmt.Sprintf("drawcore: attribute name %q uses the reserved \"_\" prefix", name))
	}
	if srcType > srcTypeLast {
		panic(fmt.Sprintf("drawcore: attribute %q has unknown source type %d", name, srcType))
	}
	if dstType == SLTypeVoid || dstType > slTypeLast {
		panic(fmt.Sprintf("drawcore: attribute %q has invalid shader type %q", name, dstType))
	}
	if dstType.LocationCount() <= 0 {
		panic(fmt.Sprintf("drawcore: attribute %q consumes no shader locations", name))
	}
}

// Name returns the attribute name.
func (a Attribute) Name() string { return a.name }

// SrcType returns the on-buffer element type.
func (a Attribute) SrcType() SrcType { return a.srcType }

// DstType returns the in-shader type.
func (a Attribute) DstType() SLType { return a.dstType }

// Offset returns the explicit byte offset, or ImplicitOffset when offsets
// (and total stride) are derived from attribute order and types. Attributes
// yielded by AttrIter always carry a resolved offset.
func (a Attribute) Offset() int { return a.offset }

// Size returns the byte size of the source data for one shader location.
func (a Attribute) Size() int { return a.srcType.Size() }

// LocationCount returns the number of shader input locations consumed.
func (a Attribute) LocationCount() int { return a.dstType.LocationCount() }

// Stride returns the total byte footprint of this attribute: its size times
// the number of locations it spans.
func (a Attribute) Stride() int { return a.Size() * a.LocationCount() }

// AsShaderVar returns the attribute as a shader input variable.
func (a Attribute) AsShaderVar() ShaderVar {
	return ShaderVar{Name: a.name, Type: a.dstType}
}

// AttributeLayout is an ordered, immutable schema of up to 32 attributes
// with either implicit (order-derived) or explicit (author-specified) byte
// offsets.
//
// A layout is constructed once and shared by reference across every
// descriptor that uses the same schema; per-descriptor attribute masks
// select which of its slots are active. Layouts are safe for concurrent use.
type AttributeLayout struct {
	attrs []Attribute

	// stride is the declared stride for explicit layouts, or ImplicitOffset
	// when the stride is derived from the active attribute set.
	stride int
}

// MakeImplicitLayout creates a layout whose offsets and stride are derived
// from attribute order: each attribute lands at the running total of the
// prior active attributes' 4-byte-aligned strides. No attribute may carry an
// explicit offset.
func MakeImplicitLayout(attrs ...Attribute) *AttributeLayout {
	checkLayoutLen(len(attrs))
	stride := 0
	for _, attr := range attrs {
		if attr.offset != ImplicitOffset {
			panic(fmt.Sprintf("drawcore: attribute %q has an explicit offset in an implicit layout", attr.name))
		}
		stride += align4(attr.Stride())
	}
	if stride > maxStride {
		panic(fmt.Sprintf("drawcore: implicit layout stride %d exceeds %d", stride, maxStride))
	}
	return &AttributeLayout{attrs: cloneAttrs(attrs), stride: ImplicitOffset}
}

// MakeExplicitLayout creates a layout with a fixed stride and explicit,
// 4-byte-aligned offsets. No attribute may cross the stride boundary. The
// declared stride is used regardless of the attribute mask.
func MakeExplicitLayout(stride int, attrs ...Attribute) *AttributeLayout {
	checkLayoutLen(len(attrs))
	if stride <= 0 || stride > maxStride {
		panic(fmt.Sprintf("drawcore: explicit layout stride %d out of range (0, %d]", stride, maxStride))
	}
	if align4(stride) != stride {
		panic(fmt.Sprintf("drawcore: explicit layout stride %d is not 4-byte aligned", stride))
	}
	for _, attr := range attrs {
		if attr.offset == ImplicitOffset {
			panic(fmt.Sprintf("drawcore: attribute %q has no explicit offset in an explicit layout", attr.name))
		}
		if attr.offset+attr.Stride() > stride {
			panic(fmt.Sprintf("drawcore: attribute %q at offset %d crosses the %d-byte stride",
				attr.name, attr.offset, stride))
		}
	}
	return &AttributeLayout{attrs: cloneAttrs(attrs), stride: stride}
}

func checkLayoutLen(n int) {
	if n == 0 {
		panic("drawcore: layout must declare at least one attribute")
	}
	if n > MaxLayoutAttributes {
		panic(fmt.Sprintf("drawcore: layout declares %d attributes, max is %d", n, MaxLayoutAttributes))
	}
}

func cloneAttrs(attrs []Attribute) []Attribute {
	out := make([]Attribute, len(attrs))
	copy(out, attrs)
	return out
}

// Len returns the number of declared attribute slots. A nil layout has no
// slots.
func (l *AttributeLayout) Len() int {
	if l == nil {
		return 0
	}
	return len(l.attrs)
}

// At returns the declared attribute at slot i with its as-declared offset
// (possibly ImplicitOffset). Use Iter for resolved offsets.
func (l *AttributeLayout) At(i int) Attribute {
	return l.attrs[i]
}

// clampMask drops mask bits beyond the declared slot count.
func (l *AttributeLayout) clampMask(mask uint32) uint32 {
	if n := l.Len(); n < 32 {
		mask &= 1<<uint(n) - 1
	}
	return mask
}

// Stride returns the resolved byte stride for the given attribute mask.
//
// For implicit layouts the stride depends on the mask: it is the sum of the
// active attributes' 4-byte-aligned strides, in declaration order, with
// inactive attributes contributing nothing. For explicit layouts the
// declared stride is returned regardless of the mask. A mask of zero yields
// stride 0, which is a valid configuration. A nil layout has stride 0.
func (l *AttributeLayout) Stride(mask uint32) int {
	if l == nil {
		return 0
	}
	if l.stride != ImplicitOffset {
		return l.stride
	}
	mask = l.clampMask(mask)
	stride := 0
	for i, attr := range l.attrs {
		if mask&(1<<uint(i)) != 0 {
			stride += align4(attr.Stride())
		}
	}
	return stride
}

// LocationCount returns the total number of shader input locations the
// active attributes consume, used to validate input-slot budgets upstream.
func (l *AttributeLayout) LocationCount(mask uint32) int {
	if l == nil {
		return 0
	}
	mask = l.clampMask(mask)
	locations := 0
	for i, attr := range l.attrs {
		if mask&(1<<uint(i)) != 0 {
			locations += attr.LocationCount()
		}
	}
	return locations
}

// Iter returns a cursor over the active attributes in declaration order.
// Safe to call on a nil layout, which yields nothing.
func (l *AttributeLayout) Iter(mask uint32) *AttrIter {
	if l == nil {
		return &AttrIter{}
	}
	return &AttrIter{attrs: l.attrs, mask: l.clampMask(mask)}
}

// AttrIter is a forward-only cursor over the active attributes of a layout.
// Every yielded attribute carries a resolved, never-implicit offset: for
// implicit layouts the offset is the running total of the previously yielded
// attributes' aligned strides. This is the single offset-resolution
// algorithm; Stride and the structural key use offsets consistent with it.
type AttrIter struct {
	attrs []Attribute
	mask  uint32

	index          int
	implicitOffset int
}

// Next returns the next active attribute and true, or a zero Attribute and
// false when the iteration is exhausted.
func (it *AttrIter) Next() (Attribute, bool) {
	for it.index < len(it.attrs) {
		i := it.index
		it.index++
		if it.mask&(1<<uint(i)) == 0 {
			continue
		}
		attr := it.attrs[i]
		if attr.offset == ImplicitOffset {
			attr.offset = it.implicitOffset
		}
		it.implicitOffset += align4(attr.Stride())
		return attr, true
	}
	return Attribute{}, false
}

// BufferLayout lowers the active attributes to a wgpu vertex buffer layout.
// Shader locations are assigned in iteration order starting at baseLocation;
// a matrix-typed attribute expands to one wgpu attribute per column, each a
// column-sized slice of the source data.
func (l *AttributeLayout) BufferLayout(mask uint32, stepMode gputypes.VertexStepMode, baseLocation int) gputypes.VertexBufferLayout {
	var out []gputypes.VertexAttribute
	location := baseLocation
	for it := l.Iter(mask); ; {
		attr, ok := it.Next()
		if !ok {
			break
		}
		for col := 0; col < attr.LocationCount(); col++ {
			out = append(out, gputypes.VertexAttribute{
				Format:         attr.SrcType().VertexFormat(),
				Offset:         uint64(attr.Offset() + col*attr.Size()),
				ShaderLocation: uint32(location),
			})
			location++
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(l.Stride(mask)),
		StepMode:    stepMode,
		Attributes:  out,
	}
}

// Structural key field widths and sentinels. These are wire-format
// constants: any change invalidates previously cached programs and must be
// versioned.
const (
	keyAttrCountBits = 6
	keyTypeBits      = 8
	keyOffsetBits    = 16

	keyUnusedType   = 0xFF
	keyUnusedOffset = 0xFFFF
)

// addToKey appends the layout+mask contribution to the structural key:
// the declared slot count, then one fixed-width record per declared slot
// (type codes and resolved offset when active, the reserved sentinel triple
// when inactive), then the resolved stride for the active mask. Inactive
// slots still occupy fixed key width so two masks over the same layout can
// never collide through field misalignment.
//
// Safe to call on a nil layout, which contributes the record of an empty
// layout so every descriptor key keeps the same shape.
func (l *AttributeLayout) addToKey(b *KeyBuilder, mask uint32) {
	if l == nil {
		b.AddBits(keyAttrCountBits, 0, "attribute count")
		b.AddBits(keyOffsetBits, 0, "stride")
		return
	}
	mask = l.clampMask(mask)
	b.AddBits(keyAttrCountBits, uint32(len(l.attrs)), "attribute count")
	implicitOffset := 0
	for i, attr := range l.attrs {
		if mask&(1<<uint(i)) == 0 {
			b.AppendComment("unusedAttr")
			b.AddBits(keyTypeBits, keyUnusedType, "attrType")
			b.AddBits(keyTypeBits, keyUnusedType, "attrGpuType")
			b.AddBits(keyOffsetBits, keyUnusedOffset, "attrOffset")
			continue
		}
		b.AppendComment(attr.name)
		b.AddBits(keyTypeBits, uint32(attr.srcType), "attrType")
		b.AddBits(keyTypeBits, uint32(attr.dstType), "attrGpuType")
		offset := attr.offset
		if offset == ImplicitOffset {
			offset = implicitOffset
			implicitOffset += align4(attr.Stride())
		}
		if offset > maxStride {
			panic(fmt.Sprintf("drawcore: attribute %q offset %d exceeds %d", attr.name, offset, maxStride))
		}
		b.AddBits(keyOffsetBits, uint32(offset), "attrOffset")
	}
	stride := l.stride
	if stride == ImplicitOffset {
		stride = implicitOffset
	}
	if stride > maxStride {
		panic(fmt.Sprintf("drawcore: resolved stride %d exceeds %d", stride, maxStride))
	}
	if align4(stride) != stride {
		panic(fmt.Sprintf("drawcore: resolved stride %d is not 4-byte aligned", stride))
	}
	b.AddBits(keyOffsetBits, uint32(stride), "stride")
}
