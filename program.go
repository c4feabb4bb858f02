package drawcore

// ShaderVar names a typed variable in generated shader code. The zero value
// is the void variable, used for outputs a binding chooses not to produce.
type ShaderVar struct {
	Name string
	Type SLType
}

// IsVoid reports whether the variable is absent.
func (v ShaderVar) IsVoid() bool { return v.Type == SLTypeVoid }

// UniformHandle identifies a uniform slot handed out by a UniformHandler.
// A handle may be InvalidUniformHandle when the uniform was optimized away
// upstream; writes through an invalid handle are no-ops.
type UniformHandle int32

// InvalidUniformHandle marks a uniform that was optimized away.
const InvalidUniformHandle UniformHandle = -1

// Valid reports whether the handle refers to a live uniform slot.
func (h UniformHandle) Valid() bool { return h != InvalidUniformHandle }

// SamplerHandle identifies a texture sampler slot handed out by a
// UniformHandler.
type SamplerHandle int32

// InvalidSamplerHandle marks a sampler that was optimized away.
const InvalidSamplerHandle SamplerHandle = -1

// Valid reports whether the handle refers to a live sampler slot.
func (h SamplerHandle) Valid() bool { return h != InvalidSamplerHandle }

// UniformDataManager is the uniform data sink a ProgramBinding pushes fresh
// values through on every draw. Implementations must treat writes through
// an invalid handle as no-ops.
type UniformDataManager interface {
	Set4f(u UniformHandle, x, y, z, w float32)
	SetMatrix3f(u UniformHandle, m Mat3)
}

// VertexBuilder receives vertex-stage code during emission.
type VertexBuilder interface {
	CodeAppend(code string)
	CodeAppendf(format string, args ...any)

	// DeclareInput declares a shader input at the given location and
	// returns the variable by which the vertex code refers to it.
	DeclareInput(v ShaderVar, location int) ShaderVar

	// EmitNormalizedPosition writes the code mapping the world position to
	// the normalized device coordinates the hardware expects. Called
	// exactly once per program, by EmitProgram.
	EmitNormalizedPosition(worldPos ShaderVar)
}

// FragmentBuilder receives fragment-stage code during emission.
type FragmentBuilder interface {
	CodeAppend(code string)
	CodeAppendf(format string, args ...any)
}

// Varying is one inter-stage variable: written through VSOut in the vertex
// stage, read through FSIn in the fragment stage.
type Varying struct {
	VSOut ShaderVar
	FSIn  ShaderVar
}

// VaryingHandler collects inter-stage declarations during emission.
type VaryingHandler interface {
	AddVarying(name string, t SLType) Varying

	// SetNoPerspective marks all varyings for non-perspective-correct
	// interpolation. An optimization hint, not a correctness requirement;
	// set by EmitProgram when the final world position is 2-component.
	SetNoPerspective()
}

// UniformHandler collects uniform and sampler declarations during emission.
type UniformHandler interface {
	// AddUniform declares a uniform and returns its data handle along with
	// the variable by which shader code refers to it.
	AddUniform(name string, t SLType) (UniformHandle, ShaderVar)

	// AddSampler declares a texture+sampler binding pair and returns its
	// handle along with the texture variable.
	AddSampler(name string) (SamplerHandle, ShaderVar)
}

// EmitArgs bundles the code-generation surfaces and per-program inputs
// passed through EmitProgram to a binding's Emit.
type EmitArgs struct {
	VertBuilder VertexBuilder
	FragBuilder FragmentBuilder
	Varyings    VaryingHandler
	Uniforms    UniformHandler

	Caps ShaderCaps

	// Desc is a descriptor instance that produced this binding's key. Emit
	// may read its attribute iterators and immutable fields but must not
	// assume it is the same instance later passed to SetData.
	Desc GeometryDescriptor

	// OutputColor and OutputCoverage name the fragment-stage variables the
	// emitted code must assign.
	OutputColor    string
	OutputCoverage string
}

// ProgramBinding is the reusable, cached program object for one structural
// key. It emits shader code exactly once, then re-supplies uniform data on
// every subsequent draw that shares its key.
//
// A binding is mutable (it tracks last-applied uniform state for diffing)
// and is owned by a single cache entry; at most one draw-encoding goroutine
// may touch SetData at a time.
type ProgramBinding interface {
	// Emit writes the kind-specific shader code and returns the designated
	// stage outputs: the local position variable (float2 or float3, or void
	// when no downstream stage needs local coordinates) and the world
	// position variable (float2 when no perspective is introduced, float3
	// when it is). Called exactly once, through EmitProgram.
	Emit(args *EmitArgs) (localPos, worldPos ShaderVar, err error)

	// SetData pushes exactly the uniform values the emitted code
	// references. Called once per draw with any descriptor instance that
	// produced this binding's key; identical keys guarantee identical
	// generated code, so the instance's fields can be read as this
	// binding expects. Omitting a referenced uniform is a correctness bug.
	SetData(m UniformDataManager, desc GeometryDescriptor)
}

// EmitProgram runs a binding's one-time code emission and finishes the
// vertex stage: the world position is normalized into hardware device
// coordinates, and when it is 2-component the varyings are marked for
// no-perspective interpolation.
//
// A world position that is neither float2 nor float3 is a programming error
// and panics.
func EmitProgram(pb ProgramBinding, args *EmitArgs) error {
	localPos, worldPos, err := pb.Emit(args)
	if err != nil {
		return err
	}
	switch worldPos.Type {
	case SLTypeFloat2, SLTypeFloat3:
	default:
		panic("drawcore: world position must be float2 or float3, got " + worldPos.Type.String())
	}
	// The local position may be void when no downstream stage consumes
	// local coordinates.
	_ = localPos
	args.VertBuilder.EmitNormalizedPosition(worldPos)
	if worldPos.Type == SLTypeFloat2 {
		args.Varyings.SetNoPerspective()
	}
	return nil
}

// WriteWorldPosition emits the code transforming a local position by a
// 3x3 matrix uniform and returns the resulting world position variable.
// A float3 input stays float3; a float2 input is promoted to float3 since
// the matrix may introduce perspective. Bindings that know their transform
// adds no perspective can bypass this helper and yield a float2 world
// position directly.
func WriteWorldPosition(vb VertexBuilder, inPos ShaderVar, matrixName string) ShaderVar {
	switch inPos.Type {
	case SLTypeFloat3:
		vb.CodeAppendf("let _worldPos = %s * %s;\n", matrixName, inPos.Name)
	case SLTypeFloat2:
		vb.CodeAppendf("let _worldPos = %s * vec3<f32>(%s, 1.0);\n", matrixName, inPos.Name)
	default:
		panic("drawcore: local position must be float2 or float3, got " + inPos.Type.String())
	}
	return ShaderVar{Name: "_worldPos", Type: SLTypeFloat3}
}

// SetTransform updates a matrix uniform, diffing against the previously
// applied value. The upload is skipped when the handle is invalid or when
// state already equals matrix. A pure scale+translate matrix is uploaded as
// a 4-component vector (scaleX, transX, scaleY, transY), which the emitted
// code for such matrices expects; the shortcut renders identically to the
// full 3x3 path.
//
// Returns the new last-applied value for the caller to retain.
func SetTransform(m UniformDataManager, u UniformHandle, matrix Mat3, state *Mat3) *Mat3 {
	if !u.Valid() || (state != nil && state.Equals(matrix)) {
		return state
	}
	if matrix.IsScaleTranslate() {
		m.Set4f(u, matrix.ScaleX(), matrix.TranslateX(), matrix.ScaleY(), matrix.TranslateY())
	} else {
		m.SetMatrix3f(u, matrix)
	}
	applied := matrix
	return &applied
}
