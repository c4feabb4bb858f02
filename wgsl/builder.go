// Package wgsl provides the concrete code-generation surfaces consumed by
// drawcore program bindings: per-stage WGSL builders, a varying collector,
// and a uniform block, assembled into a single shader module source with
// vs_main and fs_main entry points.
package wgsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/drawcore"
)

// Reserved names synthesized by the builders. Attribute and uniform names
// supplied by bindings must not use the "_" prefix.
const (
	ndcUniformName  = "ndc"
	uniformBlockVar = "_uniforms"
	vsInputVar      = "in"
	vsOutputVar     = "out"
	fsInputVar      = "in"
)

// Program owns the four code-generation surfaces for one shader program.
// The zero value is not usable; create programs with NewProgram.
type Program struct {
	Vert     *VertexBuilder
	Frag     *FragmentBuilder
	Varyings *VaryingList
	Uniforms *UniformBlock

	// ndc is the built-in uniform mapping world coordinates to normalized
	// device coordinates: (scaleX, scaleY, transX, transY).
	ndc drawcore.UniformHandle
}

// NewProgram creates an empty program. The device-coordinate mapping
// uniform is reserved up front so it is always present at a fixed handle.
func NewProgram() *Program {
	p := &Program{
		Varyings: &VaryingList{},
		Uniforms: &UniformBlock{},
	}
	p.ndc = p.Uniforms.addReserved(ndcUniformName, drawcore.SLTypeFloat4)
	p.Vert = &VertexBuilder{prog: p}
	p.Frag = &FragmentBuilder{}
	return p
}

// NDCHandle returns the handle of the built-in device-coordinate uniform.
// The renderer sets it per target: (2/width, -2/height, -1, 1) for a
// top-left-origin viewport.
func (p *Program) NDCHandle() drawcore.UniformHandle { return p.ndc }

// EmitArgs assembles the standard emission arguments for this program.
func (p *Program) EmitArgs(desc drawcore.GeometryDescriptor, caps drawcore.ShaderCaps) *drawcore.EmitArgs {
	return &drawcore.EmitArgs{
		VertBuilder:    p.Vert,
		FragBuilder:    p.Frag,
		Varyings:       p.Varyings,
		Uniforms:       p.Uniforms,
		Caps:           caps,
		Desc:           desc,
		OutputColor:    "_outputColor",
		OutputCoverage: "_outputCoverage",
	}
}

// Source assembles the final WGSL module: the uniform declarations, the
// input and inter-stage structs, and both entry points.
func (p *Program) Source() string {
	var sb strings.Builder
	p.Uniforms.writeDecls(&sb)
	p.Vert.writeInputStruct(&sb)
	p.Varyings.writeStruct(&sb)
	p.Vert.writeEntryPoint(&sb)
	p.Frag.writeEntryPoint(&sb)
	return sb.String()
}

// VertexBuilder accumulates vertex-stage inputs and code.
type VertexBuilder struct {
	prog            *Program
	inputs          []input
	code            strings.Builder
	emittedPosition bool
}

type input struct {
	v        drawcore.ShaderVar
	location int
}

// CodeAppend appends raw code to the vertex entry point body.
func (b *VertexBuilder) CodeAppend(code string) {
	b.code.WriteString(code)
}

// CodeAppendf appends formatted code to the vertex entry point body.
func (b *VertexBuilder) CodeAppendf(format string, args ...any) {
	fmt.Fprintf(&b.code, format, args...)
}

// DeclareInput declares a vertex-stage input at the given location and
// returns the variable vertex code refers to it by.
func (b *VertexBuilder) DeclareInput(v drawcore.ShaderVar, location int) drawcore.ShaderVar {
	checkName(v.Name)
	b.inputs = append(b.inputs, input{v: v, location: location})
	return drawcore.ShaderVar{Name: vsInputVar + "." + v.Name, Type: v.Type}
}

// EmitNormalizedPosition writes the code mapping the world position into
// normalized device coordinates through the built-in ndc uniform. Called
// exactly once per program; a second call is a programming error.
func (b *VertexBuilder) EmitNormalizedPosition(worldPos drawcore.ShaderVar) {
	if b.emittedPosition {
		panic("wgsl: normalized position already emitted")
	}
	b.emittedPosition = true
	ndc := uniformBlockVar + "." + ndcUniformName
	switch worldPos.Type {
	case drawcore.SLTypeFloat2:
		b.CodeAppendf("%s.position = vec4<f32>(%s * %s.xy + %s.zw, 0.0, 1.0);\n",
			vsOutputVar, worldPos.Name, ndc, ndc)
	case drawcore.SLTypeFloat3:
		// Perspective path: scale x/y in clip space and carry z through as w.
		b.CodeAppendf("%s.position = vec4<f32>(%s.xy * %s.xy + %s.z * %s.zw, 0.0, %s.z);\n",
			vsOutputVar, worldPos.Name, ndc, worldPos.Name, ndc, worldPos.Name)
	default:
		panic("wgsl: world position must be float2 or float3, got " + worldPos.Type.String())
	}
}

func (b *VertexBuilder) writeInputStruct(sb *strings.Builder) {
	sb.WriteString("struct VSIn {\n")
	for _, in := range b.inputs {
		fmt.Fprintf(sb, "    @location(%d) %s: %s,\n", in.location, in.v.Name, in.v.Type.WGSL())
	}
	sb.WriteString("}\n\n")
}

func (b *VertexBuilder) writeEntryPoint(sb *strings.Builder) {
	fmt.Fprintf(sb, "@vertex\nfn vs_main(%s: VSIn) -> VSOut {\n", vsInputVar)
	fmt.Fprintf(sb, "    var %s: VSOut;\n", vsOutputVar)
	writeIndented(sb, b.code.String())
	fmt.Fprintf(sb, "    return %s;\n}\n\n", vsOutputVar)
}

// FragmentBuilder accumulates fragment-stage code.
type FragmentBuilder struct {
	code strings.Builder
}

// CodeAppend appends raw code to the fragment entry point body.
func (b *FragmentBuilder) CodeAppend(code string) {
	b.code.WriteString(code)
}

// CodeAppendf appends formatted code to the fragment entry point body.
func (b *FragmentBuilder) CodeAppendf(format string, args ...any) {
	fmt.Fprintf(&b.code, format, args...)
}

func (b *FragmentBuilder) writeEntryPoint(sb *strings.Builder) {
	fmt.Fprintf(sb, "@fragment\nfn fs_main(%s: VSOut) -> @location(0) vec4<f32> {\n", fsInputVar)
	sb.WriteString("    var _outputColor: vec4<f32>;\n")
	sb.WriteString("    var _outputCoverage: vec4<f32>;\n")
	writeIndented(sb, b.code.String())
	sb.WriteString("    return _outputColor * _outputCoverage;\n}\n")
}

// VaryingList collects the inter-stage variables.
type VaryingList struct {
	vars          []varying
	noPerspective bool
}

type varying struct {
	name string
	t    drawcore.SLType
}

// AddVarying declares an inter-stage variable and returns its vertex-stage
// output and fragment-stage input forms.
func (l *VaryingList) AddVarying(name string, t drawcore.SLType) drawcore.Varying {
	checkName(name)
	l.vars = append(l.vars, varying{name: name, t: t})
	return drawcore.Varying{
		VSOut: drawcore.ShaderVar{Name: vsOutputVar + "." + name, Type: t},
		FSIn:  drawcore.ShaderVar{Name: fsInputVar + "." + name, Type: t},
	}
}

// SetNoPerspective marks all varyings for linear (non-perspective-correct)
// interpolation.
func (l *VaryingList) SetNoPerspective() {
	l.noPerspective = true
}

// NoPerspective reports whether the no-perspective hint was set.
func (l *VaryingList) NoPerspective() bool { return l.noPerspective }

func (l *VaryingList) writeStruct(sb *strings.Builder) {
	sb.WriteString("struct VSOut {\n")
	sb.WriteString("    @builtin(position) position: vec4<f32>,\n")
	interp := ""
	if l.noPerspective {
		interp = " @interpolate(linear)"
	}
	for i, v := range l.vars {
		fmt.Fprintf(sb, "    @location(%d)%s %s: %s,\n", i, interp, v.name, v.t.WGSL())
	}
	sb.WriteString("}\n\n")
}

// UniformBlock collects uniform and sampler declarations. Uniforms live in
// a single struct bound at group 0 binding 0; each sampler occupies the two
// bindings after it (texture, then sampler).
type UniformBlock struct {
	uniforms []uniform
	samplers []string
}

type uniform struct {
	name string
	t    drawcore.SLType
}

// AddUniform declares a uniform and returns its handle and shader variable.
func (u *UniformBlock) AddUniform(name string, t drawcore.SLType) (drawcore.UniformHandle, drawcore.ShaderVar) {
	checkName(name)
	return u.addReserved(name, t), drawcore.ShaderVar{Name: uniformBlockVar + "." + name, Type: t}
}

// addReserved declares a uniform without the reserved-prefix check, for the
// builders' own synthesized uniforms.
func (u *UniformBlock) addReserved(name string, t drawcore.SLType) drawcore.UniformHandle {
	h := drawcore.UniformHandle(len(u.uniforms))
	u.uniforms = append(u.uniforms, uniform{name: name, t: t})
	return h
}

// AddSampler declares a texture+sampler binding pair and returns the
// handle and the texture variable.
func (u *UniformBlock) AddSampler(name string) (drawcore.SamplerHandle, drawcore.ShaderVar) {
	checkName(name)
	h := drawcore.SamplerHandle(len(u.samplers))
	u.samplers = append(u.samplers, name)
	return h, drawcore.ShaderVar{Name: name + "_tex", Type: drawcore.SLTypeVoid}
}

// UniformType returns the declared type of a uniform handle. Used by data
// managers to size uploads.
func (u *UniformBlock) UniformType(h drawcore.UniformHandle) drawcore.SLType {
	if !h.Valid() || int(h) >= len(u.uniforms) {
		return drawcore.SLTypeVoid
	}
	return u.uniforms[int(h)].t
}

func (u *UniformBlock) writeDecls(sb *strings.Builder) {
	if len(u.uniforms) > 0 {
		sb.WriteString("struct Uniforms {\n")
		for _, un := range u.uniforms {
			fmt.Fprintf(sb, "    %s: %s,\n", un.name, un.t.WGSL())
		}
		sb.WriteString("}\n\n")
		fmt.Fprintf(sb, "@group(0) @binding(0) var<uniform> %s: Uniforms;\n\n", uniformBlockVar)
	}
	for i, name := range u.samplers {
		fmt.Fprintf(sb, "@group(0) @binding(%d) var %s_tex: texture_2d<f32>;\n", 1+i*2, name)
		fmt.Fprintf(sb, "@group(0) @binding(%d) var %s_smp: sampler;\n\n", 2+i*2, name)
	}
}

// checkName rejects the reserved "_" prefix on binding-supplied names so
// they cannot collide with synthesized variables.
func checkName(name string) {
	if name == "" {
		panic("wgsl: name must not be empty")
	}
	if strings.HasPrefix(name, "_") {
		panic(fmt.Sprintf("wgsl: name %q uses the reserved \"_\" prefix", name))
	}
}

// writeIndented writes code into a function body with four-space indent.
func writeIndented(sb *strings.Builder, code string) {
	for line := range strings.Lines(code) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sb.WriteString("    ")
		sb.WriteString(line)
	}
	if code != "" && !strings.HasSuffix(code, "\n") {
		sb.WriteString("\n")
	}
}
