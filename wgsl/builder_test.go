package wgsl

import (
	"strings"
	"testing"

	"github.com/gogpu/drawcore"
)

// =============================================================================
// Test Helpers
// =============================================================================

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

// =============================================================================
// Program Tests
// =============================================================================

func TestNewProgram_ReservesNDCUniform(t *testing.T) {
	p := NewProgram()

	if !p.NDCHandle().Valid() {
		t.Fatal("expected a valid ndc handle")
	}
	if got := p.Uniforms.UniformType(p.NDCHandle()); got != drawcore.SLTypeFloat4 {
		t.Errorf("expected float4 ndc uniform, got %s", got)
	}

	// Binding-supplied uniforms follow the reserved one.
	h, v := p.Uniforms.AddUniform("viewMatrix", drawcore.SLTypeMat3)
	if h == p.NDCHandle() {
		t.Error("expected a distinct handle for a binding uniform")
	}
	if v.Name != "_uniforms.viewMatrix" {
		t.Errorf("expected uniform access through the block, got %q", v.Name)
	}
}

func TestProgram_Source(t *testing.T) {
	p := NewProgram()

	in := p.Vert.DeclareInput(drawcore.ShaderVar{Name: "position", Type: drawcore.SLTypeFloat2}, 0)
	colorIn := p.Vert.DeclareInput(drawcore.ShaderVar{Name: "color", Type: drawcore.SLTypeFloat4}, 1)
	colorVar := p.Varyings.AddVarying("tint", drawcore.SLTypeFloat4)
	p.Vert.CodeAppendf("%s = %s;\n", colorVar.VSOut.Name, colorIn.Name)
	p.Vert.EmitNormalizedPosition(drawcore.ShaderVar{Name: in.Name, Type: drawcore.SLTypeFloat2})
	p.Frag.CodeAppendf("_outputColor = %s;\n", colorVar.FSIn.Name)
	p.Frag.CodeAppend("_outputCoverage = vec4<f32>(1.0);\n")

	src := p.Source()
	for _, want := range []string{
		"struct Uniforms {",
		"ndc: vec4<f32>,",
		"@group(0) @binding(0) var<uniform> _uniforms: Uniforms;",
		"struct VSIn {",
		"@location(0) position: vec2<f32>,",
		"@location(1) color: vec4<f32>,",
		"struct VSOut {",
		"@builtin(position) position: vec4<f32>,",
		"@location(0) tint: vec4<f32>,",
		"@vertex\nfn vs_main(in: VSIn) -> VSOut {",
		"out.tint = in.color;",
		"out.position = vec4<f32>(in.position * _uniforms.ndc.xy + _uniforms.ndc.zw, 0.0, 1.0);",
		"@fragment\nfn fs_main(in: VSOut) -> @location(0) vec4<f32> {",
		"_outputColor = in.tint;",
		"return _outputColor * _outputCoverage;",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("expected %q in source:\n%s", want, src)
		}
	}
}

func TestProgram_PerspectivePosition(t *testing.T) {
	p := NewProgram()
	p.Vert.DeclareInput(drawcore.ShaderVar{Name: "position", Type: drawcore.SLTypeFloat3}, 0)
	p.Vert.EmitNormalizedPosition(drawcore.ShaderVar{Name: "wp", Type: drawcore.SLTypeFloat3})

	src := p.Source()
	want := "out.position = vec4<f32>(wp.xy * _uniforms.ndc.xy + wp.z * _uniforms.ndc.zw, 0.0, wp.z);"
	if !strings.Contains(src, want) {
		t.Errorf("expected perspective position mapping in source:\n%s", src)
	}
}

func TestVertexBuilder_DoublePositionPanics(t *testing.T) {
	p := NewProgram()
	wp := drawcore.ShaderVar{Name: "wp", Type: drawcore.SLTypeFloat2}
	p.Vert.EmitNormalizedPosition(wp)

	expectPanic(t, "second normalized position", func() {
		p.Vert.EmitNormalizedPosition(wp)
	})
}

func TestVaryingList_NoPerspectiveInterpolation(t *testing.T) {
	p := NewProgram()
	p.Varyings.AddVarying("tint", drawcore.SLTypeFloat4)
	p.Varyings.SetNoPerspective()

	if !p.Varyings.NoPerspective() {
		t.Fatal("expected no-perspective flag")
	}
	src := p.Source()
	if !strings.Contains(src, "@location(0) @interpolate(linear) tint: vec4<f32>,") {
		t.Errorf("expected linear interpolation qualifier in source:\n%s", src)
	}
}

func TestUniformBlock_Samplers(t *testing.T) {
	p := NewProgram()
	h, v := p.Uniforms.AddSampler("fill")

	if !h.Valid() {
		t.Fatal("expected a valid sampler handle")
	}
	if v.Name != "fill_tex" {
		t.Errorf("expected texture variable fill_tex, got %q", v.Name)
	}

	src := p.Source()
	for _, want := range []string{
		"@group(0) @binding(1) var fill_tex: texture_2d<f32>;",
		"@group(0) @binding(2) var fill_smp: sampler;",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("expected %q in source:\n%s", want, src)
		}
	}
}

func TestReservedNamePanics(t *testing.T) {
	p := NewProgram()

	expectPanic(t, "reserved uniform name", func() {
		p.Uniforms.AddUniform("_hidden", drawcore.SLTypeFloat)
	})
	expectPanic(t, "reserved varying name", func() {
		p.Varyings.AddVarying("_v", drawcore.SLTypeFloat2)
	})
	expectPanic(t, "reserved input name", func() {
		p.Vert.DeclareInput(drawcore.ShaderVar{Name: "_in", Type: drawcore.SLTypeFloat2}, 0)
	})
	expectPanic(t, "empty sampler name", func() {
		p.Uniforms.AddSampler("")
	})
}
