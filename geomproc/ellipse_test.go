package geomproc

import (
	"strings"
	"testing"

	"github.com/gogpu/drawcore"
)

// =============================================================================
// Ellipse Tests
// =============================================================================

func TestEllipse_Layout(t *testing.T) {
	e := NewEllipse(drawcore.Mat3Identity(), false)

	if got := e.NumVertexAttributes(); got != 1 {
		t.Errorf("expected 1 vertex attribute, got %d", got)
	}
	// The corner layout declares its stride explicitly.
	if got := e.VertexStride(); got != 8 {
		t.Errorf("expected vertex stride 8, got %d", got)
	}
	if got := e.NumInstanceAttributes(); got != 2 {
		t.Errorf("expected 2 instance attributes for a fill, got %d", got)
	}
	// float4 centerRadii plus packed color.
	if got := e.InstanceStride(); got != 20 {
		t.Errorf("expected instance stride 20, got %d", got)
	}
}

func TestEllipse_StrokeLayout(t *testing.T) {
	e := NewEllipse(drawcore.Mat3Identity(), true)

	if got := e.NumInstanceAttributes(); got != 3 {
		t.Errorf("expected 3 instance attributes for a stroke, got %d", got)
	}
	if got := e.InstanceStride(); got != 28 {
		t.Errorf("expected instance stride 28, got %d", got)
	}
}

func TestEllipse_InstanceLocationsFollowVertex(t *testing.T) {
	e := NewEllipse(drawcore.Mat3Identity(), false)
	ibl := e.InstanceBufferLayout()

	if len(ibl.Attributes) != 2 {
		t.Fatalf("expected 2 instance attributes, got %d", len(ibl.Attributes))
	}
	if ibl.Attributes[0].ShaderLocation != 1 {
		t.Errorf("expected instance locations to start after the corner, got %d",
			ibl.Attributes[0].ShaderLocation)
	}
}

func TestEllipse_KeyVariants(t *testing.T) {
	identity := drawcore.Mat3Identity()

	fill := drawcore.DescriptorKey(NewEllipse(identity, false))
	fillAgain := drawcore.DescriptorKey(NewEllipse(drawcore.Mat3Rotate(1), false))
	stroke := drawcore.DescriptorKey(NewEllipse(identity, true))
	textured := drawcore.DescriptorKey(NewTexturedEllipse(identity, drawcore.DefaultSamplerState()))

	// Unlike quads, ellipses carry the matrix the same way regardless of
	// its class, so the matrix never splits the key.
	if !fill.Equal(fillAgain) {
		t.Error("expected the view matrix to not affect the key")
	}
	if fill.Equal(stroke) {
		t.Error("expected stroke to change the key")
	}
	if fill.Equal(textured) {
		t.Error("expected texturing to change the key")
	}
}

func TestEllipse_FillEmit(t *testing.T) {
	e := NewEllipse(drawcore.Mat3Identity(), false)
	_, src := emitSource(t, e, drawcore.ShaderCaps{})

	if !strings.Contains(src, "viewMatrix: mat3x3<f32>,") {
		t.Errorf("expected mat3 viewMatrix uniform:\n%s", src)
	}
	// Analytic coverage, no stroke inner edge.
	if !strings.Contains(src, "_outerD") {
		t.Errorf("expected outer edge distance in fragment code:\n%s", src)
	}
	if strings.Contains(src, "_innerD") {
		t.Errorf("expected no inner edge for a fill:\n%s", src)
	}
}

func TestEllipse_StrokeEmit(t *testing.T) {
	e := NewEllipse(drawcore.Mat3Identity(), true)
	_, src := emitSource(t, e, drawcore.ShaderCaps{})

	if !strings.Contains(src, "strokeWidths") {
		t.Errorf("expected stroke widths input:\n%s", src)
	}
	if !strings.Contains(src, "_innerD") {
		t.Errorf("expected inner edge coverage for a stroke:\n%s", src)
	}
}

func TestEllipse_SetData(t *testing.T) {
	e := NewEllipse(drawcore.Mat3Rotate(1), false)
	binding, _ := emitSource(t, e, drawcore.ShaderCaps{})

	m := &recordingManager{}
	binding.SetData(m, e)
	binding.SetData(m, e)
	if m.setMatrix != 1 {
		t.Errorf("expected one diffed matrix upload, got %d", m.setMatrix)
	}
}

// =============================================================================
// TexturedEllipse Tests
// =============================================================================

func TestTexturedEllipse_Samplers(t *testing.T) {
	state := drawcore.DefaultSamplerState()
	e := NewTexturedEllipse(drawcore.Mat3Identity(), state)

	if got := e.NumTextureSamplers(); got != 1 {
		t.Fatalf("expected 1 sampler, got %d", got)
	}
	if e.TextureSamplerState(0) != state {
		t.Error("expected the configured sampler state")
	}
	if e.TextureSamplerSwizzle(0) != drawcore.SwizzleRGBA {
		t.Error("expected the identity swizzle")
	}

	expectSamplerPanic := func(name string, fn func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}
	expectSamplerPanic("state out of range", func() { e.TextureSamplerState(1) })
	expectSamplerPanic("swizzle out of range", func() { e.TextureSamplerSwizzle(1) })
}

func TestTexturedEllipse_Emit(t *testing.T) {
	e := NewTexturedEllipse(drawcore.Mat3Identity(), drawcore.DefaultSamplerState())
	_, src := emitSource(t, e, drawcore.ShaderCaps{})

	for _, want := range []string{
		"var fill_tex: texture_2d<f32>;",
		"var fill_smp: sampler;",
		"textureSample(fill_tex, fill_smp, _texCoord)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("expected %q in source:\n%s", want, src)
		}
	}
}
