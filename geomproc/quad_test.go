package geomproc

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/drawcore"
	"github.com/gogpu/drawcore/wgsl"
)

// =============================================================================
// Test Helpers
// =============================================================================

// recordingManager records uniform uploads.
type recordingManager struct {
	set4f      int
	setMatrix  int
	lastHandle drawcore.UniformHandle
}

func (m *recordingManager) Set4f(u drawcore.UniformHandle, x, y, z, w float32) {
	m.set4f++
	m.lastHandle = u
}

func (m *recordingManager) SetMatrix3f(u drawcore.UniformHandle, mat drawcore.Mat3) {
	m.setMatrix++
	m.lastHandle = u
}

// emitSource runs a descriptor's binding through a fresh program and
// returns the binding and the WGSL it produced.
func emitSource(t *testing.T, desc drawcore.GeometryDescriptor, caps drawcore.ShaderCaps) (drawcore.ProgramBinding, string) {
	t.Helper()
	binding := desc.MakeProgramBinding(caps)
	prog := wgsl.NewProgram()
	if err := drawcore.EmitProgram(binding, prog.EmitArgs(desc, caps)); err != nil {
		t.Fatalf("unexpected emit error: %v", err)
	}
	return binding, prog.Source()
}

// =============================================================================
// SolidQuad Tests
// =============================================================================

func TestSolidQuad_Layout(t *testing.T) {
	q := NewSolidQuad(drawcore.Mat3Identity(), false)

	if q.PrimitiveType() != gputypes.PrimitiveTopologyTriangleStrip {
		t.Errorf("expected triangle strip, got %v", q.PrimitiveType())
	}
	if got := q.NumVertexAttributes(); got != 2 {
		t.Errorf("expected 2 vertex attributes, got %d", got)
	}
	// float2 position plus packed color.
	if got := q.VertexStride(); got != 12 {
		t.Errorf("expected vertex stride 12, got %d", got)
	}
	if q.NumInstanceAttributes() != 0 {
		t.Error("expected no instance attributes")
	}
	if q.NumTextureSamplers() != 0 {
		t.Error("expected no samplers")
	}
}

func TestSolidQuad_WideColorStride(t *testing.T) {
	q := NewSolidQuad(drawcore.Mat3Identity(), true)
	if got := q.VertexStride(); got != 24 {
		t.Errorf("expected vertex stride 24 with wide color, got %d", got)
	}
}

func TestSolidQuad_KeyVariants(t *testing.T) {
	identity := drawcore.Mat3Identity()
	rotated := drawcore.Mat3Rotate(1)

	base := drawcore.DescriptorKey(NewSolidQuad(identity, false))
	same := drawcore.DescriptorKey(NewSolidQuad(drawcore.Mat3Translate(5, 5), false))
	wideColor := drawcore.DescriptorKey(NewSolidQuad(identity, true))
	general := drawcore.DescriptorKey(NewSolidQuad(rotated, false))

	// Every scale+translate matrix shares one program.
	if !base.Equal(same) {
		t.Error("expected identical keys for different scale+translate matrices")
	}
	if base.Equal(wideColor) {
		t.Error("expected wide color to change the key")
	}
	if base.Equal(general) {
		t.Error("expected a rotating matrix to change the key")
	}
}

func TestSolidQuad_ScaleTranslateEmit(t *testing.T) {
	q := NewSolidQuad(drawcore.Mat3Scale(2, 2), false)
	_, src := emitSource(t, q, drawcore.ShaderCaps{})

	// The scale+translate path packs the matrix into a float4 uniform and
	// stays perspective-free.
	if !strings.Contains(src, "viewMatrix: vec4<f32>,") {
		t.Errorf("expected float4 viewMatrix uniform:\n%s", src)
	}
	if !strings.Contains(src, "@interpolate(linear)") {
		t.Errorf("expected no-perspective varyings:\n%s", src)
	}
	if !strings.Contains(src, "_outputCoverage = vec4<f32>(1.0);") {
		t.Errorf("expected full coverage:\n%s", src)
	}
}

func TestSolidQuad_GeneralMatrixEmit(t *testing.T) {
	q := NewSolidQuad(drawcore.Mat3Rotate(1), false)
	_, src := emitSource(t, q, drawcore.ShaderCaps{})

	if !strings.Contains(src, "viewMatrix: mat3x3<f32>,") {
		t.Errorf("expected mat3 viewMatrix uniform:\n%s", src)
	}
	if strings.Contains(src, "@interpolate(linear)") {
		t.Errorf("expected perspective-correct varyings:\n%s", src)
	}
}

func TestSolidQuad_SetData(t *testing.T) {
	q := NewSolidQuad(drawcore.Mat3Scale(2, 3), false)
	binding, _ := emitSource(t, q, drawcore.ShaderCaps{})

	m := &recordingManager{}
	binding.SetData(m, q)
	if m.set4f != 1 || m.setMatrix != 0 {
		t.Errorf("expected one packed upload, got set4f=%d setMatrix=%d", m.set4f, m.setMatrix)
	}

	// The same matrix again is diffed away.
	binding.SetData(m, q)
	if m.set4f != 1 {
		t.Errorf("expected redundant upload to be skipped, got %d", m.set4f)
	}

	// A different descriptor with the same key uploads its own matrix.
	q2 := NewSolidQuad(drawcore.Mat3Scale(4, 5), false)
	binding.SetData(m, q2)
	if m.set4f != 2 {
		t.Errorf("expected upload for changed matrix, got %d", m.set4f)
	}
}

func TestSolidQuad_SetDataGeneralMatrix(t *testing.T) {
	q := NewSolidQuad(drawcore.Mat3Rotate(1), false)
	binding, _ := emitSource(t, q, drawcore.ShaderCaps{})

	m := &recordingManager{}
	binding.SetData(m, q)
	if m.setMatrix != 1 || m.set4f != 0 {
		t.Errorf("expected one full matrix upload, got set4f=%d setMatrix=%d", m.set4f, m.setMatrix)
	}
}
