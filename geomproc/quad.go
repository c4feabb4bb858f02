// Package geomproc provides the built-in geometry descriptor kinds.
package geomproc

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/drawcore"
)

// Shared per-vertex layouts for solid quads. One layout instance per color
// precision; descriptor instances only carry masks into them.
var (
	quadAttrs = drawcore.MakeImplicitLayout(
		drawcore.NewAttribute("position", drawcore.SrcTypeFloat2, drawcore.SLTypeFloat2),
		drawcore.MakeColorAttribute("color", false),
	)
	quadAttrsWide = drawcore.MakeImplicitLayout(
		drawcore.NewAttribute("position", drawcore.SrcTypeFloat2, drawcore.SLTypeFloat2),
		drawcore.MakeColorAttribute("color", true),
	)
)

// SolidQuad draws an axis-aligned quad as a four-vertex triangle strip with
// per-vertex color, transformed by a uniform view matrix. The matrix rides
// in uniforms rather than in vertex data, so every quad under the same
// matrix class shares one program.
type SolidQuad struct {
	drawcore.DescriptorCore

	viewMatrix drawcore.Mat3
	wideColor  bool
}

// NewSolidQuad creates a solid-quad descriptor under the given view matrix.
// wideColor selects full-float vertex colors over 8-bit normalized ones.
func NewSolidQuad(viewMatrix drawcore.Mat3, wideColor bool) *SolidQuad {
	q := &SolidQuad{viewMatrix: viewMatrix, wideColor: wideColor}
	layout := quadAttrs
	if wideColor {
		layout = quadAttrsWide
	}
	q.SetVertexAttributes(layout, 0b11)
	return q
}

// ViewMatrix returns the draw's view matrix.
func (q *SolidQuad) ViewMatrix() drawcore.Mat3 { return q.viewMatrix }

// PrimitiveType returns the triangle-strip topology.
func (q *SolidQuad) PrimitiveType() gputypes.PrimitiveTopology {
	return gputypes.PrimitiveTopologyTriangleStrip
}

// AddToKey appends the bits that vary the generated code: the color
// precision and whether the view matrix is scale+translate, since the
// latter selects a cheaper transform path in the vertex stage.
func (q *SolidQuad) AddToKey(b *drawcore.KeyBuilder) {
	b.AddBool(q.wideColor, "wideColor")
	b.AddBool(q.viewMatrix.IsScaleTranslate(), "scaleTranslate")
}

// MakeProgramBinding returns a fresh binding for this quad's structural key.
func (q *SolidQuad) MakeProgramBinding(caps drawcore.ShaderCaps) drawcore.ProgramBinding {
	return &solidQuadProgram{
		scaleTranslate: q.viewMatrix.IsScaleTranslate(),
		viewUniform:    drawcore.InvalidUniformHandle,
	}
}

// solidQuadProgram is the cached program object for solid quads. One
// instance serves every quad that shares its key; lastMatrix lets SetData
// skip redundant uniform uploads across draws.
type solidQuadProgram struct {
	scaleTranslate bool
	viewUniform    drawcore.UniformHandle
	lastMatrix     *drawcore.Mat3
}

func (p *solidQuadProgram) Emit(args *drawcore.EmitArgs) (localPos, worldPos drawcore.ShaderVar, err error) {
	vb := args.VertBuilder

	iter := args.Desc.VertexAttributes()
	pos, _ := iter.Next()
	color, _ := iter.Next()

	inPos := vb.DeclareInput(pos.AsShaderVar(), 0)
	inColor := vb.DeclareInput(color.AsShaderVar(), 1)

	colorVar := args.Varyings.AddVarying("quadColor", drawcore.SLTypeFloat4)
	vb.CodeAppendf("%s = %s;\n", colorVar.VSOut.Name, inColor.Name)

	if p.scaleTranslate {
		// Scale+translate matrices collapse to a float4 uniform and a
		// fused multiply-add; the quad stays perspective-free.
		var matVar drawcore.ShaderVar
		p.viewUniform, matVar = args.Uniforms.AddUniform("viewMatrix", drawcore.SLTypeFloat4)
		vb.CodeAppendf("let _worldPos = %s * %s.xz + %s.yw;\n",
			inPos.Name, matVar.Name, matVar.Name)
		worldPos = drawcore.ShaderVar{Name: "_worldPos", Type: drawcore.SLTypeFloat2}
	} else {
		var matVar drawcore.ShaderVar
		p.viewUniform, matVar = args.Uniforms.AddUniform("viewMatrix", drawcore.SLTypeMat3)
		worldPos = drawcore.WriteWorldPosition(vb, inPos, matVar.Name)
	}

	fb := args.FragBuilder
	fb.CodeAppendf("%s = %s;\n", args.OutputColor, colorVar.FSIn.Name)
	fb.CodeAppendf("%s = vec4<f32>(1.0);\n", args.OutputCoverage)

	return inPos, worldPos, nil
}

func (p *solidQuadProgram) SetData(m drawcore.UniformDataManager, desc drawcore.GeometryDescriptor) {
	q := desc.(*SolidQuad)
	p.lastMatrix = drawcore.SetTransform(m, p.viewUniform, q.viewMatrix, p.lastMatrix)
}
