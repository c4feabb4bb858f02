package geomproc

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/drawcore"
)

// Each ellipse instance is expanded from a fixed unit-quad corner buffer;
// the corner positions use an explicit layout so the same vertex buffer can
// interleave data for other instanced kinds at a fixed stride.
var ellipseCornerAttrs = drawcore.MakeExplicitLayout(8,
	drawcore.NewAttributeAt("corner", drawcore.SrcTypeFloat2, drawcore.SLTypeFloat2, 0),
)

// Shared per-instance layout. Fill ellipses activate the first two slots,
// stroked ellipses all three.
var ellipseInstanceAttrs = drawcore.MakeImplicitLayout(
	drawcore.NewAttribute("centerRadii", drawcore.SrcTypeFloat4, drawcore.SLTypeFloat4),
	drawcore.MakeColorAttribute("color", false),
	drawcore.NewAttribute("strokeWidths", drawcore.SrcTypeFloat2, drawcore.SLTypeFloat2),
)

// Instance slot masks.
const (
	ellipseFillMask   = 0b011
	ellipseStrokeMask = 0b111
)

// Ellipse draws instanced ellipses: a four-corner strip per instance,
// positioned and colored from instance data, with analytic edge coverage in
// the fragment stage. Stroked ellipses carry inner and outer widths in a
// third instance slot that filled ellipses leave inactive.
type Ellipse struct {
	drawcore.DescriptorCore

	viewMatrix drawcore.Mat3
	stroke     bool
}

// NewEllipse creates an ellipse descriptor. stroke activates the
// stroke-width instance slot and the stroked coverage path.
func NewEllipse(viewMatrix drawcore.Mat3, stroke bool) *Ellipse {
	e := &Ellipse{viewMatrix: viewMatrix, stroke: stroke}
	e.SetVertexAttributes(ellipseCornerAttrs, 0b1)
	mask := uint32(ellipseFillMask)
	if stroke {
		mask = ellipseStrokeMask
	}
	e.SetInstanceAttributes(ellipseInstanceAttrs, mask)
	return e
}

// ViewMatrix returns the draw's view matrix.
func (e *Ellipse) ViewMatrix() drawcore.Mat3 { return e.viewMatrix }

// Stroked reports whether this descriptor draws stroked ellipses.
func (e *Ellipse) Stroked() bool { return e.stroke }

// PrimitiveType returns the triangle-strip topology.
func (e *Ellipse) PrimitiveType() gputypes.PrimitiveTopology {
	return gputypes.PrimitiveTopologyTriangleStrip
}

// AddToKey appends the stroke flag. The attribute masks already differ
// between fill and stroke, but the flag also gates fragment code that the
// layouts alone do not imply.
func (e *Ellipse) AddToKey(b *drawcore.KeyBuilder) {
	b.AddBool(e.stroke, "stroke")
}

// MakeProgramBinding returns a fresh binding for this ellipse's key.
func (e *Ellipse) MakeProgramBinding(caps drawcore.ShaderCaps) drawcore.ProgramBinding {
	return &ellipseProgram{
		stroke:      e.stroke,
		viewUniform: drawcore.InvalidUniformHandle,
	}
}

// ellipseProgram is the cached program object for ellipses.
type ellipseProgram struct {
	stroke      bool
	viewUniform drawcore.UniformHandle
	lastMatrix  *drawcore.Mat3
}

func (p *ellipseProgram) Emit(args *drawcore.EmitArgs) (localPos, worldPos drawcore.ShaderVar, err error) {
	localPos, worldPos, _, err = p.emit(args)
	return localPos, worldPos, err
}

// emit is the shared body of Emit; it additionally returns the
// radius-normalized coordinate varying for subclasses that sample textures.
func (p *ellipseProgram) emit(args *drawcore.EmitArgs) (localPos, worldPos drawcore.ShaderVar, unit drawcore.Varying, err error) {
	vb := args.VertBuilder

	vIter := args.Desc.VertexAttributes()
	corner, _ := vIter.Next()
	inCorner := vb.DeclareInput(corner.AsShaderVar(), 0)

	loc := 1
	iIter := args.Desc.InstanceAttributes()
	var inCenterRadii, inColor, inStroke drawcore.ShaderVar
	for attr, ok := iIter.Next(); ok; attr, ok = iIter.Next() {
		v := vb.DeclareInput(attr.AsShaderVar(), loc)
		loc += attr.LocationCount()
		switch attr.Name() {
		case "centerRadii":
			inCenterRadii = v
		case "color":
			inColor = v
		case "strokeWidths":
			inStroke = v
		}
	}

	colorVar := args.Varyings.AddVarying("ellipseColor", drawcore.SLTypeFloat4)
	vb.CodeAppendf("%s = %s;\n", colorVar.VSOut.Name, inColor.Name)

	// The fragment stage evaluates the implicit ellipse equation in
	// radius-normalized space; the corner coordinate doubles as that space.
	unitVar := args.Varyings.AddVarying("ellipseCoord", drawcore.SLTypeFloat2)
	vb.CodeAppendf("%s = %s;\n", unitVar.VSOut.Name, inCorner.Name)

	radiiVar := args.Varyings.AddVarying("ellipseRadii", drawcore.SLTypeFloat4)
	if p.stroke {
		vb.CodeAppendf("%s = vec4<f32>(%s.zw + vec2<f32>(%s.y), %s.zw - vec2<f32>(%s.x));\n",
			radiiVar.VSOut.Name, inCenterRadii.Name, inStroke.Name,
			inCenterRadii.Name, inStroke.Name)
		vb.CodeAppendf("let _localPos = %s * (%s.zw + vec2<f32>(%s.y));\n",
			inCorner.Name, inCenterRadii.Name, inStroke.Name)
	} else {
		vb.CodeAppendf("%s = vec4<f32>(%s.zw, %s.zw);\n",
			radiiVar.VSOut.Name, inCenterRadii.Name, inCenterRadii.Name)
		vb.CodeAppendf("let _localPos = %s * %s.zw;\n", inCorner.Name, inCenterRadii.Name)
	}
	vb.CodeAppendf("let _ellipsePos = %s.xy + _localPos;\n", inCenterRadii.Name)

	var matVar drawcore.ShaderVar
	p.viewUniform, matVar = args.Uniforms.AddUniform("viewMatrix", drawcore.SLTypeMat3)
	ePos := drawcore.ShaderVar{Name: "_ellipsePos", Type: drawcore.SLTypeFloat2}
	worldPos = drawcore.WriteWorldPosition(vb, ePos, matVar.Name)

	fb := args.FragBuilder
	fb.CodeAppendf("%s = %s;\n", args.OutputColor, colorVar.FSIn.Name)
	fb.CodeAppendf("let _outerD = length(%s / %s.xy) - 1.0;\n",
		unitVar.FSIn.Name, radiiVar.FSIn.Name)
	fb.CodeAppendf("var _cov = clamp(0.5 - _outerD * length(%s.xy), 0.0, 1.0);\n",
		radiiVar.FSIn.Name)
	if p.stroke {
		fb.CodeAppendf("let _innerD = 1.0 - length(%s / %s.zw);\n",
			unitVar.FSIn.Name, radiiVar.FSIn.Name)
		fb.CodeAppendf("_cov = _cov * clamp(0.5 - _innerD * length(%s.zw), 0.0, 1.0);\n",
			radiiVar.FSIn.Name)
	}
	fb.CodeAppendf("%s = vec4<f32>(_cov);\n", args.OutputCoverage)

	localPos = drawcore.ShaderVar{Name: "_localPos", Type: drawcore.SLTypeFloat2}
	return localPos, worldPos, unitVar, nil
}

func (p *ellipseProgram) SetData(m drawcore.UniformDataManager, desc drawcore.GeometryDescriptor) {
	e := desc.(*Ellipse)
	p.lastMatrix = drawcore.SetTransform(m, p.viewUniform, e.viewMatrix, p.lastMatrix)
}

// TexturedEllipse is an Ellipse whose fill color is modulated by a texture
// sampled at the radius-normalized coordinate. It demonstrates the sampler
// surface of the descriptor contract.
type TexturedEllipse struct {
	Ellipse

	samplerState drawcore.SamplerState
	swizzle      drawcore.Swizzle
}

// NewTexturedEllipse creates a textured fill ellipse with the given sampler
// configuration.
func NewTexturedEllipse(viewMatrix drawcore.Mat3, state drawcore.SamplerState) *TexturedEllipse {
	t := &TexturedEllipse{samplerState: state, swizzle: drawcore.SwizzleRGBA}
	t.viewMatrix = viewMatrix
	t.SetVertexAttributes(ellipseCornerAttrs, 0b1)
	t.SetInstanceAttributes(ellipseInstanceAttrs, ellipseFillMask)
	return t
}

// NumTextureSamplers returns 1.
func (t *TexturedEllipse) NumTextureSamplers() int { return 1 }

// TextureSamplerState returns the sampler configuration. Only index 0 is
// valid.
func (t *TexturedEllipse) TextureSamplerState(i int) drawcore.SamplerState {
	if i != 0 {
		panic("geomproc: textured ellipse has exactly one sampler")
	}
	return t.samplerState
}

// TextureSamplerSwizzle returns the channel swizzle for sampler 0.
func (t *TexturedEllipse) TextureSamplerSwizzle(i int) drawcore.Swizzle {
	if i != 0 {
		panic("geomproc: textured ellipse has exactly one sampler")
	}
	return t.swizzle
}

// AddToKey appends the stroke flag and a textured marker so textured and
// plain ellipses never share a program.
func (t *TexturedEllipse) AddToKey(b *drawcore.KeyBuilder) {
	t.Ellipse.AddToKey(b)
	b.AddBool(true, "textured")
}

// MakeProgramBinding returns a binding that samples the fill texture.
func (t *TexturedEllipse) MakeProgramBinding(caps drawcore.ShaderCaps) drawcore.ProgramBinding {
	return &texturedEllipseProgram{
		ellipseProgram: ellipseProgram{viewUniform: drawcore.InvalidUniformHandle},
	}
}

type texturedEllipseProgram struct {
	ellipseProgram
}

func (p *texturedEllipseProgram) Emit(args *drawcore.EmitArgs) (localPos, worldPos drawcore.ShaderVar, err error) {
	localPos, worldPos, unit, err := p.emit(args)
	if err != nil {
		return localPos, worldPos, err
	}

	_, texVar := args.Uniforms.AddSampler("fill")
	fb := args.FragBuilder
	fb.CodeAppendf("let _texCoord = %s * 0.5 + vec2<f32>(0.5);\n", unit.FSIn.Name)
	fb.CodeAppendf("%s = %s * textureSample(%s, fill_smp, _texCoord);\n",
		args.OutputColor, args.OutputColor, texVar.Name)
	return localPos, worldPos, nil
}
