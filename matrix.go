package drawcore

import "github.com/chewxy/math32"

// Mat3 is a 3x3 float32 matrix in column-major order, matching the memory
// layout of a mat3x3<f32> uniform:
//
//	| m[0] m[3] m[6] |   | scaleX  skewX  transX |
//	| m[1] m[4] m[7] | = | skewY   scaleY transY |
//	| m[2] m[5] m[8] |   | persp0  persp1 persp2 |
//
// Mat3 values are compared with ==; the diffing in SetTransform relies on
// exact equality, not epsilon comparison.
type Mat3 [9]float32

// Mat3Identity returns the identity matrix.
func Mat3Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Mat3Translate returns a translation matrix.
func Mat3Translate(x, y float32) Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, x, y, 1}
}

// Mat3Scale returns a scaling matrix.
func Mat3Scale(x, y float32) Mat3 {
	return Mat3{x, 0, 0, 0, y, 0, 0, 0, 1}
}

// Mat3Rotate returns a rotation matrix for the given angle in radians.
func Mat3Rotate(radians float32) Mat3 {
	sin := math32.Sin(radians)
	cos := math32.Cos(radians)
	return Mat3{cos, sin, 0, -sin, cos, 0, 0, 0, 1}
}

// Mul returns m * o.
func (m Mat3) Mul(o Mat3) Mat3 {
	var out Mat3
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			out[col*3+row] = m[row]*o[col*3] + m[3+row]*o[col*3+1] + m[6+row]*o[col*3+2]
		}
	}
	return out
}

// ScaleX returns the X scale factor.
func (m Mat3) ScaleX() float32 { return m[0] }

// ScaleY returns the Y scale factor.
func (m Mat3) ScaleY() float32 { return m[4] }

// TranslateX returns the X translation.
func (m Mat3) TranslateX() float32 { return m[6] }

// TranslateY returns the Y translation.
func (m Mat3) TranslateY() float32 { return m[7] }

// IsScaleTranslate reports whether the matrix is a pure scale and translate:
// no skew, no rotation, no perspective. Such matrices can be uploaded as a
// single 4-component vector instead of a full 3x3.
func (m Mat3) IsScaleTranslate() bool {
	return m[1] == 0 && m[2] == 0 && m[3] == 0 && m[5] == 0 && m[8] == 1
}

// IsIdentity reports whether the matrix is the identity.
func (m Mat3) IsIdentity() bool {
	return m == Mat3Identity()
}

// Equals reports exact element-wise equality.
func (m Mat3) Equals(o Mat3) bool {
	return m == o
}

// MapPoint applies the matrix to a 2D point, including the perspective
// divide when the matrix has a projective bottom row.
func (m Mat3) MapPoint(x, y float32) (float32, float32) {
	outX := m[0]*x + m[3]*y + m[6]
	outY := m[1]*x + m[4]*y + m[7]
	w := m[2]*x + m[5]*y + m[8]
	if w != 1 && w != 0 {
		outX /= w
		outY /= w
	}
	return outX, outY
}
