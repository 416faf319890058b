package core

import "math"

// Mat4 is a row-major 4x4 affine transform
type Mat4 [4][4]float64

// Identity returns the identity transform
func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translate returns a translation by t
func Translate(t Vec3) Mat4 {
	m := Identity()
	m[0][3], m[1][3], m[2][3] = t.X, t.Y, t.Z
	return m
}

// Scale returns a non-uniform scale by s
func Scale(s Vec3) Mat4 {
	m := Identity()
	m[0][0], m[1][1], m[2][2] = s.X, s.Y, s.Z
	return m
}

// AxisAngle returns a rotation of angle radians about axis (Rodrigues)
func AxisAngle(axis Vec3, angle float64) Mat4 {
	a := axis.Normalize()
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	return Mat4{
		{t*a.X*a.X + c, t*a.X*a.Y - s*a.Z, t*a.X*a.Z + s*a.Y, 0},
		{t*a.X*a.Y + s*a.Z, t*a.Y*a.Y + c, t*a.Y*a.Z - s*a.X, 0},
		{t*a.X*a.Z - s*a.Y, t*a.Y*a.Z + s*a.X, t*a.Z*a.Z + c, 0},
		{0, 0, 0, 1},
	}
}

// LookAt returns the local-to-world transform of a frame placed at origin whose
// -Z axis points at target and whose +Y axis is as close to up as possible.
func LookAt(origin, target, up Vec3) Mat4 {
	back := origin.Subtract(target).Normalize()
	right := up.Cross(back).Normalize()
	if right.IsZero() {
		right, _ = OrthonormalBasis(back)
	}
	trueUp := back.Cross(right)
	return Mat4{
		{right.X, trueUp.X, back.X, origin.X},
		{right.Y, trueUp.Y, back.Y, origin.Y},
		{right.Z, trueUp.Z, back.Z, origin.Z},
		{0, 0, 0, 1},
	}
}

// Mul returns m*o, the transform applying o first and then m
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				r[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return r
}

// Point transforms a position
func (m Mat4) Point(p Vec3) Vec3 {
	return Vec3{
		m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// Vector transforms a direction, ignoring translation
func (m Mat4) Vector(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// UniformScale estimates the scale factor applied to lengths as the cube root
// of the linear part's determinant magnitude.
func (m Mat4) UniformScale() float64 {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	return math.Cbrt(math.Abs(det))
}
