package mathutil

import "github.com/chewxy/math32"

// Quat represents a quaternion (x, y, z, w).
type Quat [4]float32

// QuatIdentity is the no-rotation quaternion.
var QuatIdentity = Quat{0, 0, 0, 1}

func (q Quat) Len() float32 {
	return math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
}

// Normalize returns the unit quaternion, or identity if q is degenerate.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l < 1e-4 {
		return QuatIdentity
	}
	return Quat{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}

// Rotate applies the rotation to a point.
func (q Quat) Rotate(v Vec3) Vec3 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	u := Vec3{x, y, z}
	uv := u.Cross(v)
	uuv := u.Cross(uv)
	return v.Add(uv.Scale(2 * w)).Add(uuv.Scale(2))
}
