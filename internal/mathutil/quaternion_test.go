package mathutil

import "testing"

func near(a, b float32) bool {
	d := a - b
	return d > -1e-5 && d < 1e-5
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{0, 0, 0, 256}.Normalize()
	if !near(q[3], 1) || !near(q[0], 0) {
		t.Errorf("normalized = %v, want identity", q)
	}

	if got := (Quat{}).Normalize(); got != QuatIdentity {
		t.Errorf("degenerate quat = %v, want identity", got)
	}
}

func TestQuatRotate(t *testing.T) {
	// 90 degrees around Z maps +X to +Y.
	s := float32(0.70710678)
	q := Quat{0, 0, s, s}
	v := q.Rotate(Vec3{1, 0, 0})
	if !near(v[0], 0) || !near(v[1], 1) || !near(v[2], 0) {
		t.Errorf("rotated = %v, want (0, 1, 0)", v)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := Vec3{3, 0, 4}.Normalize()
	if !near(v.Len(), 1) {
		t.Errorf("len = %v, want 1", v.Len())
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero vector normalized = %v", got)
	}
}
