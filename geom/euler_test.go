package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestEuler(t *testing.T) {
	const eps = 0.00001

	for i, c := range []struct {
		order   RotationOrder
		x, y, z float32
	}{
		{RotationOrderXYZ, 10, 20, 30},
		{RotationOrderXYZ, 10, 90, 0},
		{RotationOrderYXZ, 10, 20, 30},
		{RotationOrderYXZ, 90, 10, 0},
		{RotationOrderZXY, 10, 20, 30},
		{RotationOrderZXY, 90, 0, 10},
		{RotationOrderZYX, 10, 20, 30},
		{RotationOrderZYX, 0, 90, 10},
	} {
		e1 := NewEuler(c.x*math.Pi/180, c.y*math.Pi/180, c.z*math.Pi/180, c.order)
		q := e1.ToQuaternion()
		e2 := NewEulerFromQuaternion(q, c.order)

		if !e2.ToQuaternion().SameRotation(q, eps) {
			t.Error("euler: ", i, e1, e2)
		}
		if Abs(q.Len()-1) > eps {
			t.Error("Quaternion.Len() != 1", e1)
		}
	}
}

func TestEulerZYXMatchesMathgl(t *testing.T) {
	const eps = 0.00001
	x, y, z := float32(0.3), float32(-1.1), float32(2.0)

	// RotationOrderZYX means Rz * Ry * Rx.
	expected := mgl32.HomogRotate3DZ(z).Mul4(mgl32.HomogRotate3DY(y)).Mul4(mgl32.HomogRotate3DX(x))
	got := NewRotationMatrix4FromEuler(NewEuler(x, y, z, RotationOrderZYX))
	if !got.ApproxEqual((*Matrix4)(&expected), eps) {
		t.Errorf("got %v\nwant %v", got, expected)
	}
}
