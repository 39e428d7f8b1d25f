package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecomposeMatrix(t *testing.T) {
	const eps = 0.00001

	pos := NewVector3(1, 2, 3)
	rot := NewEuler(10*math.Pi/180, 20*math.Pi/180, 30*math.Pi/180, RotationOrderXYZ).ToQuaternion()
	scale := NewVector3(1.5, 1.6, 1.7)

	mat := NewTRSMatrix4(pos, rot, scale)
	pos1, rot1, scale1 := mat.Decompose()

	assert.Less(t, pos.Sub(pos1).Len(), Element(eps), "pos: %v %v", pos, pos1)
	assert.Less(t, rot.Sub(rot1).Len(), Element(eps), "rot: %v %v", rot, rot1)
	assert.Less(t, scale.Sub(scale1).Len(), Element(eps), "scale: %v %v", scale, scale1)

	mat2 := NewRotationMatrix4FromQuaternion(rot)
	pos1, rot1, scale1 = mat2.Decompose()
	assert.Less(t, rot.Sub(rot1).Len(), Element(eps))
	assert.Less(t, pos1.Len(), Element(eps))
	assert.Less(t, scale1.Sub(NewVector3(1, 1, 1)).Len(), Element(eps))
}

func TestTRSMatrixComposition(t *testing.T) {
	const eps = 0.00001

	pos := NewVector3(1, 2, 3)
	rot := NewEuler(0, math.Pi/2, 0, RotationOrderXYZ).ToQuaternion()
	scale := NewVector3(2, 2, 2)

	trs := NewTRSMatrix4(pos, rot, scale)
	composed := NewTRSMatrix4(pos, NewQuaternion(0, 0, 0, 1), NewVector3(1, 1, 1)).
		Mul(NewRotationMatrix4FromQuaternion(rot)).
		Mul(NewTRSMatrix4(&Vector3{}, NewQuaternion(0, 0, 0, 1), scale))
	for i := range trs {
		assert.InDelta(t, trs[i], composed[i], eps, "element %d", i)
	}

	// rotate +X by 90 degrees around Y gives -Z
	v := NewRotationMatrix4FromQuaternion(rot).ApplyTo(NewVector3(1, 0, 0))
	assert.Less(t, v.Sub(NewVector3(0, 0, -1)).Len(), Element(eps), "%v", v)
}

func TestDecomposeMirrored(t *testing.T) {
	mat := NewMatrix4()
	mat[0] = -1
	_, rot, scale := mat.Decompose()
	assert.InDelta(t, -1, scale.X, 0.00001)
	assert.InDelta(t, 1, rot.Len(), 0.00001)
}
