package geom

import "github.com/chewxy/math32"

type RotationOrder int

const (
	RotationOrderXYZ RotationOrder = iota
	// RotationOrderYZX is the order used by Cocos Creator's Quat.fromEuler.
	RotationOrderYZX
)

type EulerAngles struct {
	Vector3
	Order RotationOrder
}

func NewEuler(x, y, z Element, order RotationOrder) *EulerAngles {
	return &EulerAngles{Vector3: Vector3{x, y, z}, Order: order}
}

// NewEulerDegrees converts degrees to radians.
func NewEulerDegrees(x, y, z Element, order RotationOrder) *EulerAngles {
	const toRad = math32.Pi / 180
	return NewEuler(x*toRad, y*toRad, z*toRad, order)
}

func (v *EulerAngles) ToQuaternion() *Quaternion {
	cx, sx := math32.Cos(v.X/2), math32.Sin(v.X/2)
	cy, sy := math32.Cos(v.Y/2), math32.Sin(v.Y/2)
	cz, sz := math32.Cos(v.Z/2), math32.Sin(v.Z/2)

	switch v.Order {
	case RotationOrderXYZ:
		return &Quaternion{
			X: sx*cy*cz + cx*sy*sz,
			Y: cx*sy*cz - sx*cy*sz,
			Z: cx*cy*sz + sx*sy*cz,
			W: cx*cy*cz - sx*sy*sz}
	case RotationOrderYZX:
		return &Quaternion{
			X: sx*cy*cz + cx*sy*sz,
			Y: cx*sy*cz + sx*cy*sz,
			Z: cx*cy*sz - sx*sy*cz,
			W: cx*cy*cz - sx*sy*sz}
	default:
		return &Quaternion{0, 0, 0, 1}
	}
}
