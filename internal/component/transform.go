package component

import "github.com/Longseabear/LEapsGLEngine/internal/core/ecs"

type Vec3 [3]float32

// Quat is a rotation quaternion stored as x, y, z, w.
type Quat [4]float32

var IdentityQuat = Quat{0, 0, 0, 1}

// Mat4 is a column-major 4x4 matrix, the layout GL uniforms expect.
type Mat4 [16]float32

var IdentityMat4 = Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Transform is the local placement of an entity.
// Pure data, zero methods; TransformSystem derives WorldTransform from it.
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// NewTransform returns an identity transform at pos.
func NewTransform(pos Vec3) Transform {
	return Transform{Position: pos, Rotation: IdentityQuat, Scale: Vec3{1, 1, 1}}
}

// Parent attaches an entity to another entity's transform in the same world.
type Parent struct {
	Entity ecs.EntityID
}

// WorldTransform is recomputed every pass from Transform and Parent.
type WorldTransform struct {
	Matrix Mat4
}

// Velocity moves an entity in units per second.
type Velocity struct {
	Linear  Vec3
	Angular Vec3 // radians per second around x, y, z
}
