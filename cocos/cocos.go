// Package cocos is an in-memory model of Cocos Creator prefab assets.
package cocos

import "reflect"

type Vec3 struct {
	X float32
	Y float32
	Z float32
}

type Quat struct {
	X float32
	Y float32
	Z float32
	W float32
}

// Mat4 is a column-major 4x4 matrix.
type Mat4 [16]float32

var IdentityQuat = Quat{W: 1}

type Prefab struct {
	Name string
	Data *Node
}

type Node struct {
	Name     string
	Position Vec3
	Rotation Quat
	Scale    Vec3

	Children   []*Node
	Components []Component

	parent *Node
}

func NewNode(name string) *Node {
	return &Node{Name: name, Rotation: IdentityQuat, Scale: Vec3{1, 1, 1}}
}

func (n *Node) AddChild(child *Node) *Node {
	child.parent = n
	n.Children = append(n.Children, child)
	return n
}

func (n *Node) AddComponent(c Component) *Node {
	n.Components = append(n.Components, c)
	return n
}

func (n *Node) Parent() *Node {
	return n.parent
}

// GetComponent stores the first component assignable to *dst and reports
// whether one was found. dst must be a pointer to a component pointer or to
// a component interface type.
func (n *Node) GetComponent(dst interface{}) bool {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return false
	}
	e := v.Elem()
	for _, c := range n.Components {
		cv := reflect.ValueOf(c)
		if cv.IsValid() && cv.Type().AssignableTo(e.Type()) {
			e.Set(cv)
			return true
		}
	}
	return false
}

// GetRenderer returns the mesh renderer attached to the node. Skinned
// renderers are returned too.
func (n *Node) GetRenderer() Renderer {
	var r Renderer
	if n.GetComponent(&r) {
		return r
	}
	return nil
}

type Component interface {
	ComponentName() string
}

type Renderer interface {
	Component
	GetMeshRenderer() *MeshRenderer
}

type MeshRenderer struct {
	Mesh            *Mesh
	SharedMaterials []*Material
}

func (r *MeshRenderer) ComponentName() string {
	return "cc.MeshRenderer"
}

func (r *MeshRenderer) GetMeshRenderer() *MeshRenderer {
	return r
}

type SkinnedMeshRenderer struct {
	MeshRenderer
	Skeleton     *Skeleton
	SkinningRoot *Node
}

func (r *SkinnedMeshRenderer) ComponentName() string {
	return "cc.SkinnedMeshRenderer"
}

type Animation struct {
	Clips       []*AnimationClip
	DefaultClip *AnimationClip
}

func (a *Animation) ComponentName() string {
	return "cc.Animation"
}
