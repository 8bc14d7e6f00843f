// Package graph holds the CPU-side scene graph: nodes, geometry, materials,
// textures and lights. GPU handles on these types stay zero until the
// renderer uploads them on the render thread.
package graph

import (
	"sync/atomic"

	"github.com/Faultbox/retroscene/pkg/math"
)

// ID identifies a graph object for the lifetime of the process.
type ID uint64

var lastID atomic.Uint64

// NewID returns a fresh ID. Safe for concurrent use; the loader builds
// graphs off the render thread.
func NewID() ID {
	return ID(lastID.Add(1))
}

// NodeKind is the role of a node.
type NodeKind uint8

const (
	KindGroup NodeKind = iota
	KindMesh
	KindLight
	KindCamera
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	case KindLight:
		return "light"
	case KindCamera:
		return "camera"
	default:
		return "unknown"
	}
}

// Mesh pairs geometry with a material. Both may be shared between meshes.
type Mesh struct {
	Geometry *Geometry
	Material *Material
}

// Node is an element of the ownership tree.
type Node struct {
	ID   ID
	Name string
	Kind NodeKind

	Position math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
	Visible  bool

	Parent   *Node
	Children []*Node

	Mesh  *Mesh
	Light *Light

	// Resource is an extra disposable owned by the node, released after
	// its mesh during disposal.
	Resource any

	world math.Mat4
}

// NewNode creates a visible node with identity transform.
func NewNode(name string, kind NodeKind) *Node {
	return &Node{
		ID:       NewID(),
		Name:     name,
		Kind:     kind,
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3{X: 1, Y: 1, Z: 1},
		Visible:  true,
		world:    math.Identity(),
	}
}

// NewGroup creates an empty group node.
func NewGroup(name string) *Node {
	return NewNode(name, KindGroup)
}

// NewMesh creates a mesh node.
func NewMesh(name string, geo *Geometry, mat *Material) *Node {
	n := NewNode(name, KindMesh)
	n.Mesh = &Mesh{Geometry: geo, Material: mat}
	return n
}

// NewLight creates a light node.
func NewLight(name string, light *Light) *Node {
	n := NewNode(name, KindLight)
	n.Light = light
	return n
}

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.Parent != nil {
		child.Parent.Remove(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Remove detaches child from n. It reports whether child was attached.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return true
		}
	}
	return false
}

// Clear detaches every child.
func (n *Node) Clear() {
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = nil
}

// Traverse calls fn for n and every descendant in depth-first document
// order.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Traverse(fn)
	}
}

// TraverseVisible is Traverse restricted to visible subtrees.
func (n *Node) TraverseVisible(fn func(*Node)) {
	if !n.Visible {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.TraverseVisible(fn)
	}
}

// FindByName returns the first node named name in document order.
func (n *Node) FindByName(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// LocalMatrix returns the node transform relative to its parent.
func (n *Node) LocalMatrix() math.Mat4 {
	return math.Compose(n.Position, n.Rotation, n.Scale)
}

// UpdateWorld recomputes world matrices for n and its descendants.
func (n *Node) UpdateWorld() {
	if n.Parent != nil {
		n.world = n.Parent.world.Mul(n.LocalMatrix())
	} else {
		n.world = n.LocalMatrix()
	}
	for _, c := range n.Children {
		c.UpdateWorld()
	}
}

// WorldMatrix returns the matrix computed by the last UpdateWorld.
func (n *Node) WorldMatrix() math.Mat4 {
	return n.world
}
