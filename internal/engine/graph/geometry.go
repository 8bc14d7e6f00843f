package graph

import (
	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/pkg/math"
)

// Geometry is indexed triangle data. Positions and Normals hold xyz
// triples, UVs hold uv pairs.
type Geometry struct {
	ID        ID
	Positions []float32
	Normals   []float32
	UVs       []float32
	Indices   []uint32
	Bounds    math.Box3

	Handle gpu.Handle
}

// NewGeometry creates geometry and computes its bounds.
func NewGeometry(positions, normals, uvs []float32, indices []uint32) *Geometry {
	g := &Geometry{
		ID:        NewID(),
		Positions: positions,
		Normals:   normals,
		UVs:       uvs,
		Indices:   indices,
	}
	g.ComputeBounds()
	return g
}

// ComputeBounds recomputes the local bounding box.
func (g *Geometry) ComputeBounds() {
	g.Bounds = math.EmptyBox()
	for i := 0; i < g.VertexCount(); i++ {
		g.Bounds = g.Bounds.ExpandByPoint(g.Vertex(i))
	}
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// TriangleCount returns the number of indexed triangles.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Vertex returns the position of vertex i.
func (g *Geometry) Vertex(i int) math.Vec3 {
	return math.Vec3{X: g.Positions[i*3], Y: g.Positions[i*3+1], Z: g.Positions[i*3+2]}
}

// Triangle returns the corners of triangle i.
func (g *Geometry) Triangle(i int) (a, b, c math.Vec3) {
	return g.Vertex(int(g.Indices[i*3])), g.Vertex(int(g.Indices[i*3+1])), g.Vertex(int(g.Indices[i*3+2]))
}

// Data returns the upload form of the geometry.
func (g *Geometry) Data() gpu.GeometryData {
	return gpu.GeometryData{
		Positions: g.Positions,
		Normals:   g.Normals,
		UVs:       g.UVs,
		Indices:   g.Indices,
	}
}
