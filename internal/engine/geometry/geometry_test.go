package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/pkg/math"
)

// assertOutward checks that every triangle winds counter-clockwise when
// seen from outside a convex shape centered on the origin.
func assertOutward(t *testing.T, g *graph.Geometry) {
	t.Helper()
	for i := 0; i < g.TriangleCount(); i++ {
		a, b, c := g.Triangle(i)
		n := b.Sub(a).Cross(c.Sub(a))
		if n.LengthSquared() < 1e-12 {
			continue
		}
		centroid := a.Add(b).Add(c).Scale(1.0 / 3)
		assert.Greaterf(t, n.Dot(centroid), float32(0), "triangle %d faces inward", i)
	}
}

func assertBuffers(t *testing.T, g *graph.Geometry) {
	t.Helper()
	assert.Len(t, g.Normals, len(g.Positions))
	assert.Len(t, g.UVs, g.VertexCount()*2)
	for _, idx := range g.Indices {
		assert.Less(t, int(idx), g.VertexCount())
	}
}

func TestSphere(t *testing.T) {
	g := Sphere(1, 64, 64)
	assertBuffers(t, g)
	assert.Equal(t, 65*65, g.VertexCount())
	assert.Equal(t, 64*126, g.TriangleCount())
	assert.InDelta(t, 1, g.Bounds.Max.Y, 1e-5)
	assert.InDelta(t, -1, g.Bounds.Min.Y, 1e-5)
	assert.InDelta(t, 2, g.Bounds.Size().X, 1e-3)
	assertOutward(t, g)
}

func TestSphereMinimumSegments(t *testing.T) {
	g := Sphere(2, 0, 0)
	assert.Equal(t, 4*3, g.VertexCount())
	assert.Positive(t, g.TriangleCount())
}

func TestBox(t *testing.T) {
	g := Box(1, 2, 3)
	assertBuffers(t, g)
	assert.Equal(t, 24, g.VertexCount())
	assert.Equal(t, 12, g.TriangleCount())
	assert.Equal(t, math.Vec3{X: -0.5, Y: -1, Z: -1.5}, g.Bounds.Min)
	assert.Equal(t, math.Vec3{X: 0.5, Y: 1, Z: 1.5}, g.Bounds.Max)
	assertOutward(t, g)
}

func TestCone(t *testing.T) {
	g := Cone(1, 1, 32)
	assertBuffers(t, g)
	assert.Equal(t, 64, g.TriangleCount())
	assert.InDelta(t, 0.5, g.Bounds.Max.Y, 1e-6)
	assert.InDelta(t, -0.5, g.Bounds.Min.Y, 1e-6)
	assertOutward(t, g)
}

func TestTetrahedron(t *testing.T) {
	g := Tetrahedron(1)
	assertBuffers(t, g)
	assert.Equal(t, 4, g.TriangleCount())
	for i := 0; i < g.VertexCount(); i++ {
		assert.InDelta(t, 1, g.Vertex(i).Length(), 1e-5)
	}
	assertOutward(t, g)
}
