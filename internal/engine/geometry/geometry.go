// Package geometry builds primitive meshes.
package geometry

import (
	gomath "math"

	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/pkg/math"
)

// builder accumulates vertices and indices.
type builder struct {
	positions []float32
	normals   []float32
	uvs       []float32
	indices   []uint32
}

func (b *builder) vertex(p, n math.Vec3, u, v float32) uint32 {
	idx := uint32(len(b.positions) / 3)
	b.positions = append(b.positions, p.X, p.Y, p.Z)
	b.normals = append(b.normals, n.X, n.Y, n.Z)
	b.uvs = append(b.uvs, u, v)
	return idx
}

func (b *builder) triangle(a, c, d uint32) {
	b.indices = append(b.indices, a, c, d)
}

func (b *builder) build() *graph.Geometry {
	return graph.NewGeometry(b.positions, b.normals, b.uvs, b.indices)
}

// Sphere builds a UV sphere centered on the origin.
func Sphere(radius float32, widthSegments, heightSegments int) *graph.Geometry {
	widthSegments = max(widthSegments, 3)
	heightSegments = max(heightSegments, 2)

	var b builder
	grid := make([][]uint32, heightSegments+1)
	for iy := 0; iy <= heightSegments; iy++ {
		v := float32(iy) / float32(heightSegments)
		// Shift the pole UVs half a segment, as the texture seam expects.
		uOffset := float32(0)
		if iy == 0 {
			uOffset = 0.5 / float32(widthSegments)
		} else if iy == heightSegments {
			uOffset = -0.5 / float32(widthSegments)
		}

		row := make([]uint32, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float32(ix) / float32(widthSegments)
			phi := float64(u) * 2 * gomath.Pi
			theta := float64(v) * gomath.Pi
			p := math.Vec3{
				X: -radius * float32(gomath.Cos(phi)*gomath.Sin(theta)),
				Y: radius * float32(gomath.Cos(theta)),
				Z: radius * float32(gomath.Sin(phi)*gomath.Sin(theta)),
			}
			row[ix] = b.vertex(p, p.Normalize(), u+uOffset, 1-v)
		}
		grid[iy] = row
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			bb := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 {
				b.triangle(a, bb, d)
			}
			if iy != heightSegments-1 {
				b.triangle(bb, c, d)
			}
		}
	}
	return b.build()
}

// Box builds an axis-aligned box centered on the origin with one quad per face.
func Box(width, height, depth float32) *graph.Geometry {
	hw, hh, hd := width/2, height/2, depth/2

	faces := []struct {
		normal, u, v math.Vec3
	}{
		{math.Vec3{X: 1}, math.Vec3{Z: -1}, math.Vec3{Y: 1}},
		{math.Vec3{X: -1}, math.Vec3{Z: 1}, math.Vec3{Y: 1}},
		{math.Vec3{Y: 1}, math.Vec3{X: 1}, math.Vec3{Z: -1}},
		{math.Vec3{Y: -1}, math.Vec3{X: 1}, math.Vec3{Z: 1}},
		{math.Vec3{Z: 1}, math.Vec3{X: 1}, math.Vec3{Y: 1}},
		{math.Vec3{Z: -1}, math.Vec3{X: -1}, math.Vec3{Y: 1}},
	}
	half := math.Vec3{X: hw, Y: hh, Z: hd}

	var b builder
	for _, f := range faces {
		center := f.normal.Mul(half)
		du := f.u.Mul(half)
		dv := f.v.Mul(half)
		i0 := b.vertex(center.Sub(du).Sub(dv), f.normal, 0, 0)
		i1 := b.vertex(center.Add(du).Sub(dv), f.normal, 1, 0)
		i2 := b.vertex(center.Add(du).Add(dv), f.normal, 1, 1)
		i3 := b.vertex(center.Sub(du).Add(dv), f.normal, 0, 1)
		b.triangle(i0, i1, i2)
		b.triangle(i0, i2, i3)
	}
	return b.build()
}

// Cone builds a cone with its apex at +height/2 and a capped base.
func Cone(radius, height float32, radialSegments int) *graph.Geometry {
	radialSegments = max(radialSegments, 3)
	halfHeight := height / 2
	slope := radius / height

	var b builder
	// Side: one apex vertex per segment so each gets its own normal.
	for i := 0; i < radialSegments; i++ {
		u0 := float32(i) / float32(radialSegments)
		u1 := float32(i+1) / float32(radialSegments)
		p0, n0 := coneRim(radius, halfHeight, slope, u0)
		p1, n1 := coneRim(radius, halfHeight, slope, u1)
		_, nm := coneRim(radius, halfHeight, slope, (u0+u1)/2)

		apex := b.vertex(math.Vec3{Y: halfHeight}, nm, (u0+u1)/2, 1)
		a := b.vertex(p0, n0, u0, 0)
		c := b.vertex(p1, n1, u1, 0)
		b.triangle(apex, a, c)
	}

	down := math.Vec3{Y: -1}
	center := b.vertex(math.Vec3{Y: -halfHeight}, down, 0.5, 0.5)
	for i := 0; i < radialSegments; i++ {
		t0 := float64(i) / float64(radialSegments) * 2 * gomath.Pi
		t1 := float64(i+1) / float64(radialSegments) * 2 * gomath.Pi
		a := b.vertex(math.Vec3{X: radius * float32(gomath.Sin(t0)), Y: -halfHeight, Z: radius * float32(gomath.Cos(t0))},
			down, 0.5+0.5*float32(gomath.Sin(t0)), 0.5+0.5*float32(gomath.Cos(t0)))
		c := b.vertex(math.Vec3{X: radius * float32(gomath.Sin(t1)), Y: -halfHeight, Z: radius * float32(gomath.Cos(t1))},
			down, 0.5+0.5*float32(gomath.Sin(t1)), 0.5+0.5*float32(gomath.Cos(t1)))
		b.triangle(center, c, a)
	}
	return b.build()
}

func coneRim(radius, halfHeight, slope, u float32) (math.Vec3, math.Vec3) {
	theta := float64(u) * 2 * gomath.Pi
	sin, cos := float32(gomath.Sin(theta)), float32(gomath.Cos(theta))
	p := math.Vec3{X: radius * sin, Y: -halfHeight, Z: radius * cos}
	n := math.Vec3{X: sin, Y: slope, Z: cos}.Normalize()
	return p, n
}

// Tetrahedron builds a regular tetrahedron inscribed in a sphere of radius,
// with flat-shaded faces.
func Tetrahedron(radius float32) *graph.Geometry {
	corners := []math.Vec3{
		{X: 1, Y: 1, Z: 1},
		{X: -1, Y: -1, Z: 1},
		{X: -1, Y: 1, Z: -1},
		{X: 1, Y: -1, Z: -1},
	}
	for i := range corners {
		corners[i] = corners[i].Normalize().Scale(radius)
	}
	faces := [][3]int{{2, 1, 0}, {0, 3, 2}, {1, 3, 0}, {2, 3, 1}}

	var b builder
	for _, f := range faces {
		a, c, d := corners[f[0]], corners[f[1]], corners[f[2]]
		n := c.Sub(a).Cross(d.Sub(a)).Normalize()
		i0 := b.vertex(a, n, 0, 0)
		i1 := b.vertex(c, n, 1, 0)
		i2 := b.vertex(d, n, 0.5, 1)
		b.triangle(i0, i1, i2)
	}
	return b.build()
}
