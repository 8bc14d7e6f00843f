package scene

import (
	"github.com/Faultbox/retroscene/internal/engine/geometry"
	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/pkg/math"
)

const (
	decorShininess = 200
	decorMinScale  = 3
)

// addDecor scatters cfg.Decor.Count primitives inside a ball of
// cfg.Decor.Radius around the origin. The four primitive geometries are
// shared; every mesh gets its own unnamed phong material, so hovering
// never recolors decor.
func (s *Scene) addDecor() {
	s.decor = graph.NewGroup("decor")
	s.root.Add(s.decor)

	cfg := s.cfg.Decor
	if cfg.Count == 0 {
		return
	}
	shapes := []*graph.Geometry{
		geometry.Sphere(1, 64, 64),
		geometry.Box(1, 1, 1),
		geometry.Cone(1, 1, 32),
		geometry.Tetrahedron(1),
	}

	r := s.rng
	for range cfg.Count {
		geo := shapes[r.Intn(len(shapes))]

		color := graph.ColorFromHSL(r.Float32(), 0.7+0.2*r.Float32(), 0.5+0.1*r.Float32())
		mat := graph.NewMaterial("", graph.MaterialPhong, color)
		mat.Shininess = decorShininess

		n := graph.NewMesh("", geo, mat)
		scale := decorMinScale + r.Float32()
		n.Scale = math.Vec3{X: scale, Y: scale, Z: scale}
		dir := math.Vec3{X: r.Float32() - 0.5, Y: r.Float32() - 0.5, Z: r.Float32() - 0.5}.Normalize()
		n.Position = dir.Scale(r.Float32() * cfg.Radius)
		n.Rotation = math.QuatFromEuler(r.Float32()*2, r.Float32()*2, r.Float32()*2)
		s.decor.Add(n)
	}
}
