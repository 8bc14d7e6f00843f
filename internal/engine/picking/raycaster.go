package picking

import (
	"github.com/Faultbox/retroscene/internal/engine/camera"
	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/pkg/math"
)

// Hit is the result of a raycast. A zero Hit means nothing was hit.
type Hit struct {
	Node     *graph.Node
	Distance float32
	Point    math.Vec3
}

// OK reports whether something was hit.
func (h Hit) OK() bool {
	return h.Node != nil
}

// Raycaster finds the nearest visible mesh under a ray.
type Raycaster struct {
	// Far limits hits to this distance from the ray origin; zero means no
	// limit.
	Far float32
}

// HitTest casts a ray from the camera position through ndc and returns
// the nearest mesh under it. World matrices of root must be current.
func (rc *Raycaster) HitTest(ndc math.Vec2, cam *camera.Perspective, root *graph.Node) Hit {
	if cam == nil || root == nil {
		return Hit{}
	}
	return rc.Intersect(CameraRay(ndc, cam), root)
}

// Intersect tests every visible mesh under root in document order; the
// hit closest to the ray origin wins, earlier meshes winning ties.
func (rc *Raycaster) Intersect(ray Ray, root *graph.Node) Hit {
	var best Hit
	if root == nil {
		return best
	}
	root.TraverseVisible(func(n *graph.Node) {
		if n.Kind != graph.KindMesh || n.Mesh == nil || n.Mesh.Geometry == nil {
			return
		}
		point, ok := intersectMesh(ray, n)
		if !ok {
			return
		}
		d := point.Distance(ray.Origin)
		if rc.Far > 0 && d > rc.Far {
			return
		}
		if !best.OK() || d < best.Distance {
			best = Hit{Node: n, Distance: d, Point: point}
		}
	})
	return best
}

// intersectMesh returns the nearest world-space intersection of ray with
// the mesh triangles.
func intersectMesh(ray Ray, n *graph.Node) (math.Vec3, bool) {
	geo := n.Mesh.Geometry
	world := n.WorldMatrix()

	if _, ok := ray.IntersectSphere(geo.Bounds.BoundingSphere().Transform(world)); !ok {
		return math.Vec3{}, false
	}

	local := ray.Transform(world.Inverse())
	if _, ok := local.IntersectAABB(geo.Bounds); !ok {
		return math.Vec3{}, false
	}

	side := graph.SideFront
	if n.Mesh.Material != nil {
		side = n.Mesh.Material.Side
	}

	var (
		bestT float32
		found bool
	)
	for i := 0; i < geo.TriangleCount(); i++ {
		a, b, c := geo.Triangle(i)
		if t, ok := local.IntersectTriangle(a, b, c, side); ok && (!found || t < bestT) {
			bestT, found = t, true
		}
	}
	if !found {
		return math.Vec3{}, false
	}
	return world.TransformPoint(local.At(bestT)), true
}
