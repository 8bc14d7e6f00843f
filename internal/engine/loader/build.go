package loader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/internal/engine/texture"
	"github.com/Faultbox/retroscene/pkg/math"
	"github.com/Faultbox/retroscene/pkg/meshz"
)

// RootName is the name of the group every loaded model hangs under.
const RootName = "Scene"

// Build converts a decoded asset into a scene graph. Geometries,
// materials and textures referenced more than once are shared between
// nodes. Textures that fail to decode are logged and left unbound. GPU
// upload is left to the renderer.
func Build(asset *meshz.Asset, log *zap.Logger) (*graph.Node, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := asset.Validate(); err != nil {
		return nil, err
	}

	textures := make([]*graph.Texture, len(asset.Textures))
	for i, t := range asset.Textures {
		img, err := texture.Decode(t.Data, t.Encoding)
		if err != nil {
			log.Warn("skipping texture", zap.String("texture", t.Name), zap.Stringer("encoding", t.Encoding), zap.Error(err))
			continue
		}
		textures[i] = graph.NewTexture(t.Name, img)
	}

	materials := make([]*graph.Material, len(asset.Materials))
	for i, m := range asset.Materials {
		materials[i] = buildMaterial(m, textures)
	}

	geometries := make([]*graph.Geometry, len(asset.Meshes))
	for i, m := range asset.Meshes {
		geometries[i] = buildGeometry(m)
	}

	var fallback *graph.Material
	root := graph.NewGroup(RootName)
	nodes := make([]*graph.Node, len(asset.Nodes))
	for i, n := range asset.Nodes {
		var node *graph.Node
		if n.Mesh >= 0 {
			mat := fallback
			if n.Material >= 0 {
				mat = materials[n.Material]
			} else if mat == nil {
				fallback = graph.NewMaterial("default", graph.MaterialPhong, graph.White)
				mat = fallback
			}
			node = graph.NewMesh(n.Name, geometries[n.Mesh], mat)
		} else {
			node = graph.NewGroup(n.Name)
		}
		node.Position = math.Vec3{X: n.Position[0], Y: n.Position[1], Z: n.Position[2]}
		node.Rotation = math.Quat{X: n.Rotation[0], Y: n.Rotation[1], Z: n.Rotation[2], W: n.Rotation[3]}.Normalize()
		node.Scale = math.Vec3{X: n.Scale[0], Y: n.Scale[1], Z: n.Scale[2]}
		nodes[i] = node

		if n.Parent < 0 {
			root.Add(node)
		} else {
			nodes[n.Parent].Add(node)
		}
	}
	if len(nodes) == 0 && len(geometries) > 0 {
		return nil, fmt.Errorf("%w: %d meshes but no nodes", meshz.ErrBadIndex, len(geometries))
	}
	return root, nil
}

func buildMaterial(m meshz.Material, textures []*graph.Texture) *graph.Material {
	kind := graph.MaterialPhong
	if m.Kind == meshz.KindBasic {
		kind = graph.MaterialBasic
	}
	mat := graph.NewMaterial(m.Name, kind, math.Vec3{X: m.Color[0], Y: m.Color[1], Z: m.Color[2]})
	if m.Shininess > 0 {
		mat.Shininess = m.Shininess
	}
	switch m.Side {
	case meshz.SideBack:
		mat.Side = graph.SideBack
	case meshz.SideDouble:
		mat.Side = graph.SideDouble
	}
	for _, ref := range m.Maps {
		if tex := textures[ref.Texture]; tex != nil {
			mat.SetMap(graph.MapSlot(ref.Slot), tex)
		}
	}
	return mat
}

func buildGeometry(m meshz.Mesh) *graph.Geometry {
	positions := make([]float32, 0, len(m.Positions)*3)
	for _, p := range m.Positions {
		positions = append(positions, p[0], p[1], p[2])
	}
	var normals []float32
	if len(m.Normals) > 0 {
		normals = make([]float32, 0, len(m.Normals)*3)
		for _, n := range m.Normals {
			normals = append(normals, n[0], n[1], n[2])
		}
	}
	var uvs []float32
	if len(m.UVs) > 0 {
		uvs = make([]float32, 0, len(m.UVs)*2)
		for _, uv := range m.UVs {
			uvs = append(uvs, uv[0], uv[1])
		}
	}
	return graph.NewGeometry(positions, normals, uvs, m.Indices)
}
