package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/retroscene/internal/engine/geometry"
	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/pkg/meshz"
)

const screenTextureSize = 64

// sampleAsset builds a small retro computer out of primitives: a case, a
// glowing screen, a keyboard and a stand.
func sampleAsset() (*meshz.Asset, error) {
	colorPNG, glowBMP, err := screenTextures()
	if err != nil {
		return nil, err
	}

	identity := [4]float32{0, 0, 0, 1}
	one := [3]float32{1, 1, 1}
	a := &meshz.Asset{
		Textures: []meshz.Texture{
			{Name: "screen_color", Encoding: meshz.EncodingPNG, Data: colorPNG},
			{Name: "screen_glow", Encoding: meshz.EncodingBMP, Data: glowBMP},
		},
		Materials: []meshz.Material{
			{Name: "plastic", Kind: meshz.KindPhong, Color: [3]float32{0.86, 0.82, 0.7}, Shininess: 20},
			{Name: "screen", Kind: meshz.KindBasic, Color: [3]float32{1, 1, 1}, Maps: []meshz.MapRef{
				{Slot: meshz.MapColor, Texture: 0},
				{Slot: meshz.MapEmissive, Texture: 1},
			}},
			{Name: "keys", Kind: meshz.KindPhong, Color: [3]float32{0.3, 0.3, 0.28}, Shininess: 60},
		},
		Meshes: []meshz.Mesh{
			toMesh("case", geometry.Box(1.2, 1, 1)),
			toMesh("panel", geometry.Box(0.9, 0.7, 0.02)),
			toMesh("keyboard", geometry.Box(1.2, 0.08, 0.45)),
			toMesh("stand", geometry.Cone(0.35, 0.2, 24)),
		},
		Nodes: []meshz.Node{
			{Name: "computer", Parent: -1, Rotation: identity, Scale: one, Mesh: -1, Material: -1},
			{Name: "case", Parent: 0, Rotation: identity, Scale: one, Mesh: 0, Material: 0},
			{Name: "screen", Parent: 1, Position: [3]float32{0, 0.05, 0.51}, Rotation: identity, Scale: one, Mesh: 1, Material: 1},
			{Name: "keyboard", Parent: 0, Position: [3]float32{0, -0.56, 0.8}, Rotation: identity, Scale: one, Mesh: 2, Material: 2},
			{Name: "stand", Parent: 0, Position: [3]float32{0, -0.6, 0}, Rotation: identity, Scale: one, Mesh: 3, Material: 0},
		},
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("sample asset: %w", err)
	}
	return a, nil
}

// screenTextures draws green scanlines, PNG-encoded for the color map and
// BMP-encoded for the glow map.
func screenTextures() (colorPNG, glowBMP []byte, err error) {
	img := image.NewRGBA(image.Rect(0, 0, screenTextureSize, screenTextureSize))
	for y := range screenTextureSize {
		c := color.RGBA{G: 60, A: 255}
		if y%4 < 2 {
			c = color.RGBA{R: 40, G: 220, B: 90, A: 255}
		}
		for x := range screenTextureSize {
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil, fmt.Errorf("encoding screen PNG: %w", err)
	}
	colorPNG = bytes.Clone(buf.Bytes())

	buf.Reset()
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, nil, fmt.Errorf("encoding screen BMP: %w", err)
	}
	return colorPNG, buf.Bytes(), nil
}

func toMesh(name string, g *graph.Geometry) meshz.Mesh {
	m := meshz.Mesh{Name: name, Indices: g.Indices}
	for i := 0; i+2 < len(g.Positions); i += 3 {
		m.Positions = append(m.Positions, [3]float32{g.Positions[i], g.Positions[i+1], g.Positions[i+2]})
	}
	for i := 0; i+2 < len(g.Normals); i += 3 {
		m.Normals = append(m.Normals, [3]float32{g.Normals[i], g.Normals[i+1], g.Normals[i+2]})
	}
	for i := 0; i+1 < len(g.UVs); i += 2 {
		m.UVs = append(m.UVs, [2]float32{g.UVs[i], g.UVs[i+1]})
	}
	return m
}
