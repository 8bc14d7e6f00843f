// Package meshz reads and writes MSHZ files, a compact zlib-compressed
// container for small scene models (textures, materials, meshes and a
// node hierarchy).
package meshz

import (
	"errors"
	"fmt"
)

// Magic identifies an MSHZ file.
const Magic = "MSHZ"

// Version is the only payload layout this package understands.
const Version uint16 = 1

// FlagCompressed marks a zlib-compressed payload. Without it the payload
// is stored as-is and CompressedSize equals UncompressedSize.
const FlagCompressed uint16 = 1 << 0

// DefaultMaxPayload bounds the uncompressed payload accepted by Decode.
const DefaultMaxPayload = 64 << 20

// MSHZ format errors.
var (
	ErrInvalidMagic       = errors.New("invalid MSHZ magic: expected 'MSHZ'")
	ErrUnsupportedVersion = errors.New("unsupported MSHZ version")
	ErrTruncated          = errors.New("truncated MSHZ data")
	ErrChecksum           = errors.New("MSHZ payload checksum mismatch")
	ErrTooLarge           = errors.New("MSHZ payload exceeds size limit")
	ErrBadIndex           = errors.New("MSHZ reference out of range")
)

// Header is the fixed little-endian file header.
type Header struct {
	Magic            [4]byte
	Version          uint16
	Flags            uint16
	CompressedSize   uint32
	UncompressedSize uint32
	Checksum         uint32 // CRC32 (IEEE) of the uncompressed payload
}

// HeaderSize is the encoded size of Header in bytes.
const HeaderSize = 20

// TextureEncoding is the image container of an embedded texture.
type TextureEncoding uint8

const (
	EncodingPNG TextureEncoding = iota
	EncodingBMP
	EncodingTGA
)

// String returns the lower-case file extension of the encoding.
func (e TextureEncoding) String() string {
	switch e {
	case EncodingPNG:
		return "png"
	case EncodingBMP:
		return "bmp"
	case EncodingTGA:
		return "tga"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

// MaterialKind selects the shading model.
type MaterialKind uint8

const (
	KindPhong MaterialKind = iota
	KindBasic
)

// Side selects which faces are rendered.
type Side uint8

const (
	SideFront Side = iota
	SideBack
	SideDouble
)

// MapSlot names a texture binding point on a material.
type MapSlot uint8

const (
	MapColor MapSlot = iota
	MapNormal
	MapEmissive
	MapSpecular
	MapLight
)

// String returns the slot name.
func (s MapSlot) String() string {
	switch s {
	case MapColor:
		return "map"
	case MapNormal:
		return "normalMap"
	case MapEmissive:
		return "emissiveMap"
	case MapSpecular:
		return "specularMap"
	case MapLight:
		return "lightMap"
	default:
		return fmt.Sprintf("slot(%d)", uint8(s))
	}
}

// Texture is an embedded, still-encoded image.
type Texture struct {
	Name     string
	Encoding TextureEncoding
	Data     []byte
}

// MapRef binds a texture (index into Asset.Textures) to a slot.
type MapRef struct {
	Slot    MapSlot
	Texture int32
}

// Material describes surface appearance.
type Material struct {
	Name      string
	Kind      MaterialKind
	Color     [3]float32
	Shininess float32
	Side      Side
	Maps      []MapRef
}

// Mesh is indexed triangle geometry. Normals and UVs are optional but,
// when present, have one entry per position.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Indices   []uint32
}

// Node is an entry of the hierarchy. Parent, Mesh and Material are
// indices; -1 means none. A parent always precedes its children.
type Node struct {
	Name     string
	Parent   int32
	Position [3]float32
	Rotation [4]float32 // X, Y, Z, W quaternion
	Scale    [3]float32
	Mesh     int32
	Material int32
}

// Asset is a decoded MSHZ file.
type Asset struct {
	Textures  []Texture
	Materials []Material
	Meshes    []Mesh
	Nodes     []Node
}

// TriangleCount returns the number of triangles across all meshes.
func (a *Asset) TriangleCount() int {
	total := 0
	for _, m := range a.Meshes {
		total += len(m.Indices) / 3
	}
	return total
}

// VertexCount returns the number of vertices across all meshes.
func (a *Asset) VertexCount() int {
	total := 0
	for _, m := range a.Meshes {
		total += len(m.Positions)
	}
	return total
}

// Roots returns the indices of nodes without a parent.
func (a *Asset) Roots() []int {
	var roots []int
	for i, n := range a.Nodes {
		if n.Parent < 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

// Children returns the indices of the direct children of node i.
func (a *Asset) Children(i int) []int {
	var children []int
	for j, n := range a.Nodes {
		if int(n.Parent) == i {
			children = append(children, j)
		}
	}
	return children
}

// Validate checks every cross reference of the asset.
func (a *Asset) Validate() error {
	for i, m := range a.Materials {
		for _, ref := range m.Maps {
			if ref.Texture < 0 || int(ref.Texture) >= len(a.Textures) {
				return fmt.Errorf("%w: material %d texture %d", ErrBadIndex, i, ref.Texture)
			}
		}
	}
	for i, m := range a.Meshes {
		if len(m.Indices)%3 != 0 {
			return fmt.Errorf("%w: mesh %d index count %d not a multiple of 3", ErrBadIndex, i, len(m.Indices))
		}
		if m.Normals != nil && len(m.Normals) != len(m.Positions) {
			return fmt.Errorf("%w: mesh %d has %d normals for %d positions", ErrBadIndex, i, len(m.Normals), len(m.Positions))
		}
		if m.UVs != nil && len(m.UVs) != len(m.Positions) {
			return fmt.Errorf("%w: mesh %d has %d uvs for %d positions", ErrBadIndex, i, len(m.UVs), len(m.Positions))
		}
		for _, idx := range m.Indices {
			if int(idx) >= len(m.Positions) {
				return fmt.Errorf("%w: mesh %d index %d", ErrBadIndex, i, idx)
			}
		}
	}
	for i, n := range a.Nodes {
		if n.Parent >= int32(i) || n.Parent < -1 {
			return fmt.Errorf("%w: node %d parent %d", ErrBadIndex, i, n.Parent)
		}
		if n.Mesh < -1 || int(n.Mesh) >= len(a.Meshes) {
			return fmt.Errorf("%w: node %d mesh %d", ErrBadIndex, i, n.Mesh)
		}
		if n.Material < -1 || int(n.Material) >= len(a.Materials) {
			return fmt.Errorf("%w: node %d material %d", ErrBadIndex, i, n.Material)
		}
	}
	return nil
}
