package graph

import (
	"image"

	"github.com/Faultbox/retroscene/internal/engine/gpu"
	"github.com/Faultbox/retroscene/pkg/math"
)

// MaterialKind selects the shading model.
type MaterialKind uint8

const (
	MaterialPhong MaterialKind = iota
	MaterialBasic
)

// Side selects which triangle faces are drawn.
type Side uint8

const (
	SideFront Side = iota
	SideBack
	SideDouble
)

// MapSlot names a texture input of a material.
type MapSlot uint8

const (
	MapColor MapSlot = iota
	MapNormal
	MapEmissive
	MapSpecular
	MapLight
	mapSlotCount
)

// MapSlots returns every slot in release order.
func MapSlots() []MapSlot {
	slots := make([]MapSlot, mapSlotCount)
	for i := range slots {
		slots[i] = MapSlot(i)
	}
	return slots
}

// White is the neutral material color.
var White = math.Vec3{X: 1, Y: 1, Z: 1}

// Material describes surface appearance. Its uniform block is rewritten
// only when the material is dirty.
type Material struct {
	ID        ID
	Name      string
	Kind      MaterialKind
	Emissive  math.Vec3
	Shininess float32
	Side      Side
	Maps      map[MapSlot]*Texture

	Handle gpu.Handle

	color math.Vec3
	dirty bool
}

// NewMaterial creates a material with the given kind and color.
func NewMaterial(name string, kind MaterialKind, color math.Vec3) *Material {
	return &Material{
		ID:        NewID(),
		Name:      name,
		Kind:      kind,
		Shininess: 30,
		Maps:      make(map[MapSlot]*Texture),
		color:     color,
		dirty:     true,
	}
}

// Color returns the base color.
func (m *Material) Color() math.Vec3 {
	return m.color
}

// SetColor changes the base color and marks the material dirty.
func (m *Material) SetColor(c math.Vec3) {
	if c == m.color {
		return
	}
	m.color = c
	m.dirty = true
}

// SetMap assigns a texture to a slot; nil clears the slot.
func (m *Material) SetMap(slot MapSlot, tex *Texture) {
	if tex == nil {
		delete(m.Maps, slot)
	} else {
		m.Maps[slot] = tex
	}
	m.dirty = true
}

// MarkDirty forces the next render to rewrite the uniform block.
func (m *Material) MarkDirty() {
	m.dirty = true
}

// Dirty reports whether the uniform block is stale.
func (m *Material) Dirty() bool {
	return m.dirty
}

// MarkClean records that the uniform block matches the material.
func (m *Material) MarkClean() {
	m.dirty = false
}

// Texture is an RGBA image and its GPU handle.
type Texture struct {
	ID     ID
	Name   string
	Image  *image.RGBA
	Filter gpu.Filter
	Repeat bool

	Handle gpu.Handle
}

// NewTexture wraps a decoded image.
func NewTexture(name string, img *image.RGBA) *Texture {
	return &Texture{ID: NewID(), Name: name, Image: img, Repeat: true}
}

// Data returns the upload form of the texture.
func (t *Texture) Data() gpu.TextureData {
	b := t.Image.Bounds()
	return gpu.TextureData{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: t.Image.Pix,
		Filter: t.Filter,
		Repeat: t.Repeat,
	}
}
