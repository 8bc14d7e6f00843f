package meshz

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
)

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// MaxPayload bounds the uncompressed payload size. Zero means
	// DefaultMaxPayload.
	MaxPayload uint32
	// Inflater is reused across calls when set.
	Inflater *Inflater
}

// Decode reads an MSHZ file from r.
func Decode(r io.Reader, opts DecodeOptions) (*Asset, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	limit := opts.MaxPayload
	if limit == 0 {
		limit = DefaultMaxPayload
	}
	if header.UncompressedSize > limit || header.CompressedSize > limit {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, header.UncompressedSize, limit)
	}

	raw := make([]byte, header.CompressedSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: reading payload: %v", ErrTruncated, err)
	}

	payload := raw
	if header.Flags&FlagCompressed != 0 {
		inflater := opts.Inflater
		if inflater == nil {
			inflater = NewInflater()
		}
		payload, err = inflater.Inflate(raw, int(header.UncompressedSize))
		if err != nil {
			return nil, err
		}
	} else if header.CompressedSize != header.UncompressedSize {
		return nil, fmt.Errorf("%w: stored payload size %d != %d", ErrTruncated, header.CompressedSize, header.UncompressedSize)
	}

	if crc32.ChecksumIEEE(payload) != header.Checksum {
		return nil, ErrChecksum
	}

	asset, err := parsePayload(payload)
	if err != nil {
		return nil, err
	}
	if err := asset.Validate(); err != nil {
		return nil, err
	}
	return asset, nil
}

// DecodeFile decodes the MSHZ file at path.
func DecodeFile(path string, opts DecodeOptions) (*Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return Decode(f, opts)
}

// ReadHeader reads and checks the fixed header.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("%w: reading header: %v", ErrTruncated, err)
	}
	if string(h.Magic[:]) != Magic {
		return h, ErrInvalidMagic
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return h, nil
}

// payloadReader reads little-endian fields and keeps the first error.
type payloadReader struct {
	r   *bytes.Reader
	err error
}

func (p *payloadReader) read(v any) {
	if p.err != nil {
		return
	}
	if err := binary.Read(p.r, binary.LittleEndian, v); err != nil {
		p.err = ErrTruncated
	}
}

func (p *payloadReader) u8() uint8 {
	var v uint8
	p.read(&v)
	return v
}

func (p *payloadReader) u32() uint32 {
	var v uint32
	p.read(&v)
	return v
}

func (p *payloadReader) i32() int32 {
	var v int32
	p.read(&v)
	return v
}

func (p *payloadReader) f32() float32 {
	var v uint32
	p.read(&v)
	return math.Float32frombits(v)
}

// count reads an element count and rejects values that cannot fit in
// the remaining bytes given the minimum element size.
func (p *payloadReader) count(elemSize int) int {
	n := p.u32()
	if p.err != nil {
		return 0
	}
	if uint64(n)*uint64(elemSize) > uint64(p.r.Len()) {
		p.err = ErrTruncated
		return 0
	}
	return int(n)
}

func (p *payloadReader) str() string {
	var n uint16
	p.read(&n)
	if p.err != nil {
		return ""
	}
	if int(n) > p.r.Len() {
		p.err = ErrTruncated
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(p.r, buf); err != nil {
		p.err = ErrTruncated
		return ""
	}
	return string(buf)
}

func (p *payloadReader) bytes() []byte {
	n := p.count(1)
	if p.err != nil {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(p.r, buf); err != nil {
		p.err = ErrTruncated
		return nil
	}
	return buf
}

func (p *payloadReader) vec3s(n int) [][3]float32 {
	if p.err != nil || n == 0 {
		return nil
	}
	out := make([][3]float32, n)
	p.read(out)
	return out
}

func parsePayload(data []byte) (*Asset, error) {
	p := &payloadReader{r: bytes.NewReader(data)}
	asset := &Asset{}

	// Textures
	texCount := p.count(7)
	for i := 0; i < texCount && p.err == nil; i++ {
		t := Texture{Name: p.str(), Encoding: TextureEncoding(p.u8())}
		t.Data = p.bytes()
		asset.Textures = append(asset.Textures, t)
	}

	// Materials
	matCount := p.count(21)
	for i := 0; i < matCount && p.err == nil; i++ {
		m := Material{Name: p.str(), Kind: MaterialKind(p.u8())}
		m.Color = [3]float32{p.f32(), p.f32(), p.f32()}
		m.Shininess = p.f32()
		m.Side = Side(p.u8())
		mapCount := int(p.u8())
		for j := 0; j < mapCount && p.err == nil; j++ {
			m.Maps = append(m.Maps, MapRef{Slot: MapSlot(p.u8()), Texture: p.i32()})
		}
		asset.Materials = append(asset.Materials, m)
	}

	// Meshes
	meshCount := p.count(12)
	for i := 0; i < meshCount && p.err == nil; i++ {
		m := Mesh{Name: p.str()}
		vertexCount := p.count(12)
		m.Positions = p.vec3s(vertexCount)
		if p.u8() != 0 {
			m.Normals = p.vec3s(vertexCount)
		}
		if p.u8() != 0 && p.err == nil && vertexCount > 0 {
			if vertexCount*8 > p.r.Len() {
				p.err = ErrTruncated
				break
			}
			m.UVs = make([][2]float32, vertexCount)
			p.read(m.UVs)
		}
		indexCount := p.count(4)
		if p.err == nil && indexCount > 0 {
			m.Indices = make([]uint32, indexCount)
			p.read(m.Indices)
		}
		asset.Meshes = append(asset.Meshes, m)
	}

	// Nodes
	nodeCount := p.count(54)
	for i := 0; i < nodeCount && p.err == nil; i++ {
		n := Node{Name: p.str(), Parent: p.i32()}
		p.read(&n.Position)
		p.read(&n.Rotation)
		p.read(&n.Scale)
		n.Mesh = p.i32()
		n.Material = p.i32()
		asset.Nodes = append(asset.Nodes, n)
	}

	if p.err != nil {
		return nil, p.err
	}
	if p.r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing payload bytes", ErrBadIndex, p.r.Len())
	}
	return asset, nil
}

// IsFormatError reports whether err was caused by malformed MSHZ data
// rather than an I/O failure.
func IsFormatError(err error) bool {
	for _, target := range []error{ErrInvalidMagic, ErrUnsupportedVersion, ErrTruncated, ErrChecksum, ErrTooLarge, ErrBadIndex} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
