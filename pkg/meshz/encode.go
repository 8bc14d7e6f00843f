package meshz

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
)

// Encode validates a and writes it to w as a compressed MSHZ file.
func Encode(w io.Writer, a *Asset) error {
	if err := a.Validate(); err != nil {
		return err
	}

	payload, err := encodePayload(a)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	var compressed bytes.Buffer
	zw, err := zlib.NewWriterLevel(&compressed, zlib.BestCompression)
	if err != nil {
		return err
	}
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("compressing payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing payload: %w", err)
	}

	header := Header{
		Version:          Version,
		Flags:            FlagCompressed,
		CompressedSize:   uint32(compressed.Len()),
		UncompressedSize: uint32(len(payload)),
		Checksum:         crc32.ChecksumIEEE(payload),
	}
	copy(header.Magic[:], Magic)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(compressed.Bytes()); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	return nil
}

// EncodeFile writes a to path.
func EncodeFile(path string, a *Asset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := Encode(f, a); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type payloadWriter struct {
	buf bytes.Buffer
	err error
}

func (p *payloadWriter) write(v any) {
	if p.err != nil {
		return
	}
	p.err = binary.Write(&p.buf, binary.LittleEndian, v)
}

func (p *payloadWriter) str(s string) {
	if len(s) > math.MaxUint16 {
		p.err = fmt.Errorf("name too long: %d bytes", len(s))
		return
	}
	p.write(uint16(len(s)))
	p.buf.WriteString(s)
}

func (p *payloadWriter) flag(present bool) {
	if present {
		p.write(uint8(1))
	} else {
		p.write(uint8(0))
	}
}

func encodePayload(a *Asset) ([]byte, error) {
	p := &payloadWriter{}

	p.write(uint32(len(a.Textures)))
	for _, t := range a.Textures {
		p.str(t.Name)
		p.write(uint8(t.Encoding))
		p.write(uint32(len(t.Data)))
		p.buf.Write(t.Data)
	}

	p.write(uint32(len(a.Materials)))
	for _, m := range a.Materials {
		if len(m.Maps) > math.MaxUint8 {
			return nil, fmt.Errorf("material %q has %d maps", m.Name, len(m.Maps))
		}
		p.str(m.Name)
		p.write(uint8(m.Kind))
		p.write(m.Color)
		p.write(m.Shininess)
		p.write(uint8(m.Side))
		p.write(uint8(len(m.Maps)))
		for _, ref := range m.Maps {
			p.write(uint8(ref.Slot))
			p.write(ref.Texture)
		}
	}

	p.write(uint32(len(a.Meshes)))
	for _, m := range a.Meshes {
		p.str(m.Name)
		p.write(uint32(len(m.Positions)))
		if len(m.Positions) > 0 {
			p.write(m.Positions)
		}
		p.flag(len(m.Normals) > 0)
		if len(m.Normals) > 0 {
			p.write(m.Normals)
		}
		p.flag(len(m.UVs) > 0)
		if len(m.UVs) > 0 {
			p.write(m.UVs)
		}
		p.write(uint32(len(m.Indices)))
		if len(m.Indices) > 0 {
			p.write(m.Indices)
		}
	}

	p.write(uint32(len(a.Nodes)))
	for _, n := range a.Nodes {
		p.str(n.Name)
		p.write(n.Parent)
		p.write(n.Position)
		p.write(n.Rotation)
		p.write(n.Scale)
		p.write(n.Mesh)
		p.write(n.Material)
	}

	if p.err != nil {
		return nil, p.err
	}
	return p.buf.Bytes(), nil
}
