package meshz

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"reflect"
	"sync"
	"testing"
)

func testAsset() *Asset {
	return &Asset{
		Textures: []Texture{
			{Name: "screen", Encoding: EncodingPNG, Data: []byte{1, 2, 3, 4}},
		},
		Materials: []Material{
			{Name: "case", Kind: KindPhong, Color: [3]float32{1, 1, 1}, Shininess: 30, Side: SideDouble},
			{Name: "glass", Kind: KindBasic, Color: [3]float32{0.2, 0.8, 0.2}, Side: SideFront,
				Maps: []MapRef{{Slot: MapColor, Texture: 0}}},
		},
		Meshes: []Mesh{
			{
				Name:      "quad",
				Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
				Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
				UVs:       [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
				Indices:   []uint32{0, 1, 2, 0, 2, 3},
			},
		},
		Nodes: []Node{
			{Name: "Scene", Parent: -1, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}, Mesh: -1, Material: -1},
			{Name: "body", Parent: 0, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}, Mesh: 0, Material: 0},
			{Name: "screen", Parent: 1, Position: [3]float32{0, 0, 0.1}, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}, Mesh: 0, Material: 1},
		},
	}
}

func encodeAsset(t *testing.T, a *Asset) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, a); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeEncoded(t *testing.T) {
	want := testAsset()
	data := encodeAsset(t, want)

	got, err := Decode(bytes.NewReader(data), DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decoded asset differs:\n got %+v\nwant %+v", got, want)
	}
	if got.TriangleCount() != 2 {
		t.Errorf("TriangleCount: got %d, want 2", got.TriangleCount())
	}
	if got.VertexCount() != 4 {
		t.Errorf("VertexCount: got %d, want 4", got.VertexCount())
	}
	if roots := got.Roots(); len(roots) != 1 || roots[0] != 0 {
		t.Errorf("Roots: got %v, want [0]", roots)
	}
	if children := got.Children(1); len(children) != 1 || children[0] != 2 {
		t.Errorf("Children(1): got %v, want [2]", children)
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := encodeAsset(t, testAsset())

	corrupt := func(mutate func([]byte)) []byte {
		data := append([]byte(nil), valid...)
		mutate(data)
		return data
	}

	tests := []struct {
		name    string
		data    []byte
		opts    DecodeOptions
		wantErr error
	}{
		{"empty data", nil, DecodeOptions{}, ErrTruncated},
		{"short header", []byte("MSH"), DecodeOptions{}, ErrTruncated},
		{"invalid magic", corrupt(func(d []byte) { copy(d, "XXXX") }), DecodeOptions{}, ErrInvalidMagic},
		{"unsupported version", corrupt(func(d []byte) { binary.LittleEndian.PutUint16(d[4:], 9) }), DecodeOptions{}, ErrUnsupportedVersion},
		{"truncated payload", valid[:len(valid)-5], DecodeOptions{}, ErrTruncated},
		{"checksum", corrupt(func(d []byte) { binary.LittleEndian.PutUint32(d[16:], 0xdeadbeef) }), DecodeOptions{}, ErrChecksum},
		{"size limit", valid, DecodeOptions{MaxPayload: 16}, ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data), tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if !IsFormatError(err) {
				t.Errorf("IsFormatError(%v) = false", err)
			}
		})
	}
}

func TestDecodeStoredPayload(t *testing.T) {
	payload, err := encodePayload(testAsset())
	if err != nil {
		t.Fatalf("encodePayload: %v", err)
	}

	header := Header{
		Version:          Version,
		CompressedSize:   uint32(len(payload)),
		UncompressedSize: uint32(len(payload)),
		Checksum:         crc32.ChecksumIEEE(payload),
	}
	copy(header.Magic[:], Magic)

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &header)
	buf.Write(payload)

	got, err := Decode(&buf, DecodeOptions{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(got.Nodes))
	}
}

func TestValidateBadIndex(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Asset)
	}{
		{"index past vertices", func(a *Asset) { a.Meshes[0].Indices[0] = 99 }},
		{"partial triangle", func(a *Asset) { a.Meshes[0].Indices = a.Meshes[0].Indices[:4] }},
		{"missing texture", func(a *Asset) { a.Materials[1].Maps[0].Texture = 5 }},
		{"forward parent", func(a *Asset) { a.Nodes[1].Parent = 2 }},
		{"missing mesh", func(a *Asset) { a.Nodes[2].Mesh = 3 }},
		{"missing material", func(a *Asset) { a.Nodes[2].Material = -2 }},
		{"normal count", func(a *Asset) { a.Meshes[0].Normals = a.Meshes[0].Normals[:1] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testAsset()
			tt.mutate(a)
			if err := a.Validate(); !errors.Is(err, ErrBadIndex) {
				t.Errorf("expected ErrBadIndex, got %v", err)
			}
			var buf bytes.Buffer
			if err := Encode(&buf, a); !errors.Is(err, ErrBadIndex) {
				t.Errorf("Encode: expected ErrBadIndex, got %v", err)
			}
		})
	}
}

func TestInflaterConcurrent(t *testing.T) {
	data := encodeAsset(t, testAsset())
	inflater := NewInflater()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, err := Decode(bytes.NewReader(data), DecodeOptions{Inflater: inflater}); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Decode: %v", err)
	}
}

func TestTextureEncodingString(t *testing.T) {
	tests := []struct {
		enc  TextureEncoding
		want string
	}{
		{EncodingPNG, "png"},
		{EncodingBMP, "bmp"},
		{EncodingTGA, "tga"},
		{TextureEncoding(9), "unknown(9)"},
	}
	for _, tt := range tests {
		if got := tt.enc.String(); got != tt.want {
			t.Errorf("String(): got %q, want %q", got, tt.want)
		}
	}
}
