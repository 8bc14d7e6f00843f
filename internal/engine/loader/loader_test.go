package loader

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	gomath "math"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Faultbox/retroscene/internal/assets"
	"github.com/Faultbox/retroscene/internal/config"
	"github.com/Faultbox/retroscene/internal/engine/graph"
	"github.com/Faultbox/retroscene/pkg/math"
	"github.com/Faultbox/retroscene/pkg/meshz"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func computerAsset(t *testing.T) *meshz.Asset {
	t.Helper()
	identity := [4]float32{0, 0, 0, 1}
	one := [3]float32{1, 1, 1}
	return &meshz.Asset{
		Textures: []meshz.Texture{
			{Name: "screen", Encoding: meshz.EncodingPNG, Data: pngBytes(t)},
			{Name: "broken", Encoding: meshz.EncodingBMP, Data: []byte("not a bmp")},
		},
		Materials: []meshz.Material{
			{Name: "case", Kind: meshz.KindPhong, Color: [3]float32{0.8, 0.8, 0.7}, Shininess: 10},
			{Name: "glass", Kind: meshz.KindBasic, Color: [3]float32{1, 1, 1}, Side: meshz.SideDouble,
				Maps: []meshz.MapRef{{Slot: meshz.MapColor, Texture: 0}, {Slot: meshz.MapEmissive, Texture: 1}}},
		},
		Meshes: []meshz.Mesh{{
			Name:      "quad",
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
			Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
			UVs:       [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
			Indices:   []uint32{0, 1, 2, 0, 2, 3},
		}},
		Nodes: []meshz.Node{
			{Name: "computer", Parent: -1, Rotation: identity, Scale: one, Mesh: -1, Material: -1},
			{Name: "case", Parent: 0, Rotation: identity, Scale: one, Mesh: 0, Material: 0},
			{Name: "screen", Parent: 0, Position: [3]float32{0, 0, 0.1}, Rotation: identity, Scale: one, Mesh: 0, Material: 1},
			{Name: "label", Parent: 1, Rotation: identity, Scale: one, Mesh: 0, Material: -1},
		},
	}
}

func newTestLoader(t *testing.T, files fstest.MapFS) *Loader {
	t.Helper()
	m := assets.NewManager()
	m.AddFS(files)
	l := New(NewDecoder(m, config.DecoderConfig{MaxPayloadMB: 1}, nil), nil)
	t.Cleanup(l.Close)
	return l
}

func encoded(t *testing.T, a *meshz.Asset) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, meshz.Encode(&buf, a))
	return buf.Bytes()
}

func wait(t *testing.T, f *Future) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := f.Wait(ctx)
	require.NoError(t, err)
	return r
}

var computer = Descriptor{Path: "models", File: "computer.mshz", Scale: 50, Position: math.Vec3{Y: -10}}

func TestLoadBuildsGraph(t *testing.T) {
	l := newTestLoader(t, fstest.MapFS{"models/computer.mshz": {Data: encoded(t, computerAsset(t))}})

	r := wait(t, l.Load(context.Background(), computer))
	require.NoError(t, r.Err)
	root := r.Node
	require.NotNil(t, root)

	assert.Equal(t, RootName, root.Name)
	assert.Equal(t, math.Vec3{X: 50, Y: 50, Z: 50}, root.Scale)
	assert.Equal(t, math.Vec3{Y: -10}, root.Position)

	caseNode := root.FindByName("case")
	screen := root.FindByName("screen")
	label := root.FindByName("label")
	require.NotNil(t, caseNode)
	require.NotNil(t, screen)
	require.NotNil(t, label)

	assert.Same(t, caseNode.Mesh.Geometry, screen.Mesh.Geometry, "geometry is shared")
	assert.Same(t, caseNode, label.Parent)
	assert.Equal(t, float32(10), caseNode.Mesh.Material.Shininess)
	assert.Equal(t, "default", label.Mesh.Material.Name)

	glass := screen.Mesh.Material
	assert.Equal(t, graph.MaterialBasic, glass.Kind)
	assert.Equal(t, graph.SideDouble, glass.Side)
	require.NotNil(t, glass.Maps[graph.MapColor])
	assert.Equal(t, 2, glass.Maps[graph.MapColor].Image.Bounds().Dx())
	assert.Nil(t, glass.Maps[graph.MapEmissive], "undecodable texture stays unbound")
	assert.True(t, caseNode.Mesh.Geometry.Handle.IsZero(), "upload is deferred")
}

func TestLoadFailures(t *testing.T) {
	l := newTestLoader(t, fstest.MapFS{
		"models/corrupt.mshz": {Data: []byte("garbage that is long enough for a header")},
	})

	r := wait(t, l.Load(context.Background(), Descriptor{Path: "models", File: "missing.mshz"}))
	assert.ErrorIs(t, r.Err, assets.ErrNotFound)
	assert.Nil(t, r.Node)

	r = wait(t, l.Load(context.Background(), Descriptor{Path: "models", File: "corrupt.mshz"}))
	assert.ErrorIs(t, r.Err, meshz.ErrInvalidMagic)
	assert.True(t, meshz.IsFormatError(r.Err))
}

func TestLoadCanceledBeforeStart(t *testing.T) {
	l := newTestLoader(t, fstest.MapFS{"models/computer.mshz": {Data: encoded(t, computerAsset(t))}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := wait(t, l.Load(ctx, computer))
	assert.ErrorIs(t, r.Err, context.Canceled)
}

func TestConcurrentLoadsGetOwnGraphs(t *testing.T) {
	l := newTestLoader(t, fstest.MapFS{"models/computer.mshz": {Data: encoded(t, computerAsset(t))}})

	const n = 8
	futures := make([]*Future, n)
	for i := range futures {
		futures[i] = l.Load(context.Background(), computer)
	}

	seen := make(map[graph.ID]bool)
	for _, f := range futures {
		r := wait(t, f)
		require.NoError(t, r.Err)
		assert.False(t, seen[r.Node.ID], "graphs are not shared between loads")
		seen[r.Node.ID] = true
	}
}

func TestPollAndClose(t *testing.T) {
	l := newTestLoader(t, fstest.MapFS{"models/computer.mshz": {Data: encoded(t, computerAsset(t))}})
	f := l.Load(context.Background(), computer)
	<-f.Done()
	r, ok := f.Poll()
	require.True(t, ok)
	require.NoError(t, r.Err)

	l.Close()
	r, ok = l.Load(context.Background(), computer).Poll()
	require.True(t, ok)
	assert.ErrorIs(t, r.Err, ErrClosed)
}

func TestWaitHonorsContext(t *testing.T) {
	f := newFuture()
	_, ok := f.Poll()
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBuildRejectsBadIndex(t *testing.T) {
	a := computerAsset(t)
	a.Nodes[1].Mesh = 7
	_, err := Build(a, nil)
	assert.ErrorIs(t, err, meshz.ErrBadIndex)
}

func TestPayloadLimit(t *testing.T) {
	tests := []struct {
		mb   int
		want uint32
	}{
		{0, 0},
		{-3, 0},
		{1, 1 << 20},
		{4095, 4095 << 20},
		{4096, gomath.MaxUint32},
		{1 << 20, gomath.MaxUint32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, payloadLimit(tt.mb), "%d MB", tt.mb)
	}
}
