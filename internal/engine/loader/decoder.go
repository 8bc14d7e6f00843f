// Package loader loads MSHZ models into scene graphs off the render thread.
package loader

import (
	"bytes"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/retroscene/internal/assets"
	"github.com/Faultbox/retroscene/internal/config"
	"github.com/Faultbox/retroscene/pkg/meshz"
)

// Decoder is the shared decoding context: where assets live, how large a
// payload may be, and the pooled zlib state. It is safe for concurrent use.
type Decoder struct {
	assets     *assets.Manager
	maxPayload uint32
	inflater   *meshz.Inflater
	log        *zap.Logger
}

// NewDecoder creates a decoder reading from m.
func NewDecoder(m *assets.Manager, cfg config.DecoderConfig, log *zap.Logger) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Decoder{
		assets:     m,
		maxPayload: payloadLimit(cfg.MaxPayloadMB),
		inflater:   meshz.NewInflater(),
		log:        log,
	}
}

// payloadLimit converts megabytes to a byte limit, saturating at the
// largest uint32 so huge values never wrap to 0 (unlimited).
func payloadLimit(mb int) uint32 {
	if mb <= 0 {
		return 0
	}
	return uint32(min(uint64(mb)<<20, gomath.MaxUint32))
}

// Decode reads and decodes the asset at name.
func (d *Decoder) Decode(name string) (*meshz.Asset, error) {
	data, err := d.assets.Load(name)
	if err != nil {
		return nil, err
	}
	asset, err := meshz.Decode(bytes.NewReader(data), meshz.DecodeOptions{
		MaxPayload: d.maxPayload,
		Inflater:   d.inflater,
	})
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	d.log.Debug("asset decoded",
		zap.String("name", name),
		zap.Int("meshes", len(asset.Meshes)),
		zap.Int("triangles", asset.TriangleCount()))
	return asset, nil
}
