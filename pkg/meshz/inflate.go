package meshz

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"sync"
)

// Inflater decompresses zlib payloads, reusing decompressor state between
// calls. It is safe for concurrent use.
type Inflater struct {
	pool sync.Pool
}

// NewInflater creates an Inflater with an empty reader pool.
func NewInflater() *Inflater {
	return &Inflater{}
}

// Inflate decompresses src, which must expand to exactly size bytes.
func (i *Inflater) Inflate(src []byte, size int) ([]byte, error) {
	reader, err := i.reader(src)
	if err != nil {
		return nil, fmt.Errorf("opening zlib stream: %w", err)
	}
	defer i.pool.Put(reader)

	out := make([]byte, size)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("%w: inflating payload: %v", ErrTruncated, err)
	}

	// Trailing data means the header lied about the size.
	var probe [1]byte
	if n, _ := reader.Read(probe[:]); n != 0 {
		return nil, fmt.Errorf("%w: payload larger than declared %d bytes", ErrTooLarge, size)
	}
	return out, nil
}

func (i *Inflater) reader(src []byte) (io.ReadCloser, error) {
	if pooled, ok := i.pool.Get().(io.ReadCloser); ok {
		if err := pooled.(zlib.Resetter).Reset(bytes.NewReader(src), nil); err != nil {
			return nil, err
		}
		return pooled, nil
	}
	return zlib.NewReader(bytes.NewReader(src))
}
