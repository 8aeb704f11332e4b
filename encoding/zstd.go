package encoding

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

type zstdCodec struct {
	inner Codec
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewZstdCodec wraps inner with zstd compression at the given zstd level.
// Marshaled blobs are compressed frames; Unmarshal decompresses before
// delegating to inner.
func NewZstdCodec(inner Codec, level int) (Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}

	return &zstdCodec{
		inner: inner,
		enc:   enc,
		dec:   dec,
	}, nil
}

func (c *zstdCodec) Marshal(v any) ([]byte, error) {
	data, err := c.inner.Marshal(v)
	if err != nil {
		return nil, err
	}

	return c.enc.EncodeAll(data, nil), nil
}

func (c *zstdCodec) Unmarshal(data []byte, v any) error {
	plain, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("failed to decompress blob: %w", err)
	}

	return c.inner.Unmarshal(plain, v)
}
