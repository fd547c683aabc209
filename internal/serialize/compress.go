package serialize

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Compressor handles ZStandard compression of snapshots.
// Create once and reuse to eliminate allocations.
type Compressor struct {
	encoder *zstd.Encoder
}

// NewCompressor creates a reusable ZStandard compressor.
// Caller must call Close() when done to release resources.
func NewCompressor() (*Compressor, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &Compressor{encoder: encoder}, nil
}

// Compress compresses data using ZStandard.
// Safe for concurrent use from multiple goroutines.
func (c *Compressor) Compress(data []byte) []byte {
	if len(data) == 0 {
		return []byte{}
	}
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

// Close releases compressor resources.
func (c *Compressor) Close() error {
	if c.encoder != nil {
		return c.encoder.Close()
	}
	return nil
}

// Decompressor handles ZStandard decompression.
// Create once and reuse to eliminate allocations.
type Decompressor struct {
	decoder *zstd.Decoder
}

// NewDecompressor creates a reusable ZStandard decompressor.
// Caller must call Close() when done to release resources.
func NewDecompressor() (*Decompressor, error) {
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxSnapshotSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Decompressor{decoder: decoder}, nil
}

// Decompress decompresses ZStandard data.
// Safe for concurrent use from multiple goroutines.
func (d *Decompressor) Decompress(compressed []byte) ([]byte, error) {
	if len(compressed) == 0 {
		return []byte{}, nil
	}

	decompressed, err := d.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return decompressed, nil
}

// Close releases decompressor resources.
func (d *Decompressor) Close() {
	if d.decoder != nil {
		d.decoder.Close()
	}
}

// Shared codecs; EncodeAll and DecodeAll are goroutine-safe.
var (
	sharedCompressor   = sync.OnceValues(NewCompressor)
	sharedDecompressor = sync.OnceValues(NewDecompressor)
)
