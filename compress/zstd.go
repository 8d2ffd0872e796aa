package compress

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
)

// ZstdProvider implements the ZSTD (id 1) compression algorithm.
//
// Default-level encoders and decoders are reused via sync.Pool:
// klauspost/compress/zstd documents that its decoder "has been designed
// to operate without allocations after a warmup" when reused. A
// non-default level builds a one-shot encoder, since levels are rare
// enough in practice that pooling one encoder per level isn't worth the
// bookkeeping.
type ZstdProvider struct{}

var _ Provider = ZstdProvider{}

// NewZstdProvider creates a ZSTD compression provider.
func NewZstdProvider() ZstdProvider { return ZstdProvider{} }

func (ZstdProvider) ID() format.CompressionAlgo { return format.CompressionZstd }
func (ZstdProvider) Name() string               { return "zstd" }

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("compress: failed to create zstd encoder: %v", err))
		}

		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("compress: failed to create zstd decoder: %v", err))
		}

		return dec
	},
}

func zstdLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 0:
		return zstd.SpeedDefault
	case level == 1:
		return zstd.SpeedFastest
	case level >= 4:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedBetterCompression
	}
}

func (ZstdProvider) CompressBlock(src []byte, level int) ([]byte, error) {
	if level <= 0 {
		enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(enc)

		return enc.EncodeAll(src, nil), nil
	}

	levelEnc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdLevel(level)))
	if err != nil {
		return nil, &errs.DecompressionFailedError{Algorithm: "zstd", Detail: err.Error()}
	}
	defer levelEnc.Close()

	return levelEnc.EncodeAll(src, nil), nil
}

func (ZstdProvider) DecompressBlock(src []byte, expectedOriginalSize int) ([]byte, error) {
	if len(src) == 0 {
		if expectedOriginalSize > 0 {
			return nil, &errs.DecompressionFailedError{
				Algorithm: "zstd",
				Detail:    fmt.Sprintf("decompressed length 0 does not match expected %d", expectedOriginalSize),
			}
		}

		return []byte{}, nil
	}

	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	dst := make([]byte, 0, expectedOriginalSize)

	out, err := dec.DecodeAll(src, dst)
	if err != nil {
		return nil, &errs.DecompressionFailedError{Algorithm: "zstd", Detail: err.Error()}
	}

	if expectedOriginalSize >= 0 && len(out) != expectedOriginalSize {
		return nil, &errs.DecompressionFailedError{
			Algorithm: "zstd",
			Detail:    fmt.Sprintf("decompressed length %d does not match expected %d", len(out), expectedOriginalSize),
		}
	}

	return out, nil
}

func (ZstdProvider) NewStreamWriter(w io.Writer, level int) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel(level)))
	if err != nil {
		return nil, &errs.DecompressionFailedError{Algorithm: "zstd", Detail: err.Error()}
	}

	return enc, nil
}

type zstdStreamReader struct {
	dec *zstd.Decoder
}

func (r *zstdStreamReader) Read(p []byte) (int, error) { return r.dec.Read(p) }
func (r *zstdStreamReader) Close() error                { r.dec.Close(); return nil }

func (ZstdProvider) NewStreamReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, &errs.DecompressionFailedError{Algorithm: "zstd", Detail: err.Error()}
	}

	return &zstdStreamReader{dec: dec}, nil
}
