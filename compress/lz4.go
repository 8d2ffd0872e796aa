package compress

import (
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
)

// LZ4Provider implements the LZ4 (id 2) compression algorithm with a
// pooled lz4.Compressor (stateful, benefits from reuse). DecompressBlock
// always knows the expected original size up front (it comes from the
// chunk header), so the destination is a single exact-size allocation;
// NewStreamReader delegates to lz4.Reader, which does its own internal
// buffering.
type LZ4Provider struct{}

var _ Provider = LZ4Provider{}

// NewLZ4Provider creates an LZ4 compression provider.
func NewLZ4Provider() LZ4Provider { return LZ4Provider{} }

func (LZ4Provider) ID() format.CompressionAlgo { return format.CompressionLZ4 }
func (LZ4Provider) Name() string               { return "lz4" }

var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

func (LZ4Provider) CompressBlock(src []byte, level int) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(src)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(src, dst)
	if err != nil {
		return nil, &errs.DecompressionFailedError{Algorithm: "lz4", Detail: err.Error()}
	}

	if n == 0 {
		// lz4's block compressor returns n == 0 when the input does not
		// compress. CompressBlock reports this the same way every other
		// provider reports "no smaller representation": an empty,
		// non-nil slice, which the stream package's adaptive fallback
		// recognizes and falls back to storing the
		// original bytes uncompressed.
		return []byte{}, nil
	}

	return dst[:n], nil
}

func (LZ4Provider) DecompressBlock(src []byte, expectedOriginalSize int) ([]byte, error) {
	if len(src) == 0 {
		if expectedOriginalSize > 0 {
			return nil, &errs.DecompressionFailedError{
				Algorithm: "lz4",
				Detail:    fmt.Sprintf("decompressed length 0 does not match expected %d", expectedOriginalSize),
			}
		}

		return []byte{}, nil
	}

	dst := make([]byte, expectedOriginalSize)

	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, &errs.DecompressionFailedError{Algorithm: "lz4", Detail: err.Error()}
	}

	if n != expectedOriginalSize {
		return nil, &errs.DecompressionFailedError{
			Algorithm: "lz4",
			Detail:    fmt.Sprintf("decompressed length %d does not match expected %d", n, expectedOriginalSize),
		}
	}

	return dst, nil
}

func (LZ4Provider) NewStreamWriter(w io.Writer, level int) (io.WriteCloser, error) {
	zw := lz4.NewWriter(w)
	opts := []lz4.Option{lz4.CompressionLevelOption(lz4Level(level))}
	if err := zw.Apply(opts...); err != nil {
		return nil, &errs.DecompressionFailedError{Algorithm: "lz4", Detail: err.Error()}
	}

	return zw, nil
}

type lz4StreamReader struct {
	r *lz4.Reader
}

func (r *lz4StreamReader) Read(p []byte) (int, error) { return r.r.Read(p) }
func (r *lz4StreamReader) Close() error                { return nil }

func (LZ4Provider) NewStreamReader(r io.Reader) (io.ReadCloser, error) {
	return &lz4StreamReader{r: lz4.NewReader(r)}, nil
}

func lz4Level(level int) lz4.CompressionLevel {
	switch {
	case level <= 0:
		return lz4.Fast
	case level >= 9:
		return lz4.Level9
	default:
		return lz4.CompressionLevel(level)
	}
}
