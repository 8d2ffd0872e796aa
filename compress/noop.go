package compress

import (
	"io"

	"github.com/apack-io/apack/format"
)

// NoOpProvider implements the NONE (id 0) compression algorithm: it passes
// bytes through unchanged. It exists so the chunk pipeline can treat "no
// compression configured" uniformly through the same Provider interface
// instead of special-casing a nil provider everywhere.
type NoOpProvider struct{}

var _ Provider = NoOpProvider{}

// NewNoOpProvider creates a NONE compression provider.
func NewNoOpProvider() NoOpProvider { return NoOpProvider{} }

func (NoOpProvider) ID() format.CompressionAlgo { return format.CompressionNone }
func (NoOpProvider) Name() string               { return "none" }

func (NoOpProvider) CompressBlock(src []byte, _ int) ([]byte, error) {
	return src, nil
}

func (NoOpProvider) DecompressBlock(src []byte, _ int) ([]byte, error) {
	return src, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (NoOpProvider) NewStreamWriter(w io.Writer, _ int) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (NoOpProvider) NewStreamReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}
