// Package compress implements the APACK compression capability:
// block compress/decompress plus streaming wrappers, for the registered
// NONE, ZSTD, and LZ4 algorithms.
//
// The chunk pipeline needs to (a) pass an explicit compression level and
// (b) know the expected original size up front, so DecompressBlock takes
// the expected size and preallocates exactly once instead of growing a
// guess buffer.
package compress

import (
	"fmt"
	"io"
	"sync"

	"github.com/apack-io/apack/format"
)

// Provider is a compression capability: block compress/decompress plus
// streaming wrappers over byte sinks/sources. Implementations must be
// stateless after construction; any per-call scratch state belongs in the
// call, not the receiver, so a single Provider value is safe to share
// across concurrently-used chunked streams.
type Provider interface {
	// ID returns the provider's fixed numeric algorithm ID.
	ID() format.CompressionAlgo
	// Name returns the provider's case-insensitive registry name.
	Name() string
	// CompressBlock compresses src at the given level and returns the
	// compressed bytes. level is provider-specific; 0 means "default".
	CompressBlock(src []byte, level int) ([]byte, error)
	// DecompressBlock decompresses src, which is known to expand to
	// exactly expectedOriginalSize bytes. A mismatch between the
	// decompressed length and expectedOriginalSize is a format error.
	DecompressBlock(src []byte, expectedOriginalSize int) ([]byte, error)
	// NewStreamWriter wraps w so that bytes written to the result are
	// compressed into w. The caller must Close the returned writer to
	// flush the final block.
	NewStreamWriter(w io.Writer, level int) (io.WriteCloser, error)
	// NewStreamReader wraps r so that bytes read from the result are
	// decompressed from r.
	NewStreamReader(r io.Reader) (io.ReadCloser, error)
}

// registry is the process-wide, read-mostly compression provider table,
// keyed by both numeric ID and lower-cased name.
type registry struct {
	mu      sync.RWMutex
	byID    map[format.CompressionAlgo]Provider
	byName  map[string]Provider
}

var defaultRegistry = newRegistry()

func newRegistry() *registry {
	return &registry{
		byID:   make(map[format.CompressionAlgo]Provider),
		byName: make(map[string]Provider),
	}
}

func (reg *registry) register(p Provider) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.byID[p.ID()] = p
	reg.byName[lower(p.Name())] = p
}

func (reg *registry) byIDLookup(id format.CompressionAlgo) (Provider, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	p, ok := reg.byID[id]

	return p, ok
}

func (reg *registry) byNameLookup(name string) (Provider, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	p, ok := reg.byName[lower(name)]

	return p, ok
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}

	return string(b)
}

func init() {
	defaultRegistry.register(NewNoOpProvider())
	defaultRegistry.register(NewZstdProvider())
	defaultRegistry.register(NewLZ4Provider())
}

// Register adds a Provider to the default registry, or replaces the
// provider currently registered under the same ID/name. Intended for
// extension by external callers before any archive is opened.
func Register(p Provider) {
	defaultRegistry.register(p)
}

// ByID resolves a provider by its numeric algorithm ID.
func ByID(id format.CompressionAlgo) (Provider, error) {
	p, ok := defaultRegistry.byIDLookup(id)
	if !ok {
		return nil, fmt.Errorf("compress: unregistered compression algorithm id %d", id)
	}

	return p, nil
}

// ByName resolves a provider by its case-insensitive registry name.
func ByName(name string) (Provider, error) {
	p, ok := defaultRegistry.byNameLookup(name)
	if !ok {
		return nil, fmt.Errorf("compress: unregistered compression algorithm %q", name)
	}

	return p, nil
}
