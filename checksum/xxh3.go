package checksum

import (
	"github.com/cespare/xxhash/v2"

	"github.com/apack-io/apack/format"
)

// XXH3Provider implements the XXH3-64 (id 1) checksum algorithm, APACK's
// default. The same hash serves two purposes: chunk checksums and entry
// name hashing into TocEntry.NameHash.
type XXH3Provider struct{}

var _ Provider = XXH3Provider{}

// NewXXH3Provider creates an XXH3-64 checksum provider.
func NewXXH3Provider() XXH3Provider { return XXH3Provider{} }

func (XXH3Provider) ID() format.ChecksumAlgo { return format.ChecksumXXH3_64 }
func (XXH3Provider) Name() string            { return "xxh3-64" }
func (XXH3Provider) Size() int               { return 8 }

func (XXH3Provider) Compute(data []byte) uint64 {
	return xxhash.Sum64(data)
}

func (XXH3Provider) NewCalculator() Calculator {
	return &xxh3Calculator{d: xxhash.New()}
}

type xxh3Calculator struct {
	d *xxhash.Digest
}

func (c *xxh3Calculator) Update(p []byte) { c.d.Write(p) } //nolint: errcheck
func (c *xxh3Calculator) Value() uint64   { return c.d.Sum64() }
func (c *xxh3Calculator) Reset()          { c.d.Reset() }

// NameHash computes the 32-bit TOC name hash for an entry name: the lower
// 32 bits of XXH3-64 over its UTF-8 bytes.
func NameHash(name string) uint32 {
	return Lower32(xxhash.Sum64String(name))
}
