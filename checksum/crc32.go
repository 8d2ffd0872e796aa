package checksum

import (
	"hash"
	"hash/crc32"

	"github.com/apack-io/apack/format"
)

// CRC32Provider implements the CRC-32 (id 0) checksum algorithm with the
// IEEE polynomial, the same polynomial used for every header, trailer,
// and TOC CRC field in the archive format.
type CRC32Provider struct{}

var _ Provider = CRC32Provider{}

// NewCRC32Provider creates a CRC-32 checksum provider.
func NewCRC32Provider() CRC32Provider { return CRC32Provider{} }

func (CRC32Provider) ID() format.ChecksumAlgo { return format.ChecksumCRC32 }
func (CRC32Provider) Name() string            { return "crc32" }
func (CRC32Provider) Size() int               { return 4 }

func (CRC32Provider) Compute(data []byte) uint64 {
	return uint64(crc32.ChecksumIEEE(data))
}

func (CRC32Provider) NewCalculator() Calculator {
	return &crc32Calculator{h: crc32.NewIEEE()}
}

type crc32Calculator struct {
	h hash.Hash32
}

func (c *crc32Calculator) Update(p []byte) { c.h.Write(p) } //nolint: errcheck
func (c *crc32Calculator) Value() uint64   { return uint64(c.h.Sum32()) }
func (c *crc32Calculator) Reset()          { c.h.Reset() }
