// Package pool provides scratch-buffer pooling for the chunked stream
// pipeline (checksum -> compress -> encrypt on write, the inverse on
// read). A chunk's compressed output is held in a pooled scratch buffer
// while the chunk is emitted; the encryption output is allocated per
// chunk and is not pooled.
package pool

import "sync"

// Default and maximum sizes for chunk scratch buffers. A buffer larger
// than ScratchMaxThreshold is discarded rather than pooled, so one
// unusually large chunk doesn't pin oversized memory in the pool forever.
const (
	ScratchDefaultSize  = 256 * 1024       // matches format.DefaultChunkSize
	ScratchMaxThreshold = 64 * 1024 * 1024 // matches format.MaxChunkSize
)

// ByteBuffer is a reusable, growable byte buffer.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given starting capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the buffer's current contents.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Reset empties the buffer but keeps the backing array for reuse.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// Grow ensures the buffer can accept requiredBytes more bytes without
// reallocating; when it can't, the capacity grows to twice its current
// size plus requiredBytes.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	newCap := cap(bb.B)*2 + requiredBytes
	newBuf := make([]byte, len(bb.B), newCap)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Append appends data to the buffer, growing it as needed, and returns the
// buffer's new contents.
func (bb *ByteBuffer) Append(data []byte) []byte {
	bb.Grow(len(data))
	bb.B = append(bb.B, data...)

	return bb.B
}

// ByteBufferPool pools ByteBuffers of a roughly-fixed working size.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool seeding new buffers at defaultSize and
// discarding (rather than retaining) any buffer larger than maxThreshold.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves an empty ByteBuffer from the pool.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// Put returns bb to the pool, unless it grew past the discard threshold.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}

	bb.Reset()
	p.pool.Put(bb)
}

// scratchPool is the package-wide pool for chunk scratch buffers (stream package).
var scratchPool = NewByteBufferPool(ScratchDefaultSize, ScratchMaxThreshold)

// GetScratch retrieves a scratch buffer from the shared pool.
func GetScratch() *ByteBuffer { return scratchPool.Get() }

// PutScratch returns a scratch buffer to the shared pool.
func PutScratch(bb *ByteBuffer) { scratchPool.Put(bb) }
