package archive

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack-io/apack/compress"
	"github.com/apack-io/apack/crypto"
	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/header"
)

// memFile is a minimal in-memory io.ReadWriteSeeker, standing in for an
// *os.File in tests that need a seekable sink for RANDOM_ACCESS writes.
type memFile struct {
	buf []byte
	pos int64
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}

	n := copy(m.buf[m.pos:end], p)
	m.pos = end

	return n, nil
}

func (m *memFile) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}

	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)

	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = m.pos + offset
	case io.SeekEnd:
		newPos = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("memFile: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("memFile: negative seek position")
	}

	m.pos = newPos

	return newPos, nil
}

func TestWriter_EmptyArchive(t *testing.T) {
	sink := &memFile{}
	w, err := NewWriter(sink)
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	// 64 (file header) + 64 (trailer header) + 0 TOC bytes.
	require.Len(t, sink.buf, 128)

	r, err := Open(sink)
	require.NoError(t, err)
	require.Equal(t, int64(64), r.fileHeader.TrailerOffset)
	require.Equal(t, int64(0), r.Info().EntryCount)
	require.Empty(t, r.TocEntries())
}

func TestWriter_SingleTinyEntry_RoundTrip(t *testing.T) {
	sink := &memFile{}
	w, err := NewWriter(sink)
	require.NoError(t, err)

	payload := []byte("Hello, APACK!")
	toc, err := w.AddEntry("hello.txt", "text/plain", nil, bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, int64(13), toc.OriginalSize)
	require.Equal(t, int64(13), toc.StoredSize)
	require.NoError(t, w.Finish())

	r, err := Open(sink)
	require.NoError(t, err)

	pe, err := r.GetByName("hello.txt")
	require.NoError(t, err)
	require.Equal(t, "text/plain", pe.Header.MimeType)

	in, err := r.OpenEntry(pe)
	require.NoError(t, err)
	got, err := io.ReadAll(in)
	require.NoError(t, err)
	require.NoError(t, in.Close())
	require.Equal(t, payload, got)
}

func TestWriter_MultiEntry_GetByIDAndName(t *testing.T) {
	sink := &memFile{}
	w, err := NewWriter(sink)
	require.NoError(t, err)

	names := []string{"a.txt", "b.txt", "c.txt"}
	payloads := [][]byte{[]byte("alpha"), []byte("bravo"), []byte("charlie")}

	var tocs []header.TocEntry
	for i, n := range names {
		toc, err := w.AddEntry(n, "text/plain", nil, bytes.NewReader(payloads[i]))
		require.NoError(t, err)
		tocs = append(tocs, toc)
	}
	require.NoError(t, w.Finish())

	r, err := Open(sink)
	require.NoError(t, err)
	require.Equal(t, int64(3), r.Info().EntryCount)

	for i, n := range names {
		byName, err := r.GetByName(n)
		require.NoError(t, err)

		byID, err := r.GetByID(tocs[i].EntryID)
		require.NoError(t, err)
		require.Equal(t, byName.Header.EntryID, byID.Header.EntryID)

		in, err := r.OpenEntry(byID)
		require.NoError(t, err)
		got, err := io.ReadAll(in)
		require.NoError(t, err)
		require.NoError(t, in.Close())
		require.Equal(t, payloads[i], got)
	}

	_, err = r.GetByName("missing.txt")
	var notFound *errs.EntryNotFoundError
	require.ErrorAs(t, err, &notFound)
}

// Two entries whose 32-bit name hashes collide share one index bucket;
// GetByName must still resolve each lookup to the entry whose full name
// matches. A genuine XXH3-32 collision is hard to construct, so the test
// forces both TOC entries into one bucket after opening.
func TestReader_NameHashCollisionResolvedByFullName(t *testing.T) {
	sink := &memFile{}
	w, err := NewWriter(sink)
	require.NoError(t, err)

	_, err = w.AddEntry("first-name.bin", "application/octet-stream", nil, bytes.NewReader([]byte("one")))
	require.NoError(t, err)
	_, err = w.AddEntry("second-name.bin", "application/octet-stream", nil, bytes.NewReader([]byte("two")))
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	r, err := Open(sink)
	require.NoError(t, err)

	// Force a collision: both TOC entries now live under the same bucket,
	// and both names' hashes resolve to that bucket, as they would if the
	// two names really hashed alike.
	firstHash := r.trailer.Entries[0].NameHash
	collided := append([]header.TocEntry{}, r.trailer.Entries...)
	collided[0].NameHash = collided[1].NameHash
	r.byNameHash = map[int32][]header.TocEntry{
		firstHash:            collided,
		collided[1].NameHash: collided,
	}

	first, err := r.GetByName("first-name.bin")
	require.NoError(t, err)
	require.Equal(t, "first-name.bin", first.Header.Name)

	second, err := r.GetByName("second-name.bin")
	require.NoError(t, err)
	require.Equal(t, "second-name.bin", second.Header.Name)
}

func TestWriter_CompressedEncryptedEntry_RoundTrip(t *testing.T) {
	comp, err := compress.ByID(format.CompressionZstd)
	require.NoError(t, err)

	enc, err := crypto.ByID(format.EncryptionAES256GCM)
	require.NoError(t, err)
	key := bytes.Repeat([]byte{0x9}, enc.KeySize())

	sink := &memFile{}
	eb := &header.EncryptionBlock{
		KDFID:      0,
		CipherID:   uint8(format.EncryptionAES256GCM),
		Salt:       bytes.Repeat([]byte{0x1}, 16),
		WrappedKey: bytes.Repeat([]byte{0x2}, 48),
	}

	w, err := NewWriter(sink,
		WithCompression(comp, 0),
		WithEncryption(enc, key, nil),
		WithEncryptionBlock(eb),
	)
	require.NoError(t, err)

	payload := bytes.Repeat([]byte("compress and encrypt me, please. "), 500)
	_, err = w.AddEntry("big.bin", "application/octet-stream", nil, bytes.NewReader(payload))
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	r, err := Open(sink, WithReaderKey(key, nil))
	require.NoError(t, err)
	require.True(t, r.fileHeader.HasMode(format.ModeEncrypted))

	pe, err := r.GetByName("big.bin")
	require.NoError(t, err)

	in, err := r.OpenEntry(pe)
	require.NoError(t, err)
	got, err := io.ReadAll(in)
	require.NoError(t, err)
	require.NoError(t, in.Close())
	require.Equal(t, payload, got)
}

func TestWriter_StreamMode_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, WithStreamMode())
	require.NoError(t, err)

	payload := bytes.Repeat([]byte("stream mode payload "), 200)
	_, err = w.AddEntry("stream.bin", "application/octet-stream", nil, bytes.NewReader(payload))
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	// A second entry is rejected in STREAM_MODE.
	_, err = w.AddEntry("second.bin", "application/octet-stream", nil, bytes.NewReader(nil))
	require.ErrorIs(t, err, errs.ErrStreamModeSingleEntry)

	r, err := Open(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.False(t, r.fileHeader.HasMode(format.ModeRandomAccess))
	require.Equal(t, payload, mustReadOneEntry(t, r))
}

func mustReadOneEntry(t *testing.T, r *Reader) []byte {
	t.Helper()

	var got []byte
	for pe, err := range r.Entries() {
		require.NoError(t, err)

		in, err := r.OpenEntry(pe)
		require.NoError(t, err)

		data, err := io.ReadAll(in)
		require.NoError(t, err)
		require.NoError(t, in.Close())

		got = data
	}

	return got
}

func TestWriter_StreamModeSinkNeedNotBeSeekable(t *testing.T) {
	var buf bytes.Buffer // bytes.Buffer is not an io.Seeker
	_, err := NewWriter(&buf, WithStreamMode())
	require.NoError(t, err)
}

func TestWriter_RandomAccessRequiresSeekableSink(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf)
	require.ErrorIs(t, err, errs.ErrShortSource)
}

func TestOpen_TamperedFileHeaderChecksumDetected(t *testing.T) {
	sink := &memFile{}
	w, err := NewWriter(sink)
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	sink.buf[8] ^= 0xFF // corrupt version_minor, inside the CRC-covered span

	_, err = Open(sink)
	var mismatch *errs.ChecksumMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestWriter_AddEntryAfterFinishRejected(t *testing.T) {
	sink := &memFile{}
	w, err := NewWriter(sink)
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	_, err = w.AddEntry("late.txt", "text/plain", nil, bytes.NewReader(nil))
	require.ErrorIs(t, err, errs.ErrWriterFinished)
}

// Flipping one bit inside an encrypted chunk's stored bytes must surface
// an integrity failure and hand the caller zero plaintext bytes.
func TestReader_TamperedEncryptedChunkYieldsNoPlaintext(t *testing.T) {
	enc, err := crypto.ByID(format.EncryptionAES256GCM)
	require.NoError(t, err)
	key := bytes.Repeat([]byte{0x5A}, enc.KeySize())

	eb := &header.EncryptionBlock{
		CipherID:   uint8(format.EncryptionAES256GCM),
		Salt:       bytes.Repeat([]byte{0x3}, 16),
		WrappedKey: bytes.Repeat([]byte{0x4}, 48),
	}

	sink := &memFile{}
	w, err := NewWriter(sink, WithEncryption(enc, key, nil), WithEncryptionBlock(eb))
	require.NoError(t, err)

	payload := bytes.Repeat([]byte{0xAB}, 1024)
	_, err = w.AddEntry("secret.bin", "application/octet-stream", nil, bytes.NewReader(payload))
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	r, err := Open(sink, WithReaderKey(key, nil))
	require.NoError(t, err)

	pe, err := r.GetByName("secret.bin")
	require.NoError(t, err)

	// Flip one bit in the first chunk's ciphertext, past the chunk header
	// and the inline nonce.
	tamperAt := pe.DataOffset() + int64(format.ChunkHeaderSize) + int64(format.NonceSize) + 5
	sink.buf[tamperAt] ^= 0x01

	in, err := r.OpenEntry(pe)
	require.NoError(t, err)
	got, err := io.ReadAll(in)
	require.Error(t, err)
	require.Empty(t, got)

	var integrity *errs.IntegrityError
	require.ErrorAs(t, err, &integrity)
}

// Entries() walks a RANDOM_ACCESS archive in TOC insertion order.
func TestReader_EntriesIterationOrder(t *testing.T) {
	sink := &memFile{}
	w, err := NewWriter(sink)
	require.NoError(t, err)

	names := []string{"z.txt", "a.txt", "m.txt"}
	for _, n := range names {
		_, err := w.AddEntry(n, "text/plain", nil, bytes.NewReader([]byte(n)))
		require.NoError(t, err)
	}
	require.NoError(t, w.Finish())

	r, err := Open(sink)
	require.NoError(t, err)

	var got []string
	for pe, err := range r.Entries() {
		require.NoError(t, err)
		got = append(got, pe.Header.Name)
	}
	require.Equal(t, names, got)
}

// Attributes written with an entry come back typed.
func TestWriter_EntryAttributesRoundTrip(t *testing.T) {
	sink := &memFile{}
	w, err := NewWriter(sink)
	require.NoError(t, err)

	attrs := []header.Attribute{
		header.NewStringAttribute("author", "maia"),
		header.NewInt64Attribute("mtime", 1753920000000),
		header.NewBoolAttribute("hidden", true),
	}
	_, err = w.AddEntry("doc.md", "text/markdown", attrs, bytes.NewReader([]byte("# hi")))
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	r, err := Open(sink)
	require.NoError(t, err)
	pe, err := r.GetByName("doc.md")
	require.NoError(t, err)
	require.True(t, pe.Header.HasFlag(format.EntryFlagHasAttributes))
	require.Len(t, pe.Header.Attributes, 3)

	author, err := pe.Header.Attributes[0].StringValue()
	require.NoError(t, err)
	require.Equal(t, "maia", author)

	mtime, err := pe.Header.Attributes[1].Int64Value()
	require.NoError(t, err)
	require.Equal(t, int64(1753920000000), mtime)

	hidden, err := pe.Header.Attributes[2].BoolValue()
	require.NoError(t, err)
	require.True(t, hidden)

	_, err = pe.Header.Attributes[0].Int64Value()
	require.ErrorIs(t, err, errs.ErrAttributeKindMismatch)
}
