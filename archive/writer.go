package archive

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/apack-io/apack/checksum"
	"github.com/apack-io/apack/compress"
	"github.com/apack-io/apack/crypto"
	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/header"
	"github.com/apack-io/apack/internal/options"
	"github.com/apack-io/apack/stream"
)

// WriterConfig configures a Writer.
type WriterConfig struct {
	ChunkSize int32
	Checksum  checksum.Provider // defaults to checksum.Default() (XXH3-64)

	Compression      compress.Provider // nil disables compression
	CompressionLevel int

	Encryption crypto.Provider // nil disables encryption
	Key        []byte
	AAD        []byte

	// EncryptionBlock, if non-nil, is written immediately after the file
	// header and sets the ENCRYPTED mode flag. It carries the already
	// wrapped content key produced by an external KDF collaborator;
	// Writer never derives or wraps keys itself.
	EncryptionBlock *header.EncryptionBlock

	// StreamMode writes a STREAM_MODE archive (no TOC, a StreamTrailer in
	// place of Trailer, at most one entry) to a plain io.Writer. Leave
	// false for a RANDOM_ACCESS archive, which requires an io.WriteSeeker.
	StreamMode bool
}

// DefaultWriterConfig returns a WriterConfig with the default chunk size
// and checksum algorithm, no compression or encryption.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		ChunkSize: format.DefaultChunkSize,
		Checksum:  checksum.Default(),
	}
}

// Writer writes a new APACK archive in a single forward pass.
// A Writer is not safe for concurrent use.
type Writer struct {
	sink   io.Writer
	seeker io.WriteSeeker // non-nil iff sink supports seeking

	cfg               WriterConfig
	creationTimestamp int64

	nextEntryID int64
	tocEntries  []header.TocEntry

	totalOriginal int64
	totalStored   int64

	streamChunkCount int32
	entryWritten     bool // STREAM_MODE single-entry guard

	finished bool
}

// NewWriter constructs a Writer over sink, starting from
// DefaultWriterConfig and applying opts, then immediately writes the file
// header (plus EncryptionBlock, if configured). A RANDOM_ACCESS writer
// (the default, cfg.StreamMode == false) requires sink to implement
// io.Seeker, since entry and file headers are reserved with placeholder
// values and back-patched once final sizes are known; a STREAM_MODE
// writer works over any io.Writer.
func NewWriter(sink io.Writer, opts ...WriterOption) (*Writer, error) {
	cfg := DefaultWriterConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, fmt.Errorf("archive: apply writer options: %w", err)
	}

	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = format.DefaultChunkSize
	}
	if cfg.ChunkSize < format.MinChunkSize || cfg.ChunkSize > format.MaxChunkSize {
		return nil, &errs.OutOfBoundsError{Field: "chunk_size", Value: int64(cfg.ChunkSize), Min: format.MinChunkSize, Max: format.MaxChunkSize}
	}
	if cfg.Checksum == nil {
		cfg.Checksum = checksum.Default()
	}

	seeker, _ := sink.(io.WriteSeeker)
	if !cfg.StreamMode && seeker == nil {
		return nil, errs.ErrShortSource
	}

	w := &Writer{
		sink:              sink,
		seeker:            seeker,
		cfg:               cfg,
		nextEntryID:       1,
		creationTimestamp: time.Now().UnixMilli(),
	}

	entryCount := int64(0)
	if cfg.StreamMode {
		entryCount = 1 // the single entry STREAM_MODE permits, known up front
	}

	fh := header.FileHeader{
		VersionMajor:      format.CurrentVersionMajor,
		VersionMinor:      format.CurrentVersionMinor,
		VersionPatch:      format.CurrentVersionPatch,
		CompatLevel:       format.CurrentCompatLevel,
		ModeFlags:         w.intentModeFlags(),
		ChecksumAlgoID:    uint8(cfg.Checksum.ID()),
		ChunkSize:         cfg.ChunkSize,
		EntryCount:        entryCount,
		CreationTimestamp: w.creationTimestamp,
	}
	if _, err := sink.Write(fh.Encode()); err != nil {
		return nil, fmt.Errorf("archive: write file header: %w", err)
	}

	if cfg.EncryptionBlock != nil {
		if _, err := sink.Write(cfg.EncryptionBlock.Encode()); err != nil {
			return nil, fmt.Errorf("archive: write encryption block: %w", err)
		}
	}

	return w, nil
}

// intentModeFlags reports the mode flags knowable at construction time:
// STREAM_MODE, ENCRYPTED (an EncryptionBlock was supplied), and
// COMPRESSED (a non-NONE compression provider was configured). RANDOM_ACCESS
// is only known, and set, at Finish.
func (w *Writer) intentModeFlags() uint8 {
	var f uint8
	if w.cfg.StreamMode {
		f |= format.ModeStreamMode
	}
	if w.cfg.EncryptionBlock != nil {
		f |= format.ModeEncrypted
	}
	if w.cfg.Compression != nil && w.cfg.Compression.ID() != format.CompressionNone {
		f |= format.ModeCompressed
	}

	return f
}

func (w *Writer) entryFlags(attrCount int) uint16 {
	var f uint16
	if attrCount > 0 {
		f |= format.EntryFlagHasAttributes
	}
	if w.cfg.Compression != nil && w.cfg.Compression.ID() != format.CompressionNone {
		f |= format.EntryFlagCompressed
	}
	if w.cfg.Encryption != nil && w.cfg.Encryption.ID() != format.EncryptionNone {
		f |= format.EntryFlagEncrypted
	}

	return f
}

func (w *Writer) compressionID() int32 {
	if w.cfg.Compression == nil {
		return int32(format.CompressionNone)
	}

	return int32(w.cfg.Compression.ID())
}

func (w *Writer) encryptionID() int32 {
	if w.cfg.Encryption == nil {
		return int32(format.EncryptionNone)
	}

	return int32(w.cfg.Encryption.ID())
}

func (w *Writer) outputConfig() stream.OutputConfig {
	return stream.OutputConfig{
		ChunkSize:        w.cfg.ChunkSize,
		Checksum:         w.cfg.Checksum,
		Compression:      w.cfg.Compression,
		CompressionLevel: w.cfg.CompressionLevel,
		Encryption:       w.cfg.Encryption,
		Key:              w.cfg.Key,
		AAD:              w.cfg.AAD,
	}
}

// AddEntry streams payload into a new entry named name with the given
// MIME type and attributes. In STREAM_MODE this may be called at most
// once (errs.ErrStreamModeSingleEntry on a second call).
func (w *Writer) AddEntry(name, mimeType string, attrs []header.Attribute, payload io.Reader) (header.TocEntry, error) {
	if w.cfg.StreamMode && w.entryWritten {
		return header.TocEntry{}, errs.ErrStreamModeSingleEntry
	}

	if w.finished {
		return header.TocEntry{}, errs.ErrWriterFinished
	}

	if w.cfg.StreamMode {
		w.entryWritten = true

		return w.addEntryBuffered(name, mimeType, attrs, payload)
	}

	return w.addEntryRandomAccess(name, mimeType, attrs, payload)
}

// alignSink pads the sink with zero bytes up to the next 8-byte boundary
// and returns the aligned offset. Entry headers are 8-byte aligned in the
// file, and chunk data ends wherever it ends, so each entry after the
// first may need padding.
func (w *Writer) alignSink() (int64, error) {
	pos, err := w.seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	pad := int(pos & (format.RecordAlignment - 1))
	if pad == 0 {
		return pos, nil
	}
	pad = format.RecordAlignment - pad

	if _, err := w.sink.Write(make([]byte, pad)); err != nil {
		return 0, fmt.Errorf("archive: pad to entry alignment: %w", err)
	}

	return pos + int64(pad), nil
}

// addEntryRandomAccess reserves the entry header at the current offset,
// streams the payload directly to the sink, then seeks back to
// back-patch the header's final sizes.
func (w *Writer) addEntryRandomAccess(name, mimeType string, attrs []header.Attribute, payload io.Reader) (header.TocEntry, error) {
	entryID := w.nextEntryID
	w.nextEntryID++

	headerStart, err := w.alignSink()
	if err != nil {
		return header.TocEntry{}, err
	}

	eh := header.EntryHeader{
		HeaderVersion: format.CurrentVersionMajor,
		Flags:         w.entryFlags(len(attrs)),
		EntryID:       entryID,
		CompressionID: w.compressionID(),
		EncryptionID:  w.encryptionID(),
		Name:          name,
		MimeType:      mimeType,
		Attributes:    attrs,
	}
	placeholder := eh.Encode()
	if _, err := w.sink.Write(placeholder); err != nil {
		return header.TocEntry{}, fmt.Errorf("archive: write entry header placeholder: %w", err)
	}

	out := stream.NewOutputStream(w.sink, w.outputConfig())
	if _, err := io.Copy(out, payload); err != nil {
		return header.TocEntry{}, fmt.Errorf("archive: stream entry payload: %w", err)
	}
	if err := out.Finish(); err != nil {
		return header.TocEntry{}, fmt.Errorf("archive: finish entry stream: %w", err)
	}

	endOffset, err := w.seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return header.TocEntry{}, err
	}

	eh.OriginalSize = out.TotalOriginalBytes()
	eh.StoredSize = out.TotalStoredBytes()
	eh.ChunkCount = out.ChunksWritten()
	eh.HeaderCRC32 = eh.ComputedCRC32()
	final := eh.Encode()
	if len(final) != len(placeholder) {
		panic("archive: entry header changed size between placeholder and back-patch")
	}

	if _, err := w.seeker.Seek(headerStart, io.SeekStart); err != nil {
		return header.TocEntry{}, err
	}
	if _, err := w.sink.Write(final); err != nil {
		return header.TocEntry{}, fmt.Errorf("archive: back-patch entry header: %w", err)
	}
	if _, err := w.seeker.Seek(endOffset, io.SeekStart); err != nil {
		return header.TocEntry{}, err
	}

	toc := header.TocEntry{
		EntryID:      entryID,
		EntryOffset:  headerStart,
		OriginalSize: eh.OriginalSize,
		StoredSize:   eh.StoredSize,
		NameHash:     int32(checksum.NameHash(name)), //nolint: gosec
		HeaderCRC32:  eh.HeaderCRC32,
	}
	w.tocEntries = append(w.tocEntries, toc)
	w.totalOriginal += eh.OriginalSize
	w.totalStored += eh.StoredSize

	return toc, nil
}

// addEntryBuffered streams the payload into an in-memory buffer first, so
// the entry header can be written once, already carrying its final sizes,
// to a sink that may not support seeking.
func (w *Writer) addEntryBuffered(name, mimeType string, attrs []header.Attribute, payload io.Reader) (header.TocEntry, error) {
	entryID := w.nextEntryID
	w.nextEntryID++

	var buf bytes.Buffer
	out := stream.NewOutputStream(&buf, w.outputConfig())
	if _, err := io.Copy(out, payload); err != nil {
		return header.TocEntry{}, fmt.Errorf("archive: stream entry payload: %w", err)
	}
	if err := out.Finish(); err != nil {
		return header.TocEntry{}, fmt.Errorf("archive: finish entry stream: %w", err)
	}

	eh := header.EntryHeader{
		HeaderVersion: format.CurrentVersionMajor,
		Flags:         w.entryFlags(len(attrs)),
		EntryID:       entryID,
		OriginalSize:  out.TotalOriginalBytes(),
		StoredSize:    out.TotalStoredBytes(),
		ChunkCount:    out.ChunksWritten(),
		CompressionID: w.compressionID(),
		EncryptionID:  w.encryptionID(),
		Name:          name,
		MimeType:      mimeType,
		Attributes:    attrs,
	}
	eh.HeaderCRC32 = eh.ComputedCRC32()

	if _, err := w.sink.Write(eh.Encode()); err != nil {
		return header.TocEntry{}, fmt.Errorf("archive: write entry header: %w", err)
	}
	if _, err := w.sink.Write(buf.Bytes()); err != nil {
		return header.TocEntry{}, fmt.Errorf("archive: write entry data: %w", err)
	}

	w.totalOriginal += eh.OriginalSize
	w.totalStored += eh.StoredSize
	w.streamChunkCount = out.ChunksWritten()

	return header.TocEntry{
		EntryID:      entryID,
		OriginalSize: eh.OriginalSize,
		StoredSize:   eh.StoredSize,
		NameHash:     int32(checksum.NameHash(name)), //nolint: gosec
		HeaderCRC32:  eh.HeaderCRC32,
	}, nil
}

// Finish writes the archive's closing structure: a StreamTrailer in
// STREAM_MODE, or a Trailer+TOC followed by a back-patched file header
// in RANDOM_ACCESS mode. Finish is idempotent.
func (w *Writer) Finish() error {
	if w.finished {
		return nil
	}

	if w.cfg.StreamMode {
		st := header.StreamTrailer{
			OriginalSize: w.totalOriginal,
			StoredSize:   w.totalStored,
			ChunkCount:   w.streamChunkCount,
		}
		if _, err := w.sink.Write(st.Encode()); err != nil {
			return fmt.Errorf("archive: write stream trailer: %w", err)
		}

		w.finished = true

		return nil
	}

	trailerOffset, err := w.seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	fileSize := trailerOffset + int64(format.TrailerHeaderSize) + int64(len(w.tocEntries))*format.TocEntrySize
	trailer := header.NewTrailer(1, w.totalOriginal, w.totalStored, fileSize, w.tocEntries)
	if _, err := w.sink.Write(trailer.Encode()); err != nil {
		return fmt.Errorf("archive: write trailer: %w", err)
	}

	fh := header.FileHeader{
		VersionMajor:      format.CurrentVersionMajor,
		VersionMinor:      format.CurrentVersionMinor,
		VersionPatch:      format.CurrentVersionPatch,
		CompatLevel:       format.CurrentCompatLevel,
		ModeFlags:         w.intentModeFlags() | format.ModeRandomAccess,
		ChecksumAlgoID:    uint8(w.cfg.Checksum.ID()),
		ChunkSize:         w.cfg.ChunkSize,
		EntryCount:        int64(len(w.tocEntries)),
		TrailerOffset:     trailerOffset,
		CreationTimestamp: w.creationTimestamp,
	}

	if _, err := w.seeker.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.sink.Write(fh.Encode()); err != nil {
		return fmt.Errorf("archive: back-patch file header: %w", err)
	}

	w.finished = true

	return nil
}
