package archive

import (
	"fmt"
	"io"
	"iter"

	"github.com/apack-io/apack/checksum"
	"github.com/apack-io/apack/compress"
	"github.com/apack-io/apack/crypto"
	"github.com/apack-io/apack/errs"
	"github.com/apack-io/apack/format"
	"github.com/apack-io/apack/header"
	"github.com/apack-io/apack/internal/options"
	"github.com/apack-io/apack/primitive"
	"github.com/apack-io/apack/stream"
)

// ReaderConfig configures archive opening and per-entry decode behavior.
type ReaderConfig struct {
	// ValidateChecksums is forwarded to every ChunkedInputStream opened
	// through this Reader. Defaults to true via DefaultReaderConfig.
	ValidateChecksums bool
	Security          stream.ChunkSecuritySettings

	// Key is the content encryption key, already unwrapped by an external
	// KDF collaborator from the archive's EncryptionBlock; the codec only
	// transports the opaque blob. Required iff the archive's ENCRYPTED
	// mode flag is set.
	Key []byte
	AAD []byte
}

// DefaultReaderConfig returns a ReaderConfig with checksum validation on
// and the default chunk security bounds.
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		ValidateChecksums: true,
		Security:          stream.DefaultChunkSecuritySettings(),
	}
}

// Reader opens and reads an APACK archive. A Reader owns one underlying
// source handle; opening the same file from multiple goroutines requires
// independent source handles and Reader values.
type Reader struct {
	src io.ReadSeeker
	cfg ReaderConfig

	fileHeader      header.FileHeader
	encryptionBlock *header.EncryptionBlock

	trailer       *header.Trailer       // non-nil in RANDOM_ACCESS mode
	streamTrailer *header.StreamTrailer // non-nil in STREAM_MODE

	dataOffset int64 // first byte after FileHeader (+ EncryptionBlock)

	byID       map[int64]header.TocEntry
	byNameHash map[int32][]header.TocEntry

	checksumProvider checksum.Provider
}

// Open reads and validates the FileHeader, optional EncryptionBlock, and
// either a Trailer+TOC (RANDOM_ACCESS) or a trailing StreamTrailer
// (STREAM_MODE). Options start from DefaultReaderConfig and apply in
// order.
func Open(src io.ReadSeeker, opts ...ReaderOption) (*Reader, error) {
	cfg := DefaultReaderConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, fmt.Errorf("archive: apply reader options: %w", err)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	pr := primitive.NewReader(src)
	fh, err := header.DecodeFileHeader(pr)
	if err != nil {
		return nil, err
	}
	if !fh.VerifyCRC32() {
		return nil, &errs.ChecksumMismatchError{
			Expected: uint32(fh.ComputedCRC32()), //nolint: gosec
			Actual:   uint32(fh.HeaderCRC32),      //nolint: gosec
			Context:  "file_header",
		}
	}

	r := &Reader{src: src, cfg: cfg, fileHeader: fh}

	if fh.HasMode(format.ModeEncrypted) {
		eb, err := header.DecodeEncryptionBlock(pr)
		if err != nil {
			return nil, err
		}
		r.encryptionBlock = &eb
	}

	csProvider, err := checksum.ByID(format.ChecksumAlgo(fh.ChecksumAlgoID))
	if err != nil {
		return nil, err
	}
	r.checksumProvider = csProvider

	r.dataOffset = pr.Pos()

	if fh.HasMode(format.ModeRandomAccess) {
		if err := r.loadTrailer(fh.TrailerOffset); err != nil {
			return nil, err
		}
	} else {
		if err := r.loadStreamTrailer(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Reader) loadTrailer(trailerOffset int64) error {
	if _, err := r.src.Seek(trailerOffset, io.SeekStart); err != nil {
		return err
	}

	tpr := primitive.NewReader(r.src)
	tr, err := header.DecodeTrailer(tpr)
	if err != nil {
		return err
	}
	if !tr.VerifyTrailerCRC32() {
		return &errs.ChecksumMismatchError{
			Expected: uint32(tr.ComputedTrailerCRC32()), //nolint: gosec
			Actual:   uint32(tr.TrailerCRC32),            //nolint: gosec
			Context:  "trailer",
		}
	}
	if !tr.VerifyTocCRC32() {
		return &errs.ChecksumMismatchError{
			Expected: uint32(tr.ComputedTocCRC32()), //nolint: gosec
			Actual:   uint32(tr.TocCRC32),            //nolint: gosec
			Context:  "toc",
		}
	}

	observed, err := r.src.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if observed != tr.FileSize {
		return &errs.OutOfBoundsError{Field: "trailer.file_size", Value: tr.FileSize, Min: observed, Max: observed}
	}

	byID := make(map[int64]header.TocEntry, len(tr.Entries))
	byNameHash := make(map[int32][]header.TocEntry, len(tr.Entries))
	for _, e := range tr.Entries {
		byID[e.EntryID] = e
		byNameHash[e.NameHash] = append(byNameHash[e.NameHash], e)
	}

	r.trailer = &tr
	r.byID = byID
	r.byNameHash = byNameHash

	return nil
}

func (r *Reader) loadStreamTrailer() error {
	if _, err := r.src.Seek(-int64(format.StreamTrailerSize), io.SeekEnd); err != nil {
		return err
	}

	spr := primitive.NewReader(r.src)
	st, err := header.DecodeStreamTrailer(spr)
	if err != nil {
		return err
	}
	if !st.VerifyCRC32() {
		return &errs.ChecksumMismatchError{
			Expected: uint32(st.ComputedCRC32()), //nolint: gosec
			Actual:   uint32(st.TrailerCRC32),     //nolint: gosec
			Context:  "stream_trailer",
		}
	}

	r.streamTrailer = &st

	return nil
}

// Info summarizes the archive's aggregate sizes, enough for a caller to
// report totals and a compression ratio without re-walking entries.
type Info struct {
	EntryCount         int64
	TotalOriginalBytes int64
	TotalStoredBytes   int64
}

// CompressionRatio returns TotalOriginalBytes/TotalStoredBytes, or 0 if
// nothing was stored.
func (i Info) CompressionRatio() float64 {
	if i.TotalStoredBytes == 0 {
		return 0
	}

	return float64(i.TotalOriginalBytes) / float64(i.TotalStoredBytes)
}

// Info returns the archive's aggregate sizes, from the Trailer in
// RANDOM_ACCESS mode or the StreamTrailer in STREAM_MODE.
func (r *Reader) Info() Info {
	if r.trailer != nil {
		return Info{
			EntryCount:         r.trailer.EntryCount,
			TotalOriginalBytes: r.trailer.TotalOriginalSize,
			TotalStoredBytes:   r.trailer.TotalStoredSize,
		}
	}

	return Info{
		EntryCount:         1,
		TotalOriginalBytes: r.streamTrailer.OriginalSize,
		TotalStoredBytes:   r.streamTrailer.StoredSize,
	}
}

// TocEntries returns the archive's TOC in insertion order. It returns nil
// for a STREAM_MODE archive, which carries no TOC.
func (r *Reader) TocEntries() []header.TocEntry {
	if r.trailer == nil {
		return nil
	}

	return r.trailer.Entries
}

// GetByID locates and opens the entry with the given entry_id. Only
// valid for a RANDOM_ACCESS archive.
func (r *Reader) GetByID(id int64) (PackEntry, error) {
	if r.trailer == nil {
		return PackEntry{}, errs.ErrStreamModeSingleEntry
	}

	toc, ok := r.byID[id]
	if !ok {
		return PackEntry{}, &errs.EntryNotFoundError{ID: id, ByID: true}
	}

	return r.openTocEntry(toc)
}

// GetByName locates and opens the entry with the given name, resolving
// XXH3 name_hash collisions by comparing full names. Only valid for a
// RANDOM_ACCESS archive.
func (r *Reader) GetByName(name string) (PackEntry, error) {
	if r.trailer == nil {
		return PackEntry{}, errs.ErrStreamModeSingleEntry
	}

	nameHash := int32(checksum.NameHash(name)) //nolint: gosec

	for _, candidate := range r.byNameHash[nameHash] {
		pe, err := r.openTocEntry(candidate)
		if err != nil {
			return PackEntry{}, err
		}
		if pe.Header.Name == name {
			return pe, nil
		}
	}

	return PackEntry{}, &errs.EntryNotFoundError{Name: name}
}

// openTocEntry opens the entry a TOC record points at and checks that the
// record's mirrored header_crc32 matches the CRC read from the entry
// header itself, so a TOC pointing at the wrong offset fails loudly.
func (r *Reader) openTocEntry(toc header.TocEntry) (PackEntry, error) {
	pe, err := r.openEntryAt(toc.EntryOffset)
	if err != nil {
		return PackEntry{}, err
	}
	if pe.Header.HeaderCRC32 != toc.HeaderCRC32 {
		return PackEntry{}, &errs.ChecksumMismatchError{
			Expected: uint32(toc.HeaderCRC32),      //nolint: gosec
			Actual:   uint32(pe.Header.HeaderCRC32), //nolint: gosec
			Context:  "toc_entry",
		}
	}

	return pe, nil
}

func (r *Reader) openEntryAt(offset int64) (PackEntry, error) {
	if _, err := r.src.Seek(offset, io.SeekStart); err != nil {
		return PackEntry{}, err
	}

	pr := primitive.NewReader(r.src)
	eh, err := header.DecodeEntryHeader(pr)
	if err != nil {
		return PackEntry{}, err
	}
	if !eh.VerifyCRC32() {
		return PackEntry{}, &errs.ChecksumMismatchError{
			Expected: uint32(eh.ComputedCRC32()), //nolint: gosec
			Actual:   uint32(eh.HeaderCRC32),      //nolint: gosec
			Context:  "entry_header",
		}
	}

	return PackEntry{Header: eh, dataOffset: offset + pr.Pos()}, nil
}

// Entries enumerates the archive's entries in insertion order: by TOC in
// RANDOM_ACCESS mode, by sequential scan in STREAM_MODE, where no TOC
// exists to index them. Iteration stops at the first error.
func (r *Reader) Entries() iter.Seq2[PackEntry, error] {
	return func(yield func(PackEntry, error) bool) {
		if r.trailer != nil {
			// The TOC already knows every entry's offset; no need to walk
			// chunk data between headers.
			for _, toc := range r.trailer.Entries {
				pe, err := r.openTocEntry(toc)
				if !yield(pe, err) || err != nil {
					return
				}
			}

			return
		}

		offset := r.dataOffset
		pe, err := r.openEntryAt(offset)
		if !yield(pe, err) || err != nil {
			return
		}
		if _, err := r.skipEntryData(pe); err != nil {
			yield(PackEntry{}, err)
		}
	}
}

// skipEntryData advances r.src past pe's chunk stream by reading it to
// completion, so sequential scanning can continue to the next entry.
func (r *Reader) skipEntryData(pe PackEntry) (int64, error) {
	in, err := r.OpenEntry(pe)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(io.Discard, in)
	if err != nil {
		return n, err
	}

	return n, in.Close()
}

// OpenEntry opens pe's chunk stream for reading, configured from the
// entry's own compression_id/encryption_id resolved against the process
// registries. The returned stream must be fully
// consumed or Closed before any other entry is opened against the same
// Reader, since both share the one underlying source handle.
func (r *Reader) OpenEntry(pe PackEntry) (*stream.ChunkedInputStream, error) {
	if _, err := r.src.Seek(pe.dataOffset, io.SeekStart); err != nil {
		return nil, err
	}

	var compProvider compress.Provider
	if pe.Header.CompressionID != int32(format.CompressionNone) {
		p, err := compress.ByID(format.CompressionAlgo(pe.Header.CompressionID))
		if err != nil {
			return nil, err
		}
		compProvider = p
	}

	var encProvider crypto.Provider
	if pe.Header.EncryptionID != int32(format.EncryptionNone) {
		p, err := crypto.ByID(format.EncryptionAlgo(pe.Header.EncryptionID))
		if err != nil {
			return nil, err
		}
		encProvider = p
	}

	security := r.cfg.Security
	if security.MaxChunkSize == 0 {
		// Reader was built with a zero-value ReaderConfig rather than
		// DefaultReaderConfig; fall back to the default bounds instead of
		// rejecting every chunk as zero-bounded.
		security = stream.DefaultChunkSecuritySettings()
	}

	cfg := stream.InputConfig{
		Checksum:          r.checksumProvider,
		Compression:       compProvider,
		Encryption:        encProvider,
		Key:               r.cfg.Key,
		AAD:               r.cfg.AAD,
		ValidateChecksums: r.cfg.ValidateChecksums,
		Security:          security,
	}

	return stream.NewInputStream(r.src, cfg), nil
}
