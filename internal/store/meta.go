// Package store persists and reads the index artifacts: the metadata record
// and the merged postings file.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/normalizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
)

const (
	MetaFileName     = "index.meta"
	PostingsFileName = "postings.jsonl"

	metaMagic   uint32 = 0x494d5053 // "SPMI"
	MetaVersion uint32 = 1
	headerSize         = 16
	footerSize         = 4
)

// Meta is the index metadata. DocumentLengths and DocumentSetLengths are
// indexed by internal document id, as is DocIDs.
type Meta struct {
	DocumentLengths    []int              `json:"document_lengths"`
	DocumentSetLengths []int              `json:"document_set_lengths"`
	DocIDs             []string           `json:"doc_int_ids"`
	Normalization      normalizer.Options `json:"normalization"`
	ItemCount          int                `json:"item_count"`
	Encoding           string             `json:"encoding"`
	PostingsFile       string             `json:"postings_file"`
	PostingsVersion    int                `json:"postings_version"`
	Blocks             int                `json:"blocks"`
	BuiltAt            time.Time          `json:"built_at"`
}

// DocCount returns N, the number of indexed documents.
func (m *Meta) DocCount() int {
	return len(m.DocIDs)
}

// Validate checks that the per-document tables share one key domain.
func (m *Meta) Validate() error {
	n := len(m.DocIDs)
	if len(m.DocumentLengths) != n || len(m.DocumentSetLengths) != n {
		return apperrors.Newf(apperrors.ErrMalformedPostings,
			"metadata tables disagree: %d ids, %d lengths, %d set lengths",
			n, len(m.DocumentLengths), len(m.DocumentSetLengths))
	}
	if m.ItemCount < 0 {
		return apperrors.Newf(apperrors.ErrMalformedPostings, "negative item count %d", m.ItemCount)
	}
	return nil
}

// WriteMeta writes meta to dir atomically. The file layout is
//
//	magic u32 | version u32 | payload length u64 | JSON payload | crc32(payload) u32
//
// New fields can be added to the JSON payload without a version bump; readers
// ignore fields they do not know.
func WriteMeta(dir string, meta *Meta) error {
	if err := meta.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	var buf bytes.Buffer
	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], metaMagic)
	binary.LittleEndian.PutUint32(header[4:8], MetaVersion)
	binary.LittleEndian.PutUint64(header[8:16], uint64(len(payload)))
	buf.Write(header)
	buf.Write(payload)
	footer := make([]byte, footerSize)
	binary.LittleEndian.PutUint32(footer, crc32.ChecksumIEEE(payload))
	buf.Write(footer)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	finalPath := filepath.Join(dir, MetaFileName)
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming metadata: %w", err)
	}
	return nil
}

// ReadMeta reads and verifies the metadata in dir. A missing file is
// ErrMissingIndex.
func ReadMeta(dir string) (*Meta, error) {
	path := filepath.Join(dir, MetaFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Newf(apperrors.ErrMissingIndex, "no index metadata at %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	if len(data) < headerSize+footerSize {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "metadata file %s truncated", path)
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != metaMagic {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "invalid metadata file: bad magic bytes %x", magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version > MetaVersion {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "metadata version %d is newer than supported %d", version, MetaVersion)
	}
	size := binary.LittleEndian.Uint64(data[8:16])
	if uint64(len(data)) != headerSize+size+footerSize {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "metadata length mismatch: header says %d bytes", size)
	}
	payload := data[headerSize : headerSize+size]
	if crc := binary.LittleEndian.Uint32(data[headerSize+size:]); crc != crc32.ChecksumIEEE(payload) {
		return nil, apperrors.New(apperrors.ErrMalformedPostings, "metadata checksum mismatch")
	}
	var meta Meta
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "parsing metadata: %v", err)
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}
