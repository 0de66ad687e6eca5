// Package recfile persists record sets as single-file archives and exposes
// them back as merge sources. The layout is a fixed header, a
// zstd-compressed JSON body, and an xxhash64 trailer over everything before
// it:
//
//	magic "SQRF" | version u16 | reserved u16 | record count u64 | body | checksum u64
//
// Count and emptiness are answered from the header without touching the
// body; the body is only decoded when a pass is iterated.
package recfile

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/seqmux/seqmux/pkg/order"
	"github.com/seqmux/seqmux/pkg/recordset"
	"github.com/seqmux/seqmux/pkg/sequence"
)

const (
	currentVersion = 1
	headerSize     = 16
	trailerSize    = 8
)

var magic = [4]byte{'S', 'Q', 'R', 'F'}

var (
	// ErrInvalidFormat is returned when a file is too short or does not
	// start with the record-file magic.
	ErrInvalidFormat = errors.New("not a record file")

	// ErrVersionMismatch is returned for an unsupported format version.
	ErrVersionMismatch = errors.New("unsupported record file version")

	// ErrCorrupted is returned when the checksum does not match the
	// file contents.
	ErrCorrupted = errors.New("record file checksum mismatch")
)

// Write persists records to path, replacing any existing file.
func Write(path string, records []recordset.Record) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	body := enc.EncodeAll(raw, nil)
	enc.Close()

	buf := make([]byte, headerSize, headerSize+len(body)+trailerSize)
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], currentVersion)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(records)))
	buf = append(buf, body...)

	checksum := xxhash.Sum64(buf)
	buf = binary.LittleEndian.AppendUint64(buf, checksum)

	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("write record file: %w", err)
	}
	return nil
}

// Source is a record file opened for reading. It implements the Source
// capability interface over recordset.Record. The backing bytes are
// immutable, so clones share them; each Iterate call decodes independently,
// making passes restartable.
type Source struct {
	path  string
	count int
	body  []byte // compressed record body
}

var _ sequence.Source[recordset.Record] = (*Source)(nil)

// Open reads and validates a record file. The checksum is verified here,
// once, so later passes can trust the body.
func Open(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}
	if len(data) < headerSize+trailerSize || !bytes.Equal(data[0:4], magic[:]) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, path)
	}

	version := binary.LittleEndian.Uint16(data[4:6])
	if version != currentVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersionMismatch, version)
	}

	payload := data[:len(data)-trailerSize]
	expected := binary.LittleEndian.Uint64(data[len(data)-trailerSize:])
	if xxhash.Sum64(payload) != expected {
		return nil, fmt.Errorf("%w: %s", ErrCorrupted, path)
	}

	count := binary.LittleEndian.Uint64(data[8:16])
	return &Source{
		path:  path,
		count: int(count),
		body:  payload[headerSize:],
	}, nil
}

// Path returns the file path the source was opened from.
func (s *Source) Path() string { return s.path }

// Count reports the record count from the header.
func (s *Source) Count() (int, error) { return s.count, nil }

// IsEmpty reports emptiness from the header.
func (s *Source) IsEmpty() (bool, error) { return s.count == 0, nil }

// Clone shares the immutable backing bytes; iteration state lives in the
// iterators, so the copies are fully independent.
func (s *Source) Clone() (sequence.Source[recordset.Record], error) {
	return &Source{path: s.path, count: s.count, body: s.body}, nil
}

// Iterate decompresses the body and decodes records one at a time as the
// consumer pulls.
func (s *Source) Iterate() (sequence.Iterator[recordset.Record], error) {
	raw, err := s.decompress()
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	// Consume the opening bracket of the record array.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode record body: %w", err)
	}
	return &fileIterator{dec: dec}, nil
}

// OrderBy materializes the records into an in-memory source sorted by spec.
func (s *Source) OrderBy(spec order.Spec) (sequence.Source[recordset.Record], error) {
	mem, err := s.materialize()
	if err != nil {
		return nil, err
	}
	return mem.OrderBy(spec)
}

// FilterOrExclude materializes the records and filters them in memory.
func (s *Source) FilterOrExclude(negate bool, pred func(recordset.Record) bool) (sequence.Source[recordset.Record], error) {
	mem, err := s.materialize()
	if err != nil {
		return nil, err
	}
	return mem.FilterOrExclude(negate, pred)
}

// Materialize decodes the whole file into an in-memory record source.
func (s *Source) Materialize() (*recordset.Slice[recordset.Record], error) {
	return s.materialize()
}

func (s *Source) materialize() (*recordset.Slice[recordset.Record], error) {
	raw, err := s.decompress()
	if err != nil {
		return nil, err
	}
	var records []recordset.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode record body: %w", err)
	}
	return recordset.NewRecords(records...), nil
}

func (s *Source) decompress() ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(s.body, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return raw, nil
}

type fileIterator struct {
	dec *json.Decoder
	cur recordset.Record
	err error
}

func (it *fileIterator) Next() bool {
	if it.err != nil || !it.dec.More() {
		return false
	}
	var rec recordset.Record
	if err := it.dec.Decode(&rec); err != nil {
		it.err = fmt.Errorf("decode record: %w", err)
		return false
	}
	it.cur = rec
	return true
}

func (it *fileIterator) Value() recordset.Record { return it.cur }
func (it *fileIterator) Err() error              { return it.err }
