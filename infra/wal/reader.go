package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrBadMagic      = errors.New("wal: bad segment magic")
	ErrBadVersion    = errors.New("wal: unsupported segment version")
	ErrCorruptRecord = errors.New("wal: record CRC mismatch")
)

// Replay streams every record in dir, oldest segment first, into fn. A
// truncated trailing record (crash mid-append) ends the replay cleanly; a
// CRC mismatch does not, since everything after it is suspect.
func Replay(dir string, fn func(*Record) error) error {
	paths, err := segmentPaths(dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := replaySegment(path, fn); err != nil {
			return err
		}
	}
	return nil
}

func replaySegment(path string, fn func(*Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := checkHeader(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if _, err := f.Seek(segmentHeaderSize, io.SeekStart); err != nil {
		return err
	}

	r := bufio.NewReader(f)
	hdr := make([]byte, recordHeaderSize)
	for {
		if _, err := io.ReadFull(r, hdr); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}

		rec := &Record{
			Type: RecordType(hdr[0]),
			Seq:  binary.BigEndian.Uint64(hdr[1:9]),
			Time: int64(binary.BigEndian.Uint64(hdr[9:17])),
		}
		size := binary.BigEndian.Uint32(hdr[17:21])
		sum := binary.BigEndian.Uint32(hdr[21:25])

		rec.Data = make([]byte, size)
		if _, err := io.ReadFull(r, rec.Data); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}
		if !CRC32Valid(rec.Data, sum) {
			return fmt.Errorf("%s: %w (seq %d)", path, ErrCorruptRecord, rec.Seq)
		}

		if err := fn(rec); err != nil {
			return err
		}
	}
}
