package wal

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const defaultSegmentSize = 64 << 20

// Config controls where segments live and when they rotate.
type Config struct {
	Dir         string
	SegmentSize int64
}

// WAL is an append-only segmented journal of engine intent. Each segment
// starts with a magic/version header; each record is framed as
//
//	[type:1][seq:8][time:8][len:4][crc:4][payload]
//
// with the CRC covering the payload. Single-writer, like the engine itself.
type WAL struct {
	dir         string
	segmentSize int64

	current   *segment
	nextIndex int
}

type segment struct {
	file   *os.File
	offset int64
}

// Open creates the directory if needed and continues appending to the
// highest existing segment, or starts segment zero.
func Open(cfg Config) (*WAL, error) {
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = defaultSegmentSize
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	idx := 0
	if paths, err := segmentPaths(cfg.Dir); err != nil {
		return nil, err
	} else if len(paths) > 0 {
		last := paths[len(paths)-1]
		if _, err := fmt.Sscanf(filepath.Base(last), segmentPattern, &idx); err != nil {
			return nil, fmt.Errorf("wal: unparseable segment name %q: %w", last, err)
		}
	}

	seg, err := openSegment(cfg.Dir, idx)
	if err != nil {
		return nil, err
	}

	return &WAL{
		dir:         cfg.Dir,
		segmentSize: cfg.SegmentSize,
		current:     seg,
		nextIndex:   idx,
	}, nil
}

// Append journals one record and rotates the segment when full.
func (w *WAL) Append(r *Record) error {
	frame := make([]byte, recordHeaderSize+len(r.Data))
	frame[0] = byte(r.Type)
	binary.BigEndian.PutUint64(frame[1:9], r.Seq)
	binary.BigEndian.PutUint64(frame[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(frame[17:21], uint32(len(r.Data)))
	binary.BigEndian.PutUint32(frame[21:25], CRC32(r.Data))
	copy(frame[recordHeaderSize:], r.Data)

	if err := w.current.append(frame); err != nil {
		return err
	}
	if w.current.offset >= w.segmentSize {
		return w.rotate()
	}
	return nil
}

// Sync flushes the current segment to disk.
func (w *WAL) Sync() error { return w.current.file.Sync() }

func (w *WAL) Close() error { return w.current.close() }

func (w *WAL) rotate() error {
	if err := w.current.close(); err != nil {
		return err
	}
	w.nextIndex++
	seg, err := openSegment(w.dir, w.nextIndex)
	if err != nil {
		return err
	}
	w.current = seg
	return nil
}

const (
	segmentPattern    = "segment-%06d.wal"
	segmentHeaderSize = 6  // magic u32 + version u16
	recordHeaderSize  = 25 // type u8 + seq u64 + time i64 + len u32 + crc u32
)

func segmentPaths(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func openSegment(dir string, index int) (*segment, error) {
	path := filepath.Join(dir, fmt.Sprintf(segmentPattern, index))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if st.Size() == 0 {
		hdr := make([]byte, segmentHeaderSize)
		binary.BigEndian.PutUint32(hdr[0:4], Magic)
		binary.BigEndian.PutUint16(hdr[4:6], Version)
		if _, err := f.Write(hdr); err != nil {
			f.Close()
			return nil, err
		}
		return &segment{file: f, offset: segmentHeaderSize}, nil
	}

	if err := checkHeader(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("wal: segment %s: %w", path, err)
	}
	return &segment{file: f, offset: st.Size()}, nil
}

func checkHeader(f *os.File) error {
	hdr := make([]byte, segmentHeaderSize)
	if _, err := f.ReadAt(hdr, 0); err != nil {
		return err
	}
	if got := binary.BigEndian.Uint32(hdr[0:4]); got != Magic {
		return fmt.Errorf("%w: 0x%08X", ErrBadMagic, got)
	}
	if got := binary.BigEndian.Uint16(hdr[4:6]); got != Version {
		return fmt.Errorf("%w: %d", ErrBadVersion, got)
	}
	return nil
}

func (s *segment) append(b []byte) error {
	n, err := s.file.Write(b)
	if err != nil {
		return err
	}
	s.offset += int64(n)
	return nil
}

func (s *segment) close() error { return s.file.Close() }
