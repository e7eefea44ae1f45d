package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"

	"vidar/domain/book"
	"vidar/infra/wal"
)

// Snapshot is the resting state of the book at a sequence point. Restoring
// it and replaying the journal from Seq reproduces the live engine.
type Snapshot struct {
	Seq       uint64
	CreatedNs int64
	Entries   []Entry
}

// Entry is one resting order.
type Entry struct {
	ID    uint64
	User  uint64
	Side  uint8
	Price int64
	Qty   int64
	Ts    int64
	Flags uint32
}

const (
	version    uint16 = 1
	headerSize        = 26 // magic u32 + version u16 + seq u64 + created i64 + count u32
	entrySize         = 45 // id u64 + user u64 + side u8 + price i64 + qty i64 + ts i64 + flags u32
)

var (
	ErrBadMagic   = errors.New("snapshot: bad magic")
	ErrBadVersion = errors.New("snapshot: unsupported version")
	ErrTruncated  = errors.New("snapshot: truncated")
	ErrCorrupt    = errors.New("snapshot: CRC mismatch")
)

// Encode serializes the snapshot: a magic/version header, fixed-width
// entries, and a trailing CRC over everything before it.
func (s *Snapshot) Encode() []byte {
	buf := make([]byte, headerSize+entrySize*len(s.Entries)+4)
	binary.BigEndian.PutUint32(buf[0:4], wal.Magic)
	binary.BigEndian.PutUint16(buf[4:6], version)
	binary.BigEndian.PutUint64(buf[6:14], s.Seq)
	binary.BigEndian.PutUint64(buf[14:22], uint64(s.CreatedNs))
	binary.BigEndian.PutUint32(buf[22:26], uint32(len(s.Entries)))

	off := headerSize
	for _, e := range s.Entries {
		binary.BigEndian.PutUint64(buf[off:], e.ID)
		binary.BigEndian.PutUint64(buf[off+8:], e.User)
		buf[off+16] = e.Side
		binary.BigEndian.PutUint64(buf[off+17:], uint64(e.Price))
		binary.BigEndian.PutUint64(buf[off+25:], uint64(e.Qty))
		binary.BigEndian.PutUint64(buf[off+33:], uint64(e.Ts))
		binary.BigEndian.PutUint32(buf[off+41:], e.Flags)
		off += entrySize
	}
	binary.BigEndian.PutUint32(buf[off:], wal.CRC32(buf[:off]))
	return buf
}

// Decode parses and verifies an encoded snapshot.
func Decode(buf []byte) (*Snapshot, error) {
	if len(buf) < headerSize+4 {
		return nil, ErrTruncated
	}
	if got := binary.BigEndian.Uint32(buf[0:4]); got != wal.Magic {
		return nil, fmt.Errorf("%w: 0x%08X", ErrBadMagic, got)
	}
	if got := binary.BigEndian.Uint16(buf[4:6]); got != version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, got)
	}

	count := binary.BigEndian.Uint32(buf[22:26])
	body := headerSize + entrySize*int(count)
	if len(buf) < body+4 {
		return nil, ErrTruncated
	}
	if !wal.CRC32Valid(buf[:body], binary.BigEndian.Uint32(buf[body:])) {
		return nil, ErrCorrupt
	}

	s := &Snapshot{
		Seq:       binary.BigEndian.Uint64(buf[6:14]),
		CreatedNs: int64(binary.BigEndian.Uint64(buf[14:22])),
		Entries:   make([]Entry, count),
	}
	off := headerSize
	for i := range s.Entries {
		s.Entries[i] = Entry{
			ID:    binary.BigEndian.Uint64(buf[off:]),
			User:  binary.BigEndian.Uint64(buf[off+8:]),
			Side:  buf[off+16],
			Price: int64(binary.BigEndian.Uint64(buf[off+17:])),
			Qty:   int64(binary.BigEndian.Uint64(buf[off+25:])),
			Ts:    int64(binary.BigEndian.Uint64(buf[off+33:])),
			Flags: binary.BigEndian.Uint32(buf[off+41:]),
		}
		off += entrySize
	}
	return s, nil
}

// Capture walks every resting order into a snapshot. Levels come out most
// aggressive first, FIFO within a level, so restoring in order preserves
// time priority.
func Capture(b *book.BookCore, seq uint64, nowNs int64) *Snapshot {
	s := &Snapshot{Seq: seq, CreatedNs: nowNs}
	b.ForEachResting(func(side book.Side, px book.Tick, n *book.OrderNode) bool {
		s.Entries = append(s.Entries, Entry{
			ID:    uint64(n.ID),
			User:  uint64(n.User),
			Side:  uint8(side),
			Price: int64(px),
			Qty:   int64(n.Qty),
			Ts:    int64(n.Ts),
			Flags: uint32(n.Flags),
		})
		return true
	})
	return s
}

// Restore resets the book, rests every entry without matching, and rebuilds
// the id index from the books.
func Restore(b *book.BookCore, s *Snapshot) {
	b.Reset()
	for _, e := range s.Entries {
		b.RestLoaded(book.NewOrder{
			Ts:    book.TimeNs(e.Ts),
			ID:    book.OrderID(e.ID),
			User:  book.UserID(e.User),
			Side:  book.Side(e.Side),
			Price: book.Tick(e.Price),
			Qty:   book.Qty(e.Qty),
			Flags: book.Flag(e.Flags),
		})
	}
	b.RebuildIndex()
}
