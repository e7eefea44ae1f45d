package outbox

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// State is the delivery state of one outbox entry.
type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

// Entry is one pending trade event awaiting publication.
type Entry struct {
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// binary encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeEntry(e Entry) []byte {
	buf := make([]byte, 13+len(e.Payload))
	buf[0] = byte(e.State)
	binary.BigEndian.PutUint32(buf[1:5], e.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(e.LastAttempt))
	copy(buf[13:], e.Payload)
	return buf
}

func decodeEntry(b []byte) (Entry, error) {
	if len(b) < 13 {
		return Entry{}, errors.New("outbox: entry too short")
	}
	e := Entry{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
	}
	e.Payload = append(e.Payload, b[13:]...)
	return e, nil
}

// Outbox is a durable trade-event outbox over pebble. The engine side
// appends NEW entries; the broadcaster scans pending entries, publishes them
// and walks them through SENT to ACKED. Entries survive restarts, so a crash
// between publish and ack costs at worst a duplicate, never a loss.
type Outbox struct {
	db   *pebble.DB
	next uint64
}

// Open recovers the next sequence from the highest existing key.
func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}

	ob := &Outbox{db: db}
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	if iter.Last() && iter.Valid() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			iter.Close()
			db.Close()
			return nil, err
		}
		ob.next = seq
	}
	if err := iter.Close(); err != nil {
		db.Close()
		return nil, err
	}
	return ob, nil
}

func (o *Outbox) Close() error { return o.db.Close() }

// Append stores a NEW entry and returns its outbox sequence.
func (o *Outbox) Append(payload []byte) (uint64, error) {
	o.next++
	e := Entry{State: StateNew, Payload: payload}
	if err := o.db.Set(keyFor(o.next), encodeEntry(e), pebble.Sync); err != nil {
		o.next--
		return 0, err
	}
	return o.next, nil
}

// MarkSent records a publish attempt.
func (o *Outbox) MarkSent(seq uint64) error { return o.setState(seq, StateSent) }

// MarkAcked records broker acknowledgement.
func (o *Outbox) MarkAcked(seq uint64) error { return o.setState(seq, StateAcked) }

func (o *Outbox) setState(seq uint64, s State) error {
	e, err := o.Get(seq)
	if err != nil {
		return err
	}
	e.State = s
	e.Retries++
	e.LastAttempt = time.Now().UnixNano()
	return o.db.Set(keyFor(seq), encodeEntry(e), pebble.Sync)
}

// Get returns the entry at seq.
func (o *Outbox) Get(seq uint64) (Entry, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return Entry{}, err
	}
	defer closer.Close()
	return decodeEntry(val)
}

// ScanPending iterates entries not yet acked, oldest first.
func (o *Outbox) ScanPending(fn func(seq uint64, e Entry) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		e, err := decodeEntry(iter.Value())
		if err != nil {
			return err
		}
		if e.State == StateAcked {
			continue
		}
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(seq, e); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Prune deletes acked entries.
func (o *Outbox) Prune() error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		e, err := decodeEntry(iter.Value())
		if err != nil {
			return err
		}
		if e.State != StateAcked {
			continue
		}
		key := append([]byte(nil), iter.Key()...)
		if err := o.db.Delete(key, pebble.Sync); err != nil {
			return err
		}
	}
	return iter.Error()
}

const keyPrefix = "trade/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(b[len(keyPrefix):]), "%d", &seq)
	return seq, err
}
