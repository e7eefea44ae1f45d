package snapshot

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// ErrNoSnapshot is returned by Latest when the store is empty.
var ErrNoSnapshot = errors.New("snapshot: none stored")

// Store keeps encoded snapshots in pebble, keyed by sequence so the latest
// is the last key.
type Store struct {
	db *pebble.DB
}

func OpenStore(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Put persists a snapshot.
func (s *Store) Put(snap *Snapshot) error {
	return s.db.Set(keyFor(snap.Seq), snap.Encode(), pebble.Sync)
}

// Latest returns the highest-sequence snapshot.
func (s *Store) Latest() (*Snapshot, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	if !iter.Last() || !iter.Valid() {
		if err := iter.Error(); err != nil {
			return nil, err
		}
		return nil, ErrNoSnapshot
	}
	return Decode(iter.Value())
}

const keyPrefix = "snapshot/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}
