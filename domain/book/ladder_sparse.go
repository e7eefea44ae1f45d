package book

// SparseLadder backs one side with an ordered tree keyed by price, for
// unknown or wide tick bands. Level access and NextBest are O(log n).
//
// Emptied levels are kept in the tree and skipped by the neighbour queries;
// Compact prunes them in bulk (a maintenance job calls it off the hot path).
type SparseLadder struct {
	side Side
	tree *rbTree
	best Tick
}

func NewSparseLadder(side Side) *SparseLadder {
	return &SparseLadder{
		side: side,
		tree: newRBTree(),
		best: EmptySentinel(side),
	}
}

func (s *SparseLadder) Side() Side { return s.side }

func (s *SparseLadder) Level(px Tick) *LevelFIFO { return s.tree.Upsert(px) }

func (s *SparseLadder) HasLevel(px Tick) bool {
	l := s.tree.Find(px)
	return l != nil && !l.Empty()
}

func (s *SparseLadder) Best() Tick      { return s.best }
func (s *SparseLadder) SetBest(px Tick) { s.best = px }

// InBand always holds; the sparse ladder represents the full tick range.
func (s *SparseLadder) InBand(Tick) bool { return true }

func (s *SparseLadder) NextBest(px Tick) Tick {
	cur := px
	for {
		var (
			key Tick
			lvl *LevelFIFO
			ok  bool
		)
		if s.side == Bid {
			key, lvl, ok = s.tree.Predecessor(cur)
		} else {
			key, lvl, ok = s.tree.Successor(cur)
		}
		if !ok {
			return EmptySentinel(s.side)
		}
		if !lvl.Empty() {
			return key
		}
		cur = key
	}
}

func (s *SparseLadder) ForEachBest(fn func(px Tick, l *LevelFIFO) bool) {
	walk := func(px Tick, l *LevelFIFO) bool {
		if l.Empty() {
			return true
		}
		return fn(px, l)
	}
	if s.side == Bid {
		s.tree.Descend(walk)
	} else {
		s.tree.Ascend(walk)
	}
}

func (s *SparseLadder) Reset() {
	s.tree.Clear()
	s.best = EmptySentinel(s.side)
}

// Compact removes emptied levels from the tree so neighbour queries stay
// cheap on long-running books.
func (s *SparseLadder) Compact() {
	var stale []Tick
	s.tree.Ascend(func(px Tick, l *LevelFIFO) bool {
		if l.Empty() {
			stale = append(stale, px)
		}
		return true
	})
	for _, px := range stale {
		s.tree.Delete(px)
	}
}
