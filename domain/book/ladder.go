package book

// Ladder is one side's price ladder: level lookup and creation, the cached
// best price, and next-best queries. A ladder serves exactly one side and is
// not safe for concurrent use; the engine is single-threaded by design.
//
// Two implementations exist: ContigLadder for a known tick band and
// SparseLadder for unbounded price ranges. The matcher depends only on this
// capability; the choice of variant is external configuration.
type Ladder interface {
	// Side returns the side this ladder serves.
	Side() Side

	// Level returns the FIFO at px, creating the level if missing.
	Level(px Tick) *LevelFIFO

	// HasLevel reports whether a non-empty level exists at px.
	HasLevel(px Tick) bool

	// Best returns the cached best price, or the side's empty sentinel.
	Best() Tick

	// SetBest updates the best-price cache.
	SetBest(px Tick)

	// NextBest returns the first non-empty price strictly worse than px for
	// this side (lower for bids, higher for asks) -- the price that becomes
	// best when the level at px drains. Returns the empty sentinel if the
	// rest of the ladder is empty.
	NextBest(px Tick) Tick

	// InBand reports whether px is representable on this ladder.
	InBand(px Tick) bool

	// ForEachBest walks non-empty levels from most to least aggressive until
	// fn returns false.
	ForEachBest(fn func(px Tick, l *LevelFIFO) bool)

	// Reset drops all levels and restores the sentinel best.
	Reset()
}

// better reports whether px is strictly more aggressive than ref on side s.
// Equality leaves the best cache unchanged.
func better(s Side, px, ref Tick) bool {
	if s == Bid {
		return px > ref
	}
	return px < ref
}
