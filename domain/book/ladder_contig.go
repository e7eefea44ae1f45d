package book

import "fmt"

// PriceBand bounds a contiguous ladder to the inclusive range
// [MinTick, MaxTick].
type PriceBand struct {
	MinTick Tick
	MaxTick Tick
}

// ContigLadder backs one side with a dense array of levels indexed by
// (price - MinTick). Level access is O(1); NextBest is O(band) worst case.
// Suitable for replay against symbols with a known tight band.
type ContigLadder struct {
	side   Side
	band   PriceBand
	levels []LevelFIFO
	best   Tick
}

// NewContigLadder allocates every level in the band up front.
func NewContigLadder(side Side, band PriceBand) *ContigLadder {
	if band.MaxTick < band.MinTick {
		panic(fmt.Sprintf("book: inverted price band [%d, %d]", band.MinTick, band.MaxTick))
	}
	return &ContigLadder{
		side:   side,
		band:   band,
		levels: make([]LevelFIFO, band.MaxTick-band.MinTick+1),
		best:   EmptySentinel(side),
	}
}

func (c *ContigLadder) Side() Side { return c.side }

func (c *ContigLadder) idx(px Tick) int { return int(px - c.band.MinTick) }

func (c *ContigLadder) Level(px Tick) *LevelFIFO { return &c.levels[c.idx(px)] }

func (c *ContigLadder) HasLevel(px Tick) bool {
	if !c.InBand(px) {
		return false
	}
	return !c.levels[c.idx(px)].Empty()
}

func (c *ContigLadder) Best() Tick      { return c.best }
func (c *ContigLadder) SetBest(px Tick) { c.best = px }

func (c *ContigLadder) InBand(px Tick) bool {
	return px >= c.band.MinTick && px <= c.band.MaxTick
}

func (c *ContigLadder) NextBest(px Tick) Tick {
	if c.side == Bid {
		for i := c.idx(px) - 1; i >= 0; i-- {
			if !c.levels[i].Empty() {
				return c.band.MinTick + Tick(i)
			}
		}
		return BidEmpty
	}
	for i := c.idx(px) + 1; i < len(c.levels); i++ {
		if !c.levels[i].Empty() {
			return c.band.MinTick + Tick(i)
		}
	}
	return AskEmpty
}

func (c *ContigLadder) ForEachBest(fn func(px Tick, l *LevelFIFO) bool) {
	if c.side == Bid {
		for i := len(c.levels) - 1; i >= 0; i-- {
			if c.levels[i].Empty() {
				continue
			}
			if !fn(c.band.MinTick+Tick(i), &c.levels[i]) {
				return
			}
		}
		return
	}
	for i := 0; i < len(c.levels); i++ {
		if c.levels[i].Empty() {
			continue
		}
		if !fn(c.band.MinTick+Tick(i), &c.levels[i]) {
			return
		}
	}
}

func (c *ContigLadder) Reset() {
	for i := range c.levels {
		c.levels[i] = LevelFIFO{}
	}
	c.best = EmptySentinel(c.side)
}
