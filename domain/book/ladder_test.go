package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ladders(side Side) map[string]Ladder {
	return map[string]Ladder{
		"sparse": NewSparseLadder(side),
		"contig": NewContigLadder(side, PriceBand{MinTick: 1, MaxTick: 200}),
	}
}

func restAt(l Ladder, px Tick, qty Qty) *OrderNode {
	n := &OrderNode{ID: OrderID(px), Qty: qty}
	l.Level(px).EnqueueTail(n)
	if better(l.Side(), px, l.Best()) {
		l.SetBest(px)
	}
	return n
}

func TestLadder_EmptySentinels(t *testing.T) {
	for name, lad := range ladders(Bid) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, BidEmpty, lad.Best())
			assert.Equal(t, BidEmpty, lad.NextBest(100))
			assert.False(t, lad.HasLevel(100))
		})
	}
	for name, lad := range ladders(Ask) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, AskEmpty, lad.Best())
			assert.Equal(t, AskEmpty, lad.NextBest(100))
		})
	}
}

func TestLadder_NextBestSkipsEmptyLevels(t *testing.T) {
	for name, lad := range ladders(Bid) {
		t.Run(name, func(t *testing.T) {
			n99 := restAt(lad, 99, 5)
			restAt(lad, 97, 5)
			restAt(lad, 100, 5)

			assert.Equal(t, Tick(100), lad.Best())
			assert.Equal(t, Tick(99), lad.NextBest(100))

			// Drain 99: the level container persists but is skipped.
			lad.Level(99).Erase(n99)
			assert.Equal(t, Tick(97), lad.NextBest(100))
			assert.Equal(t, BidEmpty, lad.NextBest(97))
		})
	}
	for name, lad := range ladders(Ask) {
		t.Run(name, func(t *testing.T) {
			restAt(lad, 101, 5)
			restAt(lad, 104, 5)
			assert.Equal(t, Tick(101), lad.Best())
			assert.Equal(t, Tick(104), lad.NextBest(101))
			assert.Equal(t, AskEmpty, lad.NextBest(104))
		})
	}
}

func TestLadder_ForEachBestOrder(t *testing.T) {
	for name, lad := range ladders(Bid) {
		t.Run(name, func(t *testing.T) {
			restAt(lad, 97, 1)
			restAt(lad, 100, 1)
			restAt(lad, 99, 1)

			var walked []Tick
			lad.ForEachBest(func(px Tick, _ *LevelFIFO) bool {
				walked = append(walked, px)
				return true
			})
			assert.Equal(t, []Tick{100, 99, 97}, walked)

			// Early stop.
			walked = walked[:0]
			lad.ForEachBest(func(px Tick, _ *LevelFIFO) bool {
				walked = append(walked, px)
				return false
			})
			assert.Equal(t, []Tick{100}, walked)
		})
	}
	for name, lad := range ladders(Ask) {
		t.Run(name, func(t *testing.T) {
			restAt(lad, 104, 1)
			restAt(lad, 101, 1)

			var walked []Tick
			lad.ForEachBest(func(px Tick, _ *LevelFIFO) bool {
				walked = append(walked, px)
				return true
			})
			assert.Equal(t, []Tick{101, 104}, walked)
		})
	}
}

func TestLadder_Reset(t *testing.T) {
	for name, lad := range ladders(Bid) {
		t.Run(name, func(t *testing.T) {
			restAt(lad, 100, 5)
			lad.Reset()
			assert.Equal(t, BidEmpty, lad.Best())
			assert.False(t, lad.HasLevel(100))
		})
	}
}

func TestContigLadder_Band(t *testing.T) {
	lad := NewContigLadder(Ask, PriceBand{MinTick: 50, MaxTick: 60})
	assert.True(t, lad.InBand(50))
	assert.True(t, lad.InBand(60))
	assert.False(t, lad.InBand(49))
	assert.False(t, lad.InBand(61))
	assert.False(t, lad.HasLevel(999))

	restAt(lad, 50, 1)
	restAt(lad, 60, 1)
	assert.Equal(t, Tick(50), lad.Best())
	assert.Equal(t, Tick(60), lad.NextBest(50))
	assert.Equal(t, AskEmpty, lad.NextBest(60))

	assert.Panics(t, func() { NewContigLadder(Bid, PriceBand{MinTick: 10, MaxTick: 5}) })
}

func TestSparseLadder_Compact(t *testing.T) {
	lad := NewSparseLadder(Bid)
	n := restAt(lad, 100, 5)
	restAt(lad, 99, 5)

	lad.Level(100).Erase(n)
	lad.SetBest(lad.NextBest(100))
	assert.Equal(t, Tick(99), lad.Best())

	lad.Compact()
	assert.Equal(t, 1, lad.tree.Size())
	assert.True(t, lad.HasLevel(99))
	assert.Equal(t, Tick(99), lad.Best())
}
