package ingest

import (
	"math"

	"vidar/domain/book"
)

// LevelBook mirrors an aggregate L2 feed: per-price total sizes, no
// individual orders. Book rows set a level's total outright; a total of zero
// removes it. The TAQ reconstruction tool reads its best prices on a time
// grid. Feeds can momentarily lock or cross, so unlike the matching core this
// mirror never trades.
type LevelBook struct {
	bids map[float64]float64
	asks map[float64]float64
}

func NewLevelBook() *LevelBook {
	return &LevelBook{
		bids: make(map[float64]float64),
		asks: make(map[float64]float64),
	}
}

// SetLevel replaces the total size at a price; non-positive removes it.
func (lb *LevelBook) SetLevel(s book.Side, px, total float64) {
	m := lb.side(s)
	if total <= 0 {
		delete(m, px)
		return
	}
	m[px] = total
}

// Best returns the most aggressive price and its size; ok is false when the
// side is empty.
func (lb *LevelBook) Best(s book.Side) (px, sz float64, ok bool) {
	m := lb.side(s)
	if len(m) == 0 {
		return math.NaN(), 0, false
	}
	first := true
	for p, q := range m {
		if first || (s == book.Bid && p > px) || (s == book.Ask && p < px) {
			px, sz = p, q
			first = false
		}
	}
	return px, sz, true
}

// Clear drops both sides.
func (lb *LevelBook) Clear() {
	lb.bids = make(map[float64]float64)
	lb.asks = make(map[float64]float64)
}

func (lb *LevelBook) side(s book.Side) map[float64]float64 {
	if s == book.Bid {
		return lb.bids
	}
	return lb.asks
}
