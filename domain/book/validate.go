package book

import "fmt"

// Validate checks the structural invariants of the core: level totals, id
// index consistency in both directions, best-cache correctness, and the
// uncrossed-book condition. Tests and maintenance jobs call this; it is
// never on the hot path.
func (b *BookCore) Validate() error {
	seen := 0
	for _, lad := range []Ladder{b.bids, b.asks} {
		side := lad.Side()

		first := true
		prev := Tick(0)
		err := error(nil)
		lad.ForEachBest(func(px Tick, l *LevelFIFO) bool {
			if first {
				if best := lad.Best(); best != px {
					err = fmt.Errorf("%s best cache %d, most aggressive non-empty level %d", side, best, px)
					return false
				}
				first = false
			} else if !better(side, prev, px) {
				err = fmt.Errorf("%s walk not ordered: %d then %d", side, prev, px)
				return false
			}
			prev = px

			var sum Qty
			for n := l.Head(); n != nil; n = n.Next() {
				if n.Qty <= 0 {
					err = fmt.Errorf("resting order %d has qty %d", n.ID, n.Qty)
					return false
				}
				e, ok := b.index[n.ID]
				if !ok {
					err = fmt.Errorf("resting order %d missing from index", n.ID)
					return false
				}
				if e.side != side || e.px != px || e.node != n {
					err = fmt.Errorf("index entry for %d points at %s@%d, node rests at %s@%d", n.ID, e.side, e.px, side, px)
					return false
				}
				sum += n.Qty
				seen++
			}
			if sum != l.TotalQty() {
				err = fmt.Errorf("level %s@%d total %d, sum of orders %d", side, px, l.TotalQty(), sum)
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		if first {
			if best := lad.Best(); best != EmptySentinel(side) {
				return fmt.Errorf("%s side empty but best cache is %d", side, best)
			}
		}
	}

	if seen != len(b.index) {
		return fmt.Errorf("index holds %d entries, books hold %d resting orders", len(b.index), seen)
	}

	bb, ba := b.bids.Best(), b.asks.Best()
	if bb != BidEmpty && ba != AskEmpty && bb >= ba {
		return fmt.Errorf("book crossed at rest: best bid %d >= best ask %d", bb, ba)
	}
	return nil
}
