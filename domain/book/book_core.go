package book

import (
	"fmt"

	"vidar/infra/memory"
)

// idEntry locates a resting order: its side, its level price, and a
// non-owning handle to the node itself.
type idEntry struct {
	side Side
	px   Tick
	node *OrderNode
}

// BookCore is the deterministic matching core for one symbol. It owns both
// ladders, every resting node, and the id index, and mutates them only inside
// its public operations. Single-writer; operations must not re-enter.
type BookCore struct {
	bids Ladder
	asks Ladder

	index map[OrderID]idEntry
	pool  *memory.Pool[OrderNode]

	log EventLogger
}

// New builds a core over one ladder per side. log may be nil to disable
// event reporting entirely (benchmarks do this).
func New(bids, asks Ladder, log EventLogger) *BookCore {
	return &BookCore{
		bids:  bids,
		asks:  asks,
		index: make(map[OrderID]idEntry, 1<<16),
		pool:  memory.NewPool(func() *OrderNode { return &OrderNode{} }),
		log:   log,
	}
}

func (b *BookCore) ladder(s Side) Ladder {
	if s == Bid {
		return b.bids
	}
	return b.asks
}

func (b *BookCore) dispose(n *OrderNode) {
	n.Reset()
	b.pool.Put(n)
}

// crosses reports whether the taker accepts the opposite best price within
// the bound. Equality is a cross: resting always wins price.
func crosses(taker Side, best, bound Tick) bool {
	if taker == Bid {
		return best <= bound
	}
	return best >= bound
}

// SubmitLimit trades as much of o.Qty as possible against the opposite side
// at prices crossing o.Price, then rests any remainder at o.Price.
//
// Flags: IOC discards the leftover instead of resting it; FOK fills in full
// or performs no side effect; POST_ONLY rejects the order if it would cross.
func (b *BookCore) SubmitLimit(o NewOrder) ExecResult {
	var r ExecResult
	if o.Qty <= 0 {
		return r
	}
	same := b.ladder(o.Side)
	if !same.InBand(o.Price) {
		return r
	}
	if o.Flags&FlagPostOnly != 0 && b.wouldCross(o.Side, o.Price) {
		return ExecResult{Filled: 0, Remaining: o.Qty}
	}
	if o.Flags&FlagFOK != 0 && !b.canFill(o.Side, o.User, o.Flags, o.Qty, o.Price) {
		return ExecResult{Filled: 0, Remaining: o.Qty}
	}

	if b.log != nil {
		b.log.Accept(o)
	}

	r.Filled = b.matchAgainst(o, o.Price)
	leftover := o.Qty - r.Filled
	r.Remaining = leftover
	if leftover > 0 && o.Flags&FlagIOC == 0 {
		b.rest(o, leftover)
	}
	return r
}

// SubmitMarket trades against the opposite side with no price bound and
// never rests. Remaining is the unfilled discard.
func (b *BookCore) SubmitMarket(o NewOrder) ExecResult {
	var r ExecResult
	if o.Qty <= 0 {
		return r
	}
	// Only book emptiness stops a market order.
	bound := AskEmpty
	if o.Side == Ask {
		bound = BidEmpty
	}

	if b.log != nil {
		b.log.Accept(o)
	}

	r.Filled = b.matchAgainst(o, bound)
	r.Remaining = o.Qty - r.Filled
	return r
}

// Cancel removes a resting order by id. Returns false on an unknown id.
func (b *BookCore) Cancel(id OrderID) bool {
	e, ok := b.index[id]
	if !ok {
		return false
	}
	b.removeResting(e)
	if b.log != nil {
		b.log.Cancel(id)
	}
	return true
}

// Modify alters the price and/or quantity of a resting order. An unchanged
// price with positive quantity is an in-place size change and keeps time
// priority; a zero-or-negative quantity behaves exactly like Cancel; a price
// change cancels the old node and resubmits it as a fresh limit with the
// original id, user and side -- which may trade, rest, or both, and loses
// time priority at the new level.
func (b *BookCore) Modify(m ModifyOrder) ExecResult {
	var r ExecResult
	e, ok := b.index[m.ID]
	if !ok {
		return r
	}

	if m.NewPrice == e.px {
		if m.NewQty <= 0 {
			b.removeResting(e)
			if b.log != nil {
				b.log.Cancel(m.ID)
			}
			return r
		}
		b.ladder(e.side).Level(e.px).adjustQty(e.node, m.NewQty)
		e.node.Ts = m.Ts
		e.node.Flags = m.Flags
		if b.log != nil {
			b.log.Modify(m, false)
		}
		return r
	}

	if !b.ladder(e.side).InBand(m.NewPrice) {
		return r
	}

	user := e.node.User
	b.removeResting(e)
	r = b.SubmitLimit(NewOrder{
		Seq:   m.Seq,
		Ts:    m.Ts,
		ID:    m.ID,
		User:  user,
		Side:  e.side,
		Price: m.NewPrice,
		Qty:   m.NewQty,
		Flags: m.Flags,
	})
	if b.log != nil {
		b.log.Modify(m, true)
	}
	return r
}

// SideEmpty reports whether no order rests on side s.
func (b *BookCore) SideEmpty(s Side) bool {
	return b.ladder(s).Best() == EmptySentinel(s)
}

// BestBid returns the best bid price, or BidEmpty.
func (b *BookCore) BestBid() Tick { return b.bids.Best() }

// BestAsk returns the best ask price, or AskEmpty.
func (b *BookCore) BestAsk() Tick { return b.asks.Best() }

// Top samples the current top of book.
func (b *BookCore) Top() Quote {
	var q Quote
	if px := b.bids.Best(); px != BidEmpty {
		q.HasBid = true
		q.BidPx = px
		q.BidSz = b.bids.Level(px).TotalQty()
	}
	if px := b.asks.Best(); px != AskEmpty {
		q.HasAsk = true
		q.AskPx = px
		q.AskSz = b.asks.Level(px).TotalQty()
	}
	return q
}

// Reset empties both ladders and the id index.
func (b *BookCore) Reset() {
	b.bids.Reset()
	b.asks.Reset()
	clear(b.index)
}

// RestLoaded enqueues a resting order during a snapshot load, bypassing
// matching. The id index is not touched; call RebuildIndex once loading
// completes.
func (b *BookCore) RestLoaded(o NewOrder) {
	if o.Qty <= 0 {
		return
	}
	b.enqueueResting(o, o.Qty)
}

// RebuildIndex repopulates the id index from the resting books. Used after a
// snapshot load.
func (b *BookCore) RebuildIndex() {
	clear(b.index)
	for _, lad := range []Ladder{b.bids, b.asks} {
		side := lad.Side()
		lad.ForEachBest(func(px Tick, l *LevelFIFO) bool {
			for n := l.Head(); n != nil; n = n.Next() {
				b.index[n.ID] = idEntry{side: side, px: px, node: n}
			}
			return true
		})
	}
}

// ForEachResting walks every resting order, most aggressive level first,
// FIFO within a level. Used by snapshot capture.
func (b *BookCore) ForEachResting(fn func(s Side, px Tick, n *OrderNode) bool) {
	for _, lad := range []Ladder{b.bids, b.asks} {
		side := lad.Side()
		stop := false
		lad.ForEachBest(func(px Tick, l *LevelFIFO) bool {
			for n := l.Head(); n != nil; n = n.Next() {
				if !fn(side, px, n) {
					stop = true
					return false
				}
			}
			return true
		})
		if stop {
			return
		}
	}
}

// Compact prunes emptied levels on ladders that support it. Off the hot
// path; a maintenance job calls this.
func (b *BookCore) Compact() {
	type compacter interface{ Compact() }
	if c, ok := b.bids.(compacter); ok {
		c.Compact()
	}
	if c, ok := b.asks.(compacter); ok {
		c.Compact()
	}
}

// rest places leftover quantity at o.Price on o.Side and indexes it.
// Resting a duplicate id would silently corrupt the index, so it is fatal.
func (b *BookCore) rest(o NewOrder, leftover Qty) {
	if _, dup := b.index[o.ID]; dup {
		panic(fmt.Sprintf("book: duplicate resting order id %d", o.ID))
	}
	n := b.enqueueResting(o, leftover)
	b.index[o.ID] = idEntry{side: o.Side, px: o.Price, node: n}
}

// enqueueResting links a fresh node at the tail of its level and maintains
// the best cache on strict improvement.
func (b *BookCore) enqueueResting(o NewOrder, leftover Qty) *OrderNode {
	same := b.ladder(o.Side)
	n := b.pool.Get()
	*n = OrderNode{ID: o.ID, User: o.User, Qty: leftover, Ts: o.Ts, Flags: o.Flags}

	same.Level(o.Price).EnqueueTail(n)
	if better(o.Side, o.Price, same.Best()) {
		same.SetBest(o.Price)
	}
	return n
}

// removeResting erases a node from its level, repairs the best cache if the
// level drained while holding it, drops the index entry and recycles the
// node.
func (b *BookCore) removeResting(e idEntry) {
	lad := b.ladder(e.side)
	l := lad.Level(e.px)
	wasBest := lad.Best() == e.px

	l.Erase(e.node)
	delete(b.index, e.node.ID)
	b.dispose(e.node)

	if l.Empty() && wasBest {
		lad.SetBest(lad.NextBest(e.px))
	}
}

// wouldCross reports whether a limit at px on side s would trade on arrival.
func (b *BookCore) wouldCross(s Side, px Tick) bool {
	opp := b.ladder(s.Opposite())
	best := opp.Best()
	if best == EmptySentinel(s.Opposite()) {
		return false
	}
	return crosses(s, best, px)
}

// canFill reports whether want quantity is available to this taker within
// the bound. With STP set, same-user resting quantity does not count: STP
// would remove it without trading.
func (b *BookCore) canFill(s Side, user UserID, flags Flag, want Qty, bound Tick) bool {
	opp := b.ladder(s.Opposite())
	var avail Qty
	opp.ForEachBest(func(px Tick, l *LevelFIFO) bool {
		if !crosses(s, px, bound) {
			return false
		}
		if flags&FlagSTP == 0 {
			avail += l.TotalQty()
		} else {
			for n := l.Head(); n != nil; n = n.Next() {
				if n.User != user {
					avail += n.Qty
				}
			}
		}
		return avail < want
	})
	return avail >= want
}

// matchAgainst consumes from the opposite book while the taker can cross.
// bound is the worst acceptable price for a limit, or the opposite side's
// far sentinel for a market order so that only emptiness stops the sweep.
func (b *BookCore) matchAgainst(o NewOrder, bound Tick) Qty {
	opp := b.ladder(o.Side.Opposite())
	sentinel := EmptySentinel(o.Side.Opposite())

	var filled Qty
	want := o.Qty

	for want > 0 {
		best := opp.Best()
		if best == sentinel {
			break
		}
		if !crosses(o.Side, best, bound) {
			break
		}

		l := opp.Level(best)
		h := l.Head()
		if h == nil {
			// Stale cache; advance to the next non-empty level.
			opp.SetBest(opp.NextBest(best))
			continue
		}

		if o.Flags&FlagSTP != 0 && h.User == o.User {
			// Remove the resting order without trading; want is unchanged.
			l.Erase(h)
			delete(b.index, h.ID)
			if b.log != nil {
				b.log.Cancel(h.ID)
			}
			b.dispose(h)
			if l.Empty() {
				opp.SetBest(opp.NextBest(best))
			}
			continue
		}

		tr := want
		if h.Qty < tr {
			tr = h.Qty
		}
		maker := h.ID
		makerUser := h.User
		l.reduce(h, tr)
		filled += tr
		want -= tr

		if b.log != nil {
			b.log.Trade(Trade{
				Seq:       o.Seq,
				Ts:        o.Ts,
				TakerID:   o.ID,
				MakerID:   maker,
				TakerUser: o.User,
				MakerUser: makerUser,
				Side:      o.Side,
				Price:     best,
				Qty:       tr,
			})
		}

		if h.Qty == 0 {
			l.Erase(h)
			delete(b.index, h.ID)
			b.dispose(h)
			if l.Empty() {
				opp.SetBest(opp.NextBest(best))
			}
		}
	}
	return filled
}
