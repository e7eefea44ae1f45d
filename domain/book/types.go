package book

import "math"

// Tick is an integral price in ticks. External scaling (tick size, currency)
// is the caller's concern; the core never interprets it.
type Tick int64

// Qty is a signed order quantity. Non-positive quantities are rejected at the
// public boundary and never reach the ladders.
type Qty int64

// OrderID identifies an order. Ids must be unique across all resting orders.
type OrderID uint64

// UserID identifies the owner of an order, used for self-trade prevention.
type UserID uint64

// SeqNo is a pass-through sequence number stamped by the caller.
type SeqNo uint64

// TimeNs is a pass-through timestamp in nanoseconds since the UNIX epoch.
type TimeNs int64

// Side selects one of the two books.
type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// Opposite returns the side an incoming order trades against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// Flag is a bitmask of order modifiers. Bits are independent and may be
// combined. Bits outside the known set are ignored.
type Flag uint32

const (
	// FlagIOC discards any leftover quantity instead of resting it.
	FlagIOC Flag = 1 << iota
	// FlagFOK fills the full quantity during the cross or has no side effect.
	FlagFOK
	// FlagPostOnly rejects the order outright if it would cross.
	FlagPostOnly
	// FlagSTP cancels same-user resting orders instead of trading with them.
	FlagSTP
)

// Sentinel best prices. A bid ladder with no resting orders reports BidEmpty;
// an ask ladder reports AskEmpty. Any non-sentinel best corresponds to a
// non-empty level.
const (
	BidEmpty Tick = math.MinInt64
	AskEmpty Tick = math.MaxInt64
)

// EmptySentinel returns the side's "no best price" value.
func EmptySentinel(s Side) Tick {
	if s == Bid {
		return BidEmpty
	}
	return AskEmpty
}

// NewOrder is an incoming limit or market order. Price is ignored when the
// message is dispatched as a market order.
type NewOrder struct {
	Seq   SeqNo
	Ts    TimeNs
	ID    OrderID
	User  UserID
	Side  Side
	Price Tick
	Qty   Qty
	Flags Flag
}

// ModifyOrder alters the price and/or quantity of a resting order. Side is
// taken from the indexed record, never from the message.
type ModifyOrder struct {
	Seq      SeqNo
	Ts       TimeNs
	ID       OrderID
	NewPrice Tick
	NewQty   Qty
	Flags    Flag
}

// ExecResult reports the outcome of a submit or modify. For a limit order
// Remaining is the quantity left after the cross (resting, unless IOC dropped
// it); for a market order it is the unfilled discard. For every submit that
// passes validation, Filled + Remaining equals the order quantity. A submit
// rejected by validation (non-positive quantity, price outside the ladder's
// band), an in-place or unknown-id modify, and a modify to an out-of-band
// price return the zero value.
type ExecResult struct {
	Filled    Qty
	Remaining Qty
}

// Quote is a top-of-book sample. Sizes are the level totals at the best
// prices. HasBid/HasAsk distinguish an empty side from a zero price.
type Quote struct {
	BidPx Tick
	BidSz Qty
	AskPx Tick
	AskSz Qty

	HasBid bool
	HasAsk bool
}
