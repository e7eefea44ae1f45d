package service

import (
	"encoding/json"
	"fmt"

	"vidar/domain/book"
)

// OrderMessage is the wire form of engine input, one JSON object per Kafka
// message.
type OrderMessage struct {
	Type  string `json:"type"` // limit | market | cancel | modify
	TsNs  int64  `json:"ts_ns"`
	ID    uint64 `json:"id"`
	User  uint64 `json:"user"`
	Side  string `json:"side"` // bid | ask
	Price int64  `json:"price"`
	Qty   int64  `json:"qty"`
	Flags uint32 `json:"flags"`
}

func parseSide(s string) (book.Side, error) {
	switch s {
	case "bid", "b", "buy":
		return book.Bid, nil
	case "ask", "a", "sell", "s":
		return book.Ask, nil
	}
	return 0, fmt.Errorf("service: bad side %q", s)
}

// Dispatch decodes and applies one wire message.
func (e *Engine) Dispatch(payload []byte) (book.ExecResult, error) {
	var msg OrderMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return book.ExecResult{}, fmt.Errorf("service: decode order message: %w", err)
	}

	switch msg.Type {
	case "limit", "market":
		side, err := parseSide(msg.Side)
		if err != nil {
			return book.ExecResult{}, err
		}
		o := book.NewOrder{
			Ts:    book.TimeNs(msg.TsNs),
			ID:    book.OrderID(msg.ID),
			User:  book.UserID(msg.User),
			Side:  side,
			Price: book.Tick(msg.Price),
			Qty:   book.Qty(msg.Qty),
			Flags: book.Flag(msg.Flags),
		}
		if msg.Type == "limit" {
			return e.SubmitLimit(o)
		}
		return e.SubmitMarket(o)

	case "cancel":
		_, err := e.Cancel(book.TimeNs(msg.TsNs), book.OrderID(msg.ID))
		return book.ExecResult{}, err

	case "modify":
		return e.Modify(book.ModifyOrder{
			Ts:       book.TimeNs(msg.TsNs),
			ID:       book.OrderID(msg.ID),
			NewPrice: book.Tick(msg.Price),
			NewQty:   book.Qty(msg.Qty),
			Flags:    book.Flag(msg.Flags),
		})
	}
	return book.ExecResult{}, fmt.Errorf("service: bad message type %q", msg.Type)
}
