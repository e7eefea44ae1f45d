package wal

import (
	"encoding/binary"
	"errors"

	"vidar/domain/book"
)

// Fixed-width payload layouts. Seq and Ts travel in the record frame, not in
// the payload.
const (
	newOrderSize = 37 // id u64 + user u64 + side u8 + price i64 + qty i64 + flags u32
	cancelSize   = 8  // id u64
	modifySize   = 28 // id u64 + new price i64 + new qty i64 + flags u32
	tradeSize    = 49 // taker u64 + maker u64 + taker user u64 + maker user u64 + side u8 + price i64 + qty i64
)

var ErrShortPayload = errors.New("wal: short payload")

func EncodeNewOrder(o book.NewOrder) []byte {
	buf := make([]byte, newOrderSize)
	binary.BigEndian.PutUint64(buf[0:8], uint64(o.ID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(o.User))
	buf[16] = byte(o.Side)
	binary.BigEndian.PutUint64(buf[17:25], uint64(o.Price))
	binary.BigEndian.PutUint64(buf[25:33], uint64(o.Qty))
	binary.BigEndian.PutUint32(buf[33:37], uint32(o.Flags))
	return buf
}

// DecodeNewOrder rebuilds a NewOrder; seq and ts come from the record frame.
func DecodeNewOrder(r *Record) (book.NewOrder, error) {
	if len(r.Data) < newOrderSize {
		return book.NewOrder{}, ErrShortPayload
	}
	return book.NewOrder{
		Seq:   book.SeqNo(r.Seq),
		Ts:    book.TimeNs(r.Time),
		ID:    book.OrderID(binary.BigEndian.Uint64(r.Data[0:8])),
		User:  book.UserID(binary.BigEndian.Uint64(r.Data[8:16])),
		Side:  book.Side(r.Data[16]),
		Price: book.Tick(binary.BigEndian.Uint64(r.Data[17:25])),
		Qty:   book.Qty(binary.BigEndian.Uint64(r.Data[25:33])),
		Flags: book.Flag(binary.BigEndian.Uint32(r.Data[33:37])),
	}, nil
}

func EncodeCancel(id book.OrderID) []byte {
	buf := make([]byte, cancelSize)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func DecodeCancel(r *Record) (book.OrderID, error) {
	if len(r.Data) < cancelSize {
		return 0, ErrShortPayload
	}
	return book.OrderID(binary.BigEndian.Uint64(r.Data[0:8])), nil
}

func EncodeModify(m book.ModifyOrder) []byte {
	buf := make([]byte, modifySize)
	binary.BigEndian.PutUint64(buf[0:8], uint64(m.ID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(m.NewPrice))
	binary.BigEndian.PutUint64(buf[16:24], uint64(m.NewQty))
	binary.BigEndian.PutUint32(buf[24:28], uint32(m.Flags))
	return buf
}

func DecodeModify(r *Record) (book.ModifyOrder, error) {
	if len(r.Data) < modifySize {
		return book.ModifyOrder{}, ErrShortPayload
	}
	return book.ModifyOrder{
		Seq:      book.SeqNo(r.Seq),
		Ts:       book.TimeNs(r.Time),
		ID:       book.OrderID(binary.BigEndian.Uint64(r.Data[0:8])),
		NewPrice: book.Tick(binary.BigEndian.Uint64(r.Data[8:16])),
		NewQty:   book.Qty(binary.BigEndian.Uint64(r.Data[16:24])),
		Flags:    book.Flag(binary.BigEndian.Uint32(r.Data[24:28])),
	}, nil
}

func EncodeTrade(t book.Trade) []byte {
	buf := make([]byte, tradeSize)
	binary.BigEndian.PutUint64(buf[0:8], uint64(t.TakerID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(t.MakerID))
	binary.BigEndian.PutUint64(buf[16:24], uint64(t.TakerUser))
	binary.BigEndian.PutUint64(buf[24:32], uint64(t.MakerUser))
	buf[32] = byte(t.Side)
	binary.BigEndian.PutUint64(buf[33:41], uint64(t.Price))
	binary.BigEndian.PutUint64(buf[41:49], uint64(t.Qty))
	return buf
}

func DecodeTrade(r *Record) (book.Trade, error) {
	if len(r.Data) < tradeSize {
		return book.Trade{}, ErrShortPayload
	}
	return book.Trade{
		Seq:       book.SeqNo(r.Seq),
		Ts:        book.TimeNs(r.Time),
		TakerID:   book.OrderID(binary.BigEndian.Uint64(r.Data[0:8])),
		MakerID:   book.OrderID(binary.BigEndian.Uint64(r.Data[8:16])),
		TakerUser: book.UserID(binary.BigEndian.Uint64(r.Data[16:24])),
		MakerUser: book.UserID(binary.BigEndian.Uint64(r.Data[24:32])),
		Side:      book.Side(r.Data[32]),
		Price:     book.Tick(binary.BigEndian.Uint64(r.Data[33:41])),
		Qty:       book.Qty(binary.BigEndian.Uint64(r.Data[41:49])),
	}, nil
}
