package book

import "testing"

func BenchmarkSubmitLimitRest(b *testing.B) {
	core := New(NewSparseLadder(Bid), NewSparseLadder(Ask), nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		core.SubmitLimit(NewOrder{
			Seq:   SeqNo(i + 1),
			ID:    OrderID(i + 1),
			User:  1000,
			Side:  Bid,
			Price: Tick(100 + i%64),
			Qty:   1,
		})
	}
}

func BenchmarkSubmitLimitMatch(b *testing.B) {
	core := New(NewContigLadder(Bid, PriceBand{1, 4096}), NewContigLadder(Ask, PriceBand{1, 4096}), nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		core.SubmitLimit(NewOrder{Seq: SeqNo(2 * i), ID: OrderID(2*i + 1), User: 1, Side: Ask, Price: 100, Qty: 1})
		core.SubmitLimit(NewOrder{Seq: SeqNo(2*i + 1), ID: OrderID(2*i + 2), User: 2, Side: Bid, Price: 100, Qty: 1})
	}
}

func BenchmarkCancel(b *testing.B) {
	core := New(NewSparseLadder(Bid), NewSparseLadder(Ask), nil)
	for i := 0; i < b.N; i++ {
		core.SubmitLimit(NewOrder{Seq: SeqNo(i + 1), ID: OrderID(i + 1), User: 1, Side: Bid, Price: Tick(100 + i%64), Qty: 1})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		core.Cancel(OrderID(i + 1))
	}
}
