package book

import (
	"math/rand"
	"sort"
	"testing"
)

func TestRBTree_UpsertFindDelete(t *testing.T) {
	tr := newRBTree()
	if tr.Size() != 0 {
		t.Fatalf("fresh tree has size %d", tr.Size())
	}

	l1 := tr.Upsert(100)
	l2 := tr.Upsert(105)
	if tr.Upsert(100) != l1 {
		t.Error("upsert of existing price should return the same level")
	}
	if tr.Size() != 2 {
		t.Fatalf("size = %d, want 2", tr.Size())
	}
	if tr.Find(105) != l2 {
		t.Error("find returned wrong level")
	}
	if tr.Find(101) != nil {
		t.Error("find of absent price should be nil")
	}

	if !tr.Delete(100) {
		t.Error("delete of present price should succeed")
	}
	if tr.Delete(100) {
		t.Error("delete of absent price should fail")
	}
	if tr.Size() != 1 {
		t.Fatalf("size = %d after delete, want 1", tr.Size())
	}
}

func TestRBTree_NeighbourQueries(t *testing.T) {
	tr := newRBTree()
	for _, px := range []Tick{10, 20, 30, 40} {
		tr.Upsert(px)
	}

	if px, _, ok := tr.Successor(20); !ok || px != 30 {
		t.Errorf("successor(20) = %d,%v, want 30,true", px, ok)
	}
	if px, _, ok := tr.Successor(25); !ok || px != 30 {
		t.Errorf("successor(25) = %d,%v, want 30,true", px, ok)
	}
	if _, _, ok := tr.Successor(40); ok {
		t.Error("successor(40) should not exist")
	}
	if px, _, ok := tr.Predecessor(20); !ok || px != 10 {
		t.Errorf("predecessor(20) = %d,%v, want 10,true", px, ok)
	}
	if _, _, ok := tr.Predecessor(10); ok {
		t.Error("predecessor(10) should not exist")
	}
}

func TestRBTree_OrderedWalksUnderChurn(t *testing.T) {
	tr := newRBTree()
	rng := rand.New(rand.NewSource(42))

	present := map[Tick]bool{}
	for i := 0; i < 2000; i++ {
		px := Tick(rng.Intn(500))
		if present[px] && rng.Intn(3) == 0 {
			tr.Delete(px)
			delete(present, px)
		} else {
			tr.Upsert(px)
			present[px] = true
		}
	}

	var want []Tick
	for px := range present {
		want = append(want, px)
	}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	var got []Tick
	tr.Ascend(func(px Tick, _ *LevelFIFO) bool {
		got = append(got, px)
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("ascend visited %d keys, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("ascend[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	var desc []Tick
	tr.Descend(func(px Tick, _ *LevelFIFO) bool {
		desc = append(desc, px)
		return true
	})
	for i := range desc {
		if desc[i] != want[len(want)-1-i] {
			t.Fatalf("descend[%d] = %d, want %d", i, desc[i], want[len(want)-1-i])
		}
	}
}
