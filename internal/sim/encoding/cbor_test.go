package encoding

import "testing"

type sample struct {
	Turn  uint64
	Stock map[string]int
	IDs   []uint64
}

func TestDigestIgnoresMapInsertionOrder(t *testing.T) {
	a := sample{Turn: 3, Stock: map[string]int{}, IDs: []uint64{1, 2}}
	b := sample{Turn: 3, Stock: map[string]int{}, IDs: []uint64{1, 2}}
	for _, k := range []string{"ScrapT1", "ConcentratT1", "PolymerT2"} {
		a.Stock[k] = len(k)
	}
	for _, k := range []string{"PolymerT2", "ScrapT1", "ConcentratT1"} {
		b.Stock[k] = len(k)
	}
	da, err := Digest(a)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	db, err := Digest(b)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if da != db {
		t.Fatalf("digest depends on map order: %s != %s", da, db)
	}
	if len(da) != 64 {
		t.Fatalf("want hex sha256, got %q", da)
	}

	b.IDs = []uint64{2, 1}
	dc, _ := Digest(b)
	if dc == da {
		t.Fatalf("slice order must change the digest")
	}
}
