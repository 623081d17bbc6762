package istr

import "testing"

func TestInternIdentity(t *testing.T) {
	ClearAll()
	a := Intern("foo")
	b := Intern("foo")
	if !a.Equal(b) {
		t.Fatalf("two interns of the same text must be the same handle")
	}
	if a.e != b.e {
		t.Fatalf("IStr equality must be pointer-equal after interning (§3.1)")
	}
}

func TestInternDistinctText(t *testing.T) {
	ClearAll()
	a := Intern("foo")
	b := Intern("bar")
	if a.Equal(b) {
		t.Fatalf("distinct text must not intern to the same handle")
	}
}

func TestInternNFCNormalises(t *testing.T) {
	ClearAll()
	// "e" + combining acute (NFD) vs precomposed "é" (NFC) are visually
	// identical but byte-distinct; both must intern to one handle.
	nfd := Intern("café")
	nfc := Intern("café")
	if !nfd.Equal(nfc) {
		t.Fatalf("NFD and NFC forms of the same identifier must intern identically")
	}
}

func TestZeroValueIsEmpty(t *testing.T) {
	var z IStr
	if !z.IsEmpty() {
		t.Fatalf("zero-value IStr must report IsEmpty")
	}
	if z.String() != "" {
		t.Fatalf("zero-value IStr must stringify to empty")
	}
}

func TestLessTotalOrder(t *testing.T) {
	ClearAll()
	a := Intern("alpha")
	b := Intern("beta")
	if !a.Less(b) || b.Less(a) {
		t.Fatalf("Less must agree with the underlying text order")
	}
}

func TestDictionaryOrderByDescendingUse(t *testing.T) {
	ClearAll()
	hot := Intern("hot")
	cold := Intern("cold")
	mid := Intern("mid")
	// Resolve "hot" more often than "mid" more often than "cold".
	for i := 0; i < 5; i++ {
		hot.String()
	}
	for i := 0; i < 2; i++ {
		mid.String()
	}
	cold.String()

	order := DictionaryOrder()
	idx := map[string]int{}
	for i, s := range order {
		idx[s.Raw()] = i
	}
	if idx["hot"] >= idx["mid"] || idx["mid"] >= idx["cold"] {
		t.Fatalf("dictionary order must be descending by use count, got %v", order)
	}
}

func TestClearAllDropsEntries(t *testing.T) {
	ClearAll()
	Intern("x")
	if len(DictionaryOrder()) == 0 {
		t.Fatalf("expected at least one interned entry before clearing")
	}
	ClearAll()
	if len(DictionaryOrder()) != 0 {
		t.Fatalf("ClearAll must drop every interned entry")
	}
}
