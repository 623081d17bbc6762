package hir

import "testing"

func TestTraitMarkingsZeroValueIsAllFalse(t *testing.T) {
	var m TraitMarkings
	if m.HasADeref || m.IsCopy || m.HasDropImpl {
		t.Fatalf("zero-value TraitMarkings must reject every fast-path query")
	}
	if m.AutoImpls != nil {
		t.Fatalf("zero-value TraitMarkings must not allocate the AutoImpls cache")
	}
}

func TestAutoImplsCacheByTraitName(t *testing.T) {
	m := TraitMarkings{AutoImpls: map[string]AutoImplState{}}
	m.AutoImpls["Send"] = AutoImplState{IsImpled: true}
	m.AutoImpls["Sync"] = AutoImplState{IsImpled: false, Conditions: []TypeRef{TPrimitive(PrimU8)}}

	if !m.AutoImpls["Send"].IsImpled {
		t.Fatalf("Send must be cached as impled")
	}
	sync := m.AutoImpls["Sync"]
	if sync.IsImpled {
		t.Fatalf("Sync must be cached as not impled")
	}
	if len(sync.Conditions) != 1 {
		t.Fatalf("expected one condition type cached for Sync")
	}
}

func TestStructMarkingsDefaultIndicesMeanAbsent(t *testing.T) {
	sm := StructMarkings{UnsizedParam: -1, UnsizedField: -1}
	if sm.CanUnsize {
		t.Fatalf("default StructMarkings must not report CanUnsize")
	}
	if sm.DstType != DstNone || sm.CoerceUnsized != CoerceNone {
		t.Fatalf("default StructMarkings must report DstNone/CoerceNone")
	}
}
