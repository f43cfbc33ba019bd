package internaldefs

import "testing"

func TestCounterDefNamesAreUnique(t *testing.T) {
	seen := make(map[string]struct{}, len(CounterDefs))
	for _, def := range CounterDefs {
		if _, dup := seen[def.Name]; dup {
			t.Fatalf("duplicate counter name %q", def.Name)
		}
		seen[def.Name] = struct{}{}
		if def.Help == "" {
			t.Fatalf("counter %q has no help text", def.Name)
		}
	}
}

func TestNormalizeBuckets(t *testing.T) {
	short := NormalizeBuckets([]uint64{1, 2})
	if short[0] != 1 || short[1] != 2 || short[7] != 0 {
		t.Fatalf("short input not padded: %v", short)
	}

	long := NormalizeBuckets([]uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	if long[7] != 8 {
		t.Fatalf("long input not truncated: %v", long)
	}

	empty := NormalizeBuckets(nil)
	for i, v := range empty {
		if v != 0 {
			t.Fatalf("nil input bucket %d = %d", i, v)
		}
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets([8]uint64{2, 1, 0, 0, 0, 0, 0, 1})
	want := [8]uint64{2, 3, 3, 3, 3, 3, 3, 4}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}
