package units

import "testing"

func TestNormalizeCapacityConvertsAcrossDecimalPrefixes(t *testing.T) {
	gb, err := NormalizeCapacity(1, "GB")
	if err != nil {
		t.Fatalf("NormalizeCapacity: %v", err)
	}
	if gb != 1000*1000*1000 {
		t.Errorf("1 GB = %v bytes, want 1e9", gb)
	}
}

func TestNormalizeCapacityConvertsAcrossBinaryPrefixes(t *testing.T) {
	mib, err := NormalizeCapacity(1, "MiB")
	if err != nil {
		t.Fatalf("NormalizeCapacity: %v", err)
	}
	if mib != 1024*1024 {
		t.Errorf("1 MiB = %v bytes, want 2^20", mib)
	}
}

func TestNormalizeCapacityRejectsUnknownSuffix(t *testing.T) {
	if _, err := NormalizeCapacity(1, "XB"); err == nil {
		t.Fatal("expected an error for an unrecognized capacity suffix")
	}
}

func TestCapUnitIsStableAcrossSuffixes(t *testing.T) {
	// GB and MiB literals both resolve to the same canonical Capacity unit,
	// so a GB quantity and a MiB quantity are addable under AddSub even
	// though their source suffixes differ and scale differently.
	if !CapUnit().Equal(CapUnit()) {
		t.Fatal("CapUnit() should always be dimensionally self-equal")
	}
	if _, err := AddSub("+", CapUnit(), CapUnit()); err != nil {
		t.Fatalf("expected GB and MiB quantities (both CapUnit) to add, got %v", err)
	}
}
