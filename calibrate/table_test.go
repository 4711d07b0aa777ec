package calibrate

import (
	"strings"
	"testing"
)

func TestLoadCSVMapsColumns(t *testing.T) {
	csv := "date,arpu_usd,customers\n2026-01-01,48.5,100\n2026-02-01,49.1,110\n"
	table, err := LoadCSV(strings.NewReader(csv), map[string]string{
		"arpu":      "arpu_usd",
		"customers": "customers",
	})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if table.Rows() != 2 {
		t.Fatalf("Rows() = %d, want 2", table.Rows())
	}
	if got := table.Columns["arpu"]; len(got) != 2 || got[0] != 48.5 {
		t.Errorf("arpu column = %v", got)
	}
	if got := table.Columns["customers"]; len(got) != 2 || got[1] != 110 {
		t.Errorf("customers column = %v", got)
	}
}

func TestLoadCSVRejectsUnknownColumn(t *testing.T) {
	csv := "a,b\n1,2\n"
	_, err := LoadCSV(strings.NewReader(csv), map[string]string{"x": "missing"})
	if err == nil {
		t.Fatal("expected an error for a missing CSV column")
	}
}

func TestApplyMissingPolicyDrop(t *testing.T) {
	csv := "v\n1\nnot-a-number\n3\n"
	table, err := LoadCSV(strings.NewReader(csv), map[string]string{"v": "v"})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if err := table.ApplyMissingPolicy(MissingDrop, 0); err != nil {
		t.Fatalf("ApplyMissingPolicy: %v", err)
	}
	if table.Rows() != 2 {
		t.Fatalf("Rows() = %d, want 2", table.Rows())
	}
	if got := table.Columns["v"]; len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("v column = %v, want [1 3]", got)
	}
}

func TestApplyMissingPolicyMean(t *testing.T) {
	csv := "v\n10\nbad\n30\n"
	table, err := LoadCSV(strings.NewReader(csv), map[string]string{"v": "v"})
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if err := table.ApplyMissingPolicy(MissingMean, 0); err != nil {
		t.Fatalf("ApplyMissingPolicy: %v", err)
	}
	if table.Rows() != 3 {
		t.Fatalf("Rows() = %d, want 3 (mean fill keeps rows)", table.Rows())
	}
	if got := table.Columns["v"][1]; got != 20 {
		t.Errorf("filled value = %v, want mean 20", got)
	}
}

func TestApplyMissingPolicyForwardFill(t *testing.T) {
	csv := "v\n5\nbad\nbad\n9\n"
	table, _ := LoadCSV(strings.NewReader(csv), map[string]string{"v": "v"})
	if err := table.ApplyMissingPolicy(MissingForwardFill, 0); err != nil {
		t.Fatalf("ApplyMissingPolicy: %v", err)
	}
	want := []float64{5, 5, 5, 9}
	got := table.Columns["v"]
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("v[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDetectOutliersIQRFlagsExtremeValue(t *testing.T) {
	csv := "v\n10\n11\n9\n10\n12\n1000\n"
	table, _ := LoadCSV(strings.NewReader(csv), map[string]string{"v": "v"})
	mask := table.DetectOutliers("v", OutlierIQR, 1.5)
	if !mask[5] {
		t.Error("expected the extreme value at index 5 to be flagged")
	}
	for i := 0; i < 5; i++ {
		if mask[i] {
			t.Errorf("unexpected outlier flag at index %d", i)
		}
	}
}

func TestFilterOutliersRemovesFlaggedRows(t *testing.T) {
	csv := "v\n10\n11\n1000\n9\n"
	table, _ := LoadCSV(strings.NewReader(csv), map[string]string{"v": "v"})
	mask := table.DetectOutliers("v", OutlierIQR, 1.5)
	table.FilterOutliers(mask)
	if table.Rows() != 3 {
		t.Fatalf("Rows() = %d, want 3", table.Rows())
	}
	for _, v := range table.Columns["v"] {
		if v == 1000 {
			t.Error("outlier value 1000 should have been filtered out")
		}
	}
}
