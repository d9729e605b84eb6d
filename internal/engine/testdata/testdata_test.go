package testdata

import (
	"bytes"
	"testing"
)

func TestLoadExpectations(t *testing.T) {
	entries, err := LoadExpectations()
	if err != nil {
		t.Fatalf("LoadExpectations() error: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expectations are empty")
	}

	for i, e := range entries {
		if e.Row != i {
			t.Errorf("entry[%d] has row %d; entries must be in row order", i, e.Row)
		}
		if e.ID == "" || e.CCNum == "" {
			t.Errorf("entry[%d] missing id or cc_num", i)
		}
		if e.CategorySlot < 1 || e.CategorySlot > 13 {
			t.Errorf("entry[%d] category_slot %d out of range", i, e.CategorySlot)
		}
		if e.Description == "" {
			t.Errorf("entry[%d] has empty description", i)
		}
	}
}

func TestExpectationsCoverEveryRow(t *testing.T) {
	entries, err := LoadExpectations()
	if err != nil {
		t.Fatal(err)
	}
	lines := bytes.Count(bytes.TrimSpace(TransactionsCSV), []byte("\n"))
	if lines != len(entries) {
		t.Errorf("csv has %d data rows, expectations cover %d", lines, len(entries))
	}
}
