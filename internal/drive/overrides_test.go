package drive

import (
	"strings"
	"testing"
)

func TestParseOverrides(t *testing.T) {
	csv := strings.Join([]string{
		"scope,key,window_days,reorder_threshold_days",
		"supplier,ACME,90,30",
		"category,abrigos,120,",
		"category,vestidos,,20.5",
		"supplier,BROKEN,not-a-number,10",
		"supplier,,90,30",
		"warehouse,WH1,90,30",
	}, "\n")

	overrides, err := parseOverrides(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parseOverrides: %v", err)
	}

	acme, ok := overrides.Supplier["ACME"]
	if !ok {
		t.Fatal("missing supplier override for ACME")
	}
	if acme.WindowDays == nil || *acme.WindowDays != 90 {
		t.Errorf("ACME window = %v, want 90", acme.WindowDays)
	}
	if acme.ReorderThresholdDays == nil || *acme.ReorderThresholdDays != 30 {
		t.Errorf("ACME threshold = %v, want 30", acme.ReorderThresholdDays)
	}

	abrigos, ok := overrides.Category["abrigos"]
	if !ok {
		t.Fatal("missing category override for abrigos")
	}
	if abrigos.WindowDays == nil || *abrigos.WindowDays != 120 {
		t.Errorf("abrigos window = %v, want 120", abrigos.WindowDays)
	}
	if abrigos.ReorderThresholdDays != nil {
		t.Errorf("abrigos threshold = %v, empty cell must stay nil", *abrigos.ReorderThresholdDays)
	}

	vestidos, ok := overrides.Category["vestidos"]
	if !ok {
		t.Fatal("missing category override for vestidos")
	}
	if vestidos.WindowDays != nil {
		t.Errorf("vestidos window = %v, empty cell must stay nil", *vestidos.WindowDays)
	}
	if vestidos.ReorderThresholdDays == nil || *vestidos.ReorderThresholdDays != 20.5 {
		t.Errorf("vestidos threshold = %v, want 20.5", vestidos.ReorderThresholdDays)
	}

	if _, ok := overrides.Supplier["BROKEN"]; ok {
		t.Error("malformed row must be skipped, not half-applied")
	}
	if len(overrides.Supplier) != 1 {
		t.Errorf("supplier overrides = %d entries, want 1", len(overrides.Supplier))
	}
	if len(overrides.Category) != 2 {
		t.Errorf("category overrides = %d entries, want 2", len(overrides.Category))
	}
}
