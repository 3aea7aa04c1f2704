package repcrec

import "testing"

func TestWithDefaultsFillsZeroFields(t *testing.T) {
	c := Config{}.WithDefaults()
	d := DefaultConfig()
	if c != d {
		t.Fatalf("WithDefaults() on a zero Config = %+v, want %+v", c, d)
	}

	custom := Config{SiteCount: 3}.WithDefaults()
	if custom.SiteCount != 3 || custom.RecordCount != d.RecordCount {
		t.Fatalf("WithDefaults() should only fill the zero fields, got %+v", custom)
	}
}
