package domain

import "testing"

func TestSiteFilter_Variants(t *testing.T) {
	tests := []struct {
		name     string
		filter   SiteFilter
		wantText string
		wantSet  bool
	}{
		{"zero value", SiteFilter{}, "", false},
		{"no filter", NoFilter(), "", false},
		{"empty text", NameContains(""), "", false},
		{"whitespace text", NameContains("  \t"), "", false},
		{"name", NameContains("Alpha"), "Alpha", true},
		{"name with spaces kept", NameContains(" Alpha "), " Alpha ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := tt.filter.NameContains()
			if ok != tt.wantSet {
				t.Errorf("NameContains() set = %v; want %v", ok, tt.wantSet)
			}
			if text != tt.wantText {
				t.Errorf("NameContains() text = %q; want %q", text, tt.wantText)
			}
			if tt.filter.IsEmpty() == tt.wantSet {
				t.Errorf("IsEmpty() = %v; want %v", tt.filter.IsEmpty(), !tt.wantSet)
			}
		})
	}
}

func TestSiteFilter_String(t *testing.T) {
	if got := NoFilter().String(); got != "none" {
		t.Errorf("String() = %q; want none", got)
	}
	if got := NameContains("zzz").String(); got != `name contains "zzz"` {
		t.Errorf("String() = %q", got)
	}
}

func TestSite_TableName(t *testing.T) {
	if got := (Site{}).TableName(); got != "sites" {
		t.Errorf("TableName() = %q; want sites", got)
	}
}

func TestDefaultPageOptions(t *testing.T) {
	opts := DefaultPageOptions()
	if opts.DefaultSize != 10 || opts.MaxSize != 1000 {
		t.Errorf("DefaultPageOptions() = %+v; want {10 1000}", opts)
	}
}
