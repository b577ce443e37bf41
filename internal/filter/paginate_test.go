package filter

import "testing"

func TestParsePage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"3", 3},
		{"abc", 1},
		{"0", 1},
		{"-2", 1},
		{" 2 ", 2},
	}
	for _, tt := range tests {
		if got := ParsePage(tt.raw); got != tt.want {
			t.Errorf("ParsePage(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"Missing uses default", "", 200},
		{"Malformed uses default", "lots", 200},
		{"Within range", "50", 50},
		{"Clamped to max", "10000", 500},
		{"Zero uses default", "0", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLimit(tt.raw, 200, 500); got != tt.want {
				t.Errorf("ClampLimit(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		page       int
		wantPage   int
		wantPages  int
		wantOffset int
		wantNext   bool
		wantPrev   bool
	}{
		{"First page", 30, 1, 1, 3, 0, true, false},
		{"Middle page", 30, 2, 2, 3, 12, true, true},
		{"Last page", 30, 3, 3, 3, 24, false, true},
		{"Past the end returns last page", 30, 99, 3, 3, 24, false, true},
		{"Empty result is a single page", 0, 4, 1, 1, 0, false, false},
		{"Exact multiple", 24, 2, 2, 2, 12, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Paginate(tt.total, tt.page, 12)
			if info.Number != tt.wantPage {
				t.Errorf("Number = %d, want %d", info.Number, tt.wantPage)
			}
			if info.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", info.TotalPages, tt.wantPages)
			}
			if info.Offset() != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", info.Offset(), tt.wantOffset)
			}
			if (info.Next != nil) != tt.wantNext {
				t.Errorf("Next = %v, want present=%v", info.Next, tt.wantNext)
			}
			if (info.Previous != nil) != tt.wantPrev {
				t.Errorf("Previous = %v, want present=%v", info.Previous, tt.wantPrev)
			}
		})
	}
}
