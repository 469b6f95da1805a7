package catalog_test

import (
	"reflect"
	"testing"

	"github.com/pokevault/auctioneer/internal/catalog"
)

func TestCanon(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"gholdengo", "Gholdengo", true},
		{"DRAGONITE", "Dragonite", true},
		{"  mewtwo  ", "Mewtwo", true},
		{"tapu koko", "Tapu Koko", true},
		{"Missingno", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := catalog.Canon(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Canon(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSuggest(t *testing.T) {
	got := catalog.Suggest("gholdeno", 3)
	if len(got) == 0 {
		t.Fatal("Suggest(gholdeno) returned no matches")
	}
	if got[0] != "Gholdengo" {
		t.Errorf("Suggest(gholdeno)[0] = %q, want Gholdengo", got[0])
	}
	if len(got) > 3 {
		t.Errorf("Suggest returned %d matches, want at most 3", len(got))
	}
}

func TestByGen(t *testing.T) {
	gen1 := catalog.ByGen(1)
	if len(gen1) == 0 {
		t.Fatal("ByGen(1) is empty")
	}
	found := false
	for _, n := range gen1 {
		if n == "Dragonite" {
			found = true
		}
	}
	if !found {
		t.Error("ByGen(1) missing Dragonite")
	}

	if got := catalog.ByGen(99); len(got) != 0 {
		t.Errorf("ByGen(99) = %v, want empty", got)
	}
}

func TestByGens_PreservesOrder(t *testing.T) {
	got := catalog.ByGens([]int{2, 1})
	want := append(catalog.ByGen(2), catalog.ByGen(1)...)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ByGens([2,1]) does not preserve input order")
	}
}

func TestParseGens(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"1", []int{1}},
		{"1,3-5", []int{1, 3, 4, 5}},
		{"2, 2, 2", []int{2}},
		{"9,1", []int{9, 1}},
		{"0,42", nil},
		{"5-3", nil},
		{"", nil},
		{"abc", nil},
	}

	for _, tt := range tests {
		got := catalog.ParseGens(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseGens(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExpandCopies(t *testing.T) {
	got := catalog.ExpandCopies("gholdengo", 3)
	want := []string{"Gholdengo", "Gholdengo", "Gholdengo"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandCopies(gholdengo, 3) = %v, want %v", got, want)
	}

	if got := catalog.ExpandCopies("Missingno", 3); got != nil {
		t.Errorf("ExpandCopies(Missingno, 3) = %v, want nil", got)
	}
	if got := catalog.ExpandCopies("Gholdengo", 0); got != nil {
		t.Errorf("ExpandCopies(Gholdengo, 0) = %v, want nil", got)
	}
}

func TestNamedList(t *testing.T) {
	meta := catalog.NamedList("META")
	if len(meta) == 0 {
		t.Fatal("NamedList(META) is empty")
	}
	for _, n := range meta {
		if _, ok := catalog.Canon(n); !ok {
			t.Errorf("named list entry %q not in catalog", n)
		}
	}

	if got := catalog.NamedList("nope"); len(got) != 0 {
		t.Errorf("NamedList(nope) = %v, want empty", got)
	}
}

func TestNames_NoDuplicates(t *testing.T) {
	names := catalog.Names()
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate catalog name %q", n)
		}
		seen[n] = true
	}
}
