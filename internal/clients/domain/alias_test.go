package domain

import (
	"strings"
	"testing"
)

func TestAliasValidate(t *testing.T) {
	tests := []struct {
		name    string
		alias   Alias
		wantErr bool
		want    string
	}{
		{name: "trims", alias: Alias{ClientID: 7, Alias: "  Hotel Sol "}, want: "Hotel Sol"},
		{name: "zero id", alias: Alias{ClientID: 0, Alias: "x"}, wantErr: true},
		{name: "blank", alias: Alias{ClientID: 1, Alias: "   "}, wantErr: true},
		{name: "too long", alias: Alias{ClientID: 1, Alias: strings.Repeat("a", MaxAliasLength+1)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.alias.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.alias.Alias != tt.want {
				t.Fatalf("alias = %q, want %q", tt.alias.Alias, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	entries := Merge([]int{9, 3, 3, 0}, map[int]string{3: "Clinica Norte", 12: "Hotel Sol"})
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	wantIDs := []int{3, 9, 12}
	for i, id := range wantIDs {
		if entries[i].ClientID != id {
			t.Fatalf("entry %d: id %d, want %d", i, entries[i].ClientID, id)
		}
	}
	if entries[0].Alias == nil || *entries[0].Alias != "Clinica Norte" {
		t.Fatalf("expected alias for client 3")
	}
	if entries[1].Alias != nil || entries[1].Name != "Cliente 9" {
		t.Fatalf("expected default name for client 9, got %+v", entries[1])
	}
}
