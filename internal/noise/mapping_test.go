package noise

import (
	"maps"
	"slices"
	"testing"
)

func TestDefaultMannerTable_Shape(t *testing.T) {
	t.Parallel()
	if got := DefaultMannerTable.Len(); got != len(mannerRows) {
		t.Errorf("Len = %d, want %d", got, len(mannerRows))
	}
	for _, r := range mannerRows {
		c, ok := DefaultMannerTable.Candidates(r.key)
		if !ok {
			t.Errorf("key %q missing", r.key)
			continue
		}
		if c[len(c)-1] != DeletionToken {
			t.Errorf("key %q: last candidate %q, want deletion token", r.key, c[len(c)-1])
		}
		if slices.Contains(c[:len(c)-1], DeletionToken) {
			t.Errorf("key %q lists the deletion token twice", r.key)
		}
	}
}

func TestDefaultMannerTable_PH(t *testing.T) {
	t.Parallel()
	c, ok := DefaultMannerTable.Candidates("ph")
	if !ok {
		t.Fatal("ph missing")
	}
	want := []string{"f", "v", "s", "z", "j", "h", DeletionToken}
	if !slices.Equal(c, want) {
		t.Errorf("ph = %q, want %q", c, want)
	}
}

func TestNewMannerTable_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rows [][2]any
	}{
		{"duplicate", [][2]any{{"ph", []string{"f"}}, {"ph", []string{"v"}}}},
		{"long key", [][2]any{{"tch", []string{"ch"}}}},
		{"empty key", [][2]any{{"", []string{"a"}}}},
		{"no candidates", [][2]any{{"a", []string{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewMannerTable(func(yield func(string, []string) bool) {
				for _, r := range tt.rows {
					if !yield(r[0].(string), r[1].([]string)) {
						return
					}
				}
			})
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewMannerTable_FromMap(t *testing.T) {
	t.Parallel()
	tbl, err := NewMannerTable(maps.All(map[string][]string{"k": {"c"}, "ck": {"k"}}))
	if err != nil {
		t.Fatalf("NewMannerTable: %v", err)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len = %d, want 2", tbl.Len())
	}
	if _, ok := tbl.Candidates("x"); ok {
		t.Error("unexpected key x")
	}
}
