package sclone

import "testing"

func TestTag_String(t *testing.T) {
	if TagObject.String() != "object" || TagVoid.String() != "void" {
		t.Fatalf("unexpected tag names: %v, %v", TagObject, TagVoid)
	}
	if Tag(42).String() != "Tag(42)" {
		t.Fatalf("unexpected fallback name: %v", Tag(42))
	}
}

func TestTagByName(t *testing.T) {
	tests := []struct {
		name string
		tag  Tag
		ok   bool
	}{
		{"*bool", TagBoxed, true},
		{"*string", TagBoxed, true},
		{"[]byte", TagTyped, true},
		{"[]float64", TagTyped, true},
		{"[]bool", 0, false},
		{"Function", 0, false},
	}
	for _, tt := range tests {
		tag, ok := tagByName(tt.name)
		if tag != tt.tag || ok != tt.ok {
			t.Errorf("** tagByName(%q) = %v, %v", tt.name, tag, ok)
		}
	}
}
