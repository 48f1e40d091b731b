package sclone

import (
	"errors"
	"math/big"
	"regexp"
	"testing"
	"time"
)

func TestClone_Scalars(t *testing.T) {
	tests := []struct {
		input    any
		expected any
	}{
		{nil, nil},
		{true, true},
		{false, false},
		{42, int64(42)},
		{int64(-7), int64(-7)},
		{uint8(9), int64(9)},
		{uint64(1) << 63, uint64(1) << 63},
		{3.5, 3.5},
		{float32(0.5), 0.5},
		{"hello", "hello"},
		{"", ""},
	}
	for _, tt := range tests {
		got := must(Clone(tt.input, Options{}))
		deepEqual(t, got, tt.expected)
	}
}

func TestClone_BigInt(t *testing.T) {
	b := mustBig("123456789012345678901234567890")
	got := must(Clone(b, Options{})).(*big.Int)
	if got.Cmp(b) != 0 {
		t.Fatalf("Clone(%v) = %v", b, got)
	}
	if got == b {
		t.Fatalf("Clone returned the original *big.Int")
	}

	small := must(Clone(big.NewInt(10), Options{})).(*big.Int)
	if small.Int64() != 10 {
		t.Fatalf("Clone(10n) = %v", small)
	}
}

func TestClone_Date(t *testing.T) {
	orig := time.Date(2024, 5, 17, 12, 30, 45, 123456789, time.UTC)
	got := must(Clone(orig, Options{})).(time.Time)
	if !got.Equal(orig) {
		t.Fatalf("Clone(%v) = %v", orig, got)
	}
}

func TestClone_Regexp(t *testing.T) {
	orig := regexp.MustCompile(`a+b[0-9]?`)
	got := must(Clone(orig, Options{})).(*regexp.Regexp)
	if got.String() != orig.String() {
		t.Fatalf("Clone(%v) = %v", orig, got)
	}
	if got == orig {
		t.Fatalf("Clone returned the original *regexp.Regexp")
	}
}

func TestClone_Error(t *testing.T) {
	got := must(Clone(errors.New("boom"), Options{})).(*NamedError)
	if got.Name != "Error" || got.Msg != "boom" {
		t.Fatalf("Clone(errors.New) = %+v", got)
	}

	// NamedError round-trips exactly, including a custom name
	ne := &NamedError{Name: "TypeError", Msg: "bad thing"}
	got = must(Clone(ne, Options{})).(*NamedError)
	deepEqual(t, got, ne)
}

func TestClone_TypedSlices(t *testing.T) {
	tests := []any{
		[]byte{0, 1, 254, 255},
		[]int8{-1, 0, 1},
		[]int32{-100000, 0, 100000},
		[]int64{1 << 40},
		[]uint16{0, 65535},
		[]float32{0.5, -1.25},
		[]float64{3.14159},
	}
	for _, input := range tests {
		got := must(Clone(input, Options{}))
		deepEqual(t, got, input)
	}
}

func TestClone_TypedSliceCopies(t *testing.T) {
	orig := []byte{1, 2, 3}
	seq := must(Encode(orig, Options{}))
	orig[0] = 99
	got := must(Decode(seq)).([]byte)
	deepEqual(t, got, []byte{1, 2, 3})
}

func TestClone_GenericList(t *testing.T) {
	got := must(Clone([]any{int64(1), "two", true, nil}, Options{}))
	deepEqual(t, got, []any{int64(1), "two", true, nil})

	// non-interface element types turn into []any
	got = must(Clone([]string{"a", "b"}, Options{}))
	deepEqual(t, got, []any{"a", "b"})
}

func TestClone_Map(t *testing.T) {
	got := must(Clone(map[any]any{int64(1): "a"}, Options{})).(map[any]any)
	deepEqual(t, got, map[any]any{int64(1): "a"})

	got2 := must(Clone(map[int]string{5: "five"}, Options{})).(map[any]any)
	deepEqual(t, got2, map[any]any{int64(5): "five"})
}

func TestClone_Set(t *testing.T) {
	s := NewSet(int64(1), "two", int64(1))
	got := must(Clone(s, Options{})).(*Set)
	if got.Len() != 2 {
		t.Fatalf("cloned set has %d values, wanted 2", got.Len())
	}
	if !got.Has(int64(1)) || !got.Has("two") {
		t.Fatalf("cloned set is missing values: %v", got.Values())
	}
}

func TestClone_BoxedPointers(t *testing.T) {
	b := true
	pair := must(Clone([]any{&b, &b}, Options{})).([]any)
	pb := pair[0].(*bool)
	if *pb != true {
		t.Fatalf("boxed bool = %v", *pb)
	}
	if pair[0].(*bool) != pair[1].(*bool) {
		t.Fatalf("shared boxed pointer decoded into two instances")
	}

	n := 42
	got := must(Clone(&n, Options{})).(*int64)
	if *got != 42 {
		t.Fatalf("boxed int = %v", *got)
	}

	str := "s"
	gotStr := must(Clone(&str, Options{})).(*string)
	if *gotStr != "s" {
		t.Fatalf("boxed string = %q", *gotStr)
	}
}

func TestClone_SharedReference(t *testing.T) {
	inner := map[string]any{"k": "v"}
	got := must(Clone(map[string]any{"a": inner, "b": inner}, Options{})).(map[string]any)
	if !sameRef(got["a"], got["b"]) {
		t.Fatalf("a and b decoded into distinct maps")
	}
	deepEqual(t, got["a"], map[string]any{"k": "v"})
}

func TestClone_CyclicMap(t *testing.T) {
	m := map[string]any{}
	m["self"] = m
	got := must(Clone(m, Options{})).(map[string]any)
	if !sameRef(got["self"], got) {
		t.Fatalf("cycle does not point back to the reconstructed map")
	}
}

func TestClone_CyclicSlice(t *testing.T) {
	a := make([]any, 1)
	a[0] = a
	got := must(Clone(a, Options{})).([]any)
	if !sameRef(got[0], got) {
		t.Fatalf("cycle does not point back to the reconstructed slice")
	}
}

func TestClone_SelfContainingSet(t *testing.T) {
	s := NewSet()
	s.Add(s)
	got := must(Clone(s, Options{})).(*Set)
	if got.Len() != 1 {
		t.Fatalf("set has %d values, wanted 1", got.Len())
	}
	if got.Values()[0].(*Set) != got {
		t.Fatalf("set does not contain itself after the round trip")
	}
}

func TestClone_StructPointerCycle(t *testing.T) {
	type node struct {
		Label string
		Next  any
	}
	n := &node{Label: "a"}
	n.Next = n
	got := must(Clone(n, Options{})).(map[string]any)
	if !sameRef(got["Next"], got) {
		t.Fatalf("struct pointer cycle broken: %v", got)
	}
	if got["Label"] != "a" {
		t.Fatalf("Label = %v", got["Label"])
	}
}
