package sclone

import (
	"errors"
	"strings"
	"testing"
)

func TestEncode_Example(t *testing.T) {
	seq := must(Encode(map[string]any{"x": 1, "y": []any{1, 2, 3}}, Options{}))

	root := seq[0]
	if root.Tag != TagObject {
		t.Fatalf("slot 0 tag = %v, wanted %v", root.Tag, TagObject)
	}
	if len(root.Pairs) != 2 {
		t.Fatalf("root has %d pairs, wanted 2", len(root.Pairs))
	}

	// keys are sorted, so pair 0 is "x" and pair 1 is "y"
	if k := seq[root.Pairs[0][0]]; k.Tag != TagScalar || k.Scalar != "x" {
		t.Errorf("** pair 0 key record = %+v, wanted scalar %q", k, "x")
	}
	if k := seq[root.Pairs[1][0]]; k.Tag != TagScalar || k.Scalar != "y" {
		t.Errorf("** pair 1 key record = %+v, wanted scalar %q", k, "y")
	}

	list := seq[root.Pairs[1][1]]
	if list.Tag != TagList || len(list.List) != 3 {
		t.Fatalf("y record = %+v, wanted a 3-element list", list)
	}

	// the scalar 1 appears twice in the graph and must share a slot
	if root.Pairs[0][1] != list.List[0] {
		t.Errorf("** x value slot %d != first list element slot %d", root.Pairs[0][1], list.List[0])
	}
}

func TestEncode_ScalarDedup(t *testing.T) {
	seq := must(Encode([]any{"a", "a", "a"}, Options{}))
	if len(seq) != 2 {
		t.Fatalf("got %d records, wanted 2 (list + one shared scalar)", len(seq))
	}
}

func TestEncode_SharedIdentity(t *testing.T) {
	inner := map[string]any{"k": "v"}
	seq := must(Encode(map[string]any{"a": inner, "b": inner}, Options{}))

	root := seq[0]
	if root.Pairs[0][1] != root.Pairs[1][1] {
		t.Errorf("** shared map got two slots: %d and %d", root.Pairs[0][1], root.Pairs[1][1])
	}
}

func TestEncode_Strict(t *testing.T) {
	_, err := Encode(func() {}, Options{})
	var tnse *TypeNotSerializableError
	if !errors.As(err, &tnse) {
		t.Fatalf("Encode(func) err = %v, wanted TypeNotSerializableError", err)
	}

	_, err = Encode(map[string]any{"f": func() {}}, Options{})
	if !errors.As(err, &tnse) {
		t.Fatalf("Encode({f: func}) err = %v, wanted TypeNotSerializableError", err)
	}
	if !strings.Contains(tnse.Path, ".f") {
		t.Errorf("** error path = %q, wanted it to mention .f", tnse.Path)
	}
}

func TestEncode_LossyRoot(t *testing.T) {
	seq := must(Encode(func() {}, Options{Lossy: true}))
	if len(seq) != 1 || seq[0].Tag != TagVoid {
		t.Fatalf("lossy func root = %+v, wanted a single VOID record", seq)
	}
	v := must(Decode(seq))
	if v != Void {
		t.Errorf("** decoded lossy root = %v, wanted Void", v)
	}
}

func TestEncode_LossyListElement(t *testing.T) {
	seq := must(Encode([]any{1, func() {}, 3}, Options{Lossy: true}))
	root := seq[0]
	if len(root.List) != 3 {
		t.Fatalf("list has %d elements, wanted 3", len(root.List))
	}
	if seq[root.List[1]].Tag != TagVoid {
		t.Errorf("** element 1 tag = %v, wanted VOID", seq[root.List[1]].Tag)
	}
}

func TestEncode_LossyObjectEntryOmitted(t *testing.T) {
	seq := must(Encode(map[string]any{"f": func() {}, "x": 1}, Options{Lossy: true}))
	root := seq[0]
	if len(root.Pairs) != 1 {
		t.Fatalf("object has %d pairs, wanted 1 (func entry omitted)", len(root.Pairs))
	}
	if seq[root.Pairs[0][0]].Scalar != "x" {
		t.Errorf("** surviving key = %v, wanted x", seq[root.Pairs[0][0]].Scalar)
	}
}

type pointXY struct {
	X, Y int
}

func (p pointXY) MarshalJSON() ([]byte, error) {
	return []byte(`{"x":1,"y":2}`), nil
}

func TestEncode_JSONCollapse(t *testing.T) {
	seq := must(Encode(pointXY{X: 5, Y: 6}, Options{JSON: true}))
	root := seq[0]
	if root.Tag != TagObject {
		t.Fatalf("root tag = %v, wanted object", root.Tag)
	}
	v := must(Decode(seq)).(map[string]any)
	deepEqual(t, v, map[string]any{"x": float64(1), "y": float64(2)})
}

func TestEncode_StructFields(t *testing.T) {
	type row struct {
		Name  string
		Count int
		inner bool // unexported fields never visit
	}
	v := must(Clone(row{Name: "a", Count: 2, inner: true}, Options{}))
	deepEqual(t, v, map[string]any{"Name": "a", "Count": int64(2)})
}

func TestEncode_VoidRoundTrip(t *testing.T) {
	v := must(Clone(Void, Options{}))
	if v != Void {
		t.Errorf("** Clone(Void) = %v, wanted Void", v)
	}
}
