package sclone

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"
	"unsafe"
)

// Options control encoding strictness.
type Options struct {
	// JSON collapses values implementing json.Marshaler into their marshaled
	// plain-data form before classification, and relaxes strictness.
	JSON bool
	// Lossy relaxes strictness without invoking conversions: unserializable
	// values are omitted from mapping/collection payloads and coerced to
	// VOID elsewhere, instead of failing the encode.
	Lossy bool
}

func (opts Options) relaxed() bool {
	return opts.JSON || opts.Lossy
}

// Void is the absent-value marker. It round-trips through its own VOID tag,
// distinct from nil.
var Void = voidValue{}

type voidValue struct{}

func (voidValue) String() string { return "void" }

// Encode flattens a value graph into a wire sequence. The root value's
// record is at slot 0. In strict mode (zero Options) reachable functions,
// channels and unsafe pointers cause a *TypeNotSerializableError.
func Encode(value any, opts Options) (WireSequence, error) {
	e := &encoder{
		opts:    opts,
		scalars: make(map[any]Slot),
		idents:  make(map[ident]Slot),
	}
	_, err := e.encodeAny(value)
	if err != nil {
		if errors.Is(err, errUnserializable) {
			// relaxed mode, unserializable root
			return WireSequence{{Tag: TagVoid}}, nil
		}
		return nil, err
	}
	return e.recs, nil
}

// ident keys the identity map for composite values. len distinguishes
// overlapping slices sharing a backing array.
type ident struct {
	ptr unsafe.Pointer
	len int
	typ reflect.Type
}

type encoder struct {
	opts    Options
	recs    WireSequence
	scalars map[any]Slot // scalar value -> slot, dedup by equality
	idents  map[ident]Slot
	path    []string
}

var (
	timeType   = reflect.TypeOf(time.Time{})
	bigIntType = reflect.TypeOf(big.Int{})
)

func (e *encoder) unserializable(t reflect.Type) error {
	if e.opts.relaxed() {
		return errUnserializable
	}
	return &TypeNotSerializableError{Type: t, Path: strings.Join(e.path, "")}
}

func (e *encoder) append(r Record) Slot {
	e.recs = append(e.recs, r)
	return Slot(len(e.recs) - 1)
}

// reserve appends a placeholder and registers the identity before children
// are encoded, so a cycle back to this value reuses the slot.
func (e *encoder) reserve(id ident) Slot {
	slot := e.append(Record{})
	e.idents[id] = slot
	return slot
}

func (e *encoder) encodeAny(v any) (Slot, error) {
	if v == nil {
		return e.scalar(nil), nil
	}
	if v == Void {
		return e.void(), nil
	}
	switch v := v.(type) {
	case time.Time:
		return e.date(v), nil
	case big.Int:
		return e.bigint(&v), nil
	case *big.Int:
		if v == nil {
			return e.scalar(nil), nil
		}
		return e.bigint(v), nil
	case *regexp.Regexp:
		if v == nil {
			return e.scalar(nil), nil
		}
		return e.pattern(v)
	case *Set:
		if v == nil {
			return e.scalar(nil), nil
		}
		return e.uniqueSet(v)
	}
	if err, ok := v.(error); ok {
		return e.errorValue(err), nil
	}
	// natively classified kinds keep their tags even in JSON mode; big
	// integers in particular must survive text transport via the string
	// payload, not a lossy numeric literal
	if e.opts.JSON {
		if m, ok := v.(jsonMarshaler); ok {
			return e.collapse(m)
		}
	}
	return e.encodeValue(reflect.ValueOf(v))
}

type jsonMarshaler interface {
	MarshalJSON() ([]byte, error)
}

// collapse replaces a json.Marshaler value with its plain-data form before
// classification.
func (e *encoder) collapse(m jsonMarshaler) (Slot, error) {
	data, err := m.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("sclone: MarshalJSON of %T: %w", m, err)
	}
	var plain any
	if err := jsonx.Unmarshal(data, &plain); err != nil {
		return 0, fmt.Errorf("sclone: MarshalJSON of %T produced invalid JSON: %w", m, err)
	}
	return e.encodeAny(plain)
}

func (e *encoder) encodeValue(rv reflect.Value) (Slot, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return e.scalar(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.scalar(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= 1<<63-1 {
			return e.scalar(int64(u)), nil
		}
		return e.scalar(u), nil
	case reflect.Float32, reflect.Float64:
		return e.scalar(rv.Float()), nil
	case reflect.String:
		return e.scalar(rv.String()), nil
	case reflect.Slice:
		return e.sequence(rv)
	case reflect.Array:
		return e.array(rv)
	case reflect.Map:
		return e.mapping(rv)
	case reflect.Struct:
		if rv.Type() == timeType {
			return e.date(rv.Interface().(time.Time)), nil
		}
		return e.structObject(rv)
	case reflect.Pointer:
		return e.pointer(rv)
	case reflect.Interface:
		return e.encodeAny(rv.Interface())
	default:
		// func, chan, unsafe pointer, complex
		return 0, e.unserializable(rv.Type())
	}
}

func (e *encoder) scalar(v any) Slot {
	if slot, ok := e.scalars[v]; ok {
		return slot
	}
	slot := e.append(Record{Tag: TagScalar, Scalar: v})
	e.scalars[v] = slot
	return slot
}

func (e *encoder) void() Slot {
	if slot, ok := e.scalars[Void]; ok {
		return slot
	}
	slot := e.append(Record{Tag: TagVoid})
	e.scalars[Void] = slot
	return slot
}

func (e *encoder) date(t time.Time) Slot {
	return e.append(Record{Tag: TagDate, Scalar: t.Format(time.RFC3339Nano)})
}

func (e *encoder) bigint(b *big.Int) Slot {
	id := ident{ptr: unsafe.Pointer(b), len: -1, typ: bigIntType}
	if slot, ok := e.idents[id]; ok {
		return slot
	}
	slot := e.append(Record{Tag: TagBigInt, Scalar: b.String()})
	e.idents[id] = slot
	return slot
}

func (e *encoder) pattern(re *regexp.Regexp) (Slot, error) {
	rv := reflect.ValueOf(re)
	id := ident{ptr: rv.UnsafePointer(), len: -1, typ: rv.Type()}
	if slot, ok := e.idents[id]; ok {
		return slot, nil
	}
	slot := e.append(Record{Tag: TagRegexp, Scalar: re.String()})
	e.idents[id] = slot
	return slot, nil
}

func (e *encoder) errorValue(err error) Slot {
	name, msg := errNameMessage(err)
	if isComparable(err) {
		if slot, ok := e.scalars[err]; ok {
			return slot
		}
		slot := e.append(Record{Tag: TagError, Name: name, Scalar: msg})
		e.scalars[err] = slot
		return slot
	}
	return e.append(Record{Tag: TagError, Name: name, Scalar: msg})
}

// Only name and message survive; custom error fields are dropped by design.
func errNameMessage(err error) (string, string) {
	if ne, ok := err.(*NamedError); ok {
		return ne.Name, ne.Msg
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" || name[0] >= 'a' && name[0] <= 'z' {
		name = "Error" // unexported types like errors.errorString
	}
	return name, err.Error()
}

func (e *encoder) uniqueSet(s *Set) (Slot, error) {
	rv := reflect.ValueOf(s)
	id := ident{ptr: rv.UnsafePointer(), len: -1, typ: rv.Type()}
	if slot, ok := e.idents[id]; ok {
		return slot, nil
	}
	slot := e.reserve(id)
	list := make([]Slot, 0, s.Len())
	for i, item := range s.Values() {
		e.path = append(e.path, fmt.Sprintf("[%d]", i))
		itemSlot, err := e.encodeAny(item)
		e.path = e.path[:len(e.path)-1]
		if err != nil {
			if errors.Is(err, errUnserializable) {
				continue // omitted from collection payloads in relaxed mode
			}
			return 0, err
		}
		list = append(list, itemSlot)
	}
	e.recs[slot] = Record{Tag: TagSet, List: list}
	return slot, nil
}

func (e *encoder) sequence(rv reflect.Value) (Slot, error) {
	if rv.IsNil() {
		return e.scalar(nil), nil
	}
	if name, ok := typedSliceName(rv.Type().Elem()); ok {
		return e.typedSeq(rv, name), nil
	}
	if rv.Len() == 0 {
		// empty slices have no useful identity, and cannot cycle
		return e.append(Record{Tag: TagList, List: []Slot{}}), nil
	}
	id := ident{ptr: rv.UnsafePointer(), len: rv.Len(), typ: rv.Type()}
	if slot, ok := e.idents[id]; ok {
		return slot, nil
	}
	slot := e.reserve(id)
	list, err := e.listElements(rv)
	if err != nil {
		return 0, err
	}
	e.recs[slot] = Record{Tag: TagList, List: list}
	return slot, nil
}

func (e *encoder) array(rv reflect.Value) (Slot, error) {
	if name, ok := typedSliceName(rv.Type().Elem()); ok {
		return e.typedSeq(rv, name), nil
	}
	list, err := e.listElements(rv)
	if err != nil {
		return 0, err
	}
	return e.append(Record{Tag: TagList, List: list}), nil
}

func (e *encoder) listElements(rv reflect.Value) ([]Slot, error) {
	n := rv.Len()
	list := make([]Slot, n)
	for i := 0; i < n; i++ {
		e.path = append(e.path, fmt.Sprintf("[%d]", i))
		elemSlot, err := e.encodeAny(rv.Index(i).Interface())
		e.path = e.path[:len(e.path)-1]
		if err != nil {
			if errors.Is(err, errUnserializable) {
				elemSlot = e.void() // coerced to the absent-value marker
			} else {
				return nil, err
			}
		}
		list[i] = elemSlot
	}
	return list, nil
}

// typedSliceName maps a numeric element type to its typed-sequence subtype
// name, or reports that the sequence is generic.
func typedSliceName(elem reflect.Type) (string, bool) {
	switch elem.Kind() {
	case reflect.Uint8:
		return "[]byte", true
	case reflect.Int8:
		return "[]int8", true
	case reflect.Int16:
		return "[]int16", true
	case reflect.Int32:
		return "[]int32", true
	case reflect.Int64:
		return "[]int64", true
	case reflect.Uint16:
		return "[]uint16", true
	case reflect.Uint32:
		return "[]uint32", true
	case reflect.Uint64:
		return "[]uint64", true
	case reflect.Float32:
		return "[]float32", true
	case reflect.Float64:
		return "[]float64", true
	default:
		return "", false
	}
}

func (e *encoder) typedSeq(rv reflect.Value, name string) Slot {
	// copy into the canonical slice type so later mutation of the input
	// does not change the record
	ptr := typedSlices[name]()
	out := reflect.ValueOf(ptr).Elem()
	canon := out.Type().Elem()
	n := rv.Len()
	out.Set(reflect.MakeSlice(out.Type(), n, n))
	for i := 0; i < n; i++ {
		out.Index(i).Set(rv.Index(i).Convert(canon))
	}
	return e.append(Record{Tag: TagTyped, Name: name, Elems: out.Interface()})
}

func (e *encoder) mapping(rv reflect.Value) (Slot, error) {
	if rv.IsNil() {
		return e.scalar(nil), nil
	}
	id := ident{ptr: rv.UnsafePointer(), len: -1, typ: rv.Type()}
	if slot, ok := e.idents[id]; ok {
		return slot, nil
	}
	slot := e.reserve(id)

	if rv.Type().Key().Kind() == reflect.String {
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		pairs := make([][2]Slot, 0, len(keys))
		for _, k := range keys {
			key := k.String()
			e.path = append(e.path, "."+key)
			valueSlot, err := e.encodeAny(rv.MapIndex(k).Interface())
			e.path = e.path[:len(e.path)-1]
			if err != nil {
				if errors.Is(err, errUnserializable) {
					continue
				}
				return 0, err
			}
			pairs = append(pairs, [2]Slot{e.scalar(key), valueSlot})
		}
		e.recs[slot] = Record{Tag: TagObject, Pairs: pairs}
		return slot, nil
	}

	pairs := make([][2]Slot, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		e.path = append(e.path, ".<key>")
		keySlot, err := e.encodeAny(iter.Key().Interface())
		e.path = e.path[:len(e.path)-1]
		if err == nil {
			e.path = append(e.path, ".<value>")
			var valueSlot Slot
			valueSlot, err = e.encodeAny(iter.Value().Interface())
			e.path = e.path[:len(e.path)-1]
			if err == nil {
				pairs = append(pairs, [2]Slot{keySlot, valueSlot})
				continue
			}
		}
		if errors.Is(err, errUnserializable) {
			continue
		}
		return 0, err
	}
	e.recs[slot] = Record{Tag: TagMap, Pairs: pairs}
	return slot, nil
}

func (e *encoder) structObject(rv reflect.Value) (Slot, error) {
	pairs, err := e.structPairs(rv)
	if err != nil {
		return 0, err
	}
	return e.append(Record{Tag: TagObject, Pairs: pairs}), nil
}

func (e *encoder) structPairs(rv reflect.Value) ([][2]Slot, error) {
	t := rv.Type()
	n := t.NumField()
	pairs := make([][2]Slot, 0, n)
	for i := 0; i < n; i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		e.path = append(e.path, "."+field.Name)
		valueSlot, err := e.encodeAny(rv.Field(i).Interface())
		e.path = e.path[:len(e.path)-1]
		if err != nil {
			if errors.Is(err, errUnserializable) {
				continue
			}
			return nil, err
		}
		pairs = append(pairs, [2]Slot{e.scalar(field.Name), valueSlot})
	}
	return pairs, nil
}

func (e *encoder) pointer(rv reflect.Value) (Slot, error) {
	if rv.IsNil() {
		return e.scalar(nil), nil
	}
	elem := rv.Type().Elem()
	if name, ok := boxedName(elem.Kind()); ok {
		id := ident{ptr: rv.UnsafePointer(), len: -1, typ: rv.Type()}
		if slot, ok := e.idents[id]; ok {
			return slot, nil
		}
		slot := e.append(Record{Tag: TagBoxed, Name: name, Scalar: unwrapBoxed(rv.Elem())})
		e.idents[id] = slot
		return slot, nil
	}
	if elem == timeType {
		return e.date(rv.Elem().Interface().(time.Time)), nil
	}
	if elem.Kind() == reflect.Struct {
		id := ident{ptr: rv.UnsafePointer(), len: -1, typ: rv.Type()}
		if slot, ok := e.idents[id]; ok {
			return slot, nil
		}
		slot := e.reserve(id)
		pairs, err := e.structPairs(rv.Elem())
		if err != nil {
			return 0, err
		}
		e.recs[slot] = Record{Tag: TagObject, Pairs: pairs}
		return slot, nil
	}
	// pointer to map, slice, array etc: the target carries the identity
	return e.encodeAny(rv.Elem().Interface())
}

func boxedName(k reflect.Kind) (string, bool) {
	switch k {
	case reflect.Bool:
		return nameBoxedBool, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return nameBoxedInt, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return nameBoxedUint, true
	case reflect.Float32, reflect.Float64:
		return nameBoxedFloat, true
	case reflect.String:
		return nameBoxedString, true
	default:
		return "", false
	}
}

func unwrapBoxed(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	default:
		return rv.String()
	}
}
