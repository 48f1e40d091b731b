package sclone

import (
	"math/big"
	"reflect"
	"regexp"
	"time"
)

// NamedError is the decoded form of an error record. Only the name and the
// message survive serialization; everything else an error value carried is
// dropped at encode time.
type NamedError struct {
	Name string
	Msg  string
}

func (e *NamedError) Error() string { return e.Msg }

// Decode reconstructs a value graph from a wire sequence, preserving the
// sharing and cycle topology the encoder recorded. Malformed sequences are
// reported as *MalformedSequenceError.
func Decode(seq WireSequence) (any, error) {
	if len(seq) == 0 {
		return nil, malformedf(0, nil, "empty sequence")
	}
	d := &decoder{
		seq:  seq,
		vals: make([]any, len(seq)),
		done: make([]bool, len(seq)),
	}
	return d.resolve(0)
}

type decoder struct {
	seq  WireSequence
	vals []any
	done []bool
}

// register stores a value before its children are resolved, mirroring the
// encoder's slot reservation: a child referencing an ancestor slot must find
// the (still being populated) container instance.
func (d *decoder) register(s Slot, v any) {
	d.vals[s] = v
	d.done[s] = true
}

func (d *decoder) resolve(s Slot) (any, error) {
	if s < 0 || int(s) >= len(d.seq) {
		return nil, malformedf(s, nil, "dangling slot reference")
	}
	if d.done[s] {
		return d.vals[s], nil
	}
	r := d.seq[s]
	switch r.Tag {
	case TagVoid:
		d.register(s, Void)
		return Void, nil

	case TagScalar:
		d.register(s, r.Scalar)
		return r.Scalar, nil

	case TagList:
		out := make([]any, len(r.List))
		d.register(s, out)
		for i, cs := range r.List {
			v, err := d.resolve(cs)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case TagObject:
		out := make(map[string]any, len(r.Pairs))
		d.register(s, out)
		for _, pair := range r.Pairs {
			kv, err := d.resolve(pair[0])
			if err != nil {
				return nil, err
			}
			key, ok := kv.(string)
			if !ok {
				return nil, malformedf(s, nil, "object key at slot %d is not a string", pair[0])
			}
			v, err := d.resolve(pair[1])
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil

	case TagMap:
		out := make(map[any]any, len(r.Pairs))
		d.register(s, out)
		for _, pair := range r.Pairs {
			k, err := d.resolve(pair[0])
			if err != nil {
				return nil, err
			}
			if !isComparable(k) {
				return nil, malformedf(s, nil, "map key at slot %d is not usable as a map key", pair[0])
			}
			v, err := d.resolve(pair[1])
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil

	case TagSet:
		out := NewSet()
		d.register(s, out)
		for _, cs := range r.List {
			v, err := d.resolve(cs)
			if err != nil {
				return nil, err
			}
			out.Add(v)
		}
		return out, nil

	case TagDate:
		text, ok := r.Scalar.(string)
		if !ok {
			return nil, malformedf(s, nil, "date payload is not a string")
		}
		t, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return nil, malformedf(s, err, "bad date payload")
		}
		d.register(s, t)
		return t, nil

	case TagBigInt:
		text, ok := r.Scalar.(string)
		if !ok {
			return nil, malformedf(s, nil, "bigint payload is not a string")
		}
		b, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, malformedf(s, nil, "bad bigint payload %q", text)
		}
		d.register(s, b)
		return b, nil

	case TagRegexp:
		src, ok := r.Scalar.(string)
		if !ok {
			return nil, malformedf(s, nil, "regexp payload is not a string")
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, malformedf(s, err, "bad regexp payload")
		}
		d.register(s, re)
		return re, nil

	case TagError:
		name := r.Name
		if name == "" {
			name = "Error"
		}
		err := &NamedError{Name: name, Msg: scalarString(r.Scalar)}
		d.register(s, err)
		return err, nil

	case TagBoxed:
		v, err := d.boxed(s, r)
		if err != nil {
			return nil, err
		}
		d.register(s, v)
		return v, nil

	case TagTyped:
		v, err := d.typed(s, r)
		if err != nil {
			return nil, err
		}
		d.register(s, v)
		return v, nil

	default:
		return nil, malformedf(s, nil, "unknown tag %d", int(r.Tag))
	}
}

func (d *decoder) boxed(s Slot, r Record) (any, error) {
	switch r.Name {
	case nameBoxedBool:
		b, ok := r.Scalar.(bool)
		if !ok {
			return nil, malformedf(s, nil, "%s payload is not a bool", r.Name)
		}
		return &b, nil
	case nameBoxedInt:
		n, ok := scalarInt64(r.Scalar)
		if !ok {
			return nil, malformedf(s, nil, "%s payload is not a number", r.Name)
		}
		return &n, nil
	case nameBoxedUint:
		n, ok := scalarUint64(r.Scalar)
		if !ok {
			return nil, malformedf(s, nil, "%s payload is not a number", r.Name)
		}
		return &n, nil
	case nameBoxedFloat:
		f, ok := scalarFloat64(r.Scalar)
		if !ok {
			return nil, malformedf(s, nil, "%s payload is not a number", r.Name)
		}
		return &f, nil
	case nameBoxedString:
		str, ok := r.Scalar.(string)
		if !ok {
			return nil, malformedf(s, nil, "%s payload is not a string", r.Name)
		}
		return &str, nil
	default:
		return nil, malformedf(s, nil, "unknown wrapper type %q", r.Name)
	}
}

func (d *decoder) typed(s Slot, r Record) (any, error) {
	newSlice, ok := typedSlices[r.Name]
	if !ok {
		return nil, malformedf(s, nil, "unknown typed sequence %q", r.Name)
	}
	want := reflect.TypeOf(newSlice()).Elem()
	if r.Elems == nil {
		return reflect.MakeSlice(want, 0, 0).Interface(), nil
	}
	src := reflect.ValueOf(r.Elems)
	if src.Type() != want {
		return nil, malformedf(s, nil, "%s payload has type %T", r.Name, r.Elems)
	}
	out := reflect.MakeSlice(want, src.Len(), src.Len())
	reflect.Copy(out, src)
	return out.Interface(), nil
}

// Numbers arrive as int64/uint64/float64 depending on the transport; the
// boxed decoders accept any of them.

func scalarInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func scalarUint64(v any) (uint64, bool) {
	switch v := v.(type) {
	case int64:
		return uint64(v), true
	case uint64:
		return v, true
	case float64:
		return uint64(v), true
	default:
		return 0, false
	}
}

func scalarFloat64(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
