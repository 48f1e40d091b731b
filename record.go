package sclone

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Slot is the unique integer position of a record in a wire sequence.
// Composite payloads reference other records by slot.
type Slot int

// WireSequence is the flat serialized form of a value graph. Slot 0 holds
// the root value's record.
type WireSequence []Record

// Record is a single tagged entry in a wire sequence. Which fields are
// meaningful depends on Tag:
//
//   - TagVoid: nothing.
//   - TagScalar: Scalar (nil, bool, int64/uint64/float64 or string).
//   - TagList, TagSet: List.
//   - TagObject, TagMap: Pairs.
//   - TagDate, TagBigInt: Scalar (string).
//   - TagRegexp: Scalar (source string) and Flags.
//   - TagError: Name and Scalar (message string).
//   - TagBoxed: Name (wrapper subtype) and Scalar.
//   - TagTyped: Name (slice subtype) and Elems (the typed slice).
type Record struct {
	Tag    Tag
	Name   string
	Scalar any
	Flags  string
	List   []Slot
	Pairs  [][2]Slot
	Elems  any
}

type regexpPayload struct {
	Source string `json:"source" msgpack:"source"`
	Flags  string `json:"flags" msgpack:"flags"`
}

type errorPayload struct {
	Name    string `json:"name" msgpack:"name"`
	Message string `json:"message" msgpack:"message"`
}

// MarshalJSON externalizes the record as a 2-element [tag, payload] array.
func (r Record) MarshalJSON() ([]byte, error) {
	var tag any = int(r.Tag)
	if r.Tag == TagBoxed || r.Tag == TagTyped {
		tag = r.Name
	}
	var payload any
	switch r.Tag {
	case TagVoid:
		payload = nil
	case TagScalar, TagDate, TagBigInt, TagBoxed:
		payload = r.Scalar
	case TagList, TagSet:
		payload = nonNilSlots(r.List)
	case TagObject, TagMap:
		payload = nonNilPairs(r.Pairs)
	case TagRegexp:
		payload = regexpPayload{Source: scalarString(r.Scalar), Flags: r.Flags}
	case TagError:
		payload = errorPayload{Name: r.Name, Message: scalarString(r.Scalar)}
	case TagTyped:
		if b, ok := r.Elems.([]byte); ok {
			payload = byteList(b) // list of byte values, not base64
		} else {
			payload = r.Elems
		}
	default:
		return nil, fmt.Errorf("unknown tag %d", int(r.Tag))
	}
	return jsonx.Marshal([2]any{tag, payload})
}

// UnmarshalJSON parses the 2-element [tag, payload] array form.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := jsonx.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("record must be a 2-element array, got %d elements", len(raw))
	}

	*r = Record{}
	var tagNum int
	if err := jsonx.Unmarshal(raw[0], &tagNum); err == nil {
		r.Tag = Tag(tagNum)
		if !r.Tag.valid() || r.Tag == TagBoxed || r.Tag == TagTyped {
			return fmt.Errorf("invalid integer tag %d", tagNum)
		}
	} else {
		var name string
		if err := jsonx.Unmarshal(raw[0], &name); err != nil {
			return fmt.Errorf("tag must be an integer or a string")
		}
		tag, ok := tagByName(name)
		if !ok {
			return fmt.Errorf("unknown type name %q", name)
		}
		r.Tag, r.Name = tag, name
	}

	switch r.Tag {
	case TagVoid:
		return nil
	case TagScalar, TagBoxed:
		return jsonx.Unmarshal(raw[1], &r.Scalar)
	case TagList, TagSet:
		return jsonx.Unmarshal(raw[1], &r.List)
	case TagObject, TagMap:
		return jsonx.Unmarshal(raw[1], &r.Pairs)
	case TagDate, TagBigInt:
		var s string
		if err := jsonx.Unmarshal(raw[1], &s); err != nil {
			return fmt.Errorf("%v payload must be a string", r.Tag)
		}
		r.Scalar = s
		return nil
	case TagRegexp:
		var p regexpPayload
		if err := jsonx.Unmarshal(raw[1], &p); err != nil {
			return err
		}
		r.Scalar, r.Flags = p.Source, p.Flags
		return nil
	case TagError:
		var p errorPayload
		if err := jsonx.Unmarshal(raw[1], &p); err != nil {
			return err
		}
		r.Name, r.Scalar = p.Name, p.Message
		return nil
	case TagTyped:
		if r.Name == "[]byte" {
			var nums []int
			if err := jsonx.Unmarshal(raw[1], &nums); err != nil {
				return err
			}
			b, err := bytesFromList(nums)
			if err != nil {
				return err
			}
			r.Elems = b
			return nil
		}
		ptr := typedSlices[r.Name]()
		if err := jsonx.Unmarshal(raw[1], ptr); err != nil {
			return err
		}
		r.Elems = reflect.ValueOf(ptr).Elem().Interface()
		return nil
	}
	return fmt.Errorf("unknown tag %d", int(r.Tag))
}

// EncodeMsgpack writes the same 2-element [tag, payload] shape in msgpack.
func (r Record) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if r.Tag == TagBoxed || r.Tag == TagTyped {
		if err := enc.EncodeString(r.Name); err != nil {
			return err
		}
	} else if err := enc.EncodeInt(int64(r.Tag)); err != nil {
		return err
	}
	switch r.Tag {
	case TagVoid:
		return enc.EncodeNil()
	case TagScalar, TagBoxed:
		return enc.Encode(r.Scalar)
	case TagList, TagSet:
		return enc.Encode(nonNilSlots(r.List))
	case TagObject, TagMap:
		return enc.Encode(nonNilPairs(r.Pairs))
	case TagDate, TagBigInt:
		return enc.EncodeString(scalarString(r.Scalar))
	case TagRegexp:
		return enc.Encode(regexpPayload{Source: scalarString(r.Scalar), Flags: r.Flags})
	case TagError:
		return enc.Encode(errorPayload{Name: r.Name, Message: scalarString(r.Scalar)})
	case TagTyped:
		return enc.Encode(r.Elems)
	default:
		return fmt.Errorf("unknown tag %d", int(r.Tag))
	}
}

// DecodeMsgpack parses the msgpack form written by EncodeMsgpack.
func (r *Record) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("record must be a 2-element array, got %d elements", n)
	}

	*r = Record{}
	c, err := dec.PeekCode()
	if err != nil {
		return err
	}
	if msgpcode.IsString(c) {
		name, err := dec.DecodeString()
		if err != nil {
			return err
		}
		tag, ok := tagByName(name)
		if !ok {
			return fmt.Errorf("unknown type name %q", name)
		}
		r.Tag, r.Name = tag, name
	} else {
		v, err := dec.DecodeInt64()
		if err != nil {
			return err
		}
		r.Tag = Tag(v)
		if !r.Tag.valid() || r.Tag == TagBoxed || r.Tag == TagTyped {
			return fmt.Errorf("invalid integer tag %d", v)
		}
	}

	switch r.Tag {
	case TagVoid:
		return dec.DecodeNil()
	case TagScalar, TagBoxed:
		r.Scalar, err = dec.DecodeInterfaceLoose()
		return err
	case TagList, TagSet:
		return dec.Decode(&r.List)
	case TagObject, TagMap:
		return dec.Decode(&r.Pairs)
	case TagDate, TagBigInt:
		s, err := dec.DecodeString()
		if err != nil {
			return err
		}
		r.Scalar = s
		return nil
	case TagRegexp:
		var p regexpPayload
		if err := dec.Decode(&p); err != nil {
			return err
		}
		r.Scalar, r.Flags = p.Source, p.Flags
		return nil
	case TagError:
		var p errorPayload
		if err := dec.Decode(&p); err != nil {
			return err
		}
		r.Name, r.Scalar = p.Name, p.Message
		return nil
	case TagTyped:
		ptr := typedSlices[r.Name]()
		if err := dec.Decode(ptr); err != nil {
			return err
		}
		r.Elems = reflect.ValueOf(ptr).Elem().Interface()
		return nil
	}
	return fmt.Errorf("unknown tag %d", int(r.Tag))
}

func scalarString(v any) string {
	s, _ := v.(string)
	return s
}

func nonNilSlots(list []Slot) []Slot {
	if list == nil {
		return []Slot{}
	}
	return list
}

func nonNilPairs(pairs [][2]Slot) [][2]Slot {
	if pairs == nil {
		return [][2]Slot{}
	}
	return pairs
}

func byteList(b []byte) []int {
	list := make([]int, len(b))
	for i, v := range b {
		list[i] = int(v)
	}
	return list
}

func bytesFromList(nums []int) ([]byte, error) {
	b := make([]byte, len(nums))
	for i, v := range nums {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("byte value %d out of range at %d", v, i)
		}
		b[i] = byte(v)
	}
	return b, nil
}
