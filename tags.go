package sclone

import "fmt"

// Tag identifies the kind of a wire record. The integer values are part of
// the wire format and must never change.
type Tag int

const (
	TagVoid   Tag = -1
	TagScalar Tag = 0
	TagList   Tag = 1
	TagObject Tag = 2
	TagDate   Tag = 3
	TagRegexp Tag = 4
	TagMap    Tag = 5
	TagSet    Tag = 6
	TagError  Tag = 7
	TagBigInt Tag = 8

	// TagBoxed and TagTyped never appear on the wire as integers; records
	// carrying them externalize their subtype name string as the tag.
	TagBoxed Tag = 9
	TagTyped Tag = 10
)

func (tag Tag) String() string {
	switch tag {
	case TagVoid:
		return "void"
	case TagScalar:
		return "scalar"
	case TagList:
		return "list"
	case TagObject:
		return "object"
	case TagDate:
		return "date"
	case TagRegexp:
		return "regexp"
	case TagMap:
		return "map"
	case TagSet:
		return "set"
	case TagError:
		return "error"
	case TagBigInt:
		return "bigint"
	case TagBoxed:
		return "boxed"
	case TagTyped:
		return "typed"
	default:
		return fmt.Sprintf("Tag(%d)", int(tag))
	}
}

func (tag Tag) valid() bool {
	return tag >= TagVoid && tag <= TagTyped
}

// Boxed wrapper subtype names. Wrappers are pointers to scalars; all int
// kinds normalize to *int64, all uint kinds to *uint64, floats to *float64.
const (
	nameBoxedBool   = "*bool"
	nameBoxedInt    = "*int64"
	nameBoxedUint   = "*uint64"
	nameBoxedFloat  = "*float64"
	nameBoxedString = "*string"
)

var boxedNames = map[string]bool{
	nameBoxedBool:   true,
	nameBoxedInt:    true,
	nameBoxedUint:   true,
	nameBoxedFloat:  true,
	nameBoxedString: true,
}

// typedSlices is the registry of supported typed-slice subtypes:
// name -> constructor of an empty instance to unmarshal the payload into.
// Decoding never looks up type names anywhere outside this table.
var typedSlices = map[string]func() any{
	"[]byte":    func() any { return new([]byte) },
	"[]int8":    func() any { return new([]int8) },
	"[]int16":   func() any { return new([]int16) },
	"[]int32":   func() any { return new([]int32) },
	"[]int64":   func() any { return new([]int64) },
	"[]uint16":  func() any { return new([]uint16) },
	"[]uint32":  func() any { return new([]uint32) },
	"[]uint64":  func() any { return new([]uint64) },
	"[]float32": func() any { return new([]float32) },
	"[]float64": func() any { return new([]float64) },
}

// tagByName resolves a string wire tag into the in-memory tag it stands for.
func tagByName(name string) (Tag, bool) {
	if boxedNames[name] {
		return TagBoxed, true
	}
	if _, ok := typedSlices[name]; ok {
		return TagTyped, true
	}
	return 0, false
}
