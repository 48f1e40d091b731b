package sclone

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNotFound is returned by Store.Get for missing keys.
var ErrNotFound = errors.New("sclone: not found")

// TypeNotSerializableError is returned by Encode in strict mode when a
// function, channel or unsafe pointer value is reachable from the root.
type TypeNotSerializableError struct {
	Type reflect.Type
	Path string
}

func (e *TypeNotSerializableError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("sclone: cannot serialize %v", e.Type)
	}
	return fmt.Sprintf("sclone: cannot serialize %v at %s", e.Type, e.Path)
}

// MalformedSequenceError is returned by Decode and the transport parsers when
// a wire sequence violates the format: dangling slots, payload shapes that
// do not match the tag, unknown name tags, or literals that fail to parse.
type MalformedSequenceError struct {
	Slot Slot
	Err  error
	Msg  string
}

func malformedf(slot Slot, err error, format string, args ...any) error {
	return &MalformedSequenceError{slot, err, fmt.Sprintf(format, args...)}
}

func (e *MalformedSequenceError) Unwrap() error {
	return e.Err
}

func (e *MalformedSequenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sclone: malformed sequence: slot %d: %s: %v", e.Slot, e.Msg, e.Err)
	}
	return fmt.Sprintf("sclone: malformed sequence: slot %d: %s", e.Slot, e.Msg)
}

// EntryError is returned when building a collection from a malformed entry
// list (see MapFromEntries).
type EntryError struct {
	Index int
	Msg   string
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("sclone: bad entry %d: %s", e.Index, e.Msg)
}

// errUnserializable marks a value skipped in relaxed mode; strict mode
// converts it to a TypeNotSerializableError before it escapes.
var errUnserializable = errors.New("unserializable value")
