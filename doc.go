/*
Package sclone serializes arbitrary value graphs — cyclic ones included —
into a flat sequence of tagged records, and reconstructs an equivalent graph
from that sequence, preserving shared references and cycles.

We implement:

1. Encode/Decode, converting between a value graph and a wire sequence.

2. Clone, a deep copy built as Decode(Encode(v)).

3. Stringify/Parse, a JSON text transport over the wire sequence.

4. EncodeBinary/DecodeBinary, a msgpack binary transport with a versioned
header, and Store, a bbolt-backed snapshot store using it.

# Wire Format

**Records.**
The wire sequence is an ordered list of records. A record's position in the
list is its slot; composite records refer to other records by slot. Slot 0
always holds the root value. Each record externalizes as a 2-element array
[tag, payload].

**Tags.**
Integer tags: VOID=-1, SCALAR=0, LIST=1, OBJECT=2, DATE=3, REGEXP=4, MAP=5,
SET=6, ERROR=7, BIGINT=8. Boxed primitive wrappers and typed slices use their
subtype name string as the tag instead ("*bool", "[]int32", ...).

**Payloads.**
  - VOID: null.
  - SCALAR: the literal value (null, bool, number or string).
  - LIST, SET: array of slot ids.
  - OBJECT, MAP: array of [keySlot, valueSlot] pairs.
  - DATE: RFC 3339 string.
  - REGEXP: {"source": ..., "flags": ...}.
  - ERROR: {"name": ..., "message": ...}.
  - BIGINT: decimal string.
  - boxed wrapper: the unwrapped scalar.
  - typed slice: array of element values.

**Identity.**
Every distinct value (by identity for composites, by equality for scalars)
gets exactly one record; repeated encounters reuse the slot. Composite records
are reserved before their children are encoded, which is what lets a cycle
back to an ancestor find an already-assigned slot instead of recursing
forever. The decoder mirrors this by registering the empty container before
resolving its children.

**Binary framing.**
The binary transport prefixes the msgpack body with a header of three
uvarints: flags, format version, record count.
*/
package sclone
