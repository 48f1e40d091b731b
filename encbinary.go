package sclone

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Binary framing: flags uvarint, record count uvarint, then one msgpack
// record per slot. The format version lives in the flag bits.

type binFlags uint64

const (
	bfVerBit0 = binFlags(1 << iota)
	bfVerBit1
	bfVerBit2
	bfVerBit3

	bfVerMask       = bfVerBit0 | bfVerBit1 | bfVerBit2 | bfVerBit3
	bfVer1          = bfVerBit0
	bfSupportedMask = bfVer1
	bfDefault       = bfVer1

	minBinarySize = 2
	maxRecordCount = 1 << 30 // sanity limit against corrupt headers
)

// MarshalBinary externalizes the sequence in the framed msgpack form.
func (seq WireSequence) MarshalBinary() ([]byte, error) {
	var buf []byte
	buf = appendUvarint(buf, uint64(bfDefault))
	buf = appendUvarint(buf, uint64(len(seq)))

	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.ResetDict(&bb, nil)
	enc.SetSortMapKeys(true)
	for i := range seq {
		if err := seq[i].EncodeMsgpack(enc); err != nil {
			msgpack.PutEncoder(enc)
			return nil, malformedf(Slot(i), err, "cannot marshal record")
		}
	}
	msgpack.PutEncoder(enc)
	return bb.Buf, nil
}

// UnmarshalBinary parses the framed msgpack form.
func (seq *WireSequence) UnmarshalBinary(data []byte) error {
	if len(data) < minBinarySize {
		return malformedf(0, nil, "binary sequence requires at least %d bytes", minBinarySize)
	}
	d := makeByteDecoder(data)

	v, err := d.Uvarint()
	if err != nil {
		return err
	}
	flags := binFlags(v)
	if (flags &^ bfSupportedMask) != 0 {
		return malformedf(0, nil, "unsupported flags %x", v)
	}
	if flags&bfVerMask != bfVer1 {
		return malformedf(0, nil, "unsupported format version")
	}

	count, err := d.Uvarinti()
	if err != nil {
		return err
	}
	if count > maxRecordCount {
		return malformedf(0, nil, "implausible record count %d", count)
	}

	var r bytes.Reader
	r.Reset(d.Buf)
	dec := msgpack.GetDecoder()
	dec.ResetDict(&r, nil)
	out := make(WireSequence, count)
	for i := 0; i < count; i++ {
		if err := out[i].DecodeMsgpack(dec); err != nil {
			msgpack.PutDecoder(dec)
			return malformedf(Slot(i), err, "bad record")
		}
	}
	msgpack.PutDecoder(dec)
	*seq = out
	return nil
}

// EncodeBinary encodes a value graph into the framed binary form of its wire
// sequence. Unlike Stringify, strictness follows opts, and int64/uint64
// scalars survive the round trip exactly.
func EncodeBinary(value any, opts Options) ([]byte, error) {
	seq, err := Encode(value, opts)
	if err != nil {
		return nil, err
	}
	return seq.MarshalBinary()
}

// DecodeBinary reconstructs a value graph from the framed binary form.
func DecodeBinary(data []byte) (any, error) {
	var seq WireSequence
	if err := seq.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return Decode(seq)
}
