package sclone

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

var jsonx = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalText externalizes the sequence as a JSON array of [tag, payload]
// records. This is the documented persisted/cross-process text form.
func (seq WireSequence) MarshalText() ([]byte, error) {
	return jsonx.Marshal([]Record(seq))
}

// UnmarshalText parses the JSON array form. Errors are reported per record
// as *MalformedSequenceError.
func (seq *WireSequence) UnmarshalText(data []byte) error {
	var raw []json.RawMessage
	if err := jsonx.Unmarshal(data, &raw); err != nil {
		return malformedf(0, err, "not a record array")
	}
	out := make(WireSequence, len(raw))
	for i, r := range raw {
		if err := out[i].UnmarshalJSON(r); err != nil {
			return malformedf(Slot(i), err, "bad record")
		}
	}
	*seq = out
	return nil
}

// Stringify encodes a value graph into the JSON text form of its wire
// sequence. It always operates in relaxed mode: the whole point of textual
// transport is to tolerate values plain text cannot losslessly represent.
// Note that numbers other than big integers collapse to float64 on Parse.
func Stringify(value any) (string, error) {
	seq, err := Encode(value, Options{JSON: true, Lossy: true})
	if err != nil {
		return "", err
	}
	data, err := seq.MarshalText()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Parse reconstructs a value graph from the text form produced by Stringify.
func Parse(text string) (any, error) {
	var seq WireSequence
	if err := seq.UnmarshalText([]byte(text)); err != nil {
		return nil, err
	}
	return Decode(seq)
}
