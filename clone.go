package sclone

// Clone deep-copies a value graph by round-tripping it through the wire
// format: Decode(Encode(value, opts)). Sharing and cycles are preserved;
// information the encoder drops (functions in relaxed mode, extra error
// properties) does not survive.
func Clone(value any, opts Options) (any, error) {
	seq, err := Encode(value, opts)
	if err != nil {
		return nil, err
	}
	return Decode(seq)
}
