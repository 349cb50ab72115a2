package codec

import "fmt"

// Limit wraps another codec and refuses to encode or decode payloads larger
// than Max bytes. Oversized values are then simply not spilled. Max <= 0
// disables the check.
type Limit[V any] struct {
	Inner Codec[V]
	Max   int
}

// SizeError reports a payload over Limit.Max.
type SizeError struct {
	Op   string // "encode" or "decode"
	Size int
	Max  int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("codec: %s payload too large: %d > %d", e.Op, e.Size, e.Max)
}

func (c Limit[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.Max > 0 && len(b) > c.Max {
		return nil, &SizeError{Op: "encode", Size: len(b), Max: c.Max}
	}
	return b, nil
}

func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.Max > 0 && len(b) > c.Max {
		var zero V
		return zero, &SizeError{Op: "decode", Size: len(b), Max: c.Max}
	}
	return c.Inner.Decode(b)
}
