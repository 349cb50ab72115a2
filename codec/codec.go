// Package codec serializes cached values for the spill tier.
//
// A Codec only runs when a candidate is weakened (Encode) and when a collected
// value is recovered (Decode), so speed matters less than compactness.
package codec

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
