package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Protobuf is a Codec for generated message pointers, e.g. Protobuf[*pb.User].
type Protobuf[T proto.Message] struct {
	newMsg func() T
}

// NewProtobuf takes a constructor for an empty message:
//
//	codec.NewProtobuf(func() *pb.User { return &pb.User{} })
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{newMsg: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: protobuf encode: %w", err)
	}
	return b, nil
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	if c.newMsg == nil {
		var zero T
		return zero, errors.New("codec: protobuf decode: no message constructor")
	}
	m := c.newMsg()
	if err := proto.Unmarshal(b, m); err != nil {
		return m, fmt.Errorf("codec: protobuf decode: %w", err)
	}
	return m, nil
}
