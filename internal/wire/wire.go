package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const version byte = 1

var (
	ErrCorrupt = errors.New("softcache: corrupt spill frame")
	ErrKeyLen  = errors.New("softcache: spill key length out of range")
	magic4     = [...]byte{'S', 'O', 'F', 'T'}
)

const hdrLen = 4 + 1 + 8 + 2 // magic | ver | stamp | klen

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Frame is one spilled value.
// Stamp identifies the cache entry the payload was taken from; a frame whose
// stamp no longer matches is stale.
type Frame struct {
	Key     string
	Stamp   uint64
	Payload []byte
}

// Encode lays out:
//
//	magic(4) | ver(1) | stamp(u64 be) | klen(u16 be) | key(klen) | vlen(u32 be) | payload(vlen)
func Encode(f Frame) ([]byte, error) {
	if l := len(f.Key); l == 0 || l > 0xFFFF {
		return nil, ErrKeyLen
	}

	var buf bytes.Buffer
	buf.Grow(hdrLen + len(f.Key) + 4 + len(f.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint64(u8[:], f.Stamp)
	buf.Write(u8[:])

	binary.BigEndian.PutUint16(u2[:], uint16(len(f.Key)))
	buf.Write(u2[:])
	buf.WriteString(f.Key)

	binary.BigEndian.PutUint32(u4[:], uint32(len(f.Payload)))
	buf.Write(u4[:])
	buf.Write(f.Payload)

	return buf.Bytes(), nil
}

// Decode parses a frame. Payload aliases b. Trailing bytes are rejected.
func Decode(b []byte) (Frame, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return Frame{}, ErrCorrupt
	}

	off := 5

	stamp := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	klen := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2
	if klen == 0 || klen > len(b)-off {
		return Frame{}, ErrCorrupt
	}
	key := string(b[off : off+klen])
	off += klen

	if off+4 > len(b) {
		return Frame{}, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return Frame{}, ErrCorrupt
	}

	return Frame{Key: key, Stamp: stamp, Payload: b[off : off+vlen]}, nil
}
