// Package rowkey provides order-preserving encodings for composite row keys.
//
// Byte strings are escaped and terminated so that encoded components never
// are a prefix of each other: comparing two encoded keys with bytes.Compare
// gives the same result as comparing their components one by one. Because
// the encodings are prefix-free, Invert reverses their order, which is what
// reverse indexes are built on.
package rowkey

import (
	"encoding/binary"
	"errors"
)

const (
	escapeByte     = 0x00
	escapedZero    = 0xFF
	terminatorByte = 0x01
	uint64Size     = 8
	signBit        = uint64(1) << 63
)

var (
	// ErrTruncated is returned when an encoded key ends in the middle of a component.
	ErrTruncated = errors.New("rowkey: truncated key")
	// ErrMalformed is returned when an encoded key contains an invalid escape sequence.
	ErrMalformed = errors.New("rowkey: malformed key")
)

// AppendBytes appends the escaped and terminated encoding of b to dst.
func AppendBytes(dst, b []byte) []byte {
	for _, c := range b {
		if c == escapeByte {
			dst = append(dst, escapeByte, escapedZero)
			continue
		}

		dst = append(dst, c)
	}

	return append(dst, escapeByte, terminatorByte)
}

// AppendString appends the escaped and terminated encoding of s to dst.
func AppendString(dst []byte, s string) []byte {
	return AppendBytes(dst, []byte(s))
}

// AppendUint64 appends the big-endian encoding of v to dst.
func AppendUint64(dst []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(dst, v)
}

// AppendInt64 appends an encoding of v that sorts negative values first.
func AppendInt64(dst []byte, v int64) []byte {
	return AppendUint64(dst, uint64(v)^signBit) //nolint:gosec
}

// Invert returns the bitwise complement of key. For prefix-free encodings
// the complement sorts in the opposite order of the original keys.
func Invert(key []byte) []byte {
	out := make([]byte, len(key))
	for i, c := range key {
		out[i] = ^c
	}

	return out
}

// PrefixEnd returns the smallest key that is greater than every key starting
// with prefix, or nil if no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)

	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}

	return nil
}

// Decoder reads components from an encoded key.
type Decoder struct {
	data []byte
}

// NewDecoder creates a decoder over an encoded key.
func NewDecoder(key []byte) *Decoder {
	return &Decoder{data: key}
}

// Remaining returns the number of bytes not decoded yet.
func (d *Decoder) Remaining() int {
	return len(d.data)
}

// Bytes decodes a component written by AppendBytes.
func (d *Decoder) Bytes() ([]byte, error) {
	out := make([]byte, 0, len(d.data))

	for i := 0; i < len(d.data); i++ {
		if d.data[i] != escapeByte {
			out = append(out, d.data[i])
			continue
		}

		if i+1 >= len(d.data) {
			return nil, ErrTruncated
		}

		switch d.data[i+1] {
		case escapedZero:
			out = append(out, escapeByte)
			i++
		case terminatorByte:
			d.data = d.data[i+2:]
			return out, nil
		default:
			return nil, ErrMalformed
		}
	}

	return nil, ErrTruncated
}

// String decodes a component written by AppendString.
func (d *Decoder) String() (string, error) {
	b, err := d.Bytes()
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Uint64 decodes a component written by AppendUint64.
func (d *Decoder) Uint64() (uint64, error) {
	if len(d.data) < uint64Size {
		return 0, ErrTruncated
	}

	v := binary.BigEndian.Uint64(d.data)
	d.data = d.data[uint64Size:]

	return v, nil
}

// Int64 decodes a component written by AppendInt64.
func (d *Decoder) Int64() (int64, error) {
	v, err := d.Uint64()
	if err != nil {
		return 0, err
	}

	return int64(v ^ signBit), nil //nolint:gosec
}
