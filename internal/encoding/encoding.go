// Package encoding provides byte-level encoding utilities: big-endian integer
// primitives, length-prefixed vectors, and concatenation helpers used by the
// wire codecs.
package encoding

import (
	"encoding/binary"
	"errors"
)

var (
	errInputNegative  = errors.New("negative input")
	errInputLarge     = errors.New("input is too high for length")
	errLengthInvalid  = errors.New("length must be between 1 and 4")
	errInputEmpty     = errors.New("nil or empty input")
	errInputTooLarge  = errors.New("input too large for integer")
	errVectorTooShort = errors.New("insufficient total length for decoding")
)

// I2OSP is the 32-bit Integer to Octet Stream Primitive on maximum 4 bytes.
func I2OSP(value, length int) []byte {
	if length <= 0 || length > 4 {
		panic(errLengthInvalid)
	}

	out := make([]byte, 4)

	switch v := value; {
	case v < 0:
		panic(errInputNegative)
	case v >= 1<<(8*length):
		panic(errInputLarge)
	case length == 1:
		binary.BigEndian.PutUint16(out, uint16(v))
		return out[1:2]
	case length == 2:
		binary.BigEndian.PutUint16(out, uint16(v))
		return out[:2]
	case length == 3:
		binary.BigEndian.PutUint32(out, uint32(v))
		return out[1:]
	default: // length == 4
		binary.BigEndian.PutUint32(out, uint32(v))
		return out
	}
}

// OS2IP is the Octet Stream to Integer Primitive on maximum 4 bytes.
func OS2IP(input []byte) int {
	switch length := len(input); {
	case length == 0:
		panic(errInputEmpty)
	case length == 1:
		b := []byte{0, input[0]}
		return int(binary.BigEndian.Uint16(b))
	case length == 2:
		return int(binary.BigEndian.Uint16(input))
	case length == 3:
		b := append([]byte{0}, input...)
		return int(binary.BigEndian.Uint32(b))
	case length == 4:
		return int(binary.BigEndian.Uint32(input))
	default:
		panic(errInputTooLarge)
	}
}

// EncodeVectorLen length-prefixes the input with a prefix of the given size.
func EncodeVectorLen(input []byte, length int) []byte {
	return append(I2OSP(len(input), length), input...)
}

// EncodeVector length-prefixes the input with a two-byte prefix.
func EncodeVector(input []byte) []byte {
	return EncodeVectorLen(input, 2)
}

// DecodeVector reads a two-byte length prefix and returns the vector contents
// and the total number of bytes consumed.
func DecodeVector(input []byte) (data []byte, offset int, err error) {
	if len(input) < 2 {
		return nil, 0, errVectorTooShort
	}

	dataLen := OS2IP(input[0:2])
	offset = 2 + dataLen

	if len(input) < offset {
		return nil, 0, errVectorTooShort
	}

	return input[2:offset], offset, nil
}

// Concat returns the concatenation of the two inputs in a new buffer.
func Concat(a, b []byte) []byte {
	e := make([]byte, 0, len(a)+len(b))
	e = append(e, a...)
	e = append(e, b...)

	return e
}

// Concat3 returns the concatenation of the three inputs in a new buffer.
func Concat3(a, b, c []byte) []byte {
	e := make([]byte, 0, len(a)+len(b)+len(c))
	e = append(e, a...)
	e = append(e, b...)
	e = append(e, c...)

	return e
}

// Concatenate returns the concatenation of all inputs in a new buffer.
func Concatenate(input ...[]byte) []byte {
	length := 0
	for _, in := range input {
		length += len(in)
	}

	e := make([]byte, 0, length)
	for _, in := range input {
		e = append(e, in...)
	}

	return e
}

// SuffixString returns the concatenation of the input byte string and the
// string argument.
func SuffixString(a []byte, b string) []byte {
	e := make([]byte, 0, len(a)+len(b))
	e = append(e, a...)
	e = append(e, b...)

	return e
}
