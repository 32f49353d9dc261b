package value

import (
	"encoding/binary"
	"math"
)

// Encode produces the byte-sortable key form: the tag byte leads, and the
// remaining bytes are arranged so that byte-wise comparison of two
// encodings agrees with Compare (tag monotonicity). Variable, Apply and
// MaxTag are unevaluated or sentinel-only and MUST NOT be persisted;
// encoding them is an error rather than a panic.
func (v Value) Encode() ([]byte, error) {
	buf := []byte{byte(v.tag)}
	switch v.tag {
	case TagBoolFalse, TagNull, TagBoolTrue:
		return buf, nil
	case TagInt:
		return append(buf, encodeInt64(v.i)...), nil
	case TagFloat:
		return append(buf, encodeFloat64(v.f)...), nil
	case TagText:
		return encodeText(buf, v.s), nil
	case TagUuid:
		return append(buf, v.id[:]...), nil
	case TagUInt:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v.u)
		return append(buf, b[:]...), nil
	case TagList:
		for _, e := range v.list {
			enc, err := e.Encode()
			if err != nil {
				return nil, err
			}
			buf = append(buf, enc...)
		}
		return buf, nil
	case TagDict:
		if v.dict != nil {
			var encErr error
			v.dict.Range(func(k string, sub Value) {
				if encErr != nil {
					return
				}
				buf = encodeText(buf, k)
				enc, err := sub.Encode()
				if err != nil {
					encErr = err
					return
				}
				buf = append(buf, enc...)
			})
			if encErr != nil {
				return nil, encErr
			}
		}
		return buf, nil
	case TagVariable, TagApply:
		return nil, errUnevaluated(v.tag)
	case TagMaxTag:
		return nil, errSentinel()
	default:
		return nil, Error{Kind: "EncodeReservedTag", Message: "reserved tag range must not be emitted"}
	}
}

// encodeInt64 flips the sign bit so that two's-complement ordering becomes
// unsigned big-endian byte ordering.
func encodeInt64(i int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i)^0x8000000000000000)
	return b[:]
}

// encodeFloat64 produces a byte-sortable encoding for IEEE-754 doubles:
// positive numbers get the sign bit set, negative numbers get every bit
// flipped, so big-endian unsigned comparison matches float comparison.
func encodeFloat64(f float64) []byte {
	bits := math.Float64bits(canonicalizeNaN(f))
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], bits)
	return b[:]
}

// encodeText appends the UTF-8 payload with each 0x00 byte escaped as
// 0x00 0xFF, then a 0x00 0x00 terminator, so that no text value is a
// byte-prefix of another and byte order matches string order.
func encodeText(buf []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		if s[i] == 0x00 {
			buf = append(buf, 0x00, 0xFF)
		} else {
			buf = append(buf, s[i])
		}
	}
	return append(buf, 0x00, 0x00)
}
