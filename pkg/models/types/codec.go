package types

import (
	"encoding/binary"
	"fmt"
)

// BuildTuple serializes tuple components: each one is prefixed with its
// 4-byte big endian length, a nil component is written as length -1.
func BuildTuple(elements [][]byte) []byte {
	size := 0
	for _, e := range elements {
		size += 4 + len(e)
	}
	buf := make([]byte, 0, size)
	return appendElements(buf, elements)
}

// SplitTuple is the inverse of BuildTuple.
func SplitTuple(b []byte) ([][]byte, error) {
	var res [][]byte
	for len(b) > 0 {
		e, rest, err := readElement(b)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
		b = rest
	}
	return res, nil
}

// PackCollection serializes a list, set or map. For maps elements
// alternate between keys and values.
func PackCollection(elements [][]byte, pairs bool) []byte {
	n := len(elements)
	if pairs {
		n /= 2
	}
	buf := binary.BigEndian.AppendUint32(nil, uint32(n))
	return appendElements(buf, elements)
}

func UnpackCollection(b []byte, pairs bool) ([][]byte, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("collection value too short: %d bytes", len(b))
	}
	n := int(int32(binary.BigEndian.Uint32(b)))
	if n < 0 {
		return nil, fmt.Errorf("negative collection size %d", n)
	}
	if pairs {
		n *= 2
	}
	b = b[4:]
	res := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		e, rest, err := readElement(b)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
		b = rest
	}
	if len(b) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after collection value", len(b))
	}
	return res, nil
}

func appendElements(buf []byte, elements [][]byte) []byte {
	for _, e := range elements {
		if e == nil {
			buf = binary.BigEndian.AppendUint32(buf, 0xffffffff)
			continue
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(e)))
		buf = append(buf, e...)
	}
	return buf
}

func readElement(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, fmt.Errorf("truncated element header")
	}
	l := int32(binary.BigEndian.Uint32(b))
	b = b[4:]
	if l < 0 {
		return nil, b, nil
	}
	if int(l) > len(b) {
		return nil, nil, fmt.Errorf("element length %d exceeds remaining %d bytes", l, len(b))
	}
	return b[:l:l], b[l:], nil
}
