package storage

import (
	"encoding/binary"
	"errors"
	"sort"
)

// errTruncatedHash is an internal decode failure, never surfaced to a
// client: it can only mean on-disk corruption, since every write through
// this package goes through encodeHash first.
var errTruncatedHash = errors.New("storage: truncated hash payload")

// encodeHash serialises a field/value map as a single binary-safe blob:
// each field is a pair of length-prefixed byte strings, sorted by field name
// so that the encoding is deterministic. This trades O(1) field updates (a
// per-field sub-record layout would allow that) for a simpler single-record
// write, which is fine while hashes stay small.
func encodeHash(fields map[string][]byte) []byte {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	size := 0
	for _, name := range names {
		size += binary.MaxVarintLen64 + len(name) + binary.MaxVarintLen64 + len(fields[name])
	}

	buf := make([]byte, 0, size)
	var scratch [binary.MaxVarintLen64]byte
	for _, name := range names {
		buf = appendLengthPrefixed(buf, scratch[:], []byte(name))
		buf = appendLengthPrefixed(buf, scratch[:], fields[name])
	}
	return buf
}

func appendLengthPrefixed(buf []byte, scratch []byte, b []byte) []byte {
	n := binary.PutUvarint(scratch, uint64(len(b)))
	buf = append(buf, scratch[:n]...)
	buf = append(buf, b...)
	return buf
}

// decodeHash is the inverse of encodeHash.
func decodeHash(payload []byte) (map[string][]byte, error) {
	fields := make(map[string][]byte)
	rest := payload
	for len(rest) > 0 {
		name, tail, err := readLengthPrefixed(rest)
		if err != nil {
			return nil, err
		}
		value, tail, err := readLengthPrefixed(tail)
		if err != nil {
			return nil, err
		}
		fields[string(name)] = value
		rest = tail
	}
	return fields, nil
}

func readLengthPrefixed(b []byte) (value []byte, rest []byte, err error) {
	length, n := binary.Uvarint(b)
	if n <= 0 {
		return nil, nil, errTruncatedHash
	}
	b = b[n:]
	if uint64(len(b)) < length {
		return nil, nil, errTruncatedHash
	}
	return b[:length], b[length:], nil
}
