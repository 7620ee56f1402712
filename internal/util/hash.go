package util

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Hash64 hashes common key types with xxHash64.
// Supported: string, fixed byte arrays of 16/32/64, all integer widths,
// uintptr and fmt.Stringer. Other key types panic; convert them first.
func Hash64[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return xxhash.Sum64String(v)
	case [16]byte:
		return xxhash.Sum64(v[:])
	case [32]byte:
		return xxhash.Sum64(v[:])
	case [64]byte:
		return xxhash.Sum64(v[:])
	case int:
		return hashUint(uint64(v))
	case int8:
		return hashUint(uint64(uint8(v)))
	case int16:
		return hashUint(uint64(uint16(v)))
	case int32:
		return hashUint(uint64(uint32(v)))
	case int64:
		return hashUint(uint64(v))
	case uint:
		return hashUint(uint64(v))
	case uint8:
		return hashUint(uint64(v))
	case uint16:
		return hashUint(uint64(v))
	case uint32:
		return hashUint(uint64(v))
	case uint64:
		return hashUint(v)
	case uintptr:
		return hashUint(uint64(v))
	case fmt.Stringer:
		return xxhash.Sum64String(v.String())
	default:
		panic(fmt.Sprintf("util.Hash64: unsupported key type %T; convert the key to string", k))
	}
}

// hashUint hashes the little-endian bytes of u without allocating.
func hashUint(u uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], u)
	return xxhash.Sum64(b[:])
}
