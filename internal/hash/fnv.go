package hash

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

// FNV1a returns the 32-bit FNV-1a hash of b.
//
// Unlike hash/fnv this does not allocate a hasher, which keeps Interner.Lookup
// allocation free.
func FNV1a(b []byte) uint32 {
	h := uint32(fnvOffset32)
	for _, c := range b {
		h ^= uint32(c)
		h *= fnvPrime32
	}
	return h
}

// FNV1aString is FNV1a over the bytes of s without converting to a slice.
func FNV1aString(s string) uint32 {
	h := uint32(fnvOffset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime32
	}
	return h
}
