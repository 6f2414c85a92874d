package cotaridx

// FNV-1a 64-bit constants (see https://www.isthe.com/chongo/tech/comp/fnv).
const (
	fnvOffset64 uint64 = 0xcbf29ce484222325
	fnvPrime64  uint64 = 0x100000001b3
)

// Hash returns the 64-bit FNV-1a fingerprint of path, computed over its raw
// UTF-8 bytes. It is a pure function: the same bytes always produce the same
// fingerprint, and no state is retained between calls.
func Hash(path string) uint64 {
	h := fnvOffset64

	for i := 0; i < len(path); i++ {
		h ^= uint64(path[i])
		h *= fnvPrime64
	}

	return h
}

// HashBytes is Hash for a raw byte slice rather than a string, used by the
// content-dedup path in the MBTiles converter where the hashed payload is
// never materialized as a string.
func HashBytes(b []byte) uint64 {
	h := fnvOffset64

	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}

	return h
}
