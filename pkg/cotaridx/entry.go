package cotaridx

// Entry is an in-memory record for one tar member: its path fingerprint,
// the tar block offset of its payload, and the payload's byte length.
//
// BlockOffset is expressed in 512-byte tar blocks, counted from the start of
// the tar file to the first byte after the member's header; FileSize is the
// payload's length in bytes. Both are stored on disk as 32-bit fields (see
// format.go), which caps an addressable tar at 2^32 x 512B = 2 TiB.
type Entry struct {
	Fingerprint uint64
	BlockOffset uint32
	FileSize    uint32
}

// ByteOffset returns the byte offset of the payload within the tar file.
func (e Entry) ByteOffset() int64 {
	return int64(e.BlockOffset) * tarBlockSize
}

// tarBlockSize is the fixed tar header/record block size.
const tarBlockSize = 512
