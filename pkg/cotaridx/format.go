package cotaridx

import "encoding/binary"

// COTAR v2 on-disk layout (all integers little-endian):
//
//	Header  : magic u32 = 0x02544F43 ("COT\x02") | slot_count u32   (8 B)
//	Slot[i] : fingerprint u64 | block_offset u32 | file_size u32    (16 B)
//	Footer  : magic u32                          | slot_count u32   (8 B, identical to header)
//
// Total image size = 16 + 16*SlotCount.
const (
	// magicV2 is "COT\x02" read as a little-endian u32: the trailing 0x02
	// byte carries the format version, there is no separate version field.
	magicV2 uint32 = 0x02544F43

	headerSize = 8
	footerSize = 8
	slotSize   = 16
)

// encodeHeaderFooter writes the 8-byte (magic, slot_count) tuple used for
// both the header and the footer.
func encodeHeaderFooter(buf []byte, slotCount uint32) {
	binary.LittleEndian.PutUint32(buf[0:4], magicV2)
	binary.LittleEndian.PutUint32(buf[4:8], slotCount)
}

// decodeHeaderFooter parses an 8-byte (magic, slot_count) tuple, validating
// the magic. buf must be at least 8 bytes.
func decodeHeaderFooter(buf []byte) (slotCount uint32, err error) {
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != magicV2 {
		return 0, ErrInvalidMagic
	}

	return binary.LittleEndian.Uint32(buf[4:8]), nil
}

// encodeSlot writes one 16-byte slot record.
func encodeSlot(buf []byte, e Entry) {
	binary.LittleEndian.PutUint64(buf[0:8], e.Fingerprint)
	binary.LittleEndian.PutUint32(buf[8:12], e.BlockOffset)
	binary.LittleEndian.PutUint32(buf[12:16], e.FileSize)
}

// decodeSlot parses one 16-byte slot record. buf must be at least 16 bytes.
func decodeSlot(buf []byte) Entry {
	return Entry{
		Fingerprint: binary.LittleEndian.Uint64(buf[0:8]),
		BlockOffset: binary.LittleEndian.Uint32(buf[8:12]),
		FileSize:    binary.LittleEndian.Uint32(buf[12:16]),
	}
}

// slotFingerprint reads just the fingerprint word of a slot, used by the
// lookup fast path to avoid decoding block_offset/file_size until a match
// is confirmed.
func slotFingerprint(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf[0:8])
}

// imageSize returns the total byte size of a COTAR v2 image with the given
// slot count.
func imageSize(slotCount uint32) int64 {
	return headerSize + int64(slotCount)*slotSize + footerSize
}
