package cotaridx

import (
	"fmt"
	"sort"
)

// Builder collects (path, block_offset, file_size) entries scanned from a
// tar stream and packs them into an immutable COTAR v2 byte image.
//
// Builder is not safe for concurrent use. It holds the entire entry
// dictionary in memory and writes nothing to disk; Pack returns the image
// bytes for the caller to persist.
type Builder struct {
	entries map[uint64]Entry
	byPath  map[string]uint64
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		entries: make(map[uint64]Entry),
		byPath:  make(map[string]uint64),
	}
}

// Add records one regular tar member. fileOffsetBytes must be the absolute
// byte offset of the payload within the tar (i.e. header_byte_offset+512)
// and must be a multiple of 512; fileSize is the payload length in bytes.
//
// Returns [ErrZeroFingerprint] if path hashes to the reserved empty
// sentinel, [ErrBadOffsetAlignment] if fileOffsetBytes is not block-aligned,
// or [ErrDuplicateFingerprint] if the same fingerprint is already staged
// (the same path added again, or another path with the same fingerprint).
func (b *Builder) Add(path string, fileOffsetBytes int64, fileSize uint32) error {
	if fileOffsetBytes%tarBlockSize != 0 {
		return fmt.Errorf("%w: %s at %d", ErrBadOffsetAlignment, path, fileOffsetBytes)
	}

	fp := Hash(path)
	if fp == 0 {
		return fmt.Errorf("%w: %s", ErrZeroFingerprint, path)
	}

	if _, ok := b.entries[fp]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFingerprint, path)
	}

	b.entries[fp] = Entry{
		Fingerprint: fp,
		BlockOffset: uint32(fileOffsetBytes / tarBlockSize), //nolint:gosec // validated non-negative/aligned above
		FileSize:    fileSize,
	}
	b.byPath[path] = fp

	return nil
}

// Link records sourcePath as a hard link to targetPath's current entry:
// both paths resolve to the same (block_offset, file_size). targetPath must
// have already been added via Add or Link.
//
// Returns [ErrMissingLinkTarget] if targetPath has no entry yet, or
// [ErrDuplicateFingerprint] if sourcePath's fingerprint collides with an
// existing, different entry.
func (b *Builder) Link(sourcePath, targetPath string) error {
	targetFP, ok := b.byPath[targetPath]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingLinkTarget, targetPath)
	}

	target := b.entries[targetFP]

	sourceFP := Hash(sourcePath)
	if sourceFP == 0 {
		return fmt.Errorf("%w: %s", ErrZeroFingerprint, sourcePath)
	}

	if _, ok := b.entries[sourceFP]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFingerprint, sourcePath)
	}

	b.entries[sourceFP] = Entry{
		Fingerprint: sourceFP,
		BlockOffset: target.BlockOffset,
		FileSize:    target.FileSize,
	}
	b.byPath[sourcePath] = sourceFP

	return nil
}

// Len returns the number of entries (regular + linked) currently staged.
func (b *Builder) Len() int {
	return len(b.entries)
}

// PackStats reports the probe-length statistics of a completed Pack call.
type PackStats struct {
	Entries   int
	SlotCount uint32
	SearchMax int
	SearchAvg float64
}

// Pack builds the COTAR v2 byte image for all entries staged so far.
//
// packingFactor must be >= 1.0; slot_count = floor(entries * packingFactor),
// clamped up to at least entries (so packingFactor == 1.0 always yields
// slot_count == entries). Returns [ErrInvalidPackingFactor] if factor < 1.0,
// [ErrTooLarge] if slot_count would not fit in 32 bits, or
// [ErrLoopDetected] if linear probing for some entry visits every slot
// without finding an empty one (indicates slot_count < entries, a bug
// since the clamp above should prevent it).
//
// Pack is idempotent: calling it twice with the same packingFactor on the
// same Builder produces byte-identical images, because insertion order is
// fixed by a stable sort over (home bucket, block offset, fingerprint).
func (b *Builder) Pack(packingFactor float64) ([]byte, PackStats, error) {
	if packingFactor < 1.0 {
		return nil, PackStats{}, fmt.Errorf("%w: %v", ErrInvalidPackingFactor, packingFactor)
	}

	entryCount := len(b.entries)

	slotCount64 := uint64(float64(entryCount) * packingFactor)
	if slotCount64 < uint64(entryCount) {
		slotCount64 = uint64(entryCount)
	}

	if entryCount > 0 && slotCount64 == 0 {
		slotCount64 = 1
	}

	if slotCount64 >= 1<<32 {
		return nil, PackStats{}, fmt.Errorf("%w: slot_count=%d", ErrTooLarge, slotCount64)
	}

	slotCount := uint32(slotCount64)

	buf := make([]byte, imageSize(slotCount))
	encodeHeaderFooter(buf[0:headerSize], slotCount)
	encodeHeaderFooter(buf[len(buf)-footerSize:], slotCount)

	slots := buf[headerSize : len(buf)-footerSize]

	sorted := make([]Entry, 0, entryCount)
	for _, e := range b.entries {
		sorted = append(sorted, e)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		hi, hj := homeBucket(sorted[i].Fingerprint, slotCount), homeBucket(sorted[j].Fingerprint, slotCount)
		if hi != hj {
			return hi < hj
		}

		if sorted[i].BlockOffset != sorted[j].BlockOffset {
			return sorted[i].BlockOffset < sorted[j].BlockOffset
		}

		return sorted[i].Fingerprint < sorted[j].Fingerprint
	})

	var maxProbe int

	var probeSum int64

	for _, e := range sorted {
		probes, err := insertSlot(slots, slotCount, e)
		if err != nil {
			return nil, PackStats{}, err
		}

		if probes > maxProbe {
			maxProbe = probes
		}

		probeSum += int64(probes)
	}

	stats := PackStats{
		Entries:   entryCount,
		SlotCount: slotCount,
		SearchMax: maxProbe,
	}

	if entryCount > 0 {
		stats.SearchAvg = float64(probeSum) / float64(entryCount)
	}

	return buf, stats, nil
}

// homeBucket returns fingerprint mod slotCount as the entry's home bucket.
func homeBucket(fingerprint uint64, slotCount uint32) uint64 {
	return fingerprint % uint64(slotCount)
}

// insertSlot linearly probes from e's home bucket and writes it into the
// first empty slot, returning the number of occupied slots it stepped over.
func insertSlot(slots []byte, slotCount uint32, e Entry) (int, error) {
	start := homeBucket(e.Fingerprint, slotCount)
	i := start
	probes := 0

	for {
		off := i * slotSize
		if slotFingerprint(slots[off:off+slotSize]) == 0 {
			encodeSlot(slots[off:off+slotSize], e)
			return probes, nil
		}

		i = (i + 1) % uint64(slotCount)
		probes++

		if i == start {
			return 0, fmt.Errorf("%w: fingerprint=%#x", ErrLoopDetected, e.Fingerprint)
		}
	}
}
