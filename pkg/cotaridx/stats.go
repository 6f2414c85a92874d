package cotaridx

import "fmt"

// Stats summarizes an already-built index's occupancy and probe-length
// distribution, for diagnostics (the `cotar info` CLI command). Unlike
// [PackStats], which Builder.Pack returns for free as a byproduct of
// insertion, Stats is recomputed from the on-disk slot table by scanning
// every occupied slot and measuring its distance from its home bucket.
type Stats struct {
	Entries   int
	SlotCount uint32
	SearchMax int
	SearchAvg float64
}

// Stats scans the full slot table once and reports occupancy and
// probe-length statistics. This is an O(SlotCount) operation.
func (r *Reader) Stats() (Stats, error) {
	if r.slotCount == 0 {
		return Stats{}, nil
	}

	buf, err := r.index.ReadExact(r.indexBase+headerSize, int64(r.slotCount)*slotSize)
	if err != nil {
		return Stats{}, fmt.Errorf("cotaridx: read slot table: %w", err)
	}

	var (
		entries  int
		maxProbe int
		probeSum int64
	)

	for i := uint32(0); i < r.slotCount; i++ {
		off := int(i) * slotSize

		fp := slotFingerprint(buf[off : off+slotSize])
		if fp == 0 {
			continue
		}

		entries++

		home := homeBucket(fp, r.slotCount)
		probes := int((uint64(i) + uint64(r.slotCount) - home) % uint64(r.slotCount))

		if probes > maxProbe {
			maxProbe = probes
		}

		probeSum += int64(probes)
	}

	stats := Stats{Entries: entries, SlotCount: r.slotCount, SearchMax: maxProbe}
	if entries > 0 {
		stats.SearchAvg = float64(probeSum) / float64(entries)
	}

	return stats, nil
}
