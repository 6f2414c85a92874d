package cotaridx

// DefaultMaxProbe is the default probe-length ceiling used by the CLI's
// auto-tune loop when the user does not override it.
const DefaultMaxProbe = 100

// DefaultPackingFactorStep is the amount the auto-tune loop grows the
// packing factor by on each retry.
const DefaultPackingFactorStep = 0.022

// AutoTune repeatedly calls b.Pack with a growing packing factor, starting
// at 1.0 and incrementing by step, until the result's SearchMax is at most
// maxProbe. It returns the first image/stats pair that satisfies the bound.
//
// This terminates because growing slot_count strictly reduces expected
// cluster length; in the degenerate case where b is empty, the first call
// (packingFactor=1.0, SearchMax=0) already satisfies any maxProbe >= 0.
func AutoTune(b *Builder, maxProbe int, step float64) ([]byte, PackStats, error) {
	if step <= 0 {
		step = DefaultPackingFactorStep
	}

	factor := 1.0

	for {
		img, stats, err := b.Pack(factor)
		if err != nil {
			return nil, PackStats{}, err
		}

		if stats.SearchMax <= maxProbe {
			return img, stats, nil
		}

		factor += step
	}
}
