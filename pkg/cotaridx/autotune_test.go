package cotaridx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_AutoTune_EmptyBuilderTerminatesImmediately(t *testing.T) {
	t.Parallel()

	b := NewBuilder()

	img, stats, err := AutoTune(b, DefaultMaxProbe, DefaultPackingFactorStep)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, uint32(0), stats.SlotCount)
	assert.Len(t, img, 16) // header + footer only, no slots
}

func Test_AutoTune_ZeroStepFallsBackToDefault(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	for i := 0; i < 200; i++ {
		require.NoError(t, b.Add(pathFor(i), int64(i+1)*512, 1))
	}

	_, stats, err := AutoTune(b, 2, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, stats.SearchMax, 2)
}

func Test_AutoTune_PropagatesPackErrors(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	require.NoError(t, b.Add("a", 512, 1))

	// A maxProbe that can never be satisfied combined with a step that
	// overflows slot_count past 2^32 should surface ErrTooLarge rather than
	// loop forever.
	_, _, err := AutoTune(b, -1, float64(1<<33))
	assert.ErrorIs(t, err, ErrTooLarge)
}
