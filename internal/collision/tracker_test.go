package collision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/forma/errs"
)

func TestTrackerTrackNewKeysSucceed(t *testing.T) {
	tr := NewTracker(4)

	require.NoError(t, tr.Track(1, "cpu.usage"))
	require.NoError(t, tr.Track(2, "mem.usage"))
}

func TestTrackerRejectsTrueDuplicate(t *testing.T) {
	tr := NewTracker(4)

	require.NoError(t, tr.Track(1, "cpu.usage"))

	err := tr.Track(1, "cpu.usage")
	require.ErrorIs(t, err, errs.ErrDuplicateMapKey)
}

func TestTrackerDistinctNamesSharingAHashDoNotCollide(t *testing.T) {
	tr := NewTracker(4)

	require.NoError(t, tr.Track(1, "cpu.usage"))
	require.NoError(t, tr.Track(1, "cpu.idle"))
	require.NoError(t, tr.Track(1, "cpu.steal"))
}

func TestTrackerMultipleBucketsIndependent(t *testing.T) {
	tr := NewTracker(4)

	require.NoError(t, tr.Track(1, "metric1"))
	require.NoError(t, tr.Track(1, "metric2"))
	require.NoError(t, tr.Track(2, "metric3"))
	require.NoError(t, tr.Track(2, "metric4"))

	require.ErrorIs(t, tr.Track(1, "metric1"), errs.ErrDuplicateMapKey)
	require.ErrorIs(t, tr.Track(2, "metric3"), errs.ErrDuplicateMapKey)
}
