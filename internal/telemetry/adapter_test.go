package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowFromSnapshot_RoundTrip(t *testing.T) {
	ts := time.Now()
	original := FromRow(sampleRow(ts))
	require.NotNil(t, original)

	row := RowFromSnapshot("dev-1", original, ts)
	assert.Equal(t, "dev-1", row.DeviceID)
	assert.Equal(t, ts, row.Timestamp)

	// Flatten-then-nest lands back on the same snapshot.
	assert.Equal(t, original, FromRow(row))
}

func TestRowFromSnapshot_SparseSections(t *testing.T) {
	snap := FromHistory(historyBlob(t, time.Now(), FromRow(sampleRow(time.Now()))))
	require.NotNil(t, snap)

	snap.DisplayInfo = nil
	snap.NetworkInfo = nil

	row := RowFromSnapshot("dev-1", snap, time.Now())
	assert.Nil(t, row.WifiIP)
	assert.Nil(t, row.ScreenResolution)
	assert.Equal(t, "Pixel 7", row.DeviceName)
}
