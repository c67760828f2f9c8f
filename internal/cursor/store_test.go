package cursor

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nir0k/trailsync/internal/dataset"
	"github.com/nir0k/trailsync/internal/logging"
	"github.com/nir0k/trailsync/internal/xmp"
)

func TestStore_Dispatch(t *testing.T) {
	ds := testDataset(t)
	st := NewStore(ds, initial(), logging.Nop())

	s, err := st.Dispatch(MapClicked{Lat: 42.47, Lon: 8.905})
	require.NoError(t, err)
	assert.Equal(t, s, st.Snapshot())
	assert.Equal(t, 1, s.ProjectedIndex)

	before := st.Snapshot()
	got, err := st.Dispatch(ImageSelected{ImageID: 42})
	assert.ErrorIs(t, err, dataset.ErrOutOfRange)
	assert.Equal(t, before, got)
	assert.Equal(t, before, st.Snapshot())

	hist := st.History()
	require.Len(t, hist, 1)
	assert.Equal(t, uint64(1), hist[0].Seq)
	assert.Equal(t, "map_clicked", hist[0].Type)
}

func TestStore_HistoryRing(t *testing.T) {
	st := NewStore(testDataset(t), initial(), nil)

	for i := 0; i < HistorySize+10; i++ {
		_, err := st.Dispatch(ViewportZoomed{Zoom: i % 23})
		require.NoError(t, err)
	}

	hist := st.History()
	require.Len(t, hist, HistorySize)
	assert.Equal(t, uint64(11), hist[0].Seq)
	assert.Equal(t, uint64(HistorySize+10), hist[len(hist)-1].Seq)
	for i := 1; i < len(hist); i++ {
		assert.Equal(t, hist[i-1].Seq+1, hist[i].Seq)
	}
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	st := NewStore(testDataset(t), initial(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = st.Dispatch(PlotClicked{PointIndex: i % 3})
			} else {
				_, _ = st.Dispatch(LayerToggled{Layer: LayerImages, Visible: true})
			}
			_ = st.Snapshot()
		}(i)
	}
	wg.Wait()

	assert.Len(t, st.History(), 50)
	assert.True(t, st.Snapshot().Layers.Images)
}

func TestStore_PinActiveImage(t *testing.T) {
	dir := t.TempDir()
	photo := filepath.Join(dir, "IMG_0001.CR3")
	require.NoError(t, os.WriteFile(photo, []byte("raw"), 0o644))

	ds, err := dataset.New(
		[]dataset.Trace{{ID: 0, Points: []dataset.TracePoint{
			{Lat: 42.40, Lon: 8.90, Elevation: 1000},
			{Lat: 42.46, Lon: 8.91, Elevation: 1500},
		}}},
		[]dataset.ImageRecord{{Path: photo}},
		nil,
	)
	require.NoError(t, err)

	st := NewStore(ds, initial(), nil)
	st.now = func() time.Time { return time.Date(2023, 7, 1, 8, 0, 0, 0, time.UTC) }

	_, err = st.PinActiveImage(false)
	assert.ErrorIs(t, err, ErrNoActiveImage)

	_, err = st.Dispatch(PlotClicked{PointIndex: 1})
	require.NoError(t, err)
	_, err = st.Dispatch(ImageSelected{ImageID: 0})
	require.NoError(t, err)

	res, err := st.PinActiveImage(false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "IMG_0001.xmp"), res.Sidecar)

	pos, ok, err := xmp.ReadGPS(res.Sidecar)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 42.46, pos.Coordinate.Lat, 1e-6)
	assert.InDelta(t, 8.91, pos.Coordinate.Lon, 1e-6)
	require.NotNil(t, pos.Altitude)
	assert.InDelta(t, 1500, *pos.Altitude, 1e-6)

	_, err = st.PinActiveImage(false)
	assert.ErrorIs(t, err, xmp.ErrGPSAlreadyPresent)

	_, err = st.PinActiveImage(true)
	assert.NoError(t, err)
}
