package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nir0k/trailsync/internal/geo"
	"github.com/nir0k/trailsync/internal/logging"
	"github.com/nir0k/trailsync/internal/xmp"
)

const traceGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <wpt lat="42.4600" lon="8.9100"><name>Refuge d'Ortu</name></wpt>
  <wpt lat="42.3000" lon="8.9500"></wpt>
  <trk>
    <name>GR20 north</name>
    <trkseg>
      <trkpt lat="42.4000" lon="8.9000"><ele>1000</ele></trkpt>
      <trkpt lat="42.4600" lon="8.9100"><ele>1500</ele></trkpt>
      <trkpt lat="42.5000" lon="8.9500"></trkpt>
    </trkseg>
  </trk>
</gpx>`

const traceTable = `[
  {"index_trace": 1, "name": "variant", "trace": [{"lat": 42.1, "lon": 9.1, "ele": 800, "cum_distance": 0}]},
  {"index_trace": 0, "name": " main ", "trace": [
    {"lat": 42.40, "lon": 8.90, "ele": 1000, "cum_distance": 0},
    {"lat": 42.46, "lon": 8.91, "ele": 1500, "cum_distance": 5}
  ]}
]`

const imageTable = `[
  {"path": "img/a.jpg", "isok": true, "lat": 42.46, "lon": 8.91, "date": "2023-07-01"},
  {"path": "img/b.jpg", "isok": false, "lat": 42.0, "lon": 9.0}
]`

const refugeTable = `[
  {"index_refuge": 1, "name": "Carrozzu", "lat": 42.3, "lon": 8.95},
  {"index_refuge": 0, "name": "Ortu", "lat": 42.46, "lon": 8.91}
]`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_GPXAndPhotos(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data", "north.gpx"), traceGPX)
	writeFile(t, filepath.Join(dir, "photos", "b.jpg"), "not an image")
	writeFile(t, filepath.Join(dir, "photos", "a.jpg"), "not an image")

	alt := 1500.0
	sidecar, err := xmp.BuildSidecar(xmp.Position{Coordinate: geo.Coordinate{Lat: 42.46, Lon: 8.91}, Altitude: &alt}, time.Now())
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "photos", "b.xmp"), string(sidecar))

	writeFile(t, filepath.Join(dir, "trail.yml"), `
traces:
  - gpx: data/north.gpx
images:
  input: photos
refuges:
  gpx: data/north.gpx
viewport:
  lat: 42.45
  lon: 8.9
  zoom: 12
`)

	ds, vp, err := Load(context.Background(), filepath.Join(dir, "trail.yml"), logging.Nop())
	require.NoError(t, err)

	assert.Equal(t, Viewport{Center: geo.Coordinate{Lat: 42.45, Lon: 8.9}, Zoom: 12}, vp)

	require.Len(t, ds.Traces(), 1)
	tr := ds.Traces()[0]
	assert.Equal(t, "GR20 north", tr.Name)
	require.Len(t, tr.Points, 3)
	assert.Equal(t, 0.0, tr.Points[0].CumulativeDistance)
	assert.Greater(t, tr.Points[1].CumulativeDistance, 6.0)
	assert.Greater(t, tr.Points[2].CumulativeDistance, tr.Points[1].CumulativeDistance)
	assert.Equal(t, 1500.0, tr.Points[1].Elevation)
	assert.Equal(t, 0.0, tr.Points[2].Elevation)

	images := ds.Images()
	require.Len(t, images, 2)
	assert.Equal(t, filepath.Join(dir, "photos", "a.jpg"), images[0].Path)
	assert.False(t, images[0].IsGeolocated)
	assert.Equal(t, filepath.Join(dir, "photos", "b.jpg"), images[1].Path)
	assert.True(t, images[1].IsGeolocated)
	assert.Equal(t, SourceXMP, images[1].Source)
	assert.InDelta(t, 42.46, images[1].Lat, 1e-9)

	refuges := ds.Refuges()
	require.Len(t, refuges, 2)
	assert.Equal(t, "Refuge d'Ortu", refuges[0].Name)
	assert.Equal(t, "refuge 2", refuges[1].Name)
	assert.Equal(t, 1, refuges[1].ID)
}

func TestLoad_JSONTables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "traces.json"), traceTable)
	writeFile(t, filepath.Join(dir, "images.json"), imageTable)
	writeFile(t, filepath.Join(dir, "refuges.json"), refugeTable)
	writeFile(t, filepath.Join(dir, "trail.yml"), `
traces:
  - json: traces.json
images:
  json: images.json
refuges:
  json: refuges.json
`)

	ds, vp, err := Load(context.Background(), filepath.Join(dir, "trail.yml"), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultViewport, vp)

	traces := ds.Traces()
	require.Len(t, traces, 2)
	assert.Equal(t, "main", traces[0].Name)
	assert.Equal(t, 5.0, traces[0].Length())
	assert.Equal(t, "variant", traces[1].Name)
	assert.Equal(t, 1, traces[1].ID)

	images := ds.Images()
	require.Len(t, images, 2)
	assert.True(t, images[0].IsGeolocated)
	assert.Equal(t, SourceTable, images[0].Source)
	assert.Equal(t, "2023-07-01", images[0].Extra["date"])
	assert.False(t, images[1].IsGeolocated)
	assert.Zero(t, images[1].Lat)

	refuges := ds.Refuges()
	require.Len(t, refuges, 2)
	assert.Equal(t, "Ortu", refuges[0].Name)
	assert.Equal(t, "Carrozzu", refuges[1].Name)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Load(context.Background(), filepath.Join(dir, "missing.yml"), nil)
	assert.Error(t, err)

	writeFile(t, filepath.Join(dir, "bad.yml"), "traces:\n  - gpx: missing.gpx\n")
	_, _, err = Load(context.Background(), filepath.Join(dir, "bad.yml"), nil)
	assert.Error(t, err)

	writeFile(t, filepath.Join(dir, "broken.json"), "{")
	writeFile(t, filepath.Join(dir, "broken.yml"), "traces:\n  - json: broken.json\n")
	_, _, err = Load(context.Background(), filepath.Join(dir, "broken.yml"), nil)
	assert.Error(t, err)
}

func TestLoad_TraceTableIndices(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "north.gpx"), traceGPX)
	writeFile(t, filepath.Join(dir, "gaps.json"), `[
  {"index_trace": 3, "name": "a", "trace": [{"lat": 42.1, "lon": 9.1}]},
  {"index_trace": 7, "name": "b", "trace": [{"lat": 42.2, "lon": 9.2}]}
]`)
	writeFile(t, filepath.Join(dir, "next.json"), `[{"index_trace": 1, "name": "variant", "trace": [{"lat": 42.1, "lon": 9.1}]}]`)

	writeFile(t, filepath.Join(dir, "gaps.yml"), "traces:\n  - json: gaps.json\n")
	_, _, err := Load(context.Background(), filepath.Join(dir, "gaps.yml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has id 3, expected 0")

	writeFile(t, filepath.Join(dir, "mixed.yml"), "traces:\n  - gpx: north.gpx\n  - json: next.json\n")
	ds, _, err := Load(context.Background(), filepath.Join(dir, "mixed.yml"), nil)
	require.NoError(t, err)
	require.Len(t, ds.Traces(), 2)
	assert.Equal(t, "variant", ds.Traces()[1].Name)
	assert.Equal(t, 1, ds.Traces()[1].ID)
}

func TestReadImageTable_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing_lat.json": `[{"path": "a.jpg", "isok": true, "lon": 8.91}]`,
		"string_lat.json":  `[{"path": "a.jpg", "isok": true, "lat": "42.46", "lon": 8.91}]`,
		"string_isok.json": `[{"path": "a.jpg", "isok": "yes", "lat": 42.46, "lon": 8.91}]`,
	}
	for name, body := range cases {
		writeFile(t, filepath.Join(dir, name), body)
		_, err := ReadImageTable(filepath.Join(dir, name))
		assert.Error(t, err, name)
	}

	writeFile(t, filepath.Join(dir, "ok.json"), `[{"path": "a.jpg", "isok": false}, {"path": "b.jpg", "isok": true, "lat": 0, "lon": 0}]`)
	images, err := ReadImageTable(filepath.Join(dir, "ok.json"))
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.False(t, images[0].IsGeolocated)
	assert.True(t, images[1].IsGeolocated)
	assert.Equal(t, SourceTable, images[1].Source)
}
