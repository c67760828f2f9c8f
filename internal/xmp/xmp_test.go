package xmp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nir0k/trailsync/internal/geo"
)

func TestBuildSidecar_RoundTrip(t *testing.T) {
	alt := 1540.5
	pos := Position{Coordinate: geo.Coordinate{Lat: 42.123456, Lon: -8.654321}, Altitude: &alt}
	data, err := BuildSidecar(pos, time.Date(2023, 7, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, string(data), `xmlns:exif="http://ns.adobe.com/exif/1.0/"`)

	got, ok, err := ParseGPS(data)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 42.123456, got.Coordinate.Lat, 1e-9)
	assert.InDelta(t, -8.654321, got.Coordinate.Lon, 1e-9)
	require.NotNil(t, got.Altitude)
	assert.InDelta(t, 1540.5, *got.Altitude, 1e-9)
}

func TestParseGPS_ElementForm(t *testing.T) {
	data := []byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/">
  <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
    <rdf:Description rdf:about="" xmlns:exif="http://ns.adobe.com/exif/1.0/">
      <exif:GPSLatitude>41,30,36S</exif:GPSLatitude>
      <exif:GPSLongitude>9,15.5E</exif:GPSLongitude>
      <exif:GPSAltitude>1200/10</exif:GPSAltitude>
      <exif:GPSAltitudeRef>1</exif:GPSAltitudeRef>
    </rdf:Description>
  </rdf:RDF>
</x:xmpmeta>`)

	got, ok, err := ParseGPS(data)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, -41.51, got.Coordinate.Lat, 1e-9)
	assert.InDelta(t, 9.258333333, got.Coordinate.Lon, 1e-6)
	require.NotNil(t, got.Altitude)
	assert.InDelta(t, -120, *got.Altitude, 1e-9)
}

func TestParseGPS_NoGPS(t *testing.T) {
	data := []byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"><rdf:Description rdf:about=""/></rdf:RDF></x:xmpmeta>`)
	_, ok, err := ParseGPS(data)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadGPS_MissingFile(t *testing.T) {
	_, ok, err := ReadGPS(filepath.Join(t.TempDir(), "IMG_0001.xmp"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteGPS(t *testing.T) {
	dir := t.TempDir()
	sidecar := SidecarPath(filepath.Join(dir, "IMG_0001.CR3"))
	assert.Equal(t, filepath.Join(dir, "IMG_0001.xmp"), sidecar)

	ts := time.Date(2023, 7, 1, 8, 0, 0, 0, time.UTC)
	first := Position{Coordinate: geo.Coordinate{Lat: 42.4, Lon: 8.9}}
	require.NoError(t, WriteGPS(sidecar, first, ts, false))

	err := WriteGPS(sidecar, Position{Coordinate: geo.Coordinate{Lat: 1, Lon: 1}}, ts, false)
	assert.ErrorIs(t, err, ErrGPSAlreadyPresent)

	second := Position{Coordinate: geo.Coordinate{Lat: 42.5, Lon: 8.95}}
	require.NoError(t, WriteGPS(sidecar, second, ts, true))

	got, ok, err := ReadGPS(sidecar)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 42.5, got.Coordinate.Lat, 1e-9)
	assert.InDelta(t, 8.95, got.Coordinate.Lon, 1e-9)
	assert.Nil(t, got.Altitude)
}

func TestWriteGPS_PreservesOtherTags(t *testing.T) {
	dir := t.TempDir()
	sidecar := filepath.Join(dir, "IMG_0002.xmp")
	existing := `<?xpacket begin=" " id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
  <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
    <rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/" xmp:Rating="4">
      <dc:subject xmlns:dc="http://purl.org/dc/elements/1.1/"><rdf:Bag><rdf:li>refuge &amp; col</rdf:li></rdf:Bag></dc:subject>
    </rdf:Description>
  </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`
	require.NoError(t, os.WriteFile(sidecar, []byte(existing), 0o644))

	require.NoError(t, WriteGPS(sidecar, Position{Coordinate: geo.Coordinate{Lat: 42.3, Lon: 9.1}}, time.Now(), false))

	data, err := os.ReadFile(sidecar)
	require.NoError(t, err)
	assert.Contains(t, string(data), `xmp:Rating="4"`)
	assert.Contains(t, string(data), `<rdf:li>refuge &amp; col</rdf:li>`)
	assert.Contains(t, string(data), `<?xpacket end="w"?>`)

	got, ok, err := ParseGPS(data)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 42.3, got.Coordinate.Lat, 1e-9)
}

func TestMergeGPS_ReplacesElementForm(t *testing.T) {
	existing := []byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/">
  <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:exif="http://ns.adobe.com/exif/1.0/">
    <rdf:Description rdf:about="">
      <exif:GPSLatitude>10,0N</exif:GPSLatitude>
      <exif:GPSLongitude>20,0E</exif:GPSLongitude>
      <exif:ExposureTime>1/250</exif:ExposureTime>
    </rdf:Description>
  </rdf:RDF>
</x:xmpmeta>`)
	alt := -12.0

	data, err := MergeGPS(existing, Position{Coordinate: geo.Coordinate{Lat: -33.25, Lon: 151.5}, Altitude: &alt}, time.Time{})
	require.NoError(t, err)

	out := string(data)
	assert.NotContains(t, out, "<exif:GPSLatitude>")
	assert.Contains(t, out, "<exif:ExposureTime>1/250</exif:ExposureTime>")
	assert.Equal(t, 1, strings.Count(out, "xmlns:exif="))
	assert.Contains(t, out, `exif:GPSLatitude="33,15S"`)
	assert.Contains(t, out, `exif:GPSLongitude="151,30E"`)
	assert.Contains(t, out, `exif:GPSAltitudeRef="1"`)
	assert.NotContains(t, out, "GPSTimeStamp")

	got, ok, err := ParseGPS(data)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, -33.25, got.Coordinate.Lat, 1e-9)
	assert.InDelta(t, 151.5, got.Coordinate.Lon, 1e-9)
	require.NotNil(t, got.Altitude)
	assert.InDelta(t, -12, *got.Altitude, 1e-9)
}

func TestMergeGPS_NoDescription(t *testing.T) {
	_, err := MergeGPS([]byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/"></x:xmpmeta>`), Position{}, time.Time{})
	assert.Error(t, err)
}

type point struct{ lat, lon float64 }

func (p point) Coordinate() geo.Coordinate { return geo.Coordinate{Lat: p.lat, Lon: p.lon} }

func TestAt(t *testing.T) {
	pos := At(point{lat: 42.46, lon: 8.91}, 1500)
	assert.Equal(t, geo.Coordinate{Lat: 42.46, Lon: 8.91}, pos.Coordinate)
	require.NotNil(t, pos.Altitude)
	assert.Equal(t, 1500.0, *pos.Altitude)
}

func TestFormatGPSCoordinate(t *testing.T) {
	assert.Equal(t, "42,30N", formatGPSCoordinate(42.5, "N", "S"))
	assert.Equal(t, "8,15.6W", formatGPSCoordinate(-8.26, "E", "W"))
	assert.Equal(t, "1,0N", formatGPSCoordinate(0.99999999999, "N", "S"))
}

func TestParseGPSCoordinate(t *testing.T) {
	cases := map[string]float64{
		"42,30N":   42.5,
		"42,30.0S": -42.5,
		"8,15,36E": 8.26,
		"8,15,36W": -8.26,
		"12.75":    12.75,
		"-3.5":     -3.5,
	}
	for in, want := range cases {
		got, err := parseGPSCoordinate(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}

	_, err := parseGPSCoordinate("north")
	assert.Error(t, err)
}
