package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/evanoberholster/imagemeta/exif2"

	"github.com/nir0k/trailsync/internal/geo"
)

// Location is a GPS position embedded in a photo.
type Location struct {
	Coordinate geo.Coordinate
	Altitude   *float64
}

// Metadata represents the subset of photo metadata used by the carousel.
type Metadata struct {
	CaptureTime time.Time
	CameraMake  string
	CameraModel string
	Width       uint32
	Height      uint32
	Location    *Location
}

// SupportedRaw reports whether the provided path has a supported RAW extension.
func SupportedRaw(path string) bool {
	return rawExt[strings.ToLower(filepath.Ext(path))]
}

// SupportedPhoto reports whether the provided path likely contains EXIF data.
func SupportedPhoto(path string) bool {
	return photoExt[strings.ToLower(filepath.Ext(path))]
}

// ReadMetadata extracts capture time, camera details and GPS from a photo.
// A photo without capture time or GPS is not an error.
func ReadMetadata(path string) (Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	exif, err := decodeExifSafe(file, path)
	if err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}

	ts := exif.DateTimeOriginal()
	if ts.IsZero() {
		ts = exif.CreateDate()
	}
	if ts.IsZero() {
		ts = exif.ModifyDate()
	}

	meta := Metadata{
		CaptureTime: ts,
		CameraMake:  strings.TrimSpace(exif.Make),
		CameraModel: strings.TrimSpace(exif.Model),
		Width:       uint32(exif.ImageWidth),
		Height:      uint32(exif.ImageHeight),
	}

	lat := float64(exif.GPS.Latitude())
	lon := float64(exif.GPS.Longitude())
	if lat != 0 || lon != 0 {
		loc := &Location{Coordinate: geo.Coordinate{Lat: lat, Lon: lon}}
		if alt := float64(exif.GPS.Altitude()); alt != 0 {
			loc.Altitude = &alt
		}
		meta.Location = loc
	}
	return meta, nil
}

// decodeExifSafe protects against panics from the decoder on malformed files.
func decodeExifSafe(r io.ReadSeeker, path string) (ex exif2.Exif, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while decoding %s: %v", path, rec)
		}
	}()

	ex, err = imagemeta.Decode(r)
	return ex, err
}

var rawExt = map[string]bool{
	".3fr": true, // Hasselblad
	".arw": true, // Sony
	".cr2": true, // Canon
	".cr3": true, // Canon
	".dng": true, // Adobe DNG
	".erf": true, // Epson
	".kdc": true, // Kodak
	".mrw": true, // Minolta
	".nef": true, // Nikon
	".nrw": true, // Nikon
	".orf": true, // Olympus
	".pef": true, // Pentax
	".raf": true, // Fujifilm
	".raw": true, // Panasonic/Leica generic
	".rw2": true, // Panasonic
	".rwl": true, // Leica
	".sr2": true, // Sony
	".srf": true, // Sony
	".srw": true, // Samsung
	".x3f": true, // Sigma
}

var photoExt = func() map[string]bool {
	exts := make(map[string]bool, len(rawExt)+9)
	for ext := range rawExt {
		exts[ext] = true
	}
	for _, ext := range []string{
		".jpg", ".jpeg", ".jpe",
		".tif", ".tiff",
		".heic", ".heif", ".hif",
		".avif",
	} {
		exts[ext] = true
	}
	return exts
}()
