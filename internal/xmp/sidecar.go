// Package xmp reads and writes the GPS block of XMP sidecar files.
package xmp

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nir0k/trailsync/internal/geo"
)

// ErrGPSAlreadyPresent is returned when GPS tags already exist and overwriting is disabled.
var ErrGPSAlreadyPresent = errors.New("gps already present in sidecar")

const exifNamespace = "http://ns.adobe.com/exif/1.0/"

// Position is the GPS block stored in a sidecar.
type Position struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	Altitude   *float64       `json:"altitude,omitempty"`
}

// At builds a position from a located point and its elevation in meters.
func At(l geo.Locator, elevation float64) Position {
	return Position{Coordinate: l.Coordinate(), Altitude: &elevation}
}

// SidecarPath returns the sidecar next to a photo: IMG_0001.CR3 → IMG_0001.xmp.
func SidecarPath(photoPath string) string {
	base := strings.TrimSuffix(photoPath, filepath.Ext(photoPath))
	return base + ".xmp"
}

// gpsProperties are the exif: properties owned by this package. Everything
// else in a sidecar is left alone.
var gpsProperties = map[string]bool{
	"GPSLatitude":     true,
	"GPSLatitudeRef":  true,
	"GPSLongitude":    true,
	"GPSLongitudeRef": true,
	"GPSAltitude":     true,
	"GPSAltitudeRef":  true,
	"GPSVersionID":    true,
	"GPSDateStamp":    true,
	"GPSTimeStamp":    true,
}

func isGPS(n xml.Name) bool {
	return n.Space == "exif" && gpsProperties[n.Local]
}

func isDescription(n xml.Name) bool {
	return n.Space == "rdf" && n.Local == "Description"
}

// walk feeds every raw token of an XMP packet to visit. Raw tokens keep the
// namespace prefixes as written, so exif:GPSLatitude arrives as
// Name{Space: "exif", Local: "GPSLatitude"}.
func walk(data []byte, visit func(xml.Token) error) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse sidecar: %w", err)
		}
		if err := visit(xml.CopyToken(tok)); err != nil {
			return err
		}
	}
}

// scanGPS collects the GPS properties of a packet, in attribute or element
// form. The first occurrence of a property wins.
func scanGPS(data []byte) (map[string]string, error) {
	values := make(map[string]string)
	set := func(name, value string) {
		if _, seen := values[name]; !seen {
			values[name] = strings.TrimSpace(value)
		}
	}

	var (
		current string
		text    strings.Builder
	)
	err := walk(data, func(tok xml.Token) error {
		switch t := tok.(type) {
		case xml.StartElement:
			for _, attr := range t.Attr {
				if isGPS(attr.Name) {
					set(attr.Name.Local, attr.Value)
				}
			}
			if isGPS(t.Name) {
				current = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if current != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if current != "" && isGPS(t.Name) {
				set(current, text.String())
				current = ""
			}
		}
		return nil
	})
	return values, err
}
