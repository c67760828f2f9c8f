package xmp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const emptyPacket = `<?xpacket begin="` + "\ufeff" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/" x:xmptk="trailsync">
  <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
    <rdf:Description rdf:about=""/>
  </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`

// BuildSidecar returns a fresh packet holding only the GPS block.
func BuildSidecar(pos Position, ts time.Time) ([]byte, error) {
	return MergeGPS(nil, pos, ts)
}

// WriteGPS stores pos in the sidecar at path, creating it when missing. A
// sidecar that already carries GPS is left untouched and ErrGPSAlreadyPresent
// is returned unless overwrite is set.
func WriteGPS(path string, pos Position, ts time.Time, overwrite bool) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read sidecar: %w", err)
	}

	if !overwrite && len(existing) > 0 {
		values, err := scanGPS(existing)
		if err != nil {
			return err
		}
		if len(values) > 0 {
			return ErrGPSAlreadyPresent
		}
	}

	payload, err := MergeGPS(existing, pos, ts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sidecar dir: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

// MergeGPS rewrites an XMP packet with pos as its GPS block. Existing GPS
// properties are dropped wherever they appear; the new ones are written as
// attributes of the first rdf:Description. Other content is copied through.
func MergeGPS(existing []byte, pos Position, ts time.Time) ([]byte, error) {
	if len(bytes.TrimSpace(existing)) == 0 {
		existing = []byte(emptyPacket)
	}

	var (
		out      bytes.Buffer
		placed   bool
		dropping int
		// exif namespace declared on the element or an ancestor
		declared []bool
	)

	err := walk(existing, func(tok xml.Token) error {
		if dropping > 0 {
			switch tok.(type) {
			case xml.StartElement:
				dropping++
			case xml.EndElement:
				dropping--
			}
			return nil
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if isGPS(t.Name) {
				dropping = 1
				return nil
			}
			inScope := len(declared) > 0 && declared[len(declared)-1]
			attrs := t.Attr[:0]
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" && attr.Name.Local == "exif" {
					inScope = true
				}
				if !isGPS(attr.Name) {
					attrs = append(attrs, attr)
				}
			}
			t.Attr = attrs
			if !placed && isDescription(t.Name) {
				if !inScope {
					t.Attr = append(t.Attr, xml.Attr{Name: xml.Name{Space: "xmlns", Local: "exif"}, Value: exifNamespace})
					inScope = true
				}
				t.Attr = append(t.Attr, gpsAttrs(pos, ts)...)
				placed = true
			}
			declared = append(declared, inScope)
			writeStart(&out, t)
		case xml.EndElement:
			if len(declared) > 0 {
				declared = declared[:len(declared)-1]
			}
			out.WriteString("</" + qualified(t.Name) + ">")
		case xml.CharData:
			out.WriteString(textEscaper.Replace(string(t)))
		case xml.Comment:
			out.WriteString("<!--")
			out.Write(t)
			out.WriteString("-->")
		case xml.ProcInst:
			out.WriteString("<?" + t.Target)
			if len(t.Inst) > 0 {
				out.WriteString(" ")
				out.Write(t.Inst)
			}
			out.WriteString("?>")
		case xml.Directive:
			out.WriteString("<!")
			out.Write(t)
			out.WriteString(">")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !placed {
		return nil, fmt.Errorf("sidecar has no rdf:Description")
	}
	return out.Bytes(), nil
}

func gpsAttrs(pos Position, ts time.Time) []xml.Attr {
	exif := func(local, value string) xml.Attr {
		return xml.Attr{Name: xml.Name{Space: "exif", Local: local}, Value: value}
	}
	attrs := []xml.Attr{
		exif("GPSVersionID", "2.3.0.0"),
		exif("GPSLatitude", formatGPSCoordinate(pos.Coordinate.Lat, "N", "S")),
		exif("GPSLongitude", formatGPSCoordinate(pos.Coordinate.Lon, "E", "W")),
	}
	if pos.Altitude != nil {
		ref := "0"
		if *pos.Altitude < 0 {
			ref = "1"
		}
		cm := int64(math.Round(math.Abs(*pos.Altitude) * 100))
		attrs = append(attrs,
			exif("GPSAltitude", strconv.FormatInt(cm, 10)+"/100"),
			exif("GPSAltitudeRef", ref),
		)
	}
	if !ts.IsZero() {
		attrs = append(attrs, exif("GPSTimeStamp", ts.UTC().Format(time.RFC3339)))
	}
	return attrs
}

// formatGPSCoordinate renders the XMP GPSCoordinate form "DDD,MM.mmmmmmmmK".
func formatGPSCoordinate(value float64, positive, negative string) string {
	ref := positive
	if value < 0 {
		ref = negative
	}
	abs := math.Abs(value)
	deg := math.Floor(abs)
	minutes := math.Round((abs-deg)*60*1e8) / 1e8
	if minutes >= 60 {
		deg++
		minutes -= 60
	}

	m := strings.TrimRight(strconv.FormatFloat(minutes, 'f', 8, 64), "0")
	m = strings.TrimSuffix(m, ".")
	return strconv.FormatFloat(deg, 'f', 0, 64) + "," + m + ref
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;", "\n", "&#xA;", "\t", "&#x9;")
)

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func writeStart(out *bytes.Buffer, el xml.StartElement) {
	out.WriteString("<" + qualified(el.Name))
	for _, attr := range el.Attr {
		out.WriteString(" " + qualified(attr.Name) + `="` + attrEscaper.Replace(attr.Value) + `"`)
	}
	out.WriteString(">")
}
