package xmp

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadGPS returns the GPS position stored in the sidecar at path. ok is
// false when the file does not exist or carries no usable latitude and
// longitude.
func ReadGPS(path string) (pos Position, ok bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Position{}, false, nil
	}
	if err != nil {
		return Position{}, false, fmt.Errorf("read sidecar: %w", err)
	}
	return ParseGPS(data)
}

// ParseGPS extracts the GPS block from an XMP packet. Both the attribute
// form (exif:GPSLatitude="42,27.6N") and the element form are accepted.
func ParseGPS(data []byte) (Position, bool, error) {
	values, err := scanGPS(data)
	if err != nil {
		return Position{}, false, err
	}

	latRaw, lonRaw := values["GPSLatitude"], values["GPSLongitude"]
	if latRaw == "" || lonRaw == "" {
		return Position{}, false, nil
	}
	lat, err := parseGPSCoordinate(latRaw)
	if err != nil {
		return Position{}, false, fmt.Errorf("latitude: %w", err)
	}
	lon, err := parseGPSCoordinate(lonRaw)
	if err != nil {
		return Position{}, false, fmt.Errorf("longitude: %w", err)
	}

	pos := Position{}
	pos.Coordinate.Lat = lat
	pos.Coordinate.Lon = lon
	if raw := values["GPSAltitude"]; raw != "" {
		alt, err := parseRational(raw)
		if err != nil {
			return Position{}, false, fmt.Errorf("altitude: %w", err)
		}
		if values["GPSAltitudeRef"] == "1" {
			alt = -alt
		}
		pos.Altitude = &alt
	}
	return pos, true, nil
}

// parseGPSCoordinate reads "DDD,MM.mmmK" or "DDD,MM,SSK" where K is one of
// N, S, E or W. A plain signed decimal is accepted too.
func parseGPSCoordinate(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty coordinate")
	}

	sign := 1.0
	switch ref := strings.ToUpper(raw[len(raw)-1:]); ref {
	case "S", "W":
		sign = -1
		raw = raw[:len(raw)-1]
	case "N", "E":
		raw = raw[:len(raw)-1]
	}

	parts := strings.Split(raw, ",")
	if len(parts) < 2 || len(parts) > 3 {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return sign * v, nil
		}
		return 0, fmt.Errorf("invalid coordinate %q", raw)
	}

	var total float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid coordinate component %q", p)
		}
		switch i {
		case 0:
			total += v
		case 1:
			total += v / 60
		case 2:
			total += v / 3600
		}
	}
	return sign * total, nil
}

func parseRational(raw string) (float64, error) {
	if num, den, found := strings.Cut(raw, "/"); found {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, fmt.Errorf("zero denominator in %q", raw)
		}
		return n / d, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}
