package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

type traceRow struct {
	Index  int          `json:"index_trace"`
	Name   string       `json:"name"`
	Points []TracePoint `json:"trace"`
}

type refugeRow struct {
	Index int     `json:"index_refuge"`
	Name  string  `json:"name"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// ReadTraceTable parses a JSON trace table:
// [{"index_trace":0,"name":"...","trace":[{"lat":..,"lon":..,"ele":..,"cum_distance":..}]}].
// Rows are returned ordered by index_trace.
func ReadTraceTable(path string) ([]Trace, error) {
	var rows []traceRow
	if err := readJSON(path, &rows); err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Index < rows[j].Index
	})

	traces := make([]Trace, 0, len(rows))
	for _, row := range rows {
		traces = append(traces, Trace{
			ID:     row.Index,
			Name:   strings.TrimSpace(row.Name),
			Points: row.Points,
		})
	}
	return traces, nil
}

// ReadRefugeTable parses a JSON refuge table:
// [{"index_refuge":0,"name":"...","lat":..,"lon":..}].
func ReadRefugeTable(path string) ([]WaypointRecord, error) {
	var rows []refugeRow
	if err := readJSON(path, &rows); err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Index < rows[j].Index
	})

	refuges := make([]WaypointRecord, 0, len(rows))
	for _, row := range rows {
		refuges = append(refuges, WaypointRecord{
			ID:   row.Index,
			Name: strings.TrimSpace(row.Name),
			Lat:  row.Lat,
			Lon:  row.Lon,
		})
	}
	return refuges, nil
}

// ReadImageTable parses a JSON image table:
// [{"path":"...","isok":true,"lat":..,"lon":..,...}].
// Columns other than path, isok, lat and lon are kept in Extra.
func ReadImageTable(path string) ([]ImageRecord, error) {
	var rows []map[string]any
	if err := readJSON(path, &rows); err != nil {
		return nil, err
	}

	images := make([]ImageRecord, 0, len(rows))
	for i, row := range rows {
		rec := ImageRecord{ID: i, Source: SourceTable}
		var hasLat, hasLon bool
		for key, val := range row {
			switch key {
			case "path":
				s, ok := val.(string)
				if !ok {
					return nil, fmt.Errorf("image row %d: path is not a string", i)
				}
				rec.Path = s
			case "isok":
				b, ok := val.(bool)
				if !ok && val != nil {
					return nil, fmt.Errorf("image row %d: isok is not a boolean", i)
				}
				rec.IsGeolocated = b
			case "lat":
				rec.Lat, hasLat = val.(float64)
			case "lon":
				rec.Lon, hasLon = val.(float64)
			default:
				if rec.Extra == nil {
					rec.Extra = make(map[string]any)
				}
				rec.Extra[key] = val
			}
		}
		if rec.IsGeolocated && (!hasLat || !hasLon) {
			return nil, fmt.Errorf("image row %d: isok row needs numeric lat and lon", i)
		}
		if !rec.IsGeolocated {
			rec.Lat, rec.Lon = 0, 0
			rec.Source = ""
		}
		images = append(images, rec)
	}
	return images, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
