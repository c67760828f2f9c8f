package geo

// UngeolocatedDistance is the distance assigned to records without coordinates.
// It exceeds any squared-degree distance between two valid coordinates.
const UngeolocatedDistance = 1e6

// Candidate is a search target that may lack coordinates.
type Candidate interface {
	Locator
	Geolocated() bool
}

// NearestIndex returns the index of the point closest to query under
// PlanarDistance. Ties resolve to the lowest index. It returns -1 when
// points is empty.
func NearestIndex[P Locator](query Coordinate, points []P) int {
	best := -1
	bestDist := 0.0
	for i, p := range points {
		d := PlanarDistance(query, p.Coordinate())
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// NearestCandidateIndex is NearestIndex with UngeolocatedDistance substituted
// for candidates that are not geolocated, so they win only when no candidate
// has coordinates.
func NearestCandidateIndex[C Candidate](query Coordinate, candidates []C) int {
	best := -1
	bestDist := 0.0
	for i, c := range candidates {
		d := float64(UngeolocatedDistance)
		if c.Geolocated() {
			d = PlanarDistance(query, c.Coordinate())
		}
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
