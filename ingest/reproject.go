package ingest

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/pkg/errors"
)

// Projection codes understood by Reproject.
const (
	WGS84    = "EPSG:4326"
	Mercator = "EPSG:3857"
)

var projectionAliases = map[string]string{
	"EPSG:4326":   WGS84,
	"CRS:84":      WGS84,
	"WGS84":       WGS84,
	"EPSG:3857":   Mercator,
	"EPSG:900913": Mercator,
	"EPSG:102100": Mercator,
	"EPSG:102113": Mercator,
}

// CanonicalProjection maps the known aliases to EPSG:4326 or EPSG:3857.
// Unknown codes are returned upper cased.
func CanonicalProjection(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if c, ok := projectionAliases[code]; ok {
		return c
	}

	return code
}

// SameProjection returns true if no reprojection is needed between the codes.
// An empty code is taken to be the same as the other.
func SameProjection(from, to string) bool {
	if from == "" || to == "" {
		return true
	}

	return CanonicalProjection(from) == CanonicalProjection(to)
}

// Reproject returns a copy of the geometry in the target projection.
// The input geometry is never modified.
func Reproject(g orb.Geometry, from, to string) (orb.Geometry, error) {
	if g == nil || SameProjection(from, to) {
		return g, nil
	}

	proj, err := projection(from, to)
	if err != nil {
		return nil, err
	}

	return project.Geometry(orb.Clone(g), proj), nil
}

func projection(from, to string) (orb.Projection, error) {
	from, to = CanonicalProjection(from), CanonicalProjection(to)
	switch {
	case from == WGS84 && to == Mercator:
		return project.WGS84.ToMercator, nil
	case from == Mercator && to == WGS84:
		return project.Mercator.ToWGS84, nil
	}

	return nil, errors.Errorf("reproject: unsupported projection pair: %s -> %s", from, to)
}
