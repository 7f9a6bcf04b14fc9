// Package webmap loads portal map documents and binds each data layer's
// features to its thematic style.
package webmap

import (
	"math"

	"github.com/paulmach/webmap/basemap"
	"github.com/paulmach/webmap/feature"
	"github.com/paulmach/webmap/ingest"
	"github.com/paulmach/webmap/theme"
	"github.com/paulmach/webmap/util"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Status is the outcome of adding a layer.
type Status int

// Layer statuses.
const (
	// Ready layers have features and a bound style.
	Ready Status = iota

	// Empty layers were added with no features, the data was empty
	// or the filter matched nothing or failed to compile.
	Empty

	// Failed layers could not be fetched or parsed.
	Failed

	// Unstyled layers have features but their theme could not be built,
	// for example a range theme over negative values with the sqrt method.
	Unstyled
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	case Unstyled:
		return "unstyled"
	}

	return "unknown"
}

// MarshalText lets statuses encode as their names.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Layer is a processed layer of the map.
type Layer struct {
	Index      int
	Name       string
	Descriptor *LayerDescriptor

	// Tile is set for tile service layers.
	Tile *basemap.TileSource

	// Features are in the map projection with the filter applied.
	Features []*feature.Feature
	Style    *theme.Resolved

	Status Status
	Err    error
}

// Map is the map handle with every layer resolved.
type Map struct {
	ID         string
	Title      string
	Projection string
	Center     orb.Point
	Extent     orb.Bound
	Zoom       float64

	// Resolution is in map units per pixel at the zoom, Scale is
	// the matching 1/scale at DPI.
	Resolution float64
	Scale      float64

	Base   *basemap.TileSource
	Layers []*Layer
}

// DPI is the screen resolution used for map scales.
const DPI = 96

// viewScale returns the resolution and scale of a zoom level on the
// standard tile grid of the projection.
func viewScale(projection string, zoom float64) (float64, float64) {
	unit := util.Meter
	extent := 2 * math.Pi * util.EarthRadius
	if ingest.CanonicalProjection(projection) == ingest.WGS84 {
		unit = util.Degree
		extent = 360
	}

	resolution := extent / basemap.TileSize / math.Pow(2, zoom)
	scale, _ := util.ResolutionToScale(resolution, DPI, unit)
	return resolution, scale
}

// Layer returns the first layer with the name.
func (m *Map) Layer(name string) *Layer {
	for _, l := range m.Layers {
		if l.Name == name {
			return l
		}
	}

	return nil
}

// FeatureCollection returns the layer features with the resolved style
// in the "style" property. Features that resolve to no style are left out
// and an unstyled layer renders nothing. Properties are copied.
func (m *Map) FeatureCollection(l *Layer) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if l.Status == Unstyled {
		return fc
	}

	for _, f := range l.Features {
		var s *theme.Style
		if l.Style != nil {
			s = l.Style.Style(f)
			if s == nil {
				continue
			}
		}

		gf := geojson.NewFeature(f.Geometry)
		gf.ID = f.ID
		gf.Properties = f.Properties.Clone()
		if s != nil {
			gf.Properties["style"] = s
		}

		if f.Marker != nil {
			gf.Properties["marker"] = map[string]interface{}{
				"title":       f.Marker.Title,
				"description": f.Marker.Description,
				"url":         f.Marker.URL,
				"icon":        f.Marker.Icon,
			}
		}

		fc.Append(gf)
	}

	return fc
}
