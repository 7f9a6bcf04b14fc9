// Package feature defines the uniform feature representation shared by
// ingestion, filtering and theme resolution.
package feature

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// A Feature is a geometry in the map projection with its attributes.
// Attributes should only be changed during ingestion.
type Feature struct {
	ID         interface{}
	Geometry   orb.Geometry
	Properties geojson.Properties

	// Marker is set when the source data embedded marker metadata.
	Marker *Marker
}

// Marker is the metadata split out of marker layer features.
type Marker struct {
	Title       string
	Description string
	URL         string
	Icon        string

	// Style is the raw per feature style override, the same shape
	// as a layer style descriptor.
	Style map[string]interface{}
}

// New creates a feature with an empty attribute map.
func New(g orb.Geometry) *Feature {
	return &Feature{
		Geometry:   g,
		Properties: make(geojson.Properties),
	}
}

// FromGeoJSON copies the geojson feature. The properties map is copied
// so the source payload is never changed.
func FromGeoJSON(f *geojson.Feature) *Feature {
	props := make(geojson.Properties, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}

	return &Feature{
		ID:         f.ID,
		Geometry:   f.Geometry,
		Properties: props,
	}
}

// Value returns the attribute value for the field.
func (f *Feature) Value(field string) (interface{}, bool) {
	v, ok := f.Properties[field]
	return v, ok
}

// GeoJSON converts the feature back into a geojson feature.
// The properties map is shared.
func (f *Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry)
	gf.ID = f.ID
	gf.Properties = f.Properties
	return gf
}

// Collection builds a feature collection from the features.
func Collection(features []*Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f.GeoJSON())
	}

	return fc
}
