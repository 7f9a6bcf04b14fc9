package ingest

import (
	"encoding/json"

	"github.com/paulmach/webmap/feature"
	"github.com/paulmach/webmap/util"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// Attribute keys holding embedded marker metadata. They are removed
// from the attributes and moved to feature.Marker.
const (
	FeatureInfoKey = "featureInfo"
	UseStyleKey    = "useStyle"
)

// GeoJSON converts a FeatureCollection, a single Feature or a bare
// geometry into features in the target projection.
func GeoJSON(data []byte, from, to string) ([]*feature.Feature, error) {
	fc, err := unmarshalGeoJSON(data)
	if err != nil {
		return nil, err
	}

	return FromCollection(fc, from, to)
}

// FromCollection converts already decoded geojson features.
// Features without a geometry are dropped.
func FromCollection(fc *geojson.FeatureCollection, from, to string) ([]*feature.Feature, error) {
	if fc == nil {
		return nil, nil
	}

	result := make([]*feature.Feature, 0, len(fc.Features))
	for _, gf := range fc.Features {
		if gf == nil || gf.Geometry == nil {
			continue
		}

		f, err := fromGeoJSONFeature(gf, from, to)
		if err != nil {
			return nil, err
		}

		result = append(result, f)
	}

	return result, nil
}

func fromGeoJSONFeature(gf *geojson.Feature, from, to string) (*feature.Feature, error) {
	f := feature.FromGeoJSON(gf)

	g, err := Reproject(gf.Geometry, from, to)
	if err != nil {
		return nil, err
	}
	f.Geometry = g

	if p, ok := gf.Geometry.(orb.Point); ok {
		addLonLat(f, p, from)
	}

	splitMarker(f)
	return f, nil
}

// addLonLat sets the WGS84 position of a point. Existing lon/lat
// attributes are kept.
func addLonLat(f *feature.Feature, p orb.Point, from string) {
	g, err := Reproject(p, from, WGS84)
	if err != nil {
		return
	}

	ll := g.(orb.Point)
	if _, ok := f.Properties["lon"]; !ok {
		f.Properties["lon"] = ll.Lon()
	}

	if _, ok := f.Properties["lat"]; !ok {
		f.Properties["lat"] = ll.Lat()
	}
}

func splitMarker(f *feature.Feature) {
	info, hasInfo := f.Properties[FeatureInfoKey].(map[string]interface{})
	style, hasStyle := f.Properties[UseStyleKey].(map[string]interface{})
	if !hasInfo && !hasStyle {
		return
	}

	delete(f.Properties, FeatureInfoKey)
	delete(f.Properties, UseStyleKey)

	m := &feature.Marker{Style: style}
	if hasInfo {
		m.Title = firstString(info, "title", "dataViz_title")
		m.Description = firstString(info, "description", "dataViz_description")
		m.URL = firstString(info, "url", "dataViz_url")
		m.Icon = firstString(info, "icon", "imgUrl", "dataViz_imgUrl")
	}

	if m.Icon == "" && hasStyle {
		m.Icon = firstString(style, "src", "url")
	}

	f.Marker = m
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := util.FieldString(m[k]); s != "" {
			return s
		}
	}

	return ""
}

func unmarshalGeoJSON(data []byte) (*geojson.FeatureCollection, error) {
	peek := struct {
		Type string `json:"type"`
	}{}
	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, errors.Wrap(err, "geojson")
	}

	switch peek.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		return fc, errors.Wrap(err, "geojson")
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, errors.Wrap(err, "geojson")
		}

		fc := geojson.NewFeatureCollection()
		return fc.Append(f), nil
	case "":
		return nil, errors.New("geojson: missing type")
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, errors.Wrap(err, "geojson")
		}

		fc := geojson.NewFeatureCollection()
		return fc.Append(geojson.NewFeature(g.Geometry())), nil
	}
}
