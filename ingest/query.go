package ingest

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/paulmach/webmap/feature"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// QueryResult converts the response of a SQL feature query,
// shaped {result: {features: {features: [...]}}}. Each feature may be
// geojson or the server's native fieldNames/fieldValues form.
func QueryResult(data []byte, from, to string) ([]*feature.Feature, error) {
	raw := struct {
		Result struct {
			Features json.RawMessage `json:"features"`
		} `json:"result"`
	}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "query result")
	}

	items, err := queryFeatures(raw.Result.Features)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for i, item := range items {
		var gf *geojson.Feature
		if isNative(item) {
			gf, err = nativeFeature(item)
		} else {
			gf, err = geojson.UnmarshalFeature(item)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "query result: feature %d", i)
		}

		if gf != nil {
			fc.Append(gf)
		}
	}

	return FromCollection(fc, from, to)
}

// queryFeatures accepts either a feature collection object or a bare array.
func queryFeatures(data json.RawMessage) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var items []json.RawMessage
	if data[0] == '[' {
		err := json.Unmarshal(data, &items)
		return items, errors.Wrap(err, "query result")
	}

	coll := struct {
		Features []json.RawMessage `json:"features"`
	}{}
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, errors.Wrap(err, "query result")
	}

	return coll.Features, nil
}

type nativePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type nativeGeometry struct {
	Type     string        `json:"type"`
	Points   []nativePoint `json:"points"`
	Parts    []int         `json:"parts"`
	PartTopo []int         `json:"partTopo"`
}

type nativeFeatureJSON struct {
	ID          interface{}     `json:"ID"`
	FieldNames  []string        `json:"fieldNames"`
	FieldValues []interface{}   `json:"fieldValues"`
	Geometry    *nativeGeometry `json:"geometry"`
}

func isNative(data json.RawMessage) bool {
	probe := struct {
		FieldNames []string `json:"fieldNames"`
	}{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}

	return probe.FieldNames != nil
}

// nativeFeature returns nil for features with an unsupported geometry.
func nativeFeature(data json.RawMessage) (*geojson.Feature, error) {
	nf := nativeFeatureJSON{}
	if err := json.Unmarshal(data, &nf); err != nil {
		return nil, errors.WithStack(err)
	}

	if nf.Geometry == nil {
		return nil, nil
	}

	g := nf.Geometry.geometry()
	if g == nil {
		return nil, nil
	}

	gf := geojson.NewFeature(g)
	gf.ID = nf.ID
	for i, name := range nf.FieldNames {
		if i < len(nf.FieldValues) {
			gf.Properties[name] = nf.FieldValues[i]
		}
	}

	return gf, nil
}

func (ng *nativeGeometry) geometry() orb.Geometry {
	parts := ng.split()
	if len(parts) == 0 {
		return nil
	}

	switch strings.ToUpper(ng.Type) {
	case "POINT":
		if len(ng.Points) == 1 {
			return toPoint(ng.Points[0])
		}

		mp := make(orb.MultiPoint, len(ng.Points))
		for i, p := range ng.Points {
			mp[i] = toPoint(p)
		}
		return mp
	case "LINE":
		if len(parts) == 1 {
			return toLineString(parts[0])
		}

		mls := make(orb.MultiLineString, len(parts))
		for i, p := range parts {
			mls[i] = toLineString(p)
		}
		return mls
	case "REGION":
		return ng.region(parts)
	}

	return nil
}

// split divides the points into their parts. No parts means one part.
func (ng *nativeGeometry) split() [][]nativePoint {
	if len(ng.Points) == 0 {
		return nil
	}

	if len(ng.Parts) == 0 {
		return [][]nativePoint{ng.Points}
	}

	result := make([][]nativePoint, 0, len(ng.Parts))
	start := 0
	for _, n := range ng.Parts {
		end := start + n
		if n <= 0 || end > len(ng.Points) {
			break
		}

		result = append(result, ng.Points[start:end])
		start = end
	}

	return result
}

// region builds polygons from the parts. With part topology a value of -1
// marks a hole in the previous outer ring, without it every part is
// its own polygon.
func (ng *nativeGeometry) region(parts [][]nativePoint) orb.Geometry {
	var mp orb.MultiPolygon
	for i, p := range parts {
		ring := toRing(p)
		if i < len(ng.PartTopo) && ng.PartTopo[i] == -1 && len(mp) > 0 {
			mp[len(mp)-1] = append(mp[len(mp)-1], ring)
			continue
		}

		mp = append(mp, orb.Polygon{ring})
	}

	if len(mp) == 1 {
		return mp[0]
	}

	return mp
}

func toPoint(p nativePoint) orb.Point {
	return orb.Point{p.X, p.Y}
}

func toLineString(points []nativePoint) orb.LineString {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = toPoint(p)
	}

	return ls
}

func toRing(points []nativePoint) orb.Ring {
	r := orb.Ring(toLineString(points))
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}

	return r
}
