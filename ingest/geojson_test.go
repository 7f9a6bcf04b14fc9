package ingest

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestGeoJSON(t *testing.T) {
	data := []byte(`{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "id": 1,
      "geometry": {"type": "Point", "coordinates": [1, 0]},
      "properties": {
        "name": "a",
        "featureInfo": {"title": "Title", "description": "Desc", "url": "http://example.com"},
        "useStyle": {"src": "icon.png", "scale": 1}
      }
    },
    {
      "type": "Feature",
      "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 0]]},
      "properties": {"name": "b"}
    },
    {
      "type": "Feature",
      "geometry": null,
      "properties": {"name": "c"}
    }
  ]
}`)

	features, err := GeoJSON(data, "EPSG:4326", "EPSG:900913")
	if err != nil {
		t.Fatalf("geojson error: %v", err)
	}

	if len(features) != 2 {
		t.Fatalf("incorrect number of features: %d", len(features))
	}

	point := features[0]
	p := point.Geometry.(orb.Point)
	if math.Abs(p[0]-111319.49) > 0.01 {
		t.Errorf("point not projected: %v", p)
	}

	if v := point.Properties["lon"]; v != 1.0 {
		t.Errorf("incorrect lon: %v", v)
	}

	if v := point.Properties["lat"]; v != 0.0 {
		t.Errorf("incorrect lat: %v", v)
	}

	if _, ok := point.Properties[FeatureInfoKey]; ok {
		t.Errorf("feature info should be removed")
	}

	if _, ok := point.Properties[UseStyleKey]; ok {
		t.Errorf("use style should be removed")
	}

	m := point.Marker
	if m == nil {
		t.Fatalf("should have marker")
	}

	if m.Title != "Title" || m.Description != "Desc" || m.URL != "http://example.com" {
		t.Errorf("incorrect marker info: %+v", m)
	}

	if m.Icon != "icon.png" {
		t.Errorf("icon should come from style: %v", m.Icon)
	}

	if m.Style["scale"] != 1.0 {
		t.Errorf("incorrect marker style: %v", m.Style)
	}

	line := features[1]
	if _, ok := line.Properties["lon"]; ok {
		t.Errorf("lines should not get lon/lat")
	}

	if line.Marker != nil {
		t.Errorf("line should not have a marker")
	}
}

func TestGeoJSON_Single(t *testing.T) {
	features, err := GeoJSON([]byte(`{"type":"Feature","geometry":{"type":"Point","coordinates":[5,6]},"properties":{"lon":"x"}}`), "", "")
	if err != nil {
		t.Fatalf("geojson error: %v", err)
	}

	if len(features) != 1 {
		t.Fatalf("incorrect number of features: %d", len(features))
	}

	if v := features[0].Properties["lon"]; v != "x" {
		t.Errorf("should not replace existing lon/lat: %v", v)
	}

	features, err = GeoJSON([]byte(`{"type":"Point","coordinates":[5,6]}`), "", "")
	if err != nil {
		t.Fatalf("geojson error: %v", err)
	}

	if v := features[0].Properties["lat"]; v != 6.0 {
		t.Errorf("incorrect lat: %v", v)
	}
}

func TestGeoJSON_Errors(t *testing.T) {
	cases := []struct {
		name string
		data string
		from string
		to   string
	}{
		{
			name: "invalid json",
			data: `{`,
		},
		{
			name: "missing type",
			data: `{}`,
		},
		{
			name: "unsupported projection",
			data: `{"type":"Point","coordinates":[5,6]}`,
			from: "EPSG:4326",
			to:   "EPSG:2263",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GeoJSON([]byte(tc.data), tc.from, tc.to)
			if err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestReproject(t *testing.T) {
	ls := orb.LineString{{1, 1}, {2, 2}}

	g, err := Reproject(ls, "EPSG:4326", "EPSG:102100")
	if err != nil {
		t.Fatalf("reproject error: %v", err)
	}

	if ls[0][0] != 1 {
		t.Errorf("input geometry should not be modified: %v", ls)
	}

	back, err := Reproject(g, "EPSG:3857", "epsg:4326")
	if err != nil {
		t.Fatalf("reproject error: %v", err)
	}

	for i, p := range back.(orb.LineString) {
		if math.Abs(p[0]-ls[i][0]) > 1e-9 || math.Abs(p[1]-ls[i][1]) > 1e-9 {
			t.Errorf("round trip mismatch: %v != %v", p, ls[i])
		}
	}
}

func TestSameProjection(t *testing.T) {
	cases := []struct {
		from, to string
		result   bool
	}{
		{"EPSG:3857", "EPSG:900913", true},
		{"EPSG:4326", "EPSG:3857", false},
		{"", "EPSG:3857", true},
		{"EPSG:2263", "epsg:2263", true},
	}

	for _, tc := range cases {
		if v := SameProjection(tc.from, tc.to); v != tc.result {
			t.Errorf("%s -> %s: %v != %v", tc.from, tc.to, v, tc.result)
		}
	}
}
