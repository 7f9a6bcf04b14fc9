package ingest

import (
	"math"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestTabular(t *testing.T) {
	table := Table{
		Rows: [][]interface{}{
			{"1.5", "2.5", "A"},
			{"200", "100", "B"},
		},
		ColTitles: []string{"lon", "lat", "name"},
	}

	features, err := Tabular(table, TabularOptions{
		XField: "lon",
		YField: "lat",
		From:   "EPSG:3857",
		To:     "EPSG:3857",
	})
	if err != nil {
		t.Fatalf("tabular error: %v", err)
	}

	if len(features) != 2 {
		t.Fatalf("incorrect number of features: %d", len(features))
	}

	expected := []struct {
		point orb.Point
		props geojson.Properties
	}{
		{
			point: orb.Point{1.5, 2.5},
			props: geojson.Properties{"lon": "1.5", "lat": "2.5", "name": "A"},
		},
		{
			point: orb.Point{200, 100},
			props: geojson.Properties{"lon": "200", "lat": "100", "name": "B"},
		},
	}

	for i, e := range expected {
		if !features[i].Geometry.(orb.Point).Equal(e.point) {
			t.Errorf("incorrect geometry: %v != %v", features[i].Geometry, e.point)
		}

		if !reflect.DeepEqual(features[i].Properties, e.props) {
			t.Errorf("incorrect properties: %v != %v", features[i].Properties, e.props)
		}
	}
}

func TestTabular_DropRows(t *testing.T) {
	table := Table{
		Rows: [][]interface{}{
			{"1", "2"},
			{"", "2"},
			{"1", " "},
			{"abc", "2"},
			{"1"},
			{3.0, 4.0},
		},
		ColTitles: []string{" x ", "y\t"},
	}

	features, err := Tabular(table, TabularOptions{XField: "x", YField: "y"})
	if err != nil {
		t.Fatalf("tabular error: %v", err)
	}

	if len(features) != 2 {
		t.Fatalf("incorrect number of features: %d", len(features))
	}

	if v := features[1].Properties["x"]; v != 3.0 {
		t.Errorf("titles should be trimmed: %v", features[1].Properties)
	}

	if table.ColTitles[0] != " x " {
		t.Errorf("should not modify input titles: %q", table.ColTitles[0])
	}
}

func TestTabular_Reproject(t *testing.T) {
	table := Table{
		Rows:      [][]interface{}{{"1", "0"}},
		ColTitles: []string{"x", "y"},
	}

	features, err := Tabular(table, TabularOptions{
		XField: "x",
		YField: "y",
		From:   "EPSG:4326",
		To:     "EPSG:3857",
	})
	if err != nil {
		t.Fatalf("tabular error: %v", err)
	}

	p := features[0].Geometry.(orb.Point)
	if math.Abs(p[0]-111319.49) > 0.01 || math.Abs(p[1]) > 1e-6 {
		t.Errorf("incorrect projected point: %v", p)
	}
}

func TestTabular_MissingField(t *testing.T) {
	table := Table{ColTitles: []string{"x", "y"}}

	_, err := Tabular(table, TabularOptions{XField: "lon", YField: "y"})
	if err == nil {
		t.Errorf("should error for missing x field")
	}

	_, err = Tabular(table, TabularOptions{XField: "x", YField: "lat"})
	if err == nil {
		t.Errorf("should error for missing y field")
	}
}

func TestCSV(t *testing.T) {
	text := "\ufeffname, x ,y\n\"A, B\",1,2\n\nC,3,4,extra\n"

	table, err := CSV(text, CSVOptions{})
	if err != nil {
		t.Fatalf("csv error: %v", err)
	}

	if !reflect.DeepEqual(table.ColTitles, []string{"name", "x", "y"}) {
		t.Errorf("incorrect titles: %q", table.ColTitles)
	}

	expected := [][]interface{}{
		{"A, B", "1", "2"},
		{"C", "3", "4", "extra"},
	}
	if !reflect.DeepEqual(table.Rows, expected) {
		t.Errorf("incorrect rows: %v", table.Rows)
	}

	features, err := Tabular(table, TabularOptions{XField: "x", YField: "y"})
	if err != nil {
		t.Fatalf("tabular error: %v", err)
	}

	if len(features) != 2 {
		t.Errorf("incorrect number of features: %d", len(features))
	}
}

func TestCSV_NoTitles(t *testing.T) {
	table, err := CSV("1;2\n3;4\n", CSVOptions{Comma: ';', NoTitles: true})
	if err != nil {
		t.Fatalf("csv error: %v", err)
	}

	if !reflect.DeepEqual(table.ColTitles, []string{"field1", "field2"}) {
		t.Errorf("incorrect titles: %q", table.ColTitles)
	}

	if len(table.Rows) != 2 {
		t.Errorf("incorrect number of rows: %d", len(table.Rows))
	}
}
