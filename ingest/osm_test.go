package ingest

import (
	"testing"
)

func TestOSM(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<osm>
 <node id="1" lat="0" lon="1" version="1" visible="true">
  <tag k="amenity" v="cafe"></tag>
  <tag k="type" v="shop"></tag>
 </node>
</osm>`)

	features, err := OSM(data, "EPSG:4326")
	if err != nil {
		t.Fatalf("osm error: %v", err)
	}

	if len(features) != 1 {
		t.Fatalf("incorrect number of features: %d", len(features))
	}

	props := features[0].Properties
	if props["amenity"] != "cafe" {
		t.Errorf("tags should be attributes: %v", props)
	}

	if props["type"] != "shop" {
		t.Errorf("type tag should be kept: %v", props)
	}

	if props["osm_type"] != "node" {
		t.Errorf("incorrect osm type: %v", props)
	}

	if _, ok := props["tags"]; ok {
		t.Errorf("tags should be flattened: %v", props)
	}

	if props["lon"] != 1.0 {
		t.Errorf("should have lon: %v", props)
	}
}
