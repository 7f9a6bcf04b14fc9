package ingest

import (
	"encoding/xml"

	"github.com/paulmach/webmap/feature"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmgeojson"
	"github.com/pkg/errors"
)

// OSM converts OSM XML into features in the target projection.
// Tags become attributes, the element type and id are kept as
// osm_type and osm_id.
func OSM(data []byte, to string) ([]*feature.Feature, error) {
	o := &osm.OSM{}
	if err := xml.Unmarshal(data, o); err != nil {
		return nil, errors.Wrap(err, "osm")
	}

	return FromOSM(o, to)
}

// FromOSM converts already decoded OSM data.
func FromOSM(o *osm.OSM, to string) ([]*feature.Feature, error) {
	fc, err := osmgeojson.Convert(o,
		osmgeojson.NoMeta(true),
		osmgeojson.NoRelationMembership(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "osm")
	}

	for _, f := range fc.Features {
		if t, ok := f.Properties["type"]; ok {
			f.Properties["osm_type"] = t
			delete(f.Properties, "type")
		}

		if id, ok := f.Properties["id"]; ok {
			f.Properties["osm_id"] = id
			delete(f.Properties, "id")
		}

		if tags, ok := f.Properties["tags"].(map[string]string); ok {
			for k, v := range tags {
				f.Properties[k] = v
			}
		}
		delete(f.Properties, "tags")
	}

	return FromCollection(fc, WGS84, to)
}
