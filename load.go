package webmap

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/webmap/basemap"
	"github.com/paulmach/webmap/theme"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	yaml "gopkg.in/yaml.v2"
)

//go:embed document.schema.json
var documentSchema string

var schema = gojsonschema.NewStringLoader(documentSchema)

// Data source types of a layer.
const (
	PortalData = "PORTAL_DATA"
	RESTData   = "REST_DATA"
	OSMData    = "OSM"
)

// Point is an x/y pair in the document projection.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Extent is the bounding box of the map.
type Extent struct {
	LeftBottom Point `json:"leftBottom" yaml:"leftBottom"`
	RightTop   Point `json:"rightTop" yaml:"rightTop"`
}

// Bound returns the extent as an orb bound.
func (e Extent) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e.LeftBottom.X, e.LeftBottom.Y},
		Max: orb.Point{e.RightTop.X, e.RightTop.Y},
	}
}

// Document is a portal map document.
type Document struct {
	Title       string              `json:"title" yaml:"title"`
	Description string              `json:"description" yaml:"description"`
	Version     string              `json:"version" yaml:"version"`
	Extent      Extent              `json:"extent" yaml:"extent"`
	Center      Point               `json:"center" yaml:"center"`
	Level       float64             `json:"level" yaml:"level"`
	Projection  string              `json:"projection" yaml:"projection"`
	BaseLayer   *basemap.Descriptor `json:"baseLayer" yaml:"baseLayer"`
	Layers      []*LayerDescriptor  `json:"layers" yaml:"layers"`
}

// DataSource is where the features of a layer come from.
type DataSource struct {
	Type     string `json:"type" yaml:"type"`
	ServerID string `json:"serverId" yaml:"serverId"`

	// URL and DataSourceName are the query service and
	// "datasource:dataset" of REST_DATA layers, URL is the
	// osm xml of OSM layers.
	URL            string `json:"url" yaml:"url"`
	DataSourceName string `json:"dataSourceName" yaml:"dataSourceName"`
}

// XYField names the coordinate columns of tabular data.
type XYField struct {
	XField string `json:"xField" yaml:"xField"`
	YField string `json:"yField" yaml:"yField"`
}

// LayerDescriptor is a single layer of the map document.
type LayerDescriptor struct {
	LayerType   string `json:"layerType" yaml:"layerType"`
	Name        string `json:"name" yaml:"name"`
	Visible     *bool  `json:"visible" yaml:"visible"`
	FeatureType string `json:"featureType" yaml:"featureType"`
	Projection  string `json:"projection" yaml:"projection"`

	DataSource *DataSource `json:"dataSource" yaml:"dataSource"`
	XYField    *XYField    `json:"xyField" yaml:"xyField"`

	Style           theme.StyleDescriptor  `json:"style" yaml:"style"`
	ThemeSetting    *theme.Setting         `json:"themeSetting" yaml:"themeSetting"`
	LabelStyle      *theme.LabelDescriptor `json:"labelStyle" yaml:"labelStyle"`
	FilterCondition string                 `json:"filterCondition" yaml:"filterCondition"`

	// Remote tile services.
	URL           string      `json:"url" yaml:"url"`
	SubLayers     string      `json:"subLayers" yaml:"subLayers"`
	EPSGCode      interface{} `json:"epsgCode" yaml:"epsgCode"`
	Layer         string      `json:"layer" yaml:"layer"`
	TileMatrixSet string      `json:"tileMatrixSet" yaml:"tileMatrixSet"`
	TileStyle     string      `json:"tileStyle" yaml:"tileStyle"`
	Format        string      `json:"format" yaml:"format"`

	DataTypes map[string]string `json:"dataTypes" yaml:"dataTypes"`
}

// IsTile returns true for layers drawn from a tile service.
func (ld *LayerDescriptor) IsTile() bool {
	switch strings.ToUpper(ld.LayerType) {
	case "TILE", basemap.WMS, basemap.WMTS:
		return true
	}

	return false
}

// tileDescriptor converts a tile layer into a base layer descriptor.
func (ld *LayerDescriptor) tileDescriptor() basemap.Descriptor {
	return basemap.Descriptor{
		LayerType:     ld.LayerType,
		Name:          ld.Name,
		Visible:       ld.Visible,
		URL:           ld.URL,
		SubLayers:     ld.SubLayers,
		EPSGCode:      ld.EPSGCode,
		Layer:         ld.Layer,
		TileMatrixSet: ld.TileMatrixSet,
		Style:         ld.TileStyle,
		Format:        ld.Format,
	}
}

// LoadDocument reads a map document file, json or yaml.
func LoadDocument(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read document")
	}

	return ParseDocument(data)
}

// ParseDocument decodes and validates a map document. Only the envelope
// is validated here, styles and theme settings are checked when the
// layer is styled.
func ParseDocument(data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	isJSON := len(data) > 0 && data[0] == '{'

	var generic interface{}
	var err error
	if isJSON {
		err = json.Unmarshal(data, &generic)
	} else {
		err = yaml.Unmarshal(data, &generic)
		generic = stringKeys(generic)
	}
	if err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal")
	}

	if err := validate(generic); err != nil {
		return nil, err
	}

	doc := &Document{}
	if isJSON {
		err = json.Unmarshal(data, doc)
	} else {
		err = yaml.Unmarshal(data, doc)
	}
	if err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal")
	}

	for i, l := range doc.Layers {
		if l == nil {
			return nil, errors.Errorf("layer %d: undefined layer", i)
		}
	}

	return doc, nil
}

func validate(doc interface{}) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.WithMessage(err, "failed to validate")
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}

	return errors.Errorf("invalid document: %s", strings.Join(msgs, "; "))
}

// stringKeys converts yaml maps into json compatible maps.
func stringKeys(v interface{}) interface{} {
	switch v := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = stringKeys(val)
		}
		return m
	case []interface{}:
		for i := range v {
			v[i] = stringKeys(v[i])
		}
		return v
	}

	return v
}
