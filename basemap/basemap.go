// Package basemap resolves base layer and tile layer descriptors
// into tile source parameters for the renderer.
package basemap

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
	"github.com/pkg/errors"
)

// Kinds of tile sources.
const (
	XYZ      = "XYZ"
	Bing     = "BING"
	Tianditu = "TIANDITU"
	WMS      = "WMS"
	WMTS     = "WMTS"
)

// TileSize is the pixel size of the requested tiles.
const TileSize = 256

// Descriptor is a base layer or tile layer in the map document.
type Descriptor struct {
	LayerType string `json:"layerType" yaml:"layerType"`
	Name      string `json:"name" yaml:"name"`
	Visible   *bool  `json:"visible" yaml:"visible"`
	ZIndex    int    `json:"zIndex" yaml:"zIndex"`

	URL       string      `json:"url" yaml:"url"`
	SubLayers string      `json:"subLayers" yaml:"subLayers"`
	EPSGCode  interface{} `json:"epsgCode" yaml:"epsgCode"`

	// WMTS only.
	Layer         string `json:"layer" yaml:"layer"`
	TileMatrixSet string `json:"tileMatrixSet" yaml:"tileMatrixSet"`
	Style         string `json:"style" yaml:"style"`
	Format        string `json:"format" yaml:"format"`
}

// TileSource is everything the renderer needs to request tiles.
type TileSource struct {
	Kind       string `json:"kind"`
	Name       string `json:"name,omitempty"`
	Projection string `json:"projection"`
	Visible    bool   `json:"visible"`
	ZIndex     int    `json:"zIndex"`

	// URLs are the templates with {x}, {y}, {z} or {quadKey} left in,
	// one per subdomain.
	URLs []string `json:"urls"`

	// Params are the query parameters of WMS and WMTS requests.
	Params map[string]string `json:"params,omitempty"`
}

var templates = map[string]string{
	"CLOUD":        "http://t2.supermapcloud.com/FileService/image?map=quanguo&type=web&x={x}&y={y}&z={z}",
	"CLOUD_BLACK":  "http://t3.supermapcloud.com/MapService/getGdp?x={x}&y={y}&z={z}",
	"OSM":          "http://{a-c}.tile.openstreetmap.org/{z}/{x}/{y}.png",
	"GOOGLE":       "http://www.google.cn/maps/vt/pb=!1m4!1m3!1i{z}!2i{x}!3i{y}!2m3!1e0!2sm!3i380072576!3m8!2szh-CN!3scn!5e1105!12m4!1e68!2m2!1sset!2sRoadmap!4e0!5m1!1e0",
	"GOOGLE_CN":    "https://mt{0-3}.google.cn/vt/lyrs=m&hl=zh-CN&gl=cn&x={x}&y={y}&z={z}",
	"JAPAN_STD":    "http://cyberjapandata.gsi.go.jp/xyz/std/{z}/{x}/{y}.png",
	"JAPAN_PALE":   "http://cyberjapandata.gsi.go.jp/xyz/pale/{z}/{x}/{y}.png",
	"JAPAN_RELIEF": "http://cyberjapandata.gsi.go.jp/xyz/relief/{z}/{x}/{y}.png",
	"JAPAN_ORT":    "http://cyberjapandata.gsi.go.jp/xyz/ort/{z}/{x}/{y}.jpg",
}

const (
	bingTemplate     = "http://dynamic.t0.tiles.ditu.live.com/comp/ch/{quadKey}?it=G,TW,L,LA&mkt=zh-cn&og=109&cstl=w4c&ur=CN&n=z"
	tiandituTemplate = "http://t{0-7}.tianditu.gov.cn/%s_%s/wmts?SERVICE=WMTS&REQUEST=GetTile&VERSION=1.0.0&LAYER=%s&STYLE=default&TILEMATRIXSET=%s&FORMAT=tiles&TILECOL={x}&TILEROW={y}&TILEMATRIX={z}"
)

// Resolve builds the tile source for the descriptor. The map projection
// is used when the layer does not set its own.
func Resolve(d Descriptor, mapProjection string) (*TileSource, error) {
	layerType := strings.ToUpper(strings.TrimSpace(d.LayerType))

	ts := &TileSource{
		Name:       d.Name,
		Projection: mapProjection,
		Visible:    d.Visible == nil || *d.Visible,
		ZIndex:     d.ZIndex,
	}

	switch {
	case strings.HasPrefix(layerType, "TIANDITU_"):
		return tianditu(ts, layerType)
	case layerType == "BING":
		ts.Kind = Bing
		ts.URLs = []string{bingTemplate}
	case layerType == "WMS":
		return wms(ts, d)
	case layerType == "WMTS":
		return wmts(ts, d)
	case layerType == "TILE":
		if d.URL == "" {
			return nil, errors.New("basemap: tile layer without url")
		}

		ts.Kind = XYZ
		ts.URLs = []string{strings.TrimSuffix(d.URL, "/") + "/zxyTileImage.png?z={z}&x={x}&y={y}"}
	default:
		tmpl, ok := templates[layerType]
		if !ok {
			return nil, errors.Errorf("basemap: unsupported layer type: %q", d.LayerType)
		}

		ts.Kind = XYZ
		ts.URLs = ExpandURL(tmpl)
	}

	return ts, nil
}

// tianditu handles TIANDITU_VEC, TIANDITU_IMG and TIANDITU_TER with an
// optional projection suffix, e.g. TIANDITU_VEC_3857.
func tianditu(ts *TileSource, layerType string) (*TileSource, error) {
	parts := strings.Split(layerType, "_")
	layer := strings.ToLower(parts[1])
	switch layer {
	case "vec", "img", "ter":
	default:
		return nil, errors.Errorf("basemap: unsupported tianditu layer: %q", layerType)
	}

	if len(parts) > 2 && parts[2] == "4326" {
		ts.Projection = "EPSG:4326"
	}

	matrixSet := "w"
	if ts.Projection == "EPSG:4326" {
		matrixSet = "c"
	}

	ts.Kind = Tianditu
	ts.URLs = ExpandURL(fmt.Sprintf(tiandituTemplate, layer, matrixSet, layer, matrixSet))
	return ts, nil
}

func wms(ts *TileSource, d Descriptor) (*TileSource, error) {
	if d.URL == "" {
		return nil, errors.New("basemap: wms layer without url")
	}

	layers := d.SubLayers
	if layers == "" {
		layers = "0"
	}

	if code := epsg(d.EPSGCode); code != "" {
		ts.Projection = code
	}

	ts.Kind = WMS
	ts.URLs = []string{d.URL}
	ts.Params = map[string]string{
		"SERVICE":     "WMS",
		"VERSION":     "1.1.1",
		"REQUEST":     "GetMap",
		"LAYERS":      layers,
		"STYLES":      "",
		"FORMAT":      "image/png",
		"TRANSPARENT": "true",
		"SRS":         ts.Projection,
		"WIDTH":       strconv.Itoa(TileSize),
		"HEIGHT":      strconv.Itoa(TileSize),
	}

	return ts, nil
}

func wmts(ts *TileSource, d Descriptor) (*TileSource, error) {
	if d.URL == "" || d.Layer == "" {
		return nil, errors.New("basemap: wmts layer needs url and layer")
	}

	matrixSet := d.TileMatrixSet
	if matrixSet == "" {
		matrixSet = "GoogleMapsCompatible"
	}

	style := d.Style
	if style == "" {
		style = "default"
	}

	format := d.Format
	if format == "" {
		format = "image/png"
	}

	ts.Kind = WMTS
	ts.URLs = []string{d.URL}
	ts.Params = map[string]string{
		"SERVICE":       "WMTS",
		"REQUEST":       "GetTile",
		"VERSION":       "1.0.0",
		"LAYER":         d.Layer,
		"STYLE":         style,
		"TILEMATRIXSET": matrixSet,
		"FORMAT":        format,
	}

	return ts, nil
}

var subdomainPattern = regexp.MustCompile(`\{([a-z0-9])-([a-z0-9])\}`)

// ExpandURL expands a {a-c} or {0-7} subdomain range into one
// template per subdomain.
func ExpandURL(tmpl string) []string {
	m := subdomainPattern.FindStringSubmatchIndex(tmpl)
	if m == nil {
		return []string{tmpl}
	}

	start, end := tmpl[m[2]], tmpl[m[4]]
	if start > end {
		return []string{tmpl}
	}

	var result []string
	for c := start; c <= end; c++ {
		result = append(result, tmpl[:m[0]]+string(c)+tmpl[m[1]:])
	}

	return result
}

// TileURL returns the request url for the tile.
func (ts *TileSource) TileURL(t maptile.Tile) (string, error) {
	if len(ts.URLs) == 0 {
		return "", errors.New("basemap: no urls")
	}

	base := ts.URLs[int(t.X+t.Y)%len(ts.URLs)]
	switch ts.Kind {
	case Bing:
		return strings.Replace(base, "{quadKey}", Quadkey(t), 1), nil
	case WMS:
		params := copyParams(ts.Params)
		bbox, err := tileBBox(t, ts.Projection)
		if err != nil {
			return "", err
		}
		params["BBOX"] = bbox

		return withQuery(base, params), nil
	case WMTS:
		params := copyParams(ts.Params)
		params["TILEMATRIX"] = strconv.Itoa(int(t.Z))
		params["TILEROW"] = strconv.Itoa(int(t.Y))
		params["TILECOL"] = strconv.Itoa(int(t.X))

		return withQuery(base, params), nil
	}

	r := strings.NewReplacer(
		"{x}", strconv.Itoa(int(t.X)),
		"{y}", strconv.Itoa(int(t.Y)),
		"{z}", strconv.Itoa(int(t.Z)),
	)
	return r.Replace(base), nil
}

// Quadkey is the Bing tile key of the tile.
func Quadkey(t maptile.Tile) string {
	var b strings.Builder
	for i := t.Z; i > 0; i-- {
		digit := byte('0')
		mask := uint32(1) << (i - 1)
		if t.X&mask != 0 {
			digit++
		}

		if t.Y&mask != 0 {
			digit += 2
		}

		b.WriteByte(digit)
	}

	return b.String()
}

// tileBBox is the tile bound in the projection as minx,miny,maxx,maxy.
func tileBBox(t maptile.Tile, projection string) (string, error) {
	bound := t.Bound()

	switch strings.ToUpper(projection) {
	case "EPSG:4326", "":
	case "EPSG:3857", "EPSG:900913", "EPSG:102100", "EPSG:102113":
		bound = orb.Bound{
			Min: project.WGS84.ToMercator(bound.Min),
			Max: project.WGS84.ToMercator(bound.Max),
		}
	default:
		return "", errors.Errorf("basemap: unsupported wms projection: %q", projection)
	}

	return fmt.Sprintf("%s,%s,%s,%s",
		formatFloat(bound.Min[0]), formatFloat(bound.Min[1]),
		formatFloat(bound.Max[0]), formatFloat(bound.Max[1]),
	), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func copyParams(params map[string]string) map[string]string {
	result := make(map[string]string, len(params)+3)
	for k, v := range params {
		result[k] = v
	}

	return result
}

func withQuery(base string, params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}

	return base + sep + q.Encode()
}

// epsg normalizes 3857, "3857" and "EPSG:3857" into EPSG:3857.
func epsg(v interface{}) string {
	var s string
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		s = strings.TrimSpace(v)
	case float64:
		s = strconv.Itoa(int(v))
	case int:
		s = strconv.Itoa(v)
	default:
		s = fmt.Sprintf("%v", v)
	}

	if s == "" {
		return ""
	}

	if !strings.Contains(s, ":") {
		return "EPSG:" + s
	}

	return strings.ToUpper(s)
}
