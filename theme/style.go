package theme

import (
	"fmt"
	"strings"

	"github.com/paulmach/webmap/colorramp"
	"github.com/paulmach/webmap/util"
)

// Point style types of the portal.
const (
	BasicPoint = "BASIC_POINT"
	ImagePoint = "IMAGE_POINT"
	SVGPoint   = "SVG_POINT"
)

// A Style is the renderer style assigned to a feature or a group.
type Style struct {
	Type string `json:"type,omitempty"`

	FillColor     string  `json:"fillColor,omitempty"`
	FillOpacity   float64 `json:"fillOpacity"`
	StrokeColor   string  `json:"strokeColor,omitempty"`
	StrokeWidth   float64 `json:"strokeWidth"`
	StrokeOpacity float64 `json:"strokeOpacity"`
	LineDash      string  `json:"lineDash,omitempty"`
	Radius        float64 `json:"radius,omitempty"`

	Icon *Icon `json:"icon,omitempty"`
	Text *Text `json:"text,omitempty"`

	// Weight is set for heat map features, in [0, 1].
	Weight float64 `json:"weight,omitempty"`
}

// Icon is an image or svg point symbol.
type Icon struct {
	URL    string     `json:"url"`
	Scale  float64    `json:"scale"`
	Width  float64    `json:"width,omitempty"`
	Height float64    `json:"height,omitempty"`
	Anchor [2]float64 `json:"anchor"`
}

// Text is the label drawn for a feature.
type Text struct {
	Text           string  `json:"text"`
	Font           string  `json:"font,omitempty"`
	Fill           string  `json:"fill,omitempty"`
	BackgroundFill string  `json:"backgroundFill,omitempty"`
	OffsetX        float64 `json:"offsetX,omitempty"`
	OffsetY        float64 `json:"offsetY,omitempty"`
}

func (s *Style) clone() *Style {
	if s == nil {
		return nil
	}

	c := *s
	if s.Icon != nil {
		icon := *s.Icon
		c.Icon = &icon
	}

	if s.Text != nil {
		text := *s.Text
		c.Text = &text
	}

	return &c
}

// withColor returns a copy with the theme color applied. Lines are
// colored by their stroke, everything else by the fill.
func (s *Style) withColor(color string, featureType string) *Style {
	c := s.clone()
	if strings.EqualFold(featureType, "LINE") {
		c.StrokeColor = color
	} else {
		c.FillColor = color
	}

	return c
}

// StyleDescriptor is the style as stored in the map document.
type StyleDescriptor struct {
	Type          string   `json:"type" yaml:"type"`
	FillColor     string   `json:"fillColor" yaml:"fillColor"`
	FillOpacity   *float64 `json:"fillOpacity" yaml:"fillOpacity"`
	StrokeColor   string   `json:"strokeColor" yaml:"strokeColor"`
	StrokeWidth   *float64 `json:"strokeWidth" yaml:"strokeWidth"`
	StrokeOpacity *float64 `json:"strokeOpacity" yaml:"strokeOpacity"`
	LineDash      string   `json:"lineDash" yaml:"lineDash"`
	Radius        float64  `json:"radius" yaml:"radius"`

	// URL is the svg of SVG_POINT styles.
	URL       string     `json:"url" yaml:"url"`
	ImageInfo *ImageInfo `json:"imageInfo" yaml:"imageInfo"`

	// Scale overrides the icon scale computed from the radius.
	Scale *float64 `json:"scale" yaml:"scale"`
}

// ImageInfo describes the image of IMAGE_POINT styles.
type ImageInfo struct {
	URL  string `json:"url" yaml:"url"`
	Size struct {
		W float64 `json:"w" yaml:"w"`
		H float64 `json:"h" yaml:"h"`
	} `json:"size" yaml:"size"`
}

// Defaults for style values missing from the descriptor.
const (
	DefaultRadius      = 6.0
	DefaultStrokeWidth = 1.0
	DefaultColor       = "#3388ff"
)

// Style converts the descriptor into a renderer style.
func (sd StyleDescriptor) Style() *Style {
	s := &Style{
		Type:          strings.ToUpper(sd.Type),
		FillColor:     normalizeColor(sd.FillColor),
		FillOpacity:   floatOr(sd.FillOpacity, 1),
		StrokeColor:   normalizeColor(sd.StrokeColor),
		StrokeWidth:   floatOr(sd.StrokeWidth, DefaultStrokeWidth),
		StrokeOpacity: floatOr(sd.StrokeOpacity, 1),
		LineDash:      sd.LineDash,
		Radius:        sd.Radius,
	}

	if s.Radius <= 0 {
		s.Radius = DefaultRadius
	}

	switch s.Type {
	case ImagePoint:
		s.Icon = &Icon{Scale: 1, Anchor: [2]float64{0.5, 0.5}}
		if sd.ImageInfo != nil {
			s.Icon.URL = sd.ImageInfo.URL
			s.Icon.Width = sd.ImageInfo.Size.W
			s.Icon.Height = sd.ImageInfo.Size.H
			if sd.ImageInfo.Size.W > 0 {
				s.Icon.Scale = 2 * s.Radius / sd.ImageInfo.Size.W
			}
		}
	case SVGPoint:
		s.Icon = &Icon{URL: sd.URL, Scale: 1, Anchor: [2]float64{0.5, 0.5}}
	}

	if s.Icon != nil && sd.Scale != nil {
		s.Icon.Scale = *sd.Scale
	}

	return s
}

// styleDescriptorFromMap reads a raw style object, such as a marker's
// embedded style.
func styleDescriptorFromMap(m map[string]interface{}) StyleDescriptor {
	sd := StyleDescriptor{
		Type:        util.FieldString(m["type"]),
		FillColor:   util.FieldString(m["fillColor"]),
		StrokeColor: util.FieldString(m["strokeColor"]),
		LineDash:    util.FieldString(m["lineDash"]),
		URL:         util.FieldString(m["url"]),
	}

	if v, ok := util.ParseNumericField(m["radius"]); ok {
		sd.Radius = v
	}

	sd.FillOpacity = optionalFloat(m["fillOpacity"])
	sd.StrokeWidth = optionalFloat(m["strokeWidth"])
	sd.StrokeOpacity = optionalFloat(m["strokeOpacity"])

	sd.Scale = optionalFloat(m["scale"])
	if src := util.FieldString(m["src"]); src != "" {
		sd.Type = ImagePoint
		sd.ImageInfo = &ImageInfo{URL: src}
	}

	return sd
}

// LabelDescriptor is the label style of a layer.
type LabelDescriptor struct {
	LabelField     string      `json:"labelField" yaml:"labelField"`
	FontFamily     string      `json:"fontFamily" yaml:"fontFamily"`
	FontSize       string      `json:"fontSize" yaml:"fontSize"`
	Fill           string      `json:"fill" yaml:"fill"`
	BackgroundFill interface{} `json:"backgroundFill" yaml:"backgroundFill"`
	OffsetX        float64     `json:"offsetX" yaml:"offsetX"`
	OffsetY        float64     `json:"offsetY" yaml:"offsetY"`
}

// text returns the label for the feature value. Nil if there
// is no label field or the value is missing.
func (ld *LabelDescriptor) text(value interface{}, ok bool) *Text {
	if ld == nil || ld.LabelField == "" || !ok || value == nil {
		return nil
	}

	font := strings.TrimSpace(ld.FontSize + " " + ld.FontFamily)
	return &Text{
		Text:           util.FieldString(value),
		Font:           font,
		Fill:           normalizeColor(ld.Fill),
		BackgroundFill: cssColor(ld.BackgroundFill),
		OffsetX:        ld.OffsetX,
		OffsetY:        ld.OffsetY,
	}
}

// cssColor converts an [r, g, b, a] array into rgba() or
// returns the color string.
func cssColor(v interface{}) string {
	switch v := v.(type) {
	case string:
		return normalizeColor(v)
	case []interface{}:
		if len(v) < 3 {
			return ""
		}

		parts := make([]float64, 4)
		parts[3] = 1
		for i := 0; i < len(v) && i < 4; i++ {
			parts[i], _ = util.ParseNumericField(v[i])
		}

		return fmt.Sprintf("rgba(%d,%d,%d,%s)",
			int(parts[0]), int(parts[1]), int(parts[2]), util.FieldString(parts[3]))
	}

	return ""
}

func normalizeColor(c string) string {
	if c == "" {
		return ""
	}

	n, err := colorramp.Normalize(c)
	if err != nil {
		return c
	}

	return n
}

func floatOr(v *float64, d float64) float64 {
	if v == nil {
		return d
	}

	return *v
}

func optionalFloat(v interface{}) *float64 {
	f, ok := util.ParseNumericField(v)
	if !ok {
		return nil
	}

	return &f
}
