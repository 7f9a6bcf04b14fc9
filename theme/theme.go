// Package theme resolves layer style descriptors and thematic settings
// into the style of every feature.
package theme

import (
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/webmap/classify"
	"github.com/paulmach/webmap/util"

	"github.com/pkg/errors"
)

// Kind is the closed set of theme variants.
type Kind int

// The theme kinds.
const (
	Plain Kind = iota
	Unique
	Range
	Heat
	Symbol
	Marker
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Unique:
		return "unique"
	case Range:
		return "range"
	case Heat:
		return "heat"
	case Symbol:
		return "symbol"
	case Marker:
		return "marker"
	}

	return "unknown"
}

// ParseKind maps a layer type and its style type to a theme kind.
// Returns false for layers that are not feature layers, such as tiles.
func ParseKind(layerType, styleType string) (Kind, bool) {
	switch strings.ToUpper(layerType) {
	case "VECTOR", "":
		switch strings.ToUpper(styleType) {
		case ImagePoint, SVGPoint:
			return Symbol, true
		}

		return Plain, true
	case "UNIQUE":
		return Unique, true
	case "RANGE":
		return Range, true
	case "HEAT":
		return Heat, true
	case "MARKER":
		return Marker, true
	}

	return 0, false
}

// DefaultSegmentCount is used when a range theme has no segment count.
const DefaultSegmentCount = 6

// Defaults for heat themes.
const (
	DefaultHeatRadius = 10.0
	DefaultHeatBlur   = 15.0
)

// Setting is the thematic setting of a layer. Which fields are used
// depends on the kind.
type Setting struct {
	ThemeField    string   `json:"themeField" yaml:"themeField"`
	Colors        []string `json:"colors" yaml:"colors"`
	SegmentMethod string   `json:"segmentMethod" yaml:"segmentMethod"`
	SegmentCount  int      `json:"segmentCount" yaml:"segmentCount"`

	// CustomSettings are keyed by value for unique themes and by
	// bucket index for range and heat themes.
	CustomSettings map[string]interface{} `json:"customSettings" yaml:"customSettings"`

	Weight string  `json:"weight" yaml:"weight"`
	Radius float64 `json:"radius" yaml:"radius"`
	Blur   float64 `json:"blur" yaml:"blur"`
}

// Descriptor is everything about a layer needed to build its theme.
type Descriptor struct {
	Kind        Kind
	FeatureType string
	Style       StyleDescriptor
	Setting     *Setting
	Label       *LabelDescriptor
}

// A Theme is one of *PlainTheme, *UniqueTheme, *RangeTheme, *HeatTheme,
// *SymbolTheme or *MarkerTheme.
type Theme interface {
	Kind() Kind
	label() *LabelDescriptor
}

type base struct {
	FeatureType string
	Style       StyleDescriptor
	Label       *LabelDescriptor
}

func (b *base) label() *LabelDescriptor { return b.Label }

// PlainTheme is one fixed style for all features.
type PlainTheme struct{ base }

// SymbolTheme is one image or svg point symbol for all features.
type SymbolTheme struct{ base }

// MarkerTheme uses each feature's embedded style, or the layer style
// if the feature has none.
type MarkerTheme struct{ base }

// UniqueTheme colors each distinct value of a field.
type UniqueTheme struct {
	base
	Field  string
	Colors []string

	// Overrides are colors by exact field value.
	Overrides map[string]string
}

// RangeTheme colors numeric buckets of a field.
type RangeTheme struct {
	base
	Field  string
	Method classify.Method
	Count  int
	Colors []string

	// Overrides are by bucket index.
	Overrides map[int]RangeOverride
}

// RangeOverride customizes one bucket. Nil bounds are not changed.
type RangeOverride struct {
	Start *float64
	End   *float64
	Color string
}

// HeatTheme weights point features by a field.
type HeatTheme struct {
	base
	WeightField string
	Colors      []string
	Radius      float64
	Blur        float64
}

func (*PlainTheme) Kind() Kind  { return Plain }
func (*SymbolTheme) Kind() Kind { return Symbol }
func (*MarkerTheme) Kind() Kind { return Marker }
func (*UniqueTheme) Kind() Kind { return Unique }
func (*RangeTheme) Kind() Kind  { return Range }
func (*HeatTheme) Kind() Kind   { return Heat }

// FromDescriptor builds the theme variant. Setting values are checked
// here, so a bad range method or missing theme field is reported
// before any data is fetched.
func FromDescriptor(d Descriptor) (Theme, error) {
	b := base{FeatureType: d.FeatureType, Style: d.Style, Label: d.Label}

	setting := d.Setting
	if setting == nil {
		setting = &Setting{}
	}

	switch d.Kind {
	case Plain:
		return &PlainTheme{base: b}, nil
	case Symbol:
		return &SymbolTheme{base: b}, nil
	case Marker:
		return &MarkerTheme{base: b}, nil
	case Unique:
		if setting.ThemeField == "" {
			return nil, errors.New("unique theme: missing theme field")
		}

		return &UniqueTheme{
			base:      b,
			Field:     setting.ThemeField,
			Colors:    setting.Colors,
			Overrides: uniqueOverrides(setting.CustomSettings),
		}, nil
	case Range:
		if setting.ThemeField == "" {
			return nil, errors.New("range theme: missing theme field")
		}

		method := classify.EqualInterval
		if setting.SegmentMethod != "" {
			var ok bool
			method, ok = classify.ParseMethod(setting.SegmentMethod)
			if !ok {
				return nil, errors.Errorf("range theme: unknown segment method: %q", setting.SegmentMethod)
			}
		}

		count := setting.SegmentCount
		if count <= 0 {
			count = DefaultSegmentCount
		}

		overrides, err := rangeOverrides(setting.CustomSettings)
		if err != nil {
			return nil, errors.WithMessage(err, "range theme")
		}

		return &RangeTheme{
			base:      b,
			Field:     setting.ThemeField,
			Method:    method,
			Count:     count,
			Colors:    setting.Colors,
			Overrides: overrides,
		}, nil
	case Heat:
		ht := &HeatTheme{
			base:        b,
			WeightField: setting.Weight,
			Colors:      append([]string(nil), setting.Colors...),
			Radius:      setting.Radius,
			Blur:        setting.Blur,
		}

		if ht.Radius <= 0 {
			ht.Radius = DefaultHeatRadius
		}

		if ht.Blur <= 0 {
			ht.Blur = DefaultHeatBlur
		}

		// custom colors replace the gradient stop at their index
		for _, ik := range sortedIndexes(setting.CustomSettings) {
			if ik.index >= len(ht.Colors) {
				continue
			}

			if c := colorValue(setting.CustomSettings[ik.key]); c != "" {
				ht.Colors[ik.index] = c
			}
		}

		return ht, nil
	}

	return nil, errors.Errorf("theme: unknown kind: %d", d.Kind)
}

// uniqueOverrides reads {value: color} or {value: {fillColor|color: ...}}.
func uniqueOverrides(custom map[string]interface{}) map[string]string {
	if len(custom) == 0 {
		return nil
	}

	result := make(map[string]string, len(custom))
	for k, v := range custom {
		if c := colorValue(v); c != "" {
			result[k] = c
		}
	}

	return result
}

// rangeOverrides reads {index: {segment: {start, end}, color}}.
func rangeOverrides(custom map[string]interface{}) (map[int]RangeOverride, error) {
	if len(custom) == 0 {
		return nil, nil
	}

	result := make(map[int]RangeOverride, len(custom))
	for k, v := range custom {
		i, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil || i < 0 {
			return nil, errors.Errorf("custom setting key is not an index: %q", k)
		}

		o := RangeOverride{Color: colorValue(v)}
		if segment := toMap(toMap(v)["segment"]); segment != nil {
			o.Start = optionalFloat(segment["start"])
			o.End = optionalFloat(segment["end"])
		}

		result[i] = o
	}

	return result, nil
}

type indexKey struct {
	index int
	key   string
}

// sortedIndexes returns the integer keys of the map ordered by index.
func sortedIndexes(custom map[string]interface{}) []indexKey {
	var result []indexKey
	for k := range custom {
		if i, err := strconv.Atoi(k); err == nil && i >= 0 {
			result = append(result, indexKey{index: i, key: k})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].index != result[j].index {
			return result[i].index < result[j].index
		}
		return result[i].key < result[j].key
	})
	return result
}

func colorValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return normalizeColor(s)
	}

	m := toMap(v)
	for _, k := range []string{"color", "fillColor", "strokeColor"} {
		if s := util.FieldString(m[k]); s != "" {
			return normalizeColor(s)
		}
	}

	return ""
}

// toMap handles objects decoded from both json and yaml.
func toMap(v interface{}) map[string]interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		return v
	case map[interface{}]interface{}:
		result := make(map[string]interface{}, len(v))
		for k, val := range v {
			result[util.FieldString(k)] = val
		}

		return result
	}

	return nil
}
