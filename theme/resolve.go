package theme

import (
	"github.com/paulmach/webmap/classify"
	"github.com/paulmach/webmap/colorramp"
	"github.com/paulmach/webmap/feature"
	"github.com/paulmach/webmap/util"

	"github.com/pkg/errors"
)

// State is how far the resolution of a layer got.
type State int

// The resolution states in order.
const (
	Unstyled State = iota
	Classified
	GroupsBuilt
	Bound
)

func (s State) String() string {
	switch s {
	case Unstyled:
		return "unstyled"
	case Classified:
		return "classified"
	case GroupsBuilt:
		return "groups built"
	case Bound:
		return "bound"
	}

	return "unknown"
}

// DefaultColors are used by unique and range themes without colors.
var DefaultColors = []string{"#d53e4f", "#fc8d59", "#fee08b", "#ffffbf", "#e6f598", "#99d594", "#3288bd"}

// DefaultHeatColors is the heat map gradient used if none is set.
var DefaultHeatColors = []string{"#0000ff", "#00ffff", "#00ff00", "#ffff00", "#ff0000"}

// A Group maps a unique value or a range bucket to its style.
type Group struct {
	Value string  `json:"value,omitempty"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Color string  `json:"color"`
	Style *Style  `json:"style"`

	// Count is the number of rendered features in the group.
	Count int `json:"count"`
}

// HeatStyle is the layer level setup of a heat map.
type HeatStyle struct {
	Gradient    []string `json:"gradient"`
	Radius      float64  `json:"radius"`
	Blur        float64  `json:"blur"`
	WeightField string   `json:"weightField,omitempty"`
	MaxWeight   float64  `json:"maxWeight"`
}

// A Styler returns the style of a feature, nil if the feature
// should not be rendered.
type Styler interface {
	Style(*feature.Feature) *Style
}

// Resolved is the style lookup of a layer. The returned styles
// are shared and must not be modified.
type Resolved struct {
	Kind   Kind
	State  State
	Field  string
	Breaks classify.Breaks
	Groups []Group
	Heat   *HeatStyle

	theme Theme
	style *Style
	index map[string]int
}

var _ Styler = &Resolved{}

// Resolve classifies the features and builds the style groups. Range
// themes are classified over all the features, so filtering does not move
// the bucket boundaries, unique themes only enumerate the filtered ones.
func Resolve(t Theme, all, filtered []*feature.Feature) (*Resolved, error) {
	r := &Resolved{Kind: t.Kind(), theme: t}

	var err error
	switch t := t.(type) {
	case *PlainTheme:
		r.style = t.Style.Style()
	case *SymbolTheme:
		r.style = t.Style.Style()
	case *MarkerTheme:
		r.style = markerDefault(t.Style)
	case *UniqueTheme:
		err = r.resolveUnique(t, filtered)
	case *RangeTheme:
		err = r.resolveRange(t, all, filtered)
	case *HeatTheme:
		r.resolveHeat(t, all)
	default:
		err = errors.Errorf("theme: unsupported type: %T", t)
	}

	if err != nil {
		return nil, err
	}

	r.State = Bound
	return r, nil
}

func (r *Resolved) resolveUnique(t *UniqueTheme, features []*feature.Feature) error {
	r.Field = t.Field
	r.index = make(map[string]int)

	var values []string
	counts := make(map[string]int)
	for _, f := range features {
		v, ok := f.Value(t.Field)
		if !ok || v == nil {
			continue
		}

		key := util.FieldString(v)
		if _, seen := r.index[key]; !seen {
			r.index[key] = len(values)
			values = append(values, key)
		}
		counts[key]++
	}
	r.State = Classified

	colors, err := colorramp.Expand(orDefault(t.Colors, DefaultColors), len(values), colorramp.Categorical)
	if err != nil {
		return errors.WithMessage(err, "unique theme")
	}

	style := t.Style.Style()
	r.Groups = make([]Group, len(values))
	for i, v := range values {
		color := colors[i]
		if c, ok := t.Overrides[v]; ok && c != "" {
			color = c
		}

		r.Groups[i] = Group{
			Value: v,
			Color: color,
			Style: style.withColor(color, t.FeatureType),
			Count: counts[v],
		}
	}
	r.State = GroupsBuilt

	return nil
}

func (r *Resolved) resolveRange(t *RangeTheme, all, filtered []*feature.Feature) error {
	r.Field = t.Field

	breaks, err := classify.Classify(numericValues(all, t.Field), t.Method, t.Count)
	if err != nil {
		return errors.WithMessage(err, "range theme")
	}
	r.Breaks = breaks
	r.State = Classified

	colors, err := colorramp.Expand(orDefault(t.Colors, DefaultColors), breaks.Classes(), colorramp.Ranged)
	if err != nil {
		return errors.WithMessage(err, "range theme")
	}

	style := t.Style.Style()
	r.Groups = make([]Group, breaks.Classes())
	for i := range r.Groups {
		g := Group{Start: breaks[i], End: breaks[i+1], Color: colors[i]}

		if o, ok := t.Overrides[i]; ok {
			if o.Start != nil {
				g.Start = *o.Start
			}

			if o.End != nil {
				g.End = *o.End
			}

			if o.Color != "" {
				g.Color = o.Color
			}
		}

		g.Style = style.withColor(g.Color, t.FeatureType)
		r.Groups[i] = g
	}

	for _, f := range filtered {
		if i, ok := r.rangeGroup(f); ok {
			r.Groups[i].Count++
		}
	}
	r.State = GroupsBuilt

	return nil
}

func (r *Resolved) resolveHeat(t *HeatTheme, all []*feature.Feature) {
	r.Field = t.WeightField
	r.Heat = &HeatStyle{
		Gradient:    orDefault(t.Colors, DefaultHeatColors),
		Radius:      t.Radius,
		Blur:        t.Blur,
		WeightField: t.WeightField,
	}

	if t.WeightField != "" {
		r.Heat.MaxWeight = classify.Statistic(numericValues(all, t.WeightField), classify.Max)
	}
	r.State = GroupsBuilt
}

// Style returns the style of the feature with its label attached.
// Nil means the feature is not rendered.
func (r *Resolved) Style(f *feature.Feature) *Style {
	s := r.baseStyle(f)
	if s == nil {
		return nil
	}

	if ld := r.theme.label(); ld != nil {
		v, ok := f.Value(ld.LabelField)
		if text := ld.text(v, ok); text != nil {
			s = s.clone()
			s.Text = text
		}
	}

	return s
}

func (r *Resolved) baseStyle(f *feature.Feature) *Style {
	switch r.Kind {
	case Unique:
		v, ok := f.Value(r.Field)
		if !ok || v == nil {
			return nil
		}

		i, ok := r.index[util.FieldString(v)]
		if !ok {
			return nil
		}

		return r.Groups[i].Style
	case Range:
		i, ok := r.rangeGroup(f)
		if !ok {
			return nil
		}

		return r.Groups[i].Style
	case Heat:
		return &Style{Type: "HEAT", Weight: r.Weight(f)}
	case Marker:
		if s := markerStyle(f.Marker); s != nil {
			return s
		}

		return r.style
	}

	return r.style
}

// rangeGroup returns the first bucket containing the feature's value.
func (r *Resolved) rangeGroup(f *feature.Feature) (int, bool) {
	v, ok := f.Value(r.Field)
	if !ok {
		return 0, false
	}

	n, ok := util.ParseNumericField(v)
	if !ok {
		return 0, false
	}

	for i, g := range r.Groups {
		if classify.InClass(i, g.Start, g.End, n) {
			return i, true
		}
	}

	return 0, false
}

// Weight is the heat weight of the feature, its weight field value
// divided by the layer maximum. Features with no value or a layer
// maximum of zero get the default weight of 1.
func (r *Resolved) Weight(f *feature.Feature) float64 {
	if r.Heat == nil || r.Heat.WeightField == "" || r.Heat.MaxWeight == 0 {
		return 1
	}

	v, ok := f.Value(r.Heat.WeightField)
	if !ok {
		return 1
	}

	n, ok := util.ParseNumericField(v)
	if !ok {
		return 1
	}

	return n / r.Heat.MaxWeight
}

func markerDefault(sd StyleDescriptor) *Style {
	if sd.Type == "" && sd.FillColor == "" && sd.ImageInfo == nil && sd.URL == "" {
		sd.Type = BasicPoint
		sd.FillColor = DefaultColor
		sd.StrokeColor = "#ffffff"
	}

	return sd.Style()
}

// markerStyle is the style embedded in the marker, nil if there is none.
func markerStyle(m *feature.Marker) *Style {
	if m == nil {
		return nil
	}

	if len(m.Style) > 0 {
		return styleDescriptorFromMap(m.Style).Style()
	}

	if m.Icon != "" {
		return &Style{
			Type:          ImagePoint,
			FillOpacity:   1,
			StrokeOpacity: 1,
			Radius:        DefaultRadius,
			Icon:          &Icon{URL: m.Icon, Scale: 1, Anchor: [2]float64{0.5, 1}},
		}
	}

	return nil
}

func numericValues(features []*feature.Feature, field string) []float64 {
	values := make([]float64, 0, len(features))
	for _, f := range features {
		v, ok := f.Value(field)
		if !ok {
			continue
		}

		if n, ok := util.ParseNumericField(v); ok {
			values = append(values, n)
		}
	}

	return values
}

func orDefault(colors, d []string) []string {
	if len(colors) == 0 {
		return d
	}

	return colors
}
