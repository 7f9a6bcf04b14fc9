// Package colorramp expands a short list of anchor colors into the
// colors needed for every category or class of a theme.
package colorramp

import (
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Mode controls how colors are sampled when no interpolation is needed.
type Mode int

const (
	// Categorical only needs distinguishable colors with no order.
	Categorical Mode = iota

	// Ranged keeps the full span of the anchors so ordered classes
	// read as a gradient.
	Ranged
)

// Expand returns count colors built from the anchors. If there are enough
// anchors they are sampled, otherwise the colors are linearly interpolated
// in RGB between consecutive anchors.
func Expand(anchors []string, count int, mode Mode) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}

	colors, err := parse(anchors)
	if err != nil {
		return nil, err
	}

	if count <= len(colors) {
		return sample(colors, count, mode), nil
	}

	result := make([]string, count)
	if len(colors) == 1 {
		for i := range result {
			result[i] = colors[0].Hex()
		}

		return result, nil
	}

	segments := float64(len(colors) - 1)
	for i := range result {
		t := float64(i) * segments / float64(count-1)

		seg := int(math.Floor(t))
		if seg >= len(colors)-1 {
			seg = len(colors) - 2
		}

		result[i] = colors[seg].BlendRgb(colors[seg+1], t-float64(seg)).Hex()
	}

	return result, nil
}

// Normalize returns the color as lower case #rrggbb.
func Normalize(color string) (string, error) {
	c, err := parseColor(color)
	if err != nil {
		return "", err
	}

	return c.Hex(), nil
}

func sample(colors []colorful.Color, count int, mode Mode) []string {
	result := make([]string, count)
	if mode == Categorical || count == 1 {
		for i := range result {
			result[i] = colors[i].Hex()
		}

		return result
	}

	last := len(colors) - 1
	for i := range result {
		idx := int(math.Round(float64(i) * float64(last) / float64(count-1)))
		result[i] = colors[idx].Hex()
	}

	return result
}

func parse(anchors []string) ([]colorful.Color, error) {
	if len(anchors) == 0 {
		return nil, errors.New("colorramp: no anchor colors")
	}

	colors := make([]colorful.Color, len(anchors))
	for i, a := range anchors {
		c, err := parseColor(a)
		if err != nil {
			return nil, err
		}

		colors[i] = c
	}

	return colors, nil
}

func parseColor(s string) (colorful.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, errors.Errorf("colorramp: invalid color: %q", s)
	}

	return c, nil
}
