package ingest

import (
	"strings"

	"github.com/paulmach/webmap/feature"
	"github.com/paulmach/webmap/util"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// A Table is the portal's CSV/Excel dataset content.
type Table struct {
	Rows      [][]interface{} `json:"rows" yaml:"rows"`
	ColTitles []string        `json:"colTitles" yaml:"colTitles"`
}

// TabularOptions says which columns hold the coordinates
// and how to project them.
type TabularOptions struct {
	XField string
	YField string

	// From is the projection of the coordinates in the table,
	// To is the map projection.
	From string
	To   string
}

// Tabular builds one point feature per row. Rows with an empty or
// non-numeric coordinate are dropped. Every cell is kept as an attribute
// under its trimmed column title.
func Tabular(t Table, opts TabularOptions) ([]*feature.Feature, error) {
	titles := make([]string, len(t.ColTitles))
	for i, title := range t.ColTitles {
		titles[i] = strings.TrimSpace(title)
	}

	xIdx := indexOf(titles, strings.TrimSpace(opts.XField))
	if xIdx < 0 {
		return nil, errors.Errorf("tabular: x field not found: %q", opts.XField)
	}

	yIdx := indexOf(titles, strings.TrimSpace(opts.YField))
	if yIdx < 0 {
		return nil, errors.Errorf("tabular: y field not found: %q", opts.YField)
	}

	result := make([]*feature.Feature, 0, len(t.Rows))
	for _, row := range t.Rows {
		if xIdx >= len(row) || yIdx >= len(row) {
			continue
		}

		x, ok := coordinate(row[xIdx])
		if !ok {
			continue
		}

		y, ok := coordinate(row[yIdx])
		if !ok {
			continue
		}

		g, err := Reproject(orb.Point{x, y}, opts.From, opts.To)
		if err != nil {
			return nil, err
		}

		f := feature.New(g)
		for j, v := range row {
			if j < len(titles) {
				f.Properties[titles[j]] = v
			}
		}

		result = append(result, f)
	}

	return result, nil
}

func coordinate(v interface{}) (float64, bool) {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return 0, false
	}

	return util.ParseNumericField(v)
}

func indexOf(list []string, val string) int {
	for i, l := range list {
		if l == val {
			return i
		}
	}

	return -1
}
