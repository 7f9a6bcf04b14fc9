package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// CSVOptions configures the CSV text parser.
type CSVOptions struct {
	// Comma is the field delimiter, defaults to ','.
	Comma rune

	// NoTitles means the first line is data. Columns are then
	// named field1, field2, ...
	NoTitles bool
}

// CSV parses delimited text into a Table. Blank lines are skipped and
// rows may have a different number of cells than the title row.
func CSV(text string, opts CSVOptions) (Table, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	if opts.Comma != 0 {
		r.Comma = opts.Comma
	}

	t := Table{}
	for line := 0; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, errors.Wrapf(err, "csv: line %d", line+1)
		}

		if line == 0 {
			if opts.NoTitles {
				t.ColTitles = make([]string, len(record))
				for i := range record {
					t.ColTitles[i] = fmt.Sprintf("field%d", i+1)
				}
			} else {
				t.ColTitles = make([]string, len(record))
				for i, v := range record {
					t.ColTitles[i] = strings.TrimSpace(v)
				}

				continue
			}
		}

		row := make([]interface{}, len(record))
		for i, v := range record {
			row[i] = strings.Trim(v, `"`)
		}

		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
