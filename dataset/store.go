// Package dataset keeps feature datasets in DuckDB and answers SQL
// feature queries in the query result shape.
package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/webmap/feature"
	"github.com/paulmach/webmap/source"
	"github.com/paulmach/webmap/util"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// Reserved columns of every dataset table.
const (
	IDColumn       = "SMID"
	GeometryColumn = "SMGEOMETRY"
)

// Store is a DuckDB database of datasets, one table per dataset.
type Store struct {
	DB *sql.DB
}

var _ source.Querier = &Store{}

// Open opens or creates the database file. An empty path is
// an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "dataset: creating data dir")
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: opening duckdb")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "dataset: opening duckdb")
	}

	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

type column struct {
	Name    string
	Numeric bool
}

// Import replaces the dataset with the features. Attribute columns are
// DOUBLE if every value is numeric, VARCHAR otherwise. Features get
// SMID 1, 2, ... in order.
func (s *Store) Import(ctx context.Context, name string, features []*feature.Feature) error {
	columns := inferColumns(features)
	table := quoteIdent(name)

	defs := []string{quoteIdent(IDColumn) + " BIGINT PRIMARY KEY", quoteIdent(GeometryColumn) + " VARCHAR"}
	for _, c := range columns {
		typ := "VARCHAR"
		if c.Numeric {
			typ = "DOUBLE"
		}
		defs = append(defs, quoteIdent(c.Name)+" "+typ)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "dataset: begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return errors.Wrapf(err, "dataset: drop %s", name)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return errors.Wrapf(err, "dataset: create %s", name)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)+2), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, placeholders))
	if err != nil {
		return errors.Wrapf(err, "dataset: prepare %s", name)
	}
	defer stmt.Close()

	for i, f := range features {
		geom, err := json.Marshal(geojson.NewGeometry(f.Geometry))
		if err != nil {
			return errors.Wrapf(err, "dataset: feature %d geometry", i)
		}

		args := make([]interface{}, 0, len(columns)+2)
		args = append(args, int64(i+1), string(geom))
		for _, c := range columns {
			args = append(args, columnValue(f.Properties[c.Name], c.Numeric))
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "dataset: insert feature %d", i)
		}
	}

	return errors.Wrap(tx.Commit(), "dataset: commit")
}

// Datasets lists the dataset names.
func (s *Store) Datasets(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, errors.Wrap(err, "dataset: list")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "dataset: list")
		}
		names = append(names, name)
	}

	return names, errors.Wrap(rows.Err(), "dataset: list")
}

// QueryBySQL runs the attribute filter as the WHERE clause against each
// dataset and returns the features as {result: {features: {...}}}. The
// url is not used. The filter is trusted SQL, it is not escaped.
func (s *Store) QueryBySQL(ctx context.Context, url string, datasetNames []string, attributeFilter string) ([]byte, error) {
	if len(datasetNames) == 0 {
		return nil, errors.New("dataset: no dataset names")
	}

	if strings.TrimSpace(attributeFilter) == "" {
		attributeFilter = source.DefaultAttributeFilter
	}

	fc := geojson.NewFeatureCollection()
	for _, name := range datasetNames {
		if err := s.query(ctx, fc, name, attributeFilter); err != nil {
			return nil, err
		}
	}

	result := map[string]interface{}{
		"result": map[string]interface{}{
			"featureCount": len(fc.Features),
			"features":     fc,
		},
	}

	data, err := json.Marshal(result)
	return data, errors.Wrap(err, "dataset: encoding result")
}

func (s *Store) query(ctx context.Context, fc *geojson.FeatureCollection, name, filter string) error {
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY %s LIMIT %d",
		quoteIdent(name), filter, quoteIdent(IDColumn), source.MaxQueryFeatures)

	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return errors.Wrapf(err, "dataset: query %s", name)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return errors.Wrapf(err, "dataset: query %s", name)
	}

	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return errors.Wrapf(err, "dataset: query %s", name)
		}

		f := geojson.NewFeature(nil)
		for i, c := range cols {
			switch c {
			case GeometryColumn:
				g, err := geojson.UnmarshalGeometry([]byte(util.FieldString(values[i])))
				if err != nil {
					return errors.Wrapf(err, "dataset: %s geometry", name)
				}
				f.Geometry = g.Geometry()
			case IDColumn:
				f.ID = values[i]
				f.Properties[c] = values[i]
			default:
				if values[i] != nil {
					f.Properties[c] = values[i]
				}
			}
		}

		fc.Append(f)
	}

	return errors.Wrapf(rows.Err(), "dataset: query %s", name)
}

func inferColumns(features []*feature.Feature) []column {
	numeric := make(map[string]bool)
	for _, f := range features {
		for k, v := range f.Properties {
			if strings.EqualFold(k, IDColumn) || strings.EqualFold(k, GeometryColumn) {
				continue
			}

			isNum, seen := numeric[k]
			if v == nil {
				if !seen {
					numeric[k] = true
				}
				continue
			}

			_, ok := util.ParseNumericField(v)
			numeric[k] = ok && (isNum || !seen)
		}
	}

	columns := make([]column, 0, len(numeric))
	for k, n := range numeric {
		columns = append(columns, column{Name: k, Numeric: n})
	}

	sort.Slice(columns, func(i, j int) bool {
		return columns[i].Name < columns[j].Name
	})

	return columns
}

func columnValue(v interface{}, numeric bool) interface{} {
	if v == nil {
		return nil
	}

	if numeric {
		n, _ := util.ParseNumericField(v)
		return n
	}

	return util.FieldString(v)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
