package dataset

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/paulmach/webmap/feature"
	"github.com/paulmach/webmap/ingest"

	"github.com/paulmach/orb"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "data", "webmap.duckdb"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func testFeatures() []*feature.Feature {
	a := feature.New(orb.Point{1, 2})
	a.Properties["NAME"] = "a"
	a.Properties["POP"] = 10.0

	b := feature.New(orb.Point{3, 4})
	b.Properties["NAME"] = "b"
	b.Properties["POP"] = "250"

	c := feature.New(orb.LineString{{0, 0}, {1, 1}})
	c.Properties["NAME"] = "c"
	c.Properties["CODE"] = "x1"

	return []*feature.Feature{a, b, c}
}

func TestStore_Import(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if err := s.Import(ctx, "World:Cities", testFeatures()); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	names, err := s.Datasets(ctx)
	if err != nil {
		t.Fatalf("datasets failed: %v", err)
	}

	if len(names) != 1 || names[0] != "World:Cities" {
		t.Errorf("incorrect datasets: %v", names)
	}

	// import again replaces
	if err := s.Import(ctx, "World:Cities", testFeatures()[:1]); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	data, err := s.QueryBySQL(ctx, "", []string{"World:Cities"}, "")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	fs, err := ingest.QueryResult(data, "", "")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if len(fs) != 1 {
		t.Errorf("expected 1 feature after reimport, got %d", len(fs))
	}
}

func TestStore_QueryBySQL(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if err := s.Import(ctx, "cities", testFeatures()); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	cases := []struct {
		name   string
		filter string
		names  []string
	}{
		{
			name:   "default",
			filter: "",
			names:  []string{"a", "b", "c"},
		},
		{
			name:   "numeric column",
			filter: "POP > 100",
			names:  []string{"b"},
		},
		{
			name:   "string column",
			filter: "NAME = 'c'",
			names:  []string{"c"},
		},
		{
			name:   "null column",
			filter: "CODE IS NULL",
			names:  []string{"a", "b"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := s.QueryBySQL(ctx, "", []string{"cities"}, tc.filter)
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}

			fs, err := ingest.QueryResult(data, "", "")
			if err != nil {
				t.Fatalf("ingest failed: %v", err)
			}

			if len(fs) != len(tc.names) {
				t.Fatalf("incorrect count: %d != %d", len(fs), len(tc.names))
			}

			for i, f := range fs {
				if v := f.Properties["NAME"]; v != tc.names[i] {
					t.Errorf("feature %d: incorrect name: %v != %v", i, v, tc.names[i])
				}
			}
		})
	}
}

func TestStore_QueryBySQL_Values(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if err := s.Import(ctx, "cities", testFeatures()); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	data, err := s.QueryBySQL(ctx, "", []string{"cities"}, "SMID = 2")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	var result struct {
		Result struct {
			FeatureCount int `json:"featureCount"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if result.Result.FeatureCount != 1 {
		t.Errorf("incorrect feature count: %d", result.Result.FeatureCount)
	}

	fs, err := ingest.QueryResult(data, "", "")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if v := fs[0].Properties["POP"]; v != 250.0 {
		t.Errorf("numeric column not converted: %v (%T)", v, v)
	}

	if p, ok := fs[0].Geometry.(orb.Point); !ok || !p.Equal(orb.Point{3, 4}) {
		t.Errorf("incorrect geometry: %v", fs[0].Geometry)
	}
}

func TestStore_QueryBySQL_Errors(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if _, err := s.QueryBySQL(ctx, "", nil, ""); err == nil {
		t.Errorf("expected error for no datasets")
	}

	if _, err := s.QueryBySQL(ctx, "", []string{"missing"}, ""); err == nil {
		t.Errorf("expected error for missing dataset")
	}
}
