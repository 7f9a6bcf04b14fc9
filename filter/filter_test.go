package filter

import (
	"testing"

	"github.com/paulmach/webmap/feature"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

func testFeatures() []*feature.Feature {
	props := []geojson.Properties{
		{"field": "1", "other": "2", "name": "a"},
		{"field": 1.0, "other": 3.0, "name": "b"},
		{"field": "1", "other": 2.0, "name": "c"},
		{"field": "2", "other": "2", "name": "d"},
		{"other": "2", "name": "e"},
	}

	result := make([]*feature.Feature, len(props))
	for i, p := range props {
		result[i] = feature.New(orb.Point{float64(i), 0})
		result[i].Properties = p
	}

	return result
}

func names(features []*feature.Feature) []string {
	result := make([]string, len(features))
	for i, f := range features {
		result[i] = f.Properties["name"].(string)
	}

	return result
}

func TestApply_Empty(t *testing.T) {
	features := testFeatures()
	for _, expr := range []string{"", "   "} {
		result, err := Apply(features, expr)
		if err != nil {
			t.Fatalf("apply error: %v", err)
		}

		if len(result) != len(features) {
			t.Fatalf("should return all features: %d", len(result))
		}

		for i := range result {
			if result[i] != features[i] {
				t.Errorf("order changed at %d", i)
			}
		}
	}
}

func TestApply(t *testing.T) {
	cases := []struct {
		name   string
		expr   string
		result []string
	}{
		{
			name:   "and",
			expr:   "field=1 AND other=2",
			result: []string{"a", "c"},
		},
		{
			name:   "lower case keywords",
			expr:   "field = 1 and other = 2",
			result: []string{"a", "c"},
		},
		{
			name:   "or",
			expr:   "field=2 OR other=3",
			result: []string{"b", "d"},
		},
		{
			name:   "not equal skips missing",
			expr:   "field != 1",
			result: []string{"d"},
		},
		{
			name:   "canonical syntax",
			expr:   "field == 1 && (other == 3 || name == 'a')",
			result: []string{"a", "b"},
		},
		{
			name:   "strings",
			expr:   `name = "e" OR name = 'd'`,
			result: []string{"d", "e"},
		},
		{
			name:   "quoted keyword",
			expr:   `name = 'a AND b'`,
			result: []string{},
		},
		{
			name:   "ordering",
			expr:   "other > 2",
			result: []string{"b"},
		},
		{
			name:   "not",
			expr:   "NOT name = 'a' AND other <> 3",
			result: []string{"c", "d", "e"},
		},
		{
			name:   "field to field",
			expr:   "field = other",
			result: []string{"d"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Apply(testFeatures(), tc.expr)
			if err != nil {
				t.Fatalf("apply error: %v", err)
			}

			n := names(result)
			if len(n) != len(tc.result) {
				t.Fatalf("incorrect result: %v != %v", n, tc.result)
			}

			for i := range n {
				if n[i] != tc.result[i] {
					t.Errorf("incorrect result: %v != %v", n, tc.result)
				}
			}
		})
	}
}

func TestApply_Malformed(t *testing.T) {
	cases := []string{
		"field =",
		"field 1",
		"(field = 1",
		"field = 1 AND",
		"field = 'abc",
		"field & 1",
		"field = 1 )",
		"field # 1",
	}

	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			result, err := Apply(testFeatures(), expr)
			if err == nil {
				t.Fatalf("expected error")
			}

			if len(result) != 0 {
				t.Errorf("should fail closed: %v", result)
			}

			ce, ok := errors.Cause(err).(*CompileError)
			if !ok {
				t.Fatalf("incorrect error type: %T", err)
			}

			if ce.Input != expr {
				t.Errorf("incorrect input: %q", ce.Input)
			}
		})
	}
}

func TestTranslate(t *testing.T) {
	cases := []struct {
		expr   string
		result string
	}{
		{"a=1", "a==1"},
		{"a == 1", "a == 1"},
		{"a>=1 AND b<=2", "a>=1 && b<=2"},
		{"a!=1 or b<>2", "a!=1 || b!=2"},
		{"not a=1", "! a==1"},
		{"a='x=y AND z'", "a=='x=y AND z'"},
		{"ANDROID=1", "ANDROID==1"},
		{"名称='杭州' And 人口>1", "名称=='杭州' && 人口>1"},
	}

	for _, tc := range cases {
		if v := Translate(tc.expr); v != tc.result {
			t.Errorf("%q: %q != %q", tc.expr, v, tc.result)
		}
	}
}
