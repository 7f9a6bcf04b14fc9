package util

import (
	"encoding/json"
	"math"
	"testing"
)

func TestToFloat64(t *testing.T) {
	cases := []struct {
		name   string
		num    string
		result float64
		ok     bool
	}{
		{"int", "123", 123, true},
		{"negative", "-123", -123, true},
		{"float", "-1.5", -1.5, true},
		{"with spaces", "  -1.5   ", -1.5, true},
		{"with leters", "abcd", 0, false},
		{"empty", "", 0, false},
		{"nan", "NaN", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := ToFloat64(tc.num)
			if ok != tc.ok {
				t.Fatalf("not parsed correctly: %v != %v", ok, tc.ok)
			}

			if v != tc.result {
				t.Errorf("result not correct: %v != %v", v, tc.result)
			}
		})
	}
}

func TestParseNumericField(t *testing.T) {
	cases := []struct {
		name   string
		val    interface{}
		result float64
		ok     bool
	}{
		{"nil", nil, 0, false},
		{"float", 1.5, 1.5, true},
		{"int", 3, 3, true},
		{"string", " 2.25", 2.25, true},
		{"empty string", "", 0, false},
		{"json number", json.Number("7"), 7, true},
		{"bool", true, 0, false},
		{"map", map[string]interface{}{}, 0, false},
		{"inf", math.Inf(1), 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := ParseNumericField(tc.val)
			if ok != tc.ok {
				t.Fatalf("not parsed correctly: %v != %v", ok, tc.ok)
			}

			if v != tc.result {
				t.Errorf("result not correct: %v != %v", v, tc.result)
			}
		})
	}
}

func TestFieldString(t *testing.T) {
	cases := []struct {
		val    interface{}
		result string
	}{
		{nil, ""},
		{"abc", "abc"},
		{1.5, "1.5"},
		{2.0, "2"},
		{true, "true"},
	}

	for _, tc := range cases {
		if v := FieldString(tc.val); v != tc.result {
			t.Errorf("incorrect string for %v: %q != %q", tc.val, v, tc.result)
		}
	}
}

func TestResolutionToScale(t *testing.T) {
	scale, ok := ResolutionToScale(1, 96, Meter)
	if !ok {
		t.Fatalf("meter should be supported")
	}

	expected := 1 / (96 / 0.0254)
	if math.Abs(scale-expected) > 1e-12 {
		t.Errorf("incorrect scale: %v != %v", scale, expected)
	}

	res, ok := ScaleToResolution(scale, 96, Meter)
	if !ok || math.Abs(res-1) > 1e-9 {
		t.Errorf("should round trip: %v", res)
	}

	if _, ok := ResolutionToScale(1, 96, MapUnit("furlong")); ok {
		t.Errorf("unknown unit should not be supported")
	}
}

func TestMeterPerMapUnit(t *testing.T) {
	m, ok := MeterPerMapUnit("degree")
	if !ok {
		t.Fatalf("degree should be supported")
	}

	if v := math.Floor(m); v != 111319 {
		t.Errorf("incorrect meters per degree: %v", m)
	}

	if m, _ := MeterPerMapUnit(Foot); m != 0.3048 {
		t.Errorf("incorrect meters per foot: %v", m)
	}
}
